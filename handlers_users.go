package main

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/example/escuela/internal/auth"
)

const minPasswordLen = 6

func validEmail(s string) bool {
	return strings.Contains(s, "@") && strings.Contains(s, ".")
}

// required takes name, value pairs and reports the first blank value.
func required(pairs ...string) error {
	for i := 0; i+1 < len(pairs); i += 2 {
		if strings.TrimSpace(pairs[i+1]) == "" {
			return fmt.Errorf("%w: %s is required", ErrValidation, pairs[i])
		}
	}
	return nil
}

func (reg *Registration) validate() error {
	reg.Correo = strings.TrimSpace(reg.Correo)
	if err := required("nombre", reg.Nombre, "apellido", reg.Apellido); err != nil {
		return err
	}
	if !validEmail(reg.Correo) {
		return fmt.Errorf("%w: correo must be a valid email address", ErrValidation)
	}
	if len(reg.Contrasena) < minPasswordLen {
		return fmt.Errorf("%w: contrasena must be at least %d characters", ErrValidation, minPasswordLen)
	}
	if len(reg.Contrasena) > auth.MaxPasswordBytes {
		return fmt.Errorf("%w: contrasena must be at most %d bytes", ErrValidation, auth.MaxPasswordBytes)
	}
	switch auth.Role(reg.RolID) {
	case auth.RoleTeacher:
		if reg.Especialidad == nil || strings.TrimSpace(*reg.Especialidad) == "" {
			return fmt.Errorf("%w: especialidad is required for a teacher", ErrValidation)
		}
	case auth.RoleStudent:
		if reg.Edad == nil || *reg.Edad <= 0 {
			return fmt.Errorf("%w: edad must be positive for a student", ErrValidation)
		}
		if reg.Direccion == nil || strings.TrimSpace(*reg.Direccion) == "" {
			return fmt.Errorf("%w: direccion is required for a student", ErrValidation)
		}
	case auth.RoleAdmin:
	default:
		return fmt.Errorf("%w: rol_id must be 1, 2 or 3", ErrValidation)
	}
	return nil
}

// HandleRegister creates an account. Teachers and students may sign themselves up;
// creating an administrator takes an administrator's token.
func (a *App) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var reg Registration
	if err := decodeJSON(r, &reg); err != nil {
		a.fail(w, r, err)
		return
	}
	if err := reg.validate(); err != nil {
		a.fail(w, r, err)
		return
	}
	if auth.Role(reg.RolID) == auth.RoleAdmin {
		id, err := a.Guard.Authenticate(r)
		if err != nil {
			a.fail(w, r, err)
			return
		}
		if err := auth.Authorize(id, auth.RoleAdmin); err != nil {
			a.fail(w, r, err)
			return
		}
	}

	hashed, err := auth.HashPassword(reg.Contrasena)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	user, err := a.Store.RegisterUser(r.Context(), reg, hashed)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.Log.InfoContext(r.Context(), "user registered", "user_id", user.ID, "rol_id", user.RolID, "request_id", requestID(r.Context()))
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Usuario registrado exitosamente",
		"usuario": user,
	})
}

func (a *App) HandleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := a.Store.ListUsers(r.Context())
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

// selfOrAdmin lets administrators at any user and everyone else only at themselves.
// self reports whether userID is the caller's own account.
func (a *App) selfOrAdmin(r *http.Request, userID int64) (self bool, err error) {
	id, _ := auth.IdentityFrom(r.Context())
	caller, lookupErr := a.Store.GetUserByEmail(r.Context(), id.Email)
	self = lookupErr == nil && caller.ID == userID
	switch {
	case self || id.Role == auth.RoleAdmin:
		return self, nil
	case lookupErr != nil:
		return false, fmt.Errorf("%w: caller account no longer exists", auth.ErrForbidden)
	default:
		return false, fmt.Errorf("%w: not your account", auth.ErrForbidden)
	}
}

// userUpdateResponse carries a fresh token when callers change their own correo,
// since the token they hold names the old address.
type userUpdateResponse struct {
	User
	AccessToken string `json:"access_token,omitempty"`
	TokenType   string `json:"token_type,omitempty"`
	ExpiresIn   int64  `json:"expires_in,omitempty"`
}

func (a *App) HandleGetUser(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	if _, err := a.selfOrAdmin(r, userID); err != nil {
		a.fail(w, r, err)
		return
	}
	user, err := a.Store.GetUserByID(r.Context(), userID)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (a *App) HandleUpdateUser(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	self, err := a.selfOrAdmin(r, userID)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	var in UserUpdate
	if err := decodeJSON(r, &in); err != nil {
		a.fail(w, r, err)
		return
	}
	in.Correo = strings.TrimSpace(in.Correo)
	if err := required("nombre", in.Nombre, "apellido", in.Apellido); err != nil {
		a.fail(w, r, err)
		return
	}
	if !validEmail(in.Correo) {
		a.fail(w, r, fmt.Errorf("%w: correo must be a valid email address", ErrValidation))
		return
	}
	user, err := a.Store.UpdateUser(r.Context(), userID, in)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	out := userUpdateResponse{User: *user}
	if id, _ := auth.IdentityFrom(r.Context()); self && id.Email != user.Correo {
		tok, err := a.issueToken(user)
		if err != nil {
			a.fail(w, r, err)
			return
		}
		out.AccessToken, out.TokenType, out.ExpiresIn = tok.AccessToken, tok.TokenType, tok.ExpiresIn
	}
	writeJSON(w, http.StatusOK, out)
}

func (a *App) HandleListRoles(w http.ResponseWriter, r *http.Request) {
	roles, err := a.Store.ListRoles(r.Context())
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, roles)
}
