package main

import (
	"errors"
	"fmt"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/example/escuela/internal/auth"
)

type loginRequest struct {
	Username string `json:"username"`
	Correo   string `json:"correo"`
	Password string `json:"password"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

// readLogin accepts the OAuth2 password form (username, password) and its JSON equivalent.
func readLogin(r *http.Request) (loginRequest, error) {
	var in loginRequest
	ct, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if ct == "application/json" {
		if err := decodeJSON(r, &in); err != nil {
			return in, err
		}
		if in.Username == "" {
			in.Username = in.Correo
		}
	} else {
		if err := r.ParseForm(); err != nil {
			return in, fmt.Errorf("%w: invalid form body", ErrValidation)
		}
		in.Username = r.PostForm.Get("username")
		in.Password = r.PostForm.Get("password")
	}
	in.Username = strings.TrimSpace(in.Username)
	if in.Username == "" || in.Password == "" {
		return in, fmt.Errorf("%w: username and password are required", ErrValidation)
	}
	return in, nil
}

func (a *App) HandleLogin(w http.ResponseWriter, r *http.Request) {
	in, err := readLogin(r)
	if err != nil {
		a.fail(w, r, err)
		return
	}

	user, err := a.Store.GetUserByEmail(r.Context(), in.Username)
	switch {
	case err == nil:
	case errors.Is(err, ErrNotFound):
		auth.BurnPasswordCheck(in.Password)
		a.rejectLogin(w, r, "unknown_user")
		return
	default:
		a.fail(w, r, err)
		return
	}
	if !auth.CheckPassword(user.PasswordHash, in.Password) {
		a.rejectLogin(w, r, "bad_password")
		return
	}

	tok, err := a.issueToken(user)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.Metrics.logins.WithLabelValues("success").Inc()
	writeJSON(w, http.StatusOK, tok)
}

func (a *App) issueToken(user *User) (tokenResponse, error) {
	token, claims, err := a.Codec.Issue(user.Correo, auth.Role(user.RolID))
	if err != nil {
		return tokenResponse{}, err
	}
	return tokenResponse{
		AccessToken: token,
		TokenType:   "bearer",
		ExpiresIn:   int64(claims.ExpiresAt.Sub(claims.IssuedAt) / time.Second),
	}, nil
}

// rejectLogin answers a failed login identically whatever the cause.
func (a *App) rejectLogin(w http.ResponseWriter, r *http.Request, outcome string) {
	a.Metrics.logins.WithLabelValues(outcome).Inc()
	a.Log.InfoContext(r.Context(), "login rejected", "outcome", outcome, "remote", clientIP(r), "request_id", requestID(r.Context()))
	w.Header().Set("WWW-Authenticate", "Bearer")
	writeError(w, http.StatusUnauthorized, "INVALID_CREDENTIALS", "Invalid email or password")
}

// HandleStatus reports on the caller's own token.
func (a *App) HandleStatus(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.IdentityFrom(r.Context())
	writeJSON(w, http.StatusOK, map[string]any{
		"valid":  true,
		"sub":    id.Email,
		"rol_id": int(id.Role),
		"rol":    id.Role.String(),
		"exp":    id.ExpiresAt.Unix(),
	})
}

func (a *App) HandleMe(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.IdentityFrom(r.Context())
	profile, err := a.Store.GetProfile(r.Context(), id.Email)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

// HandleRoleData is the landing payload of each role-only area.
func (a *App) HandleRoleData(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.IdentityFrom(r.Context())
	writeJSON(w, http.StatusOK, map[string]any{
		"message": fmt.Sprintf("Bienvenido, %s", id.Email),
		"sub":     id.Email,
		"rol_id":  int(id.Role),
		"rol":     id.Role.String(),
	})
}

func (a *App) HandleWelcome(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": "Bienvenido a la API de la escuela"})
}

func (a *App) HandleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (a *App) HandleReady(w http.ResponseWriter, r *http.Request) {
	if err := a.Store.Ping(r.Context()); err != nil {
		a.Log.WarnContext(r.Context(), "readiness check failed", "error", err)
		writeJSON(w, http.StatusServiceUnavailable, map[string]bool{"ready": false})
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ready": true})
}
