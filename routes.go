package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/example/escuela/internal/auth"
	"github.com/example/escuela/internal/config"
)

// App carries everything a handler needs. Nothing in it changes after NewApp returns
// except the limiter buckets and the metric values.
type App struct {
	Store   Store
	Codec   *auth.Codec
	Guard   *auth.Guard
	Log     *slog.Logger
	Metrics *Metrics
	limiter *RateLimiter
	cfg     *config.Config
}

func NewApp(c *config.Config, store Store, log *slog.Logger) (*App, error) {
	codec, err := auth.NewCodec([]byte(c.JwtSecret), c.JwtAlgorithm, c.AccessTokenTTL)
	if err != nil {
		return nil, fmt.Errorf("token codec: %w", err)
	}
	a := &App{
		Store:   store,
		Codec:   codec,
		Guard:   auth.NewGuard(codec),
		Log:     log,
		Metrics: NewMetrics(),
		cfg:     c,
	}
	if c.LoginRatePerMinute > 0 {
		a.limiter = NewRateLimiter(c.LoginRatePerMinute)
	}
	return a, nil
}

// Handler is the full HTTP surface: the router behind the global middleware.
// CORS sits outside the router so preflight requests reach it for every path.
func (a *App) Handler() http.Handler {
	return SecurityHeaders(a.Logging(a.CORS(a.Router())))
}

func (a *App) Router() *mux.Router {
	r := mux.NewRouter()
	r.Use(a.Metrics.Instrument)

	var (
		teacher = auth.RoleTeacher
		student = auth.RoleStudent
		admin   = auth.RoleAdmin
	)

	// Operational endpoints (no auth required)
	r.HandleFunc("/", a.HandleWelcome).Methods("GET")
	r.HandleFunc("/health", a.HandleHealth).Methods("GET")
	r.HandleFunc("/ready", a.HandleReady).Methods("GET")
	r.Handle("/metrics", a.Metrics.Handler()).Methods("GET")

	// Authentication
	r.Handle("/login", a.RateLimit(http.HandlerFunc(a.HandleLogin))).Methods("POST")
	r.Handle("/auth/login", a.RateLimit(http.HandlerFunc(a.HandleLogin))).Methods("POST")
	r.Handle("/auth/status", a.gate(a.HandleStatus, auth.AllRoles...)).Methods("GET")
	r.Handle("/auth/me", a.gate(a.HandleMe, auth.AllRoles...)).Methods("GET")
	r.Handle("/auth/profile", a.gate(a.HandleMe, auth.AllRoles...)).Methods("GET")

	// Users
	users := r.PathPrefix("/usuarios").Subrouter()
	users.HandleFunc("/registro", a.HandleRegister).Methods("POST")
	users.Handle("/admin", a.gate(a.HandleRoleData, admin)).Methods("GET")
	users.Handle("/profesor", a.gate(a.HandleRoleData, teacher)).Methods("GET")
	users.Handle("/estudiante", a.gate(a.HandleRoleData, student)).Methods("GET")
	users.Handle("", a.gate(a.HandleListUsers, admin)).Methods("GET")
	users.Handle("/", a.gate(a.HandleListUsers, admin)).Methods("GET")
	users.Handle("/{id:[0-9]+}", a.gate(a.HandleGetUser, auth.AllRoles...)).Methods("GET")
	users.Handle("/{id:[0-9]+}", a.gate(a.HandleUpdateUser, auth.AllRoles...)).Methods("PUT")
	r.Handle("/roles", a.gate(a.HandleListRoles, admin)).Methods("GET")

	// Students
	students := r.PathPrefix("/estudiantes").Subrouter()
	students.Handle("", a.gate(a.HandleListStudents, teacher, admin)).Methods("GET")
	students.Handle("/", a.gate(a.HandleListStudents, teacher, admin)).Methods("GET")
	students.Handle("/", a.gate(a.HandleCreateStudent, admin)).Methods("POST")
	students.Handle("", a.gate(a.HandleCreateStudent, admin)).Methods("POST")
	students.Handle("/{id:[0-9]+}", a.gate(a.HandleGetStudent, teacher, admin)).Methods("GET")
	students.Handle("/{id:[0-9]+}", a.gate(a.HandleUpdateStudent, admin)).Methods("PUT")
	students.Handle("/{id:[0-9]+}", a.gate(a.HandleDeleteStudent, admin)).Methods("DELETE")

	// Teachers
	teachers := r.PathPrefix("/profesores").Subrouter()
	teachers.Handle("", a.gate(a.HandleListTeachers, auth.AllRoles...)).Methods("GET")
	teachers.Handle("/", a.gate(a.HandleListTeachers, auth.AllRoles...)).Methods("GET")
	teachers.Handle("", a.gate(a.HandleCreateTeacher, admin)).Methods("POST")
	teachers.Handle("/", a.gate(a.HandleCreateTeacher, admin)).Methods("POST")
	teachers.Handle("/{id:[0-9]+}", a.gate(a.HandleGetTeacher, auth.AllRoles...)).Methods("GET")
	teachers.Handle("/{id:[0-9]+}", a.gate(a.HandleUpdateTeacher, admin)).Methods("PUT")
	teachers.Handle("/{id:[0-9]+}", a.gate(a.HandleDeleteTeacher, admin)).Methods("DELETE")

	// Subjects
	subjects := r.PathPrefix("/estudios").Subrouter()
	subjects.Handle("", a.gate(a.HandleListSubjects, auth.AllRoles...)).Methods("GET")
	subjects.Handle("/", a.gate(a.HandleListSubjects, auth.AllRoles...)).Methods("GET")
	subjects.Handle("", a.gate(a.HandleCreateSubject, admin)).Methods("POST")
	subjects.Handle("/", a.gate(a.HandleCreateSubject, admin)).Methods("POST")
	subjects.Handle("/{id:[0-9]+}", a.gate(a.HandleGetSubject, auth.AllRoles...)).Methods("GET")
	subjects.Handle("/{id:[0-9]+}", a.gate(a.HandleUpdateSubject, admin)).Methods("PUT")
	subjects.Handle("/{id:[0-9]+}", a.gate(a.HandleDeleteSubject, admin)).Methods("DELETE")

	// Assignments
	assignments := r.PathPrefix("/asignaciones").Subrouter()
	assignments.Handle("/estudiante", a.gate(a.HandleStudentAssignments, student)).Methods("GET")
	assignments.Handle("/profesor", a.gate(a.HandleTeacherSubjects, teacher)).Methods("GET")
	assignments.Handle("", a.gate(a.HandleListAssignments, admin)).Methods("GET")
	assignments.Handle("/", a.gate(a.HandleListAssignments, admin)).Methods("GET")
	assignments.Handle("", a.gate(a.HandleCreateAssignment, admin)).Methods("POST")
	assignments.Handle("/", a.gate(a.HandleCreateAssignment, admin)).Methods("POST")
	assignments.Handle("/{id:[0-9]+}", a.gate(a.HandleUpdateAssignment, admin)).Methods("PUT")
	assignments.Handle("/{id:[0-9]+}", a.gate(a.HandleDeleteAssignment, admin)).Methods("DELETE")

	// Legacy endpoints: paths used by the previous backend and its frontend.
	// The previous backend mounted its account router under /auth.
	r.Handle("/auth/login/", a.RateLimit(http.HandlerFunc(a.HandleLogin))).Methods("POST")
	r.Handle("/auth/status/", a.gate(a.HandleStatus, auth.AllRoles...)).Methods("GET")
	r.Handle("/auth/perfil/", a.gate(a.HandleMe, auth.AllRoles...)).Methods("GET")
	r.Handle("/auth/usuarios/perfil/{id:[0-9]+}", a.gate(a.HandleGetUser, auth.AllRoles...)).Methods("GET")
	r.Handle("/auth/usuarios/perfil/{id:[0-9]+}", a.gate(a.HandleUpdateUser, auth.AllRoles...)).Methods("PUT")
	r.Handle("/auth/usuarios/admin", a.gate(a.HandleRoleData, admin)).Methods("GET")
	r.Handle("/auth/usuarios/profesor", a.gate(a.HandleRoleData, teacher)).Methods("GET")
	r.Handle("/auth/usuarios/estudiante", a.gate(a.HandleRoleData, student)).Methods("GET")
	users.HandleFunc("/registro/", a.HandleRegister).Methods("POST")
	students.Handle("/estudiante_view", a.gate(a.HandleListStudents, teacher, admin)).Methods("GET")
	students.Handle("/create/", a.gate(a.HandleCreateStudent, admin)).Methods("POST")
	students.Handle("/update/{id:[0-9]+}", a.gate(a.HandleUpdateStudent, admin)).Methods("PUT")
	students.Handle("/delete/{id:[0-9]+}", a.gate(a.HandleDeleteStudent, admin)).Methods("DELETE")
	teachers.Handle("/profesores/list", a.gate(a.HandleListTeachers, auth.AllRoles...)).Methods("GET")
	teachers.Handle("/profesores_get/", a.gate(a.HandleListTeachers, auth.AllRoles...)).Methods("GET")
	teachers.Handle("/profesores_create/", a.gate(a.HandleCreateTeacher, admin)).Methods("POST")
	teachers.Handle("/profesores_update/{id:[0-9]+}", a.gate(a.HandleUpdateTeacher, admin)).Methods("PUT")
	teachers.Handle("/profesores_delete/{id:[0-9]+}", a.gate(a.HandleDeleteTeacher, admin)).Methods("DELETE")
	assignments.Handle("/all", a.gate(a.HandleListAssignments, admin)).Methods("GET")
	assignments.Handle("/create", a.gate(a.HandleCreateAssignment, admin)).Methods("POST")
	assignments.Handle("/update/{id:[0-9]+}", a.gate(a.HandleUpdateAssignment, admin)).Methods("PUT")
	assignments.Handle("/delete/{id:[0-9]+}", a.gate(a.HandleDeleteAssignment, admin)).Methods("DELETE")

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "NOT_FOUND", "Resource not found")
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed")
	})
	return r
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(v)
}

// decodeJSON reads a single JSON object from the body into v.
func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, 1<<20))
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: request body is empty", ErrValidation)
		}
		return fmt.Errorf("%w: invalid request body", ErrValidation)
	}
	return nil
}

func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: invalid id", ErrValidation)
	}
	return id, nil
}
