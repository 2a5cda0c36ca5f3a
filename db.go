package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/example/escuela/internal/auth"
)

// Store is the relational storage used by the handlers.
type Store interface {
	Ping(ctx context.Context) error
	Close() error
	// User operations
	RegisterUser(ctx context.Context, reg Registration, passwordHash string) (*User, error)
	GetUserByEmail(ctx context.Context, email string) (*User, error)
	GetUserByID(ctx context.Context, id int64) (*User, error)
	ListUsers(ctx context.Context) ([]User, error)
	UpdateUser(ctx context.Context, id int64, in UserUpdate) (*User, error)
	GetProfile(ctx context.Context, email string) (*UserProfile, error)
	ListRoles(ctx context.Context) ([]RoleRecord, error)
	// Student operations
	ListStudents(ctx context.Context) ([]Student, error)
	GetStudent(ctx context.Context, id int64) (*Student, error)
	CreateStudent(ctx context.Context, s Student) (*Student, error)
	UpdateStudent(ctx context.Context, id int64, s Student) (*Student, error)
	DeleteStudent(ctx context.Context, id int64) error
	// Teacher operations
	ListTeachers(ctx context.Context) ([]Teacher, error)
	GetTeacher(ctx context.Context, id int64) (*Teacher, error)
	CreateTeacher(ctx context.Context, t Teacher) (*Teacher, error)
	UpdateTeacher(ctx context.Context, id int64, t Teacher) (*Teacher, error)
	DeleteTeacher(ctx context.Context, id int64) error
	// Subject operations
	ListSubjects(ctx context.Context) ([]Subject, error)
	GetSubject(ctx context.Context, id int64) (*Subject, error)
	CreateSubject(ctx context.Context, s Subject) (*Subject, error)
	UpdateSubject(ctx context.Context, id int64, s Subject) (*Subject, error)
	DeleteSubject(ctx context.Context, id int64) error
	// Assignment operations
	StudentAssignments(ctx context.Context, email string) (*StudentAssignments, error)
	TeacherSubjects(ctx context.Context, email string) (*TeacherSubjects, error)
	ListAssignments(ctx context.Context) ([]AssignmentDetail, error)
	CreateAssignment(ctx context.Context, in AssignmentInput) (*Assignment, error)
	UpdateAssignment(ctx context.Context, id int64, in AssignmentInput) (*Assignment, error)
	DeleteAssignment(ctx context.Context, id int64) error
}

// dialect hides the differences between the SQL drivers behind sqlStore.
type dialect interface {
	// rebind rewrites ? placeholders into the driver's form.
	rebind(query string) string
	isUniqueViolation(err error) bool
	isForeignKeyViolation(err error) bool
}

// querier is satisfied by *sql.Conn and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type boundQuerier struct {
	q querier
	d dialect
}

func (b boundQuerier) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return b.q.ExecContext(ctx, b.d.rebind(query), args...)
}

func (b boundQuerier) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return b.q.QueryContext(ctx, b.d.rebind(query), args...)
}

func (b boundQuerier) QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row {
	return b.q.QueryRowContext(ctx, b.d.rebind(query), args...)
}

// sqlStore implements Store over database/sql. Every method holds exactly one pooled
// connection or transaction for its duration and releases it on every return path.
type sqlStore struct {
	db      *sql.DB
	dialect dialect
}

func (s *sqlStore) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }
func (s *sqlStore) Close() error                   { return s.db.Close() }

func (s *sqlStore) withConn(ctx context.Context, fn func(q querier) error) error {
	conn, err := s.db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("acquiring connection: %w", err)
	}
	defer conn.Close()
	return fn(boundQuerier{q: conn, d: s.dialect})
}

// withTx commits when fn succeeds and rolls back when it fails or panics.
func (s *sqlStore) withTx(ctx context.Context, fn func(q querier) error) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback()
			return
		}
		if cerr := tx.Commit(); cerr != nil {
			err = fmt.Errorf("committing transaction: %w", cerr)
		}
	}()
	return fn(boundQuerier{q: tx, d: s.dialect})
}

// classify turns driver errors into the error taxonomy; what is a conflict is named by what.
func (s *sqlStore) classify(err error, what string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, sql.ErrNoRows):
		return fmt.Errorf("%w: %s", ErrNotFound, what)
	case s.dialect.isUniqueViolation(err):
		return fmt.Errorf("%w: %s already exists", ErrConflict, what)
	case s.dialect.isForeignKeyViolation(err):
		return fmt.Errorf("%w: %s is referenced by or references a missing record", ErrConflict, what)
	}
	return err
}

func expectRow(res sql.Result, what string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, what)
	}
	return nil
}

func exists(ctx context.Context, q querier, query string, args ...any) (bool, error) {
	var one int
	err := q.QueryRowContext(ctx, query, args...).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	return err == nil, err
}

// dbTime scans timestamps from drivers that return time.Time as well as those that return text.
type dbTime struct{ t time.Time }

var dbTimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999 -0700 MST",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02",
}

func (d *dbTime) Scan(v any) error {
	switch x := v.(type) {
	case nil:
		d.t = time.Time{}
		return nil
	case time.Time:
		d.t = x.UTC()
		return nil
	case []byte:
		return d.parse(string(x))
	case string:
		return d.parse(x)
	}
	return fmt.Errorf("cannot scan %T into timestamp", v)
}

func (d *dbTime) parse(s string) error {
	for _, layout := range dbTimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			d.t = t.UTC()
			return nil
		}
	}
	return fmt.Errorf("unrecognised timestamp %q", s)
}

func nullInt64Ptr(n sql.NullInt64) *int64 {
	if !n.Valid {
		return nil
	}
	v := n.Int64
	return &v
}

func nullIntPtr(n sql.NullInt64) *int {
	if !n.Valid {
		return nil
	}
	v := int(n.Int64)
	return &v
}

func nullStringPtr(n sql.NullString) *string {
	if !n.Valid {
		return nil
	}
	v := n.String
	return &v
}

// --- users ---

const userColumns = `id, nombre, apellido, correo, contrasena, rol_id, created_at`

func scanUser(row interface{ Scan(...any) error }) (*User, error) {
	var u User
	var created dbTime
	if err := row.Scan(&u.ID, &u.Nombre, &u.Apellido, &u.Correo, &u.PasswordHash, &u.RolID, &created); err != nil {
		return nil, err
	}
	u.CreatedAt = created.t
	return &u, nil
}

// RegisterUser inserts the usuarios row and, for teachers and students, the matching
// profesores or estudiantes row in one transaction. Nothing is written unless both succeed.
func (s *sqlStore) RegisterUser(ctx context.Context, reg Registration, passwordHash string) (*User, error) {
	var user *User
	err := s.withTx(ctx, func(q querier) error {
		taken, err := exists(ctx, q, `SELECT 1 FROM usuarios WHERE correo = ?`, reg.Correo)
		if err != nil {
			return err
		}
		if taken {
			return fmt.Errorf("%w: correo already registered", ErrConflict)
		}

		row := q.QueryRowContext(ctx, `INSERT INTO usuarios (nombre, apellido, correo, contrasena, rol_id, created_at)
			VALUES (?, ?, ?, ?, ?, ?) RETURNING `+userColumns,
			reg.Nombre, reg.Apellido, reg.Correo, passwordHash, reg.RolID, time.Now().UTC())
		if user, err = scanUser(row); err != nil {
			return s.classify(err, "usuario")
		}

		switch auth.Role(reg.RolID) {
		case auth.RoleTeacher:
			if reg.Especialidad == nil || *reg.Especialidad == "" {
				return fmt.Errorf("%w: especialidad is required for a teacher", ErrValidation)
			}
			_, err = q.ExecContext(ctx, `INSERT INTO profesores (nombre, apellido, correo, especialidad, usuario_id) VALUES (?, ?, ?, ?, ?)`,
				reg.Nombre, reg.Apellido, reg.Correo, *reg.Especialidad, user.ID)
			return s.classify(err, "profesor")
		case auth.RoleStudent:
			if reg.Edad == nil || reg.Direccion == nil || *reg.Direccion == "" {
				return fmt.Errorf("%w: edad and direccion are required for a student", ErrValidation)
			}
			_, err = q.ExecContext(ctx, `INSERT INTO estudiantes (nombre, apellido, correo, edad, direccion, usuario_id) VALUES (?, ?, ?, ?, ?, ?)`,
				reg.Nombre, reg.Apellido, reg.Correo, *reg.Edad, *reg.Direccion, user.ID)
			return s.classify(err, "estudiante")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (s *sqlStore) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	var u *User
	err := s.withConn(ctx, func(q querier) error {
		var err error
		u, err = scanUser(q.QueryRowContext(ctx, `SELECT `+userColumns+` FROM usuarios WHERE correo = ?`, email))
		return s.classify(err, "usuario")
	})
	return u, err
}

func (s *sqlStore) GetUserByID(ctx context.Context, id int64) (*User, error) {
	var u *User
	err := s.withConn(ctx, func(q querier) error {
		var err error
		u, err = scanUser(q.QueryRowContext(ctx, `SELECT `+userColumns+` FROM usuarios WHERE id = ?`, id))
		return s.classify(err, "usuario")
	})
	return u, err
}

func (s *sqlStore) ListUsers(ctx context.Context) ([]User, error) {
	users := []User{}
	err := s.withConn(ctx, func(q querier) error {
		rows, err := q.QueryContext(ctx, `SELECT `+userColumns+` FROM usuarios ORDER BY id`)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			u, err := scanUser(rows)
			if err != nil {
				return err
			}
			users = append(users, *u)
		}
		return rows.Err()
	})
	return users, err
}

func (s *sqlStore) UpdateUser(ctx context.Context, id int64, in UserUpdate) (*User, error) {
	var u *User
	err := s.withConn(ctx, func(q querier) error {
		var err error
		u, err = scanUser(q.QueryRowContext(ctx, `UPDATE usuarios SET nombre = ?, apellido = ?, correo = ? WHERE id = ? RETURNING `+userColumns,
			in.Nombre, in.Apellido, in.Correo, id))
		return s.classify(err, "usuario")
	})
	return u, err
}

func (s *sqlStore) GetProfile(ctx context.Context, email string) (*UserProfile, error) {
	var p UserProfile
	err := s.withConn(ctx, func(q querier) error {
		var (
			edad, estudianteID, profesorID sql.NullInt64
			direccion, especialidad        sql.NullString
		)
		err := q.QueryRowContext(ctx, `
			SELECT u.id, u.nombre, u.apellido, u.correo, u.rol_id, COALESCE(r.nombre, ''),
			       e.edad, e.direccion, e.id, p.especialidad, p.id
			FROM usuarios u
			LEFT JOIN roles r ON u.rol_id = r.id
			LEFT JOIN estudiantes e ON u.id = e.usuario_id
			LEFT JOIN profesores p ON u.id = p.usuario_id
			WHERE u.correo = ?`, email).Scan(
			&p.ID, &p.Nombre, &p.Apellido, &p.Correo, &p.RolID, &p.Rol,
			&edad, &direccion, &estudianteID, &especialidad, &profesorID)
		if err != nil {
			return s.classify(err, "usuario")
		}
		p.Edad = nullIntPtr(edad)
		p.Direccion = nullStringPtr(direccion)
		p.EstudianteID = nullInt64Ptr(estudianteID)
		p.Especialidad = nullStringPtr(especialidad)
		p.ProfesorID = nullInt64Ptr(profesorID)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *sqlStore) ListRoles(ctx context.Context) ([]RoleRecord, error) {
	roles := []RoleRecord{}
	err := s.withConn(ctx, func(q querier) error {
		rows, err := q.QueryContext(ctx, `SELECT id, nombre FROM roles ORDER BY id`)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			var r RoleRecord
			if err := rows.Scan(&r.ID, &r.Nombre); err != nil {
				return err
			}
			roles = append(roles, r)
		}
		return rows.Err()
	})
	return roles, err
}
