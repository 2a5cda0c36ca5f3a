package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// sqliteSchema mirrors migrations/ for the SQLite adapter, which bootstraps itself.
var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS roles (
		id     INTEGER PRIMARY KEY,
		nombre TEXT NOT NULL UNIQUE
	)`,
	`CREATE TABLE IF NOT EXISTS usuarios (
		id         INTEGER PRIMARY KEY AUTOINCREMENT,
		nombre     TEXT NOT NULL,
		apellido   TEXT NOT NULL,
		correo     TEXT NOT NULL UNIQUE,
		contrasena TEXT NOT NULL,
		rol_id     INTEGER NOT NULL REFERENCES roles(id),
		created_at TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS estudiantes (
		id         INTEGER PRIMARY KEY AUTOINCREMENT,
		nombre     TEXT NOT NULL,
		apellido   TEXT NOT NULL,
		correo     TEXT NOT NULL UNIQUE,
		edad       INTEGER NOT NULL CHECK (edad > 0),
		direccion  TEXT NOT NULL,
		usuario_id INTEGER UNIQUE REFERENCES usuarios(id) ON DELETE SET NULL
	)`,
	`CREATE TABLE IF NOT EXISTS profesores (
		id           INTEGER PRIMARY KEY AUTOINCREMENT,
		nombre       TEXT NOT NULL,
		apellido     TEXT NOT NULL,
		correo       TEXT NOT NULL UNIQUE,
		especialidad TEXT NOT NULL,
		usuario_id   INTEGER UNIQUE REFERENCES usuarios(id) ON DELETE SET NULL
	)`,
	`CREATE TABLE IF NOT EXISTS estudios (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		nombre      TEXT NOT NULL,
		descripcion TEXT NOT NULL DEFAULT '',
		profesor_id INTEGER NOT NULL REFERENCES profesores(id) ON DELETE RESTRICT
	)`,
	`CREATE TABLE IF NOT EXISTS asignacion (
		id                INTEGER PRIMARY KEY AUTOINCREMENT,
		estudiante_id     INTEGER NOT NULL REFERENCES estudiantes(id) ON DELETE CASCADE,
		estudio_id        INTEGER NOT NULL REFERENCES estudios(id) ON DELETE CASCADE,
		fecha_inscripcion TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP,
		UNIQUE (estudiante_id, estudio_id)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_estudios_profesor ON estudios(profesor_id)`,
	`CREATE INDEX IF NOT EXISTS idx_asignacion_estudio ON asignacion(estudio_id)`,
	`INSERT OR IGNORE INTO roles (id, nombre) VALUES (1, 'Profesor'), (2, 'Estudiante'), (3, 'Admin')`,
}

type sqliteDialect struct{}

func (sqliteDialect) rebind(query string) string { return query }

// constraintError matches extended result codes, and the primary SQLITE_CONSTRAINT code by message.
func constraintError(err error, message string, codes ...int) bool {
	var se *sqlite.Error
	if !errors.As(err, &se) {
		return false
	}
	for _, c := range codes {
		if se.Code() == c {
			return true
		}
	}
	return se.Code() == sqlite3.SQLITE_CONSTRAINT && strings.Contains(se.Error(), message)
}

func (sqliteDialect) isUniqueViolation(err error) bool {
	return constraintError(err, "UNIQUE constraint failed",
		sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY)
}

func (sqliteDialect) isForeignKeyViolation(err error) bool {
	return constraintError(err, "FOREIGN KEY constraint failed", sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY)
}

// NewSQLiteStore opens (creating if needed) the database file at path and applies the schema.
func NewSQLiteStore(ctx context.Context, path string) (Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating sqlite directory: %w", err)
		}
	}
	return openSQLite(ctx, "file:"+path)
}

// NewMemoryStore returns a private in-memory SQLite database. It lives for as long as
// its single pooled connection, so the pool never lets that connection expire.
func NewMemoryStore(ctx context.Context) (Store, error) {
	return openSQLite(ctx, "file::memory:")
}

func openSQLite(ctx context.Context, name string) (Store, error) {
	params := url.Values{}
	params.Add("_pragma", "foreign_keys(1)")
	params.Add("_pragma", "busy_timeout(5000)")
	db, err := sql.Open("sqlite", name+"?"+params.Encode())
	if err != nil {
		return nil, fmt.Errorf("opening sqlite: %w", err)
	}
	// SQLite serialises writers; one connection keeps transactions from failing with SQLITE_BUSY.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)
	db.SetConnMaxIdleTime(0)

	for _, stmt := range sqliteSchema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("applying sqlite schema: %w", err)
		}
	}
	return &sqlStore{db: db, dialect: sqliteDialect{}}, nil
}
