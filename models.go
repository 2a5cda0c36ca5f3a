package main

import "time"

// User is a row of usuarios. PasswordHash never leaves the process.
type User struct {
	ID           int64     `json:"id"`
	Nombre       string    `json:"nombre"`
	Apellido     string    `json:"apellido"`
	Correo       string    `json:"correo"`
	PasswordHash string    `json:"-"`
	RolID        int       `json:"rol_id"`
	CreatedAt    time.Time `json:"created_at"`
}

// UserProfile joins a user with its role name and, when present, its student or teacher row.
type UserProfile struct {
	ID           int64   `json:"id"`
	Nombre       string  `json:"nombre"`
	Apellido     string  `json:"apellido"`
	Correo       string  `json:"correo"`
	RolID        int     `json:"rol_id"`
	Rol          string  `json:"rol"`
	Edad         *int    `json:"edad"`
	Direccion    *string `json:"direccion"`
	EstudianteID *int64  `json:"estudiante_id"`
	Especialidad *string `json:"especialidad"`
	ProfesorID   *int64  `json:"profesor_id"`
}

// Registration is the body of POST /usuarios/registro.
type Registration struct {
	Nombre       string  `json:"nombre"`
	Apellido     string  `json:"apellido"`
	Correo       string  `json:"correo"`
	Contrasena   string  `json:"contrasena"`
	RolID        int     `json:"rol_id"`
	Edad         *int    `json:"edad,omitempty"`
	Direccion    *string `json:"direccion,omitempty"`
	Especialidad *string `json:"especialidad,omitempty"`
}

type UserUpdate struct {
	Nombre   string `json:"nombre"`
	Apellido string `json:"apellido"`
	Correo   string `json:"correo"`
}

type RoleRecord struct {
	ID     int    `json:"id"`
	Nombre string `json:"nombre"`
}

type Student struct {
	ID        int64  `json:"id"`
	Nombre    string `json:"nombre"`
	Apellido  string `json:"apellido"`
	Correo    string `json:"correo"`
	Edad      int    `json:"edad"`
	Direccion string `json:"direccion"`
	UsuarioID *int64 `json:"usuario_id"`
}

type Teacher struct {
	ID           int64  `json:"id"`
	Nombre       string `json:"nombre"`
	Apellido     string `json:"apellido"`
	Correo       string `json:"correo"`
	Especialidad string `json:"especialidad"`
	UsuarioID    *int64 `json:"usuario_id"`
}

// Subject is a row of estudios, taught by one teacher.
type Subject struct {
	ID          int64  `json:"id"`
	Nombre      string `json:"nombre"`
	Descripcion string `json:"descripcion"`
	ProfesorID  int64  `json:"profesor_id"`
}

// Assignment is a row of asignacion: one student enrolled in one subject.
type Assignment struct {
	ID               int64     `json:"id"`
	EstudianteID     int64     `json:"estudiante_id"`
	EstudioID        int64     `json:"estudio_id"`
	FechaInscripcion time.Time `json:"fecha_inscripcion"`
}

type AssignmentInput struct {
	EstudianteID int64 `json:"estudiante_id"`
	EstudioID    int64 `json:"estudio_id"`
}

type PersonRef struct {
	ID       int64  `json:"id"`
	Nombre   string `json:"nombre"`
	Apellido string `json:"apellido"`
}

type SubjectRef struct {
	Nombre      string `json:"nombre"`
	Descripcion string `json:"descripcion"`
}

type TeacherRef struct {
	Nombre       string `json:"nombre"`
	Apellido     string `json:"apellido"`
	Correo       string `json:"correo"`
	Especialidad string `json:"especialidad"`
}

type StudentRef struct {
	Nombre   string `json:"nombre"`
	Apellido string `json:"apellido"`
	Correo   string `json:"correo"`
	Edad     int    `json:"edad"`
}

// Enrollment is one subject a student is enrolled in, as seen by the student.
type Enrollment struct {
	ID               int64      `json:"id"`
	FechaInscripcion time.Time  `json:"fecha_inscripcion"`
	Materia          SubjectRef `json:"materia"`
	Profesor         TeacherRef `json:"profesor"`
}

type StudentAssignments struct {
	Estudiante   PersonRef    `json:"estudiante"`
	Asignaciones []Enrollment `json:"asignaciones"`
}

type EnrolledStudent struct {
	ID               int64     `json:"id"`
	Nombre           string    `json:"nombre"`
	Apellido         string    `json:"apellido"`
	Correo           string    `json:"correo"`
	Edad             int       `json:"edad"`
	FechaInscripcion time.Time `json:"fecha_inscripcion"`
}

type SubjectRoster struct {
	ID          int64             `json:"id"`
	Nombre      string            `json:"nombre"`
	Descripcion string            `json:"descripcion"`
	Estudiantes []EnrolledStudent `json:"estudiantes"`
}

type TeacherInfo struct {
	ID           int64  `json:"id"`
	Nombre       string `json:"nombre"`
	Apellido     string `json:"apellido"`
	Especialidad string `json:"especialidad"`
}

type TeacherSubjects struct {
	Profesor TeacherInfo     `json:"profesor"`
	Materias []SubjectRoster `json:"materias"`
}

// AssignmentDetail is one enrollment with everything an administrator sees.
type AssignmentDetail struct {
	ID               int64      `json:"id"`
	FechaInscripcion time.Time  `json:"fecha_inscripcion"`
	Estudiante       StudentRef `json:"estudiante"`
	Materia          SubjectRef `json:"materia"`
	Profesor         TeacherRef `json:"profesor"`
}
