package main

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// --- students ---

const studentColumns = `id, nombre, apellido, correo, edad, direccion, usuario_id`

func scanStudent(row interface{ Scan(...any) error }) (*Student, error) {
	var st Student
	var usuarioID sql.NullInt64
	if err := row.Scan(&st.ID, &st.Nombre, &st.Apellido, &st.Correo, &st.Edad, &st.Direccion, &usuarioID); err != nil {
		return nil, err
	}
	st.UsuarioID = nullInt64Ptr(usuarioID)
	return &st, nil
}

func (s *sqlStore) ListStudents(ctx context.Context) ([]Student, error) {
	students := []Student{}
	err := s.withConn(ctx, func(q querier) error {
		rows, err := q.QueryContext(ctx, `SELECT `+studentColumns+` FROM estudiantes ORDER BY id`)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			st, err := scanStudent(rows)
			if err != nil {
				return err
			}
			students = append(students, *st)
		}
		return rows.Err()
	})
	return students, err
}

func (s *sqlStore) GetStudent(ctx context.Context, id int64) (*Student, error) {
	var st *Student
	err := s.withConn(ctx, func(q querier) error {
		var err error
		st, err = scanStudent(q.QueryRowContext(ctx, `SELECT `+studentColumns+` FROM estudiantes WHERE id = ?`, id))
		return s.classify(err, "estudiante")
	})
	return st, err
}

func (s *sqlStore) CreateStudent(ctx context.Context, in Student) (*Student, error) {
	var st *Student
	err := s.withConn(ctx, func(q querier) error {
		var err error
		st, err = scanStudent(q.QueryRowContext(ctx, `INSERT INTO estudiantes (nombre, apellido, correo, edad, direccion, usuario_id)
			VALUES (?, ?, ?, ?, ?, ?) RETURNING `+studentColumns,
			in.Nombre, in.Apellido, in.Correo, in.Edad, in.Direccion, in.UsuarioID))
		return s.classify(err, "estudiante")
	})
	return st, err
}

func (s *sqlStore) UpdateStudent(ctx context.Context, id int64, in Student) (*Student, error) {
	var st *Student
	err := s.withConn(ctx, func(q querier) error {
		var err error
		st, err = scanStudent(q.QueryRowContext(ctx, `UPDATE estudiantes SET nombre = ?, apellido = ?, correo = ?, edad = ?, direccion = ?
			WHERE id = ? RETURNING `+studentColumns,
			in.Nombre, in.Apellido, in.Correo, in.Edad, in.Direccion, id))
		return s.classify(err, "estudiante")
	})
	return st, err
}

func (s *sqlStore) DeleteStudent(ctx context.Context, id int64) error {
	return s.withConn(ctx, func(q querier) error {
		res, err := q.ExecContext(ctx, `DELETE FROM estudiantes WHERE id = ?`, id)
		if err != nil {
			return s.classify(err, "estudiante")
		}
		return expectRow(res, "estudiante")
	})
}

// --- teachers ---

const teacherColumns = `id, nombre, apellido, correo, especialidad, usuario_id`

func scanTeacher(row interface{ Scan(...any) error }) (*Teacher, error) {
	var t Teacher
	var usuarioID sql.NullInt64
	if err := row.Scan(&t.ID, &t.Nombre, &t.Apellido, &t.Correo, &t.Especialidad, &usuarioID); err != nil {
		return nil, err
	}
	t.UsuarioID = nullInt64Ptr(usuarioID)
	return &t, nil
}

func (s *sqlStore) ListTeachers(ctx context.Context) ([]Teacher, error) {
	teachers := []Teacher{}
	err := s.withConn(ctx, func(q querier) error {
		rows, err := q.QueryContext(ctx, `SELECT `+teacherColumns+` FROM profesores ORDER BY id`)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			t, err := scanTeacher(rows)
			if err != nil {
				return err
			}
			teachers = append(teachers, *t)
		}
		return rows.Err()
	})
	return teachers, err
}

func (s *sqlStore) GetTeacher(ctx context.Context, id int64) (*Teacher, error) {
	var t *Teacher
	err := s.withConn(ctx, func(q querier) error {
		var err error
		t, err = scanTeacher(q.QueryRowContext(ctx, `SELECT `+teacherColumns+` FROM profesores WHERE id = ?`, id))
		return s.classify(err, "profesor")
	})
	return t, err
}

func (s *sqlStore) CreateTeacher(ctx context.Context, in Teacher) (*Teacher, error) {
	var t *Teacher
	err := s.withConn(ctx, func(q querier) error {
		var err error
		t, err = scanTeacher(q.QueryRowContext(ctx, `INSERT INTO profesores (nombre, apellido, correo, especialidad, usuario_id)
			VALUES (?, ?, ?, ?, ?) RETURNING `+teacherColumns,
			in.Nombre, in.Apellido, in.Correo, in.Especialidad, in.UsuarioID))
		return s.classify(err, "profesor")
	})
	return t, err
}

// UpdateTeacher checks the new email against every other teacher before writing.
func (s *sqlStore) UpdateTeacher(ctx context.Context, id int64, in Teacher) (*Teacher, error) {
	var t *Teacher
	err := s.withTx(ctx, func(q querier) error {
		taken, err := exists(ctx, q, `SELECT 1 FROM profesores WHERE correo = ? AND id <> ?`, in.Correo, id)
		if err != nil {
			return err
		}
		if taken {
			return fmt.Errorf("%w: correo already used by another profesor", ErrConflict)
		}
		t, err = scanTeacher(q.QueryRowContext(ctx, `UPDATE profesores SET nombre = ?, apellido = ?, correo = ?, especialidad = ?
			WHERE id = ? RETURNING `+teacherColumns,
			in.Nombre, in.Apellido, in.Correo, in.Especialidad, id))
		return s.classify(err, "profesor")
	})
	return t, err
}

func (s *sqlStore) DeleteTeacher(ctx context.Context, id int64) error {
	return s.withConn(ctx, func(q querier) error {
		res, err := q.ExecContext(ctx, `DELETE FROM profesores WHERE id = ?`, id)
		if err != nil {
			return s.classify(err, "profesor")
		}
		return expectRow(res, "profesor")
	})
}

// --- subjects ---

const subjectColumns = `id, nombre, descripcion, profesor_id`

func scanSubject(row interface{ Scan(...any) error }) (*Subject, error) {
	var sub Subject
	if err := row.Scan(&sub.ID, &sub.Nombre, &sub.Descripcion, &sub.ProfesorID); err != nil {
		return nil, err
	}
	return &sub, nil
}

func (s *sqlStore) ListSubjects(ctx context.Context) ([]Subject, error) {
	subjects := []Subject{}
	err := s.withConn(ctx, func(q querier) error {
		rows, err := q.QueryContext(ctx, `SELECT `+subjectColumns+` FROM estudios ORDER BY id`)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			sub, err := scanSubject(rows)
			if err != nil {
				return err
			}
			subjects = append(subjects, *sub)
		}
		return rows.Err()
	})
	return subjects, err
}

func (s *sqlStore) GetSubject(ctx context.Context, id int64) (*Subject, error) {
	var sub *Subject
	err := s.withConn(ctx, func(q querier) error {
		var err error
		sub, err = scanSubject(q.QueryRowContext(ctx, `SELECT `+subjectColumns+` FROM estudios WHERE id = ?`, id))
		return s.classify(err, "estudio")
	})
	return sub, err
}

func requireTeacher(ctx context.Context, q querier, id int64) error {
	ok, err := exists(ctx, q, `SELECT 1 FROM profesores WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: profesor %d", ErrNotFound, id)
	}
	return nil
}

func (s *sqlStore) CreateSubject(ctx context.Context, in Subject) (*Subject, error) {
	var sub *Subject
	err := s.withTx(ctx, func(q querier) error {
		if err := requireTeacher(ctx, q, in.ProfesorID); err != nil {
			return err
		}
		var err error
		sub, err = scanSubject(q.QueryRowContext(ctx, `INSERT INTO estudios (nombre, descripcion, profesor_id)
			VALUES (?, ?, ?) RETURNING `+subjectColumns,
			in.Nombre, in.Descripcion, in.ProfesorID))
		return s.classify(err, "estudio")
	})
	return sub, err
}

func (s *sqlStore) UpdateSubject(ctx context.Context, id int64, in Subject) (*Subject, error) {
	var sub *Subject
	err := s.withTx(ctx, func(q querier) error {
		if err := requireTeacher(ctx, q, in.ProfesorID); err != nil {
			return err
		}
		var err error
		sub, err = scanSubject(q.QueryRowContext(ctx, `UPDATE estudios SET nombre = ?, descripcion = ?, profesor_id = ?
			WHERE id = ? RETURNING `+subjectColumns,
			in.Nombre, in.Descripcion, in.ProfesorID, id))
		return s.classify(err, "estudio")
	})
	return sub, err
}

func (s *sqlStore) DeleteSubject(ctx context.Context, id int64) error {
	return s.withConn(ctx, func(q querier) error {
		res, err := q.ExecContext(ctx, `DELETE FROM estudios WHERE id = ?`, id)
		if err != nil {
			return s.classify(err, "estudio")
		}
		return expectRow(res, "estudio")
	})
}

// --- assignments ---

const assignmentColumns = `id, estudiante_id, estudio_id, fecha_inscripcion`

func scanAssignment(row interface{ Scan(...any) error }) (*Assignment, error) {
	var a Assignment
	var fecha dbTime
	if err := row.Scan(&a.ID, &a.EstudianteID, &a.EstudioID, &fecha); err != nil {
		return nil, err
	}
	a.FechaInscripcion = fecha.t
	return &a, nil
}

// StudentAssignments resolves the student linked to the account with this email and
// lists the subjects it is enrolled in, newest enrollment first.
func (s *sqlStore) StudentAssignments(ctx context.Context, email string) (*StudentAssignments, error) {
	out := &StudentAssignments{Asignaciones: []Enrollment{}}
	err := s.withConn(ctx, func(q querier) error {
		var estudianteID int64
		err := q.QueryRowContext(ctx, `
			SELECT e.id, e.nombre, e.apellido
			FROM estudiantes e
			JOIN usuarios u ON e.usuario_id = u.id
			WHERE u.correo = ?`, email).Scan(&estudianteID, &out.Estudiante.Nombre, &out.Estudiante.Apellido)
		if err != nil {
			return s.classify(err, "estudiante")
		}
		out.Estudiante.ID = estudianteID

		rows, err := q.QueryContext(ctx, `
			SELECT a.id, a.fecha_inscripcion, es.nombre, es.descripcion,
			       p.nombre, p.apellido, p.correo, p.especialidad
			FROM asignacion a
			JOIN estudios es ON a.estudio_id = es.id
			JOIN profesores p ON es.profesor_id = p.id
			WHERE a.estudiante_id = ?
			ORDER BY a.fecha_inscripcion DESC, a.id DESC`, estudianteID)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			var e Enrollment
			var fecha dbTime
			if err := rows.Scan(&e.ID, &fecha, &e.Materia.Nombre, &e.Materia.Descripcion,
				&e.Profesor.Nombre, &e.Profesor.Apellido, &e.Profesor.Correo, &e.Profesor.Especialidad); err != nil {
				return err
			}
			e.FechaInscripcion = fecha.t
			out.Asignaciones = append(out.Asignaciones, e)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// TeacherSubjects resolves the teacher linked to the account with this email and groups
// the students of each of its subjects under that subject.
func (s *sqlStore) TeacherSubjects(ctx context.Context, email string) (*TeacherSubjects, error) {
	out := &TeacherSubjects{Materias: []SubjectRoster{}}
	err := s.withConn(ctx, func(q querier) error {
		err := q.QueryRowContext(ctx, `
			SELECT p.id, p.nombre, p.apellido, p.especialidad
			FROM profesores p
			JOIN usuarios u ON p.usuario_id = u.id
			WHERE u.correo = ?`, email).Scan(&out.Profesor.ID, &out.Profesor.Nombre, &out.Profesor.Apellido, &out.Profesor.Especialidad)
		if err != nil {
			return s.classify(err, "profesor")
		}

		rows, err := q.QueryContext(ctx, `
			SELECT es.id, es.nombre, es.descripcion,
			       e.id, e.nombre, e.apellido, e.correo, e.edad, a.fecha_inscripcion
			FROM estudios es
			LEFT JOIN asignacion a ON es.id = a.estudio_id
			LEFT JOIN estudiantes e ON a.estudiante_id = e.id
			WHERE es.profesor_id = ?
			ORDER BY es.id, e.apellido, e.nombre`, out.Profesor.ID)
		if err != nil {
			return err
		}
		defer rows.Close()

		index := map[int64]int{}
		for rows.Next() {
			var (
				subjectID                 int64
				nombre, descripcion       string
				studentID, edad           sql.NullInt64
				sNombre, sApellido, email sql.NullString
				fecha                     dbTime
			)
			if err := rows.Scan(&subjectID, &nombre, &descripcion,
				&studentID, &sNombre, &sApellido, &email, &edad, &fecha); err != nil {
				return err
			}
			i, ok := index[subjectID]
			if !ok {
				i = len(out.Materias)
				index[subjectID] = i
				out.Materias = append(out.Materias, SubjectRoster{
					ID: subjectID, Nombre: nombre, Descripcion: descripcion, Estudiantes: []EnrolledStudent{},
				})
			}
			if !studentID.Valid {
				continue
			}
			out.Materias[i].Estudiantes = append(out.Materias[i].Estudiantes, EnrolledStudent{
				ID:               studentID.Int64,
				Nombre:           sNombre.String,
				Apellido:         sApellido.String,
				Correo:           email.String,
				Edad:             int(edad.Int64),
				FechaInscripcion: fecha.t,
			})
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *sqlStore) ListAssignments(ctx context.Context) ([]AssignmentDetail, error) {
	list := []AssignmentDetail{}
	err := s.withConn(ctx, func(q querier) error {
		rows, err := q.QueryContext(ctx, `
			SELECT a.id, a.fecha_inscripcion,
			       e.nombre, e.apellido, e.correo, e.edad,
			       es.nombre, es.descripcion,
			       p.nombre, p.apellido, p.correo, p.especialidad
			FROM asignacion a
			JOIN estudiantes e ON a.estudiante_id = e.id
			JOIN estudios es ON a.estudio_id = es.id
			JOIN profesores p ON es.profesor_id = p.id
			ORDER BY a.fecha_inscripcion DESC, a.id DESC`)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			var d AssignmentDetail
			var fecha dbTime
			if err := rows.Scan(&d.ID, &fecha,
				&d.Estudiante.Nombre, &d.Estudiante.Apellido, &d.Estudiante.Correo, &d.Estudiante.Edad,
				&d.Materia.Nombre, &d.Materia.Descripcion,
				&d.Profesor.Nombre, &d.Profesor.Apellido, &d.Profesor.Correo, &d.Profesor.Especialidad); err != nil {
				return err
			}
			d.FechaInscripcion = fecha.t
			list = append(list, d)
		}
		return rows.Err()
	})
	return list, err
}

// checkAssignmentRefs reports a missing student or subject as not found and an existing
// pair (other than the row being updated) as a conflict.
func checkAssignmentRefs(ctx context.Context, q querier, in AssignmentInput, self int64) error {
	ok, err := exists(ctx, q, `SELECT 1 FROM estudiantes WHERE id = ?`, in.EstudianteID)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: estudiante %d", ErrNotFound, in.EstudianteID)
	}
	if ok, err = exists(ctx, q, `SELECT 1 FROM estudios WHERE id = ?`, in.EstudioID); err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: estudio %d", ErrNotFound, in.EstudioID)
	}
	dup, err := exists(ctx, q, `SELECT 1 FROM asignacion WHERE estudiante_id = ? AND estudio_id = ? AND id <> ?`,
		in.EstudianteID, in.EstudioID, self)
	if err != nil {
		return err
	}
	if dup {
		return fmt.Errorf("%w: estudiante already enrolled in this estudio", ErrConflict)
	}
	return nil
}

func (s *sqlStore) CreateAssignment(ctx context.Context, in AssignmentInput) (*Assignment, error) {
	var a *Assignment
	err := s.withTx(ctx, func(q querier) error {
		if err := checkAssignmentRefs(ctx, q, in, 0); err != nil {
			return err
		}
		var err error
		a, err = scanAssignment(q.QueryRowContext(ctx, `INSERT INTO asignacion (estudiante_id, estudio_id, fecha_inscripcion)
			VALUES (?, ?, ?) RETURNING `+assignmentColumns,
			in.EstudianteID, in.EstudioID, time.Now().UTC()))
		return s.classify(err, "asignacion")
	})
	return a, err
}

func (s *sqlStore) UpdateAssignment(ctx context.Context, id int64, in AssignmentInput) (*Assignment, error) {
	var a *Assignment
	err := s.withTx(ctx, func(q querier) error {
		ok, err := exists(ctx, q, `SELECT 1 FROM asignacion WHERE id = ?`, id)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("%w: asignacion %d", ErrNotFound, id)
		}
		if err := checkAssignmentRefs(ctx, q, in, id); err != nil {
			return err
		}
		a, err = scanAssignment(q.QueryRowContext(ctx, `UPDATE asignacion SET estudiante_id = ?, estudio_id = ?
			WHERE id = ? RETURNING `+assignmentColumns,
			in.EstudianteID, in.EstudioID, id))
		return s.classify(err, "asignacion")
	})
	return a, err
}

func (s *sqlStore) DeleteAssignment(ctx context.Context, id int64) error {
	return s.withConn(ctx, func(q querier) error {
		res, err := q.ExecContext(ctx, `DELETE FROM asignacion WHERE id = ?`, id)
		if err != nil {
			return err
		}
		return expectRow(res, "asignacion")
	})
}
