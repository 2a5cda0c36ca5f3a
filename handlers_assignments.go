package main

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/example/escuela/internal/auth"
)

// readAssignment takes estudiante_id and estudio_id from the query string when both are
// present there, as the legacy create endpoint sends them, and from a JSON body otherwise.
func readAssignment(r *http.Request) (AssignmentInput, error) {
	var in AssignmentInput
	q := r.URL.Query()
	if q.Has("estudiante_id") && q.Has("estudio_id") {
		var err error
		if in.EstudianteID, err = strconv.ParseInt(q.Get("estudiante_id"), 10, 64); err != nil {
			return in, fmt.Errorf("%w: estudiante_id must be an integer", ErrValidation)
		}
		if in.EstudioID, err = strconv.ParseInt(q.Get("estudio_id"), 10, 64); err != nil {
			return in, fmt.Errorf("%w: estudio_id must be an integer", ErrValidation)
		}
	} else if err := decodeJSON(r, &in); err != nil {
		return in, err
	}
	if in.EstudianteID <= 0 || in.EstudioID <= 0 {
		return in, fmt.Errorf("%w: estudiante_id and estudio_id are required", ErrValidation)
	}
	return in, nil
}

// HandleStudentAssignments lists the caller's own enrollments.
func (a *App) HandleStudentAssignments(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.IdentityFrom(r.Context())
	out, err := a.Store.StudentAssignments(r.Context(), id.Email)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// HandleTeacherSubjects lists the caller's subjects, each with its enrolled students.
func (a *App) HandleTeacherSubjects(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.IdentityFrom(r.Context())
	out, err := a.Store.TeacherSubjects(r.Context(), id.Email)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (a *App) HandleListAssignments(w http.ResponseWriter, r *http.Request) {
	list, err := a.Store.ListAssignments(r.Context())
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (a *App) HandleCreateAssignment(w http.ResponseWriter, r *http.Request) {
	in, err := readAssignment(r)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	asg, err := a.Store.CreateAssignment(r.Context(), in)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message":    "Asignación creada exitosamente",
		"asignacion": asg,
	})
}

func (a *App) HandleUpdateAssignment(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	in, err := readAssignment(r)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	asg, err := a.Store.UpdateAssignment(r.Context(), id, in)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message":    "Asignación actualizada exitosamente",
		"asignacion": asg,
	})
}

func (a *App) HandleDeleteAssignment(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	if err := a.Store.DeleteAssignment(r.Context(), id); err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Asignación eliminada exitosamente"})
}
