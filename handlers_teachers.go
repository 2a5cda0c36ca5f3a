package main

import (
	"fmt"
	"net/http"
	"strings"
)

func (t *Teacher) validate() error {
	t.Correo = strings.TrimSpace(t.Correo)
	if err := required("nombre", t.Nombre, "apellido", t.Apellido, "especialidad", t.Especialidad); err != nil {
		return err
	}
	if !validEmail(t.Correo) {
		return fmt.Errorf("%w: correo must be a valid email address", ErrValidation)
	}
	return nil
}

func (a *App) HandleListTeachers(w http.ResponseWriter, r *http.Request) {
	teachers, err := a.Store.ListTeachers(r.Context())
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, teachers)
}

func (a *App) HandleGetTeacher(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	t, err := a.Store.GetTeacher(r.Context(), id)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (a *App) HandleCreateTeacher(w http.ResponseWriter, r *http.Request) {
	var in Teacher
	if err := decodeJSON(r, &in); err != nil {
		a.fail(w, r, err)
		return
	}
	if err := in.validate(); err != nil {
		a.fail(w, r, err)
		return
	}
	t, err := a.Store.CreateTeacher(r.Context(), in)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (a *App) HandleUpdateTeacher(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	var in Teacher
	if err := decodeJSON(r, &in); err != nil {
		a.fail(w, r, err)
		return
	}
	if err := in.validate(); err != nil {
		a.fail(w, r, err)
		return
	}
	t, err := a.Store.UpdateTeacher(r.Context(), id, in)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

// HandleDeleteTeacher refuses, as a conflict, to remove a teacher that still teaches a subject.
func (a *App) HandleDeleteTeacher(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	if err := a.Store.DeleteTeacher(r.Context(), id); err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Profesor eliminado exitosamente"})
}
