package main

import (
	"fmt"
	"net/http"
	"strings"
)

func (s *Student) validate() error {
	s.Correo = strings.TrimSpace(s.Correo)
	if err := required("nombre", s.Nombre, "apellido", s.Apellido, "direccion", s.Direccion); err != nil {
		return err
	}
	if !validEmail(s.Correo) {
		return fmt.Errorf("%w: correo must be a valid email address", ErrValidation)
	}
	if s.Edad <= 0 {
		return fmt.Errorf("%w: edad must be positive", ErrValidation)
	}
	return nil
}

func (a *App) HandleListStudents(w http.ResponseWriter, r *http.Request) {
	students, err := a.Store.ListStudents(r.Context())
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, students)
}

func (a *App) HandleGetStudent(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	st, err := a.Store.GetStudent(r.Context(), id)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (a *App) HandleCreateStudent(w http.ResponseWriter, r *http.Request) {
	var in Student
	if err := decodeJSON(r, &in); err != nil {
		a.fail(w, r, err)
		return
	}
	if err := in.validate(); err != nil {
		a.fail(w, r, err)
		return
	}
	st, err := a.Store.CreateStudent(r.Context(), in)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (a *App) HandleUpdateStudent(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	var in Student
	if err := decodeJSON(r, &in); err != nil {
		a.fail(w, r, err)
		return
	}
	if err := in.validate(); err != nil {
		a.fail(w, r, err)
		return
	}
	st, err := a.Store.UpdateStudent(r.Context(), id, in)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (a *App) HandleDeleteStudent(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	if err := a.Store.DeleteStudent(r.Context(), id); err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Estudiante eliminado exitosamente"})
}
