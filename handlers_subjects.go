package main

import (
	"fmt"
	"net/http"
)

func (s *Subject) validate() error {
	if err := required("nombre", s.Nombre); err != nil {
		return err
	}
	if s.ProfesorID <= 0 {
		return fmt.Errorf("%w: profesor_id is required", ErrValidation)
	}
	return nil
}

func (a *App) HandleListSubjects(w http.ResponseWriter, r *http.Request) {
	subjects, err := a.Store.ListSubjects(r.Context())
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, subjects)
}

func (a *App) HandleGetSubject(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	sub, err := a.Store.GetSubject(r.Context(), id)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sub)
}

func (a *App) HandleCreateSubject(w http.ResponseWriter, r *http.Request) {
	var in Subject
	if err := decodeJSON(r, &in); err != nil {
		a.fail(w, r, err)
		return
	}
	if err := in.validate(); err != nil {
		a.fail(w, r, err)
		return
	}
	sub, err := a.Store.CreateSubject(r.Context(), in)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sub)
}

func (a *App) HandleUpdateSubject(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	var in Subject
	if err := decodeJSON(r, &in); err != nil {
		a.fail(w, r, err)
		return
	}
	if err := in.validate(); err != nil {
		a.fail(w, r, err)
		return
	}
	sub, err := a.Store.UpdateSubject(r.Context(), id, in)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sub)
}

func (a *App) HandleDeleteSubject(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	if err := a.Store.DeleteSubject(r.Context(), id); err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Estudio eliminado exitosamente"})
}
