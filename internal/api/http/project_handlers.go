package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	appProject "github.com/agency-hub/agency-hub/internal/application/project"
	domainProject "github.com/agency-hub/agency-hub/internal/domain/project"
)

func (s *Server) createProject(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name       string `json:"name"`
		ClientName string `json:"client_name"`
		Department string `json:"department"`
	}
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", err.Error())
		return
	}
	actor := authUserFromContext(r.Context()).ActorString()
	p, err := s.projectSvc.CreateProject(r.Context(), appProject.CreateInput{
		Name:       req.Name,
		ClientName: req.ClientName,
		Department: req.Department,
	}, actor)
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", err.Error())
		return
	}
	respondJSON(w, http.StatusOK, p)
}

func (s *Server) listProjects(w http.ResponseWriter, r *http.Request) {
	limit, offset := parseLimitOffset(r, 100, 200)
	ps, err := s.projectSvc.ListProjects(r.Context(), limit, offset)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"projects": ps})
}

func (s *Server) getProject(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUIDParam(r, "projectId")
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "invalid projectId")
		return
	}
	p, err := s.projectSvc.GetProject(r.Context(), id)
	if err != nil {
		respondError(w, http.StatusNotFound, "NOT_FOUND", err.Error())
		return
	}
	respondJSON(w, http.StatusOK, p)
}

func (s *Server) setProjectStatus(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUIDParam(r, "projectId")
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "invalid projectId")
		return
	}
	var req struct {
		Status string `json:"status"`
	}
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", err.Error())
		return
	}
	actor := authUserFromContext(r.Context()).ActorString()
	p, err := s.projectSvc.SetStatus(r.Context(), id, domainProject.Status(req.Status), actor)
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", err.Error())
		return
	}
	respondJSON(w, http.StatusOK, p)
}

func (s *Server) assignProjectRole(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUIDParam(r, "projectId")
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "invalid projectId")
		return
	}
	roleKey := chi.URLParam(r, "roleKey")
	var req struct {
		UserID uuid.UUID `json:"user_id"`
	}
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", err.Error())
		return
	}
	actor := authUserFromContext(r.Context()).ActorString()
	p, err := s.projectSvc.AssignRole(r.Context(), id, roleKey, req.UserID, actor)
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", err.Error())
		return
	}
	respondJSON(w, http.StatusOK, p)
}

func (s *Server) unassignProjectRole(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUIDParam(r, "projectId")
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "invalid projectId")
		return
	}
	roleKey := chi.URLParam(r, "roleKey")
	actor := authUserFromContext(r.Context()).ActorString()
	p, err := s.projectSvc.UnassignRole(r.Context(), id, roleKey, actor)
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", err.Error())
		return
	}
	respondJSON(w, http.StatusOK, p)
}
