package httpapi

import (
	"errors"
	"net/http"

	"github.com/google/uuid"

	appWorkflow "github.com/agency-hub/agency-hub/internal/application/workflow"
	"github.com/agency-hub/agency-hub/internal/domain/workflow"
)

type templateCreateRequest struct {
	Name                   string                  `json:"name"`
	Description            string                  `json:"description,omitempty"`
	Department             *string                 `json:"department,omitempty"`
	TaskType               *string                 `json:"taskType,omitempty"`
	MatchExpression        *string                 `json:"matchExpression,omitempty"`
	ClientApprovalRequired bool                    `json:"clientApprovalRequired,omitempty"`
	Steps                  []workflow.StepTemplate `json:"steps"`
}

type templateUpdateRequest struct {
	Name                   *string                 `json:"name,omitempty"`
	Description            *string                 `json:"description,omitempty"`
	Department             *string                 `json:"department,omitempty"`
	TaskType               *string                 `json:"taskType,omitempty"`
	MatchExpression        *string                 `json:"matchExpression,omitempty"`
	Status                 *string                 `json:"status,omitempty"`
	ClientApprovalRequired *bool                   `json:"clientApprovalRequired,omitempty"`
	Steps                  []workflow.StepTemplate `json:"steps,omitempty"`
}

func (s *Server) createTemplate(w http.ResponseWriter, r *http.Request) {
	var req templateCreateRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", err.Error())
		return
	}
	tpl := &workflow.Template{
		Name:                   req.Name,
		Description:            req.Description,
		Department:             req.Department,
		TaskType:               req.TaskType,
		MatchExpression:        req.MatchExpression,
		ClientApprovalRequired: req.ClientApprovalRequired,
		Steps:                  req.Steps,
	}
	actor := authUserFromContext(r.Context()).ActorString()
	created, err := s.workflowSvc.CreateTemplate(r.Context(), tpl, actor)
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", err.Error())
		return
	}
	respondJSON(w, http.StatusOK, created)
}

func (s *Server) listTemplates(w http.ResponseWriter, r *http.Request) {
	limit, offset := parseLimitOffset(r, 100, 200)
	tpls, err := s.workflowSvc.ListTemplates(r.Context(), limit, offset)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"templates": tpls})
}

func (s *Server) getTemplate(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUIDParam(r, "templateId")
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "invalid templateId")
		return
	}
	tpl, err := s.workflowSvc.GetTemplate(r.Context(), id)
	if err != nil {
		respondError(w, http.StatusNotFound, "NOT_FOUND", err.Error())
		return
	}
	respondJSON(w, http.StatusOK, tpl)
}

func (s *Server) updateTemplate(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUIDParam(r, "templateId")
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "invalid templateId")
		return
	}
	var req templateUpdateRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", err.Error())
		return
	}
	input := appWorkflow.UpdateInput{
		Name:                   req.Name,
		Description:            req.Description,
		Department:             req.Department,
		TaskType:               req.TaskType,
		MatchExpression:        req.MatchExpression,
		ClientApprovalRequired: req.ClientApprovalRequired,
		Steps:                  req.Steps,
	}
	if req.Status != nil {
		status := workflow.Status(*req.Status)
		input.Status = &status
	}
	actor := authUserFromContext(r.Context()).ActorString()
	tpl, err := s.workflowSvc.UpdateTemplate(r.Context(), id, input, actor)
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", err.Error())
		return
	}
	respondJSON(w, http.StatusOK, tpl)
}

func (s *Server) deleteTemplate(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUIDParam(r, "templateId")
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "invalid templateId")
		return
	}
	actor := authUserFromContext(r.Context()).ActorString()
	if err := s.workflowSvc.DeleteTemplate(r.Context(), id, actor); err != nil {
		if errors.Is(err, workflow.ErrProtectedTemplate) {
			respondError(w, http.StatusConflict, "PROTECTED_TEMPLATE", err.Error())
			return
		}
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"template_id": id, "status": "DELETED"})
}

// findApplicableTemplate previews which template auto-selection would pick
// for a task.
func (s *Server) findApplicableTemplate(w http.ResponseWriter, r *http.Request) {
	taskID, err := uuid.Parse(r.URL.Query().Get("task_id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "task_id required")
		return
	}
	t, err := s.taskSvc.GetTask(r.Context(), taskID)
	if err != nil {
		respondError(w, http.StatusNotFound, "NOT_FOUND", err.Error())
		return
	}
	tpl, err := s.workflowSvc.FindApplicable(r.Context(), t)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", err.Error())
		return
	}
	if tpl == nil {
		respondError(w, http.StatusNotFound, "NOT_FOUND", "no applicable template")
		return
	}
	respondJSON(w, http.StatusOK, tpl)
}

func (s *Server) moveTemplateStep(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUIDParam(r, "templateId")
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "invalid templateId")
		return
	}
	stepID, err := parseUUIDParam(r, "stepTemplateId")
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "invalid stepTemplateId")
		return
	}
	var req struct {
		Delta int `json:"delta"`
	}
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", err.Error())
		return
	}
	actor := authUserFromContext(r.Context()).ActorString()
	tpl, err := s.workflowSvc.MoveStep(r.Context(), id, stepID, req.Delta, actor)
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", err.Error())
		return
	}
	respondJSON(w, http.StatusOK, tpl)
}
