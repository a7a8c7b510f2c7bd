package httpapi

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"

	appTask "github.com/agency-hub/agency-hub/internal/application/task"
	domainApproval "github.com/agency-hub/agency-hub/internal/domain/approval"
	domainTask "github.com/agency-hub/agency-hub/internal/domain/task"
)

type taskCreateRequest struct {
	ProjectID   uuid.UUID  `json:"project_id"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Department  string     `json:"department,omitempty"`
	TaskType    string     `json:"task_type,omitempty"`
	Priority    int        `json:"priority,omitempty"`
	AssigneeID  *uuid.UUID `json:"assignee_id,omitempty"`
	DueDate     *time.Time `json:"due_date,omitempty"`
}

type taskUpdateRequest struct {
	Title       *string    `json:"title,omitempty"`
	Description *string    `json:"description,omitempty"`
	TaskType    *string    `json:"task_type,omitempty"`
	Priority    *int       `json:"priority,omitempty"`
	AssigneeID  *uuid.UUID `json:"assignee_id,omitempty"`
	DueDate     *time.Time `json:"due_date,omitempty"`
	Status      *string    `json:"status,omitempty"`
}

type decisionRequest struct {
	Decision string  `json:"decision"`
	Comment  *string `json:"comment,omitempty"`
}

func (s *Server) createTask(w http.ResponseWriter, r *http.Request) {
	var req taskCreateRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", err.Error())
		return
	}
	actor := authUserFromContext(r.Context()).ActorString()
	t, err := s.taskSvc.CreateTask(r.Context(), appTask.CreateInput{
		ProjectID:   req.ProjectID,
		Title:       req.Title,
		Description: req.Description,
		Department:  req.Department,
		TaskType:    req.TaskType,
		Priority:    req.Priority,
		AssigneeID:  req.AssigneeID,
		DueDate:     req.DueDate,
		CreatedBy:   &actor,
	})
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", err.Error())
		return
	}
	respondJSON(w, http.StatusOK, t)
}

func (s *Server) listTasks(w http.ResponseWriter, r *http.Request) {
	var filter domainTask.Filter
	if v := r.URL.Query().Get("project_id"); v != "" {
		if id, err := uuid.Parse(v); err == nil {
			filter.ProjectID = &id
		}
	}
	if v := r.URL.Query().Get("status"); v != "" {
		status := domainTask.Status(v)
		filter.Status = &status
	}
	if v := r.URL.Query().Get("assignee_id"); v != "" {
		if id, err := uuid.Parse(v); err == nil {
			filter.AssigneeID = &id
		}
	}
	if v := r.URL.Query().Get("department"); v != "" {
		filter.Department = &v
	}
	if v := r.URL.Query().Get("archived"); v != "" {
		archived := v == "true"
		filter.Archived = &archived
	}
	limit, offset := parseLimitOffset(r, 100, 200)
	tasks, err := s.taskSvc.ListTasks(r.Context(), filter, limit, offset)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"tasks": tasks})
}

func (s *Server) getTask(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUIDParam(r, "taskId")
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "invalid taskId")
		return
	}
	t, err := s.taskSvc.GetTask(r.Context(), id)
	if err != nil {
		respondError(w, http.StatusNotFound, "NOT_FOUND", err.Error())
		return
	}
	respondJSON(w, http.StatusOK, t)
}

func (s *Server) updateTask(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUIDParam(r, "taskId")
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "invalid taskId")
		return
	}
	var req taskUpdateRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", err.Error())
		return
	}
	input := appTask.UpdateInput{
		Title:       req.Title,
		Description: req.Description,
		TaskType:    req.TaskType,
		Priority:    req.Priority,
		AssigneeID:  req.AssigneeID,
		DueDate:     req.DueDate,
	}
	if req.Status != nil {
		status := domainTask.Status(*req.Status)
		input.Status = &status
	}
	actor := authUserFromContext(r.Context()).ActorString()
	t, err := s.taskSvc.UpdateTask(r.Context(), id, input, actor)
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", err.Error())
		return
	}
	respondJSON(w, http.StatusOK, t)
}

func (s *Server) completeTask(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUIDParam(r, "taskId")
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "invalid taskId")
		return
	}
	actor := authUserFromContext(r.Context()).ActorString()
	t, err := s.taskSvc.CompleteTask(r.Context(), id, actor)
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", err.Error())
		return
	}
	respondJSON(w, http.StatusOK, t)
}

func (s *Server) archiveTask(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUIDParam(r, "taskId")
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "invalid taskId")
		return
	}
	actor := authUserFromContext(r.Context()).ActorString()
	t, err := s.taskSvc.ArchiveTask(r.Context(), id, actor)
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", err.Error())
		return
	}
	respondJSON(w, http.StatusOK, t)
}

// Approval operations

func (s *Server) assignWorkflow(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUIDParam(r, "taskId")
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "invalid taskId")
		return
	}
	var req struct {
		TemplateID *uuid.UUID `json:"template_id,omitempty"`
	}
	_ = decodeBody(r, &req)
	auth := authUserFromContext(r.Context())
	steps, err := s.approvalSvc.AssignWorkflow(r.Context(), id, req.TemplateID, auth.Actor())
	if err != nil {
		respondApprovalError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"task_id": id, "steps": steps})
}

func (s *Server) decideTask(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUIDParam(r, "taskId")
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "invalid taskId")
		return
	}
	var req decisionRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", err.Error())
		return
	}
	decision := domainApproval.Decision(req.Decision)
	if err := domainApproval.ValidateDecision(decision); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", err.Error())
		return
	}
	auth := authUserFromContext(r.Context())
	step, err := s.approvalSvc.RecordDecision(r.Context(), id, auth.Actor(), decision, req.Comment)
	if err != nil {
		respondApprovalError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, step)
}

func (s *Server) resubmitTask(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUIDParam(r, "taskId")
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "invalid taskId")
		return
	}
	auth := authUserFromContext(r.Context())
	step, err := s.approvalSvc.ResubmitRevision(r.Context(), id, auth.Actor())
	if err != nil {
		respondApprovalError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, step)
}

func (s *Server) clientDecision(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUIDParam(r, "taskId")
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "invalid taskId")
		return
	}
	var req struct {
		Approve bool    `json:"approve"`
		Comment *string `json:"comment,omitempty"`
	}
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", err.Error())
		return
	}
	auth := authUserFromContext(r.Context())
	ca, err := s.approvalSvc.RecordClientDecision(r.Context(), id, req.Approve, req.Comment, auth.Actor())
	if err != nil {
		respondApprovalError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, ca)
}

func (s *Server) listTaskSteps(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUIDParam(r, "taskId")
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "invalid taskId")
		return
	}
	steps, err := s.approvalSvc.ListSteps(r.Context(), id)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"task_id": id, "steps": steps})
}

func respondApprovalError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domainApproval.ErrNotCurrentApprover):
		respondError(w, http.StatusForbidden, "FORBIDDEN", err.Error())
	case errors.Is(err, domainApproval.ErrNoActiveStep):
		respondError(w, http.StatusConflict, "CONFLICT", err.Error())
	case errors.Is(err, domainApproval.ErrUnresolvableApprover):
		respondError(w, http.StatusUnprocessableEntity, "UNRESOLVABLE_APPROVER", err.Error())
	default:
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", err.Error())
	}
}
