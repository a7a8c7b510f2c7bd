package httpapi

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	appApproval "github.com/agency-hub/agency-hub/internal/application/approval"
	appAudit "github.com/agency-hub/agency-hub/internal/application/audit"
	appAuth "github.com/agency-hub/agency-hub/internal/application/auth"
	appInbox "github.com/agency-hub/agency-hub/internal/application/inbox"
	appNotification "github.com/agency-hub/agency-hub/internal/application/notification"
	appProject "github.com/agency-hub/agency-hub/internal/application/project"
	appTask "github.com/agency-hub/agency-hub/internal/application/task"
	appUser "github.com/agency-hub/agency-hub/internal/application/user"
	appWorkflow "github.com/agency-hub/agency-hub/internal/application/workflow"
	domainUser "github.com/agency-hub/agency-hub/internal/domain/user"
	"github.com/agency-hub/agency-hub/internal/infrastructure/sse"
)

// Server holds dependencies for HTTP handlers.
type Server struct {
	workflowSvc         *appWorkflow.Service
	taskSvc             *appTask.Service
	projectSvc          *appProject.Service
	approvalSvc         *appApproval.Service
	inboxSvc            *appInbox.Service
	notificationSvc     *appNotification.Service
	auditSvc            *appAudit.Service
	authSvc             *appAuth.Service
	userSvc             *appUser.Service
	sseHub              *sse.Hub
	sessionCookieName   string
	sessionCookieSecure bool
}

func NewServer(
	workflowSvc *appWorkflow.Service,
	taskSvc *appTask.Service,
	projectSvc *appProject.Service,
	approvalSvc *appApproval.Service,
	inboxSvc *appInbox.Service,
	notificationSvc *appNotification.Service,
	auditSvc *appAudit.Service,
	authSvc *appAuth.Service,
	userSvc *appUser.Service,
	sseHub *sse.Hub,
	sessionCookieName string,
	sessionCookieSecure bool,
) *Server {
	return &Server{
		workflowSvc:         workflowSvc,
		taskSvc:             taskSvc,
		projectSvc:          projectSvc,
		approvalSvc:         approvalSvc,
		inboxSvc:            inboxSvc,
		notificationSvc:     notificationSvc,
		auditSvc:            auditSvc,
		authSvc:             authSvc,
		userSvc:             userSvc,
		sseHub:              sseHub,
		sessionCookieName:   sessionCookieName,
		sessionCookieSecure: sessionCookieSecure,
	}
}

// Router builds the HTTP router.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	r.Route("/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/login", s.login)
			r.Post("/bootstrap", s.bootstrapAdmin)
			r.Group(func(r chi.Router) {
				r.Use(s.requireAuth)
				r.Post("/logout", s.logout)
				r.Get("/me", s.me)
			})
		})

		r.Group(func(r chi.Router) {
			r.Use(s.requireAuth)

			r.Route("/templates", func(r chi.Router) {
				r.Get("/", s.listTemplates)
				r.Get("/applicable", s.findApplicableTemplate)
				r.Get("/{templateId}", s.getTemplate)
				r.Group(func(r chi.Router) {
					r.Use(s.requireRole(string(domainUser.RoleAdmin)))
					r.Post("/", s.createTemplate)
					r.Patch("/{templateId}", s.updateTemplate)
					r.Delete("/{templateId}", s.deleteTemplate)
					r.Post("/{templateId}/steps/{stepTemplateId}/move", s.moveTemplateStep)
				})
			})

			r.Route("/projects", func(r chi.Router) {
				r.Post("/", s.createProject)
				r.Get("/", s.listProjects)
				r.Get("/{projectId}", s.getProject)
				r.Post("/{projectId}/status", s.setProjectStatus)
				r.Put("/{projectId}/roles/{roleKey}", s.assignProjectRole)
				r.Delete("/{projectId}/roles/{roleKey}", s.unassignProjectRole)
			})

			r.Route("/tasks", func(r chi.Router) {
				r.Post("/", s.createTask)
				r.Get("/", s.listTasks)
				r.Get("/{taskId}", s.getTask)
				r.Patch("/{taskId}", s.updateTask)
				r.Post("/{taskId}/complete", s.completeTask)
				r.Post("/{taskId}/archive", s.archiveTask)

				r.Post("/{taskId}/assign-workflow", s.assignWorkflow)
				r.Post("/{taskId}/decide", s.decideTask)
				r.Post("/{taskId}/resubmit", s.resubmitTask)
				r.Post("/{taskId}/client-decision", s.clientDecision)
				r.Get("/{taskId}/steps", s.listTaskSteps)
			})

			r.Route("/inbox/approvals", func(r chi.Router) {
				r.Get("/", s.listMyApprovals)
				r.Get("/count", s.countMyApprovals)
			})

			r.Route("/users", func(r chi.Router) {
				r.With(s.requireRole(string(domainUser.RoleAdmin))).Post("/", s.createUser)
				r.With(s.requireRole(string(domainUser.RoleAdmin))).Get("/", s.listUsers)
				r.Get("/{userId}", s.getUser)
				r.With(s.requireRole(string(domainUser.RoleAdmin))).Patch("/{userId}", s.updateUser)
				r.With(s.requireRole(string(domainUser.RoleAdmin))).Put("/{userId}/password", s.setUserPassword)
			})

			r.Route("/notifications", func(r chi.Router) {
				r.Get("/", s.listNotifications)
				r.Get("/sse", s.sseEndpoint)
			})

			r.Route("/admin", func(r chi.Router) {
				r.Use(s.requireRole(string(domainUser.RoleAdmin)))
				r.Get("/audit", s.queryAudit)
				r.Get("/audit/{auditId}", s.getAudit)
				r.Get("/audit/{auditId}/verify", s.verifyAudit)
				r.Get("/audit/entity/{entityType}/{entityId}", s.getEntityHistory)
			})
		})
	})

	return r
}

// Helpers
func respondJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, map[string]interface{}{
		"error":   code,
		"message": message,
	})
}

func parseUUIDParam(r *http.Request, key string) (uuid.UUID, error) {
	val := chi.URLParam(r, key)
	return uuid.Parse(val)
}

func decodeBody(r *http.Request, v interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

func parseLimitOffset(r *http.Request, defaultLimit, maxLimit int) (int, int) {
	limit := defaultLimit
	offset := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		if l, err := strconv.Atoi(v); err == nil {
			limit = l
		}
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		if o, err := strconv.Atoi(v); err == nil {
			offset = o
		}
	}
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
