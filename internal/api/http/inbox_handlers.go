package httpapi

import (
	"net/http"
	"time"
)

func (s *Server) listMyApprovals(w http.ResponseWriter, r *http.Request) {
	auth := authUserFromContext(r.Context())
	tasks, err := s.inboxSvc.ListNeedingApproval(r.Context(), auth.UserID, time.Now().UTC())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"tasks": tasks, "count": len(tasks)})
}

func (s *Server) countMyApprovals(w http.ResponseWriter, r *http.Request) {
	auth := authUserFromContext(r.Context())
	count, err := s.inboxSvc.CountNeedingApproval(r.Context(), auth.UserID, time.Now().UTC())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"count": count})
}
