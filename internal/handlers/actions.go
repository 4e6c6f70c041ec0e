package handlers

import (
	"net/http"
	"strconv"

	"mentorhub/internal/models"
	"mentorhub/internal/moderation"
)

// HandleTakeUserAction handles POST /api/admin/reports/{id}/actions
func (h *Handler) HandleTakeUserAction(w http.ResponseWriter, r *http.Request) {
	var req models.TakeUserActionRequest
	if !decodeBody(w, r, &req) {
		return
	}
	action, err := h.engine.TakeUserAction(r.Context(), callerID(r), r.PathValue("id"), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, action, "user action")
}

// HandleRevokeUserAction handles POST /api/admin/actions/{id}/revoke
func (h *Handler) HandleRevokeUserAction(w http.ResponseWriter, r *http.Request) {
	var req models.RevokeUserActionRequest
	if !decodeBody(w, r, &req) {
		return
	}
	action, err := h.engine.RevokeUserAction(r.Context(), callerID(r), r.PathValue("id"), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, action, "user action")
}

// HandleListUserActions handles GET /api/admin/actions
func (h *Handler) HandleListUserActions(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := moderation.ActionFilter{
		UserID:     q.Get("userId"),
		ActionType: moderation.UserActionType(q.Get("actionType")),
	}
	if raw := q.Get("active"); raw != "" {
		active, err := strconv.ParseBool(raw)
		if err != nil {
			writeBadRequest(w, "active must be a boolean")
			return
		}
		filter.ActiveOnly = active
	}
	cursor, limit, err := pageParams(r)
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	page, err := h.engine.ListUserActions(r.Context(), callerID(r), filter, cursor, limit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, page, "user actions")
}

// HandleUserViolations handles GET /api/admin/users/{id}/violations
func (h *Handler) HandleUserViolations(w http.ResponseWriter, r *http.Request) {
	history, err := h.engine.UserViolationHistory(r.Context(), callerID(r), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, history, "violation history")
}
