package handlers

import (
	"net/http"
	"strconv"

	"mentorhub/internal/moderation"
)

// HandleAnalytics handles GET /api/admin/analytics
func (h *Handler) HandleAnalytics(w http.ResponseWriter, r *http.Request) {
	days := 0
	if raw := r.URL.Query().Get("days"); raw != "" {
		var err error
		if days, err = strconv.Atoi(raw); err != nil {
			writeBadRequest(w, "days must be an integer")
			return
		}
	}

	stats, err := h.engine.Analytics(r.Context(), callerID(r), days)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats, "analytics")
}

// HandleListLogs handles GET /api/admin/logs
func (h *Handler) HandleListLogs(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := moderation.LogFilter{
		ActionType:    moderation.LogAction(q.Get("actionType")),
		PerformedByID: q.Get("performedBy"),
		TargetUserID:  q.Get("targetUserId"),
	}
	cursor, limit, err := pageParams(r)
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	page, err := h.engine.ListModerationLogs(r.Context(), callerID(r), filter, cursor, limit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, page, "moderation logs")
}

// HandleReplayAuditSpool handles POST /api/admin/audit-spool/replay
func (h *Handler) HandleReplayAuditSpool(w http.ResponseWriter, r *http.Request) {
	res, err := h.engine.ReplayAuditSpool(r.Context(), callerID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res, "replay result")
}
