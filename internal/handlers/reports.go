package handlers

import (
	"context"
	"net/http"

	"mentorhub/internal/models"
	"mentorhub/internal/moderation"
)

// HandleCreateReport handles POST /api/reports
func (h *Handler) HandleCreateReport(w http.ResponseWriter, r *http.Request) {
	var req models.CreateReportRequest
	if !decodeBody(w, r, &req) {
		return
	}
	report, err := h.engine.CreateReport(r.Context(), callerID(r), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, report, "report")
}

// reportFilter reads a ReportFilter from the query string.
func reportFilter(r *http.Request) (moderation.ReportFilter, error) {
	q := r.URL.Query()
	f := moderation.ReportFilter{
		Type:           moderation.ReportType(q.Get("type")),
		Status:         moderation.ReportStatus(q.Get("status")),
		ReporterID:     q.Get("reporterId"),
		SubCommunityID: q.Get("subCommunityId"),
		HandlerID:      q.Get("handlerId"),
		Search:         q.Get("q"),
	}
	var err error
	if f.From, err = timeParam(r, "from"); err != nil {
		return f, err
	}
	if f.To, err = timeParam(r, "to"); err != nil {
		return f, err
	}
	return f, nil
}

// HandleListReports handles GET /api/admin/reports
func (h *Handler) HandleListReports(w http.ResponseWriter, r *http.Request) {
	filter, err := reportFilter(r)
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	cursor, limit, err := pageParams(r)
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	page, err := h.engine.ListReports(r.Context(), callerID(r), filter, cursor, limit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, page, "reports")
}

// HandleGetReport handles GET /api/admin/reports/{id}
func (h *Handler) HandleGetReport(w http.ResponseWriter, r *http.Request) {
	detail, err := h.engine.GetReportDetail(r.Context(), callerID(r), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, detail, "report detail")
}

// HandleResolveReport handles POST /api/admin/reports/{id}/resolve
func (h *Handler) HandleResolveReport(w http.ResponseWriter, r *http.Request) {
	var req models.ResolveReportRequest
	if !decodeBody(w, r, &req) {
		return
	}
	report, err := h.engine.ResolveReport(r.Context(), callerID(r), r.PathValue("id"), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, report, "report")
}

// HandleDeleteContent handles POST /api/admin/reports/{id}/delete-content
func (h *Handler) HandleDeleteContent(w http.ResponseWriter, r *http.Request) {
	var req models.DeleteContentRequest
	if !decodeBody(w, r, &req) {
		return
	}
	report, err := h.engine.DeleteContent(r.Context(), callerID(r), r.PathValue("id"), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, report, "report")
}

// HandleBatchResolve handles POST /api/admin/reports/batch/resolve
func (h *Handler) HandleBatchResolve(w http.ResponseWriter, r *http.Request) {
	h.handleBatch(w, r, h.engine.BatchResolve)
}

// HandleBatchDismiss handles POST /api/admin/reports/batch/dismiss
func (h *Handler) HandleBatchDismiss(w http.ResponseWriter, r *http.Request) {
	h.handleBatch(w, r, h.engine.BatchDismiss)
}

type batchFunc func(ctx context.Context, adminID string, req models.BatchReportsRequest) (*moderation.BatchResult, error)

func (h *Handler) handleBatch(w http.ResponseWriter, r *http.Request, op batchFunc) {
	var req models.BatchReportsRequest
	if !decodeBody(w, r, &req) {
		return
	}
	res, err := op(r.Context(), callerID(r), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res, "batch result")
}
