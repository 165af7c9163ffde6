package httpd

import (
	"net/http"
)

func (h *Handler) GetGradeReport(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, assignmentNotFound)
	if !ok {
		return
	}

	report, err := h.reportService.GradeReport(r.Context(), principal(r).UserID, id)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeSuccess(w, report)
}
