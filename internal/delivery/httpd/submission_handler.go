package httpd

import (
	"net/http"

	"github.com/RubachokBoss/coursework-service/internal/models"
)

func (h *Handler) GetMySubmission(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, assignmentNotFound)
	if !ok {
		return
	}

	submission, err := h.submissionService.GetOrCreate(r.Context(), principal(r).UserID, id)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeSuccess(w, submission)
}

func (h *Handler) SubmitQuestionAnswer(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, assignmentNotFound)
	if !ok {
		return
	}

	index, ok := indexParam(w, r, questionNotFound)
	if !ok {
		return
	}

	var req models.SubmitAnswerRequest
	if !h.decode(w, r, &req) {
		return
	}
	answer, err := models.ParseAnswer(req.Answer)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	result, err := h.submissionService.SubmitQuestionAnswer(r.Context(), principal(r).UserID, id, index, answer)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeSuccess(w, result)
}

func (h *Handler) SaveExerciseAnswer(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, assignmentNotFound)
	if !ok {
		return
	}

	index, ok := indexParam(w, r, exerciseNotFound)
	if !ok {
		return
	}

	var req models.CodeRequest
	if !h.decode(w, r, &req) {
		return
	}

	if err := h.submissionService.SaveExerciseAnswer(r.Context(), principal(r).UserID, id, index, req.Code); err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeSuccess(w, nil)
}

func (h *Handler) SubmitExerciseAnswer(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, assignmentNotFound)
	if !ok {
		return
	}

	index, ok := indexParam(w, r, exerciseNotFound)
	if !ok {
		return
	}

	var req models.CodeRequest
	if !h.decode(w, r, &req) {
		return
	}

	result, err := h.submissionService.SubmitExerciseAnswer(r.Context(), principal(r).UserID, id, index, req.Code)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeSuccess(w, result)
}

func (h *Handler) ListSubmissions(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, assignmentNotFound)
	if !ok {
		return
	}

	page := getIntQueryParam(r, "page", 1)
	limit := getIntQueryParam(r, "limit", 20)

	response, err := h.submissionService.ListByAssignment(r.Context(), principal(r).UserID, id, page, limit)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeSuccess(w, response)
}

func (h *Handler) GetSubmission(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, submissionNotFound)
	if !ok {
		return
	}

	submission, err := h.submissionService.GetForTeacher(r.Context(), principal(r).UserID, id)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeSuccess(w, submission)
}

func (h *Handler) GradeQuestion(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, submissionNotFound)
	if !ok {
		return
	}

	index, ok := indexParam(w, r, questionNotFound)
	if !ok {
		return
	}

	var req models.GradeQuestionRequest
	if !h.decode(w, r, &req) {
		return
	}

	submission, err := h.submissionService.GradeQuestion(r.Context(), principal(r).UserID, id, index, req.Points)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeSuccess(w, submission)
}

func (h *Handler) AddComment(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, submissionNotFound)
	if !ok {
		return
	}

	var req models.AddCommentRequest
	if !h.decode(w, r, &req) {
		return
	}

	submission, err := h.submissionService.AddComment(r.Context(), principal(r).UserID, id, &req)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeCreated(w, submission)
}
