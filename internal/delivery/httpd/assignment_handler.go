package httpd

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/RubachokBoss/coursework-service/internal/models"
)

func (h *Handler) CreateAssignment(w http.ResponseWriter, r *http.Request) {
	var req models.CreateAssignmentRequest
	if !h.decode(w, r, &req) {
		return
	}

	assignment, err := h.assignmentService.CreateAssignment(r.Context(), principal(r).UserID, chi.URLParam(r, "code"), &req)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeCreated(w, assignment)
}

// GetAssignment returns the full assignment to its teacher and the stripped
// view to students.
func (h *Handler) GetAssignment(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, assignmentNotFound)
	if !ok {
		return
	}
	p := principal(r)

	if p.IsTeacher() {
		assignment, err := h.assignmentService.GetForTeacher(r.Context(), p.UserID, id)
		if err != nil {
			h.handleServiceError(w, err)
			return
		}
		writeSuccess(w, assignment)
		return
	}

	view, err := h.assignmentService.GetForStudent(r.Context(), p.UserID, id)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}
	writeSuccess(w, view)
}

func (h *Handler) EditAssignment(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, assignmentNotFound)
	if !ok {
		return
	}

	var req models.EditAssignmentRequest
	if !h.decode(w, r, &req) {
		return
	}

	assignment, err := h.assignmentService.EditAssignment(r.Context(), principal(r).UserID, id, &req)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeSuccess(w, assignment)
}

func (h *Handler) DeleteAssignment(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, assignmentNotFound)
	if !ok {
		return
	}

	if err := h.assignmentService.DeleteAssignment(r.Context(), principal(r).UserID, id); err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeSuccess(w, map[string]string{"message": "Assignment deleted"})
}

func (h *Handler) OpenAssignment(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, assignmentNotFound)
	if !ok {
		return
	}

	var req models.OpenAssignmentRequest
	if !h.decode(w, r, &req) {
		return
	}

	assignment, err := h.assignmentService.OpenAssignment(r.Context(), principal(r).UserID, id, &req)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeSuccess(w, assignment)
}

// CloseAssignment asks for the teacher's password again before closing.
func (h *Handler) CloseAssignment(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, assignmentNotFound)
	if !ok {
		return
	}

	var req models.CloseAssignmentRequest
	if !h.decode(w, r, &req) {
		return
	}

	ctx := r.Context()
	grant, err := h.authService.Reauthenticate(ctx, principal(r).UserID, req.Password)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	assignment, err := h.assignmentService.CloseAssignment(ctx, id, grant)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeSuccess(w, assignment)
}

func (h *Handler) AddQuestion(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, assignmentNotFound)
	if !ok {
		return
	}

	assignment, err := h.assignmentService.AddQuestion(r.Context(), principal(r).UserID, id)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeCreated(w, assignment)
}

func (h *Handler) EditQuestion(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, assignmentNotFound)
	if !ok {
		return
	}

	index, ok := indexParam(w, r, questionNotFound)
	if !ok {
		return
	}

	var req models.EditQuestionRequest
	if !h.decode(w, r, &req) {
		return
	}

	assignment, err := h.assignmentService.EditQuestion(r.Context(), principal(r).UserID, id, index, &req)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeSuccess(w, assignment)
}

func (h *Handler) RemoveQuestion(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, assignmentNotFound)
	if !ok {
		return
	}

	index, ok := indexParam(w, r, questionNotFound)
	if !ok {
		return
	}

	assignment, err := h.assignmentService.RemoveQuestion(r.Context(), principal(r).UserID, id, index)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeSuccess(w, assignment)
}

func (h *Handler) AddExercise(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, assignmentNotFound)
	if !ok {
		return
	}

	var req models.CreateExerciseRequest
	if !h.decode(w, r, &req) {
		return
	}

	assignment, err := h.assignmentService.AddExercise(r.Context(), principal(r).UserID, id, &req)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeCreated(w, assignment)
}

func (h *Handler) EditExercise(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, assignmentNotFound)
	if !ok {
		return
	}

	index, ok := indexParam(w, r, exerciseNotFound)
	if !ok {
		return
	}

	var edit models.ExerciseEdit
	if !h.decode(w, r, &edit) {
		return
	}

	exercise, err := h.assignmentService.EditExercise(r.Context(), principal(r).UserID, id, index, &edit)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeSuccess(w, exercise)
}

func (h *Handler) RemoveExercise(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, assignmentNotFound)
	if !ok {
		return
	}

	index, ok := indexParam(w, r, exerciseNotFound)
	if !ok {
		return
	}

	assignment, err := h.assignmentService.RemoveExercise(r.Context(), principal(r).UserID, id, index)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeSuccess(w, assignment)
}

func (h *Handler) TestExerciseSolution(w http.ResponseWriter, r *http.Request) {
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

	result, err := h.assignmentService.TestExerciseSolution(r.Context(), principal(r).UserID, id, index, req.Code)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeSuccess(w, result)
}
