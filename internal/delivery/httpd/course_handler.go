package httpd

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/RubachokBoss/coursework-service/internal/models"
)

func (h *Handler) CreateCourse(w http.ResponseWriter, r *http.Request) {
	var req models.CreateCourseRequest
	if !h.decode(w, r, &req) {
		return
	}

	course, err := h.courseService.CreateCourse(r.Context(), principal(r).UserID, &req)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeCreated(w, course)
}

func (h *Handler) ListCourses(w http.ResponseWriter, r *http.Request) {
	courses, err := h.courseService.ListCourses(r.Context(), principal(r))
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeSuccess(w, courses)
}

func (h *Handler) GetCourse(w http.ResponseWriter, r *http.Request) {
	details, err := h.courseService.GetCourse(r.Context(), principal(r), chi.URLParam(r, "code"))
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeSuccess(w, details)
}

func (h *Handler) Enroll(w http.ResponseWriter, r *http.Request) {
	var req models.EnrollRequest
	if !h.decode(w, r, &req) {
		return
	}

	course, err := h.courseService.Enroll(r.Context(), principal(r).UserID, &req)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeSuccess(w, course)
}

func (h *Handler) EditCourse(w http.ResponseWriter, r *http.Request) {
	var req models.EditCourseRequest
	if !h.decode(w, r, &req) {
		return
	}

	course, err := h.courseService.EditCourse(r.Context(), principal(r).UserID, chi.URLParam(r, "code"), &req)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeSuccess(w, course)
}

// DeleteCourse takes the teacher's password in the body.
func (h *Handler) DeleteCourse(w http.ResponseWriter, r *http.Request) {
	var req models.PasswordRequest
	if !h.decode(w, r, &req) {
		return
	}

	if err := h.courseService.DeleteCourse(r.Context(), principal(r).UserID, chi.URLParam(r, "code"), req.Password); err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeSuccess(w, nil)
}

func (h *Handler) ForkCourse(w http.ResponseWriter, r *http.Request) {
	var req models.ForkCourseRequest
	if !h.decode(w, r, &req) {
		return
	}

	course, err := h.courseService.ForkCourse(r.Context(), principal(r).UserID, &req)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeCreated(w, course)
}

func (h *Handler) GenerateInvite(w http.ResponseWriter, r *http.Request) {
	var req models.PasswordRequest
	if !h.decode(w, r, &req) {
		return
	}

	invite, err := h.courseService.GenerateInvite(r.Context(), principal(r).UserID, chi.URLParam(r, "code"), req.Password)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeCreated(w, invite)
}

func (h *Handler) JoinAsTeacher(w http.ResponseWriter, r *http.Request) {
	var req models.JoinCourseRequest
	if !h.decode(w, r, &req) {
		return
	}

	course, err := h.courseService.JoinAsTeacher(r.Context(), principal(r).UserID, chi.URLParam(r, "code"), req.InviteCode)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeSuccess(w, course)
}

func (h *Handler) AddClassroom(w http.ResponseWriter, r *http.Request) {
	var req models.CreateClassroomRequest
	if !h.decode(w, r, &req) {
		return
	}

	classroom, err := h.courseService.AddClassroom(r.Context(), principal(r).UserID, chi.URLParam(r, "code"), &req)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeCreated(w, classroom)
}

func (h *Handler) RemoveClassroom(w http.ResponseWriter, r *http.Request) {
	err := h.courseService.RemoveClassroom(r.Context(), principal(r).UserID, chi.URLParam(r, "code"), chi.URLParam(r, "classCode"))
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeSuccess(w, nil)
}
