package httpd

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/RubachokBoss/coursework-service/internal/auth"
	"github.com/RubachokBoss/coursework-service/internal/models"
	"github.com/RubachokBoss/coursework-service/internal/service"
	"github.com/RubachokBoss/coursework-service/pkg/utils"
	"github.com/RubachokBoss/coursework-service/pkg/validate"
)

// Pinger reports whether a dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Handler struct {
	authService       service.AuthService
	courseService     service.CourseService
	assignmentService service.AssignmentService
	submissionService service.SubmissionService
	reportService     service.ReportService
	tokens            *auth.TokenService
	db                Pinger
	logger            zerolog.Logger
}

func NewHandler(
	authService service.AuthService,
	courseService service.CourseService,
	assignmentService service.AssignmentService,
	submissionService service.SubmissionService,
	reportService service.ReportService,
	tokens *auth.TokenService,
	db Pinger,
	logger zerolog.Logger,
) *Handler {
	return &Handler{
		authService:       authService,
		courseService:     courseService,
		assignmentService: assignmentService,
		submissionService: submissionService,
		reportService:     reportService,
		tokens:            tokens,
		db:                db,
		logger:            logger,
	}
}

func (h *Handler) RegisterRoutes(router chi.Router) {
	router.Get("/health", h.HealthCheck)
	router.Get("/ready", h.ReadyCheck)

	teacher := auth.RequireRole(models.RoleTeacher)
	student := auth.RequireRole(models.RoleStudent)

	router.Route("/api/v1", func(api chi.Router) {
		api.Post("/auth/register", h.Register)
		api.Post("/auth/login", h.Login)

		api.Group(func(r chi.Router) {
			r.Use(auth.Middleware(h.tokens))

			r.Get("/auth/me", h.Me)

			r.Route("/courses", func(r chi.Router) {
				r.With(teacher).Post("/", h.CreateCourse)
				r.Get("/", h.ListCourses)
				r.With(student).Post("/enroll", h.Enroll)
				r.With(teacher).Post("/fork", h.ForkCourse)
				r.Get("/{code}", h.GetCourse)

				r.Group(func(r chi.Router) {
					r.Use(teacher)
					r.Put("/{code}", h.EditCourse)
					r.Delete("/{code}", h.DeleteCourse)
					r.Post("/{code}/assignments", h.CreateAssignment)
					r.Post("/{code}/invite", h.GenerateInvite)
					r.Post("/{code}/teachers", h.JoinAsTeacher)
					r.Post("/{code}/classrooms", h.AddClassroom)
					r.Delete("/{code}/classrooms/{classCode}", h.RemoveClassroom)
				})
			})

			r.Route("/assignments/{id}", func(r chi.Router) {
				r.Get("/", h.GetAssignment)

				// Учитель
				r.Group(func(r chi.Router) {
					r.Use(teacher)
					r.Put("/", h.EditAssignment)
					r.Delete("/", h.DeleteAssignment)
					r.Post("/open", h.OpenAssignment)
					r.Post("/close", h.CloseAssignment)

					r.Post("/questions", h.AddQuestion)
					r.Put("/questions/{index}", h.EditQuestion)
					r.Delete("/questions/{index}", h.RemoveQuestion)

					r.Post("/exercises", h.AddExercise)
					r.Put("/exercises/{index}", h.EditExercise)
					r.Delete("/exercises/{index}", h.RemoveExercise)
					r.Post("/exercises/{index}/test", h.TestExerciseSolution)

					r.Get("/submissions", h.ListSubmissions)
					r.Get("/report", h.GetGradeReport)
				})

				// Студент
				r.Group(func(r chi.Router) {
					r.Use(student)
					r.Get("/submission", h.GetMySubmission)
					r.Post("/questions/{index}/answer", h.SubmitQuestionAnswer)
					r.Put("/exercises/{index}/code", h.SaveExerciseAnswer)
					r.Post("/exercises/{index}/answer", h.SubmitExerciseAnswer)
				})
			})

			r.Route("/submissions/{id}", func(r chi.Router) {
				r.Use(teacher)
				r.Get("/", h.GetSubmission)
				r.Put("/questions/{index}/grade", h.GradeQuestion)
				r.Post("/comments", h.AddComment)
			})
		})
	})
}

func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	response := map[string]interface{}{
		"status":    "healthy",
		"service":   "coursework-service",
		"timestamp": time.Now().UTC(),
	}

	utils.WriteJSON(w, http.StatusOK, response)
}

// ReadyCheck also checks the database.
func (h *Handler) ReadyCheck(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	status, code := "ready", http.StatusOK
	dbStatus := "up"
	if err := h.db.Ping(ctx); err != nil {
		h.logger.Warn().Err(err).Msg("Database ping failed")
		status, code, dbStatus = "not ready", http.StatusServiceUnavailable, "down"
	}

	utils.WriteJSON(w, code, map[string]interface{}{
		"status":    status,
		"timestamp": time.Now().UTC(),
		"services": []map[string]string{
			{"name": "postgres", "status": dbStatus},
		},
	})
}

func getIntQueryParam(r *http.Request, key string, defaultValue int) int {
	value := r.URL.Query().Get(key)
	if value == "" {
		return defaultValue
	}

	intValue, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}

	return intValue
}

const (
	assignmentNotFound = "That assignment does not exist."
	submissionNotFound = "That submission does not exist."
	questionNotFound   = "That question does not exist."
	exerciseNotFound   = "That exercise does not exist."
)

// idParam reads the {id} path segment. Ids are UUIDs, so anything else is
// reported as missing without a database round trip.
func idParam(w http.ResponseWriter, r *http.Request, notFound string) (string, bool) {
	id := chi.URLParam(r, "id")
	if _, err := uuid.Parse(id); err != nil {
		utils.ErrorResponse(w, http.StatusNotFound, notFound)
		return "", false
	}
	return id, true
}

// indexParam reads the {index} path segment.
func indexParam(w http.ResponseWriter, r *http.Request, notFound string) (int, bool) {
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil || index < 0 {
		utils.ErrorResponse(w, http.StatusNotFound, notFound)
		return 0, false
	}
	return index, true
}

// principal is only called behind auth.Middleware.
func principal(r *http.Request) auth.Principal {
	p, _ := auth.PrincipalFromContext(r.Context())
	return p
}

// decode reads a JSON body into dst and checks its validate tags.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := utils.ReadJSON(w, r, dst); err != nil {
		utils.ErrorResponse(w, http.StatusBadRequest, err.Error())
		return false
	}
	if err := validate.Struct(dst); err != nil {
		h.handleServiceError(w, err)
		return false
	}
	return true
}

func writeSuccess(w http.ResponseWriter, data interface{}) {
	utils.SuccessResponse(w, http.StatusOK, data)
}

func writeCreated(w http.ResponseWriter, data interface{}) {
	utils.SuccessResponse(w, http.StatusCreated, data)
}
