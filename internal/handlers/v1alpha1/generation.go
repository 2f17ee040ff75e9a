package v1alpha1

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	playgroundvalidator "github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	api "github.com/reelmint/reelmint/api/v1alpha1"
	"github.com/reelmint/reelmint/internal/handlers/validator"
	"github.com/reelmint/reelmint/internal/service"
	"github.com/reelmint/reelmint/internal/service/mappers"
	"github.com/reelmint/reelmint/pkg/requestid"
)

// GenerationHandler exposes the job state machine over HTTP. It owns input
// validation; everything past it deals with validated forms only.
type GenerationHandler struct {
	svc       *service.GenerationService
	validator *validator.Validator
}

func NewGenerationHandler(svc *service.GenerationService) *GenerationHandler {
	v := validator.NewValidator()
	v.Register(validator.NewJobValidationRules()...)
	return &GenerationHandler{svc: svc, validator: v}
}

func (h *GenerationHandler) RegisterRoutes(r chi.Router) {
	r.Post("/jobs", h.CreateJob)
	r.Get("/jobs", h.ListJobs)
	r.Get("/jobs/{id}", h.GetJob)
}

func (h *GenerationHandler) CreateJob(w http.ResponseWriter, r *http.Request) {
	logger := zap.S().Named("generation_handler")
	ctx := r.Context()

	form := &api.JobCreate{}
	if err := render.DecodeJSON(r.Body, form); err != nil {
		renderError(w, r, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return
	}

	if err := h.validator.Struct(form); err != nil {
		renderError(w, r, http.StatusBadRequest, validationMessage(err))
		return
	}

	job, err := h.svc.CreateJob(ctx, form)
	if err != nil {
		logger.Errorw("failed to create job", "error", err, "request_id", requestid.FromContext(ctx))
		renderError(w, r, http.StatusInternalServerError, fmt.Sprintf("failed to create job: %v", err))
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, mappers.JobToApi(*job))
}

func (h *GenerationHandler) GetJob(w http.ResponseWriter, r *http.Request) {
	logger := zap.S().Named("generation_handler")
	ctx := r.Context()

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		renderError(w, r, http.StatusBadRequest, "invalid job id")
		return
	}

	job, err := h.svc.GetJob(ctx, id)
	if err != nil {
		var notFound *service.ErrResourceNotFound
		if errors.As(err, &notFound) {
			renderError(w, r, http.StatusNotFound, err.Error())
			return
		}
		logger.Errorw("failed to get job", "job_id", id, "error", err)
		renderError(w, r, http.StatusInternalServerError, fmt.Sprintf("failed to get job: %v", err))
		return
	}

	render.JSON(w, r, mappers.JobToApi(*job))
}

func (h *GenerationHandler) ListJobs(w http.ResponseWriter, r *http.Request) {
	logger := zap.S().Named("generation_handler")
	ctx := r.Context()

	filter := &service.JobFilter{
		UserID: r.URL.Query().Get("userId"),
		Status: r.URL.Query().Get("status"),
	}

	jobs, err := h.svc.ListJobs(ctx, filter)
	if err != nil {
		logger.Errorw("failed to list jobs", "error", err)
		renderError(w, r, http.StatusInternalServerError, fmt.Sprintf("failed to list jobs: %v", err))
		return
	}

	render.JSON(w, r, mappers.JobListToApi(jobs))
}

func renderError(w http.ResponseWriter, r *http.Request, status int, message string) {
	render.Status(r, status)
	render.JSON(w, r, api.Error{Message: message, RequestId: requestid.FromContextPtr(r.Context())})
}

// validationMessage flattens validator errors into one readable line.
func validationMessage(err error) string {
	var fieldErrs playgroundvalidator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err.Error()
	}

	msg := "validation failed:"
	for i, fe := range fieldErrs {
		if i > 0 {
			msg += ";"
		}
		msg += fmt.Sprintf(" field %s failed on %s", fe.Field(), fe.Tag())
	}
	return msg
}
