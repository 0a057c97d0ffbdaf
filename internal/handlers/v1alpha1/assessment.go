package v1alpha1

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/render"
	api "github.com/studio-labs/assessor/api/v1alpha1"
	"github.com/studio-labs/assessor/internal/auth"
	"github.com/studio-labs/assessor/internal/handlers/v1alpha1/mappers"
	"github.com/studio-labs/assessor/internal/handlers/validator"
	"github.com/studio-labs/assessor/internal/service"
	"github.com/studio-labs/assessor/pkg/log"
)

const maxPageSize = 500

// (GET /api/v1/assessments)
func (h *ServiceHandler) ListAssessments(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := log.NewDebugLogger("assessment_handler").
		WithContext(ctx).
		Operation("list_assessments").
		Build()

	user := auth.MustHaveUser(ctx)
	logger.Step("extract_user").WithString("username", user.Username).Log()

	filter := service.NewAssessmentFilter(user.Username)
	query := r.URL.Query()
	if status := query.Get("status"); status != "" {
		filter = filter.WithStatus(status)
	}
	if symbol := query.Get("symbol"); symbol != "" {
		filter = filter.WithSymbol(symbol)
	}

	limit, err := intParam(query.Get("limit"), 0)
	if err != nil || limit < 0 || limit > maxPageSize {
		writeError(w, r, http.StatusBadRequest, fmt.Sprintf("limit must be an integer between 1 and %d", maxPageSize))
		return
	}
	offset, err := intParam(query.Get("offset"), 0)
	if err != nil || offset < 0 {
		writeError(w, r, http.StatusBadRequest, "offset must be a positive integer")
		return
	}
	filter = filter.WithPage(limit, offset)

	assessments, total, err := h.assessmentSrv.ListAssessments(ctx, filter)
	if err != nil {
		logger.Error(err).Log()
		writeError(w, r, http.StatusInternalServerError, fmt.Sprintf("failed to list assessments: %v", err))
		return
	}

	logger.Success().WithInt("count", len(assessments)).Log()
	render.JSON(w, r, mappers.AssessmentListToApi(assessments, total))
}

// (POST /api/v1/assessments)
func (h *ServiceHandler) CreateAssessment(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := log.NewDebugLogger("assessment_handler").
		WithContext(ctx).
		Operation("create_assessment").
		Build()

	user := auth.MustHaveUser(ctx)
	logger.Step("extract_user").WithString("username", user.Username).Log()

	var form api.AssessmentForm
	if err := render.DecodeJSON(r.Body, &form); err != nil {
		logger.Error(err).WithString("step", "decode").Log()
		writeError(w, r, http.StatusBadRequest, fmt.Sprintf("failed to decode request body: %v", err))
		return
	}

	if err := validateAssessmentForm(form); err != nil {
		logger.Error(err).WithString("step", "validation").Log()
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	if form.Owner != user.Username {
		err := service.NewErrAssessmentCreationForbidden(form.Owner, user.Username)
		logger.Error(err).WithString("step", "authorization").Log()
		writeError(w, r, http.StatusForbidden, err.Error())
		return
	}

	createForm := mappers.AssessmentFormToCreateForm(form, user)
	logger.Step("create_assessment").
		WithString("symbol", createForm.Symbol).
		WithString("amount", createForm.Amount.String()).
		Log()

	assessment, err := h.assessmentSrv.CreateAssessment(ctx, createForm)
	if err != nil {
		switch err.(type) {
		case *service.ErrAssessmentDuplicateID:
			logger.Error(err).Log()
			writeError(w, r, http.StatusConflict, err.Error())
		default:
			logger.Error(err).Log()
			writeError(w, r, http.StatusInternalServerError, err.Error())
		}
		return
	}

	logger.Success().WithUUID("assessment_id", assessment.ID).Log()
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, mappers.AssessmentToEnvelope(*assessment))
}

// (GET /api/v1/assessments/{id})
func (h *ServiceHandler) GetAssessment(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := log.NewDebugLogger("assessment_handler").
		WithContext(ctx).
		Operation("get_assessment").
		Build()

	id, err := pathID(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, fmt.Sprintf("invalid assessment id: %v", err))
		return
	}

	user := auth.MustHaveUser(ctx)
	assessment, err := h.assessmentSrv.GetAssessment(ctx, id, user.Username)
	if err != nil {
		logger.Error(err).WithUUID("assessment_id", id).Log()
		writeServiceError(w, r, err)
		return
	}

	logger.Success().WithUUID("assessment_id", id).WithString("status", assessment.Status).Log()
	render.JSON(w, r, mappers.AssessmentToEnvelope(*assessment))
}

// (DELETE /api/v1/assessments/{id})
func (h *ServiceHandler) DeleteAssessment(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := log.NewDebugLogger("assessment_handler").
		WithContext(ctx).
		Operation("delete_assessment").
		Build()

	id, err := pathID(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, fmt.Sprintf("invalid assessment id: %v", err))
		return
	}

	user := auth.MustHaveUser(ctx)
	assessment, err := h.assessmentSrv.GetAssessment(ctx, id, user.Username)
	if err != nil {
		logger.Error(err).WithUUID("assessment_id", id).Log()
		writeServiceError(w, r, err)
		return
	}

	if err := h.assessmentSrv.DeleteAssessment(ctx, id, user.Username); err != nil {
		logger.Error(err).WithUUID("assessment_id", id).Log()
		writeServiceError(w, r, err)
		return
	}

	logger.Success().WithUUID("assessment_id", id).Log()
	render.JSON(w, r, mappers.AssessmentToEnvelope(*assessment))
}

// (GET /api/v1/assessments/stats)
func (h *ServiceHandler) GetAssessmentStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := log.NewDebugLogger("assessment_handler").
		WithContext(ctx).
		Operation("get_assessment_stats").
		Build()

	user := auth.MustHaveUser(ctx)
	stats, err := h.assessmentSrv.GetStats(ctx, user.Username)
	if err != nil {
		logger.Error(err).Log()
		writeError(w, r, http.StatusInternalServerError, err.Error())
		return
	}

	logger.Success().WithInt("total", stats.Total).Log()
	render.JSON(w, r, mappers.AssessmentStatsToApi(stats))
}

// (GET /api/v1/assessments/export)
func (h *ServiceHandler) ExportAssessments(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := log.NewDebugLogger("assessment_handler").
		WithContext(ctx).
		Operation("export_assessments").
		Build()

	format := service.ReportFormatCSV
	if f := r.URL.Query().Get("format"); f != "" {
		format = service.ReportFormat(f)
	}

	user := auth.MustHaveUser(ctx)
	report, err := h.assessmentSrv.ExportAssessments(ctx, user.Username, format)
	if err != nil {
		logger.Error(err).WithString("format", string(format)).Log()
		writeServiceError(w, r, err)
		return
	}

	logger.Success().WithString("format", string(format)).WithInt("bytes", len(report.Content)).Log()
	w.Header().Set("Content-Type", report.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=\"assessments.%s\"", report.Format))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(report.Content)
}

// writeServiceError maps the service error types to a status code.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch err.(type) {
	case *service.ErrResourceNotFound:
		writeError(w, r, http.StatusNotFound, err.Error())
	case *service.ErrAssessmentAccessForbidden:
		writeError(w, r, http.StatusForbidden, err.Error())
	case *service.ErrAssessmentAlreadyFinalized:
		writeError(w, r, http.StatusConflict, err.Error())
	case *service.ErrInvalidResult, *service.ErrUnsupportedReportFormat:
		writeError(w, r, http.StatusBadRequest, err.Error())
	default:
		writeError(w, r, http.StatusInternalServerError, err.Error())
	}
}

func intParam(value string, def int) (int, error) {
	if value == "" {
		return def, nil
	}
	return strconv.Atoi(value)
}

func validateAssessmentForm(form api.AssessmentForm) error {
	v := validator.NewValidator()
	v.Register(validator.NewAssessmentValidationRules()...)
	return v.Struct(form)
}
