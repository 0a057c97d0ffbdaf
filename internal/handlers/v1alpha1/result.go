package v1alpha1

import (
	"fmt"
	"net/http"

	"github.com/go-chi/render"
	api "github.com/studio-labs/assessor/api/v1alpha1"
	"github.com/studio-labs/assessor/internal/handlers/v1alpha1/mappers"
	"github.com/studio-labs/assessor/internal/handlers/validator"
	"github.com/studio-labs/assessor/pkg/log"
)

// (PUT /api/v1/engine/assessments/{id}/result)
func (h *ServiceHandler) PutAssessmentResult(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := log.NewDebugLogger("engine_handler").
		WithContext(ctx).
		Operation("put_assessment_result").
		Build()

	id, err := pathID(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, fmt.Sprintf("invalid assessment id: %v", err))
		return
	}

	var result api.AssessmentResult
	if err := render.DecodeJSON(r.Body, &result); err != nil {
		logger.Error(err).WithString("step", "decode").Log()
		writeError(w, r, http.StatusBadRequest, fmt.Sprintf("failed to decode request body: %v", err))
		return
	}

	v := validator.NewValidator()
	v.Register(validator.NewAssessmentResultValidationRules()...)
	if err := v.Struct(result); err != nil {
		logger.Error(err).WithString("step", "validation").Log()
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	logger.Step("record_result").WithUUID("assessment_id", id).WithString("status", string(result.Status)).Log()

	updated, err := h.assessmentSrv.RecordResult(ctx, id, mappers.AssessmentResultToForm(result))
	if err != nil {
		logger.Error(err).WithUUID("assessment_id", id).Log()
		writeServiceError(w, r, err)
		return
	}

	logger.Success().WithUUID("assessment_id", id).WithString("status", updated.Status).Log()
	render.JSON(w, r, mappers.AssessmentToEnvelope(*updated))
}
