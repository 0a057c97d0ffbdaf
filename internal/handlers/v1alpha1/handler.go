package v1alpha1

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/google/uuid"
	api "github.com/studio-labs/assessor/api/v1alpha1"
	"github.com/studio-labs/assessor/internal/service"
	"github.com/studio-labs/assessor/pkg/requestid"
)

type ServiceHandler struct {
	assessmentSrv *service.AssessmentService
}

func NewServiceHandler(assessmentService *service.AssessmentService) *ServiceHandler {
	return &ServiceHandler{
		assessmentSrv: assessmentService,
	}
}

// RegisterUserRoutes mounts the routes called on behalf of a user.
func (h *ServiceHandler) RegisterUserRoutes(r chi.Router) {
	r.Route("/assessments", func(r chi.Router) {
		r.Get("/", h.ListAssessments)
		r.Post("/", h.CreateAssessment)
		r.Get("/stats", h.GetAssessmentStats)
		r.Get("/export", h.ExportAssessments)
		r.Get("/{id}", h.GetAssessment)
		r.Delete("/{id}", h.DeleteAssessment)
	})
}

// RegisterEngineRoutes mounts the routes called by the workflow engine.
func (h *ServiceHandler) RegisterEngineRoutes(r chi.Router) {
	r.Put("/engine/assessments/{id}/result", h.PutAssessmentResult)
}

// (GET /health)
func (h *ServiceHandler) Health(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, api.Health{Status: "ok"})
}

func writeError(w http.ResponseWriter, r *http.Request, status int, message string) {
	render.Status(r, status)
	render.JSON(w, r, api.Error{Message: message, RequestId: requestid.FromContextPtr(r.Context())})
}

func pathID(r *http.Request) (uuid.UUID, error) {
	return uuid.Parse(chi.URLParam(r, "id"))
}
