package submission_test

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	api "github.com/studio-labs/assessor/api/v1alpha1"
)

type fetchResult struct {
	envelope *api.AssessmentEnvelope
	err      error
}

// fakeAPI answers status checks from a script. The last entry repeats once the script is exhausted.
type fakeAPI struct {
	mu        sync.Mutex
	createEnv *api.AssessmentEnvelope
	createErr error
	script    []fetchResult
	fetches   int
	// gate, when set, holds every status check until it is closed.
	gate chan struct{}
}

func (f *fakeAPI) CreateAssessment(_ context.Context, form api.AssessmentForm) (*api.AssessmentEnvelope, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return nil, f.createErr
	}
	if f.createEnv != nil {
		return f.createEnv, nil
	}
	return &api.AssessmentEnvelope{Assessment: &api.Assessment{Id: uuid.New(), Owner: form.Owner, Symbol: form.Symbol, Status: api.AssessmentStatusGenerating}}, nil
}

func (f *fakeAPI) GetAssessment(_ context.Context, id uuid.UUID) (*api.AssessmentEnvelope, error) {
	f.mu.Lock()
	gate := f.gate
	f.mu.Unlock()
	if gate != nil {
		<-gate
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetches++
	idx := f.fetches - 1
	if idx >= len(f.script) {
		idx = len(f.script) - 1
	}
	res := f.script[idx]
	if res.envelope != nil && res.envelope.Assessment != nil {
		a := *res.envelope.Assessment
		a.Id = id
		return &api.AssessmentEnvelope{Assessment: &a}, res.err
	}
	return res.envelope, res.err
}

func (f *fakeAPI) Fetches() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fetches
}

func statusResult(status api.AssessmentStatus) fetchResult {
	return fetchResult{envelope: &api.AssessmentEnvelope{Assessment: &api.Assessment{Status: status}}}
}

func readyResult(decision api.Decision) fetchResult {
	return fetchResult{envelope: &api.AssessmentEnvelope{Assessment: &api.Assessment{
		Status: api.AssessmentStatusReady,
		AssessmentData: &api.AssessmentData{
			Decision:   decision,
			Confidence: 72,
			RiskScore:  4,
			Narrative:  "steady accumulation",
		},
	}}}
}

func failedResult(message string) fetchResult {
	return fetchResult{envelope: &api.AssessmentEnvelope{Assessment: &api.Assessment{
		Status:       api.AssessmentStatusFailed,
		ErrorMessage: &message,
	}}}
}

// recorder collects callback invocations.
type recorder struct {
	mu        sync.Mutex
	progress  []float64
	completed []api.Assessment
	errors    []string
	codes     []string
}

func (r *recorder) onProgress(p float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.progress = append(r.progress, p)
}

func (r *recorder) Progress() []float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]float64(nil), r.progress...)
}

func (r *recorder) Completed() []api.Assessment {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]api.Assessment(nil), r.completed...)
}

func (r *recorder) Codes() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.codes...)
}

func (r *recorder) Errors() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.errors...)
}

func (r *recorder) Deliveries() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.completed) + len(r.codes)
}

// heldScheduler keeps the last scheduled callback so a test can run it by hand, even after Cancel.
// That stands in for a timer that already fired and whose callback is still on its way.
type heldScheduler struct {
	mu      sync.Mutex
	fn      func()
	pending bool
}

func (h *heldScheduler) Schedule(_ time.Duration, fn func()) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.fn = fn
	h.pending = true
}

func (h *heldScheduler) Cancel() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.pending = false
}

func (h *heldScheduler) Pending() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.pending
}

func (h *heldScheduler) Held() func() {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.fn
}

func (h *heldScheduler) Fire() {
	if fn := h.Held(); fn != nil {
		fn()
	}
}
