package service

import (
	"context"
	"time"

	jitterbug "github.com/lthibault/jitterbug/v2"
	"github.com/studio-labs/assessor/pkg/log"
	"k8s.io/utils/clock"
)

// Reaper fails assessments the workflow engine never answered. It gives the
// generation deadline a single owner on the server side.
type Reaper struct {
	srv      *AssessmentService
	maxAge   time.Duration
	interval time.Duration
	clock    clock.Clock
	logger   *log.StructuredLogger
}

func NewReaper(srv *AssessmentService, maxAge, interval time.Duration) *Reaper {
	return NewReaperWithClock(srv, maxAge, interval, clock.RealClock{})
}

func NewReaperWithClock(srv *AssessmentService, maxAge, interval time.Duration, clk clock.Clock) *Reaper {
	return &Reaper{
		srv:      srv,
		maxAge:   maxAge,
		interval: interval,
		clock:    clk,
		logger:   log.NewDebugLogger("reaper"),
	}
}

// Run sweeps once immediately and then on a jittered interval until ctx is done.
func (r *Reaper) Run(ctx context.Context) error {
	ticker := jitterbug.New(r.interval, &jitterbug.Norm{Stdev: r.interval / 10, Mean: 0})
	defer ticker.Stop()

	for {
		if _, err := r.Sweep(ctx); err != nil && ctx.Err() == nil {
			r.logger.WithContext(ctx).Operation("sweep").Build().Error(err).Log()
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func (r *Reaper) Sweep(ctx context.Context) (int, error) {
	return r.srv.ExpireStale(ctx, r.maxAge, r.clock.Now())
}
