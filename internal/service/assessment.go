package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	api "github.com/studio-labs/assessor/api/v1alpha1"
	"github.com/studio-labs/assessor/internal/events"
	"github.com/studio-labs/assessor/internal/service/mappers"
	"github.com/studio-labs/assessor/internal/store"
	"github.com/studio-labs/assessor/internal/store/model"
	"github.com/studio-labs/assessor/pkg/log"
	"github.com/studio-labs/assessor/pkg/metrics"
)

const (
	// GenerationTimeoutMessage is stored on records the reaper fails.
	GenerationTimeoutMessage = "assessment generation timed out"
	defaultFailureMessage    = "assessment generation failed"
)

// EventPublisher receives the lifecycle events of assessments.
type EventPublisher interface {
	Publish(ctx context.Context, kind string, event events.AssessmentEvent) error
}

// Archiver stores the result document of ready assessments.
type Archiver interface {
	Archive(ctx context.Context, assessment model.Assessment) error
}

type AssessmentService struct {
	store     store.Store
	publisher EventPublisher
	archiver  Archiver
	reports   *ReportService
	logger    *log.StructuredLogger
}

func NewAssessmentService(store store.Store, publisher EventPublisher, archiver Archiver) *AssessmentService {
	if publisher == nil {
		publisher = noopPublisher{}
	}
	if archiver == nil {
		archiver = noopArchiver{}
	}
	return &AssessmentService{
		store:     store,
		publisher: publisher,
		archiver:  archiver,
		reports:   NewReportService(),
		logger:    log.NewDebugLogger("assessment_service"),
	}
}

type AssessmentFilter struct {
	Owner  string
	Status []string
	Symbol string
	Limit  int
	Offset int
}

func NewAssessmentFilter(owner string) *AssessmentFilter {
	return &AssessmentFilter{Owner: owner}
}

func (f *AssessmentFilter) WithStatus(status ...string) *AssessmentFilter {
	f.Status = append(f.Status, status...)
	return f
}

func (f *AssessmentFilter) WithSymbol(symbol string) *AssessmentFilter {
	f.Symbol = symbol
	return f
}

func (f *AssessmentFilter) WithPage(limit, offset int) *AssessmentFilter {
	f.Limit = limit
	f.Offset = offset
	return f
}

func (f *AssessmentFilter) storeFilter() *store.AssessmentQueryFilter {
	filter := store.NewAssessmentQueryFilter().ByOwner(f.Owner)
	if len(f.Status) > 0 {
		filter = filter.ByStatus(f.Status...)
	}
	if f.Symbol != "" {
		filter = filter.BySymbol(f.Symbol)
	}
	return filter
}

// ListAssessments returns one page of the owner's assessments, newest first,
// and the total number of records matching the filter.
func (as *AssessmentService) ListAssessments(ctx context.Context, filter *AssessmentFilter) (model.AssessmentList, int64, error) {
	tracer := as.logger.WithContext(ctx).Operation("list_assessments").
		WithString("owner", filter.Owner).
		WithString("symbol", filter.Symbol).
		WithInt("limit", filter.Limit).
		WithInt("offset", filter.Offset).
		Build()

	opts := store.NewAssessmentQueryOptions().WithSortOrder(store.SortByCreatedTime)
	if filter.Limit > 0 {
		opts = opts.WithLimit(filter.Limit)
	}
	if filter.Offset > 0 {
		opts = opts.WithOffset(filter.Offset)
	}

	assessments, err := as.store.Assessment().List(ctx, filter.storeFilter(), opts)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list assessments: %w", err)
	}

	total, err := as.store.Assessment().Count(ctx, filter.storeFilter())
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count assessments: %w", err)
	}

	tracer.Success().WithInt("count", len(assessments)).WithInt("total", int(total)).Log()
	return assessments, total, nil
}

// GetAssessment returns the record if it exists and belongs to owner.
func (as *AssessmentService) GetAssessment(ctx context.Context, id uuid.UUID, owner string) (*model.Assessment, error) {
	tracer := as.logger.WithContext(ctx).Operation("get_assessment").
		WithUUID("assessment_id", id).
		WithString("owner", owner).
		Build()

	assessment, err := as.store.Assessment().Get(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return nil, NewErrAssessmentNotFound(id)
		}
		return nil, fmt.Errorf("failed to get assessment: %w", err)
	}

	if assessment.Owner != owner {
		return nil, NewErrAssessmentAccessForbidden(id, owner)
	}

	tracer.Success().
		WithString("status", assessment.Status).
		WithBool("has_result", assessment.Result != nil).
		Log()
	return assessment, nil
}

// CreateAssessment inserts a new record in the generating state.
func (as *AssessmentService) CreateAssessment(ctx context.Context, form mappers.AssessmentCreateForm) (*model.Assessment, error) {
	if form.ID == uuid.Nil {
		form.ID = uuid.New()
	}

	tracer := as.logger.WithContext(ctx).Operation("create_assessment").
		WithUUID("assessment_id", form.ID).
		WithString("owner", form.Owner).
		WithString("symbol", form.Symbol).
		WithString("amount", form.Amount.String()).
		Build()

	created, err := as.store.Assessment().Create(ctx, form.ToModel())
	if err != nil {
		if errors.Is(err, store.ErrDuplicateKey) {
			return nil, NewErrAssessmentDuplicateID(form.ID)
		}
		return nil, fmt.Errorf("failed to create assessment: %w", err)
	}

	metrics.IncreaseAssessmentsCreatedMetric()
	metrics.UniqueOwnersPerWeek.Observe(created.Owner)
	as.publish(ctx, events.AssessmentCreatedKind, *created)

	tracer.Success().WithString("status", created.Status).Log()
	return created, nil
}

// DeleteAssessment removes one of the owner's records.
func (as *AssessmentService) DeleteAssessment(ctx context.Context, id uuid.UUID, owner string) error {
	tracer := as.logger.WithContext(ctx).Operation("delete_assessment").
		WithUUID("assessment_id", id).
		WithString("owner", owner).
		Build()

	ctx, err := as.store.NewTransactionContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}

	if _, err := as.GetAssessment(ctx, id, owner); err != nil {
		_, _ = store.Rollback(ctx)
		return err
	}

	if err := as.store.Assessment().Delete(ctx, id); err != nil {
		_, _ = store.Rollback(ctx)
		return fmt.Errorf("failed to delete assessment: %w", err)
	}

	if _, err := store.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit delete: %w", err)
	}

	tracer.Success().Log()
	return nil
}

// RecordResult applies the workflow engine's outcome. A record can leave the
// generating state only once.
func (as *AssessmentService) RecordResult(ctx context.Context, id uuid.UUID, form mappers.AssessmentResultForm) (*model.Assessment, error) {
	tracer := as.logger.WithContext(ctx).Operation("record_result").
		WithUUID("assessment_id", id).
		WithString("status", string(form.Status)).
		Build()

	var (
		updated *model.Assessment
		err     error
	)
	switch form.Status {
	case api.AssessmentStatusReady:
		if form.Data == nil {
			return nil, NewErrInvalidResult("a ready result must carry assessment data")
		}
		updated, err = as.store.Assessment().Complete(ctx, id, *form.Data)
	case api.AssessmentStatusFailed:
		msg := form.ErrorMessage
		if msg == "" {
			msg = defaultFailureMessage
		}
		updated, err = as.store.Assessment().Fail(ctx, id, msg)
	default:
		return nil, NewErrInvalidResult("status %q is not terminal", form.Status)
	}

	if err != nil {
		switch {
		case errors.Is(err, store.ErrRecordNotFound):
			return nil, NewErrAssessmentNotFound(id)
		case errors.Is(err, store.ErrAlreadyFinalized):
			status := "finalized"
			if updated != nil {
				status = updated.Status
			}
			tracer.Step("already_finalized").WithString("current_status", status).Log()
			return nil, NewErrAssessmentAlreadyFinalized(id, status)
		default:
			return nil, fmt.Errorf("failed to record result: %w", err)
		}
	}

	metrics.IncreaseAssessmentsFinishedMetric(updated.Status)
	as.publish(ctx, events.KindForStatus(api.StringToAssessmentStatus(updated.Status)), *updated)

	if updated.Status == model.AssessmentStatusReady {
		if err := as.archiver.Archive(ctx, *updated); err != nil {
			tracer.Step("archive_failed").WithString("error", err.Error()).Log()
		}
	}

	tracer.Success().WithString("final_status", updated.Status).Log()
	return updated, nil
}

// ExpireStale fails every record still generating after maxAge. Records that
// reach a terminal state concurrently are left untouched.
func (as *AssessmentService) ExpireStale(ctx context.Context, maxAge time.Duration, now time.Time) (int, error) {
	tracer := as.logger.WithContext(ctx).Operation("expire_stale").
		WithString("max_age", maxAge.String()).
		Build()

	filter := store.NewAssessmentQueryFilter().
		ByStatus(model.AssessmentStatusGenerating).
		CreatedBefore(now.Add(-maxAge))

	stale, err := as.store.Assessment().List(ctx, filter, store.NewAssessmentQueryOptions().WithSortOrder(store.SortByCreatedTime))
	if err != nil {
		return 0, fmt.Errorf("failed to list stale assessments: %w", err)
	}

	expired := 0
	for _, a := range stale {
		updated, err := as.store.Assessment().Fail(ctx, a.ID, GenerationTimeoutMessage)
		if err != nil {
			if errors.Is(err, store.ErrAlreadyFinalized) || errors.Is(err, store.ErrRecordNotFound) {
				continue
			}
			return expired, fmt.Errorf("failed to expire assessment %s: %w", a.ID, err)
		}

		expired++
		metrics.IncreaseAssessmentsFinishedMetric(updated.Status)
		as.publish(ctx, events.AssessmentExpiredKind, *updated)
	}

	if expired > 0 {
		metrics.IncreaseReaperExpiredMetric(expired)
	}

	tracer.Success().WithInt("candidates", len(stale)).WithInt("expired", expired).Log()
	return expired, nil
}

func (as *AssessmentService) GetStats(ctx context.Context, owner string) (model.AssessmentStats, error) {
	tracer := as.logger.WithContext(ctx).Operation("get_stats").
		WithString("owner", owner).
		Build()

	stats, err := as.store.Assessment().Stats(ctx, store.NewAssessmentQueryFilter().ByOwner(owner))
	if err != nil {
		return model.AssessmentStats{}, fmt.Errorf("failed to compute stats: %w", err)
	}

	tracer.Success().WithInt("total", stats.Total).Log()
	return stats, nil
}

// ExportAssessments renders every assessment of the owner in the requested format.
func (as *AssessmentService) ExportAssessments(ctx context.Context, owner string, format ReportFormat) (*Report, error) {
	tracer := as.logger.WithContext(ctx).Operation("export_assessments").
		WithString("owner", owner).
		WithString("format", string(format)).
		Build()

	filter := store.NewAssessmentQueryFilter().ByOwner(owner)
	assessments, err := as.store.Assessment().List(ctx, filter, store.NewAssessmentQueryOptions().WithSortOrder(store.SortByCreatedTime))
	if err != nil {
		return nil, fmt.Errorf("failed to list assessments: %w", err)
	}

	stats, err := as.store.Assessment().Stats(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to compute stats: %w", err)
	}

	report, err := as.reports.GenerateReport(ReportData{
		Owner:       owner,
		Assessments: assessments,
		Stats:       stats,
		GeneratedAt: time.Now().UTC(),
	}, format)
	if err != nil {
		return nil, err
	}

	tracer.Success().WithInt("rows", len(assessments)).WithInt("bytes", len(report.Content)).Log()
	return report, nil
}

func (as *AssessmentService) publish(ctx context.Context, kind string, a model.Assessment) {
	if err := as.publisher.Publish(ctx, kind, mappers.AssessmentEventFromModel(a)); err != nil {
		as.logger.WithContext(ctx).Operation("publish_event").
			WithString("kind", kind).
			WithUUID("assessment_id", a.ID).
			Build().
			Error(err).
			Log()
	}
}

type noopPublisher struct{}

func (noopPublisher) Publish(context.Context, string, events.AssessmentEvent) error { return nil }

type noopArchiver struct{}

func (noopArchiver) Archive(context.Context, model.Assessment) error { return nil }
