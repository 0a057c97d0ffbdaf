package store

import (
	"context"
	"errors"

	"github.com/google/uuid"
	api "github.com/studio-labs/assessor/api/v1alpha1"
	"github.com/studio-labs/assessor/internal/store/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Assessment interface {
	List(ctx context.Context, filter *AssessmentQueryFilter, opts *AssessmentQueryOptions) (model.AssessmentList, error)
	Count(ctx context.Context, filter *AssessmentQueryFilter) (int64, error)
	Get(ctx context.Context, id uuid.UUID) (*model.Assessment, error)
	Create(ctx context.Context, assessment model.Assessment) (*model.Assessment, error)
	Complete(ctx context.Context, id uuid.UUID, result api.AssessmentData) (*model.Assessment, error)
	Fail(ctx context.Context, id uuid.UUID, message string) (*model.Assessment, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Stats(ctx context.Context, filter *AssessmentQueryFilter) (model.AssessmentStats, error)
}

type AssessmentStore struct {
	db *gorm.DB
}

// Make sure we conform to Assessment interface
var _ Assessment = (*AssessmentStore)(nil)

func NewAssessmentStore(db *gorm.DB) Assessment {
	return &AssessmentStore{db: db}
}

func (a *AssessmentStore) List(ctx context.Context, filter *AssessmentQueryFilter, opts *AssessmentQueryOptions) (model.AssessmentList, error) {
	var assessments model.AssessmentList
	tx := a.getDB(ctx).Model(&assessments)

	if filter != nil {
		for _, fn := range filter.QueryFn {
			tx = fn(tx)
		}
	}

	if opts != nil {
		for _, fn := range opts.QueryFn {
			tx = fn(tx)
		}
	}

	if err := tx.Find(&assessments).Error; err != nil {
		return nil, err
	}
	return assessments, nil
}

func (a *AssessmentStore) Count(ctx context.Context, filter *AssessmentQueryFilter) (int64, error) {
	var total int64
	tx := a.getDB(ctx).Model(&model.Assessment{})

	if filter != nil {
		for _, fn := range filter.QueryFn {
			tx = fn(tx)
		}
	}

	if err := tx.Count(&total).Error; err != nil {
		return 0, err
	}
	return total, nil
}

func (a *AssessmentStore) Get(ctx context.Context, id uuid.UUID) (*model.Assessment, error) {
	var assessment model.Assessment
	result := a.getDB(ctx).First(&assessment, "id = ?", id)

	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrRecordNotFound
		}
		return nil, result.Error
	}
	return &assessment, nil
}

func (a *AssessmentStore) Create(ctx context.Context, assessment model.Assessment) (*model.Assessment, error) {
	// the job always starts in generating with neither result nor error
	assessment.Status = model.AssessmentStatusGenerating
	assessment.Result = nil
	assessment.ErrorMessage = nil

	result := a.getDB(ctx).Clauses(clause.Returning{}).Create(&assessment)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
			return nil, ErrDuplicateKey
		}
		return nil, result.Error
	}

	return &assessment, nil
}

// Complete moves a generating assessment to ready.
// It returns ErrAlreadyFinalized if the assessment already reached a terminal status.
func (a *AssessmentStore) Complete(ctx context.Context, id uuid.UUID, result api.AssessmentData) (*model.Assessment, error) {
	return a.finalize(ctx, id, map[string]any{
		"status": model.AssessmentStatusReady,
		"result": model.MakeJSONField(result),
	})
}

// Fail moves a generating assessment to failed.
// It returns ErrAlreadyFinalized if the assessment already reached a terminal status.
func (a *AssessmentStore) Fail(ctx context.Context, id uuid.UUID, message string) (*model.Assessment, error) {
	return a.finalize(ctx, id, map[string]any{
		"status":        model.AssessmentStatusFailed,
		"error_message": message,
	})
}

// finalize applies the single allowed transition. The status guard in the
// where clause makes concurrent writers race on the row instead of in memory:
// exactly one of them sees a row affected.
func (a *AssessmentStore) finalize(ctx context.Context, id uuid.UUID, updates map[string]any) (*model.Assessment, error) {
	updates["updated_at"] = a.getDB(ctx).NowFunc()

	result := a.getDB(ctx).Model(&model.Assessment{}).
		Where("id = ? AND status = ?", id, model.AssessmentStatusGenerating).
		Updates(updates)
	if result.Error != nil {
		return nil, result.Error
	}

	current, err := a.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if result.RowsAffected == 0 {
		return current, ErrAlreadyFinalized
	}

	return current, nil
}

func (a *AssessmentStore) Delete(ctx context.Context, id uuid.UUID) error {
	result := a.getDB(ctx).Unscoped().Delete(&model.Assessment{}, "id = ?", id.String())
	if result.Error != nil && !errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return result.Error
	}
	return nil
}

func (a *AssessmentStore) Stats(ctx context.Context, filter *AssessmentQueryFilter) (model.AssessmentStats, error) {
	var counts []model.StatusCount
	tx := a.getDB(ctx).Model(&model.Assessment{}).
		Select("status, COUNT(*) AS total, COALESCE(SUM(amount), 0) AS total_amount").
		Group("status")

	if filter != nil {
		for _, fn := range filter.QueryFn {
			tx = fn(tx)
		}
	}

	if err := tx.Scan(&counts).Error; err != nil {
		return model.AssessmentStats{}, err
	}

	readyFilter := NewAssessmentQueryFilter().ByStatus(model.AssessmentStatusReady)
	if filter != nil {
		readyFilter.QueryFn = append(readyFilter.QueryFn, filter.QueryFn...)
	}

	ready, err := a.List(ctx, readyFilter, nil)
	if err != nil {
		return model.AssessmentStats{}, err
	}

	return model.NewAssessmentStats(counts, ready), nil
}

func (a *AssessmentStore) getDB(ctx context.Context) *gorm.DB {
	tx := FromContext(ctx)
	if tx != nil {
		return tx
	}
	return a.db.WithContext(ctx)
}
