package store

import (
	"time"

	"gorm.io/gorm"
)

type SortOrder int

const (
	Unsorted SortOrder = iota
	SortByID
	SortByUpdatedTime
	SortByCreatedTime
)

type BaseQuerier struct {
	QueryFn []func(tx *gorm.DB) *gorm.DB
}

type AssessmentQueryFilter BaseQuerier

func NewAssessmentQueryFilter() *AssessmentQueryFilter {
	return &AssessmentQueryFilter{QueryFn: make([]func(tx *gorm.DB) *gorm.DB, 0)}
}

func (f *AssessmentQueryFilter) ByOwner(owner string) *AssessmentQueryFilter {
	f.QueryFn = append(f.QueryFn, func(tx *gorm.DB) *gorm.DB {
		return tx.Where("owner = ?", owner)
	})
	return f
}

func (f *AssessmentQueryFilter) ByStatus(status ...string) *AssessmentQueryFilter {
	f.QueryFn = append(f.QueryFn, func(tx *gorm.DB) *gorm.DB {
		return tx.Where("status IN ?", status)
	})
	return f
}

func (f *AssessmentQueryFilter) BySymbol(symbol string) *AssessmentQueryFilter {
	f.QueryFn = append(f.QueryFn, func(tx *gorm.DB) *gorm.DB {
		return tx.Where("symbol = ?", symbol)
	})
	return f
}

func (f *AssessmentQueryFilter) CreatedBefore(t time.Time) *AssessmentQueryFilter {
	f.QueryFn = append(f.QueryFn, func(tx *gorm.DB) *gorm.DB {
		return tx.Where("created_at < ?", t.UTC())
	})
	return f
}

type AssessmentQueryOptions BaseQuerier

func NewAssessmentQueryOptions() *AssessmentQueryOptions {
	return &AssessmentQueryOptions{QueryFn: make([]func(tx *gorm.DB) *gorm.DB, 0)}
}

func (o *AssessmentQueryOptions) WithLimit(limit int) *AssessmentQueryOptions {
	o.QueryFn = append(o.QueryFn, func(tx *gorm.DB) *gorm.DB {
		return tx.Limit(limit)
	})
	return o
}

func (o *AssessmentQueryOptions) WithOffset(offset int) *AssessmentQueryOptions {
	o.QueryFn = append(o.QueryFn, func(tx *gorm.DB) *gorm.DB {
		return tx.Offset(offset)
	})
	return o
}

func (o *AssessmentQueryOptions) WithSortOrder(sort SortOrder) *AssessmentQueryOptions {
	o.QueryFn = append(o.QueryFn, func(tx *gorm.DB) *gorm.DB {
		switch sort {
		case SortByID:
			return tx.Order("id")
		case SortByUpdatedTime:
			return tx.Order("updated_at DESC")
		case SortByCreatedTime:
			return tx.Order("created_at DESC")
		default:
			return tx
		}
	})
	return o
}
