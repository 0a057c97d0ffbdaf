package store

import (
	"context"

	"github.com/studio-labs/assessor/internal/store/model"
	"gorm.io/gorm"
)

type Store interface {
	NewTransactionContext(ctx context.Context) (context.Context, error)
	Assessment() Assessment
	InitialMigration(ctx context.Context) error
	Close() error
}

type DataStore struct {
	db         *gorm.DB
	assessment Assessment
}

func NewStore(db *gorm.DB) Store {
	return &DataStore{
		assessment: NewAssessmentStore(db),
		db:         db,
	}
}

func (s *DataStore) NewTransactionContext(ctx context.Context) (context.Context, error) {
	return newTransactionContext(ctx, s.db)
}

func (s *DataStore) Assessment() Assessment {
	return s.assessment
}

// InitialMigration creates the schema with gorm. Postgres deployments use the
// goose migrations instead.
func (s *DataStore) InitialMigration(ctx context.Context) error {
	return s.db.WithContext(ctx).AutoMigrate(&model.Assessment{})
}

func (s *DataStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
