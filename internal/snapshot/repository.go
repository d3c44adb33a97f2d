package snapshot

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tillworks/tillpoint-backend/pkg/db/models"
	pkgerrors "github.com/tillworks/tillpoint-backend/pkg/errors"
)

// Repository persists tab store snapshots, one row per namespace.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds the repository to the provided GORM handle.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Save upserts the namespace's snapshot row.
func (r *Repository) Save(ctx context.Context, namespace string, payload []byte, lastUpdatedAt time.Time) error {
	record := models.TabSnapshot{
		Namespace:     namespace,
		Payload:       payload,
		LastUpdatedAt: lastUpdatedAt,
	}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "namespace"}},
			DoUpdates: clause.AssignmentColumns([]string{"payload", "last_updated_at", "updated_at"}),
		}).
		Create(&record).Error
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save tab snapshot")
	}
	return nil
}

// Load returns the namespace's stored snapshot payload.
func (r *Repository) Load(ctx context.Context, namespace string) ([]byte, error) {
	var record models.TabSnapshot
	err := r.db.WithContext(ctx).
		Where("namespace = ?", namespace).
		First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "no snapshot for namespace")
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load tab snapshot")
	}
	return record.Payload, nil
}
