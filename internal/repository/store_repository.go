package repository

import (
	"context"

	"github.com/ximepaparella/gifty-api/internal/models"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// StoreRepository provides access to store data
type StoreRepository interface {
	Create(ctx context.Context, store *models.Store) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Store, error)
	List(ctx context.Context, offset, limit int) ([]models.Store, int64, error)
	Update(ctx context.Context, store *models.Store) error
	UpdateLogo(ctx context.Context, id uuid.UUID, logoPath string) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type storeRepository struct {
	db *gorm.DB
}

// NewStoreRepository creates a new store repository
func NewStoreRepository(db *gorm.DB) StoreRepository {
	return &storeRepository{db: db}
}

func (r *storeRepository) Create(ctx context.Context, store *models.Store) error {
	if err := r.db.WithContext(ctx).Create(store).Error; err != nil {
		return errors.Wrap(err, "failed to create store")
	}
	return nil
}

func (r *storeRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Store, error) {
	var store models.Store
	err := r.db.WithContext(ctx).First(&store, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, errors.Wrap(err, "failed to get store by ID")
	}
	return &store, nil
}

func (r *storeRepository) List(ctx context.Context, offset, limit int) ([]models.Store, int64, error) {
	var (
		stores []models.Store
		total  int64
	)
	if err := r.db.WithContext(ctx).Model(&models.Store{}).Count(&total).Error; err != nil {
		return nil, 0, errors.Wrap(err, "failed to count stores")
	}
	err := r.db.WithContext(ctx).Offset(offset).Limit(limit).Find(&stores).Error
	if err != nil {
		return nil, 0, errors.Wrap(err, "failed to list stores")
	}
	return stores, total, nil
}

func (r *storeRepository) Update(ctx context.Context, store *models.Store) error {
	result := r.db.WithContext(ctx).Model(store).Updates(store)
	if result.Error != nil {
		return errors.Wrap(result.Error, "failed to update store")
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *storeRepository) UpdateLogo(ctx context.Context, id uuid.UUID, logoPath string) error {
	result := r.db.WithContext(ctx).
		Model(&models.Store{}).
		Where("id = ?", id).
		Update("logo", logoPath)
	if result.Error != nil {
		return errors.Wrap(result.Error, "failed to update store logo")
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *storeRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.Store{}, "id = ?", id)
	if result.Error != nil {
		return errors.Wrap(result.Error, "failed to delete store")
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
