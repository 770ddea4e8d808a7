package service

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/ximepaparella/gifty-api/internal/models"
	"github.com/ximepaparella/gifty-api/internal/repository"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// StoreService handles store business logic
type StoreService struct {
	stores     repository.StoreRepository
	uploadsDir string
}

// NewStoreService creates a new store service
func NewStoreService(stores repository.StoreRepository, uploadsDir string) *StoreService {
	return &StoreService{stores: stores, uploadsDir: uploadsDir}
}

// CreateStore validates and persists a new store
func (s *StoreService) CreateStore(ctx context.Context, store *models.Store) error {
	verr := &ValidationError{}
	if store.Name == "" {
		verr.Add("name", "store name is required")
	}
	if err := validate.Var(store.Email, "required,email"); err != nil {
		verr.Add("email", "store email is invalid")
	}
	if verr.HasViolations() {
		return verr
	}
	return s.stores.Create(ctx, store)
}

// GetStore returns a store by ID
func (s *StoreService) GetStore(ctx context.Context, id uuid.UUID) (*models.Store, error) {
	store, err := s.stores.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrStoreNotFound
		}
		return nil, err
	}
	return store, nil
}

// ListStores returns a page of stores with the total count
func (s *StoreService) ListStores(ctx context.Context, offset, limit int) ([]models.Store, int64, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return s.stores.List(ctx, offset, limit)
}

// UpdateStore updates an existing store
func (s *StoreService) UpdateStore(ctx context.Context, store *models.Store) error {
	err := s.stores.Update(ctx, store)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrStoreNotFound
	}
	return err
}

// DeleteStore removes a store
func (s *StoreService) DeleteStore(ctx context.Context, id uuid.UUID) error {
	err := s.stores.Delete(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrStoreNotFound
	}
	return err
}

// SaveLogo stores an uploaded logo file under the uploads directory and
// records its path on the store
func (s *StoreService) SaveLogo(ctx context.Context, id uuid.UUID, file io.Reader, filename string) (string, error) {
	if _, err := s.GetStore(ctx, id); err != nil {
		return "", err
	}

	dir := filepath.Join(s.uploadsDir, "stores")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", errors.Wrap(err, "failed to create uploads directory")
	}

	// The store ID keys the file so re-uploads replace the old logo
	path := filepath.Join(dir, id.String()+filepath.Ext(filename))
	out, err := os.Create(path)
	if err != nil {
		return "", errors.Wrap(err, "failed to create logo file")
	}
	defer out.Close()

	if _, err := io.Copy(out, file); err != nil {
		return "", errors.Wrap(err, "failed to write logo file")
	}

	if err := s.stores.UpdateLogo(ctx, id, path); err != nil {
		return "", err
	}

	log.Info().Str("store_id", id.String()).Str("path", path).Msg("Store logo updated")
	return path, nil
}
