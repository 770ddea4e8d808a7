package service

import (
	"context"

	"github.com/ximepaparella/gifty-api/internal/models"
	"github.com/ximepaparella/gifty-api/internal/repository"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// ProductService handles product business logic
type ProductService struct {
	products repository.ProductRepository
	stores   repository.StoreRepository
}

// NewProductService creates a new product service
func NewProductService(products repository.ProductRepository, stores repository.StoreRepository) *ProductService {
	return &ProductService{products: products, stores: stores}
}

// CreateProduct validates and persists a new product under an existing store
func (s *ProductService) CreateProduct(ctx context.Context, product *models.Product) error {
	verr := &ValidationError{}
	if product.StoreID == uuid.Nil {
		verr.Add("store_id", "store id is required")
	}
	if product.Name == "" {
		verr.Add("name", "product name is required")
	}
	if product.Price <= 0 {
		verr.Add("price", "product price must be positive")
	}
	if verr.HasViolations() {
		return verr
	}

	if _, err := s.stores.GetByID(ctx, product.StoreID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrStoreNotFound
		}
		return err
	}

	return s.products.Create(ctx, product)
}

// GetProduct returns a product by ID
func (s *ProductService) GetProduct(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	product, err := s.products.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}
	return product, nil
}

// ListProductsByStore returns every product belonging to a store
func (s *ProductService) ListProductsByStore(ctx context.Context, storeID uuid.UUID) ([]models.Product, error) {
	return s.products.ListByStore(ctx, storeID)
}

// UpdateProduct updates an existing product
func (s *ProductService) UpdateProduct(ctx context.Context, product *models.Product) error {
	err := s.products.Update(ctx, product)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrProductNotFound
	}
	return err
}

// DeleteProduct removes a product
func (s *ProductService) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	err := s.products.Delete(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrProductNotFound
	}
	return err
}
