package service

import (
	"context"

	"github.com/ximepaparella/gifty-api/internal/models"
	"github.com/ximepaparella/gifty-api/internal/repository"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// CustomerService handles customer business logic
type CustomerService struct {
	customers repository.CustomerRepository
}

// NewCustomerService creates a new customer service
func NewCustomerService(customers repository.CustomerRepository) *CustomerService {
	return &CustomerService{customers: customers}
}

// CreateCustomer validates and persists a new customer
func (s *CustomerService) CreateCustomer(ctx context.Context, customer *models.Customer) error {
	verr := &ValidationError{}
	if customer.Name == "" {
		verr.Add("name", "customer name is required")
	}
	if err := validate.Var(customer.Email, "required,email"); err != nil {
		verr.Add("email", "customer email is invalid")
	}
	if verr.HasViolations() {
		return verr
	}

	if _, err := s.customers.GetByEmail(ctx, customer.Email); err == nil {
		return ErrEmailAlreadyExists
	} else if !errors.Is(err, repository.ErrNotFound) {
		return err
	}

	return s.customers.Create(ctx, customer)
}

// GetCustomer returns a customer by ID
func (s *CustomerService) GetCustomer(ctx context.Context, id uuid.UUID) (*models.Customer, error) {
	customer, err := s.customers.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrCustomerNotFound
		}
		return nil, err
	}
	return customer, nil
}

// GetCustomerByEmail returns a customer by email
func (s *CustomerService) GetCustomerByEmail(ctx context.Context, email string) (*models.Customer, error) {
	customer, err := s.customers.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrCustomerNotFound
		}
		return nil, err
	}
	return customer, nil
}

// ListCustomers returns a page of customers with the total count
func (s *CustomerService) ListCustomers(ctx context.Context, offset, limit int) ([]models.Customer, int64, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return s.customers.List(ctx, offset, limit)
}

// UpdateCustomer updates an existing customer
func (s *CustomerService) UpdateCustomer(ctx context.Context, customer *models.Customer) error {
	err := s.customers.Update(ctx, customer)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrCustomerNotFound
	}
	return err
}

// DeleteCustomer removes a customer
func (s *CustomerService) DeleteCustomer(ctx context.Context, id uuid.UUID) error {
	err := s.customers.Delete(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrCustomerNotFound
	}
	return err
}
