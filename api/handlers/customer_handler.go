package handlers

import (
	"net/http"

	"github.com/ximepaparella/gifty-api/internal/models"
	"github.com/ximepaparella/gifty-api/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// CustomerHandler handles customer HTTP requests
type CustomerHandler struct {
	customerService *service.CustomerService
}

// NewCustomerHandler creates a new customer handler
func NewCustomerHandler(customerService *service.CustomerService) *CustomerHandler {
	return &CustomerHandler{customerService: customerService}
}

// CustomerRequest represents an incoming customer payload
type CustomerRequest struct {
	Name    string `json:"name" binding:"required"`
	Email   string `json:"email" binding:"required"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
}

// CreateCustomer handles customer creation
func (h *CustomerHandler) CreateCustomer(c *gin.Context) {
	var req CustomerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, NewError(err.Error(), http.StatusBadRequest, "INVALID_REQUEST"))
		return
	}

	customer := &models.Customer{
		Name:    req.Name,
		Email:   req.Email,
		Phone:   req.Phone,
		Address: req.Address,
	}

	if err := h.customerService.CreateCustomer(c.Request.Context(), customer); err != nil {
		writeError(c, err)
		return
	}

	writeData(c, http.StatusCreated, customer)
}

// GetCustomer returns a single customer by ID
func (h *CustomerHandler) GetCustomer(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		writeError(c, NewError("Invalid customer ID", http.StatusBadRequest, "INVALID_REQUEST"))
		return
	}

	customer, err := h.customerService.GetCustomer(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}

	writeData(c, http.StatusOK, customer)
}

// ListCustomers returns a page of customers
func (h *CustomerHandler) ListCustomers(c *gin.Context) {
	offset, limit := pagination(c)

	customers, total, err := h.customerService.ListCustomers(c.Request.Context(), offset, limit)
	if err != nil {
		writeError(c, err)
		return
	}

	writeList(c, customers, total, offset, limit)
}

// UpdateCustomer updates an existing customer
func (h *CustomerHandler) UpdateCustomer(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		writeError(c, NewError("Invalid customer ID", http.StatusBadRequest, "INVALID_REQUEST"))
		return
	}

	var req CustomerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, NewError(err.Error(), http.StatusBadRequest, "INVALID_REQUEST"))
		return
	}

	customer, err := h.customerService.GetCustomer(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}

	customer.Name = req.Name
	customer.Email = req.Email
	customer.Phone = req.Phone
	customer.Address = req.Address

	if err := h.customerService.UpdateCustomer(c.Request.Context(), customer); err != nil {
		writeError(c, err)
		return
	}

	writeData(c, http.StatusOK, customer)
}

// DeleteCustomer removes a customer
func (h *CustomerHandler) DeleteCustomer(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		writeError(c, NewError("Invalid customer ID", http.StatusBadRequest, "INVALID_REQUEST"))
		return
	}

	if err := h.customerService.DeleteCustomer(c.Request.Context(), id); err != nil {
		writeError(c, err)
		return
	}

	writeData(c, http.StatusOK, gin.H{"deleted": true})
}
