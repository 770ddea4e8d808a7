package handlers

import (
	"net/http"

	"github.com/ximepaparella/gifty-api/internal/models"
	"github.com/ximepaparella/gifty-api/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ProductHandler handles product HTTP requests
type ProductHandler struct {
	productService *service.ProductService
}

// NewProductHandler creates a new product handler
func NewProductHandler(productService *service.ProductService) *ProductHandler {
	return &ProductHandler{productService: productService}
}

// ProductRequest represents an incoming product payload
type ProductRequest struct {
	StoreID     uuid.UUID `json:"store_id" binding:"required"`
	Name        string    `json:"name" binding:"required"`
	Description string    `json:"description"`
	Price       float64   `json:"price" binding:"required"`
}

// CreateProduct handles product creation
func (h *ProductHandler) CreateProduct(c *gin.Context) {
	var req ProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, NewError(err.Error(), http.StatusBadRequest, "INVALID_REQUEST"))
		return
	}

	product := &models.Product{
		StoreID:     req.StoreID,
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Active:      true,
	}

	if err := h.productService.CreateProduct(c.Request.Context(), product); err != nil {
		writeError(c, err)
		return
	}

	writeData(c, http.StatusCreated, product)
}

// GetProduct returns a single product by ID
func (h *ProductHandler) GetProduct(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		writeError(c, NewError("Invalid product ID", http.StatusBadRequest, "INVALID_REQUEST"))
		return
	}

	product, err := h.productService.GetProduct(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}

	writeData(c, http.StatusOK, product)
}

// ListProductsByStore returns every product for a store
func (h *ProductHandler) ListProductsByStore(c *gin.Context) {
	storeID, err := uuid.Parse(c.Query("store_id"))
	if err != nil {
		writeError(c, NewError("Query parameter 'store_id' is required", http.StatusBadRequest, "INVALID_REQUEST"))
		return
	}

	products, err := h.productService.ListProductsByStore(c.Request.Context(), storeID)
	if err != nil {
		writeError(c, err)
		return
	}

	writeData(c, http.StatusOK, products)
}

// UpdateProduct updates an existing product
func (h *ProductHandler) UpdateProduct(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		writeError(c, NewError("Invalid product ID", http.StatusBadRequest, "INVALID_REQUEST"))
		return
	}

	var req ProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, NewError(err.Error(), http.StatusBadRequest, "INVALID_REQUEST"))
		return
	}

	product, err := h.productService.GetProduct(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}

	product.StoreID = req.StoreID
	product.Name = req.Name
	product.Description = req.Description
	product.Price = req.Price

	if err := h.productService.UpdateProduct(c.Request.Context(), product); err != nil {
		writeError(c, err)
		return
	}

	writeData(c, http.StatusOK, product)
}

// DeleteProduct removes a product
func (h *ProductHandler) DeleteProduct(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		writeError(c, NewError("Invalid product ID", http.StatusBadRequest, "INVALID_REQUEST"))
		return
	}

	if err := h.productService.DeleteProduct(c.Request.Context(), id); err != nil {
		writeError(c, err)
		return
	}

	writeData(c, http.StatusOK, gin.H{"deleted": true})
}
