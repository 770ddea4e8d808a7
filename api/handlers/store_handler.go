package handlers

import (
	"net/http"
	"path/filepath"
	"strings"

	"github.com/ximepaparella/gifty-api/internal/models"
	"github.com/ximepaparella/gifty-api/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const maxLogoSize = 5 << 20

// StoreHandler handles store HTTP requests
type StoreHandler struct {
	storeService *service.StoreService
}

// NewStoreHandler creates a new store handler
func NewStoreHandler(storeService *service.StoreService) *StoreHandler {
	return &StoreHandler{storeService: storeService}
}

// StoreRequest represents an incoming store payload
type StoreRequest struct {
	Name    string     `json:"name" binding:"required"`
	Email   string     `json:"email" binding:"required"`
	Phone   string     `json:"phone"`
	Address string     `json:"address"`
	OwnerID *uuid.UUID `json:"owner_id"`
}

// CreateStore handles store creation
func (h *StoreHandler) CreateStore(c *gin.Context) {
	var req StoreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, NewError(err.Error(), http.StatusBadRequest, "INVALID_REQUEST"))
		return
	}

	store := &models.Store{
		Name:    req.Name,
		Email:   req.Email,
		Phone:   req.Phone,
		Address: req.Address,
		OwnerID: req.OwnerID,
		Active:  true,
	}

	if err := h.storeService.CreateStore(c.Request.Context(), store); err != nil {
		writeError(c, err)
		return
	}

	writeData(c, http.StatusCreated, store)
}

// GetStore returns a single store by ID
func (h *StoreHandler) GetStore(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		writeError(c, NewError("Invalid store ID", http.StatusBadRequest, "INVALID_REQUEST"))
		return
	}

	store, err := h.storeService.GetStore(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}

	writeData(c, http.StatusOK, store)
}

// ListStores returns a page of stores
func (h *StoreHandler) ListStores(c *gin.Context) {
	offset, limit := pagination(c)

	stores, total, err := h.storeService.ListStores(c.Request.Context(), offset, limit)
	if err != nil {
		writeError(c, err)
		return
	}

	writeList(c, stores, total, offset, limit)
}

// UpdateStore updates an existing store
func (h *StoreHandler) UpdateStore(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		writeError(c, NewError("Invalid store ID", http.StatusBadRequest, "INVALID_REQUEST"))
		return
	}

	var req StoreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, NewError(err.Error(), http.StatusBadRequest, "INVALID_REQUEST"))
		return
	}

	store, err := h.storeService.GetStore(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}

	store.Name = req.Name
	store.Email = req.Email
	store.Phone = req.Phone
	store.Address = req.Address
	if req.OwnerID != nil {
		store.OwnerID = req.OwnerID
	}

	if err := h.storeService.UpdateStore(c.Request.Context(), store); err != nil {
		writeError(c, err)
		return
	}

	writeData(c, http.StatusOK, store)
}

// DeleteStore removes a store
func (h *StoreHandler) DeleteStore(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		writeError(c, NewError("Invalid store ID", http.StatusBadRequest, "INVALID_REQUEST"))
		return
	}

	if err := h.storeService.DeleteStore(c.Request.Context(), id); err != nil {
		writeError(c, err)
		return
	}

	writeData(c, http.StatusOK, gin.H{"deleted": true})
}

// UploadLogo accepts a multipart logo image and stores it for the store
func (h *StoreHandler) UploadLogo(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		writeError(c, NewError("Invalid store ID", http.StatusBadRequest, "INVALID_REQUEST"))
		return
	}

	file, err := c.FormFile("logo")
	if err != nil {
		writeError(c, NewError("Logo file is required", http.StatusBadRequest, "INVALID_REQUEST"))
		return
	}

	if file.Size > maxLogoSize {
		writeError(c, NewError("Logo file too large", http.StatusRequestEntityTooLarge, "FILE_TOO_LARGE"))
		return
	}

	ext := strings.ToLower(filepath.Ext(file.Filename))
	switch ext {
	case ".png", ".jpg", ".jpeg", ".svg", ".webp":
	default:
		writeError(c, NewError("Unsupported logo format", http.StatusBadRequest, "INVALID_REQUEST"))
		return
	}

	src, err := file.Open()
	if err != nil {
		log.Error().Err(err).Msg("Failed to open uploaded logo")
		writeError(c, ErrInternalServer)
		return
	}
	defer src.Close()

	logoPath, err := h.storeService.SaveLogo(c.Request.Context(), id, src, file.Filename)
	if err != nil {
		writeError(c, err)
		return
	}

	writeData(c, http.StatusOK, gin.H{"logo": logoPath})
}
