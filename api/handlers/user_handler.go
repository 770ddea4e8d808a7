package handlers

import (
	"net/http"
	"time"

	"github.com/ximepaparella/gifty-api/internal/models"
	"github.com/ximepaparella/gifty-api/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// UserHandler handles user and API key HTTP requests
type UserHandler struct {
	userService *service.UserService
}

// NewUserHandler creates a new user handler
func NewUserHandler(userService *service.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

// RegisterUserRequest represents an incoming user registration payload
type RegisterUserRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
	Role     string `json:"role"`
}

// RegisterUser handles user registration
func (h *UserHandler) RegisterUser(c *gin.Context) {
	var req RegisterUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, NewError(err.Error(), http.StatusBadRequest, "INVALID_REQUEST"))
		return
	}

	user := &models.User{
		Name:  req.Name,
		Email: req.Email,
		Role:  models.UserRole(req.Role),
	}

	if err := h.userService.RegisterUser(c.Request.Context(), user, req.Password); err != nil {
		writeError(c, err)
		return
	}

	writeData(c, http.StatusCreated, user)
}

// LoginRequest represents an incoming login payload
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Login checks credentials and returns the matching user
func (h *UserHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, NewError(err.Error(), http.StatusBadRequest, "INVALID_REQUEST"))
		return
	}

	user, err := h.userService.Authenticate(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		writeError(c, err)
		return
	}

	writeData(c, http.StatusOK, user)
}

// GetUser returns a single user by ID
func (h *UserHandler) GetUser(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		writeError(c, NewError("Invalid user ID", http.StatusBadRequest, "INVALID_REQUEST"))
		return
	}

	user, err := h.userService.GetUser(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}

	writeData(c, http.StatusOK, user)
}

// ListUsers returns a page of users
func (h *UserHandler) ListUsers(c *gin.Context) {
	offset, limit := pagination(c)

	users, total, err := h.userService.ListUsers(c.Request.Context(), offset, limit)
	if err != nil {
		writeError(c, err)
		return
	}

	writeList(c, users, total, offset, limit)
}

// DeleteUser removes a user
func (h *UserHandler) DeleteUser(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		writeError(c, NewError("Invalid user ID", http.StatusBadRequest, "INVALID_REQUEST"))
		return
	}

	if err := h.userService.DeleteUser(c.Request.Context(), id); err != nil {
		writeError(c, err)
		return
	}

	writeData(c, http.StatusOK, gin.H{"deleted": true})
}

// IssueAPIKeyRequest represents an incoming API key issuance payload
type IssueAPIKeyRequest struct {
	Name               string `json:"name" binding:"required"`
	AuthorizationLevel int    `json:"authorization_level" binding:"required"`
	TTLHours           int    `json:"ttl_hours"`
}

// IssueAPIKey creates a new API key scoped to a user. The raw key is only
// returned once, in this response.
func (h *UserHandler) IssueAPIKey(c *gin.Context) {
	userID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		writeError(c, NewError("Invalid user ID", http.StatusBadRequest, "INVALID_REQUEST"))
		return
	}

	var req IssueAPIKeyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, NewError(err.Error(), http.StatusBadRequest, "INVALID_REQUEST"))
		return
	}

	level := models.AuthorizationLevel(req.AuthorizationLevel)
	if level < models.ViewerAuthLevel || level > models.SudoAuthLevel {
		writeError(c, NewError("Invalid authorization level", http.StatusBadRequest, "INVALID_REQUEST"))
		return
	}

	key, err := h.userService.IssueAPIKey(c.Request.Context(), userID, req.Name,
		level, time.Duration(req.TTLHours)*time.Hour)
	if err != nil {
		writeError(c, err)
		return
	}

	writeData(c, http.StatusCreated, key)
}
