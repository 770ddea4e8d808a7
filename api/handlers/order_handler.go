package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/ximepaparella/gifty-api/internal/fulfillment"
	"github.com/ximepaparella/gifty-api/internal/models"
	"github.com/ximepaparella/gifty-api/internal/search"
	"github.com/ximepaparella/gifty-api/internal/service"
	"github.com/ximepaparella/gifty-api/internal/tracing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// OrderHandler handles order and voucher HTTP requests
type OrderHandler struct {
	orderService *service.OrderService
	fulfillment  *fulfillment.Service
	elastic      *search.ElasticClient
	tracer       tracing.Tracer
}

// NewOrderHandler creates a new order handler. The Elasticsearch client may
// be nil, in which case the search endpoint reports unavailable.
func NewOrderHandler(
	orderService *service.OrderService,
	fulfillmentSvc *fulfillment.Service,
	elastic *search.ElasticClient,
	tracer tracing.Tracer,
) *OrderHandler {
	return &OrderHandler{
		orderService: orderService,
		fulfillment:  fulfillmentSvc,
		elastic:      elastic,
		tracer:       tracer,
	}
}

// PaymentDetailsRequest carries the upstream payment snapshot
type PaymentDetailsRequest struct {
	PaymentID     string  `json:"payment_id" binding:"required"`
	PaymentStatus string  `json:"payment_status"`
	Amount        float64 `json:"amount" binding:"required"`
	Provider      string  `json:"provider" binding:"required"`
	Email         string  `json:"email"`
}

// VoucherRequest carries the voucher details for a new order
type VoucherRequest struct {
	Code           string    `json:"code"`
	ExpirationDate time.Time `json:"expiration_date" binding:"required"`
	Amount         float64   `json:"amount" binding:"required"`
	StoreID        uuid.UUID `json:"store_id" binding:"required"`
	ProductID      uuid.UUID `json:"product_id" binding:"required"`
	SenderName     string    `json:"sender_name" binding:"required"`
	SenderEmail    string    `json:"sender_email" binding:"required"`
	ReceiverName   string    `json:"receiver_name" binding:"required"`
	ReceiverEmail  string    `json:"receiver_email" binding:"required"`
	Message        string    `json:"message"`
	Template       string    `json:"template" binding:"required"`
}

// CreateOrderRequest represents an incoming order creation request
type CreateOrderRequest struct {
	CustomerID     uuid.UUID             `json:"customer_id" binding:"required"`
	PaymentDetails PaymentDetailsRequest `json:"payment_details" binding:"required"`
	Voucher        VoucherRequest        `json:"voucher" binding:"required"`
}

// CreateOrder handles order creation. The response returns as soon as the
// order row exists; PDF and email delivery run in the background.
func (h *OrderHandler) CreateOrder(c *gin.Context) {
	txn := h.tracer.StartTransaction("api-create-order")
	defer h.tracer.EndTransaction(txn)

	var req CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Error().Err(err).Msg("Invalid order request body")
		writeError(c, NewError(err.Error(), http.StatusBadRequest, "INVALID_REQUEST"))
		h.tracer.RecordError(txn, err)
		return
	}

	h.tracer.AddAttribute(txn, "customer_id", req.CustomerID.String())
	h.tracer.AddAttribute(txn, "store_id", req.Voucher.StoreID.String())

	order := &models.Order{
		CustomerID: req.CustomerID,
		PaymentDetails: models.PaymentDetails{
			PaymentID:     req.PaymentDetails.PaymentID,
			PaymentStatus: req.PaymentDetails.PaymentStatus,
			Amount:        req.PaymentDetails.Amount,
			Provider:      models.PaymentProvider(req.PaymentDetails.Provider),
			Email:         req.PaymentDetails.Email,
		},
		Voucher: models.Voucher{
			Code:           req.Voucher.Code,
			ExpirationDate: req.Voucher.ExpirationDate,
			Amount:         req.Voucher.Amount,
			StoreID:        req.Voucher.StoreID,
			ProductID:      req.Voucher.ProductID,
			SenderName:     req.Voucher.SenderName,
			SenderEmail:    req.Voucher.SenderEmail,
			ReceiverName:   req.Voucher.ReceiverName,
			ReceiverEmail:  req.Voucher.ReceiverEmail,
			Message:        req.Voucher.Message,
			Template:       models.VoucherTemplate(req.Voucher.Template),
		},
	}

	created, err := h.orderService.CreateOrder(c.Request.Context(), order)
	if err != nil {
		h.tracer.RecordError(txn, err)
		writeError(c, err)
		return
	}

	writeData(c, http.StatusCreated, created)
}

// GetOrder returns a single order by ID
func (h *OrderHandler) GetOrder(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		writeError(c, NewError("Invalid order ID", http.StatusBadRequest, "INVALID_REQUEST"))
		return
	}

	order, err := h.orderService.GetOrder(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}

	writeData(c, http.StatusOK, order)
}

// ListOrders returns a page of orders
func (h *OrderHandler) ListOrders(c *gin.Context) {
	offset, limit := pagination(c)

	orders, total, err := h.orderService.ListOrders(c.Request.Context(), offset, limit)
	if err != nil {
		writeError(c, err)
		return
	}

	writeList(c, orders, total, offset, limit)
}

// DeleteOrder removes an order
func (h *OrderHandler) DeleteOrder(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		writeError(c, NewError("Invalid order ID", http.StatusBadRequest, "INVALID_REQUEST"))
		return
	}

	if err := h.orderService.DeleteOrder(c.Request.Context(), id); err != nil {
		writeError(c, err)
		return
	}

	writeData(c, http.StatusOK, gin.H{"deleted": true})
}

// GetOrderByVoucherCode returns the order that owns the given voucher code
func (h *OrderHandler) GetOrderByVoucherCode(c *gin.Context) {
	code := c.Param("code")
	if code == "" {
		writeError(c, NewError("Voucher code is required", http.StatusBadRequest, "INVALID_REQUEST"))
		return
	}

	order, err := h.orderService.GetOrderByVoucherCode(c.Request.Context(), code)
	if err != nil {
		writeError(c, err)
		return
	}

	writeData(c, http.StatusOK, order)
}

// RedeemVoucher marks a voucher as redeemed. Exactly one caller wins when
// several race on the same code; the rest get a conflict.
func (h *OrderHandler) RedeemVoucher(c *gin.Context) {
	txn := h.tracer.StartTransaction("api-redeem-voucher")
	defer h.tracer.EndTransaction(txn)

	code := c.Param("code")
	if code == "" {
		writeError(c, NewError("Voucher code is required", http.StatusBadRequest, "INVALID_REQUEST"))
		return
	}
	h.tracer.AddAttribute(txn, "voucher_code", code)

	order, err := h.orderService.RedeemVoucher(c.Request.Context(), code)
	if err != nil {
		h.tracer.RecordError(txn, err)
		writeError(c, err)
		return
	}

	writeData(c, http.StatusOK, order)
}

// DownloadPDF streams the voucher PDF, rendering it first if the background
// pipeline has not produced it yet
func (h *OrderHandler) DownloadPDF(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		writeError(c, NewError("Invalid order ID", http.StatusBadRequest, "INVALID_REQUEST"))
		return
	}

	order, err := h.orderService.GetOrder(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}

	path, err := h.fulfillment.EnsurePDF(c.Request.Context(), order)
	if err != nil {
		log.Error().Err(err).Str("order_id", id.String()).Msg("Failed to produce voucher PDF")
		writeError(c, ErrInternalServer)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="voucher-`+order.Voucher.Code+`.pdf"`)
	c.Header("Content-Type", "application/pdf")
	c.File(path)
}

// SearchOrders runs a full text search over indexed orders
func (h *OrderHandler) SearchOrders(c *gin.Context) {
	if h.elastic == nil {
		writeError(c, NewError("Search is not available", http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE"))
		return
	}

	query := c.Query("q")
	if query == "" {
		writeError(c, NewError("Query parameter 'q' is required", http.StatusBadRequest, "INVALID_REQUEST"))
		return
	}

	size, _ := strconv.Atoi(c.DefaultQuery("size", "20"))
	results, err := h.elastic.SearchOrders(c.Request.Context(), query, size)
	if err != nil {
		log.Error().Err(err).Str("query", query).Msg("Order search failed")
		writeError(c, ErrInternalServer)
		return
	}

	writeData(c, http.StatusOK, results)
}

// ResendEmails re-sends all three voucher emails for an order
func (h *OrderHandler) ResendEmails(c *gin.Context) {
	h.resend(c, h.orderService.ResendVoucherEmails)
}

// ResendCustomerEmail re-sends the purchase confirmation to the customer
func (h *OrderHandler) ResendCustomerEmail(c *gin.Context) {
	h.resend(c, h.orderService.ResendCustomerEmail)
}

// ResendReceiverEmail re-sends the voucher to the gift recipient
func (h *OrderHandler) ResendReceiverEmail(c *gin.Context) {
	h.resend(c, h.orderService.ResendReceiverEmail)
}

// ResendStoreEmail re-sends the redemption copy to the store
func (h *OrderHandler) ResendStoreEmail(c *gin.Context) {
	h.resend(c, h.orderService.ResendStoreEmail)
}

func (h *OrderHandler) resend(c *gin.Context, fn func(ctx context.Context, orderID uuid.UUID) (bool, error)) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		writeError(c, NewError("Invalid order ID", http.StatusBadRequest, "INVALID_REQUEST"))
		return
	}

	sent, err := fn(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}

	if !sent {
		writeError(c, NewError("Email delivery failed", http.StatusBadGateway, "DELIVERY_FAILED"))
		return
	}

	writeData(c, http.StatusOK, gin.H{"sent": true})
}

func pagination(c *gin.Context) (int, int) {
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if offset < 0 {
		offset = 0
	}
	return offset, limit
}
