package service

import (
	"context"
	"time"

	"github.com/ximepaparella/gifty-api/internal/models"
	"github.com/ximepaparella/gifty-api/internal/repository"
	"github.com/ximepaparella/gifty-api/internal/tracing"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

const maxMessageLength = 500

var validate = validator.New()

// Fulfillment is the background pipeline orders are handed to after creation.
// Implemented by the fulfillment service; mocked in tests.
type Fulfillment interface {
	Fulfill(ctx context.Context, orderID uuid.UUID) error
	ResendAll(ctx context.Context, orderID uuid.UUID) (bool, error)
	ResendStoreEmail(ctx context.Context, orderID uuid.UUID) (bool, error)
	ResendReceiverEmail(ctx context.Context, orderID uuid.UUID) (bool, error)
	ResendCustomerEmail(ctx context.Context, orderID uuid.UUID) (bool, error)
}

// QueuePublisher enqueues fulfillment jobs for freshly created orders
type QueuePublisher interface {
	PublishOrderCreated(ctx context.Context, orderID uuid.UUID) error
}

// OrderService orchestrates the order lifecycle: creation with voucher
// issuance, redemption, and email resend operations. Background fulfillment
// is handed off through the queue; its failures never surface to the
// creating caller.
type OrderService struct {
	orders      repository.OrderRepository
	customers   repository.CustomerRepository
	codes       *CodeGenerator
	fulfillment Fulfillment
	queue       QueuePublisher
	tracer      tracing.Tracer
}

// NewOrderService creates a new order service. The queue publisher may be
// nil, in which case fulfillment is left entirely to the reconciliation
// sweep.
func NewOrderService(
	orders repository.OrderRepository,
	customers repository.CustomerRepository,
	fulfillmentSvc Fulfillment,
	queue QueuePublisher,
	tracer tracing.Tracer,
) *OrderService {
	return &OrderService{
		orders:      orders,
		customers:   customers,
		codes:       NewCodeGenerator(orders),
		fulfillment: fulfillmentSvc,
		queue:       queue,
		tracer:      tracer,
	}
}

// CreateOrder validates and persists a new order with its embedded voucher,
// then enqueues background fulfillment. The caller gets a response as soon as
// the order row exists; PDF rendering and email dispatch happen off the
// critical path and report through the order's flags.
func (s *OrderService) CreateOrder(ctx context.Context, order *models.Order) (*models.Order, error) {
	txn := s.tracer.StartTransaction("create-order")
	defer s.tracer.EndTransaction(txn)

	if verr := s.validateOrder(order); verr.HasViolations() {
		s.tracer.RecordError(txn, verr)
		return nil, verr
	}

	if _, err := s.customers.GetByID(ctx, order.CustomerID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrCustomerNotFound
		}
		s.tracer.RecordError(txn, err)
		return nil, err
	}

	if order.Voucher.Code == "" {
		span := s.tracer.StartSpan("generate-voucher-code", txn)
		code, err := s.codes.GenerateUniqueCode(ctx)
		span.End()
		if err != nil {
			s.tracer.RecordError(txn, err)
			return nil, err
		}
		order.Voucher.Code = code
	}

	order.Voucher.Status = models.VoucherStatusActive
	order.Voucher.IsRedeemed = false
	order.Voucher.RedeemedAt = nil
	order.EmailsSent = false
	order.PDFGenerated = false

	span := s.tracer.StartSpan("persist-order", txn)
	err := s.orders.Create(ctx, order)
	span.End()
	if err != nil {
		s.tracer.RecordError(txn, err)
		return nil, err
	}

	log.Info().
		Str("order_id", order.ID.String()).
		Str("voucher_code", order.Voucher.Code).
		Float64("amount", order.Voucher.Amount).
		Msg("Order created")

	s.enqueueFulfillment(ctx, order.ID)

	return order, nil
}

// enqueueFulfillment hands the order to the background pipeline. A publish
// failure is logged, not surfaced: the reconciliation sweep picks up any
// order whose flags stay false.
func (s *OrderService) enqueueFulfillment(ctx context.Context, orderID uuid.UUID) {
	if s.queue == nil {
		log.Warn().
			Str("order_id", orderID.String()).
			Msg("No fulfillment queue configured, order left to reconciliation sweep")
		return
	}
	if err := s.queue.PublishOrderCreated(ctx, orderID); err != nil {
		log.Error().
			Err(err).
			Str("order_id", orderID.String()).
			Msg("Failed to enqueue order fulfillment, reconciliation sweep will retry")
	}
}

// RedeemVoucher transitions a voucher from active to redeemed. The transition
// is a single conditional update, so two concurrent redemptions of the same
// code resolve to exactly one winner. When the update matches nothing, a
// follow-up read disambiguates the failure into not-found, already-redeemed
// or expired.
func (s *OrderService) RedeemVoucher(ctx context.Context, code string) (*models.Order, error) {
	txn := s.tracer.StartTransaction("redeem-voucher")
	defer s.tracer.EndTransaction(txn)
	s.tracer.AddAttribute(txn, "voucher_code", code)

	now := time.Now()
	matched, err := s.orders.RedeemVoucher(ctx, code, now)
	if err != nil {
		s.tracer.RecordError(txn, err)
		return nil, err
	}

	if matched {
		order, err := s.orders.GetByVoucherCode(ctx, code)
		if err != nil {
			return nil, err
		}
		log.Info().
			Str("order_id", order.ID.String()).
			Str("voucher_code", code).
			Msg("Voucher redeemed")
		return order, nil
	}

	return nil, s.classifyRedeemFailure(ctx, code, now)
}

// classifyRedeemFailure turns a no-rows-matched redemption into a specific
// caller-actionable error
func (s *OrderService) classifyRedeemFailure(ctx context.Context, code string, now time.Time) error {
	order, err := s.orders.GetByVoucherCode(ctx, code)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrVoucherNotFound
		}
		return err
	}

	switch order.Voucher.Status {
	case models.VoucherStatusRedeemed:
		return ErrVoucherAlreadyRedeemed
	case models.VoucherStatusExpired:
		return ErrVoucherExpired
	}

	if order.Voucher.ExpirationDate.Before(now) {
		// Lazy expiration: the guard rejected the redeem because the date
		// passed, so flip the stored state to match before reporting
		if _, err := s.orders.ExpireVoucher(ctx, code, now); err != nil {
			log.Error().Err(err).Str("voucher_code", code).Msg("Failed to lazily expire voucher")
		}
		return ErrVoucherExpired
	}

	// The voucher read back as active and unexpired: another request won the
	// conditional update between our attempt and this read
	return ErrVoucherAlreadyRedeemed
}

// GetOrder returns an order by ID
func (s *OrderService) GetOrder(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	order, err := s.orders.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	return order, nil
}

// GetOrderByVoucherCode returns the order owning the given voucher code
func (s *OrderService) GetOrderByVoucherCode(ctx context.Context, code string) (*models.Order, error) {
	order, err := s.orders.GetByVoucherCode(ctx, code)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrVoucherNotFound
		}
		return nil, err
	}
	return order, nil
}

// ListOrders returns a page of orders with the total count
func (s *OrderService) ListOrders(ctx context.Context, offset, limit int) ([]models.Order, int64, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return s.orders.List(ctx, offset, limit)
}

// DeleteOrder removes an order. Administrative use only.
func (s *OrderService) DeleteOrder(ctx context.Context, id uuid.UUID) error {
	err := s.orders.Delete(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrOrderNotFound
	}
	return err
}

// ResendVoucherEmails re-dispatches all three order emails
func (s *OrderService) ResendVoucherEmails(ctx context.Context, orderID uuid.UUID) (bool, error) {
	ok, err := s.fulfillment.ResendAll(ctx, orderID)
	return ok, s.mapResendErr(err)
}

// ResendCustomerEmail re-sends only the purchase confirmation
func (s *OrderService) ResendCustomerEmail(ctx context.Context, orderID uuid.UUID) (bool, error) {
	ok, err := s.fulfillment.ResendCustomerEmail(ctx, orderID)
	return ok, s.mapResendErr(err)
}

// ResendReceiverEmail re-sends only the gift notification
func (s *OrderService) ResendReceiverEmail(ctx context.Context, orderID uuid.UUID) (bool, error) {
	ok, err := s.fulfillment.ResendReceiverEmail(ctx, orderID)
	return ok, s.mapResendErr(err)
}

// ResendStoreEmail re-sends only the store notification
func (s *OrderService) ResendStoreEmail(ctx context.Context, orderID uuid.UUID) (bool, error) {
	ok, err := s.fulfillment.ResendStoreEmail(ctx, orderID)
	return ok, s.mapResendErr(err)
}

func (s *OrderService) mapResendErr(err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return ErrOrderNotFound
	}
	return err
}

// validateOrder collects every violated rule before failing, so the caller
// can fix the whole payload at once
func (s *OrderService) validateOrder(order *models.Order) *ValidationError {
	verr := &ValidationError{}

	if order.CustomerID == uuid.Nil {
		verr.Add("customer_id", "customer id is required")
	}
	if order.PaymentDetails.PaymentID == "" {
		verr.Add("payment_details.payment_id", "payment id is required")
	}
	if order.PaymentDetails.Amount <= 0 {
		verr.Add("payment_details.amount", "payment amount must be positive")
	}
	if !models.IsKnownProvider(order.PaymentDetails.Provider) {
		verr.Add("payment_details.provider", "unknown payment provider")
	}

	v := order.Voucher
	if v.StoreID == uuid.Nil {
		verr.Add("voucher.store_id", "store id is required")
	}
	if v.ProductID == uuid.Nil {
		verr.Add("voucher.product_id", "product id is required")
	}
	if v.Amount <= 0 {
		verr.Add("voucher.amount", "voucher amount must be positive")
	}
	if !v.ExpirationDate.After(time.Now()) {
		verr.Add("voucher.expiration_date", "expiration date must be in the future")
	}
	if err := validate.Var(v.SenderEmail, "required,email"); err != nil {
		verr.Add("voucher.sender_email", "sender email is invalid")
	}
	if err := validate.Var(v.ReceiverEmail, "required,email"); err != nil {
		verr.Add("voucher.receiver_email", "receiver email is invalid")
	}
	if v.SenderName == "" {
		verr.Add("voucher.sender_name", "sender name is required")
	}
	if v.ReceiverName == "" {
		verr.Add("voucher.receiver_name", "receiver name is required")
	}
	if len(v.Message) > maxMessageLength {
		verr.Add("voucher.message", "message exceeds 500 characters")
	}
	if !models.IsAllowedTemplate(v.Template) {
		verr.Add("voucher.template", "unknown voucher template")
	}

	return verr
}
