package fulfillment

import (
	"context"
	"os"

	"github.com/ximepaparella/gifty-api/internal/mailer"
	"github.com/ximepaparella/gifty-api/internal/models"
	"github.com/ximepaparella/gifty-api/internal/pdf"
	"github.com/ximepaparella/gifty-api/internal/repository"
	"github.com/ximepaparella/gifty-api/internal/search"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// Service runs the background half of the order lifecycle: render the voucher
// PDF, dispatch the notification emails, update the order flags and index the
// order for search. It is driven by the queue processor for fresh orders and
// by the reconciliation sweep for anything the queue missed. Failures here
// never reach the customer who placed the order; they surface through the
// pdf_generated/emails_sent flags staying false.
type Service struct {
	orders     repository.OrderRepository
	stores     repository.StoreRepository
	renderer   *pdf.Renderer
	dispatcher *mailer.Dispatcher
	elastic    *search.ElasticClient
}

// NewService creates a new fulfillment service. The Elasticsearch client is
// optional; indexing is skipped when it is nil.
func NewService(
	orders repository.OrderRepository,
	stores repository.StoreRepository,
	renderer *pdf.Renderer,
	dispatcher *mailer.Dispatcher,
	elastic *search.ElasticClient,
) *Service {
	return &Service{
		orders:     orders,
		stores:     stores,
		renderer:   renderer,
		dispatcher: dispatcher,
		elastic:    elastic,
	}
}

// Fulfill renders the artifact and dispatches the emails for one order.
// Artifact generation always runs before dispatch: an email is never sent
// without its attachment existing on disk.
func (s *Service) Fulfill(ctx context.Context, orderID uuid.UUID) error {
	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return err
	}

	pdfPath, err := s.EnsurePDF(ctx, order)
	if err != nil {
		log.Error().
			Err(err).
			Str("order_id", orderID.String()).
			Msg("Artifact generation failed, skipping email dispatch")
		return err
	}

	store, err := s.stores.GetByID(ctx, order.Voucher.StoreID)
	if err != nil {
		return errors.Wrap(err, "failed to load store for notification dispatch")
	}

	if !order.EmailsSent {
		if ok := s.dispatcher.SendAll(ctx, order, store, pdfPath); ok {
			if err := s.orders.MarkEmailsSent(ctx, order.ID); err != nil {
				return err
			}
			order.EmailsSent = true
		} else {
			return errors.Errorf("all voucher emails failed for order %s", orderID)
		}
	}

	s.indexOrder(ctx, order, store)
	return nil
}

// EnsurePDF guarantees the voucher PDF exists on disk, rendering it on demand
// when missing, and returns its path. The path is derived from the voucher
// code, so regeneration overwrites the same file.
func (s *Service) EnsurePDF(ctx context.Context, order *models.Order) (string, error) {
	path := s.renderer.ArtifactPath(order.Voucher.Code)
	if order.PDFGenerated {
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
		log.Warn().
			Str("order_id", order.ID.String()).
			Str("path", path).
			Msg("Order marked as generated but PDF missing on disk, regenerating")
	}

	_, path, err := s.renderer.Render(ctx, order)
	if err != nil {
		return "", err
	}

	if err := s.orders.MarkPDFGenerated(ctx, order.ID, path); err != nil {
		return "", err
	}
	order.PDFGenerated = true
	order.PDFURL = path
	return path, nil
}

// ResendAll re-dispatches all three order emails, regenerating the PDF first
// when needed. A missing order surfaces as an error; render or transport
// failures are reported through the boolean.
func (s *Service) ResendAll(ctx context.Context, orderID uuid.UUID) (bool, error) {
	order, store, pdfPath, err := s.prepareResend(ctx, orderID)
	if err != nil {
		return false, err
	}
	if pdfPath == "" {
		return false, nil
	}

	if ok := s.dispatcher.SendAll(ctx, order, store, pdfPath); !ok {
		return false, nil
	}
	if !order.EmailsSent {
		if err := s.orders.MarkEmailsSent(ctx, order.ID); err != nil {
			log.Error().Err(err).Str("order_id", orderID.String()).Msg("Failed to flag emails as sent")
		}
	}
	return true, nil
}

// ResendStoreEmail re-sends only the store notification
func (s *Service) ResendStoreEmail(ctx context.Context, orderID uuid.UUID) (bool, error) {
	return s.resendOne(ctx, orderID, s.dispatcher.SendToStore)
}

// ResendReceiverEmail re-sends only the gift notification
func (s *Service) ResendReceiverEmail(ctx context.Context, orderID uuid.UUID) (bool, error) {
	return s.resendOne(ctx, orderID, s.dispatcher.SendToReceiver)
}

// ResendCustomerEmail re-sends only the purchase confirmation
func (s *Service) ResendCustomerEmail(ctx context.Context, orderID uuid.UUID) (bool, error) {
	return s.resendOne(ctx, orderID, s.dispatcher.SendToCustomer)
}

func (s *Service) resendOne(
	ctx context.Context,
	orderID uuid.UUID,
	send func(context.Context, *models.Order, *models.Store, string) error,
) (bool, error) {
	order, store, pdfPath, err := s.prepareResend(ctx, orderID)
	if err != nil {
		return false, err
	}
	if pdfPath == "" {
		return false, nil
	}

	if err := send(ctx, order, store, pdfPath); err != nil {
		log.Error().Err(err).Str("order_id", orderID.String()).Msg("Failed to resend voucher email")
		return false, nil
	}
	return true, nil
}

// prepareResend loads the order and store and ensures the artifact exists.
// An empty path with a nil error means the artifact could not be generated,
// which the resend operations report as a false result rather than an error.
func (s *Service) prepareResend(ctx context.Context, orderID uuid.UUID) (*models.Order, *models.Store, string, error) {
	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, nil, "", err
	}

	store, err := s.stores.GetByID(ctx, order.Voucher.StoreID)
	if err != nil {
		return nil, nil, "", errors.Wrap(err, "failed to load store for resend")
	}

	pdfPath, err := s.EnsurePDF(ctx, order)
	if err != nil {
		log.Error().Err(err).Str("order_id", orderID.String()).Msg("Could not ensure voucher PDF for resend")
		return order, store, "", nil
	}
	return order, store, pdfPath, nil
}

// indexOrder pushes the order into Elasticsearch, best-effort
func (s *Service) indexOrder(ctx context.Context, order *models.Order, store *models.Store) {
	if s.elastic == nil {
		return
	}
	if err := s.elastic.IndexOrder(ctx, order, store); err != nil {
		log.Warn().Err(err).Str("order_id", order.ID.String()).Msg("Failed to index order")
	}
}
