package fulfillment

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// ReconcileOrders fulfills orders the queue missed, as a fallback mechanism.
// Orders younger than the grace period are left to the queue processor.
func (s *Service) ReconcileOrders(ctx context.Context, grace time.Duration, batch int) error {
	cutoff := time.Now().Add(-grace)
	orders, err := s.orders.ListUnfulfilled(ctx, cutoff, batch)
	if err != nil {
		return errors.Wrap(err, "failed to list unfulfilled orders")
	}

	if len(orders) == 0 {
		return nil
	}

	log.Info().Int("count", len(orders)).Msg("Found unfulfilled orders for reconciliation")

	for _, order := range orders {
		if err := s.Fulfill(ctx, order.ID); err != nil {
			log.Error().
				Err(err).
				Str("order_id", order.ID.String()).
				Msg("Failed to fulfill order during reconciliation")
			// Continue to next order
			continue
		}
		log.Info().
			Str("order_id", order.ID.String()).
			Msg("Order fulfilled during reconciliation")
	}

	return nil
}

// ExpireVouchers flips every active voucher past its expiration date to the
// terminal expired state
func (s *Service) ExpireVouchers(ctx context.Context) error {
	expired, err := s.orders.ExpireVouchers(ctx, time.Now())
	if err != nil {
		return err
	}
	if expired > 0 {
		log.Info().Int64("count", expired).Msg("Expired vouchers past their expiration date")
	}
	return nil
}
