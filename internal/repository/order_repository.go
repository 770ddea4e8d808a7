package repository

import (
	"context"
	"time"

	"github.com/ximepaparella/gifty-api/internal/models"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// OrderRepository provides access to order data. The voucher redemption state
// lives inside the order row, so all voucher mutations go through here as well.
type OrderRepository interface {
	Create(ctx context.Context, order *models.Order) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	GetByVoucherCode(ctx context.Context, code string) (*models.Order, error)
	List(ctx context.Context, offset, limit int) ([]models.Order, int64, error)
	Delete(ctx context.Context, id uuid.UUID) error
	CodeExists(ctx context.Context, code string) (bool, error)
	RedeemVoucher(ctx context.Context, code string, now time.Time) (bool, error)
	ExpireVoucher(ctx context.Context, code string, now time.Time) (bool, error)
	MarkPDFGenerated(ctx context.Context, id uuid.UUID, pdfURL string) error
	MarkEmailsSent(ctx context.Context, id uuid.UUID) error
	ListUnfulfilled(ctx context.Context, olderThan time.Time, limit int) ([]models.Order, error)
	ExpireVouchers(ctx context.Context, now time.Time) (int64, error)
}

type orderRepository struct {
	db *gorm.DB
}

// NewOrderRepository creates a new order repository
func NewOrderRepository(db *gorm.DB) OrderRepository {
	return &orderRepository{db: db}
}

// Create persists a new order with its embedded voucher
func (r *orderRepository) Create(ctx context.Context, order *models.Order) error {
	if err := r.db.WithContext(ctx).Create(order).Error; err != nil {
		return errors.Wrap(err, "failed to create order")
	}
	return nil
}

// GetByID gets an order by ID
func (r *orderRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).First(&order, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, errors.Wrap(err, "failed to get order by ID")
	}
	return &order, nil
}

// GetByVoucherCode gets the order owning the given voucher code
func (r *orderRepository) GetByVoucherCode(ctx context.Context, code string) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).Where("voucher_code = ?", code).First(&order).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, errors.Wrap(err, "failed to get order by voucher code")
	}
	return &order, nil
}

// List returns a page of orders plus the total count
func (r *orderRepository) List(ctx context.Context, offset, limit int) ([]models.Order, int64, error) {
	var (
		orders []models.Order
		total  int64
	)
	if err := r.db.WithContext(ctx).Model(&models.Order{}).Count(&total).Error; err != nil {
		return nil, 0, errors.Wrap(err, "failed to count orders")
	}
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&orders).Error
	if err != nil {
		return nil, 0, errors.Wrap(err, "failed to list orders")
	}
	return orders, total, nil
}

// Delete soft-deletes an order. Administrative use only.
func (r *orderRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.Order{}, "id = ?", id)
	if result.Error != nil {
		return errors.Wrap(result.Error, "failed to delete order")
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// CodeExists reports whether a voucher code is already taken by any order
func (r *orderRepository) CodeExists(ctx context.Context, code string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("voucher_code = ?", code).
		Count(&count).Error
	if err != nil {
		return false, errors.Wrap(err, "failed to check voucher code existence")
	}
	return count > 0, nil
}

// RedeemVoucher flips the voucher to redeemed in a single conditional update.
// The WHERE clause is the guard: only a still-active, unexpired voucher matches,
// so concurrent redemption attempts on the same code resolve to exactly one
// winner at the database level. Returns false when no row matched; the caller
// disambiguates with a follow-up read.
func (r *orderRepository) RedeemVoucher(ctx context.Context, code string, now time.Time) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("voucher_code = ? AND voucher_status = ? AND voucher_expiration_date >= ?",
			code, models.VoucherStatusActive, now).
		Updates(map[string]interface{}{
			"voucher_status":      models.VoucherStatusRedeemed,
			"voucher_is_redeemed": true,
			"voucher_redeemed_at": now,
			"updated_at":          now,
		})
	if result.Error != nil {
		return false, errors.Wrap(result.Error, "failed to redeem voucher")
	}
	return result.RowsAffected > 0, nil
}

// ExpireVoucher lazily flips a single active voucher past its expiration date
// to expired. Same guard shape as RedeemVoucher, so it can never clobber a
// concurrent redemption.
func (r *orderRepository) ExpireVoucher(ctx context.Context, code string, now time.Time) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("voucher_code = ? AND voucher_status = ? AND voucher_expiration_date < ?",
			code, models.VoucherStatusActive, now).
		Updates(map[string]interface{}{
			"voucher_status": models.VoucherStatusExpired,
			"updated_at":     now,
		})
	if result.Error != nil {
		return false, errors.Wrap(result.Error, "failed to expire voucher")
	}
	return result.RowsAffected > 0, nil
}

// MarkPDFGenerated records the generated artifact location on the order
func (r *orderRepository) MarkPDFGenerated(ctx context.Context, id uuid.UUID, pdfURL string) error {
	result := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"pdf_generated": true,
			"pdf_url":       pdfURL,
		})
	if result.Error != nil {
		return errors.Wrap(result.Error, "failed to mark order PDF as generated")
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// MarkEmailsSent records that notification dispatch completed for the order
func (r *orderRepository) MarkEmailsSent(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ?", id).
		Update("emails_sent", true)
	if result.Error != nil {
		return errors.Wrap(result.Error, "failed to mark order emails as sent")
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ListUnfulfilled returns orders whose background fulfillment has not completed.
// The olderThan cutoff leaves freshly created orders to the queue processor.
func (r *orderRepository) ListUnfulfilled(ctx context.Context, olderThan time.Time, limit int) ([]models.Order, error) {
	var orders []models.Order
	err := r.db.WithContext(ctx).
		Where("(pdf_generated = ? OR emails_sent = ?) AND created_at < ?", false, false, olderThan).
		Limit(limit).
		Find(&orders).Error
	if err != nil {
		return nil, errors.Wrap(err, "failed to list unfulfilled orders")
	}
	return orders, nil
}

// ExpireVouchers flips every active voucher past its expiration date to expired.
// Uses the same conditional-update idiom as redemption, so a voucher being
// redeemed concurrently is never expired underneath the winner.
func (r *orderRepository) ExpireVouchers(ctx context.Context, now time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("voucher_status = ? AND voucher_expiration_date < ?",
			models.VoucherStatusActive, now).
		Updates(map[string]interface{}{
			"voucher_status": models.VoucherStatusExpired,
			"updated_at":     now,
		})
	if result.Error != nil {
		return 0, errors.Wrap(result.Error, "failed to expire vouchers")
	}
	return result.RowsAffected, nil
}
