package mailer

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/ximepaparella/gifty-api/internal/models"
	"github.com/ximepaparella/gifty-api/internal/pdf"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// Recipient identifies which of the three order emails is being sent
type Recipient string

const (
	RecipientStore    Recipient = "store"
	RecipientReceiver Recipient = "receiver"
	RecipientCustomer Recipient = "customer"
)

// Dispatcher sends the order lifecycle emails. Delivery is best-effort: the
// three recipients are independent and one failing must not stop the others.
type Dispatcher struct {
	mailer Mailer
}

// NewDispatcher creates a new dispatcher over the given transport
func NewDispatcher(mailer Mailer) *Dispatcher {
	return &Dispatcher{mailer: mailer}
}

// SendAll dispatches the store, receiver and customer emails concurrently and
// waits for all three outcomes. It reports success when at least one send
// succeeded; only a full three-way failure reports false so the caller can
// leave the order flagged for resend. The PDF is verified on disk first - an
// email must never claim an attachment that is not there.
func (d *Dispatcher) SendAll(ctx context.Context, order *models.Order, store *models.Store, pdfPath string) bool {
	if _, err := os.Stat(pdfPath); err != nil {
		log.Error().
			Err(err).
			Str("order_id", order.ID.String()).
			Str("pdf_path", pdfPath).
			Msg("Voucher PDF missing on disk, refusing to dispatch emails")
		return false
	}

	sends := []struct {
		recipient Recipient
		send      func(context.Context, *models.Order, *models.Store, string) error
	}{
		{RecipientStore, d.SendToStore},
		{RecipientReceiver, d.SendToReceiver},
		{RecipientCustomer, d.SendToCustomer},
	}

	var wg sync.WaitGroup
	results := make([]error, len(sends))
	for i, s := range sends {
		wg.Add(1)
		go func(i int, recipient Recipient, send func(context.Context, *models.Order, *models.Store, string) error) {
			defer wg.Done()
			results[i] = send(ctx, order, store, pdfPath)
		}(i, s.recipient, s.send)
	}
	wg.Wait()

	succeeded := 0
	for i, err := range results {
		if err != nil {
			log.Error().
				Err(err).
				Str("order_id", order.ID.String()).
				Str("recipient", string(sends[i].recipient)).
				Msg("Failed to send voucher email")
			continue
		}
		succeeded++
	}

	log.Info().
		Str("order_id", order.ID.String()).
		Int("succeeded", succeeded).
		Int("failed", len(sends)-succeeded).
		Msg("Voucher email dispatch settled")

	return succeeded > 0
}

// SendToStore notifies the store of the voucher purchase
func (d *Dispatcher) SendToStore(ctx context.Context, order *models.Order, store *models.Store, pdfPath string) error {
	if store.Email == "" {
		return errors.New("store has no notification email configured")
	}
	body := fmt.Sprintf(
		"<h2>New voucher sold</h2>"+
			"<p>A gift voucher for <strong>%s</strong> was purchased.</p>"+
			"<p>Code: <strong>%s</strong><br/>Amount: $%.2f<br/>Valid until: %s</p>",
		store.Name,
		order.Voucher.Code,
		order.Voucher.Amount,
		pdf.FormatExpiration(order.Voucher.ExpirationDate),
	)
	return d.mailer.Send(ctx, Message{
		To:          store.Email,
		Subject:     fmt.Sprintf("Voucher %s sold", order.Voucher.Code),
		HTMLBody:    body,
		Attachments: []Attachment{voucherAttachment(order, pdfPath)},
	})
}

// SendToReceiver sends the gift notification with the personal message
func (d *Dispatcher) SendToReceiver(ctx context.Context, order *models.Order, store *models.Store, pdfPath string) error {
	if order.Voucher.ReceiverEmail == "" {
		return errors.New("voucher has no receiver email")
	}
	body := fmt.Sprintf(
		"<h2>%s sent you a gift!</h2>"+
			"<p>%s</p>"+
			"<p>Your gift voucher for <strong>%s</strong> is attached. "+
			"Redeem it with code <strong>%s</strong> before %s.</p>",
		order.Voucher.SenderName,
		order.Voucher.Message,
		store.Name,
		order.Voucher.Code,
		pdf.FormatExpiration(order.Voucher.ExpirationDate),
	)
	return d.mailer.Send(ctx, Message{
		To:          order.Voucher.ReceiverEmail,
		Subject:     fmt.Sprintf("%s sent you a gift voucher", order.Voucher.SenderName),
		HTMLBody:    body,
		Attachments: []Attachment{voucherAttachment(order, pdfPath)},
	})
}

// SendToCustomer sends the purchase confirmation to the payer
func (d *Dispatcher) SendToCustomer(ctx context.Context, order *models.Order, store *models.Store, pdfPath string) error {
	to := order.PaymentDetails.Email
	if to == "" {
		to = order.Voucher.SenderEmail
	}
	if to == "" {
		return errors.New("order has no customer email")
	}
	body := fmt.Sprintf(
		"<h2>Thanks for your purchase</h2>"+
			"<p>Your gift voucher for <strong>%s</strong> has been sent to %s.</p>"+
			"<p>Code: <strong>%s</strong><br/>Amount: $%.2f</p>",
		store.Name,
		order.Voucher.ReceiverName,
		order.Voucher.Code,
		order.Voucher.Amount,
	)
	return d.mailer.Send(ctx, Message{
		To:          to,
		Subject:     "Your gift voucher purchase",
		HTMLBody:    body,
		Attachments: []Attachment{voucherAttachment(order, pdfPath)},
	})
}

func voucherAttachment(order *models.Order, pdfPath string) Attachment {
	return Attachment{
		Filename:    pdf.ArtifactFilename(order.Voucher.Code),
		Path:        pdfPath,
		ContentType: "application/pdf",
	}
}
