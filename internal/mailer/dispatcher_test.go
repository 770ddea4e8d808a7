package mailer

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/ximepaparella/gifty-api/internal/models"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

// recordingMailer fails sends by recipient address and records every message
type recordingMailer struct {
	mu       sync.Mutex
	failFor  map[string]bool
	messages []Message
}

func (m *recordingMailer) Send(ctx context.Context, msg Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failFor[msg.To] {
		return errors.Errorf("transport rejected %s", msg.To)
	}
	m.messages = append(m.messages, msg)
	return nil
}

func (m *recordingMailer) sentTo(addr string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, msg := range m.messages {
		if msg.To == addr {
			return true
		}
	}
	return false
}

func testOrder() *models.Order {
	order := &models.Order{
		PaymentDetails: models.PaymentDetails{
			Email: "buyer@example.com",
		},
		Voucher: models.Voucher{
			Code:           "TESTCODE23",
			Amount:         75,
			ExpirationDate: time.Now().Add(30 * 24 * time.Hour),
			SenderName:     "Ana",
			SenderEmail:    "ana@example.com",
			ReceiverName:   "Luis",
			ReceiverEmail:  "luis@example.com",
			Message:        "Enjoy!",
		},
	}
	order.ID = uuid.New()
	return order
}

func testStore() *models.Store {
	return &models.Store{
		Name:  "Test Store",
		Email: "store@example.com",
	}
}

func writeTestPDF(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "voucher-TESTCODE23.pdf")
	require.NoError(t, os.WriteFile(path, []byte("%PDF-1.4"), 0o644))
	return path
}

func TestSendAllDeliversToAllRecipients(t *testing.T) {
	transport := &recordingMailer{}
	d := NewDispatcher(transport)

	ok := d.SendAll(context.Background(), testOrder(), testStore(), writeTestPDF(t))
	require.True(t, ok)
	require.True(t, transport.sentTo("store@example.com"))
	require.True(t, transport.sentTo("luis@example.com"))
	require.True(t, transport.sentTo("buyer@example.com"))
}

func TestSendAllSucceedsWithPartialFailure(t *testing.T) {
	transport := &recordingMailer{failFor: map[string]bool{
		"store@example.com": true,
	}}
	d := NewDispatcher(transport)

	ok := d.SendAll(context.Background(), testOrder(), testStore(), writeTestPDF(t))
	require.True(t, ok)
	require.False(t, transport.sentTo("store@example.com"))
	require.True(t, transport.sentTo("luis@example.com"))
	require.True(t, transport.sentTo("buyer@example.com"))
}

func TestSendAllFailsWhenNothingDelivers(t *testing.T) {
	transport := &recordingMailer{failFor: map[string]bool{
		"store@example.com": true,
		"luis@example.com":  true,
		"buyer@example.com": true,
	}}
	d := NewDispatcher(transport)

	ok := d.SendAll(context.Background(), testOrder(), testStore(), writeTestPDF(t))
	require.False(t, ok)
}

func TestSendAllRefusesMissingPDF(t *testing.T) {
	transport := &recordingMailer{}
	d := NewDispatcher(transport)

	ok := d.SendAll(context.Background(), testOrder(), testStore(), "/nonexistent/voucher.pdf")
	require.False(t, ok)
	require.Empty(t, transport.messages)
}

func TestSendToCustomerFallsBackToSenderEmail(t *testing.T) {
	transport := &recordingMailer{}
	d := NewDispatcher(transport)

	order := testOrder()
	order.PaymentDetails.Email = ""

	require.NoError(t, d.SendToCustomer(context.Background(), order, testStore(), writeTestPDF(t)))
	require.True(t, transport.sentTo("ana@example.com"))
}

func TestSendToStoreRequiresStoreEmail(t *testing.T) {
	transport := &recordingMailer{}
	d := NewDispatcher(transport)

	store := testStore()
	store.Email = ""

	require.Error(t, d.SendToStore(context.Background(), testOrder(), store, writeTestPDF(t)))
}
