package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/ximepaparella/gifty-api/internal/models"
	"github.com/ximepaparella/gifty-api/internal/repository"
	"github.com/ximepaparella/gifty-api/internal/tracing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// Mock repositories for testing
type MockOrderRepository struct {
	mock.Mock
}

func (m *MockOrderRepository) Create(ctx context.Context, order *models.Order) error {
	args := m.Called(ctx, order)
	return args.Error(0)
}

func (m *MockOrderRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Order), args.Error(1)
}

func (m *MockOrderRepository) GetByVoucherCode(ctx context.Context, code string) (*models.Order, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Order), args.Error(1)
}

func (m *MockOrderRepository) List(ctx context.Context, offset, limit int) ([]models.Order, int64, error) {
	args := m.Called(ctx, offset, limit)
	return args.Get(0).([]models.Order), args.Get(1).(int64), args.Error(2)
}

func (m *MockOrderRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockOrderRepository) CodeExists(ctx context.Context, code string) (bool, error) {
	args := m.Called(ctx, code)
	return args.Bool(0), args.Error(1)
}

func (m *MockOrderRepository) RedeemVoucher(ctx context.Context, code string, now time.Time) (bool, error) {
	args := m.Called(ctx, code, now)
	return args.Bool(0), args.Error(1)
}

func (m *MockOrderRepository) ExpireVoucher(ctx context.Context, code string, now time.Time) (bool, error) {
	args := m.Called(ctx, code, now)
	return args.Bool(0), args.Error(1)
}

func (m *MockOrderRepository) MarkPDFGenerated(ctx context.Context, id uuid.UUID, pdfURL string) error {
	args := m.Called(ctx, id, pdfURL)
	return args.Error(0)
}

func (m *MockOrderRepository) MarkEmailsSent(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockOrderRepository) ListUnfulfilled(ctx context.Context, olderThan time.Time, limit int) ([]models.Order, error) {
	args := m.Called(ctx, olderThan, limit)
	return args.Get(0).([]models.Order), args.Error(1)
}

func (m *MockOrderRepository) ExpireVouchers(ctx context.Context, now time.Time) (int64, error) {
	args := m.Called(ctx, now)
	return args.Get(0).(int64), args.Error(1)
}

type MockCustomerRepository struct {
	mock.Mock
}

func (m *MockCustomerRepository) Create(ctx context.Context, customer *models.Customer) error {
	args := m.Called(ctx, customer)
	return args.Error(0)
}

func (m *MockCustomerRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Customer, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Customer), args.Error(1)
}

func (m *MockCustomerRepository) GetByEmail(ctx context.Context, email string) (*models.Customer, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Customer), args.Error(1)
}

func (m *MockCustomerRepository) List(ctx context.Context, offset, limit int) ([]models.Customer, int64, error) {
	args := m.Called(ctx, offset, limit)
	return args.Get(0).([]models.Customer), args.Get(1).(int64), args.Error(2)
}

func (m *MockCustomerRepository) Update(ctx context.Context, customer *models.Customer) error {
	args := m.Called(ctx, customer)
	return args.Error(0)
}

func (m *MockCustomerRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type MockFulfillment struct {
	mock.Mock
}

func (m *MockFulfillment) Fulfill(ctx context.Context, orderID uuid.UUID) error {
	args := m.Called(ctx, orderID)
	return args.Error(0)
}

func (m *MockFulfillment) ResendAll(ctx context.Context, orderID uuid.UUID) (bool, error) {
	args := m.Called(ctx, orderID)
	return args.Bool(0), args.Error(1)
}

func (m *MockFulfillment) ResendStoreEmail(ctx context.Context, orderID uuid.UUID) (bool, error) {
	args := m.Called(ctx, orderID)
	return args.Bool(0), args.Error(1)
}

func (m *MockFulfillment) ResendReceiverEmail(ctx context.Context, orderID uuid.UUID) (bool, error) {
	args := m.Called(ctx, orderID)
	return args.Bool(0), args.Error(1)
}

func (m *MockFulfillment) ResendCustomerEmail(ctx context.Context, orderID uuid.UUID) (bool, error) {
	args := m.Called(ctx, orderID)
	return args.Bool(0), args.Error(1)
}

type MockQueuePublisher struct {
	mock.Mock
}

func (m *MockQueuePublisher) PublishOrderCreated(ctx context.Context, orderID uuid.UUID) error {
	args := m.Called(ctx, orderID)
	return args.Error(0)
}

func newTestOrderService(orders *MockOrderRepository, customers *MockCustomerRepository, queue QueuePublisher) *OrderService {
	return NewOrderService(orders, customers, new(MockFulfillment), queue, &tracing.NewRelicTracer{})
}

func validOrder() *models.Order {
	return &models.Order{
		CustomerID: uuid.New(),
		PaymentDetails: models.PaymentDetails{
			PaymentID: "pay-123",
			Amount:    50,
			Provider:  models.ProviderStripe,
		},
		Voucher: models.Voucher{
			ExpirationDate: time.Now().Add(30 * 24 * time.Hour),
			Amount:         50,
			StoreID:        uuid.New(),
			ProductID:      uuid.New(),
			SenderName:     "Ana",
			SenderEmail:    "ana@example.com",
			ReceiverName:   "Luis",
			ReceiverEmail:  "luis@example.com",
			Message:        "Feliz cumple!",
			Template:       models.TemplateBirthday,
		},
	}
}

func TestCreateOrderGeneratesUniqueCode(t *testing.T) {
	mockOrders := new(MockOrderRepository)
	mockCustomers := new(MockCustomerRepository)
	mockQueue := new(MockQueuePublisher)

	mockCustomers.On("GetByID", mock.Anything, mock.Anything).Return(&models.Customer{}, nil)
	mockOrders.On("CodeExists", mock.Anything, mock.AnythingOfType("string")).Return(false, nil)
	mockOrders.On("Create", mock.Anything, mock.AnythingOfType("*models.Order")).Return(nil)
	mockQueue.On("PublishOrderCreated", mock.Anything, mock.Anything).Return(nil)

	svc := newTestOrderService(mockOrders, mockCustomers, mockQueue)

	order, err := svc.CreateOrder(context.Background(), validOrder())
	require.NoError(t, err)
	require.Len(t, order.Voucher.Code, CodeLength)
	for _, ch := range order.Voucher.Code {
		require.Contains(t, codeCharset, string(ch))
	}
	require.Equal(t, models.VoucherStatusActive, order.Voucher.Status)
	require.False(t, order.Voucher.IsRedeemed)
	require.False(t, order.EmailsSent)
	require.False(t, order.PDFGenerated)

	mockOrders.AssertExpectations(t)
	mockQueue.AssertExpectations(t)
}

func TestCreateOrderKeepsProvidedCode(t *testing.T) {
	mockOrders := new(MockOrderRepository)
	mockCustomers := new(MockCustomerRepository)

	mockCustomers.On("GetByID", mock.Anything, mock.Anything).Return(&models.Customer{}, nil)
	mockOrders.On("Create", mock.Anything, mock.AnythingOfType("*models.Order")).Return(nil)

	svc := newTestOrderService(mockOrders, mockCustomers, nil)

	in := validOrder()
	in.Voucher.Code = "GIFT123456"

	order, err := svc.CreateOrder(context.Background(), in)
	require.NoError(t, err)
	require.Equal(t, "GIFT123456", order.Voucher.Code)
	mockOrders.AssertNotCalled(t, "CodeExists", mock.Anything, mock.Anything)
}

func TestCreateOrderCollectsAllViolations(t *testing.T) {
	svc := newTestOrderService(new(MockOrderRepository), new(MockCustomerRepository), nil)

	in := validOrder()
	in.PaymentDetails.PaymentID = ""
	in.PaymentDetails.Provider = "venmo"
	in.Voucher.SenderEmail = "not-an-email"

	_, err := svc.CreateOrder(context.Background(), in)
	require.Error(t, err)

	verr, ok := err.(*ValidationError)
	require.True(t, ok)
	require.Len(t, verr.Violations, 3)

	fields := make([]string, 0, len(verr.Violations))
	for _, v := range verr.Violations {
		fields = append(fields, v.Field)
	}
	require.Contains(t, fields, "payment_details.payment_id")
	require.Contains(t, fields, "payment_details.provider")
	require.Contains(t, fields, "voucher.sender_email")
}

func TestCreateOrderRejectsOversizedMessage(t *testing.T) {
	svc := newTestOrderService(new(MockOrderRepository), new(MockCustomerRepository), nil)

	in := validOrder()
	long := make([]byte, maxMessageLength+1)
	for i := range long {
		long[i] = 'x'
	}
	in.Voucher.Message = string(long)

	_, err := svc.CreateOrder(context.Background(), in)
	require.Error(t, err)

	verr, ok := err.(*ValidationError)
	require.True(t, ok)
	require.Len(t, verr.Violations, 1)
	require.Equal(t, "voucher.message", verr.Violations[0].Field)
}

func TestCreateOrderUnknownCustomer(t *testing.T) {
	mockOrders := new(MockOrderRepository)
	mockCustomers := new(MockCustomerRepository)

	mockCustomers.On("GetByID", mock.Anything, mock.Anything).Return(nil, repository.ErrNotFound)

	svc := newTestOrderService(mockOrders, mockCustomers, nil)

	_, err := svc.CreateOrder(context.Background(), validOrder())
	require.ErrorIs(t, err, ErrCustomerNotFound)
	mockOrders.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestCreateOrderSucceedsWhenQueuePublishFails(t *testing.T) {
	mockOrders := new(MockOrderRepository)
	mockCustomers := new(MockCustomerRepository)
	mockQueue := new(MockQueuePublisher)

	mockCustomers.On("GetByID", mock.Anything, mock.Anything).Return(&models.Customer{}, nil)
	mockOrders.On("CodeExists", mock.Anything, mock.AnythingOfType("string")).Return(false, nil)
	mockOrders.On("Create", mock.Anything, mock.AnythingOfType("*models.Order")).Return(nil)
	mockQueue.On("PublishOrderCreated", mock.Anything, mock.Anything).Return(repository.ErrCreateFailed)

	svc := newTestOrderService(mockOrders, mockCustomers, mockQueue)

	order, err := svc.CreateOrder(context.Background(), validOrder())
	require.NoError(t, err)
	require.NotNil(t, order)
	mockQueue.AssertExpectations(t)
}

func TestRedeemVoucherSuccess(t *testing.T) {
	mockOrders := new(MockOrderRepository)
	redeemed := validOrder()
	redeemed.Voucher.Code = "ABCDEFGH23"
	redeemed.Voucher.Status = models.VoucherStatusRedeemed
	redeemed.Voucher.IsRedeemed = true

	mockOrders.On("RedeemVoucher", mock.Anything, "ABCDEFGH23", mock.Anything).Return(true, nil)
	mockOrders.On("GetByVoucherCode", mock.Anything, "ABCDEFGH23").Return(redeemed, nil)

	svc := newTestOrderService(mockOrders, new(MockCustomerRepository), nil)

	order, err := svc.RedeemVoucher(context.Background(), "ABCDEFGH23")
	require.NoError(t, err)
	require.Equal(t, models.VoucherStatusRedeemed, order.Voucher.Status)
	mockOrders.AssertExpectations(t)
}

func TestRedeemVoucherNotFound(t *testing.T) {
	mockOrders := new(MockOrderRepository)
	mockOrders.On("RedeemVoucher", mock.Anything, "MISSING123", mock.Anything).Return(false, nil)
	mockOrders.On("GetByVoucherCode", mock.Anything, "MISSING123").Return(nil, repository.ErrNotFound)

	svc := newTestOrderService(mockOrders, new(MockCustomerRepository), nil)

	_, err := svc.RedeemVoucher(context.Background(), "MISSING123")
	require.ErrorIs(t, err, ErrVoucherNotFound)
}

func TestRedeemVoucherAlreadyRedeemed(t *testing.T) {
	mockOrders := new(MockOrderRepository)
	existing := validOrder()
	existing.Voucher.Status = models.VoucherStatusRedeemed

	mockOrders.On("RedeemVoucher", mock.Anything, "USED123456", mock.Anything).Return(false, nil)
	mockOrders.On("GetByVoucherCode", mock.Anything, "USED123456").Return(existing, nil)

	svc := newTestOrderService(mockOrders, new(MockCustomerRepository), nil)

	_, err := svc.RedeemVoucher(context.Background(), "USED123456")
	require.ErrorIs(t, err, ErrVoucherAlreadyRedeemed)
}

func TestRedeemVoucherLazyExpiration(t *testing.T) {
	mockOrders := new(MockOrderRepository)
	stale := validOrder()
	stale.Voucher.Status = models.VoucherStatusActive
	stale.Voucher.ExpirationDate = time.Now().Add(-24 * time.Hour)

	mockOrders.On("RedeemVoucher", mock.Anything, "STALE12345", mock.Anything).Return(false, nil)
	mockOrders.On("GetByVoucherCode", mock.Anything, "STALE12345").Return(stale, nil)
	mockOrders.On("ExpireVoucher", mock.Anything, "STALE12345", mock.Anything).Return(true, nil)

	svc := newTestOrderService(mockOrders, new(MockCustomerRepository), nil)

	_, err := svc.RedeemVoucher(context.Background(), "STALE12345")
	require.ErrorIs(t, err, ErrVoucherExpired)

	// The stored state is flipped to expired as a side effect
	mockOrders.AssertCalled(t, "ExpireVoucher", mock.Anything, "STALE12345", mock.Anything)
}

func TestRedeemVoucherLostRace(t *testing.T) {
	mockOrders := new(MockOrderRepository)
	active := validOrder()
	active.Voucher.Status = models.VoucherStatusActive

	mockOrders.On("RedeemVoucher", mock.Anything, "RACE123456", mock.Anything).Return(false, nil)
	mockOrders.On("GetByVoucherCode", mock.Anything, "RACE123456").Return(active, nil)

	svc := newTestOrderService(mockOrders, new(MockCustomerRepository), nil)

	_, err := svc.RedeemVoucher(context.Background(), "RACE123456")
	require.ErrorIs(t, err, ErrVoucherAlreadyRedeemed)
}

func TestConcurrentRedeemSingleWinner(t *testing.T) {
	mockOrders := new(MockOrderRepository)
	winner := validOrder()
	winner.Voucher.Code = "SHARED1234"
	winner.Voucher.Status = models.VoucherStatusRedeemed

	// The conditional update matches exactly once; every later attempt reads
	// the voucher back as redeemed
	mockOrders.On("RedeemVoucher", mock.Anything, "SHARED1234", mock.Anything).Return(true, nil).Once()
	mockOrders.On("RedeemVoucher", mock.Anything, "SHARED1234", mock.Anything).Return(false, nil)
	mockOrders.On("GetByVoucherCode", mock.Anything, "SHARED1234").Return(winner, nil)

	svc := newTestOrderService(mockOrders, new(MockCustomerRepository), nil)

	const attempts = 8
	var wg sync.WaitGroup
	results := make([]error, attempts)

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, results[i] = svc.RedeemVoucher(context.Background(), "SHARED1234")
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range results {
		if err == nil {
			succeeded++
		} else {
			require.ErrorIs(t, err, ErrVoucherAlreadyRedeemed)
		}
	}
	require.Equal(t, 1, succeeded)
}

func TestResendMapsMissingOrder(t *testing.T) {
	mockFulfillment := new(MockFulfillment)
	mockFulfillment.On("ResendAll", mock.Anything, mock.Anything).Return(false, repository.ErrNotFound)

	svc := NewOrderService(new(MockOrderRepository), new(MockCustomerRepository),
		mockFulfillment, nil, &tracing.NewRelicTracer{})

	_, err := svc.ResendVoucherEmails(context.Background(), uuid.New())
	require.ErrorIs(t, err, ErrOrderNotFound)
}

func TestResendReportsDeliveryFailure(t *testing.T) {
	mockFulfillment := new(MockFulfillment)
	mockFulfillment.On("ResendReceiverEmail", mock.Anything, mock.Anything).Return(false, nil)

	svc := NewOrderService(new(MockOrderRepository), new(MockCustomerRepository),
		mockFulfillment, nil, &tracing.NewRelicTracer{})

	sent, err := svc.ResendReceiverEmail(context.Background(), uuid.New())
	require.NoError(t, err)
	require.False(t, sent)
}
