package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ximepaparella/gifty-api/internal/models"
	"github.com/ximepaparella/gifty-api/internal/repository"
	"github.com/ximepaparella/gifty-api/internal/service"
	"github.com/ximepaparella/gifty-api/internal/tracing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

// stubOrderRepo implements repository.OrderRepository with overridable reads
type stubOrderRepo struct {
	getByCode func(code string) (*models.Order, error)
	redeem    func(code string) (bool, error)
}

func (s *stubOrderRepo) Create(ctx context.Context, order *models.Order) error { return nil }
func (s *stubOrderRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	return nil, repository.ErrNotFound
}
func (s *stubOrderRepo) GetByVoucherCode(ctx context.Context, code string) (*models.Order, error) {
	return s.getByCode(code)
}
func (s *stubOrderRepo) List(ctx context.Context, offset, limit int) ([]models.Order, int64, error) {
	return nil, 0, nil
}
func (s *stubOrderRepo) Delete(ctx context.Context, id uuid.UUID) error { return nil }
func (s *stubOrderRepo) CodeExists(ctx context.Context, code string) (bool, error) {
	return false, nil
}
func (s *stubOrderRepo) RedeemVoucher(ctx context.Context, code string, now time.Time) (bool, error) {
	return s.redeem(code)
}
func (s *stubOrderRepo) ExpireVoucher(ctx context.Context, code string, now time.Time) (bool, error) {
	return true, nil
}
func (s *stubOrderRepo) MarkPDFGenerated(ctx context.Context, id uuid.UUID, pdfURL string) error {
	return nil
}
func (s *stubOrderRepo) MarkEmailsSent(ctx context.Context, id uuid.UUID) error { return nil }
func (s *stubOrderRepo) ListUnfulfilled(ctx context.Context, olderThan time.Time, limit int) ([]models.Order, error) {
	return nil, nil
}
func (s *stubOrderRepo) ExpireVouchers(ctx context.Context, now time.Time) (int64, error) {
	return 0, nil
}

type stubCustomerRepo struct{}

func (s *stubCustomerRepo) Create(ctx context.Context, customer *models.Customer) error { return nil }
func (s *stubCustomerRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Customer, error) {
	return &models.Customer{}, nil
}
func (s *stubCustomerRepo) GetByEmail(ctx context.Context, email string) (*models.Customer, error) {
	return nil, repository.ErrNotFound
}
func (s *stubCustomerRepo) List(ctx context.Context, offset, limit int) ([]models.Customer, int64, error) {
	return nil, 0, nil
}
func (s *stubCustomerRepo) Update(ctx context.Context, customer *models.Customer) error { return nil }
func (s *stubCustomerRepo) Delete(ctx context.Context, id uuid.UUID) error              { return nil }

func newRedeemRouter(repo *stubOrderRepo) *gin.Engine {
	gin.SetMode(gin.TestMode)
	tracer := &tracing.NewRelicTracer{}
	orderService := service.NewOrderService(repo, &stubCustomerRepo{}, nil, nil, tracer)
	handler := NewOrderHandler(orderService, nil, nil, tracer)

	r := gin.New()
	r.PUT("/api/v1/orders/voucher/:code/redeem", handler.RedeemVoucher)
	r.POST("/api/v1/orders", handler.CreateOrder)
	return r
}

func doRequest(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRedeemEndpointMapsNotFound(t *testing.T) {
	repo := &stubOrderRepo{
		redeem:    func(code string) (bool, error) { return false, nil },
		getByCode: func(code string) (*models.Order, error) { return nil, repository.ErrNotFound },
	}

	w := doRequest(newRedeemRouter(repo), http.MethodPut, "/api/v1/orders/voucher/MISSING/redeem", "")
	require.Equal(t, http.StatusNotFound, w.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Equal(t, false, resp["success"])
	require.Equal(t, "NOT_FOUND", resp["code"])
}

func TestRedeemEndpointMapsAlreadyRedeemed(t *testing.T) {
	used := &models.Order{Voucher: models.Voucher{Status: models.VoucherStatusRedeemed}}
	repo := &stubOrderRepo{
		redeem:    func(code string) (bool, error) { return false, nil },
		getByCode: func(code string) (*models.Order, error) { return used, nil },
	}

	w := doRequest(newRedeemRouter(repo), http.MethodPut, "/api/v1/orders/voucher/USED/redeem", "")
	require.Equal(t, http.StatusConflict, w.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Equal(t, "ALREADY_REDEEMED", resp["code"])
}

func TestRedeemEndpointMapsExpired(t *testing.T) {
	expired := &models.Order{Voucher: models.Voucher{Status: models.VoucherStatusExpired}}
	repo := &stubOrderRepo{
		redeem:    func(code string) (bool, error) { return false, nil },
		getByCode: func(code string) (*models.Order, error) { return expired, nil },
	}

	w := doRequest(newRedeemRouter(repo), http.MethodPut, "/api/v1/orders/voucher/OLD/redeem", "")
	require.Equal(t, http.StatusGone, w.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Equal(t, "VOUCHER_EXPIRED", resp["code"])
}

func TestRedeemEndpointReturnsOrderOnSuccess(t *testing.T) {
	won := &models.Order{Voucher: models.Voucher{
		Code:   "WINNER1234",
		Status: models.VoucherStatusRedeemed,
	}}
	repo := &stubOrderRepo{
		redeem:    func(code string) (bool, error) { return true, nil },
		getByCode: func(code string) (*models.Order, error) { return won, nil },
	}

	w := doRequest(newRedeemRouter(repo), http.MethodPut, "/api/v1/orders/voucher/WINNER1234/redeem", "")
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Success bool         `json:"success"`
		Data    models.Order `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.True(t, resp.Success)
	require.Equal(t, models.VoucherStatusRedeemed, resp.Data.Voucher.Status)
}

func TestCreateOrderEndpointReportsViolations(t *testing.T) {
	repo := &stubOrderRepo{}

	// Structurally valid JSON that fails the domain rules: bad provider,
	// past expiration, unknown template
	body := `{
		"customer_id": "` + uuid.NewString() + `",
		"payment_details": {"payment_id": "pay-1", "amount": 50, "provider": "venmo"},
		"voucher": {
			"expiration_date": "2020-01-01T00:00:00Z",
			"amount": 50,
			"store_id": "` + uuid.NewString() + `",
			"product_id": "` + uuid.NewString() + `",
			"sender_name": "Ana", "sender_email": "ana@example.com",
			"receiver_name": "Luis", "receiver_email": "luis@example.com",
			"template": "ransom-note"
		}
	}`

	w := doRequest(newRedeemRouter(repo), http.MethodPost, "/api/v1/orders", body)
	require.Equal(t, http.StatusBadRequest, w.Code)

	var resp struct {
		Success    bool `json:"success"`
		Violations []struct {
			Field string `json:"field"`
		} `json:"violations"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.False(t, resp.Success)
	require.Len(t, resp.Violations, 3)
}
