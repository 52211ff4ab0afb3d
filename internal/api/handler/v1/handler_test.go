package v1

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/powerpix/powerpix-api/internal/config"
	"github.com/powerpix/powerpix-api/internal/domain"
	"github.com/powerpix/powerpix-api/internal/pkg/jwthelper"
	"github.com/powerpix/powerpix-api/internal/service"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func perform(r http.Handler, method, path string, body string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	return w
}

type mockPayments struct {
	mock.Mock
}

func (m *mockPayments) HandleWebhook(ctx context.Context, ev service.WebhookEvent) (service.Outcome, error) {
	args := m.Called(ctx, ev)
	return args.Get(0).(service.Outcome), args.Error(1)
}

func (m *mockPayments) RecentEvents(ctx context.Context, limit int) ([]domain.GatewayEvent, error) {
	args := m.Called(ctx, limit)
	return args.Get(0).([]domain.GatewayEvent), args.Error(1)
}

func TestWebhookHandler_HandleAsaas(t *testing.T) {
	const body = `{"event":"PAYMENT_RECEIVED","payment":{"id":"pay_080225913252","value":25.5}}`

	newRouter := func(svc *mockPayments) *gin.Engine {
		r := gin.New()
		r.POST("/webhooks/asaas", NewWebhookHandler("whsec", svc).HandleAsaas)
		return r
	}

	t.Run("wrong token", func(t *testing.T) {
		svc := &mockPayments{}
		w := perform(newRouter(svc), http.MethodPost, "/webhooks/asaas", body, map[string]string{webhookTokenHeader: "nope"})
		assert.Equal(t, http.StatusForbidden, w.Code)
		svc.AssertNotCalled(t, "HandleWebhook", mock.Anything, mock.Anything)
	})

	t.Run("malformed body", func(t *testing.T) {
		svc := &mockPayments{}
		w := perform(newRouter(svc), http.MethodPost, "/webhooks/asaas", `{"event":`, map[string]string{webhookTokenHeader: "whsec"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("missing payment", func(t *testing.T) {
		svc := &mockPayments{}
		w := perform(newRouter(svc), http.MethodPost, "/webhooks/asaas", `{"event":"PAYMENT_RECEIVED"}`, map[string]string{webhookTokenHeader: "whsec"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("credited", func(t *testing.T) {
		svc := &mockPayments{}
		svc.On("HandleWebhook", mock.Anything, mock.MatchedBy(func(ev service.WebhookEvent) bool {
			return ev.Event == "PAYMENT_RECEIVED" && ev.PaymentID == "pay_080225913252" &&
				ev.Value == 2550 && string(ev.Raw) == body
		})).Return(service.OutcomeCredited, nil)

		w := perform(newRouter(svc), http.MethodPost, "/webhooks/asaas", body, map[string]string{webhookTokenHeader: "whsec"})
		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"status":"credited"}`, w.Body.String())
		svc.AssertExpectations(t)
	})

	t.Run("processing error still answers 200", func(t *testing.T) {
		svc := &mockPayments{}
		svc.On("HandleWebhook", mock.Anything, mock.Anything).Return(service.Outcome(""), errors.New("db down"))

		w := perform(newRouter(svc), http.MethodPost, "/webhooks/asaas", body, map[string]string{webhookTokenHeader: "whsec"})
		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"status":"unhandled"}`, w.Body.String())
	})
}

type mockContests struct {
	mock.Mock
	ContestService
}

func (m *mockContests) PlaceBet(ctx context.Context, req service.PlaceBetRequest) (domain.Bet, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(domain.Bet), args.Error(1)
}

func (m *mockContests) GetContest(ctx context.Context, id uint) (domain.ContestSummary, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(domain.ContestSummary), args.Error(1)
}

type mockSettler struct {
	mock.Mock
}

func (m *mockSettler) Settle(ctx context.Context, ref domain.SourceRef, numbers domain.OfficialNumbers) (service.SettlementReport, error) {
	args := m.Called(ctx, ref, numbers)
	return args.Get(0).(service.SettlementReport), args.Error(1)
}

func betBody(extra string) string {
	white := make([]string, 0, domain.PlayerWhiteCount)
	for n := 1; n <= domain.PlayerWhiteCount; n++ {
		white = append(white, strconv.Itoa(n))
	}

	return `{"external_id":"5511988887777","white":[` + strings.Join(white, ",") + `],"special":[1,2,3,4,5]` + extra + `}`
}

func TestContestHandler_HandlePlaceBet(t *testing.T) {
	newRouter := func(svc *mockContests) *gin.Engine {
		r := gin.New()
		r.POST("/bets", NewContestHandler(svc, &mockSettler{}).HandlePlaceBet)
		return r
	}

	t.Run("placed", func(t *testing.T) {
		svc := &mockContests{}
		svc.On("PlaceBet", mock.Anything, mock.MatchedBy(func(req service.PlaceBetRequest) bool {
			return req.Source == domain.ContestRef(7) && req.Key == "req-1" && req.AmountPaid == 0 && len(req.White) == 20
		})).Return(domain.Bet{ID: 11, Source: domain.ContestRef(7), AmountPaid: 2500}, nil)

		w := perform(newRouter(svc), http.MethodPost, "/bets", betBody(`,"contest_id":7,"request_id":"req-1"`), nil)
		assert.Equal(t, http.StatusCreated, w.Code)

		var bet domain.Bet
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &bet))
		assert.Equal(t, uint(11), bet.ID)
	})

	t.Run("insufficient funds", func(t *testing.T) {
		svc := &mockContests{}
		svc.On("PlaceBet", mock.Anything, mock.Anything).
			Return(domain.Bet{}, fmt.Errorf("s.ledger.Debit -> %w", &domain.InsufficientFundsError{Balance: 300, Required: 2500}))

		w := perform(newRouter(svc), http.MethodPost, "/bets", betBody(`,"draw_id":2`), nil)
		assert.Equal(t, http.StatusPaymentRequired, w.Code)

		var got struct {
			Balance   int64 `json:"balance_cents"`
			Required  int64 `json:"required_cents"`
			Shortfall int64 `json:"shortfall_cents"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
		assert.Equal(t, int64(300), got.Balance)
		assert.Equal(t, int64(2500), got.Required)
		assert.Equal(t, int64(2200), got.Shortfall)
	})

	t.Run("round closed", func(t *testing.T) {
		svc := &mockContests{}
		svc.On("PlaceBet", mock.Anything, mock.Anything).Return(domain.Bet{}, service.ErrContestNotOpen)

		w := perform(newRouter(svc), http.MethodPost, "/bets", betBody(`,"contest_id":7`), nil)
		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("needs exactly one source", func(t *testing.T) {
		svc := &mockContests{}

		w := perform(newRouter(svc), http.MethodPost, "/bets", betBody(`,"contest_id":7,"draw_id":2`), nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)

		w = perform(newRouter(svc), http.MethodPost, "/bets", betBody(``), nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		svc.AssertNotCalled(t, "PlaceBet", mock.Anything, mock.Anything)
	})

	t.Run("wrong pack size", func(t *testing.T) {
		svc := &mockContests{}
		body := `{"external_id":"5511988887777","contest_id":7,"white":[1,2,3],"special":[1,2,3,4,5]}`

		w := perform(newRouter(svc), http.MethodPost, "/bets", body, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestContestHandler_HandleGetContest(t *testing.T) {
	svc := &mockContests{}
	svc.On("GetContest", mock.Anything, uint(3)).Return(domain.ContestSummary{}, service.ErrContestNotFound)

	r := gin.New()
	r.GET("/contests/:contestID", NewContestHandler(svc, &mockSettler{}).HandleGetContest)

	w := perform(r, http.MethodGet, "/contests/3", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = perform(r, http.MethodGet, "/contests/abc", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

type fakeAuth struct {
	admin domain.Admin
	hash  []byte
}

func (f *fakeAuth) Login(_ context.Context, username, password string) (domain.Admin, error) {
	if username != f.admin.Username || bcrypt.CompareHashAndPassword(f.hash, []byte(password)) != nil {
		return domain.Admin{}, service.ErrWrongPassword
	}

	return f.admin, nil
}

func (f *fakeAuth) CreateAdmin(_ context.Context, username, _ string) (domain.Admin, error) {
	if username == f.admin.Username {
		return domain.Admin{}, service.ErrAdminExists
	}

	return domain.Admin{ID: 2, Username: username}, nil
}

func (f *fakeAuth) GetAdmin(_ context.Context, id uint) (domain.Admin, error) {
	if id != f.admin.ID {
		return domain.Admin{}, service.ErrAdminNotFound
	}

	return f.admin, nil
}

func TestAuthHandler(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret!pass"), bcrypt.MinCost)
	require.NoError(t, err)

	conf := &config.APIConfig{JWTSigningKey: "test-key"}
	h := NewAuthHandler(conf, &fakeAuth{admin: domain.Admin{ID: 1, Username: "ops"}, hash: hash})

	r := gin.New()
	r.POST("/auth/login", h.HandleLogin)
	r.POST("/admins", h.HandleCreateAdmin)

	t.Run("login", func(t *testing.T) {
		w := perform(r, http.MethodPost, "/auth/login", `{"username":"ops","password":"s3cret!pass"}`, nil)
		require.Equal(t, http.StatusOK, w.Code)

		var got struct {
			Token string `json:"token"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))

		claims, err := jwthelper.ParseToken([]byte(conf.JWTSigningKey), got.Token)
		require.NoError(t, err)
		assert.Equal(t, uint(1), claims.AdminID)
	})

	t.Run("wrong password", func(t *testing.T) {
		w := perform(r, http.MethodPost, "/auth/login", `{"username":"ops","password":"nope"}`, nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("create admin", func(t *testing.T) {
		w := perform(r, http.MethodPost, "/admins", `{"username":"audit","password":"An0ther!pass","confirm_password":"An0ther!pass"}`, nil)
		assert.Equal(t, http.StatusCreated, w.Code)

		w = perform(r, http.MethodPost, "/admins", `{"username":"ops","password":"An0ther!pass","confirm_password":"An0ther!pass"}`, nil)
		assert.Equal(t, http.StatusConflict, w.Code)

		w = perform(r, http.MethodPost, "/admins", `{"username":"audit","password":"password","confirm_password":"password"}`, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}
