package v1

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/powerpix/powerpix-api/internal/api/handler/v1/response"
	"github.com/powerpix/powerpix-api/internal/domain"
	"github.com/powerpix/powerpix-api/internal/pkg/jwthelper"
	"github.com/powerpix/powerpix-api/internal/service"
)

type accountsByExternalID map[string]domain.Account

func (a accountsByExternalID) Get(_ context.Context, externalID string) (domain.Account, error) {
	account, ok := a[externalID]
	if !ok {
		return domain.Account{}, service.ErrAccountNotFound
	}

	return account, nil
}

func TestEventsHandler(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	const key = "feed-key"
	h := NewEventsHandler(accountsByExternalID{
		"5511977776666": {ID: 4, ExternalID: "5511977776666"},
		"5511977775555": {ID: 9, ExternalID: "5511977775555"},
	}, key, nil)
	go h.Run(ctx)

	r := gin.New()
	r.GET("/events/:externalID", h.HandleEvents)
	r.POST("/accounts/:externalID/feed-token", h.HandleFeedToken)
	srv := httptest.NewServer(r)
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")
	tokenFor := func(t *testing.T, externalID string) string {
		token, _, err := jwthelper.GenerateFeedToken([]byte(key), externalID, time.Minute)
		require.NoError(t, err)
		return token
	}

	t.Run("unknown account", func(t *testing.T) {
		_, resp, err := websocket.DefaultDialer.Dial(wsURL+"/events/nobody?token="+tokenFor(t, "nobody"), nil)
		require.Error(t, err)
		require.NotNil(t, resp)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("rejects missing or foreign tokens", func(t *testing.T) {
		_, resp, err := websocket.DefaultDialer.Dial(wsURL+"/events/5511977776666", nil)
		require.Error(t, err)
		require.NotNil(t, resp)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

		_, resp, err = websocket.DefaultDialer.Dial(wsURL+"/events/5511977776666?token="+tokenFor(t, "5511977775555"), nil)
		require.Error(t, err)
		require.NotNil(t, resp)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		assert.Zero(t, h.Subscribers(4))
	})

	t.Run("issues tokens for known accounts", func(t *testing.T) {
		rec := perform(r, http.MethodPost, "/accounts/5511977776666/feed-token", "", nil)
		require.Equal(t, http.StatusCreated, rec.Code)

		var got response.FeedToken
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
		assert.NoError(t, jwthelper.ParseFeedToken([]byte(key), got.Token, "5511977776666"))

		rec = perform(r, http.MethodPost, "/accounts/nobody/feed-token", "", nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("streams the account's entries", func(t *testing.T) {
		header := http.Header{"Authorization": {"Bearer " + tokenFor(t, "5511977776666")}}
		conn, _, err := websocket.DefaultDialer.Dial(wsURL+"/events/5511977776666", header)
		require.NoError(t, err)
		defer conn.Close()

		require.Eventually(t, func() bool { return h.Subscribers(4) == 1 }, time.Second, 10*time.Millisecond)

		h.PublishEntry(domain.LedgerEntry{ID: 1, AccountID: 9, Kind: domain.EntryPrize, Amount: 100})
		h.PublishEntry(domain.LedgerEntry{ID: 2, AccountID: 4, Kind: domain.EntryDeposit, Amount: 5000, Status: domain.EntrySettled})

		require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
		_, data, err := conn.ReadMessage()
		require.NoError(t, err)

		var msg domain.FeedMessage
		require.NoError(t, json.Unmarshal(data, &msg))
		assert.Equal(t, "ledger_entry", msg.Type)
		assert.Equal(t, uint(4), msg.AccountID)
		assert.Equal(t, uint(2), msg.Entry.ID)
		assert.Equal(t, domain.Money(5000), msg.Entry.Amount)
	})

	t.Run("client leaves", func(t *testing.T) {
		require.Eventually(t, func() bool { return h.Subscribers(4) == 0 }, 2*time.Second, 10*time.Millisecond)
	})
}

func TestOriginChecker(t *testing.T) {
	check := originChecker([]string{"https://app.powerpix.com.br"})

	req := httptest.NewRequest(http.MethodGet, "/events/x", nil)
	assert.True(t, check(req))

	req.Header.Set("Origin", "https://app.powerpix.com.br")
	assert.True(t, check(req))

	req.Header.Set("Origin", "https://evil.example")
	assert.False(t, check(req))

	assert.True(t, originChecker(nil)(req))
}
