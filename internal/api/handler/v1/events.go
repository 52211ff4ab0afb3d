package v1

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/powerpix/powerpix-api/internal/api/handler/v1/response"
	"github.com/powerpix/powerpix-api/internal/domain"
	"github.com/powerpix/powerpix-api/internal/pkg/jwthelper"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = pongWait * 9 / 10
	sendBufferSize = 32
)

var errFeedToken = errors.New("missing or invalid feed token")

type AccountLookup interface {
	Get(ctx context.Context, externalID string) (domain.Account, error)
}

type feedClient struct {
	conn      *websocket.Conn
	send      chan []byte
	accountID uint
}

type feedMessage struct {
	accountID uint
	payload   []byte
}

// EventsHandler streams settled ledger entries to the clients of the affected account.
type EventsHandler struct {
	accounts   AccountLookup
	upgrader   websocket.Upgrader
	signingKey []byte

	mu         sync.RWMutex
	clients    map[uint]map[*feedClient]struct{}
	broadcast  chan feedMessage
	register   chan *feedClient
	unregister chan *feedClient
	done       chan struct{}
}

func NewEventsHandler(accounts AccountLookup, signingKey string, allowedOrigins []string) *EventsHandler {
	h := &EventsHandler{
		accounts:   accounts,
		signingKey: []byte(signingKey),
		clients:    make(map[uint]map[*feedClient]struct{}),
		broadcast:  make(chan feedMessage, 256),
		register:   make(chan *feedClient),
		unregister: make(chan *feedClient),
		done:       make(chan struct{}),
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     originChecker(allowedOrigins),
	}

	return h
}

// Run owns the client registry until ctx is done.
func (h *EventsHandler) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			close(h.done)
			h.mu.Lock()
			for _, set := range h.clients {
				for c := range set {
					close(c.send)
				}
			}
			h.clients = map[uint]map[*feedClient]struct{}{}
			h.mu.Unlock()
			return
		case c := <-h.register:
			h.mu.Lock()
			if h.clients[c.accountID] == nil {
				h.clients[c.accountID] = make(map[*feedClient]struct{})
			}
			h.clients[c.accountID][c] = struct{}{}
			h.mu.Unlock()
		case c := <-h.unregister:
			h.mu.Lock()
			h.remove(c)
			h.mu.Unlock()
		case msg := <-h.broadcast:
			h.mu.Lock()
			for c := range h.clients[msg.accountID] {
				select {
				case c.send <- msg.payload:
				default:
					h.remove(c)
				}
			}
			h.mu.Unlock()
		}
	}
}

// remove expects h.mu to be held.
func (h *EventsHandler) remove(c *feedClient) {
	set, ok := h.clients[c.accountID]
	if !ok {
		return
	}
	if _, ok := set[c]; !ok {
		return
	}
	delete(set, c)
	close(c.send)
	if len(set) == 0 {
		delete(h.clients, c.accountID)
	}
}

// PublishEntry never blocks the ledger; messages are dropped when the hub is behind.
func (h *EventsHandler) PublishEntry(entry domain.LedgerEntry) {
	payload, err := json.Marshal(domain.FeedMessage{
		Type:      "ledger_entry",
		AccountID: entry.AccountID,
		Entry:     entry,
		Timestamp: time.Now(),
	})
	if err != nil {
		zap.L().Error("marshal feed message", zap.Error(err))
		return
	}

	select {
	case h.broadcast <- feedMessage{accountID: entry.AccountID, payload: payload}:
	default:
		zap.L().Warn("event feed is full, dropping entry", zap.Uint("entry_id", entry.ID))
	}
}

func (h *EventsHandler) Subscribers(accountID uint) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.clients[accountID])
}

// HandleFeedToken godoc
// @Summary Issue an event feed token
// @Description Signs a short-lived token that opens the event feed of one account.
// @Tags accounts,events
// @Security BearerAuth
// @Param externalID path string true "External ID"
// @Success 201 {object} response.FeedToken
// @Failure 404 {object} response.Err
// @Router /admin/accounts/{externalID}/feed-token [post]
func (h *EventsHandler) HandleFeedToken(ctx *gin.Context) {
	account, err := h.accounts.Get(ctx.Request.Context(), ctx.Param("externalID"))
	if err != nil {
		renderServiceErr(ctx, "v1.HandleFeedToken -> h.accounts.Get", err)
		return
	}

	token, expires, err := jwthelper.GenerateFeedToken(h.signingKey, account.ExternalID, jwthelper.FeedTokenTTL)
	if err != nil {
		response.RenderErr(ctx, response.ErrInternalServerError(fmt.Errorf("jwthelper.GenerateFeedToken -> %w", err)))
		return
	}

	ctx.JSON(http.StatusCreated, response.FeedToken{Token: token, ExpiresAt: expires})
}

// HandleEvents godoc
// @Summary Stream ledger entries of an account
// @Description Upgrades to a WebSocket and pushes every entry that changes the account balance.
// @Description The feed token goes in the token query parameter or the Authorization header.
// @Tags accounts,events
// @Param externalID path string true "External ID"
// @Param token query string false "Feed token"
// @Success 101 {string} string "Switching Protocols to WebSocket"
// @Failure 401 {object} response.Err
// @Failure 404 {object} response.Err
// @Router /events/{externalID} [get]
func (h *EventsHandler) HandleEvents(ctx *gin.Context) {
	externalID := ctx.Param("externalID")
	if err := jwthelper.ParseFeedToken(h.signingKey, feedToken(ctx), externalID); err != nil {
		response.RenderErr(ctx, response.ErrUnauthorized(errFeedToken))
		return
	}

	account, err := h.accounts.Get(ctx.Request.Context(), externalID)
	if err != nil {
		renderServiceErr(ctx, "v1.HandleEvents -> h.accounts.Get", err)
		return
	}

	conn, err := h.upgrader.Upgrade(ctx.Writer, ctx.Request, nil)
	if err != nil {
		zap.L().Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	c := &feedClient{
		conn:      conn,
		send:      make(chan []byte, sendBufferSize),
		accountID: account.ID,
	}
	select {
	case h.register <- c:
	case <-h.done:
		conn.Close()
		return
	}

	go c.writePump()
	go c.readPump(h)
}

func (c *feedClient) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump only drains control frames; clients never send data.
func (c *feedClient) readPump(h *EventsHandler) {
	defer func() {
		select {
		case h.unregister <- c:
		case <-h.done:
		}
		c.conn.Close()
	}()

	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				zap.L().Debug("event feed closed", zap.Uint("account_id", c.accountID), zap.Error(err))
			}
			return
		}
	}
}

// feedToken reads the token query parameter, then the bearer header.
func feedToken(ctx *gin.Context) string {
	if token := ctx.Query("token"); token != "" {
		return token
	}
	token, _ := strings.CutPrefix(ctx.GetHeader("Authorization"), "Bearer ")

	return token
}

func originChecker(allowed []string) func(r *http.Request) bool {
	if len(allowed) == 0 {
		return func(*http.Request) bool { return true }
	}

	set := make(map[string]struct{}, len(allowed))
	for _, o := range allowed {
		set[o] = struct{}{}
	}

	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		_, ok := set[origin]

		return ok
	}
}
