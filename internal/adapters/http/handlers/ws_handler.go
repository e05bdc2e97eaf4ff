package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/quantstream/marketd/internal/adapters/http/dto"
	"github.com/quantstream/marketd/internal/ports"
)

const (
	// wsWriteWait bounds a single broadcast write before the subscriber is
	// considered dead and dropped from its pool.
	wsWriteWait = 10 * time.Second

	// wsReadLimit caps inbound frames; clients are not expected to send
	// anything beyond close frames.
	wsReadLimit = 512
)

// WSHandler upgrades HTTP requests onto the feed broadcast pools.
type WSHandler struct {
	service  ports.MarketService
	upgrader websocket.Upgrader
	logger   *slog.Logger
}

// NewWSHandler creates a new WSHandler with the given service.
func NewWSHandler(service ports.MarketService, logger *slog.Logger) *WSHandler {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &WSHandler{
		service: service,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		logger: logger,
	}
}

// Live handles GET /ws/live?symbol=. The connection receives every intraday
// update the symbol's feed observes.
func (h *WSHandler) Live(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, ports.LivePool)
}

// Analytics handles GET /ws/analytics/{strategy}?symbol=. The connection
// receives the strategy's result for every intraday update.
func (h *WSHandler) Analytics(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, ports.AnalyticsPoolPrefix+chi.URLParam(r, "strategy"))
}

func (h *WSHandler) serve(w http.ResponseWriter, r *http.Request, pool string) {
	symbol, ok := symbolParam(w, r)
	if !ok {
		return
	}

	// Subscribe before upgrading so malformed symbols and unknown
	// strategies come back as plain HTTP errors, not a failed handshake.
	sub := &wsSubscriber{}
	if err := h.service.Subscribe(r.Context(), symbol, pool, sub); err != nil {
		dto.WriteErrorResponse(w, r, err)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the handshake error.
		h.service.Unsubscribe(r.Context(), symbol, pool, sub)
		h.logger.Warn("websocket upgrade failed",
			slog.String("symbol", symbol),
			slog.String("pool", pool),
			slog.Any("error", err),
		)
		return
	}
	sub.attach(conn)

	h.logger.Info("websocket subscribed",
		slog.String("symbol", symbol),
		slog.String("pool", pool),
		slog.String("remote", conn.RemoteAddr().String()),
	)

	defer func() {
		h.service.Unsubscribe(context.WithoutCancel(r.Context()), symbol, pool, sub)
		_ = conn.Close()
		h.logger.Info("websocket closed",
			slog.String("symbol", symbol),
			slog.String("pool", pool),
		)
	}()

	// The hijacked connection inherits the server's read deadline; clear
	// it, the connection stays open for as long as the client listens.
	conn.SetReadLimit(wsReadLimit)
	_ = conn.SetReadDeadline(time.Time{})

	// Drain inbound frames until the client goes away. Broadcasts arrive
	// through wsSubscriber.Send, not here.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

// wsSubscriber adapts a WebSocket connection to the broadcast pool contract.
// It registers before the upgrade completes, so Send drops payloads until the
// connection is attached.
type wsSubscriber struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (s *wsSubscriber) attach(conn *websocket.Conn) {
	s.mu.Lock()
	s.conn = conn
	s.mu.Unlock()
}

// Send writes one payload as a text frame. The mutex serializes writes from
// concurrent pool broadcasts.
func (s *wsSubscriber) Send(payload []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.conn == nil {
		return nil
	}
	_ = s.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
	return s.conn.WriteMessage(websocket.TextMessage, payload)
}
