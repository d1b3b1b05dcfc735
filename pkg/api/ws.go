package api

import (
	"context"
	"net/http"
	"slices"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	apphttp "github.com/chainsafe/custody-ledger/pkg/app/http"
	"github.com/chainsafe/custody-ledger/pkg/events"
)

const (
	wsWriteWait  = 10 * time.Second
	wsPongWait   = 60 * time.Second
	wsPingPeriod = wsPongWait * 9 / 10
	wsReadLimit  = 512
)

// BalanceStream pushes the session user's wallet over a websocket: once on
// connect and again after every committed ledger change.
type BalanceStream struct {
	service  Service
	hub      *events.Hub
	upgrader websocket.Upgrader
	logger   *zap.Logger
}

// NewBalanceStream creates the stream handler. An empty origins list accepts
// any origin.
func NewBalanceStream(service Service, hub *events.Hub, origins []string, logger *zap.Logger) *BalanceStream {
	s := &BalanceStream{service: service, hub: hub, logger: logger}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 4096,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			return len(origins) == 0 || slices.Contains(origins, "*") || origin == "" || slices.Contains(origins, origin)
		},
	}
	return s
}

type balanceFrame struct {
	Type   string          `json:"type"`
	Wallet *WalletResponse `json:"wallet,omitempty"`
	Error  string          `json:"error,omitempty"`
	At     time.Time       `json:"at"`
}

func (s *BalanceStream) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	info, err := sessionUser(r)
	if err != nil {
		apphttp.DefaultErrorHandler(w, err)
		return
	}
	// Subscribe before the first snapshot so no commit falls in between.
	signals, cancel := s.hub.Subscribe(info.UserID)
	defer cancel()

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("Websocket upgrade failed", zap.String("user_id", info.UserID), zap.Error(err))
		return
	}
	defer conn.Close()

	logger := s.logger.With(zap.String("user_id", info.UserID))
	logger.Debug("Balance stream opened")

	ctx, stop := context.WithCancel(context.WithoutCancel(r.Context()))
	defer stop()
	go s.readPump(conn, stop)

	if err := s.push(ctx, conn, info.UserID); err != nil {
		logger.Debug("Balance stream closed", zap.Error(err))
		return
	}

	ping := time.NewTicker(wsPingPeriod)
	defer ping.Stop()
	for {
		select {
		case <-ctx.Done():
			logger.Debug("Balance stream closed by client")
			return
		case <-signals:
			if err := s.push(ctx, conn, info.UserID); err != nil {
				logger.Debug("Balance stream closed", zap.Error(err))
				return
			}
		case <-ping.C:
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump drains client frames so pongs and close frames are processed.
func (s *BalanceStream) readPump(conn *websocket.Conn, done func()) {
	defer done()
	conn.SetReadLimit(wsReadLimit)
	_ = conn.SetReadDeadline(time.Now().Add(wsPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (s *BalanceStream) push(ctx context.Context, conn *websocket.Conn, userID string) error {
	frame := balanceFrame{Type: "balance", At: time.Now().UTC()}
	wallet, err := s.service.Wallet(ctx, userID)
	if err != nil {
		frame.Type, frame.Error = "error", "failed to load wallet"
	}
	frame.Wallet = wallet
	_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
	return conn.WriteJSON(frame)
}
