package ws

import (
	"context"
	"net/http"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/docext/internal/domain/loader"
	"github.com/GriffinCanCode/docext/internal/shared/utils"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10

	maxMessageSize = 4096
)

// Recorder receives connection and message metrics
type Recorder interface {
	IncWSConnections()
	DecWSConnections()
	RecordWSMessage(direction, msgType string)
}

// Handler streams load coordinator events over WebSocket connections
type Handler struct {
	loader     *loader.Coordinator
	metrics    Recorder
	logger     *zap.Logger
	upgrader   websocket.Upgrader
	origins    []string
	sendBuffer int
}

// NewHandler creates a new WebSocket handler
func NewHandler(coord *loader.Coordinator, metrics Recorder, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	h := &Handler{
		loader:  coord,
		metrics: metrics,
		logger:  logger.Named("ws"),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		sendBuffer: 64,
	}
	h.upgrader.CheckOrigin = h.checkOrigin
	return h
}

// WithOrigins restricts upgrades to the given browser origins. No origins,
// or a "*" entry, accepts every origin.
func (h *Handler) WithOrigins(origins ...string) *Handler {
	h.origins = origins
	return h
}

// checkOrigin applies the same origin list as the CORS middleware. Requests
// without an Origin header come from non-browser clients and are accepted.
func (h *Handler) checkOrigin(r *http.Request) bool {
	if len(h.origins) == 0 || slices.Contains(h.origins, "*") {
		return true
	}
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	for _, allowed := range h.origins {
		if strings.EqualFold(allowed, origin) {
			return true
		}
	}
	h.logger.Debug("rejected websocket origin", zap.String("origin", origin))
	return false
}

// connection is one client. Only the write loop touches conn for writes.
type connection struct {
	id   string
	conn *websocket.Conn
	out  chan Outbound
	done chan struct{}
}

// push queues a reply, giving up once the connection is closing
func (c *connection) push(msg Outbound) {
	select {
	case c.out <- msg:
	case <-c.done:
	}
}

// offer queues an event without blocking; slow clients miss events
func (c *connection) offer(msg Outbound) bool {
	select {
	case c.out <- msg:
		return true
	default:
		return false
	}
}

// HandleConnection upgrades the request and serves the stream until the
// client disconnects
func (h *Handler) HandleConnection(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	cc := &connection{
		id:   uuid.NewString(),
		conn: conn,
		out:  make(chan Outbound, h.sendBuffer),
		done: make(chan struct{}),
	}
	logger := h.logger.With(zap.String("connection_id", cc.id))
	logger.Debug("websocket connected", zap.String("remote", c.ClientIP()))

	h.metrics.IncWSConnections()
	defer h.metrics.DecWSConnections()

	ctx, cancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		h.writeLoop(cc, logger)
	}()

	unsubscribe := h.loader.Subscribe(func(ev loader.Event) {
		if !cc.offer(stateMessage(ev)) {
			logger.Debug("dropping state event for slow client", zap.String("library", ev.ID))
		}
	})

	// The welcome snapshot is taken after subscribing, so clients that
	// reset on it never miss a transition.
	cc.push(Outbound{
		Type:         TypeWelcome,
		ConnectionID: cc.id,
		Libraries:    h.loader.Snapshot(),
		Timestamp:    time.Now().Unix(),
	})

	h.readLoop(ctx, cc, logger)

	unsubscribe()
	cancel()
	close(cc.done)
	wg.Wait()
	conn.Close()
	logger.Debug("websocket disconnected")
}

func (h *Handler) readLoop(ctx context.Context, cc *connection, logger *zap.Logger) {
	cc.conn.SetReadLimit(maxMessageSize)
	_ = cc.conn.SetReadDeadline(time.Now().Add(pongWait))
	cc.conn.SetPongHandler(func(string) error {
		return cc.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := cc.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Debug("websocket read error", zap.Error(err))
			}
			return
		}

		var msg Inbound
		if err := sonic.Unmarshal(data, &msg); err != nil {
			h.metrics.RecordWSMessage("in", "invalid")
			cc.push(errorMessage("", "malformed message"))
			continue
		}
		h.metrics.RecordWSMessage("in", msg.Type)

		switch msg.Type {
		case TypePing:
			cc.push(Outbound{Type: TypePong, Timestamp: time.Now().Unix()})
		case TypeSnapshot:
			cc.push(Outbound{Type: TypeSnapshot, Libraries: h.loader.Snapshot(), Timestamp: time.Now().Unix()})
		case TypeLoad:
			if err := utils.ValidateLibraryID(msg.Library); err != nil {
				cc.push(errorMessage(msg.Library, err.Error()))
				continue
			}
			go h.load(ctx, cc, msg.Library, logger)
		default:
			cc.push(errorMessage("", "unknown message type"))
		}
	}
}

// load runs EnsureLoaded off the read loop so the client can keep talking
func (h *Handler) load(ctx context.Context, cc *connection, library string, logger *zap.Logger) {
	if err := h.loader.EnsureLoaded(ctx, library); err != nil {
		logger.Debug("stream load failed", zap.String("library", library), zap.Error(err))
		cc.push(errorMessage(library, err.Error()))
		return
	}
	cc.push(Outbound{
		Type:      TypeLoaded,
		Library:   library,
		To:        loader.StateLoaded.String(),
		Timestamp: time.Now().Unix(),
	})
}

func (h *Handler) writeLoop(cc *connection, logger *zap.Logger) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case msg := <-cc.out:
			data, err := sonic.Marshal(msg)
			if err != nil {
				logger.Error("failed to encode message", zap.String("type", msg.Type), zap.Error(err))
				continue
			}
			_ = cc.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := cc.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				logger.Debug("websocket write failed", zap.Error(err))
				cc.conn.Close()
				return
			}
			h.metrics.RecordWSMessage("out", msg.Type)
		case <-ticker.C:
			_ = cc.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := cc.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				cc.conn.Close()
				return
			}
		case <-cc.done:
			_ = cc.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(writeWait))
			return
		}
	}
}
