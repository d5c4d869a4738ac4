package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"pulse-lab/domain/poll"
	"pulse-lab/errors"
	"pulse-lab/infrastructure/codec"
	"pulse-lab/services"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"google.golang.org/protobuf/types/known/structpb"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
	sendBufferSize = 64
)

type MessageType string

const (
	MsgSubmit MessageType = "submit"
	MsgPing   MessageType = "ping"

	MsgConnected MessageType = "connected"
	MsgPrompt    MessageType = "prompt"
	MsgTally     MessageType = "tally"
	MsgSubmitted MessageType = "submitted"
	MsgError     MessageType = "error"
	MsgPong      MessageType = "pong"
)

type ClientMessage struct {
	Type    MessageType     `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type ServerMessage struct {
	Type      MessageType `json:"type"`
	Payload   any         `json:"payload,omitempty"`
	Timestamp string      `json:"timestamp"`
}

func NewServerMessage(msgType MessageType, payload any) *ServerMessage {
	return &ServerMessage{Type: msgType, Payload: payload, Timestamp: time.Now().UTC().Format(time.RFC3339)}
}

type ConnectedPayload struct {
	ClientID  string `json:"clientId"`
	SessionID string `json:"sessionId"`
}

type SubmitPayload struct {
	SlideID  poll.SlideID    `json:"slideId"`
	Response json.RawMessage `json:"response"`
}

// handleWebSocket streams the session to one client: the active prompt, and the
// tally of whichever slide is active. The client id doubles as participant id and
// is issued when absent.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	session := sessionParam(r)
	if err := poll.ValidateIdentifier(string(session)); err != nil {
		s.sendDomainError(w, err)
		return
	}
	clientID := r.URL.Query().Get("clientId")
	if clientID == "" {
		clientID = uuid.NewString()
	} else if err := poll.ValidateIdentifier(clientID); err != nil {
		s.sendDomainError(w, err)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("WebSocket upgrade failed", "error", err)
		return
	}
	s.log.Info("WebSocket connected", "session", session, "client", clientID)

	ctx, cancel := context.WithCancel(context.Background())
	c := &wsClient{
		conn:     conn,
		service:  s.service,
		session:  session,
		clientID: clientID,
		send:     make(chan []byte, sendBufferSize),
		log:      s.log,
		cancel:   cancel,
	}
	c.Send(NewServerMessage(MsgConnected, &ConnectedPayload{ClientID: clientID, SessionID: string(session)}))
	go c.writePump(ctx)
	go c.follow(ctx)
	c.readPump(ctx)
	s.log.Info("WebSocket disconnected", "session", session, "client", clientID)
}

type wsClient struct {
	conn     *websocket.Conn
	service  services.IPollService
	session  poll.SessionID
	clientID string
	send     chan []byte
	log      *slog.Logger
	cancel   context.CancelFunc
	mu       sync.Mutex
	closed   bool
}

// Send drops the message when the client cannot keep up; the next update carries
// the full state anyway.
func (c *wsClient) Send(msg *ServerMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		c.log.Warn("Unencodable message", "type", msg.Type, "error", err)
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	select {
	case c.send <- data:
	default:
		c.log.Warn("Send buffer full, message dropped", "client", c.clientID, "type", msg.Type)
	}
}

func (c *wsClient) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	c.cancel()
	_ = c.conn.Close()
}

// follow forwards prompt updates and keeps one tally watch on the active slide.
func (c *wsClient) follow(ctx context.Context) {
	var (
		tallies     <-chan services.TallyUpdate
		stopTally   context.CancelFunc = func() {}
		activeSlide poll.SlideID
	)
	defer func() { stopTally() }()

	prompts := c.service.WatchPrompt(ctx, c.clientID, c.session)
	for {
		select {
		case <-ctx.Done():
			return
		case update, ok := <-prompts:
			if !ok {
				return
			}
			payload, err := promptJSON(update.Prompt)
			if err != nil {
				c.log.Warn("Unencodable prompt", "session", c.session, "error", err)
				continue
			}
			c.Send(NewServerMessage(MsgPrompt, &PromptResponse{Prompt: payload}))

			slide := poll.SlideID("")
			if update.Prompt != nil {
				slide = update.Prompt.Slide()
			}
			if slide == activeSlide {
				continue
			}
			stopTally()
			activeSlide, tallies, stopTally = slide, nil, func() {}
			if slide != "" {
				var tallyCtx context.Context
				tallyCtx, stopTally = context.WithCancel(ctx)
				tallies = c.service.WatchTally(tallyCtx, c.clientID, c.session, slide)
			}
		case update, ok := <-tallies:
			if !ok {
				tallies = nil
				continue
			}
			if update.Slide != activeSlide {
				continue
			}
			c.Send(NewServerMessage(MsgTally, &TallyResponse{
				SlideID: update.Slide,
				Tally:   update.Tally,
				Total:   update.Tally.Total(),
			}))
		}
	}
}

func (c *wsClient) readPump(ctx context.Context) {
	defer c.close()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.log.Debug("WebSocket read error", "client", c.clientID, "error", err)
			}
			return
		}
		c.handleMessage(ctx, data)
	}
}

func (c *wsClient) writePump(ctx context.Context) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.close()
	}()

	for {
		select {
		case <-ctx.Done():
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		case message := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
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

func (c *wsClient) handleMessage(ctx context.Context, data []byte) {
	var msg ClientMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		c.sendError("INVALID_MESSAGE", "Invalid message format")
		return
	}
	switch msg.Type {
	case MsgSubmit:
		c.handleSubmit(ctx, msg.Payload)
	case MsgPing:
		c.Send(NewServerMessage(MsgPong, nil))
	default:
		c.sendError("INVALID_MESSAGE", "Unknown message type")
	}
}

func (c *wsClient) handleSubmit(ctx context.Context, raw json.RawMessage) {
	var payload SubmitPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		c.sendError("INVALID_MESSAGE", "Invalid payload")
		return
	}
	var fields map[string]any
	if err := json.Unmarshal(payload.Response, &fields); err != nil {
		c.sendError("INVALID_RESPONSE", "Response must be an object")
		return
	}
	responseStruct, err := structpb.NewStruct(fields)
	if err != nil {
		c.sendError("INVALID_RESPONSE", err.Error())
		return
	}
	response, err := codec.ResponseFromStruct(responseStruct)
	if err != nil {
		c.sendError("INVALID_RESPONSE", err.Error())
		return
	}

	outcome, err := c.service.SubmitResponse(ctx, services.SubmitCommand{
		Session:     c.session,
		Slide:       payload.SlideID,
		Participant: poll.ParticipantID(c.clientID),
		Response:    response,
	})
	if err != nil {
		_, code := errors.MapToHTTPError(err)
		c.sendError(code, err.Error())
		return
	}
	c.Send(NewServerMessage(MsgSubmitted, &SubmitResponse{Result: outcome.Result, Key: outcome.Key, Tally: outcome.Tally}))
}

func (c *wsClient) sendError(code, message string) {
	c.Send(NewServerMessage(MsgError, &ErrorInfo{Code: code, Message: message}))
}
