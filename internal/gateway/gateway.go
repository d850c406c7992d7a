package gateway

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"holdem-engine/internal/auth"
	"holdem-engine/internal/codec"
	"holdem-engine/internal/lobby"
	"holdem-engine/internal/table"

	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 30 * time.Second
	actionWait = 5 * time.Second
)

// Error codes sent in error envelopes.
const (
	CodeBadMessage = 1
	CodeWrongSeat  = 2
	CodeRejected   = 3
	CodeNoSession  = 4
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Connection is one player's websocket at one session.
type Connection struct {
	ID       string
	PlayerID string
	Handle   lobby.Handle
	Table    *table.Table
	Conn     *websocket.Conn
	Send     chan []byte
	Gateway  *Gateway
	// Text clients get protojson text frames instead of binary protobuf.
	Text bool

	done      chan struct{}
	closeOnce sync.Once
}

type connKey struct {
	handle   lobby.Handle
	playerID string
}

// Gateway manages WebSocket connections
type Gateway struct {
	mu          sync.RWMutex
	connections map[string]*Connection
	players     map[connKey]*Connection
	nextConnID  uint64
	lobby       *lobby.Lobby
	auth        auth.Service
}

// New creates a gateway and installs it as the lobby's broadcaster.
func New(lby *lobby.Lobby, authSvc auth.Service) *Gateway {
	g := &Gateway{
		connections: make(map[string]*Connection),
		players:     make(map[connKey]*Connection),
		lobby:       lby,
		auth:        authSvc,
	}
	lby.SetBroadcast(g.SendToPlayer)
	return g
}

// HandleWebSocket upgrades /ws?session=<handle>&token=<session token>[&format=json].
// The token may also come as "Authorization: Bearer". The player is whoever
// the token belongs to; an explicit ?player= must agree with it.
func (g *Gateway) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	handle := lobby.Handle(strings.TrimSpace(q.Get("session")))
	t, err := g.lobby.Table(handle)
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	token := auth.TokenFromRequest(r)
	if token == "" {
		http.Error(w, "missing session token", http.StatusUnauthorized)
		return
	}
	playerID, ok := g.auth.ResolveSession(token)
	if !ok {
		http.Error(w, "invalid session token", http.StatusUnauthorized)
		return
	}
	if want := strings.TrimSpace(q.Get("player")); want != "" && want != playerID {
		http.Error(w, "player does not match session token", http.StatusForbidden)
		return
	}
	if _, err := g.lobby.HumanSeat(handle, playerID); err != nil {
		http.Error(w, err.Error(), http.StatusForbidden)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[Gateway] Upgrade error: %v", err)
		return
	}

	g.mu.Lock()
	g.nextConnID++
	c := &Connection{
		ID:       fmt.Sprintf("conn_%d", g.nextConnID),
		PlayerID: playerID,
		Handle:   handle,
		Table:    t,
		Conn:     conn,
		Send:     make(chan []byte, 256),
		done:     make(chan struct{}),
		Gateway:  g,
		Text:     strings.EqualFold(q.Get("format"), "json"),
	}
	key := connKey{handle, playerID}
	if old := g.players[key]; old != nil {
		// 同一玩家重连，踢掉旧连接
		delete(g.connections, old.ID)
		old.close()
	}
	g.connections[c.ID] = c
	g.players[key] = c
	total := len(g.connections)
	g.mu.Unlock()

	log.Printf("[Gateway] Client connected: %s (player=%s session=%s), total: %d", c.ID, playerID, handle, total)

	go c.writePump()
	c.sendState()
	go c.readPump()
}

func (c *Connection) readPump() {
	defer func() {
		c.Gateway.removeConnection(c)
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(65536)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		messageType, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("[Gateway] Read error: %v", err)
			}
			break
		}
		c.handleMessage(messageType, message)
	}
}

func (c *Connection) handleMessage(messageType int, data []byte) {
	var (
		msg codec.ClientMessage
		err error
	)
	if messageType == websocket.TextMessage {
		msg, err = codec.DecodeClientJSON(data)
	} else {
		msg, err = codec.DecodeClient(data)
	}
	if err != nil {
		log.Printf("[Gateway] Failed to decode from %s: %v", c.ID, err)
		c.sendError(CodeBadMessage, err.Error())
		return
	}
	if msg.PlayerID != c.PlayerID {
		c.sendError(CodeWrongSeat, "player_id does not match connection")
		return
	}

	switch msg.Type {
	case codec.ClientJoin, codec.ClientState:
		c.sendState()
	case codec.ClientAction:
		ctx, cancel := context.WithTimeout(context.Background(), actionWait)
		defer cancel()
		if err := c.Gateway.lobby.SubmitAction(ctx, c.Handle, c.PlayerID, msg.Action); err != nil {
			c.sendError(CodeRejected, err.Error())
		}
	}
}

func (c *Connection) sendState() {
	st, err := c.Gateway.lobby.PublicState(c.Handle, c.PlayerID)
	if err != nil {
		c.sendError(CodeNoSession, err.Error())
		return
	}
	data, err := codec.EncodeState(string(c.Handle), c.Table.NextSeq(), st)
	if err != nil {
		log.Printf("[Gateway] encode state failed: %v", err)
		return
	}
	c.enqueue(data)
}

func (c *Connection) sendError(code int, msg string) {
	data, err := codec.EncodeError(string(c.Handle), c.Table.NextSeq(), code, msg)
	if err != nil {
		return
	}
	c.enqueue(data)
}

// enqueue converts for text clients and drops the frame if the buffer is full.
func (c *Connection) enqueue(data []byte) {
	if c.Text {
		js, err := codec.ToJSON(data)
		if err != nil {
			log.Printf("[Gateway] json conversion failed: %v", err)
			return
		}
		data = js
	}
	select {
	case <-c.done:
	case c.Send <- data:
	default:
		log.Printf("[Gateway] send buffer full for %s, dropping frame", c.ID)
	}
}

func (c *Connection) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	frameType := websocket.BinaryMessage
	if c.Text {
		frameType = websocket.TextMessage
	}
	for {
		select {
		case <-c.done:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
			return

		case message := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(frameType, message); err != nil {
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Connection) close() {
	c.closeOnce.Do(func() { close(c.done) })
}

func (g *Gateway) removeConnection(c *Connection) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.connections[c.ID] == c {
		delete(g.connections, c.ID)
	}
	key := connKey{c.Handle, c.PlayerID}
	if g.players[key] == c {
		delete(g.players, key)
	}
	c.close()
	log.Printf("[Gateway] Client disconnected: %s, total: %d", c.ID, len(g.connections))
}

// SendToPlayer delivers an envelope to the player's connection, if any.
func (g *Gateway) SendToPlayer(h lobby.Handle, playerID string, data []byte) {
	g.mu.RLock()
	c := g.players[connKey{h, playerID}]
	g.mu.RUnlock()
	if c != nil {
		c.enqueue(data)
	}
}

// ConnectionCount returns the number of open connections.
func (g *Gateway) ConnectionCount() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.connections)
}
