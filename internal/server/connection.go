package server

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/cardroom/holdem/internal/game"
	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 8192
)

var ErrConnectionClosed = websocket.ErrCloseSent

// Connection represents a WebSocket connection to a client
type Connection struct {
	conn      *websocket.Conn
	send      chan *Message
	playerID  string
	tableID   string
	logger    *log.Logger
	ctx       context.Context
	cancel    context.CancelFunc
	mu        sync.RWMutex
	closeOnce sync.Once
	server    *Server
}

func newConnection(conn *websocket.Conn, server *Server, logger *log.Logger) *Connection {
	ctx, cancel := context.WithCancel(context.Background())
	return &Connection{
		conn:   conn,
		send:   make(chan *Message, 256),
		logger: logger.WithPrefix("conn"),
		ctx:    ctx,
		cancel: cancel,
		server: server,
	}
}

// Start begins handling the connection
func (c *Connection) Start() {
	go c.writePump()
	go c.readPump()
}

// Close closes the connection
func (c *Connection) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.cancel()
		close(c.send)
		err = c.conn.Close()
		c.server.unregister(c)
	})
	return err
}

// SendMessage queues a message for delivery to the client
func (c *Connection) SendMessage(msg *Message) error {
	defer func() {
		if r := recover(); r != nil {
			// Channel was closed during shutdown.
			c.logger.Debug("send on closed connection", "error", r)
		}
	}()

	select {
	case c.send <- msg:
		return nil
	case <-c.ctx.Done():
		return c.ctx.Err()
	default:
		c.logger.Warn("send buffer full, closing connection", "player", c.PlayerID())
		_ = c.Close()
		return ErrConnectionClosed
	}
}

// PlayerID returns the authenticated player id, empty before auth.
func (c *Connection) PlayerID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.playerID
}

func (c *Connection) setPlayerID(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.playerID = id
}

// TableID returns the table this connection is seated at.
func (c *Connection) TableID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.tableID
}

func (c *Connection) setTableID(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tableID = id
}

// readPump handles incoming messages from the client
func (c *Connection) readPump() {
	defer func() { _ = c.Close() }()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		select {
		case <-c.ctx.Done():
			return
		default:
		}

		var msg Message
		if err := c.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Error("websocket error", "error", err)
			}
			return
		}
		c.handleMessage(&msg)
	}
}

// writePump handles outgoing messages to the client
func (c *Connection) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(message); err != nil {
				c.logger.Error("failed to write message", "error", err)
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-c.ctx.Done():
			return
		}
	}
}

func (c *Connection) handleMessage(msg *Message) {
	c.logger.Debug("received message", "type", msg.Type, "player", c.PlayerID())

	switch msg.Type {
	case MessageTypeAuth:
		var data AuthData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			c.sendError("invalid_message", "failed to parse auth data")
			return
		}
		c.handleAuth(data)

	case MessageTypeJoinTable:
		var data JoinTableData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			c.sendError("invalid_message", "failed to parse join table data")
			return
		}
		c.handleJoinTable(data)

	case MessageTypeLeaveTable:
		var data LeaveTableData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			c.sendError("invalid_message", "failed to parse leave table data")
			return
		}
		c.handleLeaveTable(data)

	case MessageTypeStartTable:
		var data StartTableData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			c.sendError("invalid_message", "failed to parse start table data")
			return
		}
		c.handleStartTable(data)

	case MessageTypeAction:
		var data ActionData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			c.sendError("invalid_message", "failed to parse action data")
			return
		}
		c.handleAction(data)

	case MessageTypeRebuy:
		var data RebuyData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			c.sendError("invalid_message", "failed to parse rebuy data")
			return
		}
		c.handleRebuy(data)

	case MessageTypeListTables:
		c.handleListTables()

	default:
		c.sendError("unknown_message_type", "unknown message type: "+string(msg.Type))
	}
}

func (c *Connection) sendError(code, message string) {
	errorMsg, err := NewMessage(MessageTypeError, ErrorData{Code: code, Message: message})
	if err != nil {
		c.logger.Error("failed to create error message", "error", err)
		return
	}
	_ = c.SendMessage(errorMsg)
}

// requirePlayer enforces auth before table commands.
func (c *Connection) requirePlayer() (string, bool) {
	playerID := c.PlayerID()
	if playerID == "" {
		c.sendError("not_authenticated", "must authenticate first")
		return "", false
	}
	return playerID, true
}

func (c *Connection) handleAuth(data AuthData) {
	if data.PlayerName == "" {
		c.sendError("invalid_auth", "player name required")
		return
	}

	c.setPlayerID(data.PlayerName)
	c.server.register(c)
	c.logger.Info("player authenticated", "player", data.PlayerName)

	response, _ := NewMessage(MessageTypeAuthResponse, AuthResponseData{
		Success:  true,
		PlayerID: data.PlayerName,
	})
	_ = c.SendMessage(response)
}

func (c *Connection) handleJoinTable(data JoinTableData) {
	playerID, ok := c.requirePlayer()
	if !ok {
		return
	}
	ctrl := c.server.table(data.TableID)
	if ctrl == nil {
		c.sendError("table_not_found", "no such table: "+data.TableID)
		return
	}

	stack, err := ctrl.AddPlayer(c.ctx, playerID, playerID, data.BuyIn)
	if err != nil {
		c.sendError("join_failed", err.Error())
		return
	}
	c.setTableID(data.TableID)

	snap := ctrl.Snapshot(playerID)
	seat := 0
	for _, s := range snap.Seats {
		if s.PlayerID == playerID {
			seat = s.Seat
		}
	}
	response, _ := NewMessage(MessageTypeTableJoined, TableJoinedData{
		TableID: data.TableID,
		Seat:    seat,
		Stack:   stack,
	})
	_ = c.SendMessage(response)
}

func (c *Connection) handleLeaveTable(data LeaveTableData) {
	playerID, ok := c.requirePlayer()
	if !ok {
		return
	}
	ctrl := c.server.table(data.TableID)
	if ctrl == nil {
		c.sendError("table_not_found", "no such table: "+data.TableID)
		return
	}

	if _, err := ctrl.Leave(playerID); err != nil {
		c.sendError("leave_failed", err.Error())
		return
	}
	c.setTableID("")

	response, _ := NewMessage(MessageTypeTableLeft, LeaveTableData{TableID: data.TableID})
	_ = c.SendMessage(response)
}

func (c *Connection) handleStartTable(data StartTableData) {
	if _, ok := c.requirePlayer(); !ok {
		return
	}
	ctrl := c.server.table(data.TableID)
	if ctrl == nil {
		c.sendError("table_not_found", "no such table: "+data.TableID)
		return
	}
	if err := ctrl.Start(); err != nil {
		c.sendError("start_failed", err.Error())
	}
}

func (c *Connection) handleAction(data ActionData) {
	playerID, ok := c.requirePlayer()
	if !ok {
		return
	}
	ctrl := c.server.table(data.TableID)
	if ctrl == nil {
		c.sendError("table_not_found", "no such table: "+data.TableID)
		return
	}
	typ, ok := game.ParseActionType(data.Action)
	if !ok {
		c.sendError("invalid_action", "unknown action: "+data.Action)
		return
	}

	if res := ctrl.Act(playerID, typ, data.Amount); !res.OK {
		c.sendError("action_rejected", res.Reason)
	}
}

func (c *Connection) handleRebuy(data RebuyData) {
	playerID, ok := c.requirePlayer()
	if !ok {
		return
	}
	ctrl := c.server.table(data.TableID)
	if ctrl == nil {
		c.sendError("table_not_found", "no such table: "+data.TableID)
		return
	}
	if _, err := ctrl.Rebuy(c.ctx, playerID, data.Amount); err != nil {
		c.sendError("rebuy_failed", err.Error())
	}
}

func (c *Connection) handleListTables() {
	response, _ := NewMessage(MessageTypeTableList, TableListData{
		Tables: c.server.listTables(),
	})
	_ = c.SendMessage(response)
}
