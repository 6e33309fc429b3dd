// Package server exposes the cardroom over WebSockets and translates
// between wire messages and room operations. It implements the room's
// Notifier contract by queuing events onto a dispatch goroutine, so
// deliveries never run inside a table's handler.
package server

import (
	"context"
	"errors"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/cardroom/holdem/internal/config"
	"github.com/cardroom/holdem/internal/game"
	"github.com/cardroom/holdem/internal/room"
	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"
	"golang.org/x/sync/errgroup"
)

// Server is the WebSocket front end for a set of tables.
type Server struct {
	addr     string
	upgrader websocket.Upgrader
	logger   *log.Logger
	tables   map[string]*room.Controller

	mu       sync.RWMutex
	conns    map[*Connection]bool
	byPlayer map[string]*Connection

	events chan func()
}

// New builds a server and one controller per configured table.
func New(cfg *config.Config, bank room.Bankroll, logger *log.Logger) *Server {
	s := &Server{
		addr: cfg.Addr(),
		upgrader: websocket.Upgrader{
			CheckOrigin:     func(r *http.Request) bool { return true },
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		logger:   logger.WithPrefix("server"),
		tables:   make(map[string]*room.Controller),
		conns:    make(map[*Connection]bool),
		byPlayer: make(map[string]*Connection),
		events:   make(chan func(), 1024),
	}
	for _, tc := range cfg.Tables {
		s.tables[tc.Name] = room.New(tc.Name, tc.Options(), room.Deps{
			Bankroll: bank,
			Notifier: s,
			Logger:   logger,
		})
	}
	return s
}

// SetAddr overrides the configured listen address. Must be called
// before Run.
func (s *Server) SetAddr(addr string) {
	s.addr = addr
}

// Run serves until the context is cancelled, then stops every table and
// shuts the listener down.
func (s *Server) Run(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWebSocket)
	mux.HandleFunc("/health", s.handleHealth)

	httpServer := &http.Server{Addr: s.addr, Handler: mux}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.dispatch(ctx)
		return nil
	})
	g.Go(func() error {
		s.logger.Info("listening", "addr", s.addr)
		err := httpServer.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	})
	g.Go(func() error {
		<-ctx.Done()
		for _, ctrl := range s.tables {
			ctrl.Stop("server shutting down")
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// dispatch delivers queued notifier events outside any table lock.
func (s *Server) dispatch(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-s.events:
			ev()
		}
	}
}

func (s *Server) enqueue(ev func()) {
	select {
	case s.events <- ev:
	default:
		s.logger.Warn("event queue full, dropping notification")
	}
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("upgrade failed", "error", err)
		return
	}
	c := newConnection(conn, s, s.logger)
	c.Start()
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) register(c *Connection) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conns[c] = true
	if id := c.PlayerID(); id != "" {
		s.byPlayer[id] = c
	}
}

func (s *Server) unregister(c *Connection) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.conns, c)
	if id := c.PlayerID(); id != "" && s.byPlayer[id] == c {
		delete(s.byPlayer, id)
	}
}

func (s *Server) table(id string) *room.Controller {
	return s.tables[id]
}

func (s *Server) listTables() []TableInfo {
	infos := make([]TableInfo, 0, len(s.tables))
	for _, ctrl := range s.tables {
		snap := ctrl.Snapshot("")
		opts := ctrl.Options()
		infos = append(infos, TableInfo{
			TableID:    ctrl.ID(),
			State:      ctrl.State().String(),
			Players:    len(snap.Seats),
			MaxPlayers: opts.MaxPlayers,
			MinBet:     opts.MinBet,
		})
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].TableID < infos[j].TableID })
	return infos
}

// tableConns snapshots the connections seated at a table.
func (s *Server) tableConns(tableID string) []*Connection {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*Connection
	for c := range s.conns {
		if c.TableID() == tableID {
			out = append(out, c)
		}
	}
	return out
}

func (s *Server) playerConn(playerID string) *Connection {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.byPlayer[playerID]
}

// broadcastUpdate sends every connection at the table its own
// perspective of the state, with the triggering action attached.
func (s *Server) broadcastUpdate(tableID string, msgType MessageType, playerID, action string, delta int) {
	ctrl := s.table(tableID)
	if ctrl == nil {
		return
	}
	for _, c := range s.tableConns(tableID) {
		msg, err := NewMessage(msgType, TableUpdateData{
			Snapshot: ctrl.Snapshot(c.PlayerID()),
			PlayerID: playerID,
			Action:   action,
			Delta:    delta,
		})
		if err != nil {
			s.logger.Error("failed to encode update", "error", err)
			return
		}
		_ = c.SendMessage(msg)
	}
}

// Notifier implementation. These run inside table handlers, so they
// only capture data and enqueue; the dispatch goroutine does the
// rendering and delivery.

func (s *Server) HandStarted(snap room.Snapshot) {
	s.enqueue(func() {
		s.broadcastUpdate(snap.TableID, MessageTypeHandStarted, "", "", 0)
	})
}

func (s *Server) ActionApplied(snap room.Snapshot, playerID string, result game.ActionResult) {
	action := result.Type.String()
	delta := result.Delta
	s.enqueue(func() {
		s.broadcastUpdate(snap.TableID, MessageTypeActionApplied, playerID, action, delta)
	})
}

func (s *Server) PromptAction(prompt room.Prompt) {
	s.enqueue(func() {
		c := s.playerConn(prompt.PlayerID)
		if c == nil {
			return
		}
		ctrl := s.table(prompt.TableID)
		toCall := 0
		if ctrl != nil {
			toCall = ctrl.Snapshot(prompt.PlayerID).ToCall
		}
		msg, err := NewMessage(MessageTypeActionRequest, ActionRequestData{
			TableID:  prompt.TableID,
			Actions:  validActionViews(prompt.Actions),
			ToCall:   toCall,
			Deadline: prompt.Deadline,
		})
		if err != nil {
			s.logger.Error("failed to encode prompt", "error", err)
			return
		}
		_ = c.SendMessage(msg)
	})
}

func (s *Server) HandEnded(outcome room.Outcome) {
	s.enqueue(func() {
		msg, err := NewMessage(MessageTypeHandEnded, outcome)
		if err != nil {
			s.logger.Error("failed to encode outcome", "error", err)
			return
		}
		for _, c := range s.tableConns(outcome.TableID) {
			_ = c.SendMessage(msg)
		}
	})
}

func (s *Server) RebuyOffered(tableID, playerID string, deadline time.Time) {
	s.enqueue(func() {
		c := s.playerConn(playerID)
		if c == nil {
			return
		}
		msg, err := NewMessage(MessageTypeRebuyOffer, RebuyOfferData{
			TableID:  tableID,
			Deadline: deadline,
		})
		if err != nil {
			return
		}
		_ = c.SendMessage(msg)
	})
}

func (s *Server) GameOver(tableID, reason string) {
	s.enqueue(func() {
		msg, err := NewMessage(MessageTypeGameOver, GameOverData{
			TableID: tableID,
			Reason:  reason,
		})
		if err != nil {
			return
		}
		for _, c := range s.tableConns(tableID) {
			c.setTableID("")
			_ = c.SendMessage(msg)
		}
	})
}
