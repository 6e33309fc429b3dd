package server

import (
	"encoding/json"
	"time"

	"github.com/cardroom/holdem/internal/game"
	"github.com/cardroom/holdem/internal/room"
)

// MessageType identifies a WebSocket message.
type MessageType string

const (
	// Client → Server
	MessageTypeAuth       MessageType = "auth"
	MessageTypeJoinTable  MessageType = "join_table"
	MessageTypeLeaveTable MessageType = "leave_table"
	MessageTypeStartTable MessageType = "start_table"
	MessageTypeAction     MessageType = "action"
	MessageTypeRebuy      MessageType = "rebuy"
	MessageTypeListTables MessageType = "list_tables"

	// Server → Client
	MessageTypeAuthResponse  MessageType = "auth_response"
	MessageTypeTableJoined   MessageType = "table_joined"
	MessageTypeTableLeft     MessageType = "table_left"
	MessageTypeTableList     MessageType = "table_list"
	MessageTypeHandStarted   MessageType = "hand_started"
	MessageTypeActionApplied MessageType = "action_applied"
	MessageTypeActionRequest MessageType = "action_request"
	MessageTypeHandEnded     MessageType = "hand_ended"
	MessageTypeRebuyOffer    MessageType = "rebuy_offer"
	MessageTypeGameOver      MessageType = "game_over"
	MessageTypeError         MessageType = "error"
)

// Message represents the base WebSocket message structure
type Message struct {
	Type      MessageType     `json:"type"`
	Data      json.RawMessage `json:"data"`
	Timestamp time.Time       `json:"timestamp"`
}

// NewMessage creates a new message with the current timestamp
func NewMessage(messageType MessageType, data interface{}) (*Message, error) {
	dataBytes, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	return &Message{
		Type:      messageType,
		Data:      dataBytes,
		Timestamp: time.Now(),
	}, nil
}

// Client → Server Messages

type AuthData struct {
	PlayerName string `json:"playerName"`
}

type JoinTableData struct {
	TableID string `json:"tableId"`
	BuyIn   int    `json:"buyIn,omitempty"`
}

type LeaveTableData struct {
	TableID string `json:"tableId"`
}

type StartTableData struct {
	TableID string `json:"tableId"`
}

type ActionData struct {
	TableID string `json:"tableId"`
	Action  string `json:"action"`
	Amount  int    `json:"amount,omitempty"`
}

type RebuyData struct {
	TableID string `json:"tableId"`
	Amount  int    `json:"amount,omitempty"`
}

// Server → Client Messages

type AuthResponseData struct {
	Success  bool   `json:"success"`
	PlayerID string `json:"playerId"`
}

type TableJoinedData struct {
	TableID string `json:"tableId"`
	Seat    int    `json:"seat"`
	Stack   int    `json:"stack"`
}

type TableInfo struct {
	TableID    string `json:"tableId"`
	State      string `json:"state"`
	Players    int    `json:"players"`
	MaxPlayers int    `json:"maxPlayers"`
	MinBet     int    `json:"minBet"`
}

type TableListData struct {
	Tables []TableInfo `json:"tables"`
}

type TableUpdateData struct {
	Snapshot room.Snapshot `json:"snapshot"`
	PlayerID string        `json:"playerId,omitempty"`
	Action   string        `json:"action,omitempty"`
	Delta    int           `json:"delta,omitempty"`
}

// ValidActionView is a legal action with its amount range.
type ValidActionView struct {
	Action string `json:"action"`
	Min    int    `json:"min,omitempty"`
	Max    int    `json:"max,omitempty"`
}

type ActionRequestData struct {
	TableID  string            `json:"tableId"`
	Actions  []ValidActionView `json:"actions"`
	ToCall   int               `json:"toCall,omitempty"`
	Deadline time.Time         `json:"deadline"`
}

type RebuyOfferData struct {
	TableID  string    `json:"tableId"`
	Deadline time.Time `json:"deadline"`
}

type GameOverData struct {
	TableID string `json:"tableId"`
	Reason  string `json:"reason"`
}

type ErrorData struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func validActionViews(actions []game.ValidAction) []ValidActionView {
	views := make([]ValidActionView, 0, len(actions))
	for _, a := range actions {
		views = append(views, ValidActionView{
			Action: a.Type.String(),
			Min:    a.Min,
			Max:    a.Max,
		})
	}
	return views
}
