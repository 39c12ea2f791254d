package ws

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"holdem-rooms/internal/game"
	"holdem-rooms/internal/room"
)

// Client is one persistent player connection. It satisfies
// room.Subscriber through its buffered send channel; a consumer that
// cannot keep up loses snapshots rather than stalling a room broadcast.
type Client struct {
	conn     *websocket.Conn
	send     chan []byte
	playerID string

	mu     sync.Mutex
	roomID string
	name   string
	closed bool
}

// Send queues a payload without blocking. Sends after the connection
// closed are discarded.
func (c *Client) Send(payload []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	select {
	case c.send <- payload:
	default:
		log.Warn().Str("player", c.playerID).Msg("ws_send_dropped")
	}
}

func (c *Client) setRoom(roomID string) {
	c.mu.Lock()
	c.roomID = roomID
	c.mu.Unlock()
}

func (c *Client) room() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.roomID
}

type Server struct {
	manager      *room.Manager
	upgrader     websocket.Upgrader
	defaultBuyIn int64
}

func NewServer(manager *room.Manager, defaultBuyIn int64) *Server {
	return &Server{
		manager:      manager,
		upgrader:     websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }},
		defaultBuyIn: defaultBuyIn,
	}
}

// HandleWS upgrades the connection and runs its read loop. The player
// identity comes from the excluded auth layer when present (player_id
// query parameter) and is otherwise minted per connection.
func (s *Server) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	playerID := r.URL.Query().Get("player_id")
	if playerID == "" {
		playerID = game.NewID()
	}
	client := &Client{conn: conn, send: make(chan []byte, 32), playerID: playerID}

	go s.writeLoop(client)

	client.Send(mustMarshal(Welcome{Type: "welcome", PlayerID: playerID}))
	s.manager.SubscribeLobby(playerID, client)
	if payload := s.manager.LobbyPayload(); payload != nil {
		client.Send(payload)
	}

	s.readLoop(client)
}

func (s *Server) readLoop(c *Client) {
	defer func() {
		s.unregister(c)
		_ = c.conn.Close()
	}()

	for {
		_, msg, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		var base struct {
			Type string `json:"type"`
		}
		if err := json.Unmarshal(msg, &base); err != nil {
			continue
		}
		switch base.Type {
		case "list_rooms":
			if payload := s.manager.LobbyPayload(); payload != nil {
				c.Send(payload)
			}
		case "create_room":
			var m CreateRoomMessage
			if err := json.Unmarshal(msg, &m); err != nil {
				continue
			}
			s.handleCreateRoom(c, m)
		case "join_room":
			var m JoinRoomMessage
			if err := json.Unmarshal(msg, &m); err != nil {
				continue
			}
			s.handleJoinRoom(c, m)
		case "leave_room":
			var m LeaveRoomMessage
			if err := json.Unmarshal(msg, &m); err != nil {
				continue
			}
			s.handleLeaveRoom(c, m)
		case "start_hand":
			var m StartHandMessage
			if err := json.Unmarshal(msg, &m); err != nil {
				continue
			}
			err := s.manager.StartHand(m.RoomID, c.playerID, s.buyIn(m.BuyIn), m.BigBlind)
			s.ack(c, "start_hand", m.RoomID, err)
		case "action":
			var m ActionMessage
			if err := json.Unmarshal(msg, &m); err != nil {
				continue
			}
			err := s.manager.Action(m.RoomID, c.playerID, game.ActionType(m.Action), m.Amount)
			s.ack(c, "action", m.RoomID, err)
		}
	}
}

func (s *Server) writeLoop(c *Client) {
	for msg := range c.send {
		_ = c.conn.WriteMessage(websocket.TextMessage, msg)
	}
}

func (s *Server) handleCreateRoom(c *Client, m CreateRoomMessage) {
	if c.room() != "" {
		s.ack(c, "create_room", "", game.ErrInvalidAction)
		return
	}
	roomID, err := s.manager.CreateRoom(c.playerID, c.displayName(m.Name), m.Name, s.buyIn(m.BuyIn), c)
	if err == nil {
		c.setRoom(roomID)
	}
	s.ack(c, "create_room", roomID, err)
}

func (s *Server) handleJoinRoom(c *Client, m JoinRoomMessage) {
	if c.room() != "" {
		s.ack(c, "join_room", "", game.ErrInvalidAction)
		return
	}
	err := s.manager.JoinRoom(m.RoomID, c.playerID, c.displayName(m.Name), s.buyIn(m.BuyIn), c)
	if err == nil {
		c.setRoom(m.RoomID)
	}
	s.ack(c, "join_room", m.RoomID, err)
}

func (s *Server) handleLeaveRoom(c *Client, m LeaveRoomMessage) {
	roomID := m.RoomID
	if roomID == "" {
		roomID = c.room()
	}
	err := s.manager.LeaveRoom(roomID, c.playerID)
	if err == nil {
		c.setRoom("")
	}
	s.ack(c, "leave_room", roomID, err)
}

// unregister treats a dropped connection as a leave: the lobby forgets
// the player and any seat they held folds out of the hand.
func (s *Server) unregister(c *Client) {
	s.manager.UnsubscribeLobby(c.playerID)
	if roomID := c.room(); roomID != "" {
		_ = s.manager.LeaveRoom(roomID, c.playerID)
	}
	c.mu.Lock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
	c.mu.Unlock()
}

func (s *Server) ack(c *Client, op, roomID string, err error) {
	res := Result{Type: "result", Op: op, Ok: err == nil, RoomID: roomID, PlayerID: c.playerID}
	if err != nil {
		res.Error = err.Error()
		res.RoomID = ""
	}
	c.Send(mustMarshal(res))
}

func (s *Server) buyIn(requested int64) int64 {
	if requested > 0 {
		return requested
	}
	return s.defaultBuyIn
}

func (c *Client) displayName(name string) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if name != "" {
		c.name = name
	}
	if c.name == "" {
		suffix := c.playerID
		if len(suffix) > 4 {
			suffix = suffix[len(suffix)-4:]
		}
		c.name = "player-" + suffix
	}
	return c.name
}

func mustMarshal(v any) []byte {
	payload, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return payload
}
