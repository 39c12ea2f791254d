package room

import (
	"encoding/json"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"holdem-rooms/internal/game"
	"holdem-rooms/internal/history"
)

// Summary is one row of the lobby listing.
type Summary struct {
	RoomID   string `json:"room_id"`
	Name     string `json:"name"`
	HostName string `json:"host_name"`
	Players  int    `json:"players"`
	Stage    string `json:"stage"`
}

// RoomsMessage is broadcast to every connection whenever the room list
// changes, and sent on demand for list_rooms.
type RoomsMessage struct {
	Type  string    `json:"type"`
	Rooms []Summary `json:"rooms"`
}

// Manager indexes the live rooms and the lobby subscribers. Rooms guard
// their own state; the manager lock covers only its two maps, so
// cross-room operations proceed in parallel.
type Manager struct {
	mu    sync.Mutex
	rooms map[string]*Room
	lobby map[string]Subscriber

	actionTimeout time.Duration
	history       *history.Recorder
}

func NewManager(actionTimeout time.Duration, rec *history.Recorder) *Manager {
	return &Manager{
		rooms:         map[string]*Room{},
		lobby:         map[string]Subscriber{},
		actionTimeout: actionTimeout,
		history:       rec,
	}
}

// CreateRoom opens a room and seats the creator as its host.
func (m *Manager) CreateRoom(hostID, hostName, roomName string, buyIn int64, sub Subscriber) (string, error) {
	id := game.NewID()
	r := newRoom(id, roomName, m.actionTimeout, m.history, m.broadcastLobby)

	m.mu.Lock()
	m.rooms[id] = r
	m.mu.Unlock()

	if err := r.Join(hostID, hostName, buyIn, sub); err != nil {
		m.mu.Lock()
		delete(m.rooms, id)
		m.mu.Unlock()
		return "", err
	}
	log.Info().Str("room", id).Str("host", hostID).Msg("room_created")
	return id, nil
}

func (m *Manager) lookup(roomID string) (*Room, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rooms[roomID]
	if !ok {
		return nil, ErrRoomNotFound
	}
	return r, nil
}

func (m *Manager) JoinRoom(roomID, playerID, name string, buyIn int64, sub Subscriber) error {
	r, err := m.lookup(roomID)
	if err != nil {
		return err
	}
	return r.Join(playerID, name, buyIn, sub)
}

func (m *Manager) LeaveRoom(roomID, playerID string) error {
	r, err := m.lookup(roomID)
	if err != nil {
		return err
	}
	empty, err := r.Leave(playerID)
	if empty {
		m.mu.Lock()
		delete(m.rooms, roomID)
		m.mu.Unlock()
		log.Info().Str("room", roomID).Msg("room_destroyed")
	}
	return err
}

func (m *Manager) StartHand(roomID, requesterID string, buyIn, bigBlind int64) error {
	r, err := m.lookup(roomID)
	if err != nil {
		return err
	}
	return r.StartHand(requesterID, buyIn, bigBlind)
}

func (m *Manager) Action(roomID, playerID string, action game.ActionType, amount int64) error {
	r, err := m.lookup(roomID)
	if err != nil {
		return err
	}
	return r.Action(playerID, action, amount)
}

// Summaries lists every live room for the lobby.
func (m *Manager) Summaries() []Summary {
	m.mu.Lock()
	rooms := make([]*Room, 0, len(m.rooms))
	for _, r := range m.rooms {
		rooms = append(rooms, r)
	}
	m.mu.Unlock()

	out := make([]Summary, 0, len(rooms))
	for _, r := range rooms {
		r.mu.Lock()
		if !r.closed {
			hostName := ""
			for _, p := range r.players {
				if p.ID == r.hostID {
					hostName = p.Name
					break
				}
			}
			out = append(out, Summary{
				RoomID:   r.id,
				Name:     r.name,
				HostName: hostName,
				Players:  len(r.players),
				Stage:    string(r.stageLocked()),
			})
		}
		r.mu.Unlock()
	}
	// ULIDs sort by creation time, so the lobby lists oldest rooms first.
	sort.Slice(out, func(i, j int) bool { return out[i].RoomID < out[j].RoomID })
	return out
}

// SubscribeLobby registers a connection for room-list broadcasts.
func (m *Manager) SubscribeLobby(playerID string, sub Subscriber) {
	m.mu.Lock()
	m.lobby[playerID] = sub
	m.mu.Unlock()
}

func (m *Manager) UnsubscribeLobby(playerID string) {
	m.mu.Lock()
	delete(m.lobby, playerID)
	m.mu.Unlock()
}

// LobbyPayload renders the current room list as a wire message.
func (m *Manager) LobbyPayload() []byte {
	payload, err := json.Marshal(RoomsMessage{Type: "rooms", Rooms: m.Summaries()})
	if err != nil {
		return nil
	}
	return payload
}

func (m *Manager) broadcastLobby() {
	payload := m.LobbyPayload()
	if payload == nil {
		return
	}
	m.mu.Lock()
	subs := make([]Subscriber, 0, len(m.lobby))
	for _, sub := range m.lobby {
		subs = append(subs, sub)
	}
	m.mu.Unlock()
	for _, sub := range subs {
		sub.Send(payload)
	}
}
