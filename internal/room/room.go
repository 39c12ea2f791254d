package room

import (
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"holdem-rooms/internal/game"
	"holdem-rooms/internal/history"
)

const MaxPlayers = 6

// Subscriber receives finished outbound payloads for one connection.
// Implementations must not block.
type Subscriber interface {
	Send(payload []byte)
}

// Room owns one table: roster, host rights, the in-progress hand and the
// subscriber list. All state is guarded by mu; broadcasts are composed
// under the lock and delivered after it is released.
type Room struct {
	mu      sync.Mutex
	id      string
	name    string
	hostID  string
	players []*game.Player
	subs    map[string]Subscriber
	hand    *game.Hand
	closed  bool

	dealerPos     int
	seq           uint64 // bumps when the turn changes; stale timers check it
	timer         *time.Timer
	actionTimeout time.Duration

	history *history.Recorder
	notify  func() // lobby change callback, invoked outside the lock
}

func newRoom(id, name string, actionTimeout time.Duration, rec *history.Recorder, notify func()) *Room {
	return &Room{
		id:            id,
		name:          name,
		subs:          map[string]Subscriber{},
		dealerPos:     -1,
		actionTimeout: actionTimeout,
		history:       rec,
		notify:        notify,
	}
}

func (r *Room) ID() string { return r.id }

type delivery struct {
	sub     Subscriber
	payload []byte
}

// mutate serializes a state change, then broadcasts fresh snapshots to
// every subscriber and fires the lobby callback if the room's summary
// changed. Failed mutations broadcast nothing: they never touch state.
func (r *Room) mutate(fn func() error) error {
	r.mu.Lock()
	beforeStage, beforeCount := r.summaryKey()
	beforeHand, beforeSeat := r.turnKeyLocked()
	err := fn()
	var outs []delivery
	lobbyChanged := false
	if err == nil {
		if afterHand, afterSeat := r.turnKeyLocked(); afterHand != beforeHand || afterSeat != beforeSeat {
			r.seq++
			r.armTimerLocked()
		}
		outs = r.stateDeliveriesLocked()
		afterStage, afterCount := r.summaryKey()
		lobbyChanged = beforeStage != afterStage || beforeCount != afterCount || r.closed
	}
	notify := r.notify
	r.mu.Unlock()

	for _, d := range outs {
		d.sub.Send(d.payload)
	}
	if err == nil && lobbyChanged && notify != nil {
		notify()
	}
	return err
}

// turnKeyLocked identifies whose turn it is right now. The action timer
// is rearmed only when this changes, so an unrelated join or leave never
// extends the active player's clock.
func (r *Room) turnKeyLocked() (string, int) {
	if r.hand == nil || !r.hand.InProgress() {
		return "", -1
	}
	return r.hand.ID, r.hand.Active
}

func (r *Room) summaryKey() (string, int) {
	return string(r.stageLocked()), len(r.players)
}

func (r *Room) stageLocked() game.Stage {
	if r.hand == nil {
		return game.StageSetup
	}
	return r.hand.Stage
}

func (r *Room) stateDeliveriesLocked() []delivery {
	outs := make([]delivery, 0, len(r.subs))
	for playerID, sub := range r.subs {
		payload, err := json.Marshal(r.snapshotFor(playerID))
		if err != nil {
			continue
		}
		outs = append(outs, delivery{sub: sub, payload: payload})
	}
	return outs
}

// Join seats a player with their buy-in as the starting stack. Joining
// during a hand is allowed; the player sits out until the next deal.
func (r *Room) Join(playerID, name string, buyIn int64, sub Subscriber) error {
	return r.mutate(func() error {
		if r.closed {
			return ErrRoomNotFound
		}
		for _, p := range r.players {
			if p.ID == playerID {
				r.subs[playerID] = sub
				return nil
			}
		}
		if len(r.players) >= MaxPlayers {
			return ErrRoomFull
		}
		r.players = append(r.players, &game.Player{ID: playerID, Name: name, Stack: buyIn})
		r.subs[playerID] = sub
		if r.hostID == "" {
			r.hostID = playerID
		}
		return nil
	})
}

// Leave removes a player. Mid-hand it counts as an immediate fold. Host
// rights transfer to the first remaining seat. Returns true when the
// room emptied and must be destroyed.
func (r *Room) Leave(playerID string) (bool, error) {
	var empty bool
	err := r.mutate(func() error {
		idx := -1
		for i, p := range r.players {
			if p.ID == playerID {
				idx = i
				break
			}
		}
		if idx < 0 {
			return ErrRoomNotFound
		}

		if r.hand != nil && r.hand.InProgress() {
			if r.hand.ForcedFold(playerID) {
				r.recordIfFinishedLocked()
			}
		}

		r.players = append(r.players[:idx], r.players[idx+1:]...)
		delete(r.subs, playerID)
		if r.hostID == playerID && len(r.players) > 0 {
			r.hostID = r.players[0].ID
			log.Info().Str("room", r.id).Str("host", r.hostID).Msg("host_transfer")
		}
		if len(r.players) == 0 {
			r.closed = true
			r.stopTimerLocked()
			empty = true
		}
		return nil
	})
	return empty, err
}

// StartHand deals a new hand. Host only, needs at least two seats, and
// the previous hand must be over. Seats that busted to zero are restaked
// to buyIn so they can post blinds.
func (r *Room) StartHand(requesterID string, buyIn, bigBlind int64) error {
	return r.mutate(func() error {
		if r.closed {
			return ErrRoomNotFound
		}
		if requesterID != r.hostID {
			return ErrNotHost
		}
		if r.hand != nil && r.hand.InProgress() {
			return ErrAlreadyInProgress
		}
		if len(r.players) < 2 {
			return ErrNotEnoughPlayers
		}
		if bigBlind < 2 {
			return game.ErrInvalidAction
		}
		for _, p := range r.players {
			if p.Stack == 0 && buyIn > 0 {
				p.Stack = buyIn
			}
			if p.Stack == 0 {
				return game.ErrInvalidAction
			}
		}

		r.dealerPos = (r.dealerPos + 1) % len(r.players)
		seats := append([]*game.Player{}, r.players...)
		r.hand = game.NewHand(seats, r.dealerPos, bigBlind/2, bigBlind)

		ids := make([]string, len(seats))
		for i, p := range seats {
			ids[i] = p.ID
		}
		r.history.HandStarted(r.hand.ID, r.id, ids)
		log.Info().Str("room", r.id).Str("hand", r.hand.ID).Int("players", len(seats)).Msg("hand_start")
		r.recordIfFinishedLocked()
		return nil
	})
}

// Action applies one betting action from playerID.
func (r *Room) Action(playerID string, action game.ActionType, amount int64) error {
	return r.mutate(func() error {
		if r.closed {
			return ErrRoomNotFound
		}
		if r.hand == nil || !r.hand.InProgress() {
			return game.ErrRoundNotActive
		}
		if err := r.hand.Apply(playerID, action, amount); err != nil {
			return err
		}
		r.history.ActionApplied(r.hand.ID, playerID, string(action), amount)
		r.recordIfFinishedLocked()
		return nil
	})
}

// recordIfFinishedLocked logs and records settlement once a hand ends.
func (r *Room) recordIfFinishedLocked() {
	h := r.hand
	if h == nil || h.Stage != game.StageFinished {
		return
	}
	if err := h.SettleError(); err != nil {
		log.Error().Err(err).Str("room", r.id).Str("hand", h.ID).Msg("hand_voided")
		return
	}
	r.history.HandSettled(h.ID, h.Pot, h.Winners)
	log.Info().Str("room", r.id).Str("hand", h.ID).Int64("pot", h.Pot).Msg("hand_end")
}

func (r *Room) stopTimerLocked() {
	if r.timer != nil {
		r.timer.Stop()
		r.timer = nil
	}
}

// armTimerLocked schedules an auto-fold for the active seat. The timer
// captures the current turn sequence and re-checks it under the lock
// before firing, so it can never race a real action for the same seat.
func (r *Room) armTimerLocked() {
	r.stopTimerLocked()
	if r.actionTimeout <= 0 || r.closed {
		return
	}
	if r.hand == nil || !r.hand.InProgress() || r.hand.Active < 0 {
		return
	}
	seq := r.seq
	r.timer = time.AfterFunc(r.actionTimeout, func() {
		r.expireTurn(seq)
	})
}

func (r *Room) expireTurn(seq uint64) {
	err := r.mutate(func() error {
		if r.closed || r.seq != seq {
			return errStaleTimer
		}
		h := r.hand
		if h == nil || !h.InProgress() || h.Active < 0 {
			return errStaleTimer
		}
		playerID := h.Players[h.Active].ID
		if !h.ForcedFold(playerID) {
			return errStaleTimer
		}
		log.Info().Str("room", r.id).Str("player", playerID).Msg("turn_timeout_fold")
		r.recordIfFinishedLocked()
		return nil
	})
	_ = err
}

// errStaleTimer marks a timer that lost the race to a real action; the
// mutation is abandoned without broadcasting.
var errStaleTimer = errors.New("stale_timer")
