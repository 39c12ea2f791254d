package room

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"holdem-rooms/internal/game"
)

type fakeSub struct {
	mu       sync.Mutex
	payloads [][]byte
}

func (f *fakeSub) Send(payload []byte) {
	f.mu.Lock()
	f.payloads = append(f.payloads, append([]byte{}, payload...))
	f.mu.Unlock()
}

func (f *fakeSub) last() []byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.payloads) == 0 {
		return nil
	}
	return f.payloads[len(f.payloads)-1]
}

func newTestManager() *Manager {
	return NewManager(0, nil)
}

func seatPlayers(t *testing.T, m *Manager, n int) (string, []*fakeSub) {
	t.Helper()
	subs := make([]*fakeSub, n)
	subs[0] = &fakeSub{}
	roomID, err := m.CreateRoom("p0", "p0", "table one", 1000, subs[0])
	if err != nil {
		t.Fatalf("create room: %v", err)
	}
	for i := 1; i < n; i++ {
		subs[i] = &fakeSub{}
		id := fmt.Sprintf("p%d", i)
		if err := m.JoinRoom(roomID, id, id, 1000, subs[i]); err != nil {
			t.Fatalf("join %s: %v", id, err)
		}
	}
	return roomID, subs
}

func TestJoinRejectsSeventhPlayer(t *testing.T) {
	m := newTestManager()
	roomID, _ := seatPlayers(t, m, 6)
	err := m.JoinRoom(roomID, "p6", "p6", 1000, &fakeSub{})
	if !errors.Is(err, ErrRoomFull) {
		t.Fatalf("expected room_full, got %v", err)
	}
}

func TestJoinUnknownRoom(t *testing.T) {
	m := newTestManager()
	err := m.JoinRoom("missing", "p0", "p0", 1000, &fakeSub{})
	if !errors.Is(err, ErrRoomNotFound) {
		t.Fatalf("expected room_not_found, got %v", err)
	}
}

func TestLeaveTransfersHostAndDestroysEmptyRoom(t *testing.T) {
	m := newTestManager()
	roomID, _ := seatPlayers(t, m, 2)

	if err := m.LeaveRoom(roomID, "p0"); err != nil {
		t.Fatalf("leave: %v", err)
	}
	r, err := m.lookup(roomID)
	if err != nil {
		t.Fatalf("room should survive with one player: %v", err)
	}
	r.mu.Lock()
	host := r.hostID
	r.mu.Unlock()
	if host != "p1" {
		t.Fatalf("host rights should transfer, got %s", host)
	}

	if err := m.LeaveRoom(roomID, "p1"); err != nil {
		t.Fatalf("leave: %v", err)
	}
	if _, err := m.lookup(roomID); !errors.Is(err, ErrRoomNotFound) {
		t.Fatalf("empty room must be destroyed, got %v", err)
	}
}

func TestStartHandAuthorization(t *testing.T) {
	m := newTestManager()
	roomID, _ := seatPlayers(t, m, 3)

	if err := m.StartHand(roomID, "p1", 1000, 100); !errors.Is(err, ErrNotHost) {
		t.Fatalf("expected not_host, got %v", err)
	}
	if err := m.StartHand(roomID, "p0", 1000, 100); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := m.StartHand(roomID, "p0", 1000, 100); !errors.Is(err, ErrAlreadyInProgress) {
		t.Fatalf("expected already_in_progress, got %v", err)
	}
}

func TestStartHandNeedsTwoPlayers(t *testing.T) {
	m := newTestManager()
	roomID, err := m.CreateRoom("solo", "solo", "lonely", 1000, &fakeSub{})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := m.StartHand(roomID, "solo", 1000, 100); !errors.Is(err, ErrNotEnoughPlayers) {
		t.Fatalf("expected not_enough_players, got %v", err)
	}
}

func TestActionGuards(t *testing.T) {
	m := newTestManager()
	roomID, _ := seatPlayers(t, m, 3)

	if err := m.Action(roomID, "p0", game.ActionCall, 0); !errors.Is(err, game.ErrRoundNotActive) {
		t.Fatalf("expected round_not_active before the deal, got %v", err)
	}
	if err := m.StartHand(roomID, "p0", 1000, 100); err != nil {
		t.Fatalf("start: %v", err)
	}
	// Dealer is seat 0, so seat 0 is first to act; seat 1 is out of turn.
	if err := m.Action(roomID, "p1", game.ActionCall, 0); !errors.Is(err, game.ErrNotYourTurn) {
		t.Fatalf("expected not_your_turn, got %v", err)
	}
	if err := m.Action(roomID, "p0", game.ActionCall, 0); err != nil {
		t.Fatalf("call: %v", err)
	}
}

func TestSnapshotRedactionAndIdempotence(t *testing.T) {
	m := newTestManager()
	roomID, _ := seatPlayers(t, m, 2)
	if err := m.StartHand(roomID, "p0", 1000, 100); err != nil {
		t.Fatalf("start: %v", err)
	}
	r, err := m.lookup(roomID)
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}

	r.mu.Lock()
	own, _ := json.Marshal(r.snapshotFor("p0"))
	ownAgain, _ := json.Marshal(r.snapshotFor("p0"))
	other, _ := json.Marshal(r.snapshotFor("p1"))
	r.mu.Unlock()

	if !bytes.Equal(own, ownAgain) {
		t.Fatalf("snapshot for an unchanged room must be byte-identical")
	}

	var snap Snapshot
	if err := json.Unmarshal(own, &snap); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	for _, p := range snap.Players {
		if p.ID == "p0" && len(p.Hole) != 2 {
			t.Fatalf("recipient must see their own hole cards, got %v", p.Hole)
		}
		if p.ID != "p0" && len(p.Hole) != 0 {
			t.Fatalf("recipient must not see other hole cards, got %v", p.Hole)
		}
	}

	var otherSnap Snapshot
	if err := json.Unmarshal(other, &otherSnap); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	for _, p := range otherSnap.Players {
		if p.ID == "p0" && len(p.Hole) != 0 {
			t.Fatalf("p1's view must hide p0's cards before showdown")
		}
	}
}

func TestLeaveMidHandFoldsAndPaysSurvivor(t *testing.T) {
	m := newTestManager()
	roomID, subs := seatPlayers(t, m, 2)
	if err := m.StartHand(roomID, "p0", 1000, 100); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := m.LeaveRoom(roomID, "p0"); err != nil {
		t.Fatalf("leave: %v", err)
	}

	var snap Snapshot
	if err := json.Unmarshal(subs[1].last(), &snap); err != nil {
		t.Fatalf("unmarshal last state: %v", err)
	}
	if snap.Stage != string(game.StageFinished) {
		t.Fatalf("hand should finish when the only opponent leaves, got %s", snap.Stage)
	}
	if len(snap.Winners) != 1 || snap.Winners[0].PlayerID != "p1" {
		t.Fatalf("survivor should win, got %+v", snap.Winners)
	}
	// Blinds were 50/100: p1 keeps their own 100 and wins p0's 50.
	if snap.Winners[0].Amount != 150 {
		t.Fatalf("expected 150 pot, got %d", snap.Winners[0].Amount)
	}
}

func TestLobbyBroadcastOnRoomChanges(t *testing.T) {
	m := newTestManager()
	lobby := &fakeSub{}
	m.SubscribeLobby("watcher", lobby)

	roomID, _ := seatPlayers(t, m, 2)

	last := lobby.last()
	if last == nil {
		t.Fatalf("lobby subscriber should have been notified")
	}
	var msg RoomsMessage
	if err := json.Unmarshal(last, &msg); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if msg.Type != "rooms" || len(msg.Rooms) != 1 {
		t.Fatalf("unexpected lobby payload %s", last)
	}
	got := msg.Rooms[0]
	if got.RoomID != roomID || got.Players != 2 || got.Stage != string(game.StageSetup) {
		t.Fatalf("unexpected summary %+v", got)
	}
	if !strings.Contains(string(last), "table one") {
		t.Fatalf("summary should carry the room name")
	}
}

func TestTurnTimerAutoFolds(t *testing.T) {
	m := NewManager(20*time.Millisecond, nil)
	roomID, subs := seatPlayers(t, m, 2)
	if err := m.StartHand(roomID, "p0", 1000, 100); err != nil {
		t.Fatalf("start: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		var snap Snapshot
		if payload := subs[1].last(); payload != nil {
			if err := json.Unmarshal(payload, &snap); err == nil &&
				snap.Stage == string(game.StageFinished) {
				if len(snap.Winners) != 1 || snap.Winners[0].PlayerID != "p1" {
					t.Fatalf("timeout should fold the active seat, got %+v", snap.Winners)
				}
				return
			}
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("turn timer never folded the active player")
}

func TestSnapshotDealerTracksRoster(t *testing.T) {
	m := newTestManager()
	roomID, _ := seatPlayers(t, m, 3)
	r, err := m.lookup(roomID)
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	// Put the button on seat 1 (p1) for the next deal.
	r.mu.Lock()
	r.dealerPos = 0
	r.mu.Unlock()
	if err := m.StartHand(roomID, "p0", 1000, 100); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := m.LeaveRoom(roomID, "p0"); err != nil {
		t.Fatalf("leave: %v", err)
	}

	r.mu.Lock()
	snap := r.snapshotFor("p1")
	r.mu.Unlock()
	if len(snap.Players) != 2 || snap.Players[0].ID != "p1" {
		t.Fatalf("unexpected roster %+v", snap.Players)
	}
	// p1 holds the button and now sits at roster index 0.
	if snap.DealerPos != 0 {
		t.Fatalf("button should follow p1 to roster index 0, got %d", snap.DealerPos)
	}
}

func TestJoinDoesNotExtendTurnTimer(t *testing.T) {
	m := NewManager(time.Minute, nil)
	roomID, _ := seatPlayers(t, m, 2)
	if err := m.StartHand(roomID, "p0", 1000, 100); err != nil {
		t.Fatalf("start: %v", err)
	}
	r, err := m.lookup(roomID)
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}

	r.mu.Lock()
	before := r.seq
	r.mu.Unlock()

	if err := m.JoinRoom(roomID, "p2", "p2", 1000, &fakeSub{}); err != nil {
		t.Fatalf("join: %v", err)
	}
	r.mu.Lock()
	afterJoin := r.seq
	armed := r.timer != nil
	r.mu.Unlock()
	if afterJoin != before {
		t.Fatalf("a join must not restart the active player's clock, seq %d -> %d", before, afterJoin)
	}
	if !armed {
		t.Fatalf("timer should stay armed for the active seat")
	}

	if err := m.Action(roomID, "p0", game.ActionCall, 0); err != nil {
		t.Fatalf("call: %v", err)
	}
	r.mu.Lock()
	afterAction := r.seq
	r.mu.Unlock()
	if afterAction == before {
		t.Fatalf("an action must advance the turn sequence")
	}
}

func TestChipConservationAcrossFullHand(t *testing.T) {
	m := newTestManager()
	roomID, _ := seatPlayers(t, m, 3)
	if err := m.StartHand(roomID, "p0", 1000, 100); err != nil {
		t.Fatalf("start: %v", err)
	}
	r, err := m.lookup(roomID)
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}

	// Play every street to showdown with calls and checks.
	for i := 0; i < 100; i++ {
		r.mu.Lock()
		h := r.hand
		inProgress := h.InProgress()
		var activeID string
		if inProgress && h.Active >= 0 {
			activeID = h.Players[h.Active].ID
		}
		r.mu.Unlock()
		if !inProgress {
			break
		}
		if err := m.Action(roomID, activeID, game.ActionCall, 0); err != nil {
			t.Fatalf("call by %s: %v", activeID, err)
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.hand.Stage != game.StageFinished {
		t.Fatalf("hand did not finish, stage %s", r.hand.Stage)
	}
	total := int64(0)
	for _, p := range r.players {
		total += p.Stack
	}
	if total != 3000 {
		t.Fatalf("chips created or destroyed: stacks sum to %d", total)
	}
	paid := int64(0)
	for _, w := range r.hand.Winners {
		paid += w.Amount
	}
	if paid != r.hand.Pot {
		t.Fatalf("payouts %d != pot %d", paid, r.hand.Pot)
	}
}
