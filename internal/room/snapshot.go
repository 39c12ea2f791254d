package room

import (
	"holdem-rooms/internal/game"
)

// Snapshot is the authoritative per-room state sent to one player. Hole
// cards are present only for the recipient, except at showdown/finished
// when every dealt hand is open.
type Snapshot struct {
	Type         string        `json:"type"`
	RoomID       string        `json:"room_id"`
	Name         string        `json:"name"`
	HostID       string        `json:"host_id"`
	Stage        string        `json:"stage"`
	Board        []string      `json:"board"`
	Pot          int64         `json:"pot"`
	SidePots     []int64       `json:"side_pots,omitempty"`
	CurrentBet   int64         `json:"current_bet"`
	MinRaise     int64         `json:"min_raise"`
	DealerPos    int           `json:"dealer_pos"`
	ActiveIndex  int           `json:"active_index"`
	PendingToAct int           `json:"pending_to_act"`
	Winners      []game.Winner `json:"winners,omitempty"`
	Players      []PlayerView  `json:"players"`
}

type PlayerView struct {
	ID                string   `json:"id"`
	Name              string   `json:"name"`
	Stack             int64    `json:"stack"`
	Folded            bool     `json:"folded"`
	AllIn             bool     `json:"all_in"`
	Contribution      int64    `json:"contribution"`
	RoundContribution int64    `json:"round_contribution"`
	HasActed          bool     `json:"has_acted"`
	LastAction        string   `json:"last_action,omitempty"`
	Payout            int64    `json:"payout,omitempty"`
	Hole              []string `json:"hole,omitempty"`
}

// rosterIndex maps a player ID to its current roster position. Hand
// positions are fixed at the deal, so anything positional in a snapshot
// has to be translated through the live roster; a departed player maps
// to -1.
func rosterIndex(players []*game.Player, id string) int {
	for i, p := range players {
		if p.ID == id {
			return i
		}
	}
	return -1
}

// snapshotFor must be called with the room lock held.
func (r *Room) snapshotFor(recipientID string) Snapshot {
	snap := Snapshot{
		Type:        "state",
		RoomID:      r.id,
		Name:        r.name,
		HostID:      r.hostID,
		Stage:       string(game.StageSetup),
		Board:       []string{},
		DealerPos:   -1,
		ActiveIndex: -1,
	}

	h := r.hand
	showAll := false
	if h != nil {
		snap.Stage = string(h.Stage)
		snap.Pot = h.Pot
		snap.CurrentBet = h.CurrentBet
		snap.MinRaise = h.MinRaise
		snap.DealerPos = rosterIndex(r.players, h.Players[h.DealerPos].ID)
		snap.PendingToAct = h.PendingToAct()
		snap.Winners = h.Winners
		for _, c := range h.Board[:h.Revealed] {
			snap.Board = append(snap.Board, c.String())
		}
		tiers := game.Tiers(h.Players)
		for i, t := range tiers {
			if i > 0 {
				snap.SidePots = append(snap.SidePots, t.Amount)
			}
		}
		if h.Active >= 0 {
			snap.ActiveIndex = rosterIndex(r.players, h.Players[h.Active].ID)
		}
		showAll = h.Stage == game.StageShowdown || h.Stage == game.StageFinished
	}

	for _, p := range r.players {
		view := PlayerView{
			ID:                p.ID,
			Name:              p.Name,
			Stack:             p.Stack,
			Folded:            p.Folded,
			AllIn:             p.AllIn,
			Contribution:      p.Contribution,
			RoundContribution: p.RoundContribution,
			HasActed:          p.HasActed,
			LastAction:        string(p.LastAction),
			Payout:            p.Payout,
		}
		if len(p.Hole) > 0 && (p.ID == recipientID || showAll) {
			for _, c := range p.Hole {
				view.Hole = append(view.Hole, c.String())
			}
		}
		snap.Players = append(snap.Players, view)
	}
	return snap
}
