package game

import "errors"

var (
	ErrInvalidAction  = errors.New("invalid_action")
	ErrNotYourTurn    = errors.New("not_your_turn")
	ErrRoundNotActive = errors.New("round_not_active")
)

type ActionType string

const (
	ActionFold  ActionType = "fold"
	ActionCheck ActionType = "check"
	ActionCall  ActionType = "call"
	ActionRaise ActionType = "raise"
)

type Stage string

const (
	StageSetup    Stage = "setup"
	StagePreflop  Stage = "preflop"
	StageFlop     Stage = "flop"
	StageTurn     Stage = "turn"
	StageRiver    Stage = "river"
	StageShowdown Stage = "showdown"
	StageFinished Stage = "finished"
)

// Player is a seat at the table. The struct outlives individual hands:
// the room owns it and NewHand resets the per-hand fields in place.
type Player struct {
	ID                string
	Name              string
	Stack             int64
	Hole              []Card
	Contribution      int64
	RoundContribution int64
	Folded            bool
	AllIn             bool
	HasActed          bool
	LastAction        ActionType
	Payout            int64

	// raiseBarred marks a player whose only remaining options are call or
	// fold because an all-in under-raise landed after they had already
	// matched the previous full bet.
	raiseBarred bool
}

func (p *Player) resetForHand() {
	p.Hole = nil
	p.Contribution = 0
	p.RoundContribution = 0
	p.Folded = false
	p.AllIn = false
	p.HasActed = false
	p.LastAction = ""
	p.Payout = 0
	p.raiseBarred = false
}

type Winner struct {
	PlayerID string   `json:"player_id"`
	Amount   int64    `json:"amount"`
	Rank     HandRank `json:"rank"`
}
