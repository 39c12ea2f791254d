package game

// Hand runs one deal from blinds to settlement. It is not goroutine safe;
// the owning room serializes access.
type Hand struct {
	ID            string
	Players       []*Player // seat order fixed at the deal
	Board         []Card    // all five cards pre-dealt, revealed by street
	Revealed      int       // 0, 3, 4 or 5
	Stage         Stage
	Pot           int64
	CurrentBet    int64
	MinRaise      int64
	DealerPos     int
	Active        int // seat index that must act, -1 when none
	LastAggressor int
	SmallBlind    int64
	BigBlind      int64
	Winners       []Winner

	deck      *Deck
	settleErr error
}

// NewHand shuffles a fresh deck, deals two hole cards per player and the
// face-down board, posts the blinds and computes the first actor. The
// button posts the small blind heads-up. Blinds may put a short stack
// all-in; if nobody can act at all, the board runs out immediately.
func NewHand(players []*Player, dealerPos int, smallBlind, bigBlind int64) *Hand {
	h := &Hand{
		ID:            NewID(),
		Players:       players,
		Stage:         StagePreflop,
		MinRaise:      bigBlind,
		DealerPos:     dealerPos,
		Active:        -1,
		LastAggressor: -1,
		SmallBlind:    smallBlind,
		BigBlind:      bigBlind,
		deck:          NewDeck(),
	}
	h.deck.Shuffle()

	for _, p := range players {
		p.resetForHand()
		p.Hole = []Card{h.deck.Deal(), h.deck.Deal()}
	}
	for i := 0; i < 5; i++ {
		h.Board = append(h.Board, h.deck.Deal())
	}

	n := len(players)
	sbPos := (dealerPos + 1) % n
	bbPos := (dealerPos + 2) % n
	if n == 2 {
		sbPos = dealerPos
		bbPos = (dealerPos + 1) % n
	}
	h.post(players[sbPos], smallBlind)
	h.post(players[bbPos], bigBlind)
	h.CurrentBet = bigBlind

	if next := h.nextToAct(bbPos); next >= 0 {
		h.Active = next
	} else {
		h.closeStreet()
	}
	return h
}

// post moves chips for a blind, capped at the player's stack.
func (h *Hand) post(p *Player, amount int64) {
	if amount > p.Stack {
		amount = p.Stack
	}
	h.pay(p, amount)
}

func (h *Hand) pay(p *Player, amount int64) {
	p.Stack -= amount
	p.Contribution += amount
	p.RoundContribution += amount
	h.Pot += amount
	if p.Stack == 0 {
		p.AllIn = true
	}
}

// InProgress reports whether a betting street is open.
func (h *Hand) InProgress() bool {
	switch h.Stage {
	case StagePreflop, StageFlop, StageTurn, StageRiver:
		return true
	}
	return false
}

// SettleError is non-nil when showdown resolution had to be voided.
func (h *Hand) SettleError() error {
	return h.settleErr
}

func (h *Hand) indexOf(playerID string) int {
	for i, p := range h.Players {
		if p.ID == playerID {
			return i
		}
	}
	return -1
}

// needsAction: still in the hand, has chips behind, and either has not
// spoken this street or is facing a bet above their round contribution.
func needsAction(p *Player, currentBet int64) bool {
	if p.Folded || p.AllIn {
		return false
	}
	return !p.HasActed || p.RoundContribution < currentBet
}

// nextToAct scans the seats after from, wrapping, and returns the first
// one that needs action, or -1 when the street can close.
func (h *Hand) nextToAct(from int) int {
	n := len(h.Players)
	for i := 1; i <= n; i++ {
		idx := (from + i) % n
		if needsAction(h.Players[idx], h.CurrentBet) {
			return idx
		}
	}
	return -1
}

// PendingToAct counts the players that still must respond before the
// street closes.
func (h *Hand) PendingToAct() int {
	if !h.InProgress() {
		return 0
	}
	n := 0
	for _, p := range h.Players {
		if needsAction(p, h.CurrentBet) {
			n++
		}
	}
	return n
}

func (h *Hand) aliveCount() int {
	n := 0
	for _, p := range h.Players {
		if !p.Folded {
			n++
		}
	}
	return n
}

func (h *Hand) actionableCount() int {
	n := 0
	for _, p := range h.Players {
		if !p.Folded && !p.AllIn {
			n++
		}
	}
	return n
}

// Apply validates and applies an action from playerID. Errors leave the
// hand untouched. Check is accepted as an alias for call when there is
// nothing to call.
func (h *Hand) Apply(playerID string, action ActionType, amount int64) error {
	if !h.InProgress() {
		return ErrRoundNotActive
	}
	idx := h.indexOf(playerID)
	if idx < 0 || idx != h.Active {
		return ErrNotYourTurn
	}
	p := h.Players[idx]

	switch action {
	case ActionFold:
		p.Folded = true
		p.LastAction = ActionFold
	case ActionCall, ActionCheck:
		toCall := h.CurrentBet - p.RoundContribution
		if toCall < 0 {
			toCall = 0
		}
		if action == ActionCheck && toCall > 0 {
			return ErrInvalidAction
		}
		pay := toCall
		if pay > p.Stack {
			pay = p.Stack
		}
		h.pay(p, pay)
		if toCall == 0 {
			p.LastAction = ActionCheck
		} else {
			p.LastAction = ActionCall
		}
	case ActionRaise:
		if err := h.applyRaise(p, amount); err != nil {
			return err
		}
		h.LastAggressor = idx
		p.LastAction = ActionRaise
	default:
		return ErrInvalidAction
	}
	p.HasActed = true

	h.advance()
	return nil
}

// applyRaise handles raise-to semantics: amount is the total round
// contribution the raiser moves to. A raise below currentBet+minRaise is
// only legal as an all-in, and such an under-raise does not reopen
// raising for players who already fully acted on the prior bet.
func (h *Hand) applyRaise(p *Player, amount int64) error {
	if p.raiseBarred {
		return ErrInvalidAction
	}
	need := amount - p.RoundContribution
	if amount <= h.CurrentBet || need <= 0 || need > p.Stack {
		return ErrInvalidAction
	}
	allIn := need == p.Stack
	fullRaise := amount >= h.CurrentBet+h.MinRaise
	if !fullRaise && !allIn {
		return ErrInvalidAction
	}

	prevBet := h.CurrentBet
	h.pay(p, need)
	if fullRaise {
		h.MinRaise = amount - prevBet
		for _, q := range h.Players {
			q.raiseBarred = false
		}
	} else {
		for _, q := range h.Players {
			if q != p && q.HasActed && q.RoundContribution >= prevBet {
				q.raiseBarred = true
			}
		}
	}
	h.CurrentBet = amount
	return nil
}

// ForcedFold folds playerID regardless of turn, for leaves, disconnects
// and turn timeouts. Reports whether the hand state changed.
func (h *Hand) ForcedFold(playerID string) bool {
	if !h.InProgress() {
		return false
	}
	idx := h.indexOf(playerID)
	if idx < 0 {
		return false
	}
	p := h.Players[idx]
	if p.Folded {
		return false
	}
	p.Folded = true
	p.HasActed = true
	p.LastAction = ActionFold

	if h.aliveCount() <= 1 {
		h.settleFoldOut()
		return true
	}
	if idx == h.Active {
		if next := h.nextToAct(h.Active); next >= 0 {
			h.Active = next
		} else {
			h.closeStreet()
		}
	}
	return true
}

func (h *Hand) advance() {
	if h.aliveCount() <= 1 {
		h.settleFoldOut()
		return
	}
	if next := h.nextToAct(h.Active); next >= 0 {
		h.Active = next
		return
	}
	h.closeStreet()
}

// closeStreet resets the round state and reveals the next board cards.
// Streets with fewer than two actionable players run out with no betting
// until showdown.
func (h *Hand) closeStreet() {
	for {
		for _, p := range h.Players {
			p.RoundContribution = 0
			p.HasActed = false
			p.raiseBarred = false
		}
		h.CurrentBet = 0
		h.MinRaise = h.BigBlind
		h.LastAggressor = -1
		h.Active = -1

		switch h.Stage {
		case StagePreflop:
			h.Revealed = 3
			h.Stage = StageFlop
		case StageFlop:
			h.Revealed = 4
			h.Stage = StageTurn
		case StageTurn:
			h.Revealed = 5
			h.Stage = StageRiver
		case StageRiver:
			h.settleShowdown()
			return
		default:
			return
		}

		if h.actionableCount() >= 2 {
			if next := h.nextToAct(h.DealerPos); next >= 0 {
				h.Active = next
				return
			}
		}
	}
}

// settleFoldOut pays the whole pot to the sole unfolded player without
// evaluating hands or revealing further board cards.
func (h *Hand) settleFoldOut() {
	var winner *Player
	for _, p := range h.Players {
		if !p.Folded {
			winner = p
			break
		}
	}
	h.Active = -1
	if winner == nil {
		h.Stage = StageFinished
		return
	}
	winner.Stack += h.Pot
	winner.Payout = h.Pot
	h.Winners = []Winner{{PlayerID: winner.ID, Amount: h.Pot}}
	h.Stage = StageFinished
}

func (h *Hand) settleShowdown() {
	h.Stage = StageShowdown
	h.Revealed = 5
	h.Active = -1

	ranks := map[string]HandRank{}
	for _, p := range h.Players {
		if p.Folded {
			continue
		}
		seven := append([]Card{}, p.Hole...)
		seven = append(seven, h.Board...)
		ranks[p.ID] = Evaluate7(seven)
	}

	payouts, err := settlePots(h.Players, ranks)
	if err != nil {
		// Safety net: void the hand rather than corrupt chip accounting.
		h.settleErr = err
		h.Winners = nil
		h.Stage = StageFinished
		return
	}
	for _, p := range h.Players {
		amount := payouts[p.ID]
		if amount == 0 {
			continue
		}
		p.Stack += amount
		p.Payout = amount
		h.Winners = append(h.Winners, Winner{PlayerID: p.ID, Amount: amount, Rank: ranks[p.ID]})
	}
	h.Stage = StageFinished
}
