package game

import (
	"reflect"
	"testing"
)

func TestTiersSidePotScenario(t *testing.T) {
	players := []*Player{
		{ID: "a", Contribution: 100, AllIn: true},
		{ID: "b", Contribution: 300},
		{ID: "c", Contribution: 300},
	}
	tiers := Tiers(players)
	if len(tiers) != 2 {
		t.Fatalf("expected 2 tiers, got %d", len(tiers))
	}
	if tiers[0].Level != 100 || tiers[0].Amount != 300 {
		t.Fatalf("expected first tier 100/300, got %+v", tiers[0])
	}
	if tiers[1].Level != 300 || tiers[1].Amount != 400 {
		t.Fatalf("expected second tier 300/400, got %+v", tiers[1])
	}
	if tiers[0].Amount+tiers[1].Amount != 700 {
		t.Fatalf("tiers must sum to the pot")
	}
}

func TestSplitChipsRemainder(t *testing.T) {
	if got := splitChips(101, 2); !reflect.DeepEqual(got, []int64{51, 50}) {
		t.Fatalf("expected [51 50], got %v", got)
	}
	if got := splitChips(100, 3); !reflect.DeepEqual(got, []int64{34, 33, 33}) {
		t.Fatalf("expected [34 33 33], got %v", got)
	}
}

func TestSettlePotsSidePot(t *testing.T) {
	short := &Player{ID: "short", Contribution: 100, AllIn: true}
	mid := &Player{ID: "mid", Contribution: 300}
	big := &Player{ID: "big", Contribution: 300}
	ranks := map[string]HandRank{
		"short": {Category: FourOfAKind, Kickers: []int{9, 5}},
		"mid":   {Category: Flush, Kickers: []int{13, 10, 8, 4, 2}},
		"big":   {Category: Pair, Kickers: []int{8, 14, 10, 4}},
	}
	payouts, err := settlePots([]*Player{short, mid, big}, ranks)
	if err != nil {
		t.Fatalf("settle: %v", err)
	}
	// Best hand only contributed 100: it wins the 300 main tier, the 400
	// side tier goes to the best of the full contributors.
	if payouts["short"] != 300 {
		t.Fatalf("expected short to win 300, got %d", payouts["short"])
	}
	if payouts["mid"] != 400 {
		t.Fatalf("expected mid to win 400, got %d", payouts["mid"])
	}
	if payouts["big"] != 0 {
		t.Fatalf("expected big to win nothing, got %d", payouts["big"])
	}
	if payouts["short"]+payouts["mid"]+payouts["big"] != 700 {
		t.Fatalf("payouts must sum to the 700 pot")
	}
}

func TestSettlePotsTieSplitsWithDeterministicRemainder(t *testing.T) {
	a := &Player{ID: "a", Contribution: 101}
	b := &Player{ID: "b", Contribution: 101}
	c := &Player{ID: "c", Contribution: 101, Folded: true}
	same := HandRank{Category: TwoPair, Kickers: []int{10, 5, 14}}
	ranks := map[string]HandRank{"a": same, "b": same}

	payouts, err := settlePots([]*Player{a, b, c}, ranks)
	if err != nil {
		t.Fatalf("settle: %v", err)
	}
	// 303 chips two ways: the earlier seat takes the odd chip.
	if payouts["a"] != 152 || payouts["b"] != 151 {
		t.Fatalf("expected 152/151, got a=%d b=%d", payouts["a"], payouts["b"])
	}
}

func TestSettlePotsTopTierWithNoEligibleFallsThrough(t *testing.T) {
	// The biggest contributor folded, so the top layer has no direct
	// eligible player and falls to the best live hand.
	folded := &Player{ID: "folded", Contribution: 500, Folded: true}
	live1 := &Player{ID: "live1", Contribution: 200}
	live2 := &Player{ID: "live2", Contribution: 200}
	ranks := map[string]HandRank{
		"live1": {Category: Straight, Kickers: []int{9}},
		"live2": {Category: Pair, Kickers: []int{14, 13, 12, 10}},
	}
	payouts, err := settlePots([]*Player{folded, live1, live2}, ranks)
	if err != nil {
		t.Fatalf("settle: %v", err)
	}
	total := payouts["live1"] + payouts["live2"]
	if total != 900 {
		t.Fatalf("expected full 900 pot distributed, got %d", total)
	}
	if payouts["live2"] != 0 {
		t.Fatalf("losing hand should win nothing, got %d", payouts["live2"])
	}
}
