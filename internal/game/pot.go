package game

import (
	"errors"
	"sort"
)

// Tier is one layer of the pot. Level is the per-player contribution the
// tier caps out at; Amount is the chips collected for this layer across
// every contributor, folded players included.
type Tier struct {
	Level  int64
	Amount int64
}

// Tiers slices the pot by the distinct positive contribution levels in
// ascending order. For each level the layer holds
// (level - previousLevel) x (players whose total contribution >= level),
// so the amounts always sum to the whole pot.
func Tiers(players []*Player) []Tier {
	levels := make([]int64, 0, len(players))
	seen := map[int64]bool{}
	for _, p := range players {
		if p.Contribution > 0 && !seen[p.Contribution] {
			seen[p.Contribution] = true
			levels = append(levels, p.Contribution)
		}
	}
	sort.Slice(levels, func(i, j int) bool { return levels[i] < levels[j] })

	tiers := make([]Tier, 0, len(levels))
	prev := int64(0)
	for _, level := range levels {
		n := int64(0)
		for _, p := range players {
			if p.Contribution >= level {
				n++
			}
		}
		tiers = append(tiers, Tier{Level: level, Amount: (level - prev) * n})
		prev = level
	}
	return tiers
}

// splitChips divides amount into n near-equal shares. Remainder chips go
// one at a time to the earliest shares, so callers paying winners in seat
// order get the documented deterministic distribution.
func splitChips(amount int64, n int) []int64 {
	shares := make([]int64, n)
	base := amount / int64(n)
	rem := amount % int64(n)
	for i := range shares {
		shares[i] = base
		if int64(i) < rem {
			shares[i]++
		}
	}
	return shares
}

// settlePots distributes every tier to the best eligible hand(s) and
// returns the payout per player ID. ranks must hold an evaluation for
// every non-folded player. The chips-conservation check at the end is a
// safety net; a mismatch means the hand must be voided by the caller.
func settlePots(players []*Player, ranks map[string]HandRank) (map[string]int64, error) {
	total := int64(0)
	for _, p := range players {
		total += p.Contribution
	}

	payouts := map[string]int64{}
	for _, tier := range Tiers(players) {
		eligible := make([]*Player, 0, len(players))
		for _, p := range players {
			if !p.Folded && p.Contribution >= tier.Level {
				eligible = append(eligible, p)
			}
		}
		if len(eligible) == 0 {
			// Every contributor at this level folded; the layer falls
			// through to the best live hand overall.
			for _, p := range players {
				if !p.Folded {
					eligible = append(eligible, p)
				}
			}
		}
		if len(eligible) == 0 {
			return nil, errors.New("no eligible players for pot tier")
		}

		best := ranks[eligible[0].ID]
		for _, p := range eligible[1:] {
			if ranks[p.ID].BetterThan(best) {
				best = ranks[p.ID]
			}
		}
		winners := make([]*Player, 0, len(eligible))
		for _, p := range eligible {
			if ranks[p.ID].Compare(best) == 0 {
				winners = append(winners, p)
			}
		}

		shares := splitChips(tier.Amount, len(winners))
		for i, w := range winners {
			payouts[w.ID] += shares[i]
		}
	}

	paid := int64(0)
	for _, v := range payouts {
		paid += v
	}
	if paid != total {
		return nil, errors.New("pot settlement imbalance")
	}
	return payouts, nil
}
