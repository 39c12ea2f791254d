package game

import (
	"sort"
)

// Hand categories, weakest to strongest.
const (
	HighCard      = 1
	Pair          = 2
	TwoPair       = 3
	ThreeOfAKind  = 4
	Straight      = 5
	Flush         = 6
	FullHouse     = 7
	FourOfAKind   = 8
	StraightFlush = 9
)

// HandRank is a totally ordered score for a five-card hand. Kickers are
// listed most significant first; missing positions compare as 0.
type HandRank struct {
	Category int   `json:"category"`
	Kickers  []int `json:"kickers"`
}

// Compare returns a negative value if h loses to o, a positive value if h
// beats o, and 0 on a true tie.
func (h HandRank) Compare(o HandRank) int {
	if h.Category != o.Category {
		return h.Category - o.Category
	}
	n := len(h.Kickers)
	if len(o.Kickers) > n {
		n = len(o.Kickers)
	}
	for i := 0; i < n; i++ {
		a, b := 0, 0
		if i < len(h.Kickers) {
			a = h.Kickers[i]
		}
		if i < len(o.Kickers) {
			b = o.Kickers[i]
		}
		if a != b {
			return a - b
		}
	}
	return 0
}

func (h HandRank) BetterThan(o HandRank) bool {
	return h.Compare(o) > 0
}

// Evaluate7 returns the best five-card rank among all 21 subsets of the
// seven cards (two hole cards plus the full board).
func Evaluate7(cards []Card) HandRank {
	best := HandRank{}
	for a := 0; a < 7; a++ {
		for b := a + 1; b < 7; b++ {
			for c := b + 1; c < 7; c++ {
				for d := c + 1; d < 7; d++ {
					for e := d + 1; e < 7; e++ {
						h := eval5(cards[a], cards[b], cards[c], cards[d], cards[e])
						if h.BetterThan(best) {
							best = h
						}
					}
				}
			}
		}
	}
	return best
}

func eval5(c1, c2, c3, c4, c5 Card) HandRank {
	cards := []Card{c1, c2, c3, c4, c5}
	counts := map[int]int{}
	suits := map[Suit]int{}
	ranks := make([]int, 0, 5)
	for _, c := range cards {
		r := int(c.Rank)
		counts[r]++
		suits[c.Suit]++
		ranks = append(ranks, r)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(ranks)))
	isFlush := false
	for _, v := range suits {
		if v == 5 {
			isFlush = true
			break
		}
	}
	isStraight, highStraight := straightHigh(ranks)
	if isFlush && isStraight {
		return HandRank{Category: StraightFlush, Kickers: []int{highStraight}}
	}

	type rc struct {
		rank  int
		count int
	}
	groups := make([]rc, 0, len(counts))
	for r, c := range counts {
		groups = append(groups, rc{rank: r, count: c})
	}
	sort.Slice(groups, func(i, j int) bool {
		if groups[i].count != groups[j].count {
			return groups[i].count > groups[j].count
		}
		return groups[i].rank > groups[j].rank
	})

	if groups[0].count == 4 {
		kicker := highestExcluding(ranks, groups[0].rank)
		return HandRank{Category: FourOfAKind, Kickers: []int{groups[0].rank, kicker}}
	}
	if groups[0].count == 3 && groups[1].count == 2 {
		return HandRank{Category: FullHouse, Kickers: []int{groups[0].rank, groups[1].rank}}
	}
	if isFlush {
		return HandRank{Category: Flush, Kickers: ranks}
	}
	if isStraight {
		return HandRank{Category: Straight, Kickers: []int{highStraight}}
	}
	if groups[0].count == 3 {
		kickers := topKickers(ranks, []int{groups[0].rank}, 2)
		return HandRank{Category: ThreeOfAKind, Kickers: append([]int{groups[0].rank}, kickers...)}
	}
	if groups[0].count == 2 && groups[1].count == 2 {
		highPair := groups[0].rank
		lowPair := groups[1].rank
		kicker := highestExcluding(ranks, highPair, lowPair)
		return HandRank{Category: TwoPair, Kickers: []int{highPair, lowPair, kicker}}
	}
	if groups[0].count == 2 {
		kickers := topKickers(ranks, []int{groups[0].rank}, 3)
		return HandRank{Category: Pair, Kickers: append([]int{groups[0].rank}, kickers...)}
	}
	return HandRank{Category: HighCard, Kickers: ranks}
}

func straightHigh(ranks []int) (bool, int) {
	unique := uniqueRanks(ranks)
	sort.Sort(sort.Reverse(sort.IntSlice(unique)))
	if len(unique) < 5 {
		return false, 0
	}
	for i := 0; i <= len(unique)-5; i++ {
		if unique[i]-unique[i+4] == 4 {
			return true, unique[i]
		}
	}
	// Wheel A-5
	if contains(unique, 14) && contains(unique, 5) && contains(unique, 4) && contains(unique, 3) && contains(unique, 2) {
		return true, 5
	}
	return false, 0
}

func uniqueRanks(ranks []int) []int {
	m := map[int]bool{}
	out := make([]int, 0, len(ranks))
	for _, r := range ranks {
		if !m[r] {
			m[r] = true
			out = append(out, r)
		}
	}
	return out
}

func contains(arr []int, v int) bool {
	for _, x := range arr {
		if x == v {
			return true
		}
	}
	return false
}

func highestExcluding(ranks []int, exclude ...int) int {
	for _, r := range ranks {
		ok := true
		for _, e := range exclude {
			if r == e {
				ok = false
			}
		}
		if ok {
			return r
		}
	}
	return 0
}

func topKickers(ranks []int, exclude []int, n int) []int {
	out := []int{}
	for _, r := range ranks {
		skip := false
		for _, e := range exclude {
			if r == e {
				skip = true
				break
			}
		}
		if skip {
			continue
		}
		out = append(out, r)
		if len(out) == n {
			break
		}
	}
	return out
}
