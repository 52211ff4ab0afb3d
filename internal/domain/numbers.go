package domain

import (
	"fmt"
	"sort"
)

const (
	WhiteMin   = 1
	WhiteMax   = 69
	SpecialMin = 1
	SpecialMax = 26

	OfficialWhiteCount   = 5
	OfficialSpecialCount = 1
	PlayerWhiteCount     = 20
	PlayerSpecialCount   = 5
)

// OfficialNumbers are the published results of a round, white numbers sorted ascending.
type OfficialNumbers struct {
	White   [OfficialWhiteCount]int `json:"white"`
	Special int                     `json:"special"`
}

// Selection is the pack a player bought, both pools sorted ascending.
type Selection struct {
	White   [PlayerWhiteCount]int   `json:"white"`
	Special [PlayerSpecialCount]int `json:"special"`
}

type MatchResult struct {
	WhiteMatches int
	SpecialMatch bool
}

func (m MatchResult) Total() int {
	if m.SpecialMatch {
		return m.WhiteMatches + 1
	}

	return m.WhiteMatches
}

// IsJackpot reports whether every official number is covered. There is no lower tier.
func (m MatchResult) IsJackpot() bool {
	return m.WhiteMatches == OfficialWhiteCount && m.SpecialMatch
}

func NewOfficialNumbers(white, special []int) (OfficialNumbers, error) {
	w, err := checkPool("white", white, OfficialWhiteCount, WhiteMin, WhiteMax)
	if err != nil {
		return OfficialNumbers{}, err
	}
	s, err := checkPool("special", special, OfficialSpecialCount, SpecialMin, SpecialMax)
	if err != nil {
		return OfficialNumbers{}, err
	}

	var n OfficialNumbers
	copy(n.White[:], w)
	n.Special = s[0]

	return n, nil
}

func NewSelection(white, special []int) (Selection, error) {
	w, err := checkPool("white", white, PlayerWhiteCount, WhiteMin, WhiteMax)
	if err != nil {
		return Selection{}, err
	}
	s, err := checkPool("special", special, PlayerSpecialCount, SpecialMin, SpecialMax)
	if err != nil {
		return Selection{}, err
	}

	var sel Selection
	copy(sel.White[:], w)
	copy(sel.Special[:], s)

	return sel, nil
}

func (s Selection) Match(official OfficialNumbers) MatchResult {
	picked := make(map[int]struct{}, PlayerWhiteCount)
	for _, n := range s.White {
		picked[n] = struct{}{}
	}

	var res MatchResult
	for _, n := range official.White {
		if _, ok := picked[n]; ok {
			res.WhiteMatches++
		}
	}
	for _, n := range s.Special {
		if n == official.Special {
			res.SpecialMatch = true
			break
		}
	}

	return res
}

func checkPool(name string, nums []int, want, min, max int) ([]int, error) {
	if len(nums) != want {
		return nil, fmt.Errorf("%w: %d %s numbers required, got %d", ErrInvalidSelectionCount, want, name, len(nums))
	}

	seen := make(map[int]struct{}, len(nums))
	for _, n := range nums {
		if n < min || n > max {
			return nil, fmt.Errorf("%w: %s number %d outside [%d,%d]", ErrInvalidNumberRange, name, n, min, max)
		}
		if _, dup := seen[n]; dup {
			return nil, fmt.Errorf("%w: %s number %d repeated", ErrInvalidNumberRange, name, n)
		}
		seen[n] = struct{}{}
	}

	sorted := append([]int(nil), nums...)
	sort.Ints(sorted)

	return sorted, nil
}
