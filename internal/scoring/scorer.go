package scoring

import (
	"math"
	"regexp"
)

// letterValues is the fixed per-letter point table: common letters score 1,
// mid-tier 2-3, rare 5, and the very rare ones 9-10.
var letterValues = map[rune]int{
	'A': 1, 'E': 1, 'I': 1, 'O': 1, 'U': 1, 'L': 1, 'N': 1, 'S': 1, 'T': 1, 'R': 1,
	'D': 2, 'G': 2,
	'B': 3, 'C': 3, 'M': 3, 'P': 3,
	'F': 5, 'H': 5, 'V': 5, 'W': 5, 'Y': 5,
	'K': 9,
	'J': 10, 'X': 10, 'Q': 10, 'Z': 10,
}

// MaxTimeBonusSeconds caps the per-word time bonus in solo mode.
const MaxTimeBonusSeconds = 15

// ValidWordPattern matches a submittable word: 3 to 10 uppercase letters.
var ValidWordPattern = regexp.MustCompile(`^[A-Z]{3,10}$`)

// BaseScore sums the per-letter values of the word.
func BaseScore(word string) int {
	total := 0
	for _, ch := range word {
		total += letterValues[ch]
	}
	return total
}

// LengthMultiplier rewards longer words on a step function.
func LengthMultiplier(length int) float64 {
	switch {
	case length >= 9:
		return 2.5
	case length >= 7:
		return 2.0
	case length >= 4:
		return 1.5
	default:
		return 1.0
	}
}

// FinalScore floors the multiplied score here, once, so every call site
// persists the same integer.
func FinalScore(word string) int {
	return int(math.Floor(float64(BaseScore(word)) * LengthMultiplier(len(word))))
}

// TimeBonusSeconds returns the solo-mode time reward: a length base plus
// 30% of the word's score, capped at MaxTimeBonusSeconds.
func TimeBonusSeconds(word string) int {
	var base int
	switch l := len(word); {
	case l >= 7:
		base = 4
	case l >= 5:
		base = 3
	case l == 4:
		base = 2
	case l == 3:
		base = 1
	}
	bonus := base + int(math.Floor(float64(FinalScore(word))*0.3))
	if bonus > MaxTimeBonusSeconds {
		return MaxTimeBonusSeconds
	}
	return bonus
}

// BuildableFrom reports whether word can be assembled from the rack using
// each tile at most once. This is a multiset check, not a substring check:
// rack A,A,B,C accepts "AA" but rejects "AAA".
func BuildableFrom(word string, rack []string) bool {
	if len(word) > len(rack) {
		return false
	}
	available := make(map[string]int, len(rack))
	for _, tile := range rack {
		available[tile]++
	}
	for _, ch := range word {
		tile := string(ch)
		if available[tile] == 0 {
			return false
		}
		available[tile]--
	}
	return true
}
