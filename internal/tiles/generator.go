package tiles

import (
	"fmt"
	"hash/fnv"
	"math/rand"
	"strconv"

	"wordrush/backend/internal/dictionary"
)

// letterPool is the weighted draw pool for padding letters. Common letters
// repeat far more often than rare ones, roughly following English letter
// frequency.
const letterPool = "EEEEEEEEEEEEAAAAAAAAAIIIIIIIIIOOOOOOOONNNNNNRRRRRRTTTTTTLLLLSSSSUUUUDDDDGGGBBCCMMPPFFHHVVWWYYKJXQZ"

// DefaultCount is the rack size used by both solo and multiplayer sessions.
const DefaultCount = 10

// Generator derives tile racks deterministically from (seed, roundIndex).
// Every participant holding the same seed computes identical racks without
// any tile data traveling over the wire. The dictionary is injected so the
// filtered base-word list is shared, immutable state rather than a global.
type Generator struct {
	dict *dictionary.Dictionary
}

func NewGenerator(dict *dictionary.Dictionary) *Generator {
	return &Generator{dict: dict}
}

// Generate returns the ordered rack for one round. It is a pure function
// of its arguments: the same (seed, roundIndex, count) always yields the
// same letters in the same order.
func (g *Generator) Generate(seed string, roundIndex int, count int) ([]string, error) {
	if count < 3 {
		return nil, fmt.Errorf("tile count %d is below the minimum word length", count)
	}

	rng := rand.New(rand.NewSource(roundSeed(seed, roundIndex)))

	candidates := g.dict.WordsUpTo(count)
	if len(candidates) == 0 {
		// Configuration error: fail loudly rather than handing out a
		// short rack with no buildable word in it.
		return nil, fmt.Errorf("dictionary has no base word of length 3..%d", count)
	}
	base := candidates[rng.Intn(len(candidates))]

	letters := make([]string, 0, count)
	for _, r := range base {
		letters = append(letters, string(r))
	}
	for len(letters) < count {
		letters = append(letters, string(letterPool[rng.Intn(len(letterPool))]))
	}

	// Fisher-Yates off the same stream so the base word is not visually
	// obvious in the rack.
	for i := len(letters) - 1; i > 0; i-- {
		j := rng.Intn(i + 1)
		letters[i], letters[j] = letters[j], letters[i]
	}

	return letters, nil
}

// roundSeed combines the session seed and round index into the numeric
// seed for the per-round stream. FNV-1a keeps it fast and reproducible.
func roundSeed(seed string, roundIndex int) int64 {
	h := fnv.New64a()
	h.Write([]byte(seed))
	h.Write([]byte(":"))
	h.Write([]byte(strconv.Itoa(roundIndex)))
	return int64(h.Sum64())
}
