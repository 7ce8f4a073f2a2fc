package scoring

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBaseScore(t *testing.T) {
	assert.Equal(t, 3, BaseScore("EAT"))          // 1+1+1
	assert.Equal(t, 12, BaseScore("JAR"))         // 10+1+1
	assert.Equal(t, 22, BaseScore("QUIZ"))        // 10+1+1+10
	assert.Equal(t, 0, BaseScore(""))
}

func TestLengthMultiplierBoundaries(t *testing.T) {
	cases := map[int]float64{
		3:  1.0,
		4:  1.5,
		6:  1.5,
		7:  2.0,
		8:  2.0,
		9:  2.5,
		10: 2.5,
	}
	for length, want := range cases {
		assert.Equal(t, want, LengthMultiplier(length), "length %d", length)
	}
}

func TestFinalScoreFloorsOnce(t *testing.T) {
	// EAT: base 3, len 3 -> 3*1.0 = 3
	assert.Equal(t, 3, FinalScore("EAT"))
	// QUIZ: base 22, len 4 -> 22*1.5 = 33
	assert.Equal(t, 33, FinalScore("QUIZ"))
	// HOUSE: base H=5,O=1,U=1,S=1,E=1 = 9, len 5 -> 13.5 -> 13
	assert.Equal(t, 13, FinalScore("HOUSE"))
}

func TestTimeBonusSeconds(t *testing.T) {
	// EAT: score 3 -> base 1 + floor(0.9) = 1
	assert.Equal(t, 1, TimeBonusSeconds("EAT"))
	// QUIZ: score 33 -> base 2 + floor(9.9) = 11
	assert.Equal(t, 11, TimeBonusSeconds("QUIZ"))

	// Never exceeds the cap, whatever the word.
	huge := strings.Repeat("QZ", 5)
	assert.Equal(t, MaxTimeBonusSeconds, TimeBonusSeconds(huge))
	for _, w := range []string{"CAT", "JAZZ", "QUIZZES", "SQUEEZING"} {
		assert.LessOrEqual(t, TimeBonusSeconds(w), MaxTimeBonusSeconds, w)
	}
}

func TestValidWordPattern(t *testing.T) {
	assert.True(t, ValidWordPattern.MatchString("EAT"))
	assert.True(t, ValidWordPattern.MatchString("ABCDEFGHIJ"))
	assert.False(t, ValidWordPattern.MatchString("AB"))
	assert.False(t, ValidWordPattern.MatchString("ABCDEFGHIJK"))
	assert.False(t, ValidWordPattern.MatchString("eat"))
	assert.False(t, ValidWordPattern.MatchString("E4T"))
}

func TestBuildableFrom(t *testing.T) {
	rack := []string{"A", "A", "B", "C"}
	assert.True(t, BuildableFrom("AB", rack))
	assert.True(t, BuildableFrom("AA", rack))
	assert.False(t, BuildableFrom("AAA", rack), "needs three A's, rack has two")
	assert.False(t, BuildableFrom("ABZ", rack))
	assert.False(t, BuildableFrom("AABCX", rack))

	eta := []string{"E", "E", "T", "A"}
	assert.True(t, BuildableFrom("EAT", eta))
	assert.True(t, BuildableFrom("TEA", eta))
	assert.False(t, BuildableFrom("TEAT", eta), "needs two T's, rack has one")
}
