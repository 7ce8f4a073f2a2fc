package game

import (
	"fmt"
	"io"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"wordrush/backend/internal/dictionary"
	"wordrush/backend/internal/hub"
	"wordrush/backend/internal/models"
	"wordrush/backend/internal/scoring"
	"wordrush/backend/internal/tiles"
)

var testDBCounter int64

// newTestDB opens an isolated in-memory sqlite database with the same
// schema and error translation as production.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	n := atomic.AddInt64(&testDBCounter, 1)
	dsn := fmt.Sprintf("file:gametest%d?mode=memory&cache=shared", n)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.SoloRun{},
		&models.Match{},
		&models.Participant{},
		&models.Submission{},
		&models.LeaderboardEntry{},
	))
	return db
}

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func testDictionary() *dictionary.Dictionary {
	return dictionary.New([]string{
		"CAT", "DOG", "EAT", "TEA", "ATE", "TOE", "ART", "RAT", "TAR", "OAT",
		"NOTE", "TONE", "RATE", "TEAR", "STAR", "REST", "NEST", "LINE", "NICE",
		"HOUSE", "TRAIN", "STONE", "PLANE", "SLATE", "IRATE",
		"PLANET", "ORANGE", "SILENT", "LISTEN",
	})
}

type fakeClock struct {
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

// buildableWord finds a dictionary word that fits the rack for the given
// round. The generator embeds a base word in every rack, so one always
// exists.
func buildableWord(t *testing.T, gen *tiles.Generator, dict *dictionary.Dictionary, seed string, roundIndex int) string {
	t.Helper()
	rack, err := gen.Generate(seed, roundIndex, tiles.DefaultCount)
	require.NoError(t, err)
	for _, w := range dict.WordsUpTo(tiles.DefaultCount) {
		if scoring.BuildableFrom(w, rack) {
			return w
		}
	}
	t.Fatalf("no buildable word for rack %v", rack)
	return ""
}

func newSoloEngine(t *testing.T) (*SoloEngine, *fakeClock, *dictionary.Dictionary) {
	t.Helper()
	db := newTestDB(t)
	dict := testDictionary()
	gen := tiles.NewGenerator(dict)
	clock := newFakeClock()
	engine := NewSoloEngine(db, dict, gen, nil, testLogger())
	engine.Now = clock.Now
	return engine, clock, dict
}

func newMatchEngine(t *testing.T) (*MatchEngine, *fakeClock, *hub.Hub, *dictionary.Dictionary) {
	t.Helper()
	db := newTestDB(t)
	dict := testDictionary()
	gen := tiles.NewGenerator(dict)
	clock := newFakeClock()
	h := hub.NewHub()
	engine := NewMatchEngine(db, dict, gen, h, testLogger())
	engine.Now = clock.Now
	return engine, clock, h, dict
}
