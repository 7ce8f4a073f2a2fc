package dictionary

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"sync"
)

// Dictionary is a read-only word-membership oracle loaded once at process
// start. Lookups are exact matches against uppercased words.
type Dictionary struct {
	words []string
	set   map[string]struct{}

	mu       sync.Mutex
	byMaxLen map[int][]string // cached filtered lists for the tile generator
}

// New builds a dictionary from a word list. Words are uppercased and
// deduplicated; entries with non-alphabetic characters are dropped.
func New(words []string) *Dictionary {
	d := &Dictionary{
		set:      make(map[string]struct{}, len(words)),
		byMaxLen: make(map[int][]string),
	}
	for _, w := range words {
		w = strings.ToUpper(strings.TrimSpace(w))
		if w == "" || !isAlpha(w) {
			continue
		}
		if _, ok := d.set[w]; ok {
			continue
		}
		d.set[w] = struct{}{}
		d.words = append(d.words, w)
	}
	return d
}

// LoadFile reads a newline-separated word list.
func LoadFile(path string) (*Dictionary, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open dictionary %s: %w", path, err)
	}
	defer f.Close()

	var words []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		words = append(words, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read dictionary %s: %w", path, err)
	}
	return New(words), nil
}

// Contains reports whether word is in the dictionary. The lookup is
// case-sensitive: callers are expected to pass uppercase words.
func (d *Dictionary) Contains(word string) bool {
	_, ok := d.set[word]
	return ok
}

// Size returns the number of distinct words loaded.
func (d *Dictionary) Size() int {
	return len(d.words)
}

// WordsUpTo returns every word with 3..maxLen letters. The filtered slice
// is built once per maxLen and cached; callers must not mutate it.
func (d *Dictionary) WordsUpTo(maxLen int) []string {
	d.mu.Lock()
	defer d.mu.Unlock()

	if cached, ok := d.byMaxLen[maxLen]; ok {
		return cached
	}
	var filtered []string
	for _, w := range d.words {
		if len(w) >= 3 && len(w) <= maxLen {
			filtered = append(filtered, w)
		}
	}
	d.byMaxLen[maxLen] = filtered
	return filtered
}

func isAlpha(s string) bool {
	for _, r := range s {
		if r < 'A' || r > 'Z' {
			return false
		}
	}
	return true
}
