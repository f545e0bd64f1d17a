// Package content supplies the letters and categories each round is played with.
package content

import (
	"math/rand/v2"
	"strings"
	"sync"
	"time"
)

// Letters excludes Q, V, W, X, Y and Z, which rarely start an answer
const Letters = "ABCDEFGHIJKLMNOPRSTU"

// Categories is the built-in category list
var Categories = []string{
	"Boy's Name", "Girl's Name", "Animal", "Country", "Food",
	"Movie", "TV Show", "Color", "City", "Fruit/Vegetable",
	"Job", "Historical Figure", "Brand", "Sport", "Song Title",
	"Band/Musician", "School Subject", "Hobby", "Drink", "Car Brand",
}

// Source picks a starting letter and a set of categories for a round
type Source interface {
	// Letter returns a letter not in used; once every letter has been used
	// the whole alphabet is available again.
	Letter(used []string) string
	// Categories returns n distinct categories in random order
	Categories(n int) []string
}

// Deck is a random Source safe for concurrent use by many rooms
type Deck struct {
	mu         sync.Mutex
	rng        *rand.Rand
	letters    []string
	categories []string
}

// NewDeck creates a deck over the given letters and categories
func NewDeck(letters string, categories []string, rng *rand.Rand) *Deck {
	if rng == nil {
		now := uint64(time.Now().UnixNano())
		rng = rand.New(rand.NewPCG(now, now>>7|1))
	}
	cats := make([]string, len(categories))
	copy(cats, categories)
	return &Deck{
		rng:        rng,
		letters:    strings.Split(letters, ""),
		categories: cats,
	}
}

// DefaultDeck uses the built-in letters and categories
func DefaultDeck() *Deck {
	return NewDeck(Letters, Categories, nil)
}

func (d *Deck) Letter(used []string) string {
	seen := make(map[string]bool, len(used))
	for _, l := range used {
		seen[strings.ToUpper(l)] = true
	}
	available := make([]string, 0, len(d.letters))
	for _, l := range d.letters {
		if !seen[l] {
			available = append(available, l)
		}
	}
	if len(available) == 0 {
		available = d.letters
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	return available[d.rng.IntN(len(available))]
}

func (d *Deck) Categories(n int) []string {
	if n > len(d.categories) {
		n = len(d.categories)
	}
	d.mu.Lock()
	perm := d.rng.Perm(len(d.categories))
	d.mu.Unlock()

	out := make([]string, n)
	for i := 0; i < n; i++ {
		out[i] = d.categories[perm[i]]
	}
	return out
}
