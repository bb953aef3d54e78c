package prize

import (
	"log"
	"math/rand"
	"sync"
	"time"
)

// Selector draws prizes from a validated table.
//
// The draw is two independent uniform picks: one over the real probability
// table to decide the payout, one over the cosmetic display variants of the
// drawn kind to decide what the wheel shows. Keeping the picks independent
// is deliberate: the perceived odds implied by segment artwork never have
// to match the real payout odds.
type Selector struct {
	mu    sync.Mutex
	table *Table
	rnd   *rand.Rand
}

// NewSelector builds a selector from configured entries. An invalid table
// is downgraded to the safe default with a diagnostic log line; a broken
// prize config must never stop the game, so no error is returned.
func NewSelector(entries []Entry) *Selector {
	table, err := NewTable(entries)
	if err != nil {
		log.Printf("[Prize] invalid prize table, falling back to default: %v", err)
		table = DefaultTable()
	}
	return newSelector(table, rand.New(rand.NewSource(time.Now().UnixNano())))
}

func newSelector(table *Table, rnd *rand.Rand) *Selector {
	return &Selector{table: table, rnd: rnd}
}

// Table returns the table in effect (the configured one or the default
// after a fallback).
func (s *Selector) Table() *Table {
	return s.table
}

// Draw selects one outcome: a single uniform value in [0,100) walked
// against the cumulative probabilities, first match wins. Ties and float
// drift resolve to table order, last entry catches the remainder.
func (s *Selector) Draw() Outcome {
	s.mu.Lock()
	roll := s.rnd.Float64() * 100
	entry := s.table.entries[len(s.table.entries)-1]
	var cum float64
	for _, e := range s.table.entries {
		cum += e.Probability
		if roll < cum {
			entry = e
			break
		}
	}
	variant := s.pickVariantLocked(entry.Kind)
	s.mu.Unlock()

	return Outcome{
		Kind:           entry.Kind,
		Payout:         entry.Payout,
		DisplayVariant: variant,
	}
}

// pickVariantLocked draws the cosmetic variant for a real outcome kind.
// Purely presentational; the payout was already decided.
func (s *Selector) pickVariantLocked(kind OutcomeKind) string {
	candidates := displayVariants[kind]
	if len(candidates) == 0 {
		return ""
	}
	return candidates[s.rnd.Intn(len(candidates))]
}
