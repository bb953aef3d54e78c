package prize

import (
	"errors"
	"fmt"
	"math"
)

// probability sums may drift a little from operator-edited config; anything
// beyond this tolerance means the table is broken, not just imprecise.
const sumTolerance = 0.1

var ErrInvalidTable = errors.New("prize table probabilities do not sum to 100")

// Entry is one row of the wheel's true probability table.
type Entry struct {
	Kind        OutcomeKind `mapstructure:"kind" json:"kind"`
	Probability float64     `mapstructure:"probability" json:"probability"` // percent, 0-100
	Payout      int64       `mapstructure:"payout" json:"payout"`
}

// Table is an immutable, validated prize table.
type Table struct {
	entries []Entry
}

// NewTable validates the entries and returns a table. The probabilities
// must sum to 100 within tolerance and every entry must name a known
// outcome kind with a non-negative probability.
func NewTable(entries []Entry) (*Table, error) {
	if len(entries) == 0 {
		return nil, fmt.Errorf("%w: table is empty", ErrInvalidTable)
	}
	var sum float64
	for i, e := range entries {
		switch e.Kind {
		case OutcomeEmpty, OutcomeStars, OutcomeCertificate:
		default:
			return nil, fmt.Errorf("%w: entry %d has unknown kind %q", ErrInvalidTable, i, e.Kind)
		}
		if e.Probability < 0 {
			return nil, fmt.Errorf("%w: entry %d has negative probability", ErrInvalidTable, i)
		}
		sum += e.Probability
	}
	if math.Abs(sum-100) > sumTolerance {
		return nil, fmt.Errorf("%w: sum is %.4f", ErrInvalidTable, sum)
	}
	out := make([]Entry, len(entries))
	copy(out, entries)
	return &Table{entries: out}, nil
}

// DefaultTable is the hard-coded safe table used when the configured table
// fails validation: mostly empty, a small star prize, a minimal
// certificate. The game must keep running on a broken config.
func DefaultTable() *Table {
	t, err := NewTable([]Entry{
		{Kind: OutcomeEmpty, Probability: 85, Payout: 0},
		{Kind: OutcomeStars, Probability: 10, Payout: 5},
		{Kind: OutcomeCertificate, Probability: 5, Payout: 500},
	})
	if err != nil {
		// the literal above always validates
		panic(err)
	}
	return t
}

// Entries returns a copy of the table rows, for admin display.
func (t *Table) Entries() []Entry {
	out := make([]Entry, len(t.entries))
	copy(out, t.entries)
	return out
}
