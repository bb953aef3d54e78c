package prize

// OutcomeKind is the closed set of real prize outcomes. Payout semantics
// hang off the kind, never off a display string.
type OutcomeKind string

const (
	OutcomeEmpty       OutcomeKind = "EMPTY"
	OutcomeStars       OutcomeKind = "STARS"
	OutcomeCertificate OutcomeKind = "CERTIFICATE"
)

// Outcome is one drawn prize. Payout is the number of stars credited for
// OutcomeStars, or the certificate face value for OutcomeCertificate
// (certificates are fulfilled outside the ledger, so their face value is
// never credited as stars). DisplayVariant is cosmetic only: several wheel
// segments may map to the same real outcome, and the variant is drawn
// independently so the visual segment sizes never have to match the real
// odds.
type Outcome struct {
	Kind           OutcomeKind `json:"kind"`
	Payout         int64       `json:"payout"`
	DisplayVariant string      `json:"display_variant"`
}

// StarPayout is the amount the ledger credits for this outcome. Only star
// prizes move the balance.
func (o Outcome) StarPayout() int64 {
	if o.Kind == OutcomeStars {
		return o.Payout
	}
	return 0
}

// displayVariants maps each real outcome kind to its cosmetic wheel
// segments. The draw over these candidates is uniform and independent of
// the payout draw.
var displayVariants = map[OutcomeKind][]string{
	OutcomeEmpty:       {"empty_sad", "empty_next_time", "empty_ghost"},
	OutcomeStars:       {"stars_burst", "stars_rain"},
	OutcomeCertificate: {"cert_gold", "cert_silver", "cert_classic"},
}
