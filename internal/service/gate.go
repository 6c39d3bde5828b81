package service

import (
	"time"

	"github.com/yeiden10/licitaph-sub000/internal/model"
)

// The gate is a pure predicate over solicitation state and the clock. It is
// evaluated on every access and never cached: the outcome flips at the
// closing instant and sealed bids must not leak through stale state.

// CanBidderSubmit reports whether a bidder may submit a proposal right now.
func CanBidderSubmit(sol *model.Solicitation, now time.Time) bool {
	return sol.State == model.SolicitationStateOpen && now.Before(sol.ClosingAt)
}

// CanIssuerListProposals reports whether the issuer may read proposal rows.
// The rule is strictly temporal: even for a cancelled solicitation, bids
// stay sealed until the closing instant has passed.
func CanIssuerListProposals(sol *model.Solicitation, now time.Time) bool {
	return !now.Before(sol.ClosingAt)
}
