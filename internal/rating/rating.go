// Package rating maintains a listing's running average under single votes.
package rating

import (
	"math"

	dErrors "rentmarket/pkg/domain-errors"
)

const (
	MinVote = 1
	MaxVote = 5
)

// Score is a listing's aggregate: the mean of Count votes.
type Score struct {
	Rating float64 `json:"rating"`
	Count  int     `json:"review_count"`
}

// Apply folds one vote into s. It assumes votes are applied one at a time;
// callers serialize concurrent votes on the same listing.
func Apply(s Score, vote int) Score {
	total := s.Rating * float64(s.Count)
	count := s.Count + 1
	return Score{
		Rating: Round2((total + float64(vote)) / float64(count)),
		Count:  count,
	}
}

// Round2 rounds half away from zero to two decimals.
func Round2(x float64) float64 {
	return math.Round(x*100) / 100
}

// ValidateVote rejects votes outside [MinVote, MaxVote].
func ValidateVote(vote int) error {
	if vote < MinVote || vote > MaxVote {
		return dErrors.New(dErrors.CodeValidation, "vote must be between 1 and 5")
	}
	return nil
}
