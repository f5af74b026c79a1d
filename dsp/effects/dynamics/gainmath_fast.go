//go:build fastmath

package dynamics

import "github.com/meko-christian/algo-approx"

const (
	// 20/ln(10) and ln(10)/20.
	dbPerNeper = 8.685889638065036553
	neperPerDB = 0.115129254649702284
)

// levelToDB converts a positive envelope level to dB using a fast
// logarithm approximation.
func levelToDB(x float64) float64 {
	return approx.FastLog(x) * dbPerNeper
}

// dbToGain converts a gain in dB to a linear factor using a fast
// exponential approximation.
func dbToGain(db float64) float64 {
	return approx.FastExp(db * neperPerDB)
}
