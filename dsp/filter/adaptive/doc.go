// Package adaptive implements sample-by-sample adaptive FIR filters.
//
// NLMS holds the tap weights and applies the normalized least mean squares
// update. TapLine keeps the most recent input samples in the order the
// weights expect, newest first, so a filter step never copies history.
package adaptive
