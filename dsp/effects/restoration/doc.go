// Package restoration provides the corrective stages of the restore chain:
// echo cancellation, WPE dereverberation and spectral-gate noise reduction.
//
// Every processor takes a mono buffer in [-1, 1] and returns a new buffer of
// the same length, clipped to [-1, 1]. Processors keep no state between
// calls to Process, so one instance may be reused for many files but must
// not be shared between goroutines.
package restoration
