// Package delay provides an integer-sample circular delay line.
package delay
