// Package pipeline runs restoration and dynamics stages over a mono signal
// in a fixed order.
//
// Callers select operations in any order; Run always executes them as
// noise reduction, echo reduction, reverb reduction, volume normalization,
// then volume compression. Each stage receives the previous stage's output.
// The first failing stage aborts the run and is reported as an
// *OperationError naming the stage.
package pipeline
