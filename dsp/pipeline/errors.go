package pipeline

// OperationError reports the stage that aborted a run. Err keeps the
// stage's original error so errors.Is matches the core sentinels.
type OperationError struct {
	Op  Kind
	Err error
}

func (e *OperationError) Error() string {
	return e.Op.String() + ": " + e.Err.Error()
}

func (e *OperationError) Unwrap() error { return e.Err }
