package services

import "errors"

// ErrManualInterventionRequired marks a multi-step transition whose
// compensating rollback also failed. The two stores may now hold a duplicate
// of the record; a human has to reconcile them, automatic retry risks
// multiplying the duplicate.
var ErrManualInterventionRequired = errors.New("possible duplicate, manual intervention required")

// OpResult is the structured outcome every public core operation returns.
// Raw store errors never cross the component boundary; callers render
// Message and inspect Details.
type OpResult struct {
	Success bool           `json:"success"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
	Err     error          `json:"-"`
}

func okResult(message string, details map[string]any) OpResult {
	return OpResult{Success: true, Message: message, Details: details}
}

func failResult(message string, err error) OpResult {
	res := OpResult{Success: false, Message: message, Err: err}
	if err != nil {
		res.Details = map[string]any{"error": err.Error()}
	}
	return res
}
