package prompt

import "errors"

var (
	// ErrBudgetExhausted is returned when no prompt fits the outer token
	// budget while leaving the minimum generation room.
	ErrBudgetExhausted = errors.New("prompt budget exhausted")
)
