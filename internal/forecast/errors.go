package forecast

import (
	"errors"
	"fmt"
)

var (
	// ErrInsufficientHistory is returned when a series has fewer distinct
	// dates than the backend needs to fit
	ErrInsufficientHistory = errors.New("insufficient history")

	// ErrFitFailed is returned when fitting or prediction fails, including
	// predictions that are not finite after exponentiation
	ErrFitFailed = errors.New("forecast fit failed")

	errSingular = errors.New("normal equations are singular")
)

// InsufficientHistoryError carries how much history was available
type InsufficientHistoryError struct {
	Have int
	Need int
}

func (e *InsufficientHistoryError) Error() string {
	return fmt.Sprintf("%s: have %d distinct dates, need %d", ErrInsufficientHistory, e.Have, e.Need)
}

func (e *InsufficientHistoryError) Unwrap() error {
	return ErrInsufficientHistory
}
