package study

import "errors"

// Sentinel errors for the study package. Both indicate a caller bug and
// are returned wrapped with detail; check them with errors.Is.
var (
	ErrInvalidInput = errors.New("study: invalid input")
	ErrInvalidState = errors.New("study: invalid state")
)
