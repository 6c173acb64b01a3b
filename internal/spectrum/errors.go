package spectrum

import "errors"

// ErrInvalidInput is returned when a series cannot produce a spectrum:
// fewer than two samples, a non-positive sampling rate, non-finite
// samples or samples whose power overflows. Callers match it with errors.Is.
var ErrInvalidInput = errors.New("spectrum: invalid input")
