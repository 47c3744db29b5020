package model

import "errors"

// ErrValidation marks input rejected before it reaches any service.
var ErrValidation = errors.New("validation failed")
