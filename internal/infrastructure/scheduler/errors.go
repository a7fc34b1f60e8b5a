package scheduler

import "errors"

// ErrInvalidConfig indicates the scheduler configuration failed validation
var ErrInvalidConfig = errors.New("scheduler: invalid configuration")
