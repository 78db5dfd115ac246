package predict

import "errors"

var (
	ErrInvalidFeature     = errors.New("invalid feature value")
	ErrInvalidProbability = errors.New("probability outside [0, 1]")
)
