package valueobjects

import (
	"fmt"

	pkgerrors "linklist-backend/pkg/errors"
)

const (
	MinRating = 1
	MaxRating = 5
)

// Rating is a star rating in [MinRating, MaxRating]
type Rating int

// NewRating validates a raw rating value
func NewRating(value int) (Rating, error) {
	if value < MinRating || value > MaxRating {
		return 0, pkgerrors.NewValidationError(
			fmt.Sprintf("rating must be between %d and %d", MinRating, MaxRating))
	}
	return Rating(value), nil
}

// Int returns the rating as an int
func (r Rating) Int() int {
	return int(r)
}

// Valid reports whether r is inside the rating range. Ratings rebuilt from
// storage are not checked on the way in.
func (r Rating) Valid() bool {
	return r >= MinRating && r <= MaxRating
}
