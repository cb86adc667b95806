package entities

import (
	"time"

	"linklist-backend/domain/core/valueobjects"
	pkgerrors "linklist-backend/pkg/errors"

	"github.com/google/uuid"
)

// Vote is one user's rating of one entity. There is at most one Vote per
// (entity, user); a re-vote mutates the existing record.
type Vote struct {
	id        string
	ref       valueobjects.EntityRef
	userID    string
	rating    valueobjects.Rating
	createdAt time.Time
	updatedAt time.Time
	version   int
}

// NewVote creates a first vote with a fresh identifier
func NewVote(ref valueobjects.EntityRef, userID string, rating valueobjects.Rating, now time.Time) (*Vote, error) {
	if ref.IsZero() {
		return nil, pkgerrors.NewValidationError("entity reference is required")
	}
	if userID == "" {
		return nil, pkgerrors.NewValidationError("userID cannot be empty")
	}

	return &Vote{
		id:        uuid.New().String(),
		ref:       ref,
		userID:    userID,
		rating:    rating,
		createdAt: now,
		updatedAt: now,
		version:   1,
	}, nil
}

// ReconstructVote rebuilds a vote loaded from storage
func ReconstructVote(
	id string,
	ref valueobjects.EntityRef,
	userID string,
	rating valueobjects.Rating,
	createdAt, updatedAt time.Time,
	version int,
) *Vote {
	return &Vote{
		id:        id,
		ref:       ref,
		userID:    userID,
		rating:    rating,
		createdAt: createdAt,
		updatedAt: updatedAt,
		version:   version,
	}
}

func (v *Vote) ID() string                  { return v.id }
func (v *Vote) Ref() valueobjects.EntityRef { return v.ref }
func (v *Vote) UserID() string              { return v.userID }
func (v *Vote) Rating() valueobjects.Rating { return v.rating }
func (v *Vote) CreatedAt() time.Time        { return v.createdAt }
func (v *Vote) UpdatedAt() time.Time        { return v.updatedAt }
func (v *Vote) Version() int                { return v.version }

// ChangeRating overwrites the rating and bumps the version used for the
// conditional update
func (v *Vote) ChangeRating(rating valueobjects.Rating, now time.Time) {
	v.rating = rating
	v.updatedAt = now
	v.version++
}
