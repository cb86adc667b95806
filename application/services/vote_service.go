package services

import (
	"context"
	"math"
	"time"

	"linklist-backend/application/ports"
	"linklist-backend/domain/core/entities"
	"linklist-backend/domain/core/valueobjects"
	"linklist-backend/domain/events"
	pkgerrors "linklist-backend/pkg/errors"

	"go.uber.org/zap"
)

// maxVoteAttempts bounds the read-modify-write loop when concurrent voters collide
const maxVoteAttempts = 5

// VoteStats is the aggregate rating of one entity
type VoteStats struct {
	AverageRating float64 `json:"averageRating"`
	VoteCount     int     `json:"voteCount"`
	UserRating    *int    `json:"userRating"`
}

// RatingBucket counts votes for one star value
type RatingBucket struct {
	Star  int `json:"star"`
	Count int `json:"count"`
}

// VoteAnalytics extends VoteStats with the per-star distribution
type VoteAnalytics struct {
	VoteStats
	Distribution []RatingBucket `json:"distribution"`
}

// VoteService records one rating per user and entity and aggregates them
type VoteService struct {
	votes     ports.VoteRepository
	publisher ports.EventPublisher
	logger    *zap.Logger
	clock     func() time.Time
}

// NewVoteService creates a new vote service
func NewVoteService(
	votes ports.VoteRepository,
	publisher ports.EventPublisher,
	logger *zap.Logger,
) *VoteService {
	if publisher == nil {
		publisher = ports.NoopPublisher{}
	}
	return &VoteService{
		votes:     votes,
		publisher: publisher,
		logger:    logger,
		clock:     time.Now,
	}
}

// Vote creates or replaces the caller's rating of ref and returns the new stats
func (s *VoteService) Vote(ctx context.Context, ref valueobjects.EntityRef, userID string, rating int) (*VoteStats, error) {
	if userID == "" {
		return nil, pkgerrors.NewUnauthorizedError("authentication required")
	}
	r, err := valueobjects.NewRating(rating)
	if err != nil {
		return nil, err
	}

	var (
		saved  *entities.Vote
		revote bool
	)
	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		saved, revote, err = s.upsert(ctx, ref, userID, r)
		if err == nil {
			break
		}
		if !pkgerrors.IsConflict(err) || attempt == maxVoteAttempts {
			return nil, pkgerrors.Wrap(err, "failed to record vote")
		}

		s.logger.Debug("Vote write conflict, retrying",
			zap.String("entity", ref.String()),
			zap.String("userID", userID),
			zap.Int("attempt", attempt),
		)
	}

	if err := s.publisher.Publish(ctx, events.NewVoteCast(saved, revote)); err != nil {
		s.logger.Warn("Failed to publish vote event", zap.String("voteID", saved.ID()), zap.Error(err))
	}

	s.logger.Info("Vote recorded",
		zap.String("entity", ref.String()),
		zap.String("userID", userID),
		zap.Int("rating", rating),
		zap.Bool("revote", revote),
	)

	return s.GetStats(ctx, ref, userID)
}

// upsert writes one attempt. The returned bool reports whether an existing
// vote was changed.
func (s *VoteService) upsert(ctx context.Context, ref valueobjects.EntityRef, userID string, rating valueobjects.Rating) (*entities.Vote, bool, error) {
	existing, err := s.votes.FindVote(ctx, ref, userID)
	switch {
	case err == nil:
		expected := existing.Version()
		existing.ChangeRating(rating, s.clock())
		if err := s.votes.UpdateVote(ctx, existing, expected); err != nil {
			return nil, true, err
		}
		return existing, true, nil

	case pkgerrors.IsNotFound(err):
		vote, err := entities.NewVote(ref, userID, rating, s.clock())
		if err != nil {
			return nil, false, err
		}
		if err := s.votes.CreateVote(ctx, vote); err != nil {
			return nil, false, err
		}
		return vote, false, nil

	default:
		return nil, false, err
	}
}

// GetStats returns the rounded mean rating, the vote count and, when userID
// has voted, the caller's own rating.
func (s *VoteService) GetStats(ctx context.Context, ref valueobjects.EntityRef, userID string) (*VoteStats, error) {
	votes, err := s.votes.ListVotes(ctx, ref)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "failed to load votes")
	}
	stats := computeStats(s.countable(ref, votes), userID)
	return &stats, nil
}

// GetAnalytics returns the stats plus a five bucket distribution ordered by star
func (s *VoteService) GetAnalytics(ctx context.Context, ref valueobjects.EntityRef, userID string) (*VoteAnalytics, error) {
	votes, err := s.votes.ListVotes(ctx, ref)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "failed to load votes")
	}
	votes = s.countable(ref, votes)

	counts := make([]int, valueobjects.MaxRating+1)
	for _, v := range votes {
		counts[v.Rating().Int()]++
	}

	distribution := make([]RatingBucket, 0, valueobjects.MaxRating)
	for star := valueobjects.MinRating; star <= valueobjects.MaxRating; star++ {
		distribution = append(distribution, RatingBucket{Star: star, Count: counts[star]})
	}

	return &VoteAnalytics{
		VoteStats:    computeStats(votes, userID),
		Distribution: distribution,
	}, nil
}

// countable drops stored votes whose rating is out of range
func (s *VoteService) countable(ref valueobjects.EntityRef, votes []*entities.Vote) []*entities.Vote {
	kept := votes[:0:0]
	for _, v := range votes {
		if !v.Rating().Valid() {
			s.logger.Warn("Ignoring vote with out of range rating",
				zap.String("entity", ref.String()),
				zap.String("voteID", v.ID()),
				zap.Int("rating", v.Rating().Int()),
			)
			continue
		}
		kept = append(kept, v)
	}
	return kept
}

func computeStats(votes []*entities.Vote, userID string) VoteStats {
	stats := VoteStats{VoteCount: len(votes)}
	if len(votes) == 0 {
		return stats
	}

	sum := 0
	for _, v := range votes {
		sum += v.Rating().Int()
		if userID != "" && v.UserID() == userID {
			rating := v.Rating().Int()
			stats.UserRating = &rating
		}
	}
	stats.AverageRating = roundToTenth(float64(sum) / float64(len(votes)))
	return stats
}

// roundToTenth rounds half up to one decimal place
func roundToTenth(v float64) float64 {
	return math.Floor(v*10+0.5) / 10
}
