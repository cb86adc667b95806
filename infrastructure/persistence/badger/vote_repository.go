package badger

import (
	"context"
	"encoding/json"
	"errors"

	"linklist-backend/domain/core/entities"
	"linklist-backend/domain/core/valueobjects"
	pkgerrors "linklist-backend/pkg/errors"

	"github.com/dgraph-io/badger/v4"
)

func votePrefix(ref valueobjects.EntityRef) string {
	return "vote/" + string(ref.Type()) + "/" + ref.ID() + "/"
}

func voteKey(ref valueobjects.EntityRef, userID string) string {
	return votePrefix(ref) + userID
}

// VoteRepository implements ports.VoteRepository
type VoteRepository struct {
	store *Store
}

// NewVoteRepository creates a vote repository on store
func NewVoteRepository(store *Store) *VoteRepository {
	return &VoteRepository{store: store}
}

func (r *VoteRepository) FindVote(ctx context.Context, ref valueobjects.EntityRef, userID string) (*entities.Vote, error) {
	var rec voteRecord
	err := r.store.view(ctx, "FindVote", func(txn *badger.Txn) error {
		err := getJSON(txn, voteKey(ref, userID), &rec)
		if errors.Is(err, badger.ErrKeyNotFound) {
			return pkgerrors.NewNotFoundError("vote")
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	return rec.toEntity()
}

func (r *VoteRepository) CreateVote(ctx context.Context, vote *entities.Vote) error {
	key := voteKey(vote.Ref(), vote.UserID())
	return r.store.update(ctx, "CreateVote", func(txn *badger.Txn) error {
		found, err := exists(txn, key)
		if err != nil {
			return err
		}
		if found {
			return pkgerrors.NewConflictError("vote already exists")
		}
		return setJSON(txn, key, toVoteRecord(vote))
	})
}

func (r *VoteRepository) UpdateVote(ctx context.Context, vote *entities.Vote, expectedVersion int) error {
	key := voteKey(vote.Ref(), vote.UserID())
	return r.store.update(ctx, "UpdateVote", func(txn *badger.Txn) error {
		var current voteRecord
		err := getJSON(txn, key, &current)
		if errors.Is(err, badger.ErrKeyNotFound) {
			return pkgerrors.NewConflictError("vote no longer exists")
		}
		if err != nil {
			return err
		}
		if current.Version != expectedVersion {
			return pkgerrors.NewConflictError("vote was modified concurrently")
		}
		return setJSON(txn, key, toVoteRecord(vote))
	})
}

func (r *VoteRepository) ListVotes(ctx context.Context, ref valueobjects.EntityRef) ([]*entities.Vote, error) {
	var votes []*entities.Vote
	err := r.store.view(ctx, "ListVotes", func(txn *badger.Txn) error {
		return scanJSON(txn, votePrefix(ref), func(val []byte) error {
			var rec voteRecord
			if err := json.Unmarshal(val, &rec); err != nil {
				return err
			}
			v, err := rec.toEntity()
			if err != nil {
				return err
			}
			votes = append(votes, v)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return votes, nil
}
