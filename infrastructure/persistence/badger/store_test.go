package badger

import (
	"context"
	"sync"
	"testing"
	"time"

	"linklist-backend/domain/core/entities"
	"linklist-backend/domain/core/valueobjects"
	pkgerrors "linklist-backend/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openStore(t *testing.T) *Store {
	t.Helper()
	store, err := OpenInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

var ref = valueobjects.MustEntityRef("LINK", "k1")

func TestOpenRequiresPath(t *testing.T) {
	_, err := Open(Config{}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "path is required")
}

func TestOpenPersistent(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	store, err := Open(DefaultConfig(dir), nil)
	require.NoError(t, err)
	owners := NewOwnershipLookup(store)
	require.NoError(t, owners.SetOwner(ctx, ref, "owner1"))
	require.NoError(t, store.Close())

	reopened, err := Open(DefaultConfig(dir), nil)
	require.NoError(t, err)
	defer reopened.Close()

	owner, err := NewOwnershipLookup(reopened).OwnerOf(ctx, ref)
	require.NoError(t, err)
	assert.Equal(t, "owner1", owner)
}

func TestVoteRepository(t *testing.T) {
	repo := NewVoteRepository(openStore(t))
	ctx := context.Background()

	_, err := repo.FindVote(ctx, ref, "u1")
	require.True(t, pkgerrors.IsNotFound(err))

	vote, err := entities.NewVote(ref, "u1", 3, time.Now())
	require.NoError(t, err)
	require.NoError(t, repo.CreateVote(ctx, vote))

	dup, _ := entities.NewVote(ref, "u1", 5, time.Now())
	assert.True(t, pkgerrors.IsConflict(repo.CreateVote(ctx, dup)))

	stored, err := repo.FindVote(ctx, ref, "u1")
	require.NoError(t, err)
	assert.Equal(t, vote.ID(), stored.ID())
	assert.Equal(t, 1, stored.Version())

	stored.ChangeRating(4, time.Now())
	require.NoError(t, repo.UpdateVote(ctx, stored, 1))
	assert.True(t, pkgerrors.IsConflict(repo.UpdateVote(ctx, stored, 1)), "stale version must conflict")

	other, _ := entities.NewVote(ref, "u2", 1, time.Now())
	require.NoError(t, repo.CreateVote(ctx, other))
	otherRef := valueobjects.MustEntityRef("LINK", "k10")
	unrelated, _ := entities.NewVote(otherRef, "u1", 2, time.Now())
	require.NoError(t, repo.CreateVote(ctx, unrelated))

	votes, err := repo.ListVotes(ctx, ref)
	require.NoError(t, err)
	assert.Len(t, votes, 2)
}

func TestVoteRepository_ConcurrentCreateOnlyOneWins(t *testing.T) {
	repo := NewVoteRepository(openStore(t))
	ctx := context.Background()

	const writers = 16
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		created   int
		conflicts int
	)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, _ := entities.NewVote(ref, "same-user", 2, time.Now())
			err := repo.CreateVote(ctx, v)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				created++
			case pkgerrors.IsConflict(err):
				conflicts++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, created)
	assert.Equal(t, writers-1, conflicts)
}

func TestCommentRepository(t *testing.T) {
	repo := NewCommentRepository(openStore(t))
	ctx := context.Background()
	now := time.Now()

	top, err := entities.NewComment(ref, "alice", "first", now)
	require.NoError(t, err)
	require.NoError(t, repo.CreateTopLevel(ctx, top))

	again, _ := entities.NewComment(ref, "alice", "second", now)
	assert.True(t, pkgerrors.IsDuplicatePost(repo.CreateTopLevel(ctx, again)))

	reply, _ := entities.NewReply(top, "bob", "reply", now.Add(time.Second))
	require.NoError(t, repo.CreateReply(ctx, reply))
	reply2, _ := entities.NewReply(top, "alice", "another", now.Add(2*time.Second))
	require.NoError(t, repo.CreateReply(ctx, reply2))

	all, err := repo.ListByEntity(ctx, ref)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	replies, err := repo.ListReplies(ctx, top.ID())
	require.NoError(t, err)
	assert.Len(t, replies, 2)

	require.NoError(t, top.Edit("edited", now.Add(time.Minute)))
	require.NoError(t, repo.UpdateComment(ctx, top))
	loaded, err := repo.GetComment(ctx, top.ID())
	require.NoError(t, err)
	assert.Equal(t, "edited", loaded.Content())

	require.NoError(t, repo.DeleteComment(ctx, reply))
	require.NoError(t, repo.DeleteComment(ctx, top))

	_, err = repo.GetComment(ctx, top.ID())
	assert.True(t, pkgerrors.IsNotFound(err))

	// the guard went with the comment
	fresh, _ := entities.NewComment(ref, "alice", "back again", now)
	require.NoError(t, repo.CreateTopLevel(ctx, fresh))

	replies, err = repo.ListReplies(ctx, top.ID())
	require.NoError(t, err)
	assert.Len(t, replies, 1)
}

func TestCommentRepository_ConcurrentTopLevelGuard(t *testing.T) {
	repo := NewCommentRepository(openStore(t))
	ctx := context.Background()

	const writers = 12
	var (
		wg         sync.WaitGroup
		mu         sync.Mutex
		ok         int
		duplicates int
	)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c, _ := entities.NewComment(ref, "racer", "me first", time.Now())
			err := repo.CreateTopLevel(ctx, c)
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				ok++
			} else if pkgerrors.IsDuplicatePost(err) {
				duplicates++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, ok)
	assert.Equal(t, writers-1, duplicates)

	all, err := repo.ListByEntity(ctx, ref)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestNotificationRepository(t *testing.T) {
	repo := NewNotificationRepository(openStore(t))
	ctx := context.Background()

	n, err := entities.NewNotification("owner", valueobjects.NotificationTypeComment, ref, "alice", "hi", "c1", time.Now())
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, n))

	other, _ := entities.NewNotification("someone", valueobjects.NotificationTypeReply, ref, "alice", "hi", "c1", time.Now())
	require.NoError(t, repo.Create(ctx, other))

	list, err := repo.ListByRecipient(ctx, "owner")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, n.ID(), list[0].ID())
	assert.Equal(t, valueobjects.NotificationTypeComment, list[0].Type())

	n.MarkRead()
	require.NoError(t, repo.Update(ctx, n))
	loaded, err := repo.Get(ctx, n.ID())
	require.NoError(t, err)
	assert.True(t, loaded.IsRead())

	_, err = repo.Get(ctx, "missing")
	assert.True(t, pkgerrors.IsNotFound(err))
}

func TestOwnershipLookup_Unknown(t *testing.T) {
	owners := NewOwnershipLookup(openStore(t))

	owner, err := owners.OwnerOf(context.Background(), ref)
	require.NoError(t, err)
	assert.Empty(t, owner)
}
