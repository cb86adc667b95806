package services

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"linklist-backend/application/mocks"
	"linklist-backend/domain/core/valueobjects"
	"linklist-backend/infrastructure/persistence/badger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type engagement struct {
	owners        *badger.OwnershipLookup
	votes         *VoteService
	comments      *CommentService
	notifications *NotificationService
	pusher        *mocks.RecordingPusher
}

func newEngagement(t *testing.T) *engagement {
	t.Helper()
	store, err := badger.OpenInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	logger := zap.NewNop()
	commentRepo := badger.NewCommentRepository(store)
	owners := badger.NewOwnershipLookup(store)
	pusher := &mocks.RecordingPusher{}

	notifications := NewNotificationService(badger.NewNotificationRepository(store), commentRepo, owners, pusher, logger)
	return &engagement{
		owners:        owners,
		votes:         NewVoteService(badger.NewVoteRepository(store), nil, logger),
		comments:      NewCommentService(commentRepo, owners, notifications, nil, 0, logger),
		notifications: notifications,
		pusher:        pusher,
	}
}

func unread(t *testing.T, e *engagement, userID string) int {
	t.Helper()
	n, err := e.notifications.GetUnreadCount(context.Background(), userID)
	require.NoError(t, err)
	return n
}

func TestEngagement_CommentReplyDeleteScenario(t *testing.T) {
	e := newEngagement(t)
	ctx := context.Background()
	list := valueobjects.MustEntityRef("LIST", "L")
	require.NoError(t, e.owners.SetOwner(ctx, list, "owner1"))

	owner := valueobjects.NewCaller("owner1", "owner1")
	commenter := valueobjects.NewCaller("commenter1", "commenter1")
	admin := valueobjects.NewCaller("mod", "mod", "admin")

	top, err := e.comments.AddComment(ctx, list, commenter, "Great list!")
	require.NoError(t, err)
	assert.Equal(t, 1, unread(t, e, "owner1"))
	assert.Equal(t, 0, unread(t, e, "commenter1"))

	page, err := e.notifications.GetNotifications(ctx, "owner1", 0, 20)
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, valueobjects.NotificationTypeComment, page.Items[0].Type())
	assert.Equal(t, "Great list!", page.Items[0].Preview())
	assert.Equal(t, top.ID(), page.Items[0].TargetID())

	_, err = e.comments.AddReply(ctx, top.ID(), owner, "Thanks!")
	require.NoError(t, err)
	assert.Equal(t, 1, unread(t, e, "commenter1"))
	assert.Equal(t, 1, unread(t, e, "owner1"), "own reply must not notify the actor")
	assert.Equal(t, []string{"owner1", "commenter1"}, e.pusher.Recipients())

	_, err = e.comments.AddComment(ctx, list, commenter, "Again")
	require.Error(t, err)

	tree, err := e.comments.GetCommentsTree(ctx, list)
	require.NoError(t, err)
	require.Len(t, tree, 1)
	require.Len(t, tree[0].Replies(), 1)

	deleted, err := e.comments.DeleteComment(ctx, top.ID(), admin)
	require.NoError(t, err)
	assert.True(t, deleted)

	tree, err = e.comments.GetCommentsTree(ctx, list)
	require.NoError(t, err)
	assert.Empty(t, tree)

	deleted, err = e.comments.DeleteComment(ctx, top.ID(), admin)
	require.NoError(t, err)
	assert.False(t, deleted)

	// the guard is gone, so the commenter may post again
	_, err = e.comments.AddComment(ctx, list, commenter, "Back")
	require.NoError(t, err)

	ok, err := e.notifications.MarkAllRead(ctx, "owner1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 0, unread(t, e, "owner1"))
}

func TestEngagement_ConcurrentVotesFromDistinctUsers(t *testing.T) {
	e := newEngagement(t)
	ctx := context.Background()
	link := valueobjects.MustEntityRef("LINK", "k")

	const voters = 25
	var wg sync.WaitGroup
	errs := make(chan error, voters)
	for i := 0; i < voters; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := e.votes.Vote(ctx, link, fmt.Sprintf("user-%d", i), i%5+1)
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	stats, err := e.votes.GetStats(ctx, link, "")
	require.NoError(t, err)
	assert.Equal(t, voters, stats.VoteCount)
	assert.Equal(t, 3.0, stats.AverageRating)
}

func TestEngagement_ConcurrentRevotesBySameUser(t *testing.T) {
	e := newEngagement(t)
	ctx := context.Background()
	link := valueobjects.MustEntityRef("LINK", "k")

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func(rating int) {
			defer wg.Done()
			_, _ = e.votes.Vote(ctx, link, "same", rating)
		}(i + 1)
	}
	wg.Wait()

	stats, err := e.votes.GetStats(ctx, link, "same")
	require.NoError(t, err)
	assert.Equal(t, 1, stats.VoteCount)
	require.NotNil(t, stats.UserRating)
	assert.Equal(t, float64(*stats.UserRating), stats.AverageRating)
}

func TestEngagement_RevoteReplacesRating(t *testing.T) {
	e := newEngagement(t)
	ctx := context.Background()
	link := valueobjects.MustEntityRef("LINK", "k")

	_, err := e.votes.Vote(ctx, link, "u", 2)
	require.NoError(t, err)
	stats, err := e.votes.Vote(ctx, link, "u", 5)
	require.NoError(t, err)

	assert.Equal(t, 1, stats.VoteCount)
	assert.Equal(t, 5.0, stats.AverageRating)
	assert.Equal(t, 5, *stats.UserRating)
}
