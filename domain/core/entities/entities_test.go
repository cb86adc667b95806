package entities

import (
	"strings"
	"testing"
	"time"

	"linklist-backend/domain/core/valueobjects"
	pkgerrors "linklist-backend/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var listRef = valueobjects.MustEntityRef("LIST", "L")

func TestNewComment(t *testing.T) {
	now := time.Now()

	c, err := NewComment(listRef, "commenter1", "  Great list!  ", now)
	require.NoError(t, err)
	assert.NotEmpty(t, c.ID())
	assert.Equal(t, "Great list!", c.Content())
	assert.True(t, c.IsTopLevel())
	assert.True(t, c.IsAuthoredBy("commenter1"))
	assert.False(t, c.IsAuthoredBy(""))

	_, err = NewComment(listRef, "commenter1", "   ", now)
	assert.True(t, pkgerrors.IsValidation(err))

	_, err = NewComment(listRef, "commenter1", strings.Repeat("x", MaxCommentLength+1), now)
	assert.True(t, pkgerrors.IsValidation(err))

	_, err = NewComment(listRef, "", "hi", now)
	assert.True(t, pkgerrors.IsValidation(err))
}

func TestNewReply(t *testing.T) {
	now := time.Now()
	parent, err := NewComment(listRef, "commenter1", "Great list!", now)
	require.NoError(t, err)

	reply, err := NewReply(parent, "owner1", "Thanks", now.Add(time.Second))
	require.NoError(t, err)
	assert.Equal(t, parent.ID(), reply.ParentID())
	assert.False(t, reply.IsTopLevel())
	assert.True(t, reply.Ref().Equals(listRef))
}

func TestComment_Edit(t *testing.T) {
	created := time.Now()
	c, err := NewComment(listRef, "u1", "first", created)
	require.NoError(t, err)

	edited := created.Add(time.Minute)
	require.NoError(t, c.Edit("second", edited))
	assert.Equal(t, "second", c.Content())
	assert.Equal(t, edited, c.UpdatedAt())
	assert.Equal(t, created, c.CreatedAt())

	assert.Error(t, c.Edit("", edited))
	assert.Equal(t, "second", c.Content())
}

func TestSortChronologically_TiesByID(t *testing.T) {
	at := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	comments := []*Comment{
		ReconstructComment("c", listRef, "u", "x", "", at, at),
		ReconstructComment("a", listRef, "u", "x", "", at, at),
		ReconstructComment("z", listRef, "u", "x", "", at.Add(-time.Second), at),
		ReconstructComment("b", listRef, "u", "x", "", at, at),
	}

	SortChronologically(comments)

	var ids []string
	for _, c := range comments {
		ids = append(ids, c.ID())
	}
	assert.Equal(t, []string{"z", "a", "b", "c"}, ids)
}

func TestVote_ChangeRating(t *testing.T) {
	now := time.Now()
	v, err := NewVote(listRef, "u1", valueobjects.Rating(3), now)
	require.NoError(t, err)
	assert.Equal(t, 1, v.Version())

	later := now.Add(time.Hour)
	v.ChangeRating(valueobjects.Rating(5), later)
	assert.Equal(t, 5, v.Rating().Int())
	assert.Equal(t, 2, v.Version())
	assert.Equal(t, later, v.UpdatedAt())
	assert.Equal(t, now, v.CreatedAt())
}

func TestNotification(t *testing.T) {
	now := time.Now()
	content := strings.Repeat("y", 150)

	n, err := NewNotification("owner1", valueobjects.NotificationTypeComment, listRef, "commenter1", content, "c1", now)
	require.NoError(t, err)
	assert.False(t, n.IsRead())
	assert.Equal(t, strings.Repeat("y", 100)+"...", n.Preview())
	assert.True(t, n.IsOwnedBy("owner1"))
	assert.False(t, n.IsOwnedBy("commenter1"))

	summary := n.Summary()
	assert.Equal(t, "COMMENT", summary.Type)
	assert.Equal(t, "LIST", summary.EntityType)
	assert.Equal(t, "L", summary.EntityID)
	assert.Equal(t, "commenter1", summary.ActorUsername)
	assert.Equal(t, "c1", summary.TargetID)

	assert.True(t, n.MarkRead())
	assert.False(t, n.MarkRead())
	assert.True(t, n.IsRead())
}

func TestSortNewestFirst(t *testing.T) {
	at := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	mk := func(id string, offset time.Duration) *Notification {
		return ReconstructNotification(id, "u", valueobjects.NotificationTypeReply, listRef, "a", "p", "t", false, at.Add(offset))
	}
	items := []*Notification{mk("old", 0), mk("b", time.Hour), mk("a", time.Hour), mk("mid", time.Minute)}

	SortNewestFirst(items)

	assert.Equal(t, "a", items[0].ID())
	assert.Equal(t, "b", items[1].ID())
	assert.Equal(t, "mid", items[2].ID())
	assert.Equal(t, "old", items[3].ID())
}
