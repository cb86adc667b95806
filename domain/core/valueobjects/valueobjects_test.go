package valueobjects

import (
	"strings"
	"testing"

	pkgerrors "linklist-backend/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEntityRef(t *testing.T) {
	ref, err := NewEntityRef(" list ", "L1")
	require.NoError(t, err)
	assert.Equal(t, EntityTypeList, ref.Type())
	assert.Equal(t, "L1", ref.ID())
	assert.Equal(t, "LIST#L1", ref.String())
	assert.True(t, ref.Equals(MustEntityRef("LIST", "L1")))

	for _, tc := range []struct{ typ, id string }{
		{"", "L1"},
		{"LIST", ""},
		{"LIST", "a#b"},
		{"LI/ST", "L1"},
	} {
		_, err := NewEntityRef(tc.typ, tc.id)
		assert.True(t, pkgerrors.IsValidation(err), "%q/%q", tc.typ, tc.id)
	}
}

func TestNewRating(t *testing.T) {
	for v := MinRating; v <= MaxRating; v++ {
		r, err := NewRating(v)
		require.NoError(t, err)
		assert.Equal(t, v, r.Int())
		assert.True(t, r.Valid())
	}
	assert.False(t, Rating(0).Valid())
	assert.False(t, Rating(7).Valid())

	for _, v := range []int{-1, 0, 6, 100} {
		_, err := NewRating(v)
		assert.True(t, pkgerrors.IsValidation(err), "rating %d", v)
	}
}

func TestIsAdmin(t *testing.T) {
	assert.True(t, IsAdmin(NewRoles("AdminUser")))
	assert.True(t, IsAdmin(NewRoles("user", "admin")))
	assert.False(t, IsAdmin(NewRoles("user")))
	assert.False(t, IsAdmin(NewRoles("Admin", "ADMIN", "adminuser")))
	assert.False(t, IsAdmin(nil))
}

func TestCaller(t *testing.T) {
	c := NewCaller("u1", "", "user")
	assert.Equal(t, "u1", c.DisplayName())
	assert.False(t, c.IsAdmin())

	c = NewCaller("u1", "alice", "admin", " ")
	assert.Equal(t, "alice", c.DisplayName())
	assert.True(t, c.IsAdmin())
	assert.Len(t, c.Roles, 1)
}

func TestPreview(t *testing.T) {
	short := "Great list!"
	assert.Equal(t, short, Preview(short))

	exact := strings.Repeat("a", MaxPreviewLength)
	assert.Equal(t, exact, Preview(exact))

	long := strings.Repeat("b", MaxPreviewLength+1)
	assert.Equal(t, strings.Repeat("b", MaxPreviewLength)+"...", Preview(long))

	multibyte := strings.Repeat("é", MaxPreviewLength+5)
	assert.Equal(t, strings.Repeat("é", MaxPreviewLength)+"...", Preview(multibyte))
}

func TestParseNotificationType(t *testing.T) {
	nt, err := ParseNotificationType("reply")
	require.NoError(t, err)
	assert.Equal(t, NotificationTypeReply, nt)

	_, err = ParseNotificationType("LIKE")
	assert.True(t, pkgerrors.IsValidation(err))
}
