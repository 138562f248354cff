package notification

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewNotification(t *testing.T) {
	now := time.Now()

	n, err := NewNotification("n1", KindNewOrder, "New order ADH-1", "o1", now)
	require.NoError(t, err)
	assert.False(t, n.Read)
	assert.Equal(t, "o1", n.OrderID)

	_, err = NewNotification("n2", Kind("push"), "x", "", now)
	assert.ErrorIs(t, err, ErrInvalidKind)

	_, err = NewNotification("n3", KindInfo, "", "", now)
	assert.ErrorIs(t, err, ErrEmptyMessage)
}

func TestUnreadCount(t *testing.T) {
	items := []*Notification{{ID: "1"}, {ID: "2", Read: true}, {ID: "3"}}

	assert.Equal(t, 2, UnreadCount(items))
	assert.Equal(t, 0, UnreadCount(nil))
}
