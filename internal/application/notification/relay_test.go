package notification

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	domain "github.com/BryServices/auradhom-v2/internal/domain/notification"
	"github.com/BryServices/auradhom-v2/internal/domain/order"
	"github.com/BryServices/auradhom-v2/internal/infrastructure/persistence"
	"github.com/BryServices/auradhom-v2/internal/infrastructure/persistence/local"
	"github.com/BryServices/auradhom-v2/pkg/logger"
)

// MockNotificationRepository là mock cho NotificationRepository interface
type MockNotificationRepository struct {
	mock.Mock
}

func (m *MockNotificationRepository) Save(ctx context.Context, n *domain.Notification) error {
	return m.Called(ctx, n).Error(0)
}

func (m *MockNotificationRepository) SetRead(ctx context.Context, id string, read bool) error {
	return m.Called(ctx, id, read).Error(0)
}

func (m *MockNotificationRepository) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockNotificationRepository) FindAll(ctx context.Context) ([]*domain.Notification, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Notification), args.Error(1)
}

func createdEvent(orderID, number string) order.Event {
	return order.Event{
		ID:          "evt-" + orderID,
		Type:        order.EventOrderCreated,
		OrderID:     orderID,
		OrderNumber: number,
		Order:       &order.Order{ID: orderID, OrderNumber: number, Customer: order.Customer{FirstName: "Grace", LastName: "Mabiala"}},
		OccurredAt:  time.Now(),
	}
}

func newRelay(t *testing.T) *Relay {
	t.Helper()
	r, err := NewRelay(context.Background(), persistence.NewNotificationRepository(local.NewMemory()), logger.NewNop())
	require.NoError(t, err)
	return r
}

// Scenario E.
func TestRelay_OneNotificationPerOrder(t *testing.T) {
	r := newRelay(t)
	ctx := context.Background()

	r.HandleEvent(ctx, createdEvent("o1", "ADH-1"))
	r.HandleEvent(ctx, createdEvent("o1", "ADH-1"))
	r.HandleEvent(ctx, createdEvent("o2", "ADH-2"))
	r.HandleEvent(ctx, createdEvent("o1", "ADH-1"))

	items := r.List()
	require.Len(t, items, 2)
	perOrder := map[string]int{}
	for _, n := range items {
		perOrder[n.OrderID]++
		assert.Equal(t, domain.KindNewOrder, n.Kind)
	}
	assert.Equal(t, map[string]int{"o1": 1, "o2": 1}, perOrder)
	assert.Contains(t, items[0].Message, "Grace Mabiala")
}

func TestRelay_IgnoresOtherEvents(t *testing.T) {
	r := newRelay(t)
	evt := createdEvent("o1", "ADH-1")
	evt.Type = order.EventOrderValidated

	r.HandleEvent(context.Background(), evt)

	assert.Empty(t, r.List())
}

func TestRelay_SeededFromStore(t *testing.T) {
	ctx := context.Background()
	repo := persistence.NewNotificationRepository(local.NewMemory())
	first, err := NewRelay(ctx, repo, logger.NewNop())
	require.NoError(t, err)
	first.HandleEvent(ctx, createdEvent("o1", "ADH-1"))

	restarted, err := NewRelay(ctx, repo, logger.NewNop())
	require.NoError(t, err)
	restarted.HandleEvent(ctx, createdEvent("o1", "ADH-1"))

	assert.Len(t, restarted.List(), 1)
}

func TestRelay_UnreadCountTracksSet(t *testing.T) {
	r := newRelay(t)
	ctx := context.Background()

	r.HandleEvent(ctx, createdEvent("o1", "ADH-1"))
	r.HandleEvent(ctx, createdEvent("o2", "ADH-2"))
	info, err := r.Create(ctx, domain.KindInfo, "Stock imported", "")
	require.NoError(t, err)
	assert.Equal(t, 3, r.UnreadCount())

	require.NoError(t, r.MarkRead(ctx, info.ID))
	assert.Equal(t, 2, r.UnreadCount())

	assert.Equal(t, 2, r.MarkAllRead(ctx))
	assert.Equal(t, 0, r.UnreadCount())

	require.NoError(t, r.Remove(ctx, info.ID))
	assert.Len(t, r.List(), 2)
	assert.ErrorIs(t, r.Remove(ctx, info.ID), domain.ErrNotFound)
	assert.ErrorIs(t, r.MarkRead(ctx, "nope"), domain.ErrNotFound)
}

func TestRelay_StoreFailureKeepsMemory(t *testing.T) {
	ctx := context.Background()
	repo := new(MockNotificationRepository)
	repo.On("FindAll", mock.Anything).Return([]*domain.Notification{}, nil)
	repo.On("Save", mock.Anything, mock.Anything).Return(errors.New("disk full"))

	r, err := NewRelay(ctx, repo, logger.NewNop())
	require.NoError(t, err)
	r.HandleEvent(ctx, createdEvent("o1", "ADH-1"))

	assert.Len(t, r.List(), 1)
	assert.Equal(t, 1, r.UnreadCount())
	repo.AssertNumberOfCalls(t, "Save", 1)
}

func TestRelay_CreateRejectsBadKind(t *testing.T) {
	r := newRelay(t)

	_, err := r.Create(context.Background(), domain.Kind("alert"), "x", "")

	assert.ErrorIs(t, err, domain.ErrInvalidKind)
}

func TestRelay_ReloadPicksUpOtherWriter(t *testing.T) {
	ctx := context.Background()
	repo := persistence.NewNotificationRepository(local.NewMemory())
	reader, err := NewRelay(ctx, repo, logger.NewNop())
	require.NoError(t, err)

	writer, err := NewRelay(ctx, repo, logger.NewNop())
	require.NoError(t, err)
	writer.HandleEvent(ctx, createdEvent("o9", "ADH-9"))

	assert.Empty(t, reader.List())
	require.NoError(t, reader.Reload(ctx))
	assert.Len(t, reader.List(), 1)

	reader.HandleEvent(ctx, createdEvent("o9", "ADH-9"))
	assert.Len(t, reader.List(), 1)
}
