package persistence

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BryServices/auradhom-v2/internal/domain/order"
	"github.com/BryServices/auradhom-v2/internal/infrastructure/persistence/gateway"
	"github.com/BryServices/auradhom-v2/internal/infrastructure/persistence/gateway/gatewaytest"
	"github.com/BryServices/auradhom-v2/internal/infrastructure/persistence/local"
	"github.com/BryServices/auradhom-v2/pkg/logger"
)

var errDown = errors.New("backend down")

func newTestOrder(t *testing.T, id, number string, at time.Time) *order.Order {
	t.Helper()
	o, err := order.NewOrder(id, number,
		order.Customer{FirstName: "Ana", LastName: "Nkounkou", Phone: "+242 05 555 0101"},
		[]order.LineItem{{ProductID: "p1", ProductName: "Hoodie", Quantity: 1, UnitPrice: decimal.NewFromInt(25000)}},
		decimal.Zero, "", at)
	require.NoError(t, err)
	return o
}

func newRepo() (*OrderRepository, *gatewaytest.Faulty) {
	gw := gatewaytest.NewFaulty(local.NewMemory())
	return NewOrderRepository(gw, logger.NewNop()), gw
}

func TestOrderRepository_InsertCachesOnAck(t *testing.T) {
	ctx := context.Background()
	repo, gw := newRepo()
	o := newTestOrder(t, "o1", "ADH-1", time.Now())

	require.NoError(t, repo.Insert(ctx, o))

	assert.Equal(t, order.SyncSynced, o.SyncStatus)
	assert.Equal(t, []order.Status{order.StatusPending}, repo.ViewsOf("o1"))
	rec, err := gw.GetOne(ctx, gateway.OrdersPending, "o1")
	require.NoError(t, err)
	assert.NotNil(t, rec)
}

func TestOrderRepository_InsertFailureLeavesViews(t *testing.T) {
	repo, gw := newRepo()
	gw.FailOn("put", errDown)
	o := newTestOrder(t, "o1", "ADH-1", time.Now())

	err := repo.Insert(context.Background(), o)

	var gwErr *gateway.Error
	require.ErrorAs(t, err, &gwErr)
	assert.Empty(t, repo.ViewsOf("o1"))
	assert.Equal(t, order.SyncPendingSync, o.SyncStatus)
}

func TestOrderRepository_TransitionMovesView(t *testing.T) {
	ctx := context.Background()
	repo, gw := newRepo()
	o := newTestOrder(t, "o1", "ADH-1", time.Now())
	require.NoError(t, repo.Insert(ctx, o))

	require.NoError(t, o.MarkValidated("admin", time.Now()))
	require.NoError(t, repo.Transition(ctx, o, order.StatusPending))

	assert.Equal(t, []order.Status{order.StatusValidated}, repo.ViewsOf("o1"))
	assert.Empty(t, repo.List(order.StatusPending))
	assert.Equal(t, 1, gw.Calls("move"))

	pending, _ := gw.GetAll(ctx, gateway.OrdersPending, nil)
	validated, _ := gw.GetAll(ctx, gateway.OrdersValidated, nil)
	assert.Empty(t, pending)
	assert.Len(t, validated, 1)
}

func TestOrderRepository_TransitionFailureKeepsView(t *testing.T) {
	ctx := context.Background()
	repo, gw := newRepo()
	o := newTestOrder(t, "o1", "ADH-1", time.Now())
	require.NoError(t, repo.Insert(ctx, o))
	gw.FailOn("move", errDown)

	require.NoError(t, o.MarkRejected("admin", "out of stock", time.Now()))
	err := repo.Transition(ctx, o, order.StatusPending)

	assert.Error(t, err)
	assert.Equal(t, []order.Status{order.StatusPending}, repo.ViewsOf("o1"))
	cached, err := repo.FindByID(ctx, "o1")
	require.NoError(t, err)
	assert.Equal(t, order.StatusPending, cached.Status)
	assert.Empty(t, cached.RejectionReason)
}

func TestOrderRepository_TransitionOfUnsyncedOrderWritesTarget(t *testing.T) {
	ctx := context.Background()
	repo, gw := newRepo()
	o := newTestOrder(t, "o1", "ADH-1", time.Now())
	repo.Admit(o)

	require.NoError(t, o.MarkValidated("admin", time.Now()))
	require.NoError(t, repo.Transition(ctx, o, order.StatusPending))

	assert.Equal(t, 0, gw.Calls("move"))
	assert.Equal(t, order.SyncSynced, o.SyncStatus)
	assert.Empty(t, repo.Unsynced())
	rec, err := gw.GetOne(ctx, gateway.OrdersValidated, "o1")
	require.NoError(t, err)
	assert.NotNil(t, rec)
}

func TestOrderRepository_FindReadsThrough(t *testing.T) {
	ctx := context.Background()
	store := local.NewMemory()
	seed := NewOrderRepository(store, logger.NewNop())
	require.NoError(t, seed.Insert(ctx, newTestOrder(t, "o1", "ADH-42", time.Now())))

	repo := NewOrderRepository(store, logger.NewNop())

	byNumber, err := repo.FindByOrderNumber(ctx, "ADH-42")
	require.NoError(t, err)
	require.NotNil(t, byNumber)
	assert.Equal(t, "o1", byNumber.ID)

	byID, err := repo.FindByID(ctx, "o1")
	require.NoError(t, err)
	require.NotNil(t, byID)

	missing, err := repo.FindByID(ctx, "nope")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestOrderRepository_ReturnsClones(t *testing.T) {
	ctx := context.Background()
	repo, _ := newRepo()
	require.NoError(t, repo.Insert(ctx, newTestOrder(t, "o1", "ADH-1", time.Now())))

	got := repo.List(order.StatusPending)
	got[0].Customer.FirstName = "mutated"

	again, err := repo.FindByID(ctx, "o1")
	require.NoError(t, err)
	assert.Equal(t, "Ana", again.Customer.FirstName)
}

func TestOrderRepository_RefreshKeepsUnsynced(t *testing.T) {
	ctx := context.Background()
	store := local.NewMemory()
	repo := NewOrderRepository(store, logger.NewNop())

	now := time.Now()
	require.NoError(t, repo.Insert(ctx, newTestOrder(t, "o1", "ADH-1", now)))
	repo.Admit(newTestOrder(t, "o2", "ADH-2", now.Add(time.Second)))

	// another instance validated o1 meanwhile
	other := NewOrderRepository(store, logger.NewNop())
	o1, err := other.FindByID(ctx, "o1")
	require.NoError(t, err)
	require.NoError(t, o1.MarkValidated("other-admin", now))
	require.NoError(t, other.Transition(ctx, o1, order.StatusPending))

	require.NoError(t, repo.RefreshFromStore(ctx))

	assert.Equal(t, []order.Status{order.StatusValidated}, repo.ViewsOf("o1"))
	assert.Equal(t, []order.Status{order.StatusPending}, repo.ViewsOf("o2"))
	require.Len(t, repo.Unsynced(), 1)
	assert.Equal(t, "o2", repo.Unsynced()[0].ID)
}

func TestOrderRepository_RefreshFailureKeepsViews(t *testing.T) {
	ctx := context.Background()
	repo, gw := newRepo()
	require.NoError(t, repo.Insert(ctx, newTestOrder(t, "o1", "ADH-1", time.Now())))
	gw.FailOn("get_all", errDown)

	assert.Error(t, repo.RefreshFromStore(ctx))
	assert.Len(t, repo.All(), 1)
}
