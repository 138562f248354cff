package order

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	domain "github.com/BryServices/auradhom-v2/internal/domain/order"
	"github.com/BryServices/auradhom-v2/internal/domain/repository"
	"github.com/BryServices/auradhom-v2/pkg/logger"
)

type Options struct {
	// WriteTimeout bounds every durable write.
	WriteTimeout      time.Duration
	OrderNumberPrefix string

	Now            func() time.Time
	NewID          func() string
	NewOrderNumber func(now time.Time) string
}

func (o Options) withDefaults() Options {
	if o.WriteTimeout <= 0 {
		o.WriteTimeout = 3 * time.Second
	}
	if o.OrderNumberPrefix == "" {
		o.OrderNumberPrefix = "ADH"
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	if o.NewID == nil {
		o.NewID = uuid.NewString
	}
	if o.NewOrderNumber == nil {
		prefix := o.OrderNumberPrefix
		o.NewOrderNumber = func(now time.Time) string {
			return fmt.Sprintf("%s-%d-%d", prefix, now.UnixMilli(), rand.Intn(1000))
		}
	}
	return o
}

// Service là order lifecycle engine. Mọi thao tác lifecycle chạy tuần tự
// dưới một lock; event được phát sau khi nhả lock.
type Service struct {
	repo repository.OrderRepository
	bus  *EventBus
	log  logger.Logger
	opts Options

	mu sync.Mutex
}

type CreateOrderCommand struct {
	Customer        domain.Customer
	LineItems       []domain.LineItem
	ShippingCost    decimal.Decimal
	OutboundMessage string
	// OrderNumber is the caller supplied natural key; generated when empty.
	OrderNumber string
}

type Counts struct {
	Pending   int `json:"pending"`
	Validated int `json:"validated"`
	Rejected  int `json:"rejected"`
	Unsynced  int `json:"unsynced"`
	Total     int `json:"total"`
}

type ResyncResult struct {
	Attempted int `json:"attempted"`
	Synced    int `json:"synced"`
	Failed    int `json:"failed"`
}

func NewService(repo repository.OrderRepository, bus *EventBus, log logger.Logger, opts Options) *Service {
	return &Service{
		repo: repo,
		bus:  bus,
		log:  log,
		opts: opts.withDefaults(),
	}
}

func (s *Service) Subscribe(sub Subscriber) func() {
	return s.bus.Subscribe(sub)
}

// CreateOrder validates the checkout and writes it through. When the durable
// write fails the order is still admitted as pending_sync, order.created is
// still published, and the returned error is a *PersistenceError alongside a
// non-nil order.
func (s *Service) CreateOrder(ctx context.Context, cmd CreateOrderCommand) (*domain.Order, error) {
	if err := domain.ValidateDraft(cmd.Customer, cmd.LineItems, cmd.ShippingCost); err != nil {
		return nil, err
	}

	s.mu.Lock()
	now := s.opts.Now()
	number := cmd.OrderNumber
	if number == "" {
		number = s.opts.NewOrderNumber(now)
	}

	existing, err := s.repo.FindByOrderNumber(ctx, number)
	if err != nil {
		s.log.Warn("duplicate check against store failed, relying on cache",
			logger.String("order_number", number),
			logger.Error(err),
		)
	}
	if existing != nil {
		s.mu.Unlock()
		return existing, &domain.DuplicateOrderError{OrderNumber: number, Existing: existing}
	}

	o, err := domain.NewOrder(s.opts.NewID(), number, cmd.Customer, cmd.LineItems, cmd.ShippingCost, cmd.OutboundMessage, now)
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}

	var warning error
	wctx, cancel := context.WithTimeout(ctx, s.opts.WriteTimeout)
	err = s.repo.Insert(wctx, o)
	cancel()
	if err != nil {
		o.SyncStatus = domain.SyncPendingSync
		s.repo.Admit(o)
		warning = &domain.PersistenceError{Op: "create", OrderID: o.ID, Err: err}
		s.log.Warn("order admitted locally, durable write failed",
			logger.String("order_id", o.ID),
			logger.String("order_number", o.OrderNumber),
			logger.Error(err),
		)
	} else {
		s.log.Info("order created",
			logger.String("order_id", o.ID),
			logger.String("order_number", o.OrderNumber),
			logger.String("total", o.Total.String()),
		)
	}
	evt := domain.NewEvent(s.opts.NewID(), domain.EventOrderCreated, o, now)
	s.mu.Unlock()

	s.bus.Publish(ctx, evt)
	return o.Clone(), warning
}

func (s *Service) ValidateOrder(ctx context.Context, id, by string) (*domain.Order, error) {
	return s.transition(ctx, id, domain.StatusValidated, domain.EventOrderValidated, func(o *domain.Order, now time.Time) error {
		return o.MarkValidated(by, now)
	})
}

func (s *Service) RejectOrder(ctx context.Context, id, by, reason string) (*domain.Order, error) {
	return s.transition(ctx, id, domain.StatusRejected, domain.EventOrderRejected, func(o *domain.Order, now time.Time) error {
		return o.MarkRejected(by, reason, now)
	})
}

// transition persists first; views move only after the store acknowledges.
func (s *Service) transition(
	ctx context.Context,
	id string,
	to domain.Status,
	typ domain.EventType,
	apply func(o *domain.Order, now time.Time) error,
) (*domain.Order, error) {
	s.mu.Lock()

	o, err := s.repo.FindByID(ctx, id)
	if err != nil {
		s.mu.Unlock()
		return nil, &domain.PersistenceError{Op: "lookup", OrderID: id, Err: err}
	}
	if o == nil {
		s.mu.Unlock()
		return nil, &domain.InvalidTransitionError{OrderID: id, To: to}
	}

	from := o.Status
	now := s.opts.Now()
	if err := apply(o, now); err != nil {
		s.mu.Unlock()
		return nil, err
	}

	wctx, cancel := context.WithTimeout(ctx, s.opts.WriteTimeout)
	err = s.repo.Transition(wctx, o, from)
	cancel()
	if err != nil {
		s.mu.Unlock()
		s.log.Error("order transition not persisted",
			logger.String("order_id", id),
			logger.String("to", string(to)),
			logger.Error(err),
		)
		return nil, &domain.PersistenceError{Op: string(to), OrderID: id, Err: err}
	}

	evt := domain.NewEvent(s.opts.NewID(), typ, o, now)
	s.mu.Unlock()

	s.log.Info("order transitioned",
		logger.String("order_id", id),
		logger.String("from", string(from)),
		logger.String("to", string(to)),
	)
	s.bus.Publish(ctx, evt)
	return o.Clone(), nil
}

// GetOrder reports false for unknown ids and for store read failures.
func (s *Service) GetOrder(ctx context.Context, id string) (*domain.Order, bool) {
	o, err := s.repo.FindByID(ctx, id)
	if err != nil {
		s.log.Warn("order lookup failed", logger.String("order_id", id), logger.Error(err))
		return nil, false
	}
	return o, o != nil
}

func (s *Service) FilterOrders(c domain.Criteria) []*domain.Order {
	return c.Filter(s.repo.All())
}

func (s *Service) Counts() Counts {
	c := Counts{
		Pending:   len(s.repo.List(domain.StatusPending)),
		Validated: len(s.repo.List(domain.StatusValidated)),
		Rejected:  len(s.repo.List(domain.StatusRejected)),
		Unsynced:  len(s.repo.Unsynced()),
	}
	c.Total = c.Pending + c.Validated + c.Rejected
	return c
}

// Resync retries every order the store has not acknowledged. Orders that
// still fail are marked failed and stay in their view.
func (s *Service) Resync(ctx context.Context) ResyncResult {
	s.mu.Lock()

	var (
		res    ResyncResult
		events []domain.Event
	)
	for _, o := range s.repo.Unsynced() {
		res.Attempted++
		wctx, cancel := context.WithTimeout(ctx, s.opts.WriteTimeout)
		err := s.repo.Save(wctx, o)
		cancel()
		if err != nil {
			res.Failed++
			o.SyncStatus = domain.SyncFailed
			s.repo.Admit(o)
			s.log.Warn("order resync failed", logger.String("order_id", o.ID), logger.Error(err))
			continue
		}
		res.Synced++
		events = append(events, domain.NewEvent(s.opts.NewID(), domain.EventOrderSynced, o, s.opts.Now()))
	}
	s.mu.Unlock()

	for _, evt := range events {
		s.bus.Publish(ctx, evt)
	}
	if res.Attempted > 0 {
		s.log.Info("order resync finished",
			logger.Int("attempted", res.Attempted),
			logger.Int("synced", res.Synced),
			logger.Int("failed", res.Failed),
		)
	}
	return res
}

func (s *Service) RefreshFromStore(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.repo.RefreshFromStore(ctx); err != nil {
		return fmt.Errorf("refresh order views: %w", err)
	}
	return nil
}

// IsWarning reports whether err is the degraded-create warning that comes
// with a usable order.
func IsWarning(err error) bool {
	var perr *domain.PersistenceError
	return errors.As(err, &perr) && perr.Op == "create"
}
