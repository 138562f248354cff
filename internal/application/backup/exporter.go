// Package backup mirrors every order into a local cache that does not depend
// on the primary backend, and exports that cache.
package backup

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/BryServices/auradhom-v2/internal/domain/order"
	"github.com/BryServices/auradhom-v2/internal/domain/repository"
	"github.com/BryServices/auradhom-v2/pkg/logger"
)

// ContainerWriter writes orders in a binary container format (Avro OCF).
type ContainerWriter interface {
	WriteContainer(w io.Writer, orders []*order.Order) error
}

type Exporter struct {
	repo   repository.BackupRepository
	writer ContainerWriter
	log    logger.Logger
	now    func() time.Time
}

func NewExporter(repo repository.BackupRepository, writer ContainerWriter, log logger.Logger) *Exporter {
	return &Exporter{repo: repo, writer: writer, log: log, now: time.Now}
}

// BackupOrder never fails the caller; errors are logged as *order.BackupError.
func (e *Exporter) BackupOrder(ctx context.Context, o *order.Order) {
	if o == nil {
		return
	}
	if err := e.repo.Upsert(ctx, o); err != nil {
		berr := &order.BackupError{OrderID: o.ID, Err: err}
		e.log.Error("order backup failed",
			logger.String("order_id", o.ID),
			logger.String("order_number", o.OrderNumber),
			logger.Error(berr),
		)
	}
}

// HandleEvent backs up the order snapshot carried by every lifecycle event.
func (e *Exporter) HandleEvent(ctx context.Context, evt order.Event) {
	e.BackupOrder(ctx, evt.Order)
}

type Buckets struct {
	Pending   []*order.Order `json:"pending"`
	Validated []*order.Order `json:"validated"`
	Rejected  []*order.Order `json:"rejected"`
}

// Snapshot is the downloadable export with its manifest.
type Snapshot struct {
	ExportDate  time.Time `json:"exportDate"`
	TotalOrders int       `json:"totalOrders"`
	Pending     int       `json:"pending"`
	Validated   int       `json:"validated"`
	Rejected    int       `json:"rejected"`
	Orders      Buckets   `json:"orders"`
}

// FileName is the suggested download name, orders-YYYY-MM-DD.json.
func (s Snapshot) FileName() string {
	return fmt.Sprintf("orders-%s.json", s.ExportDate.Format("2006-01-02"))
}

func (e *Exporter) ExportAll(ctx context.Context) (*Snapshot, error) {
	orders, err := e.repo.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("read backup: %w", err)
	}

	snap := &Snapshot{
		ExportDate: e.now().UTC(),
		Orders: Buckets{
			Pending:   []*order.Order{},
			Validated: []*order.Order{},
			Rejected:  []*order.Order{},
		},
	}
	for _, o := range orders {
		switch o.Status {
		case order.StatusPending:
			snap.Orders.Pending = append(snap.Orders.Pending, o)
		case order.StatusValidated:
			snap.Orders.Validated = append(snap.Orders.Validated, o)
		case order.StatusRejected:
			snap.Orders.Rejected = append(snap.Orders.Rejected, o)
		default:
			e.log.Warn("backup entry with unknown status skipped",
				logger.String("order_id", o.ID),
				logger.String("status", string(o.Status)),
			)
		}
	}
	snap.Pending = len(snap.Orders.Pending)
	snap.Validated = len(snap.Orders.Validated)
	snap.Rejected = len(snap.Orders.Rejected)
	snap.TotalOrders = snap.Pending + snap.Validated + snap.Rejected
	return snap, nil
}

// ExportAvro writes every backed-up order as an Avro container to w.
func (e *Exporter) ExportAvro(ctx context.Context, w io.Writer) (int, error) {
	orders, err := e.repo.FindAll(ctx)
	if err != nil {
		return 0, fmt.Errorf("read backup: %w", err)
	}
	if err := e.writer.WriteContainer(w, orders); err != nil {
		return 0, err
	}
	return len(orders), nil
}

type MigrateResult struct {
	Migrated int `json:"migrated"`
	Skipped  int `json:"skipped"`
	Failed   int `json:"failed"`
}

// Migrate pushes backed-up orders that the target store does not know yet.
func (e *Exporter) Migrate(ctx context.Context, target repository.OrderRepository) (MigrateResult, error) {
	var res MigrateResult
	orders, err := e.repo.FindAll(ctx)
	if err != nil {
		return res, fmt.Errorf("read backup: %w", err)
	}

	for _, o := range orders {
		existing, err := target.FindByID(ctx, o.ID)
		if err != nil {
			return res, fmt.Errorf("lookup order %s: %w", o.ID, err)
		}
		if existing != nil {
			res.Skipped++
			continue
		}
		if err := target.Save(ctx, o); err != nil {
			res.Failed++
			e.log.Warn("order migration failed", logger.String("order_id", o.ID), logger.Error(err))
			continue
		}
		res.Migrated++
	}

	e.log.Info("backup migration finished",
		logger.Int("migrated", res.Migrated),
		logger.Int("skipped", res.Skipped),
		logger.Int("failed", res.Failed),
	)
	return res, nil
}
