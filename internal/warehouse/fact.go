//-------------------------------------------------------------------------
//
// salesdw - e-commerce data warehouse ETL
//
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package warehouse

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"salesdw/internal/clean"
	"salesdw/internal/logging"
)

// FactRow is a sales fact ready for insertion: all four surrogate keys
// resolved and the derived measure computed.
type FactRow struct {
	SaleID      string
	ProductKey  int
	DateKey     int
	CustomerKey int
	RegionKey   int
	Quantity    int
	UnitPrice   float64
	Discount    float64
	TotalAmount float64
}

// TotalAmount computes the derived fact measure, rounded to currency
// precision. The measure is always recomputed from the other three
// fields, never taken from the source.
func TotalAmount(quantity int, unitPrice, discount float64) float64 {
	return round2(float64(quantity) * unitPrice * (1 - discount))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// ValidateMeasures checks the fact measures against their allowed ranges.
func ValidateMeasures(quantity int, unitPrice, discount float64) error {
	if quantity <= 0 {
		return fmt.Errorf("quantity must be positive, got %d", quantity)
	}
	if unitPrice < 0 {
		return fmt.Errorf("unit price must be non-negative, got %.2f", unitPrice)
	}
	if discount < 0 || discount > 1 {
		return fmt.Errorf("discount must be in [0,1], got %.2f", discount)
	}
	return nil
}

// Transformer turns cleaned sales into fact rows, resolving the four
// surrogate keys through the resolver it was constructed with.
type Transformer struct {
	resolver *Resolver
	regions  *clean.RegionNormalizer
}

// NewTransformer creates a fact transformer bound to a resolver and a
// region normalizer for the current run.
func NewTransformer(resolver *Resolver, regions *clean.RegionNormalizer) *Transformer {
	return &Transformer{resolver: resolver, regions: regions}
}

// Transform produces a fact row for a cleaned sale. A sale that fails
// validation returns a RowResult describing why it was skipped; only
// warehouse connectivity failures return an error.
func (t *Transformer) Transform(ctx context.Context, s clean.Sale) (FactRow, *RowResult, error) {
	if s.SaleID == "" {
		return FactRow{}, invalid(s.SaleID, "missing sale_id"), nil
	}
	if s.ProductID == "" || s.CustomerID == "" {
		return FactRow{}, invalid(s.SaleID, "missing product_id or customer_id"), nil
	}

	if err := ValidateMeasures(s.Quantity, s.UnitPrice, s.Discount); err != nil {
		return FactRow{}, invalid(s.SaleID, err.Error()), nil
	}

	productKey, ok := t.resolver.LookupProduct(s.ProductID)
	if !ok {
		return FactRow{}, invalid(s.SaleID, fmt.Sprintf("unknown product %s", s.ProductID)), nil
	}

	customerKey, ok := t.resolver.LookupCustomer(s.CustomerID)
	if !ok {
		return FactRow{}, invalid(s.SaleID, fmt.Sprintf("unknown customer %s", s.CustomerID)), nil
	}

	regionName := t.regions.Normalize(s.Region)
	if regionName == "" {
		return FactRow{}, invalid(s.SaleID, "missing region"), nil
	}
	regionKey, ok := t.resolver.LookupRegion(regionName)
	if !ok {
		// First encounter of a region outside the reference data: create
		// the dimension row rather than dropping the sale.
		var err error
		regionKey, err = t.resolver.Region(ctx, clean.Region{
			Name:      regionName,
			Country:   "Unknown",
			Continent: "Unknown",
		})
		if err != nil {
			return FactRow{}, nil, err
		}
	}

	dateKey, err := t.resolver.Date(ctx, s.OrderDate)
	if err != nil {
		return FactRow{}, nil, err
	}

	return FactRow{
		SaleID:      s.SaleID,
		ProductKey:  productKey,
		DateKey:     dateKey,
		CustomerKey: customerKey,
		RegionKey:   regionKey,
		Quantity:    s.Quantity,
		UnitPrice:   round2(s.UnitPrice),
		Discount:    s.Discount,
		TotalAmount: TotalAmount(s.Quantity, s.UnitPrice, s.Discount),
	}, nil, nil
}

func invalid(saleID, reason string) *RowResult {
	return &RowResult{SaleID: saleID, Status: StatusInvalid, Reason: reason}
}

const insertFactSQL = `
INSERT INTO fact_sales
    (sale_id, product_key, date_key, customer_key, region_key,
     quantity, unit_price, discount, total_amount)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
ON CONFLICT (sale_id) DO NOTHING`

// FactLoader accumulates fact rows and applies them to the warehouse in
// single-threaded batched inserts. Constraint violations skip the
// offending row and the loader continues; only connectivity failures
// abort. Duplicate sale_ids (re-runs) are counted, not errors.
type FactLoader struct {
	db        DB
	batchSize int
	pending   []FactRow

	loaded     int
	duplicates int
	failures   []RowResult
}

// NewFactLoader creates a loader with the given batch size.
func NewFactLoader(db DB, batchSize int) *FactLoader {
	if batchSize < 1 {
		batchSize = 1
	}
	return &FactLoader{
		db:        db,
		batchSize: batchSize,
		pending:   make([]FactRow, 0, batchSize),
	}
}

// Add queues a fact row, flushing when the batch is full.
func (l *FactLoader) Add(ctx context.Context, row FactRow) error {
	l.pending = append(l.pending, row)
	if len(l.pending) >= l.batchSize {
		return l.Flush(ctx)
	}
	return nil
}

// Flush writes any pending rows. Must be called once after the last Add.
func (l *FactLoader) Flush(ctx context.Context) error {
	if len(l.pending) == 0 {
		return nil
	}

	batch := l.pending
	l.pending = l.pending[:0]

	if err := l.flushBatch(ctx, batch); err == nil {
		return nil
	} else if isConnectivityError(err) {
		return err
	}

	// The batch transaction rolled back on a row-level error. Replay the
	// rows one by one to isolate and tag the offenders.
	return l.flushRowByRow(ctx, batch)
}

func (l *FactLoader) flushBatch(ctx context.Context, rows []FactRow) error {
	tx, err := l.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin batch: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // no-op after commit

	b := &pgx.Batch{}
	for _, r := range rows {
		b.Queue(insertFactSQL,
			r.SaleID, r.ProductKey, r.DateKey, r.CustomerKey, r.RegionKey,
			r.Quantity, r.UnitPrice, r.Discount, r.TotalAmount)
	}

	br := tx.SendBatch(ctx, b)
	loaded, duplicates := 0, 0
	var execErr error
	for range rows {
		tag, err := br.Exec()
		if err != nil {
			execErr = err
			break
		}
		if tag.RowsAffected() == 0 {
			duplicates++
		} else {
			loaded++
		}
	}
	if err := br.Close(); err != nil && execErr == nil {
		execErr = err
	}
	if execErr != nil {
		return execErr
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit batch: %w", err)
	}

	l.loaded += loaded
	l.duplicates += duplicates
	return nil
}

func (l *FactLoader) flushRowByRow(ctx context.Context, rows []FactRow) error {
	for _, r := range rows {
		tag, err := l.db.Exec(ctx, insertFactSQL,
			r.SaleID, r.ProductKey, r.DateKey, r.CustomerKey, r.RegionKey,
			r.Quantity, r.UnitPrice, r.Discount, r.TotalAmount)
		if err != nil {
			if isConnectivityError(err) {
				return err
			}
			reason := err.Error()
			if constraint := violatedConstraint(err); constraint != "" {
				reason = fmt.Sprintf("violated constraint %s", constraint)
			}
			logging.Warn().Str("sale_id", r.SaleID).Str("reason", reason).
				Msg("Skipping fact row")
			l.failures = append(l.failures, RowResult{
				SaleID: r.SaleID,
				Status: StatusFailed,
				Reason: reason,
			})
			continue
		}
		if tag.RowsAffected() == 0 {
			l.duplicates++
		} else {
			l.loaded++
		}
	}
	return nil
}

// Loaded reports how many fact rows this loader inserted.
func (l *FactLoader) Loaded() int { return l.loaded }

// Duplicates reports how many rows were skipped as already present.
func (l *FactLoader) Duplicates() int { return l.duplicates }

// Failures returns the per-row persistence failures, tagged with the
// offending sale id.
func (l *FactLoader) Failures() []RowResult { return l.failures }

// violatedConstraint extracts the constraint name from a Postgres
// integrity violation, if the error is one.
func violatedConstraint(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && strings.HasPrefix(pgErr.Code, "23") {
		return pgErr.ConstraintName
	}
	return ""
}

// isConnectivityError reports whether an error is fatal to the run
// rather than attributable to a single row. Integrity violations
// (SQLSTATE class 23) are row-level; everything else is treated as a
// warehouse failure.
func isConnectivityError(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return !strings.HasPrefix(pgErr.Code, "23")
	}
	return true
}
