/*
Package sqlite provides a SQLite-backed implementation of the storage interfaces.

PURPOSE:
  Implements both persistence contracts (inventory.Store, costing.Store)
  using SQLite. In production, the same patterns apply to PostgreSQL - only
  minor SQL dialect differences.

INTERFACES IMPLEMENTED:
  inventory.Store: Item catalog and the per-item transaction ledger
  costing.Store:   Costing sheets and their numbered versions

APPEND-ONLY ENFORCEMENT:
  The ledger table takes no UPDATE except on its derived snapshot columns
  (balance_qty, unit_cost, total_cost) and no DELETE at all. Snapshot
  rewrites happen only inside AppendTransaction, in the same database
  transaction as the insert that caused them.

KEY TABLES:
  items:                  Catalog rows with cached snapshot columns
  inventory_transactions: Immutable per-item ledger
  costing_sheets:         One per garment style
  costing_versions:       Numbered cost snapshots; UNIQUE(sheet, number)

OPTIMISTIC CONCURRENCY:
  costing_versions carries a revision column. SaveVersion updates with
  "WHERE id = ? AND revision = ?"; zero rows affected means someone else
  moved the version and the caller gets ErrConcurrentModification.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging) for better concurrency:
  - Multiple readers don't block
  - Single writer at a time
  - Better crash recovery

DECIMALS:
  Quantities and costs are stored as TEXT in decimal string form. REAL
  columns would reintroduce the floating-point drift the engine exists
  to avoid.

USAGE:
  store, err := sqlite.New("./data/costing.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

  ledger := inventory.NewLedger(store, logger)
  sheets := costing.NewService(store, logger)

MIGRATION:
  Schema is auto-migrated on New(). For production, use a proper
  migration tool (golang-migrate, goose) with versioned migrations.

SEE ALSO:
  - inventory/store.go: Ledger interface definition
  - costing/store.go:   Sheet/version interface definition
  - inventory/store:    In-memory implementation for testing
  - costing/store:      In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/warp/costing-engine/costing"
	"github.com/warp/costing-engine/inventory"
)

// Store implements inventory.Store and costing.Store using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	-- Items (catalog + cached snapshot columns)
	CREATE TABLE IF NOT EXISTS items (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		method TEXT NOT NULL,
		quantity_on_hand TEXT NOT NULL,
		average_cost TEXT NOT NULL,
		last_purchase_price TEXT NOT NULL,
		reorder_level TEXT NOT NULL,
		reorder_qty TEXT NOT NULL,
		allow_negative BOOLEAN NOT NULL DEFAULT FALSE,
		active BOOLEAN NOT NULL DEFAULT TRUE,
		epoch INTEGER NOT NULL DEFAULT 1,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	-- Inventory transactions (append-only ledger)
	CREATE TABLE IF NOT EXISTS inventory_transactions (
		id TEXT PRIMARY KEY,
		item_id TEXT NOT NULL,
		epoch INTEGER NOT NULL,
		tx_type TEXT NOT NULL,
		tx_date TEXT NOT NULL,
		seq INTEGER NOT NULL,
		quantity TEXT NOT NULL,
		unit_cost TEXT NOT NULL,
		total_cost TEXT NOT NULL,
		balance_qty TEXT NOT NULL,
		source_doc_type TEXT,
		source_doc_id TEXT,
		created_at TEXT NOT NULL,
		UNIQUE(item_id, seq)
	);

	-- CRITICAL: replay order (hot path) - every balance derivation walks
	-- an item's rows in (tx_date, seq) order
	CREATE INDEX IF NOT EXISTS idx_inventory_tx_item_date_seq
		ON inventory_transactions(item_id, tx_date, seq);

	CREATE INDEX IF NOT EXISTS idx_inventory_tx_type
		ON inventory_transactions(tx_type);

	-- Costing sheets (one per style)
	CREATE TABLE IF NOT EXISTS costing_sheets (
		id TEXT PRIMARY KEY,
		style TEXT NOT NULL,
		description TEXT,
		created_at TEXT NOT NULL
	);

	-- Costing versions (numbered snapshots)
	CREATE TABLE IF NOT EXISTS costing_versions (
		id TEXT PRIMARY KEY,
		sheet_id TEXT NOT NULL,
		version_number INTEGER NOT NULL,
		status TEXT NOT NULL,
		fabrics_json TEXT NOT NULL,
		trims_json TEXT NOT NULL,
		packing_json TEXT NOT NULL,
		costs_json TEXT NOT NULL,
		totals_json TEXT NOT NULL,
		approved_by TEXT,
		approved_at TEXT,
		rejected_reason TEXT,
		revision INTEGER NOT NULL DEFAULT 1,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL,
		UNIQUE(sheet_id, version_number)
	);

	CREATE INDEX IF NOT EXISTS idx_costing_versions_sheet
		ON costing_versions(sheet_id, version_number);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// ITEM STORE (inventory.Store interface)
// =============================================================================

// SaveItem inserts or updates an item row.
func (s *Store) SaveItem(ctx context.Context, item inventory.Item) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO items (id, name, method, quantity_on_hand, average_cost,
			last_purchase_price, reorder_level, reorder_qty, allow_negative,
			active, epoch, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			method = excluded.method,
			quantity_on_hand = excluded.quantity_on_hand,
			average_cost = excluded.average_cost,
			last_purchase_price = excluded.last_purchase_price,
			reorder_level = excluded.reorder_level,
			reorder_qty = excluded.reorder_qty,
			allow_negative = excluded.allow_negative,
			active = excluded.active,
			epoch = excluded.epoch,
			updated_at = excluded.updated_at
	`

	_, err := s.db.ExecContext(ctx, query,
		item.ID, item.Name, item.Method,
		item.QuantityOnHand.String(),
		item.AverageCost.String(),
		item.LastPurchasePrice.String(),
		item.ReorderLevel.String(),
		item.ReorderQty.String(),
		item.AllowNegative, item.Active, item.Epoch,
		item.CreatedAt.UTC().Format(time.RFC3339),
		item.UpdatedAt.UTC().Format(time.RFC3339),
	)
	return err
}

// GetItem returns an item or inventory.ErrItemNotFound.
func (s *Store) GetItem(ctx context.Context, id inventory.ItemID) (inventory.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, method, quantity_on_hand, average_cost, last_purchase_price,
		        reorder_level, reorder_qty, allow_negative, active, epoch, created_at, updated_at
		 FROM items WHERE id = ?`, id)

	item, err := scanItem(row)
	if err == sql.ErrNoRows {
		return inventory.Item{}, inventory.ErrItemNotFound
	}
	return item, err
}

// ListItems returns all items, active and inactive.
func (s *Store) ListItems(ctx context.Context) ([]inventory.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, method, quantity_on_hand, average_cost, last_purchase_price,
		        reorder_level, reorder_qty, allow_negative, active, epoch, created_at, updated_at
		 FROM items ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []inventory.Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanItem(row scanner) (inventory.Item, error) {
	var (
		item                          inventory.Item
		qty, avg, last, level, rqty   string
		createdAt, updatedAt          string
	)

	err := row.Scan(&item.ID, &item.Name, &item.Method, &qty, &avg, &last,
		&level, &rqty, &item.AllowNegative, &item.Active, &item.Epoch,
		&createdAt, &updatedAt)
	if err != nil {
		return item, err
	}

	item.QuantityOnHand = parseDecimal(qty)
	item.AverageCost = parseDecimal(avg)
	item.LastPurchasePrice = parseDecimal(last)
	item.ReorderLevel = parseDecimal(level)
	item.ReorderQty = parseDecimal(rqty)
	item.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	item.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	return item, nil
}

// =============================================================================
// TRANSACTION LEDGER (inventory.Store interface)
// =============================================================================

// NextSeq returns the next insertion sequence for an item.
func (s *Store) NextSeq(ctx context.Context, id inventory.ItemID) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var seq int64
	err := s.db.QueryRowContext(ctx,
		"SELECT COALESCE(MAX(seq), 0) + 1 FROM inventory_transactions WHERE item_id = ?",
		id,
	).Scan(&seq)
	return seq, err
}

// AppendTransaction persists a ledger row and applies the given snapshot
// corrections in the same database transaction.
func (s *Store) AppendTransaction(ctx context.Context, tx inventory.Transaction, corrections []inventory.BalanceCorrection) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	_, err = sqlTx.ExecContext(ctx, `
		INSERT INTO inventory_transactions
		(id, item_id, epoch, tx_type, tx_date, seq, quantity, unit_cost,
		 total_cost, balance_qty, source_doc_type, source_doc_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		tx.ID, tx.ItemID, tx.Epoch, tx.Type,
		tx.Date.UTC().Format(time.RFC3339), tx.Seq,
		tx.Quantity.String(), tx.UnitCost.String(),
		tx.TotalCost.String(), tx.BalanceQty.String(),
		nullString(tx.Source.DocType), nullString(tx.Source.DocID),
		tx.CreatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to append transaction: %w", err)
	}

	// Only the derived snapshot columns are ever rewritten.
	for _, c := range corrections {
		_, err = sqlTx.ExecContext(ctx, `
			UPDATE inventory_transactions
			SET balance_qty = ?, unit_cost = ?, total_cost = ?
			WHERE id = ?
		`, c.BalanceQty.String(), c.UnitCost.String(), c.TotalCost.String(), c.TxID)
		if err != nil {
			return fmt.Errorf("failed to apply balance correction: %w", err)
		}
	}

	return sqlTx.Commit()
}

// Transactions returns all rows for an item ordered by (date, seq).
func (s *Store) Transactions(ctx context.Context, id inventory.ItemID) ([]inventory.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
		SELECT id, item_id, epoch, tx_type, tx_date, seq, quantity, unit_cost,
		       total_cost, balance_qty, source_doc_type, source_doc_id, created_at
		FROM inventory_transactions
		WHERE item_id = ?
		ORDER BY tx_date ASC, seq ASC
	`
	return s.queryTransactions(ctx, query, id)
}

// TransactionsInRange returns rows with date in [from, to], ordered by (date, seq).
func (s *Store) TransactionsInRange(ctx context.Context, id inventory.ItemID, from, to time.Time) ([]inventory.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
		SELECT id, item_id, epoch, tx_type, tx_date, seq, quantity, unit_cost,
		       total_cost, balance_qty, source_doc_type, source_doc_id, created_at
		FROM inventory_transactions
		WHERE item_id = ? AND tx_date >= ? AND tx_date <= ?
		ORDER BY tx_date ASC, seq ASC
	`
	return s.queryTransactions(ctx, query, id,
		from.UTC().Format(time.RFC3339), to.UTC().Format(time.RFC3339))
}

func (s *Store) queryTransactions(ctx context.Context, query string, args ...any) ([]inventory.Transaction, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer rows.Close()

	var transactions []inventory.Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		transactions = append(transactions, tx)
	}
	return transactions, rows.Err()
}

func scanTransaction(rows *sql.Rows) (inventory.Transaction, error) {
	var (
		tx                   inventory.Transaction
		txDate, createdAt    string
		qty, unitCost        string
		totalCost, balance   string
		docType, docID       sql.NullString
	)

	err := rows.Scan(
		&tx.ID, &tx.ItemID, &tx.Epoch, &tx.Type, &txDate, &tx.Seq,
		&qty, &unitCost, &totalCost, &balance, &docType, &docID, &createdAt,
	)
	if err != nil {
		return tx, fmt.Errorf("failed to scan transaction: %w", err)
	}

	tx.Date, _ = time.Parse(time.RFC3339, txDate)
	tx.Quantity = parseDecimal(qty)
	tx.UnitCost = parseDecimal(unitCost)
	tx.TotalCost = parseDecimal(totalCost)
	tx.BalanceQty = parseDecimal(balance)
	tx.Source = inventory.SourceRef{DocType: docType.String, DocID: docID.String}
	tx.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return tx, nil
}

// =============================================================================
// COSTING SHEET STORE (costing.Store interface)
// =============================================================================

// SaveSheet inserts or updates a sheet.
func (s *Store) SaveSheet(ctx context.Context, sheet costing.Sheet) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO costing_sheets (id, style, description, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			style = excluded.style,
			description = excluded.description
	`
	_, err := s.db.ExecContext(ctx, query,
		sheet.ID, sheet.Style, sheet.Description,
		sheet.CreatedAt.UTC().Format(time.RFC3339),
	)
	return err
}

// GetSheet returns a sheet or costing.ErrSheetNotFound.
func (s *Store) GetSheet(ctx context.Context, id costing.SheetID) (costing.Sheet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var sheet costing.Sheet
	var createdAt string
	err := s.db.QueryRowContext(ctx,
		"SELECT id, style, description, created_at FROM costing_sheets WHERE id = ?",
		id,
	).Scan(&sheet.ID, &sheet.Style, &sheet.Description, &createdAt)

	if err == sql.ErrNoRows {
		return costing.Sheet{}, costing.ErrSheetNotFound
	}
	if err != nil {
		return costing.Sheet{}, err
	}

	sheet.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return sheet, nil
}

// ListSheets returns all sheets.
func (s *Store) ListSheets(ctx context.Context) ([]costing.Sheet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, style, description, created_at FROM costing_sheets ORDER BY style")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sheets []costing.Sheet
	for rows.Next() {
		var sheet costing.Sheet
		var createdAt string
		if err := rows.Scan(&sheet.ID, &sheet.Style, &sheet.Description, &createdAt); err != nil {
			return nil, err
		}
		sheet.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		sheets = append(sheets, sheet)
	}
	return sheets, rows.Err()
}

// =============================================================================
// COSTING VERSION STORE (costing.Store interface)
// =============================================================================

// CreateVersion inserts a new version with revision 1.
func (s *Store) CreateVersion(ctx context.Context, v costing.Version) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	fabrics, trims, packing, costs, totals, err := marshalVersion(v)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO costing_versions
		(id, sheet_id, version_number, status, fabrics_json, trims_json,
		 packing_json, costs_json, totals_json, approved_by, approved_at,
		 rejected_reason, revision, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 1, ?, ?)
	`
	_, err = s.db.ExecContext(ctx, query,
		v.ID, v.SheetID, v.Number, v.Status,
		fabrics, trims, packing, costs, totals,
		nullString(v.ApprovedBy), nullTime(v.ApprovedAt),
		nullString(v.RejectedReason),
		v.CreatedAt.UTC().Format(time.RFC3339),
		v.UpdatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		// UNIQUE(sheet_id, version_number): another writer claimed the
		// number between the caller's read and this insert.
		var sqlErr sqlite3.Error
		if errors.As(err, &sqlErr) && sqlErr.ExtendedCode == sqlite3.ErrConstraintUnique {
			return costing.ErrConcurrentModification
		}
		return fmt.Errorf("failed to create version: %w", err)
	}
	return nil
}

// SaveVersion updates a version guarded by the optimistic revision marker.
func (s *Store) SaveVersion(ctx context.Context, v *costing.Version, expectedRevision int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	fabrics, trims, packing, costs, totals, err := marshalVersion(*v)
	if err != nil {
		return err
	}

	query := `
		UPDATE costing_versions
		SET status = ?, fabrics_json = ?, trims_json = ?, packing_json = ?,
		    costs_json = ?, totals_json = ?, approved_by = ?, approved_at = ?,
		    rejected_reason = ?, revision = revision + 1, updated_at = ?
		WHERE id = ? AND revision = ?
	`
	res, err := s.db.ExecContext(ctx, query,
		v.Status, fabrics, trims, packing, costs, totals,
		nullString(v.ApprovedBy), nullTime(v.ApprovedAt),
		nullString(v.RejectedReason),
		v.UpdatedAt.UTC().Format(time.RFC3339),
		v.ID, expectedRevision,
	)
	if err != nil {
		return fmt.Errorf("failed to save version: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		// Either the version is gone or someone moved it underneath us.
		var exists int
		if err := s.db.QueryRowContext(ctx,
			"SELECT COUNT(*) FROM costing_versions WHERE id = ?", v.ID,
		).Scan(&exists); err != nil {
			return err
		}
		if exists == 0 {
			return costing.ErrVersionNotFound
		}
		return costing.ErrConcurrentModification
	}

	v.Revision = expectedRevision + 1
	return nil
}

// GetVersion returns a version or costing.ErrVersionNotFound.
func (s *Store) GetVersion(ctx context.Context, id costing.VersionID) (costing.Version, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, `
		SELECT id, sheet_id, version_number, status, fabrics_json, trims_json,
		       packing_json, costs_json, totals_json, approved_by, approved_at,
		       rejected_reason, revision, created_at, updated_at
		FROM costing_versions WHERE id = ?`, id)

	v, err := scanVersion(row)
	if err == sql.ErrNoRows {
		return costing.Version{}, costing.ErrVersionNotFound
	}
	return v, err
}

// VersionsBySheet returns a sheet's versions ordered by number.
func (s *Store) VersionsBySheet(ctx context.Context, id costing.SheetID) ([]costing.Version, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, sheet_id, version_number, status, fabrics_json, trims_json,
		       packing_json, costs_json, totals_json, approved_by, approved_at,
		       rejected_reason, revision, created_at, updated_at
		FROM costing_versions
		WHERE sheet_id = ?
		ORDER BY version_number ASC`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var versions []costing.Version
	for rows.Next() {
		v, err := scanVersion(rows)
		if err != nil {
			return nil, err
		}
		versions = append(versions, v)
	}
	return versions, rows.Err()
}

func marshalVersion(v costing.Version) (fabrics, trims, packing, costs, totals string, err error) {
	blobs := make([]string, 5)
	for i, src := range []any{v.Fabrics, v.Trims, v.Packing, v.Costs, v.Totals} {
		b, merr := json.Marshal(src)
		if merr != nil {
			return "", "", "", "", "", fmt.Errorf("failed to marshal version: %w", merr)
		}
		blobs[i] = string(b)
	}
	return blobs[0], blobs[1], blobs[2], blobs[3], blobs[4], nil
}

func scanVersion(row scanner) (costing.Version, error) {
	var (
		v                                   costing.Version
		fabrics, trims, packing             string
		costs, totals                       string
		approvedBy, approvedAt, rejected    sql.NullString
		createdAt, updatedAt                string
	)

	err := row.Scan(&v.ID, &v.SheetID, &v.Number, &v.Status,
		&fabrics, &trims, &packing, &costs, &totals,
		&approvedBy, &approvedAt, &rejected, &v.Revision,
		&createdAt, &updatedAt)
	if err != nil {
		return v, err
	}

	if err := json.Unmarshal([]byte(fabrics), &v.Fabrics); err != nil {
		return v, fmt.Errorf("failed to unmarshal fabrics: %w", err)
	}
	if err := json.Unmarshal([]byte(trims), &v.Trims); err != nil {
		return v, fmt.Errorf("failed to unmarshal trims: %w", err)
	}
	if err := json.Unmarshal([]byte(packing), &v.Packing); err != nil {
		return v, fmt.Errorf("failed to unmarshal packing: %w", err)
	}
	if err := json.Unmarshal([]byte(costs), &v.Costs); err != nil {
		return v, fmt.Errorf("failed to unmarshal costs: %w", err)
	}
	if err := json.Unmarshal([]byte(totals), &v.Totals); err != nil {
		return v, fmt.Errorf("failed to unmarshal totals: %w", err)
	}

	v.ApprovedBy = approvedBy.String
	v.RejectedReason = rejected.String
	if approvedAt.Valid {
		t, _ := time.Parse(time.RFC3339, approvedAt.String)
		v.ApprovedAt = &t
	}
	v.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	v.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	return v, nil
}

// =============================================================================
// HELPERS
// =============================================================================

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func nullTime(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.UTC().Format(time.RFC3339)
	return &s
}

func parseDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}
