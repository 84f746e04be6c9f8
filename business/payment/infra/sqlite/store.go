// Package sqlite implements the payment store on SQLite (pure Go, no CGo).
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/fd1az/pool-service/business/payment/app"
	"github.com/fd1az/pool-service/business/payment/domain"
)

// Timestamps are stored as Unix nanoseconds so ORDER BY sorts by time.
const schema = `
CREATE TABLE IF NOT EXISTS packages (
    id        TEXT PRIMARY KEY,
    price_wei TEXT NOT NULL,
    name      TEXT NOT NULL,
    ipfs_hash TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS user_styles (
    user_address TEXT PRIMARY KEY,
    style        INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS user_purchases (
    id           TEXT PRIMARY KEY,
    user_address TEXT    NOT NULL,
    package_id   TEXT    NOT NULL,
    price_wei    TEXT    NOT NULL,
    tx_hash      TEXT,
    timestamp    INTEGER NOT NULL,
    style        INTEGER,
    ipfs_hash    TEXT,
    package_name TEXT
);

CREATE TABLE IF NOT EXISTS user_transactions (
    id           TEXT PRIMARY KEY,
    user_address TEXT    NOT NULL,
    package_id   TEXT    NOT NULL,
    price_wei    TEXT    NOT NULL,
    tx_hash      TEXT    NOT NULL,
    timestamp    INTEGER NOT NULL,
    style        INTEGER,
    ipfs_hash    TEXT,
    package_name TEXT
);

CREATE INDEX IF NOT EXISTS idx_purchases_user_pkg ON user_purchases(user_address, package_id);
CREATE INDEX IF NOT EXISTS idx_transactions_ts    ON user_transactions(timestamp DESC);
CREATE INDEX IF NOT EXISTS idx_transactions_user  ON user_transactions(user_address, timestamp DESC);
`

// Compile-time interface check.
var _ app.Store = (*Store)(nil)

// Store implements app.Store over a SQLite database file.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the database at path and applies the schema.
// Use ":memory:" for a throwaway database.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sqlite.Open: open %q: %w", path, err)
	}
	// SQLite is single-writer; one connection also keeps ":memory:" a single database.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite.Open: apply schema: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }
func (s *Store) Close() error                   { return s.db.Close() }

func isDuplicateKeyError(err error) bool {
	var sqlErr *sqlite.Error
	if errors.As(err, &sqlErr) {
		switch sqlErr.Code() {
		case sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3.SQLITE_CONSTRAINT_UNIQUE:
			return true
		}
	}
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func insertError(op string, err error) error {
	if isDuplicateKeyError(err) {
		return fmt.Errorf("%s: %w", op, domain.ErrDuplicateKey)
	}
	return fmt.Errorf("%s: %w", op, err)
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func optional(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func nullableInt(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}

func intPtr(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	i := int(v.Int64)
	return &i
}

func fromNanos(n int64) time.Time {
	return time.Unix(0, n).UTC()
}

func (s *Store) CreatePackage(ctx context.Context, p domain.Package) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO packages (id, price_wei, name, ipfs_hash) VALUES (?, ?, ?, ?)`,
		p.ID, p.PriceWei, p.Name, p.IPFSHash,
	)
	if err != nil {
		return insertError("insert package", err)
	}
	return nil
}

// UpdatePackage leaves unset fields untouched; an empty update returns the row as is.
func (s *Store) UpdatePackage(ctx context.Context, id string, u domain.PackageUpdate) (domain.Package, error) {
	row := s.db.QueryRowContext(ctx, `
		UPDATE packages SET
			price_wei = COALESCE(?, price_wei),
			name      = COALESCE(?, name),
			ipfs_hash = COALESCE(?, ipfs_hash)
		WHERE id = ?
		RETURNING id, price_wei, name, ipfs_hash`,
		optional(u.PriceWei), optional(u.Name), optional(u.IPFSHash), id,
	)
	p, err := scanPackage(row)
	if err != nil {
		return domain.Package{}, fmt.Errorf("update package: %w", err)
	}
	return p, nil
}

func (s *Store) DeletePackage(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM packages WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete package: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete package: %w", err)
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (s *Store) ListPackages(ctx context.Context) ([]domain.Package, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, price_wei, name, ipfs_hash FROM packages ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list packages: %w", err)
	}
	defer rows.Close()

	out := make([]domain.Package, 0)
	for rows.Next() {
		p, err := scanPackage(rows)
		if err != nil {
			return nil, fmt.Errorf("list packages: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list packages: %w", err)
	}
	return out, nil
}

func (s *Store) GetPackage(ctx context.Context, id string) (domain.Package, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id, price_wei, name, ipfs_hash FROM packages WHERE id = ?`, id)
	p, err := scanPackage(row)
	if err != nil {
		return domain.Package{}, fmt.Errorf("get package: %w", err)
	}
	return p, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanPackage(row scanner) (domain.Package, error) {
	var p domain.Package
	if err := row.Scan(&p.ID, &p.PriceWei, &p.Name, &p.IPFSHash); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Package{}, domain.ErrNotFound
		}
		return domain.Package{}, err
	}
	return p, nil
}

func (s *Store) UpsertStyle(ctx context.Context, us domain.UserStyle) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO user_styles (user_address, style) VALUES (?, ?)
		ON CONFLICT(user_address) DO UPDATE SET style = excluded.style`,
		us.UserAddress, us.Style,
	)
	if err != nil {
		return fmt.Errorf("upsert style: %w", err)
	}
	return nil
}

func (s *Store) GetStyle(ctx context.Context, userAddress string) (domain.UserStyle, error) {
	us := domain.UserStyle{UserAddress: userAddress}
	err := s.db.QueryRowContext(ctx, `SELECT style FROM user_styles WHERE user_address = ?`, userAddress).Scan(&us.Style)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.UserStyle{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.UserStyle{}, fmt.Errorf("get style: %w", err)
	}
	return us, nil
}

func (s *Store) InsertPurchase(ctx context.Context, p domain.Purchase) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO user_purchases (id, user_address, package_id, price_wei, tx_hash, timestamp, style, ipfs_hash, package_name)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.UserAddress, p.PackageID, p.PriceWei, nullable(p.TxHash), p.Timestamp.UnixNano(),
		nullableInt(p.Style), nullable(p.IPFSHash), nullable(p.PackageName),
	)
	if err != nil {
		return insertError("insert purchase", err)
	}
	return nil
}

func (s *Store) PurchasedPackageIDs(ctx context.Context, userAddress string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT package_id FROM user_purchases WHERE user_address = ? ORDER BY timestamp ASC, id ASC`,
		userAddress,
	)
	if err != nil {
		return nil, fmt.Errorf("get purchased packages: %w", err)
	}
	defer rows.Close()

	ids := make([]string, 0)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("get purchased packages: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("get purchased packages: %w", err)
	}
	return ids, nil
}

func (s *Store) FindPurchase(ctx context.Context, userAddress, packageID string) (domain.Purchase, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, user_address, package_id, price_wei, tx_hash, timestamp, style, ipfs_hash, package_name
		FROM user_purchases
		WHERE user_address = ? AND package_id = ?
		ORDER BY timestamp ASC
		LIMIT 1`,
		userAddress, packageID,
	)

	var (
		p                  domain.Purchase
		txHash, ipfs, name sql.NullString
		ts                 int64
		style              sql.NullInt64
	)
	err := row.Scan(&p.ID, &p.UserAddress, &p.PackageID, &p.PriceWei, &txHash, &ts, &style, &ipfs, &name)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Purchase{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.Purchase{}, fmt.Errorf("find purchase: %w", err)
	}
	p.TxHash, p.IPFSHash, p.PackageName = txHash.String, ipfs.String, name.String
	p.Timestamp = fromNanos(ts)
	p.Style = intPtr(style)
	return p, nil
}

func (s *Store) InsertTransaction(ctx context.Context, tx domain.Transaction) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO user_transactions (id, user_address, package_id, price_wei, tx_hash, timestamp, style, ipfs_hash, package_name)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		tx.ID, tx.UserAddress, tx.PackageID, tx.PriceWei, tx.TxHash, tx.Timestamp.UnixNano(),
		nullableInt(tx.Style), nullable(tx.IPFSHash), nullable(tx.PackageName),
	)
	if err != nil {
		return insertError("insert transaction", err)
	}
	return nil
}

const transactionColumns = `id, user_address, package_id, price_wei, tx_hash, timestamp, style, ipfs_hash, package_name`

func (s *Store) TransactionsByUser(ctx context.Context, userAddress string) ([]domain.Transaction, error) {
	return s.queryTransactions(ctx, "get user transactions",
		`SELECT `+transactionColumns+` FROM user_transactions WHERE user_address = ? ORDER BY timestamp DESC, id ASC`,
		userAddress,
	)
}

func (s *Store) AllTransactions(ctx context.Context) ([]domain.Transaction, error) {
	return s.queryTransactions(ctx, "get all transactions",
		`SELECT `+transactionColumns+` FROM user_transactions ORDER BY timestamp DESC, id ASC`,
	)
}

func (s *Store) queryTransactions(ctx context.Context, op, query string, args ...any) ([]domain.Transaction, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	out := make([]domain.Transaction, 0)
	for rows.Next() {
		var (
			tx         domain.Transaction
			ipfs, name sql.NullString
			ts         int64
			style      sql.NullInt64
		)
		if err := rows.Scan(&tx.ID, &tx.UserAddress, &tx.PackageID, &tx.PriceWei, &tx.TxHash, &ts, &style, &ipfs, &name); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		tx.Timestamp = fromNanos(ts)
		tx.Style = intPtr(style)
		tx.IPFSHash, tx.PackageName = ipfs.String, name.String
		out = append(out, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return out, nil
}
