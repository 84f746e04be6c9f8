package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/fd1az/pool-service/business/payment/app"
	"github.com/fd1az/pool-service/business/payment/domain"
)

// Compile-time interface check.
var _ app.Store = (*Store)(nil)

// Store implements app.Store using PostgreSQL.
type Store struct {
	pool *Pool
}

// NewStore creates a Store over pool. Close closes the pool.
func NewStore(pool *Pool) *Store {
	return &Store{pool: pool}
}

func (s *Store) Ping(ctx context.Context) error { return s.pool.Ping(ctx) }

func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

func insertError(op string, err error) error {
	if isDuplicateKeyError(err) {
		return fmt.Errorf("%s: %w", op, domain.ErrDuplicateKey)
	}
	return fmt.Errorf("%s: %w", op, err)
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func nullableInt(v *int) *int32 {
	if v == nil {
		return nil
	}
	i := int32(*v)
	return &i
}

func intPtr(v *int32) *int {
	if v == nil {
		return nil
	}
	i := int(*v)
	return &i
}

func (s *Store) CreatePackage(ctx context.Context, p domain.Package) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO packages (id, price_wei, name, ipfs_hash) VALUES ($1, $2, $3, $4)`,
		p.ID, p.PriceWei, p.Name, p.IPFSHash,
	)
	if err != nil {
		return insertError("insert package", err)
	}
	return nil
}

// UpdatePackage leaves unset fields untouched; an empty update returns the row as is.
func (s *Store) UpdatePackage(ctx context.Context, id string, u domain.PackageUpdate) (domain.Package, error) {
	row := s.pool.QueryRow(ctx, `
		UPDATE packages SET
			price_wei = COALESCE($1, price_wei),
			name      = COALESCE($2, name),
			ipfs_hash = COALESCE($3, ipfs_hash)
		WHERE id = $4
		RETURNING id, price_wei, name, ipfs_hash`,
		u.PriceWei, u.Name, u.IPFSHash, id,
	)
	p, err := scanPackage(row)
	if err != nil {
		return domain.Package{}, fmt.Errorf("update package: %w", err)
	}
	return p, nil
}

func (s *Store) DeletePackage(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM packages WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete package: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (s *Store) ListPackages(ctx context.Context) ([]domain.Package, error) {
	rows, err := s.pool.Query(ctx, `SELECT id, price_wei, name, ipfs_hash FROM packages ORDER BY id`)
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
	row := s.pool.QueryRow(ctx, `SELECT id, price_wei, name, ipfs_hash FROM packages WHERE id = $1`, id)
	p, err := scanPackage(row)
	if err != nil {
		return domain.Package{}, fmt.Errorf("get package: %w", err)
	}
	return p, nil
}

func scanPackage(row pgx.Row) (domain.Package, error) {
	var p domain.Package
	if err := row.Scan(&p.ID, &p.PriceWei, &p.Name, &p.IPFSHash); err != nil {
		if isNotFoundError(err) {
			return domain.Package{}, domain.ErrNotFound
		}
		return domain.Package{}, err
	}
	return p, nil
}

func (s *Store) UpsertStyle(ctx context.Context, us domain.UserStyle) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO user_styles (user_address, style) VALUES ($1, $2)
		ON CONFLICT (user_address) DO UPDATE SET style = EXCLUDED.style, updated_at = now()`,
		us.UserAddress, us.Style,
	)
	if err != nil {
		return fmt.Errorf("upsert style: %w", err)
	}
	return nil
}

func (s *Store) GetStyle(ctx context.Context, userAddress string) (domain.UserStyle, error) {
	var style int32
	err := s.pool.QueryRow(ctx, `SELECT style FROM user_styles WHERE user_address = $1`, userAddress).Scan(&style)
	if isNotFoundError(err) {
		return domain.UserStyle{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.UserStyle{}, fmt.Errorf("get style: %w", err)
	}
	return domain.UserStyle{UserAddress: userAddress, Style: int(style)}, nil
}

func (s *Store) InsertPurchase(ctx context.Context, p domain.Purchase) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO user_purchases (id, user_address, package_id, price_wei, tx_hash, timestamp, style, ipfs_hash, package_name)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		p.ID, p.UserAddress, p.PackageID, p.PriceWei, nullable(p.TxHash), p.Timestamp,
		nullableInt(p.Style), nullable(p.IPFSHash), nullable(p.PackageName),
	)
	if err != nil {
		return insertError("insert purchase", err)
	}
	return nil
}

func (s *Store) PurchasedPackageIDs(ctx context.Context, userAddress string) ([]string, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT package_id FROM user_purchases WHERE user_address = $1 ORDER BY timestamp ASC, id ASC`,
		userAddress,
	)
	if err != nil {
		return nil, fmt.Errorf("get purchased packages: %w", err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("get purchased packages: %w", err)
	}
	if ids == nil {
		ids = []string{}
	}
	return ids, nil
}

func (s *Store) FindPurchase(ctx context.Context, userAddress, packageID string) (domain.Purchase, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, user_address, package_id, price_wei, tx_hash, timestamp, style, ipfs_hash, package_name
		FROM user_purchases
		WHERE user_address = $1 AND package_id = $2
		ORDER BY timestamp ASC
		LIMIT 1`,
		userAddress, packageID,
	)

	var (
		p                  domain.Purchase
		txHash, ipfs, name *string
		ts                 time.Time
		style              *int32
	)
	err := row.Scan(&p.ID, &p.UserAddress, &p.PackageID, &p.PriceWei, &txHash, &ts, &style, &ipfs, &name)
	if isNotFoundError(err) {
		return domain.Purchase{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.Purchase{}, fmt.Errorf("find purchase: %w", err)
	}
	p.TxHash, p.IPFSHash, p.PackageName = deref(txHash), deref(ipfs), deref(name)
	p.Timestamp = ts.UTC()
	p.Style = intPtr(style)
	return p, nil
}

func (s *Store) InsertTransaction(ctx context.Context, tx domain.Transaction) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO user_transactions (id, user_address, package_id, price_wei, tx_hash, timestamp, style, ipfs_hash, package_name)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		tx.ID, tx.UserAddress, tx.PackageID, tx.PriceWei, tx.TxHash, tx.Timestamp,
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
		`SELECT `+transactionColumns+` FROM user_transactions WHERE user_address = $1 ORDER BY timestamp DESC, id ASC`,
		userAddress,
	)
}

func (s *Store) AllTransactions(ctx context.Context) ([]domain.Transaction, error) {
	return s.queryTransactions(ctx, "get all transactions",
		`SELECT `+transactionColumns+` FROM user_transactions ORDER BY timestamp DESC, id ASC`,
	)
}

func (s *Store) queryTransactions(ctx context.Context, op, query string, args ...any) ([]domain.Transaction, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	txs, err := pgx.CollectRows(rows, scanTransaction)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if txs == nil {
		txs = []domain.Transaction{}
	}
	return txs, nil
}

func scanTransaction(row pgx.CollectableRow) (domain.Transaction, error) {
	var (
		tx         domain.Transaction
		ipfs, name *string
		style      *int32
	)
	if err := row.Scan(&tx.ID, &tx.UserAddress, &tx.PackageID, &tx.PriceWei, &tx.TxHash, &tx.Timestamp, &style, &ipfs, &name); err != nil {
		return domain.Transaction{}, err
	}
	tx.Timestamp = tx.Timestamp.UTC()
	tx.Style = intPtr(style)
	tx.IPFSHash, tx.PackageName = deref(ipfs), deref(name)
	return tx, nil
}
