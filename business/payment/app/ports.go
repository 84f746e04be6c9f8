// Package app contains application services and port definitions for the payment context.
package app

import (
	"context"

	"github.com/fd1az/pool-service/business/payment/domain"
)

// PackageStore persists the package catalog. Single-row lookups and
// updates of a missing id return domain.ErrNotFound.
type PackageStore interface {
	CreatePackage(ctx context.Context, p domain.Package) error
	UpdatePackage(ctx context.Context, id string, u domain.PackageUpdate) (domain.Package, error)
	DeletePackage(ctx context.Context, id string) error
	ListPackages(ctx context.Context) ([]domain.Package, error)
	GetPackage(ctx context.Context, id string) (domain.Package, error)
}

// StyleStore persists one style per user.
type StyleStore interface {
	UpsertStyle(ctx context.Context, s domain.UserStyle) error
	GetStyle(ctx context.Context, userAddress string) (domain.UserStyle, error)
}

// PurchaseStore is the append-only user_purchases ledger.
type PurchaseStore interface {
	InsertPurchase(ctx context.Context, p domain.Purchase) error
	PurchasedPackageIDs(ctx context.Context, userAddress string) ([]string, error)
	// FindPurchase returns one purchase of packageID by the user, or domain.ErrNotFound.
	FindPurchase(ctx context.Context, userAddress, packageID string) (domain.Purchase, error)
}

// TransactionStore is the append-only user_transactions ledger. Listings
// are ordered by timestamp, newest first, by the store query itself.
type TransactionStore interface {
	InsertTransaction(ctx context.Context, tx domain.Transaction) error
	TransactionsByUser(ctx context.Context, userAddress string) ([]domain.Transaction, error)
	AllTransactions(ctx context.Context) ([]domain.Transaction, error)
}

// Store is implemented by every storage backend.
type Store interface {
	PackageStore
	StyleStore
	PurchaseStore
	TransactionStore

	Ping(ctx context.Context) error
	Close() error
}
