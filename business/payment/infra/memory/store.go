// Package memory is an in-process payment store for tests and local runs.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/fd1az/pool-service/business/payment/app"
	"github.com/fd1az/pool-service/business/payment/domain"
)

// Compile-time interface check.
var _ app.Store = (*Store)(nil)

// Store keeps every table in maps and slices guarded by one lock.
type Store struct {
	mu           sync.RWMutex
	packages     map[string]domain.Package
	styles       map[string]int
	purchases    []domain.Purchase
	transactions []domain.Transaction
}

// New creates an empty store.
func New() *Store {
	return &Store{
		packages: make(map[string]domain.Package),
		styles:   make(map[string]int),
	}
}

func (s *Store) Ping(context.Context) error { return nil }
func (s *Store) Close() error               { return nil }

func (s *Store) CreatePackage(_ context.Context, p domain.Package) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.packages[p.ID]; exists {
		return domain.ErrDuplicateKey
	}
	s.packages[p.ID] = p
	return nil
}

func (s *Store) UpdatePackage(_ context.Context, id string, u domain.PackageUpdate) (domain.Package, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, exists := s.packages[id]
	if !exists {
		return domain.Package{}, domain.ErrNotFound
	}
	p = u.Apply(p)
	s.packages[id] = p
	return p, nil
}

func (s *Store) DeletePackage(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.packages[id]; !exists {
		return domain.ErrNotFound
	}
	delete(s.packages, id)
	return nil
}

// ListPackages returns packages ordered by id.
func (s *Store) ListPackages(context.Context) ([]domain.Package, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Package, 0, len(s.packages))
	for _, p := range s.packages {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) GetPackage(_ context.Context, id string) (domain.Package, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, exists := s.packages[id]
	if !exists {
		return domain.Package{}, domain.ErrNotFound
	}
	return p, nil
}

func (s *Store) UpsertStyle(_ context.Context, us domain.UserStyle) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.styles[us.UserAddress] = us.Style
	return nil
}

func (s *Store) GetStyle(_ context.Context, userAddress string) (domain.UserStyle, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	style, exists := s.styles[userAddress]
	if !exists {
		return domain.UserStyle{}, domain.ErrNotFound
	}
	return domain.UserStyle{UserAddress: userAddress, Style: style}, nil
}

func (s *Store) InsertPurchase(_ context.Context, p domain.Purchase) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.purchases {
		if existing.ID == p.ID {
			return domain.ErrDuplicateKey
		}
	}
	s.purchases = append(s.purchases, p)
	return nil
}

// PurchasedPackageIDs returns ids in purchase order.
func (s *Store) PurchasedPackageIDs(_ context.Context, userAddress string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matches := make([]domain.Purchase, 0)
	for _, p := range s.purchases {
		if p.UserAddress == userAddress {
			matches = append(matches, p)
		}
	}
	sort.SliceStable(matches, func(i, j int) bool { return matches[i].Timestamp.Before(matches[j].Timestamp) })

	ids := make([]string, len(matches))
	for i, p := range matches {
		ids[i] = p.PackageID
	}
	return ids, nil
}

func (s *Store) FindPurchase(_ context.Context, userAddress, packageID string) (domain.Purchase, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, p := range s.purchases {
		if p.UserAddress == userAddress && p.PackageID == packageID {
			return p, nil
		}
	}
	return domain.Purchase{}, domain.ErrNotFound
}

func (s *Store) InsertTransaction(_ context.Context, tx domain.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.transactions {
		if existing.ID == tx.ID {
			return domain.ErrDuplicateKey
		}
	}
	s.transactions = append(s.transactions, tx)
	return nil
}

func (s *Store) TransactionsByUser(_ context.Context, userAddress string) ([]domain.Transaction, error) {
	return s.transactionsWhere(func(tx domain.Transaction) bool { return tx.UserAddress == userAddress }), nil
}

func (s *Store) AllTransactions(context.Context) ([]domain.Transaction, error) {
	return s.transactionsWhere(func(domain.Transaction) bool { return true }), nil
}

// transactionsWhere returns matching transactions, newest first.
func (s *Store) transactionsWhere(keep func(domain.Transaction) bool) []domain.Transaction {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Transaction, 0)
	for _, tx := range s.transactions {
		if keep(tx) {
			out = append(out, tx)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp.After(out[j].Timestamp) })
	return out
}
