// Package storetest holds the behavior every payment store backend must
// share. Backends call Run from their own tests.
package storetest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fd1az/pool-service/business/payment/app"
	"github.com/fd1az/pool-service/business/payment/domain"
)

// Run exercises store contracts against a fresh store per subtest.
func Run(t *testing.T, newStore func(t *testing.T) app.Store) {
	t.Run("PackageLifecycle", func(t *testing.T) { testPackageLifecycle(t, newStore(t)) })
	t.Run("PackageDuplicate", func(t *testing.T) { testPackageDuplicate(t, newStore(t)) })
	t.Run("PackageMissing", func(t *testing.T) { testPackageMissing(t, newStore(t)) })
	t.Run("StyleUpsert", func(t *testing.T) { testStyleUpsert(t, newStore(t)) })
	t.Run("Purchases", func(t *testing.T) { testPurchases(t, newStore(t)) })
	t.Run("TransactionOrdering", func(t *testing.T) { testTransactionOrdering(t, newStore(t)) })
}

func ptr[T any](v T) *T {
	return &v
}

var base = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func testPackageLifecycle(t *testing.T, s app.Store) {
	ctx := context.Background()

	b := domain.Package{ID: "pkg-b", PriceWei: "2000000000000000000", Name: "Advanced", IPFSHash: "QmB"}
	a := domain.Package{ID: "pkg-a", PriceWei: "1000", Name: "Basics", IPFSHash: "QmA"}
	require.NoError(t, s.CreatePackage(ctx, b))
	require.NoError(t, s.CreatePackage(ctx, a))

	got, err := s.GetPackage(ctx, "pkg-b")
	require.NoError(t, err)
	assert.Equal(t, b, got)

	list, err := s.ListPackages(ctx)
	require.NoError(t, err)
	assert.Equal(t, []domain.Package{a, b}, list)

	updated, err := s.UpdatePackage(ctx, "pkg-a", domain.PackageUpdate{Name: ptr("Basics v2")})
	require.NoError(t, err)
	assert.Equal(t, domain.Package{ID: "pkg-a", PriceWei: "1000", Name: "Basics v2", IPFSHash: "QmA"}, updated)

	unchanged, err := s.UpdatePackage(ctx, "pkg-a", domain.PackageUpdate{})
	require.NoError(t, err)
	assert.Equal(t, updated, unchanged)

	require.NoError(t, s.DeletePackage(ctx, "pkg-b"))
	_, err = s.GetPackage(ctx, "pkg-b")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	list, err = s.ListPackages(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func testPackageDuplicate(t *testing.T, s app.Store) {
	ctx := context.Background()

	p := domain.Package{ID: "dup", PriceWei: "1", Name: "Dup", IPFSHash: "Qm"}
	require.NoError(t, s.CreatePackage(ctx, p))
	assert.ErrorIs(t, s.CreatePackage(ctx, p), domain.ErrDuplicateKey)
}

func testPackageMissing(t *testing.T, s app.Store) {
	ctx := context.Background()

	_, err := s.GetPackage(ctx, "nope")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = s.UpdatePackage(ctx, "nope", domain.PackageUpdate{Name: ptr("x")})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = s.UpdatePackage(ctx, "nope", domain.PackageUpdate{})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	assert.ErrorIs(t, s.DeletePackage(ctx, "nope"), domain.ErrNotFound)

	list, err := s.ListPackages(ctx)
	require.NoError(t, err)
	assert.NotNil(t, list)
	assert.Empty(t, list)
}

func testStyleUpsert(t *testing.T, s app.Store) {
	ctx := context.Background()

	_, err := s.GetStyle(ctx, "0xuser")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	require.NoError(t, s.UpsertStyle(ctx, domain.UserStyle{UserAddress: "0xuser", Style: 1}))
	require.NoError(t, s.UpsertStyle(ctx, domain.UserStyle{UserAddress: "0xuser", Style: 3}))
	require.NoError(t, s.UpsertStyle(ctx, domain.UserStyle{UserAddress: "0xother", Style: 2}))

	got, err := s.GetStyle(ctx, "0xuser")
	require.NoError(t, err)
	assert.Equal(t, domain.UserStyle{UserAddress: "0xuser", Style: 3}, got)
}

func testPurchases(t *testing.T, s app.Store) {
	ctx := context.Background()

	ids, err := s.PurchasedPackageIDs(ctx, "0xuser")
	require.NoError(t, err)
	assert.NotNil(t, ids)
	assert.Empty(t, ids)

	first := domain.Purchase{
		ID: "p-1", UserAddress: "0xuser", PackageID: "pkg-a", PriceWei: "1000",
		TxHash: "0xtx1", Timestamp: base, Style: ptr(2), IPFSHash: "QmA", PackageName: "Basics",
	}
	second := domain.Purchase{
		ID: "p-2", UserAddress: "0xuser", PackageID: "pkg-b", PriceWei: "2000",
		Timestamp: base.Add(time.Hour),
	}
	other := domain.Purchase{
		ID: "p-3", UserAddress: "0xother", PackageID: "pkg-c", PriceWei: "1",
		Timestamp: base.Add(-time.Hour),
	}
	require.NoError(t, s.InsertPurchase(ctx, second))
	require.NoError(t, s.InsertPurchase(ctx, first))
	require.NoError(t, s.InsertPurchase(ctx, other))
	assert.ErrorIs(t, s.InsertPurchase(ctx, first), domain.ErrDuplicateKey)

	ids, err = s.PurchasedPackageIDs(ctx, "0xuser")
	require.NoError(t, err)
	assert.Equal(t, []string{"pkg-a", "pkg-b"}, ids)

	found, err := s.FindPurchase(ctx, "0xuser", "pkg-a")
	require.NoError(t, err)
	assert.Equal(t, first.ID, found.ID)
	assert.Equal(t, first.TxHash, found.TxHash)
	assert.True(t, first.Timestamp.Equal(found.Timestamp))
	require.NotNil(t, found.Style)
	assert.Equal(t, 2, *found.Style)
	assert.Equal(t, "Basics", found.PackageName)

	found, err = s.FindPurchase(ctx, "0xuser", "pkg-b")
	require.NoError(t, err)
	assert.Nil(t, found.Style)
	assert.Empty(t, found.TxHash)

	_, err = s.FindPurchase(ctx, "0xuser", "pkg-c")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func testTransactionOrdering(t *testing.T, s app.Store) {
	ctx := context.Background()

	newer := domain.Transaction{ID: "t-new", UserAddress: "0xuser", PackageID: "pkg-a", PriceWei: "1", TxHash: "0xnew", Timestamp: base.Add(2 * time.Hour)}
	older := domain.Transaction{ID: "t-old", UserAddress: "0xuser", PackageID: "pkg-b", PriceWei: "2", TxHash: "0xold", Timestamp: base}
	middle := domain.Transaction{ID: "t-mid", UserAddress: "0xother", PackageID: "pkg-a", PriceWei: "3", TxHash: "0xmid", Timestamp: base.Add(time.Hour), Style: ptr(4)}

	// Older rows inserted after newer ones must not change the order.
	require.NoError(t, s.InsertTransaction(ctx, newer))
	require.NoError(t, s.InsertTransaction(ctx, middle))
	require.NoError(t, s.InsertTransaction(ctx, older))

	all, err := s.AllTransactions(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"t-new", "t-mid", "t-old"}, transactionIDs(all))
	require.NotNil(t, all[1].Style)
	assert.Equal(t, 4, *all[1].Style)

	mine, err := s.TransactionsByUser(ctx, "0xuser")
	require.NoError(t, err)
	assert.Equal(t, []string{"t-new", "t-old"}, transactionIDs(mine))

	none, err := s.TransactionsByUser(ctx, "0xnobody")
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

func transactionIDs(txs []domain.Transaction) []string {
	ids := make([]string, len(txs))
	for i, tx := range txs {
		ids[i] = tx.ID
	}
	return ids
}
