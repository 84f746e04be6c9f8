// Package domain contains the core domain types for the payment context:
// the package catalog, user styles and the purchase ledgers.
package domain

import (
	"errors"
	"time"
)

var (
	// ErrNotFound is returned by stores when a single-row lookup matches nothing.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateKey is returned when an insert collides with an existing key.
	ErrDuplicateKey = errors.New("duplicate key")
)

// Package is a purchasable content bundle.
type Package struct {
	ID       string `json:"id"`
	PriceWei string `json:"priceWei"`
	Name     string `json:"name"`
	IPFSHash string `json:"ipfsHash"`
}

// PackageUpdate changes only the fields that are set.
type PackageUpdate struct {
	PriceWei *string `json:"priceWei,omitempty"`
	Name     *string `json:"name,omitempty"`
	IPFSHash *string `json:"ipfsHash,omitempty"`
}

// Empty reports whether the update changes nothing.
func (u PackageUpdate) Empty() bool {
	return u.PriceWei == nil && u.Name == nil && u.IPFSHash == nil
}

// Apply returns p with the update's fields replaced.
func (u PackageUpdate) Apply(p Package) Package {
	if u.PriceWei != nil {
		p.PriceWei = *u.PriceWei
	}
	if u.Name != nil {
		p.Name = *u.Name
	}
	if u.IPFSHash != nil {
		p.IPFSHash = *u.IPFSHash
	}
	return p
}

// UserStyle is the style a user selected. One per user.
type UserStyle struct {
	UserAddress string `json:"userAddress"`
	Style       int    `json:"style"`
}

// Purchase is an entry in the user_purchases ledger.
type Purchase struct {
	ID          string    `json:"id,omitempty"`
	UserAddress string    `json:"userAddress"`
	PackageID   string    `json:"packageId"`
	PriceWei    string    `json:"priceWei"`
	TxHash      string    `json:"txHash,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
	Style       *int      `json:"style,omitempty"`
	IPFSHash    string    `json:"ipfsHash,omitempty"`
	PackageName string    `json:"packageName,omitempty"`
}

// Transaction is an entry in the user_transactions ledger. Unlike a
// Purchase it always carries the on-chain transaction hash.
type Transaction struct {
	ID          string    `json:"id"`
	UserAddress string    `json:"userAddress"`
	PackageID   string    `json:"packageId"`
	PriceWei    string    `json:"priceWei"`
	TxHash      string    `json:"txHash"`
	Timestamp   time.Time `json:"timestamp"`
	Style       *int      `json:"style,omitempty"`
	IPFSHash    string    `json:"ipfsHash,omitempty"`
	PackageName string    `json:"packageName,omitempty"`
}
