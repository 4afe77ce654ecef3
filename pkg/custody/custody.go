package custody

import "context"

// Asset identifies the currency a stake is denominated in.
// AssetNative is the platform's native currency; any other value
// names a fungible token asset.
type Asset string

const (
	AssetNative Asset = "native"
)

// IsNative returns true if the asset is the native currency.
func (a Asset) IsNative() bool {
	return a == AssetNative
}

// Adapter moves value in and out of platform custody.
// Implementations must be atomic per call: a returned error means
// no funds moved.
//
// Exact-attachment validation for native deposits is the caller's
// responsibility, not the adapter's. Resolution issues the winner
// and fee payouts as separate calls; a Payout to the fee recipient
// must not fail against solvent custody, since the winner leg has
// already settled by the time it is issued.
type Adapter interface {
	// Deposit pulls amount of asset from payer into custody.
	Deposit(ctx context.Context, payer string, amount int64, asset Asset) error
	// Payout pushes amount of asset from custody to recipient.
	Payout(ctx context.Context, recipient string, amount int64, asset Asset) error
}
