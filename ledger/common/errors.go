package common

import "errors"

// Error taxonomy for the domain-model layer (spec.md §7): malformed wire
// data, invalid address/credential shapes, and arithmetic faults are all
// distinguishable via errors.Is.
var (
	ErrInvalidHashLength      = errors.New("ledger: invalid hash length")
	ErrInvalidAddress         = errors.New("ledger: invalid address")
	ErrUnsupportedAddressType = errors.New("ledger: unsupported address type")
	ErrNoStakingComponent     = errors.New("ledger: address has no staking component")
	ErrInvalidCredential      = errors.New("ledger: invalid credential")
	ErrAssetUnderflow         = errors.New("ledger: asset quantity underflow")
	ErrCoinOverflow           = errors.New("ledger: coin amount overflow")
	ErrCoinUnderflow          = errors.New("ledger: coin amount underflow")
)
