package ledger

import "errors"

// Resolution errors
var (
	ErrFeeCurrencyMismatch = errors.New("fee currency does not match base currency")
	ErrUnmappedAddress     = errors.New("address has no account mapping")
)

// Entry errors
var (
	ErrEntryNotBalanced = errors.New("entry postings do not balance")
)
