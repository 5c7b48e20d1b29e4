package gofactor

import (
	"math/big"
)

const (

	// MaxBitLen is the widest value class tracked by catalogs and selectors (uint64 values).
	MaxBitLen = 64

	// MaxPrimePowers is the most distinct primes a uint64 factorization can hold.
	// The product of the 16 smallest primes already overflows 64 bits.
	MaxPrimePowers = 15

	// MaxTotalPowers bounds the sum of all exponents in a uint64 factorization (2^63 < 2^64).
	MaxTotalPowers = 63
)

// PrimePower is a single run in a factorization: a prime and the number of
// times it divides the value.
type PrimePower struct {
	Prime uint64
	Power uint32
}

// Factorization is a complete prime decomposition, ordered by ascending Prime.
//
// The zero value (no runs) is the factorization of 1.
type Factorization []PrimePower

// FactorizationLSM is a LSM binary encoding of a Factorization.
type FactorizationLSM []byte

// BigPrimePower mirrors PrimePower for values wider than 64 bits.
type BigPrimePower struct {
	Prime *big.Int
	Power uint32
}

// Entry is a factored number as it travels through streams and catalogs.
type Entry struct {
	N       uint64
	Factors Factorization
}

// OnEntryHit is a callback channel used to return entries meeting a set of
// selection criteria. Ownership of an Entry also travels through the channel.
type OnEntryHit chan<- *Entry

// NumberInfo summarizes an Entry for bounds-based selection.
type NumberInfo struct {
	BitLen    byte // bit length of N (1..MaxBitLen)
	Distinct  byte // number of distinct primes
	TotalPows byte // number of primes counted with multiplicity
}

// Selector is an operator that either selects a given Entry or not.
type Selector struct {
	MinValue   uint64     // lowest value selected
	MaxValue   uint64     // highest value selected (0 denotes no value bound)
	PrimesOnly bool       // only select primes
	Min        NumberInfo // lower select bounds
	Max        NumberInfo // upper select bounds
}

// DefaultSelector selects every valid Entry.
var DefaultSelector = Selector{
	Min: NumberInfo{
		BitLen: 1,
	},
	Max: NumberInfo{
		BitLen:    MaxBitLen,
		Distinct:  MaxPrimePowers,
		TotalPows: MaxTotalPowers,
	},
}

// CatalogContext is a container for open / active Catalog instances.
type CatalogContext interface {

	// Attaches the given Catalog to this context.
	AttachCatalog(cat Catalog)

	// Detaches the given Catalog from this context.
	DetachCatalog(cat Catalog)

	// Signals all attached catalogs to close, then closes.
	Close()

	// Signals when Close() completed and all open Catalogs have been closed
	Done() <-chan struct{}
}

// CatalogOpts specifies params for opening a factor Catalog
type CatalogOpts struct {
	DbPathName string // omit for an in-memory db
	ReadOnly   bool   // open in read-only mode
	NeedPrimes bool   // set if this catalog will serve prime membership queries
}

type NumberAdder interface {

	// Tries to add the given factored entry to this catalog.
	// If true is returned, ent did not exist and was added.
	TryAddNumber(ent *Entry) bool
}

// Catalog wraps a database of factored numbers.
type Catalog interface {
	NumberAdder

	// Returns true if this catalog was opened for read-only access.
	IsReadOnly() bool

	// NumEntries returns the number of cataloged values of the given bit length.
	// A bit length of 0 totals every class; out of range returns 0.
	NumEntries(bitLen byte) int64

	// NumPrimes returns the number of cataloged primes of the given bit length.
	// A bit length of 0 totals every class; out of range returns 0.
	NumPrimes(bitLen byte) int64

	// Lookup fetches the stored factorization of n, if present.
	Lookup(n uint64) (Factorization, bool)

	// Select fires the given callback with each Entry that meets the selection criteria.
	Select(sel Selector, onHit OnEntryHit)

	// Closes this catalog
	Close()
}

// PrintOpts specifies what is printed when printing an Entry
type PrintOpts struct {
	Label    string // Prefix label
	Factors  bool   // If set, prints the prime decomposition
	Phi      bool   // If set, prints Euler's totient of the value
	Divisors bool   // If set, prints the full ascending divisor list
}

var DefaultPrintOpts = PrintOpts{
	Factors: true,
}
