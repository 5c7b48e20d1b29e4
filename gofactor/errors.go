package gofactor

import "errors"

// Errors
var (
	ErrUnmarshal       = errors.New("unmarshal failed")
	ErrBadCatalogParam = errors.New("bad catalog param")
	ErrCatalogVers     = errors.New("incompatible catalog version")
	ErrNotPrimeCatalog = errors.New("catalog was not created to serve primes")
	ErrBadExpr         = errors.New("bad number expression")
	ErrExprRange       = errors.New("number expression out of range")
	ErrNoSolution      = errors.New("congruence system has no solution")
)
