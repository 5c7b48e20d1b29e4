package gofactor

import (
	"fmt"
	"io"
	"math/bits"
	"sync"

	"github.com/emirpasic/gods/trees/redblacktree"
	"github.com/emirpasic/gods/utils"
)

// Insert merges a single prime into this factorization, keeping runs sorted
// by ascending prime.
func (fz *Factorization) Insert(prime uint64) {
	fz.InsertPow(prime, 1)
}

// InsertPow merges prime^power into this factorization.
func (fz *Factorization) InsertPow(prime uint64, power uint32) {
	insertAt := len(*fz)

	for i, Fi := range *fz {
		if Fi.Prime == prime {
			(*fz)[i].Power += power
			return
		} else if Fi.Prime > prime {
			insertAt = i
			break
		}
	}

	fax := append((*fz), PrimePower{})
	N := len(fax)
	copy(fax[insertAt+1:N], fax[insertAt:N-1])
	fax[insertAt] = PrimePower{
		Prime: prime,
		Power: power,
	}
	*fz = fax
}

// FactorizationComparator orders factorizations first by prime runs, then by
// run powers, shorter (prefix) sets ordering before their extensions.
func FactorizationComparator(A, B Factorization) int {
	lenB := len(B)

	for i, ai := range A {
		if lenB == i {
			return 1
		}

		bi := B[i]
		if ai.Prime != bi.Prime {
			if ai.Prime < bi.Prime {
				return -1
			}
			return 1
		}
		dPow := int(ai.Power) - int(bi.Power)
		if dPow != 0 {
			return dPow
		}
	}

	if len(A) < lenB {
		return -1
	}

	return 0
}

func (fz *Factorization) Clear() {
	*fz = (*fz)[:0]
}

// Product multiplies this factorization back out.
func (fz Factorization) Product() uint64 {
	n := uint64(1)
	for _, Fi := range fz {
		for k := uint32(0); k < Fi.Power; k++ {
			n *= Fi.Prime
		}
	}
	return n
}

// MaxPrime returns the largest prime in this factorization (0 if empty).
func (fz Factorization) MaxPrime() uint64 {
	if len(fz) == 0 {
		return 0
	}
	return fz[len(fz)-1].Prime
}

// TotalPowers returns the number of primes counted with multiplicity.
func (fz Factorization) TotalPowers() uint32 {
	Np := uint32(0)
	for _, Fi := range fz {
		Np += Fi.Power
	}
	return Np
}

// Totient returns Euler's totient of the factored value: the count of
// integers in [1, n] coprime to n.
func (fz Factorization) Totient() uint64 {
	phi := uint64(1)
	for _, Fi := range fz {
		phi *= Fi.Prime - 1
		for k := uint32(1); k < Fi.Power; k++ {
			phi *= Fi.Prime
		}
	}
	return phi
}

// DivisorCount returns how many positive divisors the factored value has.
func (fz Factorization) DivisorCount() uint64 {
	count := uint64(1)
	for _, Fi := range fz {
		count *= uint64(Fi.Power) + 1
	}
	return count
}

// AppendDivisors appends every positive divisor of the factored value to out
// in ascending order.
func (fz Factorization) AppendDivisors(out []uint64) []uint64 {
	tree := redblacktree.NewWith(utils.UInt64Comparator)
	tree.Put(uint64(1), nil)

	for _, Fi := range fz {
		base := tree.Keys()
		pk := uint64(1)
		for k := uint32(0); k < Fi.Power; k++ {
			pk *= Fi.Prime
			for _, d := range base {
				tree.Put(d.(uint64)*pk, nil)
			}
		}
	}

	itr := tree.Iterator()
	for itr.Next() {
		out = append(out, itr.Key().(uint64))
	}
	return out
}

var entryPool = sync.Pool{
	New: func() interface{} {
		return new(Entry)
	},
}

// NewEntry returns a zeroed Entry drawn from the reclaim pool.
func NewEntry() *Entry {
	ent := entryPool.Get().(*Entry)
	ent.N = 0
	ent.Factors = ent.Factors[:0]
	return ent
}

// MakeCopy returns a new copy of this instance.
func (ent *Entry) MakeCopy() *Entry {
	cpy := entryPool.Get().(*Entry)
	cpy.N = ent.N
	cpy.Factors = append(cpy.Factors[:0], ent.Factors...)
	return cpy
}

// Reclaim recycles this Entry instance into a pool for reuse.
// Caller asserts that no more references to this instance will persist.
func (ent *Entry) Reclaim() {
	entryPool.Put(ent)
}

// GetInfo returns info about this entry
func (ent *Entry) GetInfo() NumberInfo {
	return NumberInfo{
		BitLen:    byte(bits.Len64(ent.N)),
		Distinct:  byte(len(ent.Factors)),
		TotalPows: byte(ent.Factors.TotalPowers()),
	}
}

// IsPrime returns true if the entry's value is prime, per its factorization.
func (ent *Entry) IsPrime() bool {
	return len(ent.Factors) == 1 && ent.Factors[0].Power == 1
}

func (ent *Entry) WriteAsString(out io.Writer, opts PrintOpts) {
	fmt.Fprintf(out, "%d", ent.N)

	if opts.Factors && len(ent.Factors) > 0 {
		io.WriteString(out, " = ")
		for i, Fi := range ent.Factors {
			if i > 0 {
				io.WriteString(out, " * ")
			}
			if Fi.Power == 1 {
				fmt.Fprintf(out, "%d", Fi.Prime)
			} else {
				fmt.Fprintf(out, "%d^%d", Fi.Prime, Fi.Power)
			}
		}
	}
	if opts.Phi {
		fmt.Fprintf(out, ", phi:%d", ent.Factors.Totient())
	}
	if opts.Divisors {
		var divisorsBuf [64]uint64
		fmt.Fprintf(out, ", divisors:%v", ent.Factors.AppendDivisors(divisorsBuf[:0]))
	}
}

// SelectsEntry is a convenience function used to see if an Entry is selected
// according to a Selector.
func (sel *Selector) SelectsEntry(ent *Entry) bool {
	if ent.N < sel.MinValue {
		return false
	}
	if sel.MaxValue > 0 && ent.N > sel.MaxValue {
		return false
	}
	if sel.PrimesOnly && !ent.IsPrime() {
		return false
	}

	info := ent.GetInfo()
	if info.BitLen < sel.Min.BitLen || info.Distinct < sel.Min.Distinct || info.TotalPows < sel.Min.TotalPows {
		return false
	}
	if info.BitLen > sel.Max.BitLen || info.Distinct > sel.Max.Distinct || info.TotalPows > sel.Max.TotalPows {
		return false
	}
	return true
}

func NewCatalogContext() CatalogContext {
	ctx := &catalogContext{
		openCatalogs: make(map[Catalog]struct{}),
		closing:      make(chan struct{}),
		closed:       make(chan struct{}),
	}
	ctx.openCount.Add(1)
	go func() {
		<-ctx.Closing()
		ctx.openCount.Done()
		ctx.openCount.Wait()
		close(ctx.closed)
	}()
	return ctx
}

type catalogContext struct {
	mu           sync.Mutex
	openCount    sync.WaitGroup
	openCatalogs map[Catalog]struct{}
	closing      chan struct{}
	closed       chan struct{}
}

func (ctx *catalogContext) AttachCatalog(cat Catalog) {
	ctx.openCount.Add(1)
	ctx.mu.Lock()
	ctx.openCatalogs[cat] = struct{}{}
	ctx.mu.Unlock()
}

func (ctx *catalogContext) DetachCatalog(cat Catalog) {
	ctx.mu.Lock()
	if _, exists := ctx.openCatalogs[cat]; exists {
		delete(ctx.openCatalogs, cat)
		ctx.openCount.Done()
	}
	ctx.mu.Unlock()
}

func (ctx *catalogContext) Closing() <-chan struct{} {
	return ctx.closing
}

func (ctx *catalogContext) Done() <-chan struct{} {
	return ctx.closed
}

func (ctx *catalogContext) Close() {
	close(ctx.closing)
	ctx.mu.Lock()
	for cat := range ctx.openCatalogs {
		go cat.Close()
	}
	ctx.mu.Unlock()
}
