package libfactor

import (
	"math"

	"github.com/fine-structures/gofactor/libfactor/zmod"
)

// The wheel-30 layout spends one byte per 30 integers, a bit for each
// residue coprime to 30. The hub primes 2, 3, and 5 own no bits and every
// multiple of them is composite-by-construction.
var wheelResidues = [8]byte{1, 7, 11, 13, 17, 19, 23, 29}

// wheelGaps[i] is the distance from wheelResidues[i] to the next residue.
var wheelGaps = [8]byte{6, 4, 2, 4, 2, 4, 6, 2}

var (
	// wheelBit maps a residue mod 30 to its bit index, 0xFF off the wheel.
	wheelBit [30]byte

	// wheelNext[r] is the distance from residue r up to the nearest wheel
	// residue, and wheelNextIdx[r] that residue's bit index.
	wheelNext    [30]byte
	wheelNextIdx [30]byte
)

func init() {
	for r := range wheelBit {
		wheelBit[r] = 0xFF
	}
	for i, r := range wheelResidues {
		wheelBit[r] = byte(i)
	}
	for r := 0; r < 30; r++ {
		d := 0
		for wheelBit[(r+d)%30] == 0xFF {
			d++
		}
		wheelNext[r] = byte(d)
		wheelNextIdx[r] = wheelBit[(r+d)%30]
	}
}

// Sieve is a read-only primality table over [0, Limit], wheel-compressed
// to one byte per 30 integers.
type Sieve struct {
	limit uint64
	data  []byte
}

// segmentSpan is how many integers one sieving pass covers, sized so the
// working window stays cache resident.
const segmentSpan = 32 * 1024 * 30

// sievingPrime carries a prefix prime through the segment sweep: its next
// multiple still to clear and the wheel position of that multiple's cofactor.
type sievingPrime struct {
	p        uint64
	multiple uint64
	wheelIdx byte
}

// NewSieve sieves [0, limit] and returns the finished table.
func NewSieve(limit uint64) *Sieve {
	s, _ := buildSieve(limit, false)
	return s
}

// NewSieveAndPrimes sieves [0, limit], collecting every prime found in
// ascending order during the same pass.
func NewSieveAndPrimes(limit uint64) (*Sieve, []uint64) {
	return buildSieve(limit, true)
}

func buildSieve(limit uint64, wantPrimes bool) (*Sieve, []uint64) {
	s := &Sieve{
		limit: limit,
		data:  make([]byte, limit/30+1),
	}
	for i := range s.data {
		s.data[i] = 0xFF
	}
	s.data[0] &^= 1 // 1 is not prime

	var primes []uint64
	if wantPrimes {
		for _, hub := range [3]uint64{2, 3, 5} {
			if hub <= limit {
				primes = append(primes, hub)
			}
		}
	}

	root := zmod.Isqrt(limit)

	// Finish the prefix [0, root] first with a classic non-segmented pass.
	// Every composite on the wheel has a least factor of at least 7, so
	// q starts there.
	for q := uint64(7); q*q <= root; q += uint64(wheelGaps[wheelBit[q%30]]) {
		if !s.testBit(q) {
			continue
		}
		wi := wheelBit[q%30]
		for m := q * q; m <= root; {
			s.clearBit(m)
			m += q * uint64(wheelGaps[wi])
			wi = (wi + 1) & 7
		}
	}

	// Walk the now-final prefix: collect its primes and seed the segment
	// sweep state, one entry per prefix prime, positioned at its first
	// multiple beyond root.
	var sieving []sievingPrime
	for q := uint64(7); q <= root; q += uint64(wheelGaps[wheelBit[q%30]]) {
		if !s.testBit(q) {
			continue
		}
		if wantPrimes {
			primes = append(primes, q)
		}
		w := root/q + 1
		if w < q {
			w = q
		}
		wi := wheelNextIdx[w%30]
		w += uint64(wheelNext[w%30])
		m := uint64(0)
		if w <= limit/q {
			m = q * w // first multiple past root; past limit means spent
		}
		sieving = append(sieving, sievingPrime{
			p:        q,
			multiple: m,
			wheelIdx: wi,
		})
	}

	// Sweep (root, limit] in windows, advancing each prime's multiple
	// through its wheel until it leaves the window.
	for lo := root + 1; lo <= limit; {
		hi := lo + segmentSpan - 1
		if hi > limit || hi < lo {
			hi = limit
		}

		for i := range sieving {
			sp := &sieving[i]
			for sp.multiple != 0 && sp.multiple <= hi {
				s.clearBit(sp.multiple)
				next := sp.multiple + sp.p*uint64(wheelGaps[sp.wheelIdx])
				if next < sp.multiple {
					next = 0 // past 2^64, this prime is spent
				}
				sp.multiple = next
				sp.wheelIdx = (sp.wheelIdx + 1) & 7
			}
		}

		if wantPrimes {
			primes = s.appendRange(primes, lo, hi)
		}

		if hi == limit {
			break
		}
		lo = hi + 1
	}

	return s, primes
}

// appendRange appends the primes on the wheel within [lo, hi] to out.
func (s *Sieve) appendRange(out []uint64, lo, hi uint64) []uint64 {
	v := lo + uint64(wheelNext[lo%30])
	wi := wheelNextIdx[lo%30]
	for v <= hi && v >= lo {
		if s.testBit(v) {
			out = append(out, v)
		}
		v += uint64(wheelGaps[wi])
		wi = (wi + 1) & 7
	}
	return out
}

func (s *Sieve) testBit(v uint64) bool {
	return s.data[v/30]&(1<<wheelBit[v%30]) != 0
}

func (s *Sieve) clearBit(v uint64) {
	s.data[v/30] &^= 1 << wheelBit[v%30]
}

// Limit returns the largest value the sieve covers.
func (s *Sieve) Limit() uint64 {
	return s.limit
}

// IsPrime returns whether v is prime. Panics when v lies beyond the
// sieve's limit.
func (s *Sieve) IsPrime(v uint64) bool {
	if v > s.limit {
		panic("value beyond sieve limit")
	}
	if v < 7 {
		return v == 2 || v == 3 || v == 5
	}
	b := wheelBit[v%30]
	if b == 0xFF {
		return false
	}
	return s.data[v/30]&(1<<b) != 0
}

// AppendPrimes appends every prime in [0, Limit] to out in ascending order.
func (s *Sieve) AppendPrimes(out []uint64) []uint64 {
	for _, hub := range [3]uint64{2, 3, 5} {
		if hub <= s.limit {
			out = append(out, hub)
		}
	}
	if s.limit < 7 {
		return out
	}
	return s.appendRange(out, 7, s.limit)
}

// PlainSieve is the uncompressed one-bit-per-integer sieve. It spends many
// times the memory of the wheel Sieve and exists as its independently
// simple cross-check and as the reference for small ranges.
type PlainSieve struct {
	limit uint64
	bits  []uint64
}

// NewPlainSieve sieves [0, limit] with the classic algorithm.
func NewPlainSieve(limit uint64) *PlainSieve {
	ps := &PlainSieve{
		limit: limit,
		bits:  make([]uint64, limit/64+1),
	}
	for i := range ps.bits {
		ps.bits[i] = math.MaxUint64
	}
	ps.bits[0] &^= 3 // 0 and 1

	for p := uint64(2); p*p <= limit; p++ {
		if ps.bits[p/64]&(1<<(p%64)) == 0 {
			continue
		}
		for m := p * p; m <= limit; m += p {
			ps.bits[m/64] &^= 1 << (m % 64)
		}
	}
	return ps
}

// Limit returns the largest value the sieve covers.
func (ps *PlainSieve) Limit() uint64 {
	return ps.limit
}

// IsPrime returns whether v is prime. Panics when v lies beyond the
// sieve's limit.
func (ps *PlainSieve) IsPrime(v uint64) bool {
	if v > ps.limit {
		panic("value beyond sieve limit")
	}
	return ps.bits[v/64]&(1<<(v%64)) != 0
}
