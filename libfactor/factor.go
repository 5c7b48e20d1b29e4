package libfactor

import (
	"math"
	"math/big"
	"math/rand"
	"sync"
	"time"

	"github.com/fine-structures/gofactor/gofactor"
	"github.com/fine-structures/gofactor/libfactor/zmod"
)

// Factorizer owns the trial division front end for repeated decompositions.
// The zero value trial-divides with the built-in table of primes below 1000;
// NewFactorizer extends that with a sieved prime list.
type Factorizer struct {
	primes []uint64
}

// NewFactorizer returns a Factorizer that trial-divides with every prime up
// to primeLimit before handing survivors to the rho engine. Limits beyond
// 2^32 buy nothing for 64-bit targets and are clamped.
func NewFactorizer(primeLimit uint64) *Factorizer {
	if primeLimit < 1000 {
		primeLimit = 1000
	}
	if primeLimit > math.MaxUint32 {
		primeLimit = math.MaxUint32
	}
	_, primes := NewSieveAndPrimes(primeLimit)
	return &Factorizer{
		primes: primes,
	}
}

var gFactorizer Factorizer

// Decompose returns the complete prime factorization of n using the shared
// default Factorizer. Panics when n is 0; n = 1 yields the empty runs.
func Decompose(n uint64) gofactor.Factorization {
	return gFactorizer.Decompose(n)
}

// Decompose returns the complete prime factorization of n, runs ascending
// by prime. Panics when n is 0; n = 1 yields the empty runs.
func (fz *Factorizer) Decompose(n uint64) gofactor.Factorization {
	var out gofactor.Factorization
	fz.DecomposeInto(&out, n)
	return out
}

// DecomposeInto clears out and rebuilds it as the factorization of n.
func (fz *Factorizer) DecomposeInto(out *gofactor.Factorization, n uint64) {
	out.Clear()
	if n == 0 {
		panic("decomposition of 0")
	}

	rem := n
	primes := fz.primes
	if primes == nil {
		primes = smallPrimes64[:]
	}
	for _, p := range primes {
		if p*p > rem {
			if rem > 1 {
				out.Insert(rem)
			}
			return
		}
		if rem%p == 0 {
			pow := uint32(0)
			for rem%p == 0 {
				rem /= p
				pow++
			}
			out.InsertPow(p, pow)
			if rem == 1 {
				return
			}
		}
	}

	// rem survived the whole trial list, so its least factor outruns it
	s := getFactorScratch()
	s.splitInto(out, rem)
	s.reclaim()
}

// factorScratch is the pooled working state of one rho search.
type factorScratch struct {
	rng *rand.Rand
}

var factorScratchPool = sync.Pool{
	New: func() interface{} {
		return &factorScratch{
			rng: rand.New(rand.NewSource(time.Now().UnixNano())),
		}
	},
}

func getFactorScratch() *factorScratch {
	return factorScratchPool.Get().(*factorScratch)
}

func (s *factorScratch) reclaim() {
	factorScratchPool.Put(s)
}

// splitInto factors rem, known free of any prime on the caller's trial
// list, and multiplies its prime runs into out.
func (s *factorScratch) splitInto(out *gofactor.Factorization, rem uint64) {
	if rem == 1 {
		return
	}
	if IsPrime(rem) {
		out.Insert(rem)
		return
	}

	d := s.findFactor(rem)
	m := rem / d

	// The two halves of the split need not be coprime: factor one side
	// completely, strip its primes out of the other, then recurse on
	// whatever survives.
	var dfz gofactor.Factorization
	s.splitInto(&dfz, d)
	for _, Fi := range dfz {
		out.InsertPow(Fi.Prime, Fi.Power)
		for m%Fi.Prime == 0 {
			m /= Fi.Prime
			out.Insert(Fi.Prime)
		}
	}
	s.splitInto(out, m)
}

const (
	rhoBatchSz     = 128
	rhoMaxSteps    = 1 << 22
	rhoMaxRestarts = 64
)

// findFactor returns a non-trivial factor of composite n. Exhausting every
// restart panics; no composite gets there, but a prime smuggled in would.
func (s *factorScratch) findFactor(n uint64) uint64 {
	if n&1 == 0 {
		return 2
	}
	for i := 0; i < rhoMaxRestarts; i++ {
		if d := s.rhoRun(n); d != 0 {
			return d
		}
	}
	panic("factor search exhausted its restarts")
}

// rhoRun is one Pollard rho attempt on odd composite n with a freshly drawn
// polynomial constant, returning 0 when the walk closed without a factor.
// Batches of |x-y| are multiplied mod n so one gcd covers rhoBatchSz steps;
// a batch whose gcd comes back n is replayed a step at a time.
func (s *factorScratch) rhoRun(n uint64) uint64 {
	// x -> x^2 + c with c in [1, n-3]: c = n-2 collapses onto x -> x^2 - 2,
	// whose orbits are too regular to mix.
	c := 1 + s.rng.Uint64()%(n-3)

	x, y := uint64(2), uint64(2)
	prod := uint64(1)

	for step := 0; step < rhoMaxSteps; step += rhoBatchSz {
		bx, by := x, y
		collided := false
		for k := 0; k < rhoBatchSz; k++ {
			x = rhoStep(x, c, n)
			y = rhoStep(rhoStep(y, c, n), c, n)
			d := zmod.SubMod(x, y, n)
			if d == 0 {
				collided = true
				break
			}
			prod = zmod.MulMod(prod, d, n)
		}

		g := zmod.GCD(prod, n)
		if g == 1 {
			if collided {
				return 0
			}
			continue
		}
		if g != n {
			return g
		}
		return rhoReplay(n, c, bx, by)
	}
	return 0
}

func rhoStep(x, c, n uint64) uint64 {
	return zmod.AddMod(zmod.MulMod(x, x, n), c, n)
}

// rhoReplay re-walks a batch from its checkpoint one gcd per step, for the
// batch whose product collapsed to 0 mod n.
func rhoReplay(n, c, x, y uint64) uint64 {
	for k := 0; k < rhoBatchSz; k++ {
		x = rhoStep(x, c, n)
		y = rhoStep(rhoStep(y, c, n), c, n)
		d := zmod.SubMod(x, y, n)
		if d == 0 {
			return 0
		}
		if g := zmod.GCD(d, n); g > 1 {
			return g
		}
	}
	return 0
}

// DecomposeBig returns the complete prime factorization of positive n,
// runs ascending by prime. Panics when n < 1.
func DecomposeBig(n *big.Int) []gofactor.BigPrimePower {
	if n.Sign() <= 0 {
		panic("decomposition of non-positive value")
	}
	if n.IsUint64() {
		fz := Decompose(n.Uint64())
		out := make([]gofactor.BigPrimePower, 0, len(fz))
		for _, Fi := range fz {
			out = append(out, gofactor.BigPrimePower{
				Prime: new(big.Int).SetUint64(Fi.Prime),
				Power: Fi.Power,
			})
		}
		return out
	}

	var out []gofactor.BigPrimePower
	rem := new(big.Int).Set(n)

	var q, r, p big.Int
	for _, sp := range smallPrimes64 {
		p.SetUint64(sp)
		pow := uint32(0)
		for {
			q.QuoRem(rem, &p, &r)
			if r.Sign() != 0 {
				break
			}
			rem.Set(&q)
			pow++
		}
		if pow > 0 {
			insertBigPow(&out, new(big.Int).SetUint64(sp), pow)
		}
	}

	if rem.Cmp(gBigOne) != 0 {
		s := getFactorScratch()
		s.splitBigInto(&out, rem)
		s.reclaim()
	}
	return out
}

// splitBigInto factors rem > 1, known free of primes below 1000, and
// multiplies its prime runs into out.
func (s *factorScratch) splitBigInto(out *[]gofactor.BigPrimePower, rem *big.Int) {
	if rem.IsUint64() {
		var fz gofactor.Factorization
		s.splitInto(&fz, rem.Uint64())
		for _, Fi := range fz {
			insertBigPow(out, new(big.Int).SetUint64(Fi.Prime), Fi.Power)
		}
		return
	}
	if IsPrimeBig(rem) {
		insertBigPow(out, new(big.Int).Set(rem), 1)
		return
	}

	d := s.findFactorBig(rem)
	m := new(big.Int).Quo(rem, d)

	var dfz []gofactor.BigPrimePower
	s.splitBigInto(&dfz, d)

	var q, r big.Int
	for i := range dfz {
		Fi := &dfz[i]
		insertBigPow(out, Fi.Prime, Fi.Power)
		for {
			q.QuoRem(m, Fi.Prime, &r)
			if r.Sign() != 0 {
				break
			}
			m.Set(&q)
			insertBigPow(out, Fi.Prime, 1)
		}
	}
	if m.Cmp(gBigOne) != 0 {
		s.splitBigInto(out, m)
	}
}

// insertBigPow merges pow instances of prime into the ascending runs of fz.
func insertBigPow(fz *[]gofactor.BigPrimePower, prime *big.Int, pow uint32) {
	runs := *fz
	idx := len(runs)
	for ; idx > 0; idx-- {
		c := runs[idx-1].Prime.Cmp(prime)
		if c == 0 {
			runs[idx-1].Power += pow
			return
		}
		if c < 0 {
			break
		}
	}
	runs = append(runs, gofactor.BigPrimePower{})
	copy(runs[idx+1:], runs[idx:])
	runs[idx] = gofactor.BigPrimePower{
		Prime: prime,
		Power: pow,
	}
	*fz = runs
}

// FactorRange streams the factorization of every integer in [from, to],
// ascending. 0 is skipped; an inverted range streams nothing.
func FactorRange(from, to uint64) *gofactor.FactorStream {
	stream := gofactor.NewFactorStream()
	go func() {
		for n := from; n <= to; n++ {
			if n != 0 {
				entry := gofactor.NewEntry()
				entry.N = n
				gFactorizer.DecomposeInto(&entry.Factors, n)
				stream.Outlet <- entry
			}
			if n == to {
				break
			}
		}
		stream.Close()
	}()
	return stream
}

const bigRhoMaxSteps = 1 << 20

// findFactorBig returns a non-trivial factor of composite n > 2^64.
func (s *factorScratch) findFactorBig(n *big.Int) *big.Int {
	for i := 0; i < rhoMaxRestarts; i++ {
		if d := s.rhoRunBig(n); d != nil {
			return d
		}
	}
	panic("factor search exhausted its restarts")
}

// rhoRunBig is one Pollard rho attempt on odd composite n, gcd per step.
func (s *factorScratch) rhoRunBig(n *big.Int) *big.Int {
	span := new(big.Int).Sub(n, big.NewInt(3))
	c := new(big.Int).Rand(s.rng, span)
	c.Add(c, gBigOne)

	step := func(v *big.Int) {
		v.Mul(v, v).Add(v, c).Mod(v, n)
	}

	x := big.NewInt(2)
	y := big.NewInt(2)
	var d, g big.Int

	for i := 0; i < bigRhoMaxSteps; i++ {
		step(x)
		step(y)
		step(y)
		d.Sub(x, y)
		d.Abs(&d)
		if d.Sign() == 0 {
			return nil
		}
		g.GCD(nil, nil, &d, n)
		if g.Cmp(gBigOne) != 0 {
			return new(big.Int).Set(&g)
		}
	}
	return nil
}
