package libfactor

import (
	"math"
	"math/big"
)

var (
	gBigOne = big.NewInt(1)
	gBigTwo = big.NewInt(2)
)

// primeGroup packs a run of small primes whose product still fits a uint64,
// so one big.Int reduction covers divisibility checks for the whole run.
type primeGroup struct {
	product uint64
	primes  []uint16
}

var smallPrimeGroups []primeGroup

func init() {
	group := primeGroup{product: 1}
	for _, p := range smallPrimes {
		d := uint64(p)
		if group.product > math.MaxUint64/d {
			smallPrimeGroups = append(smallPrimeGroups, group)
			group = primeGroup{product: 1}
		}
		group.product *= d
		group.primes = append(group.primes, p)
	}
	smallPrimeGroups = append(smallPrimeGroups, group)
}

// IsPrimeBig reports whether n is prime: exactly below 2^64, via the
// Baillie-PSW composite test above it. No composite is known to pass
// both of its stages.
func IsPrimeBig(n *big.Int) bool {
	if n.Sign() <= 0 {
		return false
	}
	if n.IsUint64() {
		return IsPrime(n.Uint64())
	}

	// n exceeds 2^64 here, so any small divisor proves it composite.
	var rem, prod big.Int
	for _, group := range smallPrimeGroups {
		prod.SetUint64(group.product)
		m := rem.Mod(n, &prod).Uint64()
		for _, p := range group.primes {
			if m%uint64(p) == 0 {
				return false
			}
		}
	}

	if !passesMillerRabinBase2(n) {
		return false
	}
	return passesStrongLucas(n)
}

// passesMillerRabinBase2 runs the base-2 strong probable prime test on odd n.
func passesMillerRabinBase2(n *big.Int) bool {
	nm1 := new(big.Int).Sub(n, gBigOne)
	twos := nm1.TrailingZeroBits()
	odd := new(big.Int).Rsh(nm1, twos)

	x := new(big.Int).Exp(gBigTwo, odd, n)
	if x.Cmp(gBigOne) == 0 || x.Cmp(nm1) == 0 {
		return true
	}
	for i := uint(1); i < twos; i++ {
		x.Mul(x, x).Mod(x, n)
		if x.Cmp(nm1) == 0 {
			return true
		}
	}
	return false
}

// passesStrongLucas runs the strong Lucas probable prime test with the
// Selfridge parameters on odd n carrying no factor below 1000.
func passesStrongLucas(n *big.Int) bool {
	// Hunt D in 5, -7, 9, -11, ... with Jacobi(D/n) = -1. Perfect squares
	// never yield -1, so after enough misses rule that out directly.
	var D big.Int
	d := int64(5)
	for tries := 0; ; tries++ {
		j := big.Jacobi(D.SetInt64(d), n)
		if j == -1 {
			break
		}
		if j == 0 {
			// n shares a factor with d, and n is far larger than any d tried
			return false
		}
		if tries == 16 {
			var root big.Int
			root.Sqrt(n)
			if root.Mul(&root, &root).Cmp(n) == 0 {
				return false
			}
		}
		if d > 0 {
			d = -(d + 2)
		} else {
			d = -(d - 2)
		}
	}
	D.SetInt64(d)

	// With P = 1 and Q = (1-D)/4, write n+1 = odd * 2^twos and check that
	// U_odd = 0 or that V vanishes somewhere among the doublings below n+1.
	np1 := new(big.Int).Add(n, gBigOne)
	twos := np1.TrailingZeroBits()
	odd := new(big.Int).Rsh(np1, twos)

	U, V := lucasUV(odd, n, &D)
	if U.Sign() == 0 || V.Sign() == 0 {
		return true
	}
	for i := uint(1); i < twos; i++ {
		doubleLucas(U, V, n, &D)
		if V.Sign() == 0 {
			return true
		}
	}
	return false
}

// lucasUV computes (U_k, V_k) mod n for the Lucas sequence with P = 1 and
// Q = (1-D)/4, consuming k's bits from the top: each bit doubles the index
// and a set bit advances it by one. k must be >= 1 and n odd.
func lucasUV(k, n, D *big.Int) (*big.Int, *big.Int) {
	U := big.NewInt(1)
	V := big.NewInt(1)

	for i := k.BitLen() - 2; i >= 0; i-- {
		doubleLucas(U, V, n, D)
		if k.Bit(i) == 1 {
			// (U_m, V_m) -> (U_m+1, V_m+1) = ((U+V)/2, (D*U+V)/2)
			var t big.Int
			t.Mul(D, U).Add(&t, V).Mod(&t, n)
			halveMod(&t, n)
			U.Add(U, V).Mod(U, n)
			halveMod(U, n)
			V.Set(&t)
		}
	}
	return U, V
}

// doubleLucas advances (U_m, V_m) to (U_2m, V_2m) mod odd n in place:
// U' = U*V and V' = (V^2 + D*U^2)/2.
func doubleLucas(U, V, n, D *big.Int) {
	var t1, t2 big.Int
	t2.Mul(U, U).Mul(&t2, D)
	t1.Mul(V, V).Add(&t1, &t2).Mod(&t1, n)
	halveMod(&t1, n)
	U.Mul(U, V).Mod(U, n)
	V.Set(&t1)
}

// halveMod divides 0 <= x < n by 2 mod odd n in place.
func halveMod(x, n *big.Int) {
	if x.Bit(0) == 1 {
		x.Add(x, n)
	}
	x.Rsh(x, 1)
}

// NextPrimeBig returns the smallest prime strictly greater than n.
func NextPrimeBig(n *big.Int) *big.Int {
	if n.Sign() < 0 || n.BitLen() < 2 {
		return big.NewInt(2)
	}
	v := new(big.Int).Add(n, gBigOne)
	if v.Bit(0) == 0 {
		v.Add(v, gBigOne)
	}
	for !IsPrimeBig(v) {
		v.Add(v, gBigTwo)
	}
	return v
}
