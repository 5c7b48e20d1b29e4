// Package zmod is the modular arithmetic kernel under the primality and
// factorization engines: canonical residues, floor/ceil division, extended
// Euclid inverses, the Jacobi symbol, and overflow-exact products, sums,
// and powers mod a full-range uint64 modulus.
package zmod

import (
	"math"
	"math/bits"

	"golang.org/x/exp/constraints"
)

// FloorDiv returns a/b rounded toward negative infinity.
// Go's native integer division truncates toward zero instead.
func FloorDiv[T constraints.Signed](a, b T) T {
	q := a / b
	if a%b != 0 && (a < 0) != (b < 0) {
		q--
	}
	return q
}

// CeilDiv returns a/b rounded toward positive infinity.
func CeilDiv[T constraints.Signed](a, b T) T {
	q := a / b
	if a%b != 0 && (a < 0) == (b < 0) {
		q++
	}
	return q
}

// Mod returns the canonical residue of a mod m: the unique value in [0, m)
// congruent to a. Requires m > 0.
func Mod[T constraints.Signed](a, m T) T {
	r := a % m
	if r < 0 {
		r += m
	}
	return r
}

// GCD returns the greatest common divisor of a and b, with GCD(x, 0) = x.
func GCD[T constraints.Unsigned](a, b T) T {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}

// ExtGCD runs the extended Euclid algorithm on non-negative a and b,
// returning g = gcd(a, b) along with Bezout coefficients x and y such that
// a*x + b*y = g.
func ExtGCD(a, b int64) (g, x, y int64) {
	x0, x1 := int64(1), int64(0)
	y0, y1 := int64(0), int64(1)
	for b != 0 {
		q := a / b
		a, b = b, a-q*b
		x0, x1 = x1, x0-q*x1
		y0, y1 = y1, y0-q*y1
	}
	return a, x0, y0
}

// ModMultInv returns the multiplicative inverse of a mod m: the value v in
// [0, m) with a*v ≡ 1. Requires m > 0 and panics if gcd(a, m) != 1, since
// no inverse exists and proceeding would silently corrupt the caller.
func ModMultInv(a, m int64) int64 {
	g, x, _ := ExtGCD(Mod(a, m), m)
	if g != 1 {
		panic("modular inverse of non-coprime operands")
	}
	return Mod(x, m)
}

// Jacobi returns the Jacobi symbol (a/b): 0, +1, or -1.
// b must be odd and positive; any other b panics.
func Jacobi(a, b int64) int {
	if b <= 0 || b&1 == 0 {
		panic("Jacobi symbol requires positive odd b")
	}

	j := 1
	if a < 0 {
		a = -a
		if b&3 == 3 {
			j = -j
		}
	}

	for {
		if b == 1 {
			return j
		}
		if a == 0 {
			return 0
		}

		e := 0
		for a&1 == 0 {
			a >>= 1
			e++
		}
		if e&1 == 1 {
			if m8 := b & 7; m8 == 3 || m8 == 5 {
				j = -j
			}
		}

		// Quadratic reciprocity flip before swapping
		if a&3 == 3 && b&3 == 3 {
			j = -j
		}
		a, b = b%a, a
	}
}

// AddMod returns (a + b) mod m for a and b already reduced mod m.
func AddMod(a, b, m uint64) uint64 {
	s := a + b
	if s < a || s >= m {
		s -= m
	}
	return s
}

// SubMod returns (a - b) mod m for a and b already reduced mod m.
func SubMod(a, b, m uint64) uint64 {
	if a >= b {
		return a - b
	}
	return m - b + a
}

// MulMod returns (a * b) mod m, exact for every uint64 modulus.
// The intermediate product is held in a 128-bit register pair.
func MulMod(a, b, m uint64) uint64 {
	if a >= m {
		a %= m
	}
	if b >= m {
		b %= m
	}
	hi, lo := bits.Mul64(a, b)
	_, r := bits.Div64(hi, lo, m)
	return r
}

// Pow raises x to the e-th power under the given multiply strategy, using
// O(log e) applications of mul. The strategy is expected to fold in
// whatever reduction keeps values bounded (a modulus, a matrix ring mod n),
// and one must be the multiplicative identity under it.
// Pow(x, 0) returns one for every x, including x = 0.
func Pow[T any](x T, e uint64, one T, mul func(a, b T) T) T {
	r := one
	for e > 0 {
		if e&1 != 0 {
			r = mul(r, x)
		}
		x = mul(x, x)
		e >>= 1
	}
	return r
}

// PowMod returns a^e mod m using binary exponentiation over MulMod.
func PowMod(a, e, m uint64) uint64 {
	if m == 1 {
		return 0
	}
	return Pow(a%m, e, 1, func(x, y uint64) uint64 {
		return MulMod(x, y, m)
	})
}

const maxRoot = 1<<32 - 1

// Isqrt returns the integer square root of n: the largest s with s*s <= n.
func Isqrt(n uint64) uint64 {
	if n == 0 {
		return 0
	}

	// The float estimate can land one off near perfect squares, and at the
	// top of the range float64(n) rounds up past 2^64.
	s := uint64(math.Sqrt(float64(n)))
	for s > maxRoot || s*s > n {
		s--
	}
	for s+1 <= maxRoot && (s+1)*(s+1) <= n {
		s++
	}
	return s
}
