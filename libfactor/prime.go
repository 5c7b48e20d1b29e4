// Package libfactor implements the primality and factorization core:
// deterministic Miller-Rabin over machine words, Baillie-PSW beyond them,
// a wheel-compressed segmented sieve, and a Pollard rho decomposition
// engine feeding gofactor streams and catalogs.
package libfactor

import (
	"math"
	"math/bits"

	"github.com/fine-structures/gofactor/libfactor/zmod"
)

// smallPrimes is the ascending table of the 168 primes below 1000, the trial
// division front end shared by every primality and factorization entry point.
var smallPrimes = [168]uint16{
	2, 3, 5, 7, 11, 13, 17, 19, 23, 29,
	31, 37, 41, 43, 47, 53, 59, 61, 67, 71,
	73, 79, 83, 89, 97, 101, 103, 107, 109, 113,
	127, 131, 137, 139, 149, 151, 157, 163, 167, 173,
	179, 181, 191, 193, 197, 199, 211, 223, 227, 229,
	233, 239, 241, 251, 257, 263, 269, 271, 277, 281,
	283, 293, 307, 311, 313, 317, 331, 337, 347, 349,
	353, 359, 367, 373, 379, 383, 389, 397, 401, 409,
	419, 421, 431, 433, 439, 443, 449, 457, 461, 463,
	467, 479, 487, 491, 499, 503, 509, 521, 523, 541,
	547, 557, 563, 569, 571, 577, 587, 593, 599, 601,
	607, 613, 617, 619, 631, 641, 643, 647, 653, 659,
	661, 673, 677, 683, 691, 701, 709, 719, 727, 733,
	739, 743, 751, 757, 761, 769, 773, 787, 797, 809,
	811, 821, 823, 827, 829, 839, 853, 857, 859, 863,
	877, 881, 883, 887, 907, 911, 919, 929, 937, 941,
	947, 953, 967, 971, 977, 983, 991, 997,
}

// smallPrimes64 mirrors smallPrimes pre-widened for division loops.
var smallPrimes64 [len(smallPrimes)]uint64

func init() {
	for i, p := range smallPrimes {
		smallPrimes64[i] = uint64(p)
	}
}

// Witness sets proven to make a Miller-Rabin verdict exact over their range:
// {2, 7, 61} below 2^32, the 7-base set below 2^64.
var (
	mrBases32 = [3]uint64{2, 7, 61}
	mrBases64 = [7]uint64{2, 325, 9375, 28178, 450775, 9780504, 1795265022}
)

const (
	verdictComposite = -1
	verdictUndecided = 0
	verdictPrime     = 1
)

// trialDivideSmall runs n >= 2 against the small prime table. The scan stops
// early once n matches a table prime, is divisible by one, or is smaller
// than the square of the next untried prime (which proves n prime).
func trialDivideSmall(n uint64) int {
	for _, p := range smallPrimes64 {
		if p*p > n {
			return verdictPrime
		}
		if n%p == 0 {
			if n == p {
				return verdictPrime
			}
			return verdictComposite
		}
	}
	return verdictUndecided
}

// splitOdd factors v > 0 into odd * 2^twos.
func splitOdd(v uint64) (odd uint64, twos uint) {
	twos = uint(bits.TrailingZeros64(v))
	return v >> twos, twos
}

// witnessRound runs one Miller-Rabin round against odd n > 2, where
// n-1 = odd * 2^twos. A false return proves n composite; true means the
// base did not witness anything.
func witnessRound(n, odd uint64, twos uint, base uint64) bool {
	base %= n
	if base == 0 {
		return true
	}

	x := zmod.PowMod(base, odd, n)
	if x == 1 || x == n-1 {
		return true
	}

	for i := uint(1); i < twos; i++ {
		x = zmod.MulMod(x, x, n)
		if x == n-1 {
			return true
		}
	}
	return false
}

// IsPrime returns whether n is prime, exactly, over the whole uint64 range:
// trial division settles anything with a factor below 1000 and the proven
// witness sets settle the rest deterministically.
func IsPrime(n uint64) bool {
	if n < 2 {
		return false
	}
	if verdict := trialDivideSmall(n); verdict != verdictUndecided {
		return verdict == verdictPrime
	}

	odd, twos := splitOdd(n - 1)

	bases := mrBases64[:]
	if n <= math.MaxUint32 {
		bases = mrBases32[:]
	}
	for _, base := range bases {
		if !witnessRound(n, odd, twos, base) {
			return false
		}
	}
	return true
}

// MaxPrime64 is the largest prime representable in 64 bits (2^64 - 59).
const MaxPrime64 = 18446744073709551557

// NextPrime returns the smallest prime strictly greater than n.
// Panics when the result would not fit in 64 bits.
func NextPrime(n uint64) uint64 {
	if n < 2 {
		return 2
	}
	if n >= MaxPrime64 {
		panic("next prime overflows uint64")
	}

	v := n + 1
	if v&1 == 0 {
		v++
	}
	for !IsPrime(v) {
		v += 2
	}
	return v
}
