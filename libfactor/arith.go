package libfactor

import (
	"github.com/pkg/errors"

	"github.com/fine-structures/gofactor/gofactor"
	"github.com/fine-structures/gofactor/libfactor/zmod"
)

// Totient returns Euler's totient of n > 0.
func Totient(n uint64) uint64 {
	return Decompose(n).Totient()
}

// DivisorCount returns how many positive divisors n > 0 has.
func DivisorCount(n uint64) uint64 {
	return Decompose(n).DivisorCount()
}

// Divisors returns every positive divisor of n > 0 in ascending order.
func Divisors(n uint64) []uint64 {
	return Decompose(n).AppendDivisors(nil)
}

// CRT solves the simultaneous congruences x = residues[i] (mod moduli[i]),
// returning the smallest non-negative solution along with the combined
// modulus. Moduli need not be pairwise coprime; a system whose congruences
// disagree on a shared factor returns gofactor.ErrNoSolution.
//
// Panics on an empty or mismatched system or a non-positive modulus, and
// the combined modulus must fit in an int64.
func CRT(residues, moduli []int64) (x, m int64, err error) {
	if len(residues) != len(moduli) || len(moduli) == 0 {
		panic("empty or mismatched congruence system")
	}
	if moduli[0] <= 0 {
		panic("non-positive modulus")
	}

	x = zmod.Mod(residues[0], moduli[0])
	m = moduli[0]

	for i := 1; i < len(moduli); i++ {
		mi := moduli[i]
		if mi <= 0 {
			panic("non-positive modulus")
		}
		xi := zmod.Mod(residues[i], mi)

		// Merge (x mod m) with (xi mod mi): solutions exist exactly when
		// the two agree mod gcd(m, mi).
		g := int64(zmod.GCD(uint64(m), uint64(mi)))
		diff := xi - x
		if zmod.Mod(diff, g) != 0 {
			return 0, 0, errors.Wrapf(gofactor.ErrNoSolution, "congruence %d of %d", i, len(moduli))
		}

		mig := mi / g
		if mig > 1 {
			inv := zmod.ModMultInv(zmod.Mod(m/g, mig), mig)
			k := int64(zmod.MulMod(
				uint64(zmod.Mod(diff/g, mig)),
				uint64(inv),
				uint64(mig)))
			x += m * k
		}
		m = m / g * mi
		x = zmod.Mod(x, m)
	}
	return x, m, nil
}
