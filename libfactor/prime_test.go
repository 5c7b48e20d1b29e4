package libfactor

import (
	"math"
	"math/rand"
	"testing"

	"modernc.org/mathutil"
)

func TestIsPrimeKnownValues(t *testing.T) {
	prime := []uint64{
		2, 3, 5, 7, 11, 13, 97, 127, 541, 997,

		// beyond the trial table, 32-bit witness path
		1009, 1000003, 999999937, 4294967291,

		// 64-bit witness path
		4294967311, 1000000000039, 2305843009213693951, 952016363681739749,
		MaxPrime64,
	}
	for _, n := range prime {
		if !IsPrime(n) {
			t.Fatalf("IsPrime(%d): want prime", n)
		}
	}

	composite := []uint64{
		0, 1, 4, 6, 9, 91, 561, 2047, 41041, 994009, math.MaxUint64,

		// no factor below 1000, so the witnesses must convict
		1000036000099, 1000006000009, 4120038565055551,
		18446744030759878681,
	}
	for _, n := range composite {
		if IsPrime(n) {
			t.Fatalf("IsPrime(%d): want composite", n)
		}
	}
}

func TestIsPrimeAgainstSieve(t *testing.T) {
	const limit = 1000000
	sieve, primes := NewSieveAndPrimes(limit)

	for n := uint64(0); n <= limit; n++ {
		if IsPrime(n) != sieve.IsPrime(n) {
			t.Fatalf("IsPrime(%d) disagrees with sieve", n)
		}
	}
	if len(primes) != 78498 {
		t.Fatalf("got %d primes below 10^6, want 78498", len(primes))
	}
}

func TestIsPrimeAgainstMathutil(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 50000; i++ {
		n := rng.Uint32()
		if IsPrime(uint64(n)) != mathutil.IsPrime(n) {
			t.Fatalf("IsPrime(%d) disagrees with mathutil", n)
		}
	}
}

func TestNextPrime(t *testing.T) {
	hops := []struct {
		n, want uint64
	}{
		{0, 2},
		{1, 2},
		{2, 3},
		{3, 5},
		{7, 11},
		{13, 17},
		{89, 97},
		{113, 127},
		{1000000, 1000003},
		{1000003, 1000033},
		{4294967290, 4294967291},
		{4294967291, 4294967311},
		{MaxPrime64 - 1, MaxPrime64},
	}
	for _, hop := range hops {
		if got := NextPrime(hop.n); got != hop.want {
			t.Fatalf("NextPrime(%d) = %d, want %d", hop.n, got, hop.want)
		}
	}

	rng := rand.New(rand.NewSource(2))
	for i := 0; i < 2000; i++ {
		n := uint32(rng.Uint32())
		want, ok := mathutil.NextPrime(n)
		if !ok {
			continue
		}
		if got := NextPrime(uint64(n)); got != uint64(want) {
			t.Fatalf("NextPrime(%d) = %d, want %d", n, got, want)
		}
	}
}

func TestNextPrimeOverflow(t *testing.T) {
	for _, n := range []uint64{MaxPrime64, MaxPrime64 + 1, math.MaxUint64} {
		func() {
			defer func() {
				if recover() == nil {
					t.Fatalf("NextPrime(%d): want panic", n)
				}
			}()
			NextPrime(n)
		}()
	}
}

func TestTrialDivideSmall(t *testing.T) {
	if trialDivideSmall(2) != verdictPrime {
		t.Fatal("2")
	}
	if trialDivideSmall(997) != verdictPrime {
		t.Fatal("997")
	}
	if trialDivideSmall(997*997) != verdictComposite {
		t.Fatal("997^2")
	}
	if trialDivideSmall(1009) != verdictUndecided {
		t.Fatal("1009")
	}

	// table must be the full ascending run of primes below 1000
	if len(smallPrimes) != 168 {
		t.Fatalf("table holds %d primes, want 168", len(smallPrimes))
	}
	for i, p := range smallPrimes {
		if !mathutil.IsPrime(uint32(p)) {
			t.Fatalf("table entry %d is composite", p)
		}
		if i > 0 && p <= smallPrimes[i-1] {
			t.Fatalf("table out of order at %d", p)
		}
	}
}
