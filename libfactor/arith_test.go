package libfactor

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/fine-structures/gofactor/gofactor"
)

func TestTotient(t *testing.T) {
	cases := []struct{ n, want uint64 }{
		{1, 1},
		{2, 1},
		{9, 6},
		{97, 96},
		{360, 96},
		{1000000, 400000},
	}
	for _, tc := range cases {
		if got := Totient(tc.n); got != tc.want {
			t.Fatalf("Totient(%d) = %d, want %d", tc.n, got, tc.want)
		}
	}

	// Gauss: the totients of the divisors of n sum to n
	for n := uint64(1); n <= 200; n++ {
		sum := uint64(0)
		for _, d := range Divisors(n) {
			sum += Totient(d)
		}
		if sum != n {
			t.Fatalf("totients of divisors of %d sum to %d", n, sum)
		}
	}
}

func TestDivisors(t *testing.T) {
	if got := DivisorCount(360); got != 24 {
		t.Fatalf("DivisorCount(360) = %d, want 24", got)
	}
	if got := DivisorCount(1); got != 1 {
		t.Fatalf("DivisorCount(1) = %d, want 1", got)
	}

	want := []uint64{1, 2, 3, 4, 6, 12}
	got := Divisors(12)
	if len(got) != len(want) {
		t.Fatalf("Divisors(12) = %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Divisors(12) = %v", got)
		}
	}

	for n := uint64(1); n <= 500; n++ {
		divs := Divisors(n)
		if uint64(len(divs)) != DivisorCount(n) {
			t.Fatalf("Divisors and DivisorCount disagree on %d", n)
		}
		for i, d := range divs {
			if n%d != 0 {
				t.Fatalf("%d is not a divisor of %d", d, n)
			}
			if i > 0 && d <= divs[i-1] {
				t.Fatalf("divisors of %d out of order", n)
			}
		}
	}
}

func TestCRT(t *testing.T) {
	x, m, err := CRT([]int64{2, 3}, []int64{3, 5})
	if err != nil || x != 8 || m != 15 {
		t.Fatalf("CRT = (%d, %d, %v), want (8, 15, nil)", x, m, err)
	}

	// Moduli sharing a factor but in agreement
	x, m, err = CRT([]int64{2, 0}, []int64{4, 6})
	if err != nil || x != 6 || m != 12 {
		t.Fatalf("CRT = (%d, %d, %v), want (6, 12, nil)", x, m, err)
	}

	// ... and in conflict
	_, _, err = CRT([]int64{1, 0}, []int64{2, 4})
	if !errors.Is(err, gofactor.ErrNoSolution) {
		t.Fatalf("conflicting system: got %v, want ErrNoSolution", err)
	}

	// Negative residues canonicalize
	x, m, err = CRT([]int64{-1}, []int64{5})
	if err != nil || x != 4 || m != 5 {
		t.Fatalf("CRT = (%d, %d, %v), want (4, 5, nil)", x, m, err)
	}
}

func TestCRTAgainstBruteForce(t *testing.T) {
	rng := rand.New(rand.NewSource(9))
	for round := 0; round < 2000; round++ {
		k := 2 + rng.Intn(2)
		residues := make([]int64, k)
		moduli := make([]int64, k)
		span := int64(1)
		for i := range moduli {
			moduli[i] = 1 + rng.Int63n(24)
			residues[i] = rng.Int63n(moduli[i])
			span *= moduli[i]
		}

		want := int64(-1)
		for x := int64(0); x < span; x++ {
			ok := true
			for i := range moduli {
				if x%moduli[i] != residues[i] {
					ok = false
					break
				}
			}
			if ok {
				want = x
				break
			}
		}

		x, m, err := CRT(residues, moduli)
		if want < 0 {
			if !errors.Is(err, gofactor.ErrNoSolution) {
				t.Fatalf("system %v %v: got (%d, %d, %v), want no solution",
					residues, moduli, x, m, err)
			}
			continue
		}
		if err != nil || x != want {
			t.Fatalf("system %v %v: got (%d, %v), want %d", residues, moduli, x, err, want)
		}
		if span%m != 0 || m <= 0 {
			t.Fatalf("system %v %v: combined modulus %d", residues, moduli, m)
		}
	}
}

func TestCRTPanics(t *testing.T) {
	for _, tc := range []struct {
		residues, moduli []int64
	}{
		{nil, nil},
		{[]int64{1}, []int64{2, 3}},
		{[]int64{1}, []int64{0}},
		{[]int64{1, 2}, []int64{3, -7}},
	} {
		func() {
			defer func() {
				if recover() == nil {
					t.Fatalf("CRT(%v, %v): want panic", tc.residues, tc.moduli)
				}
			}()
			CRT(tc.residues, tc.moduli)
		}()
	}
}
