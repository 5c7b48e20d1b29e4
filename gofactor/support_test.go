package gofactor

import (
	"testing"
)

func TestFactorizationInsert(t *testing.T) {
	var fz Factorization
	fz.Insert(5)
	fz.InsertPow(2, 2)
	fz.InsertPow(3, 2)
	fz.Insert(2)

	want := Factorization{{2, 3}, {3, 2}, {5, 1}}
	if FactorizationComparator(fz, want) != 0 {
		t.Fatalf("insert order wrong: %v", fz)
	}
	if fz.Product() != 360 {
		t.Fatalf("product = %d, want 360", fz.Product())
	}
	if fz.MaxPrime() != 5 || fz.TotalPowers() != 6 {
		t.Fatal("nope")
	}

	fz.Clear()
	if len(fz) != 0 || fz.Product() != 1 {
		t.Fatal("clear failed")
	}
}

func TestFactorizationComparator(t *testing.T) {
	A := Factorization{{2, 1}, {5, 2}}
	B := Factorization{{2, 1}, {5, 2}}
	if FactorizationComparator(A, B) != 0 {
		t.Fatal("equal sets should compare 0")
	}

	// A strict prefix orders before its extension
	P := Factorization{{2, 1}}
	if FactorizationComparator(P, A) >= 0 || FactorizationComparator(A, P) <= 0 {
		t.Fatal("prefix ordering")
	}

	lo := Factorization{{2, 1}, {3, 1}}
	hi := Factorization{{2, 1}, {5, 1}}
	if FactorizationComparator(lo, hi) >= 0 {
		t.Fatal("prime ordering")
	}

	lo = Factorization{{2, 1}}
	hi = Factorization{{2, 2}}
	if FactorizationComparator(lo, hi) >= 0 {
		t.Fatal("power ordering")
	}
}

func TestTotientAndDivisors(t *testing.T) {
	fz360 := Factorization{{2, 3}, {3, 2}, {5, 1}}
	if phi := fz360.Totient(); phi != 96 {
		t.Fatalf("phi(360) = %d, want 96", phi)
	}
	if dc := fz360.DivisorCount(); dc != 24 {
		t.Fatalf("d(360) = %d, want 24", dc)
	}

	divs := Factorization{{2, 2}, {3, 1}}.AppendDivisors(nil)
	want := []uint64{1, 2, 3, 4, 6, 12}
	if len(divs) != len(want) {
		t.Fatalf("divisors of 12: %v", divs)
	}
	for i, d := range divs {
		if d != want[i] {
			t.Fatalf("divisors of 12: %v", divs)
		}
	}

	var one Factorization
	if divs := one.AppendDivisors(nil); len(divs) != 1 || divs[0] != 1 {
		t.Fatalf("divisors of 1: %v", divs)
	}
	if one.Totient() != 1 || one.DivisorCount() != 1 {
		t.Fatal("nope")
	}

	divs360 := fz360.AppendDivisors(nil)
	if uint64(len(divs360)) != fz360.DivisorCount() {
		t.Fatalf("divisor count mismatch: %d", len(divs360))
	}
	for i := 1; i < len(divs360); i++ {
		if divs360[i-1] >= divs360[i] {
			t.Fatal("divisors not ascending")
		}
		if 360%divs360[i] != 0 {
			t.Fatalf("%d does not divide 360", divs360[i])
		}
	}
}

func TestEntryInfo(t *testing.T) {
	ent := NewEntry()
	ent.N = 7
	ent.Factors.Insert(7)

	if !ent.IsPrime() {
		t.Fatal("7 is prime")
	}
	info := ent.GetInfo()
	if info.BitLen != 3 || info.Distinct != 1 || info.TotalPows != 1 {
		t.Fatalf("info: %+v", info)
	}

	cpy := ent.MakeCopy()
	if cpy.N != ent.N || FactorizationComparator(cpy.Factors, ent.Factors) != 0 {
		t.Fatal("copy mismatch")
	}
	cpy.Reclaim()
	ent.Reclaim()
}

func TestSelector(t *testing.T) {
	prime := NewEntry()
	prime.N = 97
	prime.Factors.Insert(97)

	composite := NewEntry()
	composite.N = 96
	composite.Factors.InsertPow(2, 5)
	composite.Factors.Insert(3)

	sel := DefaultSelector
	if !sel.SelectsEntry(prime) || !sel.SelectsEntry(composite) {
		t.Fatal("default selector should select all")
	}

	sel.PrimesOnly = true
	if !sel.SelectsEntry(prime) || sel.SelectsEntry(composite) {
		t.Fatal("primes-only select")
	}

	sel = DefaultSelector
	sel.MinValue = 97
	if sel.SelectsEntry(composite) {
		t.Fatal("min value bound")
	}

	sel = DefaultSelector
	sel.Max.Distinct = 1
	if sel.SelectsEntry(composite) || !sel.SelectsEntry(prime) {
		t.Fatal("distinct bound")
	}

	prime.Reclaim()
	composite.Reclaim()
}
