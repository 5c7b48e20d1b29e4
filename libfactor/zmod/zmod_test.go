package zmod

import (
	"math"
	"math/big"
	"math/rand"
	"testing"
)

func TestFloorCeilDiv(t *testing.T) {
	cases := []struct {
		a, b, floor, ceil int64
	}{
		{7, 2, 3, 4},
		{-7, 2, -4, -3},
		{7, -2, -4, -3},
		{-7, -2, 3, 4},
		{6, 3, 2, 2},
		{-6, 3, -2, -2},
		{0, 5, 0, 0},
		{1, 100, 0, 1},
		{-1, 100, -1, 0},
	}
	for _, c := range cases {
		if got := FloorDiv(c.a, c.b); got != c.floor {
			t.Fatalf("FloorDiv(%d, %d) = %d, want %d", c.a, c.b, got, c.floor)
		}
		if got := CeilDiv(c.a, c.b); got != c.ceil {
			t.Fatalf("CeilDiv(%d, %d) = %d, want %d", c.a, c.b, got, c.ceil)
		}
	}

	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 10000; i++ {
		a := rng.Int63() - rng.Int63()
		b := rng.Int63n(1000000) + 1
		if rng.Intn(2) == 0 {
			b = -b
		}
		if got := CeilDiv(a, b); got != -FloorDiv(-a, b) {
			t.Fatalf("ceil/floor mismatch at a=%d b=%d", a, b)
		}
	}
}

func TestCanonicalMod(t *testing.T) {
	if Mod(int64(-5), 3) != 1 || Mod(int64(5), 3) != 2 || Mod(int64(-6), 3) != 0 {
		t.Fatal("nope")
	}

	rng := rand.New(rand.NewSource(2))
	for i := 0; i < 10000; i++ {
		a := rng.Int63() - rng.Int63()
		m := rng.Int63n(1 << 40)
		if m == 0 {
			m = 1
		}
		r := Mod(a, m)
		if r < 0 || r >= m {
			t.Fatalf("Mod(%d, %d) = %d out of range", a, m, r)
		}
		if want := ((a % m) + m) % m; r != want {
			t.Fatalf("Mod(%d, %d) = %d, want %d", a, m, r, want)
		}
	}
}

func TestMulMod(t *testing.T) {
	rng := rand.New(rand.NewSource(3))

	var A, B, M, R big.Int
	for i := 0; i < 5000; i++ {
		a := rng.Uint64()
		b := rng.Uint64()
		m := rng.Uint64()
		if m < 2 {
			m = 2
		}
		got := MulMod(a, b, m)

		A.SetUint64(a)
		B.SetUint64(b)
		M.SetUint64(m)
		R.Mul(&A, &B).Mod(&R, &M)
		if got != R.Uint64() {
			t.Fatalf("MulMod(%d, %d, %d) = %d, want %v", a, b, m, got, &R)
		}
	}

	// Largest possible operands
	const top = math.MaxUint64
	if MulMod(top-1, top-1, top) != 1 {
		t.Fatal("nope")
	}
}

func TestPowMod(t *testing.T) {
	rng := rand.New(rand.NewSource(4))

	var A, E, M, R big.Int
	for i := 0; i < 2000; i++ {
		a := rng.Uint64()
		e := rng.Uint64() >> uint(rng.Intn(60))
		m := rng.Uint64()
		if m == 0 {
			m = 1
		}
		got := PowMod(a, e, m)

		A.SetUint64(a)
		E.SetUint64(e)
		M.SetUint64(m)
		R.Exp(&A, &E, &M)
		if got != R.Uint64() {
			t.Fatalf("PowMod(%d, %d, %d) = %d, want %v", a, e, m, got, &R)
		}
	}

	if PowMod(0, 0, 7) != 1 {
		t.Fatal("0^0 convention")
	}
	if PowMod(3, 100, 1) != 0 {
		t.Fatal("mod 1")
	}
}

// mat2 exercises the strategy-parameterized exponentiation on a non-scalar
// carrier: powers of [[1,1],[1,0]] walk the Fibonacci sequence.
type mat2 struct {
	a, b, c, d uint64
}

func TestPowStrategy(t *testing.T) {
	const m = 1000000007
	mul := func(x, y mat2) mat2 {
		return mat2{
			a: AddMod(MulMod(x.a, y.a, m), MulMod(x.b, y.c, m), m),
			b: AddMod(MulMod(x.a, y.b, m), MulMod(x.b, y.d, m), m),
			c: AddMod(MulMod(x.c, y.a, m), MulMod(x.d, y.c, m), m),
			d: AddMod(MulMod(x.c, y.b, m), MulMod(x.d, y.d, m), m),
		}
	}
	one := mat2{1, 0, 0, 1}
	fib := mat2{1, 1, 1, 0}

	p := Pow(fib, 10, one, mul)
	if p.b != 55 || p.a != 89 {
		t.Fatalf("fib matrix power wrong: %+v", p)
	}

	p = Pow(fib, 0, one, mul)
	if p != one {
		t.Fatal("zeroth power should be identity")
	}
}

func TestModMultInv(t *testing.T) {
	rng := rand.New(rand.NewSource(5))

	for i := 0; i < 5000; i++ {
		m := rng.Int63n(1<<31) + 2
		a := rng.Int63n(1 << 40)
		if GCD(uint64(Mod(a, m)), uint64(m)) != 1 {
			continue
		}
		v := ModMultInv(a, m)
		if v < 0 || v >= m {
			t.Fatalf("inverse out of range: %d mod %d", v, m)
		}
		if MulMod(uint64(Mod(a, m)), uint64(v), uint64(m)) != 1 {
			t.Fatalf("a*inv != 1 for a=%d m=%d", a, m)
		}
	}

	func() {
		defer func() {
			if recover() == nil {
				t.Fatal("expected panic for non-coprime inverse")
			}
		}()
		ModMultInv(6, 9)
	}()
}

func TestJacobi(t *testing.T) {
	// (a/1) = 1 for all a, (0/b) = 0 for b > 1
	if Jacobi(0, 1) != 1 || Jacobi(5, 1) != 1 || Jacobi(-3, 1) != 1 {
		t.Fatal("nope")
	}
	if Jacobi(0, 3) != 0 || Jacobi(12, 9) != 0 {
		t.Fatal("nope")
	}

	rng := rand.New(rand.NewSource(6))
	var A, B big.Int
	for i := 0; i < 20000; i++ {
		a := rng.Int63() - rng.Int63()
		b := rng.Int63n(1<<48) | 1
		got := Jacobi(a, b)
		want := big.Jacobi(A.SetInt64(a), B.SetInt64(b))
		if got != want {
			t.Fatalf("Jacobi(%d, %d) = %d, want %d", a, b, got, want)
		}
	}

	func() {
		defer func() {
			if recover() == nil {
				t.Fatal("expected panic for even b")
			}
		}()
		Jacobi(3, 10)
	}()
}

func TestIsqrt(t *testing.T) {
	cases := []struct {
		n, root uint64
	}{
		{0, 0}, {1, 1}, {2, 1}, {3, 1}, {4, 2},
		{24, 4}, {25, 5}, {26, 5},
		{1<<52 - 1, 67108863},
		{math.MaxUint64, math.MaxUint32},
		{math.MaxUint32 * uint64(math.MaxUint32), math.MaxUint32},
		{math.MaxUint32*uint64(math.MaxUint32) - 1, math.MaxUint32 - 1},
	}
	for _, c := range cases {
		if got := Isqrt(c.n); got != c.root {
			t.Fatalf("Isqrt(%d) = %d, want %d", c.n, got, c.root)
		}
	}

	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 20000; i++ {
		n := rng.Uint64() >> uint(rng.Intn(60))
		s := Isqrt(n)
		if s*s > n {
			t.Fatalf("Isqrt(%d) = %d too big", n, s)
		}
		if s < math.MaxUint32 && (s+1)*(s+1) <= n {
			t.Fatalf("Isqrt(%d) = %d too small", n, s)
		}
	}
}
