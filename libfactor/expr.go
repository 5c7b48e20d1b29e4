package libfactor

import (
	"math/big"

	"github.com/alecthomas/participle/v2"
	"github.com/pkg/errors"

	"github.com/fine-structures/gofactor/gofactor"
)

// Expression grammar for numeric entry points such as "2^61-1", "(10!+1)/11",
// or "0xffff % 641". Operators: + - * / % ^ and postfix !, with ^ binding
// tightest and right-associative. Division must be exact and % is Euclidean.

type numExpr struct {
	Sign  string    `parser:"@(\"-\" | \"+\")?"`
	First *numTerm  `parser:"@@"`
	Rest  []*exprOp `parser:"@@*"`
}

type exprOp struct {
	Op   string   `parser:"@(\"+\" | \"-\")"`
	Term *numTerm `parser:"@@"`
}

type numTerm struct {
	First *numPow   `parser:"@@"`
	Rest  []*termOp `parser:"@@*"`
}

type termOp struct {
	Op  string  `parser:"@(\"*\" | \"/\" | \"%\")"`
	Pow *numPow `parser:"@@"`
}

type numPow struct {
	Base *numAtom `parser:"@@"`
	Exp  *numPow  `parser:"(\"^\" @@)?"`
}

type numAtom struct {
	Value *string  `parser:"( @Int"`
	Sub   *numExpr `parser:"| \"(\" @@ \")\" )"`
	Bangs []string `parser:"@\"!\"*"`
}

var gExprParser = participle.MustBuild[numExpr]()

// Guard rails that keep a stray keystroke from allocating the universe.
const (
	maxExprExponent  = 1 << 20
	maxExprFactorial = 10000
)

// ParseBig parses and evaluates an integer expression.
// Malformed input returns gofactor.ErrBadExpr; results or intermediates too
// large to be reasonable return gofactor.ErrExprRange.
func ParseBig(src string) (*big.Int, error) {
	ast, err := gExprParser.ParseString("", src)
	if err != nil {
		return nil, errors.Wrapf(gofactor.ErrBadExpr, "%v", err)
	}
	return ast.eval()
}

// ParseUint64 parses and evaluates an integer expression whose value must
// land in [0, 2^64).
func ParseUint64(src string) (uint64, error) {
	v, err := ParseBig(src)
	if err != nil {
		return 0, err
	}
	if !v.IsUint64() {
		return 0, errors.Wrapf(gofactor.ErrExprRange, "%v does not fit in 64 bits", v)
	}
	return v.Uint64(), nil
}

func (e *numExpr) eval() (*big.Int, error) {
	v, err := e.First.eval()
	if err != nil {
		return nil, err
	}
	// A leading sign binds to the first term only, as in "-2 + 3"
	if e.Sign == "-" {
		v.Neg(v)
	}
	for _, op := range e.Rest {
		rhs, err := op.Term.eval()
		if err != nil {
			return nil, err
		}
		switch op.Op {
		case "+":
			v.Add(v, rhs)
		case "-":
			v.Sub(v, rhs)
		}
	}
	return v, nil
}

func (t *numTerm) eval() (*big.Int, error) {
	v, err := t.First.eval()
	if err != nil {
		return nil, err
	}
	for _, op := range t.Rest {
		rhs, err := op.Pow.eval()
		if err != nil {
			return nil, err
		}
		switch op.Op {
		case "*":
			v.Mul(v, rhs)
		case "/":
			if rhs.Sign() == 0 {
				return nil, errors.Wrap(gofactor.ErrBadExpr, "division by zero")
			}
			var r big.Int
			v.QuoRem(v, rhs, &r)
			if r.Sign() != 0 {
				return nil, errors.Wrap(gofactor.ErrBadExpr, "inexact division")
			}
		case "%":
			if rhs.Sign() == 0 {
				return nil, errors.Wrap(gofactor.ErrBadExpr, "modulo by zero")
			}
			v.Mod(v, rhs)
		}
	}
	return v, nil
}

func (p *numPow) eval() (*big.Int, error) {
	base, err := p.Base.eval()
	if err != nil {
		return nil, err
	}
	if p.Exp == nil {
		return base, nil
	}
	exp, err := p.Exp.eval()
	if err != nil {
		return nil, err
	}
	if exp.Sign() < 0 {
		return nil, errors.Wrap(gofactor.ErrBadExpr, "negative exponent")
	}
	if !exp.IsUint64() || exp.Uint64() > maxExprExponent {
		return nil, errors.Wrapf(gofactor.ErrExprRange, "exponent %v", exp)
	}
	return base.Exp(base, exp, nil), nil
}

func (a *numAtom) eval() (*big.Int, error) {
	var v *big.Int
	switch {
	case a.Value != nil:
		v = new(big.Int)
		if _, ok := v.SetString(*a.Value, 0); !ok {
			return nil, errors.Wrapf(gofactor.ErrBadExpr, "bad numeric literal %q", *a.Value)
		}
	default:
		var err error
		if v, err = a.Sub.eval(); err != nil {
			return nil, err
		}
	}

	for range a.Bangs {
		if v.Sign() < 0 {
			return nil, errors.Wrap(gofactor.ErrBadExpr, "factorial of negative value")
		}
		if !v.IsUint64() || v.Uint64() > maxExprFactorial {
			return nil, errors.Wrapf(gofactor.ErrExprRange, "factorial of %v", v)
		}
		v.MulRange(1, int64(v.Uint64()))
	}
	return v, nil
}
