package libfactor

import (
	"errors"
	"testing"

	"github.com/fine-structures/gofactor/gofactor"
)

func TestParseBig(t *testing.T) {
	cases := []struct {
		src  string
		want string
	}{
		{"360", "360"},
		{"0x10", "16"},
		{"-5", "-5"},
		{"-2+3", "1"},
		{"2+3*4", "14"},
		{"(2+3)*4", "20"},
		{"10%7", "3"},
		{"2^10", "1024"},
		{"2^3^2", "512"},
		{"2^61-1", "2305843009213693951"},
		{"2^127-1", "170141183460469231731687303715884105727"},
		{"5!", "120"},
		{"3!!", "720"},
		{"10!", "3628800"},
		{"(10!+1)/11", "329891"},
		{"0!", "1"},
		{"100/4/5", "5"},
	}
	for _, tc := range cases {
		got, err := ParseBig(tc.src)
		if err != nil {
			t.Fatalf("ParseBig(%q): %v", tc.src, err)
		}
		if got.String() != tc.want {
			t.Fatalf("ParseBig(%q) = %v, want %s", tc.src, got, tc.want)
		}
	}
}

func TestParseBigErrors(t *testing.T) {
	badExpr := []string{
		"",
		"(((",
		"2 2",
		"* 4",
		"7/2",
		"5/0",
		"5%0",
		"2^(0-1)",
	}
	for _, src := range badExpr {
		if _, err := ParseBig(src); !errors.Is(err, gofactor.ErrBadExpr) {
			t.Fatalf("ParseBig(%q): got %v, want ErrBadExpr", src, err)
		}
	}

	outOfRange := []string{
		"2^2000000",
		"10001!",
		"2^(10!)",
	}
	for _, src := range outOfRange {
		if _, err := ParseBig(src); !errors.Is(err, gofactor.ErrExprRange) {
			t.Fatalf("ParseBig(%q): got %v, want ErrExprRange", src, err)
		}
	}
}

func TestParseUint64(t *testing.T) {
	v, err := ParseUint64("2^63")
	if err != nil || v != 1<<63 {
		t.Fatalf("ParseUint64(2^63) = (%d, %v)", v, err)
	}
	if _, err = ParseUint64("2^64"); !errors.Is(err, gofactor.ErrExprRange) {
		t.Fatalf("ParseUint64(2^64): got %v, want ErrExprRange", err)
	}
	if _, err = ParseUint64("0-1"); !errors.Is(err, gofactor.ErrExprRange) {
		t.Fatalf("ParseUint64(0-1): got %v, want ErrExprRange", err)
	}
}
