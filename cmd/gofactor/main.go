package main

import (
	"flag"
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/plan-systems/klog"

	"github.com/fine-structures/gofactor/gofactor"
	"github.com/fine-structures/gofactor/libfactor"
)

func main() {

	flag.Set("logtostderr", "true")
	flag.Set("v", "2")

	fset := flag.NewFlagSet("", flag.ContinueOnError)
	klog.InitFlags(fset)
	fset.Set("logtostderr", "true")
	fset.Set("v", "2")
	klog.SetFormatter(&klog.FmtConstWidth{
		FileNameCharWidth: 16,
		UseColor:          true,
	})

	factorExpr := flag.String("n", "", "factor the given number expression and exit, e.g. -n \"2^61 - 1\"")

	flag.Parse()

	if len(*factorExpr) > 0 {
		factorAndPrint(*factorExpr)
	} else {
		pathname := flag.Arg(0)
		go_gpython(pathname)
	}

	klog.Flush()
}

func factorAndPrint(expr string) {
	n, err := libfactor.ParseBig(expr)
	if err != nil {
		klog.Fatalf("%v", err)
	}
	if n.Sign() <= 0 {
		klog.Fatalf("cannot factor non-positive value %v", n)
	}

	fmt.Printf("n = %s\n", humanize.BigComma(n))

	if n.IsUint64() {
		ent := gofactor.NewEntry()
		ent.N = n.Uint64()
		ent.Factors = append(ent.Factors[:0], libfactor.Decompose(ent.N)...)

		out := strings.Builder{}
		ent.WriteAsString(&out, gofactor.PrintOpts{
			Factors:  true,
			Phi:      true,
			Divisors: ent.Factors.DivisorCount() <= 64,
		})
		fmt.Println(out.String())
		ent.Reclaim()
		return
	}

	for _, pp := range libfactor.DecomposeBig(n) {
		if pp.Power == 1 {
			fmt.Printf("  %s\n", humanize.BigComma(pp.Prime))
		} else {
			fmt.Printf("  %s ^ %d\n", humanize.BigComma(pp.Prime), pp.Power)
		}
	}
}
