package pyfactor

// Copyright 2018 The go-python Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

import (
	"errors"
	"fmt"
	"io"
	"math"
	"math/big"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/fine-structures/gofactor/gofactor"
	"github.com/fine-structures/gofactor/libfactor"
	"github.com/fine-structures/gofactor/libfactor/catalog"
	"github.com/go-python/gpython/py"
)

var (
	LIB_VERSION = "v1.2025.1"
)

var (
	pyNumType          = py.NewType("Num", "a factored number")
	pyFactorStreamType = py.NewType("FactorStream", "gofactor.FactorStream")
	pyCatalogType      = py.NewType("Catalog", "gofactor.Catalog")
	pyWorkspaceType    = py.NewType("Workspace", "collects active session resources and catalogs")
)

// PrimesUpTo returns a tuple, so the sieve ceiling is capped to keep the
// result object practical to hold in an interpreter session.
const maxSieveLimit = 100_000_000

// getBig reads an int, big int, or expression string as a big.Int.
func getBig(obj py.Object) (*big.Int, error) {
	switch v := obj.(type) {
	case py.Int:
		return big.NewInt(int64(v)), nil
	case *py.BigInt:
		return new(big.Int).Set((*big.Int)(v)), nil
	case py.String:
		n, err := libfactor.ParseBig(string(v))
		if err != nil {
			return nil, py.ExceptionNewf(py.ValueError, "%v", err)
		}
		return n, nil
	}
	return nil, py.ExceptionNewf(py.TypeError, "expected int or expression string (got %v)", obj.Type().Name)
}

// getUint64 is getBig for call sites limited to 64-bit values.
func getUint64(obj py.Object) (uint64, error) {
	n, err := getBig(obj)
	if err != nil {
		return 0, err
	}
	if !n.IsUint64() {
		return 0, py.ExceptionNewf(py.OverflowError, "%v does not fit in 64 bits", n)
	}
	return n.Uint64(), nil
}

func makeInt(n *big.Int) py.Object {
	if n.IsInt64() {
		return py.Int(n.Int64())
	}
	return (*py.BigInt)(n)
}

func makeUint(v uint64) py.Object {
	if v <= math.MaxInt64 {
		return py.Int(v)
	}
	return (*py.BigInt)(new(big.Int).SetUint64(v))
}

func makeFactorTuple(fz gofactor.Factorization) py.Tuple {
	factors := make(py.Tuple, len(fz))
	for i, pp := range fz {
		factors[i] = py.Tuple{makeUint(pp.Prime), py.Int(pp.Power)}
	}
	return factors
}

// Arg 1: value (int or expression string)
func py_IsPrime(module py.Object, args py.Tuple) (py.Object, error) {
	n, err := getBig(args[0])
	if err != nil {
		return nil, err
	}
	var isPrime bool
	if n.IsUint64() {
		isPrime = libfactor.IsPrime(n.Uint64())
	} else {
		isPrime = libfactor.IsPrimeBig(n)
	}
	if isPrime {
		return py.True, nil
	}
	return py.False, nil
}

// Arg 1: value (int or expression string), must be positive
func py_Factor(module py.Object, args py.Tuple) (py.Object, error) {
	n, err := getBig(args[0])
	if err != nil {
		return nil, err
	}
	if n.Sign() <= 0 {
		return nil, py.ExceptionNewf(py.ValueError, "Factor requires a positive value (got %v)", n)
	}

	if n.IsUint64() {
		return makeFactorTuple(libfactor.Decompose(n.Uint64())), nil
	}

	fz := libfactor.DecomposeBig(n)
	factors := make(py.Tuple, len(fz))
	for i, pp := range fz {
		factors[i] = py.Tuple{makeInt(pp.Prime), py.Int(pp.Power)}
	}
	return factors, nil
}

// Arg 1: value (int or expression string)
func py_NextPrime(module py.Object, args py.Tuple) (py.Object, error) {
	n, err := getBig(args[0])
	if err != nil {
		return nil, err
	}
	if n.IsUint64() && n.Uint64() < libfactor.MaxPrime64 {
		return makeUint(libfactor.NextPrime(n.Uint64())), nil
	}
	return makeInt(libfactor.NextPrimeBig(n)), nil
}

// Arg 1 (int): inclusive sieve ceiling
func py_PrimesUpTo(module py.Object, args py.Tuple) (py.Object, error) {
	limit, err := getUint64(args[0])
	if err != nil {
		return nil, err
	}
	if limit > maxSieveLimit {
		return nil, py.ExceptionNewf(py.ValueError, "PrimesUpTo ceiling is capped at %d", maxSieveLimit)
	}

	_, primes := libfactor.NewSieveAndPrimes(limit)
	out := make(py.Tuple, len(primes))
	for i, p := range primes {
		out[i] = py.Int(p)
	}
	return out, nil
}

// Arg 1 (int): value, must be positive
func py_Totient(module py.Object, args py.Tuple) (py.Object, error) {
	n, err := getUint64(args[0])
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, py.ExceptionNewf(py.ValueError, "Totient requires a positive value")
	}
	return makeUint(libfactor.Totient(n)), nil
}

// Arg 1 (int): value, must be positive
func py_Divisors(module py.Object, args py.Tuple) (py.Object, error) {
	n, err := getUint64(args[0])
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, py.ExceptionNewf(py.ValueError, "Divisors requires a positive value")
	}

	divs := libfactor.Divisors(n)
	out := make(py.Tuple, len(divs))
	for i, d := range divs {
		out[i] = makeUint(d)
	}
	return out, nil
}

// Arg 1 (str): number expression, e.g. "2^89 - 1" or "10! + 1"
func py_ParseNum(module py.Object, args py.Tuple) (py.Object, error) {
	expr, ok := args[0].(py.String)
	if !ok {
		return nil, py.ExceptionNewf(py.TypeError, "expected expression string (got %v)", args[0].Type().Name)
	}
	n, err := libfactor.ParseBig(string(expr))
	if err != nil {
		return nil, py.ExceptionNewf(py.ValueError, "%v", err)
	}
	return makeInt(n), nil
}

// Arg 1 (int): first value
// Arg 2 (int): last value (inclusive)
func py_FactorRange(module py.Object, args py.Tuple) (py.Object, error) {
	from, err := getUint64(args[0])
	if err != nil {
		return nil, err
	}
	to, err := getUint64(args[1])
	if err != nil {
		return nil, err
	}
	if to < from {
		return nil, py.ExceptionNewf(py.ValueError, "range end %d precedes start %d", to, from)
	}

	stream := libfactor.FactorRange(from, to)
	return wrapFactorStream(stream), nil
}

type pyNum struct {
	*gofactor.Entry
}

func (X pyNum) Type() *py.Type {
	return pyNumType
}

func (X pyNum) M__str__() (py.Object, error) {
	writer := strings.Builder{}
	X.WriteAsString(&writer, gofactor.DefaultPrintOpts)
	return py.String(writer.String()), nil
}

func (X pyNum) M__repr__() (py.Object, error) {
	return X.M__str__()
}

// Arg 1 (int): value, must be positive
func py_NewNum(module py.Object, args py.Tuple) (py.Object, error) {
	n, err := getUint64(args[0])
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, py.ExceptionNewf(py.ValueError, "Num requires a positive value")
	}

	ent := gofactor.NewEntry()
	ent.N = n
	ent.Factors = append(ent.Factors[:0], libfactor.Decompose(n)...)
	return py.Object(pyNum{ent}), nil
}

func py_Num_Value(self py.Object, args py.Tuple) (py.Object, error) {
	X := self.(pyNum)
	return makeUint(X.N), nil
}

func py_Num_Factors(self py.Object, args py.Tuple) (py.Object, error) {
	X := self.(pyNum)
	return makeFactorTuple(X.Factors), nil
}

func py_Num_IsPrime(self py.Object, args py.Tuple) (py.Object, error) {
	X := self.(pyNum)
	if X.IsPrime() {
		return py.True, nil
	}
	return py.False, nil
}

func py_Num_Phi(self py.Object, args py.Tuple) (py.Object, error) {
	X := self.(pyNum)
	return makeUint(X.Factors.Totient()), nil
}

func py_Num_Divisors(self py.Object, args py.Tuple) (py.Object, error) {
	X := self.(pyNum)
	divs := X.Factors.AppendDivisors(nil)
	out := make(py.Tuple, len(divs))
	for i, d := range divs {
		out[i] = makeUint(d)
	}
	return out, nil
}

func py_Num_Stream(self py.Object, args py.Tuple) (py.Object, error) {
	X := self.(pyNum)
	next := gofactor.StreamEntry(X.Entry)
	return wrapFactorStream(next), nil
}

const (
	READ_ONLY     = 0x01
	PRIME_CATALOG = 0x04

	kWorkspaceAttr = "_Workspace"
)

type Workspace struct {
	CatalogCtx gofactor.CatalogContext
}

func (ws *Workspace) Close() {
	ws.CatalogCtx.Close()
	<-ws.CatalogCtx.Done()
}

func (ws *Workspace) Type() *py.Type {
	return pyWorkspaceType
}

func py_GetWorkspace(module py.Object, args py.Tuple) (py.Object, error) {
	wsObj, _ := py.GetAttrString(module, kWorkspaceAttr)
	if wsObj == nil {
		ws := &Workspace{
			CatalogCtx: gofactor.NewCatalogContext(),
		}
		wsObj = ws
		py.SetAttrString(module, kWorkspaceAttr, wsObj)
	}
	return wsObj, nil
}

func py_Workspace_CatalogExists(self py.Object, args py.Tuple) (py.Object, error) {
	_ = self.(*Workspace)

	var pathname string
	err := py.LoadTuple(args, []interface{}{&pathname})
	if err != nil {
		return nil, err
	}
	_, err = os.Stat(pathname)
	if os.IsNotExist(err) {
		return py.False, nil
	}
	return py.True, nil
}

func py_Workspace_OpenCatalog(self py.Object, args py.Tuple) (py.Object, error) {
	ws := self.(*Workspace)

	var pathname string
	var flags int32
	err := py.LoadTuple(args, []interface{}{&pathname, &flags})
	if err != nil {
		return nil, err
	}

	opts := gofactor.CatalogOpts{
		ReadOnly:   (flags & READ_ONLY) != 0,
		DbPathName: pathname,
	}
	if (flags & PRIME_CATALOG) != 0 {
		opts.NeedPrimes = true
	}

	cat, err := catalog.OpenCatalog(ws.CatalogCtx, opts)
	if err != nil {
		return nil, py.ExceptionNewf(py.RuntimeError, "%v", err)
	}

	pyCat := pyCatalog{cat}
	return py.Object(pyCat), nil
}

type pyCatalog struct {
	gofactor.Catalog
}

func (cat pyCatalog) Type() *py.Type {
	return pyCatalogType
}

func py_Catalog_Close(self py.Object, args py.Tuple) (py.Object, error) {
	cat := self.(pyCatalog)
	if cat.Catalog != nil {
		cat.Close()
	}
	return py.None, nil
}

func py_Catalog_Select(self py.Object, args py.Tuple, kwargs py.StringDict) (py.Object, error) {
	cat := self.(pyCatalog)
	sel, err := getSelector(kwargs)
	if err != nil {
		return nil, err
	}

	next := gofactor.SelectFromCatalog(cat, sel)
	return wrapFactorStream(next), nil
}

func py_Catalog_NumEntries(self py.Object, args py.Tuple) (py.Object, error) {
	cat := self.(pyCatalog)

	bitLen := py.Int(0)
	if len(args) > 0 {
		var err error
		bitLen, err = py.GetInt(args[0])
		if err != nil {
			return nil, err
		}
	}

	numEntries := cat.NumEntries(byte(bitLen))
	return py.Int(numEntries), nil
}

func py_Catalog_NumPrimes(self py.Object, args py.Tuple) (py.Object, error) {
	cat := self.(pyCatalog)

	bitLen := py.Int(0)
	if len(args) > 0 {
		var err error
		bitLen, err = py.GetInt(args[0])
		if err != nil {
			return nil, err
		}
	}

	numPrimes := cat.NumPrimes(byte(bitLen))
	return py.Int(numPrimes), nil
}

func py_Catalog_Lookup(self py.Object, args py.Tuple) (py.Object, error) {
	cat := self.(pyCatalog)

	n, err := getUint64(args[0])
	if err != nil {
		return nil, err
	}

	fz, found := cat.Lookup(n)
	if !found {
		return py.None, nil
	}
	return makeFactorTuple(fz), nil
}

func py_FactorStream_Go(self py.Object, args py.Tuple) (py.Object, error) {
	stream := self.(factorStream)
	count := stream.PullAll()
	return py.Int(count), nil
}

type echoToWriter struct {
	stdout *os.File
	to     io.WriteCloser
}

func (echo *echoToWriter) Write(buf []byte) (int, error) {
	var (
		n   int
		err error
	)
	if echo.to == nil {
		n, err = echo.stdout.Write(buf)
	} else {
		n, err = echo.to.Write(buf)
	}
	return n, err
}

func (echo *echoToWriter) Close() error {
	if echo.to != nil {
		return echo.to.Close()
	}
	return nil
}

var gOutCount = int32(0)

// Kwargs: label (str), factors (bool), phi (bool), divisors (bool), file (str)
func py_FactorStream_Print(self py.Object, args py.Tuple, kwargs py.StringDict) (py.Object, error) {
	stream := self.(factorStream)
	var pathname string

	opts := gofactor.DefaultPrintOpts

	py.LoadTuple(args, []interface{}{&opts.Label})
	if opts.Label == "" {
		py.LoadAttr(kwargs, "label", &opts.Label)
	}

	atomic.AddInt32(&gOutCount, 1)
	if opts.Label == "" {
		opts.Label = fmt.Sprintf("out[%d]", gOutCount)
	}

	py.LoadAttr(kwargs, "factors", &opts.Factors)
	py.LoadAttr(kwargs, "phi", &opts.Phi)
	py.LoadAttr(kwargs, "divisors", &opts.Divisors)
	py.LoadAttr(kwargs, "file", &pathname)

	writer := &echoToWriter{
		stdout: os.Stdout,
	}
	if len(pathname) > 0 {
		os.MkdirAll(filepath.Dir(pathname), 0700)

		file, err := os.OpenFile(string(pathname), os.O_TRUNC|os.O_WRONLY|os.O_CREATE, 0600)
		if err != nil {
			return nil, py.ExceptionNewf(py.FileNotFoundError, "%v", err)
		}
		writer.to = file
	}

	next := stream.Print(writer, opts)
	return wrapFactorStream(next), nil
}

type factorStream struct {
	*gofactor.FactorStream
}

func (stream factorStream) Type() *py.Type {
	return pyFactorStreamType
}

func wrapFactorStream(stream *gofactor.FactorStream) py.Object {
	return py.Object(factorStream{stream})
}

func py_FactorStream_AddTo(self py.Object, args py.Tuple) (py.Object, error) {
	stream := self.(factorStream)
	cat, ok := args[0].(pyCatalog)
	if !ok {
		return nil, py.ExceptionNewf(py.TypeError, "expected Catalog object (got %v)", args[0].Type().Name)
	}
	if cat.IsReadOnly() {
		return nil, py.ExceptionNewf(py.PermissionError, "%v", errors.New("catalog is in read-only mode"))
	}

	next := stream.AddTo(cat)
	return wrapFactorStream(next), nil
}

func py_FactorStream_DropDupes(self py.Object, args py.Tuple) (py.Object, error) {
	stream := self.(factorStream)

	// A memory resident set that is dropped when the stream closes
	dupes := libfactor.NewDropDupes(nil)
	next := stream.AddTo(dupes)
	return wrapFactorStream(next), nil
}

func py_FactorStream_Select(self py.Object, args py.Tuple, kwargs py.StringDict) (py.Object, error) {
	stream := self.(factorStream)
	sel, err := getSelector(kwargs)
	if err != nil {
		return nil, err
	}
	next := stream.SelectFromStream(sel)
	return wrapFactorStream(next), nil
}

func init() {

	/////////////////////////////////
	// Num
	{
		pyNumType.Dict["Value"] = py.MustNewMethod("Value", py_Num_Value, 0, "")
		pyNumType.Dict["Factors"] = py.MustNewMethod("Factors", py_Num_Factors, 0, "exports this Num's prime decomposition as a tuple of (prime, power) pairs")
		pyNumType.Dict["IsPrime"] = py.MustNewMethod("IsPrime", py_Num_IsPrime, 0, "")
		pyNumType.Dict["Phi"] = py.MustNewMethod("Phi", py_Num_Phi, 0, "")
		pyNumType.Dict["Divisors"] = py.MustNewMethod("Divisors", py_Num_Divisors, 0, "")
		pyNumType.Dict["Stream"] = py.MustNewMethod("Stream", py_Num_Stream, 0, "")
	}

	/////////////////////////////////
	// Catalog
	{
		pyCatalogType.Dict["Select"] = py.MustNewMethod("Select", py_Catalog_Select, 0, "")
		pyCatalogType.Dict["NumEntries"] = py.MustNewMethod("NumEntries", py_Catalog_NumEntries, 0, "")
		pyCatalogType.Dict["NumPrimes"] = py.MustNewMethod("NumPrimes", py_Catalog_NumPrimes, 0, "")
		pyCatalogType.Dict["Lookup"] = py.MustNewMethod("Lookup", py_Catalog_Lookup, 0, "")
		pyCatalogType.Dict["Close"] = py.MustNewMethod("Close", py_Catalog_Close, 0, "")
	}

	/////////////////////////////////
	// Workspace
	{
		pyWorkspaceType.Dict["OpenCatalog"] = py.MustNewMethod("OpenCatalog", py_Workspace_OpenCatalog, 0, "")
		pyWorkspaceType.Dict["CatalogExists"] = py.MustNewMethod("CatalogExists", py_Workspace_CatalogExists, 0, "")
	}

	/////////////////////////////////
	// FactorStream
	{
		pyFactorStreamType.Dict["Go"] = py.MustNewMethod("Go", py_FactorStream_Go, 0, "counts the number of entries output from the FactorStream")
		pyFactorStreamType.Dict["Print"] = py.MustNewMethod("Print", py_FactorStream_Print, 0, "prints each entry from the FactorStream")
		pyFactorStreamType.Dict["AddTo"] = py.MustNewMethod("AddTo", py_FactorStream_AddTo, 0, "")
		pyFactorStreamType.Dict["DropDupes"] = py.MustNewMethod("DropDupes", py_FactorStream_DropDupes, 0, "")
		pyFactorStreamType.Dict["Select"] = py.MustNewMethod("Select", py_FactorStream_Select, 0, "")
	}

	{
		methods := []*py.Method{
			py.MustNewMethod("IsPrime", py_IsPrime, 0, "tests any int or expression string for primality"),
			py.MustNewMethod("Factor", py_Factor, 0, "returns the prime decomposition as a tuple of (prime, power) pairs"),
			py.MustNewMethod("NextPrime", py_NextPrime, 0, "returns the smallest prime greater than the given value"),
			py.MustNewMethod("PrimesUpTo", py_PrimesUpTo, 0, "returns every prime up to and including the given ceiling"),
			py.MustNewMethod("Totient", py_Totient, 0, "returns Euler's totient of the given value"),
			py.MustNewMethod("Divisors", py_Divisors, 0, "returns every divisor of the given value in ascending order"),
			py.MustNewMethod("ParseNum", py_ParseNum, 0, "evaluates a number expression, e.g. '2^89 - 1'"),
			py.MustNewMethod("FactorRange", py_FactorRange, 0, "streams the factorization of every value in [first, last]"),
			py.MustNewMethod("Num", py_NewNum, 0, ""),
			py.MustNewMethod("GetWorkspace", py_GetWorkspace, 0, ""),
		}

		globals := py.StringDict{
			"LIB_VERSION":   py.String(LIB_VERSION),
			"PY_VERSION":    py.String("v3.4.0"),
			"MAX_PRIME64":   makeUint(libfactor.MaxPrime64),
			"READ_ONLY":     py.Int(READ_ONLY),
			"PRIME_CATALOG": py.Int(PRIME_CATALOG),
		}

		py.RegisterModule(&py.ModuleImpl{
			Info: py.ModuleInfo{
				Name: "_pyfactor",
				Doc:  "prime factorization gpython module",
			},
			Methods: methods,
			Globals: globals,
			OnContextClosed: func(m *py.Module) {
				wsObj, _ := py.GetAttrString(m, kWorkspaceAttr)
				if wsObj != nil {
					wsObj.(*Workspace).Close()
				}
			},
		})

	}
}

func intAttr(kwargs py.StringDict, key string, min, max int64) (int64, bool) {
	attr, ok := kwargs[key]
	if !ok {
		return 0, false
	}
	val, _ := py.GetInt(attr)
	intVal := int64(val)
	if intVal < min {
		intVal = min
	}
	if intVal > max {
		intVal = max
	}
	return intVal, true
}

func byteAttr(kwargs py.StringDict, key string) (byte, bool) {
	v, ok := intAttr(kwargs, key, 0, 255)
	return byte(v), ok
}

// getSelector folds flat selection kwargs over the default Selector:
// primes (bool), min_value, max_value, min_bit_len, max_bit_len,
// min_distinct, max_distinct, min_pows, max_pows.
func getSelector(kwargs py.StringDict) (gofactor.Selector, error) {
	sel := gofactor.DefaultSelector

	if err := py.LoadAttr(kwargs, "primes", &sel.PrimesOnly); err != nil {
		return sel, err
	}

	if v, ok := intAttr(kwargs, "min_value", 0, math.MaxInt64); ok {
		sel.MinValue = uint64(v)
	}
	if v, ok := intAttr(kwargs, "max_value", 0, math.MaxInt64); ok {
		sel.MaxValue = uint64(v)
	}

	if v, ok := byteAttr(kwargs, "min_bit_len"); ok {
		sel.Min.BitLen = v
	}
	if v, ok := byteAttr(kwargs, "max_bit_len"); ok {
		sel.Max.BitLen = v
	}
	if v, ok := byteAttr(kwargs, "min_distinct"); ok {
		sel.Min.Distinct = v
	}
	if v, ok := byteAttr(kwargs, "max_distinct"); ok {
		sel.Max.Distinct = v
	}
	if v, ok := byteAttr(kwargs, "min_pows"); ok {
		sel.Min.TotalPows = v
	}
	if v, ok := byteAttr(kwargs, "max_pows"); ok {
		sel.Max.TotalPows = v
	}

	return sel, nil
}
