// Package catalog persists factored numbers in a badger LSM store.
//
// Keys order entries numerically: a bit-length byte followed by the value
// big-endian, so range selection is a single seek and walk. Values carry the
// factorization LSM encoding, and the badger UserMeta byte flags primes so
// prime-only scans skip value loads entirely.
package catalog

import (
	"math"
	"sync"

	badger "github.com/dgraph-io/badger/v3"
	"github.com/dustin/go-humanize"
	proto "github.com/gogo/protobuf/proto"
	"github.com/pkg/errors"
	"github.com/plan-systems/klog"

	"github.com/fine-structures/gofactor/gofactor"
	"github.com/fine-structures/gofactor/libfactor"
)

const (
	currentMajorVers = 1
	currentMinorVers = 0

	// Flag_IsPrime marks an entry's UserMeta when its value is prime.
	Flag_IsPrime = byte(0x01)

	// state flushes to disk after this many adds (and always on Close)
	flushEvery = 10000
)

// gStateKey holds the CatalogState. Entry keys start with a bit-length
// byte of at least 1, so a lone zero byte never collides.
var gStateKey = []byte{0}

type catalog struct {
	ctx       gofactor.CatalogContext
	opts      gofactor.CatalogOpts
	db        *badger.DB
	closeOnce sync.Once

	mu         sync.Mutex // guards state and unflushed
	state      CatalogState
	unflushed  int
	totalAdded int64
}

// OpenCatalog opens or creates the catalog named by opts, attaching it to
// the given context for lifecycle management.
func OpenCatalog(ctx gofactor.CatalogContext, opts gofactor.CatalogOpts) (gofactor.Catalog, error) {
	if opts.ReadOnly && opts.DbPathName == "" {
		return nil, errors.Wrap(gofactor.ErrBadCatalogParam, "read-only catalog requires a db path")
	}

	dbOpts := badger.DefaultOptions(opts.DbPathName)
	dbOpts.Logger = nil
	dbOpts.DetectConflicts = false
	dbOpts.MetricsEnabled = false
	dbOpts.ReadOnly = opts.ReadOnly
	if opts.DbPathName == "" {
		dbOpts = dbOpts.WithInMemory(true)
	}

	db, err := badger.Open(dbOpts)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open catalog %q", opts.DbPathName)
	}

	cat := &catalog{
		ctx:  ctx,
		opts: opts,
		db:   db,
	}
	if err = cat.loadState(); err != nil {
		db.Close()
		return nil, err
	}

	ctx.AttachCatalog(cat)
	klog.Infof("opened catalog %q: %s entries, %s primes",
		opts.DbPathName,
		humanize.Comma(cat.NumEntries(0)),
		humanize.Comma(cat.NumPrimes(0)))
	return cat, nil
}

func (cat *catalog) loadState() error {
	err := cat.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(gStateKey)
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return proto.Unmarshal(val, &cat.state)
		})
	})

	switch {
	case err == badger.ErrKeyNotFound:
		cat.state = CatalogState{
			MajorVers:      currentMajorVers,
			MinorVers:      currentMinorVers,
			IsPrimeCatalog: cat.opts.NeedPrimes,
		}
	case err != nil:
		return errors.Wrap(err, "failed to load catalog state")
	}

	if cat.state.MajorVers != currentMajorVers {
		return errors.Wrapf(gofactor.ErrCatalogVers,
			"catalog vers %d.%d, this build reads %d.x",
			cat.state.MajorVers, cat.state.MinorVers, currentMajorVers)
	}
	if cat.opts.NeedPrimes && !cat.state.IsPrimeCatalog {
		return errors.Wrap(gofactor.ErrNotPrimeCatalog, "catalog was not built with NeedPrimes")
	}

	if len(cat.state.NumEntries) < gofactor.MaxBitLen+1 {
		cat.state.NumEntries = append(cat.state.NumEntries,
			make([]uint64, gofactor.MaxBitLen+1-len(cat.state.NumEntries))...)
	}
	if len(cat.state.NumPrimes) < gofactor.MaxBitLen+1 {
		cat.state.NumPrimes = append(cat.state.NumPrimes,
			make([]uint64, gofactor.MaxBitLen+1-len(cat.state.NumPrimes))...)
	}
	return nil
}

// flushState writes the state block. Callers hold cat.mu.
func (cat *catalog) flushState() error {
	stateBuf, err := proto.Marshal(&cat.state)
	if err != nil {
		return err
	}
	err = cat.db.Update(func(txn *badger.Txn) error {
		return txn.Set(gStateKey, stateBuf)
	})
	if err == nil {
		cat.unflushed = 0
	}
	return err
}

func (cat *catalog) IsReadOnly() bool {
	return cat.opts.ReadOnly
}

// NumEntries returns the entry count for a bit length class, or the total
// across every class for bitLen 0.
func (cat *catalog) NumEntries(bitLen byte) int64 {
	cat.mu.Lock()
	defer cat.mu.Unlock()
	return countFor(cat.state.NumEntries, bitLen)
}

// NumPrimes returns the prime count for a bit length class, or the total
// across every class for bitLen 0.
func (cat *catalog) NumPrimes(bitLen byte) int64 {
	cat.mu.Lock()
	defer cat.mu.Unlock()
	return countFor(cat.state.NumPrimes, bitLen)
}

func countFor(counts []uint64, bitLen byte) int64 {
	if bitLen > gofactor.MaxBitLen {
		return 0
	}
	if bitLen > 0 {
		return int64(counts[bitLen])
	}
	total := int64(0)
	for _, c := range counts {
		total += int64(c)
	}
	return total
}

// TryAddNumber stores ent if its value is not already cataloged.
// An entry arriving without factors is decomposed in place first.
func (cat *catalog) TryAddNumber(ent *gofactor.Entry) bool {
	if ent == nil || ent.N == 0 || cat.opts.ReadOnly {
		return false
	}
	if len(ent.Factors) == 0 && ent.N > 1 {
		ent.Factors = append(ent.Factors[:0], libfactor.Decompose(ent.N)...)
	} else if ent.Factors.Product() != ent.N {
		klog.Errorf("catalog add of %d: supplied factors multiply to %d", ent.N, ent.Factors.Product())
		return false
	}

	var keyBuf [gofactor.EntryKeySz]byte
	key := gofactor.AppendEntryKey(keyBuf[:0], ent.N)

	isPrime := ent.IsPrime()
	added := false
	err := cat.db.Update(func(txn *badger.Txn) error {
		if _, getErr := txn.Get(key); getErr != badger.ErrKeyNotFound {
			return getErr
		}

		dbEntry := badger.NewEntry(key, ent.Factors.AppendLSM(nil))
		if isPrime {
			dbEntry = dbEntry.WithMeta(Flag_IsPrime)
		}
		if setErr := txn.SetEntry(dbEntry); setErr != nil {
			return setErr
		}
		added = true
		return nil
	})
	if err != nil {
		klog.Errorf("catalog add of %d failed: %v", ent.N, err)
		return false
	}
	if !added {
		return false
	}

	info := ent.GetInfo()
	cat.mu.Lock()
	cat.state.NumEntries[info.BitLen]++
	if isPrime {
		cat.state.NumPrimes[info.BitLen]++
	}
	cat.totalAdded++
	cat.unflushed++
	if cat.unflushed >= flushEvery {
		if flushErr := cat.flushState(); flushErr != nil {
			klog.Errorf("catalog state flush failed: %v", flushErr)
		}
	}
	cat.mu.Unlock()
	return true
}

// Lookup fetches the stored factorization of n, if present.
func (cat *catalog) Lookup(n uint64) (gofactor.Factorization, bool) {
	if n == 0 {
		return nil, false
	}

	var keyBuf [gofactor.EntryKeySz]byte
	key := gofactor.AppendEntryKey(keyBuf[:0], n)

	var fz gofactor.Factorization
	found := false
	err := cat.db.View(func(txn *badger.Txn) error {
		item, getErr := txn.Get(key)
		if getErr == badger.ErrKeyNotFound {
			return nil
		}
		if getErr != nil {
			return getErr
		}
		return item.Value(func(val []byte) error {
			if initErr := fz.InitFromLSM(val); initErr != nil {
				return initErr
			}
			found = true
			return nil
		})
	})
	if err != nil {
		klog.Errorf("catalog lookup of %d failed: %v", n, err)
		return nil, false
	}
	return fz, found
}

// Select pushes every cataloged entry meeting sel to onHit, ascending.
// Ownership of pushed entries transfers to the receiver.
func (cat *catalog) Select(sel gofactor.Selector, onHit gofactor.OnEntryHit) {
	minV, maxV := selValueRange(sel)
	if minV > maxV {
		return
	}

	var keyBuf [gofactor.EntryKeySz]byte
	startKey := gofactor.AppendEntryKey(keyBuf[:0], minV)

	err := cat.db.View(func(txn *badger.Txn) error {
		itOpts := badger.DefaultIteratorOptions
		itOpts.PrefetchValues = false
		it := txn.NewIterator(itOpts)
		defer it.Close()

		for it.Seek(startKey); it.Valid(); it.Next() {
			item := it.Item()
			n, keyErr := gofactor.ReadEntryKey(item.Key())
			if keyErr != nil {
				continue // state block or foreign key
			}
			if n > maxV {
				break
			}
			if sel.PrimesOnly && item.UserMeta()&Flag_IsPrime == 0 {
				continue
			}

			ent := gofactor.NewEntry()
			ent.N = n
			valErr := item.Value(func(val []byte) error {
				return ent.Factors.InitFromLSM(val)
			})
			if valErr != nil {
				ent.Reclaim()
				return valErr
			}

			if sel.SelectsEntry(ent) {
				onHit <- ent
			} else {
				ent.Reclaim()
			}
		}
		return nil
	})
	if err != nil {
		klog.Errorf("catalog select failed: %v", err)
	}
}

// selValueRange folds the selector's value and bit-length bounds into one
// inclusive uint64 range.
func selValueRange(sel gofactor.Selector) (minV, maxV uint64) {
	minV = sel.MinValue
	if minV < 1 {
		minV = 1
	}
	if sel.Min.BitLen > 1 {
		if sel.Min.BitLen > gofactor.MaxBitLen {
			return 1, 0
		}
		if lo := uint64(1) << (sel.Min.BitLen - 1); lo > minV {
			minV = lo
		}
	}

	maxV = sel.MaxValue
	if maxV == 0 {
		maxV = math.MaxUint64
	}
	if sel.Max.BitLen > 0 && sel.Max.BitLen < gofactor.MaxBitLen {
		if hi := (uint64(1) << sel.Max.BitLen) - 1; hi < maxV {
			maxV = hi
		}
	}
	return
}

func (cat *catalog) Close() {
	cat.closeOnce.Do(func() {
		if !cat.opts.ReadOnly {
			cat.mu.Lock()
			if err := cat.flushState(); err != nil {
				klog.Errorf("catalog state flush on close failed: %v", err)
			}
			added := cat.totalAdded
			cat.mu.Unlock()
			klog.Infof("closing catalog %q: %s entries added this session",
				cat.opts.DbPathName, humanize.Comma(added))
		}
		if err := cat.db.Close(); err != nil {
			klog.Errorf("catalog db close failed: %v", err)
		}
		cat.ctx.DetachCatalog(cat)
	})
}
