package libfactor

import (
	"encoding/binary"
	"hash/maphash"

	badger "github.com/dgraph-io/badger/v3"

	"github.com/fine-structures/gofactor/gofactor"
)

// lsmSet is a NumberAdder that remembers every entry key it has seen in an
// in-memory badger instance, for dedupe pipelines too large to hold in a
// flat table.
type lsmSet struct {
	db *badger.DB
}

// NewNumberSet returns an empty set-semantics NumberAdder.
// Close it (via Close) when done to release the backing store.
func NewNumberSet() (*NumberSet, error) {
	opts := badger.DefaultOptions("").WithInMemory(true)
	opts.Logger = nil
	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}
	return &NumberSet{
		lsmSet: lsmSet{db: db},
	}, nil
}

// NumberSet adds set semantics over entry keys: TryAddNumber returns true
// only the first time a given N arrives.
type NumberSet struct {
	lsmSet
}

func (set *lsmSet) TryAddNumber(entry *gofactor.Entry) bool {
	var keyBuf [gofactor.EntryKeySz]byte
	key := gofactor.AppendEntryKey(keyBuf[:0], entry.N)

	added := false
	err := set.db.Update(func(txn *badger.Txn) error {
		_, getErr := txn.Get(key)
		if getErr == badger.ErrKeyNotFound {
			added = true
			return txn.Set(key, nil)
		}
		return getErr
	})
	if err != nil {
		return false
	}
	return added
}

func (set *lsmSet) Close() error {
	return set.db.Close()
}

// dropDupes fronts a NumberAdder with an open-addressed table so repeat
// values never reach the destination. Slots hold the value itself (numbers
// are their own perfect fingerprint); maphash only spreads them.
type dropDupes struct {
	dst   gofactor.NumberAdder
	seed  maphash.Seed
	slots []uint64
	count int
}

// NewDropDupes wraps dst so each distinct N is forwarded at most once.
// A nil dst just counts as accepting everything.
func NewDropDupes(dst gofactor.NumberAdder) gofactor.NumberAdder {
	return &dropDupes{
		dst:   dst,
		seed:  maphash.MakeSeed(),
		slots: make([]uint64, 1024),
	}
}

func (dd *dropDupes) TryAddNumber(entry *gofactor.Entry) bool {
	if entry.N == 0 || !dd.insert(entry.N) {
		return false
	}
	if dd.dst != nil {
		return dd.dst.TryAddNumber(entry)
	}
	return true
}

func (dd *dropDupes) slotFor(n uint64) uint64 {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], n)
	return maphash.Bytes(dd.seed, b[:]) & uint64(len(dd.slots)-1)
}

func (dd *dropDupes) insert(n uint64) bool {
	idx := dd.slotFor(n)
	for dd.slots[idx] != 0 {
		if dd.slots[idx] == n {
			return false
		}
		idx = (idx + 1) & uint64(len(dd.slots)-1)
	}
	dd.slots[idx] = n
	dd.count++

	// Grow at 3/4 load so probe runs stay short
	if 4*dd.count > 3*len(dd.slots) {
		old := dd.slots
		dd.slots = make([]uint64, 2*len(old))
		for _, v := range old {
			if v != 0 {
				idx := dd.slotFor(v)
				for dd.slots[idx] != 0 {
					idx = (idx + 1) & uint64(len(dd.slots)-1)
				}
				dd.slots[idx] = v
			}
		}
	}
	return true
}
