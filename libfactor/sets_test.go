package libfactor

import (
	"testing"

	"github.com/fine-structures/gofactor/gofactor"
)

type tallyAdder struct {
	added []uint64
}

func (ta *tallyAdder) TryAddNumber(entry *gofactor.Entry) bool {
	ta.added = append(ta.added, entry.N)
	return true
}

func TestNumberSet(t *testing.T) {
	set, err := NewNumberSet()
	if err != nil {
		t.Fatal(err)
	}
	defer set.Close()

	entry := gofactor.NewEntry()
	defer entry.Reclaim()

	seq := []uint64{7, 11, 7, 360, 11, 7, 361}
	wantAdded := []bool{true, true, false, true, false, false, true}
	for i, n := range seq {
		entry.N = n
		if got := set.TryAddNumber(entry); got != wantAdded[i] {
			t.Fatalf("TryAddNumber(%d) #%d = %v, want %v", n, i, got, wantAdded[i])
		}
	}
}

func TestDropDupes(t *testing.T) {
	tally := &tallyAdder{}
	dd := NewDropDupes(tally)

	entry := gofactor.NewEntry()
	defer entry.Reclaim()

	for round := 0; round < 3; round++ {
		for n := uint64(1); n <= 3000; n++ {
			entry.N = n
			added := dd.TryAddNumber(entry)
			if added != (round == 0) {
				t.Fatalf("round %d: TryAddNumber(%d) = %v", round, n, added)
			}
		}
	}
	if len(tally.added) != 3000 {
		t.Fatalf("%d entries reached the destination, want 3000", len(tally.added))
	}

	entry.N = 0
	if dd.TryAddNumber(entry) {
		t.Fatal("TryAddNumber(0): want dropped")
	}
}
