package btree

import (
	"path/filepath"
	"testing"

	"ixdb/errs"
	"ixdb/internal/cache"
	"ixdb/internal/field"
	"ixdb/internal/page"
)

func newTestTree(t *testing.T) *BTree {
	t.Helper()
	pool := cache.NewBufferPool(64)
	path := filepath.Join(t.TempDir(), "idx.ix")
	tree, err := Create(pool, path, page.Size4KiB, 0, false, field.Type{Kind: field.Int})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	t.Cleanup(func() { tree.Close() })
	return tree
}

func rid(p, tup int64) *field.RIDField {
	r, err := field.NewRID(p, tup)
	if err != nil {
		panic(err)
	}
	return r
}

func TestInsertAndLookupSingleKey(t *testing.T) {
	tree := newTestTree(t)
	key := field.NewInt(42)
	r := rid(1, 1)
	if err := tree.Insert(key, r); err != nil {
		t.Fatalf("insert: %v", err)
	}
	got, err := tree.LookupRids(field.NewInt(42))
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 rid, got %d", len(got))
	}
	if eq, _ := got[0].Compare(r); eq != 0 {
		t.Fatalf("rid mismatch")
	}
}

func TestLookupMissingKeyReturnsEmpty(t *testing.T) {
	tree := newTestTree(t)
	if err := tree.Insert(field.NewInt(1), rid(1, 1)); err != nil {
		t.Fatalf("insert: %v", err)
	}
	got, err := tree.LookupRids(field.NewInt(999))
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected no rids, got %d", len(got))
	}
}

// TestManyInsertsForceLeafAndRootSplits inserts enough distinct keys to
// force both a leaf split and, eventually, a root split into a new
// inner level, then verifies every key is still reachable in order.
func TestManyInsertsForceLeafAndRootSplits(t *testing.T) {
	tree := newTestTree(t)
	const n = 2000
	for i := 0; i < n; i++ {
		if err := tree.Insert(field.NewInt(int32(i)), rid(int64(i), 0)); err != nil {
			t.Fatalf("insert %d: %v", i, err)
		}
	}
	for i := 0; i < n; i++ {
		got, err := tree.LookupRids(field.NewInt(int32(i)))
		if err != nil {
			t.Fatalf("lookup %d: %v", i, err)
		}
		if len(got) != 1 {
			t.Fatalf("key %d: expected 1 rid, got %d", i, len(got))
		}
		if got[0].PageIndex != uint32(i) {
			t.Fatalf("key %d: rid page = %d, want %d", i, got[0].PageIndex, i)
		}
	}
}

// TestNonUniqueDuplicatesAcrossLeaves inserts many RIDs under the same
// key — enough to force the run of duplicates across a leaf boundary —
// and checks LookupRids still returns every one of them.
func TestNonUniqueDuplicatesAcrossLeaves(t *testing.T) {
	tree := newTestTree(t)
	const dups = 500
	for i := 0; i < dups; i++ {
		if err := tree.Insert(field.NewInt(7), rid(int64(i), 0)); err != nil {
			t.Fatalf("insert %d: %v", i, err)
		}
	}
	got, err := tree.LookupRids(field.NewInt(7))
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if len(got) != dups {
		t.Fatalf("expected %d rids for duplicate key, got %d", dups, len(got))
	}
}

// TestDeleteDuplicateAcrossLeaves checks that deleting a (key, rid) pair
// whose duplicate run was split across a leaf boundary finds the pair
// regardless of which leaf it landed on.
func TestDeleteDuplicateAcrossLeaves(t *testing.T) {
	tree := newTestTree(t)
	const dups = 500
	rids := make([]*field.RIDField, dups)
	for i := 0; i < dups; i++ {
		rids[i] = rid(int64(i), 0)
		if err := tree.Insert(field.NewInt(7), rids[i]); err != nil {
			t.Fatalf("insert %d: %v", i, err)
		}
	}
	// rids[0] was inserted first; later duplicates went in ahead of it, so
	// the first leaf split moved it to the last leaf of the duplicate run,
	// not the one a left-biased descent reaches directly.
	if err := tree.DeleteKeyRIDPair(field.NewInt(7), rids[0]); err != nil {
		t.Fatalf("delete: %v", err)
	}
	got, err := tree.LookupRids(field.NewInt(7))
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if len(got) != dups-1 {
		t.Fatalf("expected %d rids after delete, got %d", dups-1, len(got))
	}
	for _, r := range got {
		if eq, _ := r.Compare(rids[0]); eq == 0 {
			t.Fatal("deleted rid still present")
		}
	}
}

func TestCursorRangeScanIsOrdered(t *testing.T) {
	tree := newTestTree(t)
	const n = 300
	for i := n - 1; i >= 0; i-- {
		if err := tree.Insert(field.NewInt(int32(i)), rid(int64(i), 0)); err != nil {
			t.Fatalf("insert %d: %v", i, err)
		}
	}
	cur, err := tree.NewCursor(field.NewInt(50), field.NewInt(100), true, true)
	if err != nil {
		t.Fatalf("cursor: %v", err)
	}
	defer cur.Close()

	count := 0
	prev := -1
	for {
		k, _, ok, err := cur.Next()
		if err != nil {
			t.Fatalf("next: %v", err)
		}
		if !ok {
			break
		}
		v := int(k.(*field.IntField).V)
		if v < prev {
			t.Fatalf("cursor returned out-of-order keys: %d after %d", v, prev)
		}
		prev = v
		count++
	}
	if count != 51 {
		t.Fatalf("expected 51 keys in [50,100], got %d", count)
	}
}

func TestCursorFromBeginningWithNoLowerBound(t *testing.T) {
	tree := newTestTree(t)
	for i := 0; i < 20; i++ {
		if err := tree.Insert(field.NewInt(int32(i)), rid(int64(i), 0)); err != nil {
			t.Fatalf("insert %d: %v", i, err)
		}
	}
	cur, err := tree.NewCursor(nil, nil, true, false)
	if err != nil {
		t.Fatalf("cursor: %v", err)
	}
	defer cur.Close()
	count := 0
	for {
		_, _, ok, err := cur.Next()
		if err != nil {
			t.Fatalf("next: %v", err)
		}
		if !ok {
			break
		}
		count++
	}
	if count != 20 {
		t.Fatalf("expected 20 keys, got %d", count)
	}
}

func TestCursorExclusiveLowerBound(t *testing.T) {
	tree := newTestTree(t)
	for i := 0; i < 20; i++ {
		if err := tree.Insert(field.NewInt(int32(i)), rid(int64(i), 0)); err != nil {
			t.Fatalf("insert %d: %v", i, err)
		}
	}
	cur, err := tree.NewCursor(field.NewInt(5), nil, false, false)
	if err != nil {
		t.Fatalf("cursor: %v", err)
	}
	defer cur.Close()
	k, _, ok, err := cur.Next()
	if err != nil {
		t.Fatalf("next: %v", err)
	}
	if !ok {
		t.Fatal("expected at least one key above the exclusive lower bound")
	}
	if v := int(k.(*field.IntField).V); v != 6 {
		t.Fatalf("expected first key 6 with exclusive lower bound 5, got %d", v)
	}
}

func TestDeleteKeyRIDPairRemovesExactEntry(t *testing.T) {
	tree := newTestTree(t)
	r1, r2 := rid(1, 1), rid(2, 2)
	if err := tree.Insert(field.NewInt(5), r1); err != nil {
		t.Fatalf("insert r1: %v", err)
	}
	if err := tree.Insert(field.NewInt(5), r2); err != nil {
		t.Fatalf("insert r2: %v", err)
	}
	if err := tree.DeleteKeyRIDPair(field.NewInt(5), r1); err != nil {
		t.Fatalf("delete: %v", err)
	}
	got, err := tree.LookupRids(field.NewInt(5))
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 remaining rid, got %d", len(got))
	}
	if eq, _ := got[0].Compare(r2); eq != 0 {
		t.Fatal("wrong rid survived deletion")
	}
}

func TestUniqueIndexRejectsDuplicateKey(t *testing.T) {
	pool := cache.NewBufferPool(64)
	path := filepath.Join(t.TempDir(), "idx.ix")
	tree, err := Create(pool, path, page.Size4KiB, 0, true, field.Type{Kind: field.Int})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	defer tree.Close()

	if err := tree.Insert(field.NewInt(1), rid(1, 1)); err != nil {
		t.Fatalf("insert: %v", err)
	}
	err = tree.Insert(field.NewInt(1), rid(2, 2))
	if err == nil {
		t.Fatal("expected Duplicate inserting a second rid under the same key on a unique index")
	}
	if !errs.Is(err, errs.Duplicate) {
		t.Fatalf("expected errs.Duplicate, got %v", err)
	}
}

func TestDeleteMissingPairIsIndexCorrupt(t *testing.T) {
	tree := newTestTree(t)
	if err := tree.Insert(field.NewInt(1), rid(1, 1)); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if err := tree.DeleteKeyRIDPair(field.NewInt(1), rid(9, 9)); !errs.Is(err, errs.IndexCorrupt) {
		t.Fatalf("expected IndexCorrupt deleting a pair that was never inserted, got %v", err)
	}
}
