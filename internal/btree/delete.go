package btree

import (
	"ixdb/errs"
	"ixdb/internal/field"
	"ixdb/internal/page"
)

// DeleteKeyRIDPair removes the exact (key, rid) entry from the tree.
// Deletion is leaf-local only (§7 open question, resolved as documented
// in the design notes): it never rebalances with a sibling or merges an
// underfull leaf back into its parent, even if that leaves the leaf
// below its notional minimum occupancy. It returns IndexCorrupt if the
// pair is not found, since callers are expected to have just looked it
// up via LookupRids.
//
// The landing leaf from a left-biased descent may hold only keys < key
// (an inner separator promoted from a leaf split is dropped from its
// left child), so like LookupRids this walks leaf to leaf unconditionally
// without consulting KeyContinues, skipping entries < key until
// it finds the exact pair, meets a key > key, or runs out of leaves.
func (t *BTree) DeleteKeyRIDPair(key field.Field, rid *field.RIDField) error {
	leafNum, err := t.descendToLeaf(key)
	if err != nil {
		return err
	}
	buf, h, err := t.fetch(leafNum)
	if err != nil {
		return err
	}
	if h.Type != page.TypeLeaf {
		t.unpin(leafNum)
		return errs.New(errs.IndexCorrupt, "btree: expected leaf page at %d", leafNum)
	}
	leaf := &LeafPage{newView(buf, t.keyType)}
	pos, err := leaf.search(key)
	if err != nil {
		t.unpin(leafNum)
		return err
	}

	for {
		if pos >= leaf.keyCount() {
			next := leaf.NextLeaf()
			t.unpin(leafNum)
			if next == 0 {
				return errs.New(errs.IndexCorrupt, "btree: (key, rid) pair not found for deletion")
			}
			buf, h, err := t.fetch(next)
			if err != nil {
				return err
			}
			if h.Type != page.TypeLeaf {
				t.unpin(next)
				return errs.New(errs.IndexCorrupt, "btree: expected leaf page at %d", next)
			}
			leafNum = next
			leaf = &LeafPage{newView(buf, t.keyType)}
			pos = 0
			continue
		}
		k, err := leaf.Key(pos)
		if err != nil {
			t.unpin(leafNum)
			return err
		}
		c, err := k.Compare(key)
		if err != nil {
			t.unpin(leafNum)
			return err
		}
		if c > 0 {
			t.unpin(leafNum)
			return errs.New(errs.IndexCorrupt, "btree: (key, rid) pair not found for deletion")
		}
		if c == 0 {
			r, err := leaf.RID(pos)
			if err != nil {
				t.unpin(leafNum)
				return err
			}
			rc, err := r.Compare(rid)
			if err != nil {
				t.unpin(leafNum)
				return err
			}
			if rc == 0 {
				if err := leaf.DeleteAt(pos); err != nil {
					t.unpin(leafNum)
					return err
				}
				t.markDirty(leafNum)
				t.unpin(leafNum)
				return nil
			}
		}
		pos++
	}
}
