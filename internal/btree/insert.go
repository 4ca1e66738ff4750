package btree

import (
	"ixdb/errs"
	"ixdb/internal/field"
	"ixdb/internal/page"
	"ixdb/internal/resource"
)

// splitResult describes the separator a child handed up to its parent
// after a split; hasSplit is false when the child absorbed the insert
// without needing to split.
type splitResult struct {
	hasSplit     bool
	promotedKey  field.Field
	newPageNumber page.Number
}

// Insert adds (key, rid) to the tree, splitting leaves and inner nodes
// as needed and growing the tree by one level when the root itself
// splits. On a unique index, Insert fails with errs.Duplicate if key is
// already present; non-unique indexes permit any number of (key, rid)
// pairs sharing a key.
func (t *BTree) Insert(key field.Field, rid *field.RIDField) error {
	if t.resource.Header().Unique() {
		existing, err := t.LookupRids(key)
		if err != nil {
			return err
		}
		if len(existing) > 0 {
			return errs.New(errs.Duplicate, "btree: key %s already present in unique index", key.EncodeAsString())
		}
	}
	rootNum := t.resource.Header().RootPageNumber
	res, err := t.insertRec(rootNum, key, rid)
	if err != nil {
		return err
	}
	if !res.hasSplit {
		return nil
	}

	newRootNum, buf, err := t.allocPage()
	if err != nil {
		return err
	}
	newRoot := InitInner(buf, newRootNum, t.keyType)
	if err := newRoot.InsertAt(0, rootNum, res.promotedKey); err != nil {
		t.unpin(newRootNum)
		return err
	}
	newRoot.SetRightChild(res.newPageNumber)
	t.markDirty(newRootNum)
	t.unpin(newRootNum)

	return t.resource.UpdateHeader(func(h *resource.Header) {
		h.RootPageNumber = newRootNum
	})
}

func (t *BTree) insertRec(nodeNum page.Number, key field.Field, rid *field.RIDField) (splitResult, error) {
	buf, h, err := t.fetch(nodeNum)
	if err != nil {
		return splitResult{}, err
	}

	if h.Type == page.TypeLeaf {
		leaf := &LeafPage{newView(buf, t.keyType)}
		res, err := t.insertIntoLeaf(nodeNum, leaf, key, rid)
		t.unpin(nodeNum)
		return res, err
	}

	inner := &InnerPage{newView(buf, t.keyType)}
	childNum, err := inner.FindChild(key)
	if err != nil {
		t.unpin(nodeNum)
		return splitResult{}, err
	}

	childRes, err := t.insertRec(childNum, key, rid)
	if err != nil {
		t.unpin(nodeNum)
		return splitResult{}, err
	}
	if !childRes.hasSplit {
		t.unpin(nodeNum)
		return splitResult{}, nil
	}

	res, err := t.insertIntoInner(nodeNum, inner, childRes.promotedKey, childRes.newPageNumber)
	t.unpin(nodeNum)
	return res, err
}

func (t *BTree) insertIntoLeaf(leafNum page.Number, leaf *LeafPage, key field.Field, rid *field.RIDField) (splitResult, error) {
	if !leaf.Full(t.pageSize) {
		pos, err := leaf.search(key)
		if err != nil {
			return splitResult{}, err
		}
		if err := leaf.InsertAt(pos, key, rid); err != nil {
			return splitResult{}, err
		}
		t.markDirty(leafNum)
		return splitResult{}, nil
	}
	return t.splitLeaf(leafNum, leaf, key, rid)
}

// splitLeaf splits a full leaf in two, inserting the new entry into
// whichever half it belongs to. The separator promoted to the parent is
// the new right leaf's first key, copied rather than removed — it must
// remain in the leaf itself for point lookups and range scans to find
// it (§3 — leaf splits copy, unlike inner splits, which drop).
func (t *BTree) splitLeaf(leafNum page.Number, leaf *LeafPage, key field.Field, rid *field.RIDField) (splitResult, error) {
	entries, err := leaf.AllEntries()
	if err != nil {
		return splitResult{}, err
	}
	pos, err := leaf.search(key)
	if err != nil {
		return splitResult{}, err
	}
	merged := make([]leafKV, 0, len(entries)+1)
	merged = append(merged, entries[:pos]...)
	merged = append(merged, leafKV{key: key, rid: rid})
	merged = append(merged, entries[pos:]...)

	mid := len(merged) / 2
	leftEntries, rightEntries := merged[:mid], merged[mid:]

	newNum, newBuf, err := t.allocPage()
	if err != nil {
		return splitResult{}, err
	}
	newLeaf := InitLeaf(newBuf, newNum, t.keyType)
	if err := newLeaf.ResetWith(rightEntries); err != nil {
		t.unpin(newNum)
		return splitResult{}, err
	}
	newLeaf.SetNextLeaf(leaf.NextLeaf())
	leaf.SetNextLeaf(newNum)

	if err := leaf.ResetWith(leftEntries); err != nil {
		t.unpin(newNum)
		return splitResult{}, err
	}

	// If the split landed in the middle of a run of duplicate keys, the
	// left leaf's last key equals the right leaf's first key: record that
	// in the leaf's KeyContinues flag. Lookups, deletes and cursors follow
	// NextLeaf whether or not the flag is set.
	spansDuplicate := false
	if len(leftEntries) > 0 {
		c, err := leftEntries[len(leftEntries)-1].key.Compare(rightEntries[0].key)
		if err != nil {
			t.unpin(newNum)
			return splitResult{}, err
		}
		spansDuplicate = c == 0
	}
	leaf.setKeyContinues(spansDuplicate)

	t.markDirty(leafNum)
	t.markDirty(newNum)
	t.unpin(newNum)

	return splitResult{hasSplit: true, promotedKey: rightEntries[0].key, newPageNumber: newNum}, nil
}

// insertIntoInner inserts a separator propagated up from a child split,
// splitting this inner node in turn if it is already full.
func (t *BTree) insertIntoInner(nodeNum page.Number, inner *InnerPage, key field.Field, rightChild page.Number) (splitResult, error) {
	if !inner.Full(t.pageSize) {
		if err := inner.InsertSeparator(key, rightChild); err != nil {
			return splitResult{}, err
		}
		t.markDirty(nodeNum)
		return splitResult{}, nil
	}
	return t.splitInner(nodeNum, inner, key, rightChild)
}

// splitInner splits a full inner node, dropping the promoted middle key
// (it is not copied into either child, §3 — only leaf splits copy).
func (t *BTree) splitInner(nodeNum page.Number, inner *InnerPage, key field.Field, rightChild page.Number) (splitResult, error) {
	children := inner.AllChildren()
	keys, err := inner.AllKeys()
	if err != nil {
		return splitResult{}, err
	}

	pos, err := inner.LowerBound(key)
	if err != nil {
		return splitResult{}, err
	}
	mergedKeys := make([]field.Field, 0, len(keys)+1)
	mergedKeys = append(mergedKeys, keys[:pos]...)
	mergedKeys = append(mergedKeys, key)
	mergedKeys = append(mergedKeys, keys[pos:]...)

	mergedChildren := make([]page.Number, 0, len(children)+1)
	mergedChildren = append(mergedChildren, children[:pos+1]...)
	mergedChildren = append(mergedChildren, rightChild)
	mergedChildren = append(mergedChildren, children[pos+1:]...)

	mid := len(mergedKeys) / 2
	promoted := mergedKeys[mid]
	leftKeys, rightKeys := mergedKeys[:mid], mergedKeys[mid+1:]
	leftChildren, rightChildren := mergedChildren[:mid+1], mergedChildren[mid+1:]

	newNum, newBuf, err := t.allocPage()
	if err != nil {
		return splitResult{}, err
	}
	newInner := InitInner(newBuf, newNum, t.keyType)
	if err := newInner.ResetWith(rightChildren, rightKeys); err != nil {
		t.unpin(newNum)
		return splitResult{}, err
	}

	if err := inner.ResetWith(leftChildren, leftKeys); err != nil {
		t.unpin(newNum)
		return splitResult{}, err
	}

	t.markDirty(nodeNum)
	t.markDirty(newNum)
	t.unpin(newNum)

	return splitResult{hasSplit: true, promotedKey: promoted, newPageNumber: newNum}, nil
}
