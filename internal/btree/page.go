// Package btree implements the fixed-width-key B+-Tree index: inner and
// leaf node pages wrapping the generic page header from internal/page,
// point and range lookup, insertion with split propagation, and a
// lazy, non-restartable range cursor. Variable-length index keys are not
// supported — every key in a given tree has the same field.Type and
// therefore the same encoded width.
package btree

import (
	"encoding/binary"

	"ixdb/errs"
	"ixdb/internal/field"
	"ixdb/internal/page"
)

// typeHeaderSize is the fixed 32-byte type-specific header immediately
// following the generic 12-byte page header (§3).
const (
	typeHeaderSize = 32
	entriesOffset  = page.HeaderSize + typeHeaderSize // 44

	ridSize = 8 // field.RIDField.ByteLength()

	keyCountOff   = page.HeaderSize      // 4 bytes
	siblingOff    = page.HeaderSize + 4  // 4 bytes: nextLeafPageNumber (leaf) / rightChild (inner)
	continuesOff  = page.HeaderSize + 8  // 1 byte: keyContinues flag, leaf only
)

// keyContinues marks that the last key on a leaf has duplicate entries
// spilling onto the next leaf page (§3 edge cases: non-unique indexes
// whose duplicates span a page boundary).
const keyContinuesFlag byte = 1

// nodeView is the shared geometry both InnerPage and LeafPage wrap.
type nodeView struct {
	buf     []byte
	keyType field.Type
	keyW    int // fixed encoded width of keyType
}

func newView(buf []byte, keyType field.Type) nodeView {
	return nodeView{buf: buf, keyType: keyType, keyW: keyType.FixedWidth()}
}

func (v nodeView) keyCount() int {
	return int(binary.LittleEndian.Uint32(v.buf[keyCountOff:]))
}

func (v nodeView) setKeyCount(n int) {
	binary.LittleEndian.PutUint32(v.buf[keyCountOff:], uint32(n))
}

func (v nodeView) keyAt(entryOff int) (field.Field, error) {
	return field.Decode(v.keyType, v.buf, entryOff, v.keyW)
}

func (v nodeView) putKey(entryOff int, k field.Field) error {
	_, err := k.Encode(v.buf, entryOff)
	return err
}

// MaxInnerEntries returns how many (child, key) entries fit on a page of
// size sz for keys of width keyWidth, leaving room for the trailing
// rightmost-child pointer implicit in the header.
func MaxInnerEntries(sz page.Size, keyWidth int) int {
	entrySize := 4 + keyWidth
	avail := int(sz) - entriesOffset
	if avail < 0 {
		return 0
	}
	return avail / entrySize
}

// MaxLeafEntries returns how many (key, RID) entries fit on a page of
// size sz for keys of width keyWidth.
func MaxLeafEntries(sz page.Size, keyWidth int) int {
	entrySize := keyWidth + ridSize
	avail := int(sz) - entriesOffset
	if avail < 0 {
		return 0
	}
	return avail / entrySize
}

// ─── Inner pages ────────────────────────────────────────────────────────

// InnerPage wraps a page buffer as an inner (non-leaf) B+-Tree node.
// Entry i holds the child left of key i; the rightmost child (right of
// the last key) lives in the type header's sibling field.
type InnerPage struct {
	nodeView
}

// InitInner formats buf as a fresh, empty inner node.
func InitInner(buf []byte, number page.Number, keyType field.Type) *InnerPage {
	page.MarshalHeader(page.Header{Magic: page.IndexPageMagic, Number: number, Type: page.TypeInner}, buf)
	p := &InnerPage{newView(buf, keyType)}
	p.setKeyCount(0)
	p.setRightChild(0)
	return p
}

// WrapInner wraps an existing inner-node page buffer, verifying the
// generic header's page type.
func WrapInner(buf []byte, keyType field.Type) (*InnerPage, error) {
	h, err := page.UnmarshalHeader(buf)
	if err != nil {
		return nil, err
	}
	if h.Type != page.TypeInner {
		return nil, errs.New(errs.PageFormat, "btree: page %d is not an inner node (type %d)", h.Number, h.Type)
	}
	return &InnerPage{newView(buf, keyType)}, nil
}

func (p *InnerPage) entrySize() int { return 4 + p.keyW }

func (p *InnerPage) entryOffset(i int) int { return entriesOffset + i*p.entrySize() }

// Child returns the left child of key i.
func (p *InnerPage) Child(i int) page.Number {
	return page.Number(binary.LittleEndian.Uint32(p.buf[p.entryOffset(i):]))
}

func (p *InnerPage) setChild(i int, child page.Number) {
	binary.LittleEndian.PutUint32(p.buf[p.entryOffset(i):], uint32(child))
}

// Key returns the i-th separator key.
func (p *InnerPage) Key(i int) (field.Field, error) {
	return p.keyAt(p.entryOffset(i) + 4)
}

func (p *InnerPage) setKey(i int, k field.Field) error {
	return p.putKey(p.entryOffset(i)+4, k)
}

// RightChild is the child right of the last key.
func (p *InnerPage) RightChild() page.Number {
	return page.Number(binary.LittleEndian.Uint32(p.buf[siblingOff:]))
}

func (p *InnerPage) setRightChild(n page.Number) {
	binary.LittleEndian.PutUint32(p.buf[siblingOff:], uint32(n))
}

// SetRightChild sets the child right of the last key. Exposed for
// building a brand-new root page, whose single separator has no
// pre-existing slot to inherit a child from.
func (p *InnerPage) SetRightChild(n page.Number) { p.setRightChild(n) }

// FindChild descends left-biased on duplicates: the smallest i with
// key <= Key(i) returns Child(i), so an equal separator still descends
// left, through the child that holds the first of any run of duplicate
// keys. Only key > every separator falls through to RightChild.
func (p *InnerPage) FindChild(key field.Field) (page.Number, error) {
	n := p.keyCount()
	for i := 0; i < n; i++ {
		k, err := p.Key(i)
		if err != nil {
			return 0, err
		}
		c, err := key.Compare(k)
		if err != nil {
			return 0, err
		}
		if c <= 0 {
			return p.Child(i), nil
		}
	}
	return p.RightChild(), nil
}

// InsertAt inserts (child, key) at slot i, shifting later entries right.
// Capacity must already have been checked by the caller.
func (p *InnerPage) InsertAt(i int, child page.Number, key field.Field) error {
	n := p.keyCount()
	for j := n; j > i; j-- {
		c := p.Child(j - 1)
		k, err := p.Key(j - 1)
		if err != nil {
			return err
		}
		p.setChild(j, c)
		if err := p.setKey(j, k); err != nil {
			return err
		}
	}
	p.setChild(i, child)
	if err := p.setKey(i, key); err != nil {
		return err
	}
	p.setKeyCount(n + 1)
	return nil
}

// LowerBound returns the leftmost slot whose key is >= key.
func (p *InnerPage) LowerBound(key field.Field) (int, error) {
	n := p.keyCount()
	lo, hi := 0, n
	for lo < hi {
		mid := (lo + hi) / 2
		k, err := p.Key(mid)
		if err != nil {
			return 0, err
		}
		c, err := k.Compare(key)
		if err != nil {
			return 0, err
		}
		if c < 0 {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	return lo, nil
}

// InsertSeparator inserts key at the sorted position it belongs to and
// makes rightChild the pointer to its right (either the following
// entry's child or, if key becomes the last separator, the page's
// RightChild). This is how a child split is propagated into its
// parent: the child that split keeps the page number it already had —
// found here as the entry currently occupying the insertion slot — and
// rightChild is the newly allocated sibling produced by that split.
func (p *InnerPage) InsertSeparator(key field.Field, rightChild page.Number) error {
	pos, err := p.LowerBound(key)
	if err != nil {
		return err
	}
	var existingChild page.Number
	if pos < p.keyCount() {
		existingChild = p.Child(pos)
	} else {
		existingChild = p.RightChild()
	}
	if err := p.InsertAt(pos, existingChild, key); err != nil {
		return err
	}
	if pos+1 < p.keyCount() {
		p.setChild(pos+1, rightChild)
	} else {
		p.setRightChild(rightChild)
	}
	return nil
}

// Full reports whether the page has no room for one more entry.
func (p *InnerPage) Full(sz page.Size) bool {
	return p.keyCount() >= MaxInnerEntries(sz, p.keyW)
}

// AllChildren returns every child pointer in order, including the
// trailing RightChild (len = keyCount()+1).
func (p *InnerPage) AllChildren() []page.Number {
	n := p.keyCount()
	out := make([]page.Number, n+1)
	for i := 0; i < n; i++ {
		out[i] = p.Child(i)
	}
	out[n] = p.RightChild()
	return out
}

// AllKeys returns every separator key in order.
func (p *InnerPage) AllKeys() ([]field.Field, error) {
	n := p.keyCount()
	out := make([]field.Field, n)
	for i := 0; i < n; i++ {
		k, err := p.Key(i)
		if err != nil {
			return nil, err
		}
		out[i] = k
	}
	return out, nil
}

// ResetWith overwrites the page's entries with children/keys, where
// len(children) must equal len(keys)+1.
func (p *InnerPage) ResetWith(children []page.Number, keys []field.Field) error {
	p.setKeyCount(0)
	for i, k := range keys {
		if err := p.InsertAt(i, children[i], k); err != nil {
			return err
		}
	}
	p.setRightChild(children[len(children)-1])
	return nil
}

// ─── Leaf pages ─────────────────────────────────────────────────────────

// LeafPage wraps a page buffer as a leaf B+-Tree node: parallel
// key/RID arrays in sorted key order, plus a sibling pointer chaining
// leaves left to right for range scans.
type LeafPage struct {
	nodeView
}

// InitLeaf formats buf as a fresh, empty leaf node.
func InitLeaf(buf []byte, number page.Number, keyType field.Type) *LeafPage {
	page.MarshalHeader(page.Header{Magic: page.IndexPageMagic, Number: number, Type: page.TypeLeaf}, buf)
	p := &LeafPage{newView(buf, keyType)}
	p.setKeyCount(0)
	p.SetNextLeaf(0)
	p.setKeyContinues(false)
	return p
}

// WrapLeaf wraps an existing leaf-node page buffer, verifying the
// generic header's page type.
func WrapLeaf(buf []byte, keyType field.Type) (*LeafPage, error) {
	h, err := page.UnmarshalHeader(buf)
	if err != nil {
		return nil, err
	}
	if h.Type != page.TypeLeaf {
		return nil, errs.New(errs.PageFormat, "btree: page %d is not a leaf node (type %d)", h.Number, h.Type)
	}
	return &LeafPage{newView(buf, keyType)}, nil
}

func (p *LeafPage) entrySize() int { return p.keyW + ridSize }

func (p *LeafPage) entryOffset(i int) int { return entriesOffset + i*p.entrySize() }

// Key returns the i-th key.
func (p *LeafPage) Key(i int) (field.Field, error) {
	return p.keyAt(p.entryOffset(i))
}

// RID returns the i-th RID.
func (p *LeafPage) RID(i int) (*field.RIDField, error) {
	f, err := field.Decode(field.Type{Kind: field.RID}, p.buf, p.entryOffset(i)+p.keyW, ridSize)
	if err != nil {
		return nil, err
	}
	return f.(*field.RIDField), nil
}

func (p *LeafPage) setEntry(i int, k field.Field, rid *field.RIDField) error {
	if err := p.putKey(p.entryOffset(i), k); err != nil {
		return err
	}
	_, err := rid.Encode(p.buf, p.entryOffset(i)+p.keyW)
	return err
}

// NextLeaf is the sibling page number a leftmost range scan continues
// into once this leaf is exhausted; 0 means no further leaf.
func (p *LeafPage) NextLeaf() page.Number {
	return page.Number(binary.LittleEndian.Uint32(p.buf[siblingOff:]))
}

func (p *LeafPage) SetNextLeaf(n page.Number) {
	binary.LittleEndian.PutUint32(p.buf[siblingOff:], uint32(n))
}

// KeyContinues reports whether the last key on this leaf has further
// duplicate (key, RID) entries on the next leaf page.
func (p *LeafPage) KeyContinues() bool {
	return p.buf[continuesOff] == keyContinuesFlag
}

func (p *LeafPage) setKeyContinues(v bool) {
	if v {
		p.buf[continuesOff] = keyContinuesFlag
	} else {
		p.buf[continuesOff] = 0
	}
}

// search returns the leftmost slot whose key is >= key (a left-biased
// lower bound, so duplicate descent always lands on the first match).
func (p *LeafPage) search(key field.Field) (int, error) {
	n := p.keyCount()
	lo, hi := 0, n
	for lo < hi {
		mid := (lo + hi) / 2
		k, err := p.Key(mid)
		if err != nil {
			return 0, err
		}
		c, err := k.Compare(key)
		if err != nil {
			return 0, err
		}
		if c < 0 {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	return lo, nil
}

// InsertAt inserts (key, rid) at slot i, shifting later entries right.
// Capacity must already have been checked by the caller.
func (p *LeafPage) InsertAt(i int, key field.Field, rid *field.RIDField) error {
	n := p.keyCount()
	for j := n; j > i; j-- {
		k, err := p.Key(j - 1)
		if err != nil {
			return err
		}
		r, err := p.RID(j - 1)
		if err != nil {
			return err
		}
		if err := p.setEntry(j, k, r); err != nil {
			return err
		}
	}
	if err := p.setEntry(i, key, rid); err != nil {
		return err
	}
	p.setKeyCount(n + 1)
	return nil
}

// Full reports whether the page has no room for one more entry.
func (p *LeafPage) Full(sz page.Size) bool {
	return p.keyCount() >= MaxLeafEntries(sz, p.keyW)
}

// leafKV is one decoded (key, RID) pair, used when bulk-moving entries
// during a split.
type leafKV struct {
	key field.Field
	rid *field.RIDField
}

// AllEntries decodes every (key, RID) pair in order.
func (p *LeafPage) AllEntries() ([]leafKV, error) {
	n := p.keyCount()
	out := make([]leafKV, n)
	for i := 0; i < n; i++ {
		k, err := p.Key(i)
		if err != nil {
			return nil, err
		}
		r, err := p.RID(i)
		if err != nil {
			return nil, err
		}
		out[i] = leafKV{key: k, rid: r}
	}
	return out, nil
}

// ResetWith overwrites the page's entries with entries, in order.
func (p *LeafPage) ResetWith(entries []leafKV) error {
	p.setKeyCount(0)
	for i, e := range entries {
		if err := p.InsertAt(i, e.key, e.rid); err != nil {
			return err
		}
	}
	return nil
}

// DeleteAt removes the entry at slot i, shifting later entries left.
// Deletion is leaf-local only: no rebalance with siblings is performed
// (§7 open question — an underfull leaf is left as-is).
func (p *LeafPage) DeleteAt(i int) error {
	n := p.keyCount()
	if i < 0 || i >= n {
		return errs.New(errs.IllegalOperation, "btree: delete slot %d out of range (%d entries)", i, n)
	}
	for j := i; j < n-1; j++ {
		k, err := p.Key(j + 1)
		if err != nil {
			return err
		}
		r, err := p.RID(j + 1)
		if err != nil {
			return err
		}
		if err := p.setEntry(j, k, r); err != nil {
			return err
		}
	}
	p.setKeyCount(n - 1)
	return nil
}
