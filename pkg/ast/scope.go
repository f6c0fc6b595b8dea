package ast

import (
	"fmt"
	"slices"
	"strings"
)

// Type is the storage type of a variable.
type Type int

const (
	Integer Type = iota
)

// Size is the storage size in bytes. Offset allocation only depends on it.
func (t Type) Size() int {
	switch t {
	case Integer:
		return 8
	}
	panic(fmt.Sprintf("ast: size of unknown type %d", int(t)))
}

func (t Type) String() string {
	switch t {
	case Integer:
		return "int"
	}
	return "unknown"
}

// RootBaseOffset is the base offset of the outermost scope. Slots are
// addressed as frame_base - offset, so the first one ends at the frame base.
const RootBaseOffset = 8

// NoParent marks the outermost table.
const NoParent = -1

// Entry is a declared variable. Offset is fixed at declaration.
type Entry struct {
	Name   string
	Type   Type
	Offset int
}

// SymbolTable holds the entries of one lexical scope in declaration order.
// Parent is an index into the owning arena, or NoParent.
type SymbolTable struct {
	Entries    []Entry
	BaseOffset int
	Parent     int
}

// Binding locates an entry in the scope arena.
type Binding struct {
	Scope int
	Index int
}

func (t *SymbolTable) find(name string) (int, bool) {
	for i, e := range t.Entries {
		if e.Name == name {
			return i, true
		}
	}
	return 0, false
}

// NextOffset is the offset the next declaration in this table receives.
func (t *SymbolTable) NextOffset() int {
	off := t.BaseOffset
	for _, e := range t.Entries {
		off += e.Type.Size()
	}
	return off
}

// lookup walks the chain from scope outward.
func lookup(scopes []SymbolTable, scope int, name string) (Binding, bool) {
	for s := scope; s != NoParent; s = scopes[s].Parent {
		if i, ok := scopes[s].find(name); ok {
			return Binding{Scope: s, Index: i}, true
		}
	}
	return Binding{}, false
}

// Program is a parsed and validated program. It is read-only.
type Program struct {
	stmts  []Stmt
	scopes []SymbolTable
}

func (p *Program) Stmts() []Stmt { return slices.Clone(p.stmts) }
func (p *Program) NumScopes() int { return len(p.scopes) }

// Scope returns a copy of the table at index i.
func (p *Program) Scope(i int) SymbolTable {
	t := p.scopes[i]
	t.Entries = slices.Clone(t.Entries)
	return t
}

// Lookup resolves name starting at scope and walking its parents.
func (p *Program) Lookup(scope int, name string) (Binding, bool) {
	if scope < 0 || scope >= len(p.scopes) {
		return Binding{}, false
	}
	return lookup(p.scopes, scope, name)
}

// Entry returns the entry b refers to.
func (p *Program) Entry(b Binding) (Entry, bool) {
	if b.Scope < 0 || b.Scope >= len(p.scopes) {
		return Entry{}, false
	}
	entries := p.scopes[b.Scope].Entries
	if b.Index < 0 || b.Index >= len(entries) {
		return Entry{}, false
	}
	return entries[b.Index], true
}

// FrameSize is the number of bytes below the frame base that slots use,
// rounded up to align. Slot [fb - off] covers bytes [fb-off, fb-off+size).
func (p *Program) FrameSize(align int) int {
	size := 0
	for _, t := range p.scopes {
		for _, e := range t.Entries {
			size = max(size, e.Offset)
		}
	}
	if align > 1 && size%align != 0 {
		size += align - size%align
	}
	return size
}

// Dump renders the symbol tables, one per block.
func (p *Program) Dump() string {
	var sb strings.Builder
	for i, t := range p.scopes {
		parent := "none"
		if t.Parent != NoParent {
			parent = fmt.Sprint(t.Parent)
		}
		fmt.Fprintf(&sb, "scope %d (parent %s, base %d)\n", i, parent, t.BaseOffset)
		for _, e := range t.Entries {
			fmt.Fprintf(&sb, "    %-12s %-4s [fb - %d]\n", e.Name, e.Type, e.Offset)
		}
	}
	return sb.String()
}

// Builder accumulates a Program during parsing. Build freezes it; any
// mutation afterwards panics.
type Builder struct {
	stmts   []Stmt
	scopes  []SymbolTable
	current int
	frozen  bool
}

func NewBuilder() *Builder {
	return &Builder{
		scopes: []SymbolTable{{BaseOffset: RootBaseOffset, Parent: NoParent}},
	}
}

func (b *Builder) mutate() {
	if b.frozen {
		panic("ast: builder used after Build")
	}
}

func (b *Builder) Current() int { return b.current }
func (b *Builder) Depth() int {
	d := 0
	for s := b.current; b.scopes[s].Parent != NoParent; s = b.scopes[s].Parent {
		d++
	}
	return d
}

// EnterScope opens a nested table. It starts where the current table's free
// space starts, so enclosing live slots are never overlapped.
func (b *Builder) EnterScope() int {
	b.mutate()
	parent := &b.scopes[b.current]
	b.scopes = append(b.scopes, SymbolTable{BaseOffset: parent.NextOffset(), Parent: b.current})
	b.current = len(b.scopes) - 1
	return b.current
}

// ExitScope returns to the parent table. It reports false at the outermost scope.
func (b *Builder) ExitScope() bool {
	b.mutate()
	parent := b.scopes[b.current].Parent
	if parent == NoParent {
		return false
	}
	b.current = parent
	return true
}

// Declare adds name to the current table. It fails if the current table
// already has it; enclosing tables are not consulted.
func (b *Builder) Declare(name string, typ Type) (Binding, bool) {
	b.mutate()
	t := &b.scopes[b.current]
	if _, exists := t.find(name); exists {
		return Binding{}, false
	}
	t.Entries = append(t.Entries, Entry{Name: name, Type: typ, Offset: t.NextOffset()})
	return Binding{Scope: b.current, Index: len(t.Entries) - 1}, true
}

// Resolve walks the chain from the current table outward.
func (b *Builder) Resolve(name string) (Binding, bool) {
	return lookup(b.scopes, b.current, name)
}

func (b *Builder) Entry(ref Binding) Entry { return b.scopes[ref.Scope].Entries[ref.Index] }

func (b *Builder) Append(s Stmt) {
	b.mutate()
	b.stmts = append(b.stmts, s)
}

func (b *Builder) Build() *Program {
	b.mutate()
	b.frozen = true
	return &Program{stmts: b.stmts, scopes: b.scopes}
}
