package vm

// symtab.go implements the bidirectional symbol table from spec.md §4.2,
// populated by loading a `.sym` file (see loader.go) alongside an object
// file.

import "sort"

// SymbolTable maps between label names and addresses, in both directions.
// Names are case-sensitive, matching the assembler that produced the
// original `.sym` files.
type SymbolTable struct {
	byName map[string]Word
	byAddr map[Word]string
}

// NewSymbolTable creates an empty symbol table.
func NewSymbolTable() *SymbolTable {
	return &SymbolTable{
		byName: make(map[string]Word),
		byAddr: make(map[Word]string),
	}
}

// Define records name as a label for addr, overwriting any previous
// definition of that name (a later `.sym` entry for the same label wins,
// matching the original loader's last-one-wins behavior).
func (t *SymbolTable) Define(name string, addr Word) {
	if old, ok := t.byName[name]; ok {
		if cur, ok := t.byAddr[old]; ok && cur == name {
			delete(t.byAddr, old)
		}
	}

	t.byName[name] = addr
	t.byAddr[addr] = name
}

// Lookup resolves a label name to its address.
func (t *SymbolTable) Lookup(name string) (Word, bool) {
	addr, ok := t.byName[name]
	return addr, ok
}

// Name resolves an address to its label, if one was loaded.
func (t *SymbolTable) Name(addr Word) (string, bool) {
	name, ok := t.byAddr[addr]
	return name, ok
}

// Reset discards all symbols. The `file` command does not call it: loading
// a new program adds to the existing table.
func (t *SymbolTable) Reset() {
	t.byName = make(map[string]Word)
	t.byAddr = make(map[Word]string)
}

// Entries returns all (name, address) pairs sorted by address.
func (t *SymbolTable) Entries() []SymbolEntry {
	out := make([]SymbolEntry, 0, len(t.byAddr))
	for addr, name := range t.byAddr {
		out = append(out, SymbolEntry{Name: name, Addr: addr})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Addr < out[j].Addr })

	return out
}

// SymbolEntry is one resolved (name, address) pair.
type SymbolEntry struct {
	Name string
	Addr Word
}
