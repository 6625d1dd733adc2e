package ioutils

import (
	"fmt"
	"strconv"
	"strings"
)

// NameTable hands out filenames that are unique within one batch.
//
// Names are compared case-insensitively. A table is scoped to a single batch
// and must not be shared between goroutines without external locking.
type NameTable struct {
	taken    map[string]struct{}
	counters map[string]int
}

// NewNameTable creates an empty NameTable.
func NewNameTable() *NameTable {
	return &NameTable{
		taken:    make(map[string]struct{}),
		counters: make(map[string]int),
	}
}

// Reserve returns name if it is still free, otherwise the first free
// "base (n)ext" variant with n starting at 2. The returned name is marked
// as taken.
func (t *NameTable) Reserve(name string) string {
	key := strings.ToLower(name)
	if _, ok := t.taken[key]; !ok {
		t.taken[key] = struct{}{}
		return name
	}

	base, ext := SplitExt(name)
	n := t.counters[key]
	if n < 2 {
		n = 2
	}
	for {
		candidate := suffixed(base, ext, n)
		n++
		if _, ok := t.taken[strings.ToLower(candidate)]; !ok {
			t.counters[key] = n
			t.taken[strings.ToLower(candidate)] = struct{}{}
			return candidate
		}
	}
}

// Release frees a name handed out by Reserve so it can be reserved again.
func (t *NameTable) Release(name string) {
	delete(t.taken, strings.ToLower(name))
}

// Len returns the number of reserved names.
func (t *NameTable) Len() int {
	return len(t.taken)
}

// UniqueFileNames returns names with collisions resolved in order of first
// occurrence. Running it on an already unique list returns the same list.
func UniqueFileNames(names []string) []string {
	table := NewNameTable()
	out := make([]string, len(names))
	for i, name := range names {
		out[i] = table.Reserve(name)
	}
	return out
}

// SplitExt splits name at its last dot. The extension includes the dot;
// names without a dot have an empty extension.
//
//	SplitExt("photo.tar.gz") // "photo.tar", ".gz"
//	SplitExt("README")       // "README", ""
func SplitExt(name string) (base, ext string) {
	dot := strings.LastIndex(name, ".")
	if dot < 0 {
		return name, ""
	}
	return name[:dot], name[dot:]
}

// PrefixIndex prepends the 1-based position of an item to its name, padded
// to the width of total: PrefixIndex("x.png", 2, 120) returns "003_x.png".
func PrefixIndex(name string, index, total int) string {
	width := len(strconv.Itoa(total))
	return fmt.Sprintf("%0*d_%s", width, index+1, name)
}

func suffixed(base, ext string, n int) string {
	return fmt.Sprintf("%s (%d)%s", base, n, ext)
}
