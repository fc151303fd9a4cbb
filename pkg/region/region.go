// Copyright 2024 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package region implements arithmetic over physical address intervals.
package region

import (
	"fmt"
	"sort"
	"strings"
)

// Region is a half-open physical address interval [Base, Base+Size).
type Region struct {
	Base uint64
	Size uint64
}

func (r Region) String() string {
	return fmt.Sprintf(`{"Base":"0x%x", "Size":"0x%x"}`, r.Base, r.Size)
}

// End returns the first address after the region.
func (r Region) End() uint64 {
	return r.Base + r.Size
}

// Overlaps returns true if [base, base+size) shares at least one address
// with the region. An empty range overlaps nothing.
func (r Region) Overlaps(base, size uint64) bool {
	if r.Size == 0 || size == 0 {
		return false
	}
	return base < r.Base+r.Size && r.Base < base+size
}

// Adjacent reports whether [base, base+size) touches the region without
// overlapping it: a positive value means the candidate ends where the region
// starts, a negative value means the region ends where the candidate starts.
func (r Region) Adjacent(base, size uint64) int {
	switch {
	case base+size == r.Base:
		return 1
	case r.Base+r.Size == base:
		return -1
	}
	return 0
}

// Contains returns true if addr is inside the half-open interval.
func (r Region) Contains(addr uint64) bool {
	return r.Base <= addr && addr < r.Base+r.Size
}

// ContainsClosed returns true if r.Base <= addr <= r.Base+r.Size-1.
//
// This is the check used by reservation queries. It differs from Contains
// only for regions that end at the top of the address space, where
// Base+Size wraps to zero.
func (r Region) ContainsClosed(addr uint64) bool {
	return addr >= r.Base && addr <= r.Base+r.Size-1
}

// Covers returns true if [base, base+size) lies entirely inside the region.
func (r Region) Covers(base, size uint64) bool {
	return base >= r.Base && base+size <= r.Base+r.Size
}

// Exclude returns the parts of the region which are not covered by any of
// the excluded regions.
func (r Region) Exclude(exclude ...Region) Regions {
	var result Regions
	remaining := Regions{r}
	for _, ex := range exclude {
		result = result[:0]
		for _, piece := range remaining {
			if ex.Size == 0 || !piece.Overlaps(ex.Base, ex.Size) {
				result = append(result, piece)
				continue
			}
			if piece.Base < ex.Base {
				result = append(result, Region{Base: piece.Base, Size: ex.Base - piece.Base})
			}
			if ex.End() < piece.End() {
				result = append(result, Region{Base: ex.End(), Size: piece.End() - ex.End()})
			}
		}
		remaining = append(Regions(nil), result...)
	}
	if len(remaining) == 0 {
		return nil
	}
	return remaining
}

// Regions is a helper to manipulate multiple Region-s at once.
type Regions []Region

func (s Regions) String() string {
	r := make([]string, 0, len(s))
	for _, one := range s {
		r = append(r, one.String())
	}
	return `[` + strings.Join(r, `, `) + `]`
}

// Sort sorts the slice by field Base.
func (s Regions) Sort() {
	sort.Slice(s, func(i, j int) bool {
		return s[i].Base < s[j].Base
	})
}

// Merge coalesces regions which overlap or touch each other.
//
// Warning: should be called only on sorted regions!
func Merge(in Regions) Regions {
	if len(in) < 2 {
		return in
	}

	var result Regions
	entry := in[0]
	for _, next := range in[1:] {
		if entry.End() >= next.Base {
			if next.End() > entry.End() {
				entry.Size = next.End() - entry.Base
			}
			continue
		}
		result = append(result, entry)
		entry = next
	}
	return append(result, entry)
}

// SortAndMerge sorts the slice (by field Base) and then merges the regions
// which could be merged. Zero-sized regions are dropped.
func (s *Regions) SortAndMerge() {
	filtered := (*s)[:0]
	for _, r := range *s {
		if r.Size != 0 {
			filtered = append(filtered, r)
		}
	}
	*s = filtered
	if len(*s) < 2 {
		return
	}
	s.Sort()

	*s = Merge(*s)
}

// TotalSize returns the sum of the sizes of all regions.
func (s Regions) TotalSize() uint64 {
	var total uint64
	for _, r := range s {
		total += r.Size
	}
	return total
}

// IsIn returns true if the address is covered by any of the regions.
func (s Regions) IsIn(addr uint64) bool {
	for _, r := range s {
		if r.Contains(addr) {
			return true
		}
	}
	return false
}
