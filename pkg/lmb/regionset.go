// Copyright 2024 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package lmb

import (
	"fmt"
	"sort"

	"github.com/hashicorp/go-multierror"

	"github.com/u-boot/u-boot-sub110/pkg/region"
)

// MaxRegions is the default capacity of a RegionSet.
const MaxRegions = 8

// NotFound is returned by RegionSet.Overlaps when no region matches.
const NotFound = -1

// RegionSet is a sorted, non-overlapping and fully coalesced list of
// regions with a fixed capacity.
type RegionSet struct {
	name     string
	capacity int
	regions  region.Regions
}

func newRegionSet(name string, capacity int) RegionSet {
	return RegionSet{
		name:     name,
		capacity: capacity,
		regions:  make(region.Regions, 0, capacity),
	}
}

// Name returns "memory" or "reserved".
func (s *RegionSet) Name() string {
	return s.name
}

// Len returns the amount of regions in the set.
func (s *RegionSet) Len() int {
	return len(s.regions)
}

// Cap returns the maximal amount of regions the set can hold.
func (s *RegionSet) Cap() int {
	return s.capacity
}

// At returns the i-th region in ascending base order.
func (s *RegionSet) At(i int) region.Region {
	return s.regions[i]
}

// Regions returns a copy of the regions.
func (s *RegionSet) Regions() region.Regions {
	return append(region.Regions(nil), s.regions...)
}

// Size returns the total amount of bytes covered by the set.
func (s *RegionSet) Size() uint64 {
	return s.regions.TotalSize()
}

func (s *RegionSet) reset() {
	s.regions = s.regions[:0]
}

// add inserts [base, base+size) and returns the amount of existing regions
// which were coalesced with it.
//
// Every region touching or overlapping the candidate is folded into a single
// entry. Since the set is coalesced before the call, those regions form a
// contiguous run, so a single pass keeps the set coalesced.
//
// The last byte of the address space cannot be stored: a range whose end
// wraps to or past zero is rejected with a WrapError.
func (s *RegionSet) add(base, size uint64) (int, error) {
	if size == 0 {
		return 0, nil
	}
	if base+size < base {
		return 0, &WrapError{Set: s.name, Base: base, Size: size}
	}

	first, last := NotFound, NotFound
	for i, r := range s.regions {
		if r.Base == base && r.Size == size {
			return 0, nil
		}
		if r.Overlaps(base, size) || r.Adjacent(base, size) != 0 {
			if first == NotFound {
				first = i
			}
			last = i
		}
	}

	if first == NotFound {
		if len(s.regions) >= s.capacity {
			return 0, &CapacityError{Set: s.name, Capacity: s.capacity}
		}
		idx := sort.Search(len(s.regions), func(i int) bool {
			return s.regions[i].Base > base
		})
		s.regions = append(s.regions, region.Region{})
		copy(s.regions[idx+1:], s.regions[idx:])
		s.regions[idx] = region.Region{Base: base, Size: size}
		return 0, nil
	}

	start := base
	if s.regions[first].Base < start {
		start = s.regions[first].Base
	}
	end := base + size
	if s.regions[last].End() > end {
		end = s.regions[last].End()
	}
	s.regions[first] = region.Region{Base: start, Size: end - start}
	for i := last; i > first; i-- {
		s.remove(i)
	}
	return last - first + 1, nil
}

// remove deletes the i-th region, shifting the later ones down.
func (s *RegionSet) remove(i int) {
	s.regions = append(s.regions[:i], s.regions[i+1:]...)
}

// Overlaps returns the index of the first region overlapping
// [base, base+size), or NotFound.
func (s *RegionSet) Overlaps(base, size uint64) int {
	for i, r := range s.regions {
		if r.Overlaps(base, size) {
			return i
		}
	}
	return NotFound
}

// Check validates the ordering, overlap and coalescing invariants.
func (s *RegionSet) Check() error {
	var result *multierror.Error
	if len(s.regions) > s.capacity {
		result = multierror.Append(result, fmt.Errorf("%s: %d regions exceed capacity %d", s.name, len(s.regions), s.capacity))
	}
	for i, r := range s.regions {
		if r.Size == 0 {
			result = multierror.Append(result, fmt.Errorf("%s[%d]: empty region at 0x%x", s.name, i, r.Base))
		}
		if i == 0 {
			continue
		}
		prev := s.regions[i-1]
		switch {
		case prev.Base >= r.Base:
			result = multierror.Append(result, fmt.Errorf("%s[%d]: base 0x%x is not above 0x%x", s.name, i, r.Base, prev.Base))
		case prev.End() > r.Base:
			result = multierror.Append(result, fmt.Errorf("%s[%d]: overlaps previous region ending at 0x%x", s.name, i, prev.End()))
		case prev.End() == r.Base:
			result = multierror.Append(result, fmt.Errorf("%s[%d]: adjacent to previous region at 0x%x", s.name, i, r.Base))
		}
	}
	return result.ErrorOrNil()
}

func (s *RegionSet) String() string {
	return fmt.Sprintf("%s%s", s.name, s.regions)
}
