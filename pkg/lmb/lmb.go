// Copyright 2024 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package lmb tracks physical memory reservations during the boot-to-kernel
// handoff.
//
// An LMB holds two region sets: "memory" (usable RAM reported by the
// platform) and "reserved" (ranges already claimed by the firmware or by
// previously placed boot artifacts). Images are placed by reserving fixed
// ranges or by allocating free space top-down, optionally below a ceiling.
//
// An LMB is owned by a single boot flow and is not safe for concurrent use.
package lmb

import (
	"github.com/hashicorp/go-multierror"

	"github.com/u-boot/u-boot-sub110/pkg/log"
	"github.com/u-boot/u-boot-sub110/pkg/region"
)

// AllocAnywhere disables the ceiling of AllocBase.
const AllocAnywhere = ^uint64(0)

// LMB is the memory reservation tracker.
type LMB struct {
	memory   RegionSet
	reserved RegionSet
}

// New returns an empty LMB whose region sets hold up to MaxRegions entries.
func New() *LMB {
	return NewWithCapacity(MaxRegions)
}

// NewWithCapacity returns an empty LMB whose region sets hold up to
// capacity entries. A non-positive capacity means MaxRegions.
func NewWithCapacity(capacity int) *LMB {
	if capacity <= 0 {
		capacity = MaxRegions
	}
	return &LMB{
		memory:   newRegionSet("memory", capacity),
		reserved: newRegionSet("reserved", capacity),
	}
}

// Init empties both region sets.
func (l *LMB) Init() {
	l.memory.reset()
	l.reserved.reset()
}

// Memory returns the set of usable RAM regions.
func (l *LMB) Memory() *RegionSet {
	return &l.memory
}

// Reserved returns the set of claimed regions.
func (l *LMB) Reserved() *RegionSet {
	return &l.reserved
}

// Add registers [base, base+size) as usable RAM.
func (l *LMB) Add(base, size uint64) error {
	_, err := l.memory.add(base, size)
	return err
}

// Reserve marks [base, base+size) as claimed.
func (l *LMB) Reserve(base, size uint64) error {
	_, err := l.reserved.add(base, size)
	return err
}

// Alloc is AllocBase without a ceiling.
func (l *LMB) Alloc(size, align uint64) (uint64, error) {
	return l.AllocBase(size, align, AllocAnywhere)
}

// AllocBase finds the highest address A aligned to align such that
// [A, A+size) lies inside a memory region, does not collide with any
// reservation and ends at or below maxAddr. The range
// [A, A+AlignUp(size, align)) is reserved before A is returned.
//
// On failure 0 is returned together with an error, and neither set is
// modified. Address 0 is never handed out.
func (l *LMB) AllocBase(size, align, maxAddr uint64) (uint64, error) {
	if !region.IsPowerOfTwo(align) {
		return 0, &AlignmentError{Align: align}
	}

	if size != 0 {
		for i := l.memory.Len() - 1; i >= 0; i-- {
			mem := l.memory.At(i)
			if mem.Size < size {
				continue
			}

			var top uint64
			switch {
			case maxAddr == AllocAnywhere:
				top = mem.End()
			case mem.Base < maxAddr:
				top = mem.End()
				if maxAddr < top {
					top = maxAddr
				}
			default:
				continue
			}
			if top < size {
				continue
			}

			base := region.AlignDown(top-size, align)
			for base != 0 && base >= mem.Base {
				j := l.reserved.Overlaps(base, size)
				if j == NotFound {
					if _, err := l.reserved.add(base, region.AlignUp(size, align)); err != nil {
						return 0, err
					}
					return base, nil
				}
				resBase := l.reserved.At(j).Base
				if resBase < size {
					break
				}
				base = region.AlignDown(resBase-size, align)
			}
		}
	}

	err := &NoFitError{Size: size, Align: align, MaxAddr: maxAddr}
	log.Warnf("Failed to allocate 0x%x bytes below 0x%x", size, maxAddr)
	return 0, err
}

// AllocAddr reserves exactly [base, base+size). The range must lie inside a
// single memory region and must not collide with any reservation.
func (l *LMB) AllocAddr(base, size uint64) (uint64, error) {
	j := l.memory.Overlaps(base, size)
	if j == NotFound || !l.memory.At(j).Covers(base, size) {
		return 0, &UnavailableError{Base: base, Size: size}
	}
	if l.reserved.Overlaps(base, size) != NotFound {
		return 0, &UnavailableError{Base: base, Size: size}
	}
	if err := l.Reserve(base, size); err != nil {
		return 0, err
	}
	return base, nil
}

// FreeSize returns the amount of free bytes starting at addr, up to the
// next reservation or the end of the memory region containing addr. It
// returns 0 if addr is reserved or is not inside memory.
func (l *LMB) FreeSize(addr uint64) uint64 {
	j := l.memory.Overlaps(addr, 1)
	if j == NotFound {
		return 0
	}
	limit := l.memory.At(j).End()
	for _, r := range l.reserved.regions {
		if r.Contains(addr) {
			return 0
		}
		if r.Base > addr {
			if r.Base < limit {
				limit = r.Base
			}
			break
		}
	}
	return limit - addr
}

// Free releases [base, base+size), which must lie inside a single
// reservation. The boot flow never frees memory; this exists for tooling.
func (l *LMB) Free(base, size uint64) error {
	if size == 0 {
		return nil
	}
	j := NotFound
	for i, r := range l.reserved.regions {
		if r.Covers(base, size) {
			j = i
			break
		}
	}
	if j == NotFound {
		return &NotReservedError{Base: base, Size: size}
	}

	pieces := l.reserved.regions[j].Exclude(region.Region{Base: base, Size: size})
	if len(l.reserved.regions)-1+len(pieces) > l.reserved.capacity {
		return &CapacityError{Set: l.reserved.name, Capacity: l.reserved.capacity}
	}

	l.reserved.remove(j)
	for _, p := range pieces {
		if _, err := l.reserved.add(p.Base, p.Size); err != nil {
			return err
		}
	}
	return nil
}

// IsReserved returns true if addr lies inside any reservation.
//
// Unlike the rest of the package, this check treats a region as the closed
// interval [base, base+size-1]. Both views agree for every region a set can
// hold, since ranges ending at the top of the address space are rejected.
func (l *LMB) IsReserved(addr uint64) bool {
	for _, r := range l.reserved.regions {
		if r.ContainsClosed(addr) {
			return true
		}
	}
	return false
}

// Available returns the parts of memory which are not reserved.
func (l *LMB) Available() region.Regions {
	var result region.Regions
	for _, mem := range l.memory.regions {
		result = append(result, mem.Exclude(l.reserved.regions...)...)
	}
	return result
}

// Check validates the invariants of both region sets.
func (l *LMB) Check() error {
	return multierror.Append(l.memory.Check(), l.reserved.Check()).ErrorOrNil()
}
