// Copyright 2024 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package lmb

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/u-boot/u-boot-sub110/pkg/log"
	"github.com/u-boot/u-boot-sub110/pkg/region"
)

func withRecorder(t *testing.T) *log.Recorder {
	rec := &log.Recorder{}
	prev := log.DefaultLogger
	log.DefaultLogger = rec
	t.Cleanup(func() { log.DefaultLogger = prev })
	return rec
}

func newBootLMB(t *testing.T) *LMB {
	l := New()
	require.NoError(t, l.Add(0x80000000, 0x40000000))
	require.NoError(t, l.Reserve(0x80000000, 0x00100000))
	return l
}

func TestInitIsEmpty(t *testing.T) {
	l := New()
	require.NoError(t, l.Add(0x1000, 0x1000))
	require.NoError(t, l.Reserve(0x1000, 0x10))

	l.Init()
	assert.Equal(t, 0, l.Memory().Len())
	assert.Equal(t, 0, l.Reserved().Len())
	assert.Equal(t, MaxRegions, l.Memory().Cap())
}

func TestAllocTopOfSingleBank(t *testing.T) {
	l := newBootLMB(t)

	addr, err := l.Alloc(0x00200000, 0x00008000)
	require.NoError(t, err)
	assert.Equal(t, uint64(0xbfe00000), addr)
	assert.Zero(t, addr%0x8000)
	assert.LessOrEqual(t, addr+0x200000, uint64(0xc0000000))
	assert.False(t, region.Region{Base: 0x80000000, Size: 0x100000}.Overlaps(addr, 0x200000))

	assert.Equal(t, region.Regions{
		{Base: 0x80000000, Size: 0x00100000},
		{Base: 0xbfe00000, Size: 0x00200000},
	}, l.Reserved().Regions())
}

func TestAllocSkipsBelowReservation(t *testing.T) {
	l := newBootLMB(t)

	first, err := l.Alloc(0x00200000, 0x00008000)
	require.NoError(t, err)

	second, err := l.Alloc(0x00100000, 0x1000)
	require.NoError(t, err)
	assert.Less(t, second, first)
	assert.Equal(t, uint64(0xbfd00000), second)

	// The second allocation touches the first one and is coalesced with it.
	assert.Equal(t, region.Regions{
		{Base: 0x80000000, Size: 0x00100000},
		{Base: 0xbfd00000, Size: 0x00300000},
	}, l.Reserved().Regions())
}

func TestAllocWalksPastSeveralReservations(t *testing.T) {
	l := New()
	require.NoError(t, l.Add(0x10000, 0x10000))
	require.NoError(t, l.Reserve(0x1f000, 0x1000))
	require.NoError(t, l.Reserve(0x1c800, 0x2000))
	require.NoError(t, l.Reserve(0x1a000, 0x1000))

	addr, err := l.Alloc(0x2000, 0x1000)
	require.NoError(t, err)
	assert.Equal(t, uint64(0x18000), addr)
}

func TestAllocRespectsCeiling(t *testing.T) {
	l := New()
	require.NoError(t, l.Add(0x40000000, 0x10000000))
	require.NoError(t, l.Add(0x80000000, 0x10000000))

	addr, err := l.AllocBase(0x1000, 0x1000, 0x48000000)
	require.NoError(t, err)
	assert.Equal(t, uint64(0x47fff000), addr)

	// A ceiling below every bank cannot be served.
	addr, err = l.AllocBase(0x1000, 0x1000, 0x40000000)
	assert.Zero(t, addr)
	assert.True(t, errors.Is(err, ErrNoFit))

	// Without a ceiling the highest bank wins.
	addr, err = l.Alloc(0x1000, 0x1000)
	require.NoError(t, err)
	assert.Equal(t, uint64(0x8ffff000), addr)
}

func TestAllocFallsBackToLowerBank(t *testing.T) {
	l := New()
	require.NoError(t, l.Add(0x40000000, 0x10000000))
	require.NoError(t, l.Add(0x80000000, 0x1000))
	require.NoError(t, l.Reserve(0x80000000, 0x1000))

	addr, err := l.Alloc(0x1000, 0x1000)
	require.NoError(t, err)
	assert.Equal(t, uint64(0x4ffff000), addr)
}

func TestAllocFailsWhenRAMExhausted(t *testing.T) {
	rec := withRecorder(t)

	l := New()
	require.NoError(t, l.Add(0x0, 0x1000))
	before := l.Reserved().Regions()

	addr, err := l.Alloc(0x2000, 0x10)
	assert.Zero(t, addr)
	var noFit *NoFitError
	require.True(t, errors.As(err, &noFit))
	assert.Equal(t, uint64(0x2000), noFit.Size)
	assert.Equal(t, before, l.Reserved().Regions())
	require.Len(t, rec.Messages, 1)
	assert.Contains(t, rec.Messages[0], "Failed to allocate 0x2000 bytes")
}

func TestAllocNeverReturnsZero(t *testing.T) {
	withRecorder(t)

	l := New()
	require.NoError(t, l.Add(0x0, 0x1000))
	require.NoError(t, l.Reserve(0x800, 0x800))

	addr, err := l.Alloc(0x800, 0x800)
	assert.Zero(t, addr)
	assert.True(t, errors.Is(err, ErrNoFit))
	assert.Equal(t, 1, l.Reserved().Len())
}

func TestAllocRejectsBadAlignment(t *testing.T) {
	l := newBootLMB(t)
	for _, align := range []uint64{0, 3, 0xf} {
		_, err := l.Alloc(0x1000, align)
		var alignErr *AlignmentError
		assert.True(t, errors.As(err, &alignErr), "align 0x%x", align)
	}
	assert.Equal(t, 1, l.Reserved().Len())
}

func TestAllocReservesAlignedSize(t *testing.T) {
	l := New()
	require.NoError(t, l.Add(0x10000, 0x10000))

	addr, err := l.Alloc(0x1800, 0x1000)
	require.NoError(t, err)
	assert.Equal(t, uint64(0x1e000), addr)
	assert.Equal(t, region.Regions{{Base: 0x1e000, Size: 0x2000}}, l.Reserved().Regions())
	for a := addr; a < addr+0x1800; a += 0x100 {
		assert.True(t, l.IsReserved(a))
	}
}

func TestAllocCapacityExhausted(t *testing.T) {
	l := NewWithCapacity(2)
	require.NoError(t, l.Add(0x0, 0x10000))
	require.NoError(t, l.Reserve(0x1000, 0x10))
	require.NoError(t, l.Reserve(0x3000, 0x10))

	addr, err := l.Alloc(0x100, 0x100)
	assert.Zero(t, addr)
	assert.True(t, errors.Is(err, ErrCapacity))
	assert.Equal(t, 2, l.Reserved().Len())
}

func TestReserveCapacityExhausted(t *testing.T) {
	l := New()
	for i := uint64(0); i < MaxRegions; i++ {
		require.NoError(t, l.Reserve(i*2, 1))
	}
	before := l.Reserved().Regions()
	require.Len(t, before, MaxRegions)

	err := l.Reserve(MaxRegions*2, 1)
	var capErr *CapacityError
	require.True(t, errors.As(err, &capErr))
	assert.Equal(t, "reserved", capErr.Set)
	assert.Equal(t, before, l.Reserved().Regions())

	// Coalescing still works on a full table.
	require.NoError(t, l.Reserve(1, 1))
	assert.Equal(t, MaxRegions-1, l.Reserved().Len())
}

func TestIsReserved(t *testing.T) {
	l := newBootLMB(t)
	assert.True(t, l.IsReserved(0x80000000))
	assert.True(t, l.IsReserved(0x800fffff))
	assert.False(t, l.IsReserved(0x80100000))
	assert.False(t, l.IsReserved(0x7fffffff))

	// The top page cannot be booked, so the last byte stays free.
	err := l.Reserve(0xfffffffffffff000, 0x1000)
	var wrapErr *WrapError
	require.True(t, errors.As(err, &wrapErr))
	assert.False(t, l.IsReserved(0xffffffffffffffff))
}

func TestAddRejectsWrap(t *testing.T) {
	l := New()
	for _, r := range []struct{ base, size uint64 }{
		{0xfffffffffffff000, 0x1000},
		{0xfffffffffffff000, 0x2000},
		{^uint64(0), 1},
	} {
		err := l.Add(r.base, r.size)
		var wrapErr *WrapError
		require.True(t, errors.As(err, &wrapErr), "0x%x+0x%x", r.base, r.size)
		assert.Equal(t, "memory", wrapErr.Set)
	}
	assert.Equal(t, 0, l.Memory().Len())

	// A region right below the top stays apart from one at address 0.
	require.NoError(t, l.Add(0xffffffffffffe000, 0x1000))
	require.NoError(t, l.Add(0, 0x10))
	assert.Equal(t, region.Regions{
		{Base: 0, Size: 0x10},
		{Base: 0xffffffffffffe000, Size: 0x1000},
	}, l.Memory().Regions())
}

func TestAllocAddr(t *testing.T) {
	l := newBootLMB(t)

	addr, err := l.AllocAddr(0x90000000, 0x1000)
	require.NoError(t, err)
	assert.Equal(t, uint64(0x90000000), addr)
	assert.True(t, l.IsReserved(0x90000fff))

	var unavailable *UnavailableError
	_, err = l.AllocAddr(0x90000800, 0x1000)
	assert.True(t, errors.As(err, &unavailable), "collides with a reservation")
	_, err = l.AllocAddr(0xbffff000, 0x2000)
	assert.True(t, errors.As(err, &unavailable), "crosses the end of memory")
	_, err = l.AllocAddr(0x10000000, 0x1000)
	assert.True(t, errors.As(err, &unavailable), "outside of memory")
}

func TestFreeSize(t *testing.T) {
	l := newBootLMB(t)
	require.NoError(t, l.Reserve(0xa0000000, 0x1000))

	assert.Equal(t, uint64(0x1ff00000), l.FreeSize(0x80100000))
	assert.Zero(t, l.FreeSize(0x80000000))
	assert.Zero(t, l.FreeSize(0xa0000fff))
	assert.Equal(t, uint64(0xc0000000-0xa0001000), l.FreeSize(0xa0001000))
	assert.Zero(t, l.FreeSize(0x7fffffff))
}

func TestFree(t *testing.T) {
	l := newBootLMB(t)

	require.NoError(t, l.Free(0x80040000, 0x10000))
	assert.Equal(t, region.Regions{
		{Base: 0x80000000, Size: 0x40000},
		{Base: 0x80050000, Size: 0xb0000},
	}, l.Reserved().Regions())

	require.NoError(t, l.Free(0x80000000, 0x40000))
	assert.Equal(t, region.Regions{{Base: 0x80050000, Size: 0xb0000}}, l.Reserved().Regions())

	var notReserved *NotReservedError
	assert.True(t, errors.As(l.Free(0x80040000, 0x20000), &notReserved))
	require.NoError(t, l.Check())
}

func TestFreeSplitNeedsCapacity(t *testing.T) {
	l := NewWithCapacity(1)
	require.NoError(t, l.Reserve(0x1000, 0x1000))

	err := l.Free(0x1400, 0x100)
	assert.True(t, errors.Is(err, ErrCapacity))
	assert.Equal(t, region.Regions{{Base: 0x1000, Size: 0x1000}}, l.Reserved().Regions())
}

func TestAvailable(t *testing.T) {
	l := newBootLMB(t)
	_, err := l.Alloc(0x200000, 0x1000)
	require.NoError(t, err)

	assert.Equal(t, region.Regions{{Base: 0x80100000, Size: 0x3fd00000}}, l.Available())
}

func TestDumpAll(t *testing.T) {
	rec := withRecorder(t)

	l := newBootLMB(t)
	l.DumpAll()

	require.NotEmpty(t, rec.Messages)
	joined := ""
	for _, m := range rec.Messages {
		joined += m + "\n"
	}
	assert.Contains(t, joined, "memory (1 regions, 1.0 GiB)")
	assert.Contains(t, joined, "0x0000000080000000")
	assert.Contains(t, joined, "reserved (1 regions, 1.0 MiB)")
}
