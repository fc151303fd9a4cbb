// Copyright 2024 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package lmb

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/u-boot/u-boot-sub110/pkg/region"
)

// highestFit scans every candidate address from the top and returns the
// first one satisfying the allocation constraints, or 0.
func highestFit(memory, reserved region.Regions, size, align, maxAddr uint64) uint64 {
	var top uint64
	for _, m := range memory {
		if m.End() > top {
			top = m.End()
		}
	}
	if maxAddr != AllocAnywhere && maxAddr < top {
		top = maxAddr
	}
	if top < size {
		return 0
	}
	for a := top - size; a > 0; a-- {
		if a%align != 0 {
			continue
		}
		inMemory := false
		for _, m := range memory {
			if m.Covers(a, size) {
				inMemory = true
				break
			}
		}
		if !inMemory {
			continue
		}
		free := true
		for _, r := range reserved {
			if r.Overlaps(a, size) {
				free = false
				break
			}
		}
		if free {
			return a
		}
	}
	return 0
}

func TestAllocBaseProperties(t *testing.T) {
	withRecorder(t)

	const space = 4096
	rnd := rand.New(rand.NewSource(0xb007))

	for round := 0; round < 100; round++ {
		l := NewWithCapacity(64)
		for i := 0; i < 3; i++ {
			require.NoError(t, l.Add(uint64(rnd.Intn(space-512)), uint64(1+rnd.Intn(512))))
		}
		for i := 0; i < 4; i++ {
			require.NoError(t, l.Reserve(uint64(rnd.Intn(space)), uint64(rnd.Intn(64))))
		}

		for step := 0; step < 10; step++ {
			size := uint64(1 + rnd.Intn(128))
			align := uint64(1) << uint(rnd.Intn(7))
			maxAddr := AllocAnywhere
			if rnd.Intn(2) == 0 {
				maxAddr = uint64(rnd.Intn(space))
			}

			memory := l.Memory().Regions()
			reserved := l.Reserved().Regions()
			want := highestFit(memory, reserved, size, align, maxAddr)

			got, err := l.AllocBase(size, align, maxAddr)
			require.Equal(t, want, got, "round %d step %d: size 0x%x align 0x%x max 0x%x, %s",
				round, step, size, align, maxAddr, l)
			if got == 0 {
				require.Error(t, err)
				assert.Equal(t, reserved, l.Reserved().Regions())
				continue
			}
			require.NoError(t, err)

			assert.Zero(t, got%align)
			if maxAddr != AllocAnywhere {
				assert.LessOrEqual(t, got+size, maxAddr)
			}
			for _, r := range reserved {
				assert.False(t, r.Overlaps(got, size))
			}
			for a := got; a < got+size; a++ {
				assert.True(t, l.IsReserved(a))
			}
			require.NoError(t, l.Check())
		}
	}
}
