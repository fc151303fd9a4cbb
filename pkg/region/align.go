// Copyright 2024 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package region

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
)

// IsPowerOfTwo returns true if x is a non-zero power of two.
func IsPowerOfTwo(x uint64) bool {
	return x != 0 && x&(x-1) == 0
}

// AlignDown rounds addr down to a multiple of align, which must be a power
// of two.
func AlignDown(addr, align uint64) uint64 {
	return addr & ^(align - 1)
}

// AlignUp rounds addr up to a multiple of align, which must be a power of
// two.
func AlignUp(addr, align uint64) uint64 {
	return (addr + align - 1) & ^(align - 1)
}

// ParseSize parses an address or a size. Numbers are accepted in the C
// notation ("0x1000", "4096", "010") and sizes may carry a unit ("2MiB",
// "1 GiB"). "~0" stands for all ones.
func ParseSize(s string) (uint64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty value")
	}
	if s == "~0" || s == "~0UL" {
		return ^uint64(0), nil
	}
	if v, err := strconv.ParseUint(s, 0, 64); err == nil {
		return v, nil
	}
	v, err := humanize.ParseBytes(s)
	if err != nil {
		return 0, fmt.Errorf("unable to parse '%s': %w", s, err)
	}
	return v, nil
}
