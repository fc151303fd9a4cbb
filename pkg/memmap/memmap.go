// Copyright 2024 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package memmap collects the physical RAM banks and firmware carve-outs
// which seed a memory reservation tracker.
package memmap

import (
	"fmt"

	"github.com/hashicorp/go-multierror"

	"github.com/u-boot/u-boot-sub110/pkg/lmb"
	"github.com/u-boot/u-boot-sub110/pkg/region"
)

// AddBanks registers every bank as usable memory.
func AddBanks(l *lmb.LMB, banks region.Regions) error {
	var result *multierror.Error
	for _, bank := range banks {
		if err := l.Add(bank.Base, bank.Size); err != nil {
			result = multierror.Append(result, fmt.Errorf("unable to add bank %s: %w", bank, err))
		}
	}
	return result.ErrorOrNil()
}

// ReserveAll marks every region as reserved.
func ReserveAll(l *lmb.LMB, regions region.Regions) error {
	var result *multierror.Error
	for _, r := range regions {
		if err := l.Reserve(r.Base, r.Size); err != nil {
			result = multierror.Append(result, fmt.Errorf("unable to reserve %s: %w", r, err))
		}
	}
	return result.ErrorOrNil()
}
