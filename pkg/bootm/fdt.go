// Copyright 2024 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package bootm

import (
	"encoding/binary"
	"fmt"

	"github.com/hashicorp/go-multierror"
	"github.com/u-root/u-root/pkg/dt"

	"github.com/u-boot/u-boot-sub110/pkg/log"
	"github.com/u-boot/u-boot-sub110/pkg/memmap"
)

// ReserveFDTRegions reserves the /memreserve/ entries and the
// /reserved-memory ranges of the device tree.
func (img *Images) ReserveFDTRegions(fdt *dt.FDT) error {
	regions, err := memmap.ReservedFromFDT(fdt)
	var result *multierror.Error
	if err != nil {
		result = multierror.Append(result, err)
	}
	for _, r := range regions {
		log.Infof("   reserving fdt memory region: addr=%x size=%x", r.Base, r.Size)
		if err := img.lmb.Reserve(r.Base, r.Size); err != nil {
			result = multierror.Append(result, fmt.Errorf("unable to reserve fdt region %s: %w", r, err))
		}
	}
	return result.ErrorOrNil()
}

func addressValue(v uint64, addressCells int) []byte {
	if addressCells == 1 {
		b := make([]byte, 4)
		binary.BigEndian.PutUint32(b, uint32(v))
		return b
	}
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, v)
	return b
}

// FixupChosen writes the command line and the initrd location into the
// /chosen node of the device tree, creating the node if needed.
func (img *Images) FixupChosen(fdt *dt.FDT) error {
	if fdt == nil || fdt.RootNode == nil {
		return memmap.ErrNoRoot
	}
	root := fdt.RootNode

	chosen := memmap.Child(root, "chosen")
	if chosen == nil {
		chosen = &dt.Node{Name: "chosen"}
		root.Children = append(root.Children, chosen)
	}

	memmap.SetProperty(chosen, "bootargs", append([]byte(img.cfg.Bootargs), 0))

	if img.Initrd.Size != 0 {
		addressCells, _ := memmap.Cells(root, memmap.DefaultAddressCells, memmap.DefaultSizeCells)
		memmap.SetProperty(chosen, "linux,initrd-start", addressValue(img.Initrd.Addr, addressCells))
		memmap.SetProperty(chosen, "linux,initrd-end", addressValue(img.Initrd.End(), addressCells))
	}
	return nil
}
