// Copyright 2024 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package bootm

import (
	"github.com/u-root/u-root/pkg/dt"

	"github.com/u-boot/u-boot-sub110/pkg/region"
)

// Request describes the images of a boot attempt.
type Request struct {
	Kernel      []byte
	Compression string
	// LoadAddr is where the kernel must run from; 0 lets it be placed.
	LoadAddr uint64

	// InitrdAddr and InitrdSize locate the initrd where it was loaded.
	InitrdAddr uint64
	InitrdSize uint64

	// FDT is the parsed device tree, FDTAddr and FDTSize locate the blob
	// where it was loaded. A nil FDT skips every device tree step.
	FDT     *dt.FDT
	FDTAddr uint64
	FDTSize uint64
}

// Prepare runs a whole placement flow: kernel, initrd, device tree
// reservations, command line, device tree relocation and /chosen fixups.
func Prepare(cfg Config, banks region.Regions, req Request) (*Images, error) {
	img, err := Start(cfg, banks)
	if err != nil {
		return nil, err
	}
	if _, err := img.LoadOS(req.Kernel, req.Compression, req.LoadAddr); err != nil {
		return img, err
	}
	if _, err := img.RamdiskHigh(req.InitrdAddr, req.InitrdSize); err != nil {
		return img, err
	}
	if req.FDT != nil {
		if err := img.ReserveFDTRegions(req.FDT); err != nil {
			return img, err
		}
	}
	if _, err := img.GetCmdline(); err != nil {
		return img, err
	}
	if req.FDT == nil {
		return img, nil
	}
	if _, err := img.RelocateFDT(req.FDTAddr, req.FDTSize); err != nil {
		return img, err
	}
	if err := img.FixupChosen(req.FDT); err != nil {
		return img, err
	}
	return img, nil
}
