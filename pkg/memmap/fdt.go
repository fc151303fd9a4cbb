// Copyright 2024 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package memmap

import (
	"encoding/binary"
	"errors"
	"fmt"
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/u-root/u-root/pkg/dt"

	"github.com/u-boot/u-boot-sub110/pkg/region"
)

// Default cell sizes of a "reg" property, as defined by the devicetree
// specification.
const (
	DefaultAddressCells = 2
	DefaultSizeCells    = 1
)

// ErrNoRoot means the device tree has no root node.
var ErrNoRoot = errors.New("device tree has no root node")

// Property returns the raw value of the property name of n.
func Property(n *dt.Node, name string) ([]byte, bool) {
	for _, p := range n.Properties {
		if p.Name == name {
			return p.Value, true
		}
	}
	return nil, false
}

// SetProperty replaces the value of the property name of n, adding the
// property if n does not have it yet.
func SetProperty(n *dt.Node, name string, value []byte) {
	for i := range n.Properties {
		if n.Properties[i].Name == name {
			n.Properties[i].Value = value
			return
		}
	}
	n.Properties = append(n.Properties, dt.Property{Name: name, Value: value})
}

func stringProperty(n *dt.Node, name string) string {
	v, ok := Property(n, name)
	if !ok {
		return ""
	}
	return strings.TrimRight(string(v), "\x00")
}

// Child returns the direct child of n called name, or nil.
func Child(n *dt.Node, name string) *dt.Node {
	for _, c := range n.Children {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// Cells returns "#address-cells" and "#size-cells" of n, falling back to
// the given defaults.
func Cells(n *dt.Node, addressCells, sizeCells int) (int, int) {
	if v, ok := Property(n, "#address-cells"); ok && len(v) == 4 {
		addressCells = int(binary.BigEndian.Uint32(v))
	}
	if v, ok := Property(n, "#size-cells"); ok && len(v) == 4 {
		sizeCells = int(binary.BigEndian.Uint32(v))
	}
	return addressCells, sizeCells
}

func readCells(b []byte, n int) (uint64, error) {
	switch n {
	case 1:
		return uint64(binary.BigEndian.Uint32(b)), nil
	case 2:
		return binary.BigEndian.Uint64(b), nil
	}
	return 0, fmt.Errorf("unsupported cell count %d", n)
}

// DecodeReg splits a "reg" property into regions.
func DecodeReg(reg []byte, addressCells, sizeCells int) (region.Regions, error) {
	entrySize := (addressCells + sizeCells) * 4
	if entrySize == 0 || len(reg)%entrySize != 0 {
		return nil, fmt.Errorf("reg length %d is not a multiple of %d", len(reg), entrySize)
	}
	var result region.Regions
	for off := 0; off < len(reg); off += entrySize {
		base, err := readCells(reg[off:], addressCells)
		if err != nil {
			return nil, err
		}
		size, err := readCells(reg[off+addressCells*4:], sizeCells)
		if err != nil {
			return nil, err
		}
		result = append(result, region.Region{Base: base, Size: size})
	}
	return result, nil
}

func isMemoryNode(n *dt.Node) bool {
	if deviceType, ok := Property(n, "device_type"); ok {
		return strings.TrimRight(string(deviceType), "\x00") == "memory"
	}
	return n.Name == "memory" || strings.HasPrefix(n.Name, "memory@")
}

func isDisabled(n *dt.Node) bool {
	status := stringProperty(n, "status")
	return status != "" && status != "okay" && status != "ok"
}

func nodeRegions(n *dt.Node, addressCells, sizeCells int) (region.Regions, error) {
	reg, ok := Property(n, "reg")
	if !ok {
		return nil, nil
	}
	regions, err := DecodeReg(reg, addressCells, sizeCells)
	if err != nil {
		return nil, fmt.Errorf("node '%s': %w", n.Name, err)
	}
	return regions, nil
}

// FromFDT returns the RAM banks described by the memory nodes of a device
// tree, sorted and merged.
func FromFDT(fdt *dt.FDT) (region.Regions, error) {
	if fdt == nil || fdt.RootNode == nil {
		return nil, ErrNoRoot
	}
	addressCells, sizeCells := Cells(fdt.RootNode, DefaultAddressCells, DefaultSizeCells)

	var result region.Regions
	var errs *multierror.Error
	for _, n := range fdt.RootNode.Children {
		if !isMemoryNode(n) || isDisabled(n) {
			continue
		}
		regions, err := nodeRegions(n, addressCells, sizeCells)
		if err != nil {
			errs = multierror.Append(errs, err)
			continue
		}
		result = append(result, regions...)
	}
	result.SortAndMerge()
	return result, errs.ErrorOrNil()
}

// ReservedFromFDT returns the /memreserve/ entries and the ranges of the
// /reserved-memory child nodes of a device tree, in that order.
func ReservedFromFDT(fdt *dt.FDT) (region.Regions, error) {
	if fdt == nil {
		return nil, ErrNoRoot
	}

	var result region.Regions
	for _, e := range fdt.ReserveEntries {
		if e.Size == 0 {
			continue
		}
		result = append(result, region.Region{Base: e.Address, Size: e.Size})
	}
	if fdt.RootNode == nil {
		return result, nil
	}

	parent := Child(fdt.RootNode, "reserved-memory")
	if parent == nil {
		return result, nil
	}
	addressCells, sizeCells := Cells(fdt.RootNode, DefaultAddressCells, DefaultSizeCells)
	addressCells, sizeCells = Cells(parent, addressCells, sizeCells)

	var errs *multierror.Error
	for _, n := range parent.Children {
		if isDisabled(n) {
			continue
		}
		regions, err := nodeRegions(n, addressCells, sizeCells)
		if err != nil {
			errs = multierror.Append(errs, err)
			continue
		}
		result = append(result, regions...)
	}
	return result, errs.ErrorOrNil()
}
