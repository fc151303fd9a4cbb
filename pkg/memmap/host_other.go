// Copyright 2024 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

//go:build !linux
// +build !linux

package memmap

import (
	"errors"

	"github.com/u-boot/u-boot-sub110/pkg/region"
)

// Host is only supported on Linux.
func Host() (region.Regions, error) {
	return nil, errors.New("reading the host memory map is only supported on linux")
}
