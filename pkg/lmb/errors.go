// Copyright 2024 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package lmb

import (
	"errors"
	"fmt"
)

var (
	// ErrCapacity is matched by every CapacityError.
	ErrCapacity = errors.New("region table is full")

	// ErrNoFit is matched by every NoFitError.
	ErrNoFit = errors.New("no free memory fits the request")
)

// CapacityError means a region set would need more non-adjacent entries
// than its capacity allows.
type CapacityError struct {
	Set      string
	Capacity int
}

func (err *CapacityError) Error() string {
	return fmt.Sprintf("%s: cannot hold more than %d regions", err.Set, err.Capacity)
}

// Is implements errors.Is.
func (err *CapacityError) Is(target error) bool {
	return target == ErrCapacity
}

// NoFitError means no gap of the requested size and alignment was found
// below the ceiling.
type NoFitError struct {
	Size    uint64
	Align   uint64
	MaxAddr uint64
}

func (err *NoFitError) Error() string {
	if err.MaxAddr == AllocAnywhere {
		return fmt.Sprintf("failed to allocate 0x%x bytes (align 0x%x)", err.Size, err.Align)
	}
	return fmt.Sprintf("failed to allocate 0x%x bytes (align 0x%x) below 0x%x", err.Size, err.Align, err.MaxAddr)
}

// Is implements errors.Is.
func (err *NoFitError) Is(target error) bool {
	return target == ErrNoFit
}

// AlignmentError means the requested alignment is not a power of two.
type AlignmentError struct {
	Align uint64
}

func (err *AlignmentError) Error() string {
	return fmt.Sprintf("alignment 0x%x is not a power of two", err.Align)
}

// UnavailableError means a fixed range is outside of the memory or collides
// with a reservation.
type UnavailableError struct {
	Base uint64
	Size uint64
}

func (err *UnavailableError) Error() string {
	return fmt.Sprintf("range [0x%x, 0x%x) is not available", err.Base, err.Base+err.Size)
}

// WrapError means a range runs past the end of the address space.
type WrapError struct {
	Set  string
	Base uint64
	Size uint64
}

func (err *WrapError) Error() string {
	return fmt.Sprintf("%s: range 0x%x+0x%x runs past the end of the address space", err.Set, err.Base, err.Size)
}

// NotReservedError means a range to free is not inside a single reservation.
type NotReservedError struct {
	Base uint64
	Size uint64
}

func (err *NotReservedError) Error() string {
	return fmt.Sprintf("range [0x%x, 0x%x) is not reserved", err.Base, err.Base+err.Size)
}
