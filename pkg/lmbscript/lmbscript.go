// Copyright 2024 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package lmbscript interprets plans of memory reservation operations.
//
// A plan is a text file with one operation per line:
//
//	# 1GiB of RAM at 2GiB, firmware at the bottom
//	add         0x80000000 1GiB
//	reserve     0x80000000 1MiB
//	alloc       2MiB 0x8000
//	alloc_base  1MiB 0x1000 0x90000000
//	alloc_addr  0x88000000 0x1000
//	free        0x88000000 0x1000
//	is_reserved 0xbfe00000
//	free_size   0x80100000
//	check
//	dump
//
// Numbers use the C notation or carry a size unit.
package lmbscript

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/u-boot/u-boot-sub110/pkg/lmb"
	"github.com/u-boot/u-boot-sub110/pkg/region"
)

// Operation arities.
var arity = map[string]int{
	"add":         2,
	"reserve":     2,
	"alloc":       2,
	"alloc_base":  3,
	"alloc_addr":  2,
	"free":        2,
	"is_reserved": 1,
	"free_size":   1,
	"check":       0,
	"dump":        0,
}

// Step is one parsed operation.
type Step struct {
	Line int
	Op   string
	Args []uint64
}

func (s Step) String() string {
	args := make([]string, 0, len(s.Args))
	for _, a := range s.Args {
		args = append(args, fmt.Sprintf("0x%x", a))
	}
	return strings.TrimSpace(s.Op + " " + strings.Join(args, " "))
}

// SyntaxError points to an invalid line of a plan.
type SyntaxError struct {
	Line int
	Err  error
}

func (err *SyntaxError) Error() string {
	return fmt.Sprintf("line %d: %v", err.Line, err.Err)
}

func (err *SyntaxError) Unwrap() error {
	return err.Err
}

// Parse reads a plan.
func Parse(r io.Reader) ([]Step, error) {
	var steps []Step
	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		text := scanner.Text()
		if idx := strings.IndexByte(text, '#'); idx >= 0 {
			text = text[:idx]
		}
		fields := strings.Fields(text)
		if len(fields) == 0 {
			continue
		}

		op := strings.ToLower(fields[0])
		n, ok := arity[op]
		if !ok {
			return nil, &SyntaxError{Line: line, Err: fmt.Errorf("unknown operation '%s'", fields[0])}
		}
		if len(fields)-1 != n {
			return nil, &SyntaxError{Line: line, Err: fmt.Errorf("'%s' expects %d arguments, got %d", op, n, len(fields)-1)}
		}

		step := Step{Line: line, Op: op}
		for _, f := range fields[1:] {
			v, err := region.ParseSize(f)
			if err != nil {
				return nil, &SyntaxError{Line: line, Err: err}
			}
			step.Args = append(step.Args, v)
		}
		steps = append(steps, step)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return steps, nil
}

// StepError is a failed step which stopped a plan.
type StepError struct {
	Step Step
	Err  error
}

func (err *StepError) Error() string {
	return fmt.Sprintf("line %d (%s): %v", err.Step.Line, err.Step, err.Err)
}

func (err *StepError) Unwrap() error {
	return err.Err
}

// Run executes the steps against l and writes their outcome to w.
//
// Allocation and free failures are reported and the plan goes on, as a
// boot flow would fall back to another image. Any other failure stops the
// plan.
func Run(l *lmb.LMB, steps []Step, w io.Writer) error {
	for _, step := range steps {
		if err := runStep(l, step, w); err != nil {
			return &StepError{Step: step, Err: err}
		}
	}
	return nil
}

func recoverable(err error) bool {
	var unavailable *lmb.UnavailableError
	var notReserved *lmb.NotReservedError
	return errors.Is(err, lmb.ErrNoFit) || errors.As(err, &unavailable) || errors.As(err, &notReserved)
}

func runStep(l *lmb.LMB, step Step, w io.Writer) error {
	a := step.Args
	var (
		addr uint64
		err  error
	)
	switch step.Op {
	case "add":
		return l.Add(a[0], a[1])
	case "reserve":
		return l.Reserve(a[0], a[1])
	case "alloc":
		addr, err = l.Alloc(a[0], a[1])
	case "alloc_base":
		addr, err = l.AllocBase(a[0], a[1], a[2])
	case "alloc_addr":
		addr, err = l.AllocAddr(a[0], a[1])
	case "free":
		err = l.Free(a[0], a[1])
		if err == nil {
			fmt.Fprintf(w, "%s: ok\n", step)
			return nil
		}
	case "is_reserved":
		state := "free"
		if l.IsReserved(a[0]) {
			state = "reserved"
		}
		fmt.Fprintf(w, "%s: %s\n", step, state)
		return nil
	case "free_size":
		fmt.Fprintf(w, "%s: 0x%x\n", step, l.FreeSize(a[0]))
		return nil
	case "check":
		return l.Check()
	case "dump":
		l.Dump(w)
		return nil
	default:
		return fmt.Errorf("unknown operation '%s'", step.Op)
	}

	if err != nil {
		if !recoverable(err) {
			return err
		}
		fmt.Fprintf(w, "%s: failed: %v\n", step, err)
		return nil
	}
	fmt.Fprintf(w, "%s: 0x%x\n", step, addr)
	return nil
}
