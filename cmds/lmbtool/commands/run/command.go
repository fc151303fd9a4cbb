// Copyright 2024 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package run

import (
	"fmt"
	"io"
	"os"

	"github.com/u-boot/u-boot-sub110/cmds/lmbtool/commands"
	"github.com/u-boot/u-boot-sub110/pkg/lmb"
	"github.com/u-boot/u-boot-sub110/pkg/lmbscript"
)

var _ commands.Command = (*Command)(nil)

// Command is the "run" verb.
type Command struct {
	PlanPath string `short:"f" long:"plan" description:"path to the plan file, '-' for stdin" required:"true"`
	Capacity int    `long:"capacity" description:"capacity of each region set" default:"8"`
	Dump     bool   `long:"dump" description:"print both region sets when the plan is done"`

	stdout io.Writer
}

// ShortDescription explains what this command does in one line
func (cmd *Command) ShortDescription() string {
	return "executes a plan of memory reservation operations"
}

// LongDescription explains what this verb does (without limitation in amount of lines)
func (cmd *Command) LongDescription() string {
	return `Executes a plan file against an empty memory reservation tracker.

Every line holds one operation: add, reserve, alloc, alloc_base, alloc_addr,
free, is_reserved, free_size, check or dump. Numbers use the C notation or
carry a size unit (e.g. 2MiB). '#' starts a comment.`
}

// Execute is the main function here. It is responsible to
// start the execution of the command.
//
// `args` are the arguments left unused by verb itself and options.
func (cmd *Command) Execute(args []string) error {
	if len(args) != 0 {
		return commands.ErrArgs{Err: fmt.Errorf("there are extra arguments")}
	}
	if cmd.Capacity <= 0 {
		return commands.ErrArgs{Err: fmt.Errorf("capacity must be positive, got %d", cmd.Capacity)}
	}
	out := cmd.stdout
	if out == nil {
		out = os.Stdout
	}

	var in io.Reader = os.Stdin
	if cmd.PlanPath != "-" {
		f, err := os.Open(cmd.PlanPath)
		if err != nil {
			return fmt.Errorf("unable to open the plan file '%s': %w", cmd.PlanPath, err)
		}
		defer f.Close()
		in = f
	}

	steps, err := lmbscript.Parse(in)
	if err != nil {
		return fmt.Errorf("unable to parse the plan: %w", err)
	}

	l := lmb.NewWithCapacity(cmd.Capacity)
	if err := lmbscript.Run(l, steps, out); err != nil {
		return err
	}
	if cmd.Dump {
		l.Dump(out)
	}
	return nil
}
