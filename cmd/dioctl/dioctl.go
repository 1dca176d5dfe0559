// Copyright © 2021-2026 the dioes authors. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

// Package dioctl drives the digital I/O daemon from the command line.
package dioctl

import (
	"fmt"
	"strconv"

	"github.com/platinasystems/atsock"

	"github.com/diogear/dioes/cmd/diod"
	"github.com/diogear/dioes/lang"
)

type Command struct{}

func (Command) String() string { return "dioctl" }

func (Command) Usage() string {
	return "dioctl read | write LINES | mask LINES | wait | powersave | powerrestore"
}

func (Command) Apropos() lang.Alt {
	return lang.Alt{
		lang.EnUS: "control the static digital I/O lines",
	}
}

func (Command) Man() lang.Alt {
	return lang.Alt{
		lang.EnUS: `
DESCRIPTION
	read	print the current state of all 32 lines
	write LINES
		assert LINES on the output lines; the output mask
		applies
	mask LINES
		configure LINES as outputs, the rest as inputs
	wait	park until an input line changes, then print the
		latched line state
	powersave
		quiesce the device ahead of a power transition
	powerrestore
		restore the device after a power transition

	LINES is a 32-bit hex bitmask, one bit per line.`,
	}
}

func (Command) Main(args ...string) error {
	if len(args) == 0 {
		return fmt.Errorf("OPERATION: missing")
	}
	cl, err := atsock.NewRpcClient("diod")
	if err != nil {
		return err
	}
	defer cl.Close()
	op, args := args[0], args[1:]
	switch op {
	case "read":
		var r diod.ReadData
		if err = cl.Call("Dio.Read", struct{}{}, &r); err != nil {
			return err
		}
		fmt.Printf("%#08x\n", r.CurrentLineState)
	case "write":
		v, err := parseLines(args)
		if err != nil {
			return err
		}
		return cl.Call("Dio.Write",
			diod.WriteData{OutputLineState: v}, new(struct{}))
	case "mask":
		v, err := parseLines(args)
		if err != nil {
			return err
		}
		return cl.Call("Dio.SetOutputs",
			diod.SetOutputsData{OutputLines: v}, new(struct{}))
	case "wait":
		var r diod.ChangeData
		err = cl.Call("Dio.WaitForChange", struct{}{}, &r)
		if err != nil {
			return err
		}
		fmt.Printf("%#08x\n", r.LatchedLineState)
	case "powersave":
		return cl.Call("Dio.PowerSave", struct{}{}, new(struct{}))
	case "powerrestore":
		return cl.Call("Dio.PowerRestore", struct{}{}, new(struct{}))
	default:
		return fmt.Errorf("%s: unknown operation", op)
	}
	return nil
}

func parseLines(args []string) (uint32, error) {
	if len(args) == 0 {
		return 0, fmt.Errorf("LINES: missing")
	}
	v, err := strconv.ParseUint(args[0], 0, 32)
	if err != nil {
		return 0, fmt.Errorf("%s: %v", args[0], err)
	}
	return uint32(v), nil
}
