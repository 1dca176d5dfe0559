// Copyright © 2021-2026 the dioes authors. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

// Dioes is the machine for the 32-line static digital I/O device: a
// redis server, the device daemon, and its control clients in one
// binary.
package main

import (
	"fmt"
	"os"

	"github.com/diogear/dioes"
	"github.com/diogear/dioes/cmd"
	"github.com/diogear/dioes/cmd/dioctl"
	"github.com/diogear/dioes/cmd/diod"
	"github.com/diogear/dioes/cmd/diomon"
	"github.com/diogear/dioes/cmd/redisd"
	"github.com/diogear/dioes/lang"
)

var Dioes = &dioes.Dioes{
	NAME: "dioes",
	APROPOS: lang.Alt{
		lang.EnUS: "a digital I/O embedded suite",
	},
	ByName: map[string]cmd.Cmd{
		"dioctl": dioctl.Command{},
		"diod":   &diod.Command{},
		"diomon": diomon.Command{},
		"redisd": &redisd.Command{Machine: "dioes"},
	},
}

func main() {
	if err := Dioes.Main(os.Args...); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
