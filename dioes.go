// Copyright © 2021-2026 the dioes authors. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

// Package dioes provides the command multiplexer of the digital I/O
// embedded suite. A machine main plots its commands into a Dioes then
// runs it on os.Args.
package dioes

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"syscall"

	"github.com/platinasystems/log"

	"github.com/diogear/dioes/cmd"
	"github.com/diogear/dioes/lang"
)

var (
	// WG defers daemon exit until its service goroutines finish.
	WG sync.WaitGroup

	// Stop is closed when the running daemon should cease operation.
	Stop = make(chan struct{})
)

type Dioes struct {
	NAME    string
	USAGE   string
	APROPOS lang.Alt
	MAN     lang.Alt

	ByName map[string]cmd.Cmd

	keys []string
}

func (g *Dioes) String() string { return g.NAME }

// Main runs the named command. The program name is skipped if it matches
// the mux name, so both "dioes COMMAND" and an argv spliced by a COMMAND
// symlink resolve the same way.
func (g *Dioes) Main(args ...string) error {
	if len(args) > 0 {
		base := filepath.Base(args[0])
		if base == g.NAME {
			args = args[1:]
		}
	}
	if len(args) == 0 {
		return g.usage()
	}
	g.swap(args)
	name := args[0]
	args = args[1:]
	switch strings.TrimLeft(name, "-") {
	case "apropos":
		return g.apropos(args...)
	case "complete":
		for _, s := range g.Complete(args...) {
			fmt.Println(s)
		}
		return nil
	case "help":
		return g.help(args...)
	case "man":
		return g.man(args...)
	case "usage":
		return g.usage(args...)
	}
	v, found := g.ByName[name]
	if !found {
		return fmt.Errorf("%s: command not found", name)
	}
	var err error
	if cmd.WhatKind(v).IsDaemon() {
		err = g.daemon(v, args...)
	} else {
		err = v.Main(args...)
	}
	if err != nil {
		err = fmt.Errorf("%s: %w", name, err)
	}
	return err
}

// daemon runs v in the foreground until it returns or the process gets
// an interrupt or termination signal; process supervision is left to
// the init system.
func (g *Dioes) daemon(v cmd.Cmd, args ...string) error {
	done := make(chan error, 1)
	go func() { done <- v.Main(args...) }()
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sig)
	select {
	case err := <-done:
		return err
	case t := <-sig:
		log.Print("daemon", "info", v, ": ", t)
		close(Stop)
		if method, found := v.(cmd.Closer); found {
			method.Close()
		}
		err := <-done
		WG.Wait()
		return err
	}
}

// swap transposes "COMMAND -HELPER" to "HELPER COMMAND".
func (g *Dioes) swap(args []string) {
	if len(args) > 1 {
		opt := strings.TrimLeft(args[1], "-")
		switch opt {
		case "apropos", "complete", "help", "man", "usage":
			args[0], args[1] = opt, args[0]
		}
	}
}

func (g *Dioes) Keys() []string {
	if len(g.keys) != len(g.ByName) {
		g.keys = make([]string, 0, len(g.ByName))
		for k := range g.ByName {
			g.keys = append(g.keys, k)
		}
		sort.Strings(g.keys)
	}
	return g.keys
}

func (g *Dioes) Complete(args ...string) (ss []string) {
	var prefix string
	if len(args) > 0 {
		prefix = args[len(args)-1]
	}
	for _, k := range g.Keys() {
		if strings.HasPrefix(k, prefix) {
			ss = append(ss, k)
		}
	}
	return
}
