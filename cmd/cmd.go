// Copyright © 2021-2026 the dioes authors. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

// Package cmd describes the interface of dioes commands.
package cmd

import (
	"github.com/diogear/dioes/lang"
)

type Cmd interface {
	Apropos() lang.Alt
	Main(...string) error
	String() string
	Usage() string
}

// Daemons and the command mux implement Close for graceful shutdown.
type Closer interface {
	Close() error
}

type Helper interface {
	Help(...string) string
}

type Maner interface {
	Man() lang.Alt
}
