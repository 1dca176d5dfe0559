// Copyright © 2021-2026 the dioes authors. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

package dioes

import (
	"fmt"
	"strings"

	"github.com/diogear/dioes/cmd"
	"github.com/diogear/dioes/lang"
)

func (g *Dioes) Apropos() lang.Alt {
	apropos := g.APROPOS
	if apropos == nil {
		apropos = lang.Alt{
			lang.EnUS: "a digital I/O embedded suite",
		}
	}
	return apropos
}

func (g *Dioes) apropos(args ...string) error {
	for _, k := range g.Keys() {
		v := g.ByName[k]
		if cmd.WhatKind(v).IsHidden() {
			continue
		}
		if len(args) > 0 {
			var match bool
			for _, arg := range args {
				if strings.Contains(k, arg) {
					match = true
					break
				}
			}
			if !match {
				continue
			}
		}
		fmt.Printf("%-15s %s\n", k, v.Apropos())
	}
	return nil
}
