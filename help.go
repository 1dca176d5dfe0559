// Copyright © 2021-2026 the dioes authors. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

package dioes

import (
	"fmt"

	"github.com/diogear/dioes/cmd"
)

func (g *Dioes) Help(args ...string) string {
	g.swap(args)
	if len(args) > 0 {
		if v, found := g.ByName[args[0]]; found {
			if method, found := v.(cmd.Helper); found {
				return method.Help(args[1:]...)
			}
			return Usage(v)
		}
	}
	return Usage(g)
}

func (g *Dioes) help(args ...string) error {
	h := g.Help(args...)
	if len(h) > 0 {
		fmt.Println(h)
	}
	return nil
}
