// Copyright © 2021-2026 the dioes authors. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

package dioes

import (
	"fmt"
	"strings"
)

func Usage(v Usager) string {
	return fmt.Sprint("usage:\t", strings.TrimSpace(v.Usage()))
}

type Usager interface {
	Usage() string
}

func (g *Dioes) Usage() string {
	usage := g.USAGE
	if len(usage) == 0 {
		usage = `
	dioes COMMAND [ ARGS ]...
	dioes COMMAND -[-]HELPER [ ARGS ]...
	dioes HELPER [ COMMAND ] [ ARGS ]...

	HELPER := { apropos | complete | help | man | usage }`
	}
	return usage
}

func (g *Dioes) usage(args ...string) error {
	var u Usager = g
	if len(args) > 0 {
		u = g.ByName[args[0]]
		if u == nil {
			return fmt.Errorf("%s: not found", args[0])
		}
	}
	fmt.Println(Usage(u))
	return nil
}
