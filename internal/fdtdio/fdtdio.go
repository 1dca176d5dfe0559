// Copyright © 2021-2026 the dioes authors. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

// Package fdtdio finds the digital I/O register window in a flattened
// device tree.
package fdtdio

import (
	"fmt"
	"io/ioutil"

	"github.com/platinasystems/fdt"
)

// Compatible is the device tree binding of the 32-line static digital
// I/O device.
const Compatible = "osr,static-dio"

const DefaultFile = "/boot/linux.dtb"

// Window reports the physical base and size of the register window
// from the reg = <base size> property of the first Compatible node in
// the dtb file.
func Window(file string) (base, size uint32, err error) {
	b, err := ioutil.ReadFile(file)
	if err != nil {
		return 0, 0, err
	}
	t := &fdt.Tree{Debug: false, IsLittleEndian: false}
	if err = t.Parse(b); err != nil {
		return 0, 0, err
	}
	var found bool
	t.EachProperty("compatible", Compatible,
		func(n *fdt.Node, name, value string) {
			if found {
				return
			}
			reg, ok := n.Properties["reg"]
			if !ok {
				return
			}
			cells := t.PropUint32Slice(reg)
			if len(cells) < 2 {
				return
			}
			base, size = cells[0], cells[1]
			found = true
		})
	if !found {
		err = fmt.Errorf("%s: no %q node with a reg window",
			file, Compatible)
	}
	return
}
