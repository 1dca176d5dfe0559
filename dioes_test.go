// Copyright © 2021-2026 the dioes authors. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

package dioes

import (
	"strings"
	"testing"

	"github.com/diogear/dioes/cmd"
	"github.com/diogear/dioes/lang"
)

type testCmd struct{ ran []string }

func (*testCmd) String() string { return "test" }
func (*testCmd) Usage() string  { return "test [ARG]..." }
func (*testCmd) Apropos() lang.Alt {
	return lang.Alt{lang.EnUS: "a test command"}
}
func (c *testCmd) Main(args ...string) error {
	c.ran = args
	return nil
}

func testMux(tc *testCmd) *Dioes {
	return &Dioes{
		NAME:   "dioes",
		ByName: map[string]cmd.Cmd{"test": tc},
	}
}

func TestMuxRuns(t *testing.T) {
	tc := new(testCmd)
	g := testMux(tc)
	if err := g.Main("dioes", "test", "a", "b"); err != nil {
		t.Fatal(err)
	}
	if len(tc.ran) != 2 || tc.ran[0] != "a" || tc.ran[1] != "b" {
		t.Fatalf("ran %v, want [a b]", tc.ran)
	}
}

func TestMuxNotFound(t *testing.T) {
	g := testMux(new(testCmd))
	err := g.Main("dioes", "bogus")
	if err == nil || !strings.Contains(err.Error(), "not found") {
		t.Fatalf("got %v, want not found", err)
	}
}

func TestComplete(t *testing.T) {
	g := testMux(new(testCmd))
	ss := g.Complete("te")
	if len(ss) != 1 || ss[0] != "test" {
		t.Fatalf("complete %v, want [test]", ss)
	}
	if ss = g.Complete("zz"); len(ss) != 0 {
		t.Fatalf("complete %v, want none", ss)
	}
}

func TestHelperSwap(t *testing.T) {
	g := testMux(new(testCmd))
	if s := g.Help("test"); !strings.Contains(s, "test [ARG]...") {
		t.Fatalf("help %q", s)
	}
	args := []string{"test", "-help"}
	g.swap(args)
	if args[0] != "help" || args[1] != "test" {
		t.Fatalf("swap %v", args)
	}
}
