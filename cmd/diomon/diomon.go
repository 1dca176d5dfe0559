// Copyright © 2021-2026 the dioes authors. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

// Package diomon prints digital I/O state updates as the daemon
// publishes them to redis.
package diomon

import (
	"fmt"
	"strings"

	redigo "github.com/garyburd/redigo/redis"
	"github.com/platinasystems/redis"

	"github.com/diogear/dioes/lang"
)

type Command struct{}

func (Command) String() string { return "diomon" }

func (Command) Usage() string { return "diomon [FIELD]..." }

func (Command) Apropos() lang.Alt {
	return lang.Alt{
		lang.EnUS: "print digital I/O state updates",
	}
}

func (Command) Man() lang.Alt {
	return lang.Alt{
		lang.EnUS: `
DESCRIPTION
	Subscribes to the machine channel and prints dio.* field
	updates: lines, mask, outputs, event. With FIELD arguments,
	prints only the named fields.`,
	}
}

func (Command) Main(args ...string) error {
	psc, err := redis.Subscribe(redis.DefaultHash)
	if err != nil {
		return err
	}
	defer psc.Close()
	for {
		switch t := psc.Receive().(type) {
		case redigo.Message:
			s := string(t.Data)
			if !strings.HasPrefix(s, "dio.") {
				continue
			}
			if len(args) > 0 && !wanted(s, args) {
				continue
			}
			fmt.Println(s)
		case error:
			return t
		}
	}
}

func wanted(s string, fields []string) bool {
	for _, f := range fields {
		if strings.HasPrefix(s, "dio."+f+":") {
			return true
		}
	}
	return false
}
