// Copyright © 2021-2026 the dioes authors. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

package diod

import (
	"errors"
	"time"

	"github.com/diogear/dioes/internal/dio"
)

// Dio is the RPC service dioctl calls on the "diod" socket.
type Dio struct {
	i *Info
}

type ReadData struct {
	CurrentLineState uint32
}

type WriteData struct {
	OutputLineState uint32
}

type SetOutputsData struct {
	OutputLines uint32
}

type ChangeData struct {
	LatchedLineState uint32
}

// Read returns the current state of all 32 lines.
func (s *Dio) Read(_ struct{}, r *ReadData) error {
	lines, err := s.i.dev.ReadLines()
	if err != nil {
		return err
	}
	r.CurrentLineState = lines
	return nil
}

// Write drives state onto the lines configured for output.
func (s *Dio) Write(w WriteData, _ *struct{}) error {
	return s.i.dev.WriteOutputs(w.OutputLineState)
}

// SetOutputs configures line direction, set bits becoming outputs.
func (s *Dio) SetOutputs(m SetOutputsData, _ *struct{}) error {
	if err := s.i.dev.SetOutputMask(m.OutputLines); err != nil {
		return err
	}
	s.i.publish("dio.mask", hex32(m.OutputLines))
	return nil
}

// WaitForChange parks until an input line transition is detected, up
// to WaitTimeout.
func (s *Dio) WaitForChange(_ struct{}, r *ChangeData) error {
	buf := make([]byte, dio.ChangeDataSize)
	req, err := s.i.dev.WaitForChange(buf)
	if err != nil {
		return err
	}
	t := time.NewTimer(WaitTimeout)
	defer t.Stop()
	select {
	case <-req.Done():
	case <-t.C:
		if s.i.dev.Cancel(req) {
			return ErrWaitTimeout
		}
		// completed while being cancelled
		<-req.Done()
	case <-s.i.stop:
		if s.i.dev.Cancel(req) {
			return errors.New("daemon stopping")
		}
		<-req.Done()
	}
	if _, err := req.Result(); err != nil {
		return err
	}
	r.LatchedLineState = req.Latched()
	return nil
}

// PowerSave quiesces interrupts and captures the output state ahead of
// a power transition.
func (s *Dio) PowerSave(_ struct{}, _ *struct{}) error {
	if err := s.i.dev.DisableInterrupts(); err != nil {
		return err
	}
	return s.i.dev.PowerDown()
}

// PowerRestore restores the captured output state and rearms the
// interrupt chain.
func (s *Dio) PowerRestore(_ struct{}, _ *struct{}) error {
	if err := s.i.dev.PowerUp(); err != nil {
		return err
	}
	return s.i.dev.EnableInterrupts()
}
