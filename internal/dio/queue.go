// Copyright © 2021-2026 the dioes authors. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

package dio

import (
	"encoding/binary"
	"sync"
)

// A Request is a parked change-of-state wait. It completes on the next
// detected input transition, or with an error when cancelled out from
// under the device or the device is released.
type Request struct {
	buf  []byte
	n    int
	err  error
	done chan struct{}
}

// Done is closed once the request has completed.
func (r *Request) Done() <-chan struct{} { return r.done }

// Result reports the completion; call after Done is closed.
func (r *Request) Result() (int, error) { return r.n, r.err }

// Latched decodes the reported line state after a successful
// completion.
func (r *Request) Latched() uint32 {
	return binary.LittleEndian.Uint32(r.buf)
}

func (r *Request) complete(n int, err error) {
	r.n, r.err = n, err
	close(r.done)
}

func putUint32(b []byte, v uint32) {
	binary.LittleEndian.PutUint32(b, v)
}

// pending is the FIFO of parked requests.
type pending struct {
	mu   sync.Mutex
	reqs []*Request
}

func (p *pending) push(r *Request) {
	p.mu.Lock()
	p.reqs = append(p.reqs, r)
	p.mu.Unlock()
}

func (p *pending) pop() *Request {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.reqs) == 0 {
		return nil
	}
	r := p.reqs[0]
	p.reqs = p.reqs[1:]
	return r
}

func (p *pending) remove(r *Request) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i, q := range p.reqs {
		if q == r {
			p.reqs = append(p.reqs[:i], p.reqs[i+1:]...)
			return true
		}
	}
	return false
}

// WaitForChange parks a request until a transition is detected on an
// input line. buf receives the latched line state on completion and
// must hold at least ChangeDataSize bytes.
func (d *Device) WaitForChange(buf []byte) (*Request, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.bank == nil {
		return nil, ErrNotMapped
	}
	if ^d.outputMask == 0 {
		return nil, ErrNoInputLines
	}
	if len(buf) < ChangeDataSize {
		return nil, ErrShortBuffer
	}
	r := &Request{buf: buf, done: make(chan struct{})}
	d.queue.push(r)
	return r, nil
}

// Cancel withdraws a parked request. It reports false when the request
// already completed or was never queued; a cancelled request is never
// completed.
func (d *Device) Cancel(r *Request) bool {
	return d.queue.remove(r)
}
