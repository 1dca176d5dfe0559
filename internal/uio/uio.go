// Copyright © 2021-2026 the dioes authors. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

// +build linux

// Package uio opens userspace I/O devices. The kernel delivers device
// interrupts as 4-byte counter reads on the /dev/uioN node; writing a
// one re-enables the interrupt after servicing.
package uio

import (
	"encoding/binary"
	"fmt"
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"
	"syscall"
)

type Dev struct {
	Path  string
	File  *os.File
	Fd    int
	Count uint32 // interrupt count from the last event read
}

// Find returns the /dev/uioN path of the device with the given sysfs
// name.
func Find(name string) (string, error) {
	fis, err := ioutil.ReadDir("/sys/class/uio")
	if err != nil {
		return "", err
	}
	for _, fi := range fis {
		b, err := ioutil.ReadFile(filepath.Join("/sys/class/uio",
			fi.Name(), "name"))
		if err != nil {
			continue
		}
		if strings.TrimSpace(string(b)) == name {
			return "/dev/" + fi.Name(), nil
		}
	}
	return "", fmt.Errorf("uio device %q not found", name)
}

func Open(path string) (*Dev, error) {
	file, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return nil, err
	}
	fd := int(file.Fd())
	if err = syscall.SetNonblock(fd, true); err != nil {
		file.Close()
		return nil, err
	}
	return &Dev{Path: path, File: file, Fd: fd}, nil
}

// EpollAdd registers the device for EPOLLIN events.
func (d *Dev) EpollAdd(epfd int) error {
	event := syscall.EpollEvent{
		Events: syscall.EPOLLIN,
		Fd:     int32(d.Fd),
	}
	return syscall.EpollCtl(epfd, syscall.EPOLL_CTL_ADD, d.Fd, &event)
}

// Ack reads the event counter to clear the pending event.
func (d *Dev) Ack() error {
	data := make([]byte, 4)
	if _, err := d.File.Read(data); err != nil {
		return err
	}
	d.Count = binary.LittleEndian.Uint32(data)
	return nil
}

// IrqEnable unmasks the device interrupt.
func (d *Dev) IrqEnable() error {
	_, err := d.File.Write([]byte{0x01, 0x00, 0x00, 0x00})
	return err
}

// IrqDisable masks the device interrupt.
func (d *Dev) IrqDisable() error {
	_, err := d.File.Write([]byte{0x00, 0x00, 0x00, 0x00})
	return err
}

func (d *Dev) Close() error {
	return d.File.Close()
}
