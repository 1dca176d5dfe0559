// Copyright © 2021-2026 the dioes authors. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

// Package diod is the 32-line static digital I/O daemon. It maps the
// device register window, services the change-of-state interrupt, and
// serves line operations over an atsock RPC service named "diod".
// Line state and change events publish to redis; the dio.outputs and
// dio.mask hash fields are writable through redis as well.
package diod

import (
	"errors"
	"fmt"
	"net/rpc"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/platinasystems/atsock"
	"github.com/platinasystems/flags"
	"github.com/platinasystems/log"
	"github.com/platinasystems/parms"
	"github.com/platinasystems/redis"
	"github.com/platinasystems/redis/publisher"
	"github.com/platinasystems/redis/rpc/args"
	"github.com/platinasystems/redis/rpc/reply"

	"github.com/diogear/dioes"
	"github.com/diogear/dioes/cmd"
	"github.com/diogear/dioes/internal/dio"
	"github.com/diogear/dioes/internal/dio/dioreg"
	"github.com/diogear/dioes/internal/dio/diosim"
	"github.com/diogear/dioes/internal/fdtdio"
	"github.com/diogear/dioes/internal/uio"
	"github.com/diogear/dioes/lang"
)

const maxIrqEvents = 8

var (
	pollInterval = 5 * time.Second

	// WaitTimeout bounds a parked RPC change-of-state wait.
	WaitTimeout = 30 * time.Second

	ErrWaitTimeout = errors.New("wait for change timed out")
)

type Command struct {
	Info
	Init func()
	init sync.Once
}

type Info struct {
	mutex sync.Mutex
	dev   *dio.Device
	rpc   *atsock.RpcServer
	pub   *publisher.Publisher
	stop  chan struct{}
	poll  bool
	lasts map[string]string
}

func (*Command) String() string { return "diod" }

func (*Command) Usage() string {
	return "diod [-sim] [-uio NAME] [-base PHYS [-size LEN]] [-dtb FILE]"
}

func (*Command) Apropos() lang.Alt {
	return lang.Alt{
		lang.EnUS: "static digital I/O server daemon",
	}
}

func (*Command) Man() lang.Alt {
	return lang.Alt{
		lang.EnUS: `
DESCRIPTION
	Maps the 32-line static digital I/O register window and serves
	line operations over the "diod" socket.
	  -sim	run on a simulated register bank
	  -uio	userspace I/O device name (default "dio")
	  -base	map the window from /dev/mem at this physical address,
		polling instead of waiting for interrupts
	  -size	window length with -base (default the full window)
	  -dtb	find the window in this flattened device tree`,
	}
}

func (*Command) Kind() cmd.Kind { return cmd.Daemon }

func (c *Command) Close() error {
	close(c.stop)
	return nil
}

func (c *Command) Main(arguments ...string) error {
	if c.Init != nil {
		c.init.Do(c.Init)
	}

	flag, arguments := flags.New(arguments, "-sim")
	parm, arguments := parms.New(arguments, "-uio", "-base", "-size",
		"-dtb")
	if len(arguments) > 0 {
		return fmt.Errorf("%v: unexpected", arguments)
	}

	if err := redis.IsReady(); err != nil {
		return err
	}

	c.stop = make(chan struct{})
	c.lasts = make(map[string]string)
	c.dev = dio.New()

	var err error
	if c.pub, err = publisher.New(); err != nil {
		return err
	}
	defer c.pub.Close()

	var bank dioreg.Bank
	var size uint32
	var irqs <-chan struct{}
	var rearm func() error

	switch {
	case flag.ByName["-sim"]:
		sim := diosim.New()
		bank, size = sim, sim.Size()
		irqs = sim.Irq()
	case parm.ByName["-base"] != "" || parm.ByName["-dtb"] != "":
		base, winsize, err := window(parm.ByName["-base"],
			parm.ByName["-size"], parm.ByName["-dtb"])
		if err != nil {
			return err
		}
		mem, err := dioreg.Open("/dev/mem", int64(base), int(winsize))
		if err != nil {
			return err
		}
		defer mem.Close()
		bank, size = mem, uint32(mem.Len())
		c.poll = true
	default:
		udev, mem, err := openUio(parm.ByName["-uio"])
		if err != nil {
			return err
		}
		defer udev.Close()
		defer mem.Close()
		bank, size = mem, uint32(mem.Len())
		events := make(chan struct{}, 8)
		dioes.WG.Add(1)
		go irqLoop(udev, events, c.stop)
		irqs = events
		rearm = udev.IrqEnable
	}

	if err = c.dev.Acquire(bank, size); err != nil {
		return err
	}
	sig, err := c.dev.Probe()
	if err != nil {
		return err
	}
	log.Print("diod: device signature ", fmt.Sprintf("%#x", sig))

	if err = c.dev.PowerUp(); err != nil {
		return err
	}
	if err = c.dev.EnableInterrupts(); err != nil {
		return err
	}

	if c.rpc, err = atsock.NewRpcServer("diod"); err != nil {
		return err
	}
	defer c.rpc.Close()
	rpc.Register(&c.Info)
	rpc.Register(&Dio{&c.Info})
	if err = redis.Assign(redis.DefaultHash+":dio.", "diod",
		"Info"); err != nil {
		return err
	}

	dioes.WG.Add(1)
	go c.deferred()

	if rearm != nil {
		if err = rearm(); err != nil {
			return err
		}
	}

	c.update()
	t := time.NewTicker(pollInterval)
	defer t.Stop()
	for {
		select {
		case <-c.stop:
			c.dev.DisableInterrupts()
			c.dev.Release()
			return nil
		case <-t.C:
			c.update()
		case <-irqs:
			if c.dev.Isr() == dio.NotMine {
				log.Print("diod: spurious interrupt")
			}
			if rearm != nil {
				if err = rearm(); err != nil {
					log.Print("diod: unmask interrupt: ",
						err)
				}
			}
		}
	}
}

// window resolves the physical register window from the -base/-size
// parameters or a device tree.
func window(base, size, dtb string) (uint32, uint32, error) {
	if base == "" {
		return fdtdio.Window(dtb)
	}
	b, err := strconv.ParseUint(base, 0, 32)
	if err != nil {
		return 0, 0, fmt.Errorf("-base %s: %v", base, err)
	}
	s := uint64(dioreg.BarSize)
	if size != "" {
		if s, err = strconv.ParseUint(size, 0, 32); err != nil {
			return 0, 0, fmt.Errorf("-size %s: %v", size, err)
		}
	}
	return uint32(b), uint32(s), nil
}

// openUio opens the userspace I/O node named by -uio, or the node
// whose sysfs name is "dio", and maps the register window from it.
func openUio(name string) (*uio.Dev, *dioreg.Iomem, error) {
	path := name
	if !strings.HasPrefix(path, "/dev/") {
		if name == "" {
			name = "dio"
		}
		var err error
		if path, err = uio.Find(name); err != nil {
			return nil, nil, err
		}
	}
	udev, err := uio.Open(path)
	if err != nil {
		return nil, nil, err
	}
	mem, err := dioreg.Open(path, 0, dioreg.BarSize)
	if err != nil {
		udev.Close()
		return nil, nil, err
	}
	return udev, mem, nil
}

// irqLoop forwards uio interrupt events. Each event is acknowledged by
// reading the counter; the daemon main loop re-enables the interrupt
// after the service routine has run.
func irqLoop(udev *uio.Dev, events chan<- struct{}, stop <-chan struct{}) {
	defer dioes.WG.Done()
	epfd, err := syscall.EpollCreate1(0)
	if err != nil {
		log.Print("diod: epoll create: ", err)
		return
	}
	defer syscall.Close(epfd)
	if err = udev.EpollAdd(epfd); err != nil {
		log.Print("diod: epoll ctl: ", err)
		return
	}
	var revents [maxIrqEvents]syscall.EpollEvent
	for {
		select {
		case <-stop:
			return
		default:
		}
		nevents, err := syscall.EpollWait(epfd, revents[:], 1000)
		if err == syscall.EINTR {
			continue
		}
		if err != nil {
			log.Print("diod: epoll wait: ", err)
			return
		}
		for i := 0; i < nevents; i++ {
			if revents[i].Events&syscall.EPOLLERR != 0 ||
				revents[i].Events&syscall.EPOLLIN == 0 {
				log.Print("diod: epoll error event")
				continue
			}
			if int(revents[i].Fd) != udev.Fd {
				continue
			}
			if err := udev.Ack(); err != nil {
				log.Print("diod: clear event: ", err)
				continue
			}
			select {
			case events <- struct{}{}:
			default:
			}
		}
	}
}

// deferred completes parked change-of-state waits and publishes each
// event's latched line state.
func (c *Command) deferred() {
	defer dioes.WG.Done()
	for {
		select {
		case <-c.stop:
			return
		case <-c.dev.Service():
			latched, _ := c.dev.Deferred()
			c.mutex.Lock()
			c.pub.Print("dio.event: ",
				fmt.Sprintf("%#08x", latched))
			c.mutex.Unlock()
		}
	}
}

// update publishes line and configuration state that changed since the
// last pass. In poll mode it first runs the service routine in place
// of the missing interrupt.
func (c *Command) update() {
	if c.poll {
		c.dev.Isr()
	}
	lines, err := c.dev.ReadLines()
	if err != nil {
		return
	}
	c.publish("dio.lines", hex32(lines))
	c.publish("dio.mask", hex32(c.dev.OutputMask()))
}

func (i *Info) publish(k, v string) {
	i.mutex.Lock()
	defer i.mutex.Unlock()
	if v == i.lasts[k] {
		return
	}
	if i.pub != nil {
		i.pub.Print(k, ": ", v)
	}
	i.lasts[k] = v
}

func hex32(v uint32) string {
	return fmt.Sprintf("%#08x", v)
}

// Hset accepts redis writes of the dio.outputs and dio.mask fields.
func (i *Info) Hset(a args.Hset, r *reply.Hset) error {
	v, err := strconv.ParseUint(strings.TrimSpace(string(a.Value)),
		0, 32)
	if err != nil {
		return err
	}
	switch a.Field {
	case "dio.outputs":
		err = i.dev.WriteOutputs(uint32(v))
	case "dio.mask":
		err = i.dev.SetOutputMask(uint32(v))
	default:
		return fmt.Errorf("%s: unknown field", a.Field)
	}
	if err != nil {
		return err
	}
	i.publish(a.Field, hex32(uint32(v)))
	*r = 1
	return nil
}
