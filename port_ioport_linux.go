//go:build linux

package n64rd

import (
	"fmt"
	"sync/atomic"
	"syscall"
)

// ioPortBackend is the raw-ioport Backend variant. True x86 IN/OUT
// instructions aren't reachable from Go without assembly, so this uses
// the same trick the teacher repo uses for everything else in this
// package: open a device node and do positioned reads/writes on it.
// /dev/port exposes the entire ioport space as a seekable byte stream;
// pread/pwrite at offset `base` and `base+1` are equivalent to inb/outb
// on DATA and STATUS. Requires CAP_SYS_RAWIO (root).
type ioPortBackend struct {
	fd     int
	base   int64
	closed atomic.Bool
}

func openIOPortBackend(base uint16) (Backend, error) {
	fd, err := syscall.Open("/dev/port", syscall.O_RDWR, 0)
	if err != nil {
		return nil, newError(KindPortUnavailable, fmt.Errorf("open /dev/port: %w", err))
	}
	return &ioPortBackend{fd: fd, base: int64(base)}, nil
}

func (p *ioPortBackend) StatusIn() (byte, error) {
	if p.closed.Load() {
		return 0, newError(KindPortUnavailable, errClosed)
	}
	var buf [1]byte
	if _, err := syscall.Pread(p.fd, buf[:], p.base+1); err != nil {
		return 0, fmt.Errorf("read STATUS: %w", err)
	}
	return buf[0], nil
}

func (p *ioPortBackend) DataOut(b byte) error {
	if p.closed.Load() {
		return newError(KindPortUnavailable, errClosed)
	}
	buf := [1]byte{b}
	if _, err := syscall.Pwrite(p.fd, buf[:], p.base); err != nil {
		return fmt.Errorf("write DATA: %w", err)
	}
	return nil
}

func (p *ioPortBackend) Close() error {
	if p.closed.Swap(true) {
		return errClosed
	}
	return syscall.Close(p.fd)
}
