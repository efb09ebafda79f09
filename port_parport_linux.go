//go:build linux

package n64rd

import (
	"fmt"
	"sync/atomic"
	"syscall"
	"unsafe"

	ioctl "github.com/daedaluz/goioctl"
)

// parportBackend is the kernel-parport-device Backend variant. It opens
// a /dev/parportN character device, claims it exclusively, and
// negotiates IEEE1284 nibble mode, then drives STATUS/DATA through
// ioctl calls rather than read/write — mirroring how the teacher repo's
// spi.Device drives SPI_IOC_MESSAGE and how port_linux.go drives
// tcgets/tcsets, just against ppdev instead of tty or spidev.
type parportBackend struct {
	fd     int
	closed atomic.Bool
}

func openParportBackend(path string) (Backend, error) {
	fd, err := syscall.Open(path, syscall.O_RDWR, 0)
	if err != nil {
		return nil, newError(KindPortUnavailable, fmt.Errorf("open %s: %w", path, err))
	}
	ufd := uintptr(fd)
	if err := ioctl.Ioctl(ufd, ppClaim, 0); err != nil {
		syscall.Close(fd)
		return nil, newError(KindPortUnavailable, fmt.Errorf("PPCLAIM %s: %w", path, err))
	}
	mode := int32(ieee1284ModeNibble)
	if err := ioctl.Ioctl(ufd, ppSetMode, uintptr(unsafe.Pointer(&mode))); err != nil {
		ioctl.Ioctl(ufd, ppRelease, 0)
		syscall.Close(fd)
		return nil, newError(KindPortUnavailable, fmt.Errorf("PPSETMODE %s: %w", path, err))
	}
	if err := ioctl.Ioctl(ufd, ppNegot, uintptr(unsafe.Pointer(&mode))); err != nil {
		ioctl.Ioctl(ufd, ppRelease, 0)
		syscall.Close(fd)
		return nil, newError(KindPortUnavailable, fmt.Errorf("PPNEGOT %s: %w", path, err))
	}
	return &parportBackend{fd: fd}, nil
}

func (p *parportBackend) StatusIn() (byte, error) {
	if p.closed.Load() {
		return 0, newError(KindPortUnavailable, errClosed)
	}
	var status byte
	if err := ioctl.Ioctl(uintptr(p.fd), ppRStatus, uintptr(unsafe.Pointer(&status))); err != nil {
		return 0, fmt.Errorf("PPRSTATUS: %w", err)
	}
	return status, nil
}

func (p *parportBackend) DataOut(b byte) error {
	if p.closed.Load() {
		return newError(KindPortUnavailable, errClosed)
	}
	data := b
	if err := ioctl.Ioctl(uintptr(p.fd), ppWData, uintptr(unsafe.Pointer(&data))); err != nil {
		return fmt.Errorf("PPWDATA: %w", err)
	}
	return nil
}

func (p *parportBackend) Close() error {
	if p.closed.Swap(true) {
		return errClosed
	}
	ioctl.Ioctl(uintptr(p.fd), ppRelease, 0)
	return syscall.Close(p.fd)
}
