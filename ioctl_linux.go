//go:build linux

package n64rd

import (
	ioctl "github.com/daedaluz/goioctl"
)

// Linux parport (ppdev) ioctl numbers, from linux/ppdev.h. Encoded with
// the same IOR/IOW/IO helpers the teacher repo uses for tty ioctls
// (tcgets2/tcsets2 above in the original) and the spi subpackage uses
// for SPI_IOC_MESSAGE.
const ppIOCMagic = 'p'

var (
	ppSetMode = ioctl.IOW(ppIOCMagic, 0x80, 4) // int: IEEE1284 mode
	ppRStatus = ioctl.IOR(ppIOCMagic, 0x81, 1) // unsigned char
	ppWData   = ioctl.IOW(ppIOCMagic, 0x86, 1) // unsigned char
	ppClaim   = ioctl.IO(ppIOCMagic, 0x8b)
	ppRelease = ioctl.IO(ppIOCMagic, 0x8c)
	ppNegot   = ioctl.IOW(ppIOCMagic, 0x91, 4) // int: negotiate into mode
)

// ieee1284ModeNibble is the IEEE1284 reverse-channel mode this driver
// negotiates into (linux/parport.h: IEEE1284_MODE_NIBBLE).
const ieee1284ModeNibble = 0
