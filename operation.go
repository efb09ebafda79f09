package n64rd

import (
	"fmt"

	"go.uber.org/zap"
)

// direction picks which side of the wire the accumulated checksum and
// the payload data flow from.
type direction int

const (
	dirRead direction = iota
	dirWrite
)

// Read copies size bytes from each Range in ranges out of the console's
// CPU memory into data (which must be at least as long as the sum of
// the ranges' sizes, laid out contiguously in range order). The device
// must already be in Awaiting-Command (call Enter first).
func (s *Session) Read(ranges []Range, data []byte, p Progress) error {
	defer s.lock()()
	if err := dispatch(s.backend, CmdRead); err != nil {
		return fmt.Errorf("read: dispatch: %w", err)
	}
	return s.blockTransfer(ranges, data, dirRead, p)
}

// Write copies data into the console's CPU memory across ranges (whose
// sizes must sum to len(data), laid out contiguously in range order).
// The device must already be in Awaiting-Command.
func (s *Session) Write(ranges []Range, data []byte, p Progress) error {
	defer s.lock()()
	if err := dispatch(s.backend, CmdWrite); err != nil {
		return fmt.Errorf("write: dispatch: %w", err)
	}
	return s.blockTransfer(ranges, data, dirWrite, p)
}

// blockTransfer implements the address/size/payload/checksum framing
// shared by READ and WRITE: for each range, send address and size as
// 32-bit exchanges, then exchange one byte per data byte (sending 0 and
// storing the response on a read, or sending the payload byte and
// discarding the response on a write), accumulating an 8-bit wrapping
// checksum over the bytes that flow in the caller's direction. After
// the last range, an extra {0,0} pair terminates the list, then one
// more byte exchange delivers the device's checksum for comparison.
func (s *Session) blockTransfer(ranges []Range, data []byte, dir direction, p Progress) error {
	var sum uint8
	var offset int
	for ri, r := range ranges {
		if _, err := exchangeWord32(s.backend, r.Address); err != nil {
			return fmt.Errorf("block transfer: address: %w", err)
		}
		if _, err := exchangeWord32(s.backend, r.Size); err != nil {
			return fmt.Errorf("block transfer: size: %w", err)
		}
		if offset+int(r.Size) > len(data) {
			return newError(KindInvalidArgument, fmt.Errorf("range %d: size %d exceeds buffer", ri, r.Size))
		}
		buf := data[offset : offset+int(r.Size)]
		for i := range buf {
			var out uint8
			if dir == dirWrite {
				out = buf[i]
			}
			in, err := exchangeByte(s.backend, out)
			if err != nil {
				return fmt.Errorf("block transfer: payload byte %d: %w", i, err)
			}
			if dir == dirRead {
				buf[i] = in
				sum += in
			} else {
				sum += out
			}
			if i&progressChunkMask == progressChunkMask {
				reportProgress(p, ri, uint32(i+1), r.Size)
			}
		}
		reportProgress(p, ri, r.Size, r.Size)
		offset += int(r.Size)
	}

	// Terminate the range list.
	if _, err := exchangeWord32(s.backend, 0); err != nil {
		return fmt.Errorf("block transfer: terminator address: %w", err)
	}
	if _, err := exchangeWord32(s.backend, 0); err != nil {
		return fmt.Errorf("block transfer: terminator size: %w", err)
	}

	deviceSum, err := exchangeByte(s.backend, 0)
	if err != nil {
		return fmt.Errorf("block transfer: checksum: %w", err)
	}
	if deviceSum != sum {
		return errChecksum(sum, deviceSum)
	}
	return nil
}

// Version queries the firmware version string. It must be called while
// the device is in Awaiting-Command and in-game (not the menu): if the
// version scan observes 'g' instead of the '.' sentinel, the device is
// reporting it isn't in Awaiting-Command (typically because it isn't
// running a game), and Version aborts with KindWrongMode.
func (s *Session) Version() (VersionInfo, error) {
	defer s.lock()()
	if err := dispatch(s.backend, CmdVersion); err != nil {
		return VersionInfo{}, fmt.Errorf("version: dispatch: %w", err)
	}

	var buf uint8
	for buf != 0x2E {
		in, err := exchangeByte(s.backend, 0)
		if err != nil {
			return VersionInfo{}, fmt.Errorf("version: scan: %w", err)
		}
		buf = in
		if buf == 'g' {
			return VersionInfo{}, newError(KindWrongMode, fmt.Errorf("version: device not in Awaiting-Command"))
		}
	}

	size, err := exchangeByte(s.backend, 0)
	if err != nil {
		return VersionInfo{}, fmt.Errorf("version: size: %w", err)
	}
	if size == 0 {
		return VersionInfo{}, newError(KindInvalidArgument, fmt.Errorf("version: zero-length string"))
	}

	chars := make([]byte, size)
	for i := range chars {
		c, err := exchangeByte(s.backend, 0)
		if err != nil {
			return VersionInfo{}, fmt.Errorf("version: char %d: %w", i, err)
		}
		chars[i] = c
	}

	s.log.Debug("version", zap.Uint8("size", size), zap.ByteString("version", chars))
	return VersionInfo{Size: size, Version: string(chars)}, nil
}

// Where queries the current run mode (menu or game). As a side effect
// the device drops back to its normal, non-Awaiting-Command state;
// callers must re-Enter before issuing any further command.
func (s *Session) Where() (RunMode, error) {
	defer s.lock()()
	if err := dispatch(s.backend, CmdWhere); err != nil {
		return 0, fmt.Errorf("where: dispatch: %w", err)
	}
	in, err := exchangeByte(s.backend, 0)
	if err != nil {
		return 0, fmt.Errorf("where: %w", err)
	}
	return RunMode(in), nil
}

// Unpause resumes game execution (opcode 0x64; the original source
// calls this both UNPAUSE and EXIT — one name is kept here, see
// DESIGN.md). The caller must re-Enter before issuing further commands.
func (s *Session) Unpause() error {
	defer s.lock()()
	if err := dispatch(s.backend, CmdUnpause); err != nil {
		return fmt.Errorf("unpause: dispatch: %w", err)
	}
	return nil
}
