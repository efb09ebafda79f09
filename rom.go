package n64rd

import "fmt"

// ReadROM dumps the GameShark's own ROM 32 bits at a time. It accepts
// exactly one range; the address is rounded down and the size rounded
// up to a multiple of 4, per spec. Unlike Read, there is no range-list
// terminator: the device knows the transfer is a single range and the
// checksum is the 8-bit wrapping sum of each 32-bit word value (not of
// individual bytes).
func (s *Session) ReadROM(r Range, p Progress) ([]byte, error) {
	defer s.lock()()

	addr := r.Address &^ 3
	size := (r.Size + 3) &^ 3

	if err := dispatch(s.backend, CmdReadROM); err != nil {
		return nil, fmt.Errorf("read rom: dispatch: %w", err)
	}
	if _, err := exchangeWord32(s.backend, addr); err != nil {
		return nil, fmt.Errorf("read rom: address: %w", err)
	}
	if _, err := exchangeWord32(s.backend, size); err != nil {
		return nil, fmt.Errorf("read rom: size: %w", err)
	}

	data := make([]byte, size)
	var sum uint8
	words := size / 4
	for w := uint32(0); w < words; w++ {
		word, err := exchangeWord32(s.backend, 0)
		if err != nil {
			return nil, fmt.Errorf("read rom: word %d: %w", w, err)
		}
		// The accumulator is 8-bit wrapping, so adding the word's full
		// 32-bit value mod 256 is just adding its low byte: the higher
		// bits are multiples of 256 and vanish under truncation.
		sum += uint8(word)
		off := w * 4
		data[off] = byte(word >> 24)
		data[off+1] = byte(word >> 16)
		data[off+2] = byte(word >> 8)
		data[off+3] = byte(word)

		if (off+4)&progressChunkMask == 0 {
			reportProgress(p, 0, off+4, size)
		}
	}
	reportProgress(p, 0, size, size)

	deviceSum, err := exchangeByte(s.backend, 0)
	if err != nil {
		return nil, fmt.Errorf("read rom: checksum: %w", err)
	}
	if deviceSum != sum {
		return nil, errChecksum(sum, deviceSum)
	}
	return data, nil
}
