package n64rd

// nibblePollBudget bounds the busy-wait spins in exchangeNibble. The
// device is expected to respond within microseconds; exceeding this
// budget means the link is dead or the cartridge isn't listening.
const nibblePollBudget = 100000

// exchangeNibble trades one 4-bit value in each direction with the
// cartridge over a single strobe/handshake cycle.
//
// Wire encoding: STATUS bit 0x08 is the shared ready/busy handshake
// line; STATUS bits [7:4] carry the inbound nibble, XORed with 0x08 to
// normalize the bit shared with the handshake line. DATA's low nibble
// carries the outbound value; DATA bit 0x10 is the host strobe.
//
// The cartridge is the timing master on the return path (it asserts
// 0x08 when its nibble is ready); the host is the timing master on the
// send path (it asserts the strobe once it has placed data on the
// bus). Each call performs exactly one exchange in both directions or
// returns a Timeout.
func exchangeNibble(b Backend, out nibble4) (nibble4, error) {
	status, err := b.StatusIn()
	if err != nil {
		return 0, err
	}

	// Drain: if the handshake line is already asserted from a prior
	// exchange, clear it before starting a new one.
	if status&handshakeMask != 0 {
		if err := b.DataOut(0x00); err != nil {
			return 0, err
		}
		ok := false
		for i := 0; i < nibblePollBudget; i++ {
			status, err = b.StatusIn()
			if err != nil {
				return 0, err
			}
			if status&handshakeMask == 0 {
				ok = true
				break
			}
		}
		if !ok {
			return 0, errTimeout("nibble drain")
		}
	}

	// Send: place the outbound nibble on the bus and assert the strobe.
	if err := b.DataOut((out & nibbleDataMask) | strobeMask); err != nil {
		return 0, err
	}

	// Wait: spin until the cartridge re-asserts the handshake line,
	// indicating its nibble is ready to be read.
	ok := false
	for i := 0; i < nibblePollBudget; i++ {
		status, err = b.StatusIn()
		if err != nil {
			return 0, err
		}
		if status&handshakeMask != 0 {
			ok = true
			break
		}
	}
	if !ok {
		return 0, errTimeout("nibble wait")
	}

	// Receive: the four STATUS high bits are the inbound nibble, XORed
	// with 0x08 to normalize the bit that overlaps the handshake line.
	in := ((status & nibbleReadMask) >> 4) ^ 0x08

	// Reset for the next exchange.
	if err := b.DataOut(0x00); err != nil {
		return 0, err
	}

	return in, nil
}
