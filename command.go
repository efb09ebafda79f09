package n64rd

// enterPollBudget bounds Enter's nibble-alignment attempts; dispatchPollBudget
// bounds the G/T command-handshake retries. Both are ~1000 per spec.
const (
	enterPollBudget    = 1000
	dispatchPollBudget = 1000
)

// enter synchronizes nibble alignment with the cartridge and puts it in
// the Awaiting-Command state. It repeatedly exchanges the nibble 0x3,
// shifting each received nibble into an 8-bit sliding window (which so
// holds the last two nibbles), and succeeds once that window equals 'g'
// (0x67). The exact iteration count needed isn't specified by the
// device; the byte alignment emerges from the sliding window itself, so
// calling enter twice in a row is harmless (idempotent): the window
// starts empty on each call and reaches 0x67 again after at least two
// exchanges.
func enter(b Backend) error {
	var window uint8
	for i := 0; i < enterPollBudget; i++ {
		in, err := exchangeNibble(b, 0x3)
		if err != nil {
			return err
		}
		window = (window << 4) | (in & 0x0F)
		if window == 0x67 {
			return nil
		}
	}
	return errTimeout("enter")
}

// dispatch sends the two-byte 'G'/'T' handshake (retried as a pair up to
// dispatchPollBudget times) followed by the command byte. The handshake
// makes the device robust against spurious synchronization: a command
// byte is only accepted once both challenge bytes round-trip correctly.
func dispatch(b Backend, cmd Command) error {
	ok := false
	for i := 0; i < dispatchPollBudget; i++ {
		check, err := exchangeByte(b, 'G')
		if err != nil {
			return err
		}
		if check != 'g' {
			continue
		}
		check, err = exchangeByte(b, 'T')
		if err != nil {
			return err
		}
		if check == 't' {
			ok = true
			break
		}
	}
	if !ok {
		return errTimeout("dispatch handshake")
	}
	_, err := exchangeByte(b, uint8(cmd))
	return err
}
