package n64rd

// exchangeByte composes two nibble exchanges into one 8-bit exchange,
// high nibble first, assembling the received byte in the same order.
func exchangeByte(b Backend, out uint8) (uint8, error) {
	hi, err := exchangeNibble(b, out>>4)
	if err != nil {
		return 0, err
	}
	lo, err := exchangeNibble(b, out)
	if err != nil {
		return 0, err
	}
	return (hi << 4) | (lo & 0x0F), nil
}

// exchangeWord32 composes four byte exchanges into one 32-bit exchange,
// most-significant byte first.
func exchangeWord32(b Backend, out uint32) (uint32, error) {
	var in uint32
	for shift := 24; shift >= 0; shift -= 8 {
		v, err := exchangeByte(b, uint8(out>>shift))
		if err != nil {
			return 0, err
		}
		in |= uint32(v) << shift
	}
	return in, nil
}
