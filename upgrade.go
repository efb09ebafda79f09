package n64rd

import "fmt"

// Upgrade streams a firmware image to the cartridge. The original
// source declares GS_UPGRADE but never implements its framing beyond
// the command byte (spec.md flags this as unverified against hardware).
// Its one call site (n64rd.c's upgrade()) passes a flat buffer and exact
// size with no extra header, so this implements Upgrade as a single-
// range Write: dispatch CmdUpgrade, then the same address/size/payload/
// checksum framing as Write, with address 0 (the firmware doesn't
// address itself by CPU memory location) and size equal to len(image).
// See DESIGN.md for this decision.
func (s *Session) Upgrade(image []byte, p Progress) error {
	defer s.lock()()
	if len(image) == 0 {
		return newError(KindInvalidArgument, fmt.Errorf("upgrade: empty image"))
	}
	if err := dispatch(s.backend, CmdUpgrade); err != nil {
		return fmt.Errorf("upgrade: dispatch: %w", err)
	}
	ranges := []Range{{Address: 0, Size: uint32(len(image))}}
	return s.blockTransfer(ranges, image, dirWrite, p)
}
