package n64rd

import "testing"

func newSessionWithLoopback(l *loopbackBackend) *Session {
	return &Session{backend: l, log: nopLogger()}
}

// mustEnter calls Session.Enter, which every test below needs first
// since Read/Write/Version/Where/Unpause never call it implicitly.
func mustEnter(t *testing.T, s *Session) {
	t.Helper()
	if err := s.Enter(); err != nil {
		t.Fatalf("Enter: %v", err)
	}
}

// fillAddrSize queues 16 don't-care nibbles, enough for one
// exchangeWord32(address) + exchangeWord32(size) pair (each a 4-byte,
// 8-nibble exchange) whose response value the caller under test never
// inspects.
func fillAddrSize(l *loopbackBackend) {
	l.queueNibbles(make([]nibble4, 16)...)
}

// fillPayload queues 2*n don't-care nibbles, enough for n byte
// exchanges whose response is discarded (the WRITE direction of a
// block transfer).
func fillPayload(l *loopbackBackend, n int) {
	l.queueNibbles(make([]nibble4, 2*n)...)
}

// TestVersionScenarioB is spec.md §8 Scenario B.
func TestVersionScenarioB(t *testing.T) {
	l := newEnteredLoopback()
	l.queueBytes(0x00, 0x00, 0x2E, 0x05, 'v', '1', '.', '0', '0')
	s := newSessionWithLoopback(l)
	mustEnter(t, s)

	v, err := s.Version()
	if err != nil {
		t.Fatalf("Version: %v", err)
	}
	if v.Size != 5 || v.Version != "v1.00" {
		t.Fatalf("got %+v, want {Size:5 Version:v1.00}", v)
	}
}

func TestVersionWrongMode(t *testing.T) {
	l := newEnteredLoopback()
	l.queueBytes(0x00, 'g')
	s := newSessionWithLoopback(l)
	mustEnter(t, s)

	_, err := s.Version()
	var perr *Error
	if !asError(err, &perr) || perr.Kind != KindWrongMode {
		t.Fatalf("expected KindWrongMode, got %v", err)
	}
}

// TestWhereScenarioC is spec.md §8 Scenario C.
func TestWhereScenarioC(t *testing.T) {
	l := newEnteredLoopback()
	l.queueBytes(0x02)
	s := newSessionWithLoopback(l)
	mustEnter(t, s)

	mode, err := s.Where()
	if err != nil {
		t.Fatalf("Where: %v", err)
	}
	if mode != ModeGame {
		t.Fatalf("got %v, want ModeGame", mode)
	}
}

// TestReadScenarioD is spec.md §8 Scenario D: checksum success.
func TestReadScenarioD(t *testing.T) {
	l := newEnteredLoopback()
	fillAddrSize(l)
	l.queueBytes(0x01, 0x02, 0x03, 0x04) // the four payload bytes
	fillAddrSize(l)                      // terminator {0,0}
	l.queueBytes(0x0A)                   // device checksum byte
	s := newSessionWithLoopback(l)
	mustEnter(t, s)

	data := make([]byte, 4)
	ranges := []Range{{Address: 0x80000000, Size: 4}}
	if err := s.Read(ranges, data, nil); err != nil {
		t.Fatalf("Read: %v", err)
	}
	if data[0] != 1 || data[1] != 2 || data[2] != 3 || data[3] != 4 {
		t.Fatalf("got %v, want [1 2 3 4]", data)
	}
}

// TestReadScenarioE is spec.md §8 Scenario E: checksum failure.
func TestReadScenarioE(t *testing.T) {
	l := newEnteredLoopback()
	fillAddrSize(l)
	l.queueBytes(0x01, 0x02, 0x03, 0x04)
	fillAddrSize(l)    // terminator {0,0}
	l.queueBytes(0x0B) // device reports a different checksum than it should
	s := newSessionWithLoopback(l)
	mustEnter(t, s)

	data := make([]byte, 4)
	ranges := []Range{{Address: 0x80000000, Size: 4}}
	err := s.Read(ranges, data, nil)
	var perr *Error
	if !asError(err, &perr) || perr.Kind != KindChecksumMismatch {
		t.Fatalf("expected KindChecksumMismatch, got %v", err)
	}
	if perr.Received != 0x0A || perr.Expected != 0x0B {
		t.Fatalf("got received=0x%02X expected=0x%02X, want received=0x0A expected=0x0B", perr.Received, perr.Expected)
	}
}

// TestFramingTermination is spec.md §8 invariant 4: a Read/Write over a
// range list of n ranges emits exactly n+1 address/size pairs, the last
// being {0,0}. The wire pairs aren't individually observable through
// the Backend interface, so this checks the functional consequence: the
// scripted responses for exactly n+1 address/size pairs (plus payload
// and checksum) are consumed with nothing left over.
func TestFramingTermination(t *testing.T) {
	l := newEnteredLoopback()
	fillAddrSize(l) // range 1: address+size
	l.queueBytes(0x01, 0x02)
	fillAddrSize(l) // range 2: address+size
	l.queueBytes(0x03)
	fillAddrSize(l)    // terminator {0,0}
	l.queueBytes(0x06) // 1+2+3
	s := newSessionWithLoopback(l)
	mustEnter(t, s)

	data := make([]byte, 3)
	ranges := []Range{{Address: 0x1000, Size: 2}, {Address: 0x2000, Size: 1}}
	if err := s.Read(ranges, data, nil); err != nil {
		t.Fatalf("Read: %v", err)
	}
	if len(l.resp) != 0 {
		t.Fatalf("%d scripted responses left unconsumed", len(l.resp))
	}
}

// TestReadROMScenarioF is spec.md §8 Scenario F: alignment and the
// per-word (not per-byte) checksum.
func TestReadROMScenarioF(t *testing.T) {
	l := newEnteredLoopback()
	fillAddrSize(l)
	// Two 32-bit words: 0x01020304 and 0x05060708.
	l.queueBytes(0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08)
	l.queueBytes(byte(0x04 + 0x08)) // wrapping sum of the two words' values
	s := newSessionWithLoopback(l)
	mustEnter(t, s)

	data, err := s.ReadROM(Range{Address: 0x10000001, Size: 5}, nil)
	if err != nil {
		t.Fatalf("ReadROM: %v", err)
	}
	want := []byte{0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08}
	if len(data) != len(want) {
		t.Fatalf("got %d bytes, want %d", len(data), len(want))
	}
	for i := range want {
		if data[i] != want[i] {
			t.Fatalf("byte %d: got 0x%02X, want 0x%02X", i, data[i], want[i])
		}
	}
}

// TestROMAlignment is spec.md §8 invariant 5, isolated from the data
// content: for any {addr, size}, READ_ROM must round addr down and size
// up to a multiple of 4. Verified indirectly: requesting a misaligned
// 5-byte range must produce an 8-byte (2-word) result.
func TestROMAlignment(t *testing.T) {
	l := newEnteredLoopback()
	fillAddrSize(l)
	l.queueBytes(0, 0, 0, 0, 0, 0, 0, 0)
	l.queueBytes(0)
	s := newSessionWithLoopback(l)
	mustEnter(t, s)

	data, err := s.ReadROM(Range{Address: 0x10000001, Size: 5}, nil)
	if err != nil {
		t.Fatalf("ReadROM: %v", err)
	}
	if len(data) != 8 {
		t.Fatalf("got %d bytes, want 8 (size 5 rounded up to 8)", len(data))
	}
}

// TestReadROMProgressCadence checks the 16384-byte callback cadence for
// ReadROM, whose offsets advance in word-sized (4-byte) steps rather
// than the byte-sized steps blockTransfer uses.
func TestReadROMProgressCadence(t *testing.T) {
	const size = 16384*2 + 12 // already a multiple of 4
	l := newEnteredLoopback()
	fillAddrSize(l)
	payload := make([]byte, size)
	l.queueBytes(payload...)
	l.queueBytes(0)
	s := newSessionWithLoopback(l)
	mustEnter(t, s)

	var calls []uint32
	p := ProgressFunc(func(_ int, transferred, _ uint32) {
		calls = append(calls, transferred)
	})
	data, err := s.ReadROM(Range{Address: 0, Size: size}, p)
	if err != nil {
		t.Fatalf("ReadROM: %v", err)
	}
	if len(data) != size {
		t.Fatalf("got %d bytes, want %d", len(data), size)
	}
	if len(calls) != 3 {
		t.Fatalf("got %d progress calls, want 3 (two cadence + one final), calls=%v", len(calls), calls)
	}
	if calls[0] != 16384 || calls[1] != 32768 || calls[2] != size {
		t.Fatalf("unexpected cadence: %v", calls)
	}
}

func TestWriteChecksum(t *testing.T) {
	l := newEnteredLoopback()
	fillAddrSize(l)
	fillPayload(l, 3) // device's per-byte responses during WRITE are discarded
	fillAddrSize(l)   // terminator
	l.queueBytes(byte(1 + 2 + 3))
	s := newSessionWithLoopback(l)
	mustEnter(t, s)

	data := []byte{1, 2, 3}
	ranges := []Range{{Address: 0x1000, Size: 3}}
	// The loopback only scripts a matching device checksum (1+2+3), so
	// a nil error here proves the host accumulated the same sum over
	// the bytes it actually put on the wire.
	if err := s.Write(ranges, data, nil); err != nil {
		t.Fatalf("Write: %v", err)
	}
}

// TestProgressCadence checks the 16384-byte callback cadence plus the
// final call at range end.
func TestProgressCadence(t *testing.T) {
	const size = 16384*2 + 10
	l := newEnteredLoopback()
	fillAddrSize(l)
	payload := make([]byte, size)
	l.queueBytes(payload...)
	fillAddrSize(l) // terminator
	l.queueBytes(0)
	s := newSessionWithLoopback(l)
	mustEnter(t, s)

	data := make([]byte, size)
	var calls []uint32
	p := ProgressFunc(func(_ int, transferred, _ uint32) {
		calls = append(calls, transferred)
	})
	ranges := []Range{{Address: 0, Size: size}}
	if err := s.Read(ranges, data, p); err != nil {
		t.Fatalf("Read: %v", err)
	}
	if len(calls) != 3 {
		t.Fatalf("got %d progress calls, want 3 (two cadence + one final), calls=%v", len(calls), calls)
	}
	if calls[0] != 16384 || calls[1] != 32768 || calls[2] != size {
		t.Fatalf("unexpected cadence: %v", calls)
	}
}

func TestUpgrade(t *testing.T) {
	l := newEnteredLoopback()
	image := []byte("fw01")
	fillAddrSize(l)
	fillPayload(l, len(image))
	fillAddrSize(l) // terminator
	var sum uint8
	for _, b := range image {
		sum += b
	}
	l.queueBytes(sum)
	s := newSessionWithLoopback(l)
	mustEnter(t, s)

	if err := s.Upgrade(image, nil); err != nil {
		t.Fatalf("Upgrade: %v", err)
	}
}
