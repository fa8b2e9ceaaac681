package comm

// Parser parses bytes received.
type Parser struct {
	state  parseState
	frame  *Frame
	length byte
	recv   int
}

// SyncState indicates the state of the receiving stream.
type SyncState int

const (
	// SyncStateHunting means the parser is looking for the frame header.
	SyncStateHunting SyncState = 0
	// SyncStateReceiving means the header is synced and a frame is on-going.
	SyncStateReceiving SyncState = 0x01
)

// IsReceiving indicates if it's in the middle of receiving a frame.
func (s SyncState) IsReceiving() bool {
	return s&SyncStateReceiving != 0
}

// ParseResult indicates the result after one parsing step.
type ParseResult struct {
	State SyncState
	// Frame is set when the byte completes a frame.
	Frame *Frame
	// Resync is set when a synced header turned out to be false.
	Resync bool
}

type parseState int

const (
	stateIdle     parseState = iota // waiting for the first sync byte
	stateSync                       // first sync byte seen, waiting for the second
	stateAddress                    // header synced, waiting for address
	stateLength                     // waiting for length
	stateOpcode                     // waiting for opcode
	stateParams                     // waiting for parameters
	stateChecksum                   // waiting for checksum
)

// State gets the current sync state.
func (p *Parser) State() SyncState {
	if p.state <= stateSync {
		return SyncStateHunting
	}
	return SyncStateReceiving
}

// Need tells how many bytes can be consumed without reading past the
// end of current frame.
func (p *Parser) Need() int {
	if p.state == stateParams {
		return len(p.frame.Params) - p.recv
	}
	return 1
}

// Reset drops any partially received frame.
func (p *Parser) Reset() {
	p.state, p.frame, p.recv = stateIdle, nil, 0
}

// Parse consumes one byte.
func (p *Parser) Parse(b byte) (pr ParseResult) {
	pr.Frame, pr.Resync = p.parseByte(b)
	pr.State = p.State()
	return
}

func (p *Parser) parseByte(b byte) (frame *Frame, resync bool) {
	switch p.state {
	case stateIdle:
		if b == SyncByte {
			p.state = stateSync
		}
	case stateSync:
		if b == SyncByte {
			p.frame, p.state = &Frame{}, stateAddress
		} else {
			// the mismatched byte is not a sync byte, so it can't start
			// a new header either.
			p.state = stateIdle
		}
	case stateAddress:
		p.frame.Address = b
		p.state = stateLength
	case stateLength:
		if b < lengthOverhead {
			p.Reset()
			return nil, true
		}
		p.length = b
		p.state = stateOpcode
	case stateOpcode:
		p.frame.Opcode = b
		if n := int(p.length) - lengthOverhead; n > 0 {
			p.frame.Params, p.recv = make([]byte, n), 0
			p.state = stateParams
		} else {
			p.state = stateChecksum
		}
	case stateParams:
		p.frame.Params[p.recv] = b
		if p.recv++; p.recv >= len(p.frame.Params) {
			p.state = stateChecksum
		}
	case stateChecksum:
		p.frame.Checksum = b
		frame = p.frame
		p.Reset()
	}
	return
}
