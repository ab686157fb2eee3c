// Package smpc implements the System Manager & Peripheral Control chip:
// the command/status handshake register, the two peripheral data ports
// (used here for a single digital SaturnPad), and the soft-reset and
// clock-change requests it forwards to the rest of the system.
package smpc

// Commands.
const (
	CmdMSHON   = 0x00
	CmdSSHON   = 0x02
	CmdSSHOFF  = 0x03
	CmdSNDON   = 0x06
	CmdSNDOFF  = 0x07
	CmdCKCHG352 = 0x0E
	CmdCKCHG320 = 0x0D
	CmdNMIREQ  = 0x18
	CmdRESENAB = 0x19
	CmdRESDISA = 0x1A
	CmdINTBACK = 0x10
)

// SF/OF status flags.
const (
	statusBusy = 1 << 0
)

// PadState is the digital SaturnPad button state, one bit per button,
// active-low on the real wire but modeled here as active-high booleans
// for clarity.
type PadState struct {
	Up, Down, Left, Right   bool
	A, B, C, X, Y, Z        bool
	L, R                    bool
	Start                   bool
}

func (p PadState) encode() uint16 {
	bit := func(on bool, mask uint16) uint16 {
		if on {
			return 0
		} // active low
		return mask
	}
	var v uint16 = 0xFFFF
	v &^= bit(!p.Up, 1 << 12)
	v &^= bit(!p.Down, 1 << 13)
	v &^= bit(!p.Left, 1 << 15)
	v &^= bit(!p.Right, 1 << 14)
	v &^= bit(!p.Start, 1 << 11)
	v &^= bit(!p.A, 1 << 4)
	v &^= bit(!p.B, 1 << 5)
	v &^= bit(!p.C, 1 << 10)
	v &^= bit(!p.X, 1 << 9)
	v &^= bit(!p.Y, 1 << 8)
	v &^= bit(!p.Z, 1 << 0)
	v &^= bit(!p.L, 1 << 3)
	v &^= bit(!p.R, 1 << 2)
	return v
}

// SMPC holds the command/status register pair and callbacks into the
// rest of the emulated machine.
type SMPC struct {
	IREG  [7]uint8
	OREG  [32]uint8
	COMREG uint8
	SR    uint8
	SF    uint8

	Pad PadState

	// ResetRequest is invoked on CmdRESENAB/CmdRESDISA-gated soft
	// resets (the NMIREQ path toggles the SH-2 NMI line instead, which
	// is out of this package's scope and handled by the caller).
	ResetRequest func(hard bool)

	// ClockChangeRequest is invoked on CKCHG352/CKCHG320, reporting
	// whether the 352-pixel mode (true) or the 320-pixel mode was chosen.
	ClockChangeRequest func(is352 bool)

	resetEnabled bool
}

// New returns an SMPC with soft reset initially enabled, matching
// power-on hardware behavior.
func New() *SMPC {
	return &SMPC{resetEnabled: true}
}

// WriteCOMREG latches a command and executes it synchronously: SMPC
// commands complete well within one video frame, so the emulated system
// does not model their real multi-cycle latency.
func (s *SMPC) WriteCOMREG(cmd uint8) {
	s.COMREG = cmd
	s.SF = statusBusy
	switch cmd {
	case CmdRESENAB:
		s.resetEnabled = true
	case CmdRESDISA:
		s.resetEnabled = false
	case CmdCKCHG352:
		if s.ClockChangeRequest != nil {
			s.ClockChangeRequest(true)
		}
	case CmdCKCHG320:
		if s.ClockChangeRequest != nil {
			s.ClockChangeRequest(false)
		}
	case CmdINTBACK:
		s.latchPeripheralData()
	}
	s.SF = 0
	s.OREG[31] = cmd // echo, per real hardware's command-complete convention
}

func (s *SMPC) latchPeripheralData() {
	enc := s.Pad.encode()
	s.OREG[0] = 0xF1 // one digital pad connected on port 1
	s.OREG[1] = uint8(enc >> 8)
	s.OREG[2] = uint8(enc)
}

// RequestSoftReset models the reset button: only takes effect if the
// system has not disabled it via CmdRESDISA.
func (s *SMPC) RequestSoftReset() {
	if !s.resetEnabled {
		return
	}
	if s.ResetRequest != nil {
		s.ResetRequest(false)
	}
}
