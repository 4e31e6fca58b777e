package loctek

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

// FrameLen is the fixed length of every command frame sent to the desk.
const FrameLen = 8

// FrameEnd terminates every frame.
const FrameEnd = 0x9d

// ErrBadFrame is returned when text does not describe an 8 byte frame.
var ErrBadFrame = errors.New("bad frame")

// Frame is a command for the desk controller. The checksum bytes are part
// of the desk firmware's contract and are never recomputed here.
type Frame [FrameLen]byte

// Catalog frames.
var (
	FrameWakeUp  = Frame{0x9b, 0x06, 0x02, 0x00, 0x00, 0x6c, 0xa1, 0x9d}
	FrameUp      = Frame{0x9b, 0x06, 0x02, 0x01, 0x00, 0xfc, 0xa0, 0x9d}
	FrameDown    = Frame{0x9b, 0x06, 0x02, 0x02, 0x00, 0x0c, 0xa0, 0x9d}
	FrameStop    = Frame{0x9b, 0x06, 0x02, 0x20, 0x00, 0xac, 0xb8, 0x9d} // "M"
	FramePreset1 = Frame{0x9b, 0x06, 0x02, 0x04, 0x00, 0xac, 0xa3, 0x9d}
	FramePreset2 = Frame{0x9b, 0x06, 0x02, 0x08, 0x00, 0xac, 0xa6, 0x9d}
	FramePreset3 = Frame{0x9b, 0x06, 0x02, 0x10, 0x00, 0xac, 0xac, 0x9d} // stand
	FramePreset4 = Frame{0x9b, 0x06, 0x02, 0x00, 0x01, 0xac, 0x60, 0x9d} // sit
)

var catalog = map[string]Frame{
	"wake":    FrameWakeUp,
	"up":      FrameUp,
	"down":    FrameDown,
	"stop":    FrameStop,
	"m":       FrameStop,
	"preset1": FramePreset1,
	"preset2": FramePreset2,
	"preset3": FramePreset3,
	"stand":   FramePreset3,
	"preset4": FramePreset4,
	"sit":     FramePreset4,
}

// Lookup returns the catalog frame for a command name, case-insensitively.
func Lookup(name string) (Frame, bool) {
	f, ok := catalog[strings.ToLower(strings.TrimSpace(name))]
	return f, ok
}

// Name returns the catalog name of f, or "" if f is not a catalog frame.
func (f Frame) Name() string {
	switch f {
	case FrameWakeUp:
		return "wake"
	case FrameUp:
		return "up"
	case FrameDown:
		return "down"
	case FrameStop:
		return "stop"
	case FramePreset1:
		return "preset1"
	case FramePreset2:
		return "preset2"
	case FramePreset3:
		return "preset3"
	case FramePreset4:
		return "preset4"
	}
	return ""
}

// IsZero reports whether f is unset.
func (f Frame) IsZero() bool {
	return f == Frame{}
}

func (f Frame) String() string {
	return fmt.Sprintf("% 02x", f[:])
}

// ParseFrame reads a frame written as hex bytes, with or without separators
// and 0x prefixes: "9b 06 02 01 00 fc a0 9d", "0x9b,0x06,...", "9b060201...".
func ParseFrame(s string) (Frame, error) {
	var f Frame

	clean := strings.ToLower(s)
	clean = strings.ReplaceAll(clean, "0x", "")
	clean = strings.Map(func(r rune) rune {
		switch r {
		case ' ', ',', ':', '-', '\t':
			return -1
		}
		return r
	}, clean)

	bs, err := hex.DecodeString(clean)
	if err != nil {
		return f, fmt.Errorf("%w: %q: %v", ErrBadFrame, s, err)
	}

	return FrameFromBytes(bs)
}

// FrameFromBytes checks length and terminator and copies bs into a Frame.
func FrameFromBytes(bs []byte) (Frame, error) {
	var f Frame
	if len(bs) != FrameLen {
		return f, fmt.Errorf("%w: need %d bytes, got %d", ErrBadFrame, FrameLen, len(bs))
	}
	if bs[FrameLen-1] != FrameEnd {
		return f, fmt.Errorf("%w: last byte %02x, want %02x", ErrBadFrame, bs[FrameLen-1], FrameEnd)
	}
	copy(f[:], bs)
	return f, nil
}
