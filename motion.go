package loctek

// MotionState is the desk's inferred movement, reported as a cover operation.
type MotionState int

const (
	Idle MotionState = iota
	Opening
	Closing
)

func (m MotionState) String() string {
	switch m {
	case Opening:
		return "opening"
	case Closing:
		return "closing"
	default:
		return "idle"
	}
}

// Keypad payload bytes that signal a movement change.
const (
	keyUp   = 0x01
	keyDown = 0x02
	keyM    = 0x20
)

// Classify maps one byte seen on the keypad->desk stream to a motion state.
// It looks at single bytes, not whole frames, so a matching value at any
// other offset also counts: 0x02 is the third byte of every keypad frame.
func Classify(b byte) (MotionState, bool) {
	switch b {
	case keyUp:
		return Opening, true
	case keyDown:
		return Closing, true
	case keyM:
		return Idle, true
	}
	return Idle, false
}
