package engine

import "fmt"

// Mode is the editing mode. ToggleMode cycles through the modes in
// declaration order and wraps from Resize back to Draw.
type Mode int

const (
	ModeDraw Mode = iota
	ModeDelete
	ModeRotate
	ModeResize
)

var modeNames = [...]string{"Draw", "Delete", "Rotate", "Resize"}

func (m Mode) String() string {
	if m < 0 || int(m) >= len(modeNames) {
		return fmt.Sprintf("Mode(%d)", int(m))
	}
	return modeNames[m]
}

// Next returns the mode that follows m in the toggle cycle.
func (m Mode) Next() Mode {
	return (m + 1) % Mode(len(modeNames))
}

// gesture is the kind of pointer interaction in progress.
type gesture int

const (
	gestureNone gesture = iota
	gestureMove
	gestureCreate
	gestureRotate
	gestureResize
)

func (g gesture) String() string {
	switch g {
	case gestureMove:
		return "move"
	case gestureCreate:
		return "create"
	case gestureRotate:
		return "rotate"
	case gestureResize:
		return "resize"
	}
	return "none"
}
