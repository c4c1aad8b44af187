package touch

// Button is a rectangular on-screen touch target.
type Button struct {
	Label      string
	X, Y, W, H int
}

// Contains reports whether the touch point falls inside the button,
// boundary included.
func (b Button) Contains(p Point) bool {
	return p.X >= b.X && p.X <= b.X+b.W &&
		p.Y >= b.Y && p.Y <= b.Y+b.H
}

// Faceplate layout: RECORD on top, UNLOCK below, matching the printed panel.
var (
	RecordButton = Button{Label: "RECORD", X: 60, Y: 80, W: 120, H: 50}
	UnlockButton = Button{Label: "UNLOCK", X: 60, Y: 180, W: 120, H: 50}
)
