package forward

// Window message identifiers the forwarding mechanism reacts to.
const (
	MsgMouseMove  uint32 = 0x0200
	MsgMouseLeave uint32 = 0x02A3
)

// Point is a pixel position in screen or client coordinates.
type Point struct {
	X int32
	Y int32
}

// Rect is a rectangle with an exclusive right and bottom edge.
type Rect struct {
	Left   int32
	Top    int32
	Right  int32
	Bottom int32
}

// Contains reports whether p lies inside r. Left and top edges are inside,
// right and bottom edges are not.
func (r Rect) Contains(p Point) bool {
	return p.X >= r.Left && p.X < r.Right && p.Y >= r.Top && p.Y < r.Bottom
}

// Position is the payload of a forwarded pointer-move notification, in the
// receiving window's client coordinates.
type Position struct {
	X int `json:"x" yaml:"x"`
	Y int `json:"y" yaml:"y"`
}

// Window is the part of a native window the forwarding registry needs.
// The registry never owns the window's lifetime.
type Window interface {
	// Handle returns the native window handle.
	Handle() uintptr

	// Label returns the stable name used as the window's identity.
	Label() string

	// ClientRect returns the client area, relative to its own top-left corner.
	ClientRect() (Rect, error)

	// ScreenToClient converts a screen point into the window's client space.
	ScreenToClient(p Point) (Point, error)

	// Emit delivers a named notification to the window's content. It must
	// not block.
	Emit(event string, payload any) error
}

// MapToClient converts a screen point into w's client space and reports
// whether the result falls inside the client area.
func MapToClient(w Window, screen Point) (Position, bool, error) {
	rect, err := w.ClientRect()
	if err != nil {
		return Position{}, false, err
	}

	local, err := w.ScreenToClient(screen)
	if err != nil {
		return Position{}, false, err
	}

	return Position{X: int(local.X), Y: int(local.Y)}, rect.Contains(local), nil
}
