package rail

import "fmt"

// Tile is a position on the construction grid.
type Tile struct {
	X, Y int
}

func (t Tile) Add(dx, dy int) Tile {
	return Tile{X: t.X + dx, Y: t.Y + dy}
}

func (t Tile) ManhattanDist(o Tile) int {
	return absInt(t.X-o.X) + absInt(t.Y-o.Y)
}

// DiagonalWith reports whether o lies on one of t's diagonals.
func (t Tile) DiagonalWith(o Tile) bool {
	return absInt(t.X-o.X) == absInt(t.Y-o.Y)
}

func (t Tile) String() string {
	return fmt.Sprintf("(%d,%d)", t.X, t.Y)
}

func absInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

// Track identifies one of the six pieces occupiable on a tile.
type Track uint8

const (
	TrackX     Track = iota // straight along the X axis
	TrackY                  // straight along the Y axis
	TrackUpper              // half-tile piece on the upper corner
	TrackLower              // half-tile piece on the lower corner
	TrackLeft               // half-tile piece on the left corner
	TrackRight              // half-tile piece on the right corner

	TrackInvalid Track = 0xff
)

var trackNames = [...]string{"X", "Y", "UPPER", "LOWER", "LEFT", "RIGHT"}

func (t Track) Valid() bool {
	return t <= TrackRight
}

func (t Track) String() string {
	if !t.Valid() {
		return "INVALID"
	}
	return trackNames[t]
}

func ParseTrack(s string) (Track, bool) {
	for i, n := range trackNames {
		if n == s {
			return Track(i), true
		}
	}
	return TrackInvalid, false
}

// TrackBits is the set of pieces present on a tile.
type TrackBits uint8

const TrackBitsNone TrackBits = 0

func (t Track) Bit() TrackBits {
	if !t.Valid() {
		return TrackBitsNone
	}
	return TrackBits(1) << t
}

func (b TrackBits) Has(t Track) bool {
	return b&t.Bit() != 0
}

func (b TrackBits) Count() int {
	n := 0
	for v := b; v != 0; v &= v - 1 {
		n++
	}
	return n
}

// Trackdir is a track piece together with the direction a polyline is being
// drawn along it. Straight pieces have two, half-tile pieces zig-zag in pairs
// so a drawn diagonal has one of eight diagonal directions.
type Trackdir uint8

const (
	TrackdirXNE Trackdir = iota
	TrackdirXSW
	TrackdirYSE
	TrackdirYNW
	TrackdirUpperE
	TrackdirUpperW
	TrackdirLowerE
	TrackdirLowerW
	TrackdirLeftN
	TrackdirLeftS
	TrackdirRightN
	TrackdirRightS

	TrackdirInvalid Trackdir = 0xff
)

const NumTrackdirs = 12

var trackdirNames = [...]string{
	"X_NE", "X_SW", "Y_SE", "Y_NW",
	"UPPER_E", "UPPER_W", "LOWER_E", "LOWER_W",
	"LEFT_N", "LEFT_S", "RIGHT_N", "RIGHT_S",
}

var trackdirTracks = [...]Track{
	TrackX, TrackX, TrackY, TrackY,
	TrackUpper, TrackUpper, TrackLower, TrackLower,
	TrackLeft, TrackLeft, TrackRight, TrackRight,
}

func (d Trackdir) Valid() bool {
	return d < NumTrackdirs
}

func (d Trackdir) Track() Track {
	if !d.Valid() {
		return TrackInvalid
	}
	return trackdirTracks[d]
}

func (d Trackdir) String() string {
	if !d.Valid() {
		return "INVALID"
	}
	return trackdirNames[d]
}

func ParseTrackdir(s string) (Trackdir, bool) {
	for i, n := range trackdirNames {
		if n == s {
			return Trackdir(i), true
		}
	}
	return TrackdirInvalid, false
}

// RailType selects the rail flavour being laid; it only affects cost and the
// packed command parameters, never placement geometry.
type RailType uint8

const (
	RailTypeNormal RailType = iota
	RailTypeElectric
	RailTypeMonorail
	RailTypeMaglev

	NumRailTypes
)

var railTypeNames = [...]string{"NORMAL", "ELECTRIC", "MONORAIL", "MAGLEV"}

func (r RailType) Valid() bool {
	return r < NumRailTypes
}

func (r RailType) String() string {
	if !r.Valid() {
		return "INVALID"
	}
	return railTypeNames[r]
}

func ParseRailType(s string) (RailType, bool) {
	for i, n := range railTypeNames {
		if n == s {
			return RailType(i), true
		}
	}
	return 0, false
}

func RailTypeNames() []string {
	return append([]string(nil), railTypeNames[:]...)
}
