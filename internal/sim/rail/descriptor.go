package rail

// Op is the command kind carried by a descriptor. Build and remove are
// distinct kinds rather than a flag so a descriptor can never carry both.
type Op uint8

const (
	OpBuildTrack Op = iota + 1
	OpRemoveTrack
	OpLevelLand
)

var opNames = map[Op]string{
	OpBuildTrack:  "BUILD_TRACK",
	OpRemoveTrack: "REMOVE_TRACK",
	OpLevelLand:   "LEVEL_LAND",
}

func (o Op) String() string {
	if n, ok := opNames[o]; ok {
		return n
	}
	return "UNKNOWN"
}

// LevelMode selects how a level-land command reshapes its area.
type LevelMode uint8

const (
	LevelModeLevel LevelMode = iota // flatten to the origin tile's height
	LevelModeRaise                  // raise lower tiles to the area's highest
)

// CommandDescriptor is an immutable command request. It is built once per
// gesture and handed to the engine; any change produces a new value.
type CommandDescriptor struct {
	Op   Op
	From Tile
	To   Tile

	Track    Track
	RailType RailType

	// Remove signals standing in the way instead of failing.
	AutoRemoveSignals bool

	// Level-land only.
	LevelMode LevelMode
	Diagonal  bool
}

// ToolState is the toolbar state a gesture was made under. It is owned by the
// toolbar controller and passed in per invocation; the dispatcher never
// mutates it.
type ToolState struct {
	RailType          RailType
	RemoveMode        bool
	AutoRemoveSignals bool
	Estimate          bool
}

// PlaceTrackCmd builds the descriptor for a single-tile track edit.
func PlaceTrackCmd(ts ToolState, tile Tile, track Track) CommandDescriptor {
	return CommandDescriptor{
		Op:                trackOp(ts),
		From:              tile,
		To:                tile,
		Track:             track,
		RailType:          ts.RailType,
		AutoRemoveSignals: ts.AutoRemoveSignals,
	}
}

// PlaceTrackLineCmd builds the descriptor for a multi-tile straight edit.
func PlaceTrackLineCmd(ts ToolState, start, end Tile, track Track) CommandDescriptor {
	return CommandDescriptor{
		Op:                trackOp(ts),
		From:              start,
		To:                end,
		Track:             track,
		RailType:          ts.RailType,
		AutoRemoveSignals: ts.AutoRemoveSignals,
	}
}

// LevelLandCmd builds a leveling command over the area spanned by origin and
// target. In level mode the origin tile's height wins; raise never lowers.
func LevelLandCmd(target, origin Tile, mode LevelMode, diagonal bool) CommandDescriptor {
	return CommandDescriptor{
		Op:        OpLevelLand,
		From:      origin,
		To:        target,
		LevelMode: mode,
		Diagonal:  diagonal,
	}
}

func trackOp(ts ToolState) Op {
	if ts.RemoveMode {
		return OpRemoveTrack
	}
	return OpBuildTrack
}

// PackParams serializes the option fields into the legacy wire bitfield.
// This is a boundary concern only (audit log, command index); domain code
// works with the typed descriptor.
func (d CommandDescriptor) PackParams() uint32 {
	switch d.Op {
	case OpBuildTrack, OpRemoveTrack:
		p := uint32(d.RailType) | uint32(d.Track)<<6
		if d.AutoRemoveSignals {
			p |= 1 << 11
		}
		return p
	case OpLevelLand:
		p := uint32(d.LevelMode) << 1
		if d.Diagonal {
			p |= 1
		}
		return p
	}
	return 0
}

// DragSelection is the ephemeral state of one completed drag. It is consumed
// exactly once by the dispatcher.
type DragSelection struct {
	Start Tile
	End   Tile
	Track Track
	Dir   Trackdir

	Polyline        bool
	TerraformAssist bool
}

func (s DragSelection) SingleTile() bool {
	return s.Start == s.End
}

// SnapEndpoint is where the next polyline segment should continue from. It
// survives across placements while the polyline tool stays active.
type SnapEndpoint struct {
	Start Tile
	End   Tile
	Track Track
	Valid bool
}

// Outcome is the result of a probe or commit.
type Outcome struct {
	OK   bool
	Code string // protocol error code when !OK, "" otherwise

	// Far end of the track actually walked, when the command produced one.
	EndTile  Tile
	EndValid bool

	Cost int64
}

// Engine validates and executes commands against the world.
//
// Probe validates without mutating. Commit validates and mutates; the
// callback, if given, runs synchronously with the outcome before Commit
// returns. There is no deferred scheduling.
type Engine interface {
	Probe(CommandDescriptor) Outcome
	Commit(CommandDescriptor, func(Outcome)) Outcome
}

// WorldQuery exposes the read-only tile queries placement logic needs.
type WorldQuery interface {
	HeightOf(Tile) int
	TrackBitsOf(Tile) TrackBits
}
