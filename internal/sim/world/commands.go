package world

import (
	"railforge/internal/protocol"
	"railforge/internal/sim/rail"
)

// Piece costs, in credits. Removal refunds nothing; it just costs work.
const (
	costTrackPiece = 100
	costRemove     = 20
	costLevelTile  = 50
)

// CommandEngine validates and executes construction commands against the
// grid. Probe runs the same validation as Commit without mutating; Commit
// runs the optional callback synchronously with the outcome.
type CommandEngine struct {
	grid *Grid
}

func NewCommandEngine(g *Grid) *CommandEngine {
	return &CommandEngine{grid: g}
}

func (e *CommandEngine) Probe(cmd rail.CommandDescriptor) rail.Outcome {
	return e.exec(cmd, false)
}

func (e *CommandEngine) Commit(cmd rail.CommandDescriptor, cb func(rail.Outcome)) rail.Outcome {
	out := e.exec(cmd, true)
	if cb != nil {
		cb(out)
	}
	return out
}

func (e *CommandEngine) exec(cmd rail.CommandDescriptor, apply bool) rail.Outcome {
	switch cmd.Op {
	case rail.OpBuildTrack:
		return e.buildTrack(cmd, apply)
	case rail.OpRemoveTrack:
		return e.removeTrack(cmd, apply)
	case rail.OpLevelLand:
		return e.levelLand(cmd, apply)
	}
	return rail.Outcome{Code: protocol.ErrBadRequest}
}

func (e *CommandEngine) buildTrack(cmd rail.CommandDescriptor, apply bool) rail.Outcome {
	if !cmd.Track.Valid() {
		return rail.Outcome{Code: protocol.ErrBadRequest}
	}
	tiles, ok := segmentTiles(cmd.From, cmd.To)
	if !ok {
		return rail.Outcome{Code: protocol.ErrBadRequest}
	}

	refHeight := 0
	newPieces := 0
	for i, t := range tiles {
		if !e.grid.InBounds(t) {
			return rail.Outcome{Code: protocol.ErrOutOfBounds}
		}
		h := e.grid.HeightOf(t)
		if i == 0 {
			refHeight = h
		} else if h != refHeight {
			return rail.Outcome{Code: protocol.ErrLandSloped}
		}
		bits := e.grid.TrackBitsOf(t)
		if bits.Has(cmd.Track) {
			continue
		}
		if bits != rail.TrackBitsNone && e.grid.RailTypeOf(t) != cmd.RailType {
			return rail.Outcome{Code: protocol.ErrObstructed}
		}
		newPieces++
	}

	end := tiles[len(tiles)-1]
	if newPieces == 0 {
		return rail.Outcome{Code: protocol.ErrAlreadyBuilt, EndTile: end, EndValid: true}
	}
	if apply {
		for _, t := range tiles {
			e.grid.addTrack(t, cmd.Track, cmd.RailType)
		}
	}
	return rail.Outcome{OK: true, EndTile: end, EndValid: true, Cost: int64(newPieces) * costTrackPiece}
}

func (e *CommandEngine) removeTrack(cmd rail.CommandDescriptor, apply bool) rail.Outcome {
	if !cmd.Track.Valid() {
		return rail.Outcome{Code: protocol.ErrBadRequest}
	}
	tiles, ok := segmentTiles(cmd.From, cmd.To)
	if !ok {
		return rail.Outcome{Code: protocol.ErrBadRequest}
	}

	present := 0
	for _, t := range tiles {
		if !e.grid.InBounds(t) {
			return rail.Outcome{Code: protocol.ErrOutOfBounds}
		}
		if !e.grid.TrackBitsOf(t).Has(cmd.Track) {
			continue
		}
		if e.grid.HasSignal(t, cmd.Track) && !cmd.AutoRemoveSignals {
			return rail.Outcome{Code: protocol.ErrSignalPresent}
		}
		present++
	}
	if present == 0 {
		return rail.Outcome{Code: protocol.ErrNoTrack}
	}
	if apply {
		for _, t := range tiles {
			e.grid.removeTrack(t, cmd.Track)
		}
	}
	end := tiles[len(tiles)-1]
	return rail.Outcome{OK: true, EndTile: end, EndValid: true, Cost: int64(present) * costRemove}
}

func (e *CommandEngine) levelLand(cmd rail.CommandDescriptor, apply bool) rail.Outcome {
	tiles := levelArea(cmd.From, cmd.To, cmd.Diagonal)
	for _, t := range tiles {
		if !e.grid.InBounds(t) {
			return rail.Outcome{Code: protocol.ErrOutOfBounds}
		}
	}

	target := e.grid.HeightOf(cmd.From)
	if cmd.LevelMode == rail.LevelModeRaise {
		for _, t := range tiles {
			if h := e.grid.HeightOf(t); h > target {
				target = h
			}
		}
	}

	changed := 0
	for _, t := range tiles {
		h := e.grid.HeightOf(t)
		if h == target {
			continue
		}
		if cmd.LevelMode == rail.LevelModeRaise && h > target {
			continue
		}
		changed++
		if apply {
			e.grid.setHeight(t, target)
		}
	}
	if changed == 0 {
		return rail.Outcome{Code: protocol.ErrAlreadyLevel}
	}
	return rail.Outcome{OK: true, Cost: int64(changed) * costLevelTile}
}

// segmentTiles walks the tiles of a dragged segment: straight along one axis
// or a strict diagonal. Anything else is a malformed drag.
func segmentTiles(from, to rail.Tile) ([]rail.Tile, bool) {
	dx, dy := to.X-from.X, to.Y-from.Y
	if dx != 0 && dy != 0 && !from.DiagonalWith(to) {
		return nil, false
	}
	sx, sy := sign(dx), sign(dy)
	tiles := []rail.Tile{from}
	for t := from; t != to; {
		t = t.Add(sx, sy)
		tiles = append(tiles, t)
	}
	return tiles, true
}

// levelArea is the rectangle spanned by the two corners, narrowed to the
// diagonal band when the segment is a true diagonal.
func levelArea(from, to rail.Tile, diagonal bool) []rail.Tile {
	sx, sy := sign(to.X-from.X), sign(to.Y-from.Y)
	if diagonal && sx != 0 && sy != 0 {
		var tiles []rail.Tile
		for t := from; ; t = t.Add(sx, sy) {
			tiles = append(tiles, t)
			if t == to {
				break
			}
			tiles = append(tiles, t.Add(sx, 0), t.Add(0, sy))
		}
		return tiles
	}

	x0, x1 := minInt(from.X, to.X), maxInt(from.X, to.X)
	y0, y1 := minInt(from.Y, to.Y), maxInt(from.Y, to.Y)
	var tiles []rail.Tile
	for y := y0; y <= y1; y++ {
		for x := x0; x <= x1; x++ {
			tiles = append(tiles, rail.Tile{X: x, Y: y})
		}
	}
	return tiles
}

func sign(v int) int {
	switch {
	case v < 0:
		return -1
	case v > 0:
		return 1
	}
	return 0
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
