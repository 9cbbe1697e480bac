package world

import (
	"testing"

	"railforge/internal/protocol"
	"railforge/internal/sim/rail"
)

func flatEngine(boundary int) (*CommandEngine, *Grid) {
	g := NewGrid(HeightGen{Seed: 1, BoundaryR: boundary, MaxHeight: 0, RegionSize: 32})
	return NewCommandEngine(g), g
}

func buildCmd(start, end rail.Tile, track rail.Track) rail.CommandDescriptor {
	return rail.PlaceTrackLineCmd(rail.ToolState{}, start, end, track)
}

func TestBuildTrack_FlatLine(t *testing.T) {
	eng, g := flatEngine(32)
	cmd := buildCmd(rail.Tile{X: 0, Y: 0}, rail.Tile{X: 0, Y: 5}, rail.TrackY)

	probe := eng.Probe(cmd)
	if !probe.OK || probe.Cost != 600 || !probe.EndValid || probe.EndTile != (rail.Tile{X: 0, Y: 5}) {
		t.Fatalf("probe: %+v", probe)
	}
	if g.TrackBitsOf(rail.Tile{X: 0, Y: 2}) != rail.TrackBitsNone {
		t.Fatalf("probe must not mutate")
	}

	out := eng.Commit(cmd, nil)
	if !out.OK || out.Cost != 600 {
		t.Fatalf("commit: %+v", out)
	}
	for y := 0; y <= 5; y++ {
		if !g.TrackBitsOf(rail.Tile{X: 0, Y: y}).Has(rail.TrackY) {
			t.Fatalf("piece missing at y=%d", y)
		}
	}
}

func TestBuildTrack_IdempotentSecondProbe(t *testing.T) {
	eng, _ := flatEngine(32)
	cmd := buildCmd(rail.Tile{X: 1, Y: 1}, rail.Tile{X: 6, Y: 1}, rail.TrackX)

	if out := eng.Commit(cmd, nil); !out.OK {
		t.Fatalf("first commit: %+v", out)
	}
	second := eng.Probe(cmd)
	if second.OK || second.Code != protocol.ErrAlreadyBuilt {
		t.Fatalf("second probe should be already-built: %+v", second)
	}
	if !second.EndValid || second.EndTile != (rail.Tile{X: 6, Y: 1}) {
		t.Fatalf("already-built must still report the endpoint: %+v", second)
	}
}

func TestBuildTrack_PartialOverbuildChargesNewPiecesOnly(t *testing.T) {
	eng, _ := flatEngine(32)
	if out := eng.Commit(buildCmd(rail.Tile{X: 0, Y: 0}, rail.Tile{X: 4, Y: 0}, rail.TrackX), nil); !out.OK {
		t.Fatalf("setup commit: %+v", out)
	}
	out := eng.Commit(buildCmd(rail.Tile{X: 2, Y: 0}, rail.Tile{X: 8, Y: 0}, rail.TrackX), nil)
	if !out.OK {
		t.Fatalf("overlap commit: %+v", out)
	}
	if out.Cost != 4*100 {
		t.Fatalf("cost = %d, want %d (only tiles 5..8 are new)", out.Cost, 4*100)
	}
}

func TestBuildTrack_SlopedAndOutOfBounds(t *testing.T) {
	eng, g := flatEngine(8)

	g.setHeight(rail.Tile{X: 2, Y: 0}, 1)
	out := eng.Probe(buildCmd(rail.Tile{X: 0, Y: 0}, rail.Tile{X: 4, Y: 0}, rail.TrackX))
	if out.OK || out.Code != protocol.ErrLandSloped {
		t.Fatalf("expected sloped failure: %+v", out)
	}

	out = eng.Probe(buildCmd(rail.Tile{X: 6, Y: 0}, rail.Tile{X: 10, Y: 0}, rail.TrackX))
	if out.OK || out.Code != protocol.ErrOutOfBounds {
		t.Fatalf("expected bounds failure: %+v", out)
	}
}

func TestBuildTrack_MismatchedRailTypeObstructs(t *testing.T) {
	eng, _ := flatEngine(32)
	if out := eng.Commit(buildCmd(rail.Tile{X: 0, Y: 0}, rail.Tile{X: 4, Y: 0}, rail.TrackX), nil); !out.OK {
		t.Fatalf("setup commit: %+v", out)
	}
	maglev := rail.PlaceTrackLineCmd(rail.ToolState{RailType: rail.RailTypeMaglev}, rail.Tile{X: 2, Y: 0}, rail.Tile{X: 2, Y: 4}, rail.TrackY)
	out := eng.Probe(maglev)
	if out.OK || out.Code != protocol.ErrObstructed {
		t.Fatalf("expected obstruction: %+v", out)
	}
}

func TestBuildTrack_MalformedDrag(t *testing.T) {
	eng, _ := flatEngine(32)
	out := eng.Probe(buildCmd(rail.Tile{X: 0, Y: 0}, rail.Tile{X: 3, Y: 1}, rail.TrackX))
	if out.OK || out.Code != protocol.ErrBadRequest {
		t.Fatalf("non-straight non-diagonal drags are malformed: %+v", out)
	}
}

func TestRemoveTrack(t *testing.T) {
	eng, g := flatEngine(32)
	line := buildCmd(rail.Tile{X: 0, Y: 0}, rail.Tile{X: 4, Y: 0}, rail.TrackX)
	if out := eng.Commit(line, nil); !out.OK {
		t.Fatalf("setup commit: %+v", out)
	}

	remove := rail.PlaceTrackLineCmd(rail.ToolState{RemoveMode: true}, rail.Tile{X: 0, Y: 0}, rail.Tile{X: 4, Y: 0}, rail.TrackX)
	out := eng.Commit(remove, nil)
	if !out.OK || out.Cost != 5*20 {
		t.Fatalf("remove: %+v", out)
	}
	if g.TrackBitsOf(rail.Tile{X: 2, Y: 0}) != rail.TrackBitsNone {
		t.Fatalf("track still present after removal")
	}

	out = eng.Probe(remove)
	if out.OK || out.Code != protocol.ErrNoTrack {
		t.Fatalf("expected no-track: %+v", out)
	}
}

func TestRemoveTrack_SignalBlocksWithoutAutoRemove(t *testing.T) {
	eng, g := flatEngine(32)
	line := buildCmd(rail.Tile{X: 0, Y: 0}, rail.Tile{X: 4, Y: 0}, rail.TrackX)
	if out := eng.Commit(line, nil); !out.OK {
		t.Fatalf("setup commit: %+v", out)
	}
	g.SetSignal(rail.Tile{X: 2, Y: 0}, rail.TrackX, true)

	remove := rail.PlaceTrackLineCmd(rail.ToolState{RemoveMode: true}, rail.Tile{X: 0, Y: 0}, rail.Tile{X: 4, Y: 0}, rail.TrackX)
	out := eng.Probe(remove)
	if out.OK || out.Code != protocol.ErrSignalPresent {
		t.Fatalf("expected signal block: %+v", out)
	}

	auto := rail.PlaceTrackLineCmd(rail.ToolState{RemoveMode: true, AutoRemoveSignals: true}, rail.Tile{X: 0, Y: 0}, rail.Tile{X: 4, Y: 0}, rail.TrackX)
	if out := eng.Commit(auto, nil); !out.OK {
		t.Fatalf("auto-remove should pass: %+v", out)
	}
	if g.HasSignal(rail.Tile{X: 2, Y: 0}, rail.TrackX) {
		t.Fatalf("signal should be gone")
	}
}

func TestLevelLand(t *testing.T) {
	eng, g := flatEngine(32)
	g.setHeight(rail.Tile{X: 1, Y: 0}, 3)
	g.setHeight(rail.Tile{X: 2, Y: 0}, 1)

	lvl := rail.LevelLandCmd(rail.Tile{X: 3, Y: 0}, rail.Tile{X: 0, Y: 0}, rail.LevelModeLevel, false)
	out := eng.Commit(lvl, nil)
	if !out.OK || out.Cost != 2*50 {
		t.Fatalf("level: %+v", out)
	}
	for x := 0; x <= 3; x++ {
		if g.HeightOf(rail.Tile{X: x, Y: 0}) != 0 {
			t.Fatalf("tile %d not leveled", x)
		}
	}

	out = eng.Probe(lvl)
	if out.OK || out.Code != protocol.ErrAlreadyLevel {
		t.Fatalf("expected already-level: %+v", out)
	}
}

func TestLevelLand_RaiseNeverLowers(t *testing.T) {
	eng, g := flatEngine(32)
	g.setHeight(rail.Tile{X: 0, Y: 0}, 2)
	g.setHeight(rail.Tile{X: 1, Y: 0}, 5)

	raise := rail.LevelLandCmd(rail.Tile{X: 2, Y: 0}, rail.Tile{X: 0, Y: 0}, rail.LevelModeRaise, false)
	if out := eng.Commit(raise, nil); !out.OK {
		t.Fatalf("raise: %+v", out)
	}
	if g.HeightOf(rail.Tile{X: 1, Y: 0}) != 5 {
		t.Fatalf("raise lowered a tile")
	}
	if g.HeightOf(rail.Tile{X: 0, Y: 0}) != 5 || g.HeightOf(rail.Tile{X: 2, Y: 0}) != 5 {
		t.Fatalf("raise did not lift lower tiles: %d %d",
			g.HeightOf(rail.Tile{X: 0, Y: 0}), g.HeightOf(rail.Tile{X: 2, Y: 0}))
	}
}

func TestDispatcher_TerraformAssist_EndToEnd(t *testing.T) {
	eng, g := flatEngine(32)
	d := rail.NewDispatcher(eng, g)

	// One bump on the diagonal makes the direct build fail.
	g.setHeight(rail.Tile{X: 4, Y: 4}, 1)
	direct := eng.Probe(buildCmd(rail.Tile{X: 2, Y: 2}, rail.Tile{X: 5, Y: 5}, rail.TrackLeft))
	if direct.OK || direct.Code != protocol.ErrLandSloped {
		t.Fatalf("setup: expected sloped, got %+v", direct)
	}

	out := d.Place(rail.ToolState{}, rail.DragSelection{
		Start: rail.Tile{X: 2, Y: 2}, End: rail.Tile{X: 5, Y: 5},
		Track: rail.TrackLeft, Dir: rail.TrackdirLeftS,
		Polyline: true, TerraformAssist: true,
	})
	if !out.OK {
		t.Fatalf("terraform-assisted place failed: %+v", out)
	}
	if g.HeightOf(rail.Tile{X: 4, Y: 4}) != 0 {
		t.Fatalf("bump not leveled, height=%d", g.HeightOf(rail.Tile{X: 4, Y: 4}))
	}
	for i := 2; i <= 5; i++ {
		if !g.TrackBitsOf(rail.Tile{X: i, Y: i}).Has(rail.TrackLeft) {
			t.Fatalf("piece missing at (%d,%d)", i, i)
		}
	}
	if snap := d.Snap(); !snap.Valid || snap.End != (rail.Tile{X: 5, Y: 5}) {
		t.Fatalf("snap wrong: %+v", snap)
	}
}

func TestDispatcher_OverbuildPolyline_EndToEnd(t *testing.T) {
	eng, g := flatEngine(32)
	d := rail.NewDispatcher(eng, g)

	sel := rail.DragSelection{
		Start: rail.Tile{X: 0, Y: 0}, End: rail.Tile{X: 6, Y: 0},
		Track: rail.TrackX, Dir: rail.TrackdirXSW, Polyline: true,
	}
	if out := d.Place(rail.ToolState{}, sel); !out.OK {
		t.Fatalf("first place: %+v", out)
	}
	before := g.TrackBitsOf(rail.Tile{X: 3, Y: 0})

	out := d.Place(rail.ToolState{}, sel)
	if !out.OK || out.Code != protocol.ErrAlreadyBuilt {
		t.Fatalf("second place should be a benign no-op: %+v", out)
	}
	if g.TrackBitsOf(rail.Tile{X: 3, Y: 0}) != before {
		t.Fatalf("overbuild must not mutate")
	}
	if snap := d.Snap(); !snap.Valid || snap.End != (rail.Tile{X: 6, Y: 0}) {
		t.Fatalf("snap should still advance: %+v", snap)
	}
}
