package rail

import "railforge/internal/protocol"

// Dispatcher is the entry point for completed drag gestures. It owns the
// polyline snap endpoint; everything else arrives per invocation.
type Dispatcher struct {
	eng   Engine
	terra *Coordinator
	snap  SnapEndpoint
}

func NewDispatcher(eng Engine, query WorldQuery) *Dispatcher {
	return &Dispatcher{
		eng:   eng,
		terra: NewCoordinator(eng, query),
	}
}

// Snap returns the current polyline continuation point.
func (d *Dispatcher) Snap() SnapEndpoint {
	return d.snap
}

// ClearSnap drops the continuation point. Called when the tool is released.
func (d *Dispatcher) ClearSnap() {
	d.snap = SnapEndpoint{}
}

// Place consumes one drag selection and decides between direct execution,
// terraform-assisted placement, and overbuild-tolerant probe-then-commit.
func (d *Dispatcher) Place(ts ToolState, sel DragSelection) Outcome {
	track := sel.Track
	var cmd CommandDescriptor
	if sel.SingleTile() {
		cmd = PlaceTrackCmd(ts, sel.End, track)
	} else {
		cmd = PlaceTrackLineCmd(ts, sel.Start, sel.End, track)
	}

	// Estimate gestures only preview cost; they never mutate and never
	// touch snap state.
	if ts.Estimate {
		return d.eng.Probe(cmd)
	}

	var out Outcome
	switch {
	case !sel.Polyline || ts.RemoveMode:
		out = d.eng.Commit(cmd, nil)
		if !out.OK {
			return out
		}

	case sel.TerraformAssist:
		plan := d.terra.Plan(sel.Start, sel.End, sel.Dir, cmd)
		return d.terra.Execute(ts, sel.Start, track, plan, &d.snap)

	default:
		// Overbuilding existing track in polyline mode is not an error;
		// the snap point just advances over the overbuilt pieces.
		out = d.eng.Probe(cmd)
		if out.Code != protocol.ErrAlreadyBuilt || !out.EndValid {
			out = d.eng.Commit(cmd, nil)
			if !out.OK {
				return out
			}
		} else {
			out.OK = true
		}
	}

	// Keep the snap point fresh no matter which path ran, so the next
	// polyline segment continues where this one ended.
	if out.EndValid {
		d.snap = SnapEndpoint{Start: sel.Start, End: out.EndTile, Track: track, Valid: true}
	}
	return out
}
