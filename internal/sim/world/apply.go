package world

import (
	"encoding/json"
	"time"

	"railforge/internal/protocol"
	"railforge/internal/sim/rail"
)

func (w *World) applyAct(s *session, act protocol.ActMsg, nowTick uint64) {
	if act.ReleaseTool {
		s.disp.ClearSnap()
		w.sendEvent(s, protocol.EventMsg{
			Type:            protocol.TypeEvent,
			ProtocolVersion: protocol.Version,
			Ref:             "RELEASE",
			OK:              true,
		})
		if act.Gesture == nil {
			return
		}
	}
	if act.Gesture == nil {
		w.sendResult(s, "", rail.Outcome{Code: protocol.ErrProtoBadRequest}, rail.SnapEndpoint{}, "missing gesture")
		return
	}
	g := *act.Gesture

	if !w.allowGesture(s, nowTick) {
		w.sendResult(s, g.ID, rail.Outcome{Code: protocol.ErrRateLimit}, s.disp.Snap(), "too many gestures")
		return
	}

	ts, sel, errMsg := w.decodeGesture(g)
	if errMsg != "" {
		w.sendResult(s, g.ID, rail.Outcome{Code: protocol.ErrBadRequest}, s.disp.Snap(), errMsg)
		return
	}

	out := s.disp.Place(ts, sel)
	if !ts.Estimate {
		w.record(s, ts, sel, out)
	}
	w.sendResult(s, g.ID, out, s.disp.Snap(), "")
}

// decodeGesture maps the wire gesture onto the typed tool state and drag
// selection, rejecting inconsistent track/direction combinations.
func (w *World) decodeGesture(g protocol.GestureMsg) (rail.ToolState, rail.DragSelection, string) {
	track, ok := rail.ParseTrack(g.Track)
	if !ok {
		return rail.ToolState{}, rail.DragSelection{}, "unknown track"
	}
	dir := rail.TrackdirInvalid
	if g.Dir != "" {
		d, ok := rail.ParseTrackdir(g.Dir)
		if !ok {
			return rail.ToolState{}, rail.DragSelection{}, "unknown direction"
		}
		if d.Track() != track {
			return rail.ToolState{}, rail.DragSelection{}, "direction does not match track"
		}
		dir = d
	}
	railType := rail.RailTypeNormal
	if g.RailType != "" {
		rt, ok := rail.ParseRailType(g.RailType)
		if !ok {
			return rail.ToolState{}, rail.DragSelection{}, "unknown rail type"
		}
		railType = rt
	}
	if g.TerraformAssist && !dir.Valid() {
		return rail.ToolState{}, rail.DragSelection{}, "terraform assist needs a direction"
	}

	ts := rail.ToolState{
		RailType:          railType,
		RemoveMode:        g.Remove,
		AutoRemoveSignals: g.AutoRemoveSignals,
		Estimate:          g.Estimate,
	}
	sel := rail.DragSelection{
		Start:           rail.Tile{X: g.Start[0], Y: g.Start[1]},
		End:             rail.Tile{X: g.End[0], Y: g.End[1]},
		Track:           track,
		Dir:             dir,
		Polyline:        g.Polyline,
		TerraformAssist: g.TerraformAssist,
	}
	return ts, sel, ""
}

func (w *World) allowGesture(s *session, nowTick uint64) bool {
	window := uint64(w.cfg.GestureWindowTicks)
	kept := s.recent[:0]
	for _, t := range s.recent {
		if t+window > nowTick {
			kept = append(kept, t)
		}
	}
	s.recent = kept
	if len(s.recent) >= w.cfg.GestureMax {
		return false
	}
	s.recent = append(s.recent, nowTick)
	return true
}

func (w *World) sendResult(s *session, ref string, out rail.Outcome, snap rail.SnapEndpoint, message string) {
	ev := protocol.EventMsg{
		Type:            protocol.TypeEvent,
		ProtocolVersion: protocol.Version,
		Ref:             ref,
		Seq:             w.seq,
		OK:              out.OK,
		Code:            out.Code,
		Message:         message,
		Cost:            out.Cost,
		EndValid:        out.EndValid,
	}
	if !protocol.IsKnownCode(ev.Code) {
		ev.Code = protocol.ErrInternal
	}
	if out.EndValid {
		ev.End = [2]int{out.EndTile.X, out.EndTile.Y}
	}
	if snap.Valid {
		ev.Snap = &protocol.Snap{
			Start: [2]int{snap.Start.X, snap.Start.Y},
			End:   [2]int{snap.End.X, snap.End.Y},
			Track: snap.Track.String(),
		}
	}
	w.sendEvent(s, ev)
}

func (w *World) sendEvent(s *session, ev protocol.EventMsg) {
	b, err := json.Marshal(ev)
	if err != nil {
		return
	}
	select {
	case s.out <- b:
	default:
		// Slow client; drop rather than stall the world loop.
	}
}

func (w *World) record(s *session, ts rail.ToolState, sel rail.DragSelection, out rail.Outcome) {
	w.seq++
	var cmd rail.CommandDescriptor
	if sel.SingleTile() {
		cmd = rail.PlaceTrackCmd(ts, sel.End, sel.Track)
	} else {
		cmd = rail.PlaceTrackLineCmd(ts, sel.Start, sel.End, sel.Track)
	}
	entry := CommandLogEntry{
		Seq:      w.seq,
		Session:  s.id,
		Op:       cmd.Op.String(),
		FromX:    cmd.From.X,
		FromY:    cmd.From.Y,
		ToX:      cmd.To.X,
		ToY:      cmd.To.Y,
		Track:    cmd.Track.String(),
		RailType: cmd.RailType.String(),
		Params:   cmd.PackParams(),
		OK:       out.OK,
		Code:     out.Code,
		Cost:     out.Cost,
		EndX:     out.EndTile.X,
		EndY:     out.EndTile.Y,
		EndValid: out.EndValid,
		At:       time.Now().UTC().Format(time.RFC3339Nano),
	}
	if w.audit != nil {
		if err := w.audit.WriteCommand(entry); err != nil && w.logger != nil {
			w.logger.Printf("audit write: %v", err)
		}
	}
	if w.index != nil {
		w.index.InsertCommand(entry)
	}
}
