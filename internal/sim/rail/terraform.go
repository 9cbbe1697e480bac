package rail

import "railforge/internal/protocol"

// cornerPairs names the two tile pairs flanking a dragged segment. Leveling
// e1 toward s1 and e2 toward s2 flattens the strips the segment rests on.
type cornerPairs struct {
	diagonal       bool
	s1, e1, s2, e2 Tile
}

// cornerPairFor maps each of the twelve drawing directions to its pair
// selection. eq and ez are the segment's axis-equality and axis-mirror
// parities (1 when X-Y respectively X+Y is preserved between the endpoints).
var cornerPairFor = map[Trackdir]func(s, e Tile, eq, ez int) cornerPairs{
	TrackdirXNE: func(s, e Tile, eq, ez int) cornerPairs {
		return cornerPairs{false, s.Add(1, 0), e, s.Add(1, 1), e.Add(0, 1)}
	},
	TrackdirXSW: func(s, e Tile, eq, ez int) cornerPairs {
		return cornerPairs{false, s, e.Add(1, 0), s.Add(0, 1), e.Add(1, 1)}
	},
	TrackdirYSE: func(s, e Tile, eq, ez int) cornerPairs {
		return cornerPairs{false, s, e.Add(0, 1), s.Add(1, 0), e.Add(1, 1)}
	},
	TrackdirYNW: func(s, e Tile, eq, ez int) cornerPairs {
		return cornerPairs{false, s.Add(0, 1), e, s.Add(1, 1), e.Add(1, 0)}
	},
	TrackdirLeftN: func(s, e Tile, eq, ez int) cornerPairs {
		return cornerPairs{true, s.Add(1, 0), e.Add(eq, 0), s.Add(1, 1), e.Add(0, 1-eq)}
	},
	TrackdirRightN: func(s, e Tile, eq, ez int) cornerPairs {
		return cornerPairs{true, s.Add(0, 1), e.Add(0, eq), s.Add(1, 1), e.Add(1-eq, 0)}
	},
	TrackdirLeftS: func(s, e Tile, eq, ez int) cornerPairs {
		return cornerPairs{true, s.Add(1, 0), e.Add(1, 1-eq), s, e.Add(eq, 1)}
	},
	TrackdirRightS: func(s, e Tile, eq, ez int) cornerPairs {
		return cornerPairs{true, s.Add(0, 1), e.Add(1-eq, 1), s, e.Add(1, eq)}
	},
	TrackdirUpperE: func(s, e Tile, eq, ez int) cornerPairs {
		return cornerPairs{true, s, e.Add(0, 1-ez), s.Add(1, 0), e.Add(1-ez, 1)}
	},
	TrackdirLowerE: func(s, e Tile, eq, ez int) cornerPairs {
		return cornerPairs{true, s.Add(1, 1), e.Add(ez, 1), s.Add(1, 0), e.Add(0, ez)}
	},
	TrackdirUpperW: func(s, e Tile, eq, ez int) cornerPairs {
		return cornerPairs{true, s, e.Add(1-ez, 0), s.Add(0, 1), e.Add(1, 1-ez)}
	},
	TrackdirLowerW: func(s, e Tile, eq, ez int) cornerPairs {
		return cornerPairs{true, s.Add(1, 1), e.Add(1, ez), s.Add(0, 1), e.Add(ez, 0)}
	},
}

// TerraformPlan is the explicit pipeline a terraform-assisted placement runs:
// zero to two leveling commits, then the chained build step. Keeping it a
// value makes the level-then-build contract testable without the world.
type TerraformPlan struct {
	Levels []CommandDescriptor
	Build  CommandDescriptor
}

// Coordinator decides whether the strips flanking a dragged segment need
// leveling before the track command can succeed, and sequences the leveling
// commits ahead of the build.
type Coordinator struct {
	eng   Engine
	query WorldQuery
}

func NewCoordinator(eng Engine, query WorldQuery) *Coordinator {
	return &Coordinator{eng: eng, query: query}
}

// Plan probes both flanking pairs and keeps only the leveling commands that
// would actually change terrain. An invalid direction plans a bare build.
func (c *Coordinator) Plan(start, end Tile, dir Trackdir, buildCmd CommandDescriptor) TerraformPlan {
	plan := TerraformPlan{Build: buildCmd}

	sel, ok := cornerPairFor[dir]
	if !ok {
		return plan
	}
	eq := 0
	if end.X-end.Y == start.X-start.Y {
		eq = 1
	}
	ez := 0
	if end.X+end.Y == start.X+start.Y {
		ez = 1
	}
	pairs := sel(start, end, eq, ez)

	h1 := c.query.HeightOf(pairs.s1)
	h2 := c.query.HeightOf(pairs.s2)
	mode1 := LevelModeLevel
	if h1 < h2 {
		mode1 = LevelModeRaise
	}
	mode2 := LevelModeLevel
	if h2 < h1 {
		mode2 = LevelModeRaise
	}
	lvl1 := LevelLandCmd(pairs.e1, pairs.s1, mode1, pairs.diagonal)
	lvl2 := LevelLandCmd(pairs.e2, pairs.s2, mode2, pairs.diagonal)

	if c.eng.Probe(lvl1).OK {
		plan.Levels = append(plan.Levels, lvl1)
	}
	if c.eng.Probe(lvl2).OK {
		plan.Levels = append(plan.Levels, lvl2)
	}
	return plan
}

// Execute runs the plan: leveling commits in order, then the build step as
// the continuation of the last leveling commit. Leveling failures are
// tolerated; the build's own failure is the user-visible signal.
func (c *Coordinator) Execute(ts ToolState, start Tile, track Track, plan TerraformPlan, snap *SnapEndpoint) Outcome {
	if len(plan.Levels) == 0 {
		return c.buildStep(ts, start, track, plan.Build, snap)
	}
	for _, lvl := range plan.Levels[:len(plan.Levels)-1] {
		c.eng.Commit(lvl, nil)
	}
	var out Outcome
	c.eng.Commit(plan.Levels[len(plan.Levels)-1], func(Outcome) {
		out = c.buildStep(ts, start, track, plan.Build, snap)
	})
	return out
}

// buildStep re-probes the track command after leveling. Already-built with a
// valid endpoint is a benign no-op; anything else is committed for real.
func (c *Coordinator) buildStep(ts ToolState, start Tile, track Track, build CommandDescriptor, snap *SnapEndpoint) Outcome {
	out := c.eng.Probe(build)
	if out.Code != protocol.ErrAlreadyBuilt || !out.EndValid {
		out = c.eng.Commit(build, nil)
		if !out.OK {
			return out
		}
	} else {
		out.OK = true
	}
	if !ts.Estimate && out.EndValid && snap != nil {
		*snap = SnapEndpoint{Start: start, End: out.EndTile, Track: track, Valid: true}
	}
	return out
}
