package rail

import "testing"

func TestTrackdirTrackMapping(t *testing.T) {
	cases := []struct {
		dir  Trackdir
		want Track
	}{
		{TrackdirXNE, TrackX},
		{TrackdirXSW, TrackX},
		{TrackdirYSE, TrackY},
		{TrackdirYNW, TrackY},
		{TrackdirUpperE, TrackUpper},
		{TrackdirUpperW, TrackUpper},
		{TrackdirLowerE, TrackLower},
		{TrackdirLowerW, TrackLower},
		{TrackdirLeftN, TrackLeft},
		{TrackdirLeftS, TrackLeft},
		{TrackdirRightN, TrackRight},
		{TrackdirRightS, TrackRight},
	}
	if len(cases) != NumTrackdirs {
		t.Fatalf("case table out of sync: %d cases, %d trackdirs", len(cases), NumTrackdirs)
	}
	for _, c := range cases {
		if got := c.dir.Track(); got != c.want {
			t.Fatalf("%s: track = %s, want %s", c.dir, got, c.want)
		}
	}
	if TrackdirInvalid.Track() != TrackInvalid {
		t.Fatalf("invalid trackdir should map to invalid track")
	}
}

func TestParseTrackRoundTrip(t *testing.T) {
	for tr := TrackX; tr <= TrackRight; tr++ {
		got, ok := ParseTrack(tr.String())
		if !ok || got != tr {
			t.Fatalf("round trip failed for %s", tr)
		}
	}
	if _, ok := ParseTrack("BOGUS"); ok {
		t.Fatalf("expected parse failure")
	}
}

func TestParseTrackdirRoundTrip(t *testing.T) {
	for d := Trackdir(0); d.Valid(); d++ {
		got, ok := ParseTrackdir(d.String())
		if !ok || got != d {
			t.Fatalf("round trip failed for %s", d)
		}
	}
	if _, ok := ParseTrackdir("X_UP"); ok {
		t.Fatalf("expected parse failure")
	}
}

func TestTrackBits(t *testing.T) {
	b := TrackX.Bit() | TrackLeft.Bit()
	if !b.Has(TrackX) || !b.Has(TrackLeft) || b.Has(TrackY) {
		t.Fatalf("unexpected bits: %08b", b)
	}
	if b.Count() != 2 {
		t.Fatalf("count = %d, want 2", b.Count())
	}
	if TrackInvalid.Bit() != TrackBitsNone {
		t.Fatalf("invalid track must contribute no bits")
	}
}

func TestTileGeometry(t *testing.T) {
	a := Tile{3, 4}
	if a.Add(1, -2) != (Tile{4, 2}) {
		t.Fatalf("add broken")
	}
	if a.ManhattanDist(Tile{5, 1}) != 5 {
		t.Fatalf("manhattan broken")
	}
	if !a.DiagonalWith(Tile{6, 7}) || a.DiagonalWith(Tile{6, 8}) {
		t.Fatalf("diagonal relation broken")
	}
}
