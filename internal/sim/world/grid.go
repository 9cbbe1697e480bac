package world

import "railforge/internal/sim/rail"

const chunkEdge = 16

type chunkKey struct {
	CX, CY int
}

type chunk struct {
	cx, cy  int
	heights []uint8
	tracks  []uint8 // rail.TrackBits per tile
	rails   []uint8 // rail.RailType per tile, meaningful while tracks != 0
	signals []uint8 // signal bits per track, same layout as tracks
}

func (c *chunk) index(x, y int) int {
	return x + y*chunkEdge
}

// Grid is the tile store: per-tile height, track bits, signal bits. Chunks
// are generated lazily from the height generator. Access is confined to the
// world loop goroutine.
type Grid struct {
	gen    HeightGen
	chunks map[chunkKey]*chunk
}

func NewGrid(gen HeightGen) *Grid {
	return &Grid{
		gen:    gen,
		chunks: map[chunkKey]*chunk{},
	}
}

func (g *Grid) InBounds(t rail.Tile) bool {
	if g.gen.BoundaryR <= 0 {
		return true
	}
	return t.X >= -g.gen.BoundaryR && t.X <= g.gen.BoundaryR &&
		t.Y >= -g.gen.BoundaryR && t.Y <= g.gen.BoundaryR
}

func (g *Grid) chunkAt(t rail.Tile) (*chunk, int) {
	cx := floorDiv(t.X, chunkEdge)
	cy := floorDiv(t.Y, chunkEdge)
	k := chunkKey{CX: cx, CY: cy}
	ch, ok := g.chunks[k]
	if !ok {
		ch = &chunk{
			cx:      cx,
			cy:      cy,
			heights: make([]uint8, chunkEdge*chunkEdge),
			tracks:  make([]uint8, chunkEdge*chunkEdge),
			rails:   make([]uint8, chunkEdge*chunkEdge),
			signals: make([]uint8, chunkEdge*chunkEdge),
		}
		for y := 0; y < chunkEdge; y++ {
			for x := 0; x < chunkEdge; x++ {
				ch.heights[ch.index(x, y)] = uint8(g.gen.heightAt(cx*chunkEdge+x, cy*chunkEdge+y))
			}
		}
		g.chunks[k] = ch
	}
	return ch, ch.index(mod(t.X, chunkEdge), mod(t.Y, chunkEdge))
}

func (g *Grid) HeightOf(t rail.Tile) int {
	if !g.InBounds(t) {
		return 0
	}
	ch, i := g.chunkAt(t)
	return int(ch.heights[i])
}

func (g *Grid) setHeight(t rail.Tile, h int) {
	if !g.InBounds(t) {
		return
	}
	if h < 0 {
		h = 0
	}
	ch, i := g.chunkAt(t)
	ch.heights[i] = uint8(h)
}

func (g *Grid) TrackBitsOf(t rail.Tile) rail.TrackBits {
	if !g.InBounds(t) {
		return rail.TrackBitsNone
	}
	ch, i := g.chunkAt(t)
	return rail.TrackBits(ch.tracks[i])
}

func (g *Grid) RailTypeOf(t rail.Tile) rail.RailType {
	ch, i := g.chunkAt(t)
	return rail.RailType(ch.rails[i])
}

func (g *Grid) addTrack(t rail.Tile, tr rail.Track, rt rail.RailType) {
	ch, i := g.chunkAt(t)
	ch.tracks[i] |= uint8(tr.Bit())
	ch.rails[i] = uint8(rt)
}

func (g *Grid) removeTrack(t rail.Tile, tr rail.Track) {
	ch, i := g.chunkAt(t)
	ch.tracks[i] &^= uint8(tr.Bit())
	ch.signals[i] &^= uint8(tr.Bit())
}

func (g *Grid) HasSignal(t rail.Tile, tr rail.Track) bool {
	if !g.InBounds(t) {
		return false
	}
	ch, i := g.chunkAt(t)
	return ch.signals[i]&uint8(tr.Bit()) != 0
}

// SetSignal places or clears a signal on a track piece. Signals block track
// removal unless the gesture asked for auto-removal.
func (g *Grid) SetSignal(t rail.Tile, tr rail.Track, present bool) {
	ch, i := g.chunkAt(t)
	if present {
		ch.signals[i] |= uint8(tr.Bit())
	} else {
		ch.signals[i] &^= uint8(tr.Bit())
	}
}

func (g *Grid) clearSignal(t rail.Tile, tr rail.Track) {
	g.SetSignal(t, tr, false)
}
