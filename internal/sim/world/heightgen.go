package world

// HeightGen produces the deterministic starting terrain: plateau regions with
// occasional one-step bumps, so diagonal drags regularly cross height seams.
type HeightGen struct {
	Seed              int64
	BoundaryR         int
	MaxHeight         int
	RegionSize        int
	RoughnessPermille int
}

func (g HeightGen) heightAt(x, y int) int {
	region := g.RegionSize
	if region <= 0 {
		region = 1
	}
	rx := floorDiv(x, region)
	ry := floorDiv(y, region)
	h := int(hash2(g.Seed, rx, ry) % uint64(g.MaxHeight+1))
	if int(hash2(g.Seed+7, x, y)%1000) < g.RoughnessPermille {
		h++
	}
	if h > g.MaxHeight {
		h = g.MaxHeight
	}
	return h
}

func floorDiv(a, b int) int {
	// b > 0
	q := a / b
	if a%b < 0 {
		q--
	}
	return q
}

func mod(a, b int) int {
	// b > 0
	m := a % b
	if m < 0 {
		m += b
	}
	return m
}

func mix64(z uint64) uint64 {
	z += 0x9e3779b97f4a7c15
	z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
	z = (z ^ (z >> 27)) * 0x94d049bb133111eb
	return z ^ (z >> 31)
}

func hash2(seed int64, x, y int) uint64 {
	ux := uint64(uint32(int32(x)))
	uy := uint64(uint32(int32(y)))
	return mix64(uint64(seed) ^ (ux * 0x9e3779b97f4a7c15) ^ (uy * 0xbf58476d1ce4e5b9))
}
