package raster

import "image"

// Thin erodes g in place with the Zhang-Suen thinning rules and returns the
// surviving seed pixels in seed order, each once. Only seed pixels are
// candidates for removal; any non-zero pixel counts as foreground. At most
// maxIterations passes run, so shapes much thicker than 2*maxIterations
// keep a solid core.
func Thin(g *Grid, seeds []image.Point, maxIterations int) []image.Point {
	seen := make([]bool, len(g.Pix))
	candidates := make([]image.Point, 0, len(seeds))
	for _, p := range seeds {
		if !g.In(p.X, p.Y) {
			continue
		}
		i := p.Y*g.W + p.X
		if seen[i] || g.Pix[i] == 0 {
			continue
		}
		seen[i] = true
		candidates = append(candidates, p)
	}

	var marked []image.Point
	for iter := 0; iter < maxIterations; iter++ {
		changed := false
		for step := 0; step < 2; step++ {
			marked = marked[:0]
			for _, p := range candidates {
				if g.AtPoint(p) != 0 && removable(g, p, step) {
					marked = append(marked, p)
				}
			}
			for _, p := range marked {
				g.Set(p.X, p.Y, 0)
			}
			if len(marked) > 0 {
				changed = true
			}
		}

		alive := candidates[:0]
		for _, p := range candidates {
			if g.AtPoint(p) != 0 {
				alive = append(alive, p)
			}
		}
		candidates = alive

		if !changed {
			break
		}
	}

	return candidates
}

// removable applies one Zhang-Suen sub-iteration test to p.
func removable(g *Grid, p image.Point, step int) bool {
	// P2..P9 clockwise from north.
	var n [8]bool
	n[0] = g.At(p.X, p.Y-1) != 0
	n[1] = g.At(p.X+1, p.Y-1) != 0
	n[2] = g.At(p.X+1, p.Y) != 0
	n[3] = g.At(p.X+1, p.Y+1) != 0
	n[4] = g.At(p.X, p.Y+1) != 0
	n[5] = g.At(p.X-1, p.Y+1) != 0
	n[6] = g.At(p.X-1, p.Y) != 0
	n[7] = g.At(p.X-1, p.Y-1) != 0

	count := 0
	transitions := 0
	for i := 0; i < 8; i++ {
		if n[i] {
			count++
		}
		if !n[i] && n[(i+1)%8] {
			transitions++
		}
	}
	if count < 2 || count > 6 || transitions != 1 {
		return false
	}

	north, east, south, west := n[0], n[2], n[4], n[6]
	if step == 0 {
		return !(north && east && south) && !(east && south && west)
	}
	return !(north && east && west) && !(north && south && west)
}
