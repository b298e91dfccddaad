package regime

import (
	"math/rand"

	"github.com/go-sod/regime/internal/geom"
)

var testCenters = []geom.Point{{0, 0}, {10, 0}, {0, 10}}

// clusteredPCs draws perDay days around each of centers with a small spread.
func clusteredPCs(seed int64, centers []geom.Point, perCenter int, spread float64) geom.Points {
	r := rand.New(rand.NewSource(seed))
	pcs := make(geom.Points, 0, len(centers)*perCenter)
	for i := 0; i < perCenter; i++ {
		for _, c := range centers {
			p := make(geom.Point, len(c))
			for e := range c {
				p[e] = c[e] + spread*(r.Float64()-0.5)
			}
			pcs = append(pcs, p)
		}
	}
	return pcs
}

func jitter(p Partition, r *rand.Rand, amount float64) Partition {
	out := p.Clone()
	for c := range out {
		for e := range out[c] {
			out[c][e] += amount * (r.Float64() - 0.5)
		}
	}
	return out
}
