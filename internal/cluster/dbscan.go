// Package cluster provides the density-based clustering used by the
// GOSH diagnostics. K-means comes from github.com/muesli/kmeans; DBSCAN
// is implemented here as no maintained small library covers it.
package cluster

// Noise labels points not assigned to any DBSCAN cluster.
const Noise = -1

// Point is a coordinate vector.
type Point []float64

func (p Point) dist2(q Point) float64 {
	var d float64
	for i := range p {
		dd := p[i] - q[i]
		d += dd * dd
	}
	return d
}

// DBSCAN assigns a cluster label to every point; Noise (-1) marks
// points in low-density regions. Labels are 0-based in discovery order.
func DBSCAN(pts []Point, eps float64, minPts int) []int {
	const unvisited = -2
	labels := make([]int, len(pts))
	for i := range labels {
		labels[i] = unvisited
	}
	eps2 := eps * eps
	next := 0
	for i := range pts {
		if labels[i] != unvisited {
			continue
		}
		neighbors := regionQuery(pts, i, eps2)
		if len(neighbors) < minPts {
			labels[i] = Noise
			continue
		}
		c := next
		next++
		labels[i] = c
		// expand the cluster over the seed set
		queue := neighbors
		for len(queue) > 0 {
			j := queue[0]
			queue = queue[1:]
			if labels[j] == Noise {
				labels[j] = c // border point
			}
			if labels[j] != unvisited {
				continue
			}
			labels[j] = c
			jn := regionQuery(pts, j, eps2)
			if len(jn) >= minPts {
				queue = append(queue, jn...)
			}
		}
	}
	return labels
}

func regionQuery(pts []Point, i int, eps2 float64) []int {
	var out []int
	for j := range pts {
		if pts[i].dist2(pts[j]) <= eps2 {
			out = append(out, j)
		}
	}
	return out
}
