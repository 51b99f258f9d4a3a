package colour

import (
	"image/color"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/floats"
)

// KMeansExtractor implements colour extraction using k-means clustering.
type KMeansExtractor struct{}

// NewKMeansExtractor creates a new KMeansExtractor.
func NewKMeansExtractor() *KMeansExtractor {
	return &KMeansExtractor{}
}

// Extract clusters a sample of the pixels into at most cfg.Count colours.
// Centroids are seeded from cfg.Seed, so equal configs give equal palettes.
func (e *KMeansExtractor) Extract(pixels []color.NRGBA, cfg Config) (*Palette, error) {
	cfg = cfg.withDefaults()

	step := cfg.SampleStep
	if step == 0 {
		step = autoSampleStep(len(pixels))
	}
	points := toPoints(samplePixels(pixels, step))

	// #nosec G404 -- reproducible clustering, not security sensitive
	rng := rand.New(rand.NewSource(cfg.Seed))
	centroids := initialCentroids(points, cfg.Count, rng)

	assignments := make([]int, len(points))
	for iter := 0; iter < cfg.MaxIterations; iter++ {
		assign(points, centroids, assignments)
		next := recalculateCentroids(points, assignments, centroids)

		moved := false
		for i := range centroids {
			if !floats.Equal(centroids[i], next[i]) {
				moved = true
				break
			}
		}
		centroids = next

		if !moved {
			cfg.Logger.Trace("k-means converged", "iterations", iter+1)
			break
		}
	}
	counts := assign(points, centroids, assignments)

	clusters := make([]cluster, len(centroids))
	for i, c := range centroids {
		clusters[i] = cluster{
			colour: RGB{R: roundChannel(c[0]), G: roundChannel(c[1]), B: roundChannel(c[2])},
			count:  counts[i],
		}
	}

	cfg.Logger.Trace("k-means finished", "samples", len(points), "step", step, "centroids", len(centroids))
	return newPalette(MethodKMeans, clusters, len(points), cfg.Count), nil
}

// toPoints converts pixels to points in RGB space.
func toPoints(pixels []color.NRGBA) [][]float64 {
	points := make([][]float64, len(pixels))
	for i, p := range pixels {
		points[i] = []float64{float64(p.R), float64(p.G), float64(p.B)}
	}
	return points
}

// initialCentroids picks k distinct sample colours at random. When the
// sample holds k or fewer distinct colours all of them are used.
func initialCentroids(points [][]float64, k int, rng *rand.Rand) [][]float64 {
	distinct := make([][]float64, 0, k)
	seen := make(map[[3]float64]bool)
	for _, p := range points {
		key := [3]float64{p[0], p[1], p[2]}
		if !seen[key] {
			seen[key] = true
			distinct = append(distinct, p)
		}
	}

	if len(distinct) <= k {
		centroids := make([][]float64, len(distinct))
		for i, p := range distinct {
			centroids[i] = append([]float64(nil), p...)
		}
		return centroids
	}

	// Partial Fisher-Yates shuffle over the distinct colours.
	for i := 0; i < k; i++ {
		j := i + rng.Intn(len(distinct)-i)
		distinct[i], distinct[j] = distinct[j], distinct[i]
	}
	centroids := make([][]float64, k)
	for i := range centroids {
		centroids[i] = append([]float64(nil), distinct[i]...)
	}
	return centroids
}

// assign moves every point to its nearest centroid and returns cluster sizes.
func assign(points, centroids [][]float64, assignments []int) []int {
	counts := make([]int, len(centroids))
	for i, p := range points {
		nearest := nearestCentroid(p, centroids)
		assignments[i] = nearest
		counts[nearest]++
	}
	return counts
}

// nearestCentroid finds the index of the nearest centroid to a point.
func nearestCentroid(p []float64, centroids [][]float64) int {
	minDist := math.MaxFloat64
	nearest := 0
	for i, c := range centroids {
		if d := floats.Distance(p, c, 2); d < minDist {
			minDist = d
			nearest = i
		}
	}
	return nearest
}

// recalculateCentroids returns the mean of each cluster. A cluster that lost
// all of its points keeps its previous centroid.
func recalculateCentroids(points [][]float64, assignments []int, centroids [][]float64) [][]float64 {
	sums := make([][]float64, len(centroids))
	counts := make([]int, len(centroids))
	for i := range sums {
		sums[i] = make([]float64, 3)
	}

	for i, p := range points {
		idx := assignments[i]
		floats.Add(sums[idx], p)
		counts[idx]++
	}

	for i := range sums {
		if counts[i] == 0 {
			copy(sums[i], centroids[i])
			continue
		}
		floats.Scale(1/float64(counts[i]), sums[i])
	}
	return sums
}
