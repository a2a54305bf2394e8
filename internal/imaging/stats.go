package imaging

import (
	"image"
	"math"
)

// LuminanceStatsResult summarizes the distribution of the 8-bit L* plane.
type LuminanceStatsResult struct {
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"std_dev"`
	Min    uint8   `json:"min"`
	Max    uint8   `json:"max"`
}

// LuminanceStats measures the spread of the lightness histogram of img.
// A contrast enhancement shows up as a larger StdDev.
func LuminanceStats(img *image.NRGBA) *LuminanceStatsResult {
	return PlaneStats(SplitLab(img).L)
}

// PlaneStats computes the statistics of an 8-bit plane.
func PlaneStats(plane *image.Gray) *LuminanceStatsResult {
	bounds := plane.Bounds()
	total := bounds.Dx() * bounds.Dy()
	if total == 0 {
		return &LuminanceStatsResult{}
	}

	var hist [histBins]int
	for y := 0; y < bounds.Dy(); y++ {
		row := plane.Pix[y*plane.Stride : y*plane.Stride+bounds.Dx()]
		for _, v := range row {
			hist[v]++
		}
	}

	res := &LuminanceStatsResult{Min: 255}
	var sum float64
	for v, n := range hist {
		if n == 0 {
			continue
		}
		if uint8(v) < res.Min {
			res.Min = uint8(v)
		}
		res.Max = uint8(v)
		sum += float64(v * n)
	}
	mean := sum / float64(total)

	var variance float64
	for v, n := range hist {
		d := float64(v) - mean
		variance += d * d * float64(n)
	}

	res.Mean = math.Round(mean*100) / 100
	res.StdDev = math.Round(math.Sqrt(variance/float64(total))*100) / 100
	return res
}

// NeighborVariation returns the mean squared difference between horizontally
// and vertically adjacent pixels, averaged over the R, G and B channels.
// Smoothing never increases it; a constant image scores 0.
func NeighborVariation(img image.Image) float64 {
	bounds := img.Bounds()
	var sum float64
	var pairs int

	at := func(x, y int) [3]float64 {
		r, g, b, _ := img.At(x, y).RGBA()
		return [3]float64{float64(r >> 8), float64(g >> 8), float64(b >> 8)}
	}

	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			c := at(x, y)
			if x+1 < bounds.Max.X {
				sum += sqDiff(c, at(x+1, y))
				pairs++
			}
			if y+1 < bounds.Max.Y {
				sum += sqDiff(c, at(x, y+1))
				pairs++
			}
		}
	}

	if pairs == 0 {
		return 0
	}
	return sum / float64(pairs) / 3
}

func sqDiff(a, b [3]float64) float64 {
	var s float64
	for i := range a {
		d := a[i] - b[i]
		s += d * d
	}
	return s
}
