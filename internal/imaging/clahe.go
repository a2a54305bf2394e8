package imaging

import (
	"fmt"
	"image"
	"math"
)

const histBins = 256

// CLAHE applies contrast limited adaptive histogram equalization to an 8-bit
// plane and returns a new plane of the same size.
//
// Parameters:
//   - src: the plane to equalize. Bounds must start at (0,0).
//   - clipLimit: contrast amplification limit, relative to a flat histogram.
//     Values <= 0 disable clipping (plain adaptive equalization).
//   - tilesX, tilesY: the tile grid. Each must be at least 1.
//
// # Algorithm
//
//  1. The plane is virtually padded on the right and bottom (reflect-101) so
//     the tile grid divides it evenly.
//  2. Each tile gets a 256-bin histogram. Bins are clipped at
//     max(int(clipLimit*tileArea/256), 1) and the excess is spread over all
//     bins, with the remainder handed out one count at a time from bin 0.
//  3. The clipped histogram's cumulative sum, scaled by 255/tileArea, is the
//     tile's lookup table.
//  4. Every output pixel bilinearly blends the tables of the four tiles whose
//     centres surround it; pixels outside the outermost centres clamp to the
//     border tiles.
func CLAHE(src *image.Gray, clipLimit float64, tilesX, tilesY int) (*image.Gray, error) {
	if tilesX < 1 || tilesY < 1 {
		return nil, fmt.Errorf("invalid tile grid %dx%d", tilesX, tilesY)
	}

	bounds := src.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	dst := image.NewGray(image.Rect(0, 0, width, height))
	if width == 0 || height == 0 {
		return dst, nil
	}

	tileW := (width + tilesX - 1) / tilesX
	tileH := (height + tilesY - 1) / tilesY
	tileArea := tileW * tileH

	clip := 0
	if clipLimit > 0 {
		clip = int(clipLimit * float64(tileArea) / histBins)
		if clip < 1 {
			clip = 1
		}
	}

	luts := make([][histBins]uint8, tilesX*tilesY)
	lutScale := 255.0 / float64(tileArea)

	parallelLines(tilesY, func(start, end int) {
		for ty := start; ty < end; ty++ {
			for tx := 0; tx < tilesX; tx++ {
				var hist [histBins]int
				for y := ty * tileH; y < (ty+1)*tileH; y++ {
					sy := reflect101(y, height)
					row := src.Pix[sy*src.Stride:]
					for x := tx * tileW; x < (tx+1)*tileW; x++ {
						hist[row[reflect101(x, width)]]++
					}
				}

				if clip > 0 {
					clipHistogram(&hist, clip)
				}

				lut := &luts[ty*tilesX+tx]
				sum := 0
				for i := 0; i < histBins; i++ {
					sum += hist[i]
					lut[i] = saturate(math.Round(float64(sum) * lutScale))
				}
			}
		}
	})

	invTileW := 1.0 / float64(tileW)
	invTileH := 1.0 / float64(tileH)

	parallelLines(height, func(start, end int) {
		for y := start; y < end; y++ {
			ty1, ty2, ya := tileNeighbours(float64(y)*invTileH-0.5, tilesY)
			srcRow := src.Pix[y*src.Stride:]
			dstRow := dst.Pix[y*dst.Stride:]

			for x := 0; x < width; x++ {
				tx1, tx2, xa := tileNeighbours(float64(x)*invTileW-0.5, tilesX)
				v := srcRow[x]

				top := float64(luts[ty1*tilesX+tx1][v])*(1-xa) + float64(luts[ty1*tilesX+tx2][v])*xa
				bottom := float64(luts[ty2*tilesX+tx1][v])*(1-xa) + float64(luts[ty2*tilesX+tx2][v])*xa
				dstRow[x] = saturate(math.Round(top*(1-ya) + bottom*ya))
			}
		}
	})

	return dst, nil
}

// clipHistogram caps every bin at limit and redistributes the clipped counts.
func clipHistogram(hist *[histBins]int, limit int) {
	clipped := 0
	for i := range hist {
		if hist[i] > limit {
			clipped += hist[i] - limit
			hist[i] = limit
		}
	}

	batch := clipped / histBins
	residual := clipped - batch*histBins
	for i := range hist {
		hist[i] += batch
	}

	if residual > 0 {
		step := histBins / residual
		if step < 1 {
			step = 1
		}
		for i := 0; i < histBins && residual > 0; i += step {
			hist[i]++
			residual--
		}
	}
}

// tileNeighbours returns the two tile indices bracketing a position in tile
// space together with the weight of the second one.
func tileNeighbours(pos float64, tiles int) (int, int, float64) {
	t1 := int(math.Floor(pos))
	t2 := t1 + 1
	weight := pos - float64(t1)
	if t1 < 0 {
		t1 = 0
	}
	if t2 > tiles-1 {
		t2 = tiles - 1
	}
	return t1, t2, weight
}

// reflect101 maps an index onto [0, n) by mirroring without repeating the
// edge sample (dcb|abcd|cba).
func reflect101(i, n int) int {
	if n == 1 {
		return 0
	}
	period := 2 * (n - 1)
	i %= period
	if i < 0 {
		i += period
	}
	if i >= n {
		i = period - i
	}
	return i
}

func saturate(v float64) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}
