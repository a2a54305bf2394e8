package imaging

import (
	"image/color"
	"math"
	"testing"
)

func TestSplitLab_MergeRoundTrip(t *testing.T) {
	src := createNoiseImage(64, 48, 7)

	out := SplitLab(src).Merge()

	if out.Bounds() != src.Bounds() {
		t.Fatalf("Bounds: got %v, want %v", out.Bounds(), src.Bounds())
	}
	for i := range src.Pix {
		if out.Pix[i] != src.Pix[i] {
			t.Fatalf("byte %d: got %d, want %d", i, out.Pix[i], src.Pix[i])
		}
	}
}

func TestSplitLab_Gray(t *testing.T) {
	tests := []struct {
		name  string
		value uint8
		wantL int // -1 means only check chroma
	}{
		{"black", 0, 0},
		{"white", 255, 255},
		{"mid gray", 128, -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			img := createInMemoryImage(4, 4, color.NRGBA{tt.value, tt.value, tt.value, 255})
			p := SplitLab(img)

			if p.Width != 4 || p.Height != 4 {
				t.Fatalf("planes: got %dx%d, want 4x4", p.Width, p.Height)
			}
			if tt.wantL >= 0 && int(p.L.GrayAt(1, 1).Y) != tt.wantL {
				t.Errorf("L: got %d, want %d", p.L.GrayAt(1, 1).Y, tt.wantL)
			}
			for i := range p.A {
				if math.Abs(p.A[i]) > 1e-3 || math.Abs(p.B[i]) > 1e-3 {
					t.Fatalf("chroma at %d: got a=%f b=%f, want ~0", i, p.A[i], p.B[i])
				}
			}
		})
	}
}

func TestSplitLab_LightnessOrdering(t *testing.T) {
	dark := SplitLab(createInMemoryImage(2, 2, color.NRGBA{40, 40, 40, 255}))
	light := SplitLab(createInMemoryImage(2, 2, color.NRGBA{200, 200, 200, 255}))

	if dark.L.GrayAt(0, 0).Y >= light.L.GrayAt(0, 0).Y {
		t.Errorf("L ordering: dark %d should be below light %d",
			dark.L.GrayAt(0, 0).Y, light.L.GrayAt(0, 0).Y)
	}
}

func TestMerge_ShiftsLightnessOnly(t *testing.T) {
	src := createInMemoryImage(8, 8, color.NRGBA{150, 90, 60, 255})
	p := SplitLab(src)

	for i := range p.L.Pix {
		p.L.Pix[i] += 20
	}
	out := p.Merge()

	after := SplitLab(out)
	if d := int(after.L.Pix[0]) - int(p.L.Pix[0]); d < -1 || d > 1 {
		t.Errorf("L: got %d, want %d", after.L.Pix[0], p.L.Pix[0])
	}

	before := SplitLab(src)
	hueBefore := math.Atan2(before.B[0], before.A[0])
	hueAfter := math.Atan2(after.B[0], after.A[0])
	if math.Abs(hueBefore-hueAfter) > 0.05 {
		t.Errorf("hue: got %f, want %f", hueAfter, hueBefore)
	}
}

func TestQuantizeLightness(t *testing.T) {
	tests := []struct {
		l    float64
		want uint8
	}{
		{-0.1, 0},
		{0, 0},
		{0.5, 128},
		{1, 255},
		{1.2, 255},
	}

	for _, tt := range tests {
		if got := quantizeLightness(tt.l); got != tt.want {
			t.Errorf("quantizeLightness(%v): got %d, want %d", tt.l, got, tt.want)
		}
	}
}
