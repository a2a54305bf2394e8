package imaging

import (
	"bytes"
	"encoding/binary"
	"errors"
	"hash/crc32"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"math/rand"
	"testing"
)

// createInMemoryImage creates a solid-colour opaque test image
func createInMemoryImage(width, height int, c color.Color) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

// createCheckerboard alternates two colours in cell x cell squares
func createCheckerboard(width, height, cell int, a, b color.Color) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if (x/cell+y/cell)%2 == 0 {
				img.Set(x, y, a)
			} else {
				img.Set(x, y, b)
			}
		}
	}
	return img
}

// createNoiseImage fills an image with reproducible random colours
func createNoiseImage(width, height int, seed int64) *image.NRGBA {
	rng := rand.New(rand.NewSource(seed))
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i] = uint8(rng.Intn(256))
		img.Pix[i+1] = uint8(rng.Intn(256))
		img.Pix[i+2] = uint8(rng.Intn(256))
		img.Pix[i+3] = 255
	}
	return img
}

func encodePNGBytes(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("failed to encode png: %v", err)
	}
	return buf.Bytes()
}

func encodeJPEGBytes(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90}); err != nil {
		t.Fatalf("failed to encode jpeg: %v", err)
	}
	return buf.Bytes()
}

// pngHeader builds a PNG signature plus an IHDR chunk declaring the given
// dimensions, without any pixel data.
func pngHeader(width, height uint32) []byte {
	var buf bytes.Buffer
	buf.WriteString("\x89PNG\r\n\x1a\n")

	ihdr := make([]byte, 13)
	binary.BigEndian.PutUint32(ihdr[0:4], width)
	binary.BigEndian.PutUint32(ihdr[4:8], height)
	ihdr[8] = 8 // bit depth
	ihdr[9] = 2 // truecolor

	_ = binary.Write(&buf, binary.BigEndian, uint32(len(ihdr)))
	chunk := append([]byte("IHDR"), ihdr...)
	buf.Write(chunk)
	_ = binary.Write(&buf, binary.BigEndian, crc32.ChecksumIEEE(chunk))
	return buf.Bytes()
}

func TestDecode_PNG(t *testing.T) {
	src := createInMemoryImage(40, 30, color.NRGBA{200, 100, 50, 255})

	img, info, err := Decode(encodePNGBytes(t, src), 0)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}

	if info.Width != 40 || info.Height != 30 {
		t.Errorf("dimensions: got %dx%d, want 40x30", info.Width, info.Height)
	}
	if info.Format != "png" {
		t.Errorf("Format: got %s, want png", info.Format)
	}
	if img.Bounds() != image.Rect(0, 0, 40, 30) {
		t.Errorf("Bounds: got %v", img.Bounds())
	}

	got := img.NRGBAAt(10, 10)
	if got != (color.NRGBA{200, 100, 50, 255}) {
		t.Errorf("pixel: got %v, want {200 100 50 255}", got)
	}
}

func TestDecode_JPEG(t *testing.T) {
	src := createInMemoryImage(64, 48, color.NRGBA{128, 128, 128, 255})

	img, info, err := Decode(encodeJPEGBytes(t, src), 0)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if info.Format != "jpeg" {
		t.Errorf("Format: got %s, want jpeg", info.Format)
	}
	if info.HasAlpha {
		t.Error("JPEG should not report alpha")
	}
	if img.Bounds().Dx() != 64 || img.Bounds().Dy() != 48 {
		t.Errorf("dimensions: got %v", img.Bounds())
	}
}

func TestDecode_DropsAlpha(t *testing.T) {
	src := createInMemoryImage(8, 8, color.NRGBA{10, 200, 30, 0})

	img, info, err := Decode(encodePNGBytes(t, src), 0)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if !info.HasAlpha {
		t.Error("HasAlpha should be true for an NRGBA PNG")
	}

	for i := 3; i < len(img.Pix); i += 4 {
		if img.Pix[i] != 255 {
			t.Fatalf("alpha at byte %d: got %d, want 255", i, img.Pix[i])
		}
	}
}

func TestDecode_SixteenBit(t *testing.T) {
	src := image.NewRGBA64(image.Rect(0, 0, 4, 4))
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			src.SetRGBA64(x, y, color.RGBA64{0x8000, 0x4000, 0x2000, 0xffff})
		}
	}

	_, info, err := Decode(encodePNGBytes(t, src), 0)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if info.ColorDepth != "16-bit" {
		t.Errorf("ColorDepth: got %s, want 16-bit", info.ColorDepth)
	}
}

func TestDecode_Errors(t *testing.T) {
	tests := []struct {
		name    string
		data    []byte
		wantErr error
	}{
		{"empty", nil, ErrEmptyImage},
		{"text", []byte("definitely not an image"), nil},
		{"truncated png", pngHeader(10, 10), nil},
		{"too large", pngHeader(8192, 8192), ErrImageTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := Decode(tt.data, 0)
			if err == nil {
				t.Fatal("Decode should fail")
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("error: got %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestDecode_SizeBytes(t *testing.T) {
	data := encodePNGBytes(t, createInMemoryImage(5, 5, color.White))

	_, info, err := Decode(data, 0)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if info.SizeBytes != len(data) {
		t.Errorf("SizeBytes: got %d, want %d", info.SizeBytes, len(data))
	}
}

func TestDecode_PixelLimit(t *testing.T) {
	data := encodePNGBytes(t, createInMemoryImage(20, 10, color.White))

	tests := []struct {
		name      string
		maxPixels int
		wantErr   bool
	}{
		{"default", 0, false},
		{"exact fit", 200, false},
		{"one pixel short", 199, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := Decode(data, tt.maxPixels)
			if tt.wantErr {
				if !errors.Is(err, ErrImageTooLarge) {
					t.Errorf("error: got %v, want ErrImageTooLarge", err)
				}
				return
			}
			if err != nil {
				t.Errorf("Decode failed: %v", err)
			}
		})
	}
}
