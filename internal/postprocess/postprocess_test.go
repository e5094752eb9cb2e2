package postprocess

import (
	"bytes"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func checker(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := color.NRGBA{R: 200, G: 40, B: 40, A: 255}
			if (x+y)%2 == 1 {
				c = color.NRGBA{R: 40, G: 40, B: 200, A: 255}
			}
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

func TestParseFormat(t *testing.T) {
	specs := map[string]Format{"": WebP, "webp": WebP, "png": PNG, "tga": TGA}
	for in, exp := range specs {
		f, err := ParseFormat(in)
		require.NoError(t, err, in)
		assert.Equal(t, exp, f)
	}
	_, err := ParseFormat("jpeg")
	assert.Error(t, err)
	assert.Equal(t, ".tga", TGA.Ext())
}

func TestEncodeRoundTrip(t *testing.T) {
	src := checker(6, 4)
	for _, f := range []Format{PNG, TGA, WebP} {
		t.Run(string(f), func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, Encode(&buf, src, f))
			require.NotZero(t, buf.Len())

			img, err := Decode(&buf)
			require.NoError(t, err)
			assert.Equal(t, src.Bounds().Size(), img.Bounds().Size())

			// All three formats are lossless for opaque pixels.
			r, g, b, a := img.At(img.Bounds().Min.X, img.Bounds().Min.Y).RGBA()
			assert.Equal(t, [4]uint32{200 * 0x101, 40 * 0x101, 40 * 0x101, 0xffff}, [4]uint32{r, g, b, a})
		})
	}
	assert.Error(t, Encode(&bytes.Buffer{}, src, Format("bmp")))
}

func TestSniff(t *testing.T) {
	src := checker(2, 2)
	for _, f := range []Format{PNG, TGA, WebP} {
		var buf bytes.Buffer
		require.NoError(t, Encode(&buf, src, f))
		assert.Equal(t, f, Sniff(buf.Bytes()), string(f))
	}
	assert.Equal(t, TGA, Sniff(nil))
	assert.Equal(t, TGA, Sniff([]byte("RIFF")))
}

func TestDecodeFile(t *testing.T) {
	dir := t.TempDir()
	for _, f := range []Format{PNG, WebP} {
		path := filepath.Join(dir, "frame"+f.Ext())
		require.NoError(t, WriteFile(path, checker(5, 3), f))

		in, err := os.Open(path)
		require.NoError(t, err)
		img, err := Decode(in)
		in.Close()
		require.NoError(t, err, string(f))
		assert.Equal(t, image.Pt(5, 3), img.Bounds().Size())
	}

	_, err := Decode(bytes.NewReader([]byte("not an image")))
	assert.Error(t, err)
}

func TestWriteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "out.png")
	require.NoError(t, WriteFile(path, checker(3, 3), PNG))
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Positive(t, info.Size())
}

func TestDownsample(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 8, 8))
	for i := 0; i < len(src.Pix); i += 4 {
		src.Pix[i], src.Pix[i+1], src.Pix[i+2], src.Pix[i+3] = 255, 128, 0, 255
	}
	dst := Downsample(src, 4, 4)
	require.Equal(t, image.Rect(0, 0, 4, 4), dst.Bounds())
	c := dst.NRGBAAt(1, 2)
	assert.InDelta(t, 255, c.R, 1)
	assert.InDelta(t, 128, c.G, 1)
	assert.InDelta(t, 0, c.B, 1)
	assert.InDelta(t, 255, c.A, 1)

	// Already small enough: returned as is.
	assert.Same(t, src, Downsample(src, 8, 8))

	// Transparent pixels do not darken their neighbours.
	half := image.NewNRGBA(image.Rect(0, 0, 4, 4))
	for y := 0; y < 4; y++ {
		for x := 0; x < 2; x++ {
			half.SetNRGBA(x, y, color.NRGBA{R: 255, A: 255})
		}
	}
	small := Downsample(half, 2, 2)
	assert.InDelta(t, 255, small.NRGBAAt(0, 0).R, 2)
}

func TestDownsampleDepth(t *testing.T) {
	src := image.NewGray16(image.Rect(0, 0, 8, 8))
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			// One depth per 4×4 block.
			src.SetGray16(x, y, color.Gray16{Y: uint16(1000 * (1 + x/4 + 2*(y/4)))})
		}
	}
	dst := DownsampleDepth(src, 2, 2)
	require.Equal(t, image.Rect(0, 0, 2, 2), dst.Bounds())
	for y := 0; y < 2; y++ {
		for x := 0; x < 2; x++ {
			assert.Equal(t, uint16(1000*(1+x+2*y)), dst.Gray16At(x, y).Y, "pixel (%d,%d)", x, y)
		}
	}
	assert.Same(t, src, DownsampleDepth(src, 8, 8))
}
