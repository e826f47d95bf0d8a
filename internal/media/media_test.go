package media

import (
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"hash/crc32"
	"image"
	"image/color"
	"image/gif"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: 200, G: 10, B: 10, A: 80})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func jpegBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, nil))
	return buf.Bytes()
}

// hugePNG is a bare signature plus an IHDR chunk declaring w x h RGBA pixels.
func hugePNG(w, h uint32) []byte {
	var buf bytes.Buffer
	buf.WriteString("\x89PNG\r\n\x1a\n")

	chunk := make([]byte, 0, 17)
	chunk = append(chunk, "IHDR"...)
	chunk = binary.BigEndian.AppendUint32(chunk, w)
	chunk = binary.BigEndian.AppendUint32(chunk, h)
	chunk = append(chunk, 8, 6, 0, 0, 0)

	_ = binary.Write(&buf, binary.BigEndian, uint32(len(chunk)-4))
	buf.Write(chunk)
	_ = binary.Write(&buf, binary.BigEndian, crc32.ChecksumIEEE(chunk))
	return buf.Bytes()
}

// lossless 1x1 WebP
const tinyWebP = "UklGRhoAAABXRUJQVlA4TA0AAAAvAAAAEAcQERGIiP4HAA=="

func filesIn(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil
	}
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

func TestFitWithin(t *testing.T) {
	tests := []struct {
		w, h, wantW, wantH int
	}{
		{640, 480, 640, 480},
		{800, 800, 800, 800},
		{1600, 1200, 800, 600},
		{1200, 1600, 600, 800},
		{1000, 333, 800, 266},
		{3000, 1, 800, 1},
	}
	for _, tt := range tests {
		w, h := FitWithin(tt.w, tt.h, MaxWidth, MaxHeight)
		assert.Equal(t, tt.wantW, w, "width for %dx%d", tt.w, tt.h)
		assert.Equal(t, tt.wantH, h, "height for %dx%d", tt.w, tt.h)
	}
}

func TestSave_RejectsNonImage(t *testing.T) {
	root := t.TempDir()
	s := NewStore(root)

	_, err := s.Save(strings.NewReader("<?php echo 'hi'; ?>"))
	require.ErrorIs(t, err, ErrUnsupportedType)
	assert.Empty(t, filesIn(t, filepath.Join(root, ImageDir)))
}

func TestSave_RejectsTruncatedImage(t *testing.T) {
	root := t.TempDir()
	s := NewStore(root)

	data := pngBytes(t, 10, 10)
	_, err := s.Save(bytes.NewReader(data[:40]))
	require.ErrorIs(t, err, ErrUnsupportedType)
	assert.Empty(t, filesIn(t, filepath.Join(root, ImageDir)))
}

func TestSave_RejectsHugeDimensions(t *testing.T) {
	root := t.TempDir()
	s := NewStore(root)

	_, err := s.Save(bytes.NewReader(hugePNG(40000, 40000)))
	require.ErrorIs(t, err, ErrDimensions)
	assert.Empty(t, filesIn(t, filepath.Join(root, ImageDir)))
}

func TestPrepare_WritesNothing(t *testing.T) {
	root := t.TempDir()
	s := NewStore(root)

	u, err := s.Prepare(bytes.NewReader(jpegBytes(t, 20, 20)))
	require.NoError(t, err)
	assert.Empty(t, filesIn(t, filepath.Join(root, ImageDir)))

	rel, err := s.Write(u)
	require.NoError(t, err)
	assert.True(t, s.Exists(rel))
}

func TestSave_WebPStoredAsPNG(t *testing.T) {
	data, err := base64.StdEncoding.DecodeString(tinyWebP)
	require.NoError(t, err)

	root := t.TempDir()
	s := NewStore(root)
	rel, err := s.Save(bytes.NewReader(data))
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(rel, ".png"))

	f, err := os.Open(filepath.Join(root, filepath.FromSlash(rel)))
	require.NoError(t, err)
	defer f.Close()
	img, err := png.Decode(f)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 1, 1), img.Bounds())
}

func TestSave_ResizesLargeJPEG(t *testing.T) {
	root := t.TempDir()
	s := NewStore(root)

	rel, err := s.Save(bytes.NewReader(jpegBytes(t, 1600, 1200)))
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(rel, ".jpg"))

	f, err := os.Open(filepath.Join(root, filepath.FromSlash(rel)))
	require.NoError(t, err)
	defer f.Close()
	cfg, err := jpeg.DecodeConfig(f)
	require.NoError(t, err)
	assert.Equal(t, 800, cfg.Width)
	assert.Equal(t, 600, cfg.Height)
}

func TestSave_ResizesLargePNGKeepingAlpha(t *testing.T) {
	root := t.TempDir()
	s := NewStore(root)

	rel, err := s.Save(bytes.NewReader(pngBytes(t, 1000, 500)))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(rel, ImageDir+"/sneaker_"))
	assert.True(t, strings.HasSuffix(rel, ".png"))
	assert.True(t, s.Exists(rel))

	f, err := os.Open(filepath.Join(root, filepath.FromSlash(rel)))
	require.NoError(t, err)
	defer f.Close()

	img, err := png.Decode(f)
	require.NoError(t, err)
	assert.Equal(t, 800, img.Bounds().Dx())
	assert.Equal(t, 400, img.Bounds().Dy())

	_, _, _, a := img.At(400, 200).RGBA()
	assert.Less(t, a, uint32(0xffff), "alpha channel must survive")
}

func TestSave_SmallJPEGStoredAsIs(t *testing.T) {
	root := t.TempDir()
	s := NewStore(root)
	data := jpegBytes(t, 120, 80)

	rel, err := s.Save(bytes.NewReader(data))
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(rel, ".jpg"))

	stored, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(rel)))
	require.NoError(t, err)
	assert.Equal(t, data, stored)
}

func TestSave_ResizesGIF(t *testing.T) {
	pal := color.Palette{color.Transparent, color.Black}
	g := &gif.GIF{
		Image:  []*image.Paletted{image.NewPaletted(image.Rect(0, 0, 1600, 400), pal)},
		Delay:  []int{0},
		Config: image.Config{Width: 1600, Height: 400, ColorModel: pal},
	}
	var buf bytes.Buffer
	require.NoError(t, gif.EncodeAll(&buf, g))

	s := NewStore(t.TempDir())
	rel, err := s.Save(&buf)
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(rel, ".gif"))

	f, err := os.Open(filepath.Join(s.root, filepath.FromSlash(rel)))
	require.NoError(t, err)
	defer f.Close()
	cfg, err := gif.DecodeConfig(f)
	require.NoError(t, err)
	assert.Equal(t, 800, cfg.Width)
	assert.Equal(t, 200, cfg.Height)
}

func TestSave_UniqueNames(t *testing.T) {
	s := NewStore(t.TempDir())
	data := jpegBytes(t, 10, 10)

	a, err := s.Save(bytes.NewReader(data))
	require.NoError(t, err)
	b, err := s.Save(bytes.NewReader(data))
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestRemove(t *testing.T) {
	s := NewStore(t.TempDir())
	rel, err := s.Save(bytes.NewReader(jpegBytes(t, 10, 10)))
	require.NoError(t, err)

	require.NoError(t, s.Remove(rel))
	assert.False(t, s.Exists(rel))

	// removing again is fine
	require.NoError(t, s.Remove(rel))
	require.NoError(t, s.Remove(""))
}

func TestRemove_RejectsTraversal(t *testing.T) {
	s := NewStore(t.TempDir())
	for _, rel := range []string{"../secret.txt", "uploads/../../etc/passwd", `..\evil`} {
		assert.ErrorIs(t, s.Remove(rel), ErrOutsideRoot, rel)
	}
}

func TestURL_Placeholder(t *testing.T) {
	s := NewStore(t.TempDir())
	assert.Equal(t, PlaceholderURL, s.URL(""))
	assert.Equal(t, PlaceholderURL, s.URL("uploads/images/gone.jpg"))

	rel, err := s.Save(bytes.NewReader(jpegBytes(t, 10, 10)))
	require.NoError(t, err)
	assert.Equal(t, "/"+rel, s.URL(rel))
}
