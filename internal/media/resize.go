package media

import (
	"image"
	"image/gif"
	"math"

	"golang.org/x/image/draw"
)

// FitWithin scales w x h down so both sides fit maxW x maxH, keeping the
// aspect ratio. Sizes already inside the box are returned unchanged.
func FitWithin(w, h, maxW, maxH int) (int, int) {
	if w <= 0 || h <= 0 || (w <= maxW && h <= maxH) {
		return w, h
	}
	ratio := math.Min(float64(maxW)/float64(w), float64(maxH)/float64(h))
	nw := max(1, int(math.Round(float64(w)*ratio)))
	nh := max(1, int(math.Round(float64(h)*ratio)))
	return nw, nh
}

// Resize scales img to w x h. The result is non-premultiplied so
// transparency survives re-encoding.
func Resize(img image.Image, w, h int) *image.NRGBA {
	dst := image.NewNRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Src, nil)
	return dst
}

// ResizeGIF scales every frame of g so the logical screen becomes w x h.
// Frames keep their own palettes, including the transparent index.
func ResizeGIF(g *gif.GIF, w, h int) {
	sx := float64(w) / float64(g.Config.Width)
	sy := float64(h) / float64(g.Config.Height)

	for i, frame := range g.Image {
		b := frame.Bounds()
		r := image.Rect(
			int(math.Round(float64(b.Min.X)*sx)),
			int(math.Round(float64(b.Min.Y)*sy)),
			int(math.Round(float64(b.Max.X)*sx)),
			int(math.Round(float64(b.Max.Y)*sy)),
		)
		if r.Dx() < 1 {
			r.Max.X = r.Min.X + 1
		}
		if r.Dy() < 1 {
			r.Max.Y = r.Min.Y + 1
		}
		dst := image.NewPaletted(r, frame.Palette)
		draw.NearestNeighbor.Scale(dst, r, frame, b, draw.Src, nil)
		g.Image[i] = dst
	}

	g.Config.Width = w
	g.Config.Height = h
}
