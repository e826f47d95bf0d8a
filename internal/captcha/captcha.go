// Package captcha generates short challenge codes and draws them as noisy
// PNG images.
package captcha

import (
	"crypto/rand"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"
	"math/big"
	mrand "math/rand/v2"
	"strings"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

const (
	// Alphabet omits glyphs that are easy to confuse (0/O, 1/I).
	Alphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	// Length is the number of characters in a code.
	Length = 6
	// Width and Height are the image dimensions in pixels.
	Width  = 200
	Height = 60
)

// NewCode returns a random code of Length characters from Alphabet.
func NewCode() (string, error) {
	var b strings.Builder
	size := big.NewInt(int64(len(Alphabet)))
	for range Length {
		n, err := rand.Int(rand.Reader, size)
		if err != nil {
			return "", fmt.Errorf("captcha code: %w", err)
		}
		b.WriteByte(Alphabet[n.Int64()])
	}
	return b.String(), nil
}

// Verify compares the submitted answer with the issued code, ignoring case
// and surrounding spaces. An empty expected code never matches.
func Verify(expected, given string) bool {
	if expected == "" {
		return false
	}
	return strings.EqualFold(expected, strings.TrimSpace(given))
}

// Render draws code as a Width x Height PNG.
func Render(w io.Writer, code string) error {
	img := image.NewRGBA(image.Rect(0, 0, Width, Height))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: color.RGBA{R: 240, G: 240, B: 240, A: 255}}, image.Point{}, draw.Src)

	for range 5 {
		gray := uint8(150 + mrand.IntN(50))
		line(img, mrand.IntN(Width), mrand.IntN(Height), mrand.IntN(Width), mrand.IntN(Height),
			color.RGBA{R: gray, G: gray, B: gray, A: 255})
	}

	for range 100 {
		gray := uint8(100 + mrand.IntN(100))
		img.Set(mrand.IntN(Width), mrand.IntN(Height), color.RGBA{R: gray, G: gray, B: gray, A: 255})
	}

	x := 15
	for _, ch := range code {
		c := color.RGBA{
			R: uint8(mrand.IntN(100)),
			G: uint8(mrand.IntN(100)),
			B: uint8(mrand.IntN(100)),
			A: 255,
		}
		y := Height/2 - 13 + mrand.IntN(11) - 5
		glyph(img, ch, x, y, c)
		x += 28 + mrand.IntN(7) - 3
	}

	for range 3 {
		line(img, mrand.IntN(Width), mrand.IntN(Height), mrand.IntN(Width), mrand.IntN(Height),
			color.RGBA{R: 200, G: 200, B: 200, A: 255})
	}

	if err := png.Encode(w, img); err != nil {
		return fmt.Errorf("encode captcha: %w", err)
	}
	return nil
}

// glyph draws ch from the 7x13 bitmap font scaled 2x with its top-left
// corner at (x, y).
func glyph(dst *image.RGBA, ch rune, x, y int, c color.Color) {
	const scale = 2
	face := basicfont.Face7x13

	mask := image.NewAlpha(image.Rect(0, 0, face.Width, face.Height))
	d := &font.Drawer{
		Dst:  mask,
		Src:  image.Opaque,
		Face: face,
		Dot:  fixed.P(0, face.Ascent),
	}
	d.DrawString(string(ch))

	for my := 0; my < face.Height; my++ {
		for mx := 0; mx < face.Width; mx++ {
			if mask.AlphaAt(mx, my).A == 0 {
				continue
			}
			for sy := 0; sy < scale; sy++ {
				for sx := 0; sx < scale; sx++ {
					dst.Set(x+mx*scale+sx, y+my*scale+sy, c)
				}
			}
		}
	}
}

// line draws a 1px segment with Bresenham's algorithm.
func line(dst *image.RGBA, x0, y0, x1, y1 int, c color.Color) {
	dx := abs(x1 - x0)
	dy := -abs(y1 - y0)
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}
	e := dx + dy
	for {
		dst.Set(x0, y0, c)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * e
		if e2 >= dy {
			e += dy
			x0 += sx
		}
		if e2 <= dx {
			e += dx
			y0 += sy
		}
	}
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
