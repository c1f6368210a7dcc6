// tv-backlight - drive ambient TV backlighting from screen captures
//  Copyright (C) 2020, The Cacophony Project
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program. If not, see <http://www.gnu.org/licenses/>.

// Package raster holds the small RGB images the backlight pipeline
// works on and the accessor interface every capture backend presents.
package raster

import (
	"fmt"
	"image"
)

// Accessor gives read access to the pixels of a captured frame.
// Implementations resolve their own channel order so callers always
// see (R, G, B).
type Accessor interface {
	Width() int
	Height() int
	ColorAt(x, y int) (r, g, b uint8)
}

// Color is a packed 0x00RRGGBB value, the form the LED controller
// expects on the wire.
type Color uint32

// RGB packs three channel values into a Color.
func RGB(r, g, b uint8) Color {
	return Color(r)<<16 | Color(g)<<8 | Color(b)
}

func (c Color) R() uint8 { return uint8(c >> 16) }
func (c Color) G() uint8 { return uint8(c >> 8) }
func (c Color) B() uint8 { return uint8(c) }

func (c Color) String() string {
	return fmt.Sprintf("#%06x", uint32(c)&0xffffff)
}

// At returns the packed colour of pixel (x, y) of an Accessor.
func At(a Accessor, x, y int) Color {
	return RGB(a.ColorAt(x, y))
}

// Raster is a dense RGB image, three bytes per pixel, row major.
type Raster struct {
	width  int
	height int
	Pix    []uint8
}

// New returns a black raster of the given size.
func New(width, height int) *Raster {
	return &Raster{
		width:  width,
		height: height,
		Pix:    make([]uint8, width*height*3),
	}
}

func (r *Raster) Width() int  { return r.width }
func (r *Raster) Height() int { return r.height }

func (r *Raster) offset(x, y int) int {
	return (y*r.width + x) * 3
}

// ColorAt implements Accessor.
func (r *Raster) ColorAt(x, y int) (uint8, uint8, uint8) {
	i := r.offset(x, y)
	return r.Pix[i], r.Pix[i+1], r.Pix[i+2]
}

// Set writes pixel (x, y).
func (r *Raster) Set(x, y int, red, green, blue uint8) {
	i := r.offset(x, y)
	r.Pix[i] = red
	r.Pix[i+1] = green
	r.Pix[i+2] = blue
}

// SetColor writes a packed colour to pixel (x, y).
func (r *Raster) SetColor(x, y int, c Color) {
	r.Set(x, y, c.R(), c.G(), c.B())
}

// Fill sets every pixel to c.
func (r *Raster) Fill(c Color) {
	for i := 0; i < len(r.Pix); i += 3 {
		r.Pix[i] = c.R()
		r.Pix[i+1] = c.G()
		r.Pix[i+2] = c.B()
	}
}

// FromRGBA wraps an *image.RGBA as an Accessor without copying.
// Coordinates are relative to the image bounds.
func FromRGBA(img *image.RGBA) Accessor {
	return rgbaAccessor{img}
}

type rgbaAccessor struct {
	img *image.RGBA
}

func (a rgbaAccessor) Width() int  { return a.img.Rect.Dx() }
func (a rgbaAccessor) Height() int { return a.img.Rect.Dy() }

func (a rgbaAccessor) ColorAt(x, y int) (uint8, uint8, uint8) {
	i := a.img.PixOffset(a.img.Rect.Min.X+x, a.img.Rect.Min.Y+y)
	return a.img.Pix[i], a.img.Pix[i+1], a.img.Pix[i+2]
}
