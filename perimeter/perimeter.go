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

// Package perimeter walks the border of a frame in the order the LEDs
// are wired around the screen.
package perimeter

import (
	"github.com/TheCacophonyProject/tv-backlight/raster"
)

// Length returns the number of LEDs around a width x height border.
func Length(width, height int) int {
	return 2*(width-1) + 2*(height-1)
}

// Extract returns the border colours of r. The top and bottom edges are
// read from rows top and bottom so letterbox bars are skipped.
func Extract(r raster.Accessor, top, bottom int) []raster.Color {
	return AppendTo(make([]raster.Color, 0, Length(r.Width(), r.Height())), r, top, bottom)
}

// AppendTo appends the border colours of r to dst, in strip order:
//
//  1. bottom edge, left to right, at row bottom (the last column is left
//     to the right edge)
//  2. right edge, bottom to top, stopping short of the top row
//  3. top edge, right to left, at row top (the first column is left to
//     the left edge)
//  4. left edge, top to bottom, stopping short of the bottom row
//
// Rows outside the frame are clamped to it.
func AppendTo(dst []raster.Color, r raster.Accessor, top, bottom int) []raster.Color {
	realWidth := r.Width() - 1
	realHeight := r.Height() - 1
	top = clamp(top, realHeight)
	bottom = clamp(bottom, realHeight)

	for x := 0; x < realWidth; x++ {
		dst = append(dst, raster.At(r, x, bottom))
	}
	for y := realHeight; y > 0; y-- {
		dst = append(dst, raster.At(r, realWidth, y))
	}
	for x := realWidth; x > 0; x-- {
		dst = append(dst, raster.At(r, x, top))
	}
	for y := 0; y < realHeight; y++ {
		dst = append(dst, raster.At(r, 0, y))
	}
	return dst
}

func clamp(row, last int) int {
	if row < 0 {
		return 0
	}
	if row > last {
		return last
	}
	return row
}
