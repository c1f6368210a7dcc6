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

// Package blackbar finds letterbox bars at the top and bottom of the
// picture so the LED strip follows the active video area.
package blackbar

import (
	"github.com/TheCacophonyProject/tv-backlight/raster"
)

// New returns a Detector for width x height rasters. Each probe column
// is scanned searchHeight rows in from the top and bottom, and bar
// positions are held over candidateLength ticks.
func New(width, height, searchHeight, candidateLength int) *Detector {
	return &Detector{
		width:        width,
		height:       height,
		searchHeight: searchHeight,
		probes:       probePoints(width),
		top:          newWindow(candidateLength),
		bottom:       newWindow(candidateLength),
	}
}

// Detector tracks the active vertical extent of the picture.
//
// The reported top row is the smallest top candidate seen over the
// window and the reported bottom row the largest bottom candidate, so
// one frame without bars pulls the bounds back to the edges while bars
// must be seen for the whole window before the bounds move inward.
type Detector struct {
	width        int
	height       int
	searchHeight int
	probes       []int
	top          *window
	bottom       *window
}

func probePoints(width int) []int {
	return []int{0, width / 4, width / 2, int(float64(width) * 0.75), width - 1}
}

// ProbePoints returns the columns scanned for bars.
func (d *Detector) ProbePoints() []int {
	out := make([]int, len(d.probes))
	copy(out, d.probes)
	return out
}

// Detect scans r, records this tick's candidates and returns the
// current top and bottom rows of the active picture. r must be the
// size the Detector was created for.
func (d *Detector) Detect(r raster.Accessor) (top, bottom int) {
	top, bottom = d.candidates(r)
	d.top.push(top)
	d.bottom.push(bottom)
	return d.top.min(), d.bottom.max()
}

// candidates returns the bar rows for a single frame, the least
// letterboxed result across the probe columns.
func (d *Detector) candidates(r raster.Accessor) (top, bottom int) {
	realHeight := d.height - 1
	depth := d.searchHeight
	if depth > d.height {
		depth = d.height
	}

	for i, x := range d.probes {
		thisTop := 0
		thisBottom := realHeight
		// The last black row wins, including past a non-black row.
		for y := 0; y < depth; y++ {
			if raster.At(r, x, y) == 0 {
				thisTop = y + 1
			}
			if raster.At(r, x, realHeight-y) == 0 {
				thisBottom = (realHeight - y) - 1
			}
		}

		if i == 0 || thisTop < top {
			top = thisTop
		}
		if i == 0 || thisBottom > bottom {
			bottom = thisBottom
		}
	}
	return top, bottom
}
