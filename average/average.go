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

package average

import "fmt"

// Channel selects one colour channel of a pixel.
type Channel int

const (
	Red Channel = iota
	Green
	Blue

	numChannels = 3
)

// New returns an Averager for a width x height grid which smooths each
// channel of each pixel over the last frames samples.
func New(width, height, frames int) *Averager {
	if width < 1 || height < 1 || frames < 1 {
		panic(fmt.Sprintf("invalid averager size %dx%d over %d frames", width, height, frames))
	}
	slots := width * height * numChannels
	return &Averager{
		width:   width,
		height:  height,
		frames:  frames,
		samples: make([]uint8, slots*frames),
		slots:   make([]slot, slots),
	}
}

// Averager keeps a rolling history per (x, y, channel) and returns the
// mean of it. All histories live in one preallocated arena; each slot
// owns frames consecutive bytes used as a ring.
type Averager struct {
	width   int
	height  int
	frames  int
	samples []uint8
	slots   []slot
}

type slot struct {
	count int
	next  int
	sum   uint32
}

// Frames returns the averaging window length.
func (a *Averager) Frames() int {
	return a.frames
}

// Observe adds v to the history of (x, y, ch), dropping the oldest
// sample once the history holds more than Frames() values, and returns
// the integer mean of the history. Until the window fills the mean is
// over the samples seen so far.
func (a *Averager) Observe(x, y int, ch Channel, v uint8) uint8 {
	if x < 0 || x >= a.width || y < 0 || y >= a.height || ch < Red || ch > Blue {
		panic(fmt.Sprintf("averager key out of range: (%d, %d, %d)", x, y, ch))
	}
	index := (y*a.width+x)*numChannels + int(ch)
	s := &a.slots[index]
	ring := a.samples[index*a.frames : (index+1)*a.frames]

	if s.count == a.frames {
		s.sum -= uint32(ring[s.next])
	} else {
		s.count++
	}
	ring[s.next] = v
	s.sum += uint32(v)
	s.next = (s.next + 1) % a.frames

	return uint8(s.sum / uint32(s.count))
}
