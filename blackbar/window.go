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

package blackbar

func newWindow(size int) *window {
	if size < 1 {
		size = 1
	}
	return &window{values: make([]int, size)}
}

// window is a fixed length loop of candidate rows. It starts filled
// with zeros and the oldest value is overwritten on each push.
type window struct {
	values       []int
	currentIndex int
}

func (w *window) push(v int) {
	w.values[w.currentIndex] = v
	w.currentIndex = (w.currentIndex + 1) % len(w.values)
}

func (w *window) min() int {
	out := w.values[0]
	for _, v := range w.values[1:] {
		if v < out {
			out = v
		}
	}
	return out
}

func (w *window) max() int {
	out := w.values[0]
	for _, v := range w.values[1:] {
		if v > out {
			out = v
		}
	}
	return out
}
