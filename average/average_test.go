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

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
)

func observeAll(a *Averager, x, y int, ch Channel, values ...uint8) []uint8 {
	out := make([]uint8, len(values))
	for i, v := range values {
		out[i] = a.Observe(x, y, ch, v)
	}
	return out
}

func TestTwoFrameWindow(t *testing.T) {
	a := New(1, 1, 2)
	assert.Equal(t, []uint8{10, 15, 25}, observeAll(a, 0, 0, Red, 10, 20, 30))
}

func TestShortWindowIsNotZeroPadded(t *testing.T) {
	a := New(1, 1, 4)
	assert.Equal(t, []uint8{100, 100, 100}, observeAll(a, 0, 0, Green, 100, 100, 100))
}

func TestMeanTruncates(t *testing.T) {
	a := New(1, 1, 3)
	assert.Equal(t, []uint8{1, 1, 1, 1}, observeAll(a, 0, 0, Blue, 1, 2, 0, 2))
}

func TestSingleFrameWindowPassesThrough(t *testing.T) {
	a := New(2, 2, 1)
	assert.Equal(t, []uint8{5, 250, 0, 7}, observeAll(a, 1, 1, Red, 5, 250, 0, 7))
}

func TestKeysAreIndependent(t *testing.T) {
	a := New(3, 2, 2)
	assert.Equal(t, uint8(200), a.Observe(0, 0, Red, 200))
	assert.Equal(t, uint8(10), a.Observe(0, 0, Green, 10))
	assert.Equal(t, uint8(50), a.Observe(2, 1, Red, 50))
	assert.Equal(t, uint8(100), a.Observe(0, 0, Red, 0))
	assert.Equal(t, uint8(25), a.Observe(2, 1, Red, 0))
	assert.Equal(t, uint8(5), a.Observe(0, 0, Green, 0))
	assert.Equal(t, uint8(0), a.Observe(1, 0, Blue, 0))
}

func TestFullScaleValuesDoNotOverflow(t *testing.T) {
	a := New(1, 1, 1024)
	for i := 0; i < 3000; i++ {
		assert.Equal(t, uint8(255), a.Observe(0, 0, Red, 255))
	}
}

func TestMatchesMeanOfRecentSamples(t *testing.T) {
	const frames = 7
	rng := rand.New(rand.NewSource(1))
	a := New(2, 2, frames)
	var history []uint8
	for i := 0; i < 200; i++ {
		v := uint8(rng.Intn(256))
		history = append(history, v)

		window := history
		if len(window) > frames {
			window = window[len(window)-frames:]
		}
		sum := 0
		for _, w := range window {
			sum += int(w)
		}
		assert.Equal(t, uint8(sum/len(window)), a.Observe(1, 0, Blue, v), "sample %d", i)
	}
}

func TestOutOfRangePanics(t *testing.T) {
	a := New(2, 2, 2)
	assert.Panics(t, func() { a.Observe(2, 0, Red, 1) })
	assert.Panics(t, func() { a.Observe(0, -1, Red, 1) })
	assert.Panics(t, func() { a.Observe(0, 0, Channel(3), 1) })
}
