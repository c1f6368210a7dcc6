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

package capture

import (
	"fmt"
	"image"

	"github.com/kbinani/screenshot"

	"github.com/TheCacophonyProject/tv-backlight/raster"
)

// NewScreen returns a Source which grabs the given display and scales
// it to width x height.
func NewScreen(display, width, height int) (*Screen, error) {
	if err := checkTargetSize(width, height); err != nil {
		return nil, err
	}
	if n := screenshot.NumActiveDisplays(); display >= n {
		return nil, fmt.Errorf("display %d not found (%d active)", display, n)
	}
	return &Screen{
		display: display,
		scaler:  newScaler(width, height),
		bounds:  screenshot.GetDisplayBounds,
		grab:    screenshot.CaptureRect,
	}, nil
}

type Screen struct {
	display int
	scaler  *scaler
	bounds  func(int) image.Rectangle
	grab    func(image.Rectangle) (*image.RGBA, error)
}

// Bounds returns the full size of the display being captured.
func (s *Screen) Bounds() image.Rectangle {
	return s.bounds(s.display)
}

func (s *Screen) Capture() (raster.Accessor, error) {
	img, err := s.grab(s.Bounds())
	if err != nil {
		return nil, fmt.Errorf("capturing display %d: %v", s.display, err)
	}
	return s.scaler.scale(img), nil
}

func (s *Screen) Close() error {
	return nil
}
