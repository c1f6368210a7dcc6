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

// Package capture provides frame sources which grab the picture and
// scale it down to the LED grid.
package capture

import (
	"errors"
	"fmt"
	"image"

	"golang.org/x/image/draw"

	"github.com/TheCacophonyProject/tv-backlight/raster"
)

// ErrOddWidth is returned for target widths which aren't even.
var ErrOddWidth = errors.New("capture width should be even")

// Source produces one downscaled frame per call to Capture. The
// returned Accessor is only valid until the next call.
type Source interface {
	Capture() (raster.Accessor, error)
	Close() error
}

func checkTargetSize(width, height int) error {
	if width < 2 || height < 2 {
		return fmt.Errorf("capture size %dx%d is too small", width, height)
	}
	if width%2 != 0 {
		return fmt.Errorf("%w (was %d)", ErrOddWidth, width)
	}
	return nil
}

// scaler shrinks full size images to the target grid without any
// interpolation, so each LED takes the colour of a single screen pixel.
type scaler struct {
	dst *image.RGBA
}

func newScaler(width, height int) *scaler {
	return &scaler{dst: image.NewRGBA(image.Rect(0, 0, width, height))}
}

func (s *scaler) scale(src image.Image) raster.Accessor {
	draw.NearestNeighbor.Scale(s.dst, s.dst.Bounds(), src, src.Bounds(), draw.Src, nil)
	return raster.FromRGBA(s.dst)
}
