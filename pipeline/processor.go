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

package pipeline

import (
	"sync/atomic"

	"github.com/TheCacophonyProject/tv-backlight/average"
	"github.com/TheCacophonyProject/tv-backlight/blackbar"
	"github.com/TheCacophonyProject/tv-backlight/config"
	"github.com/TheCacophonyProject/tv-backlight/perimeter"
	"github.com/TheCacophonyProject/tv-backlight/protocol"
	"github.com/TheCacophonyProject/tv-backlight/raster"
)

// NewProcessor returns a Processor sized from conf.
func NewProcessor(conf *config.Config) *Processor {
	p := &Processor{
		width:    conf.SizeX,
		height:   conf.SizeY,
		divisor:  conf.ColourDivisor,
		pixels:   conf.ArduinoPixels(),
		averager: average.New(conf.SizeX, conf.SizeY, conf.AverageFrames),
		detector: blackbar.New(conf.SizeX, conf.SizeY, conf.BlackBarSearchHeight, conf.BlackBarCandidateLength),
		smoothed: raster.New(conf.SizeX, conf.SizeY),
	}
	p.perimeter = make([]raster.Color, 0, p.pixels)
	p.SetInput(conf.Input)
	return p
}

// Processor turns captured frames into pixel datagrams. It holds the
// rolling averages and the black bar windows, so frames must be given
// to it one at a time in capture order.
type Processor struct {
	ticks     uint64 // first for 64-bit atomic alignment on arm
	width     int
	height    int
	divisor   int
	pixels    int
	averager  *average.Averager
	detector  *blackbar.Detector
	smoothed  *raster.Raster
	perimeter []raster.Color
	input     uint32
}

// Frame is the result of processing one capture.
type Frame struct {
	Top    int
	Bottom int
	// Pixels is reused by the next call to Process.
	Pixels   []raster.Color
	Datagram []byte
}

// SetInput changes the input number carried by pixel datagrams. It may
// be called from any goroutine.
func (p *Processor) SetInput(input uint8) {
	atomic.StoreUint32(&p.input, uint32(input))
}

func (p *Processor) Input() uint8 {
	return uint8(atomic.LoadUint32(&p.input))
}

// Ticks returns the number of frames processed.
func (p *Processor) Ticks() uint64 {
	return atomic.LoadUint64(&p.ticks)
}

// Process smooths src into the averaged frame, finds the black bars in
// it, and encodes the border. A frame of the wrong size is rejected
// before any state changes.
func (p *Processor) Process(src raster.Accessor) (*Frame, error) {
	if src.Width() != p.width {
		return nil, &ConsistencyError{What: "frame width", Got: src.Width(), Want: p.width}
	}
	if src.Height() != p.height {
		return nil, &ConsistencyError{What: "frame height", Got: src.Height(), Want: p.height}
	}

	p.smooth(src)
	top, bottom := p.detector.Detect(p.smoothed)
	p.perimeter = perimeter.AppendTo(p.perimeter[:0], p.smoothed, top, bottom)
	atomic.AddUint64(&p.ticks, 1)

	if len(p.perimeter) != p.pixels {
		return nil, &ConsistencyError{What: "perimeter pixels", Got: len(p.perimeter), Want: p.pixels}
	}
	datagram, err := protocol.EncodePixels(p.Input(), p.perimeter)
	if err != nil {
		return nil, err
	}
	return &Frame{
		Top:      top,
		Bottom:   bottom,
		Pixels:   p.perimeter,
		Datagram: datagram,
	}, nil
}

// smooth dims every pixel of src by the colour divisor and runs it
// through the rolling average.
func (p *Processor) smooth(src raster.Accessor) {
	for y := 0; y < p.height; y++ {
		for x := 0; x < p.width; x++ {
			r, g, b := src.ColorAt(x, y)
			p.smoothed.Set(x, y,
				p.averager.Observe(x, y, average.Red, p.dim(r)),
				p.averager.Observe(x, y, average.Green, p.dim(g)),
				p.averager.Observe(x, y, average.Blue, p.dim(b)))
		}
	}
}

func (p *Processor) dim(v uint8) uint8 {
	return uint8(int(v) / p.divisor)
}
