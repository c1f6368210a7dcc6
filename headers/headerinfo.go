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

package headers

import (
	"bufio"
	"bytes"
	"fmt"
	"strings"

	"gopkg.in/yaml.v1"
)

// Header fields sent by a frame producer before its first frame.
const (
	XResolution = "resx"
	YResolution = "resy"
	FPS         = "fps"
	PixelFormat = "pixel-format"
	Brand       = "brand"
	Model       = "model"
)

// Layout gives the byte order of one pixel in a raw frame.
type Layout string

const (
	RGBA Layout = "RGBA"
	BGRA Layout = "BGRA"
	ARGB Layout = "ARGB"
	RGB  Layout = "RGB"
)

// BytesPerPixel returns the size of one pixel, or 0 for an unknown layout.
func (l Layout) BytesPerPixel() int {
	switch l {
	case RGBA, BGRA, ARGB:
		return 4
	case RGB:
		return 3
	}
	return 0
}

// Offsets returns the byte offsets of red, green and blue within a pixel.
func (l Layout) Offsets() (r, g, b int) {
	switch l {
	case BGRA:
		return 2, 1, 0
	case ARGB:
		return 1, 2, 3
	}
	return 0, 1, 2
}

// HeaderInfo describes the raw frames a producer is about to send.
type HeaderInfo struct {
	resX   int
	resY   int
	fps    int
	layout Layout
	brand  string
	model  string
}

func (h *HeaderInfo) ResX() int      { return h.resX }
func (h *HeaderInfo) ResY() int      { return h.resY }
func (h *HeaderInfo) FPS() int       { return h.fps }
func (h *HeaderInfo) Layout() Layout { return h.layout }
func (h *HeaderInfo) Brand() string  { return h.brand }
func (h *HeaderInfo) Model() string  { return h.model }

// FrameSize returns the number of bytes in each frame.
func (h *HeaderInfo) FrameSize() int {
	return h.resX * h.resY * h.layout.BytesPerPixel()
}

func (h *HeaderInfo) String() string {
	return fmt.Sprintf("%s %s (%dx%d %s @%dfps)", h.brand, h.model, h.resX, h.resY, h.layout, h.fps)
}

// ReadHeaderInfo reads "key: value" lines up to the first blank line.
func ReadHeaderInfo(reader *bufio.Reader) (*HeaderInfo, error) {
	var buf bytes.Buffer
	for {
		line, err := reader.ReadString(byte('\n'))
		if err != nil {
			return nil, err
		}
		if strings.TrimSpace(line) == "" {
			break
		}
		buf.WriteString(line)
	}
	h := make(map[string]interface{})
	if err := yaml.Unmarshal(buf.Bytes(), &h); err != nil {
		return nil, err
	}

	info := &HeaderInfo{
		resX:   toInt(h[XResolution]),
		resY:   toInt(h[YResolution]),
		fps:    toInt(h[FPS]),
		layout: Layout(strings.ToUpper(toStr(h[PixelFormat]))),
		brand:  toStr(h[Brand]),
		model:  toStr(h[Model]),
	}
	if info.layout == "" {
		info.layout = RGBA
	}
	if info.resX < 1 || info.resY < 1 {
		return nil, fmt.Errorf("invalid frame size %dx%d", info.resX, info.resY)
	}
	if info.layout.BytesPerPixel() == 0 {
		return nil, fmt.Errorf("unsupported pixel format %q", info.layout)
	}
	return info, nil
}

// WriteHeaderInfo writes a header that ReadHeaderInfo accepts.
func WriteHeaderInfo(w *bufio.Writer, resX, resY, fps int, layout Layout, brand, model string) error {
	fmt.Fprintf(w, "%s: %d\n", XResolution, resX)
	fmt.Fprintf(w, "%s: %d\n", YResolution, resY)
	fmt.Fprintf(w, "%s: %d\n", FPS, fps)
	fmt.Fprintf(w, "%s: %s\n", PixelFormat, layout)
	fmt.Fprintf(w, "%s: %q\n", Brand, brand)
	fmt.Fprintf(w, "%s: %q\n", Model, model)
	fmt.Fprint(w, "\n")
	return w.Flush()
}

func toInt(v interface{}) int {
	out, ok := v.(int)
	if !ok {
		return 0
	}
	return out
}

func toStr(v interface{}) string {
	out, ok := v.(string)
	if !ok {
		return ""
	}
	return out
}
