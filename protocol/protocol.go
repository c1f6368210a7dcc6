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

// Package protocol encodes the datagrams understood by the LED
// controller. All multi-byte fields are little endian.
//
// Pixel frame:
//
//	'P' | uint8 input | uint16 count | count * uint32 0x00RRGGBB
//
// Input switch frame:
//
//	'I' | uint8 input | uint32 0x00RRGGBB
package protocol

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/TheCacophonyProject/tv-backlight/raster"
)

const (
	PixelsTag      = 'P'
	SwitchInputTag = 'I'

	pixelsHeaderLen = 4
	colorLen        = 4
	switchInputLen  = 6

	// MaxPixels is the most pixels a single frame can carry.
	MaxPixels = math.MaxUint16
)

var (
	ErrTooManyPixels = errors.New("too many pixels for one frame")
	ErrWrongTag      = errors.New("unexpected frame tag")
	ErrShortFrame    = errors.New("frame too short")
)

// PixelsLen returns the encoded size of a pixel frame.
func PixelsLen(count int) int {
	return pixelsHeaderLen + count*colorLen
}

// EncodePixels returns a pixel frame for the given input.
func EncodePixels(input uint8, pixels []raster.Color) ([]byte, error) {
	return AppendPixels(make([]byte, 0, PixelsLen(len(pixels))), input, pixels)
}

// AppendPixels appends a pixel frame to dst.
func AppendPixels(dst []byte, input uint8, pixels []raster.Color) ([]byte, error) {
	if len(pixels) > MaxPixels {
		return dst, ErrTooManyPixels
	}
	dst = append(dst, PixelsTag, input, 0, 0)
	binary.LittleEndian.PutUint16(dst[len(dst)-2:], uint16(len(pixels)))

	var buf [colorLen]byte
	for _, c := range pixels {
		binary.LittleEndian.PutUint32(buf[:], uint32(c)&0xffffff)
		dst = append(dst, buf[:]...)
	}
	return dst, nil
}

// EncodeSwitchInput returns an input switch frame. idle is shown while
// the controller waits for pixel frames from the new input.
func EncodeSwitchInput(input uint8, idle raster.Color) []byte {
	buf := make([]byte, switchInputLen)
	buf[0] = SwitchInputTag
	buf[1] = input
	binary.LittleEndian.PutUint32(buf[2:], uint32(idle)&0xffffff)
	return buf
}

// PixelFrame is a decoded pixel frame.
type PixelFrame struct {
	Input  uint8
	Pixels []raster.Color
}

// DecodePixels parses a pixel frame. The buffer must hold exactly the
// number of pixels given in the header.
func DecodePixels(buf []byte) (*PixelFrame, error) {
	if len(buf) < pixelsHeaderLen {
		return nil, ErrShortFrame
	}
	if buf[0] != PixelsTag {
		return nil, ErrWrongTag
	}
	count := int(binary.LittleEndian.Uint16(buf[2:4]))
	if len(buf) != PixelsLen(count) {
		return nil, fmt.Errorf("pixel frame is %d bytes, header says %d pixels", len(buf), count)
	}

	frame := &PixelFrame{
		Input:  buf[1],
		Pixels: make([]raster.Color, count),
	}
	for i := range frame.Pixels {
		offset := pixelsHeaderLen + i*colorLen
		frame.Pixels[i] = raster.Color(binary.LittleEndian.Uint32(buf[offset:]))
	}
	return frame, nil
}

// SwitchInputFrame is a decoded input switch frame.
type SwitchInputFrame struct {
	Input uint8
	Idle  raster.Color
}

// DecodeSwitchInput parses an input switch frame.
func DecodeSwitchInput(buf []byte) (*SwitchInputFrame, error) {
	if len(buf) < switchInputLen {
		return nil, ErrShortFrame
	}
	if buf[0] != SwitchInputTag {
		return nil, ErrWrongTag
	}
	if len(buf) != switchInputLen {
		return nil, fmt.Errorf("input switch frame is %d bytes, want %d", len(buf), switchInputLen)
	}
	return &SwitchInputFrame{
		Input: buf[1],
		Idle:  raster.Color(binary.LittleEndian.Uint32(buf[2:])),
	}, nil
}
