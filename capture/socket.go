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
	"bufio"
	"errors"
	"fmt"
	"image"
	"image/color"
	"io"
	"log"
	"net"
	"os"
	"sync"

	"github.com/TheCacophonyProject/tv-backlight/headers"
	"github.com/TheCacophonyProject/tv-backlight/raster"
)

var errClosed = errors.New("frame socket closed")

// NewSocket listens on a unix socket for a frame producer. A producer
// connects, sends a header block (see the headers package) and then
// raw frames back to back. Only one producer is served at a time.
func NewSocket(path string, width, height int) (*Socket, error) {
	if err := checkTargetSize(width, height); err != nil {
		return nil, err
	}
	os.Remove(path)
	listener, err := net.Listen("unix", path)
	if err != nil {
		return nil, err
	}
	return &Socket{
		listener: listener,
		scaler:   newScaler(width, height),
	}, nil
}

type Socket struct {
	listener net.Listener
	scaler   *scaler

	// mu guards the connection state, which Close may clear while
	// Capture is blocked reading.
	mu     sync.Mutex
	conn   net.Conn
	reader *bufio.Reader
	header *headers.HeaderInfo
	frame  *rawImage
	closed bool
}

// Capture waits for a producer if none is connected, then reads and
// scales the next frame. A read error drops the producer.
func (s *Socket) Capture() (raster.Accessor, error) {
	s.mu.Lock()
	conn, reader, frame := s.conn, s.reader, s.frame
	s.mu.Unlock()

	if conn == nil {
		var err error
		if conn, reader, frame, err = s.accept(); err != nil {
			return nil, err
		}
	}
	if _, err := io.ReadFull(reader, frame.pix); err != nil {
		s.dropConn(conn)
		return nil, fmt.Errorf("reading frame: %v", err)
	}
	return s.scaler.scale(frame), nil
}

func (s *Socket) accept() (net.Conn, *bufio.Reader, *rawImage, error) {
	log.Print("waiting for frame producer connection")
	conn, err := s.listener.Accept()
	if err != nil {
		return nil, nil, nil, err
	}
	// Published before the header read so Close can interrupt it.
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		conn.Close()
		return nil, nil, nil, errClosed
	}
	s.conn = conn
	s.mu.Unlock()

	reader := bufio.NewReader(conn)
	header, err := headers.ReadHeaderInfo(reader)
	if err != nil {
		s.dropConn(conn)
		return nil, nil, nil, fmt.Errorf("reading frame header: %v", err)
	}
	log.Printf("connection from %s", header)
	frame := newRawImage(header.ResX(), header.ResY(), header.Layout())

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn != conn {
		return nil, nil, nil, errClosed
	}
	s.reader = reader
	s.header = header
	s.frame = frame
	return conn, reader, frame, nil
}

// dropConn closes conn and forgets it if it is still the current
// connection.
func (s *Socket) dropConn(conn net.Conn) {
	conn.Close()
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn == conn {
		s.conn = nil
		s.reader = nil
		s.header = nil
	}
}

// Header returns the header of the connected producer, or nil.
func (s *Socket) Header() *headers.HeaderInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.header
}

// Close stops listening and disconnects the producer. A Capture blocked
// on either returns an error.
func (s *Socket) Close() error {
	s.mu.Lock()
	s.closed = true
	conn := s.conn
	s.conn = nil
	s.reader = nil
	s.header = nil
	s.mu.Unlock()

	if conn != nil {
		conn.Close()
	}
	return s.listener.Close()
}

// rawImage presents a raw frame as an image.Image so the scaler only
// touches the pixels it samples.
type rawImage struct {
	width   int
	height  int
	stride  int
	r, g, b int
	pix     []byte
}

func newRawImage(width, height int, layout headers.Layout) *rawImage {
	r, g, b := layout.Offsets()
	return &rawImage{
		width:  width,
		height: height,
		stride: layout.BytesPerPixel(),
		r:      r,
		g:      g,
		b:      b,
		pix:    make([]byte, width*height*layout.BytesPerPixel()),
	}
}

func (im *rawImage) ColorModel() color.Model { return color.RGBAModel }

func (im *rawImage) Bounds() image.Rectangle { return image.Rect(0, 0, im.width, im.height) }

func (im *rawImage) At(x, y int) color.Color {
	i := (y*im.width + x) * im.stride
	return color.RGBA{R: im.pix[i+im.r], G: im.pix[i+im.g], B: im.pix[i+im.b], A: 0xff}
}
