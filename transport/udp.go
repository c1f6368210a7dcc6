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

package transport

import (
	"fmt"
	"net"
	"sync"
	"time"
)

const writeTimeout = time.Second

// NewUDP returns a sender for datagrams to address (host:port). No
// socket is opened until the first Send.
func NewUDP(address string) *UDP {
	return &UDP{address: address}
}

// UDP sends each buffer as one datagram. After a failure the socket is
// thrown away and the next Send resolves and dials again, which picks
// up a network that has come back after a suspend.
type UDP struct {
	address string
	mu      sync.Mutex
	conn    net.Conn
}

// Send writes buf as a single datagram.
func (u *UDP) Send(buf []byte) error {
	u.mu.Lock()
	defer u.mu.Unlock()

	if u.conn == nil {
		conn, err := net.Dial("udp", u.address)
		if err != nil {
			return err
		}
		u.conn = conn
	}

	u.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	n, err := u.conn.Write(buf)
	if err == nil && n != len(buf) {
		err = fmt.Errorf("short write: %d of %d bytes", n, len(buf))
	}
	if err != nil {
		u.conn.Close()
		u.conn = nil
	}
	return err
}

// Close releases the socket, if one is open.
func (u *UDP) Close() error {
	u.mu.Lock()
	defer u.mu.Unlock()

	if u.conn == nil {
		return nil
	}
	err := u.conn.Close()
	u.conn = nil
	return err
}

// SendOnce sends a single datagram to address.
func SendOnce(address string, buf []byte) error {
	u := NewUDP(address)
	defer u.Close()
	return u.Send(buf)
}
