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
	"sync"
	"sync/atomic"
)

func newMailbox() *mailbox {
	m := new(mailbox)
	m.cond = sync.NewCond(&m.mu)
	return m
}

// mailbox hands datagrams from the processing goroutine to the sender.
// It holds at most one pixel datagram: a newer one replaces an unsent
// one. Control datagrams queue in order and are always taken before
// pixels.
type mailbox struct {
	drops   uint64
	mu      sync.Mutex
	cond    *sync.Cond
	pixels  []byte
	control [][]byte
	closed  bool
}

// putPixels never blocks.
func (m *mailbox) putPixels(b []byte) {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	if m.pixels != nil {
		atomic.AddUint64(&m.drops, 1)
	}
	m.pixels = b
	m.mu.Unlock()
	m.cond.Signal()
}

func (m *mailbox) putControl(b []byte) {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.control = append(m.control, b)
	m.mu.Unlock()
	m.cond.Signal()
}

// take blocks until a datagram is waiting. It returns false once the
// mailbox is closed and empty.
func (m *mailbox) take() ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for !m.closed && m.pixels == nil && len(m.control) == 0 {
		m.cond.Wait()
	}
	if m.pixels == nil && len(m.control) == 0 {
		return nil, false
	}
	if len(m.control) > 0 {
		b := m.control[0]
		m.control = m.control[1:]
		return b, true
	}
	b := m.pixels
	m.pixels = nil
	return b, true
}

func (m *mailbox) close() {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()
	m.cond.Broadcast()
}

// dropped returns the number of pixel datagrams replaced before the
// sender took them.
func (m *mailbox) dropped() uint64 {
	return atomic.LoadUint64(&m.drops)
}
