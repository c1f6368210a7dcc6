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

import "fmt"

// CaptureError means no frame was available for a tick. Nothing was
// processed for the tick.
type CaptureError struct {
	cause error
}

func (e *CaptureError) Error() string {
	return "capture failed: " + e.cause.Error()
}

func (e *CaptureError) Unwrap() error {
	return e.cause
}

// ConsistencyError means a frame didn't match the size the LED
// controller was set up for. It can't be recovered from by retrying.
type ConsistencyError struct {
	What string
	Got  int
	Want int
}

func (e *ConsistencyError) Error() string {
	return fmt.Sprintf("%s: got %d, want %d", e.What, e.Got, e.Want)
}

// TransportError means a datagram couldn't be sent.
type TransportError struct {
	cause error
}

func (e *TransportError) Error() string {
	return "send failed: " + e.cause.Error()
}

func (e *TransportError) Unwrap() error {
	return e.cause
}
