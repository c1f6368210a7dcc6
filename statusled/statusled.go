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

// Package statusled shows on a GPIO pin whether frames are reaching
// the LED controller. host.Init must be called before New.
package statusled

import (
	"fmt"
	"sync"

	"periph.io/x/periph/conn/gpio"
	"periph.io/x/periph/conn/gpio/gpioreg"
)

// New returns an LED driven by the named pin. An empty name gives a nil
// LED, which ignores every call.
func New(pinName string) (*LED, error) {
	if pinName == "" {
		return nil, nil
	}
	pin := gpioreg.ByName(pinName)
	if pin == nil {
		return nil, fmt.Errorf("status pin %q not found", pinName)
	}
	return NewWithPin(pin), nil
}

func NewWithPin(pin gpio.PinOut) *LED {
	return &LED{pin: pin}
}

type LED struct {
	mu  sync.Mutex
	pin gpio.PinOut
	on  bool
	set bool
}

// Set turns the LED on or off. The pin is only written when the state
// changes.
func (l *LED) Set(on bool) error {
	if l == nil {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.set && l.on == on {
		return nil
	}
	level := gpio.Low
	if on {
		level = gpio.High
	}
	if err := l.pin.Out(level); err != nil {
		return fmt.Errorf("failed to set status pin %s: %v", level, err)
	}
	l.on = on
	l.set = true
	return nil
}

// On reports the last state written.
func (l *LED) On() bool {
	if l == nil {
		return false
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.on
}
