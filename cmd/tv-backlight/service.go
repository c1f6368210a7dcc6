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

package main

import (
	"errors"
	"fmt"
	"log"

	"github.com/godbus/dbus"
	"github.com/godbus/dbus/introspect"

	"github.com/TheCacophonyProject/tv-backlight/backlightctl"
	"github.com/TheCacophonyProject/tv-backlight/raster"
)

const (
	dbusName = backlightctl.DbusName
	dbusPath = backlightctl.DbusPath
)

// controller is the part of the frame loop exposed over D-Bus.
type controller interface {
	SwitchInput(input uint8, idle raster.Color)
	Input() uint8
	BlackBars() (top, bottom int)
}

type service struct {
	loop controller
}

func startService(loop controller) error {
	conn, err := dbus.SystemBus()
	if err != nil {
		return err
	}
	reply, err := conn.RequestName(dbusName, dbus.NameFlagDoNotQueue)
	if err != nil {
		return err
	}
	if reply != dbus.RequestNameReplyPrimaryOwner {
		return errors.New("name already taken")
	}

	s := &service{
		loop: loop,
	}
	conn.Export(s, dbusPath, dbusName)
	conn.Export(genIntrospectable(s), dbusPath, "org.freedesktop.DBus.Introspectable")
	return nil
}

func genIntrospectable(v interface{}) introspect.Introspectable {
	node := &introspect.Node{
		Interfaces: []introspect.Interface{{
			Name:    dbusName,
			Methods: introspect.Methods(v),
		}},
	}
	return introspect.NewIntrospectable(node)
}

// SwitchInput sends an input switch frame to the controller and tags
// the following pixel frames with the new input.
func (s *service) SwitchInput(input byte, idle uint32) *dbus.Error {
	if idle > 0xffffff {
		return makeDbusError("SwitchInput", fmt.Errorf("idle colour %#x is not 0xRRGGBB", idle))
	}
	log.Printf("switching to input %d", input)
	s.loop.SwitchInput(input, raster.Color(idle))
	return nil
}

func (s *service) CurrentInput() (byte, *dbus.Error) {
	return s.loop.Input(), nil
}

// BlackBars returns the top and bottom rows of the picture.
func (s *service) BlackBars() (int32, int32, *dbus.Error) {
	top, bottom := s.loop.BlackBars()
	return int32(top), int32(bottom), nil
}

func makeDbusError(name string, err error) *dbus.Error {
	return &dbus.Error{
		Name: dbusName + "." + name,
		Body: []interface{}{err.Error()},
	}
}
