// Package backlightctl talks to a running tv-backlight daemon over the
// system D-Bus.
package backlightctl

import "github.com/godbus/dbus"

const (
	DbusName = "org.tvbacklight.capture"
	DbusPath = "/org/tvbacklight/capture"
)

func getDbusObj() (dbus.BusObject, error) {
	conn, err := dbus.SystemBus()
	if err != nil {
		return nil, err
	}
	obj := conn.Object(DbusName, DbusPath)
	return obj, nil
}

// SwitchInput makes the daemon tag its frames with input and tell the
// controller to switch, showing idle until pixels arrive.
func SwitchInput(input uint8, idle uint32) error {
	obj, err := getDbusObj()
	if err != nil {
		return err
	}
	return obj.Call(DbusName+".SwitchInput", 0, input, idle).Store()
}

func CurrentInput() (uint8, error) {
	obj, err := getDbusObj()
	if err != nil {
		return 0, err
	}
	var input uint8
	err = obj.Call(DbusName+".CurrentInput", 0).Store(&input)
	return input, err
}

// BlackBars returns the rows bounding the picture the daemon is
// currently sending.
func BlackBars() (top, bottom int32, err error) {
	obj, err := getDbusObj()
	if err != nil {
		return 0, 0, err
	}
	err = obj.Call(DbusName+".BlackBars", 0).Store(&top, &bottom)
	return top, bottom, err
}
