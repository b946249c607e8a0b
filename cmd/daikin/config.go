package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// UnitsFile maps friendly labels to adapter addresses so commands can say
// --unit lounge instead of an IP address.
//
//	[[unit]]
//	label = "lounge"
//	host  = "192.168.1.40"
type UnitsFile struct {
	Unit []UnitEntry
}

type UnitEntry struct {
	Label string
	Host  string
}

// Host returns the address configured for a label.
func (u *UnitsFile) Host(label string) (string, bool) {
	for _, e := range u.Unit {
		if e.Label == label {
			return e.Host, true
		}
	}
	return "", false
}

func defaultUnitsPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "daikin", "units.toml"), nil
}

func loadUnits(path string) (*UnitsFile, error) {
	if path == "" {
		var err error
		if path, err = defaultUnitsPath(); err != nil {
			return nil, err
		}
	}
	var units UnitsFile
	if _, err := toml.DecodeFile(path, &units); err != nil {
		return nil, err
	}
	for _, e := range units.Unit {
		if e.Label == "" || e.Host == "" {
			return nil, fmt.Errorf("unit entries need both label and host (got label=%q host=%q)", e.Label, e.Host)
		}
	}
	return &units, nil
}
