package ftsindex

import "fmt"

// New constructs the Driver selected by kind at the given path.
func New(kind DriverKind, path string) (Driver, error) {
	switch kind {
	case DriverSQLiteFTS5, "":
		return NewSQLiteDriver(path)
	case DriverBluge:
		return NewBlugeDriver(path)
	default:
		return nil, fmt.Errorf("ftsindex: unknown driver kind %q", kind)
	}
}
