// Package formats parses the Ragnarok Online model formats the importer
// reads: RSM models and the model placements of RSW worlds.
package formats

import "fmt"

// Version is a major.minor file format version.
type Version struct {
	Major uint8
	Minor uint8
}

func (v Version) String() string {
	return fmt.Sprintf("%d.%d", v.Major, v.Minor)
}

// AtLeast reports whether v >= major.minor.
func (v Version) AtLeast(major, minor uint8) bool {
	return v.Major > major || (v.Major == major && v.Minor >= minor)
}
