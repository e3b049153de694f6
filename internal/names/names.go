// Package names generates readable song names.
package names

import (
	"encoding/binary"
	"strings"

	"github.com/google/uuid"
)

var adjectives = []string{
	"amber", "bright", "calm", "dusty", "early", "fading", "gentle", "hollow",
	"idle", "jolly", "kind", "lonely", "mellow", "narrow", "old", "pale",
	"quiet", "restless", "silver", "tender", "upper", "velvet", "wild", "young",
}

var nouns = []string{
	"anchor", "brook", "canyon", "dune", "ember", "fern", "garden", "harbor",
	"island", "juniper", "kestrel", "lantern", "meadow", "nettle", "orchard", "pine",
	"quarry", "river", "sparrow", "thicket", "valley", "willow", "yarrow", "zephyr",
}

// New returns a fresh random name such as "quiet-harbor-3f2a".
func New() string {
	return FromUUID(uuid.New())
}

// FromUUID derives the name deterministically from id.
func FromUUID(id uuid.UUID) string {
	a := binary.BigEndian.Uint32(id[0:4])
	n := binary.BigEndian.Uint32(id[4:8])
	return adjectives[a%uint32(len(adjectives))] + "-" + nouns[n%uint32(len(nouns))] + "-" + id.String()[:4]
}

// Valid reports whether name can be used as a song name and file stem.
func Valid(name string) bool {
	if name == "" || len(name) > 128 {
		return false
	}
	return !strings.ContainsAny(name, `/\:*?"<>|`) && name != "." && name != ".."
}
