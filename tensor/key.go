package tensor

import (
	"fmt"
	"strings"
)

// Key is the composite identity of a stored tensor. Two keys are equal iff
// all five fields compare equal, including tag order and length.
//
// Tags disambiguate otherwise-identical keys: the coordinator appends a
// collaborator identifier tag to address a raw per-collaborator submission,
// while the aggregated result lives under the bare key.
type Key struct {
	Name   string   `json:"name"`
	Origin string   `json:"origin"`
	Round  uint64   `json:"round"`
	Report bool     `json:"report"`
	Tags   []string `json:"tags,omitempty"`
}

// NewKey builds a key with tags normalized to an ordered slice. Passing no
// tags yields an empty slice, a single tag a one-element slice; tags are
// never a bare scalar anywhere past this constructor.
func NewKey(name, origin string, round uint64, report bool, tags ...string) Key {
	normalized := make([]string, len(tags))
	copy(normalized, tags)
	return Key{
		Name:   name,
		Origin: origin,
		Round:  round,
		Report: report,
		Tags:   normalized,
	}
}

// WithTag returns a copy of the key with an extra tag appended. The receiver
// is unchanged. The coordinator uses this to derive per-collaborator keys.
func (k Key) WithTag(tag string) Key {
	tags := make([]string, 0, len(k.Tags)+1)
	tags = append(tags, k.Tags...)
	tags = append(tags, tag)
	return Key{
		Name:   k.Name,
		Origin: k.Origin,
		Round:  k.Round,
		Report: k.Report,
		Tags:   tags,
	}
}

// Equal reports full five-field equality.
func (k Key) Equal(other Key) bool {
	if k.Name != other.Name || k.Origin != other.Origin ||
		k.Round != other.Round || k.Report != other.Report ||
		len(k.Tags) != len(other.Tags) {
		return false
	}
	for i := range k.Tags {
		if k.Tags[i] != other.Tags[i] {
			return false
		}
	}
	return true
}

// ID returns a canonical string form of the key, usable as a hash-index key.
// Field values are length-prefixed so that no combination of names, origins
// and tags can collide.
func (k Key) ID() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d:%s|%d:%s|%d|%t|%d", len(k.Name), k.Name, len(k.Origin), k.Origin, k.Round, k.Report, len(k.Tags))
	for _, tag := range k.Tags {
		fmt.Fprintf(&b, "|%d:%s", len(tag), tag)
	}
	return b.String()
}

// String renders the key for diagnostics, payload excluded.
func (k Key) String() string {
	return fmt.Sprintf("%s@%s round=%d report=%t tags=[%s]",
		k.Name, k.Origin, k.Round, k.Report, strings.Join(k.Tags, ","))
}
