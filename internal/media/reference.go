package media

import (
	"fmt"
	"regexp"
	"strings"
)

const (
	KindTagImage = "image"
	KindTagFile  = "file"
)

// referencePattern is the full asset reference grammar: a kind tag, an
// alphanumeric content hash and a lowercase extension with no separators.
var referencePattern = regexp.MustCompile(`^(image|file)-([A-Za-z0-9]+)-([a-z0-9]+)$`)

var extPattern = regexp.MustCompile(`^[a-z0-9]+$`)

// Reference is a parsed "<kind>-<hash>-<ext>" asset reference.
type Reference struct {
	Kind string
	Hash string
	Ext  string
}

// ParseReference splits ref into its parts. The second return is false
// for anything outside the grammar, including hashes that contain a
// hyphen.
func ParseReference(ref string) (Reference, bool) {
	m := referencePattern.FindStringSubmatch(ref)
	if m == nil {
		return Reference{}, false
	}
	return Reference{Kind: m[1], Hash: m[2], Ext: m[3]}, true
}

// NewReference builds a reference and validates it against the grammar.
func NewReference(kind, hash, ext string) (Reference, error) {
	ref := Reference{Kind: kind, Hash: hash, Ext: strings.ToLower(ext)}
	if _, ok := ParseReference(ref.String()); !ok {
		return Reference{}, fmt.Errorf("invalid asset reference %q", ref.String())
	}
	return ref, nil
}

func (r Reference) String() string {
	return r.Kind + "-" + r.Hash + "-" + r.Ext
}

func (r Reference) IsImage() bool {
	return r.Kind == KindTagImage
}

// Key is the object key the asset lives under in storage.
func (r Reference) Key() string {
	dir := "files"
	if r.IsImage() {
		dir = "images"
	}
	return dir + "/" + r.Hash + "." + r.Ext
}

// ValidExtension reports whether ext may be embedded in a reference.
func ValidExtension(ext string) bool {
	return extPattern.MatchString(ext)
}
