// Package media turns stored asset descriptors into something a page can
// render. Resolution never fails loudly: anything it cannot place comes
// back as KindUnresolvable and the caller renders nothing for it.
package media

import (
	"net/url"
	"path"
	"strconv"
	"strings"

	"disasterdocs/pkg/types"
)

type Kind int

const (
	KindUnresolvable Kind = iota
	KindImage
	KindVideo
	KindDownloadable
)

func (k Kind) String() string {
	switch k {
	case KindImage:
		return "image"
	case KindVideo:
		return "video"
	case KindDownloadable:
		return "downloadable"
	default:
		return "unresolvable"
	}
}

// Media is the resolved, renderable form of one asset. Extension is only
// meaningful for KindDownloadable.
type Media struct {
	Kind      Kind
	URL       string
	Extension string
}

func (m Media) Renderable() bool {
	return m.Kind != KindUnresolvable && m.URL != ""
}

func (m Media) IsImage() bool { return m.Kind == KindImage }
func (m Media) IsVideo() bool { return m.Kind == KindVideo }

var imageExtensions = map[string]bool{
	"jpg":  true,
	"jpeg": true,
	"png":  true,
	"gif":  true,
	"webp": true,
}

var videoExtensions = map[string]bool{
	"mp4":  true,
	"webm": true,
	"mov":  true,
}

type Resolver struct {
	baseURL    string
	imageWidth int
}

// NewResolver builds a resolver that derives URLs under baseURL. An empty
// baseURL means bare references cannot be placed and resolve to
// KindUnresolvable; descriptors carrying a URL still resolve.
func NewResolver(baseURL string, imageWidth int) *Resolver {
	return &Resolver{
		baseURL:    strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		imageWidth: imageWidth,
	}
}

// WithWidth returns a copy of the resolver that asks for images at width
// pixels. Zero drops the width hint.
func (r *Resolver) WithWidth(width int) *Resolver {
	cp := *r
	cp.imageWidth = width
	return &cp
}

// Resolve maps one descriptor to a Media value. hint is the owning
// submission's artifact type and only decides video versus generic file.
func (r *Resolver) Resolve(d types.AssetDescriptor, hint types.ArtifactType) Media {
	if d.URL != nil && strings.TrimSpace(*d.URL) != "" {
		return resolveURL(d, *d.URL, hint)
	}

	ref, ok := ParseReference(d.Reference)
	if !ok || r.baseURL == "" {
		return Media{Kind: KindUnresolvable}
	}

	u := r.baseURL + "/" + ref.Key()

	switch {
	case ref.IsImage():
		if r.imageWidth > 0 {
			u += "?w=" + strconv.Itoa(r.imageWidth)
		}
		return Media{Kind: KindImage, URL: u}
	case hint == types.ArtifactTypeVideo || videoExtensions[ref.Ext]:
		return Media{Kind: KindVideo, URL: u}
	default:
		return Media{Kind: KindDownloadable, URL: u, Extension: ref.Ext}
	}
}

// ResolveAll resolves every entry independently. The result has one element
// per descriptor, in order; an empty input gives an empty result.
func (r *Resolver) ResolveAll(ds []types.AssetDescriptor, hint types.ArtifactType) []Media {
	out := make([]Media, 0, len(ds))
	for _, d := range ds {
		out = append(out, r.Resolve(d, hint))
	}
	return out
}

// First returns the first renderable entry, used for gallery cards.
func (r *Resolver) First(ds []types.AssetDescriptor, hint types.ArtifactType) (Media, bool) {
	for _, d := range ds {
		if m := r.Resolve(d, hint); m.Renderable() {
			return m, true
		}
	}
	return Media{}, false
}

// Split separates renderable media into inline entries (images, videos)
// and downloads. Unresolvable entries are dropped.
func Split(ms []Media) (inline []Media, downloads []Media) {
	inline = make([]Media, 0, len(ms))
	downloads = make([]Media, 0)
	for _, m := range ms {
		if !m.Renderable() {
			continue
		}
		if m.Kind == KindDownloadable {
			downloads = append(downloads, m)
			continue
		}
		inline = append(inline, m)
	}
	return inline, downloads
}

// resolveURL classifies a supplied URL and returns it unchanged.
func resolveURL(d types.AssetDescriptor, raw string, hint types.ArtifactType) Media {
	ext := urlExtension(strings.TrimSpace(raw))
	mime := ""
	if d.MimeType != nil {
		mime = strings.ToLower(strings.TrimSpace(*d.MimeType))
	}

	ref, refOK := ParseReference(d.Reference)

	switch {
	case imageExtensions[ext] || strings.HasPrefix(mime, "image/") || (refOK && ref.IsImage()):
		return Media{Kind: KindImage, URL: raw}
	case hint == types.ArtifactTypeVideo || videoExtensions[ext] || strings.HasPrefix(mime, "video/"):
		return Media{Kind: KindVideo, URL: raw}
	}

	if ext == "" && refOK {
		ext = ref.Ext
	}
	return Media{Kind: KindDownloadable, URL: raw, Extension: ext}
}

// urlExtension returns the lowercase extension of the URL's path, or ""
// when there is none usable.
func urlExtension(raw string) string {
	p := raw
	if u, err := url.Parse(raw); err == nil {
		p = u.Path
	}
	ext := strings.ToLower(strings.TrimPrefix(path.Ext(p), "."))
	if !ValidExtension(ext) {
		return ""
	}
	return ext
}
