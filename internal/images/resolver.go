package images

import (
	"path"
	"strings"
)

const SizeFull = "full"

// URLResolver turns an image reference into a public URL at the given size.
type URLResolver interface {
	ImageURL(ref string, size string) (string, bool)
}

// BaseURLResolver serves references relative to a media base URL. Sized
// variants get a "-{size}" suffix before the extension; references that are
// already absolute URLs pass through.
type BaseURLResolver struct {
	BaseURL string
}

func (r BaseURLResolver) ImageURL(ref string, size string) (string, bool) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "", false
	}
	if strings.HasPrefix(ref, "https://") || strings.HasPrefix(ref, "http://") {
		return ref, true
	}

	base := strings.TrimRight(strings.TrimSpace(r.BaseURL), "/")
	if base == "" {
		return "", false
	}

	p := strings.TrimLeft(ref, "/")
	if size != "" && size != SizeFull {
		ext := path.Ext(p)
		p = strings.TrimSuffix(p, ext) + "-" + size + ext
	}

	return base + "/" + p, true
}

// ResolverFunc adapts a plain function to URLResolver.
type ResolverFunc func(ref string, size string) (string, bool)

func (f ResolverFunc) ImageURL(ref string, size string) (string, bool) { return f(ref, size) }
