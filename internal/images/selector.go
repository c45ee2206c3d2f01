// Package images picks the main image and the additional gallery links for a
// feed item.
package images

import (
	"github.com/ETAnderson/catalogfeed/internal/domain"
)

type Selection struct {
	Main       string
	Additional []string
}

type Selector struct {
	Resolver URLResolver
	Size     string
}

// Select resolves p's images. parent is only consulted for variations, and
// only to fill the gallery when the variation has none of its own.
func (s Selector) Select(p domain.Product, parent *domain.Product) Selection {
	own := p.GalleryRefs
	gallery := own
	if p.Kind == domain.KindVariation && len(own) == 0 && parent != nil {
		gallery = parent.GalleryRefs
	}

	main, ok := s.url(p.ImageRef)
	if !ok {
		// promote from the product's own gallery, never the parent's
		for _, ref := range own {
			if u, ok := s.url(ref); ok {
				main = u
				break
			}
		}
	}

	seen := make(map[string]struct{}, len(gallery))
	additional := make([]string, 0, len(gallery))
	for _, ref := range gallery {
		u, ok := s.url(ref)
		if !ok || u == main {
			continue
		}
		if _, dup := seen[u]; dup {
			continue
		}
		seen[u] = struct{}{}
		additional = append(additional, u)
	}

	if len(additional) == 0 {
		additional = nil
	}

	return Selection{Main: main, Additional: additional}
}

func (s Selector) url(ref string) (string, bool) {
	if ref == "" || s.Resolver == nil {
		return "", false
	}
	size := s.Size
	if size == "" {
		size = SizeFull
	}
	u, ok := s.Resolver.ImageURL(ref, size)
	if !ok || u == "" {
		return "", false
	}
	return u, true
}
