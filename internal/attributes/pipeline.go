package attributes

import (
	"github.com/ETAnderson/catalogfeed/internal/domain"
)

// Pipeline fills FeedItem.Attributes from a Registry. It runs after the
// feed item is built and returns a new item.
type Pipeline struct {
	Registry *Registry
}

func (pl Pipeline) Apply(s *Scope, item domain.FeedItem, p domain.Product) domain.FeedItem {
	out := item.Clone()
	if pl.Registry == nil {
		return out
	}

	for _, def := range pl.Registry.Definitions() {
		v, ok := pl.Registry.Resolve(s, def.ID, p)
		if !ok {
			continue
		}
		if out.Attributes == nil {
			out.Attributes = make(map[string]string)
		}
		out.Attributes[def.ID] = v
	}
	return out
}
