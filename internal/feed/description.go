package feed

import (
	"regexp"
	"strings"

	"github.com/ETAnderson/catalogfeed/internal/domain"
	"github.com/PuerkitoBio/goquery"
)

// C0 controls except tab, LF and CR, plus the C1 block.
var disallowedControl = regexp.MustCompile(`[\x00-\x08\x0B\x0C\x0E-\x1F\x80-\x9F]`)

// SanitizeDescription drops disallowed control characters, then all markup,
// including the contents of script and style elements.
func SanitizeDescription(raw string) string {
	s := disallowedControl.ReplaceAllString(raw, "")
	if strings.TrimSpace(s) == "" {
		return ""
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return strings.TrimSpace(s)
	}
	doc.Find("script, style").Remove()

	return strings.TrimSpace(doc.Text())
}

func ownDescription(p domain.Product) string {
	if d := strings.TrimSpace(p.Description); d != "" {
		return d
	}
	return strings.TrimSpace(p.ShortDescription)
}

// joinDescriptions puts the parent text first, on its own line.
func joinDescriptions(parent, own string) string {
	switch {
	case parent == "":
		return own
	case own == "":
		return parent
	default:
		return parent + "\n" + own
	}
}
