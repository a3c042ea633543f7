package prober

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/FelpTB/fornecedor-orchestrator/internal/model"
)

// spaRootSelectors are DOM mount-point signatures of a client-side-rendered
// root, observed across the common frontend frameworks a corporate site is
// built with when it isn't server-rendered.
var spaRootSelectors = []string{
	"#root", "#__next", "#app", "[data-reactroot]", "[ng-version]", "[v-cloak]",
}

// ClassifySiteType estimates how a page renders from its raw HTML: a page
// whose body text is dominated by an (otherwise empty) SPA mount point is
// "spa", a page with both an SPA mount point and substantial server-rendered
// text is "hybrid" (SSR frameworks, progressive enhancement), and a page
// with neither is "static". Unparseable or empty HTML is "unknown" rather
// than a guess.
func ClassifySiteType(body string) model.SiteType {
	trimmed := strings.TrimSpace(body)
	if trimmed == "" {
		return model.SiteUnknown
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(trimmed))
	if err != nil {
		return model.SiteUnknown
	}

	hasSPARoot := false
	for _, sel := range spaRootSelectors {
		if doc.Find(sel).Length() > 0 {
			hasSPARoot = true
			break
		}
	}

	bodyText := strings.TrimSpace(doc.Find("body").Text())
	textLen := len(strings.Join(strings.Fields(bodyText), " "))

	switch {
	case hasSPARoot && textLen < 500:
		return model.SiteSPA
	case hasSPARoot:
		return model.SiteHybrid
	default:
		return model.SiteStatic
	}
}
