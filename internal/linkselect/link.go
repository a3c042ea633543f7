// Package linkselect picks the most profile-relevant in-site links off a
// fetched page: a heuristic pass first, escalating to an LLM ranking call
// only when the heuristic leaves more candidates than the link budget.
package linkselect

import (
	"net/url"
	"path"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/rotisserie/eris"
)

// Link is one candidate in-site link extracted from a page.
type Link struct {
	URL   string
	Text  string
	Score float64
}

// nonHTMLExtensions are asset/document targets that never carry profile
// content and are dropped before scoring.
var nonHTMLExtensions = map[string]bool{
	".pdf": true, ".doc": true, ".docx": true, ".xls": true, ".xlsx": true,
	".zip": true, ".rar": true, ".jpg": true, ".jpeg": true, ".png": true,
	".gif": true, ".svg": true, ".webp": true, ".ico": true, ".css": true,
	".js": true, ".woff": true, ".woff2": true, ".ttf": true, ".mp4": true,
}

// lowValuePathMarkers depress a link's score: present on most corporate
// sites but rarely informative for a company profile.
var lowValuePathMarkers = []string{
	"/blog", "/news", "/login", "/signin", "/cart", "/legal", "/privacy",
	"/terms", "/cookie", "/career", "/jobs", "/wp-admin", "/feed",
}

// highSignalPathMarkers raise a link's score: these paths are where a
// company's own positioning, offerings, and proof points live.
var highSignalPathMarkers = []string{
	"/about", "/company", "/products", "/solutions", "/services",
	"/contact", "/team", "/cases", "/case-studies", "/clients",
	"/partners", "/certifications",
}

// Extract pulls every in-site <a href> off html, resolved against baseURL,
// deduplicated by final URL.
func Extract(html, baseURL string) ([]Link, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, eris.Wrap(err, "linkselect: parse base URL")
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, eris.Wrap(err, "linkselect: parse HTML")
	}

	seen := make(map[string]bool)
	var links []Link

	doc.Find("a").Each(func(_ int, s *goquery.Selection) {
		href, ok := s.Attr("href")
		if !ok || href == "" || strings.HasPrefix(href, "#") || strings.HasPrefix(href, "mailto:") || strings.HasPrefix(href, "tel:") {
			return
		}
		resolved, err := base.Parse(href)
		if err != nil || resolved.Host != base.Host {
			return
		}
		resolved.Fragment = ""
		normalized := strings.TrimRight(resolved.String(), "/")
		if normalized == "" || seen[normalized] {
			return
		}
		if isNonHTMLTarget(resolved.Path) {
			return
		}
		seen[normalized] = true
		links = append(links, Link{
			URL:  normalized,
			Text: strings.TrimSpace(s.Text()),
		})
	})

	return links, nil
}

func isNonHTMLTarget(p string) bool {
	return nonHTMLExtensions[strings.ToLower(path.Ext(p))]
}
