package prober

import (
	"net/url"
	"strings"
)

// Variants generates the four {http, https} x {apex, www} candidates for a
// base URL, https-first and apex-first within each scheme, with any
// previously-successful canonical URL promoted to the front of the list.
func Variants(baseURL, canonical string) []string {
	base := baseURL
	if !strings.HasPrefix(base, "http://") && !strings.HasPrefix(base, "https://") {
		base = "https://" + base
	}

	u, err := url.Parse(base)
	if err != nil || u.Host == "" {
		return []string{base}
	}

	path := u.Path
	if path == "" {
		path = "/"
	}
	apexDomain := strings.TrimPrefix(u.Host, "www.")

	seen := make(map[string]bool)
	var out []string
	add := func(v string) {
		v = strings.TrimRight(v, "/")
		if v == "" {
			v = base
		}
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}

	if canonical != "" {
		add(canonical)
	}

	for _, scheme := range []string{"https", "http"} {
		for _, prefix := range []string{"", "www."} {
			host := prefix + apexDomain
			if strings.HasPrefix(host, "www.www.") {
				continue
			}
			add(scheme + "://" + host + path)
		}
	}

	return out
}
