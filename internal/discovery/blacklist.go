package discovery

import (
	"net/url"
	"strings"
)

// blacklistedDomains are domains that never represent a company's own site:
// business-data aggregators, social networks, and marketplaces. Filtering
// these out before the ranking call keeps the model from ever being asked
// to judge a CNPJ-lookup page as a candidate site.
var blacklistedDomains = map[string]struct{}{
	"econodata.com.br": {}, "cnpj.biz": {}, "cnpja.com": {}, "cnpj.info": {}, "cnpjs.rocks": {},
	"casadosdados.com.br": {}, "empresascnpj.com": {}, "consultacnpj.com": {},
	"informecadastral.com.br": {}, "cadastroempresa.com.br": {}, "transparencia.cc": {},
	"listamais.com.br": {}, "solutudo.com.br": {}, "telelistas.net": {}, "apontador.com.br": {},
	"guiamais.com.br": {}, "b2bleads.com.br": {},
	"empresas.serasaexperian.com.br": {}, "jusbrasil.com.br": {}, "jusdados.com": {},
	"facebook.com": {}, "instagram.com": {}, "linkedin.com": {}, "youtube.com": {},
	"twitter.com": {}, "x.com": {}, "tiktok.com": {}, "pinterest.com": {}, "threads.net": {},
	"mercadolivre.com.br": {}, "shopee.com.br": {}, "olx.com.br": {}, "amazon.com.br": {},
	"magazineluiza.com.br": {}, "americanas.com.br": {},
	"translate.google.com": {}, "webcache.googleusercontent.com": {},
}

var hostPrefixes = []string{"www.", "m.", "mobile."}

// isBlacklistedDomain reports whether rawURL's host is a known non-company
// domain (or a subdomain of one).
func isBlacklistedDomain(rawURL string) bool {
	if rawURL == "" {
		return false
	}
	u := rawURL
	if !strings.HasPrefix(u, "http://") && !strings.HasPrefix(u, "https://") {
		u = "https://" + u
	}
	parsed, err := url.Parse(u)
	if err != nil {
		return false
	}
	host := strings.ToLower(parsed.Hostname())
	for _, p := range hostPrefixes {
		host = strings.TrimPrefix(host, p)
	}
	for blocked := range blacklistedDomains {
		if host == blocked || strings.HasSuffix(host, "."+blocked) {
			return true
		}
	}
	return false
}
