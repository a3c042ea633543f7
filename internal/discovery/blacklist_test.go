package discovery

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsBlacklistedDomain_ExactMatch(t *testing.T) {
	assert.True(t, isBlacklistedDomain("https://cnpj.biz/empresa/123"))
}

func TestIsBlacklistedDomain_Subdomain(t *testing.T) {
	assert.True(t, isBlacklistedDomain("https://www.linkedin.com/company/acme"))
}

func TestIsBlacklistedDomain_SchemelessURL(t *testing.T) {
	assert.True(t, isBlacklistedDomain("facebook.com/acmeaudio"))
}

func TestIsBlacklistedDomain_LegitimateCompanySite(t *testing.T) {
	assert.False(t, isBlacklistedDomain("https://acmeaudio.com.br"))
}

func TestIsBlacklistedDomain_EmptyURL(t *testing.T) {
	assert.False(t, isBlacklistedDomain(""))
}
