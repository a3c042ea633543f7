package linkselect

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testHTML = `
<html><body>
<a href="/about">About Us</a>
<a href="/products">Products</a>
<a href="/blog/2024/post">Blog post</a>
<a href="https://example.com/contact">Contact</a>
<a href="https://other.com/about">External</a>
<a href="/assets/brochure.pdf">Download</a>
<a href="#top">Top</a>
<a href="mailto:hi@example.com">Email</a>
<a href="/about">Duplicate About</a>
</body></html>`

func TestExtract_FiltersAndDedupes(t *testing.T) {
	links, err := Extract(testHTML, "https://example.com")
	require.NoError(t, err)

	var urls []string
	for _, l := range links {
		urls = append(urls, l.URL)
	}

	assert.Contains(t, urls, "https://example.com/about")
	assert.Contains(t, urls, "https://example.com/products")
	assert.Contains(t, urls, "https://example.com/blog/2024/post")
	assert.Contains(t, urls, "https://example.com/contact")
	assert.NotContains(t, urls, "https://other.com/about")
	assert.NotContains(t, urls, "https://example.com/assets/brochure.pdf")

	count := 0
	for _, u := range urls {
		if u == "https://example.com/about" {
			count++
		}
	}
	assert.Equal(t, 1, count)
}

func TestExtract_InvalidBaseURL(t *testing.T) {
	_, err := Extract(testHTML, "://not a url")
	assert.Error(t, err)
}
