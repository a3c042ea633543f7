package resilience

import (
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
)

func TestWithKind_NilError(t *testing.T) {
	assert.NoError(t, WithKind(nil, KindTransport))
}

func TestWithKind_RoundTrips(t *testing.T) {
	base := eris.New("rate limited by vendor")
	err := WithKind(base, KindRateLimited)

	kind, ok := KindOf(err)
	assert.True(t, ok)
	assert.Equal(t, KindRateLimited, kind)
	assert.True(t, IsKind(err, KindRateLimited))
	assert.False(t, IsKind(err, KindDegeneration))
}

func TestKindOf_UnkindedError(t *testing.T) {
	_, ok := KindOf(eris.New("plain error"))
	assert.False(t, ok)
}

func TestWithKind_PreservesUnwrap(t *testing.T) {
	base := eris.New("boom")
	err := WithKind(base, KindFatalConfig)
	assert.ErrorIs(t, err, base)
}
