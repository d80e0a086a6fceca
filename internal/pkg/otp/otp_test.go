package otp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate(t *testing.T) {
	code, err := Generate()
	require.NoError(t, err)
	assert.Len(t, code, Length)
	assert.True(t, ValidFormat(code))
}

func TestGenerateDistinctCodes(t *testing.T) {
	seen := make(map[string]struct{})
	for i := 0; i < 20; i++ {
		code, err := Generate()
		require.NoError(t, err)
		seen[code] = struct{}{}
	}
	// 20 identical draws from a million-value space means a broken RNG
	assert.Greater(t, len(seen), 1)
}

func TestDigestMatch(t *testing.T) {
	digest := Digest("482913")

	assert.NotEqual(t, "482913", digest)
	assert.True(t, Match(digest, "482913"))
	assert.False(t, Match(digest, "482914"))
	assert.False(t, Match(digest, ""))
}

func TestDigestDeterministic(t *testing.T) {
	assert.Equal(t, Digest("000000"), Digest("000000"))
	assert.NotEqual(t, Digest("000000"), Digest("000001"))
}

func TestValidFormat(t *testing.T) {
	assert.True(t, ValidFormat("000000"))
	assert.True(t, ValidFormat("123456"))

	assert.False(t, ValidFormat(""))
	assert.False(t, ValidFormat("12345"))
	assert.False(t, ValidFormat("1234567"))
	assert.False(t, ValidFormat("12345a"))
	assert.False(t, ValidFormat(" 123456"))
}
