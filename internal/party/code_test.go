package party

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateCode(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		code, err := GenerateCode()
		require.NoError(t, err)
		assert.Len(t, code, CodeLength)
		assert.True(t, ValidCode(code), "generated code %q must validate", code)
		seen[code] = true
	}
	// Not a uniqueness guarantee, but 100 collisions would mean a broken RNG.
	assert.Greater(t, len(seen), 1)
}

func TestGenerateCodeSkipsAmbiguousCharacters(t *testing.T) {
	for i := 0; i < 50; i++ {
		code, err := GenerateCode()
		require.NoError(t, err)
		assert.NotContains(t, code, "0")
		assert.NotContains(t, code, "1")
		assert.NotContains(t, code, "I")
		assert.NotContains(t, code, "O")
	}
}

func TestNormalizeCode(t *testing.T) {
	assert.Equal(t, "ABC234", NormalizeCode("  abc234 "))
	assert.Equal(t, "ABC234", NormalizeCode("ABC234"))
	assert.Equal(t, "", NormalizeCode("   "))
}

func TestValidCode(t *testing.T) {
	assert.True(t, ValidCode("ABC234"))
	assert.True(t, ValidCode(strings.Repeat("Z", CodeLength)))

	assert.False(t, ValidCode(""))
	assert.False(t, ValidCode("ABC23"), "too short")
	assert.False(t, ValidCode("ABC2345"), "too long")
	assert.False(t, ValidCode("ABC230"), "0 not in alphabet")
	assert.False(t, ValidCode("ABC23O"), "O not in alphabet")
	assert.False(t, ValidCode("abc234"), "lowercase must be normalized first")
	assert.False(t, ValidCode("ABC23!"))
}
