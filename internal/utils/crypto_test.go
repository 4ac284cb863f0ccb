// internal/utils/crypto_test.go
package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateRandomString(t *testing.T) {
	s, err := GenerateRandomString(32)
	require.NoError(t, err)
	assert.Len(t, s, 32)

	other, err := GenerateRandomString(32)
	require.NoError(t, err)
	assert.NotEqual(t, s, other)
}

func TestHashString(t *testing.T) {
	h := HashString("bizcore")
	assert.Len(t, h, 64)
	assert.Equal(t, h, HashString("bizcore"))
	assert.NotEqual(t, h, HashString("bizcorr"))
}

func TestValidateFileHash(t *testing.T) {
	data := []byte("certificate of incorporation")
	assert.True(t, ValidateFileHash(data, HashString(string(data))))
	assert.False(t, ValidateFileHash(data, HashString("something else")))
}
