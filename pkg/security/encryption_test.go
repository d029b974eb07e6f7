package security

import (
	"bytes"
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseKey(t *testing.T) {
	key, err := ParseKey(base64.StdEncoding.EncodeToString(bytes.Repeat([]byte{1}, 32)))
	require.NoError(t, err)
	assert.Len(t, key, 32)

	_, err = ParseKey(base64.StdEncoding.EncodeToString([]byte("short")))
	assert.ErrorIs(t, err, ErrInvalidKeySize)
	_, err = ParseKey("%%%")
	assert.ErrorIs(t, err, ErrInvalidKeySize)
}

func TestAESEncryptor_SealAndOpen(t *testing.T) {
	enc, err := NewAESEncryptor(bytes.Repeat([]byte{7}, 32))
	require.NoError(t, err)

	sealed, err := SealString(enc, []byte(`{"name":"Ann"}`))
	require.NoError(t, err)
	assert.NotContains(t, sealed, "Ann")

	plain, err := OpenString(enc, sealed)
	require.NoError(t, err)
	assert.Equal(t, `{"name":"Ann"}`, string(plain))

	other, err := NewAESEncryptor(bytes.Repeat([]byte{8}, 32))
	require.NoError(t, err)
	_, err = OpenString(other, sealed)
	assert.ErrorIs(t, err, ErrDecryption)
}
