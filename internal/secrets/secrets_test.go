package secrets

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testKey = "6368616e676520746869732070617373776f726420746f206120736563726574"

func TestRoundTrip(t *testing.T) {
	codec, err := NewCodec(testKey)
	require.NoError(t, err)

	sealed, err := codec.Encrypt("smtp-app-password")
	require.NoError(t, err)
	assert.NotContains(t, sealed, "smtp-app-password")

	plain, err := codec.Decrypt(sealed)
	require.NoError(t, err)
	assert.Equal(t, "smtp-app-password", plain)
}

func TestNewCodecRejectsBadKeys(t *testing.T) {
	for _, key := range []string{"", "abcd", "zz" + testKey[2:], testKey + "ff"} {
		_, err := NewCodec(key)
		assert.ErrorIs(t, err, ErrInvalidKey, "key %q", key)
	}
}

func TestDecryptWrongKey(t *testing.T) {
	codec, err := NewCodec(testKey)
	require.NoError(t, err)

	other, err := NewCodec(strings.Repeat("ab", 32))
	require.NoError(t, err)

	sealed, err := codec.Encrypt("secret")
	require.NoError(t, err)

	_, err = other.Decrypt(sealed)
	assert.Error(t, err)
}

func TestDecryptGarbage(t *testing.T) {
	codec, err := NewCodec(testKey)
	require.NoError(t, err)

	_, err = codec.Decrypt("not base64 at all!!!")
	assert.Error(t, err)

	_, err = codec.Decrypt("aGk=") // valid base64, too short for a nonce
	assert.Error(t, err)
}
