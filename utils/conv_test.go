package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTextToUtf8(t *testing.T) {
	for _, test := range []struct {
		in  []byte
		out string
	}{
		{[]byte("plain"), "plain"},
		{[]byte("Ствол"), "Ствол"},
		{[]byte("na\xefve"), "naïve"},
	} {
		out, err := TextToUtf8(test.in)
		require.NoError(t, err)
		assert.Equal(t, test.out, string(out))
	}
}

func TestNormalizeName(t *testing.T) {
	assert.Equal(t, "Caf\u00e9", NormalizeName("Cafe\u0301"))
	assert.Equal(t, "樹", NormalizeName("樹"))
}
