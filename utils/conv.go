package utils

import (
	"unicode/utf8"

	"github.com/pkg/errors"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/mogaika/geometry_source/config"
)

// TextToUtf8 passes utf-8 through and reads anything else in the
// configured code page
func TextToUtf8(bs []byte) ([]byte, error) {
	if utf8.Valid(bs) {
		return bs, nil
	}
	s, _, err := transform.Bytes(config.GetEncoding().NewDecoder(), bs)
	if err != nil {
		return nil, errors.Wrapf(err, "Failed to decode text")
	}
	return s, nil
}

// NormalizeName composes names to NFC, so the same name typed on
// different systems encodes to the same bytes
func NormalizeName(s string) string {
	return norm.NFC.String(s)
}
