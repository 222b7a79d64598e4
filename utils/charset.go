package utils

import (
	"fmt"
	"unicode/utf8"

	"github.com/saintfish/chardet"
	"golang.org/x/text/encoding/htmlindex"
)

// sniffLen is how much of the input the charset detector looks at.
const sniffLen = 512

// DetectCharset guesses the character set of b.
func DetectCharset(b []byte) (string, error) {
	if len(b) > sniffLen {
		b = b[:sniffLen]
	}

	det := chardet.NewTextDetector()
	charGuess, err := det.DetectBest(b)
	if err != nil {
		return "", fmt.Errorf("DetectCharset error: %w", err)
	}

	return charGuess.Charset, nil
}

// ToUTF8 returns b as a UTF-8 string. Input that is already valid
// UTF-8 is returned untouched, anything else is decoded from the
// charset the detector picks.
func ToUTF8(b []byte) (string, error) {
	if utf8.Valid(b) {
		return string(b), nil
	}

	charset, err := DetectCharset(b)
	if err != nil {
		return "", err
	}

	enc, err := htmlindex.Get(charset)
	if err != nil {
		return "", fmt.Errorf("ToUTF8 unsupported charset %q: %w", charset, err)
	}

	out, err := enc.NewDecoder().Bytes(b)
	if err != nil {
		return "", fmt.Errorf("ToUTF8 decode error: %w", err)
	}

	return string(out), nil
}
