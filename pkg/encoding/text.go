// Package encoding provides text encoding helpers for interchange files
// written by other tools.
package encoding

import (
	"bytes"
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/transform"
)

// DefaultLegacyCharset is used for non-UTF-8 input when no charset is named.
// ASE files written on Windows are usually Windows-1252.
const DefaultLegacyCharset = "windows-1252"

// ToUTF8 returns data unchanged if it is valid UTF-8. Otherwise it decodes it
// from the named legacy charset (any WHATWG label, e.g. "windows-1252",
// "euc-kr", "shift_jis"). An empty charset means DefaultLegacyCharset.
func ToUTF8(data []byte, charset string) ([]byte, error) {
	if utf8.Valid(data) {
		return data, nil
	}
	if charset == "" {
		charset = DefaultLegacyCharset
	}
	enc, err := htmlindex.Get(charset)
	if err != nil {
		return nil, fmt.Errorf("unknown charset %q: %w", charset, err)
	}
	result, _, err := transform.Bytes(enc.NewDecoder(), data)
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", charset, err)
	}
	return result, nil
}

// ShaderPath converts a Windows-style material path to the forward-slash
// form used by shader names.
func ShaderPath(path string) string {
	return strings.ReplaceAll(path, "\\", "/")
}

// BitmapPath converts a shader name to the backslash form ASE bitmap
// references use.
func BitmapPath(shader string) string {
	return strings.ReplaceAll(shader, "/", "\\")
}

// TrimNullBytes removes trailing null bytes from a byte slice.
func TrimNullBytes(data []byte) []byte {
	return bytes.TrimRight(data, "\x00")
}
