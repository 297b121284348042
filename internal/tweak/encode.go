package tweak

import (
	"fmt"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// Encoding selects the byte encoding of an exported document.
type Encoding string

const (
	EncodingUTF8  Encoding = "utf8"
	EncodingUTF16 Encoding = "utf16" // little-endian with BOM
)

// MIME types for exported documents, one per supported encoding.
const (
	mimeUTF8  = "text/plain;charset=utf-8"
	mimeUTF16 = "text/plain;charset=utf-16"
)

// EncodeDocument converts a composed document to its export payload and MIME
// descriptor. The content is never mutated; UTF-16 output is little-endian
// and carries a BOM so Windows editors detect it. Unknown encodings are the
// only failure mode.
func EncodeDocument(content string, enc Encoding) ([]byte, string, error) {
	switch enc {
	case EncodingUTF8, "":
		return []byte(content), mimeUTF8, nil
	case EncodingUTF16:
		encoder := unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewEncoder()
		payload, _, err := transform.Bytes(encoder, []byte(content))
		if err != nil {
			return nil, "", fmt.Errorf("utf16 encode: %w", err)
		}
		return payload, mimeUTF16, nil
	default:
		return nil, "", fmt.Errorf("unsupported encoding %q (want utf8 or utf16)", enc)
	}
}
