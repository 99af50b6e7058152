package parser

import (
	"bytes"
	"errors"
	"io"
	"mime"
	"regexp"
	"strings"

	"github.com/emersion/go-message"
	"github.com/emersion/go-message/charset"
)

// Decoder extracts decoded text from MIME messages. Header and body decoding
// is permissive: unknown charsets pass bytes through and invalid UTF-8 is
// dropped, never surfaced as an error.
type Decoder struct {
	html       *HTMLParser
	trailingWS *regexp.Regexp
}

// NewDecoder creates a new MIME decoder
func NewDecoder() *Decoder {
	return &Decoder{
		html:       NewHTMLParser(),
		trailingWS: regexp.MustCompile(`\s+\n`),
	}
}

// Parse reads a raw RFC 822 message. An unknown charset in the headers is not
// fatal; body decoding falls back to the raw bytes for such parts.
func (d *Decoder) Parse(raw []byte) (*message.Entity, error) {
	entity, err := message.Read(bytes.NewReader(raw))
	if err != nil && !message.IsUnknownCharset(err) {
		return nil, err
	}
	return entity, nil
}

// DecodeHeader decodes a header value that may contain RFC 2047 encoded words
// in mixed charsets. Malformed segments fall back to the raw value with
// invalid UTF-8 bytes dropped.
func (d *Decoder) DecodeHeader(raw string) string {
	if raw == "" {
		return ""
	}
	dec := &mime.WordDecoder{CharsetReader: charset.Reader}
	decoded, err := dec.DecodeHeader(raw)
	if err != nil {
		return strings.ToValidUTF8(raw, "")
	}
	return strings.ToValidUTF8(decoded, "")
}

var errStopWalk = errors.New("stop walk")

// ExtractBody returns the normalized plain-text body of a message.
// Multipart messages are walked depth-first in document order; the first
// text/plain part wins, the first text/html part is the fallback. This
// ordering matches the upstream form-mail sender, which always emits the
// plain-text part first when present. A non-multipart message is its own
// body part, whatever its declared content type.
func (d *Decoder) ExtractBody(entity *message.Entity) string {
	if entity.MultipartReader() == nil {
		ct, _, _ := entity.Header.ContentType()
		b, _ := io.ReadAll(entity.Body)
		text := strings.ToValidUTF8(string(b), "")
		if ct == "text/html" {
			if converted, err := d.html.Parse(text); err == nil {
				text = converted
			}
		}
		return d.normalize(text)
	}

	var plainBody, htmlBody string
	var plainFound, htmlFound bool

	// A truncated multipart aborts the walk; whatever was collected is used.
	// An unknown charset is not fatal: the part still carries its raw bytes,
	// which decode best-effort below.
	_ = entity.Walk(func(path []int, part *message.Entity, err error) error {
		if err != nil && !message.IsUnknownCharset(err) {
			return nil
		}
		if part.MultipartReader() != nil {
			return nil
		}

		// Missing Content-Type defaults to text/plain
		ct, _, _ := part.Header.ContentType()
		switch ct {
		case "text/plain":
			b, _ := io.ReadAll(part.Body)
			plainBody = string(b)
			plainFound = true
			// Plain text always wins, no need to walk further
			return errStopWalk
		case "text/html":
			if !htmlFound {
				b, _ := io.ReadAll(part.Body)
				htmlBody = string(b)
				htmlFound = true
			}
		}
		return nil
	})

	text := plainBody
	if !plainFound && htmlFound {
		if converted, err := d.html.Parse(strings.ToValidUTF8(htmlBody, "")); err == nil {
			text = converted
		}
	}

	return d.normalize(strings.ToValidUTF8(text, ""))
}

// normalize repairs common encoding artifacts and tidies whitespace
func (d *Decoder) normalize(text string) string {
	// Some clients render the form's ● bullets as ■
	text = strings.ReplaceAll(text, "■", "●")
	text = d.trailingWS.ReplaceAllString(text, "\n")
	return strings.TrimSpace(text)
}
