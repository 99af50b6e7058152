package parser

import (
	"strings"
	"testing"
)

func TestDecodeHeader(t *testing.T) {
	d := NewDecoder()

	cases := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "plain ascii",
			in:   "Cleaning estimate",
			want: "Cleaning estimate",
		},
		{
			name: "utf-8 encoded word",
			in:   "=?UTF-8?B?44Kv44Oq44O844OL44Oz44Kw6KaL56mN44KC44KK?=",
			want: "クリーニング見積もり",
		},
		{
			name: "iso-2022-jp encoded word",
			in:   "=?ISO-2022-JP?B?GyRCJS8laiE8JUslcyUwOCtAUSRiJGobKEI=?=",
			want: "クリーニング見積もり",
		},
		{
			name: "mixed encoded and plain segments",
			in:   "Re: =?UTF-8?B?44Kv44Oq44O844OL44Oz44Kw6KaL56mN44KC44KK?= (2)",
			want: "Re: クリーニング見積もり (2)",
		},
		{
			name: "unknown charset falls back to raw",
			in:   "=?x-nonsense?B?Zm9v?=",
			want: "=?x-nonsense?B?Zm9v?=",
		},
		{
			name: "invalid utf-8 bytes are dropped, not fatal",
			in:   "Hello \xff\xfeworld",
			want: "Hello world",
		},
		{
			name: "empty",
			in:   "",
			want: "",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := d.DecodeHeader(tc.in)
			if got != tc.want {
				t.Errorf("DecodeHeader(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

const crlf = "\r\n"

func multipartAlternative(plain, html string) []byte {
	var b strings.Builder
	b.WriteString("From: customer@example.com" + crlf)
	b.WriteString("Subject: test" + crlf)
	b.WriteString("Mime-Version: 1.0" + crlf)
	b.WriteString(`Content-Type: multipart/alternative; boundary="frontier"` + crlf + crlf)
	if plain != "" {
		b.WriteString("--frontier" + crlf)
		b.WriteString("Content-Type: text/plain; charset=utf-8" + crlf + crlf)
		b.WriteString(plain + crlf)
	}
	if html != "" {
		b.WriteString("--frontier" + crlf)
		b.WriteString("Content-Type: text/html; charset=utf-8" + crlf + crlf)
		b.WriteString(html + crlf)
	}
	b.WriteString("--frontier--" + crlf)
	return []byte(b.String())
}

func TestExtractBodyPrefersPlainText(t *testing.T) {
	d := NewDecoder()

	entity, err := d.Parse(multipartAlternative("A", "<p>B</p>"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	got := d.ExtractBody(entity)
	if got != "A" {
		t.Errorf("ExtractBody = %q, want %q", got, "A")
	}
}

func TestExtractBodyFallsBackToHTML(t *testing.T) {
	d := NewDecoder()

	entity, err := d.Parse(multipartAlternative("", "<p>First line</p><p>Second line</p>"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	got := d.ExtractBody(entity)
	want := "First line\nSecond line"
	if got != want {
		t.Errorf("ExtractBody = %q, want %q", got, want)
	}
}

func TestExtractBodyNonMultipart(t *testing.T) {
	d := NewDecoder()

	raw := []byte("From: a@example.com" + crlf +
		"Subject: hello" + crlf +
		"Content-Type: text/plain; charset=utf-8" + crlf + crlf +
		"plain body here" + crlf)
	entity, err := d.Parse(raw)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	got := d.ExtractBody(entity)
	if got != "plain body here" {
		t.Errorf("ExtractBody = %q, want %q", got, "plain body here")
	}
}

func TestExtractBodyMultipartNoTextParts(t *testing.T) {
	d := NewDecoder()

	raw := []byte("From: a@example.com" + crlf +
		"Mime-Version: 1.0" + crlf +
		`Content-Type: multipart/mixed; boundary="frontier"` + crlf + crlf +
		"--frontier" + crlf +
		"Content-Type: application/octet-stream" + crlf + crlf +
		"binarybinary" + crlf +
		"--frontier--" + crlf)
	entity, err := d.Parse(raw)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	if got := d.ExtractBody(entity); got != "" {
		t.Errorf("ExtractBody = %q, want empty", got)
	}
}

func TestExtractBodyNonMultipartNonText(t *testing.T) {
	d := NewDecoder()

	// A single-part message is its own body part even when the declared
	// content type is not a text one
	raw := []byte("From: a@example.com" + crlf +
		"Content-Type: application/octet-stream" + crlf + crlf +
		"payload text" + crlf)
	entity, err := d.Parse(raw)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	if got := d.ExtractBody(entity); got != "payload text" {
		t.Errorf("ExtractBody = %q, want %q", got, "payload text")
	}
}

func TestExtractBodyUnknownCharsetPart(t *testing.T) {
	d := NewDecoder()

	raw := []byte("From: a@example.com" + crlf +
		"Mime-Version: 1.0" + crlf +
		`Content-Type: multipart/alternative; boundary="frontier"` + crlf + crlf +
		"--frontier" + crlf +
		"Content-Type: text/plain; charset=x-nonsense" + crlf + crlf +
		"hello" + crlf +
		"--frontier--" + crlf)
	entity, err := d.Parse(raw)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	// An undeclarable charset falls back to the raw bytes, never an empty body
	if got := d.ExtractBody(entity); got != "hello" {
		t.Errorf("ExtractBody = %q, want %q", got, "hello")
	}
}

func TestExtractBodyNormalization(t *testing.T) {
	d := NewDecoder()

	// Trailing whitespace before breaks collapses, the whole result is
	// trimmed and the ■ artifact is repaired
	plain := "  ●サイズ : 200cm   " + crlf + "■種類 : ギャッベ" + crlf + crlf
	entity, err := d.Parse(multipartAlternative(plain, ""))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	got := d.ExtractBody(entity)
	want := "●サイズ : 200cm\n●種類 : ギャッベ"
	if got != want {
		t.Errorf("ExtractBody = %q, want %q", got, want)
	}
}

func TestExtractBodyUndecodableBytes(t *testing.T) {
	d := NewDecoder()

	raw := []byte("From: a@example.com" + crlf +
		"Content-Type: text/plain" + crlf + crlf +
		"good \xff\xfe text" + crlf)
	entity, err := d.Parse(raw)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	got := d.ExtractBody(entity)
	if got != "good  text" {
		t.Errorf("ExtractBody = %q, want %q", got, "good  text")
	}
}
