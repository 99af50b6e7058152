package parser

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/nanafuji/estimail/pkg/models"
)

func TestFormExtractorExtract(t *testing.T) {
	e := NewFormExtractor()

	body := strings.Join([]string{
		"１. 当店で購入した商品ですか？　※必須 : はい",
		"２. サイズ（房（フリンジ）を含めた長さ）　※必須 : 200cm×250cm",
		"３、 種類　※必須 : ギャッベ",
		"９. お名前 : 山田太郎",
		"１１. 電話番号　※必須 : 090-1234-5678",
	}, "\n")

	fields := e.Extract(body)
	byLabel := make(map[string]models.Field, len(fields))
	for _, f := range fields {
		byLabel[f.Label] = f
	}

	want := map[string]models.Field{
		"購入商品": {Label: "購入商品", Value: "はい", Found: true},
		"サイズ":  {Label: "サイズ", Value: "200cm×250cm", Found: true},
		"種類":   {Label: "種類", Value: "ギャッベ", Found: true},
		"お名前":  {Label: "お名前", Value: "山田太郎", Found: true},
		"電話番号": {Label: "電話番号", Value: "090-1234-5678", Found: true},
	}
	for label, w := range want {
		if diff := cmp.Diff(w, byLabel[label]); diff != "" {
			t.Errorf("field %s mismatch (-want +got):\n%s", label, diff)
		}
	}

	// Labels absent from the body are explicit, not placeholder strings
	if f := byLabel["メールアドレス"]; f.Found || f.Value != "" {
		t.Errorf("absent field = %+v, want Found=false with empty value", f)
	}
}

func TestFormExtractorOrderAndCount(t *testing.T) {
	e := NewFormExtractor()

	fields := e.Extract("")
	if len(fields) != 17 {
		t.Fatalf("Extract returned %d fields, want 17", len(fields))
	}
	if fields[0].Label != "購入商品" || fields[len(fields)-1].Label != "都合が良い時間帯" {
		t.Errorf("field order unexpected: first %q, last %q", fields[0].Label, fields[len(fields)-1].Label)
	}
	for _, f := range fields {
		if f.Found {
			t.Errorf("field %s reported found on empty body", f.Label)
		}
	}
}
