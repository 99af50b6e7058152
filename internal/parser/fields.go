package parser

import (
	"regexp"
	"strings"

	"github.com/nanafuji/estimail/pkg/models"
)

// FormExtractor pulls the numbered estimate-form answers out of a mail body
type FormExtractor struct {
	patterns []*fieldPattern
}

type fieldPattern struct {
	label string
	regex *regexp.Regexp
}

// NewFormExtractor creates an extractor for the estimate request form.
// The pattern list is ordered to match the form layout; the form uses
// full-width digits and mixes 「.」 and 「、」 separators between items.
func NewFormExtractor() *FormExtractor {
	return &FormExtractor{
		patterns: []*fieldPattern{
			{label: "購入商品", regex: regexp.MustCompile(`１\.\s*当店で購入した商品ですか？　※必須 : (.+)`)},
			{label: "サイズ", regex: regexp.MustCompile(`２\.\s*サイズ（房（フリンジ）を含めた長さ）　※必須 :\s*(.+)`)},
			{label: "種類", regex: regexp.MustCompile(`３、\s*種類　※必須 : (.+)`)},
			{label: "産地", regex: regexp.MustCompile(`４、\s*産地（その他を選択の場合） : (.*)`)},
			{label: "購入年", regex: regexp.MustCompile(`５、\s*購入年（大体で結構です）※必須 : (.+)`)},
			{label: "クリーニング回数", regex: regexp.MustCompile(`６\.\s*クリーニング（水洗い）の回数　※必須 :\s*(.+)`)},
			{label: "使用年数", regex: regexp.MustCompile(`７\.\s*購入もしくはクリーニングからの使用年数（大体で結構です）※必須\s*:\s*(.+)`)},
			{label: "気になる部分", regex: regexp.MustCompile(`８\.\s*気になる部分、連絡や質問等があればお書きください\s*:\s*(.+)`)},
			{label: "お名前", regex: regexp.MustCompile(`９\.\s*お名前 : (.+)`)},
			{label: "メールアドレス", regex: regexp.MustCompile(`１０\.\s*メールアドレス : (.+)`)},
			{label: "電話番号", regex: regexp.MustCompile(`１１\.\s*電話番号　※必須 : (.+)`)},
			{label: "梱包用紙", regex: regexp.MustCompile(`１２\.\s*梱包用紙（400円）が必要な場合は選択 : \s*(.+)`)},
			{label: "見積りコース", regex: regexp.MustCompile(`１３\.\s*お見積りを希望するコース　※必須\s*:\s*([^\r\n]+)`)},
			{label: "オプション希望", regex: regexp.MustCompile(`１４\.\s*オプションの希望 :\s*(.+)`)},
			{label: "支払希望方法", regex: regexp.MustCompile(`１５\.\s*ご依頼となった場合のお支払希望　※必須\s*:\s*(.+)`)},
			{label: "電話相談希望", regex: regexp.MustCompile(`１６\.\s*電話で相談（コース選択や気になる部分について）\s*:\s*(.+)`)},
			{label: "都合が良い時間帯", regex: regexp.MustCompile(`都合が良い時間帯（電話相談を希望の方のみ）\s*:\s*(.+)`)},
		},
	}
}

// Extract returns one Field per form entry, in form order. Entries whose
// label is missing from the body come back with Found=false rather than a
// placeholder value.
func (e *FormExtractor) Extract(body string) []models.Field {
	fields := make([]models.Field, 0, len(e.patterns))
	for _, p := range e.patterns {
		field := models.Field{Label: p.label}
		if m := p.regex.FindStringSubmatch(body); m != nil {
			field.Value = strings.TrimSpace(m[1])
			field.Found = true
		}
		fields = append(fields, field)
	}
	return fields
}
