package models

// Field is one entry of the estimate form extracted from a mail body.
// Found distinguishes "label present with empty value" from "label absent".
type Field struct {
	Label string `json:"label"`
	Value string `json:"value"`
	Found bool   `json:"found"`
}
