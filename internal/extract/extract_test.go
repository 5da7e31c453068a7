package extract

import (
	"testing"

	"github.com/docufin/docufin/internal/document"
)

const englishReceipt = `ACME Services
Receipt No: R-2024/118
Date: 15.03.2024
Bank: Kaspi Bank
Customer: John Smith
Account: KZ86125KZT5004100100
Total: 1 500.00 KZT
Thank you for your business`

const russianReceipt = `ПАО Сбербанк
Квитанция № 445821
Дата: 02.11.2023
Плательщик: Иванов Иван Иванович
Счет: 40817810099910004312
Сумма: 2 500,50 руб`

func TestExtractEnglishReceipt(t *testing.T) {
	e := New(nil)
	fields := e.Extract(englishReceipt, "en")

	want := map[document.FieldName]string{
		document.FieldDocType:       "receipt",
		document.FieldDocID:         "R-2024/118",
		document.FieldDate:          "15.03.2024",
		document.FieldBankName:      "Kaspi Bank",
		document.FieldClientName:    "John Smith",
		document.FieldAccountNumber: "KZ86125KZT5004100100",
		document.FieldAmount:        "1500.00",
		document.FieldCurrency:      "KZT",
	}
	for name, value := range want {
		if got := fields[name].Value; got != value {
			t.Errorf("%s = %q, want %q", name, got, value)
		}
	}
	if !fields.Sufficient() {
		t.Error("extraction should be sufficient")
	}
}

func TestExtractRussianReceipt(t *testing.T) {
	e := New(nil)
	fields := e.Extract(russianReceipt, "ru")

	want := map[document.FieldName]string{
		document.FieldDocType:       "receipt",
		document.FieldDocID:         "445821",
		document.FieldDate:          "02.11.2023",
		document.FieldBankName:      "Сбербанк",
		document.FieldClientName:    "Иванов Иван Иванович",
		document.FieldAccountNumber: "40817810099910004312",
		document.FieldAmount:        "2500.50",
		document.FieldCurrency:      "RUB",
	}
	for name, value := range want {
		if got := fields[name].Value; got != value {
			t.Errorf("%s = %q, want %q", name, got, value)
		}
	}
}

func TestExtractKazakhFragments(t *testing.T) {
	e := New(nil)
	fields := e.Extract("Төлем түбіртек\nТөлем сомасы: 15 000 ₸", "kk")

	if got := fields[document.FieldDocType].Value; got != "receipt" {
		t.Errorf("doc_type = %q, want receipt", got)
	}
	if got := fields[document.FieldAmount].Value; got != "15000" {
		t.Errorf("amount = %q, want 15000", got)
	}
	if got := fields[document.FieldCurrency].Value; got != "KZT" {
		t.Errorf("currency = %q, want KZT", got)
	}
}

func TestExtractEuropeanAmountFormat(t *testing.T) {
	e := New(nil)
	fields := e.Extract("Итого: 1.234,56 руб", "ru")

	if got := fields[document.FieldAmount].Value; got != "1234.56" {
		t.Errorf("amount = %q, want 1234.56", got)
	}
	if got := fields[document.FieldCurrency].Value; got != "RUB" {
		t.Errorf("currency = %q, want RUB", got)
	}
}

func TestExtractStrategyConfidenceTiers(t *testing.T) {
	e := New(nil)

	labeled := e.Extract("Date: 15.03.2024", "en")
	bare := e.Extract("15.03.2024", "en")

	if labeled[document.FieldDate].Confidence <= bare[document.FieldDate].Confidence {
		t.Errorf("labeled date confidence %v should exceed bare %v",
			labeled[document.FieldDate].Confidence, bare[document.FieldDate].Confidence)
	}
}

func TestExtractFieldsIndependent(t *testing.T) {
	// An invalid date never blocks the other fields.
	e := New(nil)
	fields := e.Extract("Date: 32.13.2024\nTotal: 500.00 USD", "en")

	if fields[document.FieldDate].Found() {
		t.Errorf("invalid date extracted: %q", fields[document.FieldDate].Value)
	}
	if got := fields[document.FieldAmount].Value; got != "500.00" {
		t.Errorf("amount = %q, want 500.00", got)
	}
	if got := fields[document.FieldCurrency].Value; got != "USD" {
		t.Errorf("currency = %q, want USD", got)
	}
}

func TestExtractPositionalOnlyOnFirstPage(t *testing.T) {
	e := New(nil)

	// A bare date on the first page is picked up positionally.
	first := e.Extract("10.05.2024\nsome text"+document.PageSeparator+"second page", "en")
	if !first[document.FieldDate].Found() {
		t.Error("bare date on first page should be extracted")
	}

	// The same bare date after the separator is ignored.
	later := e.Extract("some text"+document.PageSeparator+"10.05.2024", "en")
	if later[document.FieldDate].Found() {
		t.Errorf("bare date on later page extracted: %q", later[document.FieldDate].Value)
	}
}

func TestClassifierValueIsValidated(t *testing.T) {
	e := New(nil)
	r := rule{
		field: document.FieldDocType,
		strategies: []strategy{
			// A classifier whose literal value fails validation must be
			// skipped, not returned.
			{kind: StrategyKeyword, re: reReceipt, value: "memo", confidence: 0.7},
			{kind: StrategyKeyword, re: reContract, value: "contract", confidence: 0.7},
		},
		validate: validateDocType,
	}

	value, _, ok := e.applyRule(r, "Receipt for contract work", "Receipt for contract work")
	if !ok || value != "contract" {
		t.Errorf("applyRule() = (%q, %v), want fall-through to contract", value, ok)
	}

	r.strategies = r.strategies[:1]
	if value, _, ok := e.applyRule(r, "Receipt only", "Receipt only"); ok {
		t.Errorf("applyRule() accepted invalid classifier value %q", value)
	}
}

func TestExtractEmptyText(t *testing.T) {
	e := New(nil)
	fields := e.Extract("", "en")
	for _, f := range fields.Ordered() {
		if f.Found() {
			t.Errorf("field %s extracted from empty text: %q", f.Name, f.Value)
		}
	}
}

func TestExtractContractAndStatement(t *testing.T) {
	e := New(nil)

	if got := e.Extract("Договор аренды № 17", "ru")[document.FieldDocType].Value; got != "contract" {
		t.Errorf("doc_type = %q, want contract", got)
	}
	if got := e.Extract("Выписка по счету за март", "ru")[document.FieldDocType].Value; got != "statement" {
		t.Errorf("doc_type = %q, want statement", got)
	}
	if got := e.Extract("Bank Statement for account", "en")[document.FieldDocType].Value; got != "statement" {
		t.Errorf("doc_type = %q, want statement", got)
	}
}
