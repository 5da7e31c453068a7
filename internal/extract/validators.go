package extract

import (
	"strconv"
	"strings"
	"time"
	"unicode"
)

// Validators clean a raw regex match and reject implausible values. A
// rejected match never reaches the field set; the strategy loop moves on.

func validateDocType(raw string) (string, bool) {
	switch raw {
	case "receipt", "contract", "statement":
		return raw, true
	}
	return "", false
}

func validateDocID(raw string) (string, bool) {
	id := strings.Trim(raw, ".,;:")
	if len(id) == 0 || len(id) > 40 {
		return "", false
	}
	if !strings.ContainsFunc(id, unicode.IsDigit) {
		return "", false
	}
	return id, true
}

// monthNames maps month-name prefixes (en/ru/kk) to month numbers.
var monthNames = map[string]time.Month{
	"jan": time.January, "feb": time.February, "mar": time.March,
	"apr": time.April, "may": time.May, "jun": time.June,
	"jul": time.July, "aug": time.August, "sep": time.September,
	"oct": time.October, "nov": time.November, "dec": time.December,
	"янв": time.January, "фев": time.February, "мар": time.March,
	"апр": time.April, "мая": time.May, "май": time.May, "июн": time.June,
	"июл": time.July, "авг": time.August, "сен": time.September,
	"окт": time.October, "ноя": time.November, "дек": time.December,
	"қаң": time.January, "ақп": time.February, "нау": time.March,
	"сәу": time.April, "мам": time.May, "мау": time.June,
	"шіл": time.July, "там": time.August, "қыр": time.September,
	"қаз": time.October, "қар": time.November, "жел": time.December,
}

func validateDate(raw string) (string, bool) {
	value := strings.TrimSpace(raw)
	if _, ok := parseDate(value); ok {
		return value, true
	}
	return "", false
}

// parseDate accepts numeric forms (dd.mm.yyyy and variants, ISO) and
// month-name forms in en/ru/kk. The result must be a real calendar date
// with a plausible year.
func parseDate(value string) (time.Time, bool) {
	numeric := []string{
		"02.01.2006", "2.1.2006", "02.01.06",
		"02/01/2006", "2/1/2006", "02/01/06",
		"02-01-2006", "2-1-2006",
		"2006-01-02",
	}
	for _, layout := range numeric {
		if t, err := time.Parse(layout, value); err == nil {
			return t, plausibleYear(t)
		}
	}

	// Month-name form: "15 марта 2024", "3 Jan 2023".
	parts := strings.Fields(strings.ToLower(value))
	if len(parts) != 3 {
		return time.Time{}, false
	}
	day, err := strconv.Atoi(parts[0])
	if err != nil {
		return time.Time{}, false
	}
	monthTok := strings.Trim(parts[1], ".,")
	var month time.Month
	found := false
	for prefix, m := range monthNames {
		if strings.HasPrefix(monthTok, prefix) {
			month, found = m, true
			break
		}
	}
	if !found {
		return time.Time{}, false
	}
	year, err := strconv.Atoi(strings.Trim(parts[2], ".,"))
	if err != nil {
		return time.Time{}, false
	}

	t := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	// time.Date normalizes overflow (e.g. Feb 30 -> Mar 2); reject it.
	if t.Day() != day || t.Month() != month || t.Year() != year {
		return time.Time{}, false
	}
	return t, plausibleYear(t)
}

func plausibleYear(t time.Time) bool {
	return t.Year() >= 1900 && t.Year() <= 2100
}

var bankWords = []string{"bank", "банк", "банкі"}

func validateBankName(raw string) (string, bool) {
	name := strings.Trim(strings.TrimSpace(raw), `"«»'.,;`)
	if len([]rune(name)) < 4 || len([]rune(name)) > 80 {
		return "", false
	}
	return name, true
}

func validateClientName(raw string) (string, bool) {
	name := strings.TrimSpace(raw)
	runes := []rune(name)
	if len(runes) < 5 || len(runes) > 80 {
		return "", false
	}
	if strings.ContainsFunc(name, unicode.IsDigit) {
		return "", false
	}
	lower := strings.ToLower(name)
	for _, w := range bankWords {
		if strings.Contains(lower, w) {
			return "", false
		}
	}
	words := strings.Fields(name)
	if len(words) < 2 {
		return "", false
	}
	for _, w := range words {
		r := []rune(w)
		if !unicode.IsUpper(r[0]) {
			return "", false
		}
	}
	return name, true
}

func validateAccountNumber(raw string) (string, bool) {
	cleaned := strings.Map(func(r rune) rune {
		if r == ' ' || r == '-' {
			return -1
		}
		return r
	}, strings.TrimSpace(raw))

	if len(cleaned) < 8 || len(cleaned) > 34 {
		return "", false
	}
	digits := 0
	for _, r := range cleaned {
		switch {
		case unicode.IsDigit(r):
			digits++
		case r >= 'A' && r <= 'Z':
		case r >= 'a' && r <= 'z':
		default:
			return "", false
		}
	}
	if digits < 6 {
		return "", false
	}
	return strings.ToUpper(cleaned), true
}

func validateAmount(raw string) (string, bool) {
	cleaned := strings.Map(func(r rune) rune {
		if r == ' ' || r == '\u00a0' {
			return -1
		}
		return r
	}, strings.TrimSpace(raw))

	// When both separators appear, the rightmost one is the decimal mark:
	// 1,234.56 and 1.234,56 both normalize to 1234.56. A lone comma is a
	// decimal mark unless repeated (1,234,567 groups thousands).
	comma := strings.LastIndex(cleaned, ",")
	dot := strings.LastIndex(cleaned, ".")
	switch {
	case comma >= 0 && dot >= 0 && comma > dot:
		cleaned = strings.ReplaceAll(cleaned, ".", "")
		cleaned = strings.Replace(cleaned, ",", ".", 1)
	case comma >= 0 && dot >= 0:
		cleaned = strings.ReplaceAll(cleaned, ",", "")
	case strings.Count(cleaned, ",") > 1:
		cleaned = strings.ReplaceAll(cleaned, ",", "")
	case comma >= 0:
		cleaned = strings.Replace(cleaned, ",", ".", 1)
	}
	cleaned = strings.TrimSuffix(cleaned, ".")

	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil || v <= 0 {
		return "", false
	}
	return cleaned, true
}

// currencyNames normalizes symbols and local currency words to ISO codes.
var currencyNames = map[string]string{
	"₸": "KZT", "тенге": "KZT", "теңге": "KZT", "тг": "KZT",
	"₽": "RUB", "руб": "RUB",
	"$": "USD", "доллар": "USD",
	"€": "EUR", "евро": "EUR",
	"£": "GBP",
}

func validateCurrency(raw string) (string, bool) {
	v := strings.ToLower(strings.TrimSpace(raw))
	switch upper := strings.ToUpper(v); upper {
	case "USD", "EUR", "KZT", "RUB", "GBP", "CNY":
		return upper, true
	}
	for prefix, code := range currencyNames {
		if strings.HasPrefix(v, strings.ToLower(prefix)) {
			return code, true
		}
	}
	return "", false
}
