package extract

import (
	"regexp"

	"github.com/docufin/docufin/internal/document"
)

// The rule table carries English, Russian, and Kazakh label vocabulary
// side by side: source documents routinely mix all three.

// Capital and lowercase letter classes covering Latin, Russian Cyrillic,
// and Kazakh Cyrillic.
const (
	capL = `A-ZА-ЯЁӘҒҚҢӨҰҮҺІ`
	lowL = `a-zа-яёәғқңөұүһі`
)

var (
	reReceipt = regexp.MustCompile(`(?i)receipt|invoice|payment|квитанция|платеж|платёж|(?:^|[^\p{L}])чек(?:[^\p{L}]|$)|счет на оплату|төлем|түбіртек`)

	reContract = regexp.MustCompile(`(?i)contract|agreement|договор|соглашение|келісім|шарт`)

	reStatement = regexp.MustCompile(`(?i)bank statement|account statement|statement|выписка|банк шоты|үзінді`)

	reDocIDLabeled = regexp.MustCompile(`(?i)(?:invoice|receipt|document|statement|счет|счёт|чек|документ|выписка|құжат)\s*(?:no|number|id|номер|нөмірі|№|#)[.:\s]*([A-Za-z0-9][A-Za-z0-9/-]*)`)

	reDocIDMarker = regexp.MustCompile(`(?:№|#)\s*([A-Za-z0-9][A-Za-z0-9/-]*)`)

	reDateLabeled = regexp.MustCompile(`(?i)(?:date|dated|issued|дата|выдан|күні|берілген)[.:\s]*(\d{1,2}[./-]\d{1,2}[./-]\d{2,4}|\d{4}-\d{2}-\d{2})`)

	reDateMonthName = regexp.MustCompile(`(?i)(\d{1,2}\s+(?:jan|feb|mar|apr|may|jun|jul|aug|sep|oct|nov|dec|янв|фев|мар|апр|мая|май|июн|июл|авг|сен|окт|ноя|дек|қаң|ақп|нау|сәу|мам|мау|шіл|там|қыр|қаз|қар|жел)[` + lowL + `]*\.?,?\s+\d{4})`)

	reDateBare = regexp.MustCompile(`(\d{1,2}[./-]\d{1,2}[./-]\d{2,4})`)

	reBankKnown = regexp.MustCompile(`(?i)(?:^|[^\p{L}])(Kaspi\s?Bank|Каспи\s?банк|Kaspi|Halyk\s?Bank|Халык\s?банк|Халық\s?банкі?|Народный банк|Сбербанк|Sberbank|Альфа-?банк|Alfa-?Bank|ВТБ|VTB|Банк ЦентрКредит|ЦентрКредит|Евразийский банк|Eurasian Bank|Jusan|Жусан|Forte\s?Bank|Форте\s?банк)(?:[^\p{L}]|$)`)

	reBankLabeled = regexp.MustCompile(`([` + capL + `][A-Za-zА-Яа-яЁё` + lowL + `& .-]{1,40}? (?:Bank|банкі?|Credit Union))`)

	reClientLabeled = regexp.MustCompile(`(?i:customer|client|name|Клиент|Получатель|Плательщик|Отправитель|ФИО|Алушы|Төлеуші)[.: \t]*([` + capL + `][` + lowL + `]+(?: [` + capL + `](?:[` + lowL + `]+|\.))(?: [` + capL + `](?:[` + lowL + `]+|\.))?)`)

	reClientHonorific = regexp.MustCompile(`(?:Господин|Госпожа|Г-н|Г-жа|Мырза|Ханым|Mr\.|Mrs\.|Ms\.) *([` + capL + `][` + lowL + `]+(?: [` + capL + `][` + lowL + `]+){0,2})`)

	reClientFullName = regexp.MustCompile(`([` + capL + `][` + lowL + `]+ [` + capL + `][` + lowL + `]+ [` + capL + `][` + lowL + `]+)`)

	reIBAN = regexp.MustCompile(`\b([A-Z]{2}\d{2}[A-Z0-9]{10,30})\b`)

	reAccountLabeled = regexp.MustCompile(`(?i)(?:account|acct|a/c|iban|swift|счет|счёт|л/с|шот|шоты)[.:\s#№]*([A-Z0-9][A-Z0-9 -]{6,40}[0-9])`)

	reAmountLabeled = regexp.MustCompile(`(?i)(?:^|[^\p{L}])(?:amount|total|sum|итого|сумма|всего|к оплате|төлем сомасы|барлығы|сома)[.:\s]*(?:USD|EUR|KZT|RUB|[$€₸₽])?\s*(\d[\d. \x{00a0}]*(?:[.,]\d{1,2})?)`)

	reAmountWithCurrency = regexp.MustCompile(`(\d[\d. \x{00a0}]*(?:[.,]\d{1,2})?)\s*(?:USD|EUR|KZT|RUB|тенге|теңге|тг|руб|рубл[а-яё]*|[$€₸₽])`)

	reCurrencyCode = regexp.MustCompile(`\b(USD|EUR|KZT|RUB|GBP|CNY)\b`)

	reCurrencyWord = regexp.MustCompile(`(?i)(?:^|[^\p{L}])(₸|₽|\$|€|£|тенге|теңге|тг|руб(?:л(?:ь|я|ей|и))?\.?|доллар(?:ов|а|ы)?|евро)(?:[^\p{L}]|$)`)
)

// rules returns the per-field strategy table in canonical field order.
func rules() []rule {
	return []rule{
		{
			field: document.FieldDocType,
			strategies: []strategy{
				{kind: StrategyKeyword, re: reReceipt, value: "receipt", confidence: 0.7},
				{kind: StrategyKeyword, re: reContract, value: "contract", confidence: 0.7},
				{kind: StrategyKeyword, re: reStatement, value: "statement", confidence: 0.7},
			},
			validate: validateDocType,
		},
		{
			field: document.FieldDocID,
			strategies: []strategy{
				{kind: StrategyPattern, re: reDocIDLabeled, confidence: 0.9},
				{kind: StrategyKeyword, re: reDocIDMarker, confidence: 0.7},
			},
			validate: validateDocID,
		},
		{
			field: document.FieldDate,
			strategies: []strategy{
				{kind: StrategyPattern, re: reDateLabeled, confidence: 0.9},
				{kind: StrategyPattern, re: reDateMonthName, confidence: 0.8},
				{kind: StrategyPositional, re: reDateBare, confidence: 0.5, firstPage: true},
			},
			validate: validateDate,
		},
		{
			field: document.FieldBankName,
			strategies: []strategy{
				{kind: StrategyPattern, re: reBankKnown, confidence: 0.9},
				{kind: StrategyKeyword, re: reBankLabeled, confidence: 0.7},
			},
			validate: validateBankName,
		},
		{
			field: document.FieldClientName,
			strategies: []strategy{
				{kind: StrategyKeyword, re: reClientLabeled, confidence: 0.8},
				{kind: StrategyKeyword, re: reClientHonorific, confidence: 0.7},
				{kind: StrategyPositional, re: reClientFullName, confidence: 0.5, firstPage: true},
			},
			validate: validateClientName,
		},
		{
			field: document.FieldAccountNumber,
			strategies: []strategy{
				{kind: StrategyPattern, re: reIBAN, confidence: 0.9},
				{kind: StrategyKeyword, re: reAccountLabeled, confidence: 0.7},
			},
			validate: validateAccountNumber,
		},
		{
			field: document.FieldAmount,
			strategies: []strategy{
				{kind: StrategyKeyword, re: reAmountLabeled, confidence: 0.85},
				{kind: StrategyPattern, re: reAmountWithCurrency, confidence: 0.65},
			},
			validate: validateAmount,
		},
		{
			field: document.FieldCurrency,
			strategies: []strategy{
				{kind: StrategyPattern, re: reCurrencyCode, confidence: 0.9},
				{kind: StrategyKeyword, re: reCurrencyWord, confidence: 0.7},
			},
			validate: validateCurrency,
		},
	}
}
