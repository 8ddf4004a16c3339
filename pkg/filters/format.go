package filters

// Locale-aware formatting filters: numbers, currency amounts, percentages,
// and dates. Locale arguments are BCP 47-ish strings ("de", "fr_CA");
// unknown locales fall back to English.

import (
	"fmt"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/goodsign/monday"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

func localeTag(locale string) language.Tag {
	tag, err := language.Parse(strings.ReplaceAll(locale, "_", "-"))
	if err != nil {
		return language.English
	}
	return tag
}

// numberFilter formats a numeric value with the locale's digit grouping:
// {{ total | number:de }} renders 1234567.5 as "1.234.567,5".
func numberFilter(v any, args []string) (any, error) {
	f, err := toFloat(v)
	if err != nil {
		return nil, err
	}
	locale := "en"
	if len(args) > 0 {
		locale = args[0]
	}
	p := message.NewPrinter(localeTag(locale))
	return p.Sprint(number.Decimal(f)), nil
}

// percent formats a 0..1 fraction as a localized percentage.
func percent(v any, args []string) (any, error) {
	f, err := toFloat(v)
	if err != nil {
		return nil, err
	}
	locale := "en"
	if len(args) > 0 {
		locale = args[0]
	}
	p := message.NewPrinter(localeTag(locale))
	return p.Sprint(number.Percent(f)), nil
}

// currencyFilter formats an amount in an ISO 4217 currency:
// {{ price | currency:EUR:de }}.
func currencyFilter(v any, args []string) (any, error) {
	f, err := toFloat(v)
	if err != nil {
		return nil, err
	}
	code := "USD"
	if len(args) > 0 {
		code = strings.ToUpper(args[0])
	}
	locale := "en"
	if len(args) > 1 {
		locale = args[1]
	}
	unit, err := currency.ParseISO(code)
	if err != nil {
		return nil, fmt.Errorf("currency code %q: %w", code, err)
	}
	p := message.NewPrinter(localeTag(locale))
	return p.Sprintf("%v", currency.Symbol(unit.Amount(f))), nil
}

// date parses the value with dateparse (strings in almost any common
// layout, or a time.Time) and formats it: first arg is a Go reference
// layout (default "2 January 2006"), second a locale for localized month
// and day names.
func date(v any, args []string) (any, error) {
	var t time.Time
	switch val := v.(type) {
	case time.Time:
		t = val
	case nil:
		return "", nil
	default:
		parsed, err := dateparse.ParseAny(toString(val))
		if err != nil {
			return nil, fmt.Errorf("parsing date %q: %w", toString(val), err)
		}
		t = parsed
	}
	layout := "2 January 2006"
	if len(args) > 0 && args[0] != "" {
		layout = args[0]
	}
	if len(args) > 1 {
		return monday.Format(t, layout, mondayLocale(args[1])), nil
	}
	return t.Format(layout), nil
}

// mondayLocale maps a locale string to a monday.Locale, falling back to US
// English.
func mondayLocale(locale string) monday.Locale {
	locale = strings.ToLower(strings.ReplaceAll(locale, "-", "_"))
	m := map[string]monday.Locale{
		"en":    monday.LocaleEnUS,
		"en_us": monday.LocaleEnUS,
		"en_gb": monday.LocaleEnGB,
		"de":    monday.LocaleDeDE,
		"de_de": monday.LocaleDeDE,
		"fr":    monday.LocaleFrFR,
		"fr_fr": monday.LocaleFrFR,
		"fr_ca": monday.LocaleFrCA,
		"es":    monday.LocaleEsES,
		"es_es": monday.LocaleEsES,
		"it":    monday.LocaleItIT,
		"pt":    monday.LocalePtPT,
		"pt_br": monday.LocalePtBR,
		"nl":    monday.LocaleNlNL,
		"ru":    monday.LocaleRuRU,
		"pl":    monday.LocalePlPL,
		"ja":    monday.LocaleJaJP,
		"zh":    monday.LocaleZhCN,
	}
	if loc, ok := m[locale]; ok {
		return loc
	}
	if base, _, found := strings.Cut(locale, "_"); found {
		if loc, ok := m[base]; ok {
			return loc
		}
	}
	return monday.LocaleEnUS
}
