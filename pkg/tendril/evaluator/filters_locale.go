// filters_locale.go - Locale-aware formatting filters.
//
// The number and currency filters format through golang.org/x/text so
// grouping separators and symbols follow the locale; the date filter parses
// loosely-formatted inputs and renders month and day names in the locale's
// language.

package evaluator

import (
	"math"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/goodsign/monday"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// getMondayLocale maps a locale string to a monday.Locale for date
// formatting. Supports common locale codes with fallbacks.
func getMondayLocale(locale string) monday.Locale {
	locale = strings.ToLower(strings.ReplaceAll(locale, "-", "_"))

	localeMap := map[string]monday.Locale{
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
		"it_it": monday.LocaleItIT,
		"pt":    monday.LocalePtPT,
		"pt_br": monday.LocalePtBR,
		"nl":    monday.LocaleNlNL,
		"nl_nl": monday.LocaleNlNL,
		"ru":    monday.LocaleRuRU,
		"pl":    monday.LocalePlPL,
		"sv":    monday.LocaleSvSE,
		"da":    monday.LocaleDaDK,
		"fi":    monday.LocaleFiFI,
		"ja":    monday.LocaleJaJP,
		"zh":    monday.LocaleZhCN,
		"zh_cn": monday.LocaleZhCN,
		"ko":    monday.LocaleKoKR,
	}
	if m, ok := localeMap[locale]; ok {
		return m
	}
	return monday.LocaleEnUS
}

// numberFilter formats a number with locale-aware grouping. Arguments:
// fraction digits (default 3), then locale tag.
func numberFilter(input Object, args ...Object) Object {
	n, ok := input.(*Number)
	if !ok {
		return input
	}
	if math.IsNaN(n.Value) || math.IsInf(n.Value, 0) {
		return &String{Value: ""}
	}

	fractionSize := 3
	if len(args) > 0 {
		if f, ok := args[0].(*Number); ok {
			fractionSize = int(f.Value)
		}
	}
	localeStr := "en-US"
	if len(args) > 1 {
		if l, ok := args[1].(*String); ok {
			localeStr = l.Value
		}
	}

	tag, err := language.Parse(localeStr)
	if err != nil {
		tag = language.AmericanEnglish
	}
	p := message.NewPrinter(tag)
	return &String{Value: p.Sprintf("%v", number.Decimal(n.Value,
		number.MaxFractionDigits(fractionSize)))}
}

// currencyFilter formats an amount with its currency symbol. Arguments:
// ISO 4217 code (default USD), then locale tag.
func currencyFilter(input Object, args ...Object) Object {
	n, ok := input.(*Number)
	if !ok {
		return input
	}

	code := "USD"
	if len(args) > 0 {
		if c, ok := args[0].(*String); ok {
			code = c.Value
		}
	}
	localeStr := "en-US"
	if len(args) > 1 {
		if l, ok := args[1].(*String); ok {
			localeStr = l.Value
		}
	}

	cur, err := currency.ParseISO(code)
	if err != nil {
		return newOperatorError("FILTER-0003", "currency: unknown code '"+code+"'")
	}
	tag, err := language.Parse(localeStr)
	if err != nil {
		tag = language.AmericanEnglish
	}
	p := message.NewPrinter(tag)
	return &String{Value: p.Sprintf("%v", currency.NarrowSymbol(cur.Amount(n.Value)))}
}

// Named formats understood by the date filter, mapped to Go layouts
var dateNamedFormats = map[string]string{
	"medium":     "Jan 2, 2006 3:04:05 PM",
	"short":      "1/2/06 3:04 PM",
	"fullDate":   "Monday, January 2, 2006",
	"longDate":   "January 2, 2006",
	"mediumDate": "Jan 2, 2006",
	"shortDate":  "1/2/06",
	"mediumTime": "3:04:05 PM",
	"shortTime":  "3:04 PM",
}

// Ordered format-token translation; longer tokens first so 'MMMM' does not
// decay to two 'MM's.
var dateTokenLayouts = []struct{ token, layout string }{
	{"yyyy", "2006"},
	{"yy", "06"},
	{"MMMM", "January"},
	{"MMM", "Jan"},
	{"MM", "01"},
	{"EEEE", "Monday"},
	{"EEE", "Mon"},
	{"dd", "02"},
	{"d", "2"},
	{"HH", "15"},
	{"mm", "04"},
	{"ss", "05"},
	{"a", "PM"},
	{"Z", "-0700"},
}

// translateDateFormat converts an expression-facing date format
// ('yyyy-MM-dd') into a Go time layout
func translateDateFormat(format string) string {
	if layout, ok := dateNamedFormats[format]; ok {
		return layout
	}
	var sb strings.Builder
	for i := 0; i < len(format); {
		matched := false
		for _, tl := range dateTokenLayouts {
			if strings.HasPrefix(format[i:], tl.token) {
				sb.WriteString(tl.layout)
				i += len(tl.token)
				matched = true
				break
			}
		}
		if !matched {
			sb.WriteByte(format[i])
			i++
		}
	}
	return sb.String()
}

// dateFilter renders a datetime. The input is epoch milliseconds or a
// parseable datetime string; arguments are the format (default mediumDate)
// and the locale for month and day names.
func dateFilter(input Object, args ...Object) Object {
	var t time.Time
	switch o := input.(type) {
	case *Number:
		t = time.UnixMilli(int64(o.Value)).UTC()
	case *String:
		parsed, err := dateparse.ParseAny(o.Value)
		if err != nil {
			return input
		}
		t = parsed
	case *Host:
		if ht, ok := o.Value.(time.Time); ok {
			t = ht
		} else {
			return input
		}
	default:
		return input
	}

	format := "mediumDate"
	if len(args) > 0 {
		if f, ok := args[0].(*String); ok {
			format = f.Value
		}
	}
	localeStr := "en-US"
	if len(args) > 1 {
		if l, ok := args[1].(*String); ok {
			localeStr = l.Value
		}
	}

	layout := translateDateFormat(format)
	return &String{Value: monday.Format(t, layout, getMondayLocale(localeStr))}
}
