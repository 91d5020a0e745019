package docmerge

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// TypeTable maps field paths to type names used for implicit formatting
// when a field spec carries no explicit format. Lookup tries the exact
// path first, then the bare trailing field name.
type TypeTable map[string]string

// Lookup resolves the implicit format for a path.
func (t TypeTable) Lookup(path string) (string, bool) {
	if t == nil {
		return "", false
	}
	if format, ok := t[path]; ok {
		return format, true
	}
	if idx := strings.LastIndex(path, "."); idx >= 0 {
		if format, ok := t[path[idx+1:]]; ok {
			return format, true
		}
	}
	return "", false
}

// FormatImage marks a field as an image reference. Image markers are left
// untouched through every stage and resolved by the deferred image pass.
const FormatImage = "image"

var displayPrinter = message.NewPrinter(language.AmericanEnglish)

var (
	phone10Regex = regexp.MustCompile(`^[0-9]{10}$`)
	phone11Regex = regexp.MustCompile(`^1[0-9]{10}$`)
	currencySyms = []string{"$", "€", "£"}
)

// Long-form date layouts.
const (
	layoutDateLong     = "January 2, 2006"
	layoutDateTimeLong = "January 2, 2006 3:04 PM"
	layoutTimeLong     = "3:04 PM"
)

// FormatField renders a resolved value using the given format token. An
// empty token falls through to the type-generic rendering. Values a format
// cannot sensibly apply to pass through in their generic form.
func FormatField(value interface{}, format string) string {
	switch strings.ToLower(format) {
	case "":
		return genericFormat(value)
	case "currency":
		return formatCurrency(value)
	case "number":
		return formatNumber(value)
	case "percent":
		return formatPercent(value)
	case "date":
		return formatDateValue(value, layoutDateLong)
	case "datetime":
		return formatDateValue(value, layoutDateTimeLong)
	case "time":
		return formatDateValue(value, layoutTimeLong)
	case "phone":
		return formatPhone(value)
	case "uppercase":
		return strings.ToUpper(genericFormat(value))
	case "lowercase":
		return strings.ToLower(genericFormat(value))
	case "capitalize":
		return cases.Title(language.AmericanEnglish).String(genericFormat(value))
	default:
		if places, err := strconv.Atoi(format); err == nil && places >= 0 {
			return formatFixed(value, places)
		}
		return genericFormat(value)
	}
}

// formatCurrency renders fixed 2 decimals with thousands grouping. A
// string literal already carrying a currency symbol is normalized rather
// than re-formatted: the numeric part is regrouped behind the same symbol.
func formatCurrency(value interface{}) string {
	if s, ok := value.(string); ok {
		for _, sym := range currencySyms {
			if strings.Contains(s, sym) {
				cleaned := strings.NewReplacer(sym, "", ",", "", " ", "").Replace(s)
				num, err := strconv.ParseFloat(cleaned, 64)
				if err != nil {
					return s
				}
				return sym + groupedDecimal(num, 2)
			}
		}
	}

	num, ok := toNumber(value)
	if !ok {
		return genericFormat(value)
	}
	return "$" + groupedDecimal(num, 2)
}

// formatNumber applies thousands grouping only.
func formatNumber(value interface{}) string {
	num, ok := toNumber(value)
	if !ok {
		return genericFormat(value)
	}
	return groupedDecimal(num, -1)
}

// formatPercent treats a nonzero magnitude strictly between -1 and 1 as an
// already-decimal percentage and multiplies by 100 before appending the
// sign. This heuristic is a documented ambiguity: 0.5 renders as a
// fraction (50.0%), never as 0.5%.
func formatPercent(value interface{}) string {
	num, ok := toNumber(value)
	if !ok {
		return genericFormat(value)
	}
	if num > -1 && num < 1 && num != 0 {
		num *= 100
	}
	s := strconv.FormatFloat(num, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s + "%"
}

// formatDateValue renders a date-like value in a long-form layout,
// accepting time values, ISO strings, MM/DD/YYYY, and epoch-millisecond
// numbers. Unparseable values pass through unchanged.
func formatDateValue(value interface{}, layout string) string {
	t, err := parseDateValue(value)
	if err != nil {
		return genericFormat(value)
	}
	return t.Format(layout)
}

// Date input layouts tried in order.
var dateInputLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"01/02/2006 15:04:05",
	"01/02/2006",
}

// parseDateValue attempts to parse a date from the value shapes merge data
// carries: time values, strings, and epoch-millisecond numbers.
func parseDateValue(value interface{}) (time.Time, error) {
	switch v := value.(type) {
	case time.Time:
		return v, nil
	case *time.Time:
		if v == nil {
			return time.Time{}, fmt.Errorf("nil time pointer")
		}
		return *v, nil
	case int, int32, int64, float32, float64:
		millis, _ := toNumber(v)
		return time.UnixMilli(int64(millis)).UTC(), nil
	case string:
		if v == "" {
			return time.Time{}, fmt.Errorf("empty date string")
		}
		for _, layout := range dateInputLayouts {
			if parsed, err := time.Parse(layout, v); err == nil {
				return parsed, nil
			}
		}
		return time.Time{}, fmt.Errorf("could not parse date string: %s", v)
	default:
		return time.Time{}, fmt.Errorf("cannot parse %T as date", value)
	}
}

// formatPhone reformats exactly 10-digit, or leading-1 11-digit, numeric
// strings into the canonical national format; anything else passes through
// unchanged.
func formatPhone(value interface{}) string {
	s := genericFormat(value)
	digits := strings.TrimSpace(s)

	switch {
	case phone10Regex.MatchString(digits):
		return fmt.Sprintf("(%s) %s-%s", digits[0:3], digits[3:6], digits[6:10])
	case phone11Regex.MatchString(digits):
		return fmt.Sprintf("(%s) %s-%s", digits[1:4], digits[4:7], digits[7:11])
	default:
		return s
	}
}

// formatFixed renders a number with a fixed count of decimal places.
func formatFixed(value interface{}, places int) string {
	num, ok := toNumber(value)
	if !ok {
		return genericFormat(value)
	}
	return strconv.FormatFloat(num, 'f', places, 64)
}

// groupedDecimal renders a number with locale thousands grouping. A
// negative scale keeps the value's natural precision.
func groupedDecimal(v float64, scale int) string {
	if scale >= 0 {
		return displayPrinter.Sprint(number.Decimal(v, number.Scale(scale)))
	}
	return displayPrinter.Sprint(number.Decimal(v))
}

// genericFormat is the type-generic stringification applied when no format
// is in play: booleans render Yes/No, lists comma-join, plain mappings
// dump their entries, and dates render long form.
func genericFormat(value interface{}) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case bool:
		if v {
			return "Yes"
		}
		return "No"
	case time.Time:
		return v.Format(layoutDateLong)
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return fmt.Sprintf("%d", v)
	case []interface{}:
		parts := make([]string, len(v))
		for i, item := range v {
			parts[i] = genericFormat(item)
		}
		return strings.Join(parts, ", ")
	case []string:
		return strings.Join(v, ", ")
	case []map[string]interface{}:
		parts := make([]string, len(v))
		for i, item := range v {
			parts[i] = genericFormat(item)
		}
		return strings.Join(parts, ", ")
	case map[string]interface{}:
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, len(keys))
		for i, k := range keys {
			parts[i] = fmt.Sprintf("%s: %s", k, genericFormat(v[k]))
		}
		return strings.Join(parts, "; ")
	default:
		return fmt.Sprintf("%v", v)
	}
}

// stringForm is the coercion used by string operators in conditions: null
// and unresolved become the empty string, everything else its natural
// string form (booleans as true/false, unlike display formatting).
func stringForm(value interface{}) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case bool:
		return strconv.FormatBool(v)
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return fmt.Sprintf("%d", v)
	default:
		return fmt.Sprintf("%v", v)
	}
}
