package usitc

import "strings"

var (
	specialItemSeparators = []string{";", ",", "|"}
	specialPairSeparators = []string{":", "-", "="}

	specialCountryKeys = []string{"country", "agreement", "code", "name"}
	specialRateKeys    = []string{"rate", "value", "duty"}
)

// ParseSpecialRates normalizes the special rate column into an agreement/country -> rate mapping.
// It accepts a mapping, a delimited string such as "CA:Free;MX:0%", or a list of
// {country, rate} objects. Unrecognized fragments are dropped.
func ParseSpecialRates(raw any) map[string]string {
	out := map[string]string{}
	switch v := raw.(type) {
	case map[string]any:
		for key, val := range v {
			key = strings.TrimSpace(key)
			if key == "" {
				continue
			}
			out[key] = stringify(val)
		}
	case map[string]string:
		for key, val := range v {
			if key = strings.TrimSpace(key); key != "" {
				out[key] = strings.TrimSpace(val)
			}
		}
	case string:
		parseSpecialString(v, out)
	case []any:
		for _, el := range v {
			obj, ok := el.(map[string]any)
			if !ok {
				continue
			}
			country := firstString(obj, specialCountryKeys)
			rate := firstString(obj, specialRateKeys)
			if country != "" && rate != "" {
				out[country] = rate
			}
		}
	}
	return out
}

func parseSpecialString(s string, out map[string]string) {
	s = strings.TrimSpace(s)
	if s == "" {
		return
	}

	items := []string{s}
	for _, sep := range specialItemSeparators {
		if strings.Contains(s, sep) {
			items = strings.Split(s, sep)
			break
		}
	}

	for _, item := range items {
		for _, sep := range specialPairSeparators {
			key, val, found := strings.Cut(item, sep)
			if !found {
				continue
			}
			key = strings.TrimSpace(key)
			if key != "" {
				out[key] = strings.TrimSpace(val)
			}
			break
		}
	}
}

func firstString(obj map[string]any, keys []string) string {
	for _, key := range keys {
		if v, ok := obj[key]; ok {
			if s := stringify(v); s != "" {
				return s
			}
		}
	}
	return ""
}
