package usitc

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/kirillkom/tariff-assistant/internal/core/domain"
)

type field string

const (
	fieldCode        field = "code"
	fieldDescription field = "description"
	fieldGeneral     field = "general"
	fieldSpecial     field = "special"
	fieldColumn2     field = "column2"
	fieldUnit        field = "unit"
	fieldNotes       field = "notes"
)

type fieldAliases struct {
	field   field
	aliases []string
}

// recordFields lists accepted response keys per logical field, in lookup order.
var recordFields = []fieldAliases{
	{fieldCode, []string{"htsno", "hts_code", "htsCode", "code", "number", "htsNumber"}},
	{fieldDescription, []string{"description", "desc", "text", "title", "htsDescription"}},
	{fieldGeneral, []string{"general_rate_of_duty", "generalRate", "general", "rate", "generalDuty"}},
	{fieldSpecial, []string{"special_rate_of_duty", "specialRates", "special", "rates", "specialDuty"}},
	{fieldColumn2, []string{"column_2_rate_of_duty", "column2Rate", "column2", "col2", "column2Duty", "other"}},
	{fieldUnit, []string{"unit_of_quantity", "unit", "uom", "unitOfQuantity", "units"}},
	{fieldNotes, []string{"additional_info", "notes", "info", "additional", "additionalInfo"}},
}

const notAvailable = "N/A"

var errUnexpectedShape = errors.New("unexpected response shape")

// resolveField returns the raw value of the first alias present in item.
func resolveField(item map[string]any, f field) (any, bool) {
	for _, entry := range recordFields {
		if entry.field != f {
			continue
		}
		for _, alias := range entry.aliases {
			if v, ok := item[alias]; ok && v != nil {
				return v, true
			}
		}
		return nil, false
	}
	return nil, false
}

func resolveString(item map[string]any, f field) string {
	v, ok := resolveField(item, f)
	if !ok {
		return ""
	}
	return stringify(v)
}

// normalizeRecord maps one raw response item onto a CodeRecord.
// ok is false when neither a code nor a description is present.
func normalizeRecord(item map[string]any) (domain.CodeRecord, bool) {
	code := resolveString(item, fieldCode)
	description := resolveString(item, fieldDescription)
	if code == "" && description == "" {
		return domain.CodeRecord{}, false
	}

	general := resolveString(item, fieldGeneral)
	if general == "" {
		general = notAvailable
	}
	column2 := resolveString(item, fieldColumn2)
	if column2 == "" {
		column2 = notAvailable
	}

	var special map[string]string
	if raw, ok := resolveField(item, fieldSpecial); ok {
		special = ParseSpecialRates(raw)
	}

	return domain.CodeRecord{
		Code:        code,
		Description: description,
		Rates: domain.Rates{
			General: general,
			Special: special,
			Column2: column2,
		},
		Unit:           resolveString(item, fieldUnit),
		AdditionalInfo: resolveString(item, fieldNotes),
	}, true
}

// extractItems accepts a bare array, {"results": [...]} or {"data": {"items": [...]}}.
func extractItems(payload any) ([]map[string]any, error) {
	var list []any
	switch v := payload.(type) {
	case []any:
		list = v
	case map[string]any:
		if results, ok := v["results"].([]any); ok {
			list = results
			break
		}
		if data, ok := v["data"].(map[string]any); ok {
			if items, ok := data["items"].([]any); ok {
				list = items
				break
			}
		}
		return nil, errUnexpectedShape
	default:
		return nil, fmt.Errorf("%w: %T", errUnexpectedShape, payload)
	}

	items := make([]map[string]any, 0, len(list))
	for _, raw := range list {
		if item, ok := raw.(map[string]any); ok {
			items = append(items, item)
		}
	}
	return items, nil
}

func normalizeRecords(payload any) ([]domain.CodeRecord, error) {
	items, err := extractItems(payload)
	if err != nil {
		return nil, err
	}
	out := make([]domain.CodeRecord, 0, len(items))
	for _, item := range items {
		if rec, ok := normalizeRecord(item); ok {
			out = append(out, rec)
		}
	}
	return out, nil
}

func stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	case []any:
		parts := make([]string, 0, len(t))
		for _, el := range t {
			if s := stringify(el); s != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, ", ")
	default:
		return strings.TrimSpace(fmt.Sprint(t))
	}
}
