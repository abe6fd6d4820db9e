package usitc

import (
	"reflect"
	"testing"
)

func TestParseSpecialRatesShapes(t *testing.T) {
	tests := []struct {
		name string
		raw  any
		want map[string]string
	}{
		{
			name: "delimited string",
			raw:  "CA:Free;MX:0%",
			want: map[string]string{"CA": "Free", "MX": "0%"},
		},
		{
			name: "comma and equals",
			raw:  "KR=Free, JP=1.2%",
			want: map[string]string{"KR": "Free", "JP": "1.2%"},
		},
		{
			name: "single item without separator",
			raw:  "AU: Free",
			want: map[string]string{"AU": "Free"},
		},
		{
			name: "mapping",
			raw:  map[string]any{"CA": "Free", "KR": 0.5},
			want: map[string]string{"CA": "Free", "KR": "0.5"},
		},
		{
			name: "list of objects",
			raw: []any{
				map[string]any{"country": "MX", "rate": "Free"},
				map[string]any{"agreement": "USMCA", "value": "Free"},
				map[string]any{"name": "JP"},
				"noise",
			},
			want: map[string]string{"MX": "Free", "USMCA": "Free"},
		},
		{
			name: "fragments without key value separator are dropped",
			raw:  "Free (A+,AU,BH)",
			want: map[string]string{},
		},
		{
			name: "unsupported type",
			raw:  42.0,
			want: map[string]string{},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := ParseSpecialRates(tc.raw)
			if !reflect.DeepEqual(got, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, got)
			}
		})
	}
}
