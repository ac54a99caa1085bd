package fieldtypes

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKind_Validate(t *testing.T) {
	tests := []struct {
		kind  Kind
		value string
		want  bool
	}{
		{KindString, "anything at all", true},
		{KindStringFTS, "", true},
		{KindBinary, "AAEC", true},
		{KindGeoPoint, "not checked", true},
		{KindLong, "42", true},
		{KindLong, "-9223372036854775808", true},
		{KindLong, "9223372036854775808", false},
		{KindLong, "abc", false},
		{KindLong, "4.2", false},
		{KindInt, "2147483647", true},
		{KindInt, "2147483648", false},
		{KindShort, "-32768", true},
		{KindShort, "40000", false},
		{KindByte, "127", true},
		{KindByte, "128", false},
		{KindDouble, "3.14", true},
		{KindDouble, "1e10", true},
		{KindDouble, "NaN", false},
		{KindDouble, "abc", false},
		{KindFloat, "1.5", true},
		{KindFloat, "1e39", false},
		{KindDate, "2024-01-02T03:04:05Z", true},
		{KindDate, "2024-01-02T03:04:05.123+02:00", true},
		{KindDate, "2024-01-02 03:04:05.000", true},
		{KindDate, "2024-01-02 03:04:05", true},
		{KindDate, "2024-01-02", true},
		{KindDate, "1704164645000", true},
		{KindDate, "yesterday", false},
		{KindDate, "now", true},
		{KindDate, "now-1d", true},
		{KindDate, "now/d", true},
		{KindDate, "now-1h/h+30m", true},
		{KindDate, "2024-01-02||+1M/d", true},
		{KindDate, "now-1x", false},
		{KindDate, "now-d", false},
		{KindDate, "nowish", false},
		{KindDate, "later||+1d", false},
		{KindBoolean, "true", true},
		{KindBoolean, "FALSE", true},
		{KindBoolean, "yes", false},
		{KindIP, "10.0.0.1", true},
		{KindIP, "::1", true},
		{KindIP, "192.168.0.0/16", true},
		{KindIP, "300.1.1.1", false},
		{KindIP, "host.example", false},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind)+"/"+tt.value, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.kind.Validate(tt.value))
		})
	}
}

func TestKind_EveryKindHasValidator(t *testing.T) {
	for _, k := range Kinds {
		assert.NotPanics(t, func() { k.Validate("1") }, "kind %s", k)
	}
	assert.Panics(t, func() { Kind("mystery").Validate("1") })
}

func TestParseKind(t *testing.T) {
	k, err := ParseKind(" Long ")
	require.NoError(t, err)
	assert.Equal(t, KindLong, k)

	_, err = ParseKind("decimal")
	assert.Error(t, err)
}

func TestFromPhysical(t *testing.T) {
	tests := map[string]Kind{
		"keyword":      KindString,
		"text":         KindStringFTS,
		"long":         KindLong,
		"integer":      KindInt,
		"short":        KindShort,
		"byte":         KindByte,
		"double":       KindDouble,
		"scaled_float": KindDouble,
		"half_float":   KindFloat,
		"date_nanos":   KindDate,
		"boolean":      KindBoolean,
		"binary":       KindBinary,
		"geo_point":    KindGeoPoint,
		"ip":           KindIP,
		"geo-point":    KindGeoPoint,
		"nested":       KindString,
	}
	for physical, want := range tests {
		assert.Equal(t, want, FromPhysical(physical), physical)
	}
}
