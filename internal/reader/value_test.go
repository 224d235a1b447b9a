package reader

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/joshuapare/esekit/pkg/types"
)

func col(typ types.ColumnType, codePage uint32) types.Column {
	return types.Column{ID: 1, Name: "c", Type: typ, CodePage: codePage}
}

func TestConvertValueScalars(t *testing.T) {
	tests := []struct {
		name string
		typ  types.ColumnType
		data []byte
		want types.Value
	}{
		{"bit true", types.ColTypBit, []byte{1}, types.Value{Kind: types.ValueBool, Bool: true}},
		{"bit false", types.ColTypBit, []byte{0}, types.Value{Kind: types.ValueBool}},
		{"ubyte", types.ColTypUnsignedByte, []byte{0xFE}, types.Value{Kind: types.ValueUint, Uint: 254}},
		{"short negative", types.ColTypShort, []byte{0xFF, 0xFF}, types.Value{Kind: types.ValueInt, Int: -1}},
		{"ushort", types.ColTypUnsignedShort, []byte{0xFF, 0xFF}, types.Value{Kind: types.ValueUint, Uint: 65535}},
		{"long", types.ColTypLong, []byte{0xFE, 0xFF, 0xFF, 0xFF}, types.Value{Kind: types.ValueInt, Int: -2}},
		{"ulong", types.ColTypUnsignedLong, []byte{1, 0, 0, 0}, types.Value{Kind: types.ValueUint, Uint: 1}},
		{"longlong", types.ColTypLongLong, []byte{1, 0, 0, 0, 0, 0, 0, 0}, types.Value{Kind: types.ValueInt, Int: 1}},
		{"currency", types.ColTypCurrency, []byte{0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF}, types.Value{Kind: types.ValueInt, Int: -1}},
		{"double", types.ColTypIEEEDouble, []byte{0, 0, 0, 0, 0, 0, 0x24, 0x40}, types.Value{Kind: types.ValueFloat, Float: 10}},
		{"single", types.ColTypIEEESingle, []byte{0, 0, 0x20, 0x41}, types.Value{Kind: types.ValueFloat, Float: 10}},
	}
	for _, tt := range tests {
		got, err := convertValue(col(tt.typ, 0), tt.data)
		if err != nil {
			t.Errorf("%s: %v", tt.name, err)
			continue
		}
		if !reflect.DeepEqual(got, tt.want) {
			t.Errorf("%s: got %+v, want %+v", tt.name, got, tt.want)
		}
	}
}

func TestConvertValueEmptyIsAbsent(t *testing.T) {
	for _, typ := range []types.ColumnType{types.ColTypLong, types.ColTypText, types.ColTypBinary} {
		v, err := convertValue(col(typ, 0), nil)
		if err != nil || !v.IsAbsent() {
			t.Errorf("type %s: (%+v, %v), want absent", typ, v, err)
		}
	}
}

func TestConvertValueTruncated(t *testing.T) {
	cases := []struct {
		typ  types.ColumnType
		data []byte
	}{
		{types.ColTypShort, []byte{1}},
		{types.ColTypLong, []byte{1, 2}},
		{types.ColTypLongLong, []byte{1, 2, 3, 4}},
		{types.ColTypIEEEDouble, []byte{1, 2, 3, 4}},
		{types.ColTypGUID, []byte{1, 2, 3, 4}},
	}
	for _, tt := range cases {
		if _, err := convertValue(col(tt.typ, 0), tt.data); !errors.Is(err, types.ErrTruncatedRecord) {
			t.Errorf("type %s: err = %v, want ErrTruncatedRecord", tt.typ, err)
		}
	}
}

func TestConvertValueDateTime(t *testing.T) {
	// 44362.25 days past the OLE epoch = 2021-06-15 06:00 UTC.
	data := []byte{0, 0, 0, 0, 0x48, 0xA9, 0xE5, 0x40}
	v, err := convertValue(col(types.ColTypDateTime, 0), data)
	if err != nil {
		t.Fatalf("convertValue: %v", err)
	}
	want := time.Date(2021, 6, 15, 6, 0, 0, 0, time.UTC)
	if v.Kind != types.ValueTime || !v.Time.Equal(want) {
		t.Fatalf("got %+v, want %v", v, want)
	}
}

func TestConvertValueGUID(t *testing.T) {
	data := []byte{
		0x33, 0x22, 0x11, 0x00, // first group, little-endian
		0x55, 0x44,
		0x77, 0x66,
		0x88, 0x99, 0xAA, 0xBB, 0xCC, 0xDD, 0xEE, 0xFF,
	}
	v, err := convertValue(col(types.ColTypGUID, 0), data)
	if err != nil {
		t.Fatalf("convertValue: %v", err)
	}
	want := "{00112233-4455-6677-8899-aabbccddeeff}"
	if v.Kind != types.ValueString || v.Str != want {
		t.Fatalf("GUID = %q, want %q", v.Str, want)
	}
}

func TestDecodeTextWindows1252(t *testing.T) {
	// "café" in Windows-1252, NUL-terminated.
	v, err := convertValue(col(types.ColTypText, 1252), []byte{'c', 'a', 'f', 0xE9, 0x00})
	if err != nil {
		t.Fatalf("convertValue: %v", err)
	}
	if v.Str != "café" {
		t.Fatalf("got %q", v.Str)
	}
}

func TestDecodeTextUTF16(t *testing.T) {
	// "Hi€" in UTF-16LE with a terminator.
	data := []byte{'H', 0, 'i', 0, 0xAC, 0x20, 0, 0}
	v, err := convertValue(col(types.ColTypLongText, 1200), data)
	if err != nil {
		t.Fatalf("convertValue: %v", err)
	}
	if v.Str != "Hi€" {
		t.Fatalf("got %q", v.Str)
	}

	// Odd byte count: the dangling byte is dropped, the rest decodes.
	v, err = convertValue(col(types.ColTypText, 1200), []byte{'A', 0, 'B'})
	if err != nil || v.Str != "A" {
		t.Fatalf("odd length: (%q, %v)", v.Str, err)
	}
}

func TestDecodeUTF16LESurrogates(t *testing.T) {
	// U+1F600 as a surrogate pair.
	got := decodeUTF16LE([]byte{0x3D, 0xD8, 0x00, 0xDE})
	if got != "\U0001F600" {
		t.Fatalf("got %q", got)
	}
}

func TestValueString(t *testing.T) {
	tests := []struct {
		v    types.Value
		want string
	}{
		{types.Value{}, ""},
		{types.Value{Kind: types.ValueBool, Bool: true}, "true"},
		{types.Value{Kind: types.ValueInt, Int: -5}, "-5"},
		{types.Value{Kind: types.ValueString, Str: "x"}, "x"},
		{types.Value{Kind: types.ValueBinary, Bytes: []byte{1, 2}}, "<2 bytes>"},
		{types.Value{Kind: types.ValueMulti, Multi: []types.Value{
			{Kind: types.ValueString, Str: "a"},
			{Kind: types.ValueString, Str: "b"},
		}}, "a; b"},
	}
	for _, tt := range tests {
		if got := tt.v.String(); got != tt.want {
			t.Errorf("String(%+v) = %q, want %q", tt.v, got, tt.want)
		}
	}
}
