package hexline

import (
	"bytes"
	"testing"
)

func TestParseGluedAndSpaced(t *testing.T) {
	glued := Parse("0662200600B5\r\n>")
	spaced := Parse("06 62 20 06 00 B5\r\n>")

	want := []byte{0x06, 0x62, 0x20, 0x06, 0x00, 0xB5}
	if !bytes.Equal(glued.Bytes, want) {
		t.Errorf("glued: got % X, want % X", glued.Bytes, want)
	}
	if !bytes.Equal(spaced.Bytes, want) {
		t.Errorf("spaced: got % X, want % X", spaced.Bytes, want)
	}
}

func TestParseIdempotentUnderWhitespace(t *testing.T) {
	base := "7E8 06 62 20 02 0F A0\r\n>"
	variants := []string{
		"7E806622 0020FA0\r\n>",
		"7E8\t06 62\t20 02 0F A0\r\n>",
		"  7E8 06 62 20 02 0F A0  \r\n>  ",
	}
	want := Parse(base)
	for _, v := range variants {
		got := Parse(v)
		if !bytes.Equal(got.Bytes, want.Bytes) {
			t.Errorf("Parse(%q) = % X, want % X", v, got.Bytes, want.Bytes)
		}
	}
}

func TestParseOddTrailingNibbleDropped(t *testing.T) {
	got := Parse("ABC\r\n>")
	want := []byte{0xAB}
	if !bytes.Equal(got.Bytes, want) {
		t.Errorf("got % X, want % X", got.Bytes, want)
	}
}

func TestParseStatusHints(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want StatusHint
	}{
		{"can error", "CAN ERROR\r\n>", StatusCanError},
		{"no data", "NO DATA\r\n>", StatusNoData},
		{"searching", "SEARCHING...\r\n>", StatusElmError},
		{"bus init", "BUS INIT: ...\r\n>", StatusElmError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Parse(tc.in)
			if got.Status != tc.want {
				t.Errorf("Parse(%q).Status = %v, want %v", tc.in, got.Status, tc.want)
			}
			if len(got.Bytes) != 0 {
				t.Errorf("Parse(%q).Bytes = % X, want empty", tc.in, got.Bytes)
			}
		})
	}
}

func TestParseDropsPromptAndBlankLines(t *testing.T) {
	got := Parse("\r\n\r\n62 20 02 0F A0\r\n>\r\n")
	want := []byte{0x62, 0x20, 0x02, 0x0F, 0xA0}
	if !bytes.Equal(got.Bytes, want) {
		t.Errorf("got % X, want % X", got.Bytes, want)
	}
}

func TestParseMixedDataAndStatusLine(t *testing.T) {
	got := Parse("62 20 02 0F A0\r\nNO DATA\r\n>")
	want := []byte{0x62, 0x20, 0x02, 0x0F, 0xA0}
	if !bytes.Equal(got.Bytes, want) {
		t.Errorf("got % X, want % X", got.Bytes, want)
	}
	if got.Status != StatusNoData {
		t.Errorf("Status = %v, want %v", got.Status, StatusNoData)
	}
}
