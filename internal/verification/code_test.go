package verification

import (
	"bytes"
	"testing"
)

func TestGenerateCodeFormat(t *testing.T) {
	for i := 0; i < 200; i++ {
		code, err := GenerateCode()
		if err != nil {
			t.Fatalf("generate code failed: %v", err)
		}
		if !ValidCodeFormat(code) {
			t.Fatalf("invalid code format: %q", code)
		}
	}
}

func TestGenerateCodeZeroPadded(t *testing.T) {
	// 全零熵源得到的随机数为 0
	code, err := generateCodeFrom(bytes.NewReader(make([]byte, 64)))
	if err != nil {
		t.Fatalf("generate code failed: %v", err)
	}
	if code != "000000" {
		t.Fatalf("want 000000 got %s", code)
	}
}

func TestGenerateCodeReaderFailure(t *testing.T) {
	if _, err := generateCodeFrom(bytes.NewReader(nil)); err == nil {
		t.Fatalf("expected error for empty entropy source")
	}
}

func TestValidCodeFormat(t *testing.T) {
	cases := map[string]bool{
		"000000":  true,
		"123456":  true,
		"12345":   false,
		"1234567": false,
		"12a456":  false,
		"":        false,
	}
	for code, want := range cases {
		if got := ValidCodeFormat(code); got != want {
			t.Fatalf("ValidCodeFormat(%q) want %v got %v", code, want, got)
		}
	}
}
