package language

import "testing"

func TestToISO2(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"zh", "zh"},
		{"ZH", "zh"},
		{"eng", "en"},
		{"zho", "zh"},
		{"zh-CN", "zh"},
		{"chinese", "zh"},
		{" Mandarin ", "zh"},
		{"", ""},
		{"not a language!", ""},
	}
	for _, tt := range tests {
		if got := ToISO2(tt.input); got != tt.expected {
			t.Errorf("ToISO2(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}

func TestToISO3(t *testing.T) {
	if got := ToISO3("en"); got != "eng" {
		t.Fatalf("ToISO3(en) = %q", got)
	}
	if got := ToISO3(""); got != "und" {
		t.Fatalf("ToISO3(\"\") = %q", got)
	}
}

func TestDisplayName(t *testing.T) {
	tests := map[string]string{
		"zh":      "Chinese",
		"english": "English",
		"":        "Unknown",
	}
	for input, want := range tests {
		if got := DisplayName(input); got != want {
			t.Errorf("DisplayName(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestValid(t *testing.T) {
	if !Valid("zh") || Valid("!!") {
		t.Fatal("unexpected Valid result")
	}
}
