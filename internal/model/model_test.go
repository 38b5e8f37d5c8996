package model

import "testing"

func TestSanitizeTrackName(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "parentheses replaced",
			input: "Lead Vocal (Take 2)",
			want:  "Lead Vocal _Take 2_",
		},
		{
			name:  "plain name unchanged",
			input: "Drum Kit",
			want:  "Drum Kit",
		},
		{
			name:  "hyphen kept",
			input: "Intro - Count",
			want:  "Intro - Count",
		},
		{
			name:  "unicode and punctuation replaced",
			input: "Chœur: Aahs!",
			want:  "Ch_ur_ Aahs_",
		},
		{
			name:  "whitespace collapsed",
			input: "Bass   \t Guitar",
			want:  "Bass Guitar",
		},
		{
			name:  "leading and trailing space trimmed",
			input: "  Piano  ",
			want:  "Piano",
		},
		{
			name:  "empty stays empty",
			input: "",
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SanitizeTrackName(tt.input); got != tt.want {
				t.Errorf("SanitizeTrackName(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestTargetFileName(t *testing.T) {
	tests := []struct {
		name  string
		index int
		title string
		want  string
	}{
		{
			name:  "third track with parentheses",
			index: 2,
			title: "Lead Vocal (Take 2)",
			want:  "03 - Lead Vocal _Take 2_.mp3",
		},
		{
			name:  "first track",
			index: 0,
			title: "Click",
			want:  "01 - Click.mp3",
		},
		{
			name:  "two digit position",
			index: 11,
			title: "Backing Vocals",
			want:  "12 - Backing Vocals.mp3",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TargetFileName(tt.index, tt.title); got != tt.want {
				t.Errorf("TargetFileName(%d, %q) = %q, want %q", tt.index, tt.title, got, tt.want)
			}
		})
	}
}

func TestTargetFileNameDeterministic(t *testing.T) {
	a := TargetFileName(4, "Electric Guitar (L)")
	b := TargetFileName(4, "Electric Guitar (L)")
	if a != b {
		t.Errorf("TargetFileName not deterministic: %q vs %q", a, b)
	}
}

func TestTrackStatusString(t *testing.T) {
	if got := StatusCompleted.String(); got != "completed" {
		t.Errorf("StatusCompleted.String() = %q", got)
	}
	if got := StatusFailed.String(); got != "failed" {
		t.Errorf("StatusFailed.String() = %q", got)
	}
}
