package classify

import (
	"strings"
	"testing"
)

func TestValidCategory(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  bool
	}{
		{name: "exact member", value: "Newsletter", want: true},
		{name: "last member", value: "Other", want: true},
		{name: "wrong case", value: "newsletter", want: false},
		{name: "leading space", value: " Newsletter", want: false},
		{name: "empty", value: "", want: false},
		{name: "unknown", value: "Invoices", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ValidCategory(tt.value); got != tt.want {
				t.Errorf("ValidCategory(%q) = %v, want %v", tt.value, got, tt.want)
			}
		})
	}
}

func TestCategoryNamesMatchesCategories(t *testing.T) {
	names := CategoryNames()
	if len(names) != len(Categories) {
		t.Fatalf("CategoryNames returned %d names, want %d", len(names), len(Categories))
	}
	for i, c := range Categories {
		if names[i] != string(c) {
			t.Errorf("names[%d] = %q, want %q", i, names[i], c)
		}
	}
}

func TestEveryCategoryHasHint(t *testing.T) {
	for _, c := range Categories {
		if categoryHints[c] == "" {
			t.Errorf("category %q has no prompt hint", c)
		}
	}
}

func TestDefaultCategoryIsValid(t *testing.T) {
	if !ValidCategory(string(DefaultCategory)) {
		t.Errorf("default category %q is not a member of the category set", DefaultCategory)
	}
}

func TestExcerpt(t *testing.T) {
	long := strings.Repeat("a", maxExcerptLen+100)

	tests := []struct {
		name       string
		body       string
		withMarker bool
		want       string
	}{
		{name: "short body unchanged", body: "hello", withMarker: true, want: "hello"},
		{
			name:       "long body truncated with marker",
			body:       long,
			withMarker: true,
			want:       strings.Repeat("a", maxExcerptLen) + excerptMarker,
		},
		{
			name:       "long body truncated without marker",
			body:       long,
			withMarker: false,
			want:       strings.Repeat("a", maxExcerptLen),
		},
		{
			name:       "exact length unchanged",
			body:       strings.Repeat("a", maxExcerptLen),
			withMarker: true,
			want:       strings.Repeat("a", maxExcerptLen),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := excerpt(tt.body, tt.withMarker); got != tt.want {
				t.Errorf("excerpt() length %d, want length %d", len(got), len(tt.want))
			}
		})
	}
}

func TestBuildPromptContainsAllFields(t *testing.T) {
	prompt := buildPrompt("Invoice #42", "billing@example.com", "Please pay")

	for _, want := range []string{"Invoice #42", "billing@example.com", "Please pay"} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
	for _, c := range Categories {
		if !strings.Contains(prompt, string(c)) {
			t.Errorf("prompt missing category %q", c)
		}
	}
}
