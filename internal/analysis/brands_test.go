package analysis

import (
	"reflect"
	"testing"
)

func TestNormalize(t *testing.T) {
	n := NewNormalizer([]string{"monday.com CRM", "Acme Corp"})

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "alias consolidates spacing", input: "Survey Monkey", expected: "SurveyMonkey"},
		{name: "alias is case-insensitive", input: "HUBSPOT", expected: "HubSpot"},
		{name: "strips Inc suffix", input: "Qualtrics Inc.", expected: "Qualtrics"},
		{name: "strips comma LLC suffix", input: "Globex, LLC", expected: "Globex"},
		{name: "strips trailing parenthetical", input: "Typeform (for forms)", expected: "Typeform"},
		{name: "capitalizes unknown words", input: "widget works", expected: "Widget Works"},
		{name: "keeps inner capitals", input: "hubSpotter", expected: "HubSpotter"},
		{name: "hint spelling wins", input: "acme", expected: "Acme Corp"},
		{name: "longer legal name is not a hint match", input: "ACME CORPORATION", expected: "ACME CORPORATION"},
		{name: "hint matches punctuation variant", input: "Monday.com crm", expected: "monday.com CRM"},
		{name: "placeholder", input: "None mentioned", expected: ""},
		{name: "n/a", input: " N/A ", expected: ""},
		{name: "empty", input: "   ", expected: ""},
		{name: "collapses whitespace", input: "Microsoft    Teams", expected: "Microsoft Teams"},
		{name: "does not strip co inside a word", input: "Costco", expected: "Costco"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := n.Normalize(tt.input)
			if got != tt.expected {
				t.Errorf("\nexpected: %q\ngot:      %q", tt.expected, got)
			}
		})
	}
}

func TestCompetitors_SplitsAndDeduplicates(t *testing.T) {
	n := NewNormalizer(nil)
	got := n.Competitors("Survey Monkey, surveymonkey; Typeform, X, none, , Hotjar Inc")
	expected := []string{"SurveyMonkey", "Typeform", "Hotjar"}
	if !reflect.DeepEqual(got, expected) {
		t.Errorf("\nexpected: %v\ngot:      %v", expected, got)
	}
}

func TestCompetitors_DropsOverlongNames(t *testing.T) {
	n := NewNormalizer(nil)
	got := n.Competitors("a tool that the model described at length instead of naming it, Zoom")
	if !reflect.DeepEqual(got, []string{"Zoom"}) {
		t.Errorf("expected only Zoom, got %v", got)
	}
}

func TestCompetitors_Empty(t *testing.T) {
	n := NewNormalizer(nil)
	if got := n.Competitors(""); len(got) != 0 {
		t.Errorf("expected no competitors, got %v", got)
	}
}

func TestLoadAliases_Invalid(t *testing.T) {
	if _, err := loadAliases([]byte("aliases: [not, a, map")); err == nil {
		t.Error("expected error for malformed alias yaml")
	}
}

func TestDefaultAliasesLoaded(t *testing.T) {
	if defaultAliases[matchKey("monday")] != "Monday.com" {
		t.Errorf("expected monday alias, got %q", defaultAliases[matchKey("monday")])
	}
	if defaultAliases[matchKey("Microsoft Teams")] != "Microsoft Teams" {
		t.Error("expected canonical names to map to themselves")
	}
}
