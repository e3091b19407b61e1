package formatting_test

import (
	"testing"

	"github.com/oficiohq/oficio/pkg/formatting"
)

func TestFold(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain ascii", "Alcaldia", "alcaldia"},
		{"acute accents", "alcaldía", "alcaldia"},
		{"mixed case accents", "PETICIÓN", "peticion"},
		{"n tilde", "señor", "senor"},
		{"umlaut", "Müller", "muller"},
		{"already folded", "radicado", "radicado"},
		{"empty", "", ""},
		{"email address", "solicitudes@alcaldia.gov.co", "solicitudes@alcaldia.gov.co"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := formatting.Fold(tt.input); got != tt.want {
				t.Errorf("Fold(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestFoldContains(t *testing.T) {
	tests := []struct {
		name     string
		haystack string
		needle   string
		want     bool
	}{
		{"accented needle, plain haystack", "solicitudes@alcaldia.gov.co", "alcaldía", true},
		{"plain needle, accented haystack", "Alcaldía de Bogotá", "alcaldia", true},
		{"case insensitive", "Derecho de Petición", "PETICION", true},
		{"no match", "contraloría", "personería", false},
		{"empty needle matches", "anything", "", true},
		{"empty haystack", "", "x", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := formatting.FoldContains(tt.haystack, tt.needle); got != tt.want {
				t.Errorf("FoldContains(%q, %q) = %v, want %v", tt.haystack, tt.needle, got, tt.want)
			}
		})
	}
}
