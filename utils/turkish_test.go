package utils

import "testing"

func TestFoldSearchTerm(t *testing.T) {
	tests := map[string]string{
		"  Periodontoloji ": "periodontoloji",
		"DİŞ":               "diş",
		"IRRIGASYON":        "ırrıgasyon", // dotless I folds to ı under Turkish rules
		"Ağız":              "ağız",
	}
	for in, want := range tests {
		if got := FoldSearchTerm(in); got != want {
			t.Fatalf("FoldSearchTerm(%q) = %q, want %q", in, got, want)
		}
	}
}
