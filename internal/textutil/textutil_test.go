package textutil

import "testing"

func TestFoldDiacritics(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"João Conceição", "Joao Conceicao"},
		{"ÁÉÍÓÚ àèìòù âêô ãõ ç", "AEIOU aeiou aeo ao c"},
		{"plain", "plain"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := FoldDiacritics(tt.in); got != tt.want {
			t.Errorf("FoldDiacritics(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNormalizeForCompare(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"JOÃO_DA-SILVA", "joao da silva"},
		{"  Maria   José\t", "maria jose"},
		{"R$ 1.234,56", "r 1 234 56"},
		{"!!!", ""},
	}
	for _, tt := range tests {
		if got := NormalizeForCompare(tt.in); got != tt.want {
			t.Errorf("NormalizeForCompare(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestTitleCase(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"JOAO  DA SILVA", "Joao Da Silva"},
		{"maria josé", "Maria José"},
		{"   ", ""},
	}
	for _, tt := range tests {
		if got := TitleCase(tt.in); got != tt.want {
			t.Errorf("TitleCase(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSanitizeToken(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Contrato João", "contrato_joao"},
		{"__--__", "unknown"},
		{"", "unknown"},
		{"ABC-123_x", "abc-123_x"},
	}
	for _, tt := range tests {
		if got := SanitizeToken(tt.in); got != tt.want {
			t.Errorf("SanitizeToken(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSanitizeObjectName(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Contrato João.PDF", "contrato_joao.pdf"},
		{"/some/dir/Ficha (2).jpg", "ficha__2.jpg"},
		{"noext", "noext"},
		{"", "unknown"},
		{"weird.p*f", "weird"},
	}
	for _, tt := range tests {
		if got := SanitizeObjectName(tt.in); got != tt.want {
			t.Errorf("SanitizeObjectName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
