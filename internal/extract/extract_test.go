package extract

import (
	"context"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
)

func TestCandidatesFromFileName(t *testing.T) {
	tests := []struct {
		name      string
		file      string
		wantFirst string
		contains  []string
	}{
		{
			name:      "jargon suffix",
			file:      "JOAO_SILVA_contrato.pdf",
			wantFirst: "Joao Silva",
		},
		{
			name:      "doc then name",
			file:      "Contrato - Maria de Souza.pdf",
			wantFirst: "Maria De Souza",
		},
		{
			name:      "name then doc",
			file:      "Pedro Alves - Atestado Medico.jpg",
			wantFirst: "Pedro Alves",
		},
		{
			name:      "long name",
			file:      "ana paula ferreira lima 2021.pdf",
			wantFirst: "Ana Paula Ferreira Lima",
			contains:  []string{"Ana Lima", "Ana Paula"},
		},
		{
			name:      "digits split words",
			file:      "123456_Carla_Mendes_RG.png",
			wantFirst: "Carla Mendes",
		},
		{
			name:      "diacritics kept",
			file:      "Conceição Araújo.pdf",
			wantFirst: "Conceição Araújo",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Candidates(tt.file, "")
			if len(got) == 0 {
				t.Fatalf("no candidates for %q", tt.file)
			}
			if got[0] != tt.wantFirst {
				t.Fatalf("first candidate = %q, want %q (all: %v)", got[0], tt.wantFirst, got)
			}
			for _, want := range tt.contains {
				if !slices.Contains(got, want) {
					t.Fatalf("missing %q in %v", want, got)
				}
			}
		})
	}
}

func TestCandidatesRejectNoise(t *testing.T) {
	for _, file := range []string{"12345.pdf", "contrato_anexo_copia.pdf", "de_da.pdf", "ab.pdf", ".pdf", ""} {
		if got := Candidates(file, ""); len(got) != 0 {
			t.Errorf("Candidates(%q) = %v, want none", file, got)
		}
	}
}

func TestCandidatesDeduplicatedAndBounded(t *testing.T) {
	got := Candidates("JOAO_SILVA.pdf", "")
	if len(got) != 1 || got[0] != "Joao Silva" {
		t.Fatalf("expected one deduplicated candidate, got %v", got)
	}

	var text strings.Builder
	for _, name := range []string{"Alpha", "Bravo", "Charlie", "Delta", "Echo", "Foxtrot", "Golf", "Hotel", "India", "Juliet", "Kilo", "Lima", "Mike", "November"} {
		text.WriteString("Nome: " + name + " Souza\n")
	}
	if got := Candidates("x.pdf", text.String()); len(got) != MaxCandidates {
		t.Fatalf("len = %d, want %d", len(got), MaxCandidates)
	}
}

func TestCandidatesFromText(t *testing.T) {
	text := strings.Join([]string{
		"DECLARAÇÃO",
		"Nome: Carlos Pereira, CPF 123.456.789-00",
		"Fernanda Costa 98765",
		"Atenciosamente,",
		"",
		"Beatriz Lima",
	}, "\n")
	got := Candidates("scan0001.pdf", text)
	for _, want := range []string{"Carlos Pereira", "Fernanda Costa", "Beatriz Lima"} {
		if !slices.Contains(got, want) {
			t.Errorf("missing %q in %v", want, got)
		}
	}
	if got[0] != "Carlos Pereira" {
		t.Errorf("labeled name should come first, got %v", got)
	}
}

func TestValidCandidate(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"Maria Silva", true},
		{"Ana", true},
		{"Jo", false},
		{"Contrato Anexo", false},
		{"De Da", false},
		{"Da Lu", false},
		{"Ana De Lu", true},
		{"", false},
	}
	for _, tt := range tests {
		if got := ValidCandidate(tt.in); got != tt.want {
			t.Errorf("ValidCandidate(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestIdentifiers(t *testing.T) {
	tests := []struct {
		name string
		file string
		text string
		want []string
	}{
		{"punctuated cpf", "123.456.789-00 Joao.pdf", "", []string{"12345678900"}},
		{"bare cpf", "joao_12345678900.pdf", "", []string{"12345678900"}},
		{"badge and year skipped", "Ficha 2019 matricula 4521.pdf", "", []string{"4521"}},
		{"short runs skipped", "doc 12 345.pdf", "", nil},
		{"zeros skipped", "0000_joao.pdf", "", nil},
		{"text after filename", "8899 joao.pdf", "CPF: 987.654.321-09\nMatrícula 8899", []string{"8899", "98765432109"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Identifiers(tt.file, tt.text)
			if !slices.Equal(got, tt.want) {
				t.Fatalf("Identifiers = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIdentifiersMatch(t *testing.T) {
	if !IdentifiersMatch("123.456.789-00", "12345678900") {
		t.Fatal("expected punctuated and bare CPF to match")
	}
	if IdentifiersMatch("123.456.789-00", "12345678901") {
		t.Fatal("different digits must not match")
	}
	if IdentifiersMatch("", "") || IdentifiersMatch("abc", "---") {
		t.Fatal("empty identifiers must not match")
	}
}

func TestEmails(t *testing.T) {
	tests := []struct {
		file string
		want []string
	}{
		{"Joao.Silva@Empresa.com.br.pdf", []string{"joao.silva@empresa.com.br"}},
		{"recibo ana@x.com.pdf", []string{"ana@x.com"}},
		{"ana@empresa.com", []string{"ana@empresa.com"}},
		{"sem email.pdf", nil},
	}
	for _, tt := range tests {
		if got := Emails(tt.file); !slices.Equal(got, tt.want) {
			t.Errorf("Emails(%q) = %v, want %v", tt.file, got, tt.want)
		}
	}
}

func TestPlainTextExtractor(t *testing.T) {
	dir := t.TempDir()
	textPath := filepath.Join(dir, "nota.txt")
	if err := os.WriteFile(textPath, []byte("Nome: Carlos Pereira\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	pdfPath := filepath.Join(dir, "doc.pdf")
	if err := os.WriteFile(pdfPath, []byte("%PDF-1.4\n%\xe2\xe3\xcf\xd3\n1 0 obj\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	ex := PlainText{MaxBytes: 8}
	got, err := ex.ExtractText(context.Background(), textPath)
	if err != nil {
		t.Fatalf("ExtractText: %v", err)
	}
	if got != "Nome: Ca" {
		t.Fatalf("ExtractText = %q, want limited prefix", got)
	}

	got, err = ex.ExtractText(context.Background(), pdfPath)
	if err != nil {
		t.Fatalf("ExtractText pdf: %v", err)
	}
	if got != "" {
		t.Fatalf("binary documents should yield no text, got %q", got)
	}

	if _, err := (PlainText{}).ExtractText(context.Background(), filepath.Join(dir, "missing.txt")); err == nil {
		t.Fatal("expected error for missing file")
	}

	if got, err := (Nop{}).ExtractText(context.Background(), textPath); got != "" || err != nil {
		t.Fatalf("Nop = %q, %v", got, err)
	}
}
