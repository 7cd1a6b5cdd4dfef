package textutil

import (
	"testing"
	"time"
)

func TestNormalize(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"":                        "",
		"Audiência de Instrução":  "audiencia de instrucao",
		"PERÍCIA Médica":          "pericia medica",
		"Alvará  já   expedido":   "alvara  ja   expedido",
		"ação rescisória — TRT-1": "acao rescisoria  trt-1",
	}
	for in, want := range cases {
		if got := Normalize(in); got != want {
			t.Fatalf("Normalize(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestCollapseSpaces(t *testing.T) {
	t.Parallel()

	got := CollapseSpaces("Polo Ativo:\r\n  MARIA\t DA SILVA \n\n")
	if got != "Polo Ativo: MARIA DA SILVA" {
		t.Fatalf("unexpected collapse: %q", got)
	}
	if CollapseSpaces("") != "" {
		t.Fatalf("empty input must stay empty")
	}
}

func TestFixEncoding(t *testing.T) {
	t.Parallel()

	got := FixEncoding("Agendamento - Percia Mdica")
	if got != "Agendamento - Perícia Médica" {
		t.Fatalf("unexpected fix: %q", got)
	}
}

func TestParseDateBR(t *testing.T) {
	t.Parallel()

	want := time.Date(2024, time.January, 10, 0, 0, 0, 0, time.UTC)
	for _, in := range []string{"10/01/2024", "10/01/24", "2024-01-10"} {
		got := ParseDateBR(in)
		if got == nil || !got.Equal(want) {
			t.Fatalf("ParseDateBR(%q) = %v, want %v", in, got, want)
		}
	}
	if ParseDateBR("not a date") != nil {
		t.Fatalf("garbage must parse to nil")
	}
	if ParseDateBR("") != nil {
		t.Fatalf("empty must parse to nil")
	}
}
