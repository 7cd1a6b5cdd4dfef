package classify

import "testing"

func TestSectorClassify(t *testing.T) {
	t.Parallel()

	s := NewSector("", "", nil)

	cases := []struct {
		body string
		want string
	}{
		{"Expedição de ALVARÁ em favor do autor", "Setor Financeiro"},
		{"alvara liberado para levantamento", "Setor Financeiro"},
		{"Precatório incluído na ordem cronológica", "Setor Financeiro"},
		{"pagamento autorizado", "Setor Financeiro"},
		{"Audiência designada para instrução", "Geral"},
		{"", "Geral"},
	}
	for _, tc := range cases {
		if got := s.Classify(tc.body); got != tc.want {
			t.Fatalf("Classify(%q) = %q, want %q", tc.body, got, tc.want)
		}
	}
}

func TestSectorCustomQueues(t *testing.T) {
	t.Parallel()

	s := NewSector("Financeiro", "Triagem", []string{"rpv"})
	if got := s.Classify("RPV expedida"); got != "Financeiro" {
		t.Fatalf("custom financial queue not used: %q", got)
	}
	if got := s.Classify("despacho comum"); got != "Triagem" {
		t.Fatalf("custom default queue not used: %q", got)
	}
}
