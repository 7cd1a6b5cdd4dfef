package mail

import (
	"strings"
	"testing"
)

const multipartMessage = "Mime-Version: 1.0\r\n" +
	"Content-Type: multipart/alternative; boundary=frontier\r\n" +
	"\r\n" +
	"--frontier\r\n" +
	"Content-Type: text/plain\r\n" +
	"\r\n" +
	"fallback text\r\n" +
	"--frontier\r\n" +
	"Content-Type: text/html\r\n" +
	"\r\n" +
	"<html><body><p>Numero do Processo: 0001234-56.2024.5.01.0001</p></body></html>\r\n" +
	"--frontier--\r\n"

func TestRenderBodyPrefersHTML(t *testing.T) {
	t.Parallel()
	body, err := renderBody([]byte(multipartMessage))
	if err != nil {
		t.Fatalf("renderBody: %v", err)
	}
	if !strings.Contains(body, "Numero do Processo: 0001234-56.2024.5.01.0001") {
		t.Fatalf("body = %q, want html text", body)
	}
	if strings.Contains(body, "fallback text") {
		t.Fatalf("body = %q, plain part should be ignored", body)
	}
}

func TestRenderBodyPlainOnly(t *testing.T) {
	t.Parallel()
	raw := "Content-Type: text/plain\r\n\r\nsomente texto\r\n"
	body, err := renderBody([]byte(raw))
	if err != nil {
		t.Fatalf("renderBody: %v", err)
	}
	if !strings.Contains(body, "somente texto") {
		t.Fatalf("body = %q", body)
	}
}

func TestRenderBodyKeepsTableRowsOnSeparateLines(t *testing.T) {
	t.Parallel()
	raw := "Content-Type: text/html\r\n\r\n" +
		"<html><body><table>" +
		"<tr><td>Autor:</td><td>FULANO DE TAL</td></tr>" +
		"<tr><td>Réu:</td><td>INSS</td></tr>" +
		"<tr><td>Número do Processo:</td><td>0001234-56.2024.5.01.0001</td></tr>" +
		"</table></body></html>\r\n"
	body, err := renderBody([]byte(raw))
	if err != nil {
		t.Fatalf("renderBody: %v", err)
	}
	lines := strings.Split(body, "\n")
	want := []string{"Autor:", "FULANO DE TAL", "Réu:", "INSS", "Número do Processo:", "0001234-56.2024.5.01.0001"}
	if len(lines) != len(want) {
		t.Fatalf("lines = %q, want %d lines", lines, len(want))
	}
	for i, w := range want {
		if lines[i] != w {
			t.Fatalf("line %d = %q, want %q", i, lines[i], w)
		}
	}
}

func TestCollectPartsSkipsAttachments(t *testing.T) {
	t.Parallel()
	raw := "Mime-Version: 1.0\r\n" +
		"Content-Type: multipart/mixed; boundary=frontier\r\n" +
		"\r\n" +
		"--frontier\r\n" +
		"Content-Type: application/pdf\r\n" +
		"\r\n" +
		"%PDF-1.4 binary payload\r\n" +
		"--frontier\r\n" +
		"Content-Type: text/plain\r\n" +
		"\r\n" +
		"corpo da notificação\r\n" +
		"--frontier--\r\n"
	body, err := renderBody([]byte(raw))
	if err != nil {
		t.Fatalf("renderBody: %v", err)
	}
	if strings.Contains(body, "%PDF") {
		t.Fatalf("body = %q, attachment leaked into text", body)
	}
	if !strings.Contains(body, "corpo da notificação") {
		t.Fatalf("body = %q, want plain part", body)
	}
}
