package app

import (
	"strings"
	"testing"
)

func TestExtractPlainText(t *testing.T) {
	res, err := FormatExtractor{}.Extract("notice.txt", []byte("  Grade B \n required\t\n"))
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if res.Text != "Grade B required" {
		t.Fatalf("expected normalized text, got %q", res.Text)
	}
	if res.Metadata["format"] != "text" {
		t.Fatalf("expected text format metadata, got %v", res.Metadata)
	}
}

func TestExtractEmptyDocumentFails(t *testing.T) {
	ex := FormatExtractor{}
	if _, err := ex.Extract("empty.txt", []byte("   \n\t")); err == nil {
		t.Fatalf("expected error for empty document")
	}
}

func TestExtractHTML(t *testing.T) {
	page := `<html><head><title>Tender Notice 42</title><style>p{color:red}</style></head>
<body><h1>Requirements</h1><p>Bidders need a valid <b>tax clearance</b> certificate.</p>
<script>alert("ignored")</script></body></html>`
	res, err := FormatExtractor{}.Extract("notice.html", []byte(page))
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if !strings.Contains(res.Text, "tax clearance") {
		t.Fatalf("expected body text, got %q", res.Text)
	}
	if strings.Contains(res.Text, "alert(") || strings.Contains(res.Text, "color:red") {
		t.Fatalf("script/style content leaked into text: %q", res.Text)
	}
	if res.Metadata["title"] != "Tender Notice 42" {
		t.Fatalf("expected title metadata, got %v", res.Metadata)
	}
}

func TestExtractBrokenPDFFails(t *testing.T) {
	ex := FormatExtractor{}
	if _, err := ex.Extract("broken.pdf", []byte("not a pdf")); err == nil {
		t.Fatalf("expected error for invalid pdf bytes")
	}
}

func TestStubExtractorDefaults(t *testing.T) {
	res, err := StubExtractor{}.Extract("spec.pdf", nil)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if res.Text == "" || res.Metadata["format"] != "stub" {
		t.Fatalf("unexpected stub output: %+v", res)
	}
}
