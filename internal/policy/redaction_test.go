package policy

import (
	"strings"
	"testing"
)

func TestRedactPII(t *testing.T) {
	input := "Escríbeme a sam@example.com o al +1 (555) 123-9876."
	out, changed := RedactPII(input)
	if !changed {
		t.Fatalf("changed = false, want true")
	}
	for _, marker := range []string{"[REDACTED_EMAIL]", "[REDACTED_PHONE]"} {
		if !strings.Contains(out, marker) {
			t.Fatalf("output missing marker %q: %q", marker, out)
		}
	}
	if strings.Contains(out, "sam@example.com") || strings.Contains(out, "555") {
		t.Fatalf("output still contains PII: %q", out)
	}
}

func TestRedactPIINoChange(t *testing.T) {
	out, changed := RedactPII("hola, ¿cómo estás?")
	if changed || out != "hola, ¿cómo estás?" {
		t.Fatalf("RedactPII() = %q, changed = %v", out, changed)
	}
}

func TestPreviewTruncates(t *testing.T) {
	got := Preview(strings.Repeat("a", 100), 10)
	if len(got) <= 10 || !strings.HasSuffix(got, "…") {
		t.Fatalf("Preview() = %q", got)
	}
}
