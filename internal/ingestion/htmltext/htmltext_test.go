package htmltext

import (
	"strings"
	"testing"
)

func TestExtract(t *testing.T) {
	doc := `<!doctype html>
<html><head><title> Cats  &amp; Dogs </title><style>p{color:red}</style></head>
<body>
  <h1>The cat</h1>
  <script>var dog = 1;</script>
  <p>sat on the
     mat</p>
</body></html>`
	text, title, err := Extract(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if title != "Cats & Dogs" {
		t.Errorf("title = %q", title)
	}
	if text != "The cat sat on the mat" {
		t.Errorf("text = %q", text)
	}
}

func TestExtractFragment(t *testing.T) {
	text, title, err := Extract(strings.NewReader("plain <b>bold</b> words"))
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if text != "plain bold words" || title != "" {
		t.Errorf("got text=%q title=%q", text, title)
	}
}
