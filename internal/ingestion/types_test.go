package ingestion

import (
	"testing"
	"time"
)

func TestParseDate(t *testing.T) {
	tests := []struct {
		in      string
		want    time.Time
		wantErr bool
	}{
		{"", time.Time{}, false},
		{"2024-03-01", time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), false},
		{"2024-03-01T10:00:00+02:00", time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC), false},
		{"01/03/2024", time.Time{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseDate(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if !got.Equal(tt.want) {
				t.Errorf("ParseDate(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestToDocumentHTML(t *testing.T) {
	req := DocumentRequest{
		ID:     "d1",
		Text:   "<html><head><title>Pets</title></head><body><p>cat <i>dog</i></p></body></html>",
		Format: "html",
		Date:   "2020-01-02",
	}
	doc, err := req.ToDocument()
	if err != nil {
		t.Fatalf("ToDocument: %v", err)
	}
	if doc.Title != "Pets" || doc.Text != "cat dog" {
		t.Errorf("unexpected document: %+v", doc)
	}
	if doc.DateText() != "2020-01-02" {
		t.Errorf("DateText = %q", doc.DateText())
	}
}

func TestToDocumentPlainKeepsText(t *testing.T) {
	req := DocumentRequest{ID: "d1", Title: "T", Text: "<b>not parsed</b>"}
	doc, err := req.ToDocument()
	if err != nil {
		t.Fatalf("ToDocument: %v", err)
	}
	if doc.Text != req.Text {
		t.Errorf("Text = %q, want raw input", doc.Text)
	}
}
