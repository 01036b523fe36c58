package channel

import "testing"

func TestContent_MarshalUnmarshal_Text(t *testing.T) {
	c := Content{Kind: ContentText, Text: &TextContent{Body: "hello"}}
	data, err := MarshalContent(c)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	decoded, err := UnmarshalContent(data)
	if err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded.Kind != ContentText || decoded.Text == nil || decoded.Text.Body != "hello" {
		t.Fatalf("round trip mismatch: %+v", decoded)
	}
}

func TestContent_MarshalUnmarshal_File(t *testing.T) {
	c := Content{Kind: ContentFile, File: &FileContent{Name: "report.pdf", SizeBytes: 1024, SHA256Hex: "abc123"}}
	data, err := MarshalContent(c)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	decoded, err := UnmarshalContent(data)
	if err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded.File == nil || decoded.File.Name != "report.pdf" {
		t.Fatalf("round trip mismatch: %+v", decoded)
	}
}
