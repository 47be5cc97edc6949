package cli

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

type sample struct {
	Name  string `json:"name" yaml:"name"`
	Count int    `json:"count" yaml:"count"`
}

func TestOutputYAML(t *testing.T) {
	var buf bytes.Buffer
	err := Output(sample{Name: "demo", Count: 3}, OutputOptions{
		Format: FormatYAML,
		Writer: &buf,
	})
	if err != nil {
		t.Fatalf("Output: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "name: demo") || !strings.Contains(out, "count: 3") {
		t.Errorf("yaml output = %q", out)
	}
}

func TestOutputJSON(t *testing.T) {
	var buf bytes.Buffer
	err := Output(sample{Name: "demo", Count: 3}, OutputOptions{
		Format: FormatJSON,
		Writer: &buf,
	})
	if err != nil {
		t.Fatalf("Output: %v", err)
	}
	var got sample
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if got.Name != "demo" || got.Count != 3 {
		t.Errorf("round trip = %+v", got)
	}
}

func TestOutputDefaultsToYAML(t *testing.T) {
	var buf bytes.Buffer
	if err := Output(sample{Name: "x"}, OutputOptions{Writer: &buf}); err != nil {
		t.Fatalf("Output: %v", err)
	}
	if !strings.Contains(buf.String(), "name: x") {
		t.Errorf("default output = %q", buf.String())
	}
}

func TestOutputRaw(t *testing.T) {
	var buf bytes.Buffer
	if err := Output("plain text", OutputOptions{Format: FormatRaw, Writer: &buf}); err != nil {
		t.Fatalf("Output: %v", err)
	}
	if buf.String() != "plain text" {
		t.Errorf("raw output = %q", buf.String())
	}
}

func TestOutputUnsupportedFormat(t *testing.T) {
	if err := Output(sample{}, OutputOptions{Format: "xml"}); err == nil {
		t.Error("unsupported format should fail")
	}
}
