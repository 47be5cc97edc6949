package armorvox

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/textproto"
	"os"
	"sort"
	"strconv"
	"strings"
)

// Boundary is the fixed multipart boundary token. The server splits the
// body on this string, so it must never occur inside the data being sent.
const Boundary = "Boundary-L7bOhk-cLYo14N7VAT_2qNS0pvioFWmlLx"

// encodeBody builds a multipart/form-data body for one API operation.
//
// Scalar fields are written first (in sorted order, so bodies are
// reproducible), then phrases, then utterances. A single phrase part is
// named "Phrase"; multiple phrases are "Phrase1".."PhraseN". Utterance
// parts follow the same rule with "Utterance". Utterance files that
// cannot be read contribute an empty part: encoding is best-effort and
// the server reports the bad sample, not the client.
func encodeBody(fields map[string]string, utterances []Utterance, phrases []string) ([]byte, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	if err := w.SetBoundary(Boundary); err != nil {
		return nil, "", fmt.Errorf("armorvox: set boundary: %w", err)
	}

	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if err := writeTextPart(w, name, fields[name]); err != nil {
			return nil, "", err
		}
	}

	for i, phrase := range phrases {
		name := "Phrase"
		if len(phrases) > 1 {
			name = "Phrase" + strconv.Itoa(i+1)
		}
		if err := writeTextPart(w, name, phrase); err != nil {
			return nil, "", err
		}
	}

	for i, utt := range utterances {
		name := "Utterance"
		if len(utterances) > 1 {
			name = "Utterance" + strconv.Itoa(i+1)
		}
		data, err := os.ReadFile(string(utt))
		if err != nil {
			data = nil // empty part rather than a failed request
		}
		if err := writeDataPart(w, name, data); err != nil {
			return nil, "", err
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("armorvox: close multipart writer: %w", err)
	}
	return buf.Bytes(), w.FormDataContentType(), nil
}

func writeTextPart(w *multipart.Writer, name, value string) error {
	h := textproto.MIMEHeader{
		"Content-Disposition":       {fmt.Sprintf(`form-data; name=%q`, name)},
		"Content-Type":              {"text/plain"},
		"Content-Transfer-Encoding": {"8bit"},
	}
	part, err := w.CreatePart(h)
	if err != nil {
		return fmt.Errorf("armorvox: create part %s: %w", name, err)
	}
	_, err = io.WriteString(part, value)
	return err
}

func writeDataPart(w *multipart.Writer, name string, data []byte) error {
	h := textproto.MIMEHeader{
		"Content-Disposition":       {fmt.Sprintf(`form-data; name=%q`, name)},
		"Content-Type":              {"application/octet-stream"},
		"Content-Transfer-Encoding": {"binary"},
	}
	part, err := w.CreatePart(h)
	if err != nil {
		return fmt.Errorf("armorvox: create part %s: %w", name, err)
	}
	_, err = part.Write(data)
	return err
}

// CleanEntities applies the three HTML-entity substitutions the server
// is known to emit, in order: "[&hellip;]" → "…", "&nbsp;" → " ",
// "&amp;" → "&". This is a textual pre-pass, not general entity
// decoding; the XML parser cannot handle &nbsp; on its own. The pass is
// idempotent.
func CleanEntities(s string) string {
	s = strings.ReplaceAll(s, "[&hellip;]", "…")
	s = strings.ReplaceAll(s, "&nbsp;", " ")
	s = strings.ReplaceAll(s, "&amp;", "&")
	return s
}

// DecodeResponse parses a raw XML response body into a Response.
//
// The wire format is a flat list of <var name="..." expr="'value'">
// elements; the surrounding document structure is irrelevant. Quote
// characters are stripped from expr values. Recognized names are
// Session, UserID, Condition, Extra and Utterance; anything else is
// ignored. A response with no Condition var decodes successfully with
// an empty Condition. Malformed XML, or a body with no XML elements at
// all (a proxy error page, say), yields a *ParseError.
func DecodeResponse(raw []byte) (*Response, error) {
	text := CleanEntities(string(raw))
	dec := xml.NewDecoder(strings.NewReader(text))

	var (
		userIDStr    string
		conditionStr string
		hasCondition bool
		extra        string
		sawElement   bool
	)
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, &ParseError{Err: err}
		}
		start, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		sawElement = true
		if start.Name.Local != "var" {
			continue
		}
		var name, expr string
		for _, attr := range start.Attr {
			switch attr.Name.Local {
			case "name":
				name = attr.Value
			case "expr":
				expr = strings.Trim(attr.Value, "'")
			}
		}
		switch name {
		case "UserID":
			userIDStr = expr
		case "Condition":
			conditionStr = expr
			hasCondition = true
		case "Extra":
			extra = expr
		case "Session", "Utterance":
			// Present on the wire but unused downstream.
		}
	}

	if !sawElement {
		// Plain text passes the tokenizer as bare character data, so
		// an upstream error page would otherwise look like a response
		// with no vars.
		return nil, &ParseError{Err: errors.New("no XML elements in body")}
	}

	resp := &Response{Extra: extra}
	if userIDStr != "" {
		if id, err := strconv.Atoi(userIDStr); err == nil {
			uid := UserID(id)
			resp.UserID = &uid
		}
	}
	if hasCondition {
		resp.RawCondition = conditionStr
		if c, ok := ParseCondition(conditionStr); ok {
			resp.Condition = c
		}
	}
	return resp, nil
}
