package report

import (
	"bytes"
	"encoding/json"
	"log"

	"github.com/lifelinezhang/frequency-smallgame-sub000/internal/domain"
)

// RawSectionName labels the fallback section used when report content cannot
// be parsed as structured sections.
const RawSectionName = "report"

// Parse turns server report content into ordered sections. The backend sends
// either a JSON object mapping section names to bodies, or that same object
// JSON-encoded inside a string. Anything unparsable falls back to a single
// raw section instead of failing; the report view must always render.
func Parse(content []byte) domain.QuizReport {
	trimmed := bytes.TrimSpace(content)
	if len(trimmed) == 0 {
		return domain.QuizReport{}
	}

	// A JSON-encoded string wraps the real payload one level deeper.
	if trimmed[0] == '"' {
		var inner string
		if err := json.Unmarshal(trimmed, &inner); err == nil {
			return Parse([]byte(inner))
		}
	}

	if trimmed[0] == '{' {
		if sections, ok := decodeSections(trimmed); ok {
			return domain.QuizReport{Sections: sections}
		}
	}

	log.Printf("report: unstructured content, falling back to raw section")
	return domain.QuizReport{Sections: []domain.ReportSection{
		{Name: RawSectionName, Body: string(trimmed)},
	}}
}

// decodeSections reads the section object with a token scanner so the
// server's section order survives; a map would shuffle the tabs.
func decodeSections(raw []byte) ([]domain.ReportSection, bool) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	tok, err := dec.Token()
	if err != nil {
		return nil, false
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, false
	}

	var sections []domain.ReportSection
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, false
		}
		name, ok := keyTok.(string)
		if !ok {
			return nil, false
		}

		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return nil, false
		}
		sections = append(sections, domain.ReportSection{
			Name: name,
			Body: sectionBody(raw),
		})
	}
	return sections, true
}

// sectionBody renders a section value as display text. Non-string bodies keep
// their raw JSON form rather than being dropped.
func sectionBody(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(bytes.TrimSpace(raw))
}
