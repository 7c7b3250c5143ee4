package report

import (
	"testing"
)

func TestParseStructuredSectionsKeepOrder(t *testing.T) {
	rep := Parse([]byte(`{"overview":"you are calm","love":"steady","career":"climbing"}`))
	if len(rep.Sections) != 3 {
		t.Fatalf("expected 3 sections, got %d", len(rep.Sections))
	}
	names := []string{"overview", "love", "career"}
	for i, s := range rep.Sections {
		if s.Name != names[i] {
			t.Fatalf("section %d: expected %q, got %q", i, names[i], s.Name)
		}
	}
	if rep.Sections[0].Body != "you are calm" {
		t.Fatalf("unexpected body: %q", rep.Sections[0].Body)
	}
}

func TestParseJSONEncodedString(t *testing.T) {
	// The backend sometimes double-encodes the section object.
	rep := Parse([]byte(`"{\"overview\":\"hi\"}"`))
	if len(rep.Sections) != 1 || rep.Sections[0].Name != "overview" || rep.Sections[0].Body != "hi" {
		t.Fatalf("unexpected report: %+v", rep.Sections)
	}
}

func TestParseMalformedFallsBackToRawSection(t *testing.T) {
	rep := Parse([]byte(`this is not json at all`))
	if len(rep.Sections) != 1 || rep.Sections[0].Name != RawSectionName {
		t.Fatalf("expected single raw section, got %+v", rep.Sections)
	}
	if rep.Sections[0].Body != "this is not json at all" {
		t.Fatalf("raw content lost: %q", rep.Sections[0].Body)
	}
}

func TestParseNonStringBodiesKept(t *testing.T) {
	rep := Parse([]byte(`{"scores":[1,2,3]}`))
	if len(rep.Sections) != 1 || rep.Sections[0].Body != "[1,2,3]" {
		t.Fatalf("non-string body dropped: %+v", rep.Sections)
	}
}

func TestParseEmpty(t *testing.T) {
	if rep := Parse(nil); len(rep.Sections) != 0 {
		t.Fatalf("expected no sections, got %+v", rep.Sections)
	}
}

func TestClampTab(t *testing.T) {
	rep := Parse([]byte(`{"a":"1","b":"2"}`))
	cases := map[int]int{-1: 0, 0: 0, 1: 1, 2: 1, 99: 1}
	for in, want := range cases {
		if got := rep.ClampTab(in); got != want {
			t.Fatalf("ClampTab(%d): expected %d, got %d", in, want, got)
		}
	}

	empty := Parse(nil)
	if got := empty.ClampTab(3); got != 0 {
		t.Fatalf("empty report must clamp to 0, got %d", got)
	}
}
