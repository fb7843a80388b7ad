package main

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/feiskyer/jobplace"
	"github.com/feiskyer/jobplace/posting"
)

func TestPrintRecord(t *testing.T) {
	p := posting.Posting{Name: "nurse", Text: "Clinical Research Nurse"}

	var buf bytes.Buffer
	rec := newRecord(p, "gpt-3.5-turbo-1106", &jobplace.Location{PlaceID: "ChIJ-rigs", Turns: 2}, nil)
	if err := printRecord(&buf, rec); err != nil {
		t.Fatalf("printRecord: %v", err)
	}
	if got := buf.String(); got != "{\"place_id\": \"ChIJ-rigs\"}\n" {
		t.Errorf("unexpected output %q", got)
	}

	buf.Reset()
	failed := newRecord(p, "gpt-3.5-turbo-1106", &jobplace.Location{Answer: "no idea"}, errors.New("extract place id: malformed"))
	if err := printRecord(&buf, failed); err != nil {
		t.Fatalf("printRecord: %v", err)
	}
	if buf.Len() != 0 {
		t.Errorf("expected no stdout line for a failed run, got %q", buf.String())
	}
	if failed.Answer != "no idea" || failed.Error == "" || failed.PostingSHA == "" {
		t.Errorf("unexpected record %+v", failed)
	}

	jsonOut = true
	defer func() { jsonOut = false }()
	buf.Reset()
	if err := printRecord(&buf, rec); err != nil {
		t.Fatalf("printRecord: %v", err)
	}
	if !strings.Contains(buf.String(), `"posting_name":"nurse"`) || !strings.Contains(buf.String(), `"turns":2`) {
		t.Errorf("unexpected json output %q", buf.String())
	}
}

func TestResolvePosting(t *testing.T) {
	defer func() { locateText, locateExample = "", "" }()

	locateExample = "carpenter"
	p, err := resolvePosting(context.Background(), nil)
	if err != nil {
		t.Fatalf("resolvePosting: %v", err)
	}
	if p.Name != "carpenter" || !strings.HasPrefix(p.Text, "Skilled Carpenter") {
		t.Errorf("unexpected posting %+v", p)
	}

	locateExample = "astronaut"
	if _, err := resolvePosting(context.Background(), nil); err == nil {
		t.Error("expected unknown example error")
	}

	locateExample, locateText = "", "Barista in Aarhus"
	p, err = resolvePosting(context.Background(), nil)
	if err != nil || p.Text != "Barista in Aarhus" {
		t.Errorf("unexpected posting %+v, %v", p, err)
	}

	if _, err := resolvePosting(context.Background(), []string{"job.txt"}); err == nil {
		t.Error("expected error for two sources")
	}

	locateText = ""
	if _, err := resolvePosting(context.Background(), nil); err == nil {
		t.Error("expected error without a source")
	}
}
