package advisor_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/loomhq/loom"
	"github.com/loomhq/loom/advisor"
)

// fakeModel answers each advisor stage based on markers in the prompt.
type fakeModel struct {
	reportJSON string
	failAt     string // stage marker at which to fail
	calls      int
}

var errEndpoint = errors.New("endpoint unavailable")

func (m *fakeModel) Complete(ctx context.Context, system, user string) (string, error) {
	m.calls++
	switch {
	case strings.Contains(user, "business idea for the sector"):
		if m.failAt == "idea" {
			return "", errEndpoint
		}
		return "AgroSense: precision soil sensors for small farms.", nil
	case strings.Contains(user, "3 strengths and 3 weaknesses"):
		if m.failAt == "analysis" {
			return "", errEndpoint
		}
		return "Strengths: niche, cheap, scalable. Weaknesses: hardware, support, capital.", nil
	case strings.Contains(user, "formal structured report"):
		if m.failAt == "report" {
			return "", errEndpoint
		}
		return m.reportJSON, nil
	default:
		return "", errors.New("unexpected prompt: " + user)
	}
}

func TestRunProducesValidatedReport(t *testing.T) {
	model := &fakeModel{
		reportJSON: `{"strengths": ["niche", "cheap"], "weaknesses": ["hardware"]}`,
	}

	adv, err := advisor.New(model)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	report, audit, err := adv.Run(context.Background(), "agro")
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}

	if len(report.Strengths) != 2 || len(report.Weaknesses) != 1 {
		t.Errorf("report = %+v", report)
	}

	// Exactly the two free-text stages, in invocation order.
	entries := audit.Entries()
	if len(entries) != 2 {
		t.Fatalf("audit length = %d, want 2", len(entries))
	}
	if entries[0].Stage != "idea" || entries[1].Stage != "analysis" {
		t.Errorf("audit stages = %q, %q", entries[0].Stage, entries[1].Stage)
	}
	if !strings.Contains(entries[0].Text(), "AgroSense") {
		t.Errorf("audit entry 0 = %q", entries[0].Text())
	}
}

func TestRunListsAreNeverNil(t *testing.T) {
	// Model omits both lists entirely; declared defaults fill them in.
	model := &fakeModel{reportJSON: `{}`}

	adv, err := advisor.New(model)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	report, _, err := adv.Run(context.Background(), "agro")
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if report.Strengths == nil || report.Weaknesses == nil {
		t.Errorf("report lists are nil: %+v", report)
	}
	if len(report.Strengths) != 0 || len(report.Weaknesses) != 0 {
		t.Errorf("report = %+v, want empty lists", report)
	}
}

func TestRunStageTwoFailure(t *testing.T) {
	model := &fakeModel{failAt: "analysis"}

	adv, err := advisor.New(model)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	report, audit, err := adv.Run(context.Background(), "agro")
	if report != nil {
		t.Error("Run() returned a partial report alongside the error")
	}
	if !errors.Is(err, errEndpoint) {
		t.Errorf("Run() error = %v, want wrapped %v", err, errEndpoint)
	}
	if model.calls != 2 {
		t.Errorf("model calls = %d, want 2 (no report stage after failure)", model.calls)
	}

	// The idea stage completed, so its entry survives the abort.
	entries := audit.Entries()
	if len(entries) != 1 {
		t.Fatalf("audit length = %d, want 1", len(entries))
	}
	if entries[0].Stage != "idea" {
		t.Errorf("audit stage = %q, want %q", entries[0].Stage, "idea")
	}
}

func TestRunRejectsMalformedReport(t *testing.T) {
	tests := []struct {
		name       string
		reportJSON string
	}{
		{
			name:       "strengths is not a sequence",
			reportJSON: `{"strengths": "one big string", "weaknesses": []}`,
		},
		{
			name:       "strengths items are not text",
			reportJSON: `{"strengths": [1, 2], "weaknesses": []}`,
		},
		{
			name:       "no JSON at all",
			reportJSON: "Sorry, I can't help with that.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			adv, err := advisor.New(&fakeModel{reportJSON: tt.reportJSON})
			if err != nil {
				t.Fatalf("New() error: %v", err)
			}

			_, _, err = adv.Run(context.Background(), "agro")
			var violation *loom.SchemaViolationError
			if !errors.As(err, &violation) {
				t.Errorf("Run() error = %v, want *SchemaViolationError", err)
			}
		})
	}
}

func TestReportNormalize(t *testing.T) {
	var r advisor.AnalysisReport
	r.Normalize()

	if r.Strengths == nil || r.Weaknesses == nil {
		t.Errorf("Normalize() left nil lists: %+v", r)
	}

	// Populated lists are untouched.
	r2 := advisor.AnalysisReport{Strengths: []string{"keep"}}
	r2.Normalize()
	if len(r2.Strengths) != 1 || r2.Strengths[0] != "keep" {
		t.Errorf("Normalize() altered populated list: %+v", r2)
	}
}
