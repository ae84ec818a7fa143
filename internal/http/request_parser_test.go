package http

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
)

func TestParseMonthParams(t *testing.T) {
	tests := []struct {
		name      string
		query     url.Values
		wantYear  int
		wantMonth int
	}{
		{
			name:      "both values provided",
			query:     url.Values{"year": {"2026"}, "month": {"12"}},
			wantYear:  2026,
			wantMonth: 12,
		},
		{
			name:      "only year",
			query:     url.Values{"year": {"2023"}},
			wantYear:  2023,
			wantMonth: 0, // will be current month
		},
		{
			name:      "only month",
			query:     url.Values{"month": {"5"}},
			wantYear:  0, // will be current year
			wantMonth: 5,
		},
		{
			name:      "invalid values ignored",
			query:     url.Values{"year": {"abc"}, "month": {"xyz"}},
			wantYear:  0,
			wantMonth: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ParseMonthParams(tt.query)

			if tt.wantYear != 0 && result.Year != tt.wantYear {
				t.Errorf("Year = %d, want %d", result.Year, tt.wantYear)
			}
			if tt.wantYear == 0 && result.Year == 0 {
				t.Error("Year should default to current year")
			}
			if tt.wantMonth != 0 && result.Month != tt.wantMonth {
				t.Errorf("Month = %d, want %d", result.Month, tt.wantMonth)
			}
			if tt.wantMonth == 0 && (result.Month < 1 || result.Month > 12) {
				t.Errorf("Month should default to current month, got %d", result.Month)
			}
		})
	}
}

func TestRequestBodyParser_Form(t *testing.T) {
	body := "id=7&name=Streaming"
	r := httptest.NewRequest(http.MethodPost, "/subscriptions/delete", strings.NewReader(body))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if p.IsJSON() {
		t.Error("form body should not be detected as JSON")
	}
	if got := p.Get("id"); got != "7" {
		t.Errorf("Get(id) = %q, want 7", got)
	}
	if got := p.GetInt64("id"); got != 7 {
		t.Errorf("GetInt64(id) = %d, want 7", got)
	}
	if got := p.Get("name"); got != "Streaming" {
		t.Errorf("Get(name) = %q", got)
	}
}

func TestRequestBodyParser_JSON(t *testing.T) {
	body := `{"id": 7, "name": "Streaming"}`
	r := httptest.NewRequest(http.MethodDelete, "/subscriptions/delete", strings.NewReader(body))
	r.Header.Set("Content-Type", "application/json")

	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if !p.IsJSON() {
		t.Error("JSON body should be detected as JSON")
	}
	if got := p.GetInt64("id"); got != 7 {
		t.Errorf("GetInt64(id) = %d, want 7", got)
	}
}

func TestRequestBodyParser_Empty(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "/subscriptions/delete", strings.NewReader(""))

	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if got := p.Get("id"); got != "" {
		t.Errorf("Get on empty body = %q, want empty", got)
	}
	if got := p.GetInt64("id"); got != 0 {
		t.Errorf("GetInt64 on empty body = %d, want 0", got)
	}
}

func TestRequestBodyParser_InvalidJSON(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "/x", strings.NewReader("{broken"))

	p := NewRequestBodyParser(r)
	if err := p.Parse(); err == nil {
		t.Error("invalid JSON should fail to parse")
	}
}

func TestRequireMethod(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/transactions", nil)

	if resp := RequirePOST(r); resp == nil {
		t.Error("GET should be rejected by RequirePOST")
	}

	r = httptest.NewRequest(http.MethodPost, "/transactions", nil)
	if resp := RequirePOST(r); resp != nil {
		t.Error("POST should pass RequirePOST")
	}

	r = httptest.NewRequest(http.MethodDelete, "/subscriptions/delete", nil)
	if resp := RequireDeleteOrPOST(r); resp != nil {
		t.Error("DELETE should pass RequireDeleteOrPOST")
	}
}

func TestSanitizeInput(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{input: "  hello  ", want: "hello"},
		{input: "with\x00null", want: "withnull"},
		{input: "tab\tkept", want: "tab\tkept"},
		{input: "", want: ""},
	}

	for _, tt := range tests {
		if got := sanitizeInput(tt.input); got != tt.want {
			t.Errorf("sanitizeInput(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}
