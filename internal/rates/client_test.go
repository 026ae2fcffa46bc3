package rates

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

const keyRateResponse = `<?xml version="1.0" encoding="utf-8"?>
<soap:Envelope xmlns:soap="http://www.w3.org/2003/05/soap-envelope">
  <soap:Body>
    <KeyRateResponse xmlns="http://web.cbr.ru/">
      <KeyRateResult>
        <diffgr:diffgram xmlns:diffgr="urn:schemas-microsoft-com:xml-diffgram-v1">
          <KeyRate xmlns="">
            <KR diffgr:id="KR1"><DT>2026-10-17T00:00:00+03:00</DT><Rate>16.50</Rate></KR>
            <KR diffgr:id="KR2"><DT>2026-09-20T00:00:00+03:00</DT><Rate>17.00</Rate></KR>
          </KeyRate>
        </diffgr:diffgram>
      </KeyRateResult>
    </KeyRateResponse>
  </soap:Body>
</soap:Envelope>`

func TestParseKeyRate(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		wantRate float64
		wantDate string
		wantErr  error
	}{
		{name: "latest row wins", body: keyRateResponse, wantRate: 16.5, wantDate: "2026-10-17"},
		{
			name:     "order independent",
			body:     strings.Replace(strings.Replace(keyRateResponse, "2026-10-17", "2026-08-01", 1), "2026-09-20", "2026-10-01", 1),
			wantRate: 17,
			wantDate: "2026-10-01",
		},
		{name: "no rows", body: `<Envelope><diffgram><KeyRate/></diffgram></Envelope>`, wantErr: ErrNoRate},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseKeyRate([]byte(tt.body))
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("parseKeyRate() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("parseKeyRate() error = %v", err)
			}
			if got.Rate != tt.wantRate || got.Date.String() != tt.wantDate {
				t.Errorf("parseKeyRate() = %+v, want %v on %s", got, tt.wantRate, tt.wantDate)
			}
		})
	}

	if _, err := parseKeyRate([]byte("<unclosed>")); err == nil {
		t.Error("parseKeyRate() expected error for malformed XML")
	}
}

func TestClient_KeyRateCaches(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if got := r.Header.Get("SOAPAction"); got != "http://web.cbr.ru/KeyRate" {
			t.Errorf("SOAPAction = %q", got)
		}
		body, _ := io.ReadAll(r.Body)
		if !strings.Contains(string(body), "<ToDate>2026-10-18</ToDate>") {
			t.Errorf("request body missing ToDate: %s", body)
		}
		w.Write([]byte(keyRateResponse))
	}))
	defer srv.Close()

	now := time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	c := NewClient(srv.URL, time.Hour, WithClock(clock))

	for i := 0; i < 3; i++ {
		kr, err := c.KeyRate(context.Background())
		if err != nil {
			t.Fatalf("KeyRate() error = %v", err)
		}
		if kr.Rate != 16.5 || !kr.FetchedAt.Equal(now) {
			t.Errorf("KeyRate() = %+v", kr)
		}
	}
	if calls.Load() != 1 {
		t.Errorf("upstream calls = %d, want 1", calls.Load())
	}

	now = now.Add(2 * time.Hour)
	if _, err := c.KeyRate(context.Background()); err != nil {
		t.Fatalf("KeyRate() after expiry error = %v", err)
	}
	if calls.Load() != 2 {
		t.Errorf("upstream calls after expiry = %d, want 2", calls.Load())
	}
}

func TestClient_KeyRateUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "maintenance", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Hour)
	_, err := c.KeyRate(context.Background())
	if err == nil || !strings.Contains(err.Error(), "unexpected status code 503") {
		t.Errorf("KeyRate() error = %v, want status error", err)
	}
}
