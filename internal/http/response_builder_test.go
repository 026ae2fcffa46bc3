package http

import (
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestJSONResponseBuilder_Basic(t *testing.T) {
	w := httptest.NewRecorder()

	NewJSONResponse().
		Status(http.StatusCreated).
		Header("X-Custom", "value").
		Body(map[string]int{"n": 1}).
		Write(w)

	if w.Code != http.StatusCreated {
		t.Errorf("Status code = %d, want %d", w.Code, http.StatusCreated)
	}
	if got := w.Header().Get("Content-Type"); got != "application/json; charset=utf-8" {
		t.Errorf("Content-Type = %q", got)
	}
	if got := w.Header().Get("X-Custom"); got != "value" {
		t.Errorf("X-Custom = %q", got)
	}
	var body map[string]int
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil || body["n"] != 1 {
		t.Errorf("body = %q, err = %v", w.Body.String(), err)
	}
}

func TestJSONResponseBuilder_NoContent(t *testing.T) {
	w := httptest.NewRecorder()
	NoContent().Write(w)

	if w.Code != http.StatusNoContent {
		t.Errorf("Status code = %d, want 204", w.Code)
	}
	if w.Body.Len() != 0 {
		t.Errorf("body should be empty, got %q", w.Body.String())
	}
	if w.Header().Get("Content-Type") != "" {
		t.Error("empty response should not declare a content type")
	}
}

func TestJSONResponseBuilder_EncodeFailure(t *testing.T) {
	w := httptest.NewRecorder()
	OK(math.NaN()).Write(w)

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("Status code = %d, want 500", w.Code)
	}
	assertErrorBody(t, w, "failed to encode response")
}

func TestErrorResponses(t *testing.T) {
	tests := []struct {
		name       string
		builder    *JSONResponseBuilder
		wantStatus int
		wantMsg    string
	}{
		{"BadRequest", BadRequestError("bad"), http.StatusBadRequest, "bad"},
		{"Unauthorized", UnauthorizedError("who"), http.StatusUnauthorized, "who"},
		{"NotFound", NotFoundError("missing"), http.StatusNotFound, "missing"},
		{"MethodNotAllowed", MethodNotAllowedError(), http.StatusMethodNotAllowed, "method not allowed"},
		{"Unprocessable", UnprocessableEntityError("invalid amount"), http.StatusUnprocessableEntity, "invalid amount"},
		{"TooManyRequests", TooManyRequestsError(), http.StatusTooManyRequests, "rate limit exceeded, try again later"},
		{"Internal", InternalServerError("boom"), http.StatusInternalServerError, "boom"},
		{"Unavailable", ServiceUnavailableError("down"), http.StatusServiceUnavailable, "down"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			tt.builder.Write(w)

			if w.Code != tt.wantStatus {
				t.Errorf("Status code = %d, want %d", w.Code, tt.wantStatus)
			}
			assertErrorBody(t, w, tt.wantMsg)
		})
	}
}

func TestUnauthorizedError_Challenge(t *testing.T) {
	w := httptest.NewRecorder()
	UnauthorizedError("missing bearer token").Write(w)

	if got := w.Header().Get("WWW-Authenticate"); got == "" {
		t.Error("WWW-Authenticate header not set")
	}
}

func assertErrorBody(t *testing.T, w *httptest.ResponseRecorder, want string) {
	t.Helper()
	var body errorBody
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode error body %q: %v", w.Body.String(), err)
	}
	if body.Error != want {
		t.Errorf("error = %q, want %q", body.Error, want)
	}
}
