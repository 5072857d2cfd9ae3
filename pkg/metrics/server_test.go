package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestRouter(t *testing.T) {
	stats := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		io.WriteString(w, `{"total_runs":0}`)
	})
	panics := http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	})
	srv := httptest.NewServer(NewRouter(map[string]http.Handler{"/stats": stats, "/panic": panics}))
	defer srv.Close()

	tests := []struct {
		path     string
		status   int
		contains string
	}{
		{"/", http.StatusOK, `href="/stats"`},
		{"/stats", http.StatusOK, "total_runs"},
		{"/metrics", http.StatusOK, "go_goroutines"},
		{"/missing", http.StatusNotFound, ""},
		{"/panic", http.StatusInternalServerError, ""},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			resp, err := http.Get(srv.URL + tt.path)
			if err != nil {
				t.Fatal(err)
			}
			defer resp.Body.Close()
			body, _ := io.ReadAll(resp.Body)
			if resp.StatusCode != tt.status {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.status)
			}
			if tt.contains != "" && !strings.Contains(string(body), tt.contains) {
				t.Errorf("body missing %q", tt.contains)
			}
		})
	}
}
