package advisor

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finansmart/internal/core"
	"finansmart/internal/log"
)

func testLogger() *log.Logger {
	return log.New(log.Config{Handler: slog.NewTextHandler(io.Discard, nil)})
}

func sampleTxs() []core.Transaction {
	return []core.Transaction{
		{ID: "t1", Description: "Salário Mensal", Amount: core.Money{Cents: 500000}, Type: core.Income, Category: "Salário", Date: core.NewDate(2024, 1, 1)},
		{ID: "t2", Description: "Aluguel", Amount: core.Money{Cents: 150000}, Type: core.Expense, Category: "Moradia", Date: core.NewDate(2024, 1, 5)},
	}
}

func adviceResponse(text string) string {
	return `{"candidates":[{"content":{"parts":[{"text":` + jsonString(text) + `}]}}]}`
}

func jsonString(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}

func TestAdvise(t *testing.T) {
	var gotPath, gotKey string
	var gotBody generateRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.Header.Get("x-goog-api-key")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, adviceResponse("Gaste menos com moradia."))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "gemini-2.5-flash", "test-key", time.Second, testLogger())
	advice, err := c.Advise(sampleTxs())
	require.NoError(t, err)
	assert.Equal(t, "Gaste menos com moradia.", advice)

	assert.Equal(t, "/v1beta/models/gemini-2.5-flash:generateContent", gotPath)
	assert.Equal(t, "test-key", gotKey)

	require.Len(t, gotBody.Contents, 1)
	prompt := gotBody.Contents[0].Parts[0].Text
	assert.Contains(t, prompt, "- 2024-01-01: Salário Mensal (Salário) - R$ 5000.00 [Entrada]")
	assert.Contains(t, prompt, "- 2024-01-05: Aluguel (Moradia) - R$ 1500.00 [Saída]")
}

func TestAdviseFallbackOnServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "gemini-2.5-flash", "k", time.Second, testLogger())
	advice, err := c.Advise(sampleTxs())
	require.NoError(t, err)
	assert.Equal(t, Fallback, advice)
}

func TestAdviseFallbackOnUnreachableService(t *testing.T) {
	c := NewClient("http://127.0.0.1:1", "gemini-2.5-flash", "k", 200*time.Millisecond, testLogger())
	advice, err := c.Advise(sampleTxs())
	require.NoError(t, err)
	assert.Equal(t, Fallback, advice)
}

func TestAdviseFallbackOnMalformedResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "not json")
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "gemini-2.5-flash", "k", time.Second, testLogger())
	advice, err := c.Advise(sampleTxs())
	require.NoError(t, err)
	assert.Equal(t, Fallback, advice)
}

func TestAdviseEmptyCandidates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"candidates":[]}`)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "gemini-2.5-flash", "k", time.Second, testLogger())
	advice, err := c.Advise(sampleTxs())
	require.NoError(t, err)
	assert.Equal(t, emptyAdvice, advice)
}

func TestAdviseRejectsConcurrentRequests(t *testing.T) {
	release := make(chan struct{})
	entered := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		close(entered)
		<-release
		io.WriteString(w, adviceResponse("ok"))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "gemini-2.5-flash", "k", 5*time.Second, testLogger())

	done := make(chan string)
	go func() {
		advice, _ := c.Advise(sampleTxs())
		done <- advice
	}()

	<-entered
	assert.True(t, c.InFlight())

	_, err := c.Advise(sampleTxs())
	assert.ErrorIs(t, err, ErrBusy)

	close(release)
	assert.Equal(t, "ok", <-done)
	assert.False(t, c.InFlight())
}

func TestRenderSummaryEmpty(t *testing.T) {
	assert.Equal(t, "", renderSummary(nil))
}

func TestRenderSummaryFormat(t *testing.T) {
	got := renderSummary(sampleTxs())
	lines := strings.Split(got, "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "- 2024-01-01: Salário Mensal (Salário) - R$ 5000.00 [Entrada]", lines[0])
	assert.Equal(t, "- 2024-01-05: Aluguel (Moradia) - R$ 1500.00 [Saída]", lines[1])
}
