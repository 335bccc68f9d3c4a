package advisor

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"finansmart/internal/core"
	"finansmart/internal/log"
)

// ErrBusy rejects a second advice request while one is in flight.
var ErrBusy = errors.New("advice request already in flight")

// Client calls a Gemini-style generateContent endpoint. One request
// per invocation, no retries, no streaming; a request cannot be
// cancelled once issued. Every failure degrades to the Fallback string
// instead of surfacing an error.
type Client struct {
	endpoint   string
	model      string
	apiKey     string
	httpClient *http.Client
	logger     *log.Logger
	inFlight   atomic.Bool
}

type generateRequest struct {
	Contents []content `json:"contents"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generateResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
}

func NewClient(endpoint, model, apiKey string, timeout time.Duration, logger *log.Logger) *Client {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Client{
		endpoint: endpoint,
		model:    model,
		apiKey:   apiKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger.WithComponent(log.ComponentAdvisor),
	}
}

// InFlight reports whether a request is currently being served.
func (c *Client) InFlight() bool {
	return c.inFlight.Load()
}

// Advise renders the transactions to a textual summary, asks the
// remote service for advice and returns its text. Any failure yields
// the Fallback string with a nil error; the only error is ErrBusy.
func (c *Client) Advise(txs []core.Transaction) (string, error) {
	if !c.inFlight.CompareAndSwap(false, true) {
		return "", ErrBusy
	}
	defer c.inFlight.Store(false)

	prompt := fmt.Sprintf(promptTemplate, renderSummary(txs))
	text, err := c.generate(prompt)
	if err != nil {
		c.logger.Error("Advisory request failed", log.FieldError, err)
		return Fallback, nil
	}
	if strings.TrimSpace(text) == "" {
		return emptyAdvice, nil
	}
	return text, nil
}

func (c *Client) generate(prompt string) (string, error) {
	body, err := json.Marshal(generateRequest{
		Contents: []content{{Parts: []part{{Text: prompt}}}},
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent", c.endpoint, c.model)
	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("call advisory service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("advisory service status %d", resp.StatusCode)
	}

	var genResp generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&genResp); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if len(genResp.Candidates) == 0 {
		return "", nil
	}

	var sb strings.Builder
	for _, p := range genResp.Candidates[0].Content.Parts {
		sb.WriteString(p.Text)
	}
	return sb.String(), nil
}

// renderSummary lists each transaction on one line with its date,
// description, category, amount and an entrada/saída tag.
func renderSummary(txs []core.Transaction) string {
	var sb strings.Builder
	for _, t := range txs {
		tag := "Saída"
		if t.Type == core.Income {
			tag = "Entrada"
		}
		fmt.Fprintf(&sb, "- %s: %s (%s) - R$ %.2f [%s]\n",
			t.Date.String(), t.Description, t.Category, t.Amount.Float(), tag)
	}
	return strings.TrimRight(sb.String(), "\n")
}
