package simulator

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Wikid82/chimera/backend/internal/cerberus"
)

// DefaultTimeout bounds each HTTP send.
const DefaultTimeout = 5 * time.Second

// Processor is the part of the engine the in-process sender needs.
type Processor interface {
	Process(ctx context.Context, source, payload string) cerberus.Outcome
}

// EngineSender feeds events straight into an engine.
type EngineSender struct {
	Engine Processor
}

func (s EngineSender) Send(ctx context.Context, source, payload string) (cerberus.Outcome, error) {
	if err := ctx.Err(); err != nil {
		return cerberus.Outcome{}, err
	}
	return s.Engine.Process(ctx, source, payload), nil
}

// HTTPSender posts events to a running instance.
type HTTPSender struct {
	baseURL string
	client  *http.Client
}

// NewHTTPSender targets baseURL, e.g. http://localhost:8000.
func NewHTTPSender(baseURL string) *HTTPSender {
	return &HTTPSender{
		baseURL: strings.TrimRight(baseURL, "/"),
		client: &http.Client{
			Timeout: DefaultTimeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
}

type eventRequest struct {
	IP      string `json:"ip"`
	Payload string `json:"payload"`
}

func (s *HTTPSender) Send(ctx context.Context, source, payload string) (cerberus.Outcome, error) {
	var out cerberus.Outcome

	body, err := json.Marshal(eventRequest{IP: source, Payload: payload})
	if err != nil {
		return out, fmt.Errorf("encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/api/v1/request", bytes.NewReader(body))
	if err != nil {
		return out, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return out, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return out, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return out, fmt.Errorf("decode response: %w", err)
	}
	return out, nil
}
