package askdatactl

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

func (s *settings) do(ctx context.Context, method, path string, payload any) ([]byte, error) {
	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		body = bytes.NewReader(encoded)
	}

	endpoint := strings.TrimRight(s.baseURL, "/") + path
	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errRequestFailed, err)
	}
	defer func() { _ = resp.Body.Close() }()

	responseBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %v", errRequestFailed, err)
	}
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("%w: http %d: %s", errRequestFailed, resp.StatusCode, describeFailure(responseBody))
	}
	return responseBody, nil
}

// describeFailure prefers the API's error envelope and shows the failing SQL
// on its own line when the server reported one.
func describeFailure(raw []byte) string {
	var failure struct {
		Error     string `json:"error"`
		FailedSQL string `json:"sql_que_falhou"`
	}
	if err := json.Unmarshal(raw, &failure); err != nil || failure.Error == "" {
		return strings.TrimSpace(string(raw))
	}
	if failure.FailedSQL == "" {
		return failure.Error
	}
	return failure.Error + "\nfailed sql: " + failure.FailedSQL
}
