package transport

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/pluginsync/pluginsync/pkg/errors"
	"github.com/pluginsync/pluginsync/pkg/logging"
)

// maxErrorBody bounds how much of an error response ends up in the message.
const maxErrorBody = 512

// DecodeResponse decodes a 200 JSON response into target. Any other status
// becomes a *errors.NetworkError for the given service.
func DecodeResponse(resp *http.Response, service string, target any) error {
	defer closeBody(resp)

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.WrapIO("read", "response body", err)
	}

	if resp.StatusCode != http.StatusOK {
		return StatusError(resp, service, body)
	}

	if err := json.Unmarshal(body, target); err != nil {
		return errors.WrapParse("json", resp.Request.URL.String(), err)
	}

	return nil
}

// StatusError builds the NetworkError for an unexpected status code.
func StatusError(resp *http.Response, service string, body []byte) *errors.NetworkError {
	msg := strings.TrimSpace(string(body))
	if len(msg) > maxErrorBody {
		msg = msg[:maxErrorBody] + "..."
	}
	if msg == "" {
		msg = http.StatusText(resp.StatusCode)
	}
	endpoint := ""
	if resp.Request != nil && resp.Request.URL != nil {
		endpoint = resp.Request.URL.String()
	}
	return errors.NewNetworkError(service, endpoint, resp.StatusCode, msg)
}

// Drain discards and closes a response body so the connection can be reused.
func Drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, resp.Body)
	closeBody(resp)
}

func closeBody(resp *http.Response) {
	if err := resp.Body.Close(); err != nil {
		logging.Warn().Err(err).Msg("Failed to close response body")
	}
}
