package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	aerrors "go.hackfix.me/scriptomate/app/errors"
	stypes "go.hackfix.me/scriptomate/web/server/types"
)

// NextNumber requests the next sequence number for key. Service URLs that
// contain "api" are queried with the REST GET endpoint, and all others with
// the typed POST endpoint.
func (c *Client) NextNumber(ctx context.Context, key string) (string, error) {
	if strings.Contains(strings.ToLower(c.url), "api") {
		return c.nextNumberREST(ctx, key)
	}
	return c.nextNumberTyped(ctx, key)
}

func (c *Client) nextNumberREST(ctx context.Context, key string) (string, error) {
	u, err := url.Parse(c.url)
	if err != nil {
		return "", aerrors.NewWithCause("failed parsing number service URL", err, "url", c.url)
	}
	q := u.Query()
	q.Set("key", key)
	q.Set("password", c.password)
	u.RawQuery = q.Encode()

	// Don't leak the password in error metadata.
	errFields := []any{"url", c.url, "method", http.MethodGet, "key", key}

	respBody, err := c.do(ctx, http.MethodGet, u.String(), nil, errFields)
	if err != nil {
		return "", err
	}

	var num string
	if err = json.Unmarshal(respBody, &num); err != nil {
		return "", aerrors.NewWithCause("failed unmarshalling response body", err, errFields...)
	}
	if num == stypes.InvalidPasswordMessage {
		return "", aerrors.With(ErrInvalidPassword, errFields...)
	}

	c.logger.Debug("received sequence number", "key", key, "number", num)

	return num, nil
}

func (c *Client) nextNumberTyped(ctx context.Context, key string) (string, error) {
	reqURL := c.url + "/json/reply/GetNextNumber"
	errFields := []any{"url", reqURL, "method", http.MethodPost, "key", key}

	reqData, err := json.Marshal(stypes.GetNextNumberRequest{ForKey: key, Password: c.password})
	if err != nil {
		return "", aerrors.NewWithCause("failed marshalling request data", err, errFields...)
	}

	respBody, err := c.do(ctx, http.MethodPost, reqURL, reqData, errFields)
	if err != nil {
		return "", err
	}

	var legacy string
	if json.Unmarshal(respBody, &legacy) == nil && legacy == stypes.InvalidPasswordMessage {
		return "", aerrors.With(ErrInvalidPassword, errFields...)
	}

	var respData stypes.GetNextNumberResponse
	if err = json.Unmarshal(respBody, &respData); err != nil {
		return "", aerrors.NewWithCause("failed unmarshalling response body", err, errFields...)
	}
	if respData.NextSequenceNumber == "" {
		return "", aerrors.NewWith("response is missing the sequence number", errFields...)
	}

	c.logger.Debug("received sequence number", "key", key, "number", respData.NextSequenceNumber)

	return respData.NextSequenceNumber, nil
}

func (c *Client) do(
	ctx context.Context, method, reqURL string, body []byte, errFields []any,
) (_ []byte, rerr error) {
	reqCtx, cancelReqCtx := context.WithCancel(ctx)
	defer cancelReqCtx()

	var bodyReader io.Reader
	if body != nil {
		bodyReader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(reqCtx, method, reqURL, bodyReader)
	if err != nil {
		return nil, aerrors.NewWithCause("failed creating request", err, errFields...)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.Do(req)
	if err != nil {
		return nil, aerrors.NewWithCause("failed sending request", err, errFields...)
	}
	defer func() {
		if err = resp.Body.Close(); err != nil && rerr == nil {
			rerr = fmt.Errorf("failed closing response body: %w", err)
		}
	}()
	errFields = append(errFields, "status_code", resp.StatusCode, "status", resp.Status)

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, aerrors.NewWithCause("failed reading response body", err, errFields...)
	}

	if resp.StatusCode == http.StatusUnauthorized {
		return nil, aerrors.With(ErrInvalidPassword, errFields...)
	}
	if resp.StatusCode != http.StatusOK {
		var respErr stypes.Error
		if json.Unmarshal(respBody, &respErr) == nil && respErr.Message != "" {
			errFields = append(errFields, "cause", respErr.Message)
		}
		return nil, aerrors.NewWith("request failed", errFields...)
	}

	return respBody, nil
}
