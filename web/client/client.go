package client

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// ErrInvalidPassword is returned when the number service rejects the password.
var ErrInvalidPassword = errors.New("invalid number service password")

// Client is a friendly interface over the number service HTTP API.
type Client struct {
	*http.Client
	url      string
	password string
	logger   *slog.Logger
}

// New returns a new client for the number service at url.
func New(url, password string, logger *slog.Logger) *Client {
	return &Client{
		Client: &http.Client{
			Timeout: time.Minute,
			Transport: &http.Transport{
				Proxy:              http.ProxyFromEnvironment,
				DisableCompression: false,
			},
		},
		url:      strings.TrimRight(url, "/"),
		password: password,
		logger:   logger.With("component", "web-client"),
	}
}
