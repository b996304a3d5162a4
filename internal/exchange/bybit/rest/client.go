package rest

import (
	"net/http"
	"time"

	"momentum-engine/internal/logger"
)

// New builds a REST client for one account's linear-futures credentials.
func New(baseURL, apiKey, secret string, log *logger.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		secret:  secret,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		log: log,
	}
}
