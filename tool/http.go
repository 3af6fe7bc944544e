package tool

import (
	"crypto/tls"
	"net/http"
	"time"
)

var (
	DefaultTimeout   = 30 * time.Second
	UploadSinkClient *http.Client
)

func init() {
	UploadSinkClient = NewHTTPClient()
}

// NewHTTPClient creates an HTTP client with the bounded sink timeout,
// skipping certificate verification for self-hosted backends.
func NewHTTPClient() *http.Client {
	transport := &http.Transport{
		TLSClientConfig:     &tls.Config{InsecureSkipVerify: true},
		MaxIdleConns:        50,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     300 * time.Millisecond,
		DisableKeepAlives:   false,
	}
	return &http.Client{
		Timeout:   DefaultTimeout,
		Transport: transport,
	}
}
