package vendors

import (
	"net/http"

	retryablehttp "github.com/hashicorp/go-retryablehttp"

	"github.com/Musty2002/sm-data-app-sub000/pkg/config"
)

// newHTTPClient builds the shared retrying HTTP client for vendor calls.
// Retries cover transport-level failures only; a request that reached the
// provider but timed out waiting for the body is surfaced as ambiguous by
// the adapters, never retried blindly.
func newHTTPClient(cfg config.VendorsConfig) *http.Client {
	rc := retryablehttp.NewClient()
	rc.RetryMax = cfg.MaxRetries
	rc.HTTPClient.Timeout = cfg.CallTimeout
	rc.Logger = nil
	return rc.StandardClient()
}
