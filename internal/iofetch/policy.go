package iofetch

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/gnames/gn"
	"github.com/oatrack/oadb/pkg/config"
	"github.com/oatrack/oadb/pkg/errcode"
	"github.com/oatrack/oadb/pkg/lifecycle"
)

// policyClient resolves publisher archiving policies from the policy
// lookup service.
type policyClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewPolicyFetcher creates a policy fetcher backed by the configured
// publisher-policy service.
func NewPolicyFetcher(cfg config.FetchConfig) lifecycle.PolicyFetcher {
	return &policyClient{
		baseURL: cfg.PolicyURL,
		httpClient: &http.Client{
			Timeout: fetchTimeout,
		},
	}
}

// policyResponse is the publisher list returned by a name lookup.
type policyResponse struct {
	Publishers []struct {
		ID         string `json:"id"`
		Name       string `json:"name"`
		Preprint   string `json:"preprint"`
		Postprint  string `json:"postprint"`
		PdfVersion string `json:"pdfversion"`
		OpenAccess bool   `json:"open_access"`
	} `json:"publishers"`
}

// FetchPublisher looks up a publisher's archiving policy by exact name.
// The service may return several matching entries; the first one wins.
func (c *policyClient) FetchPublisher(
	ctx context.Context,
	name string,
) (*lifecycle.PublisherPolicy, error) {
	endpoint := fmt.Sprintf(
		"%s?name=%s", c.baseURL, url.QueryEscape(name),
	)

	body, found, err := getJSON(ctx, c.httpClient, endpoint)
	if err != nil || !found {
		return nil, err
	}

	var res policyResponse
	if err := json.Unmarshal(body, &res); err != nil {
		return nil, &gn.Error{
			Code: errcode.FetchDecodeError,
			Msg:  "Failed to decode policy response",
			Err:  err,
		}
	}
	if len(res.Publishers) == 0 {
		return nil, nil
	}

	p := res.Publishers[0]
	return &lifecycle.PublisherPolicy{
		RomeoID:    p.ID,
		Name:       p.Name,
		Preprint:   p.Preprint,
		Postprint:  p.Postprint,
		PdfVersion: p.PdfVersion,
		OpenAccess: p.OpenAccess,
	}, nil
}
