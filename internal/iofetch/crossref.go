// Package iofetch provides thin HTTP clients for the external metadata
// services the refetch routines consult. Each client implements one of
// the fetcher interfaces from pkg/lifecycle; unknown entities map to a
// nil result, not an error, so sweeps can skip and move on.
package iofetch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/gnames/gn"
	"github.com/oatrack/oadb/pkg/config"
	"github.com/oatrack/oadb/pkg/errcode"
	"github.com/oatrack/oadb/pkg/lifecycle"
)

const fetchTimeout = 30 * time.Second

// crossrefClient resolves work metadata from the Crossref REST API.
type crossrefClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewCrossref creates a metadata fetcher backed by the Crossref works
// endpoint.
func NewCrossref(cfg config.FetchConfig) lifecycle.MetadataFetcher {
	return &crossrefClient{
		baseURL: cfg.CrossrefURL,
		httpClient: &http.Client{
			Timeout: fetchTimeout,
		},
	}
}

// crossrefWork is the slice of the Crossref response the refetch
// routines use.
type crossrefWork struct {
	Message struct {
		ContainerTitle []string `json:"container-title"`
	} `json:"message"`
}

func (c *crossrefClient) FetchByDOI(
	ctx context.Context,
	doi string,
) (*lifecycle.WorkMetadata, error) {
	endpoint := fmt.Sprintf(
		"%s/works/%s", c.baseURL, url.PathEscape(doi),
	)

	body, found, err := getJSON(ctx, c.httpClient, endpoint)
	if err != nil || !found {
		return nil, err
	}

	var work crossrefWork
	if err := json.Unmarshal(body, &work); err != nil {
		return nil, &gn.Error{
			Code: errcode.FetchDecodeError,
			Msg:  "Failed to decode Crossref response",
			Err:  err,
		}
	}

	meta := &lifecycle.WorkMetadata{}
	if len(work.Message.ContainerTitle) > 0 {
		meta.ContainerTitle = work.Message.ContainerTitle[0]
	}
	return meta, nil
}

// getJSON performs a GET request and returns the response body. A 404
// reports not-found without an error; any other non-200 status is an
// error.
func getJSON(
	ctx context.Context,
	client *http.Client,
	endpoint string,
) ([]byte, bool, error) {
	req, err := http.NewRequestWithContext(
		ctx, http.MethodGet, endpoint, nil,
	)
	if err != nil {
		return nil, false, &gn.Error{
			Code: errcode.FetchRequestError,
			Msg:  "Failed to create metadata request",
			Err:  err,
		}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return nil, false, &gn.Error{
			Code: errcode.FetchRequestError,
			Msg:  "Metadata request failed",
			Err:  err,
		}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, false, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, false, &gn.Error{
			Code: errcode.FetchRequestError,
			Msg:  "Metadata request failed",
			Err: fmt.Errorf(
				"unexpected status %d from %s",
				resp.StatusCode, endpoint,
			),
		}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, false, &gn.Error{
			Code: errcode.FetchRequestError,
			Msg:  "Failed to read metadata response",
			Err:  err,
		}
	}
	return body, true, nil
}
