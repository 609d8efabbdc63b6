// Package ioindex implements the Indexer interface against an
// OpenSearch-compatible full-text engine. The client uses raw HTTP for
// full control over the bulk wire format and the refresh cycle.
package ioindex

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gnames/gn"
	"github.com/oatrack/oadb/pkg/config"
	"github.com/oatrack/oadb/pkg/errcode"
)

// Client communicates with the search engine cluster.
type Client struct {
	cfg        config.IndexConfig
	httpClient *http.Client
}

// NewClient creates a new index client.
func NewClient(cfg config.IndexConfig) *Client {
	return &Client{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// indexMapping defines the index mapping for paper documents.
const indexMapping = `{
  "settings": {
    "number_of_shards": 2,
    "number_of_replicas": 0,
    "analysis": {
      "analyzer": {
        "paper_analyzer": {
          "type": "custom",
          "tokenizer": "standard",
          "filter": ["lowercase", "stop", "snowball"]
        }
      }
    }
  },
  "mappings": {
    "properties": {
      "id":          { "type": "keyword" },
      "title":       { "type": "text", "analyzer": "paper_analyzer", "fields": { "keyword": { "type": "keyword", "ignore_above": 512 } } },
      "abstract":    { "type": "text", "analyzer": "paper_analyzer" },
      "authors":     { "type": "text", "fields": { "keyword": { "type": "keyword" } } },
      "year":        { "type": "integer" },
      "oa_status":   { "type": "keyword" },
      "fingerprint": { "type": "keyword" },
      "pdf_url":     { "type": "keyword", "index": false }
    }
  }
}`

// CreateIndex creates the paper index with its mapping. An index that
// already exists is not an error.
func (c *Client) CreateIndex(ctx context.Context) error {
	url := fmt.Sprintf("%s/%s", c.cfg.Endpoint, c.cfg.Name)
	resp, err := c.doRequest(ctx, http.MethodPut, url, []byte(indexMapping))
	if err != nil {
		return &gn.Error{
			Code: errcode.IndexCreateError,
			Msg:  "Failed to create index",
			Err:  err,
		}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK ||
		resp.StatusCode == http.StatusCreated:
		return nil
	case resp.StatusCode == http.StatusBadRequest:
		body, _ := io.ReadAll(resp.Body)
		if strings.Contains(string(body), "resource_already_exists_exception") {
			return nil
		}
		return createError(resp.StatusCode, body)
	default:
		body, _ := io.ReadAll(resp.Body)
		return createError(resp.StatusCode, body)
	}
}

// Index writes a single document, visible after the next refresh.
// Used by the availability sweep for papers whose status changed.
func (c *Client) Index(ctx context.Context, doc *PaperDoc) error {
	body, err := json.Marshal(doc)
	if err != nil {
		return &gn.Error{
			Code: errcode.IndexWriteError,
			Msg:  "Failed to marshal document",
			Err:  err,
		}
	}

	url := fmt.Sprintf("%s/%s/_doc/%s", c.cfg.Endpoint, c.cfg.Name, doc.ID)
	resp, err := c.doRequest(ctx, http.MethodPut, url, body)
	if err != nil {
		return writeError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK &&
		resp.StatusCode != http.StatusCreated {
		respBody, _ := io.ReadAll(resp.Body)
		return writeError(fmt.Errorf(
			"index doc failed (%d): %s",
			resp.StatusCode, truncate(respBody, 300),
		))
	}

	return nil
}

// Delete removes a single document. A missing document is not an
// error; the dedup sweep uses this to drop merged losers.
func (c *Client) Delete(ctx context.Context, id string) error {
	url := fmt.Sprintf("%s/%s/_doc/%s", c.cfg.Endpoint, c.cfg.Name, id)
	resp, err := c.doRequest(ctx, http.MethodDelete, url, nil)
	if err != nil {
		return writeError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK &&
		resp.StatusCode != http.StatusNotFound {
		respBody, _ := io.ReadAll(resp.Body)
		return writeError(fmt.Errorf(
			"delete doc failed (%d): %s",
			resp.StatusCode, truncate(respBody, 300),
		))
	}

	return nil
}

// Bulk submits documents through the _bulk endpoint. Returns the
// number of accepted documents; any rejected item fails the batch,
// because a partially-written batch cannot be resumed from a key.
func (c *Client) Bulk(ctx context.Context, docs []*PaperDoc) (int, error) {
	if len(docs) == 0 {
		return 0, nil
	}

	var buf bytes.Buffer
	for _, doc := range docs {
		action := map[string]any{
			"index": map[string]string{
				"_index": c.cfg.Name,
				"_id":    doc.ID,
			},
		}
		actionJSON, err := json.Marshal(action)
		if err != nil {
			return 0, writeError(err)
		}
		buf.Write(actionJSON)
		buf.WriteByte('\n')

		docJSON, err := json.Marshal(doc)
		if err != nil {
			return 0, writeError(err)
		}
		buf.Write(docJSON)
		buf.WriteByte('\n')
	}

	url := fmt.Sprintf("%s/_bulk", c.cfg.Endpoint)
	resp, err := c.doRequest(ctx, http.MethodPost, url, buf.Bytes())
	if err != nil {
		return 0, writeError(err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, writeError(err)
	}

	if resp.StatusCode != http.StatusOK {
		return 0, writeError(fmt.Errorf(
			"bulk write failed (%d): %s",
			resp.StatusCode, truncate(respBody, 500),
		))
	}

	var bulkResp struct {
		Errors bool `json:"errors"`
		Items  []struct {
			Index struct {
				ID     string `json:"_id"`
				Status int    `json:"status"`
			} `json:"index"`
		} `json:"items"`
	}
	if err := json.Unmarshal(respBody, &bulkResp); err != nil {
		return 0, writeError(err)
	}

	if bulkResp.Errors {
		for _, item := range bulkResp.Items {
			if item.Index.Status != http.StatusOK &&
				item.Index.Status != http.StatusCreated {
				return 0, writeError(fmt.Errorf(
					"bulk item '%s' rejected with status %d",
					item.Index.ID, item.Index.Status,
				))
			}
		}
		return 0, writeError(fmt.Errorf("bulk response flagged errors"))
	}

	return len(docs), nil
}

// Refresh makes written documents visible to queries. Called every
// batches-per-commit bulk requests and once at the end of a run.
func (c *Client) Refresh(ctx context.Context) error {
	url := fmt.Sprintf("%s/%s/_refresh", c.cfg.Endpoint, c.cfg.Name)
	resp, err := c.doRequest(ctx, http.MethodPost, url, nil)
	if err != nil {
		return &gn.Error{
			Code: errcode.IndexRefreshError,
			Msg:  "Failed to refresh index",
			Err:  err,
		}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return &gn.Error{
			Code: errcode.IndexRefreshError,
			Msg:  "Failed to refresh index",
			Err: fmt.Errorf(
				"refresh failed (%d): %s",
				resp.StatusCode, truncate(respBody, 300),
			),
		}
	}

	return nil
}

// Ping verifies the engine is reachable.
func (c *Client) Ping(ctx context.Context) error {
	resp, err := c.doRequest(ctx, http.MethodGet, c.cfg.Endpoint, nil)
	if err != nil {
		return &gn.Error{
			Code: errcode.IndexConnectionError,
			Msg:  "Search engine unreachable",
			Err:  err,
		}
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return &gn.Error{
			Code: errcode.IndexConnectionError,
			Msg:  "Search engine unreachable",
			Err:  fmt.Errorf("ping failed: HTTP %d", resp.StatusCode),
		}
	}
	return nil
}

func (c *Client) doRequest(
	ctx context.Context,
	method, url string,
	body []byte,
) (*http.Response, error) {
	var bodyReader io.Reader
	if body != nil {
		bodyReader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
	if err != nil {
		return nil, err
	}

	req.Header.Set("Content-Type", "application/json")
	if c.cfg.User != "" && c.cfg.Password != "" {
		req.SetBasicAuth(c.cfg.User, c.cfg.Password)
	}

	return c.httpClient.Do(req)
}

func createError(status int, body []byte) error {
	return &gn.Error{
		Code: errcode.IndexCreateError,
		Msg:  "Failed to create index",
		Err: fmt.Errorf(
			"create index failed (%d): %s", status, truncate(body, 500),
		),
	}
}

func writeError(err error) error {
	return &gn.Error{
		Code: errcode.IndexWriteError,
		Msg:  "Failed to write to index",
		Err:  err,
	}
}

func truncate(b []byte, n int) string {
	if len(b) > n {
		b = b[:n]
	}
	return string(b)
}
