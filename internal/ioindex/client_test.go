package ioindex_test

import (
	"bufio"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/oatrack/oadb/internal/ioindex"
	"github.com/oatrack/oadb/pkg/config"
	"github.com/oatrack/oadb/pkg/oastatus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testClient(url string) *ioindex.Client {
	return ioindex.NewClient(config.IndexConfig{
		Endpoint:         url,
		Name:             "papers",
		BatchSize:        256,
		BatchesPerCommit: 10,
	})
}

func TestCreateIndex(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			gotPath = r.URL.Path
			require.Equal(t, http.MethodPut, r.Method)
			fmt.Fprint(w, `{"acknowledged":true}`)
		}))
	defer srv.Close()

	client := testClient(srv.URL)
	require.NoError(t, client.CreateIndex(context.Background()))
	assert.Equal(t, "/papers", gotPath)
}

func TestCreateIndexAlreadyExists(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			fmt.Fprint(w, `{"error":{"type":"resource_already_exists_exception"}}`)
		}))
	defer srv.Close()

	client := testClient(srv.URL)
	assert.NoError(t, client.CreateIndex(context.Background()))
}

func TestCreateIndexFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
			fmt.Fprint(w, `{"error":"boom"}`)
		}))
	defer srv.Close()

	client := testClient(srv.URL)
	assert.Error(t, client.CreateIndex(context.Background()))
}

func TestBulk(t *testing.T) {
	var lines []string
	srv := httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, "/_bulk", r.URL.Path)
			scanner := bufio.NewScanner(r.Body)
			for scanner.Scan() {
				lines = append(lines, scanner.Text())
			}
			fmt.Fprint(w, `{"errors":false,"items":[
				{"index":{"_id":"1","status":201}},
				{"index":{"_id":"2","status":201}}
			]}`)
		}))
	defer srv.Close()

	docs := []*ioindex.PaperDoc{
		{ID: "1", Title: "First", OaStatus: oastatus.StatusOA},
		{ID: "2", Title: "Second", OaStatus: oastatus.StatusUNK},
	}

	client := testClient(srv.URL)
	n, err := client.Bulk(context.Background(), docs)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	// NDJSON: one action line and one source line per document.
	require.Len(t, lines, 4)
	assert.Contains(t, lines[0], `"_index":"papers"`)
	assert.Contains(t, lines[0], `"_id":"1"`)
	assert.Contains(t, lines[1], `"title":"First"`)
	assert.Contains(t, lines[2], `"_id":"2"`)
	assert.Contains(t, lines[3], `"oa_status":"UNK"`)
}

func TestBulkEmpty(t *testing.T) {
	client := testClient("http://127.0.0.1:1") // never dialed
	n, err := client.Bulk(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestBulkRejectedItemFailsBatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{"errors":true,"items":[
				{"index":{"_id":"1","status":201}},
				{"index":{"_id":"2","status":429}}
			]}`)
		}))
	defer srv.Close()

	docs := []*ioindex.PaperDoc{
		{ID: "1", Title: "First"},
		{ID: "2", Title: "Second"},
	}

	client := testClient(srv.URL)
	_, err := client.Bulk(context.Background(), docs)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "2")
}

func TestDeleteMissingDocIsNotAnError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, http.MethodDelete, r.Method)
			w.WriteHeader(http.StatusNotFound)
		}))
	defer srv.Close()

	client := testClient(srv.URL)
	assert.NoError(t, client.Delete(context.Background(), "404"))
}

func TestRefresh(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			gotPath = r.URL.Path
			fmt.Fprint(w, `{}`)
		}))
	defer srv.Close()

	client := testClient(srv.URL)
	require.NoError(t, client.Refresh(context.Background()))
	assert.Equal(t, "/papers/_refresh", gotPath)
}

func TestBasicAuthForwarded(t *testing.T) {
	var user, pass string
	var ok bool
	srv := httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			user, pass, ok = r.BasicAuth()
			fmt.Fprint(w, `{}`)
		}))
	defer srv.Close()

	client := ioindex.NewClient(config.IndexConfig{
		Endpoint: srv.URL,
		Name:     "papers",
		User:     "admin",
		Password: "secret",
	})
	require.NoError(t, client.Ping(context.Background()))
	require.True(t, ok)
	assert.Equal(t, "admin", user)
	assert.Equal(t, "secret", pass)
}
