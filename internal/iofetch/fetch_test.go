package iofetch_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/oatrack/oadb/internal/iofetch"
	"github.com/oatrack/oadb/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCrossrefFetchByDOI(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			gotPath = r.URL.EscapedPath()
			fmt.Fprint(w, `{
				"message": {
					"container-title": ["Journal of Things", "J. Things"]
				}
			}`)
		}))
	defer srv.Close()

	f := iofetch.NewCrossref(config.FetchConfig{CrossrefURL: srv.URL})
	meta, err := f.FetchByDOI(context.Background(), "10.1000/xyz123")
	require.NoError(t, err)
	require.NotNil(t, meta)
	assert.Equal(t, "Journal of Things", meta.ContainerTitle)
	assert.Equal(t, "/works/10.1000%2Fxyz123", gotPath)
}

func TestCrossrefUnknownDOI(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		}))
	defer srv.Close()

	f := iofetch.NewCrossref(config.FetchConfig{CrossrefURL: srv.URL})
	meta, err := f.FetchByDOI(context.Background(), "10.1000/missing")
	require.NoError(t, err)
	assert.Nil(t, meta)
}

func TestCrossrefServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}))
	defer srv.Close()

	f := iofetch.NewCrossref(config.FetchConfig{CrossrefURL: srv.URL})
	_, err := f.FetchByDOI(context.Background(), "10.1000/xyz123")
	assert.Error(t, err)
}

func TestPolicyFetchPublisher(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			gotQuery = r.URL.Query().Get("name")
			fmt.Fprint(w, `{
				"publishers": [{
					"id": "1042",
					"name": "ACME Press",
					"preprint": "can",
					"postprint": "restricted",
					"pdfversion": "cannot",
					"open_access": false
				}]
			}`)
		}))
	defer srv.Close()

	f := iofetch.NewPolicyFetcher(config.FetchConfig{PolicyURL: srv.URL})
	policy, err := f.FetchPublisher(context.Background(), "ACME Press")
	require.NoError(t, err)
	require.NotNil(t, policy)
	assert.Equal(t, "ACME Press", gotQuery)
	assert.Equal(t, "1042", policy.RomeoID)
	assert.Equal(t, "can", policy.Preprint)
	assert.Equal(t, "restricted", policy.Postprint)
	assert.Equal(t, "cannot", policy.PdfVersion)
	assert.False(t, policy.OpenAccess)
}

func TestPolicyUnknownPublisher(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{"publishers": []}`)
		}))
	defer srv.Close()

	f := iofetch.NewPolicyFetcher(config.FetchConfig{PolicyURL: srv.URL})
	policy, err := f.FetchPublisher(context.Background(), "Nobody Knows")
	require.NoError(t, err)
	assert.Nil(t, policy)
}

func TestPolicyMalformedResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{not json`)
		}))
	defer srv.Close()

	f := iofetch.NewPolicyFetcher(config.FetchConfig{PolicyURL: srv.URL})
	_, err := f.FetchPublisher(context.Background(), "ACME Press")
	assert.Error(t, err)
}
