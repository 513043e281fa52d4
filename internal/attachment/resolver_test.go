package attachment

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shivangsaraswat/certiflow/internal/models"
	"github.com/shivangsaraswat/certiflow/internal/store"
)

type fakeCertStore struct {
	certs map[string]*models.Certificate
	err   error
}

func (f *fakeCertStore) GetCertificate(_ context.Context, certID string) (*models.Certificate, error) {
	if f.err != nil {
		return nil, f.err
	}
	cert, ok := f.certs[certID]
	if !ok {
		return nil, store.ErrNotFound
	}
	return cert, nil
}

func TestResolveEmptyReference(t *testing.T) {
	r := NewResolver(&fakeCertStore{})

	att, err := r.Resolve(context.Background(), "")
	require.NoError(t, err)
	assert.Nil(t, att)
}

func TestResolveMissingCertificate(t *testing.T) {
	r := NewResolver(&fakeCertStore{certs: map[string]*models.Certificate{}})

	att, err := r.Resolve(context.Background(), "c-gone")
	require.NoError(t, err)
	assert.Nil(t, att)
}

func TestResolvePrefersRemoteURL(t *testing.T) {
	r := NewResolver(&fakeCertStore{certs: map[string]*models.Certificate{
		"c1": {
			ID:       "c1",
			Code:     "AB12",
			FileName: "ann.pdf",
			FileURL:  "https://cdn.example.com/ann.pdf",
			FilePath: "/var/certs/ann.pdf",
		},
	}})

	att, err := r.Resolve(context.Background(), "c1")
	require.NoError(t, err)
	require.NotNil(t, att)
	assert.Equal(t, "https://cdn.example.com/ann.pdf", att.URL)
	assert.Empty(t, att.Path)
	assert.Equal(t, "AB12", att.Code)
	assert.Equal(t, "ann.pdf", att.Filename)
}

func TestResolveLocalFallbackAndDefaultName(t *testing.T) {
	r := NewResolver(&fakeCertStore{certs: map[string]*models.Certificate{
		"c2": {ID: "c2", Code: "CD34", FilePath: "/var/certs/bo.pdf"},
	}})

	att, err := r.Resolve(context.Background(), "c2")
	require.NoError(t, err)
	require.NotNil(t, att)
	assert.Equal(t, "/var/certs/bo.pdf", att.Path)
	assert.Equal(t, "certificate.pdf", att.Filename)
}

func TestResolveNoLocation(t *testing.T) {
	r := NewResolver(&fakeCertStore{certs: map[string]*models.Certificate{
		"c3": {ID: "c3", Code: "EF56"},
	}})

	att, err := r.Resolve(context.Background(), "c3")
	require.NoError(t, err)
	assert.Nil(t, att)
}

func TestResolveStoreError(t *testing.T) {
	r := NewResolver(&fakeCertStore{err: errors.New("connection reset")})

	_, err := r.Resolve(context.Background(), "c1")
	assert.Error(t, err)
}

func TestFetchRemote(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("%PDF-fake"))
	}))
	defer srv.Close()

	f := NewFetcher(5 * time.Second)

	data, err := f.Fetch(context.Background(), &Attachment{URL: srv.URL + "/cert.pdf"})
	require.NoError(t, err)
	assert.Equal(t, []byte("%PDF-fake"), data)
}

func TestFetchRemoteErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	f := NewFetcher(5 * time.Second)

	_, err := f.Fetch(context.Background(), &Attachment{URL: srv.URL + "/cert.pdf"})
	assert.Error(t, err)
}

func TestFetchLocal(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cert.pdf")
	require.NoError(t, os.WriteFile(path, []byte("%PDF-local"), 0o600))

	f := NewFetcher(5 * time.Second)

	data, err := f.Fetch(context.Background(), &Attachment{Path: path})
	require.NoError(t, err)
	assert.Equal(t, []byte("%PDF-local"), data)
}

func TestFetchLocalMissing(t *testing.T) {
	f := NewFetcher(5 * time.Second)

	_, err := f.Fetch(context.Background(), &Attachment{Path: filepath.Join(t.TempDir(), "gone.pdf")})
	assert.Error(t, err)
}
