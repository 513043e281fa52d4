// Package attachment locates a recipient's generated certificate
// artifact and loads it for attaching to the outgoing email.
package attachment

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/shivangsaraswat/certiflow/internal/models"
	"github.com/shivangsaraswat/certiflow/internal/store"
)

// Attachment is a resolved certificate artifact. Exactly one of URL and
// Path is set; Code is the certificate's short human-assigned ID, kept
// separate so templates can reference it.
type Attachment struct {
	Filename string
	URL      string
	Path     string
	Code     string
}

// CertificateStore is the slice of the store the resolver reads.
type CertificateStore interface {
	GetCertificate(ctx context.Context, certID string) (*models.Certificate, error)
}

type Resolver struct {
	store CertificateStore
}

func NewResolver(cs CertificateStore) *Resolver {
	return &Resolver{store: cs}
}

// Resolve looks up the artifact for a certificate reference. A missing
// reference or a reference to a record that no longer exists yields
// (nil, nil): the send proceeds without an attachment.
func (r *Resolver) Resolve(ctx context.Context, certRef string) (*Attachment, error) {
	if certRef == "" {
		return nil, nil
	}

	cert, err := r.store.GetCertificate(ctx, certRef)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("lookup certificate %s: %w", certRef, err)
	}

	att := &Attachment{
		Filename: cert.FileName,
		Code:     cert.Code,
	}
	if att.Filename == "" {
		att.Filename = "certificate.pdf"
	}

	// Remote artifact wins over a local copy.
	switch {
	case cert.FileURL != "":
		att.URL = cert.FileURL
	case cert.FilePath != "":
		att.Path = cert.FilePath
	default:
		return nil, nil
	}

	return att, nil
}

// Fetcher loads resolved artifacts into memory.
type Fetcher struct {
	client *resty.Client
}

func NewFetcher(timeout time.Duration) *Fetcher {
	return &Fetcher{
		client: resty.New().SetTimeout(timeout),
	}
}

func (f *Fetcher) Fetch(ctx context.Context, att *Attachment) ([]byte, error) {
	if att.URL != "" {
		resp, err := f.client.R().SetContext(ctx).Get(att.URL)
		if err != nil {
			return nil, fmt.Errorf("download artifact %s: %w", att.URL, err)
		}
		if resp.IsError() {
			return nil, fmt.Errorf("download artifact %s: status %d", att.URL, resp.StatusCode())
		}
		return resp.Body(), nil
	}

	data, err := os.ReadFile(att.Path)
	if err != nil {
		return nil, fmt.Errorf("read artifact %s: %w", att.Path, err)
	}

	return data, nil
}
