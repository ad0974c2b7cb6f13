package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/kbukum/minutes/provider"
)

// UploadRequest is one object to archive. The body is held in memory so a
// retried upload can send it again.
type UploadRequest struct {
	Key  string
	Body []byte
}

// UploadProvider puts Storage.Upload behind the provider interface so the
// archive gets the same resilience and observation wrapping as the other
// backends. Execute answers with the object's URL.
type UploadProvider struct {
	name    string
	storage Storage
}

var _ provider.RequestResponse[UploadRequest, string] = (*UploadProvider)(nil)

func NewUploadProvider(name string, s Storage) *UploadProvider {
	return &UploadProvider{name: name, storage: s}
}

func (p *UploadProvider) Name() string                     { return p.name }
func (p *UploadProvider) IsAvailable(context.Context) bool { return p.storage != nil }

func (p *UploadProvider) Execute(ctx context.Context, req UploadRequest) (string, error) {
	if p.storage == nil {
		return "", errors.New("no archive backend")
	}
	if err := p.storage.Upload(ctx, req.Key, bytes.NewReader(req.Body)); err != nil {
		return "", fmt.Errorf("upload %s: %w", req.Key, err)
	}
	return p.storage.URL(ctx, req.Key)
}
