package transcription

import (
	"context"

	"github.com/kbukum/minutes/provider"
)

// Provider is a speech-to-text backend.
type Provider = provider.RequestResponse[Request, *Response]

// Transcriber turns a clip into text. Implementations never fail: an empty
// string means no usable result.
type Transcriber interface {
	Transcribe(ctx context.Context, clipPath string) string
}

// NewRegistry creates a registry for transcription backends.
func NewRegistry() *provider.Registry[Provider] {
	return provider.NewRegistry[Provider]()
}
