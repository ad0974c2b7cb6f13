package speaker

import (
	"context"
	"errors"
	"strings"
	"time"

	apperrors "github.com/kbukum/minutes/errors"
	"github.com/kbukum/minutes/logger"
)

// DefaultResolveTimeout bounds a single label lookup.
const DefaultResolveTimeout = 3 * time.Second

// ErrUnknownSpeaker is returned by resolvers that have no name for an ID.
var ErrUnknownSpeaker = errors.New("speaker: unknown speaker")

// Resolver looks up a display name for a speaker ID.
type Resolver interface {
	Lookup(ctx context.Context, speakerID string) (string, error)
}

// ResolverFunc adapts a function to Resolver.
type ResolverFunc func(ctx context.Context, speakerID string) (string, error)

// Lookup implements Resolver.
func (f ResolverFunc) Lookup(ctx context.Context, speakerID string) (string, error) {
	return f(ctx, speakerID)
}

// FallbackLabel is the label used when no name can be resolved.
func FallbackLabel(speakerID string) string {
	return "User_" + speakerID
}

// Resolve always yields a label. Lookup errors, empty names and slow
// resolvers fall back to FallbackLabel; a nil resolver does too.
func Resolve(ctx context.Context, r Resolver, speakerID string) string {
	if r == nil {
		return FallbackLabel(speakerID)
	}
	ctx, cancel := context.WithTimeout(ctx, DefaultResolveTimeout)
	defer cancel()

	name, err := r.Lookup(ctx, speakerID)
	if err != nil {
		logger.WithComponent("speaker").Debug("label fallback", logger.Fields(
			logger.FieldSpeakerID, speakerID,
			logger.FieldError, apperrors.ResolutionFailure(speakerID, err).Error(),
		))
		return FallbackLabel(speakerID)
	}
	if name = strings.TrimSpace(name); name == "" {
		return FallbackLabel(speakerID)
	}
	return name
}

// Static resolves names from a fixed map.
type Static map[string]string

// Lookup implements Resolver.
func (s Static) Lookup(_ context.Context, speakerID string) (string, error) {
	if name, ok := s[speakerID]; ok && name != "" {
		return name, nil
	}
	return "", ErrUnknownSpeaker
}

// First tries resolvers in order and returns the first name found.
func First(resolvers ...Resolver) Resolver {
	return ResolverFunc(func(ctx context.Context, speakerID string) (string, error) {
		var errs []error
		for _, r := range resolvers {
			if r == nil {
				continue
			}
			name, err := r.Lookup(ctx, speakerID)
			if err == nil && name != "" {
				return name, nil
			}
			if err != nil {
				errs = append(errs, err)
			}
		}
		if len(errs) == 0 {
			return "", ErrUnknownSpeaker
		}
		return "", errors.Join(errs...)
	})
}
