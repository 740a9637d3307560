package services

import (
	"context"
	"fmt"
	"net/http"

	"github.com/damacus/iron-index/internal/errs"
	"github.com/damacus/iron-index/internal/models"
	"github.com/rs/zerolog"
)

// Resolve outcomes reported to a ResolveObserver.
const (
	OutcomeFile             = "file"
	OutcomeFolder           = "folder"
	OutcomeNotFound         = "not_found"
	OutcomeStoreUnavailable = "store_unavailable"
)

// ResolveObserver is notified of every resolve outcome.
type ResolveObserver interface {
	ObserveResolve(outcome string)
}

// Resolver decides whether a request path is an object or a prefix.
//
// S3 has no notion of folders: "docs" may be an object key or the "docs/"
// prefix. The object interpretation is tried first and the listing is only
// used once the store has confirmed the object is absent.
type Resolver struct {
	store    ObjectStore
	log      zerolog.Logger
	observer ResolveObserver
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithLogger sets the logger used for per-request debug output.
func WithLogger(log zerolog.Logger) ResolverOption {
	return func(r *Resolver) { r.log = log }
}

// WithObserver reports resolve outcomes to o.
func WithObserver(o ResolveObserver) ResolverOption {
	return func(r *Resolver) { r.observer = o }
}

// NewResolver creates a Resolver over store. The store is shared by all
// requests and never mutated.
func NewResolver(store ObjectStore, opts ...ResolverOption) *Resolver {
	r := &Resolver{store: store, log: zerolog.Nop()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve maps path (no leading slash, empty for the bucket root) to either
// the object's body or the listing of the path's prefix.
//
// It fails with errs.ErrKindStoreUnavailable when the object fetch could not
// tell whether the object exists, and errs.ErrKindNotFound when the listing
// fails.
func (r *Resolver) Resolve(ctx context.Context, path string) (models.ObjectResult, error) {
	result, err := r.resolve(ctx, path)
	if r.observer != nil {
		r.observer.ObserveResolve(outcome(result, err))
	}
	return result, err
}

func (r *Resolver) resolve(ctx context.Context, path string) (models.ObjectResult, error) {
	// The bucket root is never an object; fetching it returns bucket metadata.
	if path != "" {
		body, found, err := r.fetchObject(ctx, path)
		if err != nil {
			return models.ObjectResult{}, err
		}
		if found {
			r.log.Debug().Str("path", path).Int64("size", body.Size).Msg("serving object")
			return models.FileResult(body), nil
		}
	}

	prefix := ""
	if path != "" {
		prefix = path + Delimiter
	}

	batches, err := r.store.ListObjects(ctx, prefix, Delimiter)
	if err != nil {
		r.log.Debug().Err(err).Str("prefix", prefix).Msg("listing failed")
		return models.ObjectResult{}, errs.Wrap(errs.ErrKindNotFound, "object not found", err)
	}

	entries := NormalizeListing(batches)
	r.log.Debug().Str("prefix", prefix).Int("entries", len(entries)).Msg("serving listing")
	return models.FolderResult(entries), nil
}

// fetchObject reports found=false only when the store confirmed the key is
// absent; every other failure is an error.
func (r *Resolver) fetchObject(ctx context.Context, key string) (*models.ObjectBody, bool, error) {
	resp, err := r.store.GetObject(ctx, key)
	if err != nil {
		return nil, false, errs.Wrap(errs.ErrKindStoreUnavailable, "unable to connect to object store", err)
	}

	switch resp.StatusCode {
	case http.StatusOK, http.StatusNoContent:
		if resp.Body == nil {
			return nil, false, errs.New(errs.ErrKindStoreUnavailable, "object store returned no body")
		}
		return &models.ObjectBody{ReadCloser: resp.Body, Size: resp.Size}, true, nil
	case http.StatusNotFound:
		r.log.Debug().Str("key", key).Msg("no object, trying prefix")
		return nil, false, nil
	default:
		if resp.Body != nil {
			_ = resp.Body.Close()
		}
		return nil, false, errs.New(errs.ErrKindStoreUnavailable,
			fmt.Sprintf("unexpected object store status %d", resp.StatusCode))
	}
}

func outcome(result models.ObjectResult, err error) string {
	switch {
	case errs.IsStoreUnavailable(err):
		return OutcomeStoreUnavailable
	case err != nil:
		return OutcomeNotFound
	case result.IsFile():
		return OutcomeFile
	default:
		return OutcomeFolder
	}
}
