package services

import (
	"context"
	"net/http"
	"time"
)

// Store call outcomes reported to a StoreObserver.
const (
	StoreOutcomeOK     = "ok"
	StoreOutcomeAbsent = "absent"
	StoreOutcomeError  = "error"
)

// StoreObserver records the latency and outcome of every store call.
type StoreObserver interface {
	ObserveStoreCall(op, outcome string, dur time.Duration)
}

type instrumentedStore struct {
	next     ObjectStore
	observer StoreObserver
	now      func() time.Time
}

// InstrumentStore wraps store so every call is reported to observer.
func InstrumentStore(store ObjectStore, observer StoreObserver) ObjectStore {
	return &instrumentedStore{next: store, observer: observer, now: time.Now}
}

func (s *instrumentedStore) GetObject(ctx context.Context, key string) (ObjectResponse, error) {
	start := s.now()
	resp, err := s.next.GetObject(ctx, key)

	outcome := StoreOutcomeOK
	switch {
	case err != nil:
		outcome = StoreOutcomeError
	case resp.StatusCode == http.StatusNotFound:
		outcome = StoreOutcomeAbsent
	case resp.StatusCode >= 300:
		outcome = StoreOutcomeError
	}
	s.observer.ObserveStoreCall("get_object", outcome, s.now().Sub(start))
	return resp, err
}

func (s *instrumentedStore) ListObjects(ctx context.Context, prefix, delimiter string) ([]ListBatch, error) {
	start := s.now()
	batches, err := s.next.ListObjects(ctx, prefix, delimiter)

	outcome := StoreOutcomeOK
	if err != nil {
		outcome = StoreOutcomeError
	}
	s.observer.ObserveStoreCall("list_objects", outcome, s.now().Sub(start))
	return batches, err
}
