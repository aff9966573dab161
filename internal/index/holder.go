package index

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/futig/datachat/internal/entity"
)

// Holder owns the process-wide index. Readers load the current snapshot without locking;
// a single writer builds a new snapshot off to the side and swaps it in only on success.
type Holder struct {
	current atomic.Pointer[Index]
	writeMu sync.Mutex
}

func NewHolder() *Holder {
	return &Holder{}
}

// Current returns the loaded snapshot or ErrNoCorpusLoaded.
func (h *Holder) Current() (*Index, error) {
	idx := h.current.Load()
	if idx == nil {
		return nil, entity.ErrNoCorpusLoaded
	}
	return idx, nil
}

// Replace runs build and publishes its result. Concurrent calls are rejected with
// ErrUploadInProgress; a failed build leaves the previous snapshot in place.
func (h *Holder) Replace(ctx context.Context, build func(ctx context.Context) (*Index, error)) (*Index, error) {
	if !h.writeMu.TryLock() {
		return nil, entity.ErrUploadInProgress
	}
	defer h.writeMu.Unlock()

	idx, err := build(ctx)
	if err != nil {
		return nil, err
	}

	h.current.Store(idx)
	return idx, nil
}

// Clear drops the current snapshot. In-flight queries keep the snapshot they already loaded.
func (h *Holder) Clear() error {
	if !h.writeMu.TryLock() {
		return entity.ErrUploadInProgress
	}
	defer h.writeMu.Unlock()

	h.current.Store(nil)
	return nil
}
