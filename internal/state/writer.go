package state

import (
	"context"
	"strconv"

	"github.com/dreamware/statekv/internal/store"
)

// versionedWriter issues a caller's data writes plus the version-counter
// bump as one atomic batch. It holds no state of its own: on failure the
// accessor rolls back whatever it applied optimistically.
type versionedWriter struct {
	store store.Store
}

// commit appends the version write after the data writes, in caller order,
// and submits the whole batch as a unit. The ordering is not observable to
// other readers since the batch is atomic.
func (w versionedWriter) commit(ctx context.Context, writes []store.Write, versionKey string, version uint64) error {
	batch := make([]store.Write, 0, len(writes)+1)
	batch = append(batch, writes...)
	batch = append(batch, store.Write{
		Key:   versionKey,
		Value: []byte(strconv.FormatUint(version, 10)),
	})
	return w.store.Batch(ctx, batch)
}
