package signals

import (
	"context"

	"github.com/maniartech/signals"

	"github.com/samirrijal/kehillah/internal/core/ports"
)

// MinyanChanged fires after a minyan is saved or deleted in this process.
var MinyanChanged = signals.New[ports.MinyanChange]()

// EmitMinyanChanged notifies every listener and waits for them to return.
func EmitMinyanChanged(ctx context.Context, change ports.MinyanChange) {
	MinyanChanged.Emit(ctx, change)
}

// OnMinyanChanged registers a handler. A key allows later removal.
func OnMinyanChanged(handler func(ctx context.Context, change ports.MinyanChange), key ...string) {
	if len(key) > 0 {
		MinyanChanged.AddListener(handler, key[0])
	} else {
		MinyanChanged.AddListener(handler)
	}
}

// RemoveMinyanChanged drops the listener registered under key.
func RemoveMinyanChanged(key string) {
	MinyanChanged.RemoveListener(key)
}
