package main

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/ocr-bench/internal/store"
)

// initStore opens the configured store and applies its schema.
func initStore(ctx context.Context) (store.Store, error) {
	st, err := store.Open(ctx, cfg.Store)
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		st.Close() //nolint:errcheck
		return nil, eris.Wrap(err, "migrate store")
	}
	return st, nil
}
