package testsupport

import (
	"context"
	"testing"

	"docingest/internal/config"
	"docingest/internal/registry"
	"docingest/internal/store"
)

// MustOpenStore opens the config's document store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *store.Store {
	t.Helper()

	st, err := store.Open(cfg.Store.Path)
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() {
		st.Close()
	})
	return st
}

// SeedEmployees writes active employee records into the store.
func SeedEmployees(t testing.TB, st *store.Store, employees ...registry.Employee) {
	t.Helper()

	records := make([]registry.Record, len(employees))
	for i, e := range employees {
		records[i] = registry.Record{Employee: e, Active: true}
	}
	if _, err := st.UpsertEmployees(context.Background(), records); err != nil {
		t.Fatalf("UpsertEmployees: %v", err)
	}
}
