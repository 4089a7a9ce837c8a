package repository

import (
	"context"
	"testing"
	"time"

	"crm_dashboard_backend/internal/fieldcipher"
	"crm_dashboard_backend/internal/store"
	"crm_dashboard_backend/internal/store/memstore"
	"crm_dashboard_backend/internal/tasks/domain"
)

func TestListReadsLegacyTimesAndSkipsBrokenTasks(t *testing.T) {
	ctx := context.Background()
	cipher, err := fieldcipher.New([]byte("0123456789abcdef0123456789abcdef"))
	if err != nil {
		t.Fatalf("cipher: %v", err)
	}
	st := memstore.New()
	repo := New(st, cipher)

	current := domain.Task{
		ID:        "t-current",
		Title:     "Call back",
		StartDate: time.Date(2024, 6, 2, 9, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2024, 6, 3, 9, 0, 0, 0, time.UTC),
		Status:    domain.StatusPending,
		CreatedAt: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC),
	}
	if err := repo.Save(ctx, "t1", current); err != nil {
		t.Fatalf("save: %v", err)
	}
	seed := map[string]any{
		store.Join(store.Tasks("t1"), "t-legacy"): map[string]any{
			"title":     "Old import",
			"startDate": "2024-06-01",
			"endDate":   float64(1717318800000),
			"createdAt": float64(1717200000000),
		},
		store.Join(store.Tasks("t1"), "t-broken"): map[string]any{
			"title":     "Broken",
			"startDate": "next week",
		},
	}
	if err := st.Batch(ctx, seed); err != nil {
		t.Fatalf("seed: %v", err)
	}

	tasks, err := repo.List(ctx, "t1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(tasks) != 2 || tasks[0].ID != "t-legacy" || tasks[1].ID != "t-current" {
		t.Fatalf("tasks = %+v", tasks)
	}
	legacy := tasks[0]
	if !legacy.StartDate.Equal(time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("startDate = %v", legacy.StartDate)
	}
	if !legacy.EndDate.Equal(time.UnixMilli(1717318800000)) || legacy.Status != domain.StatusPending {
		t.Fatalf("legacy task = %+v", legacy)
	}
}
