package memory

import (
	"context"
	"testing"
	"time"

	"flexmon-go/internal/domain"
)

func TestAlertRepository_FindByFingerprintSince(t *testing.T) {
	repo := NewAlertRepository()
	ctx := context.Background()
	now := time.Now().UTC()

	resolved := now.Add(-8 * time.Minute)
	alerts := []*domain.Alert{
		{ID: "a1", Fingerprint: "fp-1", TriggeredAt: now.Add(-20 * time.Minute)},
		{ID: "a2", Fingerprint: "fp-1", TriggeredAt: now.Add(-10 * time.Minute), ResolvedAt: &resolved},
		{ID: "a3", Fingerprint: "fp-2", TriggeredAt: now.Add(-1 * time.Minute)},
	}
	for _, a := range alerts {
		if err := repo.Create(ctx, a); err != nil {
			t.Fatalf("Create error: %v", err)
		}
	}

	// The newest fp-1 alert inside the window is found even though it has
	// been resolved: the lookup is a pure time-window check.
	found, err := repo.FindByFingerprintSince(ctx, "fp-1", now.Add(-15*time.Minute))
	if err != nil {
		t.Fatalf("FindByFingerprintSince error: %v", err)
	}
	if found == nil || found.ID != "a2" {
		t.Fatalf("found = %+v, want a2", found)
	}

	// A window that excludes all fp-1 alerts yields nil, nil.
	found, err = repo.FindByFingerprintSince(ctx, "fp-1", now.Add(-5*time.Minute))
	if err != nil {
		t.Fatalf("FindByFingerprintSince error: %v", err)
	}
	if found != nil {
		t.Errorf("found = %+v, want nil outside window", found)
	}

	// Unknown fingerprint yields nil, nil.
	found, err = repo.FindByFingerprintSince(ctx, "fp-unknown", now.Add(-15*time.Minute))
	if err != nil {
		t.Fatalf("FindByFingerprintSince error: %v", err)
	}
	if found != nil {
		t.Errorf("found = %+v, want nil for unknown fingerprint", found)
	}
}

func TestAlertRepository_List(t *testing.T) {
	repo := NewAlertRepository()
	ctx := context.Background()
	now := time.Now().UTC()

	_ = repo.Create(ctx, &domain.Alert{ID: "a1", TenantID: "t1", Severity: domain.SeverityCritical, TriggeredAt: now})
	_ = repo.Create(ctx, &domain.Alert{ID: "a2", TenantID: "t1", Severity: domain.SeverityWarning, TriggeredAt: now})
	_ = repo.Create(ctx, &domain.Alert{ID: "a3", TenantID: "t2", Severity: domain.SeverityCritical, TriggeredAt: now})

	results, err := repo.List(ctx, domain.AlertFilter{TenantID: "t1", Severity: domain.SeverityCritical})
	if err != nil {
		t.Fatalf("List error: %v", err)
	}
	if len(results) != 1 || results[0].ID != "a1" {
		t.Errorf("List = %v alerts, want exactly a1", len(results))
	}
}
