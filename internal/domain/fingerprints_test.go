package domain_test

import (
	"context"
	"testing"

	"github.com/abcfood/fingerprint-mw/internal/models"
)

func TestFacade_GetFingerprints_FiltersByUser(t *testing.T) {
	f, mock, _, _ := newFixture(t)
	mock.Fingerprints = []models.Fingerprint{
		{UID: 1, UserID: "e1", FingerIndex: 0},
		{UID: 1, UserID: "e1", FingerIndex: 1},
		{UID: 2, UserID: "e2", FingerIndex: 0},
	}

	got, err := f.GetFingerprints(context.Background(), "tmi", "e1")
	if err != nil {
		t.Fatalf("GetFingerprints: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 templates for e1, got %d", len(got))
	}
}

func TestFacade_FingerprintCounts(t *testing.T) {
	f, mock, _, _ := newFixture(t)
	mock.Fingerprints = []models.Fingerprint{
		{UID: 1, UserID: "e1", FingerIndex: 0},
		{UID: 1, UserID: "e1", FingerIndex: 1},
		{UID: 2, UserID: "e2", FingerIndex: 0},
	}

	total, usersWithFP, err := f.FingerprintCounts(context.Background(), "tmi")
	if err != nil {
		t.Fatalf("FingerprintCounts: %v", err)
	}
	if total != 3 || usersWithFP != 2 {
		t.Fatalf("total=%d usersWithFP=%d, want 3 and 2", total, usersWithFP)
	}
}

func TestFacade_SetFingerprint(t *testing.T) {
	f, mock, _, _ := newFixture(t)
	if err := f.SetFingerprint(context.Background(), "tmi", 1, 0, "dGVzdA=="); err != nil {
		t.Fatalf("SetFingerprint: %v", err)
	}
	if len(mock.Fingerprints) != 1 || mock.Fingerprints[0].Template != "dGVzdA==" {
		t.Fatalf("unexpected fingerprints: %+v", mock.Fingerprints)
	}
}
