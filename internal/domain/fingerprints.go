package domain

import (
	"context"

	"github.com/abcfood/fingerprint-mw/internal/models"
)

// GetFingerprints returns every enrolled template belonging to userID on a
// device.
func (f *Facade) GetFingerprints(ctx context.Context, key, userID string) ([]models.Fingerprint, error) {
	slot, err := f.pool.Client(key)
	if err != nil {
		return nil, err
	}
	all, err := slot.GetTemplates(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]models.Fingerprint, 0)
	for _, fp := range all {
		if fp.UserID == userID {
			out = append(out, fp)
		}
	}
	return out, nil
}

// FingerprintCounts reports the total enrolled template count and how many
// distinct users have at least one template.
func (f *Facade) FingerprintCounts(ctx context.Context, key string) (total, usersWithFP int, err error) {
	slot, err := f.pool.Client(key)
	if err != nil {
		return 0, 0, err
	}
	all, err := slot.GetTemplates(ctx)
	if err != nil {
		return 0, 0, err
	}

	seen := make(map[string]struct{})
	for _, fp := range all {
		seen[fp.UserID] = struct{}{}
	}
	return len(all), len(seen), nil
}

// SetFingerprint enrolls or replaces one finger template.
func (f *Facade) SetFingerprint(ctx context.Context, key string, uid, fingerIndex int, templateB64 string) error {
	slot, err := f.pool.Client(key)
	if err != nil {
		return err
	}
	return slot.SetFingerprint(ctx, uid, fingerIndex, templateB64)
}
