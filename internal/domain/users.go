package domain

import (
	"context"
	"fmt"

	"github.com/abcfood/fingerprint-mw/internal/apperr"
	"github.com/abcfood/fingerprint-mw/internal/models"
)

// ListUsers returns every enrolled user on a device.
func (f *Facade) ListUsers(ctx context.Context, key string) ([]models.User, error) {
	slot, err := f.pool.Client(key)
	if err != nil {
		return nil, err
	}
	return slot.GetUsers(ctx)
}

// GetUser returns the single user with the given uid.
func (f *Facade) GetUser(ctx context.Context, key string, uid int) (models.User, error) {
	users, err := f.ListUsers(ctx, key)
	if err != nil {
		return models.User{}, err
	}
	for _, u := range users {
		if u.UID == uid {
			return u, nil
		}
	}
	return models.User{}, apperr.New(apperr.KindUnknownUser, fmt.Sprintf("uid %d not found on device %q", uid, key))
}

// AddUser enrolls a new user.
func (f *Facade) AddUser(ctx context.Context, key string, u models.User) error {
	slot, err := f.pool.Client(key)
	if err != nil {
		return err
	}
	return slot.SetUser(ctx, u)
}

// UpdateUser overwrites an existing user's fields. The uid must already
// exist on the device.
func (f *Facade) UpdateUser(ctx context.Context, key string, u models.User) error {
	if _, err := f.GetUser(ctx, key, u.UID); err != nil {
		return err
	}
	slot, err := f.pool.Client(key)
	if err != nil {
		return err
	}
	return slot.SetUser(ctx, u)
}

// DeleteUser removes a user by uid.
func (f *Facade) DeleteUser(ctx context.Context, key string, uid int) error {
	if _, err := f.GetUser(ctx, key, uid); err != nil {
		return err
	}
	slot, err := f.pool.Client(key)
	if err != nil {
		return err
	}
	return slot.DeleteUser(ctx, uid)
}

// SyncResult reports the diff computed by SyncUsersFromHRIS.
type SyncResult struct {
	ToAdd     []models.User
	ToUpdate  []models.User
	Unchanged []string
}

// SyncUsersFromHRIS pulls the external employee list, diffs it against the
// device's current users by user_id, and — unless dryRun — applies
// additions and name updates. New uids are assigned as
// max(existing uid)+1+k, where k is the addition's index in HRIS order.
func (f *Facade) SyncUsersFromHRIS(ctx context.Context, key string, dryRun bool) (SyncResult, error) {
	if f.hris == nil {
		return SyncResult{}, apperr.New(apperr.KindPeripheralFailure, "HRIS integration is not configured")
	}

	employees, err := f.hris.ListEmployees(ctx)
	if err != nil {
		return SyncResult{}, err
	}

	deviceUsers, err := f.ListUsers(ctx, key)
	if err != nil {
		return SyncResult{}, err
	}

	byUserID := make(map[string]models.User, len(deviceUsers))
	maxUID := 0
	for _, u := range deviceUsers {
		byUserID[u.UserID] = u
		if u.UID > maxUID {
			maxUID = u.UID
		}
	}

	var result SyncResult
	var toAddBase []models.User
	for _, emp := range employees {
		existing, ok := byUserID[emp.ID]
		switch {
		case !ok:
			toAddBase = append(toAddBase, models.User{UserID: emp.ID, Name: emp.Name})
		case existing.Name != emp.Name:
			updated := existing
			updated.Name = emp.Name
			result.ToUpdate = append(result.ToUpdate, updated)
		default:
			result.Unchanged = append(result.Unchanged, emp.ID)
		}
	}

	result.ToAdd = make([]models.User, len(toAddBase))
	for k, u := range toAddBase {
		u.UID = maxUID + 1 + k
		result.ToAdd[k] = u
	}

	if !dryRun {
		slot, err := f.pool.Client(key)
		if err != nil {
			return SyncResult{}, err
		}
		for _, u := range result.ToUpdate {
			if err := slot.SetUser(ctx, u); err != nil {
				return SyncResult{}, fmt.Errorf("sync update user %s: %w", u.UserID, err)
			}
		}
		for _, u := range result.ToAdd {
			if err := slot.SetUser(ctx, u); err != nil {
				return SyncResult{}, fmt.Errorf("sync add user %s: %w", u.UserID, err)
			}
		}
	}

	return result, nil
}
