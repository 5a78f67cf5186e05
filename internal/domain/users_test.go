package domain_test

import (
	"context"
	"testing"

	"github.com/abcfood/fingerprint-mw/internal/apperr"
	"github.com/abcfood/fingerprint-mw/internal/cache"
	"github.com/abcfood/fingerprint-mw/internal/device"
	"github.com/abcfood/fingerprint-mw/internal/domain"
	"github.com/abcfood/fingerprint-mw/internal/hris"
	"github.com/abcfood/fingerprint-mw/internal/models"
	"github.com/abcfood/fingerprint-mw/internal/zkproto"
)

type fakeLister struct {
	employees []hris.Employee
	err       error
}

func (l *fakeLister) ListEmployees(ctx context.Context) ([]hris.Employee, error) {
	return l.employees, l.err
}

func TestFacade_GetUser_NotFound(t *testing.T) {
	f, mock, _, _ := newFixture(t)
	mock.Users = []models.User{{UID: 1, UserID: "e1"}}

	if _, err := f.GetUser(context.Background(), "tmi", 99); !apperr.Is(err, apperr.KindUnknownUser) {
		t.Fatalf("expected KindUnknownUser, got %v", err)
	}
}

func TestFacade_UpdateUser_RequiresExistingUID(t *testing.T) {
	f, _, _, _ := newFixture(t)
	err := f.UpdateUser(context.Background(), "tmi", models.User{UID: 5, UserID: "ghost"})
	if !apperr.Is(err, apperr.KindUnknownUser) {
		t.Fatalf("expected KindUnknownUser, got %v", err)
	}
}

func TestFacade_SyncUsersFromHRIS_DiffAndUIDAssignment(t *testing.T) {
	mock := zkproto.NewMock()
	mock.Users = []models.User{
		{UID: 3, UserID: "e1", Name: "Alice"},
		{UID: 7, UserID: "e2", Name: "Bob Old Name"},
	}
	dialer := zkproto.NewMockDialer()
	dialer.Add("tmi", mock)
	pool := device.New(testConfigs(), dialer, nil)
	c := cache.New(pool, nil)
	lister := &fakeLister{employees: []hris.Employee{
		{ID: "e1", Name: "Alice"},          // unchanged
		{ID: "e2", Name: "Bob New Name"},   // name changed -> update
		{ID: "e3", Name: "Carol"},          // new -> add, uid = 7+1+0 = 8
		{ID: "e4", Name: "Dave"},           // new -> add, uid = 7+1+1 = 9
	}}
	f := domain.New(pool, c, nil, lister, nil)

	result, err := f.SyncUsersFromHRIS(context.Background(), "tmi", true)
	if err != nil {
		t.Fatalf("SyncUsersFromHRIS: %v", err)
	}

	if len(result.Unchanged) != 1 || result.Unchanged[0] != "e1" {
		t.Fatalf("unexpected unchanged set: %+v", result.Unchanged)
	}
	if len(result.ToUpdate) != 1 || result.ToUpdate[0].UserID != "e2" || result.ToUpdate[0].Name != "Bob New Name" {
		t.Fatalf("unexpected update set: %+v", result.ToUpdate)
	}
	if len(result.ToAdd) != 2 {
		t.Fatalf("expected 2 additions, got %d", len(result.ToAdd))
	}
	if result.ToAdd[0].UserID != "e3" || result.ToAdd[0].UID != 8 {
		t.Fatalf("first addition should be e3 with uid 8, got %+v", result.ToAdd[0])
	}
	if result.ToAdd[1].UserID != "e4" || result.ToAdd[1].UID != 9 {
		t.Fatalf("second addition should be e4 with uid 9, got %+v", result.ToAdd[1])
	}

	// dry run: nothing written to the device.
	for _, call := range mock.Calls {
		if call == "SetUser" {
			t.Fatalf("dry run must not write to the device")
		}
	}
}

func TestFacade_SyncUsersFromHRIS_AppliesWhenNotDryRun(t *testing.T) {
	mock := zkproto.NewMock()
	mock.Users = []models.User{{UID: 1, UserID: "e1", Name: "Alice"}}
	dialer := zkproto.NewMockDialer()
	dialer.Add("tmi", mock)
	pool := device.New(testConfigs(), dialer, nil)
	c := cache.New(pool, nil)
	lister := &fakeLister{employees: []hris.Employee{
		{ID: "e1", Name: "Alice"},
		{ID: "e2", Name: "Carol"},
	}}
	f := domain.New(pool, c, nil, lister, nil)

	result, err := f.SyncUsersFromHRIS(context.Background(), "tmi", false)
	if err != nil {
		t.Fatalf("SyncUsersFromHRIS: %v", err)
	}
	if len(result.ToAdd) != 1 {
		t.Fatalf("expected one addition, got %+v", result.ToAdd)
	}
	if len(mock.Users) != 2 {
		t.Fatalf("expected the new user to be written to the device, have %d users", len(mock.Users))
	}
}

func TestFacade_SyncUsersFromHRIS_NotConfigured(t *testing.T) {
	f, _, _, _ := newFixture(t) // newFixture passes nil hris client
	if _, err := f.SyncUsersFromHRIS(context.Background(), "tmi", true); !apperr.Is(err, apperr.KindPeripheralFailure) {
		t.Fatalf("expected KindPeripheralFailure, got %v", err)
	}
}
