package device

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/abcfood/fingerprint-mw/internal/models"
	"github.com/abcfood/fingerprint-mw/internal/zkproto"
)

func newTestSlot(t *testing.T, key string, mock *zkproto.Mock) (*ClientSlot, *zkproto.MockDialer) {
	t.Helper()
	dialer := zkproto.NewMockDialer()
	dialer.Add(key, mock)
	p := New([]models.DeviceConfig{{Key: key, IP: "127.0.0.1"}}, dialer, nil)
	slot, err := p.Client(key)
	if err != nil {
		t.Fatalf("Client: %v", err)
	}
	return slot, dialer
}

func TestClientSlot_GetUsers(t *testing.T) {
	mock := zkproto.NewMock()
	mock.Users = []models.User{{UID: 1, UserID: "EMP001"}}
	slot, _ := newTestSlot(t, "tmi", mock)

	got, err := slot.GetUsers(context.Background())
	if err != nil {
		t.Fatalf("GetUsers: %v", err)
	}
	if len(got) != 1 || got[0].UserID != "EMP001" {
		t.Errorf("GetUsers = %+v", got)
	}
}

func TestClientSlot_ReadRetriesThenSucceeds(t *testing.T) {
	mock := zkproto.NewMock()
	mock.Users = []models.User{{UID: 1}}
	dialer := zkproto.NewMockDialer()
	dialer.Add("tmi", mock)
	dialer.SetDialErr("tmi", errors.New("connection refused"))

	p := New([]models.DeviceConfig{{Key: "tmi", IP: "127.0.0.1"}}, dialer, nil)
	slot, err := p.Client("tmi")
	if err != nil {
		t.Fatalf("Client: %v", err)
	}

	// Clear the dial error after the first attempt so the retry succeeds,
	// exercising the backoff path without waiting for all 3 attempts.
	go func() {
		time.Sleep(5 * time.Millisecond)
		dialer.SetDialErr("tmi", nil)
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := slot.GetUsers(ctx); err != nil {
		t.Fatalf("GetUsers after retry: %v", err)
	}
}

func TestClientSlot_ReadExhaustsRetries(t *testing.T) {
	mock := zkproto.NewMock()
	mock.Err = errors.New("i/o timeout")
	slot, dialer := newTestSlot(t, "tmi", mock)

	_, err := slot.GetUsers(context.Background())
	if err == nil {
		t.Fatal("expected error after exhausting retries")
	}
	if got := dialer.DialCountFor("tmi"); got != readRetryAttempts {
		t.Errorf("dial count = %d, want %d", got, readRetryAttempts)
	}
}

func TestClientSlot_SetUser_WriteGuardOrder(t *testing.T) {
	mock := zkproto.NewMock()
	slot, _ := newTestSlot(t, "tmi", mock)

	if err := slot.SetUser(context.Background(), models.User{UID: 5, UserID: "EMP005"}); err != nil {
		t.Fatalf("SetUser: %v", err)
	}

	want := []string{"DisableDevice", "SetUser", "EnableDevice", "Close"}
	if len(mock.Calls) != len(want) {
		t.Fatalf("Calls = %v, want %v", mock.Calls, want)
	}
	for i := range want {
		if mock.Calls[i] != want[i] {
			t.Errorf("Calls[%d] = %q, want %q", i, mock.Calls[i], want[i])
		}
	}
}

func TestClientSlot_WriteNotRetried(t *testing.T) {
	mock := zkproto.NewMock()
	mock.Err = errors.New("device busy")
	slot, dialer := newTestSlot(t, "tmi", mock)

	if err := slot.SetUser(context.Background(), models.User{UID: 1}); err == nil {
		t.Fatal("expected error")
	}
	if got := dialer.DialCountFor("tmi"); got != 1 {
		t.Errorf("dial count = %d, want 1 (writes are never retried)", got)
	}
}

func TestClientSlot_EnableFailureIsLoggedNotPropagated(t *testing.T) {
	mock := zkproto.NewMock()
	mock.EnableErr = errors.New("enable rejected")
	slot, _ := newTestSlot(t, "tmi", mock)

	if err := slot.SetUser(context.Background(), models.User{UID: 9}); err != nil {
		t.Fatalf("SetUser should succeed despite EnableDevice failure, got %v", err)
	}
}

func TestClientSlot_RestartBypassesWriteGuard(t *testing.T) {
	mock := zkproto.NewMock()
	slot, _ := newTestSlot(t, "tmi", mock)

	if err := slot.Restart(context.Background()); err != nil {
		t.Fatalf("Restart: %v", err)
	}
	for _, c := range mock.Calls {
		if c == "DisableDevice" || c == "EnableDevice" {
			t.Errorf("Restart must not go through the write-mode guard, saw %q", c)
		}
	}
	if !mock.Restarted {
		t.Error("expected device to be marked restarted")
	}
}
