package device

import (
	"testing"

	"github.com/abcfood/fingerprint-mw/internal/apperr"
	"github.com/abcfood/fingerprint-mw/internal/models"
	"github.com/abcfood/fingerprint-mw/internal/zkproto"
)

func testConfigs() []models.DeviceConfig {
	return []models.DeviceConfig{
		{Key: "tmi", Name: "Main Gate", IP: "10.0.0.1", Port: 4370},
		{Key: "tso", Name: "Side Gate", IP: "10.0.0.2", Port: 4370},
	}
}

func TestPool_KeysSorted(t *testing.T) {
	dialer := zkproto.NewMockDialer()
	p := New(testConfigs(), dialer, nil)

	got := p.Keys()
	want := []string{"tmi", "tso"}
	if len(got) != len(want) {
		t.Fatalf("Keys() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Keys()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestPool_Config(t *testing.T) {
	p := New(testConfigs(), zkproto.NewMockDialer(), nil)

	cfg, ok := p.Config("tmi")
	if !ok || cfg.IP != "10.0.0.1" {
		t.Fatalf("Config(tmi) = %+v, %v", cfg, ok)
	}

	_, ok = p.Config("nope")
	if ok {
		t.Fatal("Config(nope) should report not-found")
	}
}

func TestPool_ClientUnknownDevice(t *testing.T) {
	p := New(testConfigs(), zkproto.NewMockDialer(), nil)

	_, err := p.Client("nope")
	if !apperr.Is(err, apperr.KindUnknownDevice) {
		t.Fatalf("Client(nope) error = %v, want KindUnknownDevice", err)
	}
}

func TestPool_ClientIsCached(t *testing.T) {
	p := New(testConfigs(), zkproto.NewMockDialer(), nil)

	a, err := p.Client("tmi")
	if err != nil {
		t.Fatalf("Client: %v", err)
	}
	b, err := p.Client("tmi")
	if err != nil {
		t.Fatalf("Client: %v", err)
	}
	if a != b {
		t.Error("Client should return the same *ClientSlot instance on repeated calls")
	}
}
