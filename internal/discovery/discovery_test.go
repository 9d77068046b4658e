package discovery

import (
	"errors"
	"testing"

	"github.com/auric-audio/auric-core/internal/infrastructure/config"
)

func TestAnnounce_Disabled(t *testing.T) {
	a := New(config.DiscoveryConfig{Enabled: false, Instance: "Auric Music Server"}, nil)

	if err := a.Announce(7091, "50:4f:94:ff:1b:b3"); !errors.Is(err, ErrDisabled) {
		t.Errorf("error = %v, want ErrDisabled", err)
	}
}

func TestClose_WithoutAnnounce(t *testing.T) {
	a := New(config.DiscoveryConfig{Enabled: true, Instance: "Auric Music Server"}, nil)

	// Must be a no-op when nothing was registered.
	a.Close()
	a.Close()
}
