package commsutil

import (
	"testing"
	"time"
)

const connectTestPrefix = "commsutil:connect_test"

func TestConnect_InvalidURL(t *testing.T) {
	nc, err := Connect("invalid://not-a-nats-server", "test-client", ConnectOptions{Timeout: time.Second})
	if err == nil {
		if nc != nil {
			nc.Close()
		}
		t.Fatalf("%s - expected error for invalid URL", connectTestPrefix)
	}
	if nc != nil {
		t.Errorf("%s - expected nil connection on error", connectTestPrefix)
	}
}

func TestConnectOptions_Defaults(t *testing.T) {
	got := ConnectOptions{}.withDefaults()
	if got.Timeout != 10*time.Second || got.ReconnectWait != 2*time.Second || got.MaxReconnects != 60 {
		t.Errorf("%s - defaults = %+v", connectTestPrefix, got)
	}
	kept := ConnectOptions{Timeout: time.Second, MaxReconnects: -1}.withDefaults()
	if kept.Timeout != time.Second || kept.MaxReconnects != -1 {
		t.Errorf("%s - explicit values overwritten: %+v", connectTestPrefix, kept)
	}
}

func TestDrain_Nil(t *testing.T) {
	Drain(nil)
}
