package clickhouse

import (
	"testing"
	"time"

	ch "github.com/ClickHouse/clickhouse-go/v2"
)

func TestBuildOptions(t *testing.T) {
	o := BuildOptions(
		WithAddress("ch.local", 9000),
		WithAuth("findash", "reader", "p@ss"),
		WithTimeouts(2*time.Second, 15*time.Second),
		WithQueryLimit(90*time.Second),
	)
	if len(o.Addr) != 1 || o.Addr[0] != "ch.local:9000" {
		t.Fatalf("unexpected addr: %v", o.Addr)
	}
	if o.Auth.Database != "findash" || o.Auth.Username != "reader" || o.Auth.Password != "p@ss" {
		t.Fatalf("unexpected auth: %+v", o.Auth)
	}
	if o.DialTimeout != 2*time.Second || o.ReadTimeout != 15*time.Second {
		t.Fatalf("unexpected timeouts: %s %s", o.DialTimeout, o.ReadTimeout)
	}
	if o.Settings["max_execution_time"] != 90 {
		t.Fatalf("unexpected settings: %v", o.Settings)
	}
	if o.Protocol != ch.Native || o.MaxOpenConns != 4 {
		t.Fatalf("defaults lost: protocol=%v open=%d", o.Protocol, o.MaxOpenConns)
	}

	if BuildOptions(WithHTTP(true)).Protocol != ch.HTTP {
		t.Fatalf("expected http protocol")
	}
}

func TestNewClientRequiresHost(t *testing.T) {
	if _, err := NewClient(WithAddress("", 9000)); err == nil {
		t.Fatalf("expected error without host")
	}
}
