package peer

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/btcsuite/btcd/wire"
)

func TestCreateOrOpenCreatesFreshCache(t *testing.T) {
	path := filepath.Join(t.TempDir(), "peers.json")
	c, created, err := CreateOrOpen(path)
	if err != nil {
		t.Fatalf("CreateOrOpen: %v", err)
	}
	if !created {
		t.Fatal("expected a fresh cache to be created")
	}
	if !c.IsEmpty() {
		t.Fatal("expected a fresh cache to be empty")
	}
}

func TestCreateOrOpenReloadsExistingEntries(t *testing.T) {
	path := filepath.Join(t.TempDir(), "peers.json")
	c, _, err := CreateOrOpen(path)
	if err != nil {
		t.Fatalf("CreateOrOpen: %v", err)
	}
	c.Add("10.0.0.1:8333", wire.SFNodeNetwork, SourceManual)
	if err := c.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}

	reopened, created, err := CreateOrOpen(path)
	if err != nil {
		t.Fatalf("CreateOrOpen (reopen): %v", err)
	}
	if created {
		t.Fatal("expected reopening an existing file not to report fresh creation")
	}
	if reopened.Len() != 1 {
		t.Fatalf("got %d entries, want 1", reopened.Len())
	}
	entries := reopened.Entries()
	if entries[0].Addr != "10.0.0.1:8333" || entries[0].Source != SourceManual {
		t.Fatalf("got %+v, want addr 10.0.0.1:8333 source manual", entries[0])
	}
}

func TestCacheAddReplacesExistingEntry(t *testing.T) {
	path := filepath.Join(t.TempDir(), "peers.json")
	c, _, _ := CreateOrOpen(path)
	c.Add("10.0.0.1:8333", 0, SourceDNS)
	c.Add("10.0.0.1:8333", wire.SFNodeNetwork, SourceManual)

	if c.Len() != 1 {
		t.Fatalf("got %d entries, want 1 (replace, not append)", c.Len())
	}
	entries := c.Entries()
	if entries[0].Source != SourceManual || entries[0].Services != wire.SFNodeNetwork {
		t.Fatalf("got %+v, want the second Add to win", entries[0])
	}
}

func TestCacheCountWithServices(t *testing.T) {
	path := filepath.Join(t.TempDir(), "peers.json")
	c, _, _ := CreateOrOpen(path)
	c.Add("a:8333", wire.SFNodeNetwork|wire.SFNodeWitness, SourceDNS)
	c.Add("b:8333", wire.SFNodeNetwork, SourceDNS)
	c.Add("c:8333", 0, SourceDNS)

	if n := c.CountWithServices(wire.SFNodeNetwork | wire.SFNodeWitness); n != 1 {
		t.Fatalf("got %d, want 1", n)
	}
	if n := c.CountWithServices(wire.SFNodeNetwork); n != 2 {
		t.Fatalf("got %d, want 2", n)
	}
}

func TestCacheSeedAddsResolvedAddresses(t *testing.T) {
	path := filepath.Join(t.TempDir(), "peers.json")
	c, _, _ := CreateOrOpen(path)

	resolve := func(host string) ([]string, error) {
		return []string{"1.2.3.4", "5.6.7.8"}, nil
	}
	if err := c.Seed([]string{"seed.example.com"}, "8333", SourceDNS, resolve); err != nil {
		t.Fatalf("Seed: %v", err)
	}
	if c.Len() != 2 {
		t.Fatalf("got %d entries, want 2", c.Len())
	}
}

func TestCacheSeedFailsWhenNoAddressResolved(t *testing.T) {
	path := filepath.Join(t.TempDir(), "peers.json")
	c, _, _ := CreateOrOpen(path)

	resolve := func(host string) ([]string, error) {
		return nil, errors.New("nxdomain")
	}
	if err := c.Seed([]string{"bad.example.com"}, "8333", SourceDNS, resolve); err == nil {
		t.Fatal("expected Seed to fail when every seed fails to resolve")
	}
}

func TestCacheSeedToleratesPartialFailure(t *testing.T) {
	path := filepath.Join(t.TempDir(), "peers.json")
	c, _, _ := CreateOrOpen(path)

	resolve := func(host string) ([]string, error) {
		if host == "good.example.com" {
			return []string{"9.9.9.9"}, nil
		}
		return nil, errors.New("nxdomain")
	}
	err := c.Seed([]string{"bad.example.com", "good.example.com"}, "8333", SourceDNS, resolve)
	if err != nil {
		t.Fatalf("Seed: %v, want nil since one seed succeeded", err)
	}
	if c.Len() != 1 {
		t.Fatalf("got %d entries, want 1", c.Len())
	}
}
