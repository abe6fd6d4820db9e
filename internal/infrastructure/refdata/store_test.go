package refdata

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultStoreResolvesCountriesAndAgreements(t *testing.T) {
	s := Default()

	if got := s.CountryName("mx"); got != "Mexico" {
		t.Fatalf("expected Mexico, got %q", got)
	}
	if got := s.CountryName("ZZ"); got != "" {
		t.Fatalf("expected empty name for unknown code, got %q", got)
	}

	agreements := s.AgreementsFor("MX", "US")
	if len(agreements) != 1 || agreements[0].Code != "USMCA" {
		t.Fatalf("unexpected agreements %+v", agreements)
	}
	if got := s.AgreementsFor("CN", "US"); len(got) != 0 {
		t.Fatalf("expected no agreements for CN->US, got %+v", got)
	}
	if got := s.AgreementsFor("US", "US"); got != nil {
		t.Fatalf("expected nil for same-country lane, got %+v", got)
	}
}

func TestCountriesOrderedByName(t *testing.T) {
	countries := Default().Countries()
	for i := 1; i < len(countries); i++ {
		if countries[i-1].Name > countries[i].Name {
			t.Fatalf("countries out of order at %d: %v", i, countries[i-1:i+1])
		}
	}
}

func TestLoadRejectsInvalidCountryCode(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reference.yaml")
	if err := os.WriteFile(path, []byte("countries:\n  MEX: Mexico\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatalf("expected error for three-letter code")
	}
}

func TestWatchReloadsChangedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reference.yaml")
	write := func(body string) {
		t.Helper()
		if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
			t.Fatalf("write: %v", err)
		}
	}
	write("countries:\n  XK: Kosovo\n")

	s, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := s.Watch(ctx, path, nil); err != nil {
		t.Fatalf("Watch() error = %v", err)
	}

	write("countries:\n  XK: Republic of Kosovo\n")

	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if s.CountryName("XK") == "Republic of Kosovo" {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatalf("reference data was not reloaded, got %q", s.CountryName("XK"))
}

func TestReloadKeepsPreviousDataOnEmptyDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reference.yaml")
	if err := os.WriteFile(path, []byte("countries:\n  MX: Mexico\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	s, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if err := os.WriteFile(path, nil, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := s.Reload(path); err == nil {
		t.Fatalf("expected error for empty document")
	}
	if s.CountryName("MX") != "Mexico" {
		t.Fatalf("expected previous dataset to survive a failed reload")
	}
}
