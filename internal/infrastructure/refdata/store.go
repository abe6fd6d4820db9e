// Package refdata serves country names and trade agreement membership from a YAML
// document, with optional hot reload of an external file.
package refdata

import (
	"context"
	_ "embed"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"sort"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"

	"github.com/kirillkom/tariff-assistant/internal/core/domain"
)

//go:embed data/reference.yaml
var embedded []byte

var countryCode = regexp.MustCompile(`^[A-Z]{2}$`)

type document struct {
	Countries  map[string]string       `yaml:"countries"`
	Agreements []domain.TradeAgreement `yaml:"agreements"`
}

// Store is safe for concurrent use; Reload swaps the whole dataset atomically.
type Store struct {
	data atomic.Pointer[document]
}

// Default returns a store loaded from the built-in reference document.
func Default() *Store {
	doc, err := parse(embedded)
	if err != nil {
		panic(fmt.Sprintf("embedded reference data: %v", err))
	}
	s := &Store{}
	s.data.Store(doc)
	return s
}

// Load reads path, or the built-in document when path is empty.
func Load(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return Default(), nil
	}
	s := &Store{}
	if err := s.Reload(path); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) Reload(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read reference data: %w", err)
	}
	doc, err := parse(raw)
	if err != nil {
		return fmt.Errorf("parse reference data %s: %w", path, err)
	}
	s.data.Store(doc)
	return nil
}

func parse(raw []byte) (*document, error) {
	var doc document
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}
	countries := make(map[string]string, len(doc.Countries))
	for code, name := range doc.Countries {
		code = strings.ToUpper(strings.TrimSpace(code))
		if !countryCode.MatchString(code) {
			return nil, fmt.Errorf("invalid country code %q", code)
		}
		countries[code] = strings.TrimSpace(name)
	}
	if len(countries) == 0 {
		return nil, fmt.Errorf("no countries defined")
	}
	doc.Countries = countries

	for i, a := range doc.Agreements {
		if strings.TrimSpace(a.Code) == "" {
			return nil, fmt.Errorf("agreement %d has no code", i)
		}
		for j, m := range a.Members {
			doc.Agreements[i].Members[j] = strings.ToUpper(strings.TrimSpace(m))
		}
	}
	return &doc, nil
}

// CountryName returns "" for unknown codes.
func (s *Store) CountryName(code string) string {
	return s.data.Load().Countries[strings.ToUpper(strings.TrimSpace(code))]
}

// Countries lists all known countries ordered by name.
func (s *Store) Countries() []domain.Country {
	doc := s.data.Load()
	out := make([]domain.Country, 0, len(doc.Countries))
	for code, name := range doc.Countries {
		out = append(out, domain.Country{Code: code, Name: name})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].Code < out[j].Code
	})
	return out
}

// AgreementsFor returns the agreements both countries are members of, in document order.
func (s *Store) AgreementsFor(origin, destination string) []domain.TradeAgreement {
	origin = strings.ToUpper(strings.TrimSpace(origin))
	destination = strings.ToUpper(strings.TrimSpace(destination))
	if origin == "" || destination == "" || origin == destination {
		return nil
	}
	var out []domain.TradeAgreement
	for _, a := range s.data.Load().Agreements {
		if slices.Contains(a.Members, origin) && slices.Contains(a.Members, destination) {
			a.Members = slices.Clone(a.Members)
			out = append(out, a)
		}
	}
	return out
}

// Watch reloads path whenever it is written or replaced, until ctx is done.
// A reload that fails to parse keeps the previous dataset.
func (s *Store) Watch(ctx context.Context, path string, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create reference watcher: %w", err)
	}
	// Watch the directory so editors that replace the file are still observed.
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		_ = watcher.Close()
		return fmt.Errorf("watch reference dir: %w", err)
	}

	target := filepath.Clean(path)
	go func() {
		defer watcher.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != target || !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
					continue
				}
				if err := s.Reload(path); err != nil {
					logger.Warn("reference_reload_failed", "path", path, "error", err)
					continue
				}
				logger.Info("reference_reloaded", "path", path)
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.Warn("reference_watch_error", "error", err)
			}
		}
	}()
	return nil
}
