// Package storage keeps the local journal of accepted submissions.
package storage

import (
	"fmt"
	"strings"
	"time"

	"github.com/atanenl/portabase-go/internal/domain"
)

// Journal remembers submissions by fingerprint for a limited time.
type Journal interface {
	Close() error
	Get(fingerprint string) (domain.Receipt, bool, error)
	Record(receipt domain.Receipt) error
}

// Options controls retention characteristics for concrete journal implementations.
type Options struct {
	TTL             time.Duration
	CleanupInterval time.Duration
}

const (
	defaultTTL             = 30 * 24 * time.Hour
	defaultCleanupInterval = 24 * time.Hour
)

// NewJournal creates the configured storage backend.
func NewJournal(typ, path string, opts Options) (Journal, error) {
	typ = strings.TrimSpace(strings.ToLower(typ))
	opts = normalizeOptions(opts)

	switch typ {
	case "", "none", "disabled":
		return noopJournal{}, nil
	case "bbolt":
		if strings.TrimSpace(path) == "" {
			return nil, fmt.Errorf("bbolt storage requires a path")
		}
		return openBolt(path, opts)
	default:
		return nil, fmt.Errorf("unsupported storage type %q", typ)
	}
}

func normalizeOptions(opts Options) Options {
	if opts.TTL <= 0 {
		opts.TTL = defaultTTL
	}
	if opts.CleanupInterval <= 0 {
		opts.CleanupInterval = defaultCleanupInterval
	}
	return opts
}

type noopJournal struct{}

func (noopJournal) Close() error                             { return nil }
func (noopJournal) Get(string) (domain.Receipt, bool, error) { return domain.Receipt{}, false, nil }
func (noopJournal) Record(domain.Receipt) error              { return nil }
