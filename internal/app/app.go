package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/atanenl/portabase-go/internal/config"
	"github.com/atanenl/portabase-go/internal/logger"
	"github.com/atanenl/portabase-go/internal/storage"
	"github.com/atanenl/portabase-go/pkg/portabase"
	"github.com/atanenl/portabase-go/pkg/publishers"
)

// API is the subset of *portabase.Client the app drives.
type API interface {
	ListHosts(ctx context.Context) ([]portabase.Host, error)
	GetHost(ctx context.Context, hostID int) (portabase.Host, error)
	ListManagers(ctx context.Context) ([]portabase.Manager, error)
	SubmitQualification(ctx context.Context, sub portabase.QualificationSubmission) (portabase.Confirmation, error)
}

// App wires the PortaBase client with the local journal, downstream
// publishers and output rendering.
type App struct {
	cfg      *config.Config
	api      API
	journal  storage.Journal
	fanout   *publishers.Fanout
	log      logger.Logger
	renderer *Renderer
	now      func() time.Time
}

// New builds an App from config. The caller must Close it.
func New(ctx context.Context, cfg *config.Config, log logger.Logger, out io.Writer) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	if log == nil {
		log = logger.NopLogger{}
	}
	if out == nil {
		out = os.Stdout
	}
	if err := cfg.RequireCredentials(); err != nil {
		return nil, err
	}

	client, err := portabase.New(portabase.Config{BaseURL: cfg.BaseURL, APIKey: cfg.APIKey}, portabase.WithTimeout(cfg.Timeout))
	if err != nil {
		return nil, fmt.Errorf("init portabase client: %w", err)
	}

	renderer, err := NewRenderer(cfg.Output, out)
	if err != nil {
		return nil, err
	}

	a := &App{
		cfg:      cfg,
		api:      client,
		log:      log,
		renderer: renderer,
		now:      time.Now,
	}
	log.DebugObj("portabase client initialized", "client", map[string]any{
		"base_url": client.BaseURL(),
		"timeout":  cfg.Timeout.String(),
	})
	return a, nil
}

// openSubmissionDeps lazily builds the journal and publishers; read-only
// commands never touch them.
func (a *App) openSubmissionDeps(ctx context.Context) error {
	if a.journal == nil {
		journal, err := storage.NewJournal(a.cfg.StorageType, a.cfg.BBoltPath, storage.Options{
			TTL:             a.cfg.JournalTTL,
			CleanupInterval: a.cfg.JournalCleanupInterval,
		})
		if err != nil {
			return fmt.Errorf("init journal: %w", err)
		}
		a.journal = journal
		a.log.DebugObj("journal initialized", "journal_config", map[string]any{
			"type":        a.cfg.StorageType,
			"path":        a.cfg.BBoltPath,
			"ttl_seconds": int(a.cfg.JournalTTL.Seconds()),
		})
	}

	if a.fanout == nil {
		fanout, err := buildFanout(ctx, a.cfg.PublishersFile, a.log)
		if err != nil {
			return err
		}
		a.fanout = fanout
	}
	return nil
}

func buildFanout(ctx context.Context, path string, log logger.Logger) (*publishers.Fanout, error) {
	if path == "" {
		return publishers.NewFanout(nil), nil
	}

	cfgs, err := publishers.LoadConfigs(path)
	if err != nil {
		return nil, fmt.Errorf("load publishers file: %w", err)
	}
	enabled := publishers.Enabled(cfgs)

	pubClients, err := publishers.BuildAll(ctx, publishers.DefaultRegistry(), enabled, log)
	if err != nil {
		return nil, fmt.Errorf("build publishers: %w", err)
	}

	summaries := make([]map[string]string, 0, len(enabled))
	for _, pubCfg := range enabled {
		summaries = append(summaries, map[string]string{"id": pubCfg.ID, "type": pubCfg.Type})
	}
	log.InfoObj("publishers registry loaded", "publishers_meta", map[string]any{
		"count":      len(summaries),
		"publishers": summaries,
	})
	return publishers.NewFanout(pubClients), nil
}

// Close releases the journal and publishers.
func (a *App) Close() error {
	if a == nil {
		return nil
	}
	var errs []error
	if a.journal != nil {
		if err := a.journal.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close journal: %w", err))
		}
	}
	if a.fanout != nil {
		if err := a.fanout.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close publishers: %w", err))
		}
	}
	return errors.Join(errs...)
}

// ListHosts prints all hosts.
func (a *App) ListHosts(ctx context.Context) error {
	var hosts []portabase.Host
	err := a.call("list_hosts", func() (err error) {
		hosts, err = a.api.ListHosts(ctx)
		return err
	})
	if err != nil {
		return err
	}
	return a.renderer.Records(hosts)
}

// GetHost prints one host. rawID is validated before any request.
func (a *App) GetHost(ctx context.Context, rawID string) error {
	id, err := portabase.ParseHostID(rawID)
	if err != nil {
		return err
	}
	var host portabase.Host
	err = a.call("get_host", func() (err error) {
		host, err = a.api.GetHost(ctx, id)
		return err
	})
	if err != nil {
		return err
	}
	return a.renderer.Record(host)
}

// ListManagers prints all managers.
func (a *App) ListManagers(ctx context.Context) error {
	var managers []portabase.Manager
	err := a.call("list_managers", func() (err error) {
		managers, err = a.api.ListManagers(ctx)
		return err
	})
	if err != nil {
		return err
	}
	return a.renderer.Records(managers)
}

// QualificationTypes prints the recognised qualification codes.
func (a *App) QualificationTypes() error {
	return PrintQualificationTypes(a.renderer)
}

// PrintQualificationTypes renders the type table without a configured client.
func PrintQualificationTypes(r *Renderer) error {
	types := portabase.QualificationTypes()
	records := make([]map[string]any, 0, len(types))
	for _, t := range types {
		records = append(records, map[string]any{"code": string(t), "name": t.Name()})
	}
	return r.Records(records)
}

// call logs one remote operation with its outcome and latency.
func (a *App) call(op string, fn func() error) error {
	start := a.now()
	err := fn()
	meta := map[string]any{
		"operation":  op,
		"elapsed_ms": a.now().Sub(start).Milliseconds(),
	}
	if err != nil {
		meta["error"] = Describe(err)
		a.log.WarnObj("portabase call failed", "call", meta)
		return err
	}
	a.log.InfoObj("portabase call completed", "call", meta)
	return nil
}
