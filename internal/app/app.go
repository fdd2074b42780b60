// Package app wires a labeling session to its configured collaborators: the
// input file, the decision journal and the optional graph export.
package app

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/agenthands/clustercheck/internal/codec"
	"github.com/agenthands/clustercheck/internal/config"
	"github.com/agenthands/clustercheck/internal/core"
	"github.com/agenthands/clustercheck/internal/core/model"
	"github.com/agenthands/clustercheck/internal/driver"
	"github.com/agenthands/clustercheck/internal/journal"
)

type App struct {
	Config  *config.Config
	Session *core.Session
	// Journal, Driver and Publisher are nil when not configured.
	Journal   *journal.Journal
	Driver    *driver.MemgraphDriver
	Publisher *driver.Publisher

	logger *zap.Logger
}

// Open starts a new session over the clustering in input.
func Open(ctx context.Context, cfg *config.Config, input string, logger *zap.Logger) (*App, error) {
	return open(ctx, cfg, input, "", logger)
}

// Resume rebuilds session sessionID from the journal by replaying its
// decisions over input. New decisions continue the same journal sequence.
func Resume(ctx context.Context, cfg *config.Config, input, sessionID string, logger *zap.Logger) (*App, error) {
	if sessionID == "" {
		return nil, errors.New("resume needs a session id")
	}
	return open(ctx, cfg, input, sessionID, logger)
}

func open(ctx context.Context, cfg *config.Config, input, resumeID string, logger *zap.Logger) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if resumeID != "" && cfg.Journal.Path == "" {
		return nil, errors.New("resume needs a journal")
	}

	pair, err := codec.LoadFile(input, codec.DirLister{})
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", input, err)
	}

	a := &App{Config: cfg, logger: logger}
	if cfg.Journal.Path != "" {
		if err := ensureParent(cfg.Journal.Path); err != nil {
			return nil, err
		}
		if a.Journal, err = journal.New(cfg.Journal.Path, logger); err != nil {
			return nil, err
		}
	}

	info := journal.SessionInfo{
		ID:        resumeID,
		CreatedAt: time.Now().UTC(),
		Trust:     cfg.Session.Trust,
		Seed:      cfg.Session.Seed,
		Source:    input,
	}
	var history []model.Decision
	if resumeID != "" {
		if info, err = a.Journal.Session(ctx, resumeID); err != nil {
			a.Close(ctx)
			return nil, err
		}
		entries, err := a.Journal.Decisions(ctx, resumeID)
		if err != nil {
			a.Close(ctx)
			return nil, err
		}
		for _, e := range entries {
			history = append(history, e.Decision)
		}
	} else {
		info.ID = uuid.New().String()
		if info.Seed == 0 {
			info.Seed = uint64(time.Now().UnixNano())
		}
	}

	opts := core.Options{
		ID:     info.ID,
		Trust:  info.Trust,
		Rand:   rand.New(rand.NewPCG(info.Seed, info.Seed)),
		Logger: logger,
	}
	if a.Journal != nil {
		opts.Recorder = a.Journal
	}
	if a.Session, err = core.NewSession(pair, opts); err != nil {
		a.Close(ctx)
		return nil, err
	}

	if resumeID != "" {
		if err := a.Session.Replay(ctx, history); err != nil {
			a.Close(ctx)
			return nil, err
		}
	} else if a.Journal != nil {
		if err := a.Journal.CreateSession(ctx, info); err != nil {
			a.Close(ctx)
			return nil, err
		}
	}

	if cfg.Memgraph.URI != "" {
		if err := a.connectGraph(ctx); err != nil {
			a.Close(ctx)
			return nil, err
		}
	}
	return a, nil
}

func (a *App) connectGraph(ctx context.Context) error {
	m := a.Config.Memgraph
	d, err := driver.NewMemgraphDriver(ctx, m.URI, m.User, m.Password, a.logger)
	if err != nil {
		return fmt.Errorf("failed to connect to memgraph: %w", err)
	}
	if err := d.BuildIndices(ctx); err != nil {
		d.Close(ctx)
		return err
	}
	a.Driver = d
	a.Publisher = driver.NewPublisher(d, a.logger)
	return nil
}

// PartitionPublisher returns the publisher as an interface value, nil when
// graph export is off.
func (a *App) PartitionPublisher() core.PartitionPublisher {
	if a.Publisher == nil {
		return nil
	}
	return a.Publisher
}

func (a *App) Close(ctx context.Context) error {
	var errs []error
	if a.Driver != nil {
		errs = append(errs, a.Driver.Close(ctx))
	}
	if a.Journal != nil {
		errs = append(errs, a.Journal.Close())
	}
	return errors.Join(errs...)
}

func ensureParent(path string) error {
	if path == ":memory:" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create journal dir: %w", err)
	}
	return nil
}
