package platform

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aretw0/daybook/pkg/adapters/fs"
	"github.com/aretw0/daybook/pkg/adapters/sqlite"
	"github.com/aretw0/daybook/pkg/core"
)

// New builds a ready-to-use service for the data directory dir ("" means
// DefaultDataDir). The persisted aggregate is loaded; when it is missing or
// cannot be read the service starts from defaults and the failure is logged.
//
//	svc, err := platform.New("", platform.WithLogger(logger))
func New(dir string, opts ...Option) (*core.Service, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}

	repo, err := initRepository(dir, o)
	if err != nil {
		return nil, err
	}

	service := core.NewService(repo, o.serviceOptions()...)
	if err := service.Load(context.Background()); err != nil {
		logger := o.loggerOrDiscard()
		logger.Error("failed to load app data, starting from defaults", "path", repo.Location(), "error", err)
		if errors.Is(err, core.ErrCorrupt) {
			preserveCorrupt(repo, o)
		}
	}
	return service, nil
}

// Init builds and initializes the repository New would use, without loading.
func Init(dir string, opts ...Option) (core.Repository, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	return initRepository(dir, o)
}

func initRepository(dir string, o *options) (core.Repository, error) {
	if o.repository != nil {
		return o.repository, nil
	}

	path, err := o.resolveDir(dir)
	if err != nil {
		return nil, err
	}

	var repo core.Repository
	switch o.adapter {
	case AdapterFS, "":
		repo = fs.NewRepository(fs.Config{
			Path:         path,
			MustExist:    o.mustExist,
			ReadOnly:     o.readOnly,
			SkipSchema:   !o.schemaValidation,
			Logger:       o.logger,
			ErrorHandler: o.watchErrors,
		})
	case AdapterSQLite:
		repo = sqlite.NewRepository(sqlite.Config{
			Path:     path,
			ReadOnly: o.readOnly,
			Logger:   o.logger,
		})
	default:
		return nil, fmt.Errorf("unknown adapter: %s", o.adapter)
	}

	if err := repo.Initialize(context.Background()); err != nil {
		return nil, err
	}
	return repo, nil
}

// resolveDir applies the default location and the dev sandbox.
func (o *options) resolveDir(dir string) (string, error) {
	if dir == "" {
		def, err := DefaultDataDir()
		if err != nil {
			return "", err
		}
		dir = def
	}

	// Read-only access cannot damage anything; it reads the real path.
	bypassSafety := o.readOnly || !o.devSafety
	useTemp := o.forceTemp || (IsDevRun() && !bypassSafety)
	resolved := ResolveDataDir(dir, useTemp)

	if o.logger != nil && IsDevRun() {
		switch {
		case useTemp:
			o.logger.Debug("running in SAFE mode (dev sandbox enabled)", "original_path", dir, "resolved_path", resolved)
		case o.readOnly:
			o.logger.Debug("running in READ-ONLY mode (bypassing dev sandbox)", "path", resolved)
		default:
			o.logger.Warn("running in UNSAFE mode (bypassing dev sandbox)", "path", resolved)
		}
	}
	return resolved, nil
}

// preserveCorrupt copies an unreadable data file aside before the next save
// overwrites it.
func preserveCorrupt(repo core.Repository, o *options) {
	if o.readOnly {
		return
	}
	fsRepo, ok := repo.(*fs.Repository)
	if !ok {
		return
	}
	logger := o.loggerOrDiscard()
	path, err := fsRepo.Backup(time.Now())
	if err != nil {
		logger.Warn("could not back up corrupt data file", "error", err)
		return
	}
	logger.Warn("corrupt data file backed up", "backup", path)
}
