package registry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"slices"
	"sync"

	"github.com/bcnelson/pkg-groups/internal/hujsonfile"
	"go.uber.org/zap"
)

// FileShim is a registry backed by a HuJSON snapshot file. It stands in for a
// host extension manager in tests and offline runs: Enable and Disable
// rewrite the file's disabled list.
type FileShim struct {
	*Static

	filePath string
	logger   *zap.Logger
	writeMu  sync.Mutex
}

// Ensure FileShim implements Registry and Applier.
var (
	_ Registry = (*FileShim)(nil)
	_ Applier  = (*FileShim)(nil)
)

// NewFileShim creates a shim for filePath and loads it. A missing file is an
// empty registry.
func NewFileShim(ctx context.Context, filePath string, logger *zap.Logger) (*FileShim, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	f := &FileShim{
		Static:   NewStatic(nil, nil, nil),
		filePath: filePath,
		logger:   logger,
	}
	if err := f.Reload(ctx); err != nil {
		return nil, err
	}
	return f, nil
}

// Reload re-reads the snapshot file.
func (f *FileShim) Reload(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := hujsonfile.Read(f.filePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			f.load(Snapshot{})
			return nil
		}
		return fmt.Errorf("reading registry file: %w", err)
	}

	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return fmt.Errorf("parsing registry file: %w", err)
	}
	f.load(snap)
	f.logger.Debug("registry loaded",
		zap.String("path", f.filePath),
		zap.Int("available", len(snap.Available)),
		zap.Int("disabled", len(snap.Disabled)),
	)
	return nil
}

// Enable marks id enabled. The in-memory flag changes only once the file
// has been written.
func (f *FileShim) Enable(ctx context.Context, id string) error {
	return f.update(ctx, id, false)
}

// Disable marks id disabled. The in-memory flag changes only once the file
// has been written.
func (f *FileShim) Disable(ctx context.Context, id string) error {
	return f.update(ctx, id, true)
}

func (f *FileShim) update(ctx context.Context, id string, disabled bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f.writeMu.Lock()
	defer f.writeMu.Unlock()

	snap := f.Snapshot()
	snap.Disabled = slices.DeleteFunc(snap.Disabled, func(d string) bool { return d == id })
	if disabled {
		snap.Disabled = append(snap.Disabled, id)
		slices.Sort(snap.Disabled)
	}
	if err := f.write(snap); err != nil {
		return err
	}
	if disabled {
		return f.Static.Disable(ctx, id)
	}
	return f.Static.Enable(ctx, id)
}

// write stores snap in the file. Callers hold writeMu.
func (f *FileShim) write(snap Snapshot) error {
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling registry: %w", err)
	}
	if err := os.WriteFile(f.filePath, data, 0o644); err != nil {
		return fmt.Errorf("writing registry file: %w", err)
	}
	f.logger.Info("registry written", zap.String("path", f.filePath))
	return nil
}
