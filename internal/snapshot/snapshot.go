// Package snapshot keeps point-in-time copies of the catalog database so a
// run that replaced or duplicated releases can be rolled back by hand.
package snapshot

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"
)

const stampLayout = "20060102-150405"

// namePattern matches snapshot filenames: cadence-YYYYMMDD-HHMMSS.db
var namePattern = regexp.MustCompile(`^cadence-\d{8}-\d{6}\.db$`)

// Info describes one snapshot file.
type Info struct {
	Filename  string    `json:"filename"`
	Size      int64     `json:"size"`
	CreatedAt time.Time `json:"created_at"`
}

// Snapshotter writes and prunes catalog snapshots in a single directory.
type Snapshotter struct {
	db        *sql.DB
	dir       string
	retention int
	now       func() time.Time
	logger    *slog.Logger
}

// New creates a Snapshotter keeping at most retention snapshots in dir.
// A retention below one keeps every snapshot.
func New(db *sql.DB, dir string, retention int, logger *slog.Logger) *Snapshotter {
	return &Snapshotter{
		db:        db,
		dir:       dir,
		retention: retention,
		now:       func() time.Time { return time.Now().UTC() },
		logger:    logger.With(slog.String("component", "snapshot")),
	}
}

// Create writes a consistent copy of the database using VACUUM INTO and
// prunes old snapshots.
func (s *Snapshotter) Create(ctx context.Context) (*Info, error) {
	if err := os.MkdirAll(s.dir, 0o750); err != nil {
		return nil, fmt.Errorf("creating snapshot directory: %w", err)
	}

	created := s.now()
	filename := "cadence-" + created.Format(stampLayout) + ".db"
	dest := filepath.Join(s.dir, filename)

	// VACUUM INTO refuses to overwrite; two runs inside one second share a name.
	if _, err := os.Stat(dest); err == nil {
		s.logger.Debug("snapshot already taken this second", slog.String("filename", filename))
		return s.info(filename, created)
	}

	if _, err := s.db.ExecContext(ctx, "VACUUM INTO ?", dest); err != nil {
		return nil, fmt.Errorf("VACUUM INTO: %w", err)
	}

	info, err := s.info(filename, created)
	if err != nil {
		return nil, err
	}
	s.logger.Info("catalog snapshot written",
		slog.String("filename", filename),
		slog.Int64("size", info.Size))

	if err := s.Prune(); err != nil {
		s.logger.Warn("pruning snapshots", slog.String("error", err.Error()))
	}
	return info, nil
}

func (s *Snapshotter) info(filename string, created time.Time) (*Info, error) {
	st, err := os.Stat(filepath.Join(s.dir, filename))
	if err != nil {
		return nil, fmt.Errorf("stat snapshot: %w", err)
	}
	return &Info{Filename: filename, Size: st.Size(), CreatedAt: created}, nil
}

// List returns the snapshots in the directory, newest first.
func (s *Snapshotter) List() ([]Info, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading snapshot directory: %w", err)
	}

	var out []Info
	for _, entry := range entries {
		if entry.IsDir() || !ValidName(entry.Name()) {
			continue
		}
		fi, err := entry.Info()
		if err != nil {
			continue
		}
		stamp := strings.TrimSuffix(strings.TrimPrefix(entry.Name(), "cadence-"), ".db")
		created, err := time.Parse(stampLayout, stamp)
		if err != nil {
			created = fi.ModTime()
		}
		out = append(out, Info{Filename: entry.Name(), Size: fi.Size(), CreatedAt: created})
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

// Prune removes snapshots beyond the retention count, oldest first.
func (s *Snapshotter) Prune() error {
	if s.retention < 1 {
		return nil
	}
	snaps, err := s.List()
	if err != nil {
		return err
	}
	if len(snaps) <= s.retention {
		return nil
	}
	for _, old := range snaps[s.retention:] {
		if err := os.Remove(filepath.Join(s.dir, old.Filename)); err != nil {
			s.logger.Warn("removing old snapshot",
				slog.String("filename", old.Filename),
				slog.String("error", err.Error()))
			continue
		}
		s.logger.Info("pruned old snapshot", slog.String("filename", old.Filename))
	}
	return nil
}

// ValidName reports whether filename is a snapshot name with no path
// components.
func ValidName(filename string) bool {
	if strings.ContainsAny(filename, `/\`) || strings.Contains(filename, "..") {
		return false
	}
	return namePattern.MatchString(filename)
}
