// Package refdata maintains versioned local snapshots of the Showdown
// reference datasets and resolves display names against them.
//
// Snapshots live under <root>/snapshots/<version>/ next to a manifest
// recording each file's URL, ETag and sha256. A CURRENT file names the
// active version. Refreshes download into a staging directory that is
// renamed into place only after every dataset decodes, so a failed refresh
// never disturbs the previous snapshot.
package refdata

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/okian/rosterpipe/internal/adapters/fetch"
	"github.com/okian/rosterpipe/internal/atomicfile"
	"github.com/okian/rosterpipe/internal/errs"
	"github.com/okian/rosterpipe/pkg/logger"
	"github.com/okian/rosterpipe/pkg/metrics"
)

// Default store configuration constants.
const (
	DefaultBaseURL     = "https://play.pokemonshowdown.com/data"
	defaultKeep        = 3
	defaultConcurrency = 4

	snapshotsDir  = "snapshots"
	currentFile   = "CURRENT"
	manifestFile  = "manifest.json"
	stagingPrefix = ".staging-"

	opRefresh = "refdata.refresh"
	opLoad    = "refdata.load"
)

// FileInfo describes one stored dataset.
type FileInfo struct {
	Name   string `json:"name"`
	URL    string `json:"url"`
	SHA256 string `json:"sha256"`
	ETag   string `json:"etag,omitempty"`
	Bytes  int    `json:"bytes"`
}

// Manifest describes a snapshot version.
type Manifest struct {
	Version   string              `json:"version"`
	CreatedAt time.Time           `json:"createdAt"`
	Source    string              `json:"source"`
	Files     map[string]FileInfo `json:"files"`
}

// Status reports the outcome of DownloadOrUpdateAll.
type Status struct {
	Version string
	// Refreshed is set when a new snapshot was committed.
	Refreshed bool
	// Stale is set when a refresh failed and the previous snapshot remains.
	Stale bool
}

// Store owns the on-disk snapshots.
type Store struct {
	root        string
	baseURL     string
	fetcher     fetch.Fetcher
	aliases     *AliasTable
	keep        int
	concurrency int
	now         func() time.Time
	logger      logger.Logger

	mu sync.Mutex
}

// NewStore creates a store rooted at root.
func NewStore(root string, fetcher fetch.Fetcher, opts ...Option) *Store {
	s := &Store{
		root:        root,
		baseURL:     DefaultBaseURL,
		fetcher:     fetcher,
		keep:        defaultKeep,
		concurrency: defaultConcurrency,
		now:         time.Now,
		logger:      logger.Nop(),
	}

	// Apply all options
	for _, opt := range opts {
		opt(s)
	}

	if s.aliases == nil {
		s.aliases = DefaultAliases()
	}
	s.baseURL = strings.TrimRight(s.baseURL, "/")
	return s
}

// DownloadOrUpdateAll ensures a usable snapshot exists. Without force an
// existing snapshot is kept as is and no request is made. With force every
// dataset is revalidated; on failure the previous snapshot stays current and
// the status is marked stale. It fails only when no usable snapshot exists.
func (s *Store) DownloadOrUpdateAll(ctx context.Context, force bool) (Status, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, err := s.current()
	have := err == nil
	if err != nil && !errors.Is(err, ErrNoSnapshot) {
		s.logger.Warn(ctx, "ignoring unreadable snapshot", logger.Error(err))
	}
	if have && !force {
		return Status{Version: cur.Version}, nil
	}

	var prev *Manifest
	if have {
		prev = &cur
	}
	m, err := s.refresh(ctx, prev)
	if err != nil {
		metrics.RecordSnapshotRefresh("failed")
		if have {
			s.logger.Warn(ctx, "reference refresh failed; keeping previous snapshot",
				logger.String("version", cur.Version), logger.Error(err))
			return Status{Version: cur.Version, Stale: true}, nil
		}
		return Status{}, errs.Network(opRefresh, s.baseURL, err)
	}

	metrics.RecordSnapshotRefresh("updated")
	s.logger.Info(ctx, "reference snapshot committed", logger.String("version", m.Version))
	if err := s.prune(m.Version); err != nil {
		s.logger.Warn(ctx, "pruning old snapshots failed", logger.Error(err))
	}
	return Status{Version: m.Version, Refreshed: true}, nil
}

// refresh downloads every dataset into a staging directory, decodes them and
// commits the result as a new version.
func (s *Store) refresh(ctx context.Context, prev *Manifest) (Manifest, error) {
	base := filepath.Join(s.root, snapshotsDir)
	staging := filepath.Join(base, stagingPrefix+uuid.NewString())
	if err := os.MkdirAll(staging, 0o755); err != nil {
		return Manifest{}, fmt.Errorf("create staging dir: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = os.RemoveAll(staging)
		}
	}()

	files, raw, err := s.downloadAll(ctx, staging, prev)
	if err != nil {
		return Manifest{}, err
	}
	if _, err := DecodeDatasets(raw); err != nil {
		return Manifest{}, err
	}

	m := Manifest{
		Version:   s.version(files),
		CreatedAt: s.now().UTC(),
		Source:    s.baseURL,
		Files:     files,
	}
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return Manifest{}, fmt.Errorf("encode manifest: %w", err)
	}
	if err := os.WriteFile(filepath.Join(staging, manifestFile), data, 0o644); err != nil {
		return Manifest{}, fmt.Errorf("write manifest: %w", err)
	}

	final := filepath.Join(base, m.Version)
	if _, err := os.Stat(final); err == nil {
		// Identical content committed in the same second.
		_ = os.RemoveAll(staging)
	} else if err := os.Rename(staging, final); err != nil {
		return Manifest{}, fmt.Errorf("commit snapshot: %w", err)
	}
	committed = true

	if err := atomicfile.Write(filepath.Join(s.root, currentFile), []byte(m.Version+"\n"), 0o644); err != nil {
		return Manifest{}, fmt.Errorf("update %s: %w", currentFile, err)
	}
	return m, nil
}

func (s *Store) downloadAll(ctx context.Context, staging string, prev *Manifest) (map[string]FileInfo, map[string][]byte, error) {
	var (
		mu    sync.Mutex
		files = make(map[string]FileInfo, len(datasets))
		raw   = make(map[string][]byte, len(datasets))
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for _, d := range datasets {
		g.Go(func() error {
			info, body, err := s.download(gctx, d, prev)
			if err != nil {
				return err
			}
			if err := os.WriteFile(filepath.Join(staging, d.file()), body, 0o644); err != nil {
				return fmt.Errorf("write %s: %w", d.file(), err)
			}
			mu.Lock()
			files[d.name] = info
			raw[d.name] = body
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return files, raw, nil
}

// download fetches one dataset, reusing the previous copy on 304.
func (s *Store) download(ctx context.Context, d dataset, prev *Manifest) (FileInfo, []byte, error) {
	req := fetch.Request{URL: s.baseURL + "/" + d.path}
	var old FileInfo
	if prev != nil {
		if fi, ok := prev.Files[d.name]; ok {
			old = fi
			req.ETag = fi.ETag
		}
	}

	resp, err := s.fetcher.Fetch(ctx, req)
	if err != nil {
		return FileInfo{}, nil, err
	}
	body := resp.Body
	if resp.NotModified {
		body, err = s.readVerified(prev.Version, old)
		if err != nil {
			// The local copy is damaged; fetch unconditionally.
			req.ETag = ""
			if resp, err = s.fetcher.Fetch(ctx, req); err != nil {
				return FileInfo{}, nil, err
			}
			body = resp.Body
		}
	}
	sum := sha256.Sum256(body)
	return FileInfo{
		Name:   d.file(),
		URL:    req.URL,
		SHA256: hex.EncodeToString(sum[:]),
		ETag:   resp.ETag,
		Bytes:  len(body),
	}, body, nil
}

// version derives a sortable version name from the clock and the content.
func (s *Store) version(files map[string]FileInfo) string {
	names := make([]string, 0, len(files))
	for n := range files {
		names = append(names, n)
	}
	sort.Strings(names)
	h := sha256.New()
	for _, n := range names {
		h.Write([]byte(n + ":" + files[n].SHA256 + "\n"))
	}
	return s.now().UTC().Format("20060102T150405Z") + "-" + hex.EncodeToString(h.Sum(nil))[:8]
}

// Load reads and indexes the current snapshot, verifying every checksum.
func (s *Store) Load(ctx context.Context) (*Snapshot, error) {
	s.mu.Lock()
	m, err := s.current()
	s.mu.Unlock()
	if err != nil {
		return nil, errs.New(errs.KindNotFound, opLoad, s.root, err)
	}

	raw := make(map[string][]byte, len(datasets))
	for _, d := range datasets {
		fi, ok := m.Files[d.name]
		if !ok {
			return nil, errs.CacheCorruption(opLoad, d.name, ErrMissingDataset)
		}
		body, err := s.readVerified(m.Version, fi)
		if err != nil {
			return nil, err
		}
		raw[d.name] = body
	}
	ds, err := DecodeDatasets(raw)
	if err != nil {
		return nil, err
	}
	snap := NewSnapshot(m.Version, ds, s.aliases)
	s.logger.Debug(ctx, "reference snapshot loaded",
		logger.String("version", m.Version), logger.Int("formats", len(snap.formats)), logger.Int("species", len(snap.species)))
	return snap, nil
}

func (s *Store) readVerified(version string, fi FileInfo) ([]byte, error) {
	path := filepath.Join(s.root, snapshotsDir, version, fi.Name)
	body, err := os.ReadFile(path)
	if err != nil {
		return nil, errs.CacheCorruption(opLoad, path, err)
	}
	sum := sha256.Sum256(body)
	if hex.EncodeToString(sum[:]) != fi.SHA256 {
		return nil, errs.CacheCorruption(opLoad, path, ErrChecksumMismatch)
	}
	return body, nil
}

// Current returns the manifest of the active snapshot.
func (s *Store) Current() (Manifest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current()
}

func (s *Store) current() (Manifest, error) {
	ptr, err := os.ReadFile(filepath.Join(s.root, currentFile))
	if errors.Is(err, os.ErrNotExist) {
		return Manifest{}, ErrNoSnapshot
	}
	if err != nil {
		return Manifest{}, fmt.Errorf("read %s: %w", currentFile, err)
	}
	version := strings.TrimSpace(string(ptr))
	data, err := os.ReadFile(filepath.Join(s.root, snapshotsDir, version, manifestFile))
	if err != nil {
		return Manifest{}, fmt.Errorf("%w: read manifest of %q: %w", ErrNoSnapshot, version, err)
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return Manifest{}, fmt.Errorf("%w: decode manifest of %q: %w", ErrNoSnapshot, version, err)
	}
	return m, nil
}

// prune removes all but the newest keep versions, never the active one, plus
// any staging directory left behind by an interrupted refresh.
func (s *Store) prune(active string) error {
	base := filepath.Join(s.root, snapshotsDir)
	entries, err := os.ReadDir(base)
	if err != nil {
		return err
	}
	var versions []string
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		if strings.HasPrefix(e.Name(), stagingPrefix) {
			_ = os.RemoveAll(filepath.Join(base, e.Name()))
			continue
		}
		versions = append(versions, e.Name())
	}
	sort.Sort(sort.Reverse(sort.StringSlice(versions)))

	var errList []error
	for i, v := range versions {
		if i < s.keep || v == active {
			continue
		}
		if err := os.RemoveAll(filepath.Join(base, v)); err != nil {
			errList = append(errList, err)
		}
	}
	return errors.Join(errList...)
}
