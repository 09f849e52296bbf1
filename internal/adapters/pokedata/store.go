package pokedata

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	json "github.com/goccy/go-json"

	"github.com/okian/rosterpipe/internal/atomicfile"
	"github.com/okian/rosterpipe/internal/errs"
)

const (
	metaFile      = "current.json"
	payloadPrefix = "payload-"

	opRead = "pokedata.read"
)

// Key identifies a cached document. Pages that are not division standings
// use a reserved division segment.
type Key struct {
	Tournament string
	Division   string
}

// Reserved key segments.
const (
	indexSegment = "_index"
	pageSegment  = "_page"
)

func (k Key) String() string { return k.Tournament + "/" + k.Division }

var segment = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

func (k Key) validate() error {
	if !segment.MatchString(k.Tournament) || !segment.MatchString(k.Division) {
		return fmt.Errorf("%w: %q", ErrInvalidKey, k.String())
	}
	return nil
}

// Entry is a cached document.
type Entry struct {
	Key       Key
	URL       string
	ETag      string
	Hash      string // sha256 of Payload, hex
	FetchedAt time.Time
	Payload   []byte
}

type meta struct {
	Hash      string    `json:"hash"`
	File      string    `json:"file"`
	Bytes     int       `json:"bytes"`
	URL       string    `json:"url"`
	ETag      string    `json:"etag,omitempty"`
	FetchedAt time.Time `json:"fetchedAt"`
}

// diskStore keeps one directory per key holding content-addressed payload
// files and a current.json naming the live one. The pointer is swapped with
// a rename so readers never see a partial entry.
type diskStore struct {
	root string
}

func (s diskStore) dir(k Key) string { return filepath.Join(s.root, k.Tournament, k.Division) }

// read returns the live entry of k. A missing entry is ErrMiss; a payload
// whose hash does not match its pointer is a cache corruption error.
func (s diskStore) read(k Key) (Entry, error) {
	dir := s.dir(k)
	raw, err := os.ReadFile(filepath.Join(dir, metaFile))
	if errors.Is(err, os.ErrNotExist) {
		return Entry{}, ErrMiss
	}
	if err != nil {
		return Entry{}, errs.CacheCorruption(opRead, k.String(), err)
	}
	var m meta
	if err := json.Unmarshal(raw, &m); err != nil {
		return Entry{}, errs.CacheCorruption(opRead, k.String(), err)
	}
	payload, err := os.ReadFile(filepath.Join(dir, filepath.Base(m.File)))
	if err != nil {
		return Entry{}, errs.CacheCorruption(opRead, k.String(), err)
	}
	if sum := hash(payload); sum != m.Hash {
		return Entry{}, errs.CacheCorruption(opRead, k.String(), fmt.Errorf("hash %s, want %s", sum[:12], short(m.Hash)))
	}
	return Entry{Key: k, URL: m.URL, ETag: m.ETag, Hash: m.Hash, FetchedAt: m.FetchedAt, Payload: payload}, nil
}

// write stores payload as the live entry of k and removes superseded
// payload files.
func (s diskStore) write(k Key, e Entry) (Entry, error) {
	dir := s.dir(k)
	e.Key = k
	e.Hash = hash(e.Payload)
	m := meta{
		Hash:      e.Hash,
		File:      payloadPrefix + e.Hash + ext(e.URL),
		Bytes:     len(e.Payload),
		URL:       e.URL,
		ETag:      e.ETag,
		FetchedAt: e.FetchedAt.UTC(),
	}

	payloadPath := filepath.Join(dir, m.File)
	if _, err := os.Stat(payloadPath); err != nil || hashFile(payloadPath) != e.Hash {
		if err := atomicfile.Write(payloadPath, e.Payload, 0o644); err != nil {
			return Entry{}, fmt.Errorf("write payload: %w", err)
		}
	}
	raw, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return Entry{}, fmt.Errorf("encode meta: %w", err)
	}
	if err := atomicfile.Write(filepath.Join(dir, metaFile), raw, 0o644); err != nil {
		return Entry{}, fmt.Errorf("write meta: %w", err)
	}

	if olds, _ := filepath.Glob(filepath.Join(dir, payloadPrefix+"*")); len(olds) > 0 {
		for _, p := range olds {
			if filepath.Base(p) != m.File {
				_ = os.Remove(p)
			}
		}
	}
	return e, nil
}

func hash(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

func hashFile(path string) string {
	b, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	return hash(b)
}

func short(h string) string {
	if len(h) > 12 {
		return h[:12]
	}
	return h
}

// ext keeps the document extension for readability on disk.
func ext(url string) string {
	switch {
	case strings.HasSuffix(url, ".json"):
		return ".json"
	default:
		return ".html"
	}
}
