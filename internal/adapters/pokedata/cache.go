// Package pokedata reads tournament standings from the pokedata host through
// a local content-addressed cache.
//
// Division standings are cached without expiry: once fetched they are served
// from disk with no network traffic until a forced refresh. The tournament
// index is revalidated once it is older than the configured index age.
package pokedata

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/okian/rosterpipe/internal/adapters/fetch"
	"github.com/okian/rosterpipe/internal/errs"
	"github.com/okian/rosterpipe/pkg/logger"
	"github.com/okian/rosterpipe/pkg/metrics"
)

// Default cache configuration constants.
const (
	DefaultBaseURL     = "https://www.pokedata.ovh/standingsVGC"
	defaultConcurrency = 4

	opFetch = "pokedata.fetch"
)

// Outcome tags a Result.
type Outcome string

// Result outcomes.
const (
	OutcomeSuccess Outcome = "success"
	OutcomeFailure Outcome = "failure"
)

// Source says where a successful payload came from.
type Source string

// Payload sources.
const (
	SourceNetwork Source = "network"
	SourceCache   Source = "cache"
	// SourceRevalidated is a cached payload the upstream confirmed unchanged.
	SourceRevalidated Source = "revalidated"
)

// Result is the outcome of a cache read. On success Entry holds the payload;
// Stale marks a cached payload served because the upstream could not be
// reached. On failure Kind classifies Err.
type Result struct {
	Outcome Outcome
	Source  Source
	Stale   bool
	Entry   Entry
	Kind    errs.Kind
	Err     error
}

// OK reports whether the result carries a payload.
func (r Result) OK() bool { return r.Outcome == OutcomeSuccess }

func failure(err error) Result {
	kind, ok := errs.KindOf(err)
	if !ok {
		kind = errs.KindNetwork
	}
	return Result{Outcome: OutcomeFailure, Kind: kind, Err: err}
}

// Cache is safe for concurrent use. At most one fetch per key is in flight;
// distinct keys proceed independently.
type Cache struct {
	store       diskStore
	fetcher     fetch.Fetcher
	baseURL     string
	concurrency int
	indexMaxAge time.Duration
	now         func() time.Time
	logger      logger.Logger

	mu    sync.Mutex
	locks map[Key]*sync.Mutex
}

// New creates a cache rooted at root.
func New(root string, fetcher fetch.Fetcher, opts ...Option) *Cache {
	c := &Cache{
		store:       diskStore{root: root},
		fetcher:     fetcher,
		baseURL:     DefaultBaseURL,
		concurrency: defaultConcurrency,
		now:         time.Now,
		logger:      logger.Nop(),
		locks:       map[Key]*sync.Mutex{},
	}

	// Apply all options
	for _, opt := range opts {
		opt(c)
	}

	c.baseURL = strings.TrimRight(c.baseURL, "/")
	return c
}

func (c *Cache) lock(k Key) *sync.Mutex {
	c.mu.Lock()
	defer c.mu.Unlock()
	l, ok := c.locks[k]
	if !ok {
		l = &sync.Mutex{}
		c.locks[k] = l
	}
	return l
}

// DivisionURL returns the upstream location of a division's standings.
func (c *Cache) DivisionURL(tournamentID, division string) string {
	div := strings.ToLower(strings.Trim(division, "/"))
	file := div
	if file != "" {
		file = strings.ToUpper(file[:1]) + file[1:]
	}
	return c.baseURL + "/" + tournamentID + "/" + div + "/" + tournamentID + "_" + file + ".json"
}

// FetchDivisionPage returns the standings document of one tournament
// division. Without force a cached entry is returned with no network call.
// Otherwise the document is fetched and persisted; if that fails a cached
// entry is returned marked stale, else the network error is returned.
func (c *Cache) FetchDivisionPage(ctx context.Context, tournamentID, division string, force bool) (Result, error) {
	key := Key{Tournament: tournamentID, Division: strings.ToLower(division)}
	return c.get(ctx, key, c.DivisionURL(tournamentID, division), force, 0)
}

// get serves key from disk or url. maxAge zero means cached entries never
// expire.
func (c *Cache) get(ctx context.Context, key Key, url string, force bool, maxAge time.Duration) (Result, error) {
	if err := key.validate(); err != nil {
		cerr := errs.Configuration(opFetch, key.String(), err)
		return failure(cerr), cerr
	}

	l := c.lock(key)
	l.Lock()
	defer l.Unlock()

	cached, err := c.store.read(key)
	have := err == nil
	switch {
	case have && !force && (maxAge == 0 || c.now().Sub(cached.FetchedAt) < maxAge):
		metrics.RecordCacheLookup("hit")
		c.logger.Debug(ctx, "cache hit", logger.String("key", key.String()))
		return Result{Outcome: OutcomeSuccess, Source: SourceCache, Entry: cached}, nil
	case errors.Is(err, errs.ErrCacheCorruption):
		metrics.RecordCacheLookup("corrupt")
		c.logger.Warn(ctx, "discarding corrupt cache entry", logger.String("key", key.String()), logger.Error(err))
	case errors.Is(err, ErrMiss):
		metrics.RecordCacheLookup("miss")
		c.logger.Debug(ctx, "cache miss", logger.String("key", key.String()))
	case have:
		metrics.RecordCacheLookup("revalidate")
	}

	req := fetch.Request{URL: url}
	if have {
		req.ETag = cached.ETag
	}
	resp, err := c.fetcher.Fetch(ctx, req)
	if err != nil {
		if have {
			metrics.RecordCacheLookup("stale")
			c.logger.Warn(ctx, "upstream unavailable; serving stale cache entry",
				logger.String("key", key.String()), logger.Error(err))
			return Result{Outcome: OutcomeSuccess, Source: SourceCache, Stale: true, Entry: cached}, nil
		}
		nerr := err
		if _, ok := errs.KindOf(err); !ok {
			nerr = errs.Network(opFetch, url, err)
		}
		return failure(nerr), nerr
	}

	entry := Entry{URL: url, ETag: resp.ETag, FetchedAt: c.now(), Payload: resp.Body}
	source := SourceNetwork
	if resp.NotModified {
		if !have {
			nerr := errs.Network(opFetch, url, ErrNoPayload)
			return failure(nerr), nerr
		}
		entry.Payload = cached.Payload
		if entry.ETag == "" {
			entry.ETag = cached.ETag
		}
		source = SourceRevalidated
	}

	written, err := c.store.write(key, entry)
	if err != nil {
		// The payload is still good for this run.
		c.logger.Warn(ctx, "persisting cache entry failed", logger.String("key", key.String()), logger.Error(err))
		entry.Key = key
		entry.Hash = hash(entry.Payload)
		written = entry
	} else {
		metrics.RecordCacheWrite()
	}
	c.logger.Debug(ctx, "cache stored", logger.String("key", key.String()),
		logger.String("source", string(source)), logger.Int("bytes", len(written.Payload)))
	return Result{Outcome: OutcomeSuccess, Source: source, Entry: written}, nil
}
