// Package testutil holds fakes and fixtures shared by package tests.
package testutil

import (
	"context"
	"errors"
	"sync"

	"github.com/okian/rosterpipe/internal/adapters/fetch"
	"github.com/okian/rosterpipe/internal/errs"
)

// ErrOffline is returned for URLs the fake is told to fail.
var ErrOffline = errors.New("offline")

// FakeFetcher serves canned documents by URL and counts requests.
type FakeFetcher struct {
	mu     sync.Mutex
	docs   map[string]fakeDoc
	fail   map[string]bool
	calls  map[string]int
	total  int
	OnCall func(url string) // optional hook, called without the lock held
}

type fakeDoc struct {
	body []byte
	etag string
}

// NewFakeFetcher creates an empty fake.
func NewFakeFetcher() *FakeFetcher {
	return &FakeFetcher{
		docs:  map[string]fakeDoc{},
		fail:  map[string]bool{},
		calls: map[string]int{},
	}
}

// Set serves body at url.
func (f *FakeFetcher) Set(url string, body []byte) *FakeFetcher {
	return f.SetWithETag(url, body, "")
}

// SetWithETag serves body at url with an ETag; requests presenting the same
// ETag get a not-modified response.
func (f *FakeFetcher) SetWithETag(url string, body []byte, etag string) *FakeFetcher {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.docs[url] = fakeDoc{body: body, etag: etag}
	delete(f.fail, url)
	return f
}

// Fail makes every request to url fail with a network error.
func (f *FakeFetcher) Fail(url string) *FakeFetcher {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fail[url] = true
	return f
}

// FailAll makes every request fail.
func (f *FakeFetcher) FailAll() *FakeFetcher {
	f.mu.Lock()
	defer f.mu.Unlock()
	for url := range f.docs {
		f.fail[url] = true
	}
	f.docs = map[string]fakeDoc{}
	return f
}

// Calls returns the number of requests made for url.
func (f *FakeFetcher) Calls(url string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[url]
}

// Total returns the number of requests made.
func (f *FakeFetcher) Total() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.total
}

// Fetch implements fetch.Fetcher.
func (f *FakeFetcher) Fetch(ctx context.Context, req fetch.Request) (fetch.Response, error) {
	if hook := f.OnCall; hook != nil {
		hook(req.URL)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[req.URL]++
	f.total++

	if err := ctx.Err(); err != nil {
		return fetch.Response{}, errs.Network("fake.fetch", req.URL, err)
	}
	if f.fail[req.URL] {
		return fetch.Response{}, errs.Network("fake.fetch", req.URL, ErrOffline)
	}
	doc, ok := f.docs[req.URL]
	if !ok {
		return fetch.Response{}, errs.Network("fake.fetch", req.URL, errors.New("unexpected status 404"))
	}
	if doc.etag != "" && req.ETag == doc.etag {
		return fetch.Response{URL: req.URL, Status: 304, ETag: doc.etag, NotModified: true}, nil
	}
	body := append([]byte(nil), doc.body...)
	return fetch.Response{URL: req.URL, Status: 200, Body: body, ETag: doc.etag}, nil
}
