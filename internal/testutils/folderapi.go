// Package testutils provides shared test infrastructure: a fake folder API
// for unit tests and, with the integration build tag, a MinIO container.
package testutils

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
)

// FolderAPI is an in-memory stand-in for the remote folder service.
//
//	GET /api/folders/{id} serves Folders[id]
//	GET /api/{path}       serves Files[path]
type FolderAPI struct {
	// Folders maps a folder id to its JSON body.
	Folders map[string]string

	// Files maps a remote file path to its contents.
	Files map[string][]byte

	// FailFolders and FailFiles answer 500 on every request.
	FailFolders map[string]bool
	FailFiles   map[string]bool

	// RequireBrowser rejects requests without a browser User-Agent or a
	// Referer, like the real service does.
	RequireBrowser bool

	mu       sync.Mutex
	requests map[string]int
}

// NewFolderAPI returns an empty FolderAPI.
func NewFolderAPI() *FolderAPI {
	return &FolderAPI{
		Folders:     make(map[string]string),
		Files:       make(map[string][]byte),
		FailFolders: make(map[string]bool),
		FailFiles:   make(map[string]bool),
		requests:    make(map[string]int),
	}
}

// AddFolder registers folder id with the given body, encoding it as JSON
// unless it already is a string.
func (a *FolderAPI) AddFolder(t *testing.T, id string, body any) {
	t.Helper()
	if s, ok := body.(string); ok {
		a.Folders[id] = s
		return
	}
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal folder %s: %v", id, err)
	}
	a.Folders[id] = string(data)
}

// Start serves the API until the test ends.
func (a *FolderAPI) Start(t *testing.T) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(a)
	t.Cleanup(server.Close)
	return server
}

// Requests returns how many times urlPath was requested.
func (a *FolderAPI) Requests(urlPath string) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.requests[urlPath]
}

// TotalRequests returns the number of requests served.
func (a *FolderAPI) TotalRequests() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	n := 0
	for _, c := range a.requests {
		n += c
	}
	return n
}

func (a *FolderAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a.mu.Lock()
	a.requests[r.URL.Path]++
	a.mu.Unlock()

	if a.RequireBrowser {
		if !strings.HasPrefix(r.Header.Get("User-Agent"), "Mozilla/") || r.Header.Get("Referer") == "" {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}
	}

	rest, ok := strings.CutPrefix(r.URL.Path, "/api/")
	if !ok {
		http.NotFound(w, r)
		return
	}

	if id, ok := strings.CutPrefix(rest, "folders/"); ok {
		if a.FailFolders[id] {
			http.Error(w, "unavailable", http.StatusInternalServerError)
			return
		}
		body, ok := a.Folders[id]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(body))
		return
	}

	if a.FailFiles[rest] {
		http.Error(w, "unavailable", http.StatusInternalServerError)
		return
	}
	data, ok := a.Files[rest]
	if !ok {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Write(data)
}
