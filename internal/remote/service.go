// Package remote talks to the folder API: GET {base}/api/folders/{id} for
// folder metadata and GET {base}/api/{path} for file contents.
package remote

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	mirrorhttp "github.com/ligustah/treemirror/internal/http"
)

// Service fetches folder metadata from one API origin.
type Service struct {
	baseURL string
	client  *mirrorhttp.Client
	timeout time.Duration
}

// NewService creates a Service for baseURL. timeout bounds each metadata
// attempt.
func NewService(baseURL string, client *mirrorhttp.Client, timeout time.Duration) *Service {
	return &Service{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  client,
		timeout: timeout,
	}
}

// FetchFolder retrieves one folder's metadata. Absent fields come back
// empty; a nil Folder is only returned together with an error.
func (s *Service) FetchFolder(ctx context.Context, id FolderID) (*Folder, error) {
	var f Folder
	if err := s.client.GetJSON(ctx, s.FolderURL(id), s.timeout, &f); err != nil {
		return nil, fmt.Errorf("fetch folder %s: %w", id, err)
	}
	f.ID = id
	return &f, nil
}

// FolderURL returns the metadata endpoint for id.
func (s *Service) FolderURL(id FolderID) string {
	return s.baseURL + "/api/folders/" + url.PathEscape(string(id))
}

// FileURL returns the download URL for a file's remote path. The path is
// used verbatim since the service already returns it URL-encoded.
func (s *Service) FileURL(path string) string {
	return s.baseURL + "/api/" + strings.TrimLeft(path, "/")
}
