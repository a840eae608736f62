package remote

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
)

// FolderID identifies a remote folder. The service returns numbers, but any
// JSON scalar is accepted.
type FolderID string

// UnmarshalJSON accepts a JSON number, string or null.
func (id *FolderID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*id = ""
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = FolderID(s)
	default:
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return fmt.Errorf("folder id: %w", err)
		}
		*id = FolderID(n.String())
	}
	return nil
}

// Folder is one folder's metadata as returned by GET /api/folders/{id}.
// Every field is optional.
type Folder struct {
	ID      FolderID    `json:"-"`
	Name    string      `json:"name"`
	Files   []File      `json:"files"`
	Folders []FolderRef `json:"folders"`
}

// DisplayName returns the folder name, or fallback when the service sent none.
func (f *Folder) DisplayName(fallback string) string {
	if f.Name != "" {
		return f.Name
	}
	return fallback
}

// File is a downloadable leaf of a folder.
type File struct {
	Path string `json:"path"`
	Name string `json:"name"`
}

// DisplayName returns the explicit name, or the URL-decoded last segment of
// the remote path.
func (f File) DisplayName() string {
	if f.Name != "" {
		return f.Name
	}
	seg := f.Path[strings.LastIndex(f.Path, "/")+1:]
	if decoded, err := url.PathUnescape(seg); err == nil {
		return decoded
	}
	return seg
}

// FolderRef points at a child folder.
type FolderRef struct {
	ID   FolderID `json:"id"`
	Name string   `json:"name"`
}
