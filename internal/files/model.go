// Package files implements the file-management core: the upload pipeline,
// scoped metadata lookups, paginated listing, visibility toggling, and
// content retrieval. Folders and files form a forest rooted at the
// synthetic parent id "0".
package files

import (
	"bytes"
	"encoding/json"
	"mime"
	"path/filepath"
	"strconv"
	"time"
)

// Accepted file types.
const (
	TypeFolder = "folder"
	TypeFile   = "file"
	TypeImage  = "image"
)

// RootParentID is the synthetic parent of top-level entries.
const RootParentID = "0"

// File is the metadata record for one uploaded file or folder.
type File struct {
	ID        string
	UserID    string
	Name      string
	Type      string
	IsPublic  bool
	ParentID  string
	LocalPath string // Content-store key; empty for folders. Never serialized.
	CreatedAt time.Time
}

// IsFolder reports whether the record is a folder (no content).
func (f *File) IsFolder() bool {
	return f.Type == TypeFolder
}

// MimeType resolves the content type from the file name's extension,
// falling back to a generic binary type.
func (f *File) MimeType() string {
	if t := mime.TypeByExtension(filepath.Ext(f.Name)); t != "" {
		return t
	}
	return "application/octet-stream"
}

// Projection is the public view of a File: what show, list, upload, and
// publish responses return. The content path deliberately has no field here.
type Projection struct {
	ID       string `json:"id"`
	UserID   string `json:"userId"`
	Name     string `json:"name"`
	Type     string `json:"type"`
	IsPublic bool   `json:"isPublic"`
	ParentID string `json:"parentId"`
}

// Project converts a File to its public projection.
func Project(f *File) Projection {
	return Projection{
		ID:       f.ID,
		UserID:   f.UserID,
		Name:     f.Name,
		Type:     f.Type,
		IsPublic: f.IsPublic,
		ParentID: f.ParentID,
	}
}

// UploadRequest holds the JSON body of POST /files.
type UploadRequest struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	ParentID FlexID `json:"parentId"`
	IsPublic bool   `json:"isPublic"`
	Data     string `json:"data"` // base64-encoded content; absent for folders.
}

// FlexID is an id field that accepts either a JSON string or a JSON number.
// Clients historically send the root parent as the number 0.
type FlexID string

// UnmarshalJSON implements json.Unmarshaler.
func (id *FlexID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = FlexID(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*id = FlexID(n.String())
	return nil
}

// SizeVariants enumerates the supported pre-generated thumbnail widths, as
// accepted by the content endpoint's size parameter.
var SizeVariants = map[string]bool{
	"100": true,
	"250": true,
	"500": true,
}

// VariantWidths lists the widths the worker generates, largest first.
var VariantWidths = []int{500, 250, 100}

// VariantLabel returns the size label for a width.
func VariantLabel(width int) string {
	return strconv.Itoa(width)
}
