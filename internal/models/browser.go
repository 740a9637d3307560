// Package models contains data structures used across handlers
package models

import (
	"io"
	"net/url"
	"strings"
)

// DirSize is shown in place of a size for folder rows
const DirSize = "[DIR]"

// ListEntry is one row of a directory listing. Name is relative to the
// listed prefix; folders keep their trailing slash.
type ListEntry struct {
	Name         string
	IsDirectory  bool
	SizeBytes    uint64
	SizeHuman    string
	LastModified string
}

// ObjectBody is an object's content, read incrementally by the HTTP layer.
// The caller MUST call Close after reading.
type ObjectBody struct {
	io.ReadCloser
	Size int64
}

// ResultKind tells which variant of ObjectResult is set.
type ResultKind int

const (
	ResultFile ResultKind = iota + 1
	ResultFolder
)

// ObjectResult is what a request path resolved to: exactly one of File or
// Folder, as reported by Kind.
type ObjectResult struct {
	Kind   ResultKind
	File   *ObjectBody
	Folder []ListEntry
}

// FileResult wraps an object body.
func FileResult(body *ObjectBody) ObjectResult {
	return ObjectResult{Kind: ResultFile, File: body}
}

// FolderResult wraps the entries of a listed prefix.
func FolderResult(entries []ListEntry) ObjectResult {
	return ObjectResult{Kind: ResultFolder, Folder: entries}
}

func (r ObjectResult) IsFile() bool   { return r.Kind == ResultFile }
func (r ObjectResult) IsFolder() bool { return r.Kind == ResultFolder }

// Breadcrumb for navigation
type Breadcrumb struct {
	Name string
	Path string
}

// IndexPage is the data handed to the "index" template.
type IndexPage struct {
	Path        string
	BaseHref    string
	IsRoot      bool
	Breadcrumbs []Breadcrumb
	Entries     []ListEntry
}

// NewIndexPage builds the listing page for a resolved folder path (no leading
// or trailing slash, empty for the root).
func NewIndexPage(path string, entries []ListEntry) IndexPage {
	if path == "" {
		return IndexPage{Path: "/", BaseHref: "/", IsRoot: true, Entries: entries}
	}

	var breadcrumbs []Breadcrumb
	href := "/"
	for _, part := range strings.Split(path, "/") {
		if part == "" {
			continue
		}
		// Keys may contain '?' or '#', which must not end the URL path.
		href += url.PathEscape(part) + "/"
		breadcrumbs = append(breadcrumbs, Breadcrumb{
			Name: part,
			Path: href,
		})
	}

	return IndexPage{
		Path:        path + "/",
		BaseHref:    href,
		Breadcrumbs: breadcrumbs,
		Entries:     entries,
	}
}

// ErrorPage is the data handed to the "error" template.
type ErrorPage struct {
	Code    int
	Status  string
	Message string
}
