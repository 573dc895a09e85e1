package entity

import (
	"time"
)

// PDFContentType is the only declared media type accepted for upload.
const PDFContentType = "application/pdf"

// DefaultTopK is the number of contexts requested for every question.
const DefaultTopK = 5

type UploadStatus string

// Upload status represents the lifecycle of a single PDF submission
const (
	UploadStatusIdle      UploadStatus = "idle"
	UploadStatusUploading UploadStatus = "uploading"
	UploadStatusSuccess   UploadStatus = "success"
	UploadStatusError     UploadStatus = "error"
)

// IsPending reports whether a request is in flight
func (s UploadStatus) IsPending() bool {
	return s == UploadStatusUploading
}

type QueryStatus string

// Query status represents the lifecycle of a single question
const (
	QueryStatusIdle    QueryStatus = "idle"
	QueryStatusLoading QueryStatus = "loading"
	QueryStatusSuccess QueryStatus = "success"
	QueryStatusError   QueryStatus = "error"
)

// IsPending reports whether a request is in flight
func (s QueryStatus) IsPending() bool {
	return s == QueryStatusLoading
}

// SelectedFile is a PDF picked by the user and kept until the next valid selection
type SelectedFile struct {
	Name        string
	ContentType string
	Content     []byte
	Size        int64
	Pages       int // 0 when the page count could not be read
}

// IsPDF checks the declared media type only
func (f *SelectedFile) IsPDF() bool {
	return f != nil && f.ContentType == PDFContentType
}

// Info returns the displayable part of the file
func (f *SelectedFile) Info() *FileInfo {
	if f == nil {
		return nil
	}

	return &FileInfo{
		Name:  f.Name,
		Size:  f.Size,
		Pages: f.Pages,
	}
}

// FileInfo is the content-free view of a SelectedFile
type FileInfo struct {
	Name  string `json:"name"`
	Size  int64  `json:"size"`
	Pages int    `json:"pages,omitempty"`
}

// UploadState is owned by the upload use case
type UploadState struct {
	Status  UploadStatus `json:"status"`
	Message string       `json:"message,omitempty"`
}

// AnswerResult is passed through from the backend without interpretation
type AnswerResult struct {
	AnswerText  string   `json:"answer"`
	Sources     []string `json:"sources"`
	NumContexts *int     `json:"num_contexts,omitempty"`
}

// QueryState is a tagged union: Answer is set only on success, Error only on failure
type QueryState struct {
	Status QueryStatus   `json:"status"`
	Answer *AnswerResult `json:"answer,omitempty"`
	Error  string        `json:"error,omitempty"`
}

type EventKind string

const (
	EventKindSuccess EventKind = "success"
	EventKindError   EventKind = "error"
	EventKindQuery   EventKind = "query"
)

// ActivityEvent is an immutable entry of the recent activity feed
type ActivityEvent struct {
	ID      string    `json:"id"`
	Kind    EventKind `json:"kind"`
	Message string    `json:"message"`
	Time    time.Time `json:"time"`
}

// Snapshot is an immutable copy of everything a renderer needs
type Snapshot struct {
	SessionID string          `json:"session_id"`
	Version   uint64          `json:"version"`
	Upload    UploadState     `json:"upload"`
	File      *FileInfo       `json:"file,omitempty"`
	Question  string          `json:"question"`
	Query     QueryState      `json:"query"`
	Events    []ActivityEvent `json:"events"`
}
