package view

import (
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/futig/rag-assistant/internal/entity"
)

// Captions and placeholders shown by every front end
const (
	NoFileLabel      = "Click to select PDF file"
	UploadButton     = "Upload & Process"
	UploadingButton  = "Processing..."
	QueryButton      = "Get Answer"
	QueryingButton   = "Searching..."
	QueryHint        = "Press Ctrl+Enter to submit"
	QueryPlaceholder = "Ask a question about your uploaded PDFs..."
	ErrorPrefix      = "Error: "
	TimeLayout       = "15:04:05"
)

// Model is everything a renderer draws. It is derived from a Snapshot
// and never fed back into the session.
type Model struct {
	SessionID string        `json:"session_id"`
	Version   uint64        `json:"version"`
	Upload    UploadPanel   `json:"upload"`
	Query     QueryPanel    `json:"query"`
	Activity  ActivityPanel `json:"activity"`
}

type UploadPanel struct {
	HasFile     bool                `json:"has_file"`
	FileLabel   string              `json:"file_label"`
	Status      entity.UploadStatus `json:"status"`
	Icon        string              `json:"icon"`
	CSSClass    string              `json:"css_class"`
	Message     string              `json:"message,omitempty"`
	Pending     bool                `json:"pending"`
	CanUpload   bool                `json:"can_upload"`
	ButtonLabel string              `json:"button_label"`
}

type QueryPanel struct {
	Question    string             `json:"question"`
	Status      entity.QueryStatus `json:"status"`
	Pending     bool               `json:"pending"`
	CanQuery    bool               `json:"can_query"`
	ButtonLabel string             `json:"button_label"`
	Hint        string             `json:"hint"`
	Answer      *AnswerView        `json:"answer,omitempty"`
	Error       string             `json:"error,omitempty"`
}

type AnswerView struct {
	Text        string        `json:"text"`
	HTML        template.HTML `json:"-"`
	Sources     []string      `json:"sources"`
	ContextInfo string        `json:"context_info,omitempty"`
}

type ActivityPanel struct {
	Visible bool           `json:"visible"`
	Items   []ActivityItem `json:"items"`
}

type ActivityItem struct {
	ID       string           `json:"id"`
	Kind     entity.EventKind `json:"kind"`
	Icon     string           `json:"icon"`
	CSSClass string           `json:"css_class"`
	Message  string           `json:"message"`
	Time     string           `json:"time"`
}

var uploadIcons = map[entity.UploadStatus]string{
	entity.UploadStatusIdle:      "📄",
	entity.UploadStatusUploading: "⏳",
	entity.UploadStatusSuccess:   "✅",
	entity.UploadStatusError:     "❌",
}

var eventIcons = map[entity.EventKind]string{
	entity.EventKindSuccess: "✅",
	entity.EventKindError:   "❌",
	entity.EventKindQuery:   "➤",
}

// Project maps a snapshot to its view model. Event times are shown in loc.
func Project(snap entity.Snapshot, loc *time.Location) Model {
	return Model{
		SessionID: snap.SessionID,
		Version:   snap.Version,
		Upload:    projectUpload(snap),
		Query:     projectQuery(snap),
		Activity:  projectActivity(snap.Events, loc),
	}
}

func projectUpload(snap entity.Snapshot) UploadPanel {
	status := snap.Upload.Status
	panel := UploadPanel{
		HasFile:     snap.File != nil,
		FileLabel:   FileLabel(snap.File),
		Status:      status,
		Icon:        uploadIcons[status],
		CSSClass:    "message-" + string(status),
		Message:     snap.Upload.Message,
		Pending:     status.IsPending(),
		CanUpload:   snap.File != nil && !status.IsPending(),
		ButtonLabel: UploadButton,
	}

	if status == entity.UploadStatusError && panel.Message != "" {
		panel.Message = ErrorPrefix + panel.Message
	}
	if panel.Pending {
		panel.ButtonLabel = UploadingButton
	}

	return panel
}

// FileLabel is the name of the selected file with its page count when known
func FileLabel(file *entity.FileInfo) string {
	switch {
	case file == nil:
		return NoFileLabel
	case file.Pages == 1:
		return fmt.Sprintf("%s (1 page)", file.Name)
	case file.Pages > 1:
		return fmt.Sprintf("%s (%d pages)", file.Name, file.Pages)
	default:
		return file.Name
	}
}

func projectQuery(snap entity.Snapshot) QueryPanel {
	state := snap.Query
	panel := QueryPanel{
		Question:    snap.Question,
		Status:      state.Status,
		Pending:     state.Status.IsPending(),
		CanQuery:    strings.TrimSpace(snap.Question) != "" && !state.Status.IsPending(),
		ButtonLabel: QueryButton,
		Hint:        QueryHint,
	}

	if panel.Pending {
		panel.ButtonLabel = QueryingButton
	}

	switch state.Status {
	case entity.QueryStatusSuccess:
		if state.Answer != nil {
			panel.Answer = projectAnswer(state.Answer)
		}
	case entity.QueryStatusError:
		panel.Error = state.Error
	}

	return panel
}

func projectAnswer(answer *entity.AnswerResult) *AnswerView {
	sources := answer.Sources
	if sources == nil {
		sources = []string{}
	}

	return &AnswerView{
		Text:        answer.AnswerText,
		HTML:        Markdown(answer.AnswerText),
		Sources:     sources,
		ContextInfo: ContextInfo(answer.NumContexts),
	}
}

// ContextInfo is empty unless the backend reported a positive context count
func ContextInfo(numContexts *int) string {
	if numContexts == nil || *numContexts <= 0 {
		return ""
	}
	if *numContexts == 1 {
		return "Used 1 context"
	}
	return fmt.Sprintf("Used %d contexts", *numContexts)
}

func projectActivity(events []entity.ActivityEvent, loc *time.Location) ActivityPanel {
	if loc == nil {
		loc = time.Local
	}

	items := make([]ActivityItem, 0, len(events))
	for _, ev := range events {
		items = append(items, ActivityItem{
			ID:       ev.ID,
			Kind:     ev.Kind,
			Icon:     eventIcons[ev.Kind],
			CSSClass: "icon-" + string(ev.Kind),
			Message:  ev.Message,
			Time:     ev.Time.In(loc).Format(TimeLayout),
		})
	}

	return ActivityPanel{
		Visible: len(items) > 0,
		Items:   items,
	}
}
