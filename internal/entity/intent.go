package entity

import "strings"

type IntentType string

// User intents dispatched by the front ends
const (
	IntentSelectFile   IntentType = "select_file"
	IntentSubmitUpload IntentType = "submit_upload"
	IntentSetQuestion  IntentType = "set_question"
	IntentSubmitQuery  IntentType = "submit_query"
	IntentKeyDown      IntentType = "key_down"
)

// TargetQuestion is the focus target of the question input
const TargetQuestion = "question"

// Intent is a single user action. File is only used by IntentSelectFile
// and never travels as JSON. Text is the draft of IntentSetQuestion; the
// query submit intents may carry it too.
type Intent struct {
	Type   IntentType    `json:"type"`
	File   *SelectedFile `json:"-"`
	Text   string        `json:"text,omitempty"`
	Key    string        `json:"key,omitempty"`
	Ctrl   bool          `json:"ctrl,omitempty"`
	Meta   bool          `json:"meta,omitempty"`
	Target string        `json:"target,omitempty"`
}

// IsSubmitShortcut reports whether the key press is modifier+Enter inside the question input
func (i Intent) IsSubmitShortcut() bool {
	return i.Type == IntentKeyDown &&
		i.Target == TargetQuestion &&
		strings.EqualFold(i.Key, "Enter") &&
		(i.Ctrl || i.Meta)
}
