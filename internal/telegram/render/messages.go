package render

import (
	"fmt"
	"strings"

	"github.com/futig/rag-assistant/internal/view"
)

const (
	// Welcome messages
	MsgWelcome = `👋 Hi! I am the RAG PDF Assistant.

1. Send me a PDF document and press "Upload & Process"
2. Ask any question about your uploaded PDFs as a text message
3. Press "Recent activity" to see what happened so far`

	MsgHelp = `🤖 Bot commands:

/start - Show the welcome message
/help - Show this help
/activity - Show recent activity

How it works:
• Send a PDF as a document to select it
• Press "Upload & Process" to send it for processing
• Write a question and press "Get Answer"`

	// File selection
	MsgFileSelected = `📄 Selected: %s

Press "Upload & Process" when ready.`

	// Question draft
	MsgQuestionSaved = `✍️ Question saved. Press "Get Answer" to ask it.`
	MsgQuestionBusy  = `✍️ Question saved. The previous question is still being answered.`

	// Activity
	MsgNothingToSubmit = `Nothing to submit right now`
	MsgInvalidButton   = `❌ This button is no longer valid`

	MsgActivityTitle = `🕑 Recent Activity`
	MsgNoActivity    = `No activity yet.`

	// Errors
	ErrNotPDF             = `❌ Please select a valid PDF file`
	ErrGeneric            = `❌ Something went wrong. Try again or press /start`
	ErrUnknownCommand     = `❌ Unknown command. Use /help`
	ErrDownload           = `❌ Could not download the file from Telegram. Try sending it again.`
	ErrUploadBusy         = `⏳ An upload is still running. Send the next file when it is done.`
	ErrFileTooLarge       = `❌ The file is too large (limit %d MB).`
	ErrSessionClosed      = `❌ Your session has expired. Send /start to begin again.`
	ErrNetworkIssue       = `❌ Connection problem. Try again a bit later.`
	ErrTimeout            = `❌ The operation took too long. Try again.`
	ErrUnsupportedMessage = `Send me a PDF document or a text question.`
	ErrRateLimitFirst     = `⚠️ Too many requests. Please wait a little.`
	ErrRateLimitSecond    = `⚠️ Rate limit exceeded. Wait ~30 seconds before trying again.`
	ErrRateLimitRepeated  = `🛑 You are sending requests too often. Please wait a minute.`
)

// RenderFileSelected confirms a new selection
func RenderFileSelected(m view.Model) string {
	return fmt.Sprintf(MsgFileSelected, m.Upload.FileLabel)
}

// RenderQuestionSaved confirms a stored question
func RenderQuestionSaved(m view.Model) string {
	if m.Query.Pending {
		return MsgQuestionBusy
	}
	return MsgQuestionSaved
}

// RenderUploadStatus shows the upload panel message with its icon
func RenderUploadStatus(p view.UploadPanel) string {
	if p.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s %s", p.Icon, p.Message)
}

// RenderAnswer formats the query panel: the answer with sources, or the error
func RenderAnswer(p view.QueryPanel) string {
	if p.Error != "" {
		return "❌ " + p.Error
	}
	if p.Answer == nil {
		return ""
	}

	var sb strings.Builder
	sb.WriteString("💡 Answer\n\n")
	sb.WriteString(p.Answer.Text)

	if len(p.Answer.Sources) > 0 {
		sb.WriteString("\n\n📚 Sources\n")
		for _, source := range p.Answer.Sources {
			sb.WriteString("• ")
			sb.WriteString(source)
			sb.WriteString("\n")
		}
	}

	if p.Answer.ContextInfo != "" {
		if len(p.Answer.Sources) == 0 {
			sb.WriteString("\n")
		}
		sb.WriteString("\n")
		sb.WriteString(p.Answer.ContextInfo)
	}

	return strings.TrimRight(sb.String(), "\n")
}

// RenderActivity lists the feed newest first
func RenderActivity(p view.ActivityPanel) string {
	if !p.Visible {
		return MsgNoActivity
	}

	var sb strings.Builder
	sb.WriteString(MsgActivityTitle)
	sb.WriteString("\n")
	for _, item := range p.Items {
		sb.WriteString(fmt.Sprintf("\n%s %s · %s", item.Icon, item.Message, item.Time))
	}
	return sb.String()
}

// RenderFileTooLarge formats the size limit error
func RenderFileTooLarge(limitBytes int64) string {
	return fmt.Sprintf(ErrFileTooLarge, limitBytes/(1024*1024))
}

// RenderRateLimitWarning escalates with every warning sent
func RenderRateLimitWarning(warningCount int) string {
	switch {
	case warningCount <= 1:
		return ErrRateLimitFirst
	case warningCount == 2:
		return ErrRateLimitSecond
	default:
		return ErrRateLimitRepeated
	}
}
