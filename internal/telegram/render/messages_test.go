package render

import (
	"testing"

	"github.com/futig/rag-assistant/internal/view"
	"github.com/stretchr/testify/assert"
)

func TestRenderAnswer(t *testing.T) {
	panel := view.QueryPanel{
		Answer: &view.AnswerView{
			Text:        "Paris is the capital.",
			Sources:     []string{"geo.pdf", "atlas.pdf"},
			ContextInfo: "Used 2 contexts",
		},
	}

	expected := "💡 Answer\n\nParis is the capital.\n\n📚 Sources\n• geo.pdf\n• atlas.pdf\n\nUsed 2 contexts"
	assert.Equal(t, expected, RenderAnswer(panel))
}

func TestRenderAnswer_NoSources(t *testing.T) {
	panel := view.QueryPanel{Answer: &view.AnswerView{Text: "Nothing found.", Sources: []string{}}}

	assert.Equal(t, "💡 Answer\n\nNothing found.", RenderAnswer(panel))
}

func TestRenderAnswer_Error(t *testing.T) {
	assert.Equal(t, "❌ Query failed: Bad Gateway", RenderAnswer(view.QueryPanel{Error: "Query failed: Bad Gateway"}))
	assert.Empty(t, RenderAnswer(view.QueryPanel{}))
}

func TestRenderActivity(t *testing.T) {
	assert.Equal(t, MsgNoActivity, RenderActivity(view.ActivityPanel{}))

	panel := view.ActivityPanel{
		Visible: true,
		Items: []view.ActivityItem{
			{Icon: "➤", Message: `Query: "hi"`, Time: "10:00:02"},
			{Icon: "✅", Message: "Uploaded: a.pdf", Time: "10:00:01"},
		},
	}

	assert.Equal(t, "🕑 Recent Activity\n\n➤ Query: \"hi\" · 10:00:02\n✅ Uploaded: a.pdf · 10:00:01", RenderActivity(panel))
}

func TestRenderFileSelected(t *testing.T) {
	m := view.Model{Upload: view.UploadPanel{FileLabel: "a.pdf (2 pages)"}}
	assert.Contains(t, RenderFileSelected(m), "Selected: a.pdf (2 pages)")
	assert.Contains(t, RenderFileSelected(m), "Upload & Process")
}

func TestRenderUploadStatus(t *testing.T) {
	assert.Empty(t, RenderUploadStatus(view.UploadPanel{}))
	assert.Equal(t, "❌ Error: Upload failed: Not Found", RenderUploadStatus(view.UploadPanel{Icon: "❌", Message: "Error: Upload failed: Not Found"}))
}

func TestRenderRateLimitWarning(t *testing.T) {
	assert.Equal(t, ErrRateLimitFirst, RenderRateLimitWarning(1))
	assert.Equal(t, ErrRateLimitSecond, RenderRateLimitWarning(2))
	assert.Equal(t, ErrRateLimitRepeated, RenderRateLimitWarning(5))
}

func TestRenderFileTooLarge(t *testing.T) {
	assert.Equal(t, "❌ The file is too large (limit 20 MB).", RenderFileTooLarge(20*1024*1024))
}
