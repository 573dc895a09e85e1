package handlers

import (
	"context"
	"fmt"

	"github.com/futig/rag-assistant/internal/entity"
	"github.com/futig/rag-assistant/internal/telegram/render"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

// DocumentHandler turns a document sent to the chat into a file selection
type DocumentHandler struct {
	BaseHandler
	downloader  FileDownloader
	maxFileSize int64
}

func NewDocumentHandler(deps Deps, downloader FileDownloader, maxFileSize int64) *DocumentHandler {
	return &DocumentHandler{
		BaseHandler: newBaseHandler(KindDocument, deps),
		downloader:  downloader,
		maxFileSize: maxFileSize,
	}
}

func (h *DocumentHandler) Handle(ctx context.Context, msg *Message) error {
	doc := msg.Document
	if doc == nil {
		return fmt.Errorf("document handler got message without document")
	}

	if h.maxFileSize > 0 && int64(doc.FileSize) > h.maxFileSize {
		return h.messageSender.Send(ctx, msg.ChatID, render.RenderFileTooLarge(h.maxFileSize), nil)
	}

	file := &entity.SelectedFile{
		Name:        doc.FileName,
		ContentType: doc.MimeType,
		Size:        int64(doc.FileSize),
	}

	s := h.session(msg.ChatID)

	// Non-PDFs are rejected on their declared type, no need to fetch them.
	// Neither is a PDF that would arrive during an upload.
	if file.IsPDF() {
		if s.Snapshot().Upload.Status.IsPending() {
			return entity.ErrUploadInProgress
		}

		content, err := h.downloader.Download(ctx, doc.FileID)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrDownload, err)
		}
		file.Content = content
		file.Size = int64(len(content))
	}

	if err := s.Dispatch(ctx, entity.Intent{Type: entity.IntentSelectFile, File: file}); err != nil {
		return err
	}

	m := h.model(s)
	ctxzap.Info(ctx, "file selected",
		zap.String("filename", file.Name),
		zap.Int64("size", file.Size),
	)

	return h.reply(ctx, msg.ChatID, render.RenderFileSelected(m), m)
}
