package rag

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"

	"github.com/futig/rag-assistant/internal/config"
	"github.com/futig/rag-assistant/internal/entity"
	"github.com/futig/rag-assistant/internal/integration/common"
	pkghttp "github.com/futig/rag-assistant/pkg/http"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

// uploadField is the multipart part name the backend reads the PDF from
const uploadField = "file"

type Connector struct {
	config    config.RAGConnectorConfig
	connector *pkghttp.Connector
	logger    *zap.Logger
}

func NewConnector(
	cfg config.RAGConnectorConfig,
	logger *zap.Logger,
) *Connector {
	return &Connector{
		connector: common.NewBaseConnector(cfg.HTTPClientConfig, logger),
		config:    cfg,
		logger:    logger,
	}
}

// UploadPDF sends one PDF for ingestion
// POST {upload_endpoint} with multipart/form-data, part "file"
// Any 2xx is success; the body is only decoded for logging.
func (c *Connector) UploadPDF(ctx context.Context, file *entity.SelectedFile) error {
	ctxzap.Info(ctx, "uploading PDF to RAG service",
		zap.String("filename", file.Name),
		zap.Int64("size", file.Size),
	)

	prepareBody := func(writer *multipart.Writer) error {
		part, err := writer.CreatePart(filePartHeader(file))
		if err != nil {
			return fmt.Errorf("create form file: %w", err)
		}

		if _, err := part.Write(file.Content); err != nil {
			return fmt.Errorf("write file content: %w", err)
		}
		return nil
	}

	var resp entity.RAGUploadResponse
	err := c.connector.DoMultipartRequest(ctx, http.MethodPost, c.config.UploadEndpoint, prepareBody, &resp)
	if err != nil && !isDecodeError(err) {
		ctxzap.Error(ctx, "failed to upload PDF", zap.Error(err))
		return toBackendError(err)
	}
	if err != nil {
		ctxzap.Warn(ctx, "upload response is not JSON, ignoring body", zap.Error(err))
	}

	ctxzap.Info(ctx, "PDF uploaded successfully",
		zap.String("filename", file.Name),
		zap.String("event_id", resp.EventID),
		zap.Int("chunks_ingested", resp.ChunksIngested),
	)
	return nil
}

// Query asks a question against the already processed documents
// POST {query_endpoint} with {"question": ..., "top_k": ...}
func (c *Connector) Query(ctx context.Context, req *entity.RAGQueryRequest) (*entity.AnswerResult, error) {
	ctxzap.Info(ctx, "querying RAG service", zap.Int("top_k", req.TopK))

	var resp entity.RAGQueryResponse
	err := c.connector.DoRequest(ctx, http.MethodPost, c.config.QueryEndpoint, req, &resp)
	if err != nil {
		ctxzap.Error(ctx, "failed to query RAG service", zap.Error(err))
		return nil, toBackendError(err)
	}

	ctxzap.Info(ctx, "answer received",
		zap.Int("source_count", len(resp.Sources)),
		zap.Int("answer_length", len(resp.Answer)),
	)

	return resp.ToAnswer(), nil
}

// Ping checks that the backend answers its root endpoint
func (c *Connector) Ping(ctx context.Context) error {
	var resp entity.RAGHealthResponse
	if err := c.connector.DoRequest(ctx, http.MethodGet, c.config.HealthEndpoint, nil, &resp); err != nil {
		return toBackendError(err)
	}

	ctxzap.Debug(ctx, "RAG service is reachable", zap.String("message", resp.Message))
	return nil
}

// toBackendError turns a non-2xx answer into entity.BackendError; other
// errors (transport, decoding) are returned unchanged
func toBackendError(err error) error {
	var httpErr *pkghttp.HTTPError
	if !errors.As(err, &httpErr) {
		return err
	}

	var body entity.RAGErrorResponse
	// A non-JSON error body simply has no detail
	_ = json.Unmarshal([]byte(httpErr.Message), &body)

	return &entity.BackendError{
		StatusCode: httpErr.StatusCode,
		Status:     httpErr.Status,
		Detail:     body.DetailString(),
	}
}

func isDecodeError(err error) bool {
	var decodeErr *pkghttp.DecodeError
	return errors.As(err, &decodeErr)
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

// filePartHeader keeps the declared media type instead of the
// application/octet-stream default of CreateFormFile
func filePartHeader(file *entity.SelectedFile) textproto.MIMEHeader {
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition",
		fmt.Sprintf(`form-data; name="%s"; filename="%s"`, uploadField, quoteEscaper.Replace(file.Name)))
	h.Set("Content-Type", file.ContentType)
	return h
}
