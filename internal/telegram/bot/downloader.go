package bot

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	pkghttp "github.com/futig/rag-assistant/pkg/http"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

const downloadTimeout = 2 * time.Minute

// fileDownloader fetches documents from the Telegram file storage.
// File URLs embed the bot token, so requests are never logged.
type fileDownloader struct {
	api       *tgbotapi.BotAPI
	connector *pkghttp.Connector
}

func newFileDownloader(api *tgbotapi.BotAPI, logger *zap.Logger) *fileDownloader {
	return &fileDownloader{
		api: api,
		connector: pkghttp.NewConnector(
			&pkghttp.ConnectorConfig{Logger: logger},
			pkghttp.WithRequestTimeout(downloadTimeout),
			pkghttp.WithUserAgent("rag-assistant-bot/1.0"),
		),
	}
}

func (d *fileDownloader) Download(ctx context.Context, fileID string) ([]byte, error) {
	fileURL, err := d.api.GetFileDirectURL(fileID)
	if err != nil {
		return nil, fmt.Errorf("resolve file %s: %w", fileID, err)
	}

	content, err := d.connector.DoRawRequest(ctx, http.MethodGet, "", pkghttp.WithURL(fileURL))
	if err != nil {
		return nil, fmt.Errorf("fetch file %s: %w", fileID, redactURL(err))
	}

	return content, nil
}

// redactURL hides the token carrying URL of a transport error
func redactURL(err error) error {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		urlErr.URL = "<redacted>"
	}
	return err
}
