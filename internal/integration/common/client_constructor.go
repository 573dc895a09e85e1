package common

import (
	"github.com/futig/rag-assistant/internal/config"
	pkgHTTP "github.com/futig/rag-assistant/pkg/http"
	"go.uber.org/zap"
)

const userAgent = "rag-assistant/1.0"

func NewBaseConnector(cfg config.HTTPClientConfig, logger *zap.Logger) *pkgHTTP.Connector {
	connCfg := &pkgHTTP.ConnectorConfig{
		Logger:  logger,
		BaseURL: cfg.Url,
	}

	return pkgHTTP.NewConnector(
		connCfg,
		pkgHTTP.WithTimeouts(pkgHTTP.Timeouts{
			Connect:        cfg.ConnTimeout,
			Request:        cfg.RequestTimeout,
			KeepAlive:      cfg.KeepAlive,
			TLSHandshake:   cfg.TLSHandshakeTimeout,
			ResponseHeader: cfg.ResponseHeaderTimeout,
			IdleConn:       cfg.IdleConnTimeout,
		}),
		pkgHTTP.WithRequestLogging(),
		pkgHTTP.WithUserAgent(userAgent),
	)
}
