package http

import "time"

type HttpOpts func(*httpConfig)

// Timeouts groups the client timeouts. Zero Request or ResponseHeader
// values mean "wait forever".
type Timeouts struct {
	Connect        time.Duration
	Request        time.Duration
	KeepAlive      time.Duration
	TLSHandshake   time.Duration
	ResponseHeader time.Duration
	IdleConn       time.Duration
}

// WithTimeouts replaces every timeout of the client at once
func WithTimeouts(t Timeouts) HttpOpts {
	return func(c *httpConfig) {
		c.connTimeout = t.Connect
		c.requestTimeout = t.Request
		c.keepAlive = t.KeepAlive
		c.tlsHandshakeTimeout = t.TLSHandshake
		c.responseHeaderTimeout = t.ResponseHeader
		c.idleConnTimeout = t.IdleConn
	}
}

// WithRequestTimeout bounds the whole exchange, body included
func WithRequestTimeout(timeout time.Duration) HttpOpts {
	return func(c *httpConfig) {
		c.requestTimeout = timeout
	}
}

// WithTransport adds a round tripper decorator
func WithTransport(transport TransportFunc) HttpOpts {
	return func(c *httpConfig) {
		c.transports = append(c.transports, transport)
	}
}
