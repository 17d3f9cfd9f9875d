// Package base provides the BaseConnector embedded by every keepice connector.
//
// BaseConnector carries the connector type, the catalog name used to
// qualify table references and a component logger, and it enforces the
// single-session lifecycle: the open function handed to ConnectOnce runs at
// most once until the connector is closed.
//
// # Usage
//
//	type MyConnector struct {
//	    *base.BaseConnector
//	    session *client.Session
//	}
//
//	func (c *MyConnector) Connect(ctx context.Context) (any, error) {
//	    return c.ConnectOnce(ctx, func(ctx context.Context) (any, error) {
//	        s, err := client.Dial(ctx)
//	        c.session = s
//	        return s, err
//	    })
//	}
package base

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/ajitpratap0/keepice/pkg/connector/core"
	"github.com/ajitpratap0/keepice/pkg/errors"
	"github.com/ajitpratap0/keepice/pkg/logger"
)

// BaseConnector holds the state shared by all connectors
type BaseConnector struct {
	connectorType core.Type
	catalogName   string
	logger        *zap.Logger

	mu        sync.Mutex
	handle    any
	connected bool
}

// NewBaseConnector creates a base for a connector of the given type. A nil
// logger falls back to the global one.
func NewBaseConnector(connectorType core.Type, catalogName string, log *zap.Logger) *BaseConnector {
	if log == nil {
		log = logger.Get()
	}
	return &BaseConnector{
		connectorType: connectorType,
		catalogName:   catalogName,
		logger:        log.With(zap.String("connector", string(connectorType))),
	}
}

// Type returns the connector type
func (b *BaseConnector) Type() core.Type {
	return b.connectorType
}

// CatalogName returns the catalog used to qualify table references
func (b *BaseConnector) CatalogName() string {
	return b.catalogName
}

// Logger returns the connector-scoped logger
func (b *BaseConnector) Logger() *zap.Logger {
	return b.logger
}

// ConnectOnce runs open on the first call and returns the cached handle on
// every later call. A failed open is not cached.
func (b *BaseConnector) ConnectOnce(ctx context.Context, open func(ctx context.Context) (any, error)) (any, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.connected {
		return b.handle, nil
	}

	handle, err := open(ctx)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConnection, "failed to connect").
			WithDetail("connector", string(b.connectorType))
	}

	b.handle = handle
	b.connected = true
	b.logger.Debug("connector connected", zap.String("catalog", b.catalogName))
	return handle, nil
}

// Connected reports whether a session is open
func (b *BaseConnector) Connected() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.connected
}

// RequireConnected returns an error when Query is called before Connect
func (b *BaseConnector) RequireConnected() error {
	if !b.Connected() {
		return errors.New(errors.ErrorTypeConnection, "connector is not connected").
			WithDetail("connector", string(b.connectorType))
	}
	return nil
}

// Release runs closeFn on the open handle, if any, and forgets it so a
// later Connect opens a fresh session.
func (b *BaseConnector) Release(closeFn func(handle any) error) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.connected {
		return nil
	}

	var err error
	if closeFn != nil {
		err = closeFn(b.handle)
	}
	b.handle = nil
	b.connected = false
	b.logger.Debug("connector closed")
	return err
}
