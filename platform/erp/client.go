// Package erp provides the XML-RPC client for the remote ERP object store.
// This is part of the platform layer and contains no business logic.
package erp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"erp_pricing_backend/platform/apperr"
	"erp_pricing_backend/platform/logger"

	"github.com/kolo/xmlrpc"
)

// Config provides the ERP endpoint and the service account used for object calls.
type Config interface {
	GetERPURL() string
	GetERPDatabase() string
	GetERPUsername() string
	GetERPPassword() string
	GetERPTimeout() time.Duration
}

// Caller executes a model method on the ERP. Repositories depend on this
// interface rather than on *Client so they can be exercised with fakes.
type Caller interface {
	Call(ctx context.Context, model, method string, args []interface{}, kwargs map[string]interface{}) (interface{}, error)
}

// Client talks to the ERP common and object endpoints.
type Client struct {
	http      *http.Client
	commonURL string
	objectURL string
	db        string
	username  string
	password  string
	log       *logger.Logger

	mu  sync.Mutex
	uid int64
}

// NewClient creates a new ERP client. No network call is made until first use.
func NewClient(cfg Config, log *logger.Logger) (*Client, error) {
	base := strings.TrimRight(cfg.GetERPURL(), "/")
	if base == "" {
		return nil, fmt.Errorf("erp url is not configured")
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	if timeout := cfg.GetERPTimeout(); timeout > 0 {
		transport.ResponseHeaderTimeout = timeout
	}

	return &Client{
		http:      &http.Client{Transport: transport, Timeout: cfg.GetERPTimeout()},
		commonURL: base + "/xmlrpc/2/common",
		objectURL: base + "/xmlrpc/2/object",
		db:        cfg.GetERPDatabase(),
		username:  cfg.GetERPUsername(),
		password:  cfg.GetERPPassword(),
		log:       log,
	}, nil
}

// Close drops idle keep-alive connections.
func (c *Client) Close() error {
	c.http.CloseIdleConnections()
	return nil
}

// Version returns the server version payload. Used as the readiness probe.
func (c *Client) Version(ctx context.Context) (map[string]interface{}, error) {
	var reply map[string]interface{}
	if err := c.invoke(ctx, c.commonURL, "version", nil, &reply); err != nil {
		return nil, mapError("common.version", err)
	}
	return reply, nil
}

// Ping satisfies the HTTP health checker.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.Version(ctx)
	return err
}

// Authenticate checks a login against the ERP and returns the user id.
// A rejected login yields an Unauthorized error.
func (c *Client) Authenticate(ctx context.Context, login, password string) (int64, error) {
	var reply interface{}
	args := []interface{}{c.db, login, password, map[string]interface{}{}}
	if err := c.invoke(ctx, c.commonURL, "authenticate", args, &reply); err != nil {
		return 0, mapError("common.authenticate", err)
	}

	uid, ok := AsInt64(reply)
	if !ok || uid <= 0 {
		return 0, apperr.Unauthorized("invalid credentials")
	}
	return uid, nil
}

// Call runs model.method through execute_kw using the service account.
func (c *Client) Call(ctx context.Context, model, method string, args []interface{}, kwargs map[string]interface{}) (interface{}, error) {
	uid, err := c.serviceUID(ctx)
	if err != nil {
		return nil, err
	}

	if args == nil {
		args = []interface{}{}
	}
	if kwargs == nil {
		kwargs = map[string]interface{}{}
	}

	start := time.Now()
	var reply interface{}
	callErr := c.invoke(ctx, c.objectURL, "execute_kw", []interface{}{c.db, uid, c.password, model, method, args, kwargs}, &reply)
	if c.log != nil {
		c.log.RemoteCall(model, method, float64(time.Since(start).Milliseconds()), callErr)
	}
	if callErr != nil {
		return nil, mapError(model+"."+method, callErr)
	}
	return reply, nil
}

func (c *Client) serviceUID(ctx context.Context) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.uid > 0 {
		return c.uid, nil
	}

	uid, err := c.Authenticate(ctx, c.username, c.password)
	if err != nil {
		return 0, err
	}
	c.uid = uid
	return uid, nil
}

// invoke posts one method call and decodes the reply. Each call is its own
// HTTP request so concurrent callers do not queue behind each other.
func (c *Client) invoke(ctx context.Context, endpoint, method string, args []interface{}, reply interface{}) error {
	req, err := xmlrpc.NewRequest(endpoint, method, args)
	if err != nil {
		return fmt.Errorf("encode %s: %w", method, err)
	}

	resp, err := c.http.Do(req.WithContext(ctx))
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("erp responded with status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read %s response: %w", method, err)
	}

	response := xmlrpc.Response(body)
	if err := response.Err(); err != nil {
		return err
	}
	return response.Unmarshal(reply)
}

// mapError converts transport and fault errors into typed domain errors.
func mapError(op string, err error) error {
	if err == nil {
		return nil
	}
	if _, ok := apperr.As(err); ok {
		return err
	}

	var fault xmlrpc.FaultError
	if errors.As(err, &fault) {
		text := fault.String
		switch {
		case containsAny(text, "AccessDenied", "Access Denied"):
			return apperr.Wrap(apperr.KindUnauthorized, "erp rejected credentials", err).WithOp(op)
		case containsAny(text, "AccessError"):
			return apperr.Wrap(apperr.KindForbidden, "erp denied access to the record", err).WithOp(op)
		case containsAny(text, "MissingError", "does not exist", "has been deleted"):
			return apperr.Wrap(apperr.KindNotFound, "erp record not found", err).WithOp(op)
		case containsAny(text, "ValidationError", "UserError"):
			return apperr.Wrap(apperr.KindValidation, "erp rejected the request", err).WithOp(op)
		}
	}

	return apperr.Upstream("erp call failed", err).WithOp(op)
}

func containsAny(s string, needles ...string) bool {
	for _, n := range needles {
		if strings.Contains(s, n) {
			return true
		}
	}
	return false
}
