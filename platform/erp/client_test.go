package erp

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"erp_pricing_backend/platform/apperr"
	"erp_pricing_backend/platform/logger"
)

type testConfig struct {
	url string
}

func (c testConfig) GetERPURL() string            { return c.url }
func (c testConfig) GetERPDatabase() string       { return "test" }
func (c testConfig) GetERPUsername() string       { return "svc" }
func (c testConfig) GetERPPassword() string       { return "secret" }
func (c testConfig) GetERPTimeout() time.Duration { return 5 * time.Second }

const (
	uidResponse = `<?xml version="1.0"?>
<methodResponse><params><param><value><int>7</int></value></param></params></methodResponse>`

	rejectedResponse = `<?xml version="1.0"?>
<methodResponse><params><param><value><boolean>0</boolean></value></param></params></methodResponse>`

	productsResponse = `<?xml version="1.0"?>
<methodResponse><params><param><value><array><data>
<value><struct>
<member><name>id</name><value><int>42</int></value></member>
<member><name>name</name><value><string>Roller blind</string></value></member>
<member><name>list_price</name><value><double>120.5</double></value></member>
<member><name>standard_price</name><value><boolean>0</boolean></value></member>
</struct></value>
</data></array></value></param></params></methodResponse>`

	missingFault = `<?xml version="1.0"?>
<methodResponse><fault><value><struct>
<member><name>faultCode</name><value><int>2</int></value></member>
<member><name>faultString</name><value><string>odoo.exceptions.MissingError: Record does not exist or has been deleted.</string></value></member>
</struct></value></fault></methodResponse>`

	accessFault = `<?xml version="1.0"?>
<methodResponse><fault><value><struct>
<member><name>faultCode</name><value><int>4</int></value></member>
<member><name>faultString</name><value><string>odoo.exceptions.AccessError: You are not allowed to modify 'Sales Order' (sale.order) records.</string></value></member>
</struct></value></fault></methodResponse>`
)

func newTestServer(t *testing.T, object func(body string) string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		body := string(raw)
		w.Header().Set("Content-Type", "text/xml")

		switch r.URL.Path {
		case "/xmlrpc/2/common":
			if strings.Contains(body, "wrong-password") {
				_, _ = io.WriteString(w, rejectedResponse)
				return
			}
			_, _ = io.WriteString(w, uidResponse)
		case "/xmlrpc/2/object":
			_, _ = io.WriteString(w, object(body))
		default:
			http.NotFound(w, r)
		}
	}))
}

func TestCallDecodesSearchRead(t *testing.T) {
	srv := newTestServer(t, func(body string) string {
		if !strings.Contains(body, "product.product") || !strings.Contains(body, "search_read") {
			t.Errorf("unexpected request body: %s", body)
		}
		return productsResponse
	})
	defer srv.Close()

	client, err := NewClient(testConfig{url: srv.URL + "/"}, logger.Discard())
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	defer client.Close()

	rows, err := SearchRead(context.Background(), client, "product.product", Query{Fields: []string{"name", "list_price"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rows))
	}
	if id, _ := rows[0].Int64("id"); id != 42 {
		t.Fatalf("expected id 42, got %d", id)
	}
	if price, ok := rows[0].Float("list_price"); !ok || price != 120.5 {
		t.Fatalf("expected list price 120.5, got %v", price)
	}
	if _, ok := rows[0].Float("standard_price"); ok {
		t.Fatal("false cost must decode as absent")
	}
}

func TestCallMapsMissingFaultToNotFound(t *testing.T) {
	srv := newTestServer(t, func(string) string { return missingFault })
	defer srv.Close()

	client, err := NewClient(testConfig{url: srv.URL}, logger.Discard())
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	defer client.Close()

	_, err = client.Call(context.Background(), "sale.order", "read", []interface{}{[]int64{9}}, nil)
	if !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestCallMapsAccessFaultToForbidden(t *testing.T) {
	srv := newTestServer(t, func(string) string { return accessFault })
	defer srv.Close()

	client, err := NewClient(testConfig{url: srv.URL}, logger.Discard())
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	defer client.Close()

	_, err = client.Call(context.Background(), "sale.order", "write", []interface{}{[]int64{9}, map[string]interface{}{"note": "x"}}, nil)
	if !apperr.Is(err, apperr.KindForbidden) {
		t.Fatalf("expected forbidden, got %v", apperr.GetKind(err))
	}
	domainErr, _ := apperr.As(err)
	if domainErr.HTTPStatus() != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", domainErr.HTTPStatus())
	}
}

func TestAuthenticateRejectsFalse(t *testing.T) {
	srv := newTestServer(t, func(string) string { return productsResponse })
	defer srv.Close()

	client, err := NewClient(testConfig{url: srv.URL}, logger.Discard())
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	defer client.Close()

	if _, err := client.Authenticate(context.Background(), "user", "wrong-password"); !apperr.Is(err, apperr.KindUnauthorized) {
		t.Fatalf("expected unauthorized, got %v", err)
	}

	uid, err := client.Authenticate(context.Background(), "user", "right")
	if err != nil || uid != 7 {
		t.Fatalf("expected uid 7, got %d (%v)", uid, err)
	}
}

func TestCallHonoursContextDeadline(t *testing.T) {
	release := make(chan struct{})
	srv := newTestServer(t, func(string) string {
		<-release
		return productsResponse
	})
	defer srv.Close()
	defer close(release)

	client, err := NewClient(testConfig{url: srv.URL}, logger.Discard())
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err = client.Call(ctx, "product.product", "search_read", nil, nil)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
	if !apperr.Is(err, apperr.KindUpstream) {
		t.Fatalf("expected upstream kind, got %v", apperr.GetKind(err))
	}
}

func TestNewClientRequiresURL(t *testing.T) {
	if _, err := NewClient(testConfig{}, logger.Discard()); err == nil {
		t.Fatal("expected error for empty url")
	}
}
