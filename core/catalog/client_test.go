package catalog

import (
	"context"
	stderrors "errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"sales-enrich/internal/errors"
)

func newTestServer(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL+"/products", WithHTTPClient(srv.Client()), WithLogger(zap.NewNop())), srv
}

func TestClientGetAll(t *testing.T) {
	var gotPath, gotUA string
	c, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotUA = r.Header.Get("User-Agent")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(envelopeBody))
	})
	WithUserAgent("sales-enrich/test")(c)

	p, err := c.GetAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "/products", gotPath)
	assert.Equal(t, "sales-enrich/test", gotUA)
	assert.Equal(t, PayloadEnvelope, p.Kind)
	assert.Len(t, p.Products, 3)
}

func TestClientGetByID(t *testing.T) {
	c, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/products/7", r.URL.Path)
		_, _ = w.Write([]byte(`{"id": 7, "category": "home", "brand": "Glow", "rating": 4.1}`))
	})

	p, err := c.GetByID(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, PayloadObject, p.Kind)

	prod, err := p.Product()
	require.NoError(t, err)
	assert.Equal(t, "Glow", prod.Brand)
}

func TestClientGetWithLimit(t *testing.T) {
	c, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/products", r.URL.Path)
		assert.Equal(t, "100", r.URL.Query().Get("limit"))
		_, _ = w.Write([]byte(listBody))
	})

	p, err := c.GetWithLimit(context.Background(), 100)
	require.NoError(t, err)
	assert.Equal(t, PayloadList, p.Kind)
}

func TestClientSearchEscapesQuery(t *testing.T) {
	var rawQuery string
	c, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/products/search", r.URL.Path)
		rawQuery = r.URL.RawQuery
		assert.Equal(t, "red phone & case", r.URL.Query().Get("q"))
		_, _ = w.Write([]byte(`{"products": [], "total": 0, "skip": 0, "limit": 0}`))
	})

	p, err := c.Search(context.Background(), "red phone & case")
	require.NoError(t, err)
	assert.Equal(t, "q=red+phone+%26+case", rawQuery)
	assert.Empty(t, p.Products)
}

func TestClientFetchErrorMessages(t *testing.T) {
	c, srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})
	ctx := context.Background()

	tests := []struct {
		name   string
		call   func() error
		prefix string
		key    string
		value  interface{}
	}{
		{"all", func() error { _, err := c.GetAll(ctx); return err }, "Error fetching all products: ", "", nil},
		{"by id", func() error { _, err := c.GetByID(ctx, 99); return err }, "Error fetching product 99: ", "id", 99},
		{"limit", func() error { _, err := c.GetWithLimit(ctx, 5); return err }, "Error fetching products with limit 5: ", "limit", 5},
		{"search", func() error { _, err := c.Search(ctx, "lamp"); return err }, "Error searching products with query 'lamp': ", "query", "lamp"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.call()
			require.Error(t, err)
			assert.True(t, errors.IsType(err, errors.TypeFetch))
			assert.Contains(t, err.Error(), tt.prefix)
			assert.Contains(t, err.Error(), "404 Client Error: Not Found for url: "+srv.URL)

			var statusErr *HTTPStatusError
			require.True(t, stderrors.As(err, &statusErr))
			assert.Equal(t, http.StatusNotFound, statusErr.StatusCode)

			if tt.key != "" {
				var fe *errors.Error
				require.True(t, stderrors.As(err, &fe))
				assert.Equal(t, tt.value, fe.Context[tt.key])
			}
		})
	}
}

func TestClientServerError(t *testing.T) {
	c, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	_, err := c.GetAll(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502 Server Error: Bad Gateway")
}

func TestClientNonJSONBodyIsFetchError(t *testing.T) {
	c, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html>maintenance</html>`))
	})

	_, err := c.GetAll(context.Background())
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.TypeFetch))
}

func TestClientWrongShapeIsValidationError(t *testing.T) {
	c, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`42`))
	})

	_, err := c.GetAll(context.Background())
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.TypeValidation))
	assert.False(t, errors.IsType(err, errors.TypeFetch))
}

func TestClientUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := NewClient(url+"/products", WithLogger(zap.NewNop()))
	_, err := c.GetAll(context.Background())
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.TypeFetch))
}

func TestNewClientTrimsBaseURL(t *testing.T) {
	c := NewClient(" https://dummyjson.com/products/ ")
	assert.Equal(t, "https://dummyjson.com/products", c.BaseURL())
}
