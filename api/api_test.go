package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/etnz/bookkeeper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, store bookkeeper.Store, opts ...Option) http.Handler {
	t.Helper()
	books := bookkeeper.NewCoordinator(store, bookkeeper.WithBackoff(0), bookkeeper.WithMaxAttempts(2))
	return New(books, opts...).Handler()
}

// do sends a JSON request and returns the recorded response.
func do(t *testing.T, h http.Handler, method, path string, body any, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestServer_SaleAndSettlement(t *testing.T) {
	h := newTestServer(t, bookkeeper.NewMemoryStore())

	rec := do(t, h, http.MethodPost, "/items", map[string]any{"name": "Rice", "unit": "bag"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	rice := decodeBody[bookkeeper.InventoryItem](t, rec)

	rec = do(t, h, http.MethodPost, "/transactions", map[string]any{
		"kind":    "purchase",
		"contact": map[string]any{"name": "Mill"},
		"lines":   []any{map[string]any{"item": map[string]any{"id": rice.ID}, "quantity": "10", "unitPrice": "5"}},
		"date":    "2025-04-01",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	purchase := decodeBody[bookkeeper.Transaction](t, rec)
	assert.Equal(t, "/transactions/"+purchase.ID, rec.Header().Get("Location"))
	assert.Equal(t, "50", purchase.CreditAmount.String())

	rec = do(t, h, http.MethodPost, "/transactions", map[string]any{
		"kind":    "sale",
		"contact": map[string]any{"name": "Ama", "phone": "555"},
		"lines":   []any{map[string]any{"item": map[string]any{"id": rice.ID}, "quantity": 4, "unitPrice": 10}},
		"paid":    0,
		"date":    "2025-04-02",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	sale := decodeBody[bookkeeper.Transaction](t, rec)

	rec = do(t, h, http.MethodPost, "/transactions", map[string]any{
		"kind":    "settlement",
		"contact": map[string]any{"id": sale.ContactID},
		"amount":  "15",
		"date":    "2025-04-03",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = do(t, h, http.MethodGet, "/summary", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	sum := decodeBody[bookkeeper.Summary](t, rec)
	assert.Equal(t, "15", sum.Cash.String())
	assert.Equal(t, "25", sum.TotalReceivable.String())
	assert.Equal(t, "50", sum.TotalPayable.String())

	rec = do(t, h, http.MethodGet, "/items", nil)
	items := decodeBody[struct {
		Items []bookkeeper.InventoryItem `json:"items"`
	}](t, rec)
	require.Len(t, items.Items, 1)
	assert.Equal(t, "6", items.Items[0].Quantity.String())

	rec = do(t, h, http.MethodGet, "/contacts/"+sale.ContactID+"/statement", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	st := decodeBody[bookkeeper.Statement](t, rec)
	assert.Equal(t, "Ama", st.Contact.Name)
	assert.Equal(t, "40", st.Traded.String())
	require.Len(t, st.Transactions, 2)
	assert.Equal(t, bookkeeper.Settlement, st.Transactions[0].Kind)

	rec = do(t, h, http.MethodGet, "/transactions?kind=sale", nil)
	list := decodeBody[struct {
		Count int `json:"count"`
	}](t, rec)
	assert.Equal(t, 1, list.Count)

	rec = do(t, h, http.MethodGet, "/audit", nil)
	audit := decodeBody[struct {
		Consistent bool `json:"consistent"`
	}](t, rec)
	assert.True(t, audit.Consistent)
}

func TestServer_EditAndDelete(t *testing.T) {
	h := newTestServer(t, bookkeeper.NewMemoryStore())

	rec := do(t, h, http.MethodPost, "/transactions", map[string]any{"kind": "expense", "amount": 30, "category": "rent"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	tx := decodeBody[bookkeeper.Transaction](t, rec)

	rec = do(t, h, http.MethodPut, "/transactions/"+tx.ID, map[string]any{"kind": "expense", "amount": 45, "category": "rent"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	edited := decodeBody[bookkeeper.Transaction](t, rec)
	assert.Equal(t, tx.ID, edited.ID)
	assert.Equal(t, "45", edited.Amount.String())

	rec = do(t, h, http.MethodDelete, "/transactions/"+tx.ID, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(t, h, http.MethodGet, "/transactions/"+tx.ID, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestServer_Errors(t *testing.T) {
	testCases := []struct {
		name   string
		method string
		path   string
		body   any
		want   int
		errMsg string
	}{
		{
			name:   "sale without contact",
			method: http.MethodPost, path: "/transactions",
			body:   map[string]any{"kind": "sale", "lines": []any{map[string]any{"item": map[string]any{"name": "Rice"}, "quantity": 1, "unitPrice": 1}}},
			want:   http.StatusBadRequest,
			errMsg: "needs a contact",
		},
		{
			name:   "unknown kind",
			method: http.MethodPost, path: "/transactions",
			body:   map[string]any{"kind": "gift", "amount": 1},
			want:   http.StatusBadRequest,
			errMsg: "unknown kind",
		},
		{
			name:   "bad date",
			method: http.MethodPost, path: "/transactions",
			body:   map[string]any{"kind": "capital", "amount": 1, "date": "yesterday"},
			want:   http.StatusBadRequest,
			errMsg: "invalid date",
		},
		{
			name:   "unknown field",
			method: http.MethodPost, path: "/transactions",
			body:   map[string]any{"kind": "capital", "amount": 1, "total": 1},
			want:   http.StatusBadRequest,
			errMsg: "invalid request body",
		},
		{
			name:   "delete unknown transaction",
			method: http.MethodDelete, path: "/transactions/nope",
			want:   http.StatusNotFound,
		},
		{
			name:   "statement of unknown contact",
			method: http.MethodGet, path: "/contacts/nope/statement",
			want:   http.StatusNotFound,
		},
		{
			name:   "contact without role",
			method: http.MethodPost, path: "/contacts",
			body:   map[string]any{"name": "Ama"},
			want:   http.StatusBadRequest,
			errMsg: "unknown contact role",
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			h := newTestServer(t, bookkeeper.NewMemoryStore())
			rec := do(t, h, tc.method, tc.path, tc.body)
			assert.Equal(t, tc.want, rec.Code, rec.Body.String())
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
			if tc.errMsg != "" {
				assert.Contains(t, decodeBody[map[string]string](t, rec)["error"], tc.errMsg)
			}
		})
	}
}

func TestServer_IdempotentCreate(t *testing.T) {
	h := newTestServer(t, bookkeeper.NewMemoryStore())
	body := map[string]any{"kind": "capital", "amount": 1000}

	first := do(t, h, http.MethodPost, "/transactions", body, "Idempotency-Key", "abc")
	require.Equal(t, http.StatusCreated, first.Code, first.Body.String())
	second := do(t, h, http.MethodPost, "/transactions", body, "Idempotency-Key", "abc")
	require.Equal(t, http.StatusCreated, second.Code)
	assert.Equal(t, "true", second.Header().Get("Idempotent-Replayed"))
	assert.JSONEq(t, first.Body.String(), second.Body.String())

	do(t, h, http.MethodPost, "/transactions", body, "Idempotency-Key", "other")

	rec := do(t, h, http.MethodGet, "/transactions", nil)
	list := decodeBody[struct {
		Count int `json:"count"`
	}](t, rec)
	assert.Equal(t, 2, list.Count)
}

// blockingStore holds its first unit until released.
type blockingStore struct {
	bookkeeper.Store
	once     sync.Once
	entered  chan struct{}
	released chan struct{}
}

func (s *blockingStore) Update(ctx context.Context, fn func(bookkeeper.Tx) error) error {
	s.once.Do(func() {
		close(s.entered)
		<-s.released
	})
	return s.Store.Update(ctx, fn)
}

func TestServer_IdempotentCreateInFlight(t *testing.T) {
	store := &blockingStore{Store: bookkeeper.NewMemoryStore(), entered: make(chan struct{}), released: make(chan struct{})}
	h := newTestServer(t, store)
	body := map[string]any{"kind": "capital", "amount": 1000}

	first := httptest.NewRecorder()
	finished := make(chan struct{})
	go func() {
		defer close(finished)
		req := httptest.NewRequest(http.MethodPost, "/transactions", strings.NewReader(`{"kind":"capital","amount":1000}`))
		req.Header.Set("Idempotency-Key", "abc")
		h.ServeHTTP(first, req)
	}()
	<-store.entered

	// the same key while the first create is still running
	second := do(t, h, http.MethodPost, "/transactions", body, "Idempotency-Key", "abc")
	assert.Equal(t, http.StatusConflict, second.Code, second.Body.String())
	assert.Equal(t, "1", second.Header().Get("Retry-After"))

	close(store.released)
	<-finished
	require.Equal(t, http.StatusCreated, first.Code, first.Body.String())

	third := do(t, h, http.MethodPost, "/transactions", body, "Idempotency-Key", "abc")
	require.Equal(t, http.StatusCreated, third.Code)
	assert.Equal(t, "true", third.Header().Get("Idempotent-Replayed"))

	rec := do(t, h, http.MethodGet, "/transactions", nil)
	list := decodeBody[struct {
		Count int `json:"count"`
	}](t, rec)
	assert.Equal(t, 1, list.Count)
}

func TestServer_IdempotencyKeyFreedOnFailure(t *testing.T) {
	h := newTestServer(t, bookkeeper.NewMemoryStore())

	rec := do(t, h, http.MethodPost, "/transactions", map[string]any{"kind": "capital"}, "Idempotency-Key", "abc")
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodPost, "/transactions", map[string]any{"kind": "capital", "amount": 10}, "Idempotency-Key", "abc")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Empty(t, rec.Header().Get("Idempotent-Replayed"))
}

func TestServer_CancelledRequest(t *testing.T) {
	h := newTestServer(t, bookkeeper.NewMemoryStore())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	req := httptest.NewRequest(http.MethodPost, "/transactions", strings.NewReader(`{"kind":"capital","amount":10}`)).WithContext(ctx)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, statusClientClosedRequest, rec.Code, rec.Body.String())

	list := decodeBody[struct {
		Count int `json:"count"`
	}](t, do(t, h, http.MethodGet, "/transactions", nil))
	assert.Equal(t, 0, list.Count)
}

func TestStatusOf(t *testing.T) {
	interrupted := errors.Join(bookkeeper.ConflictError("record changed"), context.Canceled)
	testCases := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("%w: bad", bookkeeper.ErrValidation), http.StatusBadRequest},
		{bookkeeper.NotFoundError("contact %s", "x"), http.StatusNotFound},
		{bookkeeper.ConflictError("record changed"), http.StatusConflict},
		{bookkeeper.StorageError("commit", errors.New("disk full")), http.StatusInternalServerError},
		{context.Canceled, statusClientClosedRequest},
		{fmt.Errorf("unit: %w", context.DeadlineExceeded), http.StatusGatewayTimeout},
		{interrupted, statusClientClosedRequest},
	}
	for _, tc := range testCases {
		assert.Equal(t, tc.want, statusOf(tc.err), tc.err.Error())
	}
}

// conflictStore never manages to commit.
type conflictStore struct{ bookkeeper.Store }

func (conflictStore) Update(context.Context, func(bookkeeper.Tx) error) error {
	return bookkeeper.ConflictError("record changed")
}

func TestServer_ConflictIsRetryable(t *testing.T) {
	h := newTestServer(t, conflictStore{bookkeeper.NewMemoryStore()})
	rec := do(t, h, http.MethodPost, "/transactions", map[string]any{"kind": "expense", "amount": 5})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("Retry-After"))
}

func TestServer_RateLimit(t *testing.T) {
	h := newTestServer(t, bookkeeper.NewMemoryStore(), WithRateLimit(time.Hour, 1))
	assert.Equal(t, http.StatusOK, do(t, h, http.MethodGet, "/summary", nil).Code)
	assert.Equal(t, http.StatusTooManyRequests, do(t, h, http.MethodGet, "/summary", nil).Code)
}

func TestServer_SanitizesText(t *testing.T) {
	h := newTestServer(t, bookkeeper.NewMemoryStore())
	rec := do(t, h, http.MethodPost, "/contacts", map[string]any{"role": "supplier", "name": "<b>Mill</b> & Sons<script>x</script>"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	c := decodeBody[bookkeeper.Contact](t, rec)
	assert.Equal(t, "Mill & Sons", c.Name)

	rec = do(t, h, http.MethodPatch, "/contacts/"+c.ID, map[string]any{"phone": "555 <i>0101</i>"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	updated := decodeBody[bookkeeper.Contact](t, rec)
	assert.Equal(t, "Mill & Sons", updated.Name)
	assert.Equal(t, "555 0101", updated.Phone)
}

func TestServer_RequestID(t *testing.T) {
	h := newTestServer(t, bookkeeper.NewMemoryStore())
	rec := do(t, h, http.MethodGet, "/summary", nil, "X-Request-ID", "req-1")
	assert.Equal(t, "req-1", rec.Header().Get("X-Request-ID"))

	rec = do(t, h, http.MethodGet, "/summary", nil)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestServer_Markdown(t *testing.T) {
	h := newTestServer(t, bookkeeper.NewMemoryStore(), WithCurrency("USD"))
	do(t, h, http.MethodPost, "/transactions", map[string]any{"kind": "capital", "amount": 1000})

	rec := do(t, h, http.MethodGet, "/summary?format=markdown", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.HasPrefix(rec.Header().Get("Content-Type"), "text/markdown"))
	assert.Contains(t, rec.Body.String(), "# Business Summary")
	assert.Contains(t, rec.Body.String(), "$1,000.00")
}
