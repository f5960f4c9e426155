package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"go.uber.org/mock/gomock"

	"github.com/iho/bankledger/internal/usecase"
	"github.com/iho/bankledger/internal/usecase/mockgen"
	"github.com/iho/bankledger/internal/usecase/mocks"
)

func newIdempotentRequest(key string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/accounts/acc-1/transactions", bytes.NewBufferString(`{}`))
	req.Header.Set(IdempotencyKeyHeader, key)
	return req
}

func TestIdempotencyMiddleware_StoreErrorIsUnavailable(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mockgen.NewMockIdempotencyStore(ctrl)
	store.EXPECT().CheckAndSet(gomock.Any(), gomock.Any(), gomock.Nil(), time.Hour).
		Return(false, nil, context.DeadlineExceeded)

	mw := NewIdempotencyMiddleware(store, time.Hour, zerolog.Nop())
	rr := httptest.NewRecorder()

	called := false
	mw.Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	})).ServeHTTP(rr, newIdempotentRequest("key-err"))

	if called {
		t.Fatalf("handler should not be called when store errors")
	}
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected status 503, got %d", rr.Code)
	}
}

func TestIdempotencyMiddleware_ReleasesKeyOnServerError(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mockgen.NewMockIdempotencyStore(ctrl)
	key := "POST /api/v1/accounts/acc-1/transactions key-fail"
	store.EXPECT().CheckAndSet(gomock.Any(), key, gomock.Nil(), gomock.Any()).Return(false, nil, nil)
	store.EXPECT().Release(gomock.Any(), key).Return(nil)

	mw := NewIdempotencyMiddleware(store, 0, zerolog.Nop())
	rr := httptest.NewRecorder()

	mw.Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})).ServeHTTP(rr, newIdempotentRequest("key-fail"))

	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected status 503, got %d", rr.Code)
	}
}

func TestIdempotencyMiddleware_SkipsNonMutatingRequests(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mockgen.NewMockIdempotencyStore(ctrl)
	mw := NewIdempotencyMiddleware(store, 0, zerolog.Nop())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/accounts", nil)
	req.Header.Set(IdempotencyKeyHeader, "ignored")
	rr := httptest.NewRecorder()

	called := false
	mw.Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	})).ServeHTTP(rr, req)

	if !called {
		t.Fatalf("expected next handler to be called")
	}
}

func TestIdempotencyMiddleware_ReplaysStoredResponse(t *testing.T) {
	store := mocks.NewMockIdempotencyStore()
	mw := NewIdempotencyMiddleware(store, time.Minute, zerolog.Nop())

	calls := 0
	handler := mw.Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":"entry-1"}`))
	}))

	first := httptest.NewRecorder()
	handler.ServeHTTP(first, newIdempotentRequest("key-123"))

	second := httptest.NewRecorder()
	handler.ServeHTTP(second, newIdempotentRequest("key-123"))

	if calls != 1 {
		t.Fatalf("expected handler to run once, ran %d times", calls)
	}
	if second.Code != http.StatusCreated {
		t.Fatalf("expected replayed 201, got %d", second.Code)
	}
	if second.Header().Get("X-Idempotency-Replay") != "true" {
		t.Fatalf("expected X-Idempotency-Replay header to be set")
	}
	if got := second.Body.String(); got != `{"id":"entry-1"}` {
		t.Fatalf("unexpected replayed body: %s", got)
	}
}

func TestIdempotencyMiddleware_ReplaysRejections(t *testing.T) {
	store := mocks.NewMockIdempotencyStore()
	mw := NewIdempotencyMiddleware(store, time.Minute, zerolog.Nop())

	handler := mw.Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"error":"insufficient funds"}`))
	}))

	handler.ServeHTTP(httptest.NewRecorder(), newIdempotentRequest("key-422"))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, newIdempotentRequest("key-422"))

	if rr.Code != http.StatusUnprocessableEntity || rr.Header().Get("X-Idempotency-Replay") != "true" {
		t.Fatalf("expected replayed 422, got %d", rr.Code)
	}
}

func TestIdempotencyMiddleware_InProgressIsConflict(t *testing.T) {
	store := mocks.NewMockIdempotencyStore()
	store.CheckAndSetFunc = func(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error) {
		return true, []byte(usecase.IdempotencyInFlight), nil
	}
	mw := NewIdempotencyMiddleware(store, time.Minute, zerolog.Nop())

	rr := httptest.NewRecorder()
	mw.Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatalf("handler should not run while the key is in progress")
	})).ServeHTTP(rr, newIdempotentRequest("key-busy"))

	if rr.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rr.Code)
	}

	var body map[string]string
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil || body["error"] == "" {
		t.Fatalf("expected json error body, got %q", rr.Body.String())
	}
}

func TestIdempotencyMiddleware_SettlesKeyAfterClientDisconnect(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mockgen.NewMockIdempotencyStore(ctrl)
	failed := "POST /api/v1/accounts/acc-1/transactions key-gone-500"
	done := "POST /api/v1/accounts/acc-1/transactions key-gone-201"

	store.EXPECT().CheckAndSet(gomock.Any(), gomock.Any(), gomock.Nil(), gomock.Any()).Return(false, nil, nil).Times(2)
	store.EXPECT().Release(gomock.Any(), failed).DoAndReturn(func(ctx context.Context, _ string) error {
		if ctx.Err() != nil {
			t.Errorf("release ran on a cancelled context: %v", ctx.Err())
		}
		return nil
	})
	store.EXPECT().Update(gomock.Any(), done, gomock.Any(), gomock.Any()).DoAndReturn(func(ctx context.Context, _ string, _ []byte, _ time.Duration) error {
		if ctx.Err() != nil {
			t.Errorf("update ran on a cancelled context: %v", ctx.Err())
		}
		return nil
	})

	mw := NewIdempotencyMiddleware(store, time.Minute, zerolog.Nop())
	for key, status := range map[string]int{"key-gone-500": http.StatusInternalServerError, "key-gone-201": http.StatusCreated} {
		ctx, cancel := context.WithCancel(context.Background())
		req := newIdempotentRequest(key).WithContext(ctx)

		mw.Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cancel()
			w.WriteHeader(status)
		})).ServeHTTP(httptest.NewRecorder(), req)
	}
}
