package errx

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"
)

func TestStatusOf(t *testing.T) {
	if got := StatusOf(New(nil, http.StatusTooManyRequests, RateLimitedMessage)); got != http.StatusTooManyRequests {
		t.Errorf("StatusOf = %d", got)
	}
	if got := StatusOf(errors.New("plain")); got != http.StatusInternalServerError {
		t.Errorf("plain error must default to 500, got %d", got)
	}
	wrapped := fmt.Errorf("outer: %w", New(nil, http.StatusBadGateway, DatabaseErrorMessage))
	if got := StatusOf(wrapped); got != http.StatusBadGateway {
		t.Errorf("wrapped status = %d", got)
	}
}

func TestAppErrorChain(t *testing.T) {
	inner := errors.New("boom")
	err := New(inner, http.StatusBadGateway, LLMErrorMessage)

	if !errors.Is(err, inner) {
		t.Error("Is must reach the wrapped error")
	}
	var appErr *AppError
	if !errors.As(err, &appErr) || appErr.Status != http.StatusBadGateway {
		t.Errorf("As failed: %+v", appErr)
	}
	if err.Error() != "llm request failed: boom" {
		t.Errorf("Error() = %q", err.Error())
	}
	if New(nil, http.StatusBadGateway, LLMErrorMessage).Error() != LLMErrorMessage {
		t.Error("nil inner error must render the message alone")
	}
}

func TestWrapRedis(t *testing.T) {
	if WrapRedis(nil) != nil {
		t.Error("nil must pass through")
	}
	if got := StatusOf(WrapRedis(redis.Nil)); got != http.StatusNotFound {
		t.Errorf("redis.Nil status = %d", got)
	}
	if got := StatusOf(WrapRedis(errors.New("conn reset"))); got != http.StatusBadGateway {
		t.Errorf("generic redis status = %d", got)
	}
}

func TestWrapDB(t *testing.T) {
	if WrapDB(nil) != nil {
		t.Error("nil must pass through")
	}
	if err := WrapDB(pgx.ErrNoRows); !errors.Is(err, pgx.ErrNoRows) {
		t.Error("no rows must pass through unwrapped")
	}
	var appErr *AppError
	if errors.As(WrapDB(pgx.ErrNoRows), &appErr) {
		t.Error("no rows must not become an app error")
	}
	if got := StatusOf(WrapDB(errors.New("broken pipe"))); got != http.StatusBadGateway {
		t.Errorf("generic db status = %d", got)
	}
}
