package errorutil

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/jackc/pgx/v5"
)

func TestToDomainErrorPassthrough(t *testing.T) {
	orig := NewAccessDenied()
	de := ToDomainError(fmt.Errorf("get ticket: %w", orig))
	if de.Code != CodeAccessDenied || de.HTTPStatus != http.StatusForbidden {
		t.Fatalf("wrapped domain error lost identity: %+v", de)
	}
}

func TestToDomainErrorNoRows(t *testing.T) {
	de := ToDomainError(fmt.Errorf("query: %w", pgx.ErrNoRows))
	if de.Code != CodeNotFound || de.HTTPStatus != http.StatusNotFound {
		t.Fatalf("pgx.ErrNoRows should map to NOT_FOUND, got %+v", de)
	}
}

func TestToDomainErrorUnknown(t *testing.T) {
	cause := errors.New("connection refused")
	de := ToDomainError(cause)
	if de.Code != CodeInternal || de.HTTPStatus != http.StatusInternalServerError {
		t.Fatalf("unknown error should map to INTERNAL_ERROR, got %+v", de)
	}
	if !errors.Is(de, cause) {
		t.Fatal("internal error should wrap its cause")
	}
}
