package verification

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"fmt"
	"math/big"

	"github.com/google/uuid"

	"adespota/internal/domain"
	"adespota/pkg/e"
)

const (
	ModeAcceptAny  = "accept_any"
	ModeStoredCode = "stored"
)

// AcceptAnyChecker accepts every well-formed code.
type AcceptAnyChecker struct{}

func (AcceptAnyChecker) Check(context.Context, uuid.UUID, string) error { return nil }

type CodeStore interface {
	GetCode(ctx context.Context, userID uuid.UUID) (string, error)
}

// StoredCodeChecker compares the submitted code with the last dispatched one.
type StoredCodeChecker struct {
	Store CodeStore
}

func (c StoredCodeChecker) Check(ctx context.Context, userID uuid.UUID, code string) error {
	want, err := c.Store.GetCode(ctx, userID)
	if errors.Is(err, e.ErrCacheMiss) {
		return domain.NewValidationError(domain.KindCodeMismatch, "The code has expired, request a new one")
	}
	if err != nil {
		return fmt.Errorf("verification.StoredCodeChecker.Check: %w", err)
	}
	if subtle.ConstantTimeCompare([]byte(want), []byte(code)) != 1 {
		return domain.NewValidationError(domain.KindCodeMismatch, "The code does not match")
	}
	return nil
}

func NewChecker(mode string, store CodeStore) (CodeChecker, error) {
	switch mode {
	case "", ModeAcceptAny:
		return AcceptAnyChecker{}, nil
	case ModeStoredCode:
		if store == nil {
			return nil, errors.New("verification: stored mode requires a code store")
		}
		return StoredCodeChecker{Store: store}, nil
	}
	return nil, fmt.Errorf("verification: unknown mode %q", mode)
}

// NumericCode returns n random decimal digits.
func NumericCode(n int) (string, error) {
	buf := make([]byte, n)
	ten := big.NewInt(10)
	for i := range buf {
		d, err := rand.Int(rand.Reader, ten)
		if err != nil {
			return "", err
		}
		buf[i] = byte('0' + d.Int64())
	}
	return string(buf), nil
}
