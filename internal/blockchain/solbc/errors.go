// internal/blockchain/solbc/errors.go
package solbc

import (
	"errors"
	"fmt"
)

var (
	// ErrNoActiveNodes возникает, когда все RPC узлы помечены неактивными
	ErrNoActiveNodes = errors.New("no active RPC nodes available")

	// ErrInvalidResponse возникает при получении некорректного ответа
	ErrInvalidResponse = errors.New("invalid RPC response")

	// ErrSlotMismatch возникает, когда батчи одного запроса пришли с разных слотов
	ErrSlotMismatch = errors.New("accounts observed at different slots")
)

// Error представляет ошибку RPC с дополнительным контекстом
type Error struct {
	Err     error
	NodeURL string
	Method  string
}

func (e *Error) Error() string {
	return fmt.Sprintf("RPC error [%s] at %s: %v", e.Method, e.NodeURL, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}
