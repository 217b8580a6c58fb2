package tradingview

import (
	"errors"
	"fmt"
)

var (
	// ErrNoResponse is returned when the server ends the exchange without
	// data. It is also what the server does for unknown symbols, so it is
	// worth retrying only for symbols known to exist.
	ErrNoResponse = errors.New("tradingview: no response")

	// ErrEmptyData is returned when the server answers with no bar.
	ErrEmptyData = errors.New("tradingview: empty data")
)

// SymbolAtExchangeUnknownError is returned when all attempts to read a symbol got no response.
type SymbolAtExchangeUnknownError struct {
	Symbol   string
	Exchange string
}

func (e *SymbolAtExchangeUnknownError) Error() string {
	return fmt.Sprintf("tradingview: symbol %s unknown at exchange %s", e.Symbol, e.Exchange)
}

// Unwrap returns ErrNoResponse.
func (e *SymbolAtExchangeUnknownError) Unwrap() error { return ErrNoResponse }

// ServerError is a protocol or critical error reported by the server.
type ServerError struct {
	Method  string
	Message string
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("tradingview: %s: %s", e.Method, e.Message)
}
