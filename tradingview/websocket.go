package tradingview

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	// DefaultURL is the public chart data endpoint.
	DefaultURL = "wss://data.tradingview.com/socket.io/websocket"
	// DefaultToken is the token of anonymous sessions.
	DefaultToken = "unauthorized_user_token"
	// DefaultTimeout bounds every read and the handshake.
	DefaultTimeout = 10 * time.Second

	origin = "https://data.tradingview.com"
)

// WebSocket is a Transport dialing one connection per request.
type WebSocket struct {
	URL     string        // DefaultURL if empty
	Token   string        // DefaultToken if empty
	Timeout time.Duration // DefaultTimeout if zero
	Logger  *zap.Logger
}

func (w *WebSocket) settings() (url, token string, timeout time.Duration, logger *zap.Logger) {
	url, token, timeout, logger = w.URL, w.Token, w.Timeout, w.Logger
	if url == "" {
		url = DefaultURL
	}
	if token == "" {
		token = DefaultToken
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return
}

// Bars implements Transport.
func (w *WebSocket) Bars(ctx context.Context, req Request, n int) ([]Candle, error) {
	url, token, timeout, logger := w.settings()

	header := http.Header{}
	header.Set("Origin", origin)
	dialer := websocket.Dialer{HandshakeTimeout: timeout}
	conn, resp, err := dialer.DialContext(ctx, url, header)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("tradingview: dial %s: %s: %w", url, resp.Status, err)
		}
		return nil, fmt.Errorf("tradingview: dial %s: %w", url, err)
	}
	defer conn.Close()
	// Unblock reads when ctx is done.
	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	s := &session{conn: conn, timeout: timeout, logger: logger}
	bars, err := s.run(req, token, n)
	if err != nil && ctx.Err() != nil {
		return nil, ctx.Err()
	}
	return bars, err
}

// session runs one chart exchange on a connection.
type session struct {
	conn    *websocket.Conn
	timeout time.Duration
	logger  *zap.Logger
}

func (s *session) send(method string, params ...any) error {
	msg, err := encode(method, params...)
	if err != nil {
		return err
	}
	return s.write(msg)
}

func (s *session) write(msg string) error {
	s.conn.SetWriteDeadline(time.Now().Add(s.timeout))
	return s.conn.WriteMessage(websocket.TextMessage, []byte(msg))
}

func (s *session) run(req Request, token string, n int) ([]Candle, error) {
	chart := sessionID("cs_")
	quote := sessionID("qs_")
	ticker := req.Exchange + ":" + req.Symbol

	calls := []struct {
		method string
		params []any
	}{
		{"set_auth_token", []any{token}},
		{"chart_create_session", []any{chart, ""}},
		{"quote_create_session", []any{quote}},
		{"quote_add_symbols", []any{quote, ticker}},
		{"resolve_symbol", []any{chart, "symbol_1", seriesSymbol(req.Symbol, req.Exchange, req.FutureContract, req.ExtendedHours)}},
		{"create_series", []any{chart, "s1", "s1", "symbol_1", string(req.Interval), n}},
		{"switch_timezone", []any{chart, "exchange"}},
	}
	for _, c := range calls {
		if err := s.send(c.method, c.params...); err != nil {
			return nil, fmt.Errorf("tradingview: send %s: %w", c.method, err)
		}
	}

	var bars []Candle
	for {
		s.conn.SetReadDeadline(time.Now().Add(s.timeout))
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			// closed or silent before the series completed.
			return nil, fmt.Errorf("%w: %v", ErrNoResponse, err)
		}
		payloads, err := splitFrames(string(data))
		if err != nil {
			return nil, err
		}
		for _, p := range payloads {
			if isHeartbeat(p) {
				if err := s.write(frame(p)); err != nil {
					return nil, fmt.Errorf("tradingview: heartbeat: %w", err)
				}
				continue
			}
			method, v, ok := decode(p)
			if !ok {
				continue
			}
			switch method {
			case "timescale_update":
				b, err := parseBars(v)
				if err != nil {
					s.logger.Debug("ignored update", zap.Error(err))
					continue
				}
				bars = append(bars, b...)
			case "series_completed":
				return bars, nil
			case "symbol_error", "series_error":
				s.logger.Debug(method, zap.String("ticker", ticker), zap.String("error", errorMessage(v)))
				return nil, ErrNoResponse
			case "critical_error", "protocol_error":
				return nil, &ServerError{Method: method, Message: errorMessage(v)}
			}
		}
	}
}
