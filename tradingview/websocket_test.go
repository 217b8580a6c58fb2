package tradingview

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap/zaptest"
)

// fakeServer speaks enough of the chart protocol to serve one series.
type fakeServer struct {
	mu        sync.Mutex
	methods   []string
	heartbeat bool
	origin    string
}

func (f *fakeServer) record(method string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.methods = append(f.methods, method)
}

func (f *fakeServer) handle(t *testing.T, conn *websocket.Conn) {
	send := func(payloads ...string) {
		var sb strings.Builder
		for _, p := range payloads {
			sb.WriteString(frame(p))
		}
		if err := conn.WriteMessage(websocket.TextMessage, []byte(sb.String())); err != nil {
			t.Logf("server write: %v", err)
		}
	}
	send(`{"session_id":"<0.1.2>_test","timestamp":1754704740}`)

	unknown := false
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		payloads, err := splitFrames(string(data))
		if err != nil {
			t.Errorf("server got an invalid message %q: %v", data, err)
			return
		}
		for _, p := range payloads {
			if isHeartbeat(p) {
				f.mu.Lock()
				f.heartbeat = true
				f.mu.Unlock()
				if unknown {
					send(`{"m":"symbol_error","p":["cs_x","symbol_1","invalid symbol"]}`)
					continue
				}
				send(teslaUpdate, `{"m":"series_completed","p":["cs_x","s1","streaming","s1_1"]}`)
				continue
			}
			method, _, ok := decode(p)
			if !ok {
				t.Errorf("server got a non call payload %q", p)
				continue
			}
			f.record(method)
			switch method {
			case "resolve_symbol":
				unknown = strings.Contains(p, "KRAKEN:TSLA")
			case "switch_timezone":
				// Setup done: check the client answers heartbeats before sending data.
				send("~h~1")
			}
		}
	}
}

func (f *fakeServer) start(t *testing.T) *httptest.Server {
	upgrader := websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.origin = r.Header.Get("Origin")
		f.mu.Unlock()
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Logf("upgrade error: %v", err)
			return
		}
		defer conn.Close()
		f.handle(t, conn)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func TestWebSocketBars(t *testing.T) {
	f := &fakeServer{}
	srv := f.start(t)
	ws := &WebSocket{URL: wsURL(srv), Timeout: 2 * time.Second, Logger: zaptest.NewLogger(t)}

	resp, err := New(WithTransport(ws)).ReadLatestPrice(context.Background(), "TSLA", "NASDAQ", Options{ExtendedHours: true})
	if err != nil {
		t.Fatalf("ReadLatestPrice() error = %v", err)
	}
	if !resp.Close().Equal(tesla.Close) || !resp.Time().Equal(tesla.Time) {
		t.Errorf("ReadLatestPrice() = %+v want %+v", resp.Candle(), tesla)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	want := []string{"set_auth_token", "chart_create_session", "quote_create_session", "quote_add_symbols", "resolve_symbol", "create_series", "switch_timezone"}
	if strings.Join(f.methods, ",") != strings.Join(want, ",") {
		t.Errorf("server got %v want %v", f.methods, want)
	}
	if !f.heartbeat {
		t.Error("the client did not answer the heartbeat")
	}
	if f.origin != origin {
		t.Errorf("Origin = %q want %q", f.origin, origin)
	}
}

func TestWebSocketUnknownSymbol(t *testing.T) {
	srv := (&fakeServer{}).start(t)
	ws := &WebSocket{URL: wsURL(srv), Timeout: 2 * time.Second}

	_, err := ws.Bars(context.Background(), Request{Symbol: "TSLA", Exchange: "KRAKEN", Options: Options{Interval: Minute1}}, 1)
	if !errors.Is(err, ErrNoResponse) {
		t.Errorf("Bars() error = %v want ErrNoResponse", err)
	}
}

func TestWebSocketSilentServer(t *testing.T) {
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	defer srv.Close()

	ws := &WebSocket{URL: wsURL(srv), Timeout: 50 * time.Millisecond}
	_, err := ws.Bars(context.Background(), Request{Symbol: "TSLA", Exchange: "NASDAQ", Options: Options{Interval: Minute1}}, 1)
	if !errors.Is(err, ErrNoResponse) {
		t.Errorf("Bars() error = %v want ErrNoResponse", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	ws.Timeout = time.Minute
	_, err = ws.Bars(ctx, Request{Symbol: "TSLA", Exchange: "NASDAQ", Options: Options{Interval: Minute1}}, 1)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Bars() error = %v want context.DeadlineExceeded", err)
	}
}
