package tradingview

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode/utf16"

	"github.com/PaesslerAG/jsonpath"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// The server frames every payload as "~m~<length>~m~<payload>", several
// frames can share a websocket message. The length counts UTF-16 code
// units, not bytes. Heartbeats are "~h~<n>" payloads that must be sent back.

const framePrefix = "~m~"

// frame wraps payload in the wire framing.
func frame(payload string) string {
	return framePrefix + strconv.Itoa(utf16Len(payload)) + framePrefix + payload
}

func runeUnits(r rune) int {
	if n := utf16.RuneLen(r); n > 0 {
		return n
	}
	return 1 // invalid UTF-8 is sent as U+FFFD
}

// utf16Len is the length of s in UTF-16 code units.
func utf16Len(s string) int {
	n := 0
	for _, r := range s {
		n += runeUnits(r)
	}
	return n
}

// byteOffset returns the byte offset of s after units UTF-16 code units. ok
// is false if s is shorter or the offset splits a surrogate pair.
func byteOffset(s string, units int) (offset int, ok bool) {
	for i, r := range s {
		if units == 0 {
			return i, true
		}
		if units -= runeUnits(r); units < 0 {
			return 0, false
		}
	}
	return len(s), units == 0
}

// splitFrames returns the payloads of a raw websocket message.
func splitFrames(msg string) ([]string, error) {
	var payloads []string
	for len(msg) > 0 {
		rest, ok := strings.CutPrefix(msg, framePrefix)
		if !ok {
			return nil, fmt.Errorf("tradingview: invalid frame %q", msg)
		}
		n, rest, ok := strings.Cut(rest, framePrefix)
		if !ok {
			return nil, fmt.Errorf("tradingview: invalid frame header %q", msg)
		}
		size, err := strconv.Atoi(n)
		if err != nil || size < 0 {
			return nil, fmt.Errorf("tradingview: invalid frame length %q", n)
		}
		end, ok := byteOffset(rest, size)
		if !ok {
			return nil, fmt.Errorf("tradingview: frame length %d overruns the message", size)
		}
		payloads = append(payloads, rest[:end])
		msg = rest[end:]
	}
	return payloads, nil
}

func isHeartbeat(payload string) bool { return strings.HasPrefix(payload, "~h~") }

// message is a call in either direction.
type message struct {
	M string `json:"m"`
	P []any  `json:"p"`
}

// encode returns the framed payload of a call to method.
func encode(method string, params ...any) (string, error) {
	if params == nil {
		params = []any{}
	}
	b, err := json.Marshal(message{M: method, P: params})
	if err != nil {
		return "", err
	}
	return frame(string(b)), nil
}

// decode parses a payload keeping numbers as json.Number. ok is false for
// payloads that are not calls, like the session greeting.
func decode(payload string) (method string, v any, ok bool) {
	d := json.NewDecoder(strings.NewReader(payload))
	d.UseNumber()
	if err := d.Decode(&v); err != nil {
		return "", nil, false
	}
	obj, isObj := v.(map[string]any)
	if !isObj {
		return "", nil, false
	}
	method, ok = obj["m"].(string)
	return method, v, ok
}

// sessionID returns a fresh session identifier such as "cs_3f2a9c0b1d4e".
func sessionID(prefix string) string {
	return prefix + strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
}

// seriesSymbol returns the symbol descriptor passed to resolve_symbol.
func seriesSymbol(symbol, exchange string, future, extended bool) string {
	ticker := exchange + ":" + symbol
	if future {
		// front month continuous contract.
		ticker += "1!"
	}
	session := "regular"
	if extended {
		session = "extended"
	}
	b, _ := json.Marshal(map[string]string{"symbol": ticker, "adjustment": "splits", "session": session})
	return "=" + string(b)
}

// barsPath locates the bars of series s1 in a timescale_update.
const barsPath = "$.p[1].s1.s"

// parseBars extracts the candles of a timescale_update call.
func parseBars(v any) ([]Candle, error) {
	raw, err := jsonpath.Get(barsPath, v)
	if err != nil {
		return nil, fmt.Errorf("tradingview: no bars in update: %w", err)
	}
	list, ok := raw.([]any)
	if !ok {
		return nil, fmt.Errorf("tradingview: bars are not a list: %T", raw)
	}
	candles := make([]Candle, 0, len(list))
	for i, item := range list {
		bar, ok := item.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("tradingview: bar %d is not an object", i)
		}
		values, ok := bar["v"].([]any)
		if !ok || len(values) < 5 {
			return nil, fmt.Errorf("tradingview: bar %d has no values", i)
		}
		nums := make([]decimal.Decimal, 6)
		for j := 0; j < len(values) && j < len(nums); j++ {
			n, ok := values[j].(json.Number)
			if !ok {
				return nil, fmt.Errorf("tradingview: bar %d value %d is not a number", i, j)
			}
			if nums[j], err = decimal.NewFromString(n.String()); err != nil {
				return nil, fmt.Errorf("tradingview: bar %d value %d: %w", i, j, err)
			}
		}
		candles = append(candles, Candle{
			Time:   time.Unix(nums[0].IntPart(), 0).UTC(),
			Open:   nums[1],
			High:   nums[2],
			Low:    nums[3],
			Close:  nums[4],
			Volume: nums[5],
		})
	}
	return candles, nil
}

// errorMessage returns the text of an error call.
func errorMessage(v any) string {
	if p, err := jsonpath.Get("$.p", v); err == nil {
		return fmt.Sprint(p)
	}
	return "unknown error"
}
