package palanca

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"github.com/Rhymond/go-money"
)

// Scheme names an identifier standard.
//
// The zero value means "unknown": Resolve infers the scheme from the shape of
// the identifier.
type Scheme string

const (
	// ISIN is an ISO 6166 International Securities Identification Number.
	ISIN Scheme = "ISIN"
	// CUSIP is a nine characters North-American identifier.
	CUSIP Scheme = "CUSIP"
	// MSSI is a Market-Specific Security Identifier: ISIN "." MIC.
	//
	// It identifies a listing of a security on a trading venue (ISO 10383).
	// Its canonical key is the ISIN key: all listings of a security share it.
	MSSI Scheme = "MSSI"
	// Ticker is an exchange symbol, optionally qualified ("NASDAQ:AAPL", "AAPL.US").
	Ticker Scheme = "TICKER"
	// CurrencyPair is a six letters FX pair: base currency then quote currency.
	CurrencyPair Scheme = "FX"
	// Private is a non-standard identifier, for assets without public ids.
	Private Scheme = "ID"
)

var schemes = []Scheme{ISIN, CUSIP, MSSI, Ticker, CurrencyPair, Private}

// ParseScheme returns the scheme named s, case insensitive. The empty string is
// the zero Scheme.
func ParseScheme(s string) (Scheme, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "" {
		return "", nil
	}
	for _, sc := range schemes {
		if string(sc) == s {
			return sc, nil
		}
	}
	return "", fmt.Errorf("unknown identifier scheme %q", s)
}

// deterministic reports whether the scheme's normalized value is a canonical key
// in itself, without any external mapping.
func (s Scheme) deterministic() bool {
	switch s {
	case ISIN, MSSI, CurrencyPair, Private:
		return true
	}
	return false
}

// isinRegex checks for the basic structure: 2 letters, 9 alphanumeric, 1 digit.
var isinRegex = regexp.MustCompile(`^[A-Z]{2}[A-Z0-9]{9}[0-9]$`)

// isinShape is what looks like an ISIN, check digit or not.
var isinShape = regexp.MustCompile(`^[A-Z]{2}[A-Z0-9]{10}$`)

// cusipRegex checks 3 issuer chars, 5 issue chars, 1 check digit.
var cusipRegex = regexp.MustCompile(`^[A-Z0-9]{3}[A-Z0-9*@#]{5}[0-9]$`)

// cusipShape restricts inference to numeric issuers, letters are legit too but
// collide with tickers.
var cusipShape = regexp.MustCompile(`^[0-9][A-Z0-9*@#]{7}[0-9]$`)

// micRegex checks for the format: 4 uppercase alphanumeric characters.
var micRegex = regexp.MustCompile(`^[A-Z0-9]{4}$`)

// currencyCodeRegex checks for the format: 3 uppercase letters.
var currencyCodeRegex = regexp.MustCompile(`^[A-Z]{3}$`)

var currencyPairShape = regexp.MustCompile(`^[A-Z]{6}$`)

// privateRegex checks for alphanumeric characters and space.
var privateRegex = regexp.MustCompile(`^[a-zA-Z0-9 ]+$`)

var tickerRegex = regexp.MustCompile(`^[A-Z0-9][A-Z0-9.:\-_/=!^]{0,31}$`)

// Identifier is a normalized, validated but not yet resolved identifier.
type Identifier struct {
	Scheme Scheme
	Value  string
}

func (id Identifier) String() string { return string(id.Scheme) + ":" + id.Value }

// ParseIdentifier normalizes raw and validates it against hint, or against the
// scheme inferred from its shape when hint is zero.
//
// Errors are *InvalidIdentifierFormatError.
func ParseIdentifier(raw string, hint Scheme) (Identifier, error) {
	value := normalize(raw, hint)
	scheme := hint
	if scheme == "" {
		scheme = infer(value)
	}
	fail := func(err error) (Identifier, error) {
		return Identifier{}, &InvalidIdentifierFormatError{Raw: raw, Scheme: scheme, Err: err}
	}
	if value == "" {
		return fail(fmt.Errorf("empty identifier"))
	}

	var err error
	switch scheme {
	case ISIN:
		err = ValidateISIN(value)
	case CUSIP:
		err = ValidateCUSIP(value)
	case MSSI:
		_, _, err = SplitMSSI(value)
	case CurrencyPair:
		_, _, err = SplitCurrencyPair(value)
	case Private:
		err = ValidatePrivate(value)
	case Ticker:
		err = ValidateTicker(value)
	default:
		err = fmt.Errorf("unknown scheme %q", scheme)
	}
	if err != nil {
		return fail(err)
	}
	return Identifier{Scheme: scheme, Value: value}, nil
}

// normalize trims raw and, unless it is a private id, upper-cases it and
// removes inner whitespace.
func normalize(raw string, hint Scheme) string {
	raw = strings.TrimSpace(raw)
	if hint == Private {
		return raw
	}
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return unicode.ToUpper(r)
	}, raw)
}

// infer guesses the scheme of a normalized value from its shape.
func infer(value string) Scheme {
	if before, _, ok := strings.Cut(value, "."); ok && len(before) == 12 {
		return MSSI
	}
	switch {
	case isinShape.MatchString(value):
		return ISIN
	case cusipShape.MatchString(value):
		return CUSIP
	case currencyPairShape.MatchString(value) && ValidateCurrency(value[:3]) == nil && ValidateCurrency(value[3:]) == nil:
		return CurrencyPair
	}
	return Ticker
}

// ValidateISIN checks if a string is a validly formatted ISIN, check digit included.
func ValidateISIN(isin string) error {
	if len(isin) != 12 {
		return fmt.Errorf("invalid ISIN length: must be 12 characters, got %d", len(isin))
	}
	if !isinRegex.MatchString(isin) {
		return fmt.Errorf("invalid ISIN format: must be 2 uppercase letters, 9 alphanumeric chars, and 1 digit")
	}

	// Letters expand to two digits (A=10 ... Z=35) before applying Luhn.
	var digits []int
	for _, c := range isin[:11] {
		if c >= 'A' && c <= 'Z' {
			v := int(c-'A') + 10
			digits = append(digits, v/10, v%10)
		} else {
			digits = append(digits, int(c-'0'))
		}
	}
	sum := 0
	double := true // the rightmost digit before the check digit is doubled
	for i := len(digits) - 1; i >= 0; i-- {
		d := digits[i]
		if double {
			d *= 2
		}
		sum += d/10 + d%10
		double = !double
	}

	expected := (10 - sum%10) % 10
	if actual := int(isin[11] - '0'); expected != actual {
		return fmt.Errorf("invalid ISIN check digit: expected %d, got %d", expected, actual)
	}
	return nil
}

// ValidateCUSIP checks if a string is a validly formatted CUSIP, check digit included.
func ValidateCUSIP(cusip string) error {
	if len(cusip) != 9 {
		return fmt.Errorf("invalid CUSIP length: must be 9 characters, got %d", len(cusip))
	}
	if !cusipRegex.MatchString(cusip) {
		return fmt.Errorf("invalid CUSIP format: must be 8 alphanumeric chars (or *@#) and 1 digit")
	}
	sum := 0
	for i, c := range cusip[:8] {
		var v int
		switch {
		case c >= '0' && c <= '9':
			v = int(c - '0')
		case c >= 'A' && c <= 'Z':
			v = int(c-'A') + 10
		case c == '*':
			v = 36
		case c == '@':
			v = 37
		case c == '#':
			v = 38
		}
		if i%2 == 1 {
			v *= 2
		}
		sum += v/10 + v%10
	}
	expected := (10 - sum%10) % 10
	if actual := int(cusip[8] - '0'); expected != actual {
		return fmt.Errorf("invalid CUSIP check digit: expected %d, got %d", expected, actual)
	}
	return nil
}

// ValidateMIC checks if a string conforms to the MIC (ISO 10383) format.
// Note: This validates the format only, not whether the MIC is officially registered.
func ValidateMIC(mic string) error {
	if len(mic) != 4 {
		return fmt.Errorf("invalid MIC length: must be 4 characters, got %d", len(mic))
	}
	if !micRegex.MatchString(mic) {
		return fmt.Errorf("invalid MIC format: must be 4 uppercase alphanumeric characters")
	}
	return nil
}

// ValidateCurrency checks that code is a known ISO 4217 currency code.
func ValidateCurrency(code string) error {
	if !currencyCodeRegex.MatchString(code) {
		return fmt.Errorf("invalid currency format: must be 3 uppercase letters, got %q", code)
	}
	if money.GetCurrency(code) == nil {
		return fmt.Errorf("unknown currency %q", code)
	}
	return nil
}

// ValidatePrivate checks the format of a private id.
//
// It must be at least 7 characters long (shorter ids could be currency pairs),
// contain only alphanumeric characters and spaces, and no '.' (it would
// resemble an MSSI).
func ValidatePrivate(s string) error {
	if len(s) < 7 {
		return fmt.Errorf("invalid private id: must be at least 7 characters long, got %d", len(s))
	}
	if strings.Contains(s, ".") {
		return fmt.Errorf("invalid private id: must not contain a '.' (resembles an MSSI)")
	}
	if !privateRegex.MatchString(s) {
		return fmt.Errorf("invalid private id: must only contain alphanumeric characters and spaces")
	}
	return nil
}

// ValidateTicker checks the format of an exchange symbol.
func ValidateTicker(s string) error {
	if !tickerRegex.MatchString(s) {
		return fmt.Errorf("invalid ticker %q: must be 1 to 32 chars among A-Z 0-9 . : - _ / = ! ^, starting alphanumeric", s)
	}
	return nil
}

// SplitMSSI validates the "ISIN.MIC" format and returns its parts.
func SplitMSSI(s string) (isin, mic string, err error) {
	isin, mic, ok := strings.Cut(s, ".")
	if !ok || strings.Contains(mic, ".") {
		return "", "", fmt.Errorf("invalid format: MSSI must contain exactly one '.', got %q", s)
	}
	if err := ValidateISIN(isin); err != nil {
		return "", "", fmt.Errorf("invalid ISIN part: %w", err)
	}
	if err := ValidateMIC(mic); err != nil {
		return "", "", fmt.Errorf("invalid MIC part: %w", err)
	}
	return isin, mic, nil
}

// SplitCurrencyPair validates a currency pair and returns its base and quote currencies.
func SplitCurrencyPair(s string) (base, quote string, err error) {
	if len(s) != 6 {
		return "", "", fmt.Errorf("invalid length: currency pair must be 6 characters, got %d", len(s))
	}
	base, quote = s[:3], s[3:]
	if err := ValidateCurrency(base); err != nil {
		return "", "", fmt.Errorf("invalid base currency: %w", err)
	}
	if err := ValidateCurrency(quote); err != nil {
		return "", "", fmt.Errorf("invalid quote currency: %w", err)
	}
	if base == quote {
		return "", "", fmt.Errorf("invalid currency pair %q: base and quote are the same", s)
	}
	return base, quote, nil
}
