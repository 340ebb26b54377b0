package core

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"strconv"
	"strings"
)

type PayloadFormat string

const (
	PayloadFormatForm PayloadFormat = "form"
	PayloadFormatJSON PayloadFormat = "json"
)

// Payload is an ordered key/value document. Insertion order is kept for JSON
// output and for form/query encoding.
type Payload struct {
	Format PayloadFormat
	keys   []string
	values map[string]any
}

func NewPayload(format PayloadFormat) *Payload {
	if format == "" {
		format = PayloadFormatForm
	}
	return &Payload{Format: format, values: map[string]any{}}
}

// Set stores value under key. A key set twice keeps its first position.
func (p *Payload) Set(key string, value any) *Payload {
	if p == nil {
		return nil
	}
	if p.values == nil {
		p.values = map[string]any{}
	}
	if _, exists := p.values[key]; !exists {
		p.keys = append(p.keys, key)
	}
	p.values[key] = derefValue(value)
	return p
}

func derefValue(value any) any {
	switch typed := value.(type) {
	case *string:
		if typed == nil {
			return nil
		}
		return *typed
	case *int:
		if typed == nil {
			return nil
		}
		return *typed
	case *int64:
		if typed == nil {
			return nil
		}
		return *typed
	default:
		return value
	}
}

func (p *Payload) Get(key string) (any, bool) {
	if p == nil {
		return nil, false
	}
	value, ok := p.values[key]
	return value, ok
}

func (p *Payload) Keys() []string {
	if p == nil {
		return nil
	}
	return append([]string(nil), p.keys...)
}

func (p *Payload) Len() int {
	if p == nil {
		return 0
	}
	return len(p.keys)
}

// Map returns an unordered deep copy with nested payloads flattened to maps.
func (p *Payload) Map() map[string]any {
	if p == nil {
		return map[string]any{}
	}
	out := make(map[string]any, len(p.keys))
	for _, key := range p.keys {
		out[key] = plainValue(p.values[key])
	}
	return out
}

func plainValue(value any) any {
	switch typed := value.(type) {
	case *Payload:
		return typed.Map()
	case []any:
		out := make([]any, len(typed))
		for i := range typed {
			out[i] = plainValue(typed[i])
		}
		return out
	default:
		return value
	}
}

func (p *Payload) MarshalJSON() ([]byte, error) {
	if p == nil {
		return []byte("null"), nil
	}
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, key := range p.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		encodedKey, err := marshalJSON(key)
		if err != nil {
			return nil, err
		}
		buf.Write(encodedKey)
		buf.WriteByte(':')
		encodedValue, err := marshalJSON(p.values[key])
		if err != nil {
			return nil, fmt.Errorf("core: encode payload field %q: %w", key, err)
		}
		buf.Write(encodedValue)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// JSON is MarshalJSON without the error for logging and traces.
func (p *Payload) JSON() string {
	raw, err := p.MarshalJSON()
	if err != nil {
		return ""
	}
	return string(raw)
}

// marshalJSON encodes without html escaping, answers are already entity
// escaped at fetch time.
func marshalJSON(value any) ([]byte, error) {
	var buf bytes.Buffer
	encoder := json.NewEncoder(&buf)
	encoder.SetEscapeHTML(false)
	if err := encoder.Encode(value); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// DecodePayload parses a json object keeping key order, nested objects
// included. Numbers are kept as json.Number.
func DecodePayload(data []byte, format PayloadFormat) (*Payload, error) {
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.UseNumber()

	tok, err := decoder.Token()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPayloadTemplateInvalid, err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, fmt.Errorf("%w: top level value must be an object", ErrPayloadTemplateInvalid)
	}
	payload, err := decodeObject(decoder, format)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPayloadTemplateInvalid, err)
	}
	if _, err := decoder.Token(); err != io.EOF {
		return nil, fmt.Errorf("%w: trailing data after object", ErrPayloadTemplateInvalid)
	}
	return payload, nil
}

func decodeObject(decoder *json.Decoder, format PayloadFormat) (*Payload, error) {
	payload := NewPayload(format)
	for decoder.More() {
		tok, err := decoder.Token()
		if err != nil {
			return nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("object key must be a string, got %v", tok)
		}
		value, err := decodeValue(decoder, format)
		if err != nil {
			return nil, err
		}
		payload.Set(key, value)
	}
	if _, err := decoder.Token(); err != nil {
		return nil, err
	}
	return payload, nil
}

func decodeArray(decoder *json.Decoder, format PayloadFormat) ([]any, error) {
	items := []any{}
	for decoder.More() {
		value, err := decodeValue(decoder, format)
		if err != nil {
			return nil, err
		}
		items = append(items, value)
	}
	if _, err := decoder.Token(); err != nil {
		return nil, err
	}
	return items, nil
}

func decodeValue(decoder *json.Decoder, format PayloadFormat) (any, error) {
	tok, err := decoder.Token()
	if err != nil {
		return nil, err
	}
	delim, ok := tok.(json.Delim)
	if !ok {
		return tok, nil
	}
	switch delim {
	case '{':
		return decodeObject(decoder, format)
	case '[':
		return decodeArray(decoder, format)
	default:
		return nil, fmt.Errorf("unexpected delimiter %q", delim)
	}
}

// EncodeForm builds an application/x-www-form-urlencoded string in insertion
// order. Nulls are dropped, booleans become 1/0 and nested values use
// bracketed keys (a[b]=c, a[0]=c).
func (p *Payload) EncodeForm() string {
	if p == nil {
		return ""
	}
	pairs := make([]string, 0, len(p.keys))
	for _, key := range p.keys {
		pairs = appendFormPairs(pairs, key, p.values[key])
	}
	return strings.Join(pairs, "&")
}

func appendFormPairs(pairs []string, key string, value any) []string {
	switch typed := value.(type) {
	case nil:
		return pairs
	case *Payload:
		if typed == nil {
			return pairs
		}
		for _, sub := range typed.keys {
			pairs = appendFormPairs(pairs, key+"["+sub+"]", typed.values[sub])
		}
		return pairs
	case []any:
		for i, item := range typed {
			pairs = appendFormPairs(pairs, key+"["+strconv.Itoa(i)+"]", item)
		}
		return pairs
	default:
		return append(pairs, url.QueryEscape(key)+"="+url.QueryEscape(formScalar(value)))
	}
}

func formScalar(value any) string {
	switch typed := value.(type) {
	case string:
		return typed
	case bool:
		if typed {
			return "1"
		}
		return "0"
	case json.Number:
		return typed.String()
	case int:
		return strconv.Itoa(typed)
	case int64:
		return strconv.FormatInt(typed, 10)
	case float64:
		return strconv.FormatFloat(typed, 'f', -1, 64)
	default:
		return fmt.Sprint(value)
	}
}

// AppendRawQuery joins an encoded query onto rawURL with "?" or "&" depending
// on whether rawURL already carries a query.
func AppendRawQuery(rawURL string, rawQuery string) string {
	rawQuery = strings.TrimLeft(rawQuery, "?&")
	if rawQuery == "" {
		return rawURL
	}
	base, fragment, hasFragment := strings.Cut(rawURL, "#")
	separator := "?"
	if strings.Contains(base, "?") {
		separator = "&"
		if strings.HasSuffix(base, "?") || strings.HasSuffix(base, "&") {
			separator = ""
		}
	}
	joined := base + separator + rawQuery
	if hasFragment {
		joined += "#" + fragment
	}
	return joined
}
