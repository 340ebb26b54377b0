package webhooks

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/goliatone/go-surveyhooks/core"
)

// Default payload field names, in send order.
const (
	FieldAuthKey          = "zapikey"
	FieldSurvey           = "survey"
	FieldEvent            = "event"
	FieldStartDate        = "startdate"
	FieldDateStamp        = "datestamp"
	FieldLastPage         = "lastpage"
	FieldToken            = "token"
	FieldAdditionalFields = "additionalFields"
)

// Template placeholders. Answer codes use {{code}}.
const (
	PlaceholderSurveyID         = "surveyId"
	PlaceholderToken            = "token"
	PlaceholderAPIToken         = "apiToken"
	PlaceholderAdditionalFields = "additionalFields"
)

type Renderer struct{}

func NewRenderer() *Renderer {
	return &Renderer{}
}

// Render builds the default payload when template is blank, otherwise it
// expands the template and decodes it as an ordered JSON object.
func (r *Renderer) Render(template string, rc core.RenderContext) (*core.Payload, error) {
	if strings.TrimSpace(template) == "" {
		return defaultPayload(rc), nil
	}
	expanded, err := expandTemplate(template, rc)
	if err != nil {
		return nil, err
	}
	return core.DecodePayload([]byte(expanded), core.PayloadFormatJSON)
}

func defaultPayload(rc core.RenderContext) *core.Payload {
	payload := core.NewPayload(core.PayloadFormatForm)
	payload.Set(FieldAuthKey, rc.AuthKey)
	payload.Set(FieldSurvey, rc.SurveyID)
	payload.Set(FieldEvent, string(rc.Event))
	if rc.ResponseFetched {
		payload.Set(FieldStartDate, rc.Response.StartDate)
		payload.Set(FieldDateStamp, rc.Response.DateStamp)
		payload.Set(FieldLastPage, rc.Response.LastPage)
	} else {
		payload.Set(FieldStartDate, nil)
		payload.Set(FieldDateStamp, nil)
		payload.Set(FieldLastPage, nil)
	}
	payload.Set(FieldToken, rc.Token)
	if answers := answersPayload(rc); answers != nil {
		payload.Set(FieldAdditionalFields, answers.JSON())
	} else {
		payload.Set(FieldAdditionalFields, nil)
	}
	return payload
}

// answersPayload is nil when no answer codes were requested.
func answersPayload(rc core.RenderContext) *core.Payload {
	order := fieldOrder(rc)
	if len(order) == 0 {
		return nil
	}
	answers := core.NewPayload(core.PayloadFormatJSON)
	for _, code := range order {
		answers.Set(code, rc.AdditionalFields[code])
	}
	return answers
}

func fieldOrder(rc core.RenderContext) []string {
	if len(rc.FieldOrder) > 0 {
		return rc.FieldOrder
	}
	if len(rc.AdditionalFields) == 0 {
		return nil
	}
	codes := make([]string, 0, len(rc.AdditionalFields))
	for code := range rc.AdditionalFields {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

func placeholderValue(name string, isCode bool, rc core.RenderContext) any {
	if isCode {
		if value := rc.AdditionalFields[name]; value != nil {
			return *value
		}
		return nil
	}
	switch name {
	case PlaceholderSurveyID:
		return rc.SurveyID
	case PlaceholderToken:
		if rc.Token != nil {
			return *rc.Token
		}
		return nil
	case PlaceholderAPIToken:
		return rc.AuthKey
	case PlaceholderAdditionalFields:
		if answers := answersPayload(rc); answers != nil {
			return answers
		}
		return nil
	default:
		return nil
	}
}

// expandTemplate substitutes placeholders in one pass. Inside a string
// literal values are written as escaped string content; outside they are
// written as typed JSON. A value literal made of a single placeholder that
// resolves to null becomes the JSON null.
func expandTemplate(template string, rc core.RenderContext) (string, error) {
	var out strings.Builder
	out.Grow(len(template))
	for i := 0; i < len(template); {
		switch template[i] {
		case '"':
			end, err := closingQuote(template, i)
			if err != nil {
				return "", err
			}
			literal := template[i+1 : end]
			written, err := expandLiteral(literal, isObjectKey(template, end+1), rc)
			if err != nil {
				return "", err
			}
			out.WriteString(written)
			i = end + 1
		case '{':
			name, isCode, width, ok := matchPlaceholder(template, i)
			if !ok {
				out.WriteByte('{')
				i++
				continue
			}
			encoded, err := encodeJSON(placeholderValue(name, isCode, rc))
			if err != nil {
				return "", err
			}
			out.WriteString(encoded)
			i += width
		default:
			out.WriteByte(template[i])
			i++
		}
	}
	return out.String(), nil
}

func expandLiteral(literal string, objectKey bool, rc core.RenderContext) (string, error) {
	if !objectKey {
		if name, isCode, width, ok := matchPlaceholder(literal, 0); ok && width == len(literal) {
			if value := placeholderValue(name, isCode, rc); value == nil {
				return "null", nil
			}
		}
	}
	var out strings.Builder
	out.WriteByte('"')
	for i := 0; i < len(literal); {
		if literal[i] == '\\' && i+1 < len(literal) {
			out.WriteString(literal[i : i+2])
			i += 2
			continue
		}
		if literal[i] == '{' {
			if name, isCode, width, ok := matchPlaceholder(literal, i); ok {
				content, err := stringContent(placeholderValue(name, isCode, rc))
				if err != nil {
					return "", err
				}
				out.WriteString(content)
				i += width
				continue
			}
		}
		out.WriteByte(literal[i])
		i++
	}
	out.WriteByte('"')
	return out.String(), nil
}

func closingQuote(template string, open int) (int, error) {
	for i := open + 1; i < len(template); i++ {
		switch template[i] {
		case '\\':
			i++
		case '"':
			return i, nil
		}
	}
	return 0, fmt.Errorf("%w: unterminated string at offset %d", core.ErrPayloadTemplateInvalid, open)
}

func isObjectKey(template string, from int) bool {
	for i := from; i < len(template); i++ {
		switch template[i] {
		case ' ', '\t', '\r', '\n':
			continue
		case ':':
			return true
		default:
			return false
		}
	}
	return false
}

// matchPlaceholder recognises {{code}} and the four named {placeholders}
// starting at s[at].
func matchPlaceholder(s string, at int) (name string, isCode bool, width int, ok bool) {
	rest := s[at:]
	if strings.HasPrefix(rest, "{{") {
		end := strings.Index(rest[2:], "}}")
		if end <= 0 {
			return "", false, 0, false
		}
		code := rest[2 : 2+end]
		if !validAnswerCode(code) {
			return "", false, 0, false
		}
		return code, true, end + 4, true
	}
	for _, candidate := range []string{PlaceholderSurveyID, PlaceholderToken, PlaceholderAPIToken, PlaceholderAdditionalFields} {
		token := "{" + candidate + "}"
		if strings.HasPrefix(rest, token) {
			return candidate, false, len(token), true
		}
	}
	return "", false, 0, false
}

func validAnswerCode(code string) bool {
	if code == "" {
		return false
	}
	for _, r := range code {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case r == '_', r == '.', r == '-', r == '#':
		default:
			return false
		}
	}
	return true
}

func encodeJSON(value any) (string, error) {
	if value == nil {
		return "null", nil
	}
	if payload, ok := value.(*core.Payload); ok {
		raw, err := payload.MarshalJSON()
		if err != nil {
			return "", err
		}
		return string(raw), nil
	}
	var buf bytes.Buffer
	encoder := json.NewEncoder(&buf)
	encoder.SetEscapeHTML(false)
	if err := encoder.Encode(value); err != nil {
		return "", err
	}
	return strings.TrimRight(buf.String(), "\n"), nil
}

// stringContent renders value as the inside of a JSON string literal.
func stringContent(value any) (string, error) {
	var text string
	switch typed := value.(type) {
	case nil:
		return "", nil
	case string:
		text = typed
	case int:
		return strconv.Itoa(typed), nil
	default:
		encoded, err := encodeJSON(value)
		if err != nil {
			return "", err
		}
		text = encoded
	}
	quoted, err := encodeJSON(text)
	if err != nil {
		return "", err
	}
	return quoted[1 : len(quoted)-1], nil
}

var _ core.PayloadRenderer = (*Renderer)(nil)
