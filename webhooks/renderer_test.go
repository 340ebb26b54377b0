package webhooks

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/goliatone/go-surveyhooks/core"
)

func strPtr(value string) *string {
	return &value
}

func intPtr(value int) *int {
	return &value
}

func TestRender_TemplateSubstitutesNamedPlaceholders(t *testing.T) {
	payload, err := NewRenderer().Render(`{"survey":"{surveyId}","token":"{token}"}`, core.RenderContext{
		SurveyID: 7,
		Token:    strPtr("abc"),
	})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if got := payload.JSON(); got != `{"survey":"7","token":"abc"}` {
		t.Fatalf("unexpected payload %s", got)
	}
	if payload.Format != core.PayloadFormatJSON {
		t.Fatalf("expected json format, got %q", payload.Format)
	}
}

func TestRender_TemplateNullTokenBecomesNull(t *testing.T) {
	template := `{"survey":"{surveyId}","token":"{token}","zapikey":"{apiToken}","additionalFields":"{additionalFields}"}`
	payload, err := NewRenderer().Render(template, core.RenderContext{SurveyID: 7, AuthKey: "K"})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	want := `{"survey":"7","token":null,"zapikey":"K","additionalFields":null}`
	if got := payload.JSON(); got != want {
		t.Fatalf("expected %s, got %s", want, got)
	}
}

func TestRender_TemplateAnswerCodesAndTypedPlaceholders(t *testing.T) {
	template := `{"id":{surveyId},"q1":"{{Q1}}","q2":{{Q2}},"missing":"{{Q9}}","all":{additionalFields},"note":"Q1 was {{Q1}}"}`
	rc := core.RenderContext{
		SurveyID:         12,
		AdditionalFields: map[string]*string{"Q1": strPtr("&lt;b&gt;yes&lt;/b&gt;"), "Q2": nil},
		FieldOrder:       []string{"Q1", "Q2"},
	}
	payload, err := NewRenderer().Render(template, rc)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	want := `{"id":12,"q1":"&lt;b&gt;yes&lt;/b&gt;","q2":null,"missing":null,"all":{"Q1":"&lt;b&gt;yes&lt;/b&gt;","Q2":null},"note":"Q1 was &lt;b&gt;yes&lt;/b&gt;"}`
	if got := payload.JSON(); got != want {
		t.Fatalf("expected %s, got %s", want, got)
	}
	id, _ := payload.Get("id")
	if number, ok := id.(json.Number); !ok || number.String() != "12" {
		t.Fatalf("expected numeric survey id, got %#v", id)
	}
}

func TestRender_UnquotedNumericAnswerStaysString(t *testing.T) {
	rc := core.RenderContext{
		SurveyID:         5,
		AdditionalFields: map[string]*string{"Q1": strPtr("42")},
		FieldOrder:       []string{"Q1"},
	}
	payload, err := NewRenderer().Render(`{"a":{{Q1}},"survey":{surveyId}}`, rc)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if got := payload.JSON(); got != `{"a":"42","survey":5}` {
		t.Fatalf("expected answer as JSON string and survey id as number, got %s", got)
	}
	value, _ := payload.Get("a")
	if _, ok := value.(string); !ok {
		t.Fatalf("expected string answer, got %#v", value)
	}
}

func TestRender_ValuesCannotBreakTemplateStructure(t *testing.T) {
	rc := core.RenderContext{
		SurveyID:         3,
		Token:            strPtr(`tok","admin":true,"x":"`),
		AdditionalFields: map[string]*string{"Q1": strPtr(`}{ \ "quoted" {token}`)},
		FieldOrder:       []string{"Q1"},
	}
	payload, err := NewRenderer().Render(`{"token":"{token}","answer":"{{Q1}}"}`, rc)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if payload.Len() != 2 {
		t.Fatalf("expected exactly two keys, got %v", payload.Keys())
	}
	token, _ := payload.Get("token")
	if token != `tok","admin":true,"x":"` {
		t.Fatalf("expected token kept verbatim, got %#v", token)
	}
	answer, _ := payload.Get("answer")
	if answer != `}{ \ "quoted" {token}` {
		t.Fatalf("expected answer kept verbatim, got %#v", answer)
	}
}

func TestRender_AdditionalFieldsInsideStringIsEncodedJSON(t *testing.T) {
	rc := core.RenderContext{
		AdditionalFields: map[string]*string{"Q1": strPtr("a"), "Q2": strPtr("b")},
		FieldOrder:       []string{"Q2", "Q1"},
	}
	payload, err := NewRenderer().Render(`{"additionalFields":"{additionalFields}"}`, rc)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	value, _ := payload.Get("additionalFields")
	if value != `{"Q2":"b","Q1":"a"}` {
		t.Fatalf("expected ordered json string, got %#v", value)
	}
}

func TestRender_NestedObjectsKeepOrder(t *testing.T) {
	payload, err := NewRenderer().Render(`{"z":1,"meta":{"b":"{surveyId}","a":[1,"{token}"]}}`, core.RenderContext{SurveyID: 5, Token: strPtr("t")})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if got := payload.JSON(); got != `{"z":1,"meta":{"b":"5","a":[1,"t"]}}` {
		t.Fatalf("unexpected payload %s", got)
	}
}

func TestRender_InvalidTemplate(t *testing.T) {
	for _, template := range []string{`{"a":`, `["a"]`, `{"a":"unterminated}`, `{"a":1} trailing`} {
		_, err := NewRenderer().Render(template, core.RenderContext{SurveyID: 1})
		if !errors.Is(err, core.ErrPayloadTemplateInvalid) {
			t.Fatalf("template %q: expected invalid template error, got %v", template, err)
		}
	}
}

func TestRender_DefaultPayloadShape(t *testing.T) {
	payload, err := NewRenderer().Render("", core.RenderContext{
		SurveyID: 7,
		AuthKey:  "K",
		Event:    core.EventSurveyCompleted,
	})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	want := `{"zapikey":"K","survey":7,"event":"afterSurveyComplete","startdate":null,"datestamp":null,"lastpage":null,"token":null,"additionalFields":null}`
	if got := payload.JSON(); got != want {
		t.Fatalf("expected %s, got %s", want, got)
	}
	if payload.Format != core.PayloadFormatForm {
		t.Fatalf("expected form format, got %q", payload.Format)
	}
}

func TestRender_DefaultPayloadWithResponse(t *testing.T) {
	rc := core.RenderContext{
		SurveyID: 7,
		AuthKey:  "K",
		Token:    strPtr("tok"),
		Event:    core.EventSurveyAutosaved,
		Response: core.Response{
			Found:     true,
			StartDate: strPtr("2024-01-01 10:00:00"),
			DateStamp: strPtr("2024-01-01 10:05:00"),
			LastPage:  intPtr(2),
		},
		ResponseFetched:  true,
		AdditionalFields: map[string]*string{"Q1": strPtr("yes"), "Q2": nil},
		FieldOrder:       []string{"Q1", "Q2"},
	}
	payload, err := NewRenderer().Render("  ", rc)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if got := payload.Keys(); len(got) != 8 || got[0] != FieldAuthKey || got[7] != FieldAdditionalFields {
		t.Fatalf("unexpected key order %v", got)
	}
	lastPage, _ := payload.Get(FieldLastPage)
	if lastPage != 2 {
		t.Fatalf("expected lastpage 2, got %#v", lastPage)
	}
	fields, _ := payload.Get(FieldAdditionalFields)
	if fields != `{"Q1":"yes","Q2":null}` {
		t.Fatalf("expected answers json string, got %#v", fields)
	}
	form := payload.EncodeForm()
	want := "zapikey=K&survey=7&event=afterSurveyDynamicSave&startdate=2024-01-01+10%3A00%3A00&datestamp=2024-01-01+10%3A05%3A00&lastpage=2&token=tok&additionalFields=%7B%22Q1%22%3A%22yes%22%2C%22Q2%22%3Anull%7D"
	if form != want {
		t.Fatalf("expected %s, got %s", want, form)
	}
}
