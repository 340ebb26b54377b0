package core

import (
	"encoding/json"
	"fmt"
	"html"
	"strings"
	"time"
)

const traceSeparator = "<br><br> ----------------------------- <br><br>"

// DebugTrace is the content of the respondent visible debug block. It carries
// unredacted parameters, so debug mode must stay off for live surveys.
type DebugTrace struct {
	Event       EventName
	Payload     *Payload
	Delivery    DeliveryResult
	RenderError error
	Response    Response
	Fetched     bool
	Elapsed     time.Duration
}

// RenderDebugTrace renders the trace as an html <pre> block with every
// dynamic value escaped.
func RenderDebugTrace(trace DebugTrace) string {
	var b strings.Builder
	b.WriteString("<pre>")
	b.WriteString("Comment: <br>")
	b.WriteString(html.EscapeString(string(trace.Event)))
	b.WriteString(traceSeparator)
	if trace.RenderError != nil {
		b.WriteString("Payload render failed: ")
		b.WriteString(html.EscapeString(trace.RenderError.Error()))
	} else {
		b.WriteString(html.EscapeString(indentJSON(trace.Payload)))
	}
	b.WriteString(traceSeparator)
	b.WriteString(html.EscapeString(describeDelivery(trace.Delivery, trace.RenderError != nil)))
	b.WriteString(traceSeparator)
	if trace.Fetched {
		b.WriteString(html.EscapeString(indentJSON(responseTraceRow(trace.Response))))
	} else {
		b.WriteString("(response not fetched)")
	}
	b.WriteString(traceSeparator)
	fmt.Fprintf(&b, "Total execution time in seconds: %.6f", trace.Elapsed.Seconds())
	b.WriteString("</pre>")
	return b.String()
}

func describeDelivery(delivery DeliveryResult, skipped bool) string {
	if skipped {
		return "(not sent)"
	}
	if delivery.Err != nil {
		return "false: " + delivery.Err.Error()
	}
	return fmt.Sprintf("HTTP %d\n%s", delivery.StatusCode, string(delivery.Body))
}

func responseTraceRow(response Response) map[string]any {
	if !response.Found {
		return map[string]any{}
	}
	row := map[string]any{
		ColumnID:            response.ID,
		ColumnToken:         response.Token,
		ColumnStartDate:     response.StartDate,
		ColumnDateStamp:     response.DateStamp,
		ColumnLastPage:      response.LastPage,
		ColumnStartLanguage: response.StartLanguage,
	}
	for code, answer := range response.Answers {
		if _, reserved := row[code]; reserved {
			continue
		}
		row[code] = answer
	}
	return row
}

func indentJSON(value any) string {
	raw, err := json.MarshalIndent(value, "", "    ")
	if err != nil {
		return fmt.Sprint(value)
	}
	return string(raw)
}
