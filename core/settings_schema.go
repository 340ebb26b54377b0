package core

import (
	"sort"
	"strings"
)

const (
	SettingUse                = "bUse"
	SettingURLOverwrite       = "bUrlOverwrite"
	SettingURL                = "sUrl"
	SettingAuthTokenOverwrite = "bAuthTokenOverwrite"
	SettingAuthToken          = "sAuthToken"
	SettingSendToken          = "bSendToken"
	SettingAnswersToSend      = "sAnswersToSend"
	SettingRequestType        = "bRequestType"
	SettingPayloadTemplate    = "sPostSignature"
	SettingDebugMode          = "bDebugMode"
)

const DefaultWebhookURL = "https://flow.zoho.eu/20073958063/flow/webhook/incoming"

// DefaultPayloadTemplateHint is offered as an example in the settings form; an
// empty template selects the fixed default payload.
const DefaultPayloadTemplateHint = `{"survey":"{surveyId}","token":"{token}","zapikey":"{apiToken}","additionalFields":"{additionalFields}"}`

type SettingType string

const (
	SettingTypeSelect SettingType = "select"
	SettingTypeString SettingType = "string"
)

type SettingOption struct {
	Value string
	Label string
}

type SettingDefinition struct {
	Name    string
	Type    SettingType
	Label   string
	Help    string
	Default string
	Options []SettingOption
	// OverrideFlag names the survey setting that must be "1" before the survey
	// value of this setting is used.
	OverrideFlag string
}

func (d SettingDefinition) AllowsValue(value string) bool {
	if d.Type != SettingTypeSelect {
		return true
	}
	for _, option := range d.Options {
		if option.Value == strings.TrimSpace(value) {
			return true
		}
	}
	return false
}

type SettingsSchema struct {
	Global []SettingDefinition
	Survey []SettingDefinition
}

var yesNoOptions = []SettingOption{{Value: "0", Label: "No"}, {Value: "1", Label: "Yes"}}

// DefaultSettingsSchema declares every setting with its compiled default.
func DefaultSettingsSchema() SettingsSchema {
	return SettingsSchema{
		Global: []SettingDefinition{
			{
				Name:    SettingUse,
				Type:    SettingTypeSelect,
				Label:   "Send a hook for every survey by default?",
				Help:    "Overwritable in each Survey setting",
				Default: "0",
				Options: yesNoOptions,
			},
			{
				Name:    SettingURL,
				Type:    SettingTypeString,
				Label:   "The default URL to send the webhook to:",
				Help:    "If you are using Zoho Flow, this should be " + DefaultWebhookURL,
				Default: DefaultWebhookURL,
			},
			{
				Name:  SettingAuthToken,
				Type:  SettingTypeString,
				Label: "Zoho Flow Webhook API Key:",
				Help:  "To get the token create a Zoho flow and add a webhook. Copy the value behind zapikey=",
			},
			{
				Name:    SettingSendToken,
				Type:    SettingTypeSelect,
				Label:   "Send the users' token to the hook by default?",
				Default: "1",
				Options: yesNoOptions,
			},
			{
				Name:  SettingAnswersToSend,
				Type:  SettingTypeString,
				Label: "Answers to send by default",
				Help:  "Comma separated question codes",
			},
			{
				Name:    SettingRequestType,
				Type:    SettingTypeSelect,
				Label:   "Default request type",
				Default: "0",
				Options: []SettingOption{{Value: "0", Label: "POST"}, {Value: "1", Label: "GET"}},
			},
			{
				Name:  SettingPayloadTemplate,
				Type:  SettingTypeString,
				Label: "Default JSON payload",
				Help:  "Leave blank to send the default field set",
			},
			{
				Name:    SettingDebugMode,
				Type:    SettingTypeSelect,
				Label:   "Enable Debug Mode for every survey",
				Help:    "Respondents will see the debug output, never enable it for live surveys",
				Default: "0",
				Options: yesNoOptions,
			},
		},
		Survey: []SettingDefinition{
			{
				Name:  SettingUse,
				Type:  SettingTypeSelect,
				Label: "Send a hook for this survey?",
				Help:  "Leave default to use global setting",
				// "2" defers to the global switch.
				Default: "2",
				Options: []SettingOption{
					{Value: "0", Label: "No"},
					{Value: "1", Label: "Yes"},
					{Value: "2", Label: "Use site settings (default)"},
				},
			},
			{
				Name:    SettingURLOverwrite,
				Type:    SettingTypeSelect,
				Label:   "Overwrite the global Webhook Url?",
				Help:    "Set to Yes if you want to use a specific URL for this survey",
				Default: "0",
				Options: yesNoOptions,
			},
			{
				Name:         SettingURL,
				Type:         SettingTypeString,
				Label:        "If yes, provide custom hook Url for this survey:",
				Help:         "Leave blank to use global setting",
				OverrideFlag: SettingURLOverwrite,
			},
			{
				Name:    SettingAuthTokenOverwrite,
				Type:    SettingTypeSelect,
				Label:   "Provide custom Zoho Flow Webhook API key?",
				Help:    "Set to Yes if you want to use a specific Zoho Flow Webhook API key for this survey",
				Default: "0",
				Options: yesNoOptions,
			},
			{
				Name:         SettingAuthToken,
				Type:         SettingTypeString,
				Label:        "If yes, provide custom Zoho Flow Webhook API key:",
				Help:         "Leave blank to use default",
				OverrideFlag: SettingAuthTokenOverwrite,
			},
			{
				Name:    SettingSendToken,
				Type:    SettingTypeSelect,
				Label:   "Send the users' token to the hook",
				Help:    "Set to Yes if you want to pass the users token along in the request",
				Default: "1",
				Options: yesNoOptions,
			},
			{
				Name:  SettingAnswersToSend,
				Type:  SettingTypeString,
				Label: "Answers to send",
				Help:  "Comma separated question codes of the answers you want to send along",
			},
			{
				Name:    SettingRequestType,
				Type:    SettingTypeSelect,
				Label:   "Request Type",
				Default: "0",
				Options: []SettingOption{{Value: "0", Label: "POST"}, {Value: "1", Label: "GET"}},
			},
			{
				Name:  SettingPayloadTemplate,
				Type:  SettingTypeString,
				Label: "Customize JSON Payload",
				Help: "JSON payload can contain placeholders {surveyId},{token},{apiToken} and {additionalFields}, " +
					"use {{fieldcode}} for additional specific fields values. Example: " + DefaultPayloadTemplateHint,
			},
			{
				Name:    SettingDebugMode,
				Type:    SettingTypeSelect,
				Label:   "Enable Debug Mode",
				Help:    "Enable debugmode to see what data is transmitted. Respondents will see this as well so you should turn this off for live surveys",
				Default: "0",
				Options: yesNoOptions,
			},
		},
	}
}

func (s SettingsSchema) definitions(scope string) []SettingDefinition {
	if scope == ScopeTypeSurvey {
		return s.Survey
	}
	return s.Global
}

func (s SettingsSchema) Lookup(scope string, name string) (SettingDefinition, bool) {
	for _, def := range s.definitions(scope) {
		if def.Name == name {
			return def, true
		}
	}
	return SettingDefinition{}, false
}

// Defaults returns the compiled default for every known setting name. The
// global definition wins for names declared in both scopes, except bUse where
// the survey default "2" only applies to the survey layer.
func (s SettingsSchema) Defaults() map[string]string {
	out := map[string]string{}
	for _, def := range s.Survey {
		out[def.Name] = def.Default
	}
	for _, def := range s.Global {
		out[def.Name] = def.Default
	}
	return out
}

func (s SettingsSchema) Names(scope string) []string {
	defs := s.definitions(scope)
	names := make([]string, 0, len(defs))
	for _, def := range defs {
		names = append(names, def.Name)
	}
	sort.Strings(names)
	return names
}
