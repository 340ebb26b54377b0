package core

import (
	"errors"
	"net/http"
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

const (
	ServiceErrorBadInput        = "SURVEYHOOK_BAD_INPUT"
	ServiceErrorSettingUnknown  = "SURVEYHOOK_SETTING_UNKNOWN"
	ServiceErrorTemplateInvalid = "SURVEYHOOK_TEMPLATE_INVALID"
	ServiceErrorNotFound        = "SURVEYHOOK_NOT_FOUND"
	ServiceErrorExternalFailure = "SURVEYHOOK_EXTERNAL_FAILURE"
	ServiceErrorInternal        = "SURVEYHOOK_INTERNAL_ERROR"
)

var (
	ErrUnknownSetting         = errors.New("core: unknown setting")
	ErrPayloadTemplateInvalid = errors.New("core: payload template is not a valid json object")
)

func serviceErrorMapper(err error) *goerrors.Error {
	if err == nil {
		return nil
	}

	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) {
		return ensureServiceErrorEnvelope(richErr)
	}

	switch {
	case errors.Is(err, ErrUnknownSetting):
		return newServiceError(err.Error(), goerrors.CategoryBadInput, ServiceErrorSettingUnknown)
	case errors.Is(err, ErrPayloadTemplateInvalid):
		return newServiceError(err.Error(), goerrors.CategoryValidation, ServiceErrorTemplateInvalid)
	}

	msg := strings.ToLower(strings.TrimSpace(err.Error()))
	switch {
	case strings.Contains(msg, "not found"):
		return newServiceError(err.Error(), goerrors.CategoryNotFound, ServiceErrorNotFound)
	case strings.Contains(msg, "required"), strings.Contains(msg, "invalid"), strings.Contains(msg, "must"):
		return newServiceError(err.Error(), goerrors.CategoryBadInput, ServiceErrorBadInput)
	}

	mapped := goerrors.MapToError(err, goerrors.DefaultErrorMappers())
	return ensureServiceErrorEnvelope(mapped)
}

func newServiceError(message string, category goerrors.Category, textCode string) *goerrors.Error {
	return ensureServiceErrorEnvelope(
		goerrors.New(message, category).
			WithTextCode(textCode),
	)
}

func ensureServiceErrorEnvelope(err *goerrors.Error) *goerrors.Error {
	if err == nil {
		return nil
	}
	if err.Code == 0 {
		err.Code = serviceHTTPStatus(err.Category)
	}
	if strings.TrimSpace(err.TextCode) == "" {
		err.TextCode = defaultServiceTextCode(err.Category)
	}
	if err.Category == goerrors.CategoryInternal && strings.TrimSpace(err.Message) == "" {
		err.Message = "An unexpected error occurred"
	}
	return err
}

func defaultServiceTextCode(category goerrors.Category) string {
	switch category {
	case goerrors.CategoryBadInput, goerrors.CategoryValidation:
		return ServiceErrorBadInput
	case goerrors.CategoryNotFound:
		return ServiceErrorNotFound
	case goerrors.CategoryExternal:
		return ServiceErrorExternalFailure
	default:
		return ServiceErrorInternal
	}
}

func serviceHTTPStatus(category goerrors.Category) int {
	switch category {
	case goerrors.CategoryBadInput, goerrors.CategoryValidation:
		return http.StatusBadRequest
	case goerrors.CategoryNotFound:
		return http.StatusNotFound
	case goerrors.CategoryExternal:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// MapError converts any error into the go-errors envelope used across the module.
func MapError(err error) *goerrors.Error {
	return serviceErrorMapper(err)
}
