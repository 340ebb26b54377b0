package transport

import (
	"net/http"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-surveyhooks/core"
)

// deliveryError builds the envelope returned for a failed webhook or
// response-store call. The HTTP code and text code follow the category;
// cause may be nil.
func deliveryError(cause error, category goerrors.Category, message string, metadata map[string]any) error {
	var err *goerrors.Error
	if cause != nil {
		err = goerrors.Wrap(cause, category, message)
	} else {
		err = goerrors.New(message, category)
	}
	err = err.WithCode(deliveryStatus(category)).WithTextCode(deliveryTextCode(category))
	if len(metadata) > 0 {
		err.WithMetadata(metadata)
	}
	return err
}

func deliveryStatus(category goerrors.Category) int {
	switch category {
	case goerrors.CategoryBadInput, goerrors.CategoryValidation:
		return http.StatusBadRequest
	case goerrors.CategoryExternal:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func deliveryTextCode(category goerrors.Category) string {
	switch category {
	case goerrors.CategoryBadInput, goerrors.CategoryValidation:
		return core.ServiceErrorBadInput
	case goerrors.CategoryExternal:
		return core.ServiceErrorExternalFailure
	default:
		return core.ServiceErrorInternal
	}
}
