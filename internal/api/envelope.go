package api

import (
	"errors"

	"github.com/danielgtaylor/huma/v2"

	domainerrors "github.com/listenupapp/shelfmark/internal/errors"
	"github.com/listenupapp/shelfmark/internal/http/response"
)

// EnvelopeTransformer wraps every huma response body in the response envelope.
// Error bodies become {"success": false, "error": {...}}; anything else is data.
func EnvelopeTransformer(_ huma.Context, _ string, v any) (any, error) {
	switch body := v.(type) {
	case response.Envelope:
		return body, nil
	case *APIError:
		return response.Failure(body.Code, body.Message, body.Details), nil
	case *domainerrors.Error:
		return response.Failure(string(body.Code), body.Message, body.Details), nil
	case error:
		var domainErr *domainerrors.Error
		if errors.As(body, &domainErr) {
			return response.Failure(string(domainErr.Code), domainErr.Message, domainErr.Details), nil
		}
		return response.Failure(string(domainerrors.CodeInternal), body.Error(), nil), nil
	default:
		return response.Wrap(v), nil
	}
}
