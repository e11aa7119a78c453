package server

import (
	"encoding/json"
	"net/http"

	apperrors "github.com/opsdeck/opsdeck/pkg/errors"
)

// errorBody is the JSON error envelope.
type errorBody struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// respondError maps a coded error onto an HTTP status and envelope.
// Uncoded errors are treated as upstream storage failures (502): the
// mutation did not happen and the UI shows a transient notification.
func respondError(w http.ResponseWriter, err error) {
	code := apperrors.GetCode(err)
	status := statusFor(code)
	if code == "" {
		code = apperrors.ErrCodeStorage
	}

	var body errorBody
	body.Error.Code = string(code)
	body.Error.Message = apperrors.UserMessage(err)
	respondJSON(w, status, body)
}

func statusFor(code apperrors.Code) int {
	switch code {
	case apperrors.ErrCodeInvalidInput, apperrors.ErrCodeInvalidEntityType,
		apperrors.ErrCodeInvalidEntityRef, apperrors.ErrCodeInvalidKind,
		apperrors.ErrCodeInvalidDirection, apperrors.ErrCodeInvalidZone,
		apperrors.ErrCodeInvalidPayload, apperrors.ErrCodeInvalidDate,
		apperrors.ErrCodeInvalidFormat:
		return http.StatusBadRequest
	case apperrors.ErrCodeNotFound, apperrors.ErrCodeEntityNotFound,
		apperrors.ErrCodeStashItemNotFound:
		return http.StatusNotFound
	case apperrors.ErrCodeNoPendingGesture, apperrors.ErrCodeGesturePending:
		return http.StatusConflict
	case apperrors.ErrCodeUnsupported:
		return http.StatusNotImplemented
	}
	return http.StatusBadGateway
}

// decodeJSON reads a request body into v, rejecting unknown fields so typo'd
// payloads fail loudly at the boundary.
func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return apperrors.Wrap(apperrors.ErrCodeInvalidInput, err, "malformed request body")
	}
	return nil
}
