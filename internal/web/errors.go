package web

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/a3tai/pdf-form-designer/internal/editor"
	"github.com/a3tai/pdf-form-designer/internal/layout"
	"github.com/a3tai/pdf-form-designer/internal/layoutfile"
	"github.com/a3tai/pdf-form-designer/internal/pdf"
	"github.com/a3tai/pdf-form-designer/internal/workspace"
)

// errorBody is the JSON envelope of every failed API call
type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// requestError marks client input the handler could not decode
type requestError struct {
	msg string
	err error
}

func (e *requestError) Error() string {
	if e.err != nil {
		return e.msg + ": " + e.err.Error()
	}
	return e.msg
}

func (e *requestError) Unwrap() error {
	return e.err
}

func badRequest(msg string, err error) error {
	return &requestError{msg: msg, err: err}
}

// classify maps an error onto an HTTP status and a stable code
func classify(err error) (int, string) {
	var (
		loadErr       *pdf.LoadError
		validationErr *layout.ValidationError
		reqErr        *requestError
	)

	switch {
	case errors.As(err, &validationErr):
		return http.StatusUnprocessableEntity, string(validationErr.Code)
	case errors.As(err, &loadErr):
		return http.StatusUnprocessableEntity, "LoadError"
	case errors.As(err, &reqErr):
		return http.StatusBadRequest, "BadRequest"
	case errors.Is(err, workspace.ErrOutsideWorkspace):
		return http.StatusForbidden, "OutsideWorkspace"
	case errors.Is(err, editor.ErrInvalidScale):
		return http.StatusBadRequest, "InvalidScale"
	case errors.Is(err, editor.ErrSessionNotFound):
		return http.StatusNotFound, "SessionNotFound"
	case errors.Is(err, layout.ErrFieldNotFound):
		return http.StatusNotFound, "FieldNotFound"
	case errors.Is(err, layout.ErrNoFieldAtPoint):
		return http.StatusUnprocessableEntity, "NoFieldAtPoint"
	case errors.Is(err, layout.ErrUnknownFieldType):
		return http.StatusBadRequest, "UnknownFieldType"
	case errors.Is(err, layoutfile.ErrUnknownFormat):
		return http.StatusBadRequest, "UnknownFormat"
	case errors.Is(err, layout.ErrInvalidMode):
		return http.StatusConflict, "InvalidMode"
	case errors.Is(err, layout.ErrGestureActive):
		return http.StatusConflict, "GestureActive"
	case errors.Is(err, layout.ErrGestureReleased):
		return http.StatusConflict, "GestureReleased"
	case errors.Is(err, pdf.ErrNoFields):
		return http.StatusUnprocessableEntity, "NoFields"
	}
	return http.StatusInternalServerError, "Internal"
}

func writeError(w http.ResponseWriter, err error) {
	status, code := classify(err)
	if status == http.StatusInternalServerError {
		log.Printf("Internal error: %v", err)
	}
	writeJSON(w, status, errorBody{Error: errorDetail{Code: code, Message: err.Error()}})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Error encoding response: %v", err)
	}
}

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return badRequest("invalid JSON body", err)
	}
	return nil
}
