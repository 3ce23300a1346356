package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/rgeron/next-hackaton/pkg/proto"
)

// dataResponse is the envelope of successful API responses.
type dataResponse struct {
	Data interface{} `json:"data"`
}

// errorResponse is the envelope of failed API responses.
type errorResponse struct {
	Error string `json:"error"`
}

func renderStatus(code int) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(code)
		io.WriteString(w, fmt.Sprintf("%d %s", code, http.StatusText(code))) //nolint:errcheck,gosec
	}
}

// renderJSON renders v with the given status code.
func renderJSON(w http.ResponseWriter, statusCode int, v interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error("error encoding json", "err", err)
	}
}

func renderData(w http.ResponseWriter, statusCode int, data interface{}) {
	renderJSON(w, statusCode, dataResponse{Data: data})
}

// renderError renders err as {"error": message}. Store failures are logged
// and their details are not sent to the client.
func renderError(w http.ResponseWriter, r *http.Request, err error) {
	kind := proto.KindOf(err)
	code := statusCode(kind)
	msg := err.Error()
	if kind == proto.KindStoreFailure {
		log.FromContext(r.Context()).Error("request failed", "err", err)
		// Only messages written for users are passed through.
		var perr *proto.Error
		if !errors.As(err, &perr) || perr.Unwrap() != nil {
			msg = http.StatusText(code)
		}
	}
	renderJSON(w, code, errorResponse{Error: msg})
}

// statusCode maps an error kind to an HTTP status code.
func statusCode(kind proto.Kind) int {
	switch kind {
	case proto.KindUnauthenticated:
		return http.StatusUnauthorized
	case proto.KindNotAuthorized:
		return http.StatusForbidden
	case proto.KindNotFound:
		return http.StatusNotFound
	case proto.KindInvariantViolation:
		return http.StatusConflict
	case proto.KindInvalidArgument:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func renderBadRequest(w http.ResponseWriter, msg string) {
	renderJSON(w, http.StatusBadRequest, errorResponse{Error: msg})
}

func renderNotFound(w http.ResponseWriter, _ *http.Request) {
	renderJSON(w, http.StatusNotFound, errorResponse{Error: http.StatusText(http.StatusNotFound)})
}

func renderMethodNotAllowed(w http.ResponseWriter, _ *http.Request) {
	renderJSON(w, http.StatusMethodNotAllowed, errorResponse{Error: http.StatusText(http.StatusMethodNotAllowed)})
}

func renderTooManyRequests(w http.ResponseWriter, _ *http.Request) {
	renderJSON(w, http.StatusTooManyRequests, errorResponse{Error: "Too many requests, please try again later"})
}

func hdrNocache(w http.ResponseWriter) {
	w.Header().Set("Expires", "Fri, 01 Jan 1980 00:00:00 GMT")
	w.Header().Set("Pragma", "no-cache")
	w.Header().Set("Cache-Control", "no-cache, max-age=0, must-revalidate")
}
