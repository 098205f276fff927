package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/aaronzipp/escape-room-live/internal/apperr"
)

// initDataHeader carries the signed credential on player API requests.
const initDataHeader = "X-Telegram-Init-Data"

const maxBodyBytes = 1 << 16

type errorBody struct {
	Detail string      `json:"detail"`
	Code   apperr.Code `json:"code"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("handlers: write response failed: %v", err)
	}
}

// writeError maps err to its status and writes {"detail", "code"}.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	code := apperr.CodeOf(err)
	if code == apperr.CodeInternal {
		log.Printf("handlers: %s %s failed: %v", r.Method, r.URL.Path, err)
	}
	writeJSON(w, code.HTTPStatus(), errorBody{Detail: apperr.MessageOf(err), Code: code})
}

// decodeBody reads a JSON body into v. An empty body leaves v untouched.
func decodeBody(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return apperr.Wrap(apperr.CodeBadRequest, "Invalid request body.", err)
	}
	return nil
}

func initDataFromRequest(r *http.Request) string {
	return strings.TrimSpace(r.Header.Get(initDataHeader))
}

func chatIDFromPath(r *http.Request) (int64, error) {
	chatID, err := strconv.ParseInt(r.PathValue("chat_id"), 10, 64)
	if err != nil {
		return 0, apperr.Wrap(apperr.CodeBadRequest, "Invalid chat id.", err)
	}
	return chatID, nil
}
