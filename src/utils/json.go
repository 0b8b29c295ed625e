package utils

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/username/stockfolio/src/logger"
)

const maxJSONBody = 1 << 20

// SendJSONError writes {"error": message} with the given status.
func SendJSONError(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	logger.L.Warn("Sending JSON error to client", "message", message, "statusCode", statusCode)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// WriteJSON encodes v with the given status.
func WriteJSON(w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.L.Error("Failed to encode JSON response", "error", err)
	}
}

// DecodeJSONValues reads a flat JSON object into url.Values so JSON bodies go
// through the same form parsers as HTML forms. Numbers keep their literal text
// and null leaves the key out.
func DecodeJSONValues(r io.Reader) (url.Values, error) {
	dec := json.NewDecoder(io.LimitReader(r, maxJSONBody))
	dec.UseNumber()

	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		if errors.Is(err, io.EOF) {
			return url.Values{}, nil
		}
		return nil, fmt.Errorf("invalid JSON body: %w", err)
	}

	values := url.Values{}
	for k, v := range raw {
		switch val := v.(type) {
		case nil:
		case string:
			values.Set(k, val)
		case json.Number:
			values.Set(k, val.String())
		case bool:
			values.Set(k, strconv.FormatBool(val))
		default:
			return nil, fmt.Errorf("invalid JSON body: field %q must be a scalar", k)
		}
	}
	return values, nil
}
