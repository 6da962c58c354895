package http

import (
	"encoding/json"
	"net/http"
)

// errorBody is the payload of every non-2xx response written by this package.
type errorBody struct {
	Detail string `json:"detail"`
	Reason string `json:"reason,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(v)
}

func writeDetail(w http.ResponseWriter, status int, detail string) error {
	return writeJSON(w, status, errorBody{Detail: detail})
}
