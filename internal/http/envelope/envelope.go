// Package envelope writes the uniform API response wrapper used by every
// endpoint: {success, data?, message?, errors?}.
package envelope

import (
	"encoding/json"
	"net/http"
)

// Envelope is the uniform response wrapper.
type Envelope struct {
	Success bool                `json:"success"`
	Data    any                 `json:"data,omitempty"`
	Message string              `json:"message,omitempty"`
	Errors  map[string][]string `json:"errors,omitempty"`
}

// Paginated is the wrapper for list endpoints. Total counts all matching
// records, not just the returned page.
type Paginated struct {
	Success    bool   `json:"success"`
	Data       any    `json:"data"`
	Total      int    `json:"total"`
	Page       int    `json:"page"`
	PerPage    int    `json:"per_page"`
	TotalPages int    `json:"total_pages"`
	Message    string `json:"message,omitempty"`
}

// Write serializes v as JSON with the given status code.
func Write(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// OK writes a 200 success envelope wrapping data.
func OK(w http.ResponseWriter, data any) {
	Write(w, http.StatusOK, Envelope{Success: true, Data: data})
}

// OKMessage writes a 200 success envelope with only a message.
func OKMessage(w http.ResponseWriter, message string) {
	Write(w, http.StatusOK, Envelope{Success: true, Message: message})
}

// Created writes a 201 success envelope wrapping data.
func Created(w http.ResponseWriter, data any) {
	Write(w, http.StatusCreated, Envelope{Success: true, Data: data})
}

// List writes a 200 paginated envelope. TotalPages is ceiling division.
func List(w http.ResponseWriter, data any, total, page, perPage int) {
	Write(w, http.StatusOK, Paginated{
		Success:    true,
		Data:       data,
		Total:      total,
		Page:       page,
		PerPage:    perPage,
		TotalPages: TotalPages(total, perPage),
	})
}

// Error writes a failure envelope with the given status and message.
func Error(w http.ResponseWriter, status int, message string) {
	Write(w, status, Envelope{Success: false, Message: message})
}

// ValidationError writes a 422 failure envelope carrying field-level errors.
func ValidationError(w http.ResponseWriter, message string, fieldErrors map[string][]string) {
	Write(w, http.StatusUnprocessableEntity, Envelope{
		Success: false,
		Message: message,
		Errors:  fieldErrors,
	})
}

// TotalPages computes the page count for total records at perPage per page.
func TotalPages(total, perPage int) int {
	if perPage <= 0 || total <= 0 {
		return 0
	}
	return (total + perPage - 1) / perPage
}
