package ipc

import (
	"encoding/json"
	"fmt"
)

// CommandType represents different IPC command types
type CommandType string

const (
	CommandReload        CommandType = "RELOAD"
	CommandGetStatus     CommandType = "GET_STATUS"
	CommandResolveWindow CommandType = "RESOLVE_WINDOW"
	CommandResolveScene  CommandType = "RESOLVE_SCENE"
	CommandResolveTop    CommandType = "RESOLVE_TOP"
	CommandAnchor        CommandType = "ANCHOR"
	CommandListScenes    CommandType = "LIST_SCENES"
)

// Request represents an IPC request from client to server
type Request struct {
	Command CommandType     `json:"command"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Response represents an IPC response from server to client
type Response struct {
	Status string          `json:"status"` // "OK" or "ERROR"
	Data   json.RawMessage `json:"data,omitempty"`
	Error  string          `json:"error,omitempty"`
}

// StatusData represents the data returned by GET_STATUS
type StatusData struct {
	UptimeSeconds   int64    `json:"uptime_seconds"`
	DaemonRunning   bool     `json:"daemon_running"`
	Display         string   `json:"display,omitempty"`
	MainWindow      uint32   `json:"main_window"` // watcher's last observation; 0 when none
	MainWindowTitle string   `json:"main_window_title,omitempty"`
	MainWindowRule  string   `json:"main_window_rule,omitempty"`
	Changes         int      `json:"changes"`
	LastChange      string   `json:"last_change,omitempty"`
	ConfigFiles     []string `json:"config_files,omitempty"`
}

// ResolveWindowPayload is the payload for RESOLVE_WINDOW.
type ResolveWindowPayload struct {
	ExcludeID uint32 `json:"exclude_id,omitempty"`
}

// SelfPayload is the payload for RESOLVE_TOP and ANCHOR.
type SelfPayload struct {
	SelfID uint32 `json:"self_id,omitempty"`
}

// NewOKResponse creates a successful response with optional data
func NewOKResponse(data any) (*Response, error) {
	var dataBytes json.RawMessage
	if data != nil {
		bytes, err := json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal response data: %w", err)
		}
		dataBytes = bytes
	}

	return &Response{
		Status: "OK",
		Data:   dataBytes,
	}, nil
}

// NewErrorResponse creates an error response with a message
func NewErrorResponse(errMsg string) *Response {
	return &Response{
		Status: "ERROR",
		Error:  errMsg,
	}
}

// ParseRequest parses a request from JSON bytes
func ParseRequest(data []byte) (*Request, error) {
	var req Request
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, fmt.Errorf("failed to parse request: %w", err)
	}
	return &req, nil
}

// Marshal converts a response to JSON bytes
func (r *Response) Marshal() ([]byte, error) {
	return json.Marshal(r)
}

// decodePayload unmarshals an optional payload; an empty payload leaves out
// at its zero value.
func decodePayload(payload json.RawMessage, out any) error {
	if len(payload) == 0 || string(payload) == "null" {
		return nil
	}
	return json.Unmarshal(payload, out)
}
