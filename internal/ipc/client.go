package ipc

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/1broseidon/perch/internal/presenter"
	"github.com/1broseidon/perch/internal/runtimepath"
)

// ErrDaemonUnavailable is returned when no daemon answers on the socket.
var ErrDaemonUnavailable = errors.New("daemon is not running")

// Client handles IPC communication with the daemon
type Client struct {
	socketPath string
	timeout    time.Duration
}

// NewClient creates a new IPC client
func NewClient() *Client {
	socketPath, err := runtimepath.SocketPath()
	if err != nil {
		// Keep constructor non-failing; sendRequest surfaces connection errors.
		socketPath = ""
	}
	return NewClientAt(socketPath)
}

// NewClientAt creates a client for an explicit socket path.
func NewClientAt(socketPath string) *Client {
	return &Client{
		socketPath: socketPath,
		timeout:    5 * time.Second,
	}
}

// sendRequest sends a request and waits for a response
func (c *Client) sendRequest(req *Request) (*Response, error) {
	conn, err := net.DialTimeout("unix", c.socketPath, c.timeout)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDaemonUnavailable, err)
	}
	defer conn.Close()

	conn.SetDeadline(time.Now().Add(c.timeout))

	reqData, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	reqData = append(reqData, '\n')
	if _, err := conn.Write(reqData); err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}

	reader := bufio.NewReader(conn)
	respData, err := reader.ReadBytes('\n')
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var resp Response
	if err := json.Unmarshal(respData, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	if resp.Status == "ERROR" {
		return nil, fmt.Errorf("daemon error: %s", resp.Error)
	}

	return &resp, nil
}

// call sends command with an optional payload and decodes the reply into out.
func (c *Client) call(command CommandType, payload any, out any) error {
	req := &Request{Command: command}
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to marshal %s payload: %w", command, err)
		}
		req.Payload = data
	}

	resp, err := c.sendRequest(req)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(resp.Data, out); err != nil {
		return fmt.Errorf("failed to parse %s data: %w", command, err)
	}
	return nil
}

// Reload sends a RELOAD command to the daemon
func (c *Client) Reload() error {
	return c.call(CommandReload, nil, nil)
}

// GetStatus retrieves daemon status
func (c *Client) GetStatus() (*StatusData, error) {
	var status StatusData
	if err := c.call(CommandGetStatus, nil, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// MainWindow asks the daemon for the main window, excluding excludeID.
func (c *Client) MainWindow(excludeID uint32) (*presenter.WindowReport, error) {
	var report presenter.WindowReport
	if err := c.call(CommandResolveWindow, ResolveWindowPayload{ExcludeID: excludeID}, &report); err != nil {
		return nil, err
	}
	return &report, nil
}

// MainScene asks the daemon for the main scene.
func (c *Client) MainScene() (*presenter.SceneReport, error) {
	var report presenter.SceneReport
	if err := c.call(CommandResolveScene, nil, &report); err != nil {
		return nil, err
	}
	return &report, nil
}

// TopController asks the daemon for the topmost controller.
func (c *Client) TopController(selfID uint32) (*presenter.TopReport, error) {
	var report presenter.TopReport
	if err := c.call(CommandResolveTop, SelfPayload{SelfID: selfID}, &report); err != nil {
		return nil, err
	}
	return &report, nil
}

// Anchor asks the daemon for a status-bar anchor.
func (c *Client) Anchor(selfID uint32) (*presenter.AnchorReport, error) {
	var report presenter.AnchorReport
	if err := c.call(CommandAnchor, SelfPayload{SelfID: selfID}, &report); err != nil {
		return nil, err
	}
	return &report, nil
}

// Scenes lists scenes through the daemon.
func (c *Client) Scenes() (*presenter.ScenesReport, error) {
	var report presenter.ScenesReport
	if err := c.call(CommandListScenes, nil, &report); err != nil {
		return nil, err
	}
	return &report, nil
}

// Ping checks if the daemon is responding
func (c *Client) Ping() error {
	_, err := c.GetStatus()
	return err
}
