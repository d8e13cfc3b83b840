package ipc

import (
	"net"
	"net/rpc"
	"net/rpc/jsonrpc"
	"time"
)

const dialTimeout = 2 * time.Second

// Client is a JSON-RPC connection to the daemon socket. It is not meant to be
// shared across goroutines that close it independently.
type Client struct {
	rpc *rpc.Client
}

// Dial connects to the daemon listening on the unix socket at path.
func Dial(path string) (*Client, error) {
	conn, err := net.DialTimeout("unix", path, dialTimeout)
	if err != nil {
		return nil, err
	}
	return &Client{rpc: rpc.NewClientWithCodec(jsonrpc.NewClientCodec(conn))}, nil
}

// Close releases the connection.
func (c *Client) Close() error {
	return c.rpc.Close()
}

func invoke[Resp any](c *Client, method string, req any) (*Resp, error) {
	resp := new(Resp)
	if err := c.rpc.Call(ServiceName+"."+method, req, resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// AddFile registers or replaces a monitored file.
func (c *Client) AddFile(req AddFileRequest) (*AddFileResponse, error) {
	return invoke[AddFileResponse](c, "AddFile", req)
}

// RemoveFile unregisters path. Removed is false when it was not monitored.
func (c *Client) RemoveFile(path string) (*RemoveFileResponse, error) {
	return invoke[RemoveFileResponse](c, "RemoveFile", RemoveFileRequest{Path: path})
}

// ListFiles returns the monitored files in registration order.
func (c *Client) ListFiles() (*ListFilesResponse, error) {
	return invoke[ListFilesResponse](c, "ListFiles", ListFilesRequest{})
}

// SetTimer changes the polling period and restarts the timer.
func (c *Client) SetTimer(periodSeconds int64) (*SetTimerResponse, error) {
	return invoke[SetTimerResponse](c, "SetTimer", SetTimerRequest{PeriodSeconds: periodSeconds})
}

// Stop asks the daemon to shut down.
func (c *Client) Stop() (*StopResponse, error) {
	return invoke[StopResponse](c, "StopServer", StopRequest{})
}

func (c *Client) Status() (*StatusResponse, error) {
	return invoke[StatusResponse](c, "Status", StatusRequest{})
}

// CheckNow runs an evaluation pass immediately and returns its summary.
func (c *Client) CheckNow() (*CheckResponse, error) {
	return invoke[CheckResponse](c, "CheckNow", CheckRequest{})
}

// TestNotification sends a fixed message through the configured sinks.
func (c *Client) TestNotification() (*TestNotificationResponse, error) {
	return invoke[TestNotificationResponse](c, "TestNotification", TestNotificationRequest{})
}
