// Package httpdir talks to the group directory service over its REST and
// WebSocket API.
package httpdir

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/blastroyale/partysync/internal/directory"
	"github.com/blastroyale/partysync/internal/model"
)

// Client implements directory.Client against the directory's REST API.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a directory client for the given base URL, e.g.
// "http://localhost:8080".
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *Client) CreateGroup(ctx context.Context, req directory.CreateGroupRequest) (string, error) {
	var out struct {
		GroupID string `json:"groupId"`
	}
	if err := c.do(ctx, http.MethodPost, "/v1/groups", req, &out); err != nil {
		return "", err
	}
	return out.GroupID, nil
}

func (c *Client) FindGroups(ctx context.Context, filter map[string]string) ([]model.GroupSummary, error) {
	q := url.Values{}
	for k, v := range filter {
		q.Set(k, v)
	}
	var out []model.GroupSummary
	if err := c.do(ctx, http.MethodGet, "/v1/groups?"+q.Encode(), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) JoinGroup(ctx context.Context, req directory.JoinGroupRequest) (string, error) {
	var out struct {
		GroupID string `json:"groupId"`
	}
	path := "/v1/groups/" + url.PathEscape(req.GroupID) + "/members"
	if err := c.do(ctx, http.MethodPost, path, req, &out); err != nil {
		return "", err
	}
	return out.GroupID, nil
}

func (c *Client) GetGroup(ctx context.Context, groupID, memberID string) (*model.Group, error) {
	var group model.Group
	path := "/v1/groups/" + url.PathEscape(groupID) + "?member=" + url.QueryEscape(memberID)
	if err := c.do(ctx, http.MethodGet, path, nil, &group); err != nil {
		return nil, err
	}
	return &group, nil
}

func (c *Client) UpdateGroup(ctx context.Context, req directory.UpdateGroupRequest) error {
	path := "/v1/groups/" + url.PathEscape(req.GroupID)
	return c.do(ctx, http.MethodPatch, path, req, nil)
}

func (c *Client) RemoveMember(ctx context.Context, groupID, memberID string, preventRejoin bool) error {
	path := "/v1/groups/" + url.PathEscape(groupID) + "/members/" + url.PathEscape(memberID)
	if preventRejoin {
		path += "?preventRejoin=true"
	}
	return c.do(ctx, http.MethodDelete, path, nil, nil)
}

func (c *Client) LeaveGroup(ctx context.Context, groupID, memberID string) error {
	path := "/v1/groups/" + url.PathEscape(groupID) + "/leave"
	body := map[string]string{"memberId": memberID}
	return c.do(ctx, http.MethodPost, path, body, nil)
}

// do sends one request and decodes either the expected response or a
// directory fault from the body. Transport failures surface as connection
// faults so callers can branch on the code.
func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return directory.NewError(directory.CodeConnection, "%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var derr directory.Error
		if err := json.NewDecoder(resp.Body).Decode(&derr); err != nil || derr.Code == "" {
			return directory.NewError(directory.CodeConnection, "%s %s: status %d", method, path, resp.StatusCode)
		}
		return &derr
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode %s %s response: %w", method, path, err)
		}
	}
	return nil
}
