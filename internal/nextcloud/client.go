// Package nextcloud talks to the Nextcloud OCS provisioning API and the
// groupfolders app to mirror platform accounts and groups into the cloud.
package nextcloud

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	provisioningPrefix = "/ocs/v1.php/cloud"
	groupFoldersPrefix = "/index.php/apps/groupfolders/folders"

	// StatusAlreadyExists is the OCS statuscode for an entity that exists.
	StatusAlreadyExists = 102

	passwordLength = 32
	passwordChars  = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

// Client is an authenticated Nextcloud admin API client.
type Client struct {
	baseURL   string
	adminUser string
	adminPass string
	http      *http.Client
}

// NewClient creates a client for the instance at baseURL.
func NewClient(baseURL, adminUser, adminPass string) *Client {
	return &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		adminUser: adminUser,
		adminPass: adminPass,
		http:      &http.Client{Timeout: 30 * time.Second},
	}
}

// OCSError is a non-ok OCS meta response.
type OCSError struct {
	StatusCode int
	Message    string
}

func (e *OCSError) Error() string {
	return fmt.Sprintf("ocs error %d: %s", e.StatusCode, e.Message)
}

// IsAlreadyExists reports whether err is the OCS "already exists" response.
func IsAlreadyExists(err error) bool {
	var ocsErr *OCSError
	return errors.As(err, &ocsErr) && ocsErr.StatusCode == StatusAlreadyExists
}

type ocsEnvelope struct {
	OCS struct {
		Meta struct {
			Status     string `json:"status"`
			StatusCode int    `json:"statuscode"`
			Message    string `json:"message"`
		} `json:"meta"`
		Data json.RawMessage `json:"data"`
	} `json:"ocs"`
}

// do sends an OCS request and unwraps the envelope.
func (c *Client) do(ctx context.Context, method, path string, form url.Values) (json.RawMessage, error) {
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.SetBasicAuth(c.adminUser, c.adminPass)
	req.Header.Set("OCS-APIRequest", "true")
	req.Header.Set("Accept", "application/json")
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	res, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request to %s failed: %w", path, err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return nil, fmt.Errorf("unexpected HTTP status %d from %s", res.StatusCode, path)
	}

	var envelope ocsEnvelope
	if err := json.NewDecoder(res.Body).Decode(&envelope); err != nil {
		return nil, fmt.Errorf("failed to decode OCS response from %s: %w", path, err)
	}

	if envelope.OCS.Meta.Status != "ok" {
		return nil, &OCSError{
			StatusCode: envelope.OCS.Meta.StatusCode,
			Message:    envelope.OCS.Meta.Message,
		}
	}

	return envelope.OCS.Data, nil
}

// CreateUser creates a user with a random throwaway password.
// Accounts log in through the platform SSO, the password is never used.
func (c *Client) CreateUser(ctx context.Context, userID, displayName, email string, groups []string) error {
	password, err := randomPassword()
	if err != nil {
		return err
	}

	form := url.Values{}
	form.Set("userid", userID)
	form.Set("displayName", displayName)
	form.Set("email", email)
	form.Set("password", password)
	for _, group := range groups {
		form.Add("groups[]", group)
	}

	_, err = c.do(ctx, http.MethodPost, provisioningPrefix+"/users", form)
	return err
}

// DeleteUser removes a user.
func (c *Client) DeleteUser(ctx context.Context, userID string) error {
	_, err := c.do(ctx, http.MethodDelete, provisioningPrefix+"/users/"+url.PathEscape(userID), nil)
	return err
}

// ListUserIDs returns all user ids known to the instance.
func (c *Client) ListUserIDs(ctx context.Context) ([]string, error) {
	data, err := c.do(ctx, http.MethodGet, provisioningPrefix+"/users", nil)
	if err != nil {
		return nil, err
	}

	var payload struct {
		Users []string `json:"users"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("failed to decode user list: %w", err)
	}
	return payload.Users, nil
}

// CreateGroup creates a group.
func (c *Client) CreateGroup(ctx context.Context, groupID string) error {
	form := url.Values{}
	form.Set("groupid", groupID)

	_, err := c.do(ctx, http.MethodPost, provisioningPrefix+"/groups", form)
	return err
}

// GroupMembers returns the user ids that are members of a group.
func (c *Client) GroupMembers(ctx context.Context, groupID string) ([]string, error) {
	data, err := c.do(ctx, http.MethodGet, provisioningPrefix+"/groups/"+url.PathEscape(groupID), nil)
	if err != nil {
		return nil, err
	}

	var payload struct {
		Users []string `json:"users"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("failed to decode group member list: %w", err)
	}
	return payload.Users, nil
}

// AddUserToGroup adds a user to a group.
func (c *Client) AddUserToGroup(ctx context.Context, userID, groupID string) error {
	form := url.Values{}
	form.Set("groupid", groupID)

	_, err := c.do(ctx, http.MethodPost, provisioningPrefix+"/users/"+url.PathEscape(userID)+"/groups", form)
	return err
}

// RemoveUserFromGroup removes a user from a group.
func (c *Client) RemoveUserFromGroup(ctx context.Context, userID, groupID string) error {
	form := url.Values{}
	form.Set("groupid", groupID)

	_, err := c.do(ctx, http.MethodDelete, provisioningPrefix+"/users/"+url.PathEscape(userID)+"/groups", form)
	return err
}

// CreateGroupFolder creates a group folder mount and returns its id.
// WARNING: calling this for a mountpoint that already exists creates a
// second folder; callers must only do this for newly created groups.
func (c *Client) CreateGroupFolder(ctx context.Context, mountpoint string) (int, error) {
	form := url.Values{}
	form.Set("mountpoint", mountpoint)

	data, err := c.do(ctx, http.MethodPost, groupFoldersPrefix, form)
	if err != nil {
		return 0, err
	}

	var payload struct {
		ID int `json:"id"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return 0, fmt.Errorf("failed to decode group folder response: %w", err)
	}
	return payload.ID, nil
}

// AddGroupToFolder grants a group access to a group folder.
func (c *Client) AddGroupToFolder(ctx context.Context, folderID int, groupID string) error {
	form := url.Values{}
	form.Set("group", groupID)

	_, err := c.do(ctx, http.MethodPost, fmt.Sprintf("%s/%d/groups", groupFoldersPrefix, folderID), form)
	return err
}

// FolderLink returns the web URL of a group folder.
func (c *Client) FolderLink(folderName string) string {
	return c.baseURL + "/apps/files/?dir=/" + url.PathEscape(folderName)
}

// randomPassword generates the throwaway password for new accounts.
func randomPassword() (string, error) {
	max := big.NewInt(int64(len(passwordChars)))
	buf := make([]byte, passwordLength)
	for i := range buf {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("failed to generate password: %w", err)
		}
		buf[i] = passwordChars[n.Int64()]
	}
	return string(buf), nil
}
