package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strconv"
)

const robloxUsersBaseURL = "https://users.roblox.com"

// RobloxAccount is the subset of the Roblox users API we consume.
type RobloxAccount struct {
	UserID      string
	Username    string
	DisplayName string
	Description string
}

// RobloxClient resolves Roblox usernames to accounts and fetches profile
// descriptions for verification challenges.
type RobloxClient struct {
	*BaseClient
}

func NewRobloxClient() *RobloxClient {
	c := &RobloxClient{BaseClient: NewBaseClient(robloxUsersBaseURL)}
	c.SetHeader("Content-Type", "application/json")
	return c
}

type lookupUsersRequest struct {
	Usernames          []string `json:"usernames"`
	ExcludeBannedUsers bool     `json:"excludeBannedUsers"`
}

type lookupUsersResponse struct {
	Data []struct {
		ID          int64  `json:"id"`
		Name        string `json:"name"`
		DisplayName string `json:"displayName"`
	} `json:"data"`
}

// LookupUsername resolves a Roblox username to an account. Returns an error
// when the username does not exist.
func (c *RobloxClient) LookupUsername(ctx context.Context, username string) (*RobloxAccount, error) {
	body, err := json.Marshal(lookupUsersRequest{
		Usernames:          []string{username},
		ExcludeBannedUsers: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal lookup request: %w", err)
	}

	raw, err := c.Post(ctx, "/v1/usernames/users", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("roblox username lookup failed: %w", err)
	}

	var resp lookupUsersResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal lookup response: %w", err)
	}
	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("roblox user %q not found", username)
	}

	u := resp.Data[0]
	return &RobloxAccount{
		UserID:      strconv.FormatInt(u.ID, 10),
		Username:    u.Name,
		DisplayName: u.DisplayName,
	}, nil
}

type userDetailsResponse struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	DisplayName string `json:"displayName"`
	Description string `json:"description"`
}

// GetUser fetches account details including the profile description, which
// carries the verification phrase during identity verification.
func (c *RobloxClient) GetUser(ctx context.Context, userID string) (*RobloxAccount, error) {
	raw, err := c.Get(ctx, "/v1/users/"+userID)
	if err != nil {
		return nil, fmt.Errorf("roblox user fetch failed: %w", err)
	}

	var resp userDetailsResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal user response: %w", err)
	}

	return &RobloxAccount{
		UserID:      strconv.FormatInt(resp.ID, 10),
		Username:    resp.Name,
		DisplayName: resp.DisplayName,
		Description: resp.Description,
	}, nil
}
