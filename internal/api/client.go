// Package api is the REST client for the chat backend. Everything that is
// not the live STOMP stream goes through here: history, directory search,
// identity and stored file retrieval.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/Raunak7888/hermes-tui/internal/wire"
	"go.uber.org/zap"
)

const requestTimeout = 30 * time.Second

// DirectoryEntry is one search result, either a user or a group.
type DirectoryEntry struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Group bool   `json:"group"`
}

// StoredFile is a file previously delivered through the backend.
type StoredFile struct {
	Type    string `json:"type"`
	Content []byte `json:"content"`
}

// Group is a newly created group as the backend returns it.
type Group struct {
	ID   int64  `json:"id"`
	Name string `json:"groupName"`
}

// ErrGroupTooSmall rejects group creation with fewer than three members,
// creator included.
var ErrGroupTooSmall = errors.New("api: a group needs at least 3 members")

// Client talks to the backend over HTTP. The bearer credential is read per
// request so a client built before login still works after it.
type Client struct {
	base  *url.URL
	http  *http.Client
	token func() string
	log   *zap.Logger
}

// NewClient creates a client for the backend at base. token is consulted
// on every request for the Authorization header.
func NewClient(base string, token func() string, log *zap.Logger) (*Client, error) {
	u, err := url.Parse(base)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	return &Client{
		base:  u,
		http:  &http.Client{Timeout: requestTimeout},
		token: token,
		log:   log,
	}, nil
}

// FetchHistory loads the recent messages between userID and
// conversationID. The backend bounds the window server-side.
func (c *Client) FetchHistory(ctx context.Context, userID, conversationID int64, isGroup bool) ([]wire.Message, error) {
	q := url.Values{}
	q.Set("senderId", strconv.FormatInt(userID, 10))
	q.Set("receiverId", strconv.FormatInt(conversationID, 10))
	q.Set("isGroup", strconv.FormatBool(isGroup))

	var msgs []wire.Message
	if err := c.get(ctx, "/auth/messages/user", q, &msgs); err != nil {
		return nil, fmt.Errorf("fetch history: %w", err)
	}
	return msgs, nil
}

// Search queries the user and group directory.
func (c *Client) Search(ctx context.Context, query string) ([]DirectoryEntry, error) {
	q := url.Values{}
	q.Set("query", query)

	var entries []DirectoryEntry
	if err := c.get(ctx, "/auth/Data/Search", q, &entries); err != nil {
		return nil, fmt.Errorf("search %q: %w", query, err)
	}
	return entries, nil
}

// CurrentUser resolves the numeric id behind the credential.
func (c *Client) CurrentUser(ctx context.Context) (int64, error) {
	var id int64
	if err := c.get(ctx, "/auth/api/user", nil, &id); err != nil {
		return 0, fmt.Errorf("current user: %w", err)
	}
	return id, nil
}

// File retrieves a stored file by the name the backend assigned it.
func (c *Client) File(ctx context.Context, filename string) (*StoredFile, error) {
	q := url.Values{}
	q.Set("filename", filename)

	var f StoredFile
	if err := c.get(ctx, "/auth/files/show", q, &f); err != nil {
		return nil, fmt.Errorf("file %q: %w", filename, err)
	}
	return &f, nil
}

// CreateGroup creates a group owned by createdBy. The member list is
// deduplicated and the creator dropped from it before sending; the backend
// adds the creator itself. A group smaller than three members, creator
// included, is refused locally.
func (c *Client) CreateGroup(ctx context.Context, name string, createdBy int64, memberIDs []int64) (*Group, error) {
	members := make([]int64, 0, len(memberIDs))
	seen := map[int64]bool{createdBy: true}
	for _, id := range memberIDs {
		if id == 0 || seen[id] {
			continue
		}
		seen[id] = true
		members = append(members, id)
	}
	if len(members)+1 < 3 {
		return nil, ErrGroupTooSmall
	}

	payload := map[string]any{
		"groupName": name,
		"createdBy": createdBy,
		"memberIds": members,
	}
	var g Group
	if err := c.post(ctx, "/auth/create", payload, &g); err != nil {
		return nil, fmt.Errorf("create group %q: %w", name, err)
	}
	return &g, nil
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	u := *c.base
	u.Path = path
	if query != nil {
		u.RawQuery = query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return err
	}
	return c.do(req, path, out)
}

func (c *Client) post(ctx context.Context, path string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	u := *c.base
	u.Path = path

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.String(), bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, path, out)
}

func (c *Client) do(req *http.Request, path string, out any) error {
	if tok := c.token(); tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		c.log.Warn("http request failed",
			zap.String("path", path),
			zap.Int("status", resp.StatusCode))
		return fmt.Errorf("%s: status %d: %s", path, resp.StatusCode, body)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s: decode response: %w", path, err)
	}
	return nil
}
