package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"
)

func newTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c, err := NewClient(srv.URL, func() string { return "tok-123" }, zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	return c, srv
}

func TestFetchHistory(t *testing.T) {
	var gotAuth string
	var gotQuery map[string]string
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/auth/messages/user" {
			t.Errorf("path = %s", r.URL.Path)
		}
		gotAuth = r.Header.Get("Authorization")
		gotQuery = map[string]string{
			"senderId":   r.URL.Query().Get("senderId"),
			"receiverId": r.URL.Query().Get("receiverId"),
			"isGroup":    r.URL.Query().Get("isGroup"),
		}
		json.NewEncoder(w).Encode([]map[string]any{
			{"id": 1, "senderId": 7, "receiverId": 42, "content": "hi", "status": "sent"},
		})
	}))

	msgs, err := c.FetchHistory(context.Background(), 7, 42, false)
	if err != nil {
		t.Fatal(err)
	}
	if gotAuth != "Bearer tok-123" {
		t.Errorf("auth header = %q", gotAuth)
	}
	want := map[string]string{"senderId": "7", "receiverId": "42", "isGroup": "false"}
	for k, v := range want {
		if gotQuery[k] != v {
			t.Errorf("query %s = %q, want %q", k, gotQuery[k], v)
		}
	}
	if len(msgs) != 1 || msgs[0].Content != "hi" {
		t.Errorf("messages = %+v", msgs)
	}
}

func TestSearch(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/auth/Data/Search" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if q := r.URL.Query().Get("query"); q != "bob" {
			t.Errorf("query = %q", q)
		}
		json.NewEncoder(w).Encode([]map[string]any{
			{"id": 42, "name": "bob", "group": false},
			{"id": 9, "name": "devs", "group": true},
		})
	}))

	entries, err := c.Search(context.Background(), "bob")
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 2 {
		t.Fatalf("got %d entries", len(entries))
	}
	if entries[0].Name != "bob" || entries[0].Group {
		t.Errorf("first entry = %+v", entries[0])
	}
	if entries[1].ID != 9 || !entries[1].Group {
		t.Errorf("second entry = %+v", entries[1])
	}
}

func TestCurrentUser(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/auth/api/user" {
			t.Errorf("path = %s", r.URL.Path)
		}
		w.Write([]byte("7"))
	}))

	id, err := c.CurrentUser(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if id != 7 {
		t.Errorf("id = %d, want 7", id)
	}
}

func TestCreateGroup(t *testing.T) {
	var gotBody map[string]any
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/auth/create" {
			t.Errorf("request = %s %s", r.Method, r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Fatal(err)
		}
		json.NewEncoder(w).Encode(map[string]any{"id": 9, "groupName": "devs"})
	}))

	// Duplicates and the creator's own id are cleaned from the payload.
	g, err := c.CreateGroup(context.Background(), "devs", 7, []int64{42, 42, 7, 55})
	if err != nil {
		t.Fatal(err)
	}
	if g.ID != 9 || g.Name != "devs" {
		t.Errorf("group = %+v", g)
	}
	if gotBody["groupName"] != "devs" {
		t.Errorf("groupName = %v", gotBody["groupName"])
	}
	if gotBody["createdBy"] != float64(7) {
		t.Errorf("createdBy = %v", gotBody["createdBy"])
	}
	members, ok := gotBody["memberIds"].([]any)
	if !ok || len(members) != 2 {
		t.Fatalf("memberIds = %v, want the two distinct non-creator ids", gotBody["memberIds"])
	}
	if members[0] != float64(42) || members[1] != float64(55) {
		t.Errorf("memberIds = %v", members)
	}
}

func TestCreateGroupTooSmall(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request should reach the backend")
	}))

	// Creator plus one member is below the three-member floor.
	if _, err := c.CreateGroup(context.Background(), "duo", 7, []int64{42}); err != ErrGroupTooSmall {
		t.Errorf("err = %v, want ErrGroupTooSmall", err)
	}
}

func TestErrorStatus(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusUnauthorized)
	}))

	if _, err := c.CurrentUser(context.Background()); err == nil {
		t.Fatal("want error on 401")
	}
}

func TestNoAuthHeaderWithoutToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h := r.Header.Get("Authorization"); h != "" {
			t.Errorf("unexpected auth header %q", h)
		}
		w.Write([]byte("1"))
	}))
	defer srv.Close()

	c, err := NewClient(srv.URL, func() string { return "" }, zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := c.CurrentUser(context.Background()); err != nil {
		t.Fatal(err)
	}
}
