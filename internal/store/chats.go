package store

import "time"

// Chat is one saved conversation list entry. A user and a group may share
// an id, so identity is the (id, is_group) pair.
type Chat struct {
	ID      int64
	Name    string
	IsGroup bool
	AddedAt int64
}

// AddChat saves a conversation to the chat list. Adding a conversation
// that is already present is a no-op; the first entry wins.
func (db *DB) AddChat(c *Chat) error {
	addedAt := c.AddedAt
	if addedAt == 0 {
		addedAt = time.Now().UnixMilli()
	}
	_, err := db.Exec(`
		INSERT INTO chats (id, name, is_group, added_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id, is_group) DO NOTHING`,
		c.ID, c.Name, c.IsGroup, addedAt)
	return err
}

// ListChats returns the saved chat list in the order entries were added.
func (db *DB) ListChats() ([]Chat, error) {
	rows, err := db.Query(`
		SELECT id, name, is_group, added_at
		FROM chats
		ORDER BY added_at ASC, rowid ASC`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var chats []Chat
	for rows.Next() {
		var c Chat
		if err := rows.Scan(&c.ID, &c.Name, &c.IsGroup, &c.AddedAt); err != nil {
			return nil, err
		}
		chats = append(chats, c)
	}
	return chats, rows.Err()
}

// RemoveChat deletes a conversation from the chat list.
func (db *DB) RemoveChat(id int64, isGroup bool) error {
	_, err := db.Exec(`DELETE FROM chats WHERE id = ? AND is_group = ?`, id, isGroup)
	return err
}
