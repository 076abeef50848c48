// Package files prepares file attachments for the wire: size validation,
// base64 encoding and name normalization all happen here, before any
// network activity.
package files

import (
	"encoding/base64"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strconv"

	"github.com/Raunak7888/hermes-tui/internal/wire"
)

// MaxSize is the hard attachment ceiling. Larger files never leave the
// client.
const MaxSize = 256 * 1024

// ErrTooLarge rejects attachments over MaxSize.
var ErrTooLarge = fmt.Errorf("files: attachment exceeds %d bytes", MaxSize)

// ErrEmptyName rejects attachments whose name normalizes to nothing.
var ErrEmptyName = errors.New("files: empty file name")

var whitespace = regexp.MustCompile(`\s+`)

// Attachment is a validated file ready to be sent.
type Attachment struct {
	Name string
	MIME string
	Size int64
	Data []byte
}

// Load reads and validates the file at path.
func Load(path string) (*Attachment, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("files: read %s: %w", path, err)
	}
	return New(filepath.Base(path), data)
}

// New validates raw bytes as an attachment. The name has all whitespace
// stripped; the MIME type comes from the extension with content sniffing
// as fallback.
func New(name string, data []byte) (*Attachment, error) {
	if int64(len(data)) > MaxSize {
		return nil, ErrTooLarge
	}

	name = whitespace.ReplaceAllString(name, "")
	if name == "" {
		return nil, ErrEmptyName
	}

	mimeType := mime.TypeByExtension(filepath.Ext(name))
	if mimeType == "" {
		mimeType = http.DetectContentType(data)
	}

	return &Attachment{
		Name: name,
		MIME: mimeType,
		Size: int64(len(data)),
		Data: data,
	}, nil
}

// Payload builds the outgoing wire frame with a fresh correlation id. The
// body is plain base64 with no data-URI prefix.
func (a *Attachment) Payload(senderID, receiverID int64, isGroup bool) *wire.FilePayload {
	return &wire.FilePayload{
		File:       base64.StdEncoding.EncodeToString(a.Data),
		FileName:   a.Name,
		FileType:   a.MIME,
		FileSize:   a.Size,
		UserID:     senderID,
		ReceiverID: receiverID,
		TempID:     wire.NewTempID(),
		Status:     wire.StatusPending,
		IsGroup:    strconv.FormatBool(isGroup),
	}
}
