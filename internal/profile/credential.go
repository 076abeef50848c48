package profile

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// encryptionKey derives a stable per-machine key. The credential is only
// readable on the machine that stored it.
func encryptionKey() []byte {
	paths := []string{"/etc/machine-id", "/var/lib/dbus/machine-id"}
	var id string
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err == nil {
			id = strings.TrimSpace(string(data))
			break
		}
	}

	if id == "" {
		hostname, _ := os.Hostname()
		id = hostname
	}

	hash := sha256.Sum256([]byte(id))
	return hash[:]
}

func encrypt(data []byte) (string, error) {
	block, err := aes.NewCipher(encryptionKey())
	if err != nil {
		return "", err
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err = io.ReadFull(rand.Reader, nonce); err != nil {
		return "", err
	}

	ciphertext := gcm.Seal(nonce, nonce, data, nil)
	return base64.StdEncoding.EncodeToString(ciphertext), nil
}

func decrypt(encoded string) ([]byte, error) {
	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, err
	}

	block, err := aes.NewCipher(encryptionKey())
	if err != nil {
		return nil, err
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	nonceSize := gcm.NonceSize()
	if len(data) < nonceSize {
		return nil, fmt.Errorf("ciphertext too short")
	}

	nonce, ciphertext := data[:nonceSize], data[nonceSize:]
	return gcm.Open(nil, nonce, ciphertext, nil)
}

// SaveCredential stores the bearer token encrypted in dir.
func SaveCredential(dir, token string) error {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return err
	}
	encrypted, err := encrypt([]byte(token))
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, "credential"), []byte(encrypted), 0600)
}

// LoadCredential reads and decrypts the stored token. A missing file
// returns an empty token and no error: the user has simply never logged
// in on this profile.
func LoadCredential(dir string) (string, error) {
	data, err := os.ReadFile(filepath.Join(dir, "credential"))
	if os.IsNotExist(err) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	token, err := decrypt(string(data))
	if err != nil {
		return "", fmt.Errorf("decrypt credential: %w", err)
	}
	return string(token), nil
}

// ClearCredential removes the stored token.
func ClearCredential(dir string) error {
	err := os.Remove(filepath.Join(dir, "credential"))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}
