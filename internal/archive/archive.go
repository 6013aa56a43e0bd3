// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Daco Labs

// Package archive packages an output document as a password-sealed zip archive.
//
// A sealed archive is laid out as the format magic, a random scrypt salt, a random
// nonce and the secretbox ciphertext of the zip bytes.
package archive

import (
	"bytes"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/klauspost/compress/zip"
	"golang.org/x/crypto/nacl/secretbox"
	"golang.org/x/crypto/scrypt"
)

var (
	// ErrFormat indicates the input is not a sealed archive.
	ErrFormat = errors.New("not a sealed archive")

	// ErrDecrypt indicates the password is wrong or the archive was modified.
	ErrDecrypt = errors.New("archive decryption failed")
)

const (
	magic     = "XMLGENZ1"
	saltSize  = 16
	nonceSize = 24
	keySize   = 32

	scryptN = 1 << 15
	scryptR = 8
	scryptP = 1
)

// Compress writes a zip archive with a single deflated entry called name.
func Compress(w io.Writer, name string, modified time.Time, r io.Reader) error {
	zw := zip.NewWriter(w)
	fw, err := zw.CreateHeader(&zip.FileHeader{
		Name:     name,
		Method:   zip.Deflate,
		Modified: modified,
	})
	if err != nil {
		return err
	}
	if _, err := io.Copy(fw, r); err != nil {
		return err
	}
	return zw.Close()
}

// Extract returns the name and content of the single entry of a zip archive.
func Extract(data []byte) (string, []byte, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", nil, fmt.Errorf("%w: %v", ErrFormat, err)
	}
	if len(zr.File) != 1 {
		return "", nil, fmt.Errorf("%w: %d entries, want 1", ErrFormat, len(zr.File))
	}
	f := zr.File[0]
	rc, err := f.Open()
	if err != nil {
		return "", nil, err
	}
	defer func() { _ = rc.Close() }()
	content, err := io.ReadAll(rc)
	if err != nil {
		return "", nil, err
	}
	return f.Name, content, nil
}

func deriveKey(password, salt []byte) (*[keySize]byte, error) {
	k, err := scrypt.Key(password, salt, scryptN, scryptR, scryptP, keySize)
	if err != nil {
		return nil, err
	}
	var key [keySize]byte
	copy(key[:], k)
	return &key, nil
}

// Seal encrypts plaintext with a key derived from password.
func Seal(password, plaintext []byte) ([]byte, error) {
	if len(password) == 0 {
		return nil, errors.New("empty password")
	}
	salt := make([]byte, saltSize)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return nil, err
	}
	var nonce [nonceSize]byte
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return nil, err
	}
	key, err := deriveKey(password, salt)
	if err != nil {
		return nil, err
	}

	out := make([]byte, 0, len(magic)+saltSize+nonceSize+len(plaintext)+secretbox.Overhead)
	out = append(out, magic...)
	out = append(out, salt...)
	out = append(out, nonce[:]...)
	return secretbox.Seal(out, plaintext, &nonce, key), nil
}

// Open decrypts data produced by Seal.
func Open(password, data []byte) ([]byte, error) {
	header := len(magic) + saltSize + nonceSize
	if len(data) < header+secretbox.Overhead || string(data[:len(magic)]) != magic {
		return nil, ErrFormat
	}
	salt := data[len(magic) : len(magic)+saltSize]
	var nonce [nonceSize]byte
	copy(nonce[:], data[len(magic)+saltSize:header])

	key, err := deriveKey(password, salt)
	if err != nil {
		return nil, err
	}
	plaintext, ok := secretbox.Open(nil, data[header:], &nonce, key)
	if !ok {
		return nil, ErrDecrypt
	}
	return plaintext, nil
}

// Package compresses the file at src and writes the sealed archive to dst. The zip
// entry keeps the base name of src.
func Package(src, dst string, password []byte) error {
	f, err := os.Open(src) //nolint:gosec // path comes from the user
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()
	info, err := f.Stat()
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := Compress(&buf, filepath.Base(src), info.ModTime(), f); err != nil {
		return fmt.Errorf("compressing %s: %w", src, err)
	}
	sealed, err := Seal(password, buf.Bytes())
	if err != nil {
		return fmt.Errorf("sealing %s: %w", src, err)
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o750); err != nil {
		return err
	}
	return os.WriteFile(dst, sealed, 0o600)
}

// Unpack opens the sealed archive at path and returns its entry.
func Unpack(path string, password []byte) (string, []byte, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path comes from the user
	if err != nil {
		return "", nil, err
	}
	plain, err := Open(password, data)
	if err != nil {
		return "", nil, err
	}
	return Extract(plain)
}
