// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package credential hashes and verifies user passwords.
//
// New hashes are Argon2id strings in PHC form, stored in a fixed-width
// zero-padded buffer. Hashes without the Argon2id prefix are legacy bcrypt
// hashes and are verified with bcrypt.
package credential

import (
	"bytes"
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/bcrypt"
)

// StoredWidth is the width of the padded hash buffer.
const StoredWidth = 128

const (
	argonPrefix  = "$argon2id$"
	argonTime    = 2
	argonMemory  = 64 * 1024
	argonThreads = 1
	saltLength   = 16
	keyLength    = 32
)

var b64 = base64.RawStdEncoding

// Hash validates the password policy and returns the encoded Argon2id hash.
func Hash(password string) (string, error) {
	if err := CheckPolicy(password); err != nil {
		return "", err
	}

	salt := make([]byte, saltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}

	p := params{memory: argonMemory, time: argonTime, threads: argonThreads}
	key := argon2.IDKey([]byte(password), salt, p.time, p.memory, p.threads, keyLength)

	var buf [StoredWidth]byte
	copy(buf[:], p.encode(salt, key))
	return EncodeStored(buf), nil
}

// EncodeStored returns the stored text form of a padded hash buffer.
func EncodeStored(buf [StoredWidth]byte) string {
	return string(bytes.TrimRight(buf[:], "\x00"))
}

// DecodeStored pads a stored hash back to the fixed buffer width. Input
// longer than StoredWidth is truncated.
func DecodeStored(s string) [StoredWidth]byte {
	var buf [StoredWidth]byte
	copy(buf[:], s)
	return buf
}

// Stored is a parsed password hash.
type Stored interface {
	Verify(password string) bool
}

// Legacy is a bcrypt hash from before the Argon2id migration.
type Legacy struct {
	Hash []byte
}

// Verify compares password with the bcrypt hash.
func (l Legacy) Verify(password string) bool {
	return bcrypt.CompareHashAndPassword(l.Hash, []byte(password)) == nil
}

// Current is a padded Argon2id hash buffer.
type Current struct {
	Buf [StoredWidth]byte
}

// Verify recomputes the Argon2id key and compares it in constant time.
func (c Current) Verify(password string) bool {
	p, salt, key, err := decodePHC(EncodeStored(c.Buf))
	if err != nil {
		return false
	}
	other := argon2.IDKey([]byte(password), salt, p.time, p.memory, p.threads, uint32(len(key)))
	return subtle.ConstantTimeCompare(key, other) == 1
}

// Parse decides once whether stored is a legacy or a current hash.
func Parse(stored string) Stored {
	if !strings.HasPrefix(stored, argonPrefix) {
		return Legacy{Hash: []byte(stored)}
	}
	return Current{Buf: DecodeStored(stored)}
}

// Verify reports whether password matches the stored hash. It never
// panics; malformed hashes do not match.
func Verify(stored, password string) bool {
	return Parse(stored).Verify(password)
}

// NeedsRehash reports whether stored is a legacy hash or uses parameters
// other than the current ones.
func NeedsRehash(stored string) bool {
	if _, legacy := Parse(stored).(Legacy); legacy {
		return true
	}
	p, _, key, err := decodePHC(stored)
	if err != nil {
		return true
	}
	return p.memory != argonMemory || p.time != argonTime || p.threads != argonThreads || len(key) != keyLength
}

type params struct {
	memory  uint32
	time    uint32
	threads uint8
}

func (p params) encode(salt, key []byte) string {
	return fmt.Sprintf("%sv=%d$m=%d,t=%d,p=%d$%s$%s",
		argonPrefix, argon2.Version, p.memory, p.time, p.threads,
		b64.EncodeToString(salt), b64.EncodeToString(key))
}

func decodePHC(s string) (params, []byte, []byte, error) {
	var p params

	parts := strings.Split(s, "$")
	if len(parts) != 6 || parts[1] != "argon2id" {
		return p, nil, nil, fmt.Errorf("malformed hash")
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil {
		return p, nil, nil, fmt.Errorf("parse version: %w", err)
	}
	if version != argon2.Version {
		return p, nil, nil, fmt.Errorf("unsupported version %d", version)
	}

	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &p.memory, &p.time, &p.threads); err != nil {
		return p, nil, nil, fmt.Errorf("parse parameters: %w", err)
	}
	if p.memory == 0 || p.time == 0 || p.threads == 0 {
		return p, nil, nil, fmt.Errorf("invalid parameters")
	}

	salt, err := b64.DecodeString(parts[4])
	if err != nil {
		return p, nil, nil, fmt.Errorf("decode salt: %w", err)
	}
	key, err := b64.DecodeString(parts[5])
	if err != nil {
		return p, nil, nil, fmt.Errorf("decode key: %w", err)
	}
	if len(key) == 0 {
		return p, nil, nil, fmt.Errorf("empty key")
	}

	return p, salt, key, nil
}
