package security

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/scrypt"
)

// ErrDecrypt is returned for any malformed or undecryptable input.
var ErrDecrypt = errors.New("security: decryption failed")

const (
	keyDerivationSalt = "salt"
	scryptN           = 1 << 14
	scryptR           = 8
	scryptP           = 1
	cipherKeyLen      = 32
)

// Cipher encrypts strings with AES-256-CBC. The wire form is
// hex(iv) + ":" + base64(ciphertext).
type Cipher struct {
	block cipher.Block
}

// NewCipher derives the AES key from secret with scrypt.
func NewCipher(secret string) (*Cipher, error) {
	if secret == "" {
		return nil, errors.New("security: encryption key is empty")
	}

	key, err := scrypt.Key([]byte(secret), []byte(keyDerivationSalt), scryptN, scryptR, scryptP, cipherKeyLen)
	if err != nil {
		return nil, fmt.Errorf("derive encryption key: %w", err)
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("init aes: %w", err)
	}

	return &Cipher{block: block}, nil
}

func (c *Cipher) Encrypt(plaintext string) string {
	iv := randomBytes(aes.BlockSize)
	padded := pkcs7Pad([]byte(plaintext), aes.BlockSize)

	ciphertext := make([]byte, len(padded))
	cipher.NewCBCEncrypter(c.block, iv).CryptBlocks(ciphertext, padded)

	return hex.EncodeToString(iv) + ":" + base64.StdEncoding.EncodeToString(ciphertext)
}

func (c *Cipher) Decrypt(encoded string) (string, error) {
	ivHex, body, found := strings.Cut(encoded, ":")
	if !found {
		return "", ErrDecrypt
	}

	iv, err := hex.DecodeString(ivHex)
	if err != nil || len(iv) != aes.BlockSize {
		return "", ErrDecrypt
	}

	ciphertext, err := base64.StdEncoding.DecodeString(body)
	if err != nil || len(ciphertext) == 0 || len(ciphertext)%aes.BlockSize != 0 {
		return "", ErrDecrypt
	}

	plain := make([]byte, len(ciphertext))
	cipher.NewCBCDecrypter(c.block, iv).CryptBlocks(plain, ciphertext)

	unpadded, ok := pkcs7Unpad(plain, aes.BlockSize)
	if !ok {
		return "", ErrDecrypt
	}

	return string(unpadded), nil
}

func pkcs7Pad(data []byte, blockSize int) []byte {
	n := blockSize - len(data)%blockSize
	return append(data, bytes.Repeat([]byte{byte(n)}, n)...)
}

func pkcs7Unpad(data []byte, blockSize int) ([]byte, bool) {
	if len(data) == 0 {
		return nil, false
	}
	n := int(data[len(data)-1])
	if n == 0 || n > blockSize || n > len(data) {
		return nil, false
	}
	for _, b := range data[len(data)-n:] {
		if int(b) != n {
			return nil, false
		}
	}
	return data[:len(data)-n], true
}
