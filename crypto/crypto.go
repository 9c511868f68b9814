package crypto

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/kms"
	"github.com/datazip-inc/olake-monday/constants"
	"github.com/datazip-inc/olake-monday/utils/logger"
	"github.com/goccy/go-json"
	"github.com/spf13/viper"
)

const kmsPrefix = "arn:aws:kms:"

type keyring struct {
	kmsClient *kms.Client
	kmsKeyID  string
	localKey  []byte
}

var (
	ring    *keyring
	ringErr error
	once    sync.Once
)

type cryptoObj struct {
	EncryptedData string `json:"encrypted_data"`
}

// loadKeyring resolves ENCRYPTION_KEY once: a KMS key ARN selects AWS KMS,
// anything else is hashed into a local AES-256 key
func loadKeyring() (*keyring, error) {
	once.Do(func() {
		key := viper.GetString(constants.EncryptionKey)
		if key == "" {
			ringErr = errors.New("encryption key not set")
			return
		}

		if strings.HasPrefix(key, kmsPrefix) {
			cfg, err := config.LoadDefaultConfig(context.Background())
			if err != nil {
				ringErr = fmt.Errorf("failed to load AWS config: %s", err)
				return
			}
			logger.Debug("using AWS KMS for config decryption")
			ring = &keyring{kmsClient: kms.NewFromConfig(cfg), kmsKeyID: key}
			return
		}

		hash := sha256.Sum256([]byte(key))
		ring = &keyring{localKey: hash[:]}
	})

	return ring, ringErr
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

// Encrypt seals plain text with the configured key
func Encrypt(ctx context.Context, plain []byte) ([]byte, error) {
	ring, err := loadKeyring()
	if err != nil {
		return nil, fmt.Errorf("encryption failed: %s", err)
	}

	if ring.kmsClient != nil {
		out, err := ring.kmsClient.Encrypt(ctx, &kms.EncryptInput{KeyId: &ring.kmsKeyID, Plaintext: plain})
		if err != nil {
			return nil, fmt.Errorf("encryption failed: %s", err)
		}
		return out.CiphertextBlob, nil
	}

	aead, err := newGCM(ring.localKey)
	if err != nil {
		return nil, err
	}
	nonce := make([]byte, aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}

	return aead.Seal(nonce, nonce, plain, nil), nil
}

// Decrypt opens data sealed by Encrypt or by AWS KMS
func Decrypt(ctx context.Context, cipherData []byte) (string, error) {
	ring, err := loadKeyring()
	if err != nil {
		return "", fmt.Errorf("decryption failed: %s", err)
	}

	if ring.kmsClient != nil {
		out, err := ring.kmsClient.Decrypt(ctx, &kms.DecryptInput{CiphertextBlob: cipherData})
		if err != nil {
			return "", fmt.Errorf("decryption failed: %s", err)
		}
		return string(out.Plaintext), nil
	}

	aead, err := newGCM(ring.localKey)
	if err != nil {
		return "", err
	}

	nonceSize := aead.NonceSize()
	if len(cipherData) < nonceSize {
		return "", errors.New("ciphertext too short")
	}

	nonce, ciphertext := cipherData[:nonceSize], cipherData[nonceSize:]
	plaintext, err := aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", fmt.Errorf("decryption failed: %s", err)
	}

	return string(plaintext), nil
}

// DecryptJSONString unwraps {"encrypted_data": "<base64>"} into the original json document
func DecryptJSONString(encryptedObjStr string) (string, error) {
	obj := cryptoObj{}
	if err := json.Unmarshal([]byte(encryptedObjStr), &obj); err != nil {
		return "", fmt.Errorf("failed to unmarshal encrypted data: %s", err)
	}

	encryptedData, err := base64.StdEncoding.DecodeString(obj.EncryptedData)
	if err != nil {
		return "", fmt.Errorf("failed to decode base64 data: %s", err)
	}

	return Decrypt(context.Background(), encryptedData)
}

// EncryptJSONString is the inverse of DecryptJSONString
func EncryptJSONString(plain string) (string, error) {
	sealed, err := Encrypt(context.Background(), []byte(plain))
	if err != nil {
		return "", err
	}

	data, err := json.Marshal(cryptoObj{EncryptedData: base64.StdEncoding.EncodeToString(sealed)})
	if err != nil {
		return "", err
	}
	return string(data), nil
}
