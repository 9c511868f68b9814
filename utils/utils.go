package utils

import (
	"crypto/rand"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/datazip-inc/olake-monday/constants"
	"github.com/datazip-inc/olake-monday/crypto"
	"github.com/goccy/go-json"
	"github.com/mitchellh/hashstructure"
	"github.com/oklog/ulid"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"sigs.k8s.io/yaml"
)

func Ternary(cond bool, a, b any) any {
	if cond {
		return a
	}

	return b
}

// ArrayContains returns the index of the first element matching match and whether one was found
func ArrayContains[T any](set []T, match func(elem T) bool) (int, bool) {
	for idx, elem := range set {
		if match(elem) {
			return idx, true
		}
	}

	return -1, false
}

// IsValidSubcommand checks if the passed subcommand is supported by the parent command
func IsValidSubcommand(available []*cobra.Command, sub string) bool {
	for _, s := range available {
		if sub == s.CalledAs() || sub == s.Name() || Contains(s.Aliases, sub) {
			return true
		}
	}
	return false
}

func Contains[T comparable](set []T, value T) bool {
	_, found := ArrayContains(set, func(elem T) bool {
		return elem == value
	})

	return found
}

// Unmarshal serializes and deserializes any from into the object
// return error if occurred
func Unmarshal(from, object any) error {
	reformatted, err := json.Marshal(from)
	if err != nil {
		return err
	}

	err = json.Unmarshal(reformatted, object)
	if err != nil {
		return fmt.Errorf("error occurred while unmarshalling: %s", err)
	}

	return nil
}

// UnmarshalFile reads a json or yaml file into dest; credsFile marks files
// that may carry an encrypted payload
func UnmarshalFile(file string, dest any, credsFile bool) error {
	if err := CheckIfFilesExists(file); err != nil {
		return err
	}

	data, err := os.ReadFile(file)
	if err != nil {
		return fmt.Errorf("file not found : %s", err)
	}

	ext := strings.ToLower(filepath.Ext(file))
	if ext == ".yaml" || ext == ".yml" {
		data, err = yaml.YAMLToJSON(data)
		if err != nil {
			return fmt.Errorf("failed to convert yaml file[%s]: %s", file, err)
		}
	}

	if credsFile && viper.GetString(constants.EncryptionKey) != "" {
		decrypted, err := crypto.DecryptJSONString(string(data))
		if err != nil {
			return fmt.Errorf("failed to decrypt file[%s]: %s", file, err)
		}
		data = []byte(decrypted)
	}

	err = json.Unmarshal(data, dest)
	if err != nil {
		return fmt.Errorf("failed to unmarshal file[%s]: %s", file, err)
	}

	return nil
}

func CheckIfFilesExists(files ...string) error {
	for _, file := range files {
		if _, err := os.Stat(file); err != nil {
			return fmt.Errorf("%s does not exist: %s", file, err)
		}
	}

	return nil
}

// ULID returns a lexicographically sortable unique id
func ULID() string {
	return ulid.MustNew(ulid.Timestamp(time.Now()), rand.Reader).String()
}

// TimestampedFileName returns a unique file name with the given extension
func TimestampedFileName(extension string) string {
	return fmt.Sprintf("%s.%s", ULID(), extension)
}

// GetKeysHash returns a stable hash of the values of the given keys in record,
// falling back to the whole record when no keys are provided
func GetKeysHash(record map[string]any, keys ...string) string {
	subject := record
	if len(keys) > 0 {
		subject = make(map[string]any, len(keys))
		for _, key := range keys {
			subject[key] = record[key]
		}
	}

	hash, err := hashstructure.Hash(subject, nil)
	if err != nil {
		return ULID()
	}

	return fmt.Sprintf("%x", hash)
}
