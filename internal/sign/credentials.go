package sign

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// ErrMissingCredentials is returned when no credential file exists in
// any of the searched locations. Calls that need signed requests treat
// this as fatal; it is never retried.
var ErrMissingCredentials = errors.New("sign: missing credentials")

const credentialsFile = "credentials.json"

// LoadCredentials reads the credential file from the working directory
// or from ~/.audio2video, in that order.
func LoadCredentials() (Credentials, error) {
	paths := []string{credentialsFile}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".audio2video", credentialsFile))
	}
	return LoadCredentialsFrom(paths...)
}

// LoadCredentialsFrom tries each path in order and parses the first file
// that exists.
func LoadCredentialsFrom(paths ...string) (Credentials, error) {
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return Credentials{}, fmt.Errorf("sign: read %s: %w", path, err)
		}

		var creds Credentials
		if err := json.Unmarshal(data, &creds); err != nil {
			return Credentials{}, fmt.Errorf("sign: parse %s: %w", path, err)
		}
		if creds.AppID == "" || creds.AppSecret == "" {
			return Credentials{}, fmt.Errorf("sign: %s is missing app_id or app_secret", path)
		}
		return creds, nil
	}
	return Credentials{}, ErrMissingCredentials
}
