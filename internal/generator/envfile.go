package generator

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
)

// GenerateSecret returns a random hex-encoded secret of SecretBytes entropy.
func GenerateSecret() (string, error) {
	buf := make([]byte, SecretBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate secret: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// BuildEnvFile renders a fresh .env with all required secrets generated.
func BuildEnvFile() (string, error) {
	values := make(map[string]string, len(RequiredEnvKeys))
	for _, key := range RequiredEnvKeys {
		secret, err := GenerateSecret()
		if err != nil {
			return "", err
		}
		values[key] = secret
	}
	return FormatEnvFile(values), nil
}

// FormatEnvFile renders env values as KEY=value lines, sorted by key.
func FormatEnvFile(values map[string]string) string {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString("# Stack secrets. Do not commit this file.\n")
	for _, k := range keys {
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(values[k])
		b.WriteByte('\n')
	}
	return b.String()
}

// ParseEnvFile parses KEY=value lines; comments and blanks are skipped.
func ParseEnvFile(content string) map[string]string {
	values := make(map[string]string)
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, found := strings.Cut(line, "=")
		if !found {
			continue
		}
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}
		values[key] = strings.Trim(strings.TrimSpace(value), `"`)
	}
	return values
}

// MissingEnvKeys returns required keys absent or empty in values.
func MissingEnvKeys(values map[string]string) []string {
	var missing []string
	for _, key := range RequiredEnvKeys {
		if values[key] == "" {
			missing = append(missing, key)
		}
	}
	return missing
}
