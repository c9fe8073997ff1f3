package scanner

import (
	"io/fs"
	"os"
	"path/filepath"
)

const (
	// themeDir holds the theme override files shipped alongside the site
	themeDir = "theme"
	// certsDir holds a locally issued certificate pair for the proxy
	certsDir = "certs"
)

// detectTheme reports whether the project ships a theme override directory
// and how many files it contains.
func (s *Scanner) detectTheme() (bool, int) {
	root := filepath.Join(s.projectPath, themeDir)
	info, err := os.Stat(root)
	if err != nil || !info.IsDir() {
		return false, 0
	}

	count := 0
	_ = filepath.WalkDir(root, func(_ string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.Type().IsRegular() {
			count++
		}
		return nil
	})
	return true, count
}

// detectCerts reports whether the certs directory holds a usable pair.
// The proxy cert install expects exactly fullchain.pem and privkey.pem.
func (s *Scanner) detectCerts() bool {
	root := filepath.Join(s.projectPath, certsDir)
	for _, name := range []string{"fullchain.pem", "privkey.pem"} {
		info, err := os.Stat(filepath.Join(root, name))
		if err != nil || !info.Mode().IsRegular() {
			return false
		}
	}
	return true
}
