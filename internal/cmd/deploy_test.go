package cmd

import (
	"testing"

	"github.com/wechange-eg/cloudctl/internal/config"
)

func TestSiteURL(t *testing.T) {
	tests := []struct {
		name      string
		domain    string
		httpsPort int
		want      string
	}{
		{
			name:      "standard https port drops the port",
			domain:    "cloud.wechange.de",
			httpsPort: 443,
			want:      "https://cloud.wechange.de",
		},
		{
			name:      "non-standard port is kept",
			domain:    "cloud.example.org",
			httpsPort: 8443,
			want:      "https://cloud.example.org:8443",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &config.ProjectConfig{}
			cfg.Deploy.Domain = tt.domain
			cfg.Deploy.HTTPSPort = tt.httpsPort

			if got := siteURL(cfg); got != tt.want {
				t.Errorf("siteURL() = %q, want %q", got, tt.want)
			}
		})
	}
}
