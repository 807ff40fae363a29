package settings

import (
	"fmt"
	"strings"

	"gopkg.in/ini.v1"
)

// GitReviewFileName is the per-repository Gerrit remote description file.
const GitReviewFileName = ".gitreview"

// GitReview is the [gerrit] section of a .gitreview file.
type GitReview struct {
	Host          string
	Port          int
	Project       string
	DefaultBranch string
}

// ReadGitReview parses a .gitreview file.
func ReadGitReview(path string) (*GitReview, error) {
	cfg, err := ini.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	sec, err := cfg.GetSection("gerrit")
	if err != nil {
		return nil, fmt.Errorf("%s has no [gerrit] section", path)
	}

	gr := &GitReview{
		Host:          strings.TrimSpace(sec.Key("host").String()),
		Port:          sec.Key("port").MustInt(29418),
		Project:       strings.TrimSpace(sec.Key("project").String()),
		DefaultBranch: sec.Key("defaultbranch").MustString("master"),
	}

	if gr.Host == "" {
		return nil, fmt.Errorf("%s: [gerrit] host is required", path)
	}

	return gr, nil
}

// URL returns the HTTPS web URL of the host. The port in .gitreview is the
// SSH port and is not part of the web URL.
func (g *GitReview) URL() string {
	host := strings.TrimSuffix(g.Host, "/")
	if strings.HasPrefix(host, "http://") || strings.HasPrefix(host, "https://") {
		return host
	}

	return "https://" + host
}
