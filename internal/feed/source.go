package feed

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/google/go-github/v30/github"
	"github.com/hashicorp/go-version"
	log "github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
)

// Asset is a downloadable file attached to a release
type Asset struct {
	Name string
	URL  string
}

// Release is a published release as reported by a Source
type Release struct {
	Version      string
	Name         string
	IsPrerelease bool
	Notes        string
	PublishedAt  time.Time
	Assets       []*Asset
}

// Source is an interface that provides the available releases
// for the given app. Use NewSource() to create a Source from
// the builtin ones or provide your own.
type Source interface {
	AvailableVersions(ctx context.Context, token string) (releases []*Release, nextToken string, err error)
}

// GitHubSource lists the releases of the given GitHub repository
type GitHubSource struct {
	Owner string
	Repo  string
	// Token is an optional GitHub access token
	Token string
	// BaseURL overrides the GitHub API endpoint. It must end
	// with a slash.
	BaseURL string
}

func (s *GitHubSource) client(ctx context.Context) (*github.Client, error) {
	var hc *http.Client
	if s.Token != "" {
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: s.Token})
		hc = oauth2.NewClient(ctx, ts)
	}
	client := github.NewClient(hc)
	if s.BaseURL != "" {
		u, err := url.Parse(s.BaseURL)
		if err != nil {
			return nil, fmt.Errorf("invalid base URL %q: %v", s.BaseURL, err)
		}
		client.BaseURL = u
	}
	return client, nil
}

func parseTag(tag string) (string, error) {
	if tag == "" {
		return "", errors.New("tag is empty")
	}
	strippedPrefixes := []string{
		"release/",
	}
	var vers string
	if tag[0] == 'v' || tag[0] == 'V' {
		vers = tag[1:]
	} else {
		lowerTag := strings.ToLower(tag)
		for _, p := range strippedPrefixes {
			if strings.HasPrefix(lowerTag, p) {
				vers = tag[len(p):]
				break
			}
		}
		if vers == "" {
			vers = tag
		}
	}
	v, err := version.NewVersion(vers)
	if err != nil {
		return "", err
	}
	return v.String(), nil
}

// AvailableVersions implements the Source interface
func (s *GitHubSource) AvailableVersions(ctx context.Context, token string) ([]*Release, string, error) {
	client, err := s.client(ctx)
	if err != nil {
		return nil, "", err
	}
	page := 0
	if token != "" {
		nextPage, err := strconv.Atoi(token)
		if err != nil {
			return nil, "", fmt.Errorf("invalid next token %q: %v", token, err)
		}
		page = nextPage
	}
	opts := &github.ListOptions{
		Page: page,
	}
	ghReleases, resp, err := client.Repositories.ListReleases(ctx, s.Owner, s.Repo, opts)
	if err != nil {
		return nil, "", err
	}
	releases := make([]*Release, 0, len(ghReleases))
	for _, r := range ghReleases {
		tag := r.GetTagName()
		vers, err := parseTag(tag)
		if err != nil {
			log.Warnf("error parsing tag %q: %v, skipping", tag, err)
			continue
		}
		assets := make([]*Asset, len(r.Assets))
		for ii, a := range r.Assets {
			assets[ii] = &Asset{
				Name: a.GetName(),
				URL:  a.GetBrowserDownloadURL(),
			}
		}
		name := r.GetName()
		if name == "" {
			name = vers
		}
		releases = append(releases, &Release{
			Version:      vers,
			Name:         name,
			IsPrerelease: r.GetPrerelease(),
			Notes:        r.GetBody(),
			PublishedAt:  r.GetPublishedAt().Time,
			Assets:       assets,
		})
	}
	nextToken := ""
	if resp.NextPage > 0 {
		nextToken = strconv.Itoa(resp.NextPage)
	}
	return releases, nextToken, nil
}

// NewSource finds a suitable source from the given origin
// and returns it. Both https://github.com/owner/repo and
// github.com/owner/repo are accepted.
func NewSource(origin string) (Source, error) {
	if !strings.Contains(origin, "://") {
		origin = "https://" + origin
	}
	u, err := url.Parse(origin)
	if err == nil {
		if u.Hostname() == "github.com" && u.Path != "" {
			parts := strings.Split(strings.Trim(u.Path, "/"), "/")
			if len(parts) == 2 {
				return &GitHubSource{
					Owner: parts[0],
					Repo:  parts[1],
				}, nil
			}
		}
	}
	return nil, fmt.Errorf("could not create a Source from %q", origin)
}

// matchAsset returns the first asset whose name matches pattern,
// using path.Match syntax.
func matchAsset(assets []*Asset, pattern string) (*Asset, error) {
	for _, a := range assets {
		ok, err := path.Match(pattern, a.Name)
		if err != nil {
			return nil, err
		}
		if ok {
			return a, nil
		}
	}
	return nil, nil
}
