package fetcher

import (
	"context"
	"fmt"
	"sort"
	"strings"

	gh "roadmapper/internal/github"

	"golang.org/x/sync/singleflight"
)

// Fetcher reads repository metadata from GitHub. Results are cached per
// repository for the life of the Fetcher, and concurrent requests for the same
// repository (e.g. several worktrees of one checkout) share a single flight.
type Fetcher struct {
	client *gh.Client
	group  singleflight.Group
	cache  *Cache[RepoMetadata]
}

func NewFetcher(client *gh.Client) *Fetcher {
	return &Fetcher{
		client: client,
		cache:  NewCache[RepoMetadata](),
	}
}

type Language struct {
	Name    string
	Bytes   int
	Percent float64
}

type RepoMetadata struct {
	Ref           gh.Ref
	Description   string
	DefaultBranch string
	Topics        []string
	Languages     []Language
	License       string
	OpenIssues    int
	Stars         int
	Archived      bool
}

func (f *Fetcher) RepoMetadata(ctx context.Context, ref gh.Ref) (RepoMetadata, error) {
	if ctx == nil {
		return RepoMetadata{}, fmt.Errorf("RepoMetadata: nil context")
	}
	if f == nil {
		return RepoMetadata{}, fmt.Errorf("RepoMetadata: nil Fetcher")
	}
	if f.client == nil || f.client.Client == nil {
		return RepoMetadata{}, fmt.Errorf("RepoMetadata: nil GitHub client (use NewFetcher)")
	}
	if f.cache == nil {
		return RepoMetadata{}, fmt.Errorf("RepoMetadata: nil cache (use NewFetcher)")
	}
	if ref.Owner == "" || ref.Name == "" {
		return RepoMetadata{}, fmt.Errorf("RepoMetadata: repo owner/name is required")
	}

	key := ref.Key()
	if md, ok := f.cache.Get(key); ok {
		return md, nil
	}

	val, err, _ := f.group.Do(key, func() (interface{}, error) {
		md, err := f.fetch(ctx, ref)
		if err != nil {
			return nil, err
		}
		f.cache.Set(key, md)
		return md, nil
	})
	if err != nil {
		return RepoMetadata{}, err
	}
	return val.(RepoMetadata), nil
}

func (f *Fetcher) fetch(ctx context.Context, ref gh.Ref) (RepoMetadata, error) {
	repo, _, err := f.client.Client.Repositories.Get(ctx, ref.Owner, ref.Name)
	if err != nil {
		return RepoMetadata{}, fmt.Errorf("get repository %s: %w", ref, err)
	}

	langs, _, err := f.client.Client.Repositories.ListLanguages(ctx, ref.Owner, ref.Name)
	if err != nil {
		return RepoMetadata{}, fmt.Errorf("list languages %s: %w", ref, err)
	}

	md := RepoMetadata{
		Ref:           ref,
		Description:   repo.GetDescription(),
		DefaultBranch: repo.GetDefaultBranch(),
		Topics:        append([]string(nil), repo.Topics...),
		Languages:     languageShares(langs),
		OpenIssues:    repo.GetOpenIssuesCount(),
		Stars:         repo.GetStargazersCount(),
		Archived:      repo.GetArchived(),
	}
	if lic := repo.GetLicense(); lic != nil {
		md.License = lic.GetSPDXID()
	}
	return md, nil
}

// languageShares orders languages by byte count (descending), then name.
func languageShares(langs map[string]int) []Language {
	total := 0
	for _, n := range langs {
		total += n
	}
	out := make([]Language, 0, len(langs))
	for name, n := range langs {
		pct := 0.0
		if total > 0 {
			pct = float64(n) * 100 / float64(total)
		}
		out = append(out, Language{Name: name, Bytes: n, Percent: pct})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Bytes != out[j].Bytes {
			return out[i].Bytes > out[j].Bytes
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// Section renders the metadata as a Repository Context section.
func (m RepoMetadata) Section() string {
	var b strings.Builder
	b.WriteString("\n### GITHUB METADATA:\n")
	fmt.Fprintf(&b, "- Repository: %s\n", m.Ref)
	if m.Description != "" {
		fmt.Fprintf(&b, "- Description: %s\n", m.Description)
	}
	if m.DefaultBranch != "" {
		fmt.Fprintf(&b, "- Default branch: %s\n", m.DefaultBranch)
	}
	if len(m.Topics) > 0 {
		fmt.Fprintf(&b, "- Topics: %s\n", strings.Join(m.Topics, ", "))
	}
	if len(m.Languages) > 0 {
		parts := make([]string, 0, len(m.Languages))
		for _, l := range m.Languages {
			parts = append(parts, fmt.Sprintf("%s (%.1f%%)", l.Name, l.Percent))
		}
		fmt.Fprintf(&b, "- Languages: %s\n", strings.Join(parts, ", "))
	}
	if m.License != "" {
		fmt.Fprintf(&b, "- License: %s\n", m.License)
	}
	fmt.Fprintf(&b, "- Open issues: %d\n", m.OpenIssues)
	fmt.Fprintf(&b, "- Stars: %d\n", m.Stars)
	if m.Archived {
		b.WriteString("- Archived: true\n")
	}
	return b.String()
}
