package forge

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	gitlab "gitlab.com/gitlab-org/api/client-go"

	"github.com/ariel-frischer/k-releaser/internal/git"
)

// gitLab implements Forge with merge requests and GitLab releases.
type gitLab struct {
	client  *gitlab.Client
	project string
	webURL  string
}

func newGitLab(baseURL, token string, remote git.Remote) (*gitLab, error) {
	apiURL := strings.TrimSuffix(baseURL, "/") + "/api/v4"
	client, err := gitlab.NewClient(token, gitlab.WithBaseURL(apiURL))
	if err != nil {
		return nil, fmt.Errorf("creating gitlab client: %w", err)
	}
	return &gitLab{
		client:  client,
		project: remote.Path(),
		webURL:  strings.TrimSuffix(baseURL, "/"),
	}, nil
}

func (g *gitLab) Kind() Kind {
	return GitLab
}

func (g *gitLab) FindPullRequest(ctx context.Context, branchPrefix string) (*PullRequest, error) {
	mrs, _, err := g.client.MergeRequests.ListProjectMergeRequests(
		g.project,
		&gitlab.ListProjectMergeRequestsOptions{
			State:   gitlab.Ptr("opened"),
			OrderBy: gitlab.Ptr("created_at"),
			Sort:    gitlab.Ptr("desc"),
		},
		gitlab.WithContext(ctx),
	)
	if err != nil {
		return nil, fmt.Errorf("listing merge requests: %w", apiError(err))
	}

	for _, mr := range mrs {
		if mr == nil || !strings.HasPrefix(mr.SourceBranch, branchPrefix) {
			continue
		}
		return &PullRequest{Number: mr.IID, URL: mr.WebURL, Title: mr.Title, Branch: mr.SourceBranch}, nil
	}
	return nil, nil
}

func (g *gitLab) CreatePullRequest(ctx context.Context, in PullRequestInput) (*PullRequest, error) {
	title := in.Title
	if in.Draft {
		title = "Draft: " + title
	}

	opts := &gitlab.CreateMergeRequestOptions{
		Title:        gitlab.Ptr(title),
		Description:  gitlab.Ptr(in.Body),
		SourceBranch: gitlab.Ptr(in.Head),
		TargetBranch: gitlab.Ptr(in.Base),
	}
	if len(in.Labels) > 0 {
		labels := gitlab.LabelOptions(in.Labels)
		opts.Labels = &labels
	}

	mr, _, err := g.client.MergeRequests.CreateMergeRequest(g.project, opts, gitlab.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("creating merge request: %w", apiError(err))
	}
	return &PullRequest{Number: mr.IID, URL: mr.WebURL, Title: mr.Title, Branch: mr.SourceBranch}, nil
}

func (g *gitLab) UpdatePullRequest(ctx context.Context, number int64, in PullRequestInput) error {
	_, _, err := g.client.MergeRequests.UpdateMergeRequest(
		g.project,
		number,
		&gitlab.UpdateMergeRequestOptions{
			Title:       gitlab.Ptr(in.Title),
			Description: gitlab.Ptr(in.Body),
		},
		gitlab.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("updating merge request !%d: %w", number, apiError(err))
	}
	return nil
}

// CreateRelease publishes a release for an existing tag. GitLab has no
// draft releases, so in.Draft is ignored.
func (g *gitLab) CreateRelease(ctx context.Context, in ReleaseInput) (*Release, error) {
	rel, _, err := g.client.Releases.CreateRelease(
		g.project,
		&gitlab.CreateReleaseOptions{
			Name:        gitlab.Ptr(in.Name),
			TagName:     gitlab.Ptr(in.TagName),
			Description: gitlab.Ptr(in.Body),
		},
		gitlab.WithContext(ctx),
	)
	if err != nil {
		return nil, fmt.Errorf("creating release %s: %w", in.TagName, apiError(err))
	}

	tag := in.TagName
	if rel != nil && rel.TagName != "" {
		tag = rel.TagName
	}
	return &Release{
		URL:     g.webURL + "/" + g.project + "/-/releases/" + url.PathEscape(tag),
		TagName: tag,
	}, nil
}

// apiError converts a GitLab error response into *APIError.
func apiError(err error) error {
	var errResp *gitlab.ErrorResponse
	if errors.As(err, &errResp) && errResp.Response != nil {
		return &APIError{Status: errResp.Response.StatusCode, Body: errResp.Message}
	}
	return err
}
