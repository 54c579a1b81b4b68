package forge

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/ariel-frischer/k-releaser/internal/build"
	"github.com/ariel-frischer/k-releaser/internal/git"
)

const (
	// restRetryMax bounds retries of 5xx responses and connection errors.
	restRetryMax     = 2
	restRetryWaitMin = 250 * time.Millisecond
	restRetryWaitMax = 2 * time.Second
	restTimeout      = 30 * time.Second
	// pullsPageSize is the number of open pull requests scanned for a
	// release branch.
	pullsPageSize = 50
)

// rest implements Forge over the GitHub and Gitea REST APIs, which share
// the repository endpoint layout.
type rest struct {
	kind    Kind
	client  *retryablehttp.Client
	baseURL string
	token   string
	owner   string
	repo    string
}

func newREST(kind Kind, baseURL, token string, remote git.Remote) *rest {
	client := retryablehttp.NewClient()
	client.RetryMax = restRetryMax
	client.RetryWaitMin = restRetryWaitMin
	client.RetryWaitMax = restRetryWaitMax
	client.HTTPClient.Timeout = restTimeout
	client.Logger = nil
	client.ErrorHandler = retryablehttp.PassthroughErrorHandler

	return &rest{
		kind:    kind,
		client:  client,
		baseURL: baseURL,
		token:   token,
		owner:   remote.Owner,
		repo:    remote.Repo,
	}
}

func (r *rest) Kind() Kind {
	return r.kind
}

type restPull struct {
	Number  int64  `json:"number"`
	HTMLURL string `json:"html_url"`
	Title   string `json:"title"`
	Head    struct {
		Ref string `json:"ref"`
	} `json:"head"`
}

func (p restPull) toPullRequest() *PullRequest {
	return &PullRequest{Number: p.Number, URL: p.HTMLURL, Title: p.Title, Branch: p.Head.Ref}
}

func (r *rest) FindPullRequest(ctx context.Context, branchPrefix string) (*PullRequest, error) {
	query := url.Values{"state": {"open"}}
	if r.kind == GitHub {
		query.Set("sort", "created")
		query.Set("direction", "desc")
		query.Set("per_page", fmt.Sprint(pullsPageSize))
	} else {
		query.Set("sort", "recentupdate")
		query.Set("limit", fmt.Sprint(pullsPageSize))
	}

	var pulls []restPull
	if err := r.do(ctx, http.MethodGet, r.repoPath("pulls")+"?"+query.Encode(), nil, &pulls); err != nil {
		return nil, fmt.Errorf("listing pull requests: %w", err)
	}

	for _, p := range pulls {
		if strings.HasPrefix(p.Head.Ref, branchPrefix) {
			return p.toPullRequest(), nil
		}
	}
	return nil, nil
}

func (r *rest) CreatePullRequest(ctx context.Context, in PullRequestInput) (*PullRequest, error) {
	payload := map[string]any{
		"title": in.Title,
		"body":  in.Body,
		"head":  in.Head,
		"base":  in.Base,
	}
	if r.kind == GitHub {
		payload["draft"] = in.Draft
	} else if in.Draft {
		// Gitea marks work-in-progress pull requests by title prefix.
		payload["title"] = "WIP: " + in.Title
	}

	var pull restPull
	if err := r.do(ctx, http.MethodPost, r.repoPath("pulls"), payload, &pull); err != nil {
		return nil, fmt.Errorf("creating pull request: %w", err)
	}

	if err := r.addLabels(ctx, pull.Number, in.Labels); err != nil {
		return nil, err
	}
	return pull.toPullRequest(), nil
}

// addLabels applies labels on GitHub. Gitea only accepts label IDs, so
// labels are skipped there.
func (r *rest) addLabels(ctx context.Context, number int64, labels []string) error {
	if len(labels) == 0 {
		return nil
	}
	if r.kind != GitHub {
		logDebug("[forge] skipping labels %v on %s", labels, r.kind)
		return nil
	}
	path := r.repoPath(fmt.Sprintf("issues/%d/labels", number))
	if err := r.do(ctx, http.MethodPost, path, map[string]any{"labels": labels}, nil); err != nil {
		return fmt.Errorf("adding labels to pull request #%d: %w", number, err)
	}
	return nil
}

func (r *rest) UpdatePullRequest(ctx context.Context, number int64, in PullRequestInput) error {
	payload := map[string]any{"title": in.Title, "body": in.Body}
	if err := r.do(ctx, http.MethodPatch, r.repoPath(fmt.Sprintf("pulls/%d", number)), payload, nil); err != nil {
		return fmt.Errorf("updating pull request #%d: %w", number, err)
	}
	return nil
}

func (r *rest) CreateRelease(ctx context.Context, in ReleaseInput) (*Release, error) {
	payload := map[string]any{
		"tag_name":   in.TagName,
		"name":       in.Name,
		"body":       in.Body,
		"draft":      in.Draft,
		"prerelease": in.Prerelease,
	}

	var out struct {
		HTMLURL string `json:"html_url"`
		TagName string `json:"tag_name"`
	}
	if err := r.do(ctx, http.MethodPost, r.repoPath("releases"), payload, &out); err != nil {
		return nil, fmt.Errorf("creating release %s: %w", in.TagName, err)
	}
	if out.TagName == "" {
		out.TagName = in.TagName
	}
	return &Release{URL: out.HTMLURL, TagName: out.TagName}, nil
}

func (r *rest) repoPath(suffix string) string {
	return fmt.Sprintf("/repos/%s/%s/%s", url.PathEscape(r.owner), url.PathEscape(r.repo), suffix)
}

// do sends a JSON request and decodes a JSON response into out when out is
// non-nil. Non-2xx responses return *APIError.
func (r *rest) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, method, r.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("User-Agent", build.UserAgent())
	req.Header.Set("Content-Type", "application/json")
	if r.kind == GitHub {
		req.Header.Set("Accept", "application/vnd.github+json")
		req.Header.Set("Authorization", "Bearer "+r.token)
		req.Header.Set("X-GitHub-Api-Version", "2022-11-28")
	} else {
		req.Header.Set("Accept", "application/json")
		req.Header.Set("Authorization", "token "+r.token)
	}

	logDebug("[forge] %s %s", method, path)
	resp, err := r.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &APIError{Status: resp.StatusCode, Body: string(data)}
	}

	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}
