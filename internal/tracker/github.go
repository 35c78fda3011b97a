package tracker

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strconv"
	"time"

	"github.com/google/go-github/v68/github"
	"golang.org/x/oauth2"
)

// graphqlEndpoint is GitHub's GraphQL API, needed for Projects v2: the
// project board has no REST surface.
const graphqlEndpoint = "https://api.github.com/graphql"

// issueURL extracts owner, repo, and number from an issue HTML URL.
var issueURL = regexp.MustCompile(`github\.com/([^/]+)/([^/]+)/issues/(\d+)`)

// GitHub implements Client against GitHub Issues (REST) and Projects v2
// (GraphQL). Every call is bounded by the configured timeout so one slow
// remote call can never stall a whole sync batch.
type GitHub struct {
	rest    *github.Client
	http    *http.Client
	owner   string
	repo    string
	timeout time.Duration
}

// NewGitHub builds a GitHub tracker client from a token.
func NewGitHub(token, owner, repo string, timeout time.Duration) (*GitHub, error) {
	if token == "" {
		return nil, fmt.Errorf("tracker: github token is required (set GITHUB_TOKEN)")
	}
	if owner == "" || repo == "" {
		return nil, fmt.Errorf("tracker: owner and repo are required")
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	src := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	httpClient := oauth2.NewClient(context.Background(), src)

	return &GitHub{
		rest:    github.NewClient(httpClient),
		http:    httpClient,
		owner:   owner,
		repo:    repo,
		timeout: timeout,
	}, nil
}

// CreateItem creates a repository issue.
func (g *GitHub) CreateItem(ctx context.Context, title, body string, labels []string) (*Issue, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	req := &github.IssueRequest{Title: &title, Body: &body}
	if len(labels) > 0 {
		req.Labels = &labels
	}

	issue, _, err := g.rest.Issues.Create(ctx, g.owner, g.repo, req)
	if err != nil {
		return nil, fmt.Errorf("tracker: create issue %q: %w", title, err)
	}
	return &Issue{
		Number: issue.GetNumber(),
		URL:    issue.GetHTMLURL(),
		NodeID: issue.GetNodeID(),
	}, nil
}

// AddItemToBoard adds an issue to a Projects v2 board by URL and returns
// the project item id.
func (g *GitHub) AddItemToBoard(ctx context.Context, boardID, itemURL string) (string, error) {
	nodeID, err := g.issueNodeID(ctx, itemURL)
	if err != nil {
		return "", err
	}

	const mutation = `mutation($projectId: ID!, $contentId: ID!) {
		addProjectV2ItemById(input: { projectId: $projectId, contentId: $contentId }) {
			item { id }
		}
	}`

	var resp struct {
		AddProjectV2ItemByID struct {
			Item struct {
				ID string `json:"id"`
			} `json:"item"`
		} `json:"addProjectV2ItemById"`
	}
	err = g.graphql(ctx, mutation, map[string]any{
		"projectId": boardID,
		"contentId": nodeID,
	}, &resp)
	if err != nil {
		return "", fmt.Errorf("tracker: add %s to board: %w", itemURL, err)
	}
	if resp.AddProjectV2ItemByID.Item.ID == "" {
		return "", fmt.Errorf("tracker: add %s to board: empty item id", itemURL)
	}
	return resp.AddProjectV2ItemByID.Item.ID, nil
}

// MoveItem sets the single-select status field of a project item.
func (g *GitHub) MoveItem(ctx context.Context, boardID, itemID, fieldID, optionID string) error {
	const mutation = `mutation($projectId: ID!, $itemId: ID!, $fieldId: ID!, $optionId: String!) {
		updateProjectV2ItemFieldValue(input: {
			projectId: $projectId
			itemId: $itemId
			fieldId: $fieldId
			value: { singleSelectOptionId: $optionId }
		}) {
			projectV2Item { id }
		}
	}`

	var resp json.RawMessage
	err := g.graphql(ctx, mutation, map[string]any{
		"projectId": boardID,
		"itemId":    itemID,
		"fieldId":   fieldID,
		"optionId":  optionID,
	}, &resp)
	if err != nil {
		return fmt.Errorf("tracker: move item %s: %w", itemID, err)
	}
	return nil
}

// ListBoardItems lists items on the board, trying the owner as a user
// first, then as an organization.
func (g *GitHub) ListBoardItems(ctx context.Context, owner string, boardNumber int) ([]BoardItem, error) {
	items, err := g.listBoardItems(ctx, "user", owner, boardNumber)
	if err == nil {
		return items, nil
	}
	items, orgErr := g.listBoardItems(ctx, "organization", owner, boardNumber)
	if orgErr != nil {
		return nil, fmt.Errorf("tracker: list board %d for %s: %w", boardNumber, owner, err)
	}
	return items, nil
}

func (g *GitHub) listBoardItems(ctx context.Context, ownerType, owner string, boardNumber int) ([]BoardItem, error) {
	query := fmt.Sprintf(`query($owner: String!, $number: Int!, $first: Int!) {
		%s(login: $owner) {
			projectV2(number: $number) {
				items(first: $first) {
					nodes {
						id
						fieldValueByName(name: "Status") {
							... on ProjectV2ItemFieldSingleSelectValue { name }
						}
						content {
							... on Issue { number title url }
							... on DraftIssue { title }
						}
					}
				}
			}
		}
	}`, ownerType)

	var resp map[string]struct {
		ProjectV2 struct {
			Items struct {
				Nodes []struct {
					ID               string `json:"id"`
					FieldValueByName struct {
						Name string `json:"name"`
					} `json:"fieldValueByName"`
					Content struct {
						Number int    `json:"number"`
						Title  string `json:"title"`
						URL    string `json:"url"`
					} `json:"content"`
				} `json:"nodes"`
			} `json:"items"`
		} `json:"projectV2"`
	}
	err := g.graphql(ctx, query, map[string]any{
		"owner":  owner,
		"number": boardNumber,
		"first":  100,
	}, &resp)
	if err != nil {
		return nil, err
	}

	root, ok := resp[ownerType]
	if !ok {
		return nil, fmt.Errorf("no %s %q", ownerType, owner)
	}

	var items []BoardItem
	for _, n := range root.ProjectV2.Items.Nodes {
		items = append(items, BoardItem{
			ItemID:    n.ID,
			Title:     n.Content.Title,
			Status:    n.FieldValueByName.Name,
			SourceRef: n.Content.URL,
		})
	}
	return items, nil
}

// CommentOnItem comments on a repository issue.
func (g *GitHub) CommentOnItem(ctx context.Context, itemNumber int, text string) error {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	_, _, err := g.rest.Issues.CreateComment(ctx, g.owner, g.repo, itemNumber,
		&github.IssueComment{Body: &text})
	if err != nil {
		return fmt.Errorf("tracker: comment on #%d: %w", itemNumber, err)
	}
	return nil
}

// CloseItem closes a repository issue.
func (g *GitHub) CloseItem(ctx context.Context, itemNumber int) error {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	state := "closed"
	_, _, err := g.rest.Issues.Edit(ctx, g.owner, g.repo, itemNumber,
		&github.IssueRequest{State: &state})
	if err != nil {
		return fmt.Errorf("tracker: close #%d: %w", itemNumber, err)
	}
	return nil
}

// GetBoardColumns returns the options of the board's Status field.
func (g *GitHub) GetBoardColumns(ctx context.Context, boardID string) ([]ColumnOption, error) {
	const query = `query($projectId: ID!) {
		node(id: $projectId) {
			... on ProjectV2 {
				field(name: "Status") {
					... on ProjectV2SingleSelectField {
						options { id name }
					}
				}
			}
		}
	}`

	var resp struct {
		Node struct {
			Field struct {
				Options []struct {
					ID   string `json:"id"`
					Name string `json:"name"`
				} `json:"options"`
			} `json:"field"`
		} `json:"node"`
	}
	if err := g.graphql(ctx, query, map[string]any{"projectId": boardID}, &resp); err != nil {
		return nil, fmt.Errorf("tracker: board columns: %w", err)
	}

	var cols []ColumnOption
	for _, o := range resp.Node.Field.Options {
		cols = append(cols, ColumnOption{Name: o.Name, OptionID: o.ID})
	}
	return cols, nil
}

// issueNodeID resolves an issue HTML URL to its GraphQL node id.
func (g *GitHub) issueNodeID(ctx context.Context, url string) (string, error) {
	m := issueURL.FindStringSubmatch(url)
	if m == nil {
		return "", fmt.Errorf("tracker: %q is not an issue url", url)
	}
	number, _ := strconv.Atoi(m[3])

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	issue, _, err := g.rest.Issues.Get(ctx, m[1], m[2], number)
	if err != nil {
		return "", fmt.Errorf("tracker: resolve %s: %w", url, err)
	}
	return issue.GetNodeID(), nil
}

// graphql posts one GraphQL request and decodes the data payload into out.
func (g *GitHub) graphql(ctx context.Context, query string, variables map[string]any, out any) error {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	payload, err := json.Marshal(map[string]any{
		"query":     query,
		"variables": variables,
	})
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, graphqlEndpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("graphql status %d: %s", resp.StatusCode, bytes.TrimSpace(body))
	}

	var envelope struct {
		Data   json.RawMessage `json:"data"`
		Errors []struct {
			Message string `json:"message"`
		} `json:"errors"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	if len(envelope.Errors) > 0 {
		return fmt.Errorf("graphql: %s", envelope.Errors[0].Message)
	}
	if out != nil {
		if err := json.Unmarshal(envelope.Data, out); err != nil {
			return fmt.Errorf("decode data: %w", err)
		}
	}
	return nil
}
