package data

import (
	"context"
	"fmt"
	"log"

	"github.com/gwbischof/ghstyle/internal/commentstore"
	gh "github.com/gwbischof/ghstyle/internal/github"
)

// pageSize is the GraphQL page size for issue comments. 100 is the API
// maximum for this connection.
const pageSize = 100

// GitHub GraphQL response types (trimmed to what's needed)

type author struct {
	Login string `json:"login"`
}

type issueRef struct {
	Number     int     `json:"number"`
	Title      string  `json:"title"`
	Body       string  `json:"body"`
	State      string  `json:"state"`
	Author     *author `json:"author"`
	Repository struct {
		NameWithOwner string `json:"nameWithOwner"`
	} `json:"repository"`
}

type issueCommentNode struct {
	ID        string    `json:"id"`
	CreatedAt string    `json:"createdAt"`
	URL       string    `json:"url"`
	Body      string    `json:"body"`
	Issue     *issueRef `json:"issue"`
}

type pageInfo struct {
	HasNextPage bool   `json:"hasNextPage"`
	EndCursor   string `json:"endCursor"`
}

type userCommentsResponse struct {
	User *struct {
		IssueComments struct {
			TotalCount int                `json:"totalCount"`
			PageInfo   pageInfo           `json:"pageInfo"`
			Nodes      []issueCommentNode `json:"nodes"`
		} `json:"issueComments"`
	} `json:"user"`
}

// FetchUserComments pages through every issue comment the user has
// written and returns them in API page order. Any page failure (after
// retries) aborts the whole fetch: a partially fetched store is worse
// than no store, because the processing cursor assumes a complete one.
func FetchUserComments(ctx context.Context, client *Client, username string) ([]commentstore.CommentRecord, error) {
	var records []commentstore.CommentRecord
	var cursor *string
	page := 0

	for {
		page++
		variables := map[string]interface{}{
			"login": username,
			"first": pageSize,
		}
		if cursor != nil {
			variables["cursor"] = *cursor
		}

		var resp userCommentsResponse
		err := gh.RetryWithBackoff(func() error {
			resp = userCommentsResponse{}
			return client.Do(ctx, userCommentsQuery, variables, &resp)
		})
		if err != nil {
			return nil, fmt.Errorf("fetch comments page %d: %w", page, err)
		}
		if resp.User == nil {
			return nil, fmt.Errorf("user %s not found", username)
		}

		conn := resp.User.IssueComments
		for _, node := range conn.Nodes {
			records = append(records, toRecord(node))
		}

		log.Printf("[Fetch] Page %d: %d comments (%d/%d total)", page, len(conn.Nodes), len(records), conn.TotalCount)

		if !conn.PageInfo.HasNextPage {
			break
		}
		c := conn.PageInfo.EndCursor
		cursor = &c
	}

	return records, nil
}

// toRecord flattens a GraphQL comment node into a store record. Deleted
// issues or ghost authors come back null and map to empty fields.
func toRecord(node issueCommentNode) commentstore.CommentRecord {
	rec := commentstore.CommentRecord{
		CommentID:   node.ID,
		CreatedAt:   node.CreatedAt,
		URL:         node.URL,
		CommentBody: node.Body,
	}
	if node.Issue != nil {
		rec.Repository = node.Issue.Repository.NameWithOwner
		rec.IssueNumber = node.Issue.Number
		rec.IssueTitle = node.Issue.Title
		rec.IssueBody = node.Issue.Body
		rec.IssueState = commentstore.IssueState(node.Issue.State)
		if node.Issue.Author != nil {
			rec.IssueAuthor = node.Issue.Author.Login
		}
	}
	return rec
}

const userCommentsQuery = `query UserComments($login: String!, $first: Int!, $cursor: String) {
  user(login: $login) {
    issueComments(first: $first, after: $cursor) {
      totalCount
      pageInfo { hasNextPage endCursor }
      nodes {
        id
        createdAt
        url
        body
        issue {
          number
          title
          body
          state
          author { login }
          repository { nameWithOwner }
        }
      }
    }
  }
}`
