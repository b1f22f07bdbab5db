package validation

import (
	"context"
	"fmt"

	"github.com/google/go-github/v66/github"
)

// NewClient builds a REST client for preflight checks. An empty token
// yields an unauthenticated client, good enough for public user lookups.
func NewClient(token string) *github.Client {
	client := github.NewClient(nil)
	if token != "" {
		client = client.WithAuthToken(token)
	}
	return client
}

// EnsureUserExists confirms the target login before the expensive
// paginated fetch starts; a typo should fail fast, not after pagination.
func EnsureUserExists(ctx context.Context, client *github.Client, username string) (*github.User, error) {
	user, resp, err := client.Users.Get(ctx, username)
	if err != nil {
		if resp != nil && resp.StatusCode == 404 {
			return nil, fmt.Errorf("user %s not found", username)
		}
		return nil, fmt.Errorf("failed to look up user %s: %w", username, err)
	}
	return user, nil
}

// GraphQLRateRemaining reports the remaining GraphQL rate limit budget
// for the authenticated token.
func GraphQLRateRemaining(ctx context.Context, client *github.Client) (int, error) {
	limits, _, err := client.RateLimit.Get(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to get rate limits: %w", err)
	}
	if limits.GraphQL == nil {
		return 0, fmt.Errorf("rate limit response missing graphql bucket")
	}
	return limits.GraphQL.Remaining, nil
}
