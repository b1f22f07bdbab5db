package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/gwbischof/ghstyle/internal/commentstore"
	"github.com/gwbischof/ghstyle/internal/config"
	"github.com/gwbischof/ghstyle/internal/github"
	"github.com/gwbischof/ghstyle/internal/github/data"
	"github.com/gwbischof/ghstyle/internal/github/validation"
	"github.com/joho/godotenv"
)

var (
	loadDotEnv        = godotenv.Load
	loadConfig        = config.Load
	ensureUserExists  = validation.EnsureUserExists
	rateRemaining     = validation.GraphQLRateRemaining
	fetchUserComments = data.FetchUserComments
	writeStore        = commentstore.Write
)

func main() {
	if err := run(context.Background(), os.Args[1:]); err != nil {
		log.Fatalf("Fetch failed: %v", err)
	}
}

func run(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("ghstyle-fetch", flag.ContinueOnError)
	output := fs.String("output", "", "output file (default {username}_comments.json)")
	includePrivate := fs.Bool("include-private", false, "fetch private comments via GitHub App installation auth")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("usage: ghstyle-fetch [flags] <username>")
	}
	username := fs.Arg(0)

	// Load .env file (ignore error if file doesn't exist)
	_ = loadDotEnv()

	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if err := cfg.ValidateGitHubAuth(); err != nil {
		return err
	}

	auth, err := buildAuth(cfg, *includePrivate)
	if err != nil {
		return err
	}

	token, err := auth.Token()
	if err != nil {
		return fmt.Errorf("failed to resolve GitHub credentials: %w", err)
	}

	// Preflight: confirm the user exists and report remaining quota
	// before paging through potentially thousands of comments.
	restClient := validation.NewClient(token)
	user, err := ensureUserExists(ctx, restClient, username)
	if err != nil {
		return err
	}
	log.Printf("[Fetch] User %s found (id %d)", username, user.GetID())

	if remaining, err := rateRemaining(ctx, restClient); err != nil {
		log.Printf("[Fetch] Could not read rate limit: %v", err)
	} else {
		log.Printf("[Fetch] GraphQL rate limit remaining: %d", remaining)
	}

	client := data.NewClient(auth)
	records, err := fetchUserComments(ctx, client, username)
	if err != nil {
		return fmt.Errorf("failed to fetch comments for %s: %w", username, err)
	}
	log.Printf("[Fetch] Fetched %d comments for %s", len(records), username)

	path := *output
	if path == "" {
		path = fmt.Sprintf("%s_comments.json", username)
	}
	if err := writeStore(path, records); err != nil {
		return fmt.Errorf("failed to write comment store: %w", err)
	}
	log.Printf("[Fetch] Wrote %s", path)

	return nil
}

// buildAuth selects the credential path. Private comments require an
// installation token; public fetches use the plain token when present.
func buildAuth(cfg *config.Config, includePrivate bool) (github.AuthProvider, error) {
	if includePrivate {
		if !cfg.HasAppAuth() {
			return nil, fmt.Errorf("--include-private requires GITHUB_APP_ID, GITHUB_PRIVATE_KEY and GITHUB_INSTALLATION_ID")
		}
		return &github.AppAuth{
			AppID:          cfg.GitHubAppID,
			PrivateKey:     cfg.GitHubPrivateKey,
			InstallationID: strconv.FormatInt(cfg.GitHubInstallationID, 10),
		}, nil
	}
	if cfg.GitHubToken != "" {
		return &github.TokenAuth{AccessToken: cfg.GitHubToken}, nil
	}
	return &github.AppAuth{
		AppID:          cfg.GitHubAppID,
		PrivateKey:     cfg.GitHubPrivateKey,
		InstallationID: strconv.FormatInt(cfg.GitHubInstallationID, 10),
	}, nil
}
