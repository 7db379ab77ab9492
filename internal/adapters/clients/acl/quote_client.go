package acl

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/jsamuelsen/quote-generator/internal/adapters/clients"
	"github.com/jsamuelsen/quote-generator/internal/domain"
	"github.com/jsamuelsen/quote-generator/internal/platform/logging"
)

const (
	// DefaultFetchLimit is how many remote posts one fetch consumes.
	DefaultFetchLimit = 10

	remoteServiceName = "remote-quotes"
	postsPath         = "/posts"
	healthPath        = "/posts/1"
)

// RemoteQuoteConfig configures a RemoteQuoteClient.
type RemoteQuoteConfig struct {
	// Client must have its BaseURL pointed at the remote source.
	Client *clients.Client

	// FetchLimit caps the posts consumed per fetch. Defaults to DefaultFetchLimit.
	FetchLimit int

	Logger *slog.Logger
}

// RemoteQuoteClient talks to a JSONPlaceholder-style posts API. Posts are
// read as quotes on fetch, and new quotes are written back as posts.
type RemoteQuoteClient struct {
	BaseAdapter

	limit  int
	logger *slog.Logger
}

// NewRemoteQuoteClient panics when cfg.Client is nil.
func NewRemoteQuoteClient(cfg RemoteQuoteConfig) *RemoteQuoteClient {
	if cfg.Client == nil {
		panic("RemoteQuoteClient: Client is required")
	}

	if cfg.FetchLimit <= 0 {
		cfg.FetchLimit = DefaultFetchLimit
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &RemoteQuoteClient{
		BaseAdapter: NewBaseAdapter(cfg.Client, remoteServiceName),
		limit:       cfg.FetchLimit,
		logger:      logger.With(slog.String("component", "acl.RemoteQuoteClient")),
	}
}

// remotePost is the wire shape of a post.
type remotePost struct {
	UserID int    `json:"userId,omitempty"`
	ID     int    `json:"id,omitempty"`
	Title  string `json:"title"`
	Body   string `json:"body,omitempty"`
}

// translatePost maps a post onto a quote in the Server category. Posts
// without a user are attributed to the server itself. Empty titles are kept
// here and dropped by the merge.
func translatePost(p *remotePost) (domain.Quote, error) {
	author := domain.ServerCategory
	if p.UserID > 0 {
		author = "User " + strconv.Itoa(p.UserID)
	}

	return domain.Quote{
		Text:     p.Title,
		Author:   author,
		Category: domain.ServerCategory,
	}, nil
}

// FetchQuotes returns the first FetchLimit posts as quotes. Any failure is
// reported as domain.ErrRemoteFetch. The cause only contributes its text, so
// a remote 404 or 400 never reads as the caller's own not-found or
// validation error.
func (c *RemoteQuoteClient) FetchQuotes(ctx context.Context) ([]domain.Quote, error) {
	c.logger.Log(ctx, logging.LevelTrace, "starting request", slog.String("path", postsPath))

	body, err := c.Get(ctx, postsPath, "fetch quotes")
	if err != nil {
		return nil, remoteFailure(domain.ErrRemoteFetch, err)
	}

	posts, err := DecodeResponse[[]remotePost](body)
	if err != nil {
		return nil, remoteFailure(domain.ErrRemoteFetch, err)
	}

	if len(posts) > c.limit {
		posts = posts[:c.limit]
	}

	quotes, err := TranslateSlice(posts, translatePost)
	if err != nil {
		return nil, remoteFailure(domain.ErrRemoteFetch, err)
	}

	c.logger.DebugContext(ctx, "fetched remote quotes", slog.Int("count", len(quotes)))

	return quotes, nil
}

// PostQuote sends q to the remote source as JSON. Any 2xx is success;
// failures are reported as domain.ErrRemotePost.
func (c *RemoteQuoteClient) PostQuote(ctx context.Context, q domain.Quote) error {
	payload, err := json.Marshal(q)
	if err != nil {
		return remoteFailure(domain.ErrRemotePost, fmt.Errorf("encoding quote: %w", err))
	}

	c.logger.Log(ctx, logging.LevelTrace, "starting request", slog.String("path", postsPath))

	body, err := c.Post(ctx, postsPath, payload, "post quote")
	if err != nil {
		return remoteFailure(domain.ErrRemotePost, err)
	}

	_ = body.Close()

	return nil
}

// remoteFailure keeps sentinel as the only domain class in the chain.
func remoteFailure(sentinel, cause error) error {
	return fmt.Errorf("%w: %v", sentinel, cause) //nolint:errorlint // the cause's class must not leak
}

// Name implements ports.HealthChecker.
func (c *RemoteQuoteClient) Name() string {
	return remoteServiceName
}

// Check fetches a single post. An open circuit is reported without a
// network call.
func (c *RemoteQuoteClient) Check(ctx context.Context) error {
	if c.Client().CircuitState() == clients.StateOpen {
		return domain.NewUnavailableError(remoteServiceName, "circuit breaker open")
	}

	body, err := c.Get(ctx, healthPath, "health check")
	if err != nil {
		return err
	}

	return body.Close()
}
