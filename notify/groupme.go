// ABOUTME: GroupMe bot client for posting text to the team chat
// ABOUTME: Fire-and-forget from the caller's side; non-2xx responses are errors
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/log"
)

// DefaultGroupMeURL is the GroupMe bot post endpoint.
const DefaultGroupMeURL = "https://api.groupme.com/v3/bots/post"

// MaxMessageLength is GroupMe's per-message text limit.
const MaxMessageLength = 1000

// ErrNoBotID is returned when posting without a configured bot.
var ErrNoBotID = errors.New("groupme bot id not configured")

// GroupMeOptions configures a GroupMe client.
type GroupMeOptions struct {
	BotID      string
	BaseURL    string
	HTTPClient *http.Client
	Logger     *log.Logger
}

// GroupMe posts messages as a bot.
type GroupMe struct {
	botID      string
	url        string
	httpClient *http.Client
	logger     *log.Logger
}

// NewGroupMe creates a GroupMe client.
func NewGroupMe(opts GroupMeOptions) *GroupMe {
	url := strings.TrimSpace(opts.BaseURL)
	if url == "" {
		url = DefaultGroupMeURL
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	return &GroupMe{botID: strings.TrimSpace(opts.BotID), url: url, httpClient: httpClient, logger: logger}
}

type botPost struct {
	BotID string `json:"bot_id"`
	Text  string `json:"text"`
}

// Post sends text to the group, split into chunks under the message limit.
func (g *GroupMe) Post(ctx context.Context, text string) error {
	if g.botID == "" {
		return ErrNoBotID
	}
	for _, chunk := range splitMessage(text, MaxMessageLength) {
		if err := g.post(ctx, chunk); err != nil {
			return err
		}
	}
	return nil
}

func (g *GroupMe) post(ctx context.Context, text string) error {
	body, err := json.Marshal(botPost{BotID: g.botID, Text: text})
	if err != nil {
		return fmt.Errorf("failed to encode message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to post to groupme: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("groupme returned %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	g.logger.Debug("posted to groupme", "chars", len(text))
	return nil
}

// splitMessage breaks text on line boundaries so each piece fits limit
// runes. Single lines longer than limit are cut.
func splitMessage(text string, limit int) []string {
	if len([]rune(text)) <= limit {
		return []string{text}
	}

	var (
		chunks []string
		cur    []rune
	)
	flush := func() {
		if len(cur) > 0 {
			chunks = append(chunks, strings.TrimRight(string(cur), "\n"))
			cur = cur[:0]
		}
	}

	for _, line := range strings.SplitAfter(text, "\n") {
		r := []rune(line)
		if len(cur)+len(r) > limit {
			flush()
		}
		for len(r) > limit {
			chunks = append(chunks, string(r[:limit]))
			r = r[limit:]
		}
		cur = append(cur, r...)
	}
	flush()
	return chunks
}
