package acquire

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/go-github/v57/github"
	"github.com/patchgate/patchgate/internal/tracker"
	"github.com/patchgate/patchgate/internal/workspace"
	"go.uber.org/zap"
)

// Kind identifies where a patch comes from.
type Kind string

const (
	KindLocalFile         Kind = "local-file"
	KindTrackerAttachment Kind = "tracker-attachment"
	KindPullRequest       Kind = "pull-request"
	KindReviewBoard       Kind = "review-board"
)

// Source is the parsed patch origin. Resolved exactly once per run into a
// single on-disk patch file.
type Source struct {
	Kind  Kind
	Value string
}

// ErrNotActionable means the tracker issue is not in a state that accepts
// patch validation. Always fatal, and raised before any gate runs.
var ErrNotActionable = errors.New("issue is not in an actionable state")

// actionableStatus is the tracker workflow state a validatable issue must be in.
const actionableStatus = "Patch Available"

var (
	issueKeyRe    = regexp.MustCompile(`^[A-Z][A-Z0-9]*-\d+$`)
	pullRequestRe = regexp.MustCompile(`(?i)^pr[-/]?(\d+)$`)
	reviewBoardRe = regexp.MustCompile(`(?i)^rb[-/]?(\d+)$`)
)

// ParseSource classifies the single positional argument: an existing file
// path, a tracker issue key (PROJ-123), a pull request (pr-123), or a
// review-board diff (rb-123).
func ParseSource(arg string) (Source, error) {
	if arg == "" {
		return Source{}, fmt.Errorf("empty patch source")
	}
	if _, err := os.Stat(arg); err == nil {
		return Source{Kind: KindLocalFile, Value: arg}, nil
	}
	if issueKeyRe.MatchString(arg) {
		return Source{Kind: KindTrackerAttachment, Value: arg}, nil
	}
	if m := pullRequestRe.FindStringSubmatch(arg); m != nil {
		return Source{Kind: KindPullRequest, Value: m[1]}, nil
	}
	if m := reviewBoardRe.FindStringSubmatch(arg); m != nil {
		return Source{Kind: KindReviewBoard, Value: m[1]}, nil
	}
	return Source{}, fmt.Errorf("cannot resolve patch source %q: not a file, issue key, pr-N, or rb-N", arg)
}

// Acquirer resolves a Source into the run's patch file.
type Acquirer struct {
	trk         tracker.Client
	gh          *github.Client
	githubOwner string
	githubRepo  string
	reviewURL   string
	http        *http.Client
	log         *zap.Logger
}

// Options configures an Acquirer.
type Options struct {
	Tracker     tracker.Client
	GitHub      *github.Client
	GitHubOwner string
	GitHubRepo  string
	ReviewURL   string
	Log         *zap.Logger
}

// New creates an Acquirer.
func New(opts Options) *Acquirer {
	log := opts.Log
	if log == nil {
		log = zap.NewNop()
	}
	return &Acquirer{
		trk:         opts.Tracker,
		gh:          opts.GitHub,
		githubOwner: opts.GitHubOwner,
		githubRepo:  opts.GitHubRepo,
		reviewURL:   strings.TrimRight(opts.ReviewURL, "/"),
		http:        &http.Client{Timeout: 60 * time.Second},
		log:         log,
	}
}

// Acquire fetches the patch into ws.PatchPath. For tracker sources it also
// records issue metadata under the run directory and sets the
// documentation-only flag on the workspace. Any error here aborts the run
// before the first gate.
func (a *Acquirer) Acquire(ctx context.Context, src Source, ws *workspace.State) error {
	switch src.Kind {
	case KindLocalFile:
		return a.copyLocal(src.Value, ws)
	case KindTrackerAttachment:
		return a.fromTracker(ctx, src.Value, ws)
	case KindPullRequest:
		return a.fromPullRequest(ctx, src.Value, ws)
	case KindReviewBoard:
		return a.fromReviewBoard(ctx, src.Value, ws)
	default:
		return fmt.Errorf("unknown patch source kind %q", src.Kind)
	}
}

func (a *Acquirer) copyLocal(path string, ws *workspace.State) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read local patch %s: %w", path, err)
	}
	if err := workspace.WriteAtomic(ws.PatchPath, data); err != nil {
		return fmt.Errorf("stage local patch: %w", err)
	}
	a.log.Info("acquired local patch", zap.String("path", path), zap.Int("bytes", len(data)))
	return nil
}

func (a *Acquirer) fromTracker(ctx context.Context, key string, ws *workspace.State) error {
	if a.trk == nil {
		return fmt.Errorf("tracker client not configured")
	}

	issue, err := a.trk.Issue(ctx, key)
	if err != nil {
		return fmt.Errorf("fetch issue %s: %w", key, err)
	}

	// Persist metadata for later gates (documentation-only detection) and
	// post-hoc inspection.
	if err := workspace.WriteJSON(ws.LogPath("issue.json"), issue); err != nil {
		return fmt.Errorf("write issue metadata: %w", err)
	}
	ws.DocumentationOnly = issue.DocumentationOnly

	if issue.Status != actionableStatus {
		return fmt.Errorf("issue %s is in state %q, want %q: %w", key, issue.Status, actionableStatus, ErrNotActionable)
	}

	url, err := selectAttachment(issue.Attachments)
	if err != nil {
		return fmt.Errorf("issue %s: %w", key, err)
	}

	a.log.Info("downloading tracker attachment", zap.String("issue", key), zap.String("url", url))
	return a.download(ctx, url, ws.PatchPath)
}

// selectAttachment picks the most recent non-HTML attachment: candidates
// are sorted and the last one wins, matching how tracker attachment URLs
// encode upload order.
func selectAttachment(urls []string) (string, error) {
	var candidates []string
	for _, u := range urls {
		lower := strings.ToLower(u)
		if strings.HasSuffix(lower, ".html") || strings.HasSuffix(lower, ".htm") {
			continue
		}
		candidates = append(candidates, u)
	}
	if len(candidates) == 0 {
		return "", fmt.Errorf("no usable patch attachment found")
	}
	sort.Strings(candidates)
	return candidates[len(candidates)-1], nil
}

func (a *Acquirer) fromPullRequest(ctx context.Context, id string, ws *workspace.State) error {
	if a.gh == nil {
		return fmt.Errorf("github client not configured")
	}
	number, err := strconv.Atoi(id)
	if err != nil {
		return fmt.Errorf("invalid pull request id %q: %w", id, err)
	}

	diff, _, err := a.gh.PullRequests.GetRaw(ctx, a.githubOwner, a.githubRepo, number, github.RawOptions{Type: github.Diff})
	if err != nil {
		return fmt.Errorf("fetch pull request %d diff: %w", number, err)
	}

	if err := workspace.WriteAtomic(ws.PatchPath, []byte(diff)); err != nil {
		return fmt.Errorf("stage pull request diff: %w", err)
	}
	a.log.Info("acquired pull request diff", zap.Int("pr", number), zap.Int("bytes", len(diff)))
	return nil
}

func (a *Acquirer) fromReviewBoard(ctx context.Context, id string, ws *workspace.State) error {
	if a.reviewURL == "" {
		return fmt.Errorf("review board URL not configured")
	}
	url := fmt.Sprintf("%s/r/%s/diff/raw/", a.reviewURL, id)
	a.log.Info("downloading review board diff", zap.String("url", url))
	return a.download(ctx, url, ws.PatchPath)
}

func (a *Acquirer) download(ctx context.Context, url, dest string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("build download request: %w", err)
	}
	resp, err := a.http.Do(req)
	if err != nil {
		return fmt.Errorf("download %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("download %s: unexpected status %s", url, resp.Status)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read download body: %w", err)
	}
	if len(data) == 0 {
		return fmt.Errorf("download %s: empty patch body", url)
	}

	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return fmt.Errorf("mkdir patch dir: %w", err)
	}
	return workspace.WriteAtomic(dest, data)
}
