package publish

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/kbukum/minutes/logger"
	"github.com/kbukum/minutes/provider"
	"github.com/kbukum/minutes/storage"
)

const notesName = "notes"

// NotesConfig is the notes section of the service configuration.
type NotesConfig struct {
	// Disabled turns the page off; chat and events still run.
	Disabled bool `yaml:"disabled" mapstructure:"disabled"`
	// Dir keeps one markdown file per page.
	Dir string `yaml:"dir" mapstructure:"dir"`
	// BaseURL and Project build the public page link.
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
	Project string `yaml:"project" mapstructure:"project"`
	// TimeZone renders the start time and entry clocks.
	TimeZone string `yaml:"time_zone" mapstructure:"time_zone"`
	// TitleFromToken names the page after the routing token instead of the date.
	TitleFromToken bool `yaml:"title_from_token" mapstructure:"title_from_token"`
	// ArchivePrefix is prepended to the page file name on upload.
	ArchivePrefix string `yaml:"archive_prefix" mapstructure:"archive_prefix"`
}

// ApplyDefaults fills unset fields.
func (c *NotesConfig) ApplyDefaults() {
	if c.Dir == "" {
		c.Dir = "./notes"
	}
	if c.BaseURL == "" {
		c.BaseURL = "https://scrapbox.io"
	}
	if c.Project == "" {
		c.Project = "localhouse"
	}
	if c.TimeZone == "" {
		c.TimeZone = "Asia/Tokyo"
	}
}

// Validate checks the configuration.
func (c *NotesConfig) Validate() error {
	if _, err := time.LoadLocation(c.TimeZone); err != nil {
		return fmt.Errorf("notes.time_zone: %w", err)
	}
	if _, err := url.Parse(c.BaseURL); err != nil {
		return fmt.Errorf("notes.base_url: %w", err)
	}
	return nil
}

// Summarizer condenses a finished transcript. An empty result means no summary.
type Summarizer interface {
	Summarize(ctx context.Context, transcript string) string
}

// Uploader archives a finished page.
type Uploader = provider.RequestResponse[storage.UploadRequest, string]

type page struct {
	title string
	path  string
}

// NotesPage writes the minutes of each session as a markdown page, one line
// per utterance, and archives it when the session completes.
type NotesPage struct {
	cfg        NotesConfig
	loc        *time.Location
	uploader   Uploader
	summarizer Summarizer
	log        *logger.Logger

	mu    sync.Mutex
	pages map[string]page
}

var (
	_ Publisher = (*NotesPage)(nil)
	_ Observer  = (*NotesPage)(nil)
)

// NotesOption configures a NotesPage.
type NotesOption func(*NotesPage)

// WithUploader archives completed pages through u.
func WithUploader(u Uploader) NotesOption {
	return func(n *NotesPage) { n.uploader = u }
}

// WithSummarizer appends a summary section to completed pages.
func WithSummarizer(s Summarizer) NotesOption {
	return func(n *NotesPage) { n.summarizer = s }
}

// NewNotesPage creates the notes publisher.
func NewNotesPage(cfg NotesConfig, log *logger.Logger, opts ...NotesOption) (*NotesPage, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	loc, _ := time.LoadLocation(cfg.TimeZone)
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("notes dir: %w", err)
	}
	if log == nil {
		log = logger.NewNop()
	}
	n := &NotesPage{
		cfg:   cfg,
		loc:   loc,
		log:   log.WithComponent("publish.notes"),
		pages: make(map[string]page),
	}
	for _, opt := range opts {
		opt(n)
	}
	return n, nil
}

// Name implements provider.Provider.
func (n *NotesPage) Name() string { return notesName }

// IsAvailable implements provider.Provider.
func (n *NotesPage) IsAvailable(context.Context) bool { return true }

// Title returns the page title for a session.
func (n *NotesPage) Title(info SessionInfo) string {
	if n.cfg.TitleFromToken && info.RoutingToken != "" {
		return info.RoutingToken
	}
	return "議事録 " + info.StartedAt.In(n.loc).Format(time.DateOnly)
}

// PageURL returns the public link of the session's page.
func (n *NotesPage) PageURL(info SessionInfo) string {
	return strings.TrimRight(n.cfg.BaseURL, "/") + "/" + url.PathEscape(n.cfg.Project) + "/" + url.PathEscape(n.Title(info))
}

// Path returns the local file of the session's page, or "" if the session
// was never started on this publisher.
func (n *NotesPage) Path(sessionID string) string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.pages[sessionID].path
}

// SessionStarted opens the page and writes its header.
func (n *NotesPage) SessionStarted(_ context.Context, info SessionInfo) error {
	title := n.Title(info)
	p := page{title: title, path: filepath.Join(n.cfg.Dir, url.PathEscape(title)+".md")}

	n.mu.Lock()
	defer n.mu.Unlock()
	n.pages[info.ID] = p
	header := fmt.Sprintf("議事録\n開始時刻: %s\n\n", info.StartedAt.In(n.loc).Format("2006/1/2 15:04:05"))
	return appendFile(p.path, header)
}

// Send appends one entry line to the session's page.
func (n *NotesPage) Send(_ context.Context, e Entry) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	p, ok := n.pages[e.SessionID]
	if !ok {
		return fmt.Errorf("notes: unknown session %s", e.SessionID)
	}
	return appendFile(p.path, n.FormatEntry(e)+"\n")
}

// FormatEntry renders one minutes line.
func (n *NotesPage) FormatEntry(e Entry) string {
	return fmt.Sprintf("[%s] **%s**: %s", e.Timestamp.In(n.loc).Format(time.TimeOnly), e.Label, e.Text)
}

// SessionCompleted appends the optional summary and archives the page.
func (n *NotesPage) SessionCompleted(ctx context.Context, info SessionInfo) error {
	n.mu.Lock()
	p, ok := n.pages[info.ID]
	delete(n.pages, info.ID)
	n.mu.Unlock()
	if !ok {
		return nil
	}

	if n.summarizer != nil {
		if err := n.appendSummary(ctx, p); err != nil {
			n.log.Warn("summary not written", logger.ErrorFields("summarize", err))
		}
	}

	n.log.Info("minutes page completed", logger.Fields(
		logger.FieldSessionID, info.ID,
		"title", p.title,
		"url", n.PageURL(info),
	))

	if n.uploader == nil {
		return nil
	}
	data, err := os.ReadFile(p.path)
	if err != nil {
		return fmt.Errorf("read page: %w", err)
	}
	key := storage.Key(n.cfg.ArchivePrefix, filepath.Base(p.path))
	archived, err := n.uploader.Execute(ctx, storage.UploadRequest{Key: key, Body: data})
	if err != nil {
		return fmt.Errorf("archive page %s: %w", key, err)
	}
	n.log.Info("minutes page archived", logger.Fields(logger.FieldSessionID, info.ID, "url", archived))
	return nil
}

func (n *NotesPage) appendSummary(ctx context.Context, p page) error {
	data, err := os.ReadFile(p.path)
	if err != nil {
		return err
	}
	transcript := transcriptLines(string(data))
	if transcript == "" {
		return nil
	}
	s := strings.TrimSpace(n.summarizer.Summarize(ctx, transcript))
	if s == "" {
		return nil
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	return appendFile(p.path, "\n[** 要約]\n"+s+"\n")
}

// transcriptLines drops the page header and keeps the entry lines.
func transcriptLines(page string) string {
	var b strings.Builder
	for _, line := range strings.Split(page, "\n") {
		if strings.HasPrefix(line, "[") && strings.Contains(line, "**") {
			b.WriteString(line)
			b.WriteByte('\n')
		}
	}
	return b.String()
}

func appendFile(path, text string) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	if _, err := f.WriteString(text); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
