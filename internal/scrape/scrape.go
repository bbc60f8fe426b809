// Package scrape implements the scrape service: fetch -> action-run ->
// bot/CAPTCHA detect -> clean -> convert -> multi-format emit, with
// cache integration and a one-shot stealth-mode retry.
package scrape

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"strings"
	"time"

	"kirk-crawl/internal/actions"
	"kirk-crawl/internal/browser"
	"kirk-crawl/internal/cachestore"
	"kirk-crawl/internal/captcha"
	"kirk-crawl/internal/corr"
	"kirk-crawl/internal/detect"
	"kirk-crawl/internal/htmlx"
	"kirk-crawl/internal/kerrors"
	"kirk-crawl/internal/llm"
	"kirk-crawl/internal/logging"
)

// Options groups the many scrape parameters into a single struct:
// render/capture/clean/formats/cache options all passed as one value.
type Options struct {
	Formats []string

	OnlyMainContent bool
	IncludeTags     []string
	ExcludeTags     []string

	JSONSchema map[string]any
	JSONPrompt string

	MaxAge time.Duration

	WaitUntil          browser.WaitUntil
	WaitForSPA         bool
	SPATimeoutMS       int
	ScreenshotFullPage bool

	Actions []actions.Action

	// Stealth marks this call as the one-shot stealth retry; callers
	// constructing a fresh top-level scrape should leave it false.
	Stealth bool
}

// Metadata is the metadata block attached to ScrapeData, extending
// htmlx.Metadata with scrape-specific fields.
type Metadata struct {
	htmlx.Metadata
	SourceURL string
	CacheHit  bool
	StatusCode int
}

// ActionOutput is one action's result, enriched with a markdown
// rendering when the action captured content.
type ActionOutput struct {
	Success          bool
	ActionType       actions.Type
	Error            string
	ScreenshotBase64 string
	CapturedHTML     string
	CapturedMarkdown string
}

// Data is the requested subset of extracted/derived content. Only
// fields corresponding to a requested format are populated.
type Data struct {
	Markdown      string
	HTML          string
	RawHTML       string
	Screenshot    string // base64
	PDF           string // base64
	Links         []string
	Images        []string
	Branding      *htmlx.Branding
	Summary       string
	LLMExtraction map[string]any
	Metadata      Metadata
	Actions       []ActionOutput
	WordCount     int
}

// Result is the scrape outcome as a tagged union: Data is non-nil iff
// Success.
type Result struct {
	Success bool
	Data    *Data
	Error   string
}

// Service composes the browser pool, cache, and optional LLM/CAPTCHA
// collaborators into the full scrape pipeline.
type Service struct {
	Pool        *browser.Pool
	StealthPool *browser.Pool // nil when no enhanced anti-detection driver is configured
	Cache       *cachestore.Store
	LLM         *llm.Client
	Captcha     *captcha.Client
	Log         *logging.Logger
}

// New builds a Service. StealthPool, Cache, LLM, and Captcha are all
// optional (nil); their absence must not break the non-optional path.
func New(pool *browser.Pool) *Service {
	return &Service{Pool: pool, Log: logging.Default}
}

func hasFormat(formats []string, want string) bool {
	for _, f := range formats {
		if f == want {
			return true
		}
	}
	return false
}

// Scrape runs the full pipeline for url, returning a Result.
func (s *Service) Scrape(ctx context.Context, targetURL string, opts Options) Result {
	ctx = corr.WithID(ctx, corr.FromContext(ctx))

	if opts.MaxAge > 0 && s.Cache != nil {
		if raw, hit := s.Cache.Get(targetURL, opts.MaxAge, variant(opts)); hit {
			var data Data
			if err := json.Unmarshal(raw, &data); err == nil {
				data.Metadata.CacheHit = true
				return Result{Success: true, Data: &data}
			}
		}
	}

	result := s.scrapeLive(ctx, targetURL, opts)

	if result.Success && opts.MaxAge > 0 && s.Cache != nil {
		payload, err := json.Marshal(result.Data)
		if err == nil {
			_ = s.Cache.Set(targetURL, payload, opts.MaxAge, variant(opts))
		}
	}

	return result
}

func (s *Service) scrapeLive(ctx context.Context, targetURL string, opts Options) Result {
	pool := s.Pool
	if opts.Stealth && s.StealthPool != nil {
		pool = s.StealthPool
	}

	page, err := pool.Lease(ctx)
	if err != nil {
		return s.fail(opts, "acquire browser context: "+err.Error())
	}
	defer page.Release()

	content, err := browser.Fetch(ctx, page, targetURL, browser.FetchOptions{
		WaitUntil:          opts.WaitUntil,
		WaitForSPA:         opts.WaitForSPA,
		SPATimeoutMS:       opts.SPATimeoutMS,
		CaptureScreenshot:  hasFormat(opts.Formats, "screenshot"),
		ScreenshotFullPage: opts.ScreenshotFullPage,
		CapturePDF:         hasFormat(opts.Formats, "pdf"),
	})
	if err != nil {
		return s.fail(opts, kerrors.WithHint("navigation failed: "+err.Error(), opts.Stealth, s.StealthPool != nil))
	}

	var actionResults []actions.Result
	if len(opts.Actions) > 0 {
		actionResults = actions.Run(ctx, page, opts.Actions)

		refreshed, rerr := browser.Capture(page, targetURL, browser.FetchOptions{
			WaitUntil:          opts.WaitUntil,
			CaptureScreenshot:  hasFormat(opts.Formats, "screenshot"),
			ScreenshotFullPage: opts.ScreenshotFullPage,
			CapturePDF:         hasFormat(opts.Formats, "pdf"),
		})
		if rerr == nil {
			content = refreshed
		}
	}

	needsMarkdown := hasFormat(opts.Formats, "markdown") || hasFormat(opts.Formats, "json") || hasFormat(opts.Formats, "summary")

	cleaned, cerr := htmlx.Clean(content.HTML, htmlx.CleanOptions{
		OnlyMainContent: opts.OnlyMainContent,
		IncludeTags:     opts.IncludeTags,
		ExcludeTags:     opts.ExcludeTags,
	})
	if cerr != nil {
		cleaned = content.HTML
	}

	var markdown string
	if needsMarkdown {
		markdown, _ = htmlx.ToMarkdown(cleaned, targetURL)
	}

	// Bot-block gate: one-shot stealth retry.
	if detect.LooksLikeBotBlock(content.StatusCode, content.HTML, markdown) {
		if !opts.Stealth && s.StealthPool != nil {
			s.Log.Warnf(ctx, "bot block detected for %s, retrying with stealth", targetURL)
			retryOpts := opts
			retryOpts.Stealth = true
			return s.scrapeLive(ctx, targetURL, retryOpts)
		}
		s.Log.Warnf(ctx, "bot block detected for %s, no stealth fallback available", targetURL)
	}

	// CAPTCHA gate: at most one solve attempt.
	if cap := detect.LooksLikeCaptcha(content.HTML, targetURL); cap != nil && s.Captcha != nil {
		if token, serr := s.Captcha.Solve(ctx, *cap); serr == nil {
			if rerr := reinjectToken(ctx, page, *cap, token); rerr == nil {
				if refreshed, ferr := browser.Fetch(ctx, page, targetURL, browser.FetchOptions{WaitUntil: browser.WaitNetworkIdle}); ferr == nil {
					content = refreshed
					cleaned, _ = htmlx.Clean(content.HTML, htmlx.CleanOptions{
						OnlyMainContent: opts.OnlyMainContent,
						IncludeTags:     opts.IncludeTags,
						ExcludeTags:     opts.ExcludeTags,
					})
					if needsMarkdown {
						markdown, _ = htmlx.ToMarkdown(cleaned, targetURL)
					}
				}
			}
		} else {
			s.Log.Warnf(ctx, "captcha solve failed for %s: %v", targetURL, serr)
		}
	}

	data := &Data{
		Metadata: Metadata{SourceURL: targetURL, StatusCode: content.StatusCode},
	}

	meta, merr := htmlx.ExtractMetadata(content.HTML)
	if merr == nil {
		data.Metadata.Metadata = meta
	}

	if hasFormat(opts.Formats, "markdown") {
		data.Markdown = markdown
	}
	if hasFormat(opts.Formats, "html") {
		data.HTML = cleaned
	}
	if hasFormat(opts.Formats, "rawHtml") || hasFormat(opts.Formats, "raw_html") {
		data.RawHTML = content.HTML
	}
	if hasFormat(opts.Formats, "screenshot") && content.Screenshot != nil {
		data.Screenshot = base64.StdEncoding.EncodeToString(content.Screenshot)
	}
	if hasFormat(opts.Formats, "pdf") && content.PDF != nil {
		data.PDF = base64.StdEncoding.EncodeToString(content.PDF)
	}
	if hasFormat(opts.Formats, "links") {
		if links, lerr := browser.ExtractLinks(ctx, page, targetURL, opts.WaitUntil); lerr == nil {
			data.Links = links
		}
	}
	if hasFormat(opts.Formats, "images") {
		if images, ierr := htmlx.ExtractImages(content.HTML, targetURL); ierr == nil {
			data.Images = images
		}
	}
	if hasFormat(opts.Formats, "branding") {
		if branding, berr := htmlx.ExtractBranding(content.HTML, targetURL); berr == nil {
			data.Branding = &branding
		}
	}

	if hasFormat(opts.Formats, "json") && s.LLM != nil {
		if extraction, jerr := s.extractJSON(ctx, markdown, opts); jerr == nil {
			data.LLMExtraction = extraction
		} else {
			s.Log.Warnf(ctx, "json extraction failed for %s: %v", targetURL, jerr)
		}
	}

	if hasFormat(opts.Formats, "summary") && s.LLM != nil {
		if summary, serr := s.summarize(ctx, markdown); serr == nil {
			data.Summary = summary
		} else {
			s.Log.Warnf(ctx, "summary failed for %s: %v", targetURL, serr)
		}
	}

	data.WordCount = len(strings.Fields(markdown))
	data.Actions = buildActionOutputs(actionResults, targetURL)

	return Result{Success: true, Data: data}
}

func (s *Service) fail(opts Options, message string) Result {
	return Result{Success: false, Error: kerrors.WithHint(message, opts.Stealth, s.StealthPool != nil)}
}

func buildActionOutputs(results []actions.Result, baseURL string) []ActionOutput {
	if len(results) == 0 {
		return nil
	}
	out := make([]ActionOutput, len(results))
	for i, r := range results {
		o := ActionOutput{Success: r.Success, ActionType: r.ActionType, Error: r.Error}
		if r.Screenshot != nil {
			o.ScreenshotBase64 = base64.StdEncoding.EncodeToString(r.Screenshot)
		}
		if r.CapturedHTML != "" {
			o.CapturedHTML = r.CapturedHTML
			if cleaned, err := htmlx.Clean(r.CapturedHTML, htmlx.CleanOptions{}); err == nil {
				if md, err := htmlx.ToMarkdown(cleaned, baseURL); err == nil {
					o.CapturedMarkdown = md
				}
			}
		}
		out[i] = o
	}
	return out
}

func (s *Service) extractJSON(ctx context.Context, markdown string, opts Options) (map[string]any, error) {
	prompt := opts.JSONPrompt
	if prompt == "" {
		prompt = "Extract structured data from the following content as JSON."
	}
	messages := []llm.Message{
		{Role: "system", Content: prompt},
		{Role: "user", Content: markdown},
	}
	if opts.JSONSchema != nil {
		schemaJSON, _ := json.Marshal(opts.JSONSchema)
		messages[0].Content += "\nRespond matching this JSON schema: " + string(schemaJSON)
	}
	return s.LLM.ChatJSON(ctx, messages)
}

const summarySystemPrompt = "Summarise the following content in 2-3 sentences."
const summaryInputCap = 10000
const summaryOutputCap = 500

func (s *Service) summarize(ctx context.Context, markdown string) (string, error) {
	input := markdown
	if len(input) > summaryInputCap {
		input = input[:summaryInputCap]
	}
	raw, err := s.LLM.Chat(ctx, []llm.Message{
		{Role: "system", Content: summarySystemPrompt},
		{Role: "user", Content: input},
	}, false)
	if err != nil {
		return "", err
	}
	return truncateAtSentence(raw, summaryOutputCap), nil
}

// truncateAtSentence truncates s to at most max characters, backing up
// to the last sentence boundary ('.', '!', '?') found within the
// limit, matching the summary format's truncation contract.
func truncateAtSentence(s string, max int) string {
	if len(s) <= max {
		return s
	}
	window := s[:max]
	lastBoundary := -1
	for i, r := range window {
		if r == '.' || r == '!' || r == '?' {
			lastBoundary = i
		}
	}
	if lastBoundary >= 0 {
		return window[:lastBoundary+1]
	}
	return window
}
