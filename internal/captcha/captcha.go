// Package captcha is a thin opaque collaborator client for a 2Captcha
// solver. It knows the 2Captcha HTTP create/result polling contract
// but has no stake in how the sitekey was detected — that is
// internal/detect's job.
package captcha

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"kirk-crawl/internal/detect"
	"kirk-crawl/internal/kerrors"
)

const defaultBaseURL = "https://2captcha.com"

// Client submits CAPTCHA challenges to 2Captcha and polls for a
// solved token.
type Client struct {
	APIKey     string
	BaseURL    string
	HTTP       *http.Client
	PollEvery  time.Duration
	MaxPollWait time.Duration
}

// New builds a Client. An empty apiKey is valid to construct but
// Solve will fail with a KindCaptcha error explaining how to configure
// one.
func New(apiKey string) *Client {
	return &Client{
		APIKey:      apiKey,
		BaseURL:     defaultBaseURL,
		HTTP:        &http.Client{Timeout: 30 * time.Second},
		PollEvery:   5 * time.Second,
		MaxPollWait: 120 * time.Second,
	}
}

var methodByKind = map[detect.Kind]string{
	detect.RecaptchaV2: "userrecaptcha",
	detect.RecaptchaV3: "userrecaptcha",
	detect.HCaptcha:    "hcaptcha",
	detect.Turnstile:   "turnstile",
}

// Solve submits c to 2Captcha and blocks (polling) until a token is
// returned or MaxPollWait elapses.
func (cl *Client) Solve(ctx context.Context, c detect.Captcha) (string, error) {
	if cl.APIKey == "" {
		return "", kerrors.New(kerrors.KindCaptcha,
			"captcha api key not configured [HINT: set CAPTCHA_API_KEY environment variable]")
	}

	method, ok := methodByKind[c.Kind]
	if !ok {
		return "", kerrors.New(kerrors.KindCaptcha, fmt.Sprintf("unsupported captcha kind %q", c.Kind))
	}

	taskID, err := cl.createTask(ctx, method, c)
	if err != nil {
		return "", err
	}

	return cl.pollResult(ctx, taskID)
}

func (cl *Client) createTask(ctx context.Context, method string, c detect.Captcha) (string, error) {
	params := url.Values{
		"key":      {cl.APIKey},
		"method":   {method},
		"sitekey":  {c.Sitekey},
		"pageurl":  {c.PageURL},
		"json":     {"1"},
	}
	if c.Kind == detect.RecaptchaV3 {
		params.Set("version", "v3")
	}

	var out struct {
		Status  int    `json:"status"`
		Request string `json:"request"`
	}
	if err := cl.get(ctx, "/in.php", params, &out); err != nil {
		return "", err
	}
	if out.Status != 1 {
		return "", kerrors.New(kerrors.KindCaptcha, "captcha task submission failed: "+out.Request)
	}
	return out.Request, nil
}

func (cl *Client) pollResult(ctx context.Context, taskID string) (string, error) {
	deadline := time.Now().Add(cl.MaxPollWait)
	for time.Now().Before(deadline) {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(cl.PollEvery):
		}

		var out struct {
			Status  int    `json:"status"`
			Request string `json:"request"`
		}
		params := url.Values{
			"key":    {cl.APIKey},
			"action": {"get"},
			"id":     {taskID},
			"json":   {"1"},
		}
		if err := cl.get(ctx, "/res.php", params, &out); err != nil {
			return "", err
		}
		if out.Status == 1 {
			return out.Request, nil
		}
		if out.Request != "CAPCHA_NOT_READY" {
			return "", kerrors.New(kerrors.KindCaptcha, "captcha solve failed: "+out.Request)
		}
	}
	return "", kerrors.New(kerrors.KindCaptcha, "captcha solve timed out after "+strconv.Itoa(int(cl.MaxPollWait.Seconds()))+"s")
}

func (cl *Client) get(ctx context.Context, path string, params url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, cl.BaseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return kerrors.Wrap(kerrors.KindCaptcha, "build captcha request", err)
	}
	resp, err := cl.HTTP.Do(req)
	if err != nil {
		return kerrors.Wrap(kerrors.KindProvider, "captcha request failed", err)
	}
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return kerrors.Wrap(kerrors.KindCaptcha, "decode captcha response", err)
	}
	return nil
}
