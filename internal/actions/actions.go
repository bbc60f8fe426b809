// Package actions implements a sequential, failure-tolerant executor
// for scripted page interactions run before a scrape, driven through
// the browser package's chromedp-backed Page.
package actions

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/chromedp"

	"kirk-crawl/internal/browser"
)

// Type enumerates the supported page actions.
type Type string

const (
	Wait           Type = "wait"
	Click          Type = "click"
	Type_          Type = "type"
	Scroll         Type = "scroll"
	Screenshot     Type = "screenshot"
	Press          Type = "press"
	ExecuteJS      Type = "executeJavascript"
	Capture        Type = "capture"
)

// Action is a single scripted interaction. Only the fields relevant to
// its Type are read.
type Action struct {
	Type         Type
	Selector     string
	Milliseconds int
	Text         string
	Direction    string // "up" or "down", for Scroll
	Key          string
	Script       string
	FullPage     bool
}

// Result records the outcome of one executed action.
type Result struct {
	Success    bool
	ActionType Type
	Error      string
	Screenshot []byte
	CapturedHTML string
}

const defaultTimeout = 30 * time.Second

// Run executes actions against p in order. A failing action is
// recorded but does not stop the sequence — callers inspect each
// Result to decide whether the overall run succeeded.
func Run(ctx context.Context, p *browser.Page, acts []Action) []Result {
	results := make([]Result, 0, len(acts))
	for _, a := range acts {
		results = append(results, execute(ctx, p, a))
	}
	return results
}

func execute(ctx context.Context, p *browser.Page, a Action) Result {
	switch a.Type {
	case Wait:
		return doWait(ctx, p, a)
	case Click:
		return doClick(ctx, p, a)
	case Type_:
		return doType(ctx, p, a)
	case Scroll:
		return doScroll(ctx, p, a)
	case Screenshot:
		return doScreenshot(ctx, p, a)
	case Press:
		return doPress(ctx, p, a)
	case ExecuteJS:
		return doExecuteJS(ctx, p, a)
	case Capture:
		return doCapture(ctx, p, a)
	default:
		return Result{Success: false, ActionType: a.Type, Error: fmt.Sprintf("unknown action type: %s", a.Type)}
	}
}

func doWait(ctx context.Context, p *browser.Page, a Action) Result {
	if a.Milliseconds > 0 {
		time.Sleep(time.Duration(a.Milliseconds) * time.Millisecond)
		return Result{Success: true, ActionType: Wait}
	}
	if a.Selector != "" {
		timeoutCtx, cancel := context.WithTimeout(p.Context(), defaultTimeout)
		defer cancel()
		if err := chromedp.Run(timeoutCtx, chromedp.WaitVisible(a.Selector, chromedp.ByQuery)); err != nil {
			return Result{Success: false, ActionType: Wait, Error: fmt.Sprintf("selector not found: %s (%v)", a.Selector, err)}
		}
		return Result{Success: true, ActionType: Wait}
	}
	return Result{Success: false, ActionType: Wait, Error: "wait action requires milliseconds or selector"}
}

func doClick(ctx context.Context, p *browser.Page, a Action) Result {
	if a.Selector == "" {
		return Result{Success: false, ActionType: Click, Error: "click action requires selector"}
	}
	if err := chromedp.Run(p.Context(), chromedp.Click(a.Selector, chromedp.ByQuery)); err != nil {
		return Result{Success: false, ActionType: Click, Error: fmt.Sprintf("click failed: %v", err)}
	}
	return Result{Success: true, ActionType: Click}
}

func doType(ctx context.Context, p *browser.Page, a Action) Result {
	if a.Selector == "" {
		return Result{Success: false, ActionType: Type_, Error: "type action requires selector"}
	}
	if a.Text == "" {
		return Result{Success: false, ActionType: Type_, Error: "type action requires text"}
	}
	if err := chromedp.Run(p.Context(), chromedp.SendKeys(a.Selector, a.Text, chromedp.ByQuery)); err != nil {
		return Result{Success: false, ActionType: Type_, Error: fmt.Sprintf("type failed: %v", err)}
	}
	return Result{Success: true, ActionType: Type_}
}

func doScroll(ctx context.Context, p *browser.Page, a Action) Result {
	delta := "window.innerHeight"
	if a.Direction == "up" {
		delta = "-window.innerHeight"
	}
	script := fmt.Sprintf("window.scrollBy(0, %s)", delta)
	if err := chromedp.Run(p.Context(), chromedp.Evaluate(script, nil)); err != nil {
		return Result{Success: false, ActionType: Scroll, Error: fmt.Sprintf("scroll failed: %v", err)}
	}
	return Result{Success: true, ActionType: Scroll}
}

func doScreenshot(ctx context.Context, p *browser.Page, a Action) Result {
	var buf []byte
	var act chromedp.Action
	if a.FullPage {
		act = chromedp.FullScreenshot(&buf, 90)
	} else {
		act = chromedp.CaptureScreenshot(&buf)
	}
	if err := chromedp.Run(p.Context(), act); err != nil {
		return Result{Success: false, ActionType: Screenshot, Error: fmt.Sprintf("screenshot failed: %v", err)}
	}
	return Result{Success: true, ActionType: Screenshot, Screenshot: buf}
}

func doPress(ctx context.Context, p *browser.Page, a Action) Result {
	if a.Key == "" {
		return Result{Success: false, ActionType: Press, Error: "press action requires key"}
	}
	if err := chromedp.Run(p.Context(), chromedp.KeyEvent(a.Key)); err != nil {
		return Result{Success: false, ActionType: Press, Error: fmt.Sprintf("press failed: %v", err)}
	}
	return Result{Success: true, ActionType: Press}
}

func doExecuteJS(ctx context.Context, p *browser.Page, a Action) Result {
	if a.Script == "" {
		return Result{Success: false, ActionType: ExecuteJS, Error: "executeJavascript action requires script"}
	}
	if err := chromedp.Run(p.Context(), chromedp.Evaluate(a.Script, nil)); err != nil {
		return Result{Success: false, ActionType: ExecuteJS, Error: fmt.Sprintf("script failed: %v", err)}
	}
	return Result{Success: true, ActionType: ExecuteJS}
}

func doCapture(ctx context.Context, p *browser.Page, a Action) Result {
	var html string
	if err := chromedp.Run(p.Context(), chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		return Result{Success: false, ActionType: Capture, Error: fmt.Sprintf("capture failed: %v", err)}
	}
	return Result{Success: true, ActionType: Capture, CapturedHTML: html}
}
