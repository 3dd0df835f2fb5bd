package browser

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
)

// navTimeout bounds the initial navigation of a new tab.
const navTimeout = 30 * time.Second

// AttachTab returns the POS tab: an open tab whose URL starts with match,
// or else a new tab navigated to pageURL.
func AttachTab(ctx context.Context, mgr *Manager, match, pageURL string) (*rod.Page, error) {
	b := mgr.Browser()
	if b == nil {
		return nil, fmt.Errorf("browser: no active browser")
	}

	pages, err := b.Pages()
	if err != nil {
		return nil, fmt.Errorf("browser: list tabs: %w", err)
	}
	urls := make([]string, len(pages))
	for i, p := range pages {
		if info, err := p.Info(); err == nil {
			urls[i] = info.URL
		}
	}
	if i := pickTab(urls, match); i >= 0 {
		mgr.cfg.Logger.Info("browser: reusing tab", "url", urls[i])
		return pages[i].Context(ctx), nil
	}

	var page *rod.Page
	if mgr.cfg.Stealth {
		page, err = stealth.Page(b)
	} else {
		page, err = b.Page(proto.TargetCreateTarget{URL: ""})
	}
	if err != nil {
		return nil, fmt.Errorf("browser: create tab: %w", err)
	}

	navCtx, cancel := context.WithTimeout(ctx, navTimeout)
	defer cancel()
	if err := page.Context(navCtx).Navigate(pageURL); err != nil {
		page.Close()
		return nil, fmt.Errorf("browser: navigate %s: %w", pageURL, err)
	}
	if err := page.Context(navCtx).WaitLoad(); err != nil {
		mgr.cfg.Logger.Warn("browser: wait load timeout", "url", pageURL, "error", err)
	}
	mgr.cfg.Logger.Info("browser: opened tab", "url", pageURL)
	return page.Context(ctx), nil
}

// pickTab returns the index of the first URL with the given prefix, or -1.
func pickTab(urls []string, match string) int {
	if match == "" {
		return -1
	}
	for i, u := range urls {
		if strings.HasPrefix(u, match) {
			return i
		}
	}
	return -1
}
