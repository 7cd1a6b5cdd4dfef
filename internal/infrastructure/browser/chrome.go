// Package browser renders the PJe Comunica results page with headless
// Chrome. The page is an Angular app with volatile element attributes, so
// extraction works on the settled HTML, not on live selectors.
package browser

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/chromedp/chromedp"

	"PrazoScanner/internal/ports"
)

const (
	userAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 " +
		"(KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

	// resultsMarker appears once per publication card; its absence after
	// the timeout means the day has no publications.
	resultsMarker = "Data da disponibilização"
	markerTimeout = 10 * time.Second

	scrollPause = time.Second
	cardCountJS = `document.querySelectorAll("div[role='article'], div[class*='card']").length`
)

// Chrome renders one consulta day per call, each in a fresh browser context.
type Chrome struct {
	baseURL string
	oab     string
	logger  *slog.Logger
}

func NewChrome(baseURL, oab string, logger *slog.Logger) *Chrome {
	if logger == nil {
		logger = slog.Default()
	}
	return &Chrome{baseURL: baseURL, oab: oab, logger: logger}
}

func (c *Chrome) dayURL(day time.Time) string {
	d := day.Format("2006-01-02")
	return fmt.Sprintf("%s?dataDisponibilizacaoInicio=%s&dataDisponibilizacaoFim=%s&numeroOab=%s",
		c.baseURL, d, d, c.oab)
}

// RenderDay loads the results page for one day, scrolls until the card list
// stops growing, and returns the settled HTML. Returns ports.ErrNoResults
// when the page never shows the results marker.
func (c *Chrome) RenderDay(ctx context.Context, day time.Time) (string, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:], chromedp.UserAgent(userAgent))
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()
	tabCtx, cancelTab := chromedp.NewContext(allocCtx)
	defer cancelTab()

	url := c.dayURL(day)
	c.logger.Info("rendering consulta page", "url", url)
	if err := chromedp.Run(tabCtx, chromedp.Navigate(url)); err != nil {
		return "", fmt.Errorf("navigate %s: %w", url, err)
	}

	marker := fmt.Sprintf(`document.body && document.body.innerText.includes(%q)`, resultsMarker)
	var found bool
	err := chromedp.Run(tabCtx,
		chromedp.Poll(marker, &found, chromedp.WithPollingTimeout(markerTimeout)))
	if err != nil {
		if errors.Is(err, chromedp.ErrPollingTimeout) {
			return "", ports.ErrNoResults
		}
		return "", fmt.Errorf("wait for results: %w", err)
	}

	// Infinite scroll: keep scrolling until two consecutive counts match.
	last := -1
	for {
		var count int
		if err := chromedp.Run(tabCtx, chromedp.Evaluate(cardCountJS, &count)); err != nil {
			return "", fmt.Errorf("count cards: %w", err)
		}
		if count == last {
			break
		}
		last = count
		if err := chromedp.Run(tabCtx, chromedp.Evaluate(`window.scrollBy(0, 10000)`, nil)); err != nil {
			return "", fmt.Errorf("scroll: %w", err)
		}
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(scrollPause):
		}
	}

	var html string
	if err := chromedp.Run(tabCtx, chromedp.OuterHTML("html", &html)); err != nil {
		return "", fmt.Errorf("capture html: %w", err)
	}
	return html, nil
}
