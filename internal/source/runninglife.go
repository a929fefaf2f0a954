package source

import (
	"context"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/sells-group/marathon-cli/internal/model"
	"github.com/sells-group/marathon-cli/pkg/jina"
)

// RunningLifeURL is the secondary listing, a client-rendered page.
const RunningLifeURL = "https://mobile.runninglife.co.kr/contest/"

const runningLifeCardSelector = "div.cursor-pointer"

// RunningLife scrapes the secondary listing. When a reader is set the page
// is rendered through it; otherwise the raw HTML is fetched directly.
type RunningLife struct {
	fetcher
	url    string
	reader jina.Client
	now    func() time.Time
}

// NewRunningLife returns a RunningLife scraper. reader may be nil.
func NewRunningLife(url string, reader jina.Client, opts ...Option) *RunningLife {
	if url == "" {
		url = RunningLifeURL
	}
	return &RunningLife{
		fetcher: newFetcher(opts),
		url:     url,
		reader:  reader,
		now:     time.Now,
	}
}

func (r *RunningLife) Name() string { return model.SecondarySourceName }

// Fetch returns the event cards in page order.
func (r *RunningLife) Fetch(ctx context.Context) ([]model.RawEvent, error) {
	page, err := r.render(ctx)
	if err != nil {
		return nil, err
	}
	doc, err := html.Parse(strings.NewReader(page))
	if err != nil {
		return nil, eris.Wrap(err, "runninglife: parse html")
	}
	events := parseRunningLife(doc, r.now())
	zap.L().Info("runninglife: listing fetched", zap.Int("events", len(events)))
	return events, nil
}

func (r *RunningLife) render(ctx context.Context) (string, error) {
	if r.reader == nil {
		body, err := r.get(ctx, model.SecondarySourceName, r.url)
		if err != nil {
			return "", err
		}
		return string(body), nil
	}
	if r.robots != nil && !r.robots.Allowed(ctx, r.url) {
		return "", eris.Wrapf(ErrDisallowed, "%s: %s", model.SecondarySourceName, r.url)
	}
	resp, err := r.reader.Read(ctx, r.url,
		jina.WithReturnFormat("html"),
		jina.WithWaitForSelector(runningLifeCardSelector),
	)
	if err != nil {
		return "", eris.Wrap(err, "runninglife: render")
	}
	return resp.Data.Body(), nil
}

func parseRunningLife(doc *html.Node, now time.Time) []model.RawEvent {
	cards := findAll(doc, func(n *html.Node) bool {
		return n.DataAtom == atom.Div && classContains(n, "cursor-pointer", "flex flex-row items-start")
	})

	scrapedAt := now.Format(time.RFC3339)
	events := make([]model.RawEvent, 0, len(cards))
	for _, card := range cards {
		name := "Unknown"
		if n := findFirst(card, func(n *html.Node) bool {
			return n.DataAtom == atom.Div && classContains(n, "text-[16px]", "font-[600]", "truncate")
		}); n != nil {
			name = text(n)
		}

		var location, dateText string
		for _, info := range findAll(card, func(n *html.Node) bool {
			return n.DataAtom == atom.Div && classContains(n, "text-[14px]", "text-neutral-70", "truncate")
		}) {
			icon := prevSibling(info, atom.Img)
			if icon == nil {
				continue
			}
			switch alt, _ := attr(icon, "alt"); alt {
			case "location":
				if location == "" {
					location = text(info)
				}
			case "clock":
				if dateText == "" {
					dateText = text(info)
				}
			}
		}

		var status string
		if s := findFirst(card, func(n *html.Node) bool {
			return n.DataAtom == atom.Span && classContains(n, "inline-flex", "font-semibold")
		}); s != nil {
			status = text(s)
		}

		events = append(events, model.RawEvent{
			Name:      name,
			Location:  location,
			Date:      normalizeShortDate(dateText),
			DateRaw:   dateText,
			Status:    status,
			Source:    model.SecondarySourceName,
			ScrapedAt: scrapedAt,
		})
	}
	return events
}
