package source

import (
	"bytes"
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/time/rate"

	"github.com/sells-group/marathon-cli/internal/model"
)

const (
	// RoadrunListURL is the primary schedule listing.
	RoadrunListURL = "http://www.roadrun.co.kr/schedule/list.php"

	roadrunScheduleBase = "http://www.roadrun.co.kr/schedule/"
	roadrunCharset      = "euc-kr"
)

var viewLinkRe = regexp.MustCompile(`view\.php\?no=\d+`)

// Roadrun scrapes the primary listing site, an EUC-KR table layout.
type Roadrun struct {
	fetcher
	listURL string
	details *rate.Limiter
	now     func() time.Time
}

// NewRoadrun returns a Roadrun scraper. Detail page requests are spaced at
// least detailInterval apart; zero disables pacing.
func NewRoadrun(listURL string, detailInterval time.Duration, opts ...Option) *Roadrun {
	if listURL == "" {
		listURL = RoadrunListURL
	}
	limit := rate.Inf
	if detailInterval > 0 {
		limit = rate.Every(detailInterval)
	}
	return &Roadrun{
		fetcher: newFetcher(opts),
		listURL: listURL,
		details: rate.NewLimiter(limit, 1),
		now:     time.Now,
	}
}

func (r *Roadrun) Name() string { return model.PrimarySourceName }

// Fetch returns the listing rows in page order.
func (r *Roadrun) Fetch(ctx context.Context) ([]model.RawEvent, error) {
	doc, err := r.page(ctx, r.listURL)
	if err != nil {
		return nil, err
	}
	events := r.parseList(doc)
	zap.L().Info("roadrun: listing fetched", zap.Int("events", len(events)))
	return events, nil
}

// FetchDetails reads the detail page at link.
func (r *Roadrun) FetchDetails(ctx context.Context, link string) (model.Details, error) {
	if err := r.details.Wait(ctx); err != nil {
		return model.Details{}, eris.Wrap(err, "roadrun: wait for detail slot")
	}
	doc, err := r.page(ctx, link)
	if err != nil {
		return model.Details{}, err
	}
	return parseDetails(doc), nil
}

func (r *Roadrun) page(ctx context.Context, rawURL string) (*html.Node, error) {
	body, err := r.get(ctx, model.PrimarySourceName, rawURL)
	if err != nil {
		return nil, err
	}
	decoded, err := decodeCharset(body, roadrunCharset)
	if err != nil {
		return nil, err
	}
	doc, err := html.Parse(bytes.NewReader(decoded))
	if err != nil {
		return nil, eris.Wrap(err, "roadrun: parse html")
	}
	return doc, nil
}

func decodeCharset(body []byte, name string) ([]byte, error) {
	enc, err := htmlindex.Get(name)
	if err != nil {
		return nil, eris.Wrapf(err, "source: unknown charset %s", name)
	}
	out, err := enc.NewDecoder().Bytes(body)
	if err != nil {
		return nil, eris.Wrapf(err, "source: decode %s", name)
	}
	return out, nil
}

// parseList reads rows with exactly four cells: date, name, location, host.
func (r *Roadrun) parseList(doc *html.Node) []model.RawEvent {
	scope := doc
	for _, t := range findAll(doc, isElement(atom.Table)) {
		txt := text(t)
		if strings.Contains(txt, "대회명") && strings.Contains(txt, "장소") {
			scope = t
			break
		}
	}

	now := r.now()
	scrapedAt := now.Format(time.RFC3339)
	var events []model.RawEvent
	for _, row := range findAll(scope, isElement(atom.Tr)) {
		cells := children(row, atom.Td)
		if len(cells) != 4 {
			continue
		}
		dateText := text(cells[0])
		if dateText == "" || strings.Contains(dateText, "날짜") {
			continue
		}
		name := text(cells[1])
		if name == "" {
			continue
		}

		var link string
		if a := findFirst(cells[1], isElement(atom.A)); a != nil {
			if href, ok := attr(a, "href"); ok {
				link = resolveRoadrunLink(href)
			}
		}

		events = append(events, model.RawEvent{
			Name:      name,
			Date:      normalizeListDate(dateText, now),
			DateRaw:   dateText,
			Location:  text(cells[2]),
			Link:      link,
			Source:    model.PrimarySourceName,
			ScrapedAt: scrapedAt,
		})
	}
	return events
}

// resolveRoadrunLink turns listing hrefs, often javascript popups wrapping
// view.php?no=N, into absolute detail URLs.
func resolveRoadrunLink(href string) string {
	switch {
	case strings.Contains(href, "view.php"):
		if m := viewLinkRe.FindString(href); m != "" {
			return roadrunScheduleBase + m
		}
		return ""
	case !strings.HasPrefix(href, "http") && !strings.HasPrefix(href, "javascript"):
		return roadrunScheduleBase + href
	default:
		return href
	}
}

// detailTable finds the label/value table of a detail page.
func detailTable(doc *html.Node) *html.Node {
	tables := findAll(doc, isElement(atom.Table))
	for _, t := range tables {
		signform := findFirst(t, func(n *html.Node) bool {
			if n.Type != html.ElementNode || n.DataAtom != atom.Form {
				return false
			}
			name, _ := attr(n, "name")
			return name == "signform"
		})
		if signform == nil {
			continue
		}
		inner := findFirst(t, func(n *html.Node) bool {
			if n.Type != html.ElementNode || n.DataAtom != atom.Table {
				return false
			}
			bg, _ := attr(n, "bgcolor")
			return strings.EqualFold(bg, "steelblue")
		})
		if inner != nil {
			return inner
		}
		return t
	}
	for _, t := range tables {
		if strings.Contains(text(t), "대회명") {
			return t
		}
	}
	return nil
}

// parseDetails maps the detail table rows, in their fixed order, onto
// Details.
func parseDetails(doc *html.Node) model.Details {
	table := detailTable(doc)
	if table == nil {
		return model.Details{}
	}
	rows := findAll(table, isElement(atom.Tr))
	value := func(i int) string {
		if i >= len(rows) {
			return ""
		}
		cells := findAll(rows[i], isElement(atom.Td))
		if len(cells) < 2 {
			return ""
		}
		return text(cells[1])
	}

	d := model.Details{
		Name:               value(0),
		Representative:     value(1),
		Email:              value(2),
		DateTime:           value(3),
		Phone:              value(4),
		Category:           value(5),
		Region:             value(6),
		Location:           value(7),
		Organizer:          value(8),
		RegistrationPeriod: value(9),
		Description:        value(11),
	}
	if len(rows) > 10 {
		if cells := findAll(rows[10], isElement(atom.Td)); len(cells) >= 2 {
			d.Website = text(cells[1])
			if a := findFirst(cells[1], isElement(atom.A)); a != nil {
				if href, ok := attr(a, "href"); ok {
					d.Website = href
				}
			}
		}
	}
	return d
}
