package scrape

import (
	"context"

	"github.com/PuerkitoBio/goquery"
)

// DefaultMostActiveLimit is the number of tickers returned by MostActive
// when limit is not positive.
const DefaultMostActiveLimit = 5

// MostActive returns up to limit tickers from the most-active page, in page
// order. Rows without a symbol cell are skipped.
func (c *Client) MostActive(ctx context.Context, limit int) ([]string, error) {
	if limit <= 0 {
		limit = DefaultMostActiveLimit
	}

	doc, err := c.document(ctx, c.mostActiveURL)
	if err != nil {
		return nil, err
	}

	rows := doc.Find(c.rowSelector)
	if rows.Length() == 0 {
		return nil, structureErr(c.mostActiveURL, "no rows match %q", c.rowSelector)
	}

	tickers := make([]string, 0, limit)
	rows.EachWithBreak(func(_ int, row *goquery.Selection) bool {
		cell := row.Find(c.symbolSelector).First()
		if cell.Length() == 0 {
			return true
		}
		if t := cellText(cell); t != "" {
			tickers = append(tickers, t)
		}
		return len(tickers) < limit
	})
	return tickers, nil
}
