package scrape

import (
	"context"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Constituent is one row of the index constituents table.
type Constituent struct {
	Ticker string
	Name   string
}

// Tickers returns the first cell of every data row, in table order.
func (c *Client) Tickers(ctx context.Context) ([]string, error) {
	rows, err := c.constituentRows(ctx)
	if err != nil {
		return nil, err
	}

	tickers := make([]string, 0, rows.Length())
	var rowErr error
	rows.EachWithBreak(func(i int, row *goquery.Selection) bool {
		cells := row.Find("td")
		if cells.Length() == 0 {
			rowErr = structureErr(c.sp500URL, "row %d has no cells", i+1)
			return false
		}
		tickers = append(tickers, cellText(cells.Eq(0)))
		return true
	})
	if rowErr != nil {
		return nil, rowErr
	}
	return tickers, nil
}

// Constituents returns (ticker, company name) pairs from the first two
// cells of every data row, in table order. Duplicates are kept.
func (c *Client) Constituents(ctx context.Context) ([]Constituent, error) {
	rows, err := c.constituentRows(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]Constituent, 0, rows.Length())
	var rowErr error
	rows.EachWithBreak(func(i int, row *goquery.Selection) bool {
		cells := row.Find("td")
		if cells.Length() < 2 {
			rowErr = structureErr(c.sp500URL, "row %d has %d cells, want at least 2", i+1, cells.Length())
			return false
		}
		out = append(out, Constituent{
			Ticker: cellText(cells.Eq(0)),
			Name:   cellText(cells.Eq(1)),
		})
		return true
	})
	if rowErr != nil {
		return nil, rowErr
	}
	return out, nil
}

// constituentRows returns every row of the first matching table except the
// header row.
func (c *Client) constituentRows(ctx context.Context) (*goquery.Selection, error) {
	doc, err := c.document(ctx, c.sp500URL)
	if err != nil {
		return nil, err
	}

	table := doc.Find(c.tableSelector).First()
	if table.Length() == 0 {
		return nil, structureErr(c.sp500URL, "no table matches %q", c.tableSelector)
	}
	rows := table.Find("tr")
	if rows.Length() < 2 {
		return nil, structureErr(c.sp500URL, "table has no data rows")
	}
	return rows.Slice(1, goquery.ToEnd), nil
}

func cellText(s *goquery.Selection) string {
	return strings.TrimSpace(s.Text())
}
