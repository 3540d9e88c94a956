package api

import (
	"stockserver/internal/provider"
	"stockserver/internal/ranking"
)

type quoteResponse struct {
	Ticker         string  `json:"ticker"`
	CompanyName    string  `json:"company_name"`
	CurrentPrice   float64 `json:"current_price"`
	YesterdayPrice float64 `json:"yesterday_price"`
	Currency       string  `json:"currency"`
}

func newQuoteResponse(q provider.Quote) quoteResponse {
	cur, _ := q.CurrentPrice.Float64()
	prev, _ := q.YesterdayPrice.Float64()
	return quoteResponse{
		Ticker:         q.Ticker,
		CompanyName:    q.CompanyName,
		CurrentPrice:   cur,
		YesterdayPrice: prev,
		Currency:       q.Currency,
	}
}

// batchItem carries either the quote fields or Error.
type batchItem struct {
	Ticker         string   `json:"ticker"`
	CompanyName    string   `json:"company_name,omitempty"`
	CurrentPrice   *float64 `json:"current_price,omitempty"`
	YesterdayPrice *float64 `json:"yesterday_price,omitempty"`
	Currency       string   `json:"currency,omitempty"`
	Error          string   `json:"error,omitempty"`
}

func newBatchItem(res provider.Result) batchItem {
	if res.Err != nil || res.Quote == nil {
		msg := "no data returned"
		if res.Err != nil {
			msg = res.Err.Error()
		}
		return batchItem{Ticker: res.Ticker, Error: msg}
	}
	q := newQuoteResponse(*res.Quote)
	return batchItem{
		Ticker:         res.Ticker,
		CompanyName:    q.CompanyName,
		CurrentPrice:   &q.CurrentPrice,
		YesterdayPrice: &q.YesterdayPrice,
		Currency:       q.Currency,
	}
}

type tickersResponse struct {
	Tickers []string `json:"tickers"`
}

type companiesResponse struct {
	Companies []ranking.Company `json:"companies"`
}
