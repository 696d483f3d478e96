package models

// RosterEntry is one manually entered row of the session name table.
type RosterEntry struct {
	FirstName string `json:"first_name" validate:"required,max=100"`
	LastName  string `json:"last_name" validate:"required,max=100"`
	Age       int    `json:"age,omitempty" validate:"gte=0,lte=150"` // 0 means not given
}

// Selection remembers the dashboard inputs a session last used.
type Selection struct {
	Metric       string  `json:"metric,omitempty"`
	MinMarketCap float64 `json:"min_market_cap"`
	Period       string  `json:"period,omitempty"`
	Ticker       string  `json:"ticker,omitempty"`
	StartDate    string  `json:"start_date,omitempty"` // YYYY-MM-DD
}
