package yahoo

// chartResponseDTO is the envelope of the chart API (/v8/finance/chart).
type chartResponseDTO struct {
	Chart chartDTO `json:"chart"`
}

type chartDTO struct {
	Result []resultDTO  `json:"result"`
	Error  *apiErrorDTO `json:"error"`
}

// apiErrorDTO is the in-band error the chart API returns with HTTP 200 or
// 404 ("Not Found" code for unknown symbols).
type apiErrorDTO struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

type resultDTO struct {
	Meta       metaDTO       `json:"meta"`
	Timestamp  []int64       `json:"timestamp"`
	Indicators indicatorsDTO `json:"indicators"`
}

type metaDTO struct {
	Symbol               string `json:"symbol"`
	ExchangeTimezoneName string `json:"exchangeTimezoneName"`
}

type indicatorsDTO struct {
	Quote    []quoteDTO    `json:"quote"`
	AdjClose []adjCloseDTO `json:"adjclose"`
}

// quoteDTO carries parallel arrays indexed like Timestamp. Entries are
// pointers because the API emits null for minutes without trades.
type quoteDTO struct {
	Open   []*float64 `json:"open"`
	High   []*float64 `json:"high"`
	Low    []*float64 `json:"low"`
	Close  []*float64 `json:"close"`
	Volume []*int64   `json:"volume"`
}

type adjCloseDTO struct {
	AdjClose []*float64 `json:"adjclose"`
}
