package models

// Requests for dashboard HTTP and websocket endpoints.

type DashboardRequest struct {
	Symbols []string `query:"symbols" json:"symbols"`
	Window  int      `query:"window" json:"window" default:"24" validate:"gte=2,lte=200"`
	Horizon int      `query:"horizon" json:"horizon" default:"24" validate:"gte=1,lte=200"`
}

type DashboardResponse struct {
	Views []SymbolView `json:"views"`
}

type SymbolsResponse struct {
	Allowed  []string `json:"allowed"`
	Defaults []string `json:"defaults"`
}
