package models

// StockCheckRequest represents a request to verify cart fulfillability
type StockCheckRequest struct {
	Items []CartLine `json:"items" binding:"required,dive"`
}

// StockIssue describes a line that cannot be fully fulfilled
type StockIssue struct {
	ProductName  string `json:"product_name"`
	RequestedQty int    `json:"requested_qty"`
	AvailableQty int    `json:"available_qty"`
	Message      string `json:"message,omitempty"`
}

// StockCheckResult is the stock agent's decision for one cart
type StockCheckResult struct {
	HasIssues bool         `json:"has_issues"`
	Issues    []StockIssue `json:"issues,omitempty"`
	Summary   string       `json:"summary"`
	Succeeded bool         `json:"succeeded"`
}
