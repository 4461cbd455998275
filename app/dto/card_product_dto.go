package dto

// CardProductDTO represents one sellable card for the cardSelection step.
// Money fields stay decimal strings end to end.
type CardProductDTO struct {
	Code                string  `json:"code"`
	Name                string  `json:"name"`
	Network             string  `json:"network"`
	Tier                string  `json:"tier"`
	AnnualFee           string  `json:"annualFee"`
	InterestRateMonthly string  `json:"interestRateMonthly"`
	CreditLimitMin      string  `json:"creditLimitMin"`
	CreditLimitMax      string  `json:"creditLimitMax"`
	Description         *string `json:"description,omitempty"`
}

// CardProductListResponse represents the active card catalog
type CardProductListResponse struct {
	Products []CardProductDTO `json:"products"`
}
