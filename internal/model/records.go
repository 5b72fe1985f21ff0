package model

// LoadRecord is one historical trip as stored remotely. The loader
// guarantees every numeric field is populated after normalization.
type LoadRecord struct {
	ID          string `json:"id"`
	Date        string `json:"date"` // local YYYY-MM-DD
	LoadNumber  string `json:"load_number"`
	CompanyName string `json:"company_name"`
	Origin      string `json:"origin"`
	Destination string `json:"destination"`

	TotalMiles    float64 `json:"total_miles"`
	LoadedMiles   float64 `json:"loaded_miles"`
	DeadheadMiles float64 `json:"deadhead_miles"`
	TotalCharge   float64 `json:"total_charge"`
	NetProfit     float64 `json:"net_profit"`
	RatePerMile   float64 `json:"rate_per_mile"`
	OperatingCost float64 `json:"operating_cost"`
	FuelCost      float64 `json:"fuel_cost"`
	Tolls         float64 `json:"tolls"`
	OtherCosts    float64 `json:"other_costs"`

	PaymentStatus       string `json:"payment_status"`
	PaymentDate         string `json:"payment_date,omitempty"`
	ExpectedPaymentDate string `json:"expected_payment_date,omitempty"`
	ActualPaymentDate   string `json:"actual_payment_date,omitempty"`
}

// ExpenseRecord is one stored business expense.
type ExpenseRecord struct {
	ID          string  `json:"id"`
	Date        string  `json:"date"`
	Amount      float64 `json:"amount"`
	Type        string  `json:"type"`
	Category    string  `json:"category"`
	Description string  `json:"description"`
	Deductible  bool    `json:"deductible"`
}

// KPISet holds the derived aggregates for a filtered record collection.
// Recomputed on every query, never cached on its own.
type KPISet struct {
	TotalRevenue         float64 `json:"total_revenue"`
	TotalExpenses        float64 `json:"total_expenses"`
	NetProfit            float64 `json:"net_profit"`
	Margin               float64 `json:"margin"` // percent
	TotalMiles           float64 `json:"total_miles"`
	AverageRatePerMile   float64 `json:"average_rate_per_mile"`
	CostPerMile          float64 `json:"cost_per_mile"`
	LoadedMileEfficiency float64 `json:"loaded_mile_efficiency"` // percent
}

// FinancialView is what the loader returns for one period query.
// Stale marks data served from cache past its wait budget.
type FinancialView struct {
	Loads    []LoadRecord    `json:"loads"`
	Expenses []ExpenseRecord `json:"expenses"`
	KPIs     KPISet          `json:"kpis"`
	Stale    bool            `json:"stale"`
}
