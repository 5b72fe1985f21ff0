package finance

import "github.com/expediterhq/loadpilot/internal/model"

// AggregateKPIs reduces a filtered record collection to its KPI set. Pure;
// empty collections yield an all-zero KPISet and every ratio is guarded
// against a zero denominator.
func AggregateKPIs(loads []model.LoadRecord, expenses []model.ExpenseRecord) model.KPISet {
	var kpis model.KPISet
	var loadedMiles float64

	for _, l := range loads {
		kpis.TotalRevenue += l.TotalCharge
		kpis.TotalMiles += l.TotalMiles
		loadedMiles += l.LoadedMiles
	}
	for _, e := range expenses {
		kpis.TotalExpenses += e.Amount
	}

	kpis.NetProfit = kpis.TotalRevenue - kpis.TotalExpenses
	if kpis.TotalRevenue > 0 {
		kpis.Margin = kpis.NetProfit / kpis.TotalRevenue * 100
	}
	if kpis.TotalMiles > 0 {
		kpis.AverageRatePerMile = kpis.TotalRevenue / kpis.TotalMiles
		kpis.CostPerMile = kpis.TotalExpenses / kpis.TotalMiles
		kpis.LoadedMileEfficiency = loadedMiles / kpis.TotalMiles * 100
	}

	return kpis
}
