package finance

import (
	"math"
	"testing"

	"github.com/expediterhq/loadpilot/internal/model"
)

func TestAggregateKPIsEmpty(t *testing.T) {
	kpis := AggregateKPIs(nil, nil)
	if kpis != (model.KPISet{}) {
		t.Errorf("empty collections: got %+v, want all zeros", kpis)
	}
}

func TestAggregateKPIs(t *testing.T) {
	loads := []model.LoadRecord{
		{TotalCharge: 1200, TotalMiles: 800, LoadedMiles: 720},
		{TotalCharge: 800, TotalMiles: 400, LoadedMiles: 400},
	}
	expenses := []model.ExpenseRecord{
		{Amount: 300},
		{Amount: 200},
	}

	kpis := AggregateKPIs(loads, expenses)

	if kpis.TotalRevenue != 2000 || kpis.TotalExpenses != 500 {
		t.Fatalf("totals = %v/%v, want 2000/500", kpis.TotalRevenue, kpis.TotalExpenses)
	}
	if kpis.NetProfit != 1500 {
		t.Errorf("netProfit = %v, want 1500", kpis.NetProfit)
	}
	if kpis.Margin != 75 {
		t.Errorf("margin = %v, want 75", kpis.Margin)
	}
	if !near(kpis.AverageRatePerMile, 2000.0/1200) {
		t.Errorf("averageRatePerMile = %v, want %v", kpis.AverageRatePerMile, 2000.0/1200)
	}
	if !near(kpis.CostPerMile, 500.0/1200) {
		t.Errorf("costPerMile = %v, want %v", kpis.CostPerMile, 500.0/1200)
	}
	if !near(kpis.LoadedMileEfficiency, 1120.0/1200*100) {
		t.Errorf("loadedMileEfficiency = %v, want %v", kpis.LoadedMileEfficiency, 1120.0/1200*100)
	}
}

func TestAggregateKPIsExpensesOnly(t *testing.T) {
	kpis := AggregateKPIs(nil, []model.ExpenseRecord{{Amount: 150}})
	if kpis.NetProfit != -150 {
		t.Errorf("netProfit = %v, want -150", kpis.NetProfit)
	}
	if kpis.Margin != 0 || kpis.CostPerMile != 0 {
		t.Errorf("ratios = %v/%v, want 0/0 with no revenue or miles", kpis.Margin, kpis.CostPerMile)
	}
}

func near(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}
