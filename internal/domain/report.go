package domain

// RevenueRow is one date bucket of the revenue report.
type RevenueRow struct {
	Date    string
	Orders  int
	Revenue float64
}

// TechnicianPerformanceRow aggregates completed work per technician.
type TechnicianPerformanceRow struct {
	Name      string
	Completed int
	AvgRating float64
	Revenue   float64
}
