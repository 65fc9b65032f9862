package model

// SalesRepresentative is a routing target for validated leads. Current load
// is always derived from the lead collection, never stored here.
type SalesRepresentative struct {
	ID       string `json:"id" yaml:"id"`
	Name     string `json:"name" yaml:"name"`
	MaxLeads int    `json:"max_leads" yaml:"max_leads"`
	Active   bool   `json:"active" yaml:"active"`
}

// RepWorkload is a point-in-time projection of one representative's load.
type RepWorkload struct {
	RepID             string  `json:"rep_id"`
	TotalLeads        int     `json:"total_leads"`
	ActiveLeads       int     `json:"active_leads"`
	CompletedLeads    int     `json:"completed_leads"`
	MaxLeads          int     `json:"max_leads"`
	CapacityUsedRatio float64 `json:"capacity_used_ratio"`
	// Score ranks representatives for fallback selection, 0.0 (idle)
	// to 1.0 (at or over capacity, or inactive).
	Score float64 `json:"score"`
}

// HasCapacity reports whether the representative can take another lead.
func (w RepWorkload) HasCapacity() bool {
	return w.MaxLeads > 0 && w.TotalLeads < w.MaxLeads
}
