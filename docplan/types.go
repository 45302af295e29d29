package docplan

import (
	"time"

	"github.com/go-kit/log"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/nonibytes/docplan/docplan/query"
)

// CatalogOptions configures catalog behavior
type CatalogOptions struct {
	Logger log.Logger
	// Registerer receives the planner metrics; nil leaves them unregistered.
	Registerer prometheus.Registerer
	Now        func() time.Time
}

// DefaultCatalogOptions returns sensible defaults
func DefaultCatalogOptions() CatalogOptions {
	return CatalogOptions{
		Logger: log.NewNopLogger(),
		Now:    time.Now,
	}
}

// IndexSpec describes one index of a collection
type IndexSpec struct {
	Collection  string
	Name        string
	KeyPattern  query.KeyPattern
	CreatedAtMS int64
}

// PlanOptions configures a planning request
type PlanOptions struct {
	Explain bool
	// RejectUnsatisfiable turns an unsatisfiable predicate into an
	// ErrContradiction error instead of an empty result.
	RejectUnsatisfiable bool
}

// Candidate is one scan strategy of a plan result
type Candidate struct {
	// Index is empty for the full collection scan.
	Index             string           `json:"index"`
	KeyPattern        query.KeyPattern `json:"key_pattern"`
	FullScan          bool             `json:"full_scan"`
	RequiresExtraSort bool             `json:"requires_extra_sort"`
	Optimal           bool             `json:"optimal"`
	KeyMatch          bool             `json:"key_match"`
	ExactKeyMatch     bool             `json:"exact_key_match"`
	ScanDirection     query.Direction  `json:"scan_direction"`
	Indexed           int              `json:"indexed"`
	OrderEqIndexed    int              `json:"order_eq_indexed"`
	Exact             int              `json:"exact"`
}

// PlanResult is the ordered candidate list for one request. The executor
// picks among Candidates; the full scan always comes first unless the
// predicate is unsatisfiable, in which case there are none.
type PlanResult struct {
	Collection     string      `json:"collection"`
	Unsatisfiable  bool        `json:"unsatisfiable"`
	Reason         string      `json:"reason,omitempty"`
	Nontrivial     int         `json:"nontrivial"`
	Candidates     []Candidate `json:"candidates"`
	Evaluated      int         `json:"evaluated"`
	ShortCircuited bool        `json:"short_circuited"`
	Fingerprint    string      `json:"fingerprint"`
	ExplainSteps   []string    `json:"explain,omitempty"`
}
