package source

import "time"

// Expected CSV column names, matched after trimming whitespace.
const (
	ColDate     = "date"
	ColAgency   = "agency"
	ColPaxUSD   = "pax_usd"
	ColSalesUSD = "sales_usd"
	ColPaxNPR   = "pax_npr"
	ColSalesNPR = "sales_npr"
)

// Columns lists the expected header in output order.
var Columns = []string{ColDate, ColAgency, ColPaxUSD, ColSalesUSD, ColPaxNPR, ColSalesNPR}

// DefaultYear is the reference year applied to every "DD-Mon" date.
const DefaultYear = 2025

// ParseStats counts the irregularities tolerated while normalizing.
type ParseStats struct {
	Rows       int // data rows turned into records
	ShortRows  int // rows with fewer fields than headers
	BadNumbers int // non-empty measure fields that did not parse
	BadDates   int // dates that fell back to the default day
	Missing    []string
}

// DiscoveredFile is a normalized CSV found on disk.
type DiscoveredFile struct {
	Path    string
	Size    int64
	ModTime time.Time
}
