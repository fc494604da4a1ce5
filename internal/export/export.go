package export

import "context"

// Document is the render-ready view of one declaration. All figures arrive
// pre-formatted as decimal strings; renderers never do arithmetic.
type Document struct {
	DeclarationID string
	StoreID       string
	StoreName     string

	PeriodType  string
	PeriodKey   string
	PeriodStart string
	PeriodEnd   string

	Version int
	IsClone bool
	Status  string

	SystemRevenue   string
	DeclaredRevenue string
	GTGTRate        string
	TNCNRate        string
	GTGTAmount      string
	TNCNAmount      string
	TotalTax        string

	CreatedBy   string
	CreatedAt   string
	GeneratedAt string
}

// Renderer turns a declaration document into a downloadable artifact.
type Renderer interface {
	CSV(ctx context.Context, doc Document) ([]byte, error)
	PDF(ctx context.Context, doc Document) ([]byte, error)
}
