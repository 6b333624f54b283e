package query

import (
	"github.com/trade-chatbot/server/internal/intent"
)

// Pre-aggregated monthly views the chatbot is allowed to query. Nothing else
// is ever interpolated into SQL.
const (
	ViewExport        = "public.v_export_monthly_hs"
	ViewExportCompany = "public.v_export_company_monthly_hs"
	ViewImport        = "public.v_import_monthly_hs"

	ViewImportCategory = "public.v_import_monthly_category"
)

// ViewType tells the builder which filter columns a view exposes.
type ViewType string

const (
	ViewTypeHS       ViewType = "hs"
	ViewTypeCategory ViewType = "category"
)

// ResolveView maps a domain plus filter shape onto one of the four fixed
// views. Deterministic, no error path: unmatched combinations fall through to
// the HS-level view of the domain. The export side has no category view yet;
// category-filtered export questions land on the HS export view (known gap,
// kept on purpose rather than inventing a view).
func ResolveView(domain intent.Domain, needCompany bool, filters intent.Filters) (string, ViewType) {
	if domain == intent.DomainImport {
		if filters.HasCategory() {
			return ViewImportCategory, ViewTypeCategory
		}
		return ViewImport, ViewTypeHS
	}

	if needCompany {
		return ViewExportCompany, ViewTypeHS
	}
	return ViewExport, ViewTypeHS
}
