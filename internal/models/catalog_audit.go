package models

import "fmt"

// CatalogIssue is one inconsistency between the local catalog and Bokun
type CatalogIssue struct {
	Subject string `json:"subject"` // e.g. "product 7", "activity 55"
	Message string `json:"message"`
}

func (i CatalogIssue) String() string {
	return fmt.Sprintf("%s: %s", i.Subject, i.Message)
}

// CatalogAuditReport summarises a catalog audit run
type CatalogAuditReport struct {
	RemoteActivities  int            `json:"remote_activities"`
	ProductsChecked   int            `json:"products_checked"`
	ActivitiesChecked int            `json:"activities_checked"`
	CrossSaleChecked  int            `json:"cross_sale_checked"`
	Issues            []CatalogIssue `json:"issues"`
}

// OK reports whether the audit found nothing to fix
func (r *CatalogAuditReport) OK() bool {
	return len(r.Issues) == 0
}

// AddIssue records an inconsistency
func (r *CatalogAuditReport) AddIssue(subject, format string, args ...interface{}) {
	r.Issues = append(r.Issues, CatalogIssue{Subject: subject, Message: fmt.Sprintf(format, args...)})
}
