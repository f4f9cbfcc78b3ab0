package tool

import (
	"context"
	"errors"

	"github.com/matiasleandrokruk/toolhost/internal/domain/market"
)

const (
	BuiltinGetInfoAbout          = "get_info_about"
	BuiltinGetAllCompanies       = "get_all_companies"
	BuiltinGetCompanyByName      = "get_company_by_name"
	BuiltinGetStockByCompanyName = "get_stock_by_company_name"
	builtinPermissionPrefix      = "tools:"
)

var ErrBuiltinNotConfigured = errors.New("builtin tool dependency not configured")

// BuiltinServices are the backends of the built-in tools. A nil backend
// leaves the matching tools unregistered.
type BuiltinServices struct {
	Companies CompanyCatalog
	Quoter    StockQuoter
}

// CompanyCatalog is the read side of the company store.
type CompanyCatalog interface {
	ListCompanies(ctx context.Context) ([]market.Company, error)
	GetCompanyByName(ctx context.Context, name string) (*market.Company, error)
}

// StockQuoter produces a quote for a company name.
type StockQuoter interface {
	Quote(companyName string) market.Stock
}

// PermissionFor is the token permission guarding a tool.
func PermissionFor(toolName string) string {
	return builtinPermissionPrefix + toolName
}

func getInfoAboutDescriptor() Descriptor {
	return Descriptor{
		Name:        BuiltinGetInfoAbout,
		Description: "Get information about a person by name",
		Params: []Param{
			{Name: "name", Type: TypeString, Description: "First name of the person"},
		},
		Returns: []Field{
			{Name: "first_name", Type: TypeString},
			{Name: "last_name", Type: TypeString},
			{Name: "salary", Type: TypeInteger},
			{Name: "email", Type: TypeString},
		},
		RequiredPermissions: []string{PermissionFor(BuiltinGetInfoAbout)},
	}
}

func getAllCompaniesDescriptor() Descriptor {
	return Descriptor{
		Name:        BuiltinGetAllCompanies,
		Description: "List every company in the catalog",
		Returns: []Field{
			{Name: "companies", Type: TypeArray, Description: "Company records"},
		},
		RequiredPermissions: []string{PermissionFor(BuiltinGetAllCompanies)},
	}
}

func getCompanyByNameDescriptor() Descriptor {
	return Descriptor{
		Name:        BuiltinGetCompanyByName,
		Description: "Get a company by its exact name",
		Params: []Param{
			{Name: "name", Type: TypeString, Description: "Company name"},
		},
		Returns: []Field{
			{Name: "name", Type: TypeString},
			{Name: "activity", Type: TypeString},
			{Name: "turnover", Type: TypeNumber, Description: "Turnover in milliard MAD"},
			{Name: "employees_count", Type: TypeInteger},
			{Name: "country", Type: TypeString},
		},
		RequiredPermissions: []string{PermissionFor(BuiltinGetCompanyByName)},
	}
}

func getStockByCompanyNameDescriptor() Descriptor {
	return Descriptor{
		Name:        BuiltinGetStockByCompanyName,
		Description: "Get today's stock quote for a company",
		Params: []Param{
			{Name: "name", Type: TypeString, Description: "Company name"},
		},
		Returns: []Field{
			{Name: "company_name", Type: TypeString},
			{Name: "date", Type: TypeString, Description: "Quote date, YYYY-MM-DD"},
			{Name: "stock", Type: TypeNumber},
		},
		RequiredPermissions: []string{PermissionFor(BuiltinGetStockByCompanyName)},
	}
}

// RegisterBuiltins registers get_info_about and, when their backends are set,
// the company and stock tools.
func RegisterBuiltins(registry *ToolRegistry, services BuiltinServices) error {
	registrations := []struct {
		descriptor Descriptor
		impl       Implementation
		enabled    bool
	}{
		{descriptor: getInfoAboutDescriptor(), impl: NewGetInfoAbout(), enabled: true},
		{descriptor: getAllCompaniesDescriptor(), impl: NewGetAllCompanies(services.Companies), enabled: services.Companies != nil},
		{descriptor: getCompanyByNameDescriptor(), impl: NewGetCompanyByName(services.Companies), enabled: services.Companies != nil},
		{descriptor: getStockByCompanyNameDescriptor(), impl: NewGetStockByCompanyName(services.Quoter), enabled: services.Quoter != nil},
	}

	for _, registration := range registrations {
		if !registration.enabled {
			continue
		}
		if err := registry.Register(registration.descriptor, registration.impl); err != nil {
			return err
		}
	}
	return nil
}
