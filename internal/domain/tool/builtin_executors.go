package tool

import (
	"context"
	"fmt"

	"github.com/matiasleandrokruk/toolhost/internal/domain/market"
)

// Person is the record returned by get_info_about.
type Person struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Salary    int    `json:"salary"`
	Email     string `json:"email"`
}

type nameRequest struct {
	Name string `json:"name"`
}

// NewGetInfoAbout returns the get_info_about tool. The record is hardcoded;
// only first_name echoes the argument.
func NewGetInfoAbout() Implementation {
	return NewTyped(func(_ context.Context, req nameRequest) (Person, error) {
		return Person{
			FirstName: req.Name,
			LastName:  "Mohamed",
			Salary:    5400,
			Email:     "med@gmail.com",
		}, nil
	})
}

type companyList struct {
	Companies []market.Company `json:"companies"`
}

func NewGetAllCompanies(companies CompanyCatalog) Implementation {
	return NewTyped(func(ctx context.Context, _ struct{}) (companyList, error) {
		if companies == nil {
			return companyList{}, fmt.Errorf("%w: company catalog", ErrBuiltinNotConfigured)
		}
		list, err := companies.ListCompanies(ctx)
		if err != nil {
			return companyList{}, err
		}
		if list == nil {
			list = []market.Company{}
		}
		return companyList{Companies: list}, nil
	})
}

func NewGetCompanyByName(companies CompanyCatalog) Implementation {
	return NewTyped(func(ctx context.Context, req nameRequest) (market.Company, error) {
		if companies == nil {
			return market.Company{}, fmt.Errorf("%w: company catalog", ErrBuiltinNotConfigured)
		}
		company, err := companies.GetCompanyByName(ctx, req.Name)
		if err != nil {
			return market.Company{}, err
		}
		return *company, nil
	})
}

func NewGetStockByCompanyName(quoter StockQuoter) Implementation {
	return NewTyped(func(_ context.Context, req nameRequest) (market.Stock, error) {
		if quoter == nil {
			return market.Stock{}, fmt.Errorf("%w: stock quoter", ErrBuiltinNotConfigured)
		}
		return quoter.Quote(req.Name), nil
	})
}
