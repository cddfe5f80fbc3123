package models

import (
	"net/url"
	"strconv"
)

// PlaceSearchParams mirrors the Foursquare place search query parameters.
type PlaceSearchParams struct {
	LL         string `json:"ll,omitempty"`
	Near       string `json:"near,omitempty"`
	Radius     *int   `json:"radius,omitempty"`
	NE         string `json:"ne,omitempty"`
	SW         string `json:"sw,omitempty"`
	Query      string `json:"query,omitempty"`
	Limit      *int   `json:"limit,omitempty"`
	Sort       string `json:"sort,omitempty"`
	Categories string `json:"categories,omitempty"`
	ChainIDs   string `json:"chain_ids,omitempty"`
	OpenNow    *bool  `json:"open_now,omitempty"`
	Price      string `json:"price,omitempty"`
	Fields     string `json:"fields,omitempty"`
}

// HasLocation reports whether a search boundary is present:
// ll with radius, near, or both ne and sw.
func (p PlaceSearchParams) HasLocation() bool {
	circular := p.LL != "" && p.Radius != nil && *p.Radius != 0
	rectangular := p.NE != "" && p.SW != ""
	return circular || p.Near != "" || rectangular
}

// Values encodes the set fields as query parameters. Encode() on the result is stable.
func (p PlaceSearchParams) Values() url.Values {
	v := url.Values{}
	set := func(key, val string) {
		if val != "" {
			v.Set(key, val)
		}
	}

	set("ll", p.LL)
	set("near", p.Near)
	set("ne", p.NE)
	set("sw", p.SW)
	set("query", p.Query)
	set("sort", p.Sort)
	set("categories", p.Categories)
	set("chain_ids", p.ChainIDs)
	set("price", p.Price)
	set("fields", p.Fields)
	if p.Radius != nil {
		v.Set("radius", strconv.Itoa(*p.Radius))
	}
	if p.Limit != nil {
		v.Set("limit", strconv.Itoa(*p.Limit))
	}
	if p.OpenNow != nil {
		v.Set("open_now", strconv.FormatBool(*p.OpenNow))
	}
	return v
}

type Location struct {
	Address          string `json:"address,omitempty"`
	Locality         string `json:"locality,omitempty"`
	Region           string `json:"region,omitempty"`
	Postcode         string `json:"postcode,omitempty"`
	Country          string `json:"country,omitempty"`
	FormattedAddress string `json:"formatted_address,omitempty"`
}

type Category struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// Place is one search result.
type Place struct {
	FsqID      string     `json:"fsq_id,omitempty"`
	Name       string     `json:"name"`
	Location   Location   `json:"location"`
	Categories []Category `json:"categories,omitempty"`
	Distance   int        `json:"distance,omitempty"`
}

// SearchResponse is the success body of the query endpoint.
type SearchResponse struct {
	Results []Place `json:"results"`
}
