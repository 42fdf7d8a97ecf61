// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// Work is a scholarly work as returned by the OpenAlex works endpoint.
// Only the fields the matcher reads are decoded.
type Work struct {
	ID                    string           `json:"id"`
	Title                 string           `json:"title"`
	DisplayName           string           `json:"display_name"`
	DOI                   string           `json:"doi"`
	PublicationYear       int              `json:"publication_year"`
	PublicationDate       string           `json:"publication_date"`
	Type                  string           `json:"type"`
	Language              string           `json:"language"`
	CitedByCount          int              `json:"cited_by_count"`
	IsRetracted           bool             `json:"is_retracted"`
	Authorships           []Authorship     `json:"authorships"`
	PrimaryLocation       *Location        `json:"primary_location"`
	BestOALocation        *Location        `json:"best_oa_location"`
	OpenAccess            OpenAccess       `json:"open_access"`
	Biblio                Biblio           `json:"biblio"`
	Grants                []Grant          `json:"grants"`
	Topics                []Topic          `json:"topics"`
	AbstractInvertedIndex map[string][]int `json:"abstract_inverted_index"`
}

// TitleText returns the work title, falling back to the display name.
func (w Work) TitleText() string {
	if w.Title != "" {
		return w.Title
	}
	return w.DisplayName
}

// Authorship links an author to a work and the institutions listed for
// that author on that work.
type Authorship struct {
	AuthorPosition        string        `json:"author_position"`
	Author                AuthorRef     `json:"author"`
	Institutions          []Institution `json:"institutions"`
	RawAffiliationStrings []string      `json:"raw_affiliation_strings"`
	RawAuthorName         string        `json:"raw_author_name"`
}

// AuthorRef is the dehydrated author object embedded in authorships.
type AuthorRef struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	ORCID       string `json:"orcid"`
}

// Author is an author entity from the authors endpoint.
type Author struct {
	ID                    string        `json:"id"`
	DisplayName           string        `json:"display_name"`
	ORCID                 string        `json:"orcid"`
	WorksCount            int           `json:"works_count"`
	LastKnownInstitutions []Institution `json:"last_known_institutions"`
}

// Institution is an institution entity or its dehydrated form.
type Institution struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	ROR         string `json:"ror"`
	CountryCode string `json:"country_code"`
	Type        string `json:"type"`
}

// Location is where a work is hosted.
type Location struct {
	IsOA           bool    `json:"is_oa"`
	LandingPageURL string  `json:"landing_page_url"`
	PDFURL         string  `json:"pdf_url"`
	License        string  `json:"license"`
	Version        string  `json:"version"`
	Source         *Source `json:"source"`
}

// Source is the journal or repository of a location.
type Source struct {
	ID                   string `json:"id"`
	DisplayName          string `json:"display_name"`
	ISSNL                string `json:"issn_l"`
	HostOrganizationName string `json:"host_organization_name"`
	Type                 string `json:"type"`
}

// OpenAccess summarises a work's open access state.
type OpenAccess struct {
	IsOA     bool   `json:"is_oa"`
	OAStatus string `json:"oa_status"`
	OAURL    string `json:"oa_url"`
}

// Biblio carries volume/issue/page information.
type Biblio struct {
	Volume    string `json:"volume"`
	Issue     string `json:"issue"`
	FirstPage string `json:"first_page"`
	LastPage  string `json:"last_page"`
}

// Grant is a funding acknowledgement attached to a work.
type Grant struct {
	Funder            string `json:"funder"`
	FunderDisplayName string `json:"funder_display_name"`
	AwardID           string `json:"award_id"`
}

// Topic is a classified research topic.
type Topic struct {
	ID          string  `json:"id"`
	DisplayName string  `json:"display_name"`
	Score       float64 `json:"score"`
}

// ListMeta is the metadata block of a list response.
type ListMeta struct {
	Count      int    `json:"count"`
	PerPage    int    `json:"per_page"`
	Page       int    `json:"page"`
	NextCursor string `json:"next_cursor"`
}

// WorksPage is one page of a works list response.
type WorksPage struct {
	Meta    ListMeta `json:"meta"`
	Results []Work   `json:"results"`
}
