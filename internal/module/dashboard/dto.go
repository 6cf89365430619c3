package dashboard

const paramSelected = "selected"

// reservedParams are the query parameters that are not passed through to the
// catalog as filters.
var reservedParams = map[string]bool{
	"page":        true,
	"per_page":    true,
	"search":      true,
	paramSelected: true,
}

// BrowseQuery is the query string of the browse screens.
type BrowseQuery struct {
	Page     *int   `json:"page" form:"page" binding:"omitempty,min=1"`
	PerPage  int    `json:"per_page" form:"per_page" binding:"omitempty,min=1,max=100"`
	Search   string `json:"search" form:"search" binding:"max=200"`
	Selected uint   `json:"selected" form:"selected"`
}
