// pagination.go — RFC 8288 Link values for offset/limit pages.
package humastar

import (
	"fmt"
	"strings"
)

// Page is offset/limit pagination metadata.
type Page struct {
	Total  int
	Offset int
	Limit  int
}

// PaginationLinks returns RFC 8288 Link header values for pagination rels.
func (p Page) PaginationLinks(basePath string) []string {
	if p.Limit <= 0 {
		return nil
	}
	var links []string

	links = append(links, fmt.Sprintf(`<%s?offset=0&limit=%d>; rel="first"`, basePath, p.Limit))

	if p.Offset > 0 {
		prev := max(p.Offset-p.Limit, 0)
		links = append(links, fmt.Sprintf(`<%s?offset=%d&limit=%d>; rel="prev"`, basePath, prev, p.Limit))
	}

	if p.Offset+p.Limit < p.Total {
		links = append(links, fmt.Sprintf(`<%s?offset=%d&limit=%d>; rel="next"`, basePath, p.Offset+p.Limit, p.Limit))
	}

	lastOffset := max(((p.Total-1)/p.Limit)*p.Limit, 0)
	links = append(links, fmt.Sprintf(`<%s?offset=%d&limit=%d>; rel="last"`, basePath, lastOffset, p.Limit))

	return links
}

// LinkHeader joins the pagination links into one Link header value.
func (p Page) LinkHeader(basePath string) string {
	return strings.Join(p.PaginationLinks(basePath), ", ")
}
