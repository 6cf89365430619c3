package pkg

import (
	"regexp"
	"slices"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/simp-lee/storeadmin/internal/domain"
)

const (
	defaultPage    = 1
	defaultPerPage = 10
	maxPerPage     = 100
	defaultSort    = "id:desc"
	maxSearchLen   = 200 // runes
)

// reservedParams lists query parameter names used for pagination, search and
// sorting, not for filtering.
var reservedParams = map[string]bool{
	"page":     true,
	"per_page": true,
	"search":   true,
	"sort":     true,
}

// validFieldName matches only alphanumeric characters and underscores.
var validFieldName = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// likeEscaper escapes LIKE wildcards in user-supplied search text.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// ParsePageRequest extracts page, per_page, search, sort and filter parameters.
// Malformed or out-of-range page values fall back to defaults; per_page is
// capped at 100. Every other non-empty parameter becomes a filter candidate.
func ParsePageRequest(c *gin.Context) domain.PageRequest {
	page, _ := strconv.Atoi(c.DefaultQuery("page", strconv.Itoa(defaultPage)))
	if page < 1 {
		page = defaultPage
	}

	perPage, _ := strconv.Atoi(c.DefaultQuery("per_page", strconv.Itoa(defaultPerPage)))
	if perPage < 1 {
		perPage = defaultPerPage
	}
	if perPage > maxPerPage {
		perPage = maxPerPage
	}

	search := truncateRunes(strings.TrimSpace(c.Query("search")), maxSearchLen)

	filter := make(map[string]string)
	for key, values := range c.Request.URL.Query() {
		if reservedParams[key] {
			continue
		}
		if len(values) > 0 && values[0] != "" {
			filter[key] = values[0]
		}
	}

	return domain.PageRequest{
		Page:    page,
		PerPage: perPage,
		Search:  search,
		Sort:    c.DefaultQuery("sort", defaultSort),
		Filter:  filter,
	}
}

// truncateRunes cuts s to at most n runes without splitting a UTF-8 sequence.
func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	for i := range s {
		if n == 0 {
			return s[:i]
		}
		n--
	}
	return s
}

// Paginate returns a GORM scope that applies LIMIT and OFFSET.
func Paginate(req domain.PageRequest) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Offset(req.Offset()).Limit(req.PerPage)
	}
}

// Sort returns a GORM scope that applies ORDER BY "field:dir".
// Fields outside allowed, malformed values and unknown directions are ignored.
func Sort(req domain.PageRequest, allowed []string) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		field, direction, ok := strings.Cut(req.Sort, ":")
		if !ok {
			return db
		}
		field = strings.TrimSpace(field)
		direction = strings.ToLower(strings.TrimSpace(direction))

		if direction != "asc" && direction != "desc" {
			return db
		}
		if !validFieldName.MatchString(field) || !slices.Contains(allowed, field) {
			return db
		}
		return db.Order(field + " " + direction)
	}
}

// Filter returns a GORM scope that applies WHERE conditions from req.Filter.
// Only keys in allowed are applied. A "__like" suffix produces a substring
// match; other keys use equality.
func Filter(req domain.PageRequest, allowed []string) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		// Sorted for deterministic SQL.
		keys := make([]string, 0, len(req.Filter))
		for key := range req.Filter {
			keys = append(keys, key)
		}
		slices.Sort(keys)

		for _, key := range keys {
			value := req.Filter[key]
			field, like := strings.CutSuffix(key, "__like")
			if !validFieldName.MatchString(field) || !slices.Contains(allowed, field) {
				continue
			}
			if like {
				db = db.Where(field+` LIKE ? ESCAPE '\'`, "%"+likeEscaper.Replace(value)+"%")
			} else {
				db = db.Where(field+" = ?", value)
			}
		}
		return db
	}
}

// Search returns a GORM scope matching req.Search as a substring of any of
// fields. An empty search or an empty field list leaves the query untouched.
func Search(req domain.PageRequest, fields []string) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if req.Search == "" {
			return db
		}
		pattern := "%" + likeEscaper.Replace(req.Search) + "%"

		var cond *gorm.DB
		for _, field := range fields {
			if !validFieldName.MatchString(field) {
				continue
			}
			expr := field + ` LIKE ? ESCAPE '\'`
			if cond == nil {
				cond = db.Session(&gorm.Session{NewDB: true}).Where(expr, pattern)
			} else {
				cond = cond.Or(expr, pattern)
			}
		}
		if cond == nil {
			return db
		}
		return db.Where(cond)
	}
}
