package repository

import (
	"strings"

	"supplytrack/internal/dto"

	"gorm.io/gorm"
)

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// containsPattern builds a case-insensitive LIKE pattern for a substring match.
// Pair it with LOWER(column) and ESCAPE '\'; both PostgreSQL and SQLite accept
// that form.
func containsPattern(s string) string {
	return "%" + likeEscaper.Replace(strings.ToLower(s)) + "%"
}

// paginate counts the rows matched by q, clamps the requested page to the valid
// range and loads that page into dest. scopes (preloads) apply to the page query
// only, never to the count.
func paginate(q *gorm.DB, requested int, order string, dest any, scopes ...func(*gorm.DB) *gorm.DB) (dto.Pagination, error) {
	q = q.Session(&gorm.Session{})
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return dto.Pagination{}, err
	}
	page := dto.NewPagination(requested, total)
	err := q.Scopes(scopes...).Order(order).Limit(page.Limit).Offset(page.Offset()).Find(dest).Error
	return page, err
}
