// Package schema maps the Plugins table columns onto the SQL tables used by
// the sqlite and postgres stores, and loads keyword tables from YAML.
package schema

import (
	"fmt"
	"sort"
	"strings"

	"github.com/pluginsync/pluginsync/pkg/errors"
	"github.com/pluginsync/pluginsync/pkg/plugins"
)

// SQL table names.
const (
	PluginsTable          = "plugins"
	CategoriesTable       = "categories"
	PluginCategoriesTable = "plugin_categories"
	KeywordsTable         = "keywords"
)

// Columns maps store column names to SQL column names.
var Columns = map[string]string{
	plugins.FieldID:              "id",
	plugins.FieldName:            "name",
	plugins.FieldDescription:     "description",
	plugins.FieldGithubLink:      "github_link",
	plugins.FieldAuthor:          "author",
	plugins.FieldFundingURL:      "funding_url",
	plugins.FieldMobileFriendly:  "mobile_friendly",
	plugins.FieldLastCommitDate:  "last_commit_date",
	plugins.FieldETag:            "etag",
	plugins.FieldStatus:          "status",
	plugins.FieldError:           "error",
	plugins.FieldPluginAvailable: "plugin_available",
}

// InsertColumns is the column order used by Insert and SelectColumns.
var InsertColumns = []string{
	"id", "name", "description", "github_link", "author", "funding_url",
	"mobile_friendly", "last_commit_date", "etag", "status", "error", "plugin_available",
}

// Placeholder renders the n-th (1-based) bind parameter.
type Placeholder func(n int) string

// Question renders sqlite placeholders.
func Question(int) string { return "?" }

// Dollar renders postgres placeholders.
func Dollar(n int) string { return fmt.Sprintf("$%d", n) }

// InsertArgs returns the values of rec in InsertColumns order.
func InsertArgs(rec plugins.Record) []any {
	return []any{
		rec.ID, rec.Name, rec.Description, rec.GithubLink, rec.Author, rec.FundingURL,
		nullBool(rec.MobileFriendly), nullString(rec.LastCommitDate), nullString(rec.ETag),
		nullString(string(rec.Status)), rec.Error, rec.PluginAvailable,
	}
}

// Insert builds the INSERT statement for the plugins table. The row id is
// the first bind parameter, followed by InsertArgs.
func Insert(ph Placeholder) string {
	cols := append([]string{"row_id"}, InsertColumns...)
	marks := make([]string, len(cols))
	for i := range cols {
		marks[i] = ph(i + 1)
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", PluginsTable, strings.Join(cols, ", "), strings.Join(marks, ", "))
}

// Update builds an UPDATE statement for the given column values. The row id
// is bound last. Columns are written in sorted order.
func Update(rowID string, values map[string]any, ph Placeholder) (string, []any, error) {
	if len(values) == 0 {
		return "", nil, errors.NewValidationError("values", values, "no columns to update")
	}
	fields := make([]string, 0, len(values))
	for field := range values {
		if _, ok := Columns[field]; !ok {
			return "", nil, errors.NewValidationError(field, values[field], "unknown column")
		}
		fields = append(fields, field)
	}
	sort.Strings(fields)

	var scratch plugins.Record
	if err := scratch.Apply(values); err != nil {
		return "", nil, err
	}

	sets := make([]string, len(fields))
	args := make([]any, 0, len(fields)+1)
	for i, field := range fields {
		sets[i] = fmt.Sprintf("%s = %s", Columns[field], ph(i+1))
		args = append(args, values[field])
	}
	args = append(args, rowID)
	query := fmt.Sprintf("UPDATE %s SET %s WHERE row_id = %s", PluginsTable, strings.Join(sets, ", "), ph(len(fields)+1))
	return query, args, nil
}

// SelectColumns is the column list read back by ScanRecord.
func SelectColumns() string {
	return "row_id, " + strings.Join(InsertColumns, ", ")
}

// ScanRecord reads one plugins row selected with SelectColumns. scan is the
// Scan method of a database/sql or pgx row.
func ScanRecord(scan func(dest ...any) error) (plugins.Record, error) {
	var (
		rec                 plugins.Record
		lastCommit, etag    *string
		status              *string
		mobile              *bool
		description, author *string
		fundingURL, link    *string
	)
	err := scan(&rec.RowID, &rec.ID, &rec.Name, &description, &link, &author, &fundingURL,
		&mobile, &lastCommit, &etag, &status, &rec.Error, &rec.PluginAvailable)
	if err != nil {
		return rec, err
	}
	rec.Description = deref(description)
	rec.GithubLink = deref(link)
	rec.Author = deref(author)
	rec.FundingURL = deref(fundingURL)
	rec.MobileFriendly = mobile
	rec.LastCommitDate = deref(lastCommit)
	rec.ETag = deref(etag)
	rec.Status = plugins.State(deref(status))
	return rec, nil
}

// LinkRow is one plugin-to-category link joined with the category name.
type LinkRow struct {
	PluginRowID   string
	CategoryRowID string
	CategoryName  *string
}

// GroupLinks indexes links by plugin row id, keeping their order.
func GroupLinks(links []LinkRow) map[string][]plugins.CategoryRef {
	out := make(map[string][]plugins.CategoryRef)
	for _, l := range links {
		out[l.PluginRowID] = append(out[l.PluginRowID], plugins.CategoryRef{
			RowID:        l.CategoryRowID,
			DisplayValue: deref(l.CategoryName),
		})
	}
	return out
}

// KeywordRow is one keyword-to-category row joined with the category name.
type KeywordRow struct {
	Keyword       string
	CategoryRowID *string
	CategoryName  *string
}

// GroupKeywords folds keyword rows into one Keyword per distinct keyword,
// in first-seen order.
func GroupKeywords(rows []KeywordRow) []plugins.Keyword {
	var out []plugins.Keyword
	index := make(map[string]int)
	for _, r := range rows {
		i, ok := index[r.Keyword]
		if !ok {
			i = len(out)
			index[r.Keyword] = i
			out = append(out, plugins.Keyword{Keyword: r.Keyword})
		}
		if r.CategoryRowID != nil && *r.CategoryRowID != "" {
			out[i].Categories = append(out[i].Categories, plugins.CategoryRef{
				RowID:        *r.CategoryRowID,
				DisplayValue: deref(r.CategoryName),
			})
		}
	}
	return out
}

// Attach links category rows onto records by plugin row id, preserving link order.
func Attach(rows []plugins.Record, links map[string][]plugins.CategoryRef) {
	for i := range rows {
		rows[i].Categories = links[rows[i].RowID]
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func nullBool(b *bool) any {
	if b == nil {
		return nil
	}
	return *b
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
