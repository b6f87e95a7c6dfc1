package plugins

import (
	"encoding/json"
	"fmt"

	"github.com/pluginsync/pluginsync/internal/utils/ptr"
	"github.com/pluginsync/pluginsync/pkg/errors"
)

// Record is a row of the Plugins table. JSON tags are the store column names
// so that a queried row decodes directly into a Record.
type Record struct {
	RowID           string        `json:"_id,omitempty" yaml:"row_id"`
	ID              string        `json:"ID" yaml:"id"`
	Name            string        `json:"Name" yaml:"name"`
	Description     string        `json:"Description" yaml:"description"`
	GithubLink      string        `json:"Github Link" yaml:"github_link"`
	Author          string        `json:"Author" yaml:"author"`
	FundingURL      string        `json:"Funding URL" yaml:"funding_url"`
	MobileFriendly  *bool         `json:"Mobile friendly" yaml:"mobile_friendly"`
	LastCommitDate  string        `json:"Last Commit Date" yaml:"last_commit_date"`
	ETag            string        `json:"ETAG" yaml:"etag"`
	Status          State         `json:"Status" yaml:"status"`
	Error           bool          `json:"Error" yaml:"error"`
	PluginAvailable bool          `json:"Plugin Available" yaml:"plugin_available"`
	Categories      []CategoryRef `json:"Auto-Suggested Categories,omitempty" yaml:"categories,omitempty"`
}

// Repo returns the stored link in canonical owner/name shape.
func (r Record) Repo() string {
	return RepoFromURL(r.GithubLink)
}

// DesktopOnly returns the stored flag in the upstream orientation. An unset
// "Mobile friendly" cell means the plugin is treated as desktop-only.
func (r Record) DesktopOnly() bool {
	return !ptr.Deref(r.MobileFriendly, false)
}

// Row returns the column map written when the record is appended. The row id
// and link column are left out: the store assigns the first and links are
// created separately.
func (r Record) Row() map[string]any {
	row := map[string]any{
		FieldID:              r.ID,
		FieldName:            r.Name,
		FieldDescription:     r.Description,
		FieldGithubLink:      r.GithubLink,
		FieldAuthor:          r.Author,
		FieldFundingURL:      r.FundingURL,
		FieldMobileFriendly:  ptr.Deref(r.MobileFriendly, false),
		FieldLastCommitDate:  nullable(r.LastCommitDate),
		FieldETag:            nullable(r.ETag),
		FieldStatus:          nullable(string(r.Status)),
		FieldError:           r.Error,
		FieldPluginAvailable: r.PluginAvailable,
	}
	return row
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// DecodeRow converts a queried row (column name to value) into a Record.
func DecodeRow(row map[string]any) (Record, error) {
	var rec Record
	data, err := json.Marshal(row)
	if err != nil {
		return rec, errors.WrapParse("json", "row", err)
	}
	if err := json.Unmarshal(data, &rec); err != nil {
		return rec, errors.WrapParse("json", "row", err)
	}
	return rec, nil
}

// DecodeKeywordRow converts a queried "Keywords to Category" row into a Keyword.
func DecodeKeywordRow(row map[string]any) (Keyword, error) {
	var kw Keyword
	data, err := json.Marshal(row)
	if err != nil {
		return kw, errors.WrapParse("json", "keyword row", err)
	}
	if err := json.Unmarshal(data, &kw); err != nil {
		return kw, errors.WrapParse("json", "keyword row", err)
	}
	return kw, nil
}

// Apply writes a column map (as produced by Row or a patch) onto the record.
// nil clears a column. Unknown columns are rejected.
func (r *Record) Apply(values map[string]any) error {
	for field, v := range values {
		if err := r.set(field, v); err != nil {
			return err
		}
	}
	return nil
}

func (r *Record) set(field string, v any) error {
	str := func() (string, error) {
		switch val := v.(type) {
		case nil:
			return "", nil
		case string:
			return val, nil
		case fmt.Stringer:
			return val.String(), nil
		}
		return "", errors.NewValidationError(field, v, "expected a string")
	}
	boolean := func() (bool, error) {
		switch val := v.(type) {
		case nil:
			return false, nil
		case bool:
			return val, nil
		}
		return false, errors.NewValidationError(field, v, "expected a boolean")
	}

	var err error
	switch field {
	case FieldID:
		r.ID, err = str()
	case FieldName:
		r.Name, err = str()
	case FieldDescription:
		r.Description, err = str()
	case FieldGithubLink:
		r.GithubLink, err = str()
	case FieldAuthor:
		r.Author, err = str()
	case FieldFundingURL:
		r.FundingURL, err = str()
	case FieldLastCommitDate:
		r.LastCommitDate, err = str()
	case FieldETag:
		r.ETag, err = str()
	case FieldStatus:
		var s string
		s, err = str()
		r.Status = State(s)
	case FieldMobileFriendly:
		if v == nil {
			r.MobileFriendly = nil
			return nil
		}
		var b bool
		b, err = boolean()
		r.MobileFriendly = &b
	case FieldError:
		r.Error, err = boolean()
	case FieldPluginAvailable:
		r.PluginAvailable, err = boolean()
	default:
		return errors.NewValidationError(field, v, "unknown column")
	}
	return err
}
