package reconciler_test

import (
	"context"
	"fmt"
	"time"

	"github.com/agentstation/utc"

	"github.com/pluginsync/pluginsync/internal/utils/ptr"
	"github.com/pluginsync/pluginsync/pkg/activity"
	"github.com/pluginsync/pluginsync/pkg/plugins"
)

var testNow = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

func testClassifier() *activity.Classifier {
	return activity.New(activity.WithClock(func() time.Time { return testNow }))
}

func daysAgo(n int) *utc.Time {
	t := utc.New(testNow.Add(-time.Duration(n) * 24 * time.Hour))
	return &t
}

func dateDaysAgo(n int) string {
	return testNow.Add(-time.Duration(n) * 24 * time.Hour).Format("2006-01-02")
}

// call is one recorded store mutation.
type call struct {
	Op       string
	RowID    string
	Values   map[string]any
	Record   plugins.Record
	Category string
}

// fakeStore records mutations and can be told to fail specific operations.
type fakeStore struct {
	rows     []plugins.Record
	keywords []plugins.Keyword
	calls    []call
	failOn   map[string]error // keyed by "op:rowID" or "op:pluginID"
	nextID   int
}

func newFakeStore(rows ...plugins.Record) *fakeStore {
	return &fakeStore{rows: rows, failOn: map[string]error{}}
}

func (s *fakeStore) Rows(context.Context) ([]plugins.Record, error) {
	return s.rows, nil
}

func (s *fakeStore) Keywords(context.Context) ([]plugins.Keyword, error) {
	return s.keywords, nil
}

func (s *fakeStore) Append(_ context.Context, rec plugins.Record) (string, error) {
	if err := s.failOn["append:"+rec.ID]; err != nil {
		return "", err
	}
	s.nextID++
	rowID := fmt.Sprintf("new-%d", s.nextID)
	s.calls = append(s.calls, call{Op: "append", RowID: rowID, Record: rec})
	return rowID, nil
}

func (s *fakeStore) Update(_ context.Context, rowID string, values map[string]any) error {
	if err := s.failOn["update:"+rowID]; err != nil {
		return err
	}
	s.calls = append(s.calls, call{Op: "update", RowID: rowID, Values: values})
	return nil
}

func (s *fakeStore) Delete(_ context.Context, rowID string) error {
	if err := s.failOn["delete:"+rowID]; err != nil {
		return err
	}
	s.calls = append(s.calls, call{Op: "delete", RowID: rowID})
	return nil
}

func (s *fakeStore) AddLink(_ context.Context, rowID, categoryRowID string) error {
	s.calls = append(s.calls, call{Op: "link", RowID: rowID, Category: categoryRowID})
	return nil
}

func (s *fakeStore) RemoveLink(_ context.Context, rowID, categoryRowID string) error {
	s.calls = append(s.calls, call{Op: "unlink", RowID: rowID, Category: categoryRowID})
	return nil
}

func (s *fakeStore) ops(op string) []call {
	var out []call
	for _, c := range s.calls {
		if c.Op == op {
			out = append(out, c)
		}
	}
	return out
}

// storedRow returns a row that is fully in sync with syncedPlugin(id).
func storedRow(rowID, id string) plugins.Record {
	return plugins.Record{
		RowID:           rowID,
		ID:              id,
		Name:            "Plugin " + id,
		Description:     "Does " + id,
		GithubLink:      "https://github.com/owner/" + id,
		Author:          "owner",
		MobileFriendly:  ptr.Bool(true),
		LastCommitDate:  dateDaysAgo(10),
		ETag:            "etag-" + id,
		Status:          plugins.StateActive,
		PluginAvailable: true,
	}
}

func syncedPlugin(id string) plugins.Plugin {
	return plugins.Plugin{
		ID:             id,
		Name:           "Plugin " + id,
		Description:    "Does " + id,
		Repo:           "owner/" + id,
		Author:         "owner",
		IsDesktopOnly:  ptr.Bool(false),
		LastCommitDate: daysAgo(10),
		ETag:           `W/"etag-` + id + `"`,
	}
}
