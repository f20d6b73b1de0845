//go:build unit

package handler

import (
	"context"
	"net/http"

	"go-cms-app/internal/data"
	"go-cms-app/internal/pages"
	"go-cms-app/internal/service"
	"go-cms-app/internal/session"
)

// mockPageService records the arguments it is called with and returns canned results.
type mockPageService struct {
	listOpts    []pages.ListOptions
	entries     []pages.ListEntry
	details     *service.PageDetails
	children    []*data.Page
	childLive   bool
	parents     []pages.Candidate
	deletedIDs  []int64
	logIDs      []int64
	restoredLog int64
	restored    int
	totals      *service.Totals
	err         error
}

var _ service.PageServicer = (*mockPageService)(nil)

func (m *mockPageService) ListPages(ctx context.Context, opts pages.ListOptions) ([]pages.ListEntry, error) {
	m.listOpts = append(m.listOpts, opts)
	return m.entries, m.err
}

func (m *mockPageService) Page(ctx context.Context, id int64) (*service.PageDetails, error) {
	return m.details, m.err
}

func (m *mockPageService) Children(ctx context.Context, id int64, liveOnly bool) ([]*data.Page, error) {
	m.childLive = liveOnly
	return m.children, m.err
}

func (m *mockPageService) Parents(ctx context.Context, id int64) ([]pages.Candidate, error) {
	return m.parents, m.err
}

func (m *mockPageService) DeletePage(ctx context.Context, id int64) ([]int64, error) {
	m.deletedIDs = append(m.deletedIDs, id)
	return m.logIDs, m.err
}

func (m *mockPageService) RestoreLog(ctx context.Context, logID int64) (int, error) {
	m.restoredLog = logID
	return m.restored, m.err
}

func (m *mockPageService) Totals(ctx context.Context) (*service.Totals, error) {
	return m.totals, m.err
}

// mockSessionManager is a mock implementation of the session.Manager interface.
type mockSessionManager struct {
	destroyCalled bool
	destroyErr    error
	renewed       bool
	putKey        string
	putValue      interface{}
}

var _ session.Manager = (*mockSessionManager)(nil)

func (m *mockSessionManager) LoadAndSave(next http.Handler) http.Handler { return next }
func (m *mockSessionManager) Put(ctx context.Context, key string, val interface{}) {
	m.putKey = key
	m.putValue = val
}
func (m *mockSessionManager) GetString(ctx context.Context, key string) string { return "" }
func (m *mockSessionManager) RenewToken(ctx context.Context) error {
	m.renewed = true
	return nil
}
func (m *mockSessionManager) Destroy(ctx context.Context) error {
	m.destroyCalled = true
	return m.destroyErr
}
