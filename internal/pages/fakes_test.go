//go:build unit

package pages

import (
	"context"
	"fmt"
	"go-cms-app/internal/data"
	"time"
)

// fakePages is an in-memory PageSource that counts bulk loads.
type fakePages struct {
	pages         []*data.Page
	count         int
	err           error
	findAllCalls  int
	findByIDCalls int
}

var _ PageSource = (*fakePages)(nil)

func (f *fakePages) FindByID(ctx context.Context, id int64) (*data.Page, error) {
	f.findByIDCalls++
	if f.err != nil {
		return nil, f.err
	}
	for _, p := range f.pages {
		if p.ID == id {
			return p, nil
		}
	}
	return nil, nil
}

func (f *fakePages) FindAll(ctx context.Context) ([]*data.Page, error) {
	f.findAllCalls++
	if f.err != nil {
		return nil, f.err
	}
	return append([]*data.Page(nil), f.pages...), nil
}

func (f *fakePages) FindByParent(ctx context.Context, parentID int64) ([]*data.Page, error) {
	if f.err != nil {
		return nil, f.err
	}
	var children []*data.Page
	for _, p := range f.pages {
		if p.Parent == parentID {
			children = append(children, p)
		}
	}
	return children, nil
}

func (f *fakePages) Count(ctx context.Context, includeGroup bool) (int, error) {
	return f.count, f.err
}

func (f *fakePages) remove(id int64) {
	kept := f.pages[:0]
	for _, p := range f.pages {
		if p.ID != id {
			kept = append(kept, p)
		}
	}
	f.pages = kept
}

// fakeGroups keeps groups, memberships and containers in maps.
type fakeGroups struct {
	pages *fakePages
	now   time.Time

	groups map[int64]*data.PageGroup
	// memberships lists the group ids of a page in attachment order.
	memberships map[int64][]int64
	// items lists the member page ids of a group.
	items map[int64][]int64
	// containers lists the container pages of a group.
	containers map[int64][]data.ContainerPage

	itemIDsCalls    int
	pageGroupsCalls int
}

var _ GroupProvider = (*fakeGroups)(nil)

func newFakeGroups(pages *fakePages) *fakeGroups {
	return &fakeGroups{
		pages:       pages,
		now:         time.Now(),
		groups:      make(map[int64]*data.PageGroup),
		memberships: make(map[int64][]int64),
		items:       make(map[int64][]int64),
		containers:  make(map[int64][]data.ContainerPage),
	}
}

func (f *fakeGroups) Find(ctx context.Context, groupID int64) (*data.PageGroup, error) {
	return f.groups[groupID], nil
}

func (f *fakeGroups) PageGroups(ctx context.Context, pageID int64) ([]*data.PageGroup, error) {
	f.pageGroupsCalls++
	var groups []*data.PageGroup
	for _, id := range f.memberships[pageID] {
		groups = append(groups, f.groups[id])
	}
	return groups, nil
}

func (f *fakeGroups) ItemPageIDs(ctx context.Context, group *data.PageGroup, containerID int64, liveOnly bool) ([]int64, error) {
	f.itemIDsCalls++
	var ids []int64
	for _, id := range f.items[group.ID] {
		if liveOnly {
			page, _ := f.pages.FindByID(ctx, id)
			if page == nil || !page.IsLive(f.now) {
				continue
			}
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func (f *fakeGroups) ItemPages(ctx context.Context, group *data.PageGroup, containerID int64) ([]*data.Page, error) {
	var pages []*data.Page
	for _, id := range f.items[group.ID] {
		page, _ := f.pages.FindByID(ctx, id)
		if page != nil {
			pages = append(pages, page)
		}
	}
	return pages, nil
}

func (f *fakeGroups) ContainerPages(ctx context.Context, group *data.PageGroup, pageID int64) ([]data.ContainerPage, error) {
	for _, id := range f.items[group.ID] {
		if id == pageID {
			return f.containers[group.ID], nil
		}
	}
	return nil, nil
}

func (f *fakeGroups) Containers(ctx context.Context, group *data.PageGroup) ([]*data.Page, error) {
	var pages []*data.Page
	for _, c := range f.containers[group.ID] {
		pages = append(pages, &data.Page{ID: c.ID, GroupContainer: group.ID})
	}
	return pages, nil
}

// fakeLangs serves per-language rows.
type fakeLangs struct {
	rows  map[int64]map[int64]data.PageLang
	calls int
}

func (f *fakeLangs) PageLangs(ctx context.Context, languageID int64) (map[int64]data.PageLang, error) {
	f.calls++
	return f.rows[languageID], nil
}

func (f *fakeLangs) add(languageID, pageID int64, url, name string) {
	if f.rows == nil {
		f.rows = make(map[int64]map[int64]data.PageLang)
	}
	if f.rows[languageID] == nil {
		f.rows[languageID] = make(map[int64]data.PageLang)
	}
	f.rows[languageID][pageID] = data.PageLang{PageID: pageID, LanguageID: languageID, URL: url, Name: name}
}

// denyPages refuses every action on the listed pages.
type denyPages map[int64]bool

func (d denyPages) CanPerform(ctx context.Context, action string, pageID int64) bool {
	return !d[pageID]
}

// recordingStore is a content store, audit log, backup writer and block type
// registry that records every call in order.
type recordingStore struct {
	pages *fakePages

	versions    map[int64][]data.PageVersion
	langs       map[int64][]data.PageLang
	blocks      map[int64][]data.PageBlock
	menuItems   map[int64][]data.MenuItem
	roleActions map[int64][]data.RolePageAction
	requests    []data.PublishRequest
	rows        []data.RepeaterRow
	cells       []data.RepeaterData
	repeaters   []int64

	nextLogID  int64
	writeErr   error
	traceReads bool
	events     []string
	replaced  []map[string]interface{}
}

var (
	_ ContentStore      = (*recordingStore)(nil)
	_ AuditLog          = (*recordingStore)(nil)
	_ BackupWriter      = (*recordingStore)(nil)
	_ BlockTypeRegistry = (*recordingStore)(nil)
)

func newRecordingStore(pages *fakePages) *recordingStore {
	return &recordingStore{
		pages:       pages,
		versions:    make(map[int64][]data.PageVersion),
		langs:       make(map[int64][]data.PageLang),
		blocks:      make(map[int64][]data.PageBlock),
		menuItems:   make(map[int64][]data.MenuItem),
		roleActions: make(map[int64][]data.RolePageAction),
		nextLogID:   100,
	}
}

func (s *recordingStore) Versions(ctx context.Context, pageID int64) ([]data.PageVersion, error) {
	s.read("Versions", pageID)
	return s.versions[pageID], nil
}

func (s *recordingStore) Languages(ctx context.Context, pageID int64) ([]data.PageLang, error) {
	s.read("Languages", pageID)
	return s.langs[pageID], nil
}

func (s *recordingStore) Blocks(ctx context.Context, pageID int64) ([]data.PageBlock, error) {
	s.read("Blocks", pageID)
	return s.blocks[pageID], nil
}

func (s *recordingStore) MenuItems(ctx context.Context, pageID int64) ([]data.MenuItem, error) {
	s.read("MenuItems", pageID)
	return s.menuItems[pageID], nil
}

func (s *recordingStore) RoleActions(ctx context.Context, pageID int64) ([]data.RolePageAction, error) {
	s.read("RoleActions", pageID)
	return s.roleActions[pageID], nil
}

func (s *recordingStore) read(what string, pageID int64) {
	if s.traceReads {
		s.events = append(s.events, fmt.Sprintf("read:%s:%d", what, pageID))
	}
}

func (s *recordingStore) PublishRequests(ctx context.Context, versionIDs []int64) ([]data.PublishRequest, error) {
	want := make(map[int64]bool)
	for _, id := range versionIDs {
		want[id] = true
	}
	var out []data.PublishRequest
	for _, r := range s.requests {
		if want[r.PageVersionID] {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *recordingStore) RepeaterRows(ctx context.Context, repeaterIDs []int64) ([]data.RepeaterRow, error) {
	want := make(map[int64]bool)
	for _, id := range repeaterIDs {
		want[id] = true
	}
	var out []data.RepeaterRow
	for _, r := range s.rows {
		if want[r.RepeaterID] {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *recordingStore) RepeaterData(ctx context.Context, rowIDs []int64) ([]data.RepeaterData, error) {
	want := make(map[int64]bool)
	for _, id := range rowIDs {
		want[id] = true
	}
	var out []data.RepeaterData
	for _, c := range s.cells {
		if want[c.RowKey] {
			out = append(out, c)
		}
	}
	return out, nil
}

func (s *recordingStore) Delete(ctx context.Context, kind data.RecordKind, ids []int64) error {
	s.events = append(s.events, fmt.Sprintf("delete:%s:%v", kind, ids))
	if kind == data.KindPage {
		for _, id := range ids {
			s.pages.remove(id)
		}
	}
	return nil
}

func (s *recordingStore) DeleteSearchData(ctx context.Context, pageID int64) error {
	s.events = append(s.events, fmt.Sprintf("delete:search:%d", pageID))
	return nil
}

func (s *recordingStore) Replace(ctx context.Context, kind data.RecordKind, fields map[string]interface{}) error {
	s.events = append(s.events, fmt.Sprintf("replace:%s", kind))
	s.replaced = append(s.replaced, fields)
	return nil
}

func (s *recordingStore) NewEntry(ctx context.Context, message string) (int64, error) {
	id := s.nextLogID
	s.nextLogID++
	s.events = append(s.events, fmt.Sprintf("log:%d:%s", id, message))
	return id, nil
}

func (s *recordingStore) Write(ctx context.Context, logID int64, kind data.RecordKind, records interface{}) error {
	if s.writeErr != nil {
		return s.writeErr
	}
	s.events = append(s.events, fmt.Sprintf("backup:%d:%s:%v", logID, kind, data.RecordIDs(records)))
	return nil
}

func (s *recordingStore) RepeaterBlockTypeIDs(ctx context.Context) ([]int64, error) {
	return s.repeaters, nil
}
