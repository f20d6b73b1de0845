package pages

import (
	"context"
	"fmt"
	"go-cms-app/internal/data"
	"sort"
	"strconv"
)

// DeleterDeps are the collaborators of a Deleter.
type DeleterDeps struct {
	Pages     PageSource
	Content   ContentStore
	Audit     AuditLog
	Backups   BackupWriter
	Blocks    BlockTypeRegistry
	Languages LanguageProvider
}

// Deleter removes a page subtree, backing up every record set before it is deleted.
//
// The Deleter does not open transactions; callers wanting all-or-nothing
// semantics run it against a transaction-bound store. Overlapping subtrees
// must not be deleted concurrently.
type Deleter struct {
	deps DeleterDeps
}

// NewDeleter creates a Deleter.
func NewDeleter(deps DeleterDeps) *Deleter {
	return &Deleter{deps: deps}
}

// pageSnapshot is the set of records captured for one page before anything is removed.
type pageSnapshot struct {
	page        *data.Page
	versions    []data.PageVersion
	langs       []data.PageLang
	blocks      []data.PageBlock
	menuItems   []data.MenuItem
	roleActions []data.RolePageAction
}

// DeletePage deletes page and, depth first, every page whose parent it is.
// Each page gets its own admin log entry; the ids of all entries created are
// returned in ascending order.
func (d *Deleter) DeletePage(ctx context.Context, page *data.Page) ([]int64, error) {
	var logIDs []int64
	visited := make(map[int64]bool)
	stack := []*data.Page{page}
	for len(stack) > 0 {
		current := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if visited[current.ID] {
			continue
		}
		visited[current.ID] = true

		logID, err := d.deleteOne(ctx, current)
		if err != nil {
			return nil, err
		}
		logIDs = append(logIDs, logID)

		children, err := d.deps.Pages.FindByParent(ctx, current.ID)
		if err != nil {
			return nil, fmt.Errorf("find children of page %d: %w", current.ID, err)
		}
		// Pushed in reverse so the first child is processed next.
		for i := len(children) - 1; i >= 0; i-- {
			stack = append(stack, children[i])
		}
	}

	sort.Slice(logIDs, func(i, j int) bool { return logIDs[i] < logIDs[j] })
	return logIDs, nil
}

// Restore writes a backed-up record back, replacing any row with the same primary key.
func (d *Deleter) Restore(ctx context.Context, kind data.RecordKind, fields map[string]interface{}) error {
	return d.deps.Content.Replace(ctx, kind, fields)
}

// deleteOne opens the admin log entry for page, then runs collect, backup and
// delete for it and returns the log id.
func (d *Deleter) deleteOne(ctx context.Context, page *data.Page) (int64, error) {
	langs, err := d.deps.Content.Languages(ctx, page.ID)
	if err != nil {
		return 0, fmt.Errorf("delete page %d: page name: %w", page.ID, err)
	}
	message := fmt.Sprintf("Page '%s' deleted (Page ID %d)", d.pageName(ctx, langs), page.ID)
	logID, err := d.deps.Audit.NewEntry(ctx, message)
	if err != nil {
		return 0, fmt.Errorf("delete page %d: audit entry: %w", page.ID, err)
	}

	snap, err := d.collect(ctx, page, langs)
	if err != nil {
		return 0, fmt.Errorf("delete page %d: %w", page.ID, err)
	}
	if err := d.backupAll(ctx, logID, snap); err != nil {
		return 0, fmt.Errorf("delete page %d: %w", page.ID, err)
	}
	if err := d.removePublishRequests(ctx, logID, snap.versions); err != nil {
		return 0, fmt.Errorf("delete page %d: %w", page.ID, err)
	}
	if err := d.removeRepeaters(ctx, logID, snap.blocks); err != nil {
		return 0, fmt.Errorf("delete page %d: %w", page.ID, err)
	}
	if err := d.removeAll(ctx, snap); err != nil {
		return 0, fmt.Errorf("delete page %d: %w", page.ID, err)
	}
	return logID, nil
}

// collect snapshots the record sets of page; langs were already read for the log entry.
func (d *Deleter) collect(ctx context.Context, page *data.Page, langs []data.PageLang) (*pageSnapshot, error) {
	c := d.deps.Content
	snap := &pageSnapshot{page: page, langs: langs}
	var err error
	if snap.versions, err = c.Versions(ctx, page.ID); err != nil {
		return nil, fmt.Errorf("snapshot versions: %w", err)
	}
	if snap.blocks, err = c.Blocks(ctx, page.ID); err != nil {
		return nil, fmt.Errorf("snapshot blocks: %w", err)
	}
	if snap.menuItems, err = c.MenuItems(ctx, page.ID); err != nil {
		return nil, fmt.Errorf("snapshot menu items: %w", err)
	}
	if snap.roleActions, err = c.RoleActions(ctx, page.ID); err != nil {
		return nil, fmt.Errorf("snapshot role actions: %w", err)
	}
	return snap, nil
}

func (d *Deleter) backupAll(ctx context.Context, logID int64, snap *pageSnapshot) error {
	sets := []struct {
		kind    data.RecordKind
		records interface{}
	}{
		{data.KindPage, snap.page},
		{data.KindPageVersion, snap.versions},
		{data.KindPageLang, snap.langs},
		{data.KindPageBlock, snap.blocks},
		{data.KindMenuItem, snap.menuItems},
		{data.KindRolePageAction, snap.roleActions},
	}
	for _, set := range sets {
		if err := d.deps.Backups.Write(ctx, logID, set.kind, set.records); err != nil {
			return fmt.Errorf("backup %s: %w", set.kind, err)
		}
	}
	return nil
}

func (d *Deleter) removePublishRequests(ctx context.Context, logID int64, versions []data.PageVersion) error {
	if len(versions) == 0 {
		return nil
	}
	versionIDs := data.RecordIDs(versions)
	requests, err := d.deps.Content.PublishRequests(ctx, versionIDs)
	if err != nil {
		return fmt.Errorf("snapshot publish requests: %w", err)
	}
	if err := d.deps.Backups.Write(ctx, logID, data.KindPublishRequest, requests); err != nil {
		return fmt.Errorf("backup %s: %w", data.KindPublishRequest, err)
	}
	return d.deps.Content.Delete(ctx, data.KindPublishRequest, data.RecordIDs(requests))
}

// removeRepeaters backs up and deletes the rows and cells of the page's
// repeater blocks, cells before rows.
func (d *Deleter) removeRepeaters(ctx context.Context, logID int64, blocks []data.PageBlock) error {
	if len(blocks) == 0 {
		return nil
	}
	repeaterTypes, err := d.deps.Blocks.RepeaterBlockTypeIDs(ctx)
	if err != nil {
		return fmt.Errorf("repeater block types: %w", err)
	}
	if len(repeaterTypes) == 0 {
		return nil
	}
	isRepeater := make(map[int64]bool, len(repeaterTypes))
	for _, id := range repeaterTypes {
		isRepeater[id] = true
	}

	var repeaterIDs []int64
	for _, block := range blocks {
		if !isRepeater[block.BlockID] {
			continue
		}
		// Repeater blocks store the repeater id as their content; anything else is ignored.
		if id, err := strconv.ParseInt(block.Content, 10, 64); err == nil {
			repeaterIDs = append(repeaterIDs, id)
		}
	}
	if len(repeaterIDs) == 0 {
		return nil
	}

	rows, err := d.deps.Content.RepeaterRows(ctx, repeaterIDs)
	if err != nil {
		return fmt.Errorf("snapshot repeater rows: %w", err)
	}
	if len(rows) == 0 {
		return nil
	}
	cells, err := d.deps.Content.RepeaterData(ctx, data.RecordIDs(rows))
	if err != nil {
		return fmt.Errorf("snapshot repeater data: %w", err)
	}

	if err := d.deps.Backups.Write(ctx, logID, data.KindRepeaterRow, rows); err != nil {
		return fmt.Errorf("backup %s: %w", data.KindRepeaterRow, err)
	}
	if err := d.deps.Backups.Write(ctx, logID, data.KindRepeaterData, cells); err != nil {
		return fmt.Errorf("backup %s: %w", data.KindRepeaterData, err)
	}
	if err := d.deps.Content.Delete(ctx, data.KindRepeaterData, data.RecordIDs(cells)); err != nil {
		return err
	}
	return d.deps.Content.Delete(ctx, data.KindRepeaterRow, data.RecordIDs(rows))
}

func (d *Deleter) removeAll(ctx context.Context, snap *pageSnapshot) error {
	sets := []struct {
		kind data.RecordKind
		ids  []int64
	}{
		{data.KindPage, []int64{snap.page.ID}},
		{data.KindPageVersion, data.RecordIDs(snap.versions)},
		{data.KindPageLang, data.RecordIDs(snap.langs)},
		{data.KindPageBlock, data.RecordIDs(snap.blocks)},
		{data.KindMenuItem, data.RecordIDs(snap.menuItems)},
		{data.KindRolePageAction, data.RecordIDs(snap.roleActions)},
	}
	for _, set := range sets {
		if err := d.deps.Content.Delete(ctx, set.kind, set.ids); err != nil {
			return err
		}
	}
	// Search rows are derived data and are not backed up.
	return d.deps.Content.DeleteSearchData(ctx, snap.page.ID)
}

// pageName picks the page's name in the current language, falling back to
// its first language row.
func (d *Deleter) pageName(ctx context.Context, langs []data.PageLang) string {
	if len(langs) == 0 {
		return ""
	}
	current := d.deps.Languages.CurrentLanguageID(ctx)
	for _, lang := range langs {
		if lang.LanguageID == current {
			return lang.Name
		}
	}
	return langs[0].Name
}
