package service

import (
	"context"
	"errors"
	"fmt"
	"go-cms-app/internal/config"
	"go-cms-app/internal/data"
	"go-cms-app/internal/logger"
	"go-cms-app/internal/pages"
	"sync"
	"time"

	"github.com/goccy/go-json"
)

// ErrBackupNotFound is returned when a log id has no backups to restore.
var ErrBackupNotFound = errors.New("no backups for log entry")

// listingPrefix namespaces listing entries in the shared cache.
const listingPrefix = "pages:"

// ListingCache stores serialized page listings between requests.
type ListingCache interface {
	Get(key string) ([]byte, error)
	Set(key string, value []byte, ttl time.Duration) error
	DeletePrefix(prefix string) error
}

// PageServicer defines the operations the HTTP and CLI layers use.
type PageServicer interface {
	ListPages(ctx context.Context, opts pages.ListOptions) ([]pages.ListEntry, error)
	Page(ctx context.Context, id int64) (*PageDetails, error)
	Children(ctx context.Context, id int64, liveOnly bool) ([]*data.Page, error)
	Parents(ctx context.Context, id int64) ([]pages.Candidate, error)
	DeletePage(ctx context.Context, id int64) ([]int64, error)
	RestoreLog(ctx context.Context, logID int64) (int, error)
	Totals(ctx context.Context) (*Totals, error)
}

// PageDetails is a page with its resolved placement in the tree.
type PageDetails struct {
	Page            *data.Page        `json:"page"`
	GroupIDs        []int64           `json:"group_ids"`
	GroupNames      []string          `json:"group_names"`
	GroupItemsNames []string          `json:"group_items_names"`
	Parents         []pages.Candidate `json:"parents"`
	CanDuplicate    bool              `json:"can_duplicate"`
}

// Totals summarizes the size of the tree against the configured page limit.
type Totals struct {
	All      int  `json:"all"`
	TopLevel int  `json:"top_level"`
	Limit    int  `json:"limit"`
	AtLimit  bool `json:"at_limit"`
}

// PageService provides business logic for the page tree. Every call works on
// fresh hierarchy caches so no state leaks between requests.
type PageService struct {
	store    *data.Store
	listings ListingCache
	perms    pages.PermissionChecker
	langs    pages.LanguageProvider
	site     config.SiteConfig
	log      logger.Logger

	// deleteMu serializes cascades so overlapping subtrees never interleave.
	deleteMu sync.Mutex
}

var _ PageServicer = (*PageService)(nil)

// NewPageService creates a new PageService. listings may be nil to disable
// listing caching.
func NewPageService(store *data.Store, listings ListingCache, perms pages.PermissionChecker, langs pages.LanguageProvider, site config.SiteConfig, log logger.Logger) *PageService {
	return &PageService{
		store:    store,
		listings: listings,
		perms:    perms,
		langs:    langs,
		site:     site,
		log:      log,
	}
}

// engine bundles the hierarchy components for one operation.
type engine struct {
	resolver *pages.Resolver
	lister   *pages.Lister
}

func (s *PageService) newEngine(store *data.Store) *engine {
	resolver := pages.NewResolver(pages.NewCache(store.Pages), store.Groups, s.perms)
	paths := pages.NewTreePaths(resolver, store.Langs)
	lister := pages.NewLister(store.Pages, store.Groups, paths, s.perms, s.langs)
	lister.AdvancedPermissions = s.site.AdvancedPermissions
	return &engine{resolver: resolver, lister: lister}
}

// ListPages returns the sorted page list, served from the listing cache when possible.
func (s *PageService) ListPages(ctx context.Context, opts pages.ListOptions) ([]pages.ListEntry, error) {
	if opts.LanguageID == 0 {
		opts.LanguageID = s.langs.CurrentLanguageID(ctx)
	}
	key, err := listingKey(data.Actor(ctx), opts)
	if err != nil {
		return nil, err
	}
	if cached := s.cachedListing(key); cached != nil {
		return cached, nil
	}

	entries, err := s.newEngine(s.store).lister.ListPages(ctx, opts)
	if err != nil {
		return nil, err
	}
	s.storeListing(key, entries)
	return entries, nil
}

// Page returns a page with its groups, ranked parents and duplication permission.
func (s *PageService) Page(ctx context.Context, id int64) (*PageDetails, error) {
	page, err := s.store.Pages.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if page == nil {
		return nil, pages.ErrPageNotFound
	}

	r := s.newEngine(s.store).resolver
	details := &PageDetails{Page: page}
	if details.GroupIDs, err = r.GroupIDs(ctx, page); err != nil {
		return nil, err
	}
	if details.GroupNames, err = r.GroupNames(ctx, page); err != nil {
		return nil, err
	}
	if details.GroupItemsNames, err = r.GroupItemsNames(ctx, page); err != nil {
		return nil, err
	}
	if details.Parents, err = r.ParentCandidates(ctx, page); err != nil {
		return nil, err
	}
	if details.CanDuplicate, err = r.CanDuplicate(ctx, page); err != nil {
		return nil, err
	}
	return details, nil
}

// Children returns the category members of a page.
func (s *PageService) Children(ctx context.Context, id int64, liveOnly bool) ([]*data.Page, error) {
	r := s.newEngine(s.store).resolver
	page, err := r.Cache().Preload(ctx, id)
	if err != nil {
		return nil, err
	}
	if page == nil {
		return nil, pages.ErrPageNotFound
	}
	return r.CategoryMembers(ctx, id, liveOnly)
}

// Parents returns the ranked parent candidates of a page.
func (s *PageService) Parents(ctx context.Context, id int64) ([]pages.Candidate, error) {
	r := s.newEngine(s.store).resolver
	page, err := r.Cache().Preload(ctx, id)
	if err != nil {
		return nil, err
	}
	if page == nil {
		return nil, pages.ErrPageNotFound
	}
	return r.ParentCandidates(ctx, page)
}

// DeletePage deletes a page subtree in one transaction and returns the admin
// log ids created, ascending.
func (s *PageService) DeletePage(ctx context.Context, id int64) ([]int64, error) {
	s.deleteMu.Lock()
	defer s.deleteMu.Unlock()

	var logIDs []int64
	err := s.store.InTx(ctx, func(tx *data.Store) error {
		page, err := tx.Pages.FindByID(ctx, id)
		if err != nil {
			return err
		}
		if page == nil {
			return pages.ErrPageNotFound
		}
		logIDs, err = s.newDeleter(tx).DeletePage(ctx, page)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.log.With(map[string]interface{}{"page_id": id, "log_ids": logIDs, "subject": data.Actor(ctx)}).
		Info("Page subtree deleted")
	s.purgeListings()
	return logIDs, nil
}

// RestoreLog writes back every record backed up under logID, in backup order,
// and returns how many records were restored.
func (s *PageService) RestoreLog(ctx context.Context, logID int64) (int, error) {
	s.deleteMu.Lock()
	defer s.deleteMu.Unlock()

	var restored int
	err := s.store.InTx(ctx, func(tx *data.Store) error {
		backups, err := tx.Audit.Backups(ctx, logID)
		if err != nil {
			return err
		}
		if len(backups) == 0 {
			return ErrBackupNotFound
		}
		deleter := s.newDeleter(tx)
		for _, b := range backups {
			kind, fields, err := data.DecodeBackup(b)
			if err != nil {
				return err
			}
			if err := deleter.Restore(ctx, kind, fields); err != nil {
				return fmt.Errorf("restore backup %d: %w", b.ID, err)
			}
			restored++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	s.log.With(map[string]interface{}{"log_id": logID, "records": restored, "subject": data.Actor(ctx)}).
		Info("Deletion restored")
	s.purgeListings()
	return restored, nil
}

// Totals counts pages and checks the configured top-level page limit.
func (s *PageService) Totals(ctx context.Context) (*Totals, error) {
	lister := s.newEngine(s.store).lister
	all, err := lister.Total(ctx, true)
	if err != nil {
		return nil, err
	}
	topLevel, err := lister.Total(ctx, false)
	if err != nil {
		return nil, err
	}
	atLimit, err := lister.AtLimit(ctx, s.site.PageLimit)
	if err != nil {
		return nil, err
	}
	return &Totals{All: all, TopLevel: topLevel, Limit: s.site.PageLimit, AtLimit: atLimit}, nil
}

func (s *PageService) newDeleter(tx *data.Store) *pages.Deleter {
	return pages.NewDeleter(pages.DeleterDeps{
		Pages:     tx.Pages,
		Content:   tx.Content,
		Audit:     tx.Audit,
		Backups:   tx.Audit,
		Blocks:    tx.Blocks,
		Languages: s.langs,
	})
}

func listingKey(subject string, opts pages.ListOptions) (string, error) {
	encoded, err := json.Marshal(opts)
	if err != nil {
		return "", fmt.Errorf("failed to encode listing key: %w", err)
	}
	return listingPrefix + subject + ":" + string(encoded), nil
}

// cachedListing returns the cached listing for key, or nil on a miss. Cache
// failures are logged and treated as misses.
func (s *PageService) cachedListing(key string) []pages.ListEntry {
	if s.listings == nil {
		return nil
	}
	raw, err := s.listings.Get(key)
	if err != nil {
		s.log.Error(err, "Failed to read listing cache")
		return nil
	}
	if raw == nil {
		return nil
	}
	var entries []pages.ListEntry
	if err := json.Unmarshal(raw, &entries); err != nil {
		s.log.Error(err, "Failed to decode cached listing")
		return nil
	}
	return entries
}

func (s *PageService) storeListing(key string, entries []pages.ListEntry) {
	if s.listings == nil {
		return
	}
	raw, err := json.Marshal(entries)
	if err != nil {
		s.log.Error(err, "Failed to encode listing")
		return
	}
	if err := s.listings.Set(key, raw, 0); err != nil {
		s.log.Error(err, "Failed to write listing cache")
	}
}

func (s *PageService) purgeListings() {
	if s.listings == nil {
		return
	}
	if err := s.listings.DeletePrefix(listingPrefix); err != nil {
		s.log.Error(err, "Failed to purge listing cache")
	}
}
