package data

import "fmt"

// RecordKind names a table whose rows take part in a page deletion.
type RecordKind string

const (
	KindPage           RecordKind = "Page"
	KindPageVersion    RecordKind = "PageVersion"
	KindPageLang       RecordKind = "PageLang"
	KindPageBlock      RecordKind = "PageBlock"
	KindMenuItem       RecordKind = "MenuItem"
	KindRolePageAction RecordKind = "UserRolePageAction"
	KindPublishRequest RecordKind = "PagePublishRequests"
	KindRepeaterRow    RecordKind = "PageBlockRepeaterRows"
	KindRepeaterData   RecordKind = "PageBlockRepeaterData"
	KindPageSearchData RecordKind = "PageSearchData"
)

var kindTables = map[RecordKind]string{
	KindPage:           "pages",
	KindPageVersion:    "page_versions",
	KindPageLang:       "page_lang",
	KindPageBlock:      "page_blocks",
	KindMenuItem:       "menu_items",
	KindRolePageAction: "user_roles_page_actions",
	KindPublishRequest: "page_publish_requests",
	KindRepeaterRow:    "page_blocks_repeater_rows",
	KindRepeaterData:   "page_blocks_repeater_data",
	KindPageSearchData: "page_search_data",
}

// Table returns the table backing the kind.
func (k RecordKind) Table() (string, error) {
	table, ok := kindTables[k]
	if !ok {
		return "", fmt.Errorf("unknown record kind %q", k)
	}
	return table, nil
}

// RecordIDs returns the primary keys of a snapshot produced by the content
// repository. It accepts a single *Page or a slice of any record model.
func RecordIDs(records interface{}) []int64 {
	var ids []int64
	switch rs := records.(type) {
	case *Page:
		if rs != nil {
			ids = append(ids, rs.ID)
		}
	case []*Page:
		for _, r := range rs {
			ids = append(ids, r.ID)
		}
	case []PageVersion:
		for _, r := range rs {
			ids = append(ids, r.ID)
		}
	case []PageLang:
		for _, r := range rs {
			ids = append(ids, r.ID)
		}
	case []PageBlock:
		for _, r := range rs {
			ids = append(ids, r.ID)
		}
	case []MenuItem:
		for _, r := range rs {
			ids = append(ids, r.ID)
		}
	case []RolePageAction:
		for _, r := range rs {
			ids = append(ids, r.ID)
		}
	case []PublishRequest:
		for _, r := range rs {
			ids = append(ids, r.ID)
		}
	case []RepeaterRow:
		for _, r := range rs {
			ids = append(ids, r.ID)
		}
	case []RepeaterData:
		for _, r := range rs {
			ids = append(ids, r.ID)
		}
	}
	return ids
}
