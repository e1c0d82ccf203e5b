// Package chrome describes the page navigation and header.
package chrome

// DefaultItem is active when no navigation path matches.
const DefaultItem = "dashboard"

// SearchPlaceholder is shown in the header search box.
const SearchPlaceholder = "Search..."

// NavItem is one sidebar entry.
type NavItem struct {
	ID       string
	Name     string
	Path     string
	Disabled bool
}

// Title is the hover text; disabled items say so.
func (n NavItem) Title() string {
	if n.Disabled {
		return n.Name + " (Disabled)"
	}
	return n.Name
}

// NavItems lists the sidebar entries in display order.
var NavItems = []NavItem{
	{ID: "dashboard", Name: "Dashboard", Path: "/dashboard"},
	{ID: "strategies", Name: "Strategies", Path: "/strategies", Disabled: true},
	{ID: "invoices", Name: "Invoices", Path: "/invoices", Disabled: true},
	{ID: "apr", Name: "APR Analysis", Path: "/apr", Disabled: true},
	{ID: "settings", Name: "Settings", Path: "/settings", Disabled: true},
}

// ActiveItem returns the id of the item whose path equals path exactly, or DefaultItem.
func ActiveItem(path string) string {
	for _, item := range NavItems {
		if item.Path == path {
			return item.ID
		}
	}
	return DefaultItem
}

// NavEntry is a NavItem resolved against the current path.
type NavEntry struct {
	NavItem
	Active bool
}

// Nav resolves the sidebar for path.
func Nav(path string) []NavEntry {
	active := ActiveItem(path)
	out := make([]NavEntry, 0, len(NavItems))
	for _, item := range NavItems {
		out = append(out, NavEntry{NavItem: item, Active: item.ID == active})
	}
	return out
}

// Header is the page title bar.
type Header struct {
	Title       string
	Placeholder string
}

func NewHeader(title string) Header {
	return Header{Title: title, Placeholder: SearchPlaceholder}
}
