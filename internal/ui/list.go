package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	"github.com/desertthunder/faves/internal/tasks"
)

var (
	_ list.Item = productItem{}
)

// productItem wraps [tasks.Row] to implement [list.Item].
type productItem struct {
	row tasks.Row
}

func (i productItem) FilterValue() string { return i.row.Product.Name }
func (i productItem) Title() string {
	if i.row.Action == tasks.ActionNone {
		return i.row.Product.Name
	}
	return fmt.Sprintf("[%s] %s", i.row.Action, i.row.Product.Name)
}
func (i productItem) Description() string {
	if i.row.Favorited() {
		return fmt.Sprintf("★ favorite #%s", i.row.Favorite.ID)
	}
	return fmt.Sprintf("product #%s", i.row.Product.ID)
}

func productItems(rows []tasks.Row) []list.Item {
	items := make([]list.Item, len(rows))
	for i, row := range rows {
		items[i] = productItem{row: row}
	}
	return items
}
