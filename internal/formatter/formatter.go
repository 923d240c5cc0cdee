// package formatter renders the product listing in various formats (CSV, Markdown, plain text)
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/desertthunder/faves/internal/shared"
	"github.com/desertthunder/faves/internal/tasks"
)

// Format names accepted by [Export].
const (
	FormatText     = "text"
	FormatCSV      = "csv"
	FormatMarkdown = "markdown"
)

// Export renders rows in the named format.
func Export(rows []tasks.Row, format string) ([]byte, error) {
	switch strings.ToLower(format) {
	case "", FormatText:
		return ProductsToText(rows)
	case FormatCSV:
		return ProductsToCSV(rows)
	case FormatMarkdown, "md":
		return ProductsToMarkdown(rows)
	default:
		return nil, fmt.Errorf("%w: unknown format %q (expected text, csv or markdown)", shared.ErrInvalidFlag, format)
	}
}

// ProductsToCSV converts rows to CSV with columns: ID, Name, Favorite, FavoriteID
func ProductsToCSV(rows []tasks.Row) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"ID", "Name", "Favorite", "FavoriteID"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, row := range rows {
		favoriteID := ""
		if row.Favorited() {
			favoriteID = row.Favorite.ID.String()
		}
		record := []string{
			row.Product.ID.String(),
			row.Product.Name,
			fmt.Sprintf("%t", row.Favorited()),
			favoriteID,
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ProductsToMarkdown converts rows to a Markdown table, favorites marked with a star
func ProductsToMarkdown(rows []tasks.Row) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString("# Products\n\n")
	buf.WriteString(fmt.Sprintf("**Products**: %d\n", len(rows)))
	buf.WriteString(fmt.Sprintf("**Favorites**: %d\n\n", countFavorites(rows)))

	buf.WriteString("| ID | Name | Favorite |\n")
	buf.WriteString("|---|---|---|\n")
	for _, row := range rows {
		mark := ""
		if row.Favorited() {
			mark = "★"
		}
		name := strings.ReplaceAll(row.Product.Name, "|", `\|`)
		buf.WriteString(fmt.Sprintf("| %s | %s | %s |\n", row.Product.ID, name, mark))
	}

	return buf.Bytes(), nil
}

// ProductsToText converts rows to plain text, one numbered line per product with its control
func ProductsToText(rows []tasks.Row) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("Products: %d (favorites: %d)\n\n", len(rows), countFavorites(rows)))

	for i, row := range rows {
		control := ""
		if row.Action != tasks.ActionNone {
			control = fmt.Sprintf("[%s] ", row.Action)
		}
		line := fmt.Sprintf("%d. %s%s (id %s)", i+1, control, row.Product.Name, row.Product.ID)
		if row.Favorited() {
			line += fmt.Sprintf(" ★ favorite %s", row.Favorite.ID)
		}
		buf.WriteString(line + "\n")
	}

	return buf.Bytes(), nil
}

// WriteExport writes data to path, creating parent directories as needed.
func WriteExport(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write export file: %w", err)
	}
	return nil
}

func countFavorites(rows []tasks.Row) int {
	n := 0
	for _, row := range rows {
		if row.Favorited() {
			n++
		}
	}
	return n
}
