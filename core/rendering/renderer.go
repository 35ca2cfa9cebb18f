/*
SPDX-License-Identifier: Apache-2.0

Copyright 2025 The Tidynest Authors

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    https://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package rendering

import (
	"embed"
	"io"

	"github.com/google/safehtml"
	"github.com/google/safehtml/template"

	"github.com/google/tidynest/core/columns"
	"github.com/google/tidynest/core/tables"
)

//go:embed templates/*
var templateFS embed.FS

// TableRenderer handles rendering of tables to HTML
type TableRenderer struct {
	tableTemplate *template.Template
	// nested tables deeper than this are shown by their summary only
	maxDepth int
}

// NewTableRenderer creates a new table renderer
func NewTableRenderer() (*TableRenderer, error) {
	trustedFS := template.TrustedFSFromEmbed(templateFS)

	tableTemplate, err := template.New("table.html").ParseFS(trustedFS, "templates/table.html")
	if err != nil {
		return nil, err
	}

	return &TableRenderer{
		tableTemplate: tableTemplate,
		maxDepth:      2,
	}, nil
}

// PageViewModel is the data handed to the page template.
type PageViewModel struct {
	Title string
	// Navigation rows shown above the table, e.g. stages and formats
	Nav   [][]LinkViewModel
	Table *TableViewModel

	RenderTimeMs    string
	TimingBreakdown []TimingEntry
	Error           string
}

// LinkViewModel is one navigation link.
type LinkViewModel struct {
	Label  string
	URL    safehtml.URL
	Active bool
}

// TimingEntry represents a single timing measurement
type TimingEntry struct {
	Operation  string
	DurationMs string
}

// TableViewModel is a display-ready copy of a table.
type TableViewModel struct {
	Caption string
	Columns []ColumnViewModel
	Rows    [][]CellViewModel
}

type ColumnViewModel struct {
	Name        string
	DisplayName string
	Kind        string
}

type CellViewModel struct {
	Text   string
	Null   bool
	Nested *TableViewModel
}

// Render writes t as a standalone HTML page.
func (r *TableRenderer) Render(w io.Writer, title string, t *tables.DataTable) error {
	return r.RenderPage(w, PageViewModel{
		Title: title,
		Table: r.BuildViewModel(t, 0),
	})
}

// RenderPage writes a prepared page. A nil Table renders the page chrome only.
func (r *TableRenderer) RenderPage(w io.Writer, vm PageViewModel) error {
	return r.tableTemplate.Execute(w, vm)
}

// BuildViewModel converts t for display. Nested tables are expanded up to
// the renderer's depth limit.
func (r *TableRenderer) BuildViewModel(t *tables.DataTable, depth int) *TableViewModel {
	vm := &TableViewModel{Caption: t.Summary()}
	for _, col := range t.Columns() {
		vm.Columns = append(vm.Columns, ColumnViewModel{
			Name:        col.ColumnDef().Name(),
			DisplayName: col.ColumnDef().DisplayName(),
			Kind:        col.Type().String(),
		})
	}
	for i := 0; i < t.Length(); i++ {
		row := make([]CellViewModel, 0, t.Width())
		for _, col := range t.Columns() {
			text, err := col.GetString(i)
			if err != nil {
				text = columns.ErrorLabel
			}
			cell := CellViewModel{Text: text, Null: col.IsNull(i)}
			if nested, ok := col.(*columns.ValueColumn[*tables.DataTable]); ok && depth < r.maxDepth {
				if sub, err := nested.GetValue(i); err == nil && sub != nil {
					cell.Nested = r.BuildViewModel(sub, depth+1)
				}
			}
			row = append(row, cell)
		}
		vm.Rows = append(vm.Rows, row)
	}
	return vm
}
