package pages

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/a-h/templ"

	"bakehouse/internal/report"
)

// FormatReportQuantity renders a rounded quantity with its trailing unit.
func FormatReportQuantity(value, unit string) string {
	unit = strings.TrimSpace(unit)
	if unit == "" {
		return value
	}
	return value + " " + unit
}

// FormatReportDate renders the supplied time using a production-friendly layout.
func FormatReportDate(v time.Time) string {
	if v.IsZero() {
		return ""
	}
	return v.Format("02 Jan 2006")
}

// BatchProductionReport renders a printable production sheet for a batch.
func BatchProductionReport(data report.Batch) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		p := &printer{w: w}
		p.raw(`<!DOCTYPE html><html lang="en"><head><meta charset="utf-8"><title>Batch production report</title></head><body>`)
		p.raw(`<main class="batch-report">`)
		p.raw(`<header><h1>Batch production report</h1><dl>`)
		p.raw(`<dt>Run</dt><dd>`).text(data.RunID).raw(`</dd>`)
		p.raw(`<dt>Date</dt><dd>`).text(FormatReportDate(data.RunDate)).raw(`</dd>`)
		p.raw(`<dt>Total cost</dt><dd data-total-cost>`).text(data.TotalCost).raw(`</dd>`)
		p.raw(`<dt>Adjusted for yield</dt><dd data-adjusted-cost>`).text(data.AdjustedCost).raw(`</dd>`)
		p.raw(`</dl></header>`)

		if len(data.Warnings) > 0 {
			p.raw(`<section class="warnings"><h2>Warnings</h2><ul>`)
			for _, warning := range data.Warnings {
				p.raw(`<li>`).text(warning).raw(`</li>`)
			}
			p.raw(`</ul></section>`)
		}

		p.raw(`<section><h2>Products</h2><table><thead><tr><th>Product</th><th>Quantity</th><th>Cost</th><th>Yield %</th><th>Adjusted</th></tr></thead><tbody>`)
		for _, product := range data.Products {
			p.row(product.Name, product.Quantity, product.Cost, product.YieldPercent, product.AdjustedCost)
		}
		p.raw(`</tbody></table></section>`)

		p.raw(`<section><h2>Ingredients</h2><table><thead><tr><th>#</th><th>Ingredient</th><th>Quantity</th><th>Cost</th></tr></thead><tbody>`)
		for i, ingredient := range data.Ingredients {
			p.row(fmt.Sprint(i+1), ingredient.Name, FormatReportQuantity(ingredient.Quantity, ingredient.Unit), ingredient.Cost)
		}
		p.raw(`</tbody></table></section>`)

		if len(data.SubRecipes) > 0 {
			p.raw(`<section><h2>Sub-recipes</h2><table><thead><tr><th>Sub-recipe</th><th>Quantity</th><th>Unit cost</th><th>Total</th></tr></thead><tbody>`)
			for _, sub := range data.SubRecipes {
				p.row(sub.Name, sub.Quantity, sub.UnitCost, sub.TotalCost)
			}
			p.raw(`</tbody></table></section>`)
		}

		p.raw(`<section><h2>Breakdown</h2><table><thead><tr><th>Source</th><th>Ingredient</th><th>Quantity</th><th>Cost</th></tr></thead><tbody>`)
		for _, line := range data.Breakdown {
			p.row(line.Source, line.Name, FormatReportQuantity(line.Quantity, line.Unit), line.Cost)
		}
		p.raw(`</tbody></table></section>`)

		p.raw(`</main></body></html>`)
		return p.err
	})
}

// printer keeps the first write error so rendering code stays linear.
type printer struct {
	w   io.Writer
	err error
}

func (p *printer) raw(s string) *printer {
	if p.err == nil {
		_, p.err = io.WriteString(p.w, s)
	}
	return p
}

func (p *printer) text(s string) *printer {
	return p.raw(templ.EscapeString(s))
}

func (p *printer) row(cells ...string) {
	p.raw(`<tr>`)
	for _, cell := range cells {
		p.raw(`<td>`).text(cell).raw(`</td>`)
	}
	p.raw(`</tr>`)
}
