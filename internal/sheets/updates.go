package sheets

import (
	"context"
	"fmt"

	"ap_business_tools/internal/metrics"

	"github.com/rs/zerolog/log"
)

// CellUpdate is a value destined for one column of a row.
type CellUpdate struct {
	Column int
	Value  interface{}
}

// UpdateCells writes each update to row, one call per cell, in order. The row
// is not checked for existence. A failure stops the loop and leaves earlier
// cells written.
func (d *Document) UpdateCells(ctx context.Context, tab *Tab, row int, updates []CellUpdate) error {
	for _, u := range updates {
		if u.Column < 1 {
			return fmt.Errorf("invalid column %d for tab %q", u.Column, tab.Title)
		}

		rng := cellRange(tab.Title, u.Column, row)
		err := d.writeRange(ctx, rng, [][]interface{}{{u.Value}})
		metrics.SheetsCalls.WithLabelValues("update_cell", metrics.Outcome(err)).Inc()
		if err != nil {
			log.Error().
				Err(err).
				Str("tab", tab.Title).
				Int("row", row).
				Str("column", columnLetter(u.Column)).
				Msg("Failed to update cell")
			return remoteError(fmt.Sprintf("update %s", rng), err)
		}

		log.Debug().
			Str("tab", tab.Title).
			Int("row", row).
			Str("column", columnLetter(u.Column)).
			Msg("Updated cell")
	}
	return nil
}
