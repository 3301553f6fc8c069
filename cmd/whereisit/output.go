package main

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/erazemk/whereisit/internal/model"
)

// writeTable prints items as an aligned table. Recently updated items are
// marked with an asterisk.
func writeTable(w io.Writer, items []model.Item, now time.Time) error {
	if len(items) == 0 {
		_, err := fmt.Fprintln(w, "No items.")
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tICON\tLOCATION\t")
	for _, item := range items {
		recent := ""
		if item.IsRecent(now) {
			recent = "*"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			item.ID, item.DisplayName(), iconLabel(item), locationLabel(item), recent)
	}
	return tw.Flush()
}

// writeDetail prints one item.
func writeDetail(w io.Writer, item model.Item) {
	fmt.Fprintf(w, "ID:       %s\n", item.ID)
	fmt.Fprintf(w, "Name:     %s\n", item.DisplayName())
	fmt.Fprintf(w, "Icon:     %s\n", iconLabel(item))
	if item.HasLocation() {
		fmt.Fprintf(w, "Location: %s\n", item.Location())
	} else {
		fmt.Fprintln(w, "Location: no photo yet (whereisit locate "+item.ID+" <photo>)")
	}
	fmt.Fprintf(w, "Updated:  %s\n", time.UnixMilli(item.UpdatedAt).Format(time.DateTime))
}

func iconLabel(item model.Item) string {
	if item.Type == model.ItemTypeCustom {
		return "custom"
	}
	if name := model.PresetName(item.IconURI); name != "" {
		return name
	}
	return "default"
}

func locationLabel(item model.Item) string {
	if item.HasLocation() {
		return "saved"
	}
	return "none"
}
