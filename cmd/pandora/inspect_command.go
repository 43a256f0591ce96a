package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"pandora/internal/document"
	"pandora/internal/viewer"
)

type inspectPayload struct {
	Archive       string              `json:"archive"`
	FormatVersion int                 `json:"format_version"`
	LayoutMode    document.LayoutMode `json:"layout_mode"`
	PageCount     int                 `json:"page_count"`
	BlockCount    int                 `json:"block_count"`
	FailedBlocks  int                 `json:"failed_blocks"`
	Blocks        []document.Block    `json:"blocks"`
}

func newInspectCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:         "inspect <archive>",
		Short:       "Validate and summarize a .pandora archive",
		Args:        cobra.ExactArgs(1),
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := viewer.Open(args[0])
			if err != nil {
				return err
			}
			defer doc.Close()

			payload := buildInspectPayload(args[0], doc)
			if asJSON {
				return writeJSON(cmd, payload)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Archive: %s\n", payload.Archive)
			fmt.Fprintf(out, "Format version: %d\n", payload.FormatVersion)
			fmt.Fprintf(out, "Layout: %s\n", payload.LayoutMode)
			fmt.Fprintf(out, "Pages: %d  Blocks: %d  Failed: %d\n", payload.PageCount, payload.BlockCount, payload.FailedBlocks)

			rows := make([][]string, 0, payload.BlockCount)
			for _, page := range doc.Pages() {
				for _, block := range page.Blocks {
					asset := block.AssetRef
					if block.Failed() {
						asset = "(render failed)"
					}
					rows = append(rows, []string{
						strconv.Itoa(block.SequenceIndex),
						string(block.Kind),
						strconv.Itoa(page.Number),
						yesNo(block.PageBreakBefore),
						asset,
					})
				}
			}
			fmt.Fprintln(out, renderTable(
				[]string{"#", "KIND", "PAGE", "BREAK", "ASSET"},
				rows,
				[]columnAlignment{alignRight, alignLeft, alignRight, alignLeft, alignLeft},
			))
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit machine-readable JSON")
	return cmd
}

func buildInspectPayload(path string, doc *viewer.Document) inspectPayload {
	failed := 0
	for _, block := range doc.Blocks() {
		if block.Failed() {
			failed++
		}
	}
	return inspectPayload{
		Archive:       path,
		FormatVersion: doc.FormatVersion(),
		LayoutMode:    doc.LayoutMode(),
		PageCount:     doc.PageCount(),
		BlockCount:    len(doc.Blocks()),
		FailedBlocks:  failed,
		Blocks:        doc.Blocks(),
	}
}
