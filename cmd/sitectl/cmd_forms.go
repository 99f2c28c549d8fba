package main

import (
	"fmt"
	"io"

	"github.com/dhanavadh/eldercare-backend/internal/cms"
	"github.com/dhanavadh/eldercare-backend/internal/forms"
	"github.com/dhanavadh/eldercare-backend/internal/models"

	"github.com/spf13/cobra"
)

var formsFlags struct {
	page string
}

var formsCmd = &cobra.Command{
	Use:   "forms",
	Short: "Show the forms attached to a page in render order",
	RunE:  runForms,
}

func init() {
	formsCmd.Flags().StringVar(&formsFlags.page, "page", "", "Page slug (required)")
	_ = formsCmd.MarkFlagRequired("page")
}

func runForms(cmd *cobra.Command, _ []string) error {
	defs, err := cms.NewClient(cfg.CMS).FormsForPage(cmd.Context(), formsFlags.page)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(defs) == 0 {
		fmt.Fprintf(out, "No forms on page %q\n", formsFlags.page)
		return nil
	}
	for _, def := range defs {
		printForm(out, def)
	}
	return nil
}

func printForm(out io.Writer, def models.FormDefinition) {
	fmt.Fprintf(out, "%s (%s)\n", def.Name, def.ID)
	fmt.Fprintf(out, "  Target: %s\n", def.SubmissionTarget)

	schema := forms.Build(def.Fields)
	if schema.Empty() {
		fmt.Fprintf(out, "  %s\n", forms.EmptyFormMessage)
		return
	}
	for i, f := range schema.Fields() {
		req := ""
		if f.Required {
			req = " required"
		}
		fmt.Fprintf(out, "  %d. %-24s %s%s\n", i+1, f.Name, f.Kind, req)
	}
	if dropped := len(def.Fields) - len(schema.Fields()); dropped > 0 {
		fmt.Fprintf(out, "  (%d field(s) skipped: empty name, unknown type or duplicate)\n", dropped)
	}
}
