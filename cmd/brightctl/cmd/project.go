package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/good-yellow-bee/brightminds/internal/client"
	"github.com/good-yellow-bee/brightminds/internal/models"
)

var (
	analyzeSave   bool
	extractOut    string
	progressTitle string
	progressState string
)

var projectAnalyzeCmd = &cobra.Command{
	Use:   "analyze <id>",
	Short: "Generate an analysis for a project",
	Long: `Generate the analysis narrative for a project from its stored fields.

With --save the analysis is written back to the project. Only one analysis
can be generated and saved at a time.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		c, err := gatedClient(ctx)
		if err != nil {
			return err
		}
		p, err := c.Projects().Get(ctx, args[0])
		if err != nil {
			return err
		}

		PrintVerbose("Generating analysis for %s...", p.StudentName)
		if !analyzeSave {
			text, err := c.Analyze(ctx, client.AnalysisInputFor(p))
			if err != nil {
				return err
			}
			fmt.Println(text)
			return nil
		}

		saved, err := c.AnalyzeAndSave(ctx, p)
		if err != nil {
			return err
		}
		fmt.Println(saved.Analysis)
		fmt.Printf("\nAnalysis saved to project %s.\n", saved.ID.Hex())
		return nil
	},
}

var projectExtractCmd = &cobra.Command{
	Use:   "extract <file>",
	Short: "Extract project fields from an IEP document",
	Long: `Upload a PDF, DOC or DOCX IEP document (up to 10MB) to the extraction
service and print the fields it found.

Save the output and pass it to 'project create --from-file' after review.`,
	Example: `  brightctl project extract iep.pdf --out ana.json
  brightctl project create --from-file ana.json`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := gatedClient(cmd.Context())
		if err != nil {
			return err
		}

		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer f.Close()

		raw, err := c.ExtractIEP(cmd.Context(), filepath.Base(args[0]), f)
		if err != nil {
			return err
		}

		var result struct {
			ProjectData json.RawMessage `json:"projectData"`
		}
		data := []byte(raw)
		if json.Unmarshal(raw, &result) == nil && len(result.ProjectData) > 0 {
			data = result.ProjectData
		}
		pretty, err := json.MarshalIndent(json.RawMessage(data), "", "  ")
		if err != nil {
			return err
		}

		if extractOut == "" {
			fmt.Println(string(pretty))
			return nil
		}
		if err := os.WriteFile(extractOut, append(pretty, '\n'), 0o600); err != nil {
			return err
		}
		fmt.Printf("Extracted fields written to %s.\n", extractOut)
		return nil
	},
}

var projectProgressCmd = &cobra.Command{
	Use:   "progress",
	Short: "Track progress items on a project",
}

var progressAddCmd = &cobra.Command{
	Use:   "add <project-id> <title>",
	Short: "Add a pending progress item",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := gatedClient(cmd.Context())
		if err != nil {
			return err
		}
		p, err := c.AddProgressItem(cmd.Context(), args[0], args[1])
		if err != nil {
			return err
		}
		return printRecord(p)
	},
}

var progressSetCmd = &cobra.Command{
	Use:   "set <project-id> <item-id>",
	Short: "Rename a progress item or change its status",
	Long: `Rename a progress item or change its status.

Statuses: pending, in_progress, completed.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		var in client.ProgressUpdate
		if cmd.Flags().Changed("title") {
			in.Title = &progressTitle
		}
		if cmd.Flags().Changed("status") {
			status := models.ProgressStatus(progressState)
			if !status.Valid() {
				return fmt.Errorf("invalid status %q", progressState)
			}
			in.Status = &status
		}
		if in.Title == nil && in.Status == nil {
			return fmt.Errorf("nothing to update, pass --title or --status")
		}

		c, err := gatedClient(cmd.Context())
		if err != nil {
			return err
		}
		p, err := c.UpdateProgressItem(cmd.Context(), args[0], args[1], in)
		if err != nil {
			return err
		}
		return printRecord(p)
	},
}

var progressRemoveCmd = &cobra.Command{
	Use:   "rm <project-id> <item-id>",
	Short: "Remove a progress item",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := gatedClient(cmd.Context())
		if err != nil {
			return err
		}
		p, err := c.DeleteProgressItem(cmd.Context(), args[0], args[1])
		if err != nil {
			return err
		}
		return printRecord(p)
	},
}

func init() {
	projectCmd := newRecordCommand(client.KindProjects, "project", "project")
	projectCmd.Long = `Commands for teachers' student projects (IEP records).

Every command requires a signed-in user who has accepted the beta terms.

Examples:
  brightctl project list
  brightctl project create --name Ana --age 8 --grade "3rd grade" --goals "read fluently"
  brightctl project analyze <id> --save
  brightctl project progress add <id> "Sight words"`

	projectCmd.AddCommand(projectAnalyzeCmd, projectExtractCmd, projectProgressCmd)
	projectProgressCmd.AddCommand(progressAddCmd, progressSetCmd, progressRemoveCmd)

	projectAnalyzeCmd.Flags().BoolVar(&analyzeSave, "save", false, "store the analysis on the project")
	projectExtractCmd.Flags().StringVar(&extractOut, "out", "", "write the extracted fields to a file")
	progressSetCmd.Flags().StringVar(&progressTitle, "title", "", "new title")
	progressSetCmd.Flags().StringVar(&progressState, "status", "", "new status")

	childCmd := newRecordCommand(client.KindChildren, "child", "child profile")
	childCmd.Long = `Commands for parents' child profiles.

Examples:
  brightctl child list
  brightctl child create --name Sam --age 7 --grade "2nd grade"`

	rootCmd.AddCommand(projectCmd, childCmd)
}
