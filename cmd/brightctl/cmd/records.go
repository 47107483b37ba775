package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/good-yellow-bee/brightminds/internal/client"
	"github.com/good-yellow-bee/brightminds/internal/models"
)

// recordFlags are the student fields accepted by create.
type recordFlags struct {
	fromFile       string
	name           string
	age            int
	grade          string
	presentLevels  string
	performance    string
	goals          string
	accommodations string
	services       []string
	parentSurvey   string
	notes          string
	set            []string
}

func (f *recordFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.fromFile, "from-file", "", "read the record from a JSON file (flags override its fields)")
	cmd.Flags().StringVar(&f.name, "name", "", "student name")
	cmd.Flags().IntVar(&f.age, "age", 0, "student age")
	cmd.Flags().StringVar(&f.grade, "grade", "", "grade level")
	cmd.Flags().StringVar(&f.presentLevels, "present-levels", "", "present levels of performance")
	cmd.Flags().StringVar(&f.performance, "performance", "", "current performance")
	cmd.Flags().StringVar(&f.goals, "goals", "", "goals")
	cmd.Flags().StringVar(&f.accommodations, "accommodations", "", "accommodations")
	cmd.Flags().StringSliceVar(&f.services, "services", nil, "related services (comma separated)")
	cmd.Flags().StringVar(&f.parentSurvey, "parent-survey", "", "parent survey notes")
	cmd.Flags().StringVar(&f.notes, "notes", "", "free-form notes")
}

// build assembles a record from --from-file and the flags that were set.
func (f *recordFlags) build(cmd *cobra.Command) (*models.Project, error) {
	p := &models.Project{}
	if f.fromFile != "" {
		data, err := os.ReadFile(f.fromFile)
		if err != nil {
			return nil, err
		}
		if err := json.Unmarshal(data, p); err != nil {
			return nil, fmt.Errorf("parse %s: %w", f.fromFile, err)
		}
	}

	changed := cmd.Flags().Changed
	if changed("name") {
		p.StudentName = f.name
	}
	if changed("age") {
		age := models.Age(f.age)
		p.StudentAge = &age
	}
	if changed("grade") {
		p.GradeLevel = f.grade
	}
	if changed("present-levels") {
		p.PresentLevels = f.presentLevels
	}
	if changed("performance") {
		p.CurrentPerformance = f.performance
	}
	if changed("goals") {
		p.Goals = f.goals
	}
	if changed("accommodations") {
		p.Accommodations = f.accommodations
	}
	if changed("services") {
		p.RelatedServices = f.services
	}
	if changed("parent-survey") {
		p.ParentSurvey = f.parentSurvey
	}
	if changed("notes") {
		p.Notes = f.notes
	}
	return p, nil
}

// parseFields turns key=value pairs into an update payload. Values that
// parse as JSON keep their JSON type; anything else is sent as a string.
func parseFields(pairs []string) (map[string]any, error) {
	fields := make(map[string]any, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid field %q, want key=value", pair)
		}

		var v any
		if err := json.Unmarshal([]byte(value), &v); err != nil {
			v = value
		}
		fields[key] = v
	}
	return fields, nil
}

// newRecordCommand builds the list/show/create/update/delete commands for
// projects or child profiles.
func newRecordCommand(kind client.Kind, use, noun string) *cobra.Command {
	records := func(c *client.Client) *client.Records {
		if kind == client.KindChildren {
			return c.Children()
		}
		return c.Projects()
	}

	root := &cobra.Command{
		Use:   use,
		Short: fmt.Sprintf("Manage %ss", noun),
	}

	list := &cobra.Command{
		Use:   "list",
		Short: fmt.Sprintf("List your %ss, newest first", noun),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := gatedClient(cmd.Context())
			if err != nil {
				return err
			}
			items, err := records(c).List(cmd.Context())
			if err != nil {
				return err
			}
			if isJSON() {
				return printJSON(items)
			}
			printRecordTable(items, noun)
			return nil
		},
	}

	show := &cobra.Command{
		Use:   "show <id>",
		Short: fmt.Sprintf("Show one %s", noun),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := gatedClient(cmd.Context())
			if err != nil {
				return err
			}
			p, err := records(c).Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printRecord(p)
		},
	}

	var flags recordFlags
	create := &cobra.Command{
		Use:   "create",
		Short: fmt.Sprintf("Create a %s", noun),
		Example: fmt.Sprintf(`  brightctl %s create --name Ana --age 8 --grade "3rd grade" --goals "read fluently"`, use),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := flags.build(cmd)
			if err != nil {
				return err
			}
			c, err := gatedClient(cmd.Context())
			if err != nil {
				return err
			}
			created, err := records(c).Create(cmd.Context(), p)
			if err != nil {
				return err
			}
			if isJSON() {
				return printJSON(created)
			}
			fmt.Printf("Created %s %s for %s.\n", noun, created.ID.Hex(), created.StudentName)
			return nil
		},
	}
	flags.register(create)

	var sets []string
	update := &cobra.Command{
		Use:   "update <id>",
		Short: fmt.Sprintf("Change fields of a %s", noun),
		Long: fmt.Sprintf(`Change top-level fields of a %s. Fields not named keep their values.

Values are parsed as JSON when possible, so numbers and lists keep their type.
Quote a value to force a string.`, noun),
		Example: fmt.Sprintf(`  brightctl %s update <id> --set goals="write a paragraph" --set studentAge=9
  brightctl %s update <id> --set 'relatedServices=["Speech","OT"]'`, use, use),
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fields, err := parseFields(sets)
			if err != nil {
				return err
			}
			if len(fields) == 0 {
				return fmt.Errorf("nothing to update, pass at least one --set key=value")
			}
			c, err := gatedClient(cmd.Context())
			if err != nil {
				return err
			}
			p, err := records(c).Update(cmd.Context(), args[0], fields)
			if err != nil {
				return err
			}
			return printRecord(p)
		},
	}
	update.Flags().StringArrayVar(&sets, "set", nil, "field to change as key=value (repeatable)")

	del := &cobra.Command{
		Use:   "delete <id>",
		Short: fmt.Sprintf("Delete a %s", noun),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := gatedClient(cmd.Context())
			if err != nil {
				return err
			}
			msg, err := records(c).Delete(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Println(msg)
			return nil
		},
	}

	root.AddCommand(list, show, create, update, del)
	return root
}

func printRecordTable(items []*models.Project, noun string) {
	if len(items) == 0 {
		fmt.Printf("No %ss found.\n", noun)
		return
	}

	fmt.Printf("\n%-24s  %-24s  %-5s  %-14s  %-12s  %s\n",
		"ID", "STUDENT", "AGE", "GRADE", "PROGRESS", "UPDATED")
	fmt.Println(strings.Repeat("-", 100))
	for _, p := range items {
		age := "-"
		if p.StudentAge != nil {
			age = fmt.Sprint(int(*p.StudentAge))
		}
		fmt.Printf("%-24s  %-24s  %-5s  %-14s  %-12s  %s\n",
			p.ID.Hex(),
			truncate(p.StudentName, 24),
			age,
			truncate(p.GradeLevel, 14),
			p.Progress,
			p.UpdatedAt.Format("2006-01-02 15:04"),
		)
	}
	fmt.Printf("\nTotal: %d %s(s)\n", len(items), noun)
}

func printRecord(p *models.Project) error {
	if isJSON() {
		return printJSON(p)
	}

	field := func(label, value string) {
		if value != "" {
			fmt.Printf("  %-20s %s\n", label+":", value)
		}
	}
	age := ""
	if p.StudentAge != nil {
		age = fmt.Sprint(int(*p.StudentAge))
	}

	fmt.Println()
	field("ID", p.ID.Hex())
	field("Student", p.StudentName)
	field("Age", age)
	field("Grade", p.GradeLevel)
	field("Present levels", p.PresentLevels)
	field("Performance", p.CurrentPerformance)
	field("Goals", p.Goals)
	field("Accommodations", p.Accommodations)
	field("Related services", strings.Join(p.RelatedServices, ", "))
	field("Notes", p.Notes)
	field("Progress", string(p.Progress))
	for _, item := range p.ProgressItems {
		fmt.Printf("    [%s] %s  (%s)\n", item.ID, item.Title, item.Status)
	}
	field("Updated", p.UpdatedAt.Format("2006-01-02 15:04"))
	if p.Analysis != "" {
		fmt.Printf("\n%s\n", p.Analysis)
	}
	return nil
}
