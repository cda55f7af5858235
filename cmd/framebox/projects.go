package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/fyrsmithlabs/framebox/internal/hosting"
	"github.com/fyrsmithlabs/framebox/internal/tui"
)

var (
	listSearch string
	listLimit  int
	listJSON   bool

	createEntry string

	updateName  string
	updateEntry string

	deleteYes bool
)

func init() {
	projectsListCmd.Flags().StringVar(&listSearch, "search", "", "only projects whose name contains this text")
	projectsListCmd.Flags().IntVar(&listLimit, "limit", 0, "maximum number of projects (0 for the server default)")
	projectsListCmd.Flags().BoolVar(&listJSON, "json", false, "print JSON")

	projectsCreateCmd.Flags().StringVar(&createEntry, "entry", "", "entry file (default index.html)")

	projectsUpdateCmd.Flags().StringVar(&updateName, "name", "", "new project name")
	projectsUpdateCmd.Flags().StringVar(&updateEntry, "entry", "", "new entry file")

	projectsDeleteCmd.Flags().BoolVarP(&deleteYes, "yes", "y", false, "delete without asking")

	projectsCmd.AddCommand(projectsListCmd)
	projectsCmd.AddCommand(projectsGetCmd)
	projectsCmd.AddCommand(projectsCreateCmd)
	projectsCmd.AddCommand(projectsUpdateCmd)
	projectsCmd.AddCommand(projectsDeleteCmd)
	rootCmd.AddCommand(projectsCmd)
}

var projectsCmd = &cobra.Command{
	Use:     "projects",
	Aliases: []string{"project"},
	Short:   "Manage projects",
}

var projectsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List projects, newest first",
	Long: `List projects, newest first.

Examples:
  # All projects
  framebox projects list

  # Projects named like "landing", as JSON
  framebox projects list --search landing --json`,
	Args: cobra.NoArgs,
	RunE: runProjectsList,
}

var projectsGetCmd = &cobra.Command{
	Use:   "get ID_OR_NAME",
	Short: "Show one project",
	Args:  cobra.ExactArgs(1),
	RunE:  runProjectsGet,
}

var projectsCreateCmd = &cobra.Command{
	Use:   "create NAME",
	Short: "Create a project",
	Long: `Create a project.

Examples:
  framebox projects create landing
  framebox projects create docs --entry main.html`,
	Args: cobra.ExactArgs(1),
	RunE: runProjectsCreate,
}

var projectsUpdateCmd = &cobra.Command{
	Use:   "update ID",
	Short: "Rename a project or change its entry file",
	Args:  cobra.ExactArgs(1),
	RunE:  runProjectsUpdate,
}

var projectsDeleteCmd = &cobra.Command{
	Use:   "delete ID",
	Short: "Delete a project and all of its files",
	Long: `Delete a project and all of its files.

You are asked to confirm unless --yes is given. Declining sends nothing to
the server.`,
	Args: cobra.ExactArgs(1),
	RunE: runProjectsDelete,
}

func runProjectsList(cmd *cobra.Command, _ []string) error {
	projects, err := rt.client.ListProjects(cmd.Context(), hosting.ListOptions{
		Search: listSearch,
		Limit:  listLimit,
	})
	if err != nil {
		return fmt.Errorf("failed to load projects: %w", err)
	}

	out := cmd.OutOrStdout()
	if listJSON {
		return outputJSON(out, projects)
	}
	if len(projects) == 0 {
		fmt.Fprintln(out, "No projects found.")
		return nil
	}

	now := time.Now()
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tENTRY\tCREATED")
	for _, p := range projects {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", p.ID, p.Name, p.EntryFile, tui.FormatCreated(p.CreatedAt.Time, now))
	}
	return w.Flush()
}

func runProjectsGet(cmd *cobra.Command, args []string) error {
	p, err := rt.client.GetProject(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("failed to get project: %w", err)
	}
	printProject(cmd.OutOrStdout(), p)
	return nil
}

func runProjectsCreate(cmd *cobra.Command, args []string) error {
	p, err := rt.client.CreateProject(cmd.Context(), hosting.CreateProjectRequest{
		Name:      args[0],
		EntryFile: createEntry,
	})
	if err != nil {
		return fmt.Errorf("failed to create project: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Created project %s (%s)\n", p.Name, p.ID)
	return nil
}

func runProjectsUpdate(cmd *cobra.Command, args []string) error {
	var req hosting.UpdateProjectRequest
	if cmd.Flags().Changed("name") {
		req.Name = &updateName
	}
	if cmd.Flags().Changed("entry") {
		req.EntryFile = &updateEntry
	}
	if req.Name == nil && req.EntryFile == nil {
		return fmt.Errorf("nothing to update: pass --name or --entry")
	}

	p, err := rt.client.UpdateProject(cmd.Context(), args[0], req)
	if err != nil {
		return fmt.Errorf("failed to update project: %w", err)
	}
	printProject(cmd.OutOrStdout(), p)
	return nil
}

func runProjectsDelete(cmd *cobra.Command, args []string) error {
	id := args[0]
	out := cmd.OutOrStdout()

	if !deleteYes {
		ok, err := confirm(cmd.InOrStdin(), out, fmt.Sprintf("Delete project %s and all of its files?", id))
		if err != nil {
			return err
		}
		if !ok {
			fmt.Fprintln(out, "Aborted.")
			return nil
		}
	}

	if err := rt.client.DeleteProject(cmd.Context(), id); err != nil {
		return fmt.Errorf("failed to delete project: %w", err)
	}
	fmt.Fprintf(out, "Deleted project %s\n", id)
	return nil
}

// confirm asks a yes/no question. Anything but y or yes is a no.
func confirm(in io.Reader, out io.Writer, question string) (bool, error) {
	fmt.Fprintf(out, "%s [y/N]: ", question)
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && err != io.EOF {
		return false, fmt.Errorf("failed to read answer: %w", err)
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}

func printProject(out io.Writer, p *hosting.Project) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "ID:\t%s\n", p.ID)
	fmt.Fprintf(w, "Name:\t%s\n", p.Name)
	fmt.Fprintf(w, "Entry file:\t%s\n", p.EntryFile)
	fmt.Fprintf(w, "Created:\t%s\n", tui.FormatCreated(p.CreatedAt.Time, time.Now()))
	fmt.Fprintf(w, "Updated:\t%s\n", tui.FormatCreated(p.UpdatedAt.Time, time.Now()))
	_ = w.Flush()
}

func outputJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
