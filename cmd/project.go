package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/tara-vision/codeforge/internal/storage"
)

var (
	projectFolders []string
	pickFlag       bool
)

var projectCmd = &cobra.Command{
	Use:     "project",
	Aliases: []string{"projects"},
	Short:   "Manage projects (a root folder plus the folders sent as context)",
}

var projectAddCmd = &cobra.Command{
	Use:   "add <name> <root>",
	Short: "Register a project; update.sh is written to its root",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}

		root, err := absDir(args[1])
		if err != nil {
			return err
		}
		folders, err := resolveFolders(a, root, projectFolders, nil)
		if err != nil {
			return err
		}

		p, err := a.store.CreateProject(args[0], root, folders)
		if err != nil {
			return err
		}
		fmt.Println(a.renderer.SuccessMessage(fmt.Sprintf("Project %q created (%s)", p.Name, p.ID)))
		return nil
	},
}

var projectListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List projects and their scopes",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		scopes, err := a.store.ListScopes("")
		if err != nil {
			return err
		}
		fmt.Print(a.renderer.FormatProjects(a.store.ListProjects(), scopes))
		fmt.Println()
		return nil
	},
}

var projectRmCmd = &cobra.Command{
	Use:     "rm <project>",
	Aliases: []string{"remove", "delete"},
	Short:   "Delete a project and its scopes",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		if err := a.store.DeleteProject(args[0]); err != nil {
			return err
		}
		fmt.Println(a.renderer.SuccessMessage(fmt.Sprintf("Project %q deleted", args[0])))
		return nil
	},
}

var projectFoldersCmd = &cobra.Command{
	Use:   "set-folders <project> [folders...]",
	Short: "Replace the folders a project sends as context",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		p, err := a.store.GetProject(args[0])
		if err != nil {
			return err
		}
		folders, err := resolveFolders(a, p.RootFolder, args[1:], p.Folders)
		if err != nil {
			return err
		}
		p.Folders = folders
		if _, err := a.store.UpdateProject(*p); err != nil {
			return err
		}
		fmt.Println(a.renderer.SuccessMessage(fmt.Sprintf("Project %q now uses %d folders", p.Name, len(folders))))
		return nil
	},
}

var scopeCmd = &cobra.Command{
	Use:     "scope",
	Aliases: []string{"scopes"},
	Short:   "Manage scopes (named folder subsets of a project)",
}

var scopeAddCmd = &cobra.Command{
	Use:   "add <project> <name> [folders...]",
	Short: "Create a scope within a project",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		p, err := a.store.GetProject(args[0])
		if err != nil {
			return err
		}
		folders, err := resolveFolders(a, p.RootFolder, args[2:], nil)
		if err != nil {
			return err
		}
		s, err := a.store.CreateScope(p.ID, args[1], folders)
		if err != nil {
			return err
		}
		fmt.Println(a.renderer.SuccessMessage(fmt.Sprintf("Scope %q created in %q (%s)", s.Name, p.Name, s.ID)))
		return nil
	},
}

var scopeListCmd = &cobra.Command{
	Use:     "list [project]",
	Aliases: []string{"ls"},
	Short:   "List scopes, optionally for one project",
	Args:    cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}

		projects := a.store.ListProjects()
		ref := ""
		if len(args) == 1 {
			p, err := a.store.GetProject(args[0])
			if err != nil {
				return err
			}
			ref = p.ID
			projects = []storage.Project{*p}
		}
		scopes, err := a.store.ListScopes(ref)
		if err != nil {
			return err
		}
		fmt.Print(a.renderer.FormatProjects(projects, scopes))
		fmt.Println()
		return nil
	},
}

var scopeRmCmd = &cobra.Command{
	Use:     "rm <project> <scope>",
	Aliases: []string{"remove", "delete"},
	Short:   "Delete a scope",
	Args:    cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		t, err := a.store.ResolveTarget(args[0], args[1])
		if err != nil {
			return err
		}
		if err := a.store.DeleteScope(t.Scope.ID); err != nil {
			return err
		}
		fmt.Println(a.renderer.SuccessMessage(fmt.Sprintf("Scope %q deleted", t.Scope.Name)))
		return nil
	},
}

var scopeFoldersCmd = &cobra.Command{
	Use:   "set-folders <project> <scope> [folders...]",
	Short: "Replace the folders of a scope",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		t, err := a.store.ResolveTarget(args[0], args[1])
		if err != nil {
			return err
		}
		folders, err := resolveFolders(a, t.Project.RootFolder, args[2:], t.Scope.Folders)
		if err != nil {
			return err
		}
		scope := *t.Scope
		scope.Folders = folders
		if _, err := a.store.UpdateScope(scope); err != nil {
			return err
		}
		fmt.Println(a.renderer.SuccessMessage(fmt.Sprintf("Scope %q now uses %d folders", scope.Name, len(folders))))
		return nil
	},
}

func init() {
	projectAddCmd.Flags().StringSliceVarP(&projectFolders, "folder", "f", nil, "context folders (default: the root)")
	for _, c := range []*cobra.Command{projectAddCmd, projectFoldersCmd, scopeAddCmd, scopeFoldersCmd} {
		c.Flags().BoolVar(&pickFlag, "pick", false, "choose folders interactively")
	}

	projectCmd.AddCommand(projectAddCmd, projectListCmd, projectRmCmd, projectFoldersCmd)
	scopeCmd.AddCommand(scopeAddCmd, scopeListCmd, scopeRmCmd, scopeFoldersCmd)
	rootCmd.AddCommand(projectCmd, scopeCmd)
}

// resolveFolders returns --pick results or the given folders made absolute against root
func resolveFolders(a *app, root string, folders, preselected []string) ([]string, error) {
	if pickFlag {
		return pickFolders(root, a.current().Policy(), preselected)
	}

	out := make([]string, 0, len(folders))
	for _, f := range folders {
		if !filepath.IsAbs(f) {
			f = filepath.Join(root, f)
		}
		if _, err := os.Stat(f); err != nil {
			fmt.Fprintln(os.Stderr, a.renderer.WarningMessage(fmt.Sprintf("%s does not exist yet", f)))
		}
		out = append(out, filepath.Clean(f))
	}
	return out, nil
}

// absDir makes path absolute and checks it is a directory
func absDir(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", fmt.Errorf("root folder: %w", err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("root folder %s is not a directory", abs)
	}
	return abs, nil
}
