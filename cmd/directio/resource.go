package main

import (
	"fmt"

	"github.com/jmgilman/go/directio"
	"github.com/jmgilman/go/directio/pattern"
	"github.com/spf13/cobra"
)

func (a *app) resolveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "resolve <path>",
		Short: "Show the data source covering a logical path",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := a.repo.Resolve(args[0])
			if err != nil {
				return err
			}
			container, err := a.repo.ContainerPath(args[0])
			if err != nil {
				return err
			}
			component, err := a.repo.ComponentPath(args[0])
			if err != nil {
				return err
			}
			ds, err := a.repo.DataSource(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			location := ds.Path(component)

			result := struct {
				ID        string `json:"id"`
				Kind      string `json:"kind"`
				Container string `json:"container"`
				Component string `json:"component"`
				Location  string `json:"location"`
			}{d.ID, d.Kind, container, component, location}
			return a.print(cmd, result, func() {
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "data source: %s (%s)\n", d.ID, d.Kind)
				fmt.Fprintf(out, "container:   /%s\n", container)
				fmt.Fprintf(out, "component:   %s\n", component)
				fmt.Fprintf(out, "location:    %s\n", location)
			})
		},
	}
}

// target resolves a logical base path and a pattern with its variables.
func (a *app) target(cmd *cobra.Command, basePath, text string, vars map[string]string) (directio.DataSource, string, *pattern.Pattern, error) {
	ds, err := a.repo.DataSource(cmd.Context(), basePath)
	if err != nil {
		return nil, "", nil, err
	}
	component, err := a.repo.ComponentPath(basePath)
	if err != nil {
		return nil, "", nil, err
	}
	p, err := pattern.Compile(text)
	if err != nil {
		return nil, "", nil, err
	}
	if p, err = p.Resolve(vars); err != nil {
		return nil, "", nil, err
	}
	return ds, component, p, nil
}

func (a *app) listCommand() *cobra.Command {
	var vars map[string]string
	cmd := &cobra.Command{
		Use:   "list <base-path> <pattern>",
		Short: "List resources matching a pattern",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ds, component, p, err := a.target(cmd, args[0], args[1], vars)
			if err != nil {
				return err
			}
			infos, err := ds.List(cmd.Context(), component, p, nil)
			if err != nil {
				return err
			}
			if infos == nil {
				infos = []directio.ResourceInfo{}
			}
			return a.print(cmd, infos, func() {
				for _, info := range infos {
					if info.IsDirectory {
						fmt.Fprintf(cmd.OutOrStdout(), "%s/\n", info.Path)
						continue
					}
					fmt.Fprintf(cmd.OutOrStdout(), "%s\t%d\n", info.Path, info.Size)
				}
			})
		},
	}
	cmd.Flags().StringToStringVar(&vars, "arg", nil, "Pattern variable as name=value")
	return cmd
}

func (a *app) deleteCommand() *cobra.Command {
	var (
		vars      map[string]string
		recursive bool
	)
	cmd := &cobra.Command{
		Use:   "delete <base-path> <pattern>",
		Short: "Delete resources matching a pattern",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ds, component, p, err := a.target(cmd, args[0], args[1], vars)
			if err != nil {
				return err
			}
			counter := directio.NewCounter()
			deleted, err := ds.Delete(cmd.Context(), component, p, recursive, counter)
			if err != nil {
				return err
			}
			result := struct {
				Deleted bool  `json:"deleted"`
				Count   int64 `json:"count"`
			}{deleted, counter.Count()}
			return a.print(cmd, result, func() {
				if !deleted {
					fmt.Fprintln(cmd.OutOrStdout(), "nothing to delete")
					return
				}
				fmt.Fprintf(cmd.OutOrStdout(), "deleted %d resources\n", counter.Count())
			})
		},
	}
	cmd.Flags().StringToStringVar(&vars, "arg", nil, "Pattern variable as name=value")
	cmd.Flags().BoolVarP(&recursive, "recursive", "r", false, "Also delete matching directories and their contents")
	return cmd
}
