package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/kong-job/kong/pkg/driver"
)

// splitParentTail splits a path into its parent path and its last
// segment. An empty parent means "relative to cwd"; a parent of "/"
// means the root folder.
func splitParentTail(path string) (parent, tail string) {
	absolute := strings.HasPrefix(path, "/")
	trimmed := strings.TrimSuffix(path, "/")
	idx := strings.LastIndex(trimmed, "/")
	if idx < 0 {
		return "", trimmed
	}
	parent = trimmed[:idx]
	if parent == "" && absolute {
		parent = "/"
	}
	return parent, trimmed[idx+1:]
}

// confirmOnTerminal prompts y/N on stdin unless --yes was passed.
func confirmOnTerminal(cmd *cobra.Command) func(summary string) bool {
	yes, _ := cmd.Flags().GetBool("yes")
	if yes {
		return func(string) bool { return true }
	}
	return func(summary string) bool {
		fmt.Fprintf(os.Stdout, "%s — proceed? [y/N] ", summary)
		reader := bufio.NewReader(os.Stdin)
		line, _ := reader.ReadString('\n')
		return strings.EqualFold(strings.TrimSpace(line), "y")
	}
}

var mkdirCmd = &cobra.Command{
	Use:   "mkdir <path>",
	Short: "Create a folder",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, closeFn, err := buildSession(cmd)
		if err != nil {
			return err
		}
		defer closeFn()

		path := args[0]
		parent, tail := splitParentTail(path)
		var parentFolder = s.Cwd()
		if parent != "" {
			folders, err := s.ResolveFolders(cmd.Context(), parent)
			if err != nil {
				return err
			}
			if len(folders) != 1 {
				return fmt.Errorf("%q does not resolve to exactly one folder", parent)
			}
			parentFolder = folders[0]
		}
		f, err := s.Mkdir(cmd.Context(), parentFolder, tail)
		if err != nil {
			return err
		}
		fmt.Printf("created folder %q (id=%d)\n", f.Name, f.ID)
		return nil
	},
}

var lsCmd = &cobra.Command{
	Use:   "ls [path]",
	Short: "List a folder's children and jobs",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, closeFn, err := buildSession(cmd)
		if err != nil {
			return err
		}
		defer closeFn()

		folder := s.Cwd()
		if len(args) == 1 {
			folders, err := s.ResolveFolders(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if len(folders) != 1 {
				return fmt.Errorf("%q does not resolve to exactly one folder", args[0])
			}
			folder = folders[0]
		}

		children, jobs, err := s.Ls(cmd.Context(), folder)
		if err != nil {
			return err
		}
		for _, c := range children {
			fmt.Printf("%s/\n", c.Name)
		}
		for _, j := range jobs {
			fmt.Printf("%d\t%s\t%s\n", j.ID, j.Status, j.Command)
		}
		return nil
	},
}

var createJobCmd = &cobra.Command{
	Use:   "create-job <command...>",
	Short: "Create a job in the current folder",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, closeFn, err := buildSession(cmd)
		if err != nil {
			return err
		}
		defer closeFn()

		driverTag, _ := cmd.Flags().GetString("driver")
		cores, _ := cmd.Flags().GetInt("cores")
		memory, _ := cmd.Flags().GetInt64("memory")

		j, err := s.CreateJob(cmd.Context(), nil, driver.JobSpec{
			Command: strings.Join(args, " "),
			Cores:   cores,
			Memory:  memory,
		}, driverTag)
		if err != nil {
			return err
		}
		fmt.Printf("created job %d\n", j.ID)
		return nil
	},
}

func addSelectorFlags(c *cobra.Command) {
	c.Flags().Bool("recursive", false, "resolve a plain folder path to every job transitively under it")
	c.Flags().Bool("yes", false, "skip the confirmation prompt")
}

var submitCmd = &cobra.Command{
	Use:   "submit <selector>",
	Short: "Submit the jobs a selector resolves to",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, closeFn, err := buildSession(cmd)
		if err != nil {
			return err
		}
		defer closeFn()

		recursive, _ := cmd.Flags().GetBool("recursive")
		return s.Submit(cmd.Context(), args[0], recursive, confirmOnTerminal(cmd))
	},
}

var killCmd = &cobra.Command{
	Use:   "kill <selector>",
	Short: "Kill the jobs a selector resolves to",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, closeFn, err := buildSession(cmd)
		if err != nil {
			return err
		}
		defer closeFn()

		recursive, _ := cmd.Flags().GetBool("recursive")
		return s.Kill(cmd.Context(), args[0], recursive, confirmOnTerminal(cmd))
	},
}

var resubmitCmd = &cobra.Command{
	Use:   "resubmit <selector>",
	Short: "Resubmit the jobs a selector resolves to",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, closeFn, err := buildSession(cmd)
		if err != nil {
			return err
		}
		defer closeFn()

		recursive, _ := cmd.Flags().GetBool("recursive")
		failedOnly, _ := cmd.Flags().GetBool("failed-only")
		noSubmit, _ := cmd.Flags().GetBool("no-submit")
		return s.Resubmit(cmd.Context(), args[0], recursive, failedOnly, !noSubmit, confirmOnTerminal(cmd))
	},
}

var waitCmd = &cobra.Command{
	Use:   "wait <selector>",
	Short: "Wait for the jobs a selector resolves to reach a terminal status",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, closeFn, err := buildSession(cmd)
		if err != nil {
			return err
		}
		defer closeFn()

		recursive, _ := cmd.Flags().GetBool("recursive")
		poll, _ := cmd.Flags().GetDuration("poll")
		timeout, _ := cmd.Flags().GetDuration("timeout")

		jobs, err := s.Wait(cmd.Context(), args[0], recursive, poll, timeout)
		if err != nil {
			return err
		}
		for _, j := range jobs {
			fmt.Printf("%d\t%s\n", j.ID, j.Status)
		}
		return nil
	},
}

var statusCmd = &cobra.Command{
	Use:   "status <selector>",
	Short: "Refresh and print the status of the jobs a selector resolves to",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, closeFn, err := buildSession(cmd)
		if err != nil {
			return err
		}
		defer closeFn()

		recursive, _ := cmd.Flags().GetBool("recursive")
		jobs, err := s.ResolveJobs(cmd.Context(), args[0], recursive)
		if err != nil {
			return err
		}
		refreshed, err := s.Refresh(cmd.Context(), jobs)
		if err != nil {
			return err
		}
		for _, j := range refreshed {
			fmt.Printf("%d\t%s\t%s\n", j.ID, j.Status, j.Command)
		}
		return nil
	},
}

var rmCmd = &cobra.Command{
	Use:   "rm <selector>",
	Short: "Remove the folders/jobs a selector resolves to",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, closeFn, err := buildSession(cmd)
		if err != nil {
			return err
		}
		defer closeFn()

		recursive, _ := cmd.Flags().GetBool("recursive")
		return s.Remove(cmd.Context(), args[0], recursive, confirmOnTerminal(cmd))
	},
}

var mvCmd = &cobra.Command{
	Use:   "mv <src> <dest>",
	Short: "Move or rename a folder/job",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, closeFn, err := buildSession(cmd)
		if err != nil {
			return err
		}
		defer closeFn()

		return s.Move(cmd.Context(), args[0], args[1])
	},
}

func init() {
	addSelectorFlags(submitCmd)
	addSelectorFlags(killCmd)
	addSelectorFlags(resubmitCmd)
	resubmitCmd.Flags().Bool("failed-only", false, "only resubmit jobs currently in FAILED")
	resubmitCmd.Flags().Bool("no-submit", false, "reset jobs to CREATED without resubmitting them")
	addSelectorFlags(waitCmd)
	waitCmd.Flags().Duration("poll", 2*time.Second, "poll interval")
	waitCmd.Flags().Duration("timeout", 24*time.Hour, "wait timeout")
	statusCmd.Flags().Bool("recursive", false, "resolve a plain folder path to every job transitively under it")
	addSelectorFlags(rmCmd)

	createJobCmd.Flags().String("driver", "", "driver tag to route this job to (defaults to the configured default_driver)")
	createJobCmd.Flags().Int("cores", 1, "cores requested")
	createJobCmd.Flags().Int64("memory", 0, "memory requested, in bytes")
}
