package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func (a *app) submitCmd() *cobra.Command {
	var file string
	var yes bool

	command := &cobra.Command{
		Use:   "submit",
		Short: "Edit and submit a job",
		Long: `Edit a job in the submission form and submit it.

With --file the form starts from an existing job protocol (protocolVersion 2).
With --file and --yes the protocol is submitted as is, without the form.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.requireLogin(); err != nil {
				return err
			}

			var protocol *JobProtocol
			if file != "" {
				data, err := os.ReadFile(file)
				if err != nil {
					return errors.Wrap(err, "read job file")
				}
				protocol, err = ParseProtocol(data)
				if err != nil {
					return err
				}
			}

			if yes {
				if protocol == nil {
					return errors.New("--yes needs --file")
				}
				return a.submitProtocol(cmd, protocol)
			}

			model := newSubmissionModel(a.client(), a.logout(), log.StandardLogger(), submissionOptions{
				User:     a.config.User,
				Advanced: a.config.Advanced,
				Protocol: protocol,
			})
			return runProgram(model)
		},
	}
	command.Flags().StringVarP(&file, "file", "f", "", "Job protocol YAML to start from")
	command.Flags().BoolVarP(&yes, "yes", "y", false, "Submit the --file protocol without opening the form")
	return command
}

// submitProtocol re-validates an imported protocol through the form model
// before sending it
func (a *app) submitProtocol(cmd *cobra.Command, protocol *JobProtocol) error {
	info, roles := protocol.FormState()
	rebuilt, err := BuildProtocol(info, roles)
	if err != nil {
		return err
	}
	data, err := rebuilt.Encode()
	if err != nil {
		return err
	}

	err = a.client().SubmitJob(cmd.Context(), data)
	if IsUnauthorized(err) {
		a.logout()()
		return errors.Wrap(err, "you have been logged out")
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Job %s has been submitted\n", rebuilt.Name)
	return nil
}

func (a *app) usersCmd() *cobra.Command {
	command := &cobra.Command{
		Use:   "users",
		Short: "List users and batch edit their passwords",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.requireLogin(); err != nil {
				return err
			}
			return runProgram(newUsersModel(a.client(), a.logout(), log.StandardLogger()))
		},
	}
	command.AddCommand(a.passwdCmd())
	return command
}

func (a *app) passwdCmd() *cobra.Command {
	var password string

	command := &cobra.Command{
		Use:   "passwd USER...",
		Short: "Set the same password on several users, one at a time",
		Long: `Set the same password on several users, one at a time.

The first failure stops the batch. Users updated before it keep the new password.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.requireLogin(); err != nil {
				return err
			}
			if msg := checkPassword(password); msg != "" {
				return errors.New(msg)
			}

			client := a.client()
			all, err := client.ListUsers(cmd.Context())
			if err != nil {
				if IsUnauthorized(err) {
					a.logout()()
				}
				return err
			}
			users, err := pickUsers(all, args)
			if err != nil {
				return err
			}

			applied, failure := summarizePasswordUpdates(updatePasswords(cmd.Context(), client, users, password))
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Updated %d of %d user(s)\n", applied, len(users))
			if failure != nil {
				if IsUnauthorized(failure.Err) {
					a.logout()()
				}
				return failure.Err
			}
			fmt.Fprintln(out, "Update passwords successfully")
			return nil
		},
	}
	command.Flags().StringVarP(&password, "password", "p", "", "New password")
	return command
}

// pickUsers returns the named users in the order they were named
func pickUsers(all []User, names []string) ([]User, error) {
	byName := make(map[string]User, len(all))
	for _, u := range all {
		byName[u.Username] = u
	}
	users := make([]User, 0, len(names))
	for _, name := range names {
		u, ok := byName[name]
		if !ok {
			return nil, errors.Errorf("unknown user %s", name)
		}
		users = append(users, u)
	}
	return users, nil
}

func (a *app) loginCmd() *cobra.Command {
	var password string

	command := &cobra.Command{
		Use:   "login",
		Short: "Log in and store the token in the session file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.config.User == "" {
				return errors.New("--user is required")
			}
			if password == "" {
				fmt.Fprint(cmd.OutOrStdout(), "Password: ")
				line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				if err != nil && line == "" {
					return errors.Wrap(err, "read password")
				}
				password = strings.TrimRight(line, "\r\n")
			}

			client := NewClient(a.config.RestServerURI, "", a.config.RequestTimeout, log.StandardLogger())
			token, err := client.Login(cmd.Context(), a.config.User, password)
			if err != nil {
				return err
			}
			err = a.config.sessionStore().Save(Session{
				RestServerURI: a.config.RestServerURI,
				User:          a.config.User,
				Token:         token,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s\n", a.config.User)
			return nil
		},
	}
	command.Flags().StringVarP(&password, "password", "p", "", "Password, read from stdin when omitted")
	return command
}

func (a *app) logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Remove the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.config.sessionStore().Clear(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Logged out")
			return nil
		},
	}
}

func (a *app) pluginCmd() *cobra.Command {
	var markup string

	command := &cobra.Command{
		Use:   "plugin",
		Short: "Mount the job submission plugin described by host markup",
		Long: `Read host markup containing a <pai-plugin> element and mount the job
submission form with the element's pai-rest-server-uri, pai-user and
pai-rest-server-token attributes.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			in := cmd.InOrStdin()
			if markup != "" && markup != "-" {
				f, err := os.Open(markup)
				if err != nil {
					return errors.Wrap(err, "open markup")
				}
				defer f.Close()
				in = f
			}

			element, err := LoadPluginElement(in, a.config, a.mountSubmission, log.StandardLogger())
			if err != nil {
				return err
			}
			element.WithProgramOptions(tea.WithAltScreen(), tea.WithMouseCellMotion())
			return runPluginElement(cmd.Context(), element)
		},
	}
	command.Flags().StringVarP(&markup, "markup", "m", "-", "Host markup file, - for stdin")
	return command
}

func (a *app) mountSubmission(props PluginProps) tea.Model {
	logger := log.StandardLogger()
	if props.SubmissionID < 0 {
		logger.Warn("job submission plugin is not in the plugin list")
	}
	client := NewClient(props.API, props.Token, a.config.RequestTimeout, logger)
	// the host owns the token, so an unauthorized response only ends the program
	return newSubmissionModel(client, nil, logger, submissionOptions{
		User:     props.User,
		Advanced: a.config.Advanced,
	})
}

func runPluginElement(ctx context.Context, element *PluginElement) error {
	if err := element.Connect(ctx); err != nil {
		return err
	}
	waitErr := element.Wait()
	if err := element.Disconnect(); err != nil {
		return err
	}
	if errors.Is(waitErr, tea.ErrProgramKilled) {
		return nil
	}
	return waitErr
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		// no config needed
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version)
		},
	}
}
