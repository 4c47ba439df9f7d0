package main

import (
	"io"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// app is the state shared by every command once the config is loaded
type app struct {
	v      *viper.Viper
	config Config
	closer io.Closer
}

func newRootCmd() *cobra.Command {
	a := &app{v: viper.New()}

	command := &cobra.Command{
		Use:          "paitui",
		Short:        "Submit jobs and manage users of an OpenPAI cluster from the terminal",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.load(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.closer != nil {
				a.closer.Close()
			}
		},
	}
	addConfigFlags(command.PersistentFlags())

	command.AddCommand(
		a.submitCmd(),
		a.usersCmd(),
		a.loginCmd(),
		a.logoutCmd(),
		a.pluginCmd(),
		versionCmd(),
	)
	return command
}

func (a *app) load(cmd *cobra.Command) error {
	if err := bindFlags(a.v, cmd.Flags()); err != nil {
		return err
	}
	configFile, _ := cmd.Flags().GetString("config")
	config, err := LoadConfig(a.v, configFile)
	if err != nil {
		return err
	}

	session, err := config.sessionStore().Load()
	if err != nil {
		return err
	}
	config = config.withSession(session)
	if err := config.validate(); err != nil {
		return err
	}

	closer, err := configureLogging(config)
	if err != nil {
		return err
	}
	a.config = config
	a.closer = closer
	log.WithFields(log.Fields{
		"command":         cmd.CommandPath(),
		"rest_server_uri": config.RestServerURI,
		"user":            config.User,
	}).Debug("config loaded")
	return nil
}

func (a *app) client() *Client {
	return NewClient(a.config.RestServerURI, a.config.Token, a.config.RequestTimeout, log.StandardLogger())
}

func (a *app) logout() func() {
	return a.config.sessionStore().logoutFunc(log.StandardLogger())
}

func (a *app) requireLogin() error {
	if a.config.Token == "" {
		return errors.New("not logged in, run paitui login first")
	}
	return nil
}

// runProgram starts a full screen program and waits for it to quit
func runProgram(model tea.Model, opts ...tea.ProgramOption) error {
	opts = append([]tea.ProgramOption{tea.WithAltScreen(), tea.WithMouseCellMotion()}, opts...)
	p := tea.NewProgram(model, opts...)
	if _, err := p.Run(); err != nil {
		return errors.Wrap(err, "run TUI")
	}
	return nil
}
