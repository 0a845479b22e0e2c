package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/CrestNiraj12/novaterm/app"
	"github.com/CrestNiraj12/novaterm/domain"
	"github.com/CrestNiraj12/novaterm/infra/auth"
	"github.com/CrestNiraj12/novaterm/infra/config"
	"github.com/CrestNiraj12/novaterm/infra/editor"
	"github.com/CrestNiraj12/novaterm/infra/novacom"
	"github.com/CrestNiraj12/novaterm/tui"
)

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	v, _, _ := resolvedRuntimeVersionInfo(version, commit, date)

	root := &cobra.Command{
		Use:           "novaterm",
		Short:         "Terminal client for NovaCom communities and direct messages",
		Version:       v,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runTUI(cmd.Context(), opts)
		},
	}
	root.CompletionOptions.DisableDefaultCmd = true
	root.SetVersionTemplate("novaterm {{.Version}}\n")
	root.PersistentFlags().BoolVar(&opts.demo, "demo", false, "use an in-process demo backend instead of the bridge")
	root.PersistentFlags().StringVar(&opts.metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address (overrides NOVATERM_METRICS_ADDR)")

	root.AddCommand(
		newVersionCmd(),
		newLoginCmd(opts),
		newLogoutCmd(),
		newTailCmd(opts),
	)
	return root
}

func runTUI(ctx context.Context, opts *rootOptions) error {
	rt, err := setup(ctx, opts, true)
	if err != nil {
		return err
	}
	defer rt.Close()

	ctrl := rt.controller()
	defer ctrl.Close()

	statePath := rt.cfg.StatePath
	if opts.demo {
		statePath = ""
	}
	var st config.UIState
	if statePath != "" {
		if st, err = config.LoadUIState(statePath); err != nil {
			rt.log.Warn("ignoring unreadable ui state", zap.Error(err))
			st = config.UIState{}
		}
	}

	model := tui.NewApp(tui.Deps{
		Engine:        ctrl,
		Directory:     novacom.NewDirectoryService(rt.caller, rt.viewerID),
		Editor:        editor.NewEnvEditor(),
		ViewerID:      rt.viewerID,
		InboxInterval: rt.cfg.InboxInterval,
		StatePath:     statePath,
		State:         st,
		Logger:        rt.log,
	})

	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithMouseCellMotion(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return err
	}
	return nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			v, c, d := resolvedRuntimeVersionInfo(version, commit, date)
			fmt.Fprintf(cmd.OutOrStdout(), "novaterm %s\ncommit: %s\nbuilt: %s\n", v, c, d)
		},
	}
}

func newLoginCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "login",
		Short: "Log in and remember the session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if opts.demo {
				return errors.New("demo mode needs no login")
			}
			rt, err := setup(cmd.Context(), opts, false)
			if err != nil {
				return err
			}
			defer rt.Close()

			out := cmd.OutOrStdout()
			in := bufio.NewReader(cmd.InOrStdin())

			fmt.Fprint(out, "Username: ")
			username, err := in.ReadString('\n')
			if err != nil && !errors.Is(err, io.EOF) {
				return fmt.Errorf("reading username: %w", err)
			}
			fmt.Fprint(out, "Password: ")
			password, err := readPassword(cmd.InOrStdin(), in)
			fmt.Fprintln(out)
			if err != nil {
				return fmt.Errorf("reading password: %w", err)
			}

			var authn app.Authenticator = novacom.NewAuthenticator(rt.caller)
			id, err := authn.Login(cmd.Context(), strings.TrimSpace(username), password)
			if err != nil {
				if errors.Is(err, domain.ErrUnauthorized) {
					return errors.New("invalid username or password")
				}
				return err
			}
			if err := auth.NewFileSession(rt.cfg.SessionPath).Save(id); err != nil {
				return err
			}
			fmt.Fprintf(out, "Logged in as user %s.\n", id)
			return nil
		},
	}
}

// readPassword reads without echo from a terminal, or a plain line otherwise.
func readPassword(raw io.Reader, buffered *bufio.Reader) (string, error) {
	if f, ok := raw.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		b, err := term.ReadPassword(int(f.Fd()))
		return string(b), err
	}
	line, err := buffered.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if err := auth.NewFileSession(cfg.SessionPath).Clear(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Logged out.")
			return nil
		},
	}
}

func newTailCmd(opts *rootOptions) *cobra.Command {
	var once bool
	cmd := &cobra.Command{
		Use:   "tail <conversation>",
		Short: "Print a conversation and follow new messages",
		Long: `Print the live page of a conversation, then every new message as it arrives.
Conversations are written as community:<id> or dm:<user id>; a bare id is a community.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			conv, err := domain.ParseConversationID(args[0])
			if err != nil {
				return err
			}
			rt, err := setup(cmd.Context(), opts, true)
			if err != nil {
				return err
			}
			defer rt.Close()

			ctrl := rt.controller()
			defer ctrl.Close()
			return tail(cmd.Context(), ctrl, conv, newTailPrinter(cmd.OutOrStdout(), rt.viewerID), cmd.ErrOrStderr(), once)
		},
	}
	cmd.Flags().BoolVar(&once, "once", false, "print the live page and exit")
	return cmd
}
