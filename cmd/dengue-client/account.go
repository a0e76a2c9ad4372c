package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Tom21-xd/Uceva-sub002/internal/api"
	"github.com/Tom21-xd/Uceva-sub002/internal/feature"
)

func loginCmd(get func() *app) *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and store the session",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if password == "" {
				password = os.Getenv("DENGUE_PASSWORD")
			}
			a := get()
			auth := feature.NewAuth(cmd.Context(), a.auth, a.session, a.logger)
			defer auth.Dispose()
			u, err := auth.Login(cmd.Context(), email, password)
			if err != nil {
				return errors.New(api.UserMessage(err))
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Bienvenido %s %s (%s)\n", u.FirstName, u.LastName, u.RoleName)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password (default $DENGUE_PASSWORD)")
	return cmd
}

func logoutCmd(get func() *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := get()
			auth := feature.NewAuth(cmd.Context(), a.auth, a.session, a.logger)
			defer auth.Dispose()
			return auth.Logout(cmd.Context())
		},
	}
}

func permissionsCmd(get func() *app) *cobra.Command {
	return &cobra.Command{
		Use:   "permissions",
		Short: "List the permission codes of the current user",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := get()
			perms := feature.NewPermissions(cmd.Context(), a.permissions, a.session, a.logger)
			defer perms.Dispose()
			if err := perms.Ensure(cmd.Context()); err != nil {
				return errors.New(api.UserMessage(err))
			}
			for _, code := range perms.Codes() {
				fmt.Fprintln(cmd.OutOrStdout(), code)
			}
			return nil
		},
	}
}

func rethusCmd(get func() *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rethus",
		Short: "RETHUS professional registry",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "check <message>",
		Short: "Classify a registry response message",
		Args:  cobra.MinimumNArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			printRethus(cmd, feature.IsRethusRegistered(strings.Join(args, " ")))
		},
	}, &cobra.Command{
		Use:   "lookup <document-type> <document>",
		Short: "Look a document up in the registry",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := get()
			reg := feature.NewRegistration(cmd.Context(), a.auth, a.logger)
			defer reg.Dispose()
			reg.Edit(func(d *feature.RegistrationDraft) {
				d.DocumentType = args[0]
				d.Document = args[1]
			})
			ok, err := reg.CheckRethus(cmd.Context())
			if err != nil {
				return errors.New(api.UserMessage(err))
			}
			printRethus(cmd, ok)
			return nil
		},
	})
	return cmd
}

func printRethus(cmd *cobra.Command, registered bool) {
	if registered {
		fmt.Fprintln(cmd.OutOrStdout(), "Inscrito en RETHUS")
		return
	}
	fmt.Fprintln(cmd.OutOrStdout(), "No se encuentra inscrito en RETHUS")
}

func whoamiCmd(get func() *app) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the current user",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := get()
			profile := feature.NewProfile(cmd.Context(), a.users, a.logger)
			defer profile.Dispose()
			if err := profile.Refresh(cmd.Context()); err != nil {
				return errors.New(api.UserMessage(err))
			}
			s := profile.State()
			u := s.User.Data
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s %s <%s>\n", u.FirstName, u.LastName, u.Email)
			fmt.Fprintf(out, "Rol: %s  Municipio: %s\n", u.RoleName, u.CityName)
			if s.Age >= 0 {
				fmt.Fprintf(out, "Edad: %d  Grupo etario: %d\n", s.Age, s.AgeGroup)
			}
			return nil
		},
	}
}

func quizCmd(get func() *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "quiz",
		Short: "Training quizzes",
	}
	var answers []string
	start := &cobra.Command{
		Use:   "start <quiz-id>",
		Short: "Start an attempt; with --answer question=answer for every question it is submitted",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			quizID, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid quiz id %q", args[0])
			}
			a := get()
			ctx := cmd.Context()
			quiz := feature.NewQuiz(ctx, a.quizzes, a.logger)
			defer quiz.Dispose()
			if err := quiz.Start(ctx, quizID); err != nil {
				return errors.New(api.UserMessage(err))
			}

			out := cmd.OutOrStdout()
			attempt := quiz.State().Attempt.Data
			fmt.Fprintf(out, "Intento %d\n", attempt.ID)
			for _, q := range attempt.Questions {
				fmt.Fprintf(out, "[%d] %s\n", q.ID, q.Text)
				for _, ans := range q.Answers {
					fmt.Fprintf(out, "    (%d) %s\n", ans.ID, ans.Text)
				}
			}
			if len(answers) == 0 {
				return nil
			}

			for _, pair := range answers {
				qid, aid, err := parseAnswer(pair)
				if err != nil {
					return err
				}
				if err := quiz.Select(qid, aid); err != nil {
					return err
				}
			}
			res, err := quiz.Submit(ctx)
			if err != nil {
				return errors.New(api.UserMessage(err))
			}
			fmt.Fprintf(out, "Puntaje: %.0f%% (%d/%d)\n", res.Score, res.Correct, res.Total)
			if res.Passed {
				if c := quiz.State().Certificate; c.Loaded() {
					fmt.Fprintf(out, "Certificado: %s\n", c.Data.Code)
				}
			}
			return nil
		},
	}
	start.Flags().StringArrayVar(&answers, "answer", nil, "question=answer selection")
	cmd.AddCommand(start)
	return cmd
}

func parseAnswer(pair string) (int, int, error) {
	q, a, ok := strings.Cut(pair, "=")
	if !ok {
		return 0, 0, fmt.Errorf("invalid --answer %q, want question=answer", pair)
	}
	qid, err := strconv.Atoi(strings.TrimSpace(q))
	if err != nil {
		return 0, 0, fmt.Errorf("invalid question id in %q", pair)
	}
	aid, err := strconv.Atoi(strings.TrimSpace(a))
	if err != nil {
		return 0, 0, fmt.Errorf("invalid answer id in %q", pair)
	}
	return qid, aid, nil
}
