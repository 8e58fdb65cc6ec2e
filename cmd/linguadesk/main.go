package main

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"linguadesk/internal/config"
	"linguadesk/internal/db"
	"linguadesk/internal/domain"
	"linguadesk/internal/engine"
	"linguadesk/internal/migrate"
	"linguadesk/internal/notify"
	"linguadesk/internal/repo"
	"linguadesk/internal/server"
)

var rootCmd = &cobra.Command{
	Use:   "linguadesk",
	Short: "Linguadesk CLI",
	Long: `Linguadesk runs the booking desk of an interpretation service.
- Workspace: the .linguadesk directory holding the SQLite database; linguadesk.yml next to it holds org and server settings.
- Requests: interpretation bookings submitted by clients; they start pending and an admin approves (assigning an interpreter and a price) or rejects with a reason.
- Interpreters: registered profiles with an admission status; only accepted interpreters can be assigned or sign in.
- Messages: the thread on an approved request between the desk and the assigned interpreter.
- Notifications: templated emails sent on submission, approval, rejection, payment requests, and new messages; every attempt is recorded.
- Event log: diary of changes, view with 'linguadesk log tail'.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		workspace := viper.GetString("workspace")
		if _, err := db.EnsureWorkspace(workspace); err != nil {
			return err
		}
		return nil
	},
}

func main() {
	cobra.OnInitialize(initConfig)
	addPersistentFlags()
	registerCommands()
	if err := rootCmd.Execute(); err != nil {
		fmt.Println("error:", err)
		os.Exit(1)
	}
}

func initConfig() {
	viper.SetEnvPrefix("LINGUADESK")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

func addPersistentFlags() {
	rootCmd.PersistentFlags().StringP("workspace", "w", ".", "workspace directory")
	rootCmd.PersistentFlags().Bool("json", false, "output JSON")
	rootCmd.PersistentFlags().String("actor-id", "local-admin", "actor identifier")
	_ = viper.BindPFlag("workspace", rootCmd.PersistentFlags().Lookup("workspace"))
	_ = viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
	_ = viper.BindPFlag("actor-id", rootCmd.PersistentFlags().Lookup("actor-id"))
}

func registerCommands() {
	rootCmd.AddCommand(requestCmd())
	rootCmd.AddCommand(interpreterCmd())
	rootCmd.AddCommand(messageCmd())
	rootCmd.AddCommand(notificationCmd())
	rootCmd.AddCommand(apikeyCmd())
	rootCmd.AddCommand(tokenCmd())
	rootCmd.AddCommand(configCmd())
	rootCmd.AddCommand(logCmd())
	rootCmd.AddCommand(serveCmd())
}

func requestCmd() *cobra.Command {
	req := &cobra.Command{
		Use:   "request",
		Short: "Manage interpretation requests",
		Long:  "Requests flow pending -> accepted/rejected. Approving assigns an interpreter and a price; rejecting records a reason. Both are final.",
	}
	req.AddCommand(requestSubmitCmd())
	req.AddCommand(requestListCmd())
	req.AddCommand(requestShowCmd())
	req.AddCommand(requestApproveCmd())
	req.AddCommand(requestRejectCmd())
	req.AddCommand(requestPayCmd())
	return req
}

func requestSubmitCmd() *cobra.Command {
	var opts engine.SubmitOptions
	cmd := &cobra.Command{
		Use:   "submit",
		Short: "Submit an interpretation request",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				r, err := e.SubmitRequest(ctx, opts)
				if err != nil {
					return err
				}
				return printJSONOrTable(r)
			})
		},
	}
	cmd.Flags().StringVar(&opts.FullName, "full-name", "", "requester full name")
	cmd.Flags().StringVar(&opts.Email, "email", "", "requester email")
	cmd.Flags().StringVar(&opts.Phone, "phone", "", "requester phone")
	cmd.Flags().StringVar(&opts.PreferredContactMethod, "contact-method", "email", "preferred contact method")
	cmd.Flags().StringVar(&opts.LanguageFrom, "from", "", "source language")
	cmd.Flags().StringVar(&opts.LanguageTo, "to", "", "target language")
	cmd.Flags().StringVar(&opts.ServiceType, "service-type", "", "service type")
	cmd.Flags().StringVar(&opts.ScheduledAt, "scheduled-at", "", "appointment time (RFC 3339)")
	cmd.Flags().StringVar(&opts.Location, "location", "", "location")
	cmd.Flags().IntVar(&opts.DurationMinutes, "duration", 60, "duration in minutes")
	cmd.Flags().StringVar(&opts.InterpreterType, "interpreter-type", "", "interpreter type")
	cmd.Flags().StringVar(&opts.SpecialRequirements, "special-requirements", "", "special requirements")
	cmd.Flags().StringVar(&opts.Reason, "reason", "", "reason for the request")
	cmd.Flags().StringVar(&opts.UrgencyLevel, "urgency", "medium", "urgency level (low, medium, high)")
	cmd.Flags().StringVar(&opts.AdditionalNotes, "notes", "", "additional notes")
	_ = cmd.MarkFlagRequired("full-name")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func requestListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List requests",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				items, err := e.ListRequests(ctx)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(items)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"ID", "Name", "Languages", "Scheduled", "Status", "Interpreter"})
				for _, r := range items {
					interp := ""
					if r.InterpreterID != nil {
						interp = *r.InterpreterID
					}
					tw.AppendRow(table.Row{r.ID, r.FullName, r.LanguageFrom + " -> " + r.LanguageTo, r.ScheduledAt, r.Status, interp})
				}
				tw.Render()
				return nil
			})
		},
	}
	return cmd
}

func requestShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show a request",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				r, err := e.GetRequest(ctx, args[0])
				if err != nil {
					return err
				}
				return printJSONOrTable(r)
			})
		},
	}
	return cmd
}

func requestApproveCmd() *cobra.Command {
	var interpreterID string
	var amount int64
	cmd := &cobra.Command{
		Use:   "approve <id>",
		Short: "Approve a request and assign an interpreter",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				r, err := e.ApproveRequest(ctx, args[0], interpreterID, amount, viper.GetString("actor-id"))
				if err != nil {
					return err
				}
				return printJSONOrTable(r)
			})
		},
	}
	cmd.Flags().StringVar(&interpreterID, "interpreter", "", "interpreter id to assign")
	cmd.Flags().Int64Var(&amount, "amount", 0, "price in minor currency units")
	_ = cmd.MarkFlagRequired("interpreter")
	_ = cmd.MarkFlagRequired("amount")
	return cmd
}

func requestRejectCmd() *cobra.Command {
	var reason string
	cmd := &cobra.Command{
		Use:   "reject <id>",
		Short: "Reject a request",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				r, err := e.RejectRequest(ctx, args[0], reason, viper.GetString("actor-id"))
				if err != nil {
					return err
				}
				return printJSONOrTable(r)
			})
		},
	}
	cmd.Flags().StringVar(&reason, "reason", "", "rejection reason")
	_ = cmd.MarkFlagRequired("reason")
	return cmd
}

func requestPayCmd() *cobra.Command {
	var amount int64
	cmd := &cobra.Command{
		Use:   "pay <id>",
		Short: "Send a payment request notification",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				if err := e.RequestPayment(ctx, args[0], amount, viper.GetString("actor-id")); err != nil {
					return err
				}
				fmt.Println("payment request sent")
				return nil
			})
		},
	}
	cmd.Flags().Int64Var(&amount, "amount", 0, "amount in minor currency units")
	_ = cmd.MarkFlagRequired("amount")
	return cmd
}

func interpreterCmd() *cobra.Command {
	it := &cobra.Command{
		Use:   "interpreter",
		Short: "Manage interpreter profiles",
		Long:  "Interpreters register with a pending admission status. Only accepted interpreters can be assigned to requests or sign in.",
	}
	it.AddCommand(interpreterAddCmd())
	it.AddCommand(interpreterListCmd())
	it.AddCommand(interpreterShowCmd())
	it.AddCommand(interpreterSetStatusCmd())
	return it
}

func interpreterAddCmd() *cobra.Command {
	var opts engine.InterpreterOptions
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Register an interpreter profile",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				it, err := e.CreateInterpreter(ctx, opts, viper.GetString("actor-id"))
				if err != nil {
					return err
				}
				return printJSONOrTable(it)
			})
		},
	}
	cmd.Flags().StringVar(&opts.Name, "name", "", "full name")
	cmd.Flags().StringVar(&opts.Email, "email", "", "email")
	cmd.Flags().StringVar(&opts.Phone, "phone", "", "phone")
	cmd.Flags().StringVar(&opts.Country, "country", "", "country")
	cmd.Flags().StringArrayVar(&opts.Languages, "language", []string{}, "working language (repeatable)")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func interpreterListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List interpreters",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				items, err := e.ListInterpreters(ctx)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(items)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"ID", "Name", "Email", "Country", "Languages", "Status"})
				for _, it := range items {
					tw.AppendRow(table.Row{it.ID, it.Name, it.Email, it.Country, strings.Join(it.Languages, ", "), it.Status})
				}
				tw.Render()
				return nil
			})
		},
	}
	return cmd
}

func interpreterShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show an interpreter",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				it, err := e.GetInterpreter(ctx, args[0])
				if err != nil {
					return err
				}
				return printJSONOrTable(it)
			})
		},
	}
	return cmd
}

func interpreterSetStatusCmd() *cobra.Command {
	var status string
	cmd := &cobra.Command{
		Use:   "set-status <id>",
		Short: "Update admission status",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				it, err := e.SetInterpreterStatus(ctx, args[0], status, viper.GetString("actor-id"))
				if err != nil {
					return err
				}
				return printJSONOrTable(it)
			})
		},
	}
	cmd.Flags().StringVar(&status, "status", "", "new status (pending, accepted, rejected)")
	_ = cmd.MarkFlagRequired("status")
	return cmd
}

func messageCmd() *cobra.Command {
	msg := &cobra.Command{
		Use:   "message",
		Short: "Inspect message threads",
	}
	msg.AddCommand(messageListCmd())
	msg.AddCommand(messageShowCmd())
	return msg
}

func messageListCmd() *cobra.Command {
	var requestID string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List messages",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				var items []domain.Message
				var err error
				if requestID != "" {
					items, err = e.ListMessagesByRequest(ctx, requestID)
				} else {
					items, err = e.ListMessages(ctx)
				}
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(items)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"ID", "Request", "Author", "Content", "Created"})
				for _, m := range items {
					author := m.InterpreterID
					if m.Interpreter != nil {
						author = m.Interpreter.Name
					}
					tw.AppendRow(table.Row{m.ID, m.RequestID, author, m.Content, m.CreatedAt})
				}
				tw.Render()
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&requestID, "request", "", "filter by request id")
	return cmd
}

func messageShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show a message",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				m, err := e.GetMessage(ctx, args[0])
				if err != nil {
					return err
				}
				return printJSONOrTable(m)
			})
		},
	}
	return cmd
}

func notificationCmd() *cobra.Command {
	n := &cobra.Command{
		Use:   "notification",
		Short: "Notification delivery log",
	}
	var limit int
	list := &cobra.Command{
		Use:   "list",
		Short: "List recent delivery attempts",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				items, err := e.Repo.ListNotifications(ctx, limit)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(items)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"ID", "Recipient", "Template", "Status", "Error", "Created"})
				for _, it := range items {
					tw.AppendRow(table.Row{it.ID, it.Recipient, it.Template, it.Status, it.Error, it.CreatedAt})
				}
				tw.Render()
				return nil
			})
		},
	}
	list.Flags().IntVar(&limit, "n", 50, "number of attempts")
	n.AddCommand(list)
	return n
}

func apikeyCmd() *cobra.Command {
	k := &cobra.Command{
		Use:   "apikey",
		Short: "Manage admin API keys",
	}
	k.AddCommand(apikeyCreateCmd())
	k.AddCommand(apikeyListCmd())
	k.AddCommand(apikeyDeleteCmd())
	return k
}

func apikeyCreateCmd() *cobra.Command {
	var name string
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an admin API key",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRepo(cmd.Context(), func(ctx context.Context, r repo.Repo) error {
				raw := make([]byte, 24)
				if _, err := rand.Read(raw); err != nil {
					return err
				}
				plaintext := "ldk_" + hex.EncodeToString(raw)
				key := domain.APIKey{
					ID:      uuid.New().String(),
					Name:    name,
					KeyHash: repo.HashAPIKey(plaintext),
				}
				if err := r.InsertAPIKey(ctx, key); err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(map[string]string{"id": key.ID, "key": plaintext})
				}
				fmt.Printf("API key %s created. Store it now; only the hash is kept:\n%s\n", key.ID, plaintext)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "key label")
	return cmd
}

func apikeyListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List API keys",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRepo(cmd.Context(), func(ctx context.Context, r repo.Repo) error {
				items, err := r.ListAPIKeys(ctx)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(items)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"ID", "Name", "Created"})
				for _, k := range items {
					tw.AppendRow(table.Row{k.ID, k.Name, k.CreatedAt})
				}
				tw.Render()
				return nil
			})
		},
	}
	return cmd
}

func apikeyDeleteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete an API key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRepo(cmd.Context(), func(ctx context.Context, r repo.Repo) error {
				return r.DeleteAPIKey(ctx, args[0])
			})
		},
	}
	return cmd
}

func tokenCmd() *cobra.Command {
	var subject, role string
	var ttl time.Duration
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a signed JWT for API access",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadOptional(viper.GetString("workspace"))
			if err != nil {
				return err
			}
			secret := cfg.Server.JWTSecret
			if env := os.Getenv("LINGUADESK_JWT_SECRET"); env != "" {
				secret = env
			}
			if strings.TrimSpace(secret) == "" {
				return fmt.Errorf("jwt secret not configured; set server.jwt_secret or LINGUADESK_JWT_SECRET")
			}
			now := time.Now()
			claims := jwt.MapClaims{
				"sub":  subject,
				"role": role,
				"iat":  now.Unix(),
				"exp":  now.Add(ttl).Unix(),
			}
			signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
			if err != nil {
				return err
			}
			fmt.Println(signed)
			return nil
		},
	}
	cmd.Flags().StringVar(&subject, "subject", "", "token subject (interpreter id, or admin id)")
	cmd.Flags().StringVar(&role, "role", "interpreter", "role claim (interpreter or admin)")
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "token lifetime")
	_ = cmd.MarkFlagRequired("subject")
	return cmd
}

func configCmd() *cobra.Command {
	cfg := &cobra.Command{
		Use:   "config",
		Short: "Manage linguadesk.yml",
	}
	cfg.AddCommand(configInitCmd())
	cfg.AddCommand(configShowCmd())
	cfg.AddCommand(configValidateCmd())
	return cfg
}

func configInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default linguadesk.yml",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := config.Path(viper.GetString("workspace"))
			if _, err := os.Stat(path); err == nil {
				return fmt.Errorf("%s already exists", path)
			}
			if err := os.WriteFile(path, []byte(config.GenerateDefault()), 0o644); err != nil {
				return err
			}
			fmt.Println("wrote", path)
			return nil
		},
	}
	return cmd
}

func configShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show loaded config",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadOptional(viper.GetString("workspace"))
			if err != nil {
				return err
			}
			return printJSONOrTable(cfg)
		},
	}
	return cmd
}

func configValidateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate linguadesk.yml",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := config.Load(viper.GetString("workspace"))
			if viper.GetBool("json") {
				return printJSON(map[string]any{"ok": err == nil, "error": fmt.Sprint(err)})
			}
			if err != nil {
				return err
			}
			fmt.Println("config OK")
			return nil
		},
	}
	return cmd
}

func logCmd() *cobra.Command {
	lg := &cobra.Command{
		Use:   "log",
		Short: "Event log",
	}
	lg.AddCommand(logTailCmd())
	return lg
}

func logTailCmd() *cobra.Command {
	var n int
	var evtType, entityKind, entityID string
	cmd := &cobra.Command{
		Use:   "tail",
		Short: "Tail events",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				events, err := e.Repo.LatestEvents(ctx, n, evtType, entityKind, entityID)
				if err != nil {
					return err
				}
				return printJSONOrTable(events)
			})
		},
	}
	cmd.Flags().IntVar(&n, "n", 20, "number of events")
	cmd.Flags().StringVar(&evtType, "type", "", "event type filter")
	cmd.Flags().StringVar(&entityKind, "entity-kind", "", "entity kind")
	cmd.Flags().StringVar(&entityID, "entity-id", "", "entity id")
	return cmd
}

func serveCmd() *cobra.Command {
	var addr, basePath string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			workspace := viper.GetString("workspace")
			conn, err := db.Open(db.Config{Workspace: workspace})
			if err != nil {
				return err
			}
			defer conn.Close()
			if err := migrate.Migrate(conn); err != nil {
				return err
			}
			cfg, err := config.LoadOptional(workspace)
			if err != nil {
				return err
			}
			if addr == "" {
				addr = cfg.Server.Addr
			}
			if basePath == "" {
				basePath = cfg.Server.BasePath
			}
			secret := cfg.Server.JWTSecret
			if env := os.Getenv("LINGUADESK_JWT_SECRET"); env != "" {
				secret = env
			}
			if strings.TrimSpace(secret) == "" {
				return fmt.Errorf("jwt secret is required; set server.jwt_secret or LINGUADESK_JWT_SECRET")
			}
			e := engine.New(conn, cfg, buildGateway(conn, cfg))
			handler, err := server.New(server.Config{
				Engine:   e,
				BasePath: basePath,
				Auth:     server.AuthConfig{JWTSecret: secret},
			})
			if err != nil {
				return err
			}
			server.StartWebhookDispatcher(e)
			srv := &http.Server{Addr: addr, Handler: handler}
			go func() {
				<-cmd.Context().Done()
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				srv.Shutdown(ctx)
			}()
			fmt.Printf("Serving Linguadesk API on http://%s%s (OpenAPI at %s/openapi.json, Swagger UI at /docs)\n", addr, basePath, basePath)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (defaults to config)")
	cmd.Flags().StringVar(&basePath, "base-path", "", "API base path (defaults to config)")
	return cmd
}

// --- helpers ---

func buildGateway(conn *sql.DB, cfg *config.Config) notify.Gateway {
	var next notify.Gateway = notify.LogGateway{}
	if cfg.Notifications.Mode == "smtp" {
		next = notify.SMTPGateway{
			Host:     cfg.Notifications.SMTP.Host,
			Port:     cfg.Notifications.SMTP.Port,
			From:     cfg.Notifications.SMTP.From,
			Username: cfg.Notifications.SMTP.Username,
			Password: cfg.Notifications.SMTP.Password,
		}
	}
	return notify.Recorder{DB: conn, Next: next}
}

func withEngine(ctx context.Context, fn func(context.Context, engine.Engine) error) error {
	workspace := viper.GetString("workspace")
	conn, err := db.Open(db.Config{Workspace: workspace})
	if err != nil {
		return err
	}
	defer conn.Close()
	if err := migrate.Migrate(conn); err != nil {
		return err
	}
	cfg, err := config.LoadOptional(workspace)
	if err != nil {
		return err
	}
	e := engine.New(conn, cfg, buildGateway(conn, cfg))
	return fn(ctx, e)
}

func withRepo(ctx context.Context, fn func(context.Context, repo.Repo) error) error {
	workspace := viper.GetString("workspace")
	conn, err := db.Open(db.Config{Workspace: workspace})
	if err != nil {
		return err
	}
	defer conn.Close()
	if err := migrate.Migrate(conn); err != nil {
		return err
	}
	return fn(ctx, repo.Repo{DB: conn})
}

func printJSONOrTable(v any) error {
	if viper.GetBool("json") {
		return printJSON(v)
	}
	b, _ := json.MarshalIndent(v, "", "  ")
	fmt.Println(string(b))
	return nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
