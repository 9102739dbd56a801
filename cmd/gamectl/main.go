// Command gamectl prepares games from the shell: database migrations,
// organizer accounts and question imports.
package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/dom/trivia-night/internal/config"
	"github.com/dom/trivia-night/internal/domain"
	"github.com/dom/trivia-night/internal/repository/postgres"
	"github.com/dom/trivia-night/internal/service"
	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"
	"gorm.io/gorm"
)

// env holds what every command needs once the database is open.
type env struct {
	db       *gorm.DB
	services *service.Services
}

func open(cfg *config.Config) (*env, error) {
	db, err := postgres.NewConnection(cfg.DatabaseURL, postgres.GormLogLevel(cfg.LogLevel))
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	docs := postgres.NewDocumentStore(db, postgres.WithMaxRetries(cfg.StoreMaxRetries))
	engine := service.NewEngine(docs)
	return &env{
		db:       db,
		services: service.NewServices(postgres.NewRepositories(db), engine, cfg),
	}, nil
}

// organizer resolves an account by display name.
func (e *env) organizer(ctx context.Context, name string) (domain.Caller, error) {
	user, err := e.services.Auth.GetUserByDisplayName(ctx, name)
	if err != nil {
		return domain.Caller{}, fmt.Errorf("organizer %q: %w", name, err)
	}
	return domain.Caller{UserID: user.ID.String(), Role: domain.RoleOrganizer}, nil
}

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	var e *env
	connect := func(*cli.Context) error {
		var err error
		e, err = open(cfg)
		return err
	}

	organizerFlag := &cli.StringFlag{
		Name:     "organizer",
		Aliases:  []string{"o"},
		Usage:    "display name of the organizer who owns the game",
		Required: true,
	}

	app := &cli.App{
		Name:  "gamectl",
		Usage: "manage trivia night games",
		Commands: []*cli.Command{
			{
				Name:   "migrate",
				Usage:  "create or update the database tables",
				Before: connect,
				Action: func(c *cli.Context) error {
					if err := postgres.Migrate(e.db); err != nil {
						return err
					}
					fmt.Println("Database is up to date")
					return nil
				},
			},
			{
				Name:   "organizer",
				Usage:  "create an organizer account",
				Before: connect,
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "name", Required: true},
					&cli.StringFlag{Name: "password", Required: true, EnvVars: []string{"ORGANIZER_PASSWORD"}},
				},
				Action: func(c *cli.Context) error {
					res, err := e.services.Auth.Register(c.Context, service.RegisterInput{
						DisplayName: c.String("name"),
						Password:    c.String("password"),
					})
					if err != nil {
						return err
					}
					fmt.Printf("Organizer %s created (id %s)\n", res.User.DisplayName, res.User.ID)
					return nil
				},
			},
			{
				Name:      "import",
				Usage:     "create a game from a YAML definition",
				ArgsUsage: "<game.yaml>",
				Before:    connect,
				Flags:     []cli.Flag{organizerFlag},
				Action: func(c *cli.Context) error {
					if c.NArg() != 1 {
						return cli.Exit("expected one game file", 2)
					}
					caller, err := e.organizer(c.Context, c.String("organizer"))
					if err != nil {
						return err
					}
					f, err := os.Open(c.Args().First())
					if err != nil {
						return err
					}
					defer f.Close()

					g, err := e.services.Setup.ImportYAML(c.Context, caller, f)
					if err != nil {
						return err
					}
					fmt.Printf("Game %q created: %s (%d rounds)\n", g.Title, g.ID, len(g.RoundIDs))
					return nil
				},
			},
			{
				Name:      "import-mcq",
				Usage:     "append multiple-choice questions from a spreadsheet to a round",
				ArgsUsage: "<questions.xlsx>",
				Before:    connect,
				Flags: []cli.Flag{
					organizerFlag,
					&cli.StringFlag{Name: "game", Required: true},
					&cli.StringFlag{Name: "round", Required: true},
					&cli.StringFlag{Name: "subtype", Value: string(domain.MCQImmediate), Usage: "immediate or conditional"},
				},
				Action: func(c *cli.Context) error {
					if c.NArg() != 1 {
						return cli.Exit("expected one workbook", 2)
					}
					caller, err := e.organizer(c.Context, c.String("organizer"))
					if err != nil {
						return err
					}
					f, err := os.Open(c.Args().First())
					if err != nil {
						return err
					}
					defer f.Close()

					n, err := e.services.Setup.ImportMCQFromXLSX(c.Context, caller, c.String("game"), c.String("round"),
						domain.MCQSubtype(c.String("subtype")), f)
					if err != nil {
						return err
					}
					fmt.Printf("Imported %d questions\n", n)
					return nil
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
