package main

import (
	"flag"
	"fmt"
	"os"
	"sort"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/dom/trivia-night/internal/domain"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	// Global flags
	apiURL := "http://localhost:8080"
	if envURL := os.Getenv("API_URL"); envURL != "" {
		apiURL = envURL
	}

	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "full":
		fullCmd(apiURL, args)
	case "setup":
		setupCmd(apiURL, args)
	case "populate":
		populateCmd(apiURL, args)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`Game Simulator - Development tool for trivia nights

USAGE:
  simulator <command> [options]

COMMANDS:
  full      Build a game, play its image round with fake players and end it
  setup     Build a game with teams and players and leave it for you to run
  populate  Add fake players to a team of an existing game
  help      Show this help message

ENVIRONMENT:
  API_URL   Backend API URL (default: http://localhost:8080)

EXAMPLES:
  # Play a whole game with 3 teams and 5 questions
  simulator full --teams=3 --questions=5

  # Prepare a game and print the organizer token
  simulator setup

  # Add 4 players to a team
  simulator populate --game=<id> --team=<id> --count=4`)
}

// seeded is a game built by buildGame.
type seeded struct {
	organizer string
	game      *Game
	teams     []*domain.Team
	players   map[string][]JoinResponse // team id -> players
	round     *domain.Round
	questions []*domain.Question
}

func buildGame(client *APIClient, faker *gofakeit.Faker, teams, perTeam, questions int) (*seeded, error) {
	_, token, err := client.RegisterOrganizer("Host")
	if err != nil {
		return nil, err
	}
	g, err := client.CreateGame(token, "Quiz "+faker.Adjective()+" "+faker.Noun())
	if err != nil {
		return nil, err
	}
	s := &seeded{organizer: token, game: g, players: map[string][]JoinResponse{}}

	for i := 0; i < teams; i++ {
		team, err := client.AddTeam(token, g.ID, fmt.Sprintf("%s %d", faker.Animal(), i+1), faker.HexColor())
		if err != nil {
			return nil, err
		}
		s.teams = append(s.teams, team)
		for j := 0; j < perTeam; j++ {
			p, err := client.Join(g.ID, team.ID, faker.FirstName())
			if err != nil {
				return nil, err
			}
			s.players[team.ID] = append(s.players[team.ID], *p)
		}
	}

	s.round, err = client.AddRound(token, g.ID, map[string]interface{}{
		"type":               domain.RoundTypeImage,
		"title":              "Pictures",
		"rewardsPerQuestion": 1,
		"thinkingTime":       20,
	})
	if err != nil {
		return nil, err
	}
	for i := 0; i < questions; i++ {
		q, err := client.AddQuestion(token, g.ID, s.round.ID, domain.Question{
			Title:  faker.Question(),
			Riddle: &domain.RiddleDetails{Answer: faker.Noun(), MediaURL: faker.URL()},
		})
		if err != nil {
			return nil, err
		}
		s.questions = append(s.questions, q)
	}
	return s, nil
}

func fullCmd(apiURL string, args []string) {
	fs := flag.NewFlagSet("full", flag.ExitOnError)
	teams := fs.Int("teams", 3, "Number of teams")
	perTeam := fs.Int("players", 2, "Players per team")
	questions := fs.Int("questions", 5, "Questions in the image round")
	seed := fs.Uint64("seed", 0, "Random seed (0 picks one)")
	fs.Parse(args)

	if *teams < 2 || *perTeam < 1 || *questions < 1 {
		fmt.Println("Error: need at least 2 teams, 1 player per team and 1 question")
		os.Exit(1)
	}

	client := NewAPIClient(apiURL)
	faker := gofakeit.New(*seed)

	fmt.Println("=== Game Simulator: Full Flow ===")
	fmt.Println()

	fmt.Print("Building game... ")
	s, err := buildGame(client, faker, *teams, *perTeam, *questions)
	if err != nil {
		fmt.Printf("FAILED\n  Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("OK (game: %s)\n", s.game.ID)

	org, gameID := s.organizer, s.game.ID
	step := func(label, path string, body interface{}) {
		if err := client.Command(org, gameID, path, body); err != nil {
			fmt.Printf("  %s FAILED: %v\n", label, err)
			os.Exit(1)
		}
	}

	step("launch", "/launch", nil)
	step("open home", "/home", nil)
	step("select round", "/rounds/"+s.round.ID+"/select", nil)
	step("start round", "/round/start", nil)

	fmt.Println()
	fmt.Printf("Playing %d questions:\n", len(s.questions))
	for i, q := range s.questions {
		team := s.teams[faker.IntN(len(s.teams))]
		players := s.players[team.ID]
		p := players[faker.IntN(len(players))]
		qPath := "/questions/" + q.ID

		step("start timer", "/timer/start", nil)
		if err := client.Command(p.AccessToken, gameID, qPath+"/buzz", nil); err != nil {
			fmt.Printf("  buzz FAILED: %v\n", err)
			os.Exit(1)
		}
		step("validate", qPath+"/buzz/validate", map[string]string{"playerId": p.Player.ID})
		step("next", qPath+"/next", nil)
		fmt.Printf("  [%d/%d] %s (%s) found it\n", i+1, len(s.questions), p.Player.Name, team.Name)
	}

	step("end game", "/end", nil)

	var scores domain.GameScores
	if err := client.Document(org, domain.GameScoresKey(gameID), &scores); err != nil {
		fmt.Printf("Failed to read scores: %v\n", err)
		os.Exit(1)
	}

	names := make(map[string]string, len(s.teams))
	for _, t := range s.teams {
		names[t.ID] = t.Name
	}

	fmt.Println()
	fmt.Println("=========================================")
	fmt.Println("  FINAL RANKING")
	fmt.Println("=========================================")
	fmt.Println()
	for i, group := range scores.FinalRanking {
		teamNames := make([]string, len(group.Teams))
		for j, id := range group.Teams {
			teamNames[j] = names[id]
		}
		sort.Strings(teamNames)
		fmt.Printf("  %d. %v - %d pts\n", i+1, teamNames, group.Score)
	}
	fmt.Println()
}

func setupCmd(apiURL string, args []string) {
	fs := flag.NewFlagSet("setup", flag.ExitOnError)
	teams := fs.Int("teams", 3, "Number of teams")
	perTeam := fs.Int("players", 1, "Players per team")
	questions := fs.Int("questions", 5, "Questions in the image round")
	fs.Parse(args)

	client := NewAPIClient(apiURL)
	s, err := buildGame(client, gofakeit.New(0), *teams, *perTeam, *questions)
	if err != nil {
		fmt.Printf("Failed to build game: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("=========================================")
	fmt.Println("  GAME READY TO LAUNCH")
	fmt.Println("=========================================")
	fmt.Println()
	fmt.Printf("  Game ID:         %s\n", s.game.ID)
	fmt.Printf("  Organizer token: %s\n", s.organizer)
	fmt.Println()
	for _, t := range s.teams {
		fmt.Printf("  Team %s (%s)\n", t.Name, t.ID)
		for _, p := range s.players[t.ID] {
			fmt.Printf("    %s: %s\n", p.Player.Name, p.AccessToken)
		}
	}
	fmt.Println()
}

func populateCmd(apiURL string, args []string) {
	fs := flag.NewFlagSet("populate", flag.ExitOnError)
	gameID := fs.String("game", "", "Game ID (required)")
	teamID := fs.String("team", "", "Team ID (required)")
	count := fs.Int("count", 3, "Number of players to add")
	fs.Parse(args)

	if *gameID == "" || *teamID == "" {
		fmt.Println("Error: --game and --team are required")
		fmt.Println("\nUsage: simulator populate --game=<id> --team=<id> [--count=3]")
		os.Exit(1)
	}

	client := NewAPIClient(apiURL)
	faker := gofakeit.New(0)

	fmt.Printf("Adding %d players to team %s...\n\n", *count, *teamID)
	for i := 0; i < *count; i++ {
		p, err := client.Join(*gameID, *teamID, faker.FirstName())
		if err != nil {
			fmt.Printf("  [%d/%d] FAILED to join: %v\n", i+1, *count, err)
			continue
		}
		fmt.Printf("  [%d/%d] %s joined: %s\n", i+1, *count, p.Player.Name, p.AccessToken)
	}
}
