package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"wordwarrior/internal/client"
	"wordwarrior/internal/config"
	"wordwarrior/internal/models"
	"wordwarrior/internal/questions"
	"wordwarrior/internal/security"
)

func main() {
	// Define subcommands
	playCmd := flag.NewFlagSet("play", flag.ExitOnError)
	tokenCmd := flag.NewFlagSet("token", flag.ExitOnError)

	// Play flags
	server := playCmd.String("server", "http://localhost:8080", "Server base URL")
	player := playCmd.String("player", "", "Player ID (required)")
	name := playCmd.String("name", "", "Display name shown to opponents")
	token := playCmd.String("token", "", "Bearer token (default: issued locally from JWT_SECRET)")
	mode := playCmd.String("mode", string(models.ModeClassic), "Battle mode: classic, blitz, tactics or practice")
	auto := playCmd.Bool("auto", false, "Answer automatically")
	accuracy := playCmd.Float64("accuracy", 0.7, "Share of correct answers with -auto")

	// Token flags
	tokenPlayer := tokenCmd.String("player", "", "Player ID (required)")
	tokenName := tokenCmd.String("name", "", "Display name")

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cfg := config.Load()

	switch os.Args[1] {
	case "play":
		playCmd.Parse(os.Args[2:])
		if *player == "" {
			fmt.Println("Error: -player flag is required")
			playCmd.PrintDefaults()
			os.Exit(1)
		}
		if !models.Mode(*mode).Valid() {
			log.Fatalf("Unknown mode %q", *mode)
		}
		if *token == "" {
			*token = issueToken(cfg, *player, *name)
		}

		var answerer client.Answerer = newPromptAnswerer()
		if *auto {
			answerer = client.NewAutoAnswerer(*accuracy, time.Second, 4*time.Second, time.Now().UnixNano())
		}
		handlePlay(cfg, *server, *token, *player, models.Mode(*mode), answerer)

	case "token":
		tokenCmd.Parse(os.Args[2:])
		if *tokenPlayer == "" {
			fmt.Println("Error: -player flag is required")
			tokenCmd.PrintDefaults()
			os.Exit(1)
		}
		fmt.Println(issueToken(cfg, *tokenPlayer, *tokenName))

	default:
		printUsage()
		os.Exit(1)
	}
}

func issueToken(cfg *config.Config, playerID, name string) string {
	token, err := security.NewTokenIssuer(cfg.JWTSecret, cfg.TokenDuration).Issue(playerID, name)
	if err != nil {
		log.Fatalf("Failed to issue token: %v", err)
	}
	return token
}

func handlePlay(cfg *config.Config, server, token, playerID string, mode models.Mode, answerer client.Answerer) {
	// Ctrl-C abandons the battle instead of leaving the opponent hanging
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	bank, err := questions.DefaultWordBank()
	if err != nil {
		log.Fatalf("Failed to load word bank: %v", err)
	}

	clientCfg := client.DefaultConfig()
	clientCfg.PollInterval = cfg.PollInterval
	clientCfg.SearchTimeout = cfg.SearchTimeout
	clientCfg.AnswerWindow = cfg.AnswerWindow
	clientCfg.Grace = cfg.RoundGrace
	clientCfg.QuestionsPerBattle = cfg.QuestionsPerBattle

	game := client.NewGame(client.NewHTTPBackend(server, token), bank, answerer, playerID, clientCfg)
	game.OnRoom = func(room *models.BattleRoom) {
		fmt.Printf("[round %d/%d] %s %d HP  vs  %s %d HP\n",
			min(room.CurrentQuestionIndex+1, len(room.Questions)), len(room.Questions),
			room.Player1ID, room.Player1HP, room.Player2ID, room.Player2HP)
	}

	fmt.Printf("Searching for a %s opponent...\n", mode)
	summary, err := game.Play(ctx, mode)
	if err != nil {
		log.Fatalf("Battle failed: %v", err)
	}

	kind := "live"
	if summary.Local {
		kind = "practice"
	}
	fmt.Println()
	fmt.Printf("Battle over (%s vs %s): %s\n", kind, summary.Opponent, summary.Result)
	fmt.Printf("  Your HP: %d  Opponent HP: %d  Ended by: %s\n", summary.MyHP, summary.OpponentHP, summary.EndReason)
}

// promptAnswerer asks on stdout and reads the chosen option number from stdin
type promptAnswerer struct {
	lines chan string
}

func newPromptAnswerer() *promptAnswerer {
	a := &promptAnswerer{lines: make(chan string)}
	go func() {
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			a.lines <- strings.TrimSpace(scanner.Text())
		}
		close(a.lines)
	}()
	return a
}

func (a *promptAnswerer) Choose(ctx context.Context, q models.Question) (string, error) {
	fmt.Println()
	fmt.Println(q.Prompt)
	for i, option := range q.Options {
		fmt.Printf("  %d) %s\n", i+1, option)
	}
	fmt.Print("> ")

	for {
		select {
		case <-ctx.Done():
			fmt.Println("(time's up)")
			return "", ctx.Err()
		case line, ok := <-a.lines:
			if !ok {
				return "", fmt.Errorf("input closed")
			}
			n, err := strconv.Atoi(line)
			if err != nil || n < 1 || n > len(q.Options) {
				fmt.Printf("Pick 1-%d > ", len(q.Options))
				continue
			}
			return q.Options[n-1], nil
		}
	}
}

func printUsage() {
	fmt.Println("Word Warrior CLI")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  warrior play [options]     Find an opponent and battle")
	fmt.Println("  warrior token [options]    Issue a development bearer token")
	fmt.Println()
	fmt.Println("Play Options:")
	fmt.Println("  -server <url>      Server base URL (default: http://localhost:8080)")
	fmt.Println("  -player <id>       Player ID (required)")
	fmt.Println("  -name <name>       Display name")
	fmt.Println("  -token <token>     Bearer token (default: issued from JWT_SECRET)")
	fmt.Println("  -mode <mode>       classic, blitz, tactics or practice (default: classic)")
	fmt.Println("  -auto              Answer automatically")
	fmt.Println("  -accuracy <0-1>    Share of correct automatic answers (default: 0.7)")
	fmt.Println()
	fmt.Println("Examples:")
	fmt.Println("  warrior token -player alice -name Alice")
	fmt.Println("  warrior play -player alice -name Alice -mode blitz")
	fmt.Println("  warrior play -player bot-1 -auto -mode practice")
}
