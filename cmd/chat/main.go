package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/fatih/color"
	"github.com/joho/godotenv"

	"github.com/kirillkom/lost-time-companion/internal/core/domain"
)

var (
	apiURL      = flag.String("api-url", "", "Base URL of the companion API (defaults to CHAT_API_URL or http://localhost:8080)")
	initialMode = flag.String("mode", string(domain.ModeQA), "Persona mode: refine_prose, explore_lost_time or qa")
)

func main() {
	flag.Parse()
	_ = godotenv.Load()

	baseURL := *apiURL
	if baseURL == "" {
		baseURL = os.Getenv("CHAT_API_URL")
	}
	if baseURL == "" {
		baseURL = "http://localhost:8080"
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client := newAPIClient(baseURL)
	mode := domain.ParseMode(*initialMode)

	boldGreen := color.New(color.FgGreen, color.Bold).SprintFunc()
	boldCyan := color.New(color.FgCyan, color.Bold).SprintFunc()
	yellow := color.New(color.FgYellow).SprintFunc()
	red := color.New(color.FgRed).SprintFunc()

	fmt.Println(boldGreen("In Search of Lost Time, a conversation"))
	fmt.Printf("API: %s, mode: %s\n", baseURL, boldCyan(string(mode)))
	fmt.Println("Commands: /mode <refine_prose|explore_lost_time|qa>, /exit")
	fmt.Println()

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print(boldGreen("You: "))
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())

		switch {
		case line == "/exit" || line == "exit":
			return
		case strings.HasPrefix(line, "/mode"):
			mode = domain.ParseMode(strings.TrimSpace(strings.TrimPrefix(line, "/mode")))
			fmt.Println(yellow("mode: " + string(mode)))
			continue
		}

		resp, err := client.send(ctx, mode, line)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			fmt.Fprintln(os.Stderr, red("Error: "+err.Error()))
			continue
		}
		fmt.Println(boldCyan("Proust: ") + resp.render())
		fmt.Println()
	}
}
