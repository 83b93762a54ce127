// Command affirm sends one message to the relay and prints the affirmation
// as it streams in.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/davidbz/affirmrelay/internal/client"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	_ = godotenv.Load(".env")

	var cfg client.Config
	if err := env.Parse(&cfg); err != nil {
		fmt.Fprintf(stderr, "invalid configuration: %v\n", err)
		return 2
	}

	message := strings.Join(args, " ")
	if message == "" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			fmt.Fprintf(stderr, "failed to read message: %v\n", err)
			return 2
		}
		message = string(data)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	code := 0
	client.New(cfg, nil).StreamAffirmation(ctx, message, client.Callbacks{
		OnDelta: func(text string) {
			fmt.Fprint(stdout, text)
		},
		OnDone: func() {
			fmt.Fprintln(stdout)
		},
		OnError: func(msg string) {
			fmt.Fprintln(stderr, msg)
			code = 1
		},
	})

	return code
}
