// Command chatcli runs the scheduling conversation in a terminal.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/joho/godotenv"

	"github.com/wolfman30/clinic-scheduling-agent/cmd/mainconfig"
	"github.com/wolfman30/clinic-scheduling-agent/internal/app/bootstrap"
	appconfig "github.com/wolfman30/clinic-scheduling-agent/internal/config"
	"github.com/wolfman30/clinic-scheduling-agent/internal/conversation"
	"github.com/wolfman30/clinic-scheduling-agent/pkg/logging"
)

func main() {
	_ = godotenv.Load()

	sessionID := flag.String("session", "cli", "session id to converse under")
	asJSON := flag.Bool("json", false, "print the tagged response JSON instead of the message text")
	ephemeral := flag.Bool("memory", true, "use in-memory ledger and sessions; -memory=false uses the configured backends")
	flag.Parse()

	cfg := appconfig.Load()
	if *ephemeral {
		cfg.LedgerBackend = "memory"
		cfg.SessionBackend = "memory"
	}
	logger := logging.New("error")

	ctx := context.Background()
	app, err := bootstrap.Build(ctx, cfg, func(ctx context.Context) (aws.Config, error) {
		return mainconfig.LoadAWSConfig(ctx, cfg)
	}, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "chatcli: %v\n", err)
		os.Exit(1)
	}
	defer app.Close()

	if err := run(ctx, app.Engine, os.Stdin, os.Stdout, *sessionID, *asJSON); err != nil {
		fmt.Fprintf(os.Stderr, "chatcli: %v\n", err)
		os.Exit(1)
	}
}

// run reads one message per line until EOF or "quit".
func run(ctx context.Context, svc conversation.Service, in io.Reader, out io.Writer, sessionID string, asJSON bool) error {
	scanner := bufio.NewScanner(in)
	fmt.Fprint(out, "> ")
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		switch {
		case line == "":
		case strings.EqualFold(line, "quit"), strings.EqualFold(line, "exit"):
			return nil
		default:
			resp, err := svc.Handle(ctx, sessionID, line)
			if err != nil {
				fmt.Fprintf(out, "error: %v\n", err)
				break
			}
			if err := printResponse(out, resp, asJSON); err != nil {
				return err
			}
		}
		fmt.Fprint(out, "> ")
	}
	return scanner.Err()
}

func printResponse(out io.Writer, resp conversation.Response, asJSON bool) error {
	if !asJSON {
		_, err := fmt.Fprintln(out, resp.Text())
		return err
	}
	raw, err := json.Marshal(resp)
	if err != nil {
		return fmt.Errorf("encode response: %w", err)
	}
	_, err = fmt.Fprintln(out, string(raw))
	return err
}
