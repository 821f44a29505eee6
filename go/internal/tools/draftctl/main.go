// Command draftctl drives draftd over its Connect API and tails relayed
// draft events from JetStream.
//
//	draftctl [-server URL] create -league ID -teams ID,ID[,...] [-format snake] [-rounds 15] [-seconds 90]
//	draftctl [-server URL] start|resume|get -draft ID
//	draftctl [-server URL] pause -draft ID [-reason TEXT]
//	draftctl [-server URL] pick -draft ID -team ID -player ID
//	draftctl tail [-nats URL] [-draft ID] [-all]
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/dynasty-draft/go/internal/config"
	"github.com/mcdev12/dynasty-draft/go/internal/draft/drafterr"
	"github.com/mcdev12/dynasty-draft/go/internal/draft/events"
	"github.com/mcdev12/dynasty-draft/go/internal/draft/outbox"
	"github.com/mcdev12/dynasty-draft/go/internal/draft/rpc"
	"github.com/mcdev12/dynasty-draft/go/internal/models"
)

func main() {
	config.Init()
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		var usage usageError
		if errors.As(err, &usage) {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(2)
		}
		fmt.Fprintf(os.Stderr, "draftctl: %v (%s)\n", err, drafterr.KindOf(err))
		os.Exit(1)
	}
}

type usageError struct{ msg string }

func (e usageError) Error() string { return e.msg }

func usagef(format string, args ...any) error {
	return usageError{msg: fmt.Sprintf(format, args...)}
}

func run(ctx context.Context, args []string, out io.Writer) error {
	global := flag.NewFlagSet("draftctl", flag.ContinueOnError)
	server := global.String("server", config.GetEnv("DRAFTD_URL", "http://localhost:8080"), "draftd base URL")
	if err := global.Parse(args); err != nil {
		return usagef("%v", err)
	}
	if global.NArg() == 0 {
		return usagef("usage: draftctl [-server URL] create|start|pause|resume|get|pick|tail [flags]")
	}

	cmd, rest := global.Arg(0), global.Args()[1:]
	if cmd == "tail" {
		return tail(ctx, rest, out)
	}

	client := rpc.NewClient(&http.Client{Timeout: 30 * time.Second}, *server)
	var (
		resp any
		err  error
	)
	switch cmd {
	case "create":
		resp, err = create(ctx, client, rest)
	case "start", "resume", "get":
		resp, err = simple(ctx, client, cmd, rest)
	case "pause":
		resp, err = pause(ctx, client, rest)
	case "pick":
		resp, err = pick(ctx, client, rest)
	default:
		return usagef("unknown command %q", cmd)
	}
	if err != nil {
		return err
	}
	return printJSON(out, resp)
}

func create(ctx context.Context, client *rpc.Client, args []string) (any, error) {
	fs := flag.NewFlagSet("create", flag.ContinueOnError)
	league := fs.String("league", "", "league ID")
	teams := fs.String("teams", "", "comma-separated team IDs in draft order")
	format := fs.String("format", string(models.DraftFormatSnake), "snake, linear or auction")
	rounds := fs.Int("rounds", 15, "number of rounds")
	seconds := fs.Int("seconds", 90, "seconds per pick")
	autopick := fs.Bool("autopick", false, "autopick when the clock expires")
	budget := fs.Int("budget", 0, "auction budget per team")
	start := fs.String("start", "", "scheduled start (RFC 3339)")
	if err := fs.Parse(args); err != nil {
		return nil, usagef("%v", err)
	}

	leagueID, err := parseID("league", *league)
	if err != nil {
		return nil, err
	}
	req := &rpc.CreateDraftRequest{
		LeagueID:        leagueID,
		Format:          models.DraftFormat(*format),
		Rounds:          *rounds,
		SecondsPerPick:  *seconds,
		AutopickEnabled: *autopick,
	}
	for _, s := range strings.Split(*teams, ",") {
		id, err := parseID("teams", strings.TrimSpace(s))
		if err != nil {
			return nil, err
		}
		req.TeamOrder = append(req.TeamOrder, id)
	}
	if *budget > 0 {
		req.AuctionBudget = budget
	}
	if *start != "" {
		t, err := time.Parse(time.RFC3339, *start)
		if err != nil {
			return nil, usagef("invalid -start: %v", err)
		}
		req.StartDate = &t
	}
	return client.CreateDraft(ctx, req)
}

func simple(ctx context.Context, client *rpc.Client, cmd string, args []string) (any, error) {
	fs := flag.NewFlagSet(cmd, flag.ContinueOnError)
	draft := fs.String("draft", "", "draft ID")
	if err := fs.Parse(args); err != nil {
		return nil, usagef("%v", err)
	}
	id, err := parseID("draft", *draft)
	if err != nil {
		return nil, err
	}
	switch cmd {
	case "start":
		return client.StartDraft(ctx, &rpc.StartDraftRequest{DraftID: id})
	case "resume":
		return client.ResumeDraft(ctx, &rpc.ResumeDraftRequest{DraftID: id})
	default:
		return client.GetDraft(ctx, &rpc.GetDraftRequest{DraftID: id})
	}
}

func pause(ctx context.Context, client *rpc.Client, args []string) (any, error) {
	fs := flag.NewFlagSet("pause", flag.ContinueOnError)
	draft := fs.String("draft", "", "draft ID")
	reason := fs.String("reason", "", "shown to drafters")
	if err := fs.Parse(args); err != nil {
		return nil, usagef("%v", err)
	}
	id, err := parseID("draft", *draft)
	if err != nil {
		return nil, err
	}
	return client.PauseDraft(ctx, &rpc.PauseDraftRequest{DraftID: id, Reason: *reason})
}

func pick(ctx context.Context, client *rpc.Client, args []string) (any, error) {
	fs := flag.NewFlagSet("pick", flag.ContinueOnError)
	draft := fs.String("draft", "", "draft ID")
	team := fs.String("team", "", "team ID")
	player := fs.String("player", "", "player ID")
	if err := fs.Parse(args); err != nil {
		return nil, usagef("%v", err)
	}
	var req rpc.SubmitPickRequest
	var err error
	if req.DraftID, err = parseID("draft", *draft); err != nil {
		return nil, err
	}
	if req.TeamID, err = parseID("team", *team); err != nil {
		return nil, err
	}
	if req.PlayerID, err = parseID("player", *player); err != nil {
		return nil, err
	}
	return client.SubmitPick(ctx, &req)
}

// tail prints relayed events, one JSON line each, until interrupted.
func tail(ctx context.Context, args []string, out io.Writer) error {
	cfg := outbox.DefaultConsumerConfig()
	fs := flag.NewFlagSet("tail", flag.ContinueOnError)
	fs.StringVar(&cfg.URL, "nats", config.GetEnv("NATS_URL", cfg.URL), "NATS URL")
	fs.StringVar(&cfg.StreamName, "stream", cfg.StreamName, "JetStream stream")
	fs.BoolVar(&cfg.DeliverAll, "all", false, "replay the whole stream")
	draft := fs.String("draft", "", "only show this draft")
	if err := fs.Parse(args); err != nil {
		return usagef("%v", err)
	}

	var only uuid.UUID
	if *draft != "" {
		id, err := parseID("draft", *draft)
		if err != nil {
			return err
		}
		only = id
	}

	consumer, err := outbox.NewConsumer(ctx, cfg)
	if err != nil {
		return err
	}
	defer consumer.Close()

	log.Info().Str("stream", cfg.StreamName).Msg("tailing draft events")
	return consumer.Start(ctx, func(_ context.Context, ev events.Event) error {
		if only != uuid.Nil && ev.DraftID != only {
			return nil
		}
		data, err := json.Marshal(ev)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(out, string(data))
		return err
	})
}

func parseID(name, s string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, usagef("-%s is required", name)
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, usagef("invalid -%s: %v", name, err)
	}
	return id, nil
}

func printJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
