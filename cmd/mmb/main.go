package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mildlymodbot/mmb/automod/strikes"
	"github.com/mildlymodbot/mmb/reddit"
	"github.com/mildlymodbot/mmb/util"
	"github.com/mildlymodbot/mmb/util/cliutil"

	"github.com/carlmjohnson/versioninfo"
	_ "github.com/joho/godotenv/autoload"
	cli "github.com/urfave/cli/v2"
)

func main() {
	if err := run(os.Args); err != nil {
		slog.Error("exiting", "err", err)
		os.Exit(-1)
	}
}

func run(args []string) error {

	app := cli.App{
		Name:    "mmb",
		Usage:   "subreddit moderation bot: strike flair escalation and spam-bot bans",
		Version: versioninfo.Short(),
	}

	app.Flags = []cli.Flag{
		&cli.StringFlag{
			Name:    "client-id",
			Usage:   "OAuth client ID of the reddit script app",
			EnvVars: []string{"MMB_CLIENT_ID"},
		},
		&cli.StringFlag{
			Name:    "client-secret",
			Usage:   "OAuth client secret of the reddit script app",
			EnvVars: []string{"MMB_CLIENT_SECRET"},
		},
		&cli.StringFlag{
			Name:    "username",
			Usage:   "bot account username (must be a moderator of the subreddit)",
			EnvVars: []string{"MMB_USERNAME"},
		},
		&cli.StringFlag{
			Name:    "password",
			Usage:   "bot account password",
			EnvVars: []string{"MMB_PASSWORD"},
		},
		&cli.StringFlag{
			Name:     "subreddit",
			Usage:    "name of the subreddit to moderate (without 'r/')",
			Required: true,
			EnvVars:  []string{"MMB_SUBREDDIT"},
		},
		&cli.StringFlag{
			Name:    "reddit-host",
			Usage:   "method, hostname, and port of the reddit OAuth API",
			Value:   reddit.DefaultHost,
			EnvVars: []string{"MMB_REDDIT_HOST"},
		},
		&cli.StringFlag{
			Name:    "reddit-auth-host",
			Usage:   "method, hostname, and port of the reddit token endpoint",
			Value:   reddit.DefaultAuthHost,
			EnvVars: []string{"MMB_REDDIT_AUTH_HOST"},
		},
		&cli.IntFlag{
			Name:    "rate-limit",
			Usage:   "max reddit API requests per minute",
			Value:   reddit.DefaultRequestsPerMinute,
			EnvVars: []string{"MMB_RATE_LIMIT"},
		},
		&cli.StringFlag{
			Name:    "log-level",
			Usage:   "log verbosity level (eg: warn, info, debug)",
			Value:   "info",
			EnvVars: []string{"MMB_LOG_LEVEL", "LOG_LEVEL"},
		},
		&cli.StringFlag{
			Name:    "log-format",
			Usage:   "log output format: json or text",
			Value:   "json",
			EnvVars: []string{"MMB_LOG_FORMAT"},
		},
	}

	app.Commands = []*cli.Command{
		runCmd,
		strikesCmd,
	}

	return app.Run(args)
}

func configLogger(cctx *cli.Context) (*slog.Logger, error) {
	return cliutil.SetupSlog(cliutil.LogOptions{
		LogLevel:  cctx.String("log-level"),
		LogFormat: cctx.String("log-format"),
	})
}

func configRedditClient(cctx *cli.Context, logger *slog.Logger) *reddit.Client {
	sub := cctx.String("subreddit")
	return reddit.NewClient(reddit.Config{
		Host:              cctx.String("reddit-host"),
		AuthHost:          cctx.String("reddit-auth-host"),
		ClientID:          cctx.String("client-id"),
		ClientSecret:      cctx.String("client-secret"),
		Username:          cctx.String("username"),
		Password:          cctx.String("password"),
		UserAgent:         fmt.Sprintf("%s's MildlyModBot (mmb/%s)", sub, versioninfo.Short()),
		RequestsPerMinute: cctx.Int("rate-limit"),
		HTTPClient:        util.RobustHTTPClient(logger),
	})
}

var runCmd = &cli.Command{
	Name:  "run",
	Usage: "run the moderation daemon",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:  "redis-url",
			Usage: "redis connection URL",
			// redis://<user>:<pass>@localhost:6379/<db>
			// redis://localhost:6379/0
			EnvVars: []string{"REDIS_URL"},
		},
		&cli.StringFlag{
			Name:    "database-url",
			Usage:   "database for durable processed-post records (sqlite or postgresql URL)",
			EnvVars: []string{"DATABASE_URL"},
		},
		&cli.IntFlag{
			Name:    "max-db-connections",
			Value:   10,
			EnvVars: []string{"MAX_DB_CONNECTIONS"},
		},
		&cli.StringFlag{
			Name:    "dedup-backend",
			Usage:   "where processed posts are recorded: memory, redis, or sql. default picks sql, then redis, then memory, based on what is configured",
			EnvVars: []string{"MMB_DEDUP_BACKEND"},
		},
		&cli.StringFlag{
			Name:    "sets-json-path",
			Usage:   "file path of JSON file containing static sets (eg, exempt-users)",
			EnvVars: []string{"MMB_SETS_JSON"},
		},
		&cli.StringFlag{
			Name:    "slack-webhook-url",
			Usage:   "full URL of slack webhook",
			EnvVars: []string{"SLACK_WEBHOOK_URL"},
		},
		&cli.StringFlag{
			Name:    "bind",
			Usage:   "IP or address, and port, to listen on for admin HTTP APIs",
			Value:   ":3999",
			EnvVars: []string{"MMB_BIND"},
		},
		&cli.StringFlag{
			Name:    "metrics-listen",
			Usage:   "IP or address, and port, to listen on for metrics APIs",
			Value:   ":3998",
			EnvVars: []string{"MMB_METRICS_LISTEN"},
		},
		&cli.DurationFlag{
			Name:    "poll-max",
			Usage:   "max interval between mod-log polls, when idle",
			Value:   16 * time.Second,
			EnvVars: []string{"MMB_POLL_MAX"},
		},
		&cli.StringFlag{
			Name:    "spam-label",
			Usage:   "post flair marking a spam-bot submission",
			Value:   "Spam Bot",
			EnvVars: []string{"MMB_SPAM_LABEL"},
		},
		&cli.StringFlag{
			Name:    "removed-prefix",
			Usage:   "post flair prefix marking a removal which earns a strike",
			Value:   "Removed",
			EnvVars: []string{"MMB_REMOVED_PREFIX"},
		},
		&cli.StringSliceFlag{
			Name:    "spam-categories",
			Usage:   "post removal categories which indicate the reddit spam filter",
			Value:   cli.NewStringSlice("reddit"),
			EnvVars: []string{"MMB_SPAM_CATEGORIES"},
		},
		&cli.StringFlag{
			Name:    "flair-css-class",
			Usage:   "CSS class applied along with strike flair (optional)",
			EnvVars: []string{"MMB_FLAIR_CSS_CLASS"},
		},
		&cli.IntFlag{
			Name:    "ban-threshold",
			Usage:   "number of strikes which results in a ban",
			Value:   strikes.BanThreshold,
			EnvVars: []string{"MMB_BAN_THRESHOLD"},
		},
	},
	Action: func(cctx *cli.Context) error {
		logger, err := configLogger(cctx)
		if err != nil {
			return err
		}
		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		shutdownOTEL := configOTEL("mmb")
		defer shutdownOTEL()

		rc := configRedditClient(cctx, logger)
		// a read-only client can't moderate anything
		if err := rc.CheckReadWrite(); err != nil {
			return err
		}

		srv, err := NewServer(
			rc,
			Config{
				Logger:          logger,
				Subreddit:       cctx.String("subreddit"),
				RedisURL:        cctx.String("redis-url"),
				DatabaseURL:     cctx.String("database-url"),
				MaxDBConns:      cctx.Int("max-db-connections"),
				DedupBackend:    cctx.String("dedup-backend"),
				SetsFileJSON:    cctx.String("sets-json-path"),
				SlackWebhookURL: cctx.String("slack-webhook-url"),
				MaxPollPeriod:   cctx.Duration("poll-max"),
				SpamLabel:       cctx.String("spam-label"),
				RemovedPrefix:   cctx.String("removed-prefix"),
				SpamCategories:  cctx.StringSlice("spam-categories"),
				FlairCSSClass:   cctx.String("flair-css-class"),
				BanThreshold:    cctx.Int("ban-threshold"),
			},
		)
		if err != nil {
			return err
		}

		acct, err := rc.Me(ctx)
		if err != nil {
			return fmt.Errorf("checking reddit credentials: %w", err)
		}
		logger.Info("authenticated to reddit", "account", acct.Name, "subreddit", srv.subreddit)

		if err := srv.Run(ctx, cctx.String("bind"), cctx.String("metrics-listen")); err != nil {
			return fmt.Errorf("failed to run mmb service: %w", err)
		}
		return nil
	},
}

var strikesCmd = &cli.Command{
	Name:      "strikes",
	Usage:     "show current strikes for an account",
	ArgsUsage: "<username>",
	Action: func(cctx *cli.Context) error {
		user := cctx.Args().First()
		if user == "" {
			return fmt.Errorf("need to provide username as an argument")
		}
		logger, err := configLogger(cctx)
		if err != nil {
			return err
		}
		rc := configRedditClient(cctx, logger)
		if err := rc.CheckReadWrite(); err != nil {
			return err
		}

		raw, err := rc.UserFlair(cctx.Context, cctx.String("subreddit"), user)
		if err != nil {
			return err
		}
		state, err := strikes.Decode(raw)
		if err != nil {
			fmt.Printf("u/%s has flair %q, which is not strike flair\n", user, raw)
			return nil
		}
		fmt.Printf("u/%s: %d strike(s)\n", user, state.Count)
		for _, id := range state.PostIDs {
			fmt.Printf("  https://redd.it/%s\n", id)
		}
		return nil
	},
}
