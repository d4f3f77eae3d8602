package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"runtime/debug"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/fragmede/chatter/internal/api"
	"github.com/fragmede/chatter/internal/cache"
	"github.com/fragmede/chatter/internal/config"
	"github.com/fragmede/chatter/internal/logging"
	"github.com/fragmede/chatter/internal/session"
	"github.com/fragmede/chatter/internal/ui"
	"github.com/fragmede/chatter/internal/ui/threadview"
)

var (
	version = "dev"
	commit  = "none"
)

type cliMode int

const (
	cliRun cliMode = iota
	cliDump
	cliVersion
	cliHelp
	cliInvalid
)

const dumpWidth = 80

func parseCLIArgs(args []string) (cliMode, string) {
	if len(args) == 0 {
		return cliRun, ""
	}

	switch args[0] {
	case "--dump":
		return cliDump, ""
	case "--version", "-version", "-v":
		return cliVersion, ""
	case "--help", "-h", "help":
		return cliHelp, ""
	default:
		return cliInvalid, fmt.Sprintf("unexpected argument: %s", strings.Join(args, " "))
	}
}

func usage() string {
	return "Usage: chatter [--version|-v] [--help|-h] [--dump]"
}

func resolveVersion(v, moduleVersion string) string {
	if v == "dev" {
		mv := strings.TrimSpace(moduleVersion)
		if mv != "" && mv != "(devel)" {
			return mv
		}
	}
	return v
}

func main() {
	mode, msg := parseCLIArgs(os.Args[1:])
	switch mode {
	case cliVersion:
		v := version
		if info, ok := debug.ReadBuildInfo(); ok && info != nil {
			v = resolveVersion(v, info.Main.Version)
		}
		fmt.Printf("chatter %s\ncommit: %s\n", v, commit)
		return
	case cliHelp:
		fmt.Println(usage())
		return
	case cliInvalid:
		fmt.Fprintf(os.Stderr, "%s\n%s\n", msg, usage())
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.New(cfg.LogPath, cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	db, err := cache.Open(cache.MemoryDSN)
	if err != nil {
		fmt.Fprintf(os.Stderr, "opening session store: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	client := api.NewClient(cfg.APIBaseURL, cfg.RequestTimeout)
	sess, err := session.New(cfg, client, db, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "session: %v\n", err)
		os.Exit(1)
	}

	if mode == cliDump {
		if err := dump(context.Background(), os.Stdout, sess, cfg.DateLocale); err != nil {
			logger.Error("dump failed", zap.Error(err))
			fmt.Fprintf(os.Stderr, "chatter: %v\n", err)
			os.Exit(1)
		}
		return
	}

	logger.Info("starting", zap.String("api", cfg.APIBaseURL), zap.Int("total_pages", cfg.TotalPages))
	p := tea.NewProgram(ui.NewApp(cfg, sess, logger), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "chatter: %v\n", err)
		os.Exit(1)
	}
}

// dump loads page 1 and the authors, then writes the counters and the
// fully expanded forest to w.
func dump(ctx context.Context, w io.Writer, sess *session.Session, locale string) error {
	if err := sess.LoadAll(ctx, 1); err != nil {
		return err
	}
	forest, err := sess.Forest()
	if err != nil {
		return err
	}
	authors, err := sess.Authors()
	if err != nil {
		return err
	}
	out, err := threadview.Render(forest, authors, sess.Liked, locale, dumpWidth)
	if err != nil {
		return fmt.Errorf("rendering comments: %w", err)
	}
	c := sess.Counters()
	if _, err := fmt.Fprintf(w, "%d comments  ♥ %d\n\n%s", c.TotalComments, c.TotalLikes, out); err != nil {
		return err
	}
	return nil
}
