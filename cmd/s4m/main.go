// Command s4m is a dev CLI for lisync maintenance and debugging tasks.
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/pkg/browser"
	"github.com/rs/zerolog"

	browseropts "github.com/ibeckermayer/lisync/internal/browser"
	"github.com/ibeckermayer/lisync/internal/config"
	"github.com/ibeckermayer/lisync/internal/store"
)

var log = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly}).
	With().Timestamp().Logger()

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "bot-test":
		runBotTest()
		os.Exit(0)
	case "open":
		if len(os.Args) < 3 {
			fmt.Println("Usage: s4m open <config|cache|session|report>")
			os.Exit(1)
		}
		runOpen(os.Args[2])
	default:
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("Usage: s4m <command>")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  bot-test       Open bot.sannysoft.com to audit browser fingerprint")
	fmt.Println("  open config    Open config file in default editor")
	fmt.Println("  open cache     Open cache directory (step outputs, failed page dumps)")
	fmt.Println("  open session   Open the directory holding the captured session")
	fmt.Println("  open report    Open the most recent run report in the browser")
}

func runBotTest() {
	log.Info().Msg("Opening bot.sannysoft.com with stealth browser options...")

	opts := browseropts.Options(false) // non-headless so you can see it

	allocCtx, cancel := chromedp.NewExecAllocator(context.Background(), opts...)
	defer cancel()

	ctx, cancel := chromedp.NewContext(allocCtx)
	defer cancel()

	go func() {
		err := chromedp.Run(ctx,
			chromedp.Navigate("https://bot.sannysoft.com"),
		)
		if err != nil {
			log.Error().Err(err).Msg("Failed to navigate")
		}
	}()

	fmt.Println("Press Enter to end program...")
	fmt.Scanln()

	log.Info().Msg("Done.")
}

func runOpen(target string) {
	var path string
	var err error

	switch target {
	case "config":
		path, err = config.ConfigPath()
	case "cache":
		path, err = config.CacheDir()
	case "session":
		var cfg *config.Config
		cfg, err = config.Load()
		if os.IsNotExist(err) {
			cfg, err = config.Default(), nil
		}
		if err == nil {
			path = filepath.Dir(cfg.Session.Path)
		}
	case "report":
		path, err = latestReport()
	default:
		fmt.Printf("Unknown target: %s\n", target)
		os.Exit(1)
	}

	if err != nil {
		log.Fatal().Err(err).Msg("Failed to get path")
	}

	if err := browser.OpenFile(path); err != nil {
		log.Fatal().Err(err).Str("path", path).Msg("Failed to open")
	}
}

func latestReport() (string, error) {
	dir, err := config.CacheDir()
	if err != nil {
		return "", err
	}
	return store.NewStepCache(filepath.Join(dir, "steps")).LatestStepFile(store.StepReport)
}
