package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/okian/marquee/internal/client"
	"github.com/okian/marquee/pkg/logger"
)

const defaultTimeout = 30 * time.Second

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("recommend", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var (
		baseURL = fs.String("url", "http://localhost:9080", "Base URL of the service")
		title   = fs.String("title", "", "Movie title to recommend from")
		list    = fs.Bool("list", false, "List catalog titles and exit")
		timeout = fs.Duration("timeout", defaultTimeout, "HTTP request timeout")
		verbose = fs.Bool("verbose", false, "Enable debug logging")
	)
	if err := fs.Parse(args); err != nil {
		return 2
	}

	if err := logger.Init(logger.WithWriter(stderr)); err != nil {
		fmt.Fprintln(stderr, "failed to initialize logging:", err)
		return 1
	}
	if *verbose {
		_ = logger.SetLevelString("debug")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	c := client.New(*baseURL, client.WithTimeout(*timeout))

	if *list {
		titles, err := c.Movies(ctx)
		if err != nil {
			fmt.Fprintln(stderr, "list movies:", err)
			return 1
		}
		for _, t := range titles {
			fmt.Fprintln(stdout, t)
		}
		return 0
	}

	if *title == "" {
		fmt.Fprintln(stderr, "-title is required (or use -list)")
		fs.Usage()
		return 2
	}

	recs, err := c.Recommend(ctx, *title)
	var apiErr *client.APIError
	if err != nil && !(errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound) {
		fmt.Fprintln(stderr, "recommend:", err)
		return 1
	}
	if rerr := client.Render(stdout, recs); rerr != nil {
		fmt.Fprintln(stderr, "render:", rerr)
		return 1
	}
	if err != nil {
		return 1
	}
	return 0
}
