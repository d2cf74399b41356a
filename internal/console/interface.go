package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"job-applier/internal/config"
	"job-applier/internal/entity"
	"job-applier/internal/profile"
	"job-applier/internal/usecase"
	"job-applier/pkg/logg"

	"go.uber.org/fx"
	"go.uber.org/zap"
)

var errExit = errors.New("exit")

type Interface struct {
	config  *config.Config
	logger  *zap.Logger
	usecase *usecase.Service
	profile *entity.ApplicantProfile
	in      io.Reader
	out     io.Writer

	mu       sync.Mutex
	ctx      context.Context
	cancel   context.CancelFunc
	stopping bool
}

type Params struct {
	fx.In

	Config  *config.Config
	Logger  *zap.Logger
	Usecase *usecase.Service
	Profile *entity.ApplicantProfile
	Input   io.Reader `name:"console_in" optional:"true"`
	Out     io.Writer `name:"console_out" optional:"true"`
}

func NewInterface(params Params) *Interface {
	ctx, cancel := context.WithCancel(context.Background())

	in, out := params.Input, params.Out
	if in == nil {
		in = os.Stdin
	}

	if out == nil {
		out = os.Stdout
	}

	return &Interface{
		config:  params.Config,
		logger:  params.Logger.With(zap.String(logg.Layer, "Console")),
		usecase: params.Usecase,
		profile: params.Profile,
		in:      in,
		out:     out,
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Start reads commands until EOF, exit, or Stop.
func (i *Interface) Start() error {
	i.printBanner()
	i.printHelp()

	scanner := bufio.NewScanner(i.in)

	for !i.isStopping() {
		fmt.Fprint(i.out, "\n> ")

		if !scanner.Scan() {
			break
		}

		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}

		if err := i.handleCommand(input); err != nil {
			if errors.Is(err, errExit) {
				break
			}

			i.logger.Error("Command error", zap.Error(err))
			fmt.Fprintf(i.out, "Error: %v\n", err)
		}
	}

	return scanner.Err()
}

// Stop cancels the running attempt, if any.
func (i *Interface) Stop() error {
	i.mu.Lock()
	defer i.mu.Unlock()

	if i.stopping {
		return nil
	}

	i.stopping = true
	i.logger.Info("Stopping console interface...")
	i.cancel()

	return nil
}

func (i *Interface) isStopping() bool {
	i.mu.Lock()
	defer i.mu.Unlock()

	return i.stopping
}

func (i *Interface) handleCommand(input string) error {
	fields := strings.Fields(input)

	switch strings.ToLower(fields[0]) {
	case "help", "h":
		i.printHelp()

		return nil
	case "exit", "quit", "q":
		fmt.Fprintln(i.out, "Shutting down...")

		return errExit
	case "history", "ls":
		return i.printHistory()
	case "apply":
		if len(fields) < 2 {
			return errors.New("usage: apply <job-url>")
		}

		return i.apply(fields[1])
	default:
		if strings.HasPrefix(fields[0], "http://") || strings.HasPrefix(fields[0], "https://") {
			return i.apply(fields[0])
		}

		return fmt.Errorf("unknown command %q, type help", fields[0])
	}
}

func (i *Interface) apply(url string) error {
	job := entity.Job{URL: url}
	if err := profile.ValidateJob(job); err != nil {
		return err
	}

	fmt.Fprintf(i.out, "\nApplying to %s as %s\n", url, i.profile.Key())

	attempt := i.usecase.Application.Apply(i.ctx, job, i.profile)
	PrintAttempt(i.out, attempt)

	return nil
}

func (i *Interface) printHistory() error {
	records, err := i.usecase.History.List(i.ctx)
	if err != nil {
		return err
	}

	PrintHistory(i.out, records)

	return nil
}

// PrintAttempt writes a human-readable attempt summary.
func PrintAttempt(w io.Writer, a *entity.ApplicationAttempt) {
	fmt.Fprintf(w, "Outcome: %s\n", a.Outcome)

	if len(a.Stages) > 0 {
		stages := make([]string, len(a.Stages))
		for n, s := range a.Stages {
			stages[n] = string(s)
		}

		fmt.Fprintf(w, "Stages:  %s\n", strings.Join(stages, " -> "))
	}

	for _, n := range a.Notes {
		fmt.Fprintf(w, "  - %s\n", n)
	}

	if a.Error != "" {
		fmt.Fprintf(w, "Error:   %s\n", a.Error)
	}

	if len(a.Artifacts) > 0 {
		fmt.Fprintf(w, "Screenshots: %d (last: %s)\n", len(a.Artifacts), a.Artifacts[len(a.Artifacts)-1])
	}
}

// PrintHistory writes one line per log record.
func PrintHistory(w io.Writer, records []*entity.LogRecord) {
	if len(records) == 0 {
		fmt.Fprintln(w, "No applications recorded yet.")
		return
	}

	for _, r := range records {
		fmt.Fprintf(w, "%s  %-16s %s  (%s)\n", r.Timestamp.Format("2006-01-02 15:04"), r.Outcome, r.JobURL, r.ApplicantKey)
	}
}

func (i *Interface) printBanner() {
	fmt.Fprintln(i.out, `
+-----------------------------------------------+
|              Job Application Engine           |
+-----------------------------------------------+`)
}

func (i *Interface) printHelp() {
	fmt.Fprintln(i.out, `
Available commands:
  apply <url>    - Apply to a job posting (a bare URL works too)
  history, ls    - List recorded applications
  help, h        - Show this help message
  exit, quit, q  - Exit the application`)
}
