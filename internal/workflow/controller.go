package workflow

import (
	"context"
	"errors"
	"log/slog"

	"docintel/internal/entity"
)

// Command is a user action consumed by the controller.
type Command int

const (
	CmdAddFiles Command = iota
	CmdRemoveFile
	CmdClear
	CmdSubmit
)

// Action pairs a Command with its arguments.
type Action struct {
	Command  Command
	Files    []StagedFile // CmdAddFiles
	FromDrop bool         // CmdAddFiles
	Index    int          // CmdRemoveFile
}

// Controller errors.
var (
	ErrJobInFlight   = errors.New("a job is already in flight")
	ErrNothingStaged = errors.New("no files staged for submission")
	ErrUnknownAction = errors.New("unknown action")
)

// FileView is one staged-file row of the view model.
type FileView struct {
	Name string
	Size int64
}

// Overlay is the modal progress view shown while a job is in flight.
type Overlay struct {
	TotalFiles int
	Progress   Progress
}

// View is the declarative view model the controller maintains. Presentation
// layers render it; they never mutate workflow state directly.
type View struct {
	Files         []FileView
	SubmitEnabled bool
	ClearVisible  bool
	Overlay       *Overlay
	ReportHTML    string
	Warning       string
}

// Controller owns the staged-file state and drives the submit→poll→render
// workflow. All state transitions go through Dispatch; the zero concurrency
// model of the UI is preserved by running Dispatch on a single goroutine.
type Controller struct {
	staging StagingArea
	client  *Client
	poll    PollConfig
	busy    bool
	view    View
	results []entity.DocumentResult
	log     *slog.Logger

	// OnProgress, when set, receives every poll update in addition to the
	// overlay. Set it before the first Dispatch.
	OnProgress ProgressFunc
}

func NewController(client *Client, poll PollConfig, logger *slog.Logger) *Controller {
	if poll.MaxAttempts <= 0 {
		poll = DefaultPollConfig()
	}
	if logger == nil {
		logger = slog.Default()
	}
	c := &Controller{client: client, poll: poll, log: logger}
	c.refresh()
	return c
}

// View returns the current view model.
func (c *Controller) View() View {
	return c.view
}

// Dispatch executes one user action and updates the view model. CmdSubmit
// blocks until the job completes or times out; re-entry while a job is in
// flight is rejected.
func (c *Controller) Dispatch(ctx context.Context, a Action) error {
	switch a.Command {
	case CmdAddFiles:
		return c.addFiles(a.Files, a.FromDrop)
	case CmdRemoveFile:
		c.staging.RemoveFile(a.Index)
		c.refresh()
		return nil
	case CmdClear:
		c.staging.Clear()
		c.view.ReportHTML = ""
		c.refresh()
		return nil
	case CmdSubmit:
		return c.submit(ctx)
	default:
		return ErrUnknownAction
	}
}

func (c *Controller) addFiles(files []StagedFile, fromDrop bool) error {
	err := c.staging.AddFiles(files, fromDrop)
	if err != nil {
		c.view.Warning = err.Error()
		return err
	}
	c.view.Warning = ""
	c.refresh()
	return nil
}

func (c *Controller) submit(ctx context.Context) error {
	if c.busy {
		return ErrJobInFlight
	}
	if c.staging.Len() == 0 {
		return ErrNothingStaged
	}
	c.busy = true
	defer func() { c.busy = false }()

	files := c.staging.Files()

	// Seed the overlay before the network call so the user sees feedback
	// before the server acknowledges.
	c.view.Overlay = &Overlay{TotalFiles: len(files)}
	c.view.Warning = ""

	handle, err := c.client.CreateJob(ctx, files)
	if err != nil {
		c.view.Overlay = nil
		c.view.Warning = err.Error()
		return err
	}

	results, err := c.client.PollUntilComplete(ctx, handle.JobID, c.poll, func(p Progress) {
		if c.view.Overlay != nil {
			c.view.Overlay.Progress = p
		}
		if c.OnProgress != nil {
			c.OnProgress(p)
		}
	})
	c.view.Overlay = nil
	if err != nil {
		c.view.Warning = err.Error()
		return err
	}

	html, err := RenderReport(results)
	if err != nil {
		c.view.Warning = err.Error()
		return err
	}
	c.results = results
	c.view.ReportHTML = html
	c.refresh()
	return nil
}

// Results returns the results of the last completed job, or nil.
func (c *Controller) Results() []entity.DocumentResult {
	return c.results
}

// refresh recomputes the derived parts of the view model after a mutation.
func (c *Controller) refresh() {
	files := c.staging.Files()
	c.view.Files = make([]FileView, len(files))
	for i, f := range files {
		c.view.Files[i] = FileView{Name: f.Name, Size: f.Size}
	}
	c.view.SubmitEnabled = len(files) > 0
	c.view.ClearVisible = len(files) > 0
}
