package output

import (
	"io"

	"github.com/sdejongh/folderextractor/pkg/event"
	"github.com/sdejongh/folderextractor/pkg/models"
)

// Presenter applies run events to a formatter
type Presenter struct {
	formatter Formatter
	writer    io.Writer
	started   bool
}

// NewPresenter creates a presenter writing through formatter to w
func NewPresenter(formatter Formatter, w io.Writer) *Presenter {
	return &Presenter{formatter: formatter, writer: w}
}

// Consume reads events until the channel closes. Run it on its own goroutine;
// the run blocks on every send until Consume takes the event. A formatter
// error does not stop the draining; the first one is returned once the
// channel is closed.
func (p *Presenter) Consume(events <-chan event.Event) error {
	var firstErr error
	for ev := range events {
		var err error
		switch ev.Type {
		case event.ScanComplete:
			err = p.start(ev.Total, ev.Skipped)
		case event.ScanStarted, event.RunComplete:
			// the summary comes from the RunResult passed to Finish
		default:
			err = p.formatter.Progress(ev)
		}
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Finish prints the outcome of a run. err is shown before the summary.
func (p *Presenter) Finish(result *models.RunResult, err error) error {
	if serr := p.start(0, 0); serr != nil {
		return serr
	}
	if err != nil {
		if ferr := p.formatter.Error(err); ferr != nil {
			return ferr
		}
	}
	if result == nil {
		return nil
	}
	return p.formatter.Complete(result)
}

func (p *Presenter) start(total, duplicates int) error {
	if p.started {
		return nil
	}
	p.started = true
	return p.formatter.Start(p.writer, total, duplicates)
}
