// FILE: src/cmd/arrowship/signal.go
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/lixenwraith/log"
)

// Manages OS signals
type SignalHandler struct {
	app     *App
	logger  *log.Logger
	sigChan chan os.Signal
}

// Creates a signal handler
func NewSignalHandler(app *App, logger *log.Logger) *SignalHandler {
	sh := &SignalHandler{
		app:     app,
		logger:  logger,
		sigChan: make(chan os.Signal, 1),
	}

	// Register for signals
	signal.Notify(sh.sigChan,
		syscall.SIGINT,
		syscall.SIGTERM,
		syscall.SIGHUP,
		syscall.SIGUSR1, // On-demand status report
	)

	return sh
}

// Processes signals until a termination signal arrives
func (sh *SignalHandler) Handle(ctx context.Context) os.Signal {
	for {
		select {
		case sig := <-sh.sigChan:
			switch sig {
			case syscall.SIGUSR1:
				sh.logger.Info("msg", "Status signal received",
					"signal", sig.String())
				logRunStatus(sh.app)
				// Continue handling signals
			default:
				// Return termination signals
				return sig
			}
		case <-ctx.Done():
			return nil
		}
	}
}

// Cleans up signal handling
func (sh *SignalHandler) Stop() {
	signal.Stop(sh.sigChan)
	close(sh.sigChan)
}
